package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Note describes a single MIDI note. Pitch, start time, duration and
// velocity are required; the remaining properties are Live 11+ extras.
type Note struct {
	Pitch             int      `json:"pitch" jsonschema:"MIDI pitch 0-127"`
	StartTime         float64  `json:"start_time" jsonschema:"Note start in beats"`
	Duration          float64  `json:"duration" jsonschema:"Note duration in beats"`
	Velocity          int      `json:"velocity" jsonschema:"MIDI velocity 0-127"`
	Mute              bool     `json:"mute,omitempty" jsonschema:"Whether the note is muted"`
	VelocityDeviation *float64 `json:"velocity_deviation,omitempty" jsonschema:"Velocity deviation for probability-based playback"`
	ReleaseVelocity   *int     `json:"release_velocity,omitempty" jsonschema:"MIDI release velocity 0-127"`
	Probability       *float64 `json:"probability,omitempty" jsonschema:"Playback probability 0.0-1.0"`
}

// NotesInput defines input for add_notes_to_clip and add_new_notes_to_clip.
type NotesInput struct {
	TrackIndex int    `json:"track_index" jsonschema:"The index of the track containing the clip"`
	ClipIndex  int    `json:"clip_index" jsonschema:"The index of the clip slot containing the clip"`
	Notes      []Note `json:"notes" jsonschema:"List of notes to add"`
}

// RemoveNotesInput defines input for remove_notes_from_clip. When note IDs
// are given the range parameters are ignored.
type RemoveNotesInput struct {
	TrackIndex int      `json:"track_index" jsonschema:"Track index"`
	ClipIndex  int      `json:"clip_index" jsonschema:"Clip slot index"`
	NoteIDs    []int    `json:"note_ids,omitempty" jsonschema:"Note IDs to remove (if provided, range params ignored)"`
	FromTime   *float64 `json:"from_time,omitempty" jsonschema:"Start time in beats for range removal"`
	ToTime     *float64 `json:"to_time,omitempty" jsonschema:"End time in beats for range removal"`
	FromPitch  *int     `json:"from_pitch,omitempty" jsonschema:"Start pitch 0-127 for range removal"`
	ToPitch    *int     `json:"to_pitch,omitempty" jsonschema:"End pitch 0-127 for range removal"`
}

// NoteModification identifies a note by ID plus the properties to change.
type NoteModification struct {
	NoteID            int      `json:"note_id" jsonschema:"ID of the note to modify"`
	Pitch             *int     `json:"pitch,omitempty" jsonschema:"New MIDI pitch 0-127"`
	StartTime         *float64 `json:"start_time,omitempty" jsonschema:"New start in beats"`
	Duration          *float64 `json:"duration,omitempty" jsonschema:"New duration in beats"`
	Velocity          *int     `json:"velocity,omitempty" jsonschema:"New MIDI velocity 0-127"`
	Mute              *bool    `json:"mute,omitempty" jsonschema:"New mute state"`
	VelocityDeviation *float64 `json:"velocity_deviation,omitempty" jsonschema:"New velocity deviation"`
	ReleaseVelocity   *int     `json:"release_velocity,omitempty" jsonschema:"New release velocity 0-127"`
	Probability       *float64 `json:"probability,omitempty" jsonschema:"New playback probability 0.0-1.0"`
}

// ModifyNotesInput defines input for modify_notes_in_clip.
type ModifyNotesInput struct {
	TrackIndex    int                `json:"track_index" jsonschema:"Track index"`
	ClipIndex     int                `json:"clip_index" jsonschema:"Clip slot index"`
	Modifications []NoteModification `json:"modifications" jsonschema:"Notes to modify, each with note_id and the properties to change"`
}

// SelectNotesInput defines input for select_notes_from_clip.
type SelectNotesInput struct {
	TrackIndex int      `json:"track_index" jsonschema:"Track index"`
	ClipIndex  int      `json:"clip_index" jsonschema:"Clip slot index"`
	FromTime   float64  `json:"from_time,omitempty" jsonschema:"Start time in beats (default 0)"`
	ToTime     *float64 `json:"to_time,omitempty" jsonschema:"End time in beats (omit for clip length)"`
	FromPitch  *int     `json:"from_pitch,omitempty" jsonschema:"Start pitch 0-127 (default 0)"`
	ToPitch    *int     `json:"to_pitch,omitempty" jsonschema:"End pitch 0-127 (default 127)"`
}

// QuantizeNotesInput defines input for quantize_notes.
type QuantizeNotesInput struct {
	TrackIndex int     `json:"track_index" jsonschema:"Track index"`
	ClipIndex  int     `json:"clip_index" jsonschema:"Clip slot index"`
	QuantizeTo float64 `json:"quantize_to,omitempty" jsonschema:"Quantization grid in beats (0.25 = 16th note, 0.5 = 8th note, 1.0 = quarter note)"`
}

// TransposeNotesInput defines input for transpose_notes.
type TransposeNotesInput struct {
	TrackIndex int `json:"track_index" jsonschema:"Track index"`
	ClipIndex  int `json:"clip_index" jsonschema:"Clip slot index"`
	Semitones  int `json:"semitones" jsonschema:"Number of semitones to transpose (positive or negative)"`
}

func registerNoteTools(server *mcp.Server, lt *LiveTools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_notes_from_clip",
		Description: "Get MIDI notes from a clip, including note IDs and extended properties",
	}, lt.makeGetNotesHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_notes_to_clip",
		Description: "Add MIDI notes to a clip, replacing all existing notes (legacy method)",
	}, lt.makeAddNotesHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_new_notes_to_clip",
		Description: "Add MIDI notes to a clip without replacing existing notes (Live 11+)",
	}, lt.makeAddNewNotesHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_notes_from_clip",
		Description: "Remove notes from a clip by note IDs or time/pitch range",
	}, lt.makeRemoveNotesHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "modify_notes_in_clip",
		Description: "Modify existing notes in a clip by note ID (Live 11+)",
	}, lt.makeModifyNotesHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "select_notes_from_clip",
		Description: "Select notes from a clip filtered by time and pitch range",
	}, lt.makeSelectNotesHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "quantize_notes",
		Description: "Quantize notes in a clip to a beat grid",
	}, lt.makeQuantizeNotesHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "transpose_notes",
		Description: "Transpose all notes in a clip by a number of semitones",
	}, lt.makeTransposeNotesHandler())
}

func (lt *LiveTools) makeGetNotesHandler() func(context.Context, *mcp.CallToolRequest, ClipInput) (*mcp.CallToolResult, ResultOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ClipInput) (*mcp.CallToolResult, ResultOutput, error) {
		result, err := lt.manager.Execute("get_notes_from_clip", map[string]any{
			"track_index": input.TrackIndex,
			"clip_index":  input.ClipIndex,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error getting notes from clip: %v", err)), ResultOutput{}, nil
		}
		return nil, ResultOutput{Result: result}, nil
	}
}

func (lt *LiveTools) makeAddNotesHandler() func(context.Context, *mcp.CallToolRequest, NotesInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input NotesInput) (*mcp.CallToolResult, MessageOutput, error) {
		_, err := lt.manager.Execute("add_notes_to_clip", map[string]any{
			"track_index": input.TrackIndex,
			"clip_index":  input.ClipIndex,
			"notes":       notesToParams(input.Notes),
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error adding notes to clip: %v", err)), MessageOutput{}, nil
		}
		return nil, MessageOutput{
			Message: fmt.Sprintf("Added %d notes to clip at track %d, slot %d (replaced existing notes)",
				len(input.Notes), input.TrackIndex, input.ClipIndex),
		}, nil
	}
}

func (lt *LiveTools) makeAddNewNotesHandler() func(context.Context, *mcp.CallToolRequest, NotesInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input NotesInput) (*mcp.CallToolResult, MessageOutput, error) {
		_, err := lt.manager.Execute("add_new_notes_to_clip", map[string]any{
			"track_index": input.TrackIndex,
			"clip_index":  input.ClipIndex,
			"notes":       notesToParams(input.Notes),
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error adding new notes to clip: %v", err)), MessageOutput{}, nil
		}
		return nil, MessageOutput{
			Message: fmt.Sprintf("Added %d new notes to clip at track %d, slot %d (kept existing notes)",
				len(input.Notes), input.TrackIndex, input.ClipIndex),
		}, nil
	}
}

func (lt *LiveTools) makeRemoveNotesHandler() func(context.Context, *mcp.CallToolRequest, RemoveNotesInput) (*mcp.CallToolResult, ResultOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input RemoveNotesInput) (*mcp.CallToolResult, ResultOutput, error) {
		params := map[string]any{
			"track_index": input.TrackIndex,
			"clip_index":  input.ClipIndex,
		}
		if len(input.NoteIDs) > 0 {
			params["note_ids"] = input.NoteIDs
		} else {
			if input.FromTime != nil {
				params["from_time"] = *input.FromTime
			}
			if input.ToTime != nil {
				params["to_time"] = *input.ToTime
			}
			if input.FromPitch != nil {
				params["from_pitch"] = *input.FromPitch
			}
			if input.ToPitch != nil {
				params["to_pitch"] = *input.ToPitch
			}
		}
		result, err := lt.manager.Execute("remove_notes_from_clip", params)
		if err != nil {
			return errorResult(fmt.Sprintf("Error removing notes: %v", err)), ResultOutput{}, nil
		}
		return nil, ResultOutput{Result: result}, nil
	}
}

func (lt *LiveTools) makeModifyNotesHandler() func(context.Context, *mcp.CallToolRequest, ModifyNotesInput) (*mcp.CallToolResult, ResultOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ModifyNotesInput) (*mcp.CallToolResult, ResultOutput, error) {
		mods := make([]map[string]any, 0, len(input.Modifications))
		for _, m := range input.Modifications {
			mod := map[string]any{"note_id": m.NoteID}
			if m.Pitch != nil {
				mod["pitch"] = *m.Pitch
			}
			if m.StartTime != nil {
				mod["start_time"] = *m.StartTime
			}
			if m.Duration != nil {
				mod["duration"] = *m.Duration
			}
			if m.Velocity != nil {
				mod["velocity"] = *m.Velocity
			}
			if m.Mute != nil {
				mod["mute"] = *m.Mute
			}
			if m.VelocityDeviation != nil {
				mod["velocity_deviation"] = *m.VelocityDeviation
			}
			if m.ReleaseVelocity != nil {
				mod["release_velocity"] = *m.ReleaseVelocity
			}
			if m.Probability != nil {
				mod["probability"] = *m.Probability
			}
			mods = append(mods, mod)
		}
		result, err := lt.manager.Execute("modify_notes_in_clip", map[string]any{
			"track_index":   input.TrackIndex,
			"clip_index":    input.ClipIndex,
			"modifications": mods,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error modifying notes: %v", err)), ResultOutput{}, nil
		}
		return nil, ResultOutput{Result: result}, nil
	}
}

func (lt *LiveTools) makeSelectNotesHandler() func(context.Context, *mcp.CallToolRequest, SelectNotesInput) (*mcp.CallToolResult, ResultOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SelectNotesInput) (*mcp.CallToolResult, ResultOutput, error) {
		fromPitch := 0
		if input.FromPitch != nil {
			fromPitch = *input.FromPitch
		}
		toPitch := 127
		if input.ToPitch != nil {
			toPitch = *input.ToPitch
		}
		params := map[string]any{
			"track_index": input.TrackIndex,
			"clip_index":  input.ClipIndex,
			"from_time":   input.FromTime,
			"from_pitch":  fromPitch,
			"to_pitch":    toPitch,
		}
		if input.ToTime != nil {
			params["to_time"] = *input.ToTime
		}
		result, err := lt.manager.Execute("select_notes_from_clip", params)
		if err != nil {
			return errorResult(fmt.Sprintf("Error selecting notes: %v", err)), ResultOutput{}, nil
		}
		return nil, ResultOutput{Result: result}, nil
	}
}

func (lt *LiveTools) makeQuantizeNotesHandler() func(context.Context, *mcp.CallToolRequest, QuantizeNotesInput) (*mcp.CallToolResult, ResultOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input QuantizeNotesInput) (*mcp.CallToolResult, ResultOutput, error) {
		quantizeTo := input.QuantizeTo
		if quantizeTo == 0 {
			quantizeTo = 0.25
		}
		result, err := lt.manager.Execute("quantize_notes", map[string]any{
			"track_index": input.TrackIndex,
			"clip_index":  input.ClipIndex,
			"quantize_to": quantizeTo,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), ResultOutput{}, nil
		}
		return nil, ResultOutput{Result: result}, nil
	}
}

func (lt *LiveTools) makeTransposeNotesHandler() func(context.Context, *mcp.CallToolRequest, TransposeNotesInput) (*mcp.CallToolResult, ResultOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input TransposeNotesInput) (*mcp.CallToolResult, ResultOutput, error) {
		result, err := lt.manager.Execute("transpose_notes", map[string]any{
			"track_index": input.TrackIndex,
			"clip_index":  input.ClipIndex,
			"semitones":   input.Semitones,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), ResultOutput{}, nil
		}
		return nil, ResultOutput{Result: result}, nil
	}
}

// notesToParams converts typed notes to the wire shape, keeping only
// the optional properties that were actually provided.
func notesToParams(notes []Note) []map[string]any {
	out := make([]map[string]any, 0, len(notes))
	for _, n := range notes {
		note := map[string]any{
			"pitch":      n.Pitch,
			"start_time": n.StartTime,
			"duration":   n.Duration,
			"velocity":   n.Velocity,
			"mute":       n.Mute,
		}
		if n.VelocityDeviation != nil {
			note["velocity_deviation"] = *n.VelocityDeviation
		}
		if n.ReleaseVelocity != nil {
			note["release_velocity"] = *n.ReleaseVelocity
		}
		if n.Probability != nil {
			note["probability"] = *n.Probability
		}
		out = append(out, note)
	}
	return out
}
