package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// TrackInput identifies a single track.
type TrackInput struct {
	TrackIndex int `json:"track_index" jsonschema:"The index of the track"`
}

// CreateTrackInput defines input for track creation tools.
type CreateTrackInput struct {
	Index *int `json:"index,omitempty" jsonschema:"The index to insert the track at (-1 or omitted = end of list)"`
}

func (in CreateTrackInput) index() int {
	if in.Index == nil {
		return -1
	}
	return *in.Index
}

// SetTrackNameInput defines input for set_track_name.
type SetTrackNameInput struct {
	TrackIndex int    `json:"track_index" jsonschema:"The index of the track to rename"`
	Name       string `json:"name" jsonschema:"The new name for the track"`
}

// TrackVolumeInput defines input for set_track_volume.
type TrackVolumeInput struct {
	TrackIndex int     `json:"track_index" jsonschema:"The index of the track"`
	Volume     float64 `json:"volume" jsonschema:"Volume from 0.0 to 1.0 (0.85 is roughly 0dB)"`
}

// TrackPanInput defines input for set_track_pan.
type TrackPanInput struct {
	TrackIndex int     `json:"track_index" jsonschema:"The index of the track"`
	Pan        float64 `json:"pan" jsonschema:"Pan from -1.0 (left) through 0.0 (center) to 1.0 (right)"`
}

// TrackBoolInput sets a toggled state on a track.
type TrackBoolInput struct {
	TrackIndex int  `json:"track_index" jsonschema:"The index of the track"`
	Value      bool `json:"value" jsonschema:"The state to set"`
}

func registerTrackTools(server *mcp.Server, lt *LiveTools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_track_info",
		Description: "Get detailed information about a specific track in Ableton",
	}, lt.makeGetTrackInfoHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_midi_track",
		Description: "Create a new MIDI track in the Ableton session (index -1 = end of list)",
	}, lt.makeCreateMIDITrackHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_audio_track",
		Description: "Create a new audio track in the Ableton session (index -1 = end of list)",
	}, lt.makeCreateAudioTrackHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_track_name",
		Description: "Set the name of a track",
	}, lt.makeSetTrackNameHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_track_volume",
		Description: "Set track volume (0.0 to 1.0, where 0.85 is roughly 0dB)",
	}, lt.makeSetTrackVolumeHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_track_pan",
		Description: "Set track pan (-1.0 = left, 0.0 = center, 1.0 = right)",
	}, lt.makeSetTrackPanHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_track_mute",
		Description: "Set track mute state",
	}, lt.makeTrackToggleHandler("set_track_mute", "mute"))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_track_solo",
		Description: "Set track solo state",
	}, lt.makeTrackToggleHandler("set_track_solo", "solo"))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_track_arm",
		Description: "Set track arm/record enable state",
	}, lt.makeTrackToggleHandler("set_track_arm", "arm"))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_track",
		Description: "Delete a track",
	}, lt.makeDeleteTrackHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "duplicate_track",
		Description: "Duplicate a track",
	}, lt.makeDuplicateTrackHandler())
}

func (lt *LiveTools) makeGetTrackInfoHandler() func(context.Context, *mcp.CallToolRequest, TrackInput) (*mcp.CallToolResult, ResultOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input TrackInput) (*mcp.CallToolResult, ResultOutput, error) {
		result, err := lt.manager.Execute("get_track_info", map[string]any{"track_index": input.TrackIndex})
		if err != nil {
			return errorResult(fmt.Sprintf("Error getting track info: %v", err)), ResultOutput{}, nil
		}
		return nil, ResultOutput{Result: result}, nil
	}
}

func (lt *LiveTools) makeCreateMIDITrackHandler() func(context.Context, *mcp.CallToolRequest, CreateTrackInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input CreateTrackInput) (*mcp.CallToolResult, MessageOutput, error) {
		result, err := lt.manager.Execute("create_midi_track", map[string]any{"index": input.index()})
		if err != nil {
			return errorResult(fmt.Sprintf("Error creating MIDI track: %v", err)), MessageOutput{}, nil
		}
		name := getString(result, "name")
		if name == "" {
			name = "unknown"
		}
		return nil, MessageOutput{Message: fmt.Sprintf("Created new MIDI track: %s", name)}, nil
	}
}

func (lt *LiveTools) makeCreateAudioTrackHandler() func(context.Context, *mcp.CallToolRequest, CreateTrackInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input CreateTrackInput) (*mcp.CallToolResult, MessageOutput, error) {
		result, err := lt.manager.Execute("create_audio_track", map[string]any{"index": input.index()})
		if err != nil {
			return errorResult(fmt.Sprintf("Error creating audio track: %v", err)), MessageOutput{}, nil
		}
		return nil, MessageOutput{
			Message: fmt.Sprintf("Created audio track '%s' at index %d", getString(result, "name"), getInt(result, "index")),
		}, nil
	}
}

func (lt *LiveTools) makeSetTrackNameHandler() func(context.Context, *mcp.CallToolRequest, SetTrackNameInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SetTrackNameInput) (*mcp.CallToolResult, MessageOutput, error) {
		result, err := lt.manager.Execute("set_track_name", map[string]any{
			"track_index": input.TrackIndex,
			"name":        input.Name,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error setting track name: %v", err)), MessageOutput{}, nil
		}
		name := getString(result, "name")
		if name == "" {
			name = input.Name
		}
		return nil, MessageOutput{Message: fmt.Sprintf("Renamed track to: %s", name)}, nil
	}
}

func (lt *LiveTools) makeSetTrackVolumeHandler() func(context.Context, *mcp.CallToolRequest, TrackVolumeInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input TrackVolumeInput) (*mcp.CallToolResult, MessageOutput, error) {
		_, err := lt.manager.Execute("set_track_volume", map[string]any{
			"track_index": input.TrackIndex,
			"volume":      input.Volume,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error setting track volume: %v", err)), MessageOutput{}, nil
		}
		return nil, MessageOutput{Message: fmt.Sprintf("Set track %d volume to %g", input.TrackIndex, input.Volume)}, nil
	}
}

func (lt *LiveTools) makeSetTrackPanHandler() func(context.Context, *mcp.CallToolRequest, TrackPanInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input TrackPanInput) (*mcp.CallToolResult, MessageOutput, error) {
		_, err := lt.manager.Execute("set_track_pan", map[string]any{
			"track_index": input.TrackIndex,
			"pan":         input.Pan,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error setting track pan: %v", err)), MessageOutput{}, nil
		}
		return nil, MessageOutput{Message: fmt.Sprintf("Set track %d pan to %g", input.TrackIndex, input.Pan)}, nil
	}
}

// makeTrackToggleHandler builds a handler for the mute/solo/arm family of
// commands, which differ only in command name and parameter key.
func (lt *LiveTools) makeTrackToggleHandler(command, param string) func(context.Context, *mcp.CallToolRequest, TrackBoolInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input TrackBoolInput) (*mcp.CallToolResult, MessageOutput, error) {
		_, err := lt.manager.Execute(command, map[string]any{
			"track_index": input.TrackIndex,
			param:         input.Value,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), MessageOutput{}, nil
		}
		return nil, MessageOutput{Message: fmt.Sprintf("Set track %d %s to %t", input.TrackIndex, param, input.Value)}, nil
	}
}

func (lt *LiveTools) makeDeleteTrackHandler() func(context.Context, *mcp.CallToolRequest, TrackInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input TrackInput) (*mcp.CallToolResult, MessageOutput, error) {
		_, err := lt.manager.Execute("delete_track", map[string]any{"track_index": input.TrackIndex})
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), MessageOutput{}, nil
		}
		return nil, MessageOutput{Message: fmt.Sprintf("Deleted track %d", input.TrackIndex)}, nil
	}
}

func (lt *LiveTools) makeDuplicateTrackHandler() func(context.Context, *mcp.CallToolRequest, TrackInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input TrackInput) (*mcp.CallToolResult, MessageOutput, error) {
		result, err := lt.manager.Execute("duplicate_track", map[string]any{"track_index": input.TrackIndex})
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), MessageOutput{}, nil
		}
		return nil, MessageOutput{
			Message: fmt.Sprintf("Duplicated track %d to index %d", input.TrackIndex, getInt(result, "new_track_index")),
		}, nil
	}
}
