package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ClipInput identifies a clip by track and slot.
type ClipInput struct {
	TrackIndex int `json:"track_index" jsonschema:"The index of the track containing the clip"`
	ClipIndex  int `json:"clip_index" jsonschema:"The index of the clip slot containing the clip"`
}

// CreateClipInput defines input for create_clip.
type CreateClipInput struct {
	TrackIndex int     `json:"track_index" jsonschema:"The index of the track to create the clip in"`
	ClipIndex  int     `json:"clip_index" jsonschema:"The index of the clip slot to create the clip in"`
	Length     float64 `json:"length,omitempty" jsonschema:"The length of the clip in beats (default 4.0)"`
}

// SetClipNameInput defines input for set_clip_name.
type SetClipNameInput struct {
	TrackIndex int    `json:"track_index" jsonschema:"The index of the track containing the clip"`
	ClipIndex  int    `json:"clip_index" jsonschema:"The index of the clip slot containing the clip"`
	Name       string `json:"name" jsonschema:"The new name for the clip"`
}

// SetClipLoopInput defines input for set_clip_loop.
type SetClipLoopInput struct {
	TrackIndex  int      `json:"track_index" jsonschema:"The index of the track containing the clip"`
	ClipIndex   int      `json:"clip_index" jsonschema:"The index of the clip slot containing the clip"`
	LoopStart   float64  `json:"loop_start" jsonschema:"Loop start in beats"`
	LoopEnd     *float64 `json:"loop_end,omitempty" jsonschema:"Loop end in beats (omit to keep clip length)"`
	LoopEnabled *bool    `json:"loop_enabled,omitempty" jsonschema:"Whether looping is enabled (default true)"`
}

// SetClipColorInput defines input for set_clip_color.
type SetClipColorInput struct {
	TrackIndex int `json:"track_index" jsonschema:"The index of the track containing the clip"`
	ClipIndex  int `json:"clip_index" jsonschema:"The index of the clip slot containing the clip"`
	Color      int `json:"color" jsonschema:"Color index 0-69"`
}

func registerClipTools(server *mcp.Server, lt *LiveTools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_clip",
		Description: "Create a new MIDI clip in the specified track and clip slot",
	}, lt.makeCreateClipHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_clip_info",
		Description: "Get detailed information about a clip",
	}, lt.makeGetClipInfoHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_clip_name",
		Description: "Set the name of a clip",
	}, lt.makeSetClipNameHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_clip",
		Description: "Delete a clip",
	}, lt.makeDeleteClipHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "duplicate_clip",
		Description: "Duplicate a clip to the next available slot",
	}, lt.makeDuplicateClipHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_clip_loop",
		Description: "Set clip loop parameters",
	}, lt.makeSetClipLoopHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_clip_color",
		Description: "Set clip color (color index 0-69)",
	}, lt.makeSetClipColorHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "fire_clip",
		Description: "Start playing a clip",
	}, lt.makeFireClipHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "stop_clip",
		Description: "Stop playing a clip",
	}, lt.makeStopClipHandler())
}

func (lt *LiveTools) makeCreateClipHandler() func(context.Context, *mcp.CallToolRequest, CreateClipInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input CreateClipInput) (*mcp.CallToolResult, MessageOutput, error) {
		length := input.Length
		if length == 0 {
			length = 4.0
		}
		_, err := lt.manager.Execute("create_clip", map[string]any{
			"track_index": input.TrackIndex,
			"clip_index":  input.ClipIndex,
			"length":      length,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error creating clip: %v", err)), MessageOutput{}, nil
		}
		return nil, MessageOutput{
			Message: fmt.Sprintf("Created new clip at track %d, slot %d with length %g beats",
				input.TrackIndex, input.ClipIndex, length),
		}, nil
	}
}

func (lt *LiveTools) makeGetClipInfoHandler() func(context.Context, *mcp.CallToolRequest, ClipInput) (*mcp.CallToolResult, ResultOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ClipInput) (*mcp.CallToolResult, ResultOutput, error) {
		result, err := lt.manager.Execute("get_clip_info", map[string]any{
			"track_index": input.TrackIndex,
			"clip_index":  input.ClipIndex,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), ResultOutput{}, nil
		}
		return nil, ResultOutput{Result: result}, nil
	}
}

func (lt *LiveTools) makeSetClipNameHandler() func(context.Context, *mcp.CallToolRequest, SetClipNameInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SetClipNameInput) (*mcp.CallToolResult, MessageOutput, error) {
		_, err := lt.manager.Execute("set_clip_name", map[string]any{
			"track_index": input.TrackIndex,
			"clip_index":  input.ClipIndex,
			"name":        input.Name,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error setting clip name: %v", err)), MessageOutput{}, nil
		}
		return nil, MessageOutput{
			Message: fmt.Sprintf("Renamed clip at track %d, slot %d to '%s'", input.TrackIndex, input.ClipIndex, input.Name),
		}, nil
	}
}

func (lt *LiveTools) makeDeleteClipHandler() func(context.Context, *mcp.CallToolRequest, ClipInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ClipInput) (*mcp.CallToolResult, MessageOutput, error) {
		_, err := lt.manager.Execute("delete_clip", map[string]any{
			"track_index": input.TrackIndex,
			"clip_index":  input.ClipIndex,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), MessageOutput{}, nil
		}
		return nil, MessageOutput{
			Message: fmt.Sprintf("Deleted clip at track %d, slot %d", input.TrackIndex, input.ClipIndex),
		}, nil
	}
}

func (lt *LiveTools) makeDuplicateClipHandler() func(context.Context, *mcp.CallToolRequest, ClipInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ClipInput) (*mcp.CallToolResult, MessageOutput, error) {
		result, err := lt.manager.Execute("duplicate_clip", map[string]any{
			"track_index": input.TrackIndex,
			"clip_index":  input.ClipIndex,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), MessageOutput{}, nil
		}
		return nil, MessageOutput{
			Message: fmt.Sprintf("Duplicated clip to slot %d", getInt(result, "target_clip_index")),
		}, nil
	}
}

func (lt *LiveTools) makeSetClipLoopHandler() func(context.Context, *mcp.CallToolRequest, SetClipLoopInput) (*mcp.CallToolResult, ResultOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SetClipLoopInput) (*mcp.CallToolResult, ResultOutput, error) {
		enabled := true
		if input.LoopEnabled != nil {
			enabled = *input.LoopEnabled
		}
		params := map[string]any{
			"track_index":  input.TrackIndex,
			"clip_index":   input.ClipIndex,
			"loop_start":   input.LoopStart,
			"loop_enabled": enabled,
		}
		if input.LoopEnd != nil {
			params["loop_end"] = *input.LoopEnd
		}
		result, err := lt.manager.Execute("set_clip_loop", params)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), ResultOutput{}, nil
		}
		return nil, ResultOutput{Result: result}, nil
	}
}

func (lt *LiveTools) makeSetClipColorHandler() func(context.Context, *mcp.CallToolRequest, SetClipColorInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SetClipColorInput) (*mcp.CallToolResult, MessageOutput, error) {
		_, err := lt.manager.Execute("set_clip_color", map[string]any{
			"track_index": input.TrackIndex,
			"clip_index":  input.ClipIndex,
			"color":       input.Color,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), MessageOutput{}, nil
		}
		return nil, MessageOutput{Message: fmt.Sprintf("Set clip color to %d", input.Color)}, nil
	}
}

func (lt *LiveTools) makeFireClipHandler() func(context.Context, *mcp.CallToolRequest, ClipInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ClipInput) (*mcp.CallToolResult, MessageOutput, error) {
		_, err := lt.manager.Execute("fire_clip", map[string]any{
			"track_index": input.TrackIndex,
			"clip_index":  input.ClipIndex,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error firing clip: %v", err)), MessageOutput{}, nil
		}
		return nil, MessageOutput{
			Message: fmt.Sprintf("Started playing clip at track %d, slot %d", input.TrackIndex, input.ClipIndex),
		}, nil
	}
}

func (lt *LiveTools) makeStopClipHandler() func(context.Context, *mcp.CallToolRequest, ClipInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ClipInput) (*mcp.CallToolResult, MessageOutput, error) {
		_, err := lt.manager.Execute("stop_clip", map[string]any{
			"track_index": input.TrackIndex,
			"clip_index":  input.ClipIndex,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error stopping clip: %v", err)), MessageOutput{}, nil
		}
		return nil, MessageOutput{
			Message: fmt.Sprintf("Stopped clip at track %d, slot %d", input.TrackIndex, input.ClipIndex),
		}, nil
	}
}
