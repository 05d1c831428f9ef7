package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SetTempoInput defines input for set_tempo.
type SetTempoInput struct {
	Tempo float64 `json:"tempo" jsonschema:"The new tempo in BPM"`
}

// PositionInput defines input for arrangement position tools.
type PositionInput struct {
	Position float64 `json:"position" jsonschema:"Position in beats"`
}

// SetMetronomeInput defines input for set_metronome.
type SetMetronomeInput struct {
	Enabled bool `json:"enabled" jsonschema:"Whether the metronome is enabled"`
}

func registerSessionTools(server *mcp.Server, lt *LiveTools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_session_info",
		Description: "Get detailed information about the current Ableton session",
	}, lt.makeGetSessionInfoHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_tempo",
		Description: "Set the tempo of the Ableton session in BPM",
	}, lt.makeSetTempoHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "start_playback",
		Description: "Start playing the Ableton session",
	}, lt.makeStartPlaybackHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "stop_playback",
		Description: "Stop playing the Ableton session",
	}, lt.makeStopPlaybackHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_playback_position",
		Description: "Get current playback position and loop state",
	}, lt.makeGetPlaybackPositionHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_loop_start",
		Description: "Set arrangement loop start position (in beats)",
	}, lt.makeSetLoopStartHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_loop_end",
		Description: "Set arrangement loop end position (in beats)",
	}, lt.makeSetLoopEndHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_playback_position",
		Description: "Set playback position (in beats)",
	}, lt.makeSetPlaybackPositionHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_metronome",
		Description: "Enable or disable the metronome",
	}, lt.makeSetMetronomeHandler())
}

func (lt *LiveTools) makeGetSessionInfoHandler() func(context.Context, *mcp.CallToolRequest, EmptyInput) (*mcp.CallToolResult, ResultOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, ResultOutput, error) {
		result, err := lt.manager.Execute("get_session_info", nil)
		if err != nil {
			return errorResult(fmt.Sprintf("Error getting session info: %v", err)), ResultOutput{}, nil
		}
		return nil, ResultOutput{Result: result}, nil
	}
}

func (lt *LiveTools) makeSetTempoHandler() func(context.Context, *mcp.CallToolRequest, SetTempoInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SetTempoInput) (*mcp.CallToolResult, MessageOutput, error) {
		_, err := lt.manager.Execute("set_tempo", map[string]any{"tempo": input.Tempo})
		if err != nil {
			return errorResult(fmt.Sprintf("Error setting tempo: %v", err)), MessageOutput{}, nil
		}
		return nil, MessageOutput{Message: fmt.Sprintf("Set tempo to %g BPM", input.Tempo)}, nil
	}
}

func (lt *LiveTools) makeStartPlaybackHandler() func(context.Context, *mcp.CallToolRequest, EmptyInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, MessageOutput, error) {
		_, err := lt.manager.Execute("start_playback", nil)
		if err != nil {
			return errorResult(fmt.Sprintf("Error starting playback: %v", err)), MessageOutput{}, nil
		}
		return nil, MessageOutput{Message: "Started playback"}, nil
	}
}

func (lt *LiveTools) makeStopPlaybackHandler() func(context.Context, *mcp.CallToolRequest, EmptyInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, MessageOutput, error) {
		_, err := lt.manager.Execute("stop_playback", nil)
		if err != nil {
			return errorResult(fmt.Sprintf("Error stopping playback: %v", err)), MessageOutput{}, nil
		}
		return nil, MessageOutput{Message: "Stopped playback"}, nil
	}
}

func (lt *LiveTools) makeGetPlaybackPositionHandler() func(context.Context, *mcp.CallToolRequest, EmptyInput) (*mcp.CallToolResult, ResultOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, ResultOutput, error) {
		result, err := lt.manager.Execute("get_playback_position", nil)
		if err != nil {
			return errorResult(fmt.Sprintf("Error getting playback position: %v", err)), ResultOutput{}, nil
		}
		return nil, ResultOutput{Result: result}, nil
	}
}

func (lt *LiveTools) makeSetLoopStartHandler() func(context.Context, *mcp.CallToolRequest, PositionInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input PositionInput) (*mcp.CallToolResult, MessageOutput, error) {
		_, err := lt.manager.Execute("set_loop_start", map[string]any{"position": input.Position})
		if err != nil {
			return errorResult(fmt.Sprintf("Error setting loop start: %v", err)), MessageOutput{}, nil
		}
		return nil, MessageOutput{Message: fmt.Sprintf("Set loop start to %g", input.Position)}, nil
	}
}

func (lt *LiveTools) makeSetLoopEndHandler() func(context.Context, *mcp.CallToolRequest, PositionInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input PositionInput) (*mcp.CallToolResult, MessageOutput, error) {
		_, err := lt.manager.Execute("set_loop_end", map[string]any{"position": input.Position})
		if err != nil {
			return errorResult(fmt.Sprintf("Error setting loop end: %v", err)), MessageOutput{}, nil
		}
		return nil, MessageOutput{Message: fmt.Sprintf("Set loop end to %g", input.Position)}, nil
	}
}

func (lt *LiveTools) makeSetPlaybackPositionHandler() func(context.Context, *mcp.CallToolRequest, PositionInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input PositionInput) (*mcp.CallToolResult, MessageOutput, error) {
		_, err := lt.manager.Execute("set_playback_position", map[string]any{"position": input.Position})
		if err != nil {
			return errorResult(fmt.Sprintf("Error setting playback position: %v", err)), MessageOutput{}, nil
		}
		return nil, MessageOutput{Message: fmt.Sprintf("Set playback position to %g", input.Position)}, nil
	}
}

func (lt *LiveTools) makeSetMetronomeHandler() func(context.Context, *mcp.CallToolRequest, SetMetronomeInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SetMetronomeInput) (*mcp.CallToolResult, MessageOutput, error) {
		_, err := lt.manager.Execute("set_metronome", map[string]any{"enabled": input.Enabled})
		if err != nil {
			return errorResult(fmt.Sprintf("Error setting metronome: %v", err)), MessageOutput{}, nil
		}
		return nil, MessageOutput{Message: fmt.Sprintf("Set metronome to %t", input.Enabled)}, nil
	}
}
