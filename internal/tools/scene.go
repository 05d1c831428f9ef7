package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CreateSceneInput defines input for create_scene.
type CreateSceneInput struct {
	Index *int `json:"index,omitempty" jsonschema:"Scene index to insert at (-1 or omitted = end)"`
}

// SceneInput identifies a scene by index.
type SceneInput struct {
	Index int `json:"index" jsonschema:"Scene index"`
}

func registerSceneTools(server *mcp.Server, lt *LiveTools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_scenes_info",
		Description: "Get information about all scenes",
	}, lt.makeGetScenesInfoHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_scene",
		Description: "Create a new scene at index (-1 = end)",
	}, lt.makeCreateSceneHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_scene",
		Description: "Delete a scene",
	}, lt.makeDeleteSceneHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "fire_scene",
		Description: "Fire/trigger a scene",
	}, lt.makeFireSceneHandler())
}

func (lt *LiveTools) makeGetScenesInfoHandler() func(context.Context, *mcp.CallToolRequest, EmptyInput) (*mcp.CallToolResult, ResultOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, ResultOutput, error) {
		result, err := lt.manager.Execute("get_scenes_info", nil)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), ResultOutput{}, nil
		}
		return nil, ResultOutput{Result: result}, nil
	}
}

func (lt *LiveTools) makeCreateSceneHandler() func(context.Context, *mcp.CallToolRequest, CreateSceneInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input CreateSceneInput) (*mcp.CallToolResult, MessageOutput, error) {
		index := -1
		if input.Index != nil {
			index = *input.Index
		}
		result, err := lt.manager.Execute("create_scene", map[string]any{"index": index})
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), MessageOutput{}, nil
		}
		return nil, MessageOutput{
			Message: fmt.Sprintf("Created scene at index %d", getInt(result, "scene_index")),
		}, nil
	}
}

func (lt *LiveTools) makeDeleteSceneHandler() func(context.Context, *mcp.CallToolRequest, SceneInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SceneInput) (*mcp.CallToolResult, MessageOutput, error) {
		_, err := lt.manager.Execute("delete_scene", map[string]any{"index": input.Index})
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), MessageOutput{}, nil
		}
		return nil, MessageOutput{Message: fmt.Sprintf("Deleted scene %d", input.Index)}, nil
	}
}

func (lt *LiveTools) makeFireSceneHandler() func(context.Context, *mcp.CallToolRequest, SceneInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SceneInput) (*mcp.CallToolResult, MessageOutput, error) {
		_, err := lt.manager.Execute("fire_scene", map[string]any{"index": input.Index})
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), MessageOutput{}, nil
		}
		return nil, MessageOutput{Message: fmt.Sprintf("Fired scene %d", input.Index)}, nil
	}
}
