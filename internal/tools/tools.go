// Package tools registers the MCP tool catalog. Every tool is a thin
// passthrough: it shapes its named inputs into a parameter map, hands the
// command to the connection manager, and formats the result. All failure
// classes come back as readable error text, never as a crashed call.
package tools

import (
	"github.com/abletonmcp/abletonmcp/internal/live"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// LiveTools wraps the connection manager for MCP tool handlers.
type LiveTools struct {
	manager *live.Manager
}

// NewLiveTools creates the tool wrapper around an injected manager.
func NewLiveTools(manager *live.Manager) *LiveTools {
	return &LiveTools{manager: manager}
}

// Manager exposes the underlying connection manager.
func (lt *LiveTools) Manager() *live.Manager {
	return lt.manager
}

// Close releases the cached Ableton connection.
func (lt *LiveTools) Close() error {
	return lt.manager.Close()
}

// Register adds the full tool catalog to the MCP server.
func Register(server *mcp.Server, lt *LiveTools) {
	registerSessionTools(server, lt)
	registerTrackTools(server, lt)
	registerClipTools(server, lt)
	registerNoteTools(server, lt)
	registerDeviceTools(server, lt)
	registerSceneTools(server, lt)
	registerBrowserTools(server, lt)
}

// EmptyInput is the input type for tools that take no parameters.
type EmptyInput struct{}

// ResultOutput carries a raw result payload for inspection tools.
type ResultOutput struct {
	Result map[string]any `json:"result,omitempty"`
}

// MessageOutput carries a short human-readable confirmation.
type MessageOutput struct {
	Message string `json:"message,omitempty"`
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// Helper accessors for loosely typed result maps.

func getString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func getInt(m map[string]any, key string) int {
	if v, ok := m[key].(float64); ok {
		return int(v)
	}
	return 0
}

func getBool(m map[string]any, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

func getStrings(m map[string]any, key string) []string {
	items, ok := m[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
