package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// BrowserTreeInput defines input for get_browser_tree.
type BrowserTreeInput struct {
	CategoryType string `json:"category_type,omitempty" jsonschema:"Type of categories to get ('all', 'instruments', 'sounds', 'drums', 'audio_effects', 'midi_effects')"`
}

// BrowserPathInput defines input for get_browser_items_at_path.
type BrowserPathInput struct {
	Path string `json:"path" jsonschema:"Path in the format category/folder/subfolder"`
}

// LoadInstrumentInput defines input for load_instrument_or_effect.
type LoadInstrumentInput struct {
	TrackIndex int    `json:"track_index" jsonschema:"The index of the track to load the instrument on"`
	URI        string `json:"uri" jsonschema:"The URI of the instrument or effect to load"`
}

// LoadDrumKitInput defines input for load_drum_kit.
type LoadDrumKitInput struct {
	TrackIndex int    `json:"track_index" jsonschema:"The index of the track to load on"`
	RackURI    string `json:"rack_uri" jsonschema:"The URI of the drum rack to load (e.g. 'Drums/Drum Rack')"`
	KitPath    string `json:"kit_path" jsonschema:"Path to the drum kit inside the browser (e.g. 'drums/acoustic/kit1')"`
}

// PluginFilterInput defines input for get_third_party_plugins.
type PluginFilterInput struct {
	Creator    string `json:"creator,omitempty" jsonschema:"Filter by plugin creator/manufacturer (e.g. 'FabFilter', 'Waves', 'Arturia')"`
	PluginType string `json:"plugin_type,omitempty" jsonschema:"Filter by type ('instrument', 'audio_effect', 'midi_effect')"`
	Format     string `json:"format,omitempty" jsonschema:"Filter by format ('VST2', 'VST3', 'AU', 'AUv2', 'AAX')"`
}

// PluginsListInput defines input for get_plugins_list.
type PluginsListInput struct {
	PluginType string `json:"plugin_type,omitempty" jsonschema:"Type of plugins ('all', 'instruments', 'audio_effects', 'midi_effects')"`
}

func registerBrowserTools(server *mcp.Server, lt *LiveTools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_browser_tree",
		Description: "Get a hierarchical tree of browser categories from Ableton",
	}, lt.makeGetBrowserTreeHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_browser_items_at_path",
		Description: "Get browser items at a specific path in Ableton's browser",
	}, lt.makeGetBrowserItemsAtPathHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "load_instrument_or_effect",
		Description: "Load an instrument or effect onto a track using its browser URI",
	}, lt.makeLoadInstrumentHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "load_drum_kit",
		Description: "Load a drum rack and then load a specific drum kit into it",
	}, lt.makeLoadDrumKitHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_third_party_plugins",
		Description: "Get 3rd party VST/AU/AAX plugins only, excluding Ableton native devices",
	}, lt.makeGetThirdPartyPluginsHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_plugins_list",
		Description: "Get list of available plugins from Ableton's browser (native and 3rd party)",
	}, lt.makeGetPluginsListHandler())
}

// browserError maps known remote failure messages to actionable guidance.
func browserError(err error, fallback string) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Browser is not available"):
		return "Error: The Ableton browser is not available. Make sure Ableton Live is fully loaded and try again."
	case strings.Contains(msg, "Could not access Live application"):
		return "Error: Could not access the Ableton Live application. Make sure Ableton Live is running and the Remote Script is loaded."
	default:
		return fmt.Sprintf("%s: %s", fallback, msg)
	}
}

func (lt *LiveTools) makeGetBrowserTreeHandler() func(context.Context, *mcp.CallToolRequest, BrowserTreeInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input BrowserTreeInput) (*mcp.CallToolResult, MessageOutput, error) {
		categoryType := input.CategoryType
		if categoryType == "" {
			categoryType = "all"
		}
		result, err := lt.manager.Execute("get_browser_tree", map[string]any{
			"category_type": categoryType,
		})
		if err != nil {
			return errorResult(browserError(err, "Error getting browser tree")), MessageOutput{}, nil
		}

		categories, _ := result["categories"].([]any)
		if _, ok := result["available_categories"]; ok && len(categories) == 0 {
			return nil, MessageOutput{
				Message: fmt.Sprintf("No categories found for '%s'. Available browser categories: %s",
					categoryType, strings.Join(getStrings(result, "available_categories"), ", ")),
			}, nil
		}

		var out strings.Builder
		fmt.Fprintf(&out, "Browser tree for '%s' (showing %d folders):\n\n", categoryType, getInt(result, "total_folders"))
		for _, category := range categories {
			item, ok := category.(map[string]any)
			if !ok {
				continue
			}
			formatBrowserTree(&out, item, 0)
			out.WriteString("\n")
		}
		return nil, MessageOutput{Message: out.String()}, nil
	}
}

func formatBrowserTree(out *strings.Builder, item map[string]any, indent int) {
	name := getString(item, "name")
	if name == "" {
		name = "Unknown"
	}
	out.WriteString(strings.Repeat("  ", indent))
	out.WriteString("• ")
	out.WriteString(name)
	if path := getString(item, "path"); path != "" {
		fmt.Fprintf(out, " (path: %s)", path)
	}
	if getBool(item, "has_more") {
		out.WriteString(" [...]")
	}
	out.WriteString("\n")

	children, _ := item["children"].([]any)
	for _, child := range children {
		if c, ok := child.(map[string]any); ok {
			formatBrowserTree(out, c, indent+1)
		}
	}
}

func (lt *LiveTools) makeGetBrowserItemsAtPathHandler() func(context.Context, *mcp.CallToolRequest, BrowserPathInput) (*mcp.CallToolResult, ResultOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input BrowserPathInput) (*mcp.CallToolResult, ResultOutput, error) {
		result, err := lt.manager.Execute("get_browser_items_at_path", map[string]any{
			"path": input.Path,
		})
		if err != nil {
			msg := err.Error()
			switch {
			case strings.Contains(msg, "Unknown or unavailable category"):
				return errorResult(fmt.Sprintf("Error: %s. Please check the available categories using get_browser_tree.", msg)), ResultOutput{}, nil
			case strings.Contains(msg, "Path part") && strings.Contains(msg, "not found"):
				return errorResult(fmt.Sprintf("Error: %s. Please check the path and try again.", msg)), ResultOutput{}, nil
			default:
				return errorResult(browserError(err, "Error getting browser items at path")), ResultOutput{}, nil
			}
		}

		if errMsg, ok := result["error"]; ok {
			if _, ok := result["available_categories"]; ok {
				return errorResult(fmt.Sprintf("Error: %v\nAvailable browser categories: %s",
					errMsg, strings.Join(getStrings(result, "available_categories"), ", "))), ResultOutput{}, nil
			}
		}
		return nil, ResultOutput{Result: result}, nil
	}
}

func (lt *LiveTools) makeLoadInstrumentHandler() func(context.Context, *mcp.CallToolRequest, LoadInstrumentInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input LoadInstrumentInput) (*mcp.CallToolResult, MessageOutput, error) {
		result, err := lt.manager.Execute("load_browser_item", map[string]any{
			"track_index": input.TrackIndex,
			"item_uri":    input.URI,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error loading instrument by URI: %v", err)), MessageOutput{}, nil
		}
		if !getBool(result, "loaded") {
			return errorResult(fmt.Sprintf("Failed to load instrument with URI '%s'", input.URI)), MessageOutput{}, nil
		}
		if newDevices := getStrings(result, "new_devices"); len(newDevices) > 0 {
			return nil, MessageOutput{
				Message: fmt.Sprintf("Loaded instrument with URI '%s' on track %d. New devices: %s",
					input.URI, input.TrackIndex, strings.Join(newDevices, ", ")),
			}, nil
		}
		return nil, MessageOutput{
			Message: fmt.Sprintf("Loaded instrument with URI '%s' on track %d. Devices on track: %s",
				input.URI, input.TrackIndex, strings.Join(getStrings(result, "devices_after"), ", ")),
		}, nil
	}
}

func (lt *LiveTools) makeLoadDrumKitHandler() func(context.Context, *mcp.CallToolRequest, LoadDrumKitInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input LoadDrumKitInput) (*mcp.CallToolResult, MessageOutput, error) {
		rackResult, err := lt.manager.Execute("load_browser_item", map[string]any{
			"track_index": input.TrackIndex,
			"item_uri":    input.RackURI,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error loading drum kit: %v", err)), MessageOutput{}, nil
		}
		if !getBool(rackResult, "loaded") {
			return errorResult(fmt.Sprintf("Failed to load drum rack with URI '%s'", input.RackURI)), MessageOutput{}, nil
		}

		kitResult, err := lt.manager.Execute("get_browser_items_at_path", map[string]any{
			"path": input.KitPath,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Loaded drum rack but failed to find drum kit: %v", err)), MessageOutput{}, nil
		}
		if errMsg, ok := kitResult["error"]; ok {
			return errorResult(fmt.Sprintf("Loaded drum rack but failed to find drum kit: %v", errMsg)), MessageOutput{}, nil
		}

		items, _ := kitResult["items"].([]any)
		var kit map[string]any
		for _, raw := range items {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if getBool(item, "is_loadable") {
				kit = item
				break
			}
		}
		if kit == nil {
			return errorResult(fmt.Sprintf("Loaded drum rack but no loadable drum kits found at '%s'", input.KitPath)), MessageOutput{}, nil
		}

		_, err = lt.manager.Execute("load_browser_item", map[string]any{
			"track_index": input.TrackIndex,
			"item_uri":    getString(kit, "uri"),
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error loading drum kit: %v", err)), MessageOutput{}, nil
		}
		return nil, MessageOutput{
			Message: fmt.Sprintf("Loaded drum rack and kit '%s' on track %d", getString(kit, "name"), input.TrackIndex),
		}, nil
	}
}

func (lt *LiveTools) makeGetThirdPartyPluginsHandler() func(context.Context, *mcp.CallToolRequest, PluginFilterInput) (*mcp.CallToolResult, ResultOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input PluginFilterInput) (*mcp.CallToolResult, ResultOutput, error) {
		params := map[string]any{}
		if input.Creator != "" {
			params["creator"] = input.Creator
		}
		if input.PluginType != "" {
			params["plugin_type"] = input.PluginType
		}
		if input.Format != "" {
			params["format"] = input.Format
		}
		result, err := lt.manager.Execute("get_third_party_plugins", params)
		if err != nil {
			return errorResult(fmt.Sprintf("Error getting third party plugins: %v", err)), ResultOutput{}, nil
		}
		if _, ok := result["plugins"]; !ok {
			return nil, ResultOutput{Result: result}, nil
		}
		return nil, ResultOutput{Result: map[string]any{
			"plugins": result["plugins"],
			"count":   result["count"],
			"filters_applied": map[string]any{
				"creator":     input.Creator,
				"plugin_type": input.PluginType,
				"format":      input.Format,
			},
		}}, nil
	}
}

func (lt *LiveTools) makeGetPluginsListHandler() func(context.Context, *mcp.CallToolRequest, PluginsListInput) (*mcp.CallToolResult, ResultOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input PluginsListInput) (*mcp.CallToolResult, ResultOutput, error) {
		pluginType := input.PluginType
		if pluginType == "" {
			pluginType = "all"
		}
		result, err := lt.manager.Execute("get_plugins_list", map[string]any{"plugin_type": pluginType})
		if err != nil {
			return errorResult(fmt.Sprintf("Error getting plugins list: %v", err)), ResultOutput{}, nil
		}
		return nil, ResultOutput{Result: result}, nil
	}
}
