package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DeviceInput identifies a device by track and device index.
type DeviceInput struct {
	TrackIndex  int `json:"track_index" jsonschema:"The index of the track containing the device"`
	DeviceIndex int `json:"device_index" jsonschema:"The index of the device on the track"`
}

// ParameterSetting names one parameter by name or index plus the value to set.
type ParameterSetting struct {
	ParameterName  *string `json:"parameter_name,omitempty" jsonschema:"The name of the parameter to set"`
	ParameterIndex *int    `json:"parameter_index,omitempty" jsonschema:"The index of the parameter to set"`
	Value          any     `json:"value" jsonschema:"The value to set the parameter to"`
}

// SetDeviceParameterInput defines input for set_device_parameter. Either the
// single-parameter fields or the parameters list may be used, not both.
type SetDeviceParameterInput struct {
	TrackIndex     int                `json:"track_index" jsonschema:"The index of the track containing the device"`
	DeviceIndex    int                `json:"device_index" jsonschema:"The index of the device on the track"`
	ParameterName  *string            `json:"parameter_name,omitempty" jsonschema:"The name of the parameter to set (single mode)"`
	ParameterIndex *int               `json:"parameter_index,omitempty" jsonschema:"The index of the parameter to set (single mode)"`
	Value          any                `json:"value,omitempty" jsonschema:"The value to set (single mode)"`
	Parameters     []ParameterSetting `json:"parameters,omitempty" jsonschema:"List of parameters to set (batch mode)"`
}

// RackChainInput defines input for get_rack_chain_devices.
type RackChainInput struct {
	TrackIndex  int `json:"track_index" jsonschema:"The index of the track containing the rack"`
	DeviceIndex int `json:"device_index" jsonschema:"The index of the rack device"`
	ChainIndex  int `json:"chain_index,omitempty" jsonschema:"The index of the chain (default 0 for single-chain racks)"`
}

// RackChainDeviceInput defines input for get_rack_chain_device_parameters.
type RackChainDeviceInput struct {
	TrackIndex       int `json:"track_index" jsonschema:"The index of the track containing the rack"`
	DeviceIndex      int `json:"device_index" jsonschema:"The index of the rack device"`
	ChainIndex       int `json:"chain_index" jsonschema:"The index of the chain (usually 0)"`
	ChainDeviceIndex int `json:"chain_device_index" jsonschema:"The index of the device inside the chain"`
}

// MapMacroInput defines input for map_parameter_to_macro.
type MapMacroInput struct {
	TrackIndex       int `json:"track_index" jsonschema:"The index of the track containing the rack"`
	DeviceIndex      int `json:"device_index" jsonschema:"The index of the rack device on the track"`
	ChainIndex       int `json:"chain_index" jsonschema:"The index of the chain (usually 0 for single-chain racks)"`
	ChainDeviceIndex int `json:"chain_device_index" jsonschema:"The index of the device inside the chain"`
	ParameterIndex   int `json:"parameter_index" jsonschema:"The index of the parameter on the device inside the chain"`
	MacroIndex       int `json:"macro_index" jsonschema:"The index of the macro control (0-7 for standard racks)"`
}

// AutomationPointInput defines input for add_automation_point.
type AutomationPointInput struct {
	TrackIndex     int     `json:"track_index" jsonschema:"Track index"`
	DeviceIndex    int     `json:"device_index" jsonschema:"Device index"`
	ParameterIndex int     `json:"parameter_index" jsonschema:"Parameter index"`
	Time           float64 `json:"time" jsonschema:"Point position in beats"`
	Value          float64 `json:"value" jsonschema:"Parameter value at the point"`
}

// ClearAutomationInput defines input for clear_automation.
type ClearAutomationInput struct {
	TrackIndex     int `json:"track_index" jsonschema:"Track index"`
	DeviceIndex    int `json:"device_index" jsonschema:"Device index"`
	ParameterIndex int `json:"parameter_index" jsonschema:"Parameter index"`
}

func registerDeviceTools(server *mcp.Server, lt *LiveTools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_device_parameters",
		Description: "Get all parameters for a device, including 3rd party VST/AU/AAX plugins",
	}, lt.makeGetDeviceParametersHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_device_parameter",
		Description: "Set one or multiple device parameters by name or index",
	}, lt.makeSetDeviceParameterHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_rack_chain_devices",
		Description: "Get all devices inside a rack's chain",
	}, lt.makeGetRackChainDevicesHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_rack_chain_device_parameters",
		Description: "Get parameters from a device inside a rack's chain",
	}, lt.makeGetRackChainDeviceParametersHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "map_parameter_to_macro",
		Description: "Map a device parameter to a macro control (0-7) in a Device Rack",
	}, lt.makeMapParameterToMacroHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_rack_macro_mappings",
		Description: "Get all macro mappings for a Device Rack",
	}, lt.makeGetRackMacroMappingsHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_automation_point",
		Description: "Add an automation point to a parameter",
	}, lt.makeAddAutomationPointHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "clear_automation",
		Description: "Clear automation for a parameter",
	}, lt.makeClearAutomationHandler())
}

func (lt *LiveTools) makeGetDeviceParametersHandler() func(context.Context, *mcp.CallToolRequest, DeviceInput) (*mcp.CallToolResult, ResultOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input DeviceInput) (*mcp.CallToolResult, ResultOutput, error) {
		result, err := lt.manager.Execute("get_device_parameters", map[string]any{
			"track_index":  input.TrackIndex,
			"device_index": input.DeviceIndex,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error getting device parameters: %v", err)), ResultOutput{}, nil
		}
		return nil, ResultOutput{Result: result}, nil
	}
}

func (lt *LiveTools) makeSetDeviceParameterHandler() func(context.Context, *mcp.CallToolRequest, SetDeviceParameterInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SetDeviceParameterInput) (*mcp.CallToolResult, MessageOutput, error) {
		if input.Parameters != nil {
			if input.ParameterName != nil || input.ParameterIndex != nil || input.Value != nil {
				return errorResult("Error: Cannot use both single parameter arguments and parameters list"), MessageOutput{}, nil
			}
			if len(input.Parameters) == 0 {
				return errorResult("Error: parameters must be a non-empty list"), MessageOutput{}, nil
			}
			return lt.setDeviceParametersBatch(input)
		}

		if input.ParameterName == nil && input.ParameterIndex == nil {
			return errorResult("Error: Either parameter_name, parameter_index, or parameters list must be provided"), MessageOutput{}, nil
		}
		if input.Value == nil {
			return errorResult("Error: Value must be provided for single parameter mode"), MessageOutput{}, nil
		}

		params := map[string]any{
			"track_index":  input.TrackIndex,
			"device_index": input.DeviceIndex,
			"value":        input.Value,
		}
		if input.ParameterName != nil {
			params["parameter_name"] = *input.ParameterName
		}
		if input.ParameterIndex != nil {
			params["parameter_index"] = *input.ParameterIndex
		}
		result, err := lt.manager.Execute("set_device_parameter", params)
		if err != nil {
			return errorResult(fmt.Sprintf("Error setting device parameter(s): %v", err)), MessageOutput{}, nil
		}
		if _, ok := result["parameter_name"]; !ok {
			msg := getString(result, "message")
			if msg == "" {
				msg = "Unknown error"
			}
			return errorResult(fmt.Sprintf("Failed to set parameter: %s", msg)), MessageOutput{}, nil
		}
		return nil, MessageOutput{
			Message: fmt.Sprintf("Set parameter '%s' of device '%s' to %v",
				getString(result, "parameter_name"), getString(result, "device_name"), result["value"]),
		}, nil
	}
}

func (lt *LiveTools) setDeviceParametersBatch(input SetDeviceParameterInput) (*mcp.CallToolResult, MessageOutput, error) {
	settings := make([]map[string]any, 0, len(input.Parameters))
	for _, p := range input.Parameters {
		setting := map[string]any{"value": p.Value}
		if p.ParameterName != nil {
			setting["parameter_name"] = *p.ParameterName
		}
		if p.ParameterIndex != nil {
			setting["parameter_index"] = *p.ParameterIndex
		}
		settings = append(settings, setting)
	}
	result, err := lt.manager.Execute("set_device_parameters", map[string]any{
		"track_index":  input.TrackIndex,
		"device_index": input.DeviceIndex,
		"parameters":   settings,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("Error setting device parameter(s): %v", err)), MessageOutput{}, nil
	}

	results, ok := result["results"].([]any)
	if !ok {
		msg := getString(result, "message")
		if msg == "" {
			msg = "Unknown error"
		}
		return errorResult(fmt.Sprintf("Failed to set parameters: %s", msg)), MessageOutput{}, nil
	}

	success := 0
	var summary strings.Builder
	var lines strings.Builder
	for _, r := range results {
		entry, ok := r.(map[string]any)
		if !ok {
			continue
		}
		if getBool(entry, "success") {
			success++
			fmt.Fprintf(&lines, "  ✓ %s: %v\n", getString(entry, "parameter_name"), entry["value"])
		} else {
			name := getString(entry, "parameter_name")
			if name == "" {
				name = "unknown"
			}
			errMsg := getString(entry, "error")
			if errMsg == "" {
				errMsg = "unknown error"
			}
			fmt.Fprintf(&lines, "  ✗ %s: %s\n", name, errMsg)
		}
	}
	fmt.Fprintf(&summary, "Set %d/%d parameters on device '%s':\n", success, len(results), getString(result, "device_name"))
	summary.WriteString(lines.String())
	return nil, MessageOutput{Message: strings.TrimRight(summary.String(), "\n")}, nil
}

func (lt *LiveTools) makeGetRackChainDevicesHandler() func(context.Context, *mcp.CallToolRequest, RackChainInput) (*mcp.CallToolResult, ResultOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input RackChainInput) (*mcp.CallToolResult, ResultOutput, error) {
		result, err := lt.manager.Execute("get_rack_chain_devices", map[string]any{
			"track_index":  input.TrackIndex,
			"device_index": input.DeviceIndex,
			"chain_index":  input.ChainIndex,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error getting rack chain devices: %v", err)), ResultOutput{}, nil
		}
		return nil, ResultOutput{Result: result}, nil
	}
}

func (lt *LiveTools) makeGetRackChainDeviceParametersHandler() func(context.Context, *mcp.CallToolRequest, RackChainDeviceInput) (*mcp.CallToolResult, ResultOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input RackChainDeviceInput) (*mcp.CallToolResult, ResultOutput, error) {
		result, err := lt.manager.Execute("get_rack_chain_device_parameters", map[string]any{
			"track_index":        input.TrackIndex,
			"device_index":       input.DeviceIndex,
			"chain_index":        input.ChainIndex,
			"chain_device_index": input.ChainDeviceIndex,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error getting rack chain device parameters: %v", err)), ResultOutput{}, nil
		}
		return nil, ResultOutput{Result: result}, nil
	}
}

func (lt *LiveTools) makeMapParameterToMacroHandler() func(context.Context, *mcp.CallToolRequest, MapMacroInput) (*mcp.CallToolResult, ResultOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input MapMacroInput) (*mcp.CallToolResult, ResultOutput, error) {
		if input.MacroIndex < 0 || input.MacroIndex > 7 {
			return errorResult("Error: macro_index must be between 0 and 7"), ResultOutput{}, nil
		}
		result, err := lt.manager.Execute("map_parameter_to_macro", map[string]any{
			"track_index":        input.TrackIndex,
			"device_index":       input.DeviceIndex,
			"chain_index":        input.ChainIndex,
			"chain_device_index": input.ChainDeviceIndex,
			"parameter_index":    input.ParameterIndex,
			"macro_index":        input.MacroIndex,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error mapping parameter to macro: %v", err)), ResultOutput{}, nil
		}
		return nil, ResultOutput{Result: result}, nil
	}
}

func (lt *LiveTools) makeGetRackMacroMappingsHandler() func(context.Context, *mcp.CallToolRequest, DeviceInput) (*mcp.CallToolResult, ResultOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input DeviceInput) (*mcp.CallToolResult, ResultOutput, error) {
		result, err := lt.manager.Execute("get_rack_macro_mappings", map[string]any{
			"track_index":  input.TrackIndex,
			"device_index": input.DeviceIndex,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error getting rack macro mappings: %v", err)), ResultOutput{}, nil
		}
		return nil, ResultOutput{Result: result}, nil
	}
}

func (lt *LiveTools) makeAddAutomationPointHandler() func(context.Context, *mcp.CallToolRequest, AutomationPointInput) (*mcp.CallToolResult, ResultOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AutomationPointInput) (*mcp.CallToolResult, ResultOutput, error) {
		result, err := lt.manager.Execute("add_automation_point", map[string]any{
			"track_index":     input.TrackIndex,
			"device_index":    input.DeviceIndex,
			"parameter_index": input.ParameterIndex,
			"time":            input.Time,
			"value":           input.Value,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), ResultOutput{}, nil
		}
		return nil, ResultOutput{Result: result}, nil
	}
}

func (lt *LiveTools) makeClearAutomationHandler() func(context.Context, *mcp.CallToolRequest, ClearAutomationInput) (*mcp.CallToolResult, MessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ClearAutomationInput) (*mcp.CallToolResult, MessageOutput, error) {
		_, err := lt.manager.Execute("clear_automation", map[string]any{
			"track_index":     input.TrackIndex,
			"device_index":    input.DeviceIndex,
			"parameter_index": input.ParameterIndex,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), MessageOutput{}, nil
		}
		return nil, MessageOutput{Message: fmt.Sprintf("Cleared automation for parameter %d", input.ParameterIndex)}, nil
	}
}
