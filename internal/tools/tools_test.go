package tools

import (
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abletonmcp/abletonmcp/internal/live"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
)

// startFakePeer runs a minimal remote-script stand-in: it answers every
// decoded command through handler.
func startFakePeer(t *testing.T, handler func(cmdType string, params map[string]any) map[string]any) (string, func() []string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ableton.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	var mu sync.Mutex
	var commands []string

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				dec := json.NewDecoder(conn)
				for {
					var cmd struct {
						Type   string         `json:"type"`
						Params map[string]any `json:"params"`
					}
					if err := dec.Decode(&cmd); err != nil {
						return
					}
					mu.Lock()
					commands = append(commands, cmd.Type)
					mu.Unlock()
					resp := handler(cmd.Type, cmd.Params)
					payload, err := json.Marshal(resp)
					if err != nil {
						return
					}
					if _, err := conn.Write(payload); err != nil {
						return
					}
				}
			}(conn)
		}
	}()

	return path, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), commands...)
	}
}

func newTestLiveTools(t *testing.T, path string) *LiveTools {
	t.Helper()
	lt := NewLiveTools(live.NewManager(live.Options{
		SocketPath:   path,
		MaxAttempts:  1,
		RetryBackoff: time.Millisecond,
		DialTimeout:  time.Second,
		Logger:       zerolog.Nop(),
	}))
	t.Cleanup(func() { lt.Close() })
	return lt
}

func okResult(result map[string]any) map[string]any {
	return map[string]any{"status": "ok", "result": result}
}

func TestSetTempoHandler(t *testing.T) {
	path, _ := startFakePeer(t, func(cmdType string, params map[string]any) map[string]any {
		return okResult(map[string]any{})
	})
	lt := newTestLiveTools(t, path)

	handler := lt.makeSetTempoHandler()
	result, out, err := handler(context.Background(), nil, SetTempoInput{Tempo: 128.5})
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result != nil {
		t.Fatalf("expected success, got error result: %+v", result)
	}
	if out.Message != "Set tempo to 128.5 BPM" {
		t.Errorf("unexpected message: %q", out.Message)
	}
}

func TestHandlerReportsRemoteErrorAsText(t *testing.T) {
	path, _ := startFakePeer(t, func(cmdType string, params map[string]any) map[string]any {
		if cmdType == "set_tempo" {
			return map[string]any{"status": "error", "message": "Tempo out of range"}
		}
		return okResult(map[string]any{})
	})
	lt := newTestLiveTools(t, path)

	handler := lt.makeSetTempoHandler()
	result, _, err := handler(context.Background(), nil, SetTempoInput{Tempo: -10})
	if err != nil {
		t.Fatalf("remote errors must surface as tool results, not Go errors: %v", err)
	}
	if result == nil || !result.IsError {
		t.Fatal("expected an error result")
	}
	text := result.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, "Tempo out of range") {
		t.Errorf("error text should carry the remote message, got %q", text)
	}
}

func TestLoadDrumKitOrchestration(t *testing.T) {
	path, commandLog := startFakePeer(t, func(cmdType string, params map[string]any) map[string]any {
		switch cmdType {
		case "load_browser_item":
			return okResult(map[string]any{"loaded": true})
		case "get_browser_items_at_path":
			return okResult(map[string]any{
				"items": []any{
					map[string]any{"name": "Sparse Kit", "uri": "kit:sparse", "is_loadable": false},
					map[string]any{"name": "Acoustic Kit", "uri": "kit:acoustic", "is_loadable": true},
				},
			})
		default:
			return okResult(map[string]any{})
		}
	})
	lt := newTestLiveTools(t, path)

	handler := lt.makeLoadDrumKitHandler()
	result, out, err := handler(context.Background(), nil, LoadDrumKitInput{
		TrackIndex: 2,
		RackURI:    "Drums/Drum Rack",
		KitPath:    "drums/acoustic",
	})
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result != nil {
		t.Fatalf("expected success, got error result: %+v", result)
	}
	if out.Message != "Loaded drum rack and kit 'Acoustic Kit' on track 2" {
		t.Errorf("unexpected message: %q", out.Message)
	}

	// Rack load, kit lookup, kit load, in order (after the validation
	// round-trip).
	log := commandLog()
	want := []string{"get_session_info", "load_browser_item", "get_browser_items_at_path", "load_browser_item"}
	if len(log) != len(want) {
		t.Fatalf("expected commands %v, got %v", want, log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("expected commands %v, got %v", want, log)
		}
	}
}

func TestLoadDrumKitNoLoadableKits(t *testing.T) {
	path, _ := startFakePeer(t, func(cmdType string, params map[string]any) map[string]any {
		switch cmdType {
		case "load_browser_item":
			return okResult(map[string]any{"loaded": true})
		case "get_browser_items_at_path":
			return okResult(map[string]any{"items": []any{}})
		default:
			return okResult(map[string]any{})
		}
	})
	lt := newTestLiveTools(t, path)

	handler := lt.makeLoadDrumKitHandler()
	result, _, err := handler(context.Background(), nil, LoadDrumKitInput{
		TrackIndex: 0,
		RackURI:    "Drums/Drum Rack",
		KitPath:    "drums/empty",
	})
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result == nil || !result.IsError {
		t.Fatal("expected an error result")
	}
	text := result.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, "no loadable drum kits found at 'drums/empty'") {
		t.Errorf("unexpected error text: %q", text)
	}
}

func TestSetDeviceParameterValidation(t *testing.T) {
	path, _ := startFakePeer(t, func(cmdType string, params map[string]any) map[string]any {
		return okResult(map[string]any{})
	})
	lt := newTestLiveTools(t, path)
	handler := lt.makeSetDeviceParameterHandler()

	name := "Frequency"
	cases := []struct {
		label string
		input SetDeviceParameterInput
		want  string
	}{
		{
			label: "mixed modes",
			input: SetDeviceParameterInput{
				ParameterName: &name,
				Value:         440.0,
				Parameters:    []ParameterSetting{{ParameterName: &name, Value: 440.0}},
			},
			want: "Cannot use both",
		},
		{
			label: "empty batch",
			input: SetDeviceParameterInput{Parameters: []ParameterSetting{}},
			want:  "non-empty list",
		},
		{
			label: "no selector",
			input: SetDeviceParameterInput{Value: 440.0},
			want:  "Either parameter_name, parameter_index, or parameters list",
		},
		{
			label: "no value",
			input: SetDeviceParameterInput{ParameterName: &name},
			want:  "Value must be provided",
		},
	}

	for _, tc := range cases {
		result, _, err := handler(context.Background(), nil, tc.input)
		if err != nil {
			t.Fatalf("%s: handler returned error: %v", tc.label, err)
		}
		if result == nil || !result.IsError {
			t.Fatalf("%s: expected an error result", tc.label)
		}
		text := result.Content[0].(*mcp.TextContent).Text
		if !strings.Contains(text, tc.want) {
			t.Errorf("%s: expected %q in %q", tc.label, tc.want, text)
		}
	}
}

func TestFormatBrowserTree(t *testing.T) {
	var out strings.Builder
	formatBrowserTree(&out, map[string]any{
		"name": "Drums",
		"path": "drums",
		"children": []any{
			map[string]any{"name": "Acoustic", "path": "drums/acoustic", "has_more": true},
		},
	}, 0)

	got := out.String()
	want := "• Drums (path: drums)\n  • Acoustic (path: drums/acoustic) [...]\n"
	if got != want {
		t.Errorf("unexpected tree rendering:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestResultMapHelpers(t *testing.T) {
	m := map[string]any{
		"name":    "Bass",
		"index":   3.0,
		"armed":   true,
		"devices": []any{"Operator", "EQ Eight"},
	}

	if got := getString(m, "name"); got != "Bass" {
		t.Errorf("getString = %q", got)
	}
	if got := getString(m, "missing"); got != "" {
		t.Errorf("getString on missing key = %q", got)
	}
	if got := getInt(m, "index"); got != 3 {
		t.Errorf("getInt = %d", got)
	}
	if !getBool(m, "armed") {
		t.Error("getBool should report true")
	}
	if getBool(m, "name") {
		t.Error("getBool on non-bool should report false")
	}
	devices := getStrings(m, "devices")
	if len(devices) != 2 || devices[0] != "Operator" {
		t.Errorf("getStrings = %v", devices)
	}
}

func TestNotesToParamsKeepsOnlyProvidedExtras(t *testing.T) {
	prob := 0.75
	notes := notesToParams([]Note{
		{Pitch: 60, StartTime: 0, Duration: 1, Velocity: 100},
		{Pitch: 64, StartTime: 1, Duration: 0.5, Velocity: 90, Probability: &prob},
	})

	if _, ok := notes[0]["probability"]; ok {
		t.Error("unset probability should not be sent")
	}
	if notes[1]["probability"] != 0.75 {
		t.Errorf("probability not carried: %v", notes[1])
	}
	if notes[0]["pitch"] != 60 {
		t.Errorf("pitch not carried: %v", notes[0])
	}
}
