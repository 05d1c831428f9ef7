package live

import "time"

// Policy holds the execution parameters for one command exchange.
type Policy struct {
	// Timeout bounds the receive phase of the exchange.
	Timeout time.Duration
	// SettleDelay is applied before sending and after a successful
	// response, giving Ableton time to propagate state internally.
	// Zero for read-only commands.
	SettleDelay time.Duration
	// Mutating indicates the command alters session state.
	Mutating bool
}

const (
	mutatingTimeout = 15 * time.Second
	readOnlyTimeout = 10 * time.Second
	settleDelay     = 100 * time.Millisecond
)

// mutatingCommands is the static classification table of wire command names
// that alter session state. Everything absent is read-only.
var mutatingCommands = map[string]struct{}{
	// tracks
	"create_midi_track":  {},
	"create_audio_track": {},
	"set_track_name":     {},
	"set_track_volume":   {},
	"set_track_pan":      {},
	"set_track_mute":     {},
	"set_track_solo":     {},
	"set_track_arm":      {},
	"delete_track":       {},
	"duplicate_track":    {},

	// clips
	"create_clip":    {},
	"set_clip_name":  {},
	"delete_clip":    {},
	"duplicate_clip": {},
	"set_clip_loop":  {},
	"set_clip_color": {},
	"fire_clip":      {},
	"stop_clip":      {},

	// notes
	"add_notes_to_clip":      {},
	"add_new_notes_to_clip":  {},
	"remove_notes_from_clip": {},
	"modify_notes_in_clip":   {},
	"select_notes_from_clip": {},
	"quantize_notes":         {},
	"transpose_notes":        {},

	// devices and automation
	"set_device_parameter":   {},
	"set_device_parameters":  {},
	"map_parameter_to_macro": {},
	"add_automation_point":   {},
	"clear_automation":       {},
	"load_browser_item":      {},

	// scenes
	"create_scene": {},
	"delete_scene": {},
	"fire_scene":   {},

	// transport and session
	"set_tempo":             {},
	"start_playback":        {},
	"stop_playback":         {},
	"set_loop_start":        {},
	"set_loop_end":          {},
	"set_playback_position": {},
	"set_metronome":         {},
}

// PolicyFor maps a wire command name to its execution parameters. The
// mapping is pure: the same name always yields the same policy.
func PolicyFor(name string) Policy {
	if _, ok := mutatingCommands[name]; ok {
		return Policy{
			Timeout:     mutatingTimeout,
			SettleDelay: settleDelay,
			Mutating:    true,
		}
	}
	return Policy{Timeout: readOnlyTimeout}
}
