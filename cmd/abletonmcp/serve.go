package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/abletonmcp/abletonmcp/internal/config"
	"github.com/abletonmcp/abletonmcp/internal/live"
	"github.com/abletonmcp/abletonmcp/internal/tools"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as MCP server",
	Long: `Run as an MCP (Model Context Protocol) server over stdio.

This is the primary mode for integration with Claude Desktop, Claude Code,
and other MCP clients. The connection to Ableton Live is established lazily
on the first tool call and reused across calls.`,
	Run: runServe,
}

const serverInstructions = `AbletonMCP bridges MCP clients to a running Ableton Live session through
the AbletonMCP Remote Script.

Music creation strategy:
- Always start with get_session_info to understand the current session
- Create tracks before creating clips, and clips before adding notes
- For instruments, prefer the browser workflow: get_browser_tree to discover
  categories, get_browser_items_at_path to find loadable items, then
  load_instrument_or_effect with the item URI
- For 3rd party plugins use get_third_party_plugins, then load by URI. For
  plugins with many parameters, load them into a rack and map the parameters
  you need to macros (0-7) with map_parameter_to_macro
- Only start playback with fire_clip or start_playback when asked to

Tool groups:
- Session/transport: get_session_info, set_tempo, start/stop_playback,
  playback position, loop points, metronome
- Tracks: create, rename, volume, pan, mute, solo, arm, delete, duplicate
- Clips: create, inspect, rename, loop, color, fire, stop, delete, duplicate
- Notes: get, add (replace or keep), remove, modify, select, quantize,
  transpose
- Devices: parameters (single or batch), rack chains, macro mappings,
  automation
- Scenes: list, create, delete, fire
- Browser: tree, items at path, load instruments/effects/drum kits, plugins`

func runServe(cmd *cobra.Command, args []string) {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		// A broken config file should not take the server down. Fall back
		// to defaults and say so on stderr.
		cfg = config.Default()
		fallbackLog := zerolog.New(os.Stderr)
		fallbackLog.Warn().Err(err).Msg("failed to load config, using defaults")
	}
	if socketPath, _ := cmd.Flags().GetString("socket"); socketPath != "" {
		cfg.SocketPath = socketPath
	}

	logger := newLogger(cfg.LogLevel)

	opts := cfg.ManagerOptions()
	opts.Logger = logger
	lt := tools.NewLiveTools(live.NewManager(opts))
	defer lt.Close()

	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    appName,
			Version: appVersion,
		},
		&mcp.ServerOptions{
			HasTools:     true,
			Instructions: serverInstructions,
		},
	)
	tools.Register(server, lt)

	go func() {
		<-ctx.Done()
		logger.Info().Msg("shutdown signal received")
	}()

	logger.Info().
		Str("socket", cfg.SocketPath).
		Msgf("starting %s v%s", appName, appVersion)

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		if ctx.Err() == nil {
			logger.Fatal().Err(err).Msg("server error")
		}
	}

	logger.Info().Msg("shutdown complete")
}

// newLogger builds the process logger. MCP owns stdout, so all logging
// goes to stderr.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
