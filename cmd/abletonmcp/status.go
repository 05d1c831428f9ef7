package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/abletonmcp/abletonmcp/internal/config"
	"github.com/abletonmcp/abletonmcp/internal/live"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the connection to Ableton Live",
	Long: `Connect to the Ableton Remote Script, fetch the current session info
and print it. Useful for verifying the bridge before wiring up an MCP client.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}
	if socketPath, _ := cmd.Flags().GetString("socket"); socketPath != "" {
		cfg.SocketPath = socketPath
	}

	opts := cfg.ManagerOptions()
	opts.Logger = newLogger(cfg.LogLevel)
	manager := live.NewManager(opts)
	defer manager.Close()

	result, err := manager.Execute("get_session_info", nil)
	if err != nil {
		return fmt.Errorf("ableton unreachable on %s: %w", cfg.SocketPath, err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(out))
	return nil
}
