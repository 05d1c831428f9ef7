package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	appName    = "abletonmcp"
	appVersion = "0.1.0"
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "MCP server for controlling Ableton Live",
	Long: `AbletonMCP bridges MCP clients (Claude Desktop, Claude Code, etc.) to a
running Ableton Live instance through the AbletonMCP Remote Script.

It exposes the Live session as MCP tools: tracks, clips, MIDI notes,
devices, scenes, transport, and the Live browser.`,
	Version: appVersion,
	// Default behavior: if stdin is not a terminal, run as MCP server
	Run: func(cmd *cobra.Command, args []string) {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			runServe(cmd, args)
		} else {
			cmd.Help()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("socket", "", "Unix socket path for the Ableton Remote Script")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)

	rootCmd.SetVersionTemplate(fmt.Sprintf("%s v%s\n", appName, appVersion))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
