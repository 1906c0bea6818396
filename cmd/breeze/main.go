// Breeze is a command-line controller for network-attached climate
// appliances.
//
// It discovers devices on the local network over encrypted UDP, binds to
// them, and provides status readout, direct commands, an interactive
// monitor, and a local HTTP/WebSocket bridge.
//
// Usage:
//
//	breeze [command] [flags]
//
// Running without arguments launches the interactive monitor.
// See 'breeze --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kelder/breeze/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "breeze",
	Short: "Climate appliance controller",
	Long: `A command-line controller for network-attached climate appliances.

Discovers devices on the local network, binds to them, and provides
status readout, direct commands, an interactive monitor, and a local
HTTP/WebSocket bridge for integrations.

If no command is specified, the interactive monitor will launch
automatically.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMonitor(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("breeze %s\n", version.Full())
	},
}
