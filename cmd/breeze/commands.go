package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kelder/breeze/internal/config"
	"github.com/kelder/breeze/internal/engine"
	"github.com/kelder/breeze/internal/logging"
	"github.com/kelder/breeze/internal/protocol"
	"github.com/kelder/breeze/internal/server"
	"github.com/kelder/breeze/internal/tui"
)

// Command flags
var (
	broadcastAddr string
	scanTimeout   int
	outputFormat  string
	listenAddr    string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&broadcastAddr, "broadcast", "", "Discovery broadcast address (default from config)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, json)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(nameCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(serveCmd)
}

// openController loads the registry, applies flag overrides, and starts
// the discovery engine. Every discovered device is recorded in the
// registry so nicknames survive across runs.
func openController() (*engine.Controller, *config.Registry, error) {
	logging.InitializeFromEnv()

	reg, err := config.LoadRegistry()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg := engine.ConfigFromRegistry(reg)
	if broadcastAddr != "" {
		cfg.BroadcastAddress = broadcastAddr
	}

	ctrl, err := engine.New(cfg)
	if err != nil {
		return nil, nil, err
	}

	ctrl.OnDiscover(func(id engine.DeviceIdentity) {
		reg.RecordDiscovery(id.MAC, id.Addr.IP.String(), id.Brand, id.Model, id.Firmware)
	})

	return ctrl, reg, nil
}

// resolveDevice turns a nickname or hardware address into the hardware
// address the engine keys sessions on.
func resolveDevice(reg *config.Registry, arg string) string {
	if mac, ok := reg.FindByNickname(arg); ok {
		return mac
	}
	return strings.ToLower(arg)
}

// waitForSession blocks until the device has been discovered and bound,
// or the timeout expires.
func waitForSession(ctrl *engine.Controller, mac string, timeout time.Duration) (*engine.Session, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s, ok := ctrl.Session(mac); ok && s.Bound() {
			return s, nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return nil, fmt.Errorf("device %s did not answer within %s", mac, timeout)
}

// scanCmd discovers devices on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for devices on the network",
	Long: `Broadcast discovery requests and list every device that answers.

Discovered devices are remembered in the config file, so nicknames
assigned with 'breeze name' keep working across runs.`,
	Example: `  # Scan with the default 5 second window
  breeze scan

  # Longer scan for slow networks
  breeze scan --timeout 15

  # Scan a specific subnet broadcast
  breeze scan --broadcast 192.168.1.255`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 5, "Scan window in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctrl, reg, err := openController()
	if err != nil {
		return err
	}
	defer ctrl.Close()

	fmt.Printf("Scanning for devices (%ds window)...\n\n", scanTimeout)
	ctrl.Start()
	time.Sleep(time.Duration(scanTimeout) * time.Second)

	sessions := ctrl.Sessions()
	if len(sessions) == 0 {
		fmt.Println("No devices found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the device is powered on and joined to this network")
		fmt.Println("  - Check that UDP broadcast reaches the device's subnet")
		fmt.Println("  - Try --broadcast with your subnet's broadcast address")
		fmt.Println("  - Try increasing --timeout for slower networks")
		return nil
	}

	fmt.Printf("Found %d device(s):\n\n", len(sessions))
	for i, s := range sessions {
		id := s.Identity()
		fmt.Printf("%d. %s\n", i+1, reg.DisplayName(id.MAC, id.Name))
		fmt.Printf("   Address:  %s\n", id.MAC)
		fmt.Printf("   Network:  %s\n", id.Addr)
		if id.Brand != "" || id.Model != "" {
			fmt.Printf("   Hardware: %s %s\n", id.Brand, id.Model)
		}
		if id.Firmware != "" {
			fmt.Printf("   Firmware: %s\n", id.Firmware)
		}
		if s.Bound() {
			fmt.Printf("   State:    bound\n")
		} else {
			fmt.Printf("   State:    binding\n")
		}
		fmt.Println()
	}

	if err := reg.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not save config: %v\n", err)
	}

	fmt.Println("Use 'breeze status <device>' to read a device")
	fmt.Println("Use 'breeze monitor' for the interactive view")
	return nil
}

// statusCmd reads one device's status
var statusCmd = &cobra.Command{
	Use:   "status <device>",
	Short: "Show the current status of a device",
	Long: `Discover and bind to a device, then print its current status.

The device may be given as a hardware address or as a nickname assigned
with 'breeze name'.`,
	Example: `  # By hardware address
  breeze status f4911e000001

  # By nickname
  breeze status bedroom

  # JSON output for scripting
  breeze status bedroom --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctrl, reg, err := openController()
	if err != nil {
		return err
	}
	defer ctrl.Close()

	mac := resolveDevice(reg, args[0])
	ctrl.Start()

	s, err := waitForSession(ctrl, mac, 15*time.Second)
	if err != nil {
		return err
	}

	// The first read arms the refresh loop; give one poll cycle a chance
	// to answer before printing
	status, _ := s.Status()
	deadline := time.Now().Add(10 * time.Second)
	for len(status) == 0 && time.Now().Before(deadline) {
		time.Sleep(200 * time.Millisecond)
		status, _ = s.Status()
	}
	if len(status) == 0 {
		return fmt.Errorf("device %s never reported status", mac)
	}

	switch outputFormat {
	case "json":
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
	default:
		printStatus(reg, s, status)
	}
	return nil
}

// printStatus renders the status capability by capability, in table
// order, with the temperature shown in the device's display unit.
func printStatus(reg *config.Registry, s *engine.Session, status map[string]int) {
	id := s.Identity()
	fmt.Printf("%s (%s)\n\n", reg.DisplayName(id.MAC, id.Name), id.MAC)

	for _, capability := range protocol.Capabilities() {
		f, _ := protocol.Lookup(capability)
		v, ok := status[f.Code]
		if !ok {
			continue
		}

		if capability == "temperature" {
			fmt.Printf("  %-16s %s\n", capability+":", formatSetpoint(status))
			continue
		}
		if capability == "temperatureCorrection" {
			// Folded into the temperature line above.
			continue
		}
		if name, ok := f.ValueName(v); ok {
			fmt.Printf("  %-16s %s\n", capability+":", name)
		} else {
			fmt.Printf("  %-16s %d\n", capability+":", v)
		}
	}
}

// formatSetpoint renders the setpoint in the unit the device displays,
// reversing the Fahrenheit wire encoding when needed.
func formatSetpoint(status map[string]int) string {
	setTem := status["SetTem"]
	if status["TemUn"] == 1 {
		return fmt.Sprintf("%dF", protocol.DecodeFahrenheit(setTem, status["TemRec"]))
	}
	return fmt.Sprintf("%dC", setTem)
}

// setCmd sends a command to a device
var setCmd = &cobra.Command{
	Use:   "set <device> <capability>=<value> [<capability>=<value>...]",
	Short: "Change device settings",
	Long: `Send one command carrying every given capability assignment.

Categorical values are given by name (see 'breeze set --help' examples),
temperatures as a number with a unit suffix. All assignments travel in a
single command, in the order given.`,
	Example: `  # Turn on and cool to 72 Fahrenheit
  breeze set bedroom power=on mode=cool temperature=72F

  # Celsius setpoint
  breeze set bedroom temperature=22C

  # Quiet night setup
  breeze set bedroom fanSpeed=low quiet=mode1 lights=off`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	var fields []protocol.FieldValue
	for _, arg := range args[1:] {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("invalid assignment %q (want capability=value)", arg)
		}
		fv, err := protocol.ParseSetting(name, value)
		if err != nil {
			return err
		}
		fields = append(fields, fv...)
	}

	ctrl, reg, err := openController()
	if err != nil {
		return err
	}
	defer ctrl.Close()

	mac := resolveDevice(reg, args[0])

	acked := make(chan struct{}, 1)
	ctrl.OnUpdate(func(updated *engine.Session) {
		if updated.Identity().MAC == mac {
			select {
			case acked <- struct{}{}:
			default:
			}
		}
	})
	ctrl.Start()

	s, err := waitForSession(ctrl, mac, 15*time.Second)
	if err != nil {
		return err
	}

	if err := s.Command(fields); err != nil {
		return err
	}

	// Commands are fire-and-forget on the wire; wait briefly for the
	// acknowledgement so success means the device actually answered
	select {
	case <-acked:
		fmt.Printf("Applied to %s.\n", reg.DisplayName(mac, mac))
	case <-time.After(5 * time.Second):
		fmt.Printf("Command sent to %s, no acknowledgement yet.\n", reg.DisplayName(mac, mac))
	}
	return nil
}

// nameCmd assigns a nickname to a device
var nameCmd = &cobra.Command{
	Use:   "name <mac> <nickname>",
	Short: "Assign a nickname to a device",
	Long: `Store a nickname for a device in the config file.

Every command that takes a device argument accepts the nickname in
place of the hardware address.`,
	Example: `  breeze name f4911e000001 bedroom
  breeze status bedroom`,
	Args: cobra.ExactArgs(2),
	RunE: runName,
}

func runName(cmd *cobra.Command, args []string) error {
	reg, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	mac := strings.ToLower(args[0])
	reg.SetDeviceNickname(mac, args[1])
	if err := reg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("%s is now %q.\n", mac, args[1])
	return nil
}

// monitorCmd launches the interactive monitor
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive device monitor",
	Long: `Launch the full-screen monitor.

Shows every discovered device with its live status and lets you steer
the selected device: power, mode, and the temperature setpoint.`,
	RunE: runMonitor,
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("monitor needs an interactive terminal; try 'breeze scan' or 'breeze status'")
	}

	ctrl, reg, err := openController()
	if err != nil {
		return err
	}
	defer ctrl.Close()

	ctrl.Start()
	defer func() {
		if err := reg.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not save config: %v\n", err)
		}
	}()

	return tui.Run(ctrl, reg)
}

// serveCmd runs the HTTP/WebSocket bridge
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP/WebSocket bridge",
	Long: `Run the local bridge server for integrations.

Exposes discovered devices as JSON over HTTP, accepts commands, and
pushes live status snapshots to WebSocket clients. Runs until
interrupted.`,
	Example: `  # Default listen address from config (127.0.0.1:8450)
  breeze serve

  # Explicit listen address
  breeze serve --listen 0.0.0.0:8450`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Bridge listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctrl, reg, err := openController()
	if err != nil {
		return err
	}
	defer ctrl.Close()

	addr := reg.Network.BridgeAddress
	if listenAddr != "" {
		addr = listenAddr
	}

	srv := server.New(&server.Config{Addr: addr}, ctrl, reg)
	ctrl.OnUpdate(srv.PushUpdate)
	ctrl.Start()

	// Serve until interrupted
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() { errChan <- srv.Start() }()

	fmt.Printf("Bridge listening on %s\n", addr)

	select {
	case <-sigChan:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return err
		}
	case err := <-errChan:
		return err
	}

	if err := reg.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not save config: %v\n", err)
	}
	logging.Sync()
	return nil
}
