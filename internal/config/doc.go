// Package config provides user configuration management for the breeze
// controller.
//
// This package manages a YAML-based configuration file that stores the
// controller's network preferences (broadcast address, device port, scan
// and refresh cadence) and user-defined metadata for discovered
// appliances (nicknames, last known addresses). The configuration follows
// OS-specific conventions for storage location.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/breeze/config.yaml or $HOME/.config/breeze/config.yaml
//   - macOS: $HOME/.config/breeze/config.yaml
//   - Windows: %LOCALAPPDATA%\breeze\config.yaml
//
// # Keys
//
// Per-device encryption keys are negotiated at runtime through the bind
// handshake and are deliberately not persisted; a restarted controller
// re-binds from scratch.
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	registry.SetDeviceNickname("f4911e000000", "Living Room AC")
//
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// Save performs an atomic write (temp file + rename) so a crash never
// corrupts the existing configuration.
package config
