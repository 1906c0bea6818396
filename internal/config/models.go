package config

import (
	"strings"
	"sync"
	"time"
)

// Registry represents the entire user configuration file.
// This stores network preferences for the controller and user-defined
// metadata for discovered appliances.
//
// Device entries are written from the discovery receive path while other
// goroutines read them for display, so the device table is guarded by a
// mutex. Network preferences are read-only after load.
type Registry struct {
	Version int                `yaml:"version"`
	Network *Network           `yaml:"network,omitempty"`
	Devices map[string]*Device `yaml:"devices,omitempty"` // Keyed by device hardware address (MAC)

	mu sync.Mutex
}

// Network represents the controller's network preferences: where to
// broadcast discovery requests and how often to talk to devices.
type Network struct {
	BroadcastAddress string `yaml:"broadcast_address"`  // Discovery broadcast target (e.g. "192.168.1.255")
	DevicePort       int    `yaml:"device_port"`        // UDP control port devices listen on
	ListenPort       int    `yaml:"listen_port"`        // Local UDP port (0 = ephemeral)
	ScanInterval     int    `yaml:"scan_interval"`      // Seconds between discovery broadcasts
	ScanRetries      int    `yaml:"scan_retries"`       // Discovery broadcasts before giving up
	RefreshInterval  int    `yaml:"refresh_interval"`   // Seconds between status polls per device
	BridgeAddress    string `yaml:"bridge_address,omitempty"` // Listen address for the status bridge
}

// Device represents user-defined metadata for a single appliance.
// This is keyed by the device's hardware address in the Registry.
// Brand/model/firmware are refreshed from discovery responses so the
// registry doubles as an inventory of everything ever seen.
type Device struct {
	Nickname string    `yaml:"nickname,omitempty"`  // User-friendly name
	LastIP   string    `yaml:"last_ip,omitempty"`   // Last known IP address
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last discovery time
	Brand    string    `yaml:"brand,omitempty"`
	Model    string    `yaml:"model,omitempty"`
	Firmware string    `yaml:"firmware,omitempty"`
}

// Default network settings. The device port is fixed by the appliance
// firmware; everything else is a tunable preference.
const (
	DefaultDevicePort      = 7000
	DefaultScanInterval    = 5
	DefaultScanRetries     = 10
	DefaultRefreshInterval = 2
	DefaultBroadcast       = "255.255.255.255"
	DefaultBridgeAddress   = "127.0.0.1:8450"
)

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Devices: make(map[string]*Device),
		Network: &Network{
			BroadcastAddress: DefaultBroadcast,
			DevicePort:       DefaultDevicePort,
			ListenPort:       0,
			ScanInterval:     DefaultScanInterval,
			ScanRetries:      DefaultScanRetries,
			RefreshInterval:  DefaultRefreshInterval,
			BridgeAddress:    DefaultBridgeAddress,
		},
	}
}

// GetDevice retrieves a copy of the device metadata for a hardware
// address. Returns nil if the device doesn't exist in the registry.
func (r *Registry) GetDevice(mac string) *Device {
	r.mu.Lock()
	defer r.mu.Unlock()

	device, ok := r.Devices[mac]
	if !ok {
		return nil
	}
	clone := *device
	return &clone
}

// ensureDeviceLocked returns the entry for a hardware address, creating
// it if needed. Caller holds r.mu.
func (r *Registry) ensureDeviceLocked(mac string) *Device {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}

	if device, exists := r.Devices[mac]; exists {
		return device
	}

	device := &Device{}
	r.Devices[mac] = device
	return device
}

// RecordDiscovery updates the registry entry for a device from a
// discovery response: last seen time, address, and identity fields.
// Empty identity fields never erase previously recorded values.
func (r *Registry) RecordDiscovery(mac, ip, brand, model, firmware string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	device := r.ensureDeviceLocked(mac)
	device.LastSeen = time.Now()
	device.LastIP = ip
	if brand != "" {
		device.Brand = brand
	}
	if model != "" {
		device.Model = model
	}
	if firmware != "" {
		device.Firmware = firmware
	}
}

// SetDeviceNickname sets a user-friendly nickname for a device.
func (r *Registry) SetDeviceNickname(mac, nickname string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureDeviceLocked(mac).Nickname = nickname
}

// FindByNickname resolves a nickname back to the hardware address it was
// assigned to. The match is case-insensitive; ok is false when no device
// carries the nickname.
func (r *Registry) FindByNickname(nickname string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for mac, device := range r.Devices {
		if device.Nickname != "" && strings.EqualFold(device.Nickname, nickname) {
			return mac, true
		}
	}
	return "", false
}

// DisplayName returns the nickname for a device when one is set,
// otherwise the fallback (typically the device's advertised name or MAC).
func (r *Registry) DisplayName(mac, fallback string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if device, ok := r.Devices[mac]; ok && device.Nickname != "" {
		return device.Nickname
	}
	return fallback
}
