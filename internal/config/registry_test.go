package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	// Should not be empty
	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}

	// Should contain "breeze"
	if !contains(configDir, "breeze") {
		t.Errorf("GetConfigDir() = %v, should contain 'breeze'", configDir)
	}

	// Platform-specific checks
	switch runtime.GOOS {
	case "windows":
		if !contains(configDir, "AppData") && !contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin", "linux":
		if !contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	// Should end with config.yaml
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}

	if reg.Devices == nil {
		t.Error("NewRegistry().Devices should not be nil")
	}

	if reg.Network == nil {
		t.Fatal("NewRegistry().Network should not be nil")
	}

	if reg.Network.DevicePort != DefaultDevicePort {
		t.Errorf("DevicePort = %v, want %v", reg.Network.DevicePort, DefaultDevicePort)
	}

	if reg.Network.BroadcastAddress != DefaultBroadcast {
		t.Errorf("BroadcastAddress = %v, want %v", reg.Network.BroadcastAddress, DefaultBroadcast)
	}

	if reg.Network.ScanRetries != DefaultScanRetries {
		t.Errorf("ScanRetries = %v, want %v", reg.Network.ScanRetries, DefaultScanRetries)
	}
}

func TestRegistryFindByNickname(t *testing.T) {
	reg := NewRegistry()
	reg.SetDeviceNickname("f4911e000001", "Bedroom")

	mac, ok := reg.FindByNickname("bedroom")
	if !ok || mac != "f4911e000001" {
		t.Errorf("FindByNickname(bedroom) = %q, %v", mac, ok)
	}

	if _, ok := reg.FindByNickname("garage"); ok {
		t.Error("FindByNickname() matched a nickname that was never assigned")
	}
}

func TestRegistryRecordDiscovery(t *testing.T) {
	reg := NewRegistry()

	before := time.Now()
	reg.RecordDiscovery("f4911e000001", "192.168.1.50", "acme", "AC-1000", "1.21")
	after := time.Now()

	device := reg.GetDevice("f4911e000001")
	if device == nil {
		t.Fatal("Device should exist after RecordDiscovery()")
	}

	if device.LastIP != "192.168.1.50" {
		t.Errorf("LastIP = %v, want 192.168.1.50", device.LastIP)
	}
	if device.Brand != "acme" || device.Model != "AC-1000" || device.Firmware != "1.21" {
		t.Errorf("identity fields = %v/%v/%v", device.Brand, device.Model, device.Firmware)
	}
	if device.LastSeen.Before(before) || device.LastSeen.After(after) {
		t.Errorf("LastSeen = %v, should be between %v and %v", device.LastSeen, before, after)
	}

	// Rediscovery with empty identity fields must not erase known ones
	reg.RecordDiscovery("f4911e000001", "192.168.1.51", "", "", "")
	device = reg.GetDevice("f4911e000001")
	if device.Brand != "acme" {
		t.Errorf("Brand erased on rediscovery: %v", device.Brand)
	}
	if device.LastIP != "192.168.1.51" {
		t.Errorf("LastIP not updated on rediscovery: %v", device.LastIP)
	}
}

func TestRegistryDisplayName(t *testing.T) {
	reg := NewRegistry()

	if got := reg.DisplayName("f4911e000001", "bedroom"); got != "bedroom" {
		t.Errorf("DisplayName() without nickname = %v, want fallback", got)
	}

	reg.SetDeviceNickname("f4911e000001", "Master Bedroom AC")
	if got := reg.DisplayName("f4911e000001", "bedroom"); got != "Master Bedroom AC" {
		t.Errorf("DisplayName() with nickname = %v", got)
	}
}

func TestRegistryYAMLRoundTrip(t *testing.T) {
	reg := NewRegistry()
	reg.Network.BroadcastAddress = "192.168.1.255"
	reg.Network.ScanRetries = 3
	reg.RecordDiscovery("f4911e000001", "192.168.1.50", "acme", "AC-1000", "1.21")
	reg.SetDeviceNickname("f4911e000001", "Office")

	data, err := yaml.Marshal(reg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got Registry
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.Network.BroadcastAddress != "192.168.1.255" {
		t.Errorf("BroadcastAddress = %v", got.Network.BroadcastAddress)
	}
	if got.Network.ScanRetries != 3 {
		t.Errorf("ScanRetries = %v", got.Network.ScanRetries)
	}
	device := got.GetDevice("f4911e000001")
	if device == nil {
		t.Fatal("device lost in round trip")
	}
	if device.Nickname != "Office" || device.Model != "AC-1000" {
		t.Errorf("device = %+v", device)
	}
}

func TestLoadRegistryFromDisk(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("XDG_CONFIG_HOME override is not used on Windows")
	}

	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)

	// No file on disk yet: defaults
	reg, err := loadRegistryFromDisk()
	if err != nil {
		t.Fatalf("loadRegistryFromDisk() error = %v", err)
	}
	if reg.Network.DevicePort != DefaultDevicePort {
		t.Errorf("DevicePort = %v, want default", reg.Network.DevicePort)
	}

	// Save and load back
	reg.SetDeviceNickname("f4911e000001", "Hallway")
	if err := reg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := loadRegistryFromDisk()
	if err != nil {
		t.Fatalf("loadRegistryFromDisk() after save error = %v", err)
	}
	if got.DisplayName("f4911e000001", "?") != "Hallway" {
		t.Error("nickname lost across save/load")
	}

	// Partial file gets defaults applied
	partial := []byte("version: 1\nnetwork:\n  broadcast_address: 10.0.0.255\n")
	if err := os.WriteFile(filepath.Join(tmp, "breeze", "config.yaml"), partial, 0600); err != nil {
		t.Fatalf("write partial config: %v", err)
	}
	got, err = loadRegistryFromDisk()
	if err != nil {
		t.Fatalf("loadRegistryFromDisk() partial error = %v", err)
	}
	if got.Network.BroadcastAddress != "10.0.0.255" {
		t.Errorf("BroadcastAddress = %v", got.Network.BroadcastAddress)
	}
	if got.Network.DevicePort != DefaultDevicePort {
		t.Errorf("DevicePort default not applied: %v", got.Network.DevicePort)
	}

	// Unsupported version rejected
	bad := []byte("version: 9\n")
	if err := os.WriteFile(filepath.Join(tmp, "breeze", "config.yaml"), bad, 0600); err != nil {
		t.Fatalf("write bad config: %v", err)
	}
	if _, err := loadRegistryFromDisk(); err == nil {
		t.Error("loadRegistryFromDisk() should reject unsupported version")
	}
}

// contains checks if a string contains a substring (helper)
func contains(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(s) > 0 && containsHelper(s, substr))
}

func containsHelper(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
