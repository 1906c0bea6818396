package engine

import (
	"fmt"
	"net"
)

// DeviceIdentity describes a discovered appliance. It is built once from
// a decrypted discovery response and never mutated afterwards.
type DeviceIdentity struct {
	// MAC is the device hardware address, the unique identifier the
	// protocol keys everything on (e.g. "f4911e000001")
	MAC string

	// Addr is the network address the discovery response came from
	Addr *net.UDPAddr

	// Brand, Model, Name and Firmware are advertised by the device
	Brand    string
	Model    string
	Name     string
	Firmware string
}

// String returns a human-readable string representation of the identity
func (d DeviceIdentity) String() string {
	return fmt.Sprintf("%s %s (%s) at %s", d.Brand, d.Model, d.MAC, d.Addr)
}
