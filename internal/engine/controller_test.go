package engine

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/kelder/breeze/internal/codec"
	"github.com/kelder/breeze/internal/protocol"
)

// fakeDevice is a loopback UDP endpoint that speaks just enough of the
// protocol to answer discovery and bind.
type fakeDevice struct {
	t    *testing.T
	conn *net.UDPConn
	mac  string
	key  string
}

func newFakeDevice(t *testing.T, mac, key string) *fakeDevice {
	t.Helper()

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("fake device listen: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return &fakeDevice{t: t, conn: conn, mac: mac, key: key}
}

func (d *fakeDevice) port() int {
	return d.conn.LocalAddr().(*net.UDPAddr).Port
}

// read returns the next datagram and its source, failing the test on
// timeout.
func (d *fakeDevice) read() ([]byte, *net.UDPAddr) {
	d.t.Helper()

	buf := make([]byte, 64*1024)
	d.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, addr, err := d.conn.ReadFromUDP(buf)
	if err != nil {
		d.t.Fatalf("fake device read: %v", err)
	}
	return buf[:n], addr
}

// reply encrypts an inner payload under key and sends it wrapped in a
// response envelope to the given address.
func (d *fakeDevice) reply(to *net.UDPAddr, payload any, key string, discovery bool) {
	d.t.Helper()

	enc, err := codec.Encrypt(payload, key)
	if err != nil {
		d.t.Fatalf("fake device encrypt: %v", err)
	}

	p := protocol.Pack{Type: protocol.TypePack, CID: d.mac, Pack: enc}
	if discovery {
		p.I = 1
	} else {
		p.TCID = protocol.CallerID
	}

	data, err := json.Marshal(p)
	if err != nil {
		d.t.Fatalf("fake device marshal: %v", err)
	}
	if _, err := d.conn.WriteToUDP(data, to); err != nil {
		d.t.Fatalf("fake device send: %v", err)
	}
}

func (d *fakeDevice) identity() map[string]any {
	return map[string]any{
		"t": "dev", "mac": d.mac,
		"brand": "acme", "model": "AC-1000", "name": "test unit", "ver": "V1.0",
	}
}

func testController(t *testing.T, devicePort int) *Controller {
	t.Helper()

	c, err := New(Config{
		BroadcastAddress: "127.0.0.1",
		DevicePort:       devicePort,
		ListenPort:       0,
		ScanInterval:     50 * time.Millisecond,
		ScanRetries:      20,
		RefreshInterval:  time.Hour,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestControllerDiscoversAndBinds(t *testing.T) {
	dev := newFakeDevice(t, "f4911e0a0b0c", "sessionkey-16ch!")
	c := testController(t, dev.port())

	discovered := make(chan DeviceIdentity, 1)
	c.OnDiscover(func(id DeviceIdentity) { discovered <- id })
	c.Start()

	// The scan broadcast reaches the fake device; it answers with its
	// identity under the default key
	data, from := dev.read()
	var scan protocol.ScanRequest
	if err := json.Unmarshal(data, &scan); err != nil || scan.Type != protocol.TypeScan {
		t.Fatalf("first datagram is not a scan request: %s", data)
	}
	dev.reply(from, dev.identity(), codec.DefaultKey, true)

	var id DeviceIdentity
	select {
	case id = <-discovered:
	case <-time.After(2 * time.Second):
		t.Fatal("discovery callback never fired")
	}
	if id.MAC != dev.mac || id.Brand != "acme" || id.Firmware != "V1.0" {
		t.Errorf("discovered identity = %+v", id)
	}

	// The new session binds immediately; complete the handshake
	bindData, _ := readUntilBind(t, dev)
	var env protocol.Pack
	if err := json.Unmarshal(bindData, &env); err != nil {
		t.Fatalf("bind envelope unmarshal: %v", err)
	}
	var req protocol.BindRequest
	if err := codec.DecryptInto(env.Pack, codec.DefaultKey, &req); err != nil {
		t.Fatalf("bind request decrypt: %v", err)
	}
	if req.Type != protocol.TypeBind || req.MAC != dev.mac {
		t.Fatalf("bind request = %+v", req)
	}

	dev.reply(from, map[string]any{"r": 200, "t": "bindok", "mac": dev.mac, "key": dev.key}, codec.DefaultKey, false)

	s, ok := c.Session(dev.mac)
	if !ok {
		t.Fatal("no session for discovered device")
	}
	waitFor(t, s.Bound, "session to bind")
}

// readUntilBind skips repeated scan broadcasts until the bind request
// shows up; discovery and binding race on the shared socket.
func readUntilBind(t *testing.T, dev *fakeDevice) ([]byte, *net.UDPAddr) {
	t.Helper()

	for i := 0; i < 10; i++ {
		data, from := dev.read()
		var p protocol.Pack
		if err := json.Unmarshal(data, &p); err == nil && p.Type == protocol.TypePack {
			return data, from
		}
	}
	t.Fatal("bind request never arrived")
	return nil, nil
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestControllerDuplicateDiscoveryIsNoOp(t *testing.T) {
	dev := newFakeDevice(t, "f4911e0a0b0d", "sessionkey-16ch!")
	c := testController(t, dev.port())

	discoveries := make(chan DeviceIdentity, 4)
	c.OnDiscover(func(id DeviceIdentity) { discoveries <- id })
	c.Start()

	_, from := dev.read()
	dev.reply(from, dev.identity(), codec.DefaultKey, true)
	dev.reply(from, dev.identity(), codec.DefaultKey, true)
	dev.reply(from, dev.identity(), codec.DefaultKey, true)

	select {
	case <-discoveries:
	case <-time.After(2 * time.Second):
		t.Fatal("discovery callback never fired")
	}

	waitFor(t, func() bool { return len(c.Sessions()) == 1 }, "session table to settle")

	// Give the repeats a chance to land, then confirm nothing doubled
	time.Sleep(100 * time.Millisecond)
	if n := len(c.Sessions()); n != 1 {
		t.Errorf("session count = %d after repeated discovery, want 1", n)
	}
	select {
	case id := <-discoveries:
		t.Errorf("discovery callback fired again for %s", id.MAC)
	default:
	}
}

func TestControllerIgnoresUnknownDeviceTraffic(t *testing.T) {
	dev := newFakeDevice(t, "f4911e0a0b0e", "sessionkey-16ch!")
	c := testController(t, dev.port())
	c.Start()

	_, from := dev.read()

	// A pack response for a device that was never discovered, and raw
	// garbage, must both be ignored without creating sessions
	stray := *dev
	stray.mac = "000000000000"
	stray.reply(from, map[string]any{"r": 200, "t": "dat", "mac": stray.mac}, codec.DefaultKey, false)
	dev.conn.WriteToUDP([]byte("not json at all"), from)

	time.Sleep(100 * time.Millisecond)
	if n := len(c.Sessions()); n != 0 {
		t.Errorf("session count = %d, want 0", n)
	}
}

func TestControllerRejectsBadBroadcastAddress(t *testing.T) {
	_, err := New(Config{BroadcastAddress: "not-an-ip", DevicePort: 7000})
	if err == nil {
		t.Fatal("New() accepted an invalid broadcast address")
	}
}
