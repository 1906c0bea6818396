package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kelder/breeze/internal/codec"
	"github.com/kelder/breeze/internal/config"
	"github.com/kelder/breeze/internal/logging"
	"github.com/kelder/breeze/internal/protocol"
)

// Config holds the controller's network settings.
type Config struct {
	BroadcastAddress string        // Discovery broadcast target
	DevicePort       int           // UDP control port devices listen on
	ListenPort       int           // Local UDP port (0 = ephemeral)
	ScanInterval     time.Duration // Delay between discovery broadcasts
	ScanRetries      int           // Discovery broadcasts before the scanner stops
	RefreshInterval  time.Duration // Status poll cadence per device
}

// ConfigFromRegistry converts the persisted network preferences into a
// controller configuration.
func ConfigFromRegistry(reg *config.Registry) Config {
	n := reg.Network
	return Config{
		BroadcastAddress: n.BroadcastAddress,
		DevicePort:       n.DevicePort,
		ListenPort:       n.ListenPort,
		ScanInterval:     time.Duration(n.ScanInterval) * time.Second,
		ScanRetries:      n.ScanRetries,
		RefreshInterval:  time.Duration(n.RefreshInterval) * time.Second,
	}
}

// Controller owns the single UDP socket shared by every device session,
// the session table, and the discovery scanner. All inbound traffic is
// demultiplexed here by matching the envelope's source identifier against
// known sessions; traffic for unknown devices is ignored.
type Controller struct {
	cfg       Config
	conn      *net.UDPConn
	broadcast *net.UDPAddr

	mu         sync.Mutex
	sessions   map[string]*Session
	onUpdate   func(*Session)
	onDiscover func(DeviceIdentity)

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New binds the shared socket and prepares a controller. Start must be
// called to begin discovery and response handling.
func New(cfg Config) (*Controller, error) {
	ip := net.ParseIP(cfg.BroadcastAddress)
	if ip == nil {
		return nil, fmt.Errorf("invalid broadcast address %q", cfg.BroadcastAddress)
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: cfg.ListenPort})
	if err != nil {
		return nil, fmt.Errorf("failed to bind UDP socket: %w", err)
	}

	return &Controller{
		cfg:       cfg,
		conn:      conn,
		broadcast: &net.UDPAddr{IP: ip, Port: cfg.DevicePort},
		sessions:  make(map[string]*Session),
		done:      make(chan struct{}),
	}, nil
}

// OnUpdate registers the callback fired after every successful status or
// command response, with the session whose cache changed. Set before
// Start.
func (c *Controller) OnUpdate(fn func(*Session)) {
	c.onUpdate = fn
}

// OnDiscover registers the callback fired once per newly discovered
// device. Set before Start.
func (c *Controller) OnDiscover(fn func(DeviceIdentity)) {
	c.onDiscover = fn
}

// Start launches the receive loop and the discovery scanner.
func (c *Controller) Start() {
	c.wg.Add(2)
	go c.receiveLoop()
	go c.scanLoop()
}

// Scan sends one discovery broadcast. The scan loop invokes this on its
// schedule; callers may also trigger an extra sweep at any time.
func (c *Controller) Scan() error {
	data, err := json.Marshal(protocol.NewScanRequest())
	if err != nil {
		return fmt.Errorf("failed to marshal scan request: %w", err)
	}

	if _, err := c.conn.WriteToUDP(data, c.broadcast); err != nil {
		return fmt.Errorf("failed to send scan broadcast: %w", err)
	}

	logging.LogDatagram("sent", c.broadcast.String(), data)
	return nil
}

// scanLoop broadcasts discovery requests on the configured interval until
// the retry budget is spent. Discovery is additive: devices may answer
// any broadcast in the window, and late answers still create sessions as
// long as the receive loop runs.
func (c *Controller) scanLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.ScanInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= c.cfg.ScanRetries; attempt++ {
		if err := c.Scan(); err != nil {
			logging.Warn("Discovery broadcast failed",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}

		select {
		case <-c.done:
			return
		case <-ticker.C:
		}
	}

	logging.Debug("Discovery scan budget exhausted",
		zap.Int("attempts", c.cfg.ScanRetries),
	)
}

// receiveLoop reads datagrams off the shared socket and demultiplexes
// them until the controller is closed.
func (c *Controller) receiveLoop() {
	defer c.wg.Done()

	buf := make([]byte, 64*1024)
	for {
		n, addr, err := c.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			select {
			case <-c.done:
				return
			default:
			}
			logging.Warn("UDP read failed", zap.Error(err))
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		c.handleDatagram(data, addr)
	}
}

// handleDatagram routes one inbound datagram: discovery responses create
// sessions, pack responses go to the matching session, everything else is
// dropped silently.
func (c *Controller) handleDatagram(data []byte, addr *net.UDPAddr) {
	logging.LogDatagram("received", addr.String(), data)

	var p protocol.Pack
	if err := json.Unmarshal(data, &p); err != nil || p.Type != protocol.TypePack {
		// Our own scan broadcast loops back on some stacks; foreign
		// chatter on the port is normal too
		return
	}

	if p.IsDiscoveryResponse() {
		c.handleDiscovery(p, addr)
		return
	}

	c.mu.Lock()
	s := c.sessions[p.CID]
	c.mu.Unlock()

	if s == nil {
		logging.Debug("Response for unknown device ignored",
			zap.String("cid", p.CID),
			zap.String("remote_addr", addr.String()),
		)
		return
	}

	s.handlePack(p, addr)
}

// handleDiscovery decrypts a discovery response with the default key and
// creates a session for a newly seen device. A second discovery response
// for a known hardware address is a no-op.
func (c *Controller) handleDiscovery(p protocol.Pack, addr *net.UDPAddr) {
	plain, err := codec.Decrypt(p.Pack, codec.DefaultKey)
	if err != nil {
		logging.LogDroppedPayload(addr.String(), "discovery decrypt failed", []byte(p.Pack))
		return
	}

	var info protocol.DeviceInfo
	if err := json.Unmarshal(plain, &info); err != nil || info.Type != protocol.TypeDev || info.MAC == "" {
		logging.LogDroppedPayload(addr.String(), "not a device identity", plain)
		return
	}

	id := DeviceIdentity{
		MAC:      info.MAC,
		Addr:     addr,
		Brand:    info.Brand,
		Model:    info.Model,
		Name:     info.Name,
		Firmware: info.Version,
	}

	c.mu.Lock()
	if _, exists := c.sessions[id.MAC]; exists {
		c.mu.Unlock()
		return
	}
	s := newSession(id, c.cfg.RefreshInterval, c.sendTo, c.notifySessionUpdate, c.done)
	c.sessions[id.MAC] = s
	c.mu.Unlock()

	logging.LogDeviceEvent(id.MAC, "discovered",
		zap.String("brand", id.Brand),
		zap.String("model", id.Model),
		zap.String("remote_addr", addr.String()),
	)

	if c.onDiscover != nil {
		c.onDiscover(id)
	}
}

// sendTo is the shared send path handed to sessions. net.UDPConn is safe
// for concurrent writes, so session tickers and command callers need no
// extra serialization.
func (c *Controller) sendTo(addr *net.UDPAddr, data []byte) error {
	if _, err := c.conn.WriteToUDP(data, addr); err != nil {
		return err
	}
	logging.LogDatagram("sent", addr.String(), data)
	return nil
}

func (c *Controller) notifySessionUpdate(s *Session) {
	if c.onUpdate != nil {
		c.onUpdate(s)
	}
}

// Session returns the session for a hardware address, if one exists.
func (c *Controller) Session(mac string) (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[mac]
	return s, ok
}

// Sessions returns all sessions ordered by hardware address.
func (c *Controller) Sessions() []*Session {
	c.mu.Lock()
	out := make([]*Session, 0, len(c.sessions))
	for _, s := range c.sessions {
		out = append(out, s)
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].identity.MAC < out[j].identity.MAC
	})
	return out
}

// LocalAddr returns the address of the shared socket.
func (c *Controller) LocalAddr() *net.UDPAddr {
	return c.conn.LocalAddr().(*net.UDPAddr)
}

// Close stops the scanner, the receive loop, and every session's refresh
// loop, then releases the socket. Safe to call more than once.
func (c *Controller) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
		c.wg.Wait()
	})
	return err
}
