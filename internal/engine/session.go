package engine

import (
	"encoding/json"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kelder/breeze/internal/codec"
	"github.com/kelder/breeze/internal/logging"
	"github.com/kelder/breeze/internal/protocol"
)

const (
	// ObservationWindow gates refresh traffic: a status poll is only sent
	// when a consumer has read the cached status this recently. An
	// unwatched device generates no traffic.
	ObservationWindow = 5000 * time.Millisecond

	// UnavailableThreshold is the number of status requests sent without
	// an intervening reply before the device is considered offline. The
	// comparison fires when the counter lands on exactly this value, i.e.
	// on the fifth request sent, matching observed appliance-app timing.
	UnavailableThreshold = 5
)

// sendFunc transmits one datagram to the given address. The controller
// supplies its shared socket here; tests supply a capture function.
type sendFunc func(addr *net.UDPAddr, data []byte) error

// Session is the per-device protocol state machine. It owns the device
// key, the cached status, and the availability bookkeeping, and lives for
// the controller's lifetime once created (the protocol has no teardown).
//
// A session starts unbound: construction sends the bind request encrypted
// with the well-known default key. A successful bindok response stores
// the per-device key and starts the refresh loop; from then on the
// session polls status whenever a consumer is observing it and applies
// dat/res responses to the cache.
type Session struct {
	identity DeviceIdentity
	refresh  time.Duration
	send     sendFunc
	onUpdate func(*Session)
	done     <-chan struct{}

	// now is swapped out by tests to steer the observation window
	now func() time.Time

	mu             sync.Mutex
	key            string
	status         map[string]int
	unavailable    bool
	unresponded    int
	lastObserved   time.Time
	seq            int
	refreshStarted bool
}

// newSession creates the session and immediately issues the bind request.
func newSession(id DeviceIdentity, refresh time.Duration, send sendFunc, onUpdate func(*Session), done <-chan struct{}) *Session {
	s := &Session{
		identity:    id,
		refresh:     refresh,
		send:        send,
		onUpdate:    onUpdate,
		done:        done,
		now:         time.Now,
		status:      make(map[string]int),
		unavailable: true,
		seq:         protocol.SeqPreBind,
	}
	s.sendBind()
	return s
}

// Identity returns the immutable discovery identity of the device.
func (s *Session) Identity() DeviceIdentity {
	return s.identity
}

// Unavailable reports whether the device has missed enough status polls
// to be considered offline. Sessions start unavailable and stay that way
// until the first successful status response.
func (s *Session) Unavailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unavailable
}

// Bound reports whether the bind handshake has completed.
func (s *Session) Bound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key != ""
}

// Status returns a snapshot of the cached status fields. Reading the
// status marks the device as observed, which is what keeps the refresh
// loop polling; an ErrDeviceUnavailable result still carries the last
// known snapshot.
func (s *Session) Status() (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastObserved = s.now()

	snapshot := make(map[string]int, len(s.status))
	for k, v := range s.status {
		snapshot[k] = v
	}

	if s.unavailable {
		return snapshot, ErrDeviceUnavailable
	}
	return snapshot, nil
}

// Command sends a state mutation to the device, fire-and-forget. The
// acknowledgement, if one arrives, updates the cache asynchronously.
// Commands never touch the availability bookkeeping; only status polls
// do.
func (s *Session) Command(fields []protocol.FieldValue) error {
	s.mu.Lock()
	key := s.key
	seq := s.seq
	s.mu.Unlock()

	if key == "" {
		return ErrNotBound
	}

	s.sendEncrypted(protocol.NewCommandRequest(fields), key, seq)
	return nil
}

// sendBind issues the bind request under the default key with the
// pre-bind sequence index. This is the only request a session sends
// before a device key exists.
func (s *Session) sendBind() {
	s.sendEncrypted(protocol.NewBindRequest(s.identity.MAC), codec.DefaultKey, protocol.SeqPreBind)
}

// sendEncrypted encrypts an inner payload, wraps it in the outer
// envelope, and transmits it. Transport errors are logged and abandoned;
// the next scheduled tick is the retry policy.
func (s *Session) sendEncrypted(payload any, key string, seq int) {
	enc, err := codec.Encrypt(payload, key)
	if err != nil {
		logging.Error("Failed to encrypt payload",
			zap.String("mac", s.identity.MAC),
			zap.Error(err),
		)
		return
	}

	data, err := json.Marshal(protocol.NewRequestPack(seq, s.identity.MAC, enc))
	if err != nil {
		logging.Error("Failed to marshal envelope",
			zap.String("mac", s.identity.MAC),
			zap.Error(err),
		)
		return
	}

	if err := s.send(s.identity.Addr, data); err != nil {
		logging.Warn("Failed to send datagram",
			zap.String("mac", s.identity.MAC),
			zap.String("remote_addr", s.identity.Addr.String()),
			zap.Error(err),
		)
	}
}

// handlePack processes an inbound envelope routed to this session by the
// controller. Anything that fails decryption, fails the result check, or
// names a different device is dropped without touching session state.
func (s *Session) handlePack(p protocol.Pack, from *net.UDPAddr) {
	s.mu.Lock()
	key := s.key
	s.mu.Unlock()

	// bindok arrives before a device key exists and is encrypted with
	// the default key, like the bind request that solicited it
	if key == "" {
		key = codec.DefaultKey
	}

	plain, err := codec.Decrypt(p.Pack, key)
	if err != nil {
		logging.LogDroppedPayload(from.String(), "decrypt failed", []byte(p.Pack))
		return
	}

	var hdr protocol.ResponseHeader
	if err := json.Unmarshal(plain, &hdr); err != nil {
		logging.LogDroppedPayload(from.String(), "malformed inner payload", plain)
		return
	}

	if hdr.MAC != "" && hdr.MAC != s.identity.MAC {
		logging.LogDroppedPayload(from.String(), "mac mismatch", plain)
		return
	}

	if hdr.R != protocol.StatusOK {
		logging.Debug("Rejected response ignored",
			zap.String("mac", s.identity.MAC),
			zap.String("type", hdr.T),
			zap.Int("result", hdr.R),
		)
		return
	}

	switch hdr.T {
	case protocol.TypeBindOK:
		s.handleBindResponse(plain)
	case protocol.TypeDat:
		s.handleStatusResponse(plain)
	case protocol.TypeRes:
		s.handleCommandResponse(plain)
	default:
		logging.LogDroppedPayload(from.String(), "unknown response type "+hdr.T, plain)
	}
}

// handleBindResponse stores the device key and starts the refresh loop.
// The key is set exactly once; a repeated bindok is ignored.
func (s *Session) handleBindResponse(plain []byte) {
	var resp protocol.BindResponse
	if err := json.Unmarshal(plain, &resp); err != nil || resp.Key == "" {
		logging.LogDroppedPayload(s.identity.Addr.String(), "malformed bindok", plain)
		return
	}

	s.mu.Lock()
	if s.key != "" {
		s.mu.Unlock()
		return
	}
	s.key = resp.Key
	s.seq = protocol.SeqPostBind
	start := !s.refreshStarted
	s.refreshStarted = true
	s.mu.Unlock()

	logging.LogDeviceEvent(s.identity.MAC, "bound")

	if start {
		go s.refreshLoop()
	}
}

// refreshLoop drives the periodic status polling until the controller
// shuts down. Each session's loop is independent; they share nothing but
// the socket.
func (s *Session) refreshLoop() {
	ticker := time.NewTicker(s.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.refreshTick()
		}
	}
}

// refreshTick sends a status poll if a consumer has observed the device
// within the observation window, and advances the missed-response
// counter. Landing on the threshold flips the device to unavailable.
func (s *Session) refreshTick() {
	s.mu.Lock()
	key := s.key
	seq := s.seq
	observed := s.now().Sub(s.lastObserved) <= ObservationWindow

	if key == "" || !observed {
		s.mu.Unlock()
		return
	}

	s.unresponded++
	if s.unresponded == UnavailableThreshold && !s.unavailable {
		s.unavailable = true
		s.mu.Unlock()
		logging.LogDeviceEvent(s.identity.MAC, "unavailable",
			zap.Int("unresponded_requests", UnavailableThreshold),
		)
	} else {
		s.mu.Unlock()
	}

	s.sendEncrypted(protocol.NewStatusRequest(s.identity.MAC, protocol.Columns()), key, seq)
}

// handleStatusResponse applies a successful dat response: the device is
// available again, the missed counter resets, and every reported column
// overwrites the cache.
func (s *Session) handleStatusResponse(plain []byte) {
	var resp protocol.StatusResponse
	if err := json.Unmarshal(plain, &resp); err != nil {
		logging.LogDroppedPayload(s.identity.Addr.String(), "malformed dat", plain)
		return
	}

	s.mu.Lock()
	recovered := s.unavailable
	s.unavailable = false
	s.unresponded = 0
	s.applyColumnsLocked(resp.Cols, resp.Dat)
	s.mu.Unlock()

	if recovered {
		logging.LogDeviceEvent(s.identity.MAC, "available")
	}
	s.notifyUpdate()
}

// handleCommandResponse merges a command acknowledgement into the cache.
// The response's val sequence wins; the echoed p sequence is the fallback
// only when val is absent entirely. Availability state is untouched.
func (s *Session) handleCommandResponse(plain []byte) {
	var resp protocol.CommandResponse
	if err := json.Unmarshal(plain, &resp); err != nil {
		logging.LogDroppedPayload(s.identity.Addr.String(), "malformed res", plain)
		return
	}

	s.mu.Lock()
	s.applyColumnsLocked(resp.Opt, resp.Values())
	s.mu.Unlock()

	s.notifyUpdate()
}

// applyColumnsLocked overwrites cached values from parallel column/value
// sequences. Unknown field codes are skipped defensively; values are
// taken verbatim, never transformed. Caller holds s.mu.
func (s *Session) applyColumnsLocked(cols []string, vals []int) {
	for i, col := range cols {
		if i >= len(vals) {
			break
		}
		if !protocol.KnownColumn(col) {
			logging.Debug("Skipping unknown status column",
				zap.String("mac", s.identity.MAC),
				zap.String("column", col),
			)
			continue
		}
		s.status[col] = vals[i]
	}
}

// notifyUpdate fires the cache-change callback outside the session lock,
// so the consumer is free to read the status back.
func (s *Session) notifyUpdate() {
	if s.onUpdate != nil {
		s.onUpdate(s)
	}
}
