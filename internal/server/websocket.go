package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kelder/breeze/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Per-client buffer of pending pushes before the client is dropped
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The bridge binds to loopback by default; anything reaching it is
	// already on the right side of the trust boundary
	CheckOrigin: func(*http.Request) bool { return true },
}

// hub fans device snapshots out to every connected WebSocket client. A
// client that cannot keep up with the push rate is disconnected rather
// than allowed to stall the engine's update callback.
type hub struct {
	register   chan *client
	unregister chan *client
	updates    chan deviceView
	done       chan struct{}
}

type client struct {
	conn *websocket.Conn
	send chan deviceView
}

func newHub() *hub {
	return &hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		updates:    make(chan deviceView, 64),
		done:       make(chan struct{}),
	}
}

func (h *hub) run() {
	clients := make(map[*client]struct{})

	for {
		select {
		case <-h.done:
			for c := range clients {
				close(c.send)
			}
			return

		case c := <-h.register:
			clients[c] = struct{}{}

		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
			}

		case view := <-h.updates:
			for c := range clients {
				select {
				case c.send <- view:
				default:
					delete(clients, c)
					close(c.send)
				}
			}
		}
	}
}

// broadcast queues a snapshot for every client. Never blocks the caller:
// the engine's update callback runs on the UDP receive path.
func (h *hub) broadcast(view deviceView) {
	select {
	case h.updates <- view:
	case <-h.done:
	default:
		logging.Debug("WebSocket push queue full, dropping update",
			zap.String("mac", view.MAC),
		)
	}
}

func (h *hub) close() {
	close(h.done)
}

// handleWebSocket upgrades the connection and attaches it to the hub.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	c := &client{conn: conn, send: make(chan deviceView, sendBuffer)}

	select {
	case s.hub.register <- c:
	case <-s.hub.done:
		conn.Close()
		return
	}

	logging.Info("WebSocket client connected",
		zap.String("remote_addr", r.RemoteAddr),
	)

	// Seed the new client with the current state of every device
	for _, sess := range s.controller.Sessions() {
		select {
		case c.send <- s.deviceView(sess):
		default:
		}
	}

	go c.writePump(s.hub)
	go c.readPump(s.hub)
}

// writePump drains the client's send queue onto the wire and keeps the
// connection alive with pings.
func (c *client) writePump(h *hub) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case view, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(view); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound messages; the bridge's WebSocket is
// push-only. It exists to process control frames and notice disconnects.
func (c *client) readPump(h *hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
