package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"OilTycoon/internal/model"
)

const wsWriteTimeout = 5 * time.Second

type wsMessage struct {
	Type  string             `json:"type"`
	State model.EconomyState `json:"state"`
}

// wsClient holds a one-slot dirty flag: bursts of changes collapse into a
// single push of the latest state.
type wsClient struct {
	conn  *websocket.Conn
	dirty chan struct{}
}

func (c *wsClient) mark() {
	select {
	case c.dirty <- struct{}{}:
	default:
	}
}

type hub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

func newHub() *hub {
	return &hub{clients: make(map[*wsClient]struct{})}
}

func (h *hub) add(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) remove(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// notify is the engine observer. It never blocks.
func (h *hub) notify() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.mark()
	}
}

func (h *hub) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	c := &wsClient{conn: conn, dirty: make(chan struct{}, 1)}
	s.hub.add(c)
	defer func() {
		s.hub.remove(c)
		conn.Close()
	}()
	c.mark()

	// Inbound frames are ignored; reading surfaces the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-c.dirty:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(wsMessage{Type: "state", State: s.engine.Snapshot()}); err != nil {
				s.logger.Debug("websocket write failed", "err", err)
				return
			}
		}
	}
}
