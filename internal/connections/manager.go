package connections

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// TimeoutConfig holds the various timeout settings for WebSocket connections
type TimeoutConfig struct {
	PongWait   time.Duration
	PingPeriod time.Duration
	WriteWait  time.Duration
}

// DefaultTimeouts provides sensible default timeout values
var DefaultTimeouts = TimeoutConfig{
	PongWait:   30 * time.Second,
	PingPeriod: 27 * time.Second, // (PongWait * 9) / 10
	WriteWait:  10 * time.Second,
}

// Conn serialises writes to a websocket. Reads stay with the owning handler.
type Conn struct {
	ws       *websocket.Conn
	timeouts TimeoutConfig

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// WriteJSON sends v as a text frame
func (c *Conn) WriteJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(c.timeouts.WriteWait)); err != nil {
		return err
	}
	return c.ws.WriteJSON(v)
}

// ReadJSON reads the next message into v. Only one goroutine may read. The
// peer has PongWait to send something before the read times out.
func (c *Conn) ReadJSON(v interface{}) error {
	if err := c.ws.SetReadDeadline(time.Now().Add(c.timeouts.PongWait)); err != nil {
		return err
	}
	return c.ws.ReadJSON(v)
}

// KeepAlive installs the pong handler and pings the peer every PingPeriod
// from a background goroutine until ctx is done or a ping fails. It must be
// called before the first ReadJSON.
func (c *Conn) KeepAlive(ctx context.Context) {
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.timeouts.PongWait))
	})

	go func() {
		ticker := time.NewTicker(c.timeouts.PingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.writeMu.Lock()
				err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.timeouts.WriteWait))
				c.writeMu.Unlock()
				if err != nil {
					log.Debug().Err(err).Msg("Websocket ping failed")
					return
				}
			}
		}
	}()
}

// Close sends a close frame with the given code and closes the socket
func (c *Conn) Close(code int, reason string) {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		msg := websocket.FormatCloseMessage(code, reason)
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.timeouts.WriteWait))
		c.writeMu.Unlock()
		c.ws.Close()
	})
}

// Manager handles WebSocket connection lifecycle
type Manager struct {
	connections sync.Map
	timeouts    TimeoutConfig
}

// NewManager creates a new connection manager with the specified timeouts
func NewManager(timeouts TimeoutConfig) *Manager {
	return &Manager{
		timeouts: timeouts,
	}
}

// Register wraps and tracks an upgraded connection
func (m *Manager) Register(ws *websocket.Conn) *Conn {
	c := &Conn{ws: ws, timeouts: m.timeouts}
	m.connections.Store(c, struct{}{})
	log.Debug().Int("connections", m.Count()).Msg("Websocket connection registered")
	return c
}

// Unregister stops tracking c and closes it
func (m *Manager) Unregister(c *Conn) {
	m.connections.Delete(c)
	c.Close(websocket.CloseNormalClosure, "")
}

// Count returns the current number of active connections
func (m *Manager) Count() int {
	count := 0
	m.connections.Range(func(key, value interface{}) bool {
		count++
		return true
	})
	return count
}

// Has checks if a specific connection is tracked
func (m *Manager) Has(c *Conn) bool {
	_, exists := m.connections.Load(c)
	return exists
}

// CloseAll tells every client the server is going away
func (m *Manager) CloseAll() {
	m.connections.Range(func(key, value interface{}) bool {
		c := key.(*Conn)
		c.Close(websocket.CloseGoingAway, "server shutting down")
		m.connections.Delete(c)
		return true
	})
}
