package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// ConnectionManager fans Bus events out to WebSocket clients, one
// channel per meeting id. Grounded on the teacher's ConnectionManager
// but without its Postgres LISTEN/catchup machinery — notecore's Bus
// is a single in-process publisher, so there is no cross-pod fan-in to
// coordinate and no missed-event replay to serve.
type ConnectionManager struct {
	mu          sync.RWMutex
	connections map[string]*connection

	bus          *Bus
	writeTimeout time.Duration
}

type connection struct {
	id        string
	conn      *websocket.Conn
	meetingID string
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewConnectionManager creates a manager that relays bus events for
// whatever meeting each client subscribes to.
func NewConnectionManager(bus *Bus, writeTimeout time.Duration) *ConnectionManager {
	return &ConnectionManager{
		connections:  make(map[string]*connection),
		bus:          bus,
		writeTimeout: writeTimeout,
	}
}

// HandleConnection relays every event for meetingID to conn until the
// connection closes or ctx is canceled. Blocks; call from the
// WebSocket HTTP handler's goroutine after upgrade.
func (m *ConnectionManager) HandleConnection(parentCtx context.Context, conn *websocket.Conn, meetingID string) {
	connID := uuid.New().String()
	ctx, cancel := context.WithCancel(parentCtx)

	c := &connection{id: connID, conn: conn, meetingID: meetingID, ctx: ctx, cancel: cancel}
	m.register(c)
	defer m.unregister(c)

	events, unsubscribe := m.bus.Subscribe(meetingID, 64)
	defer unsubscribe()

	m.sendJSON(c, map[string]string{"type": "connection.established", "connectionId": connID})

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if err := m.send(c, evt); err != nil {
				slog.Warn("failed to send event to websocket client", "connection_id", connID, "error", err)
				return
			}
		}
	}
}

func (m *ConnectionManager) register(c *connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[c.id] = c
}

func (m *ConnectionManager) unregister(c *connection) {
	m.mu.Lock()
	delete(m.connections, c.id)
	m.mu.Unlock()

	c.cancel()
	_ = c.conn.Close(websocket.StatusNormalClosure, "")
}

// ActiveConnections returns the count of active WebSocket connections.
func (m *ConnectionManager) ActiveConnections() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

func (m *ConnectionManager) send(c *connection, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(c.ctx, m.writeTimeout)
	defer cancel()
	return c.conn.Write(writeCtx, websocket.MessageText, data)
}

func (m *ConnectionManager) sendJSON(c *connection, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("failed to marshal websocket message", "connection_id", c.id, "error", err)
		return
	}
	writeCtx, cancel := context.WithTimeout(c.ctx, m.writeTimeout)
	defer cancel()
	if err := c.conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		slog.Warn("failed to send websocket message", "connection_id", c.id, "error", err)
	}
}
