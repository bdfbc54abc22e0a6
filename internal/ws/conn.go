package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fside/backend/internal/hub"
)

// Conn is one participant's WebSocket connection, acting as the hub's
// delivery sink for that participant. Deliveries go through a buffered
// channel drained by the write pump, so the hub never blocks on a slow
// connection; when the buffer fills the connection is considered broken.
type Conn struct {
	conn          *websocket.Conn
	projectID     string
	participantID string
	send          chan *hub.Event
	mu            sync.Mutex
	closed        bool
}

// newConn creates a connection sink around an upgraded WebSocket.
func newConn(conn *websocket.Conn, projectID, participantID string) *Conn {
	return &Conn{
		conn:          conn,
		projectID:     projectID,
		participantID: participantID,
		send:          make(chan *hub.Event, 256),
	}
}

// Deliver queues an event for the participant. It never blocks: if the
// connection is closed or its buffer is full, Deliver closes the sink and
// returns ErrSinkClosed so the hub detaches the participant.
func (c *Conn) Deliver(ev *hub.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return hub.ErrSinkClosed
	}

	select {
	case c.send <- ev:
		return nil
	default:
		// Buffer full, give up on this connection
		c.closeLocked()
		return hub.ErrSinkClosed
	}
}

// Close closes the sink. The write pump drains whatever was queued and then
// closes the underlying connection.
func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Conn) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// IsClosed returns true if the sink is closed.
func (c *Conn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// ParticipantID returns the participant this connection belongs to.
func (c *Conn) ParticipantID() string {
	return c.participantID
}

// ProjectID returns the project this connection is attached to.
func (c *Conn) ProjectID() string {
	return c.projectID
}

// writePump pumps queued events to the WebSocket connection, each in its own
// text frame, and keeps the connection alive with periodic pings.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the sink
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.writeEvent(ev); err != nil {
				return
			}

			// Drain anything already queued, one frame per event so
			// JSON.parse() works on the client
			n := len(c.send)
			for i := 0; i < n; i++ {
				queued, ok := <-c.send
				if !ok {
					c.conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := c.writeEvent(queued); err != nil {
					return
				}
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// writeEvent marshals and writes one event frame.
func (c *Conn) writeEvent(ev *hub.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}
