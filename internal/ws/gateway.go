package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fside/backend/internal/hub"
	"github.com/fside/backend/internal/model"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer. Doubles as
	// the heartbeat backstop: a connection that goes silent for this long
	// is detached even without an explicit close.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Time allowed for the client to send its join_project message.
	joinWait = 10 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Implement proper origin checking in production
		return true
	},
}

// Authorizer decides whether a participant may join a project's session.
// It must return model.ErrNotAMember (or model.ErrProjectNotFound) to refuse.
type Authorizer interface {
	Authorize(ctx context.Context, projectID, userID string) error
}

// Gateway is the boundary between WebSocket connections and session hubs.
// One gateway serves every project: it upgrades connections, runs the join
// handshake, validates inbound messages and routes them to the right hub.
type Gateway struct {
	hubs *hub.Manager
	auth Authorizer
}

// NewGateway creates a new Gateway.
func NewGateway(hubs *hub.Manager, auth Authorizer) *Gateway {
	return &Gateway{
		hubs: hubs,
		auth: auth,
	}
}

// HubManager returns the hub manager behind the gateway.
func (g *Gateway) HubManager() *hub.Manager {
	return g.hubs
}

// HandleConnection upgrades an HTTP request to a WebSocket connection and
// runs the connection's lifecycle: join handshake, authorization, hub
// attach, message pump, and detach on any exit path.
func (g *Gateway) HandleConnection(w http.ResponseWriter, r *http.Request, projectID string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	join, err := g.readJoin(conn)
	if err != nil {
		log.Printf("join handshake failed for project %s: %v", projectID, err)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseProtocolError, "expected join_project"),
			time.Now().Add(writeWait))
		conn.Close()
		return nil
	}

	if err := g.auth.Authorize(r.Context(), projectID, join.UserID); err != nil {
		log.Printf("join refused for user %s on project %s: %v", join.UserID, projectID, err)
		reason := "access denied"
		if errors.Is(err, model.ErrProjectNotFound) {
			reason = "project not found"
		}
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
			time.Now().Add(writeWait))
		conn.Close()
		return nil
	}

	sink := newConn(conn, projectID, join.UserID)
	go sink.writePump()

	h := g.hubs.GetOrCreate(projectID)
	for !h.Attach(join.UserID, join.UserName, join.UserEmail, sink) {
		// The janitor disposed this hub between lookup and attach; the next
		// lookup creates a fresh one.
		h = g.hubs.GetOrCreate(projectID)
	}

	go g.readPump(conn, sink, h)

	return nil
}

// readJoin reads and validates the first client message, which must be
// join_project.
func (g *Gateway) readJoin(conn *websocket.Conn) (*Message, error) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(joinWait))

	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type != MessageTypeJoinProject {
		return nil, errors.New("first message must be join_project")
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	return &msg, nil
}

// readPump pumps messages from the WebSocket connection into the hub until
// the connection dies, then detaches the participant. The detach is scoped
// to this connection's sink: when a reconnect has already replaced it, the
// replacement must survive the old connection's teardown. Malformed messages
// are dropped with a logged warning; they never terminate the connection.
func (g *Gateway) readPump(conn *websocket.Conn, sink *Conn, h *hub.Hub) {
	defer func() {
		h.DetachSink(sink.ParticipantID(), sink)
		sink.Close()
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error on project %s: %v", sink.ProjectID(), err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("dropping malformed message from %s: %v", sink.ParticipantID(), err)
			continue
		}

		if msg.Type == MessageTypeJoinProject {
			// Already joined on this connection; a reconnect arrives on a
			// fresh connection, never in-band.
			log.Printf("dropping duplicate join_project from %s", sink.ParticipantID())
			continue
		}

		if err := msg.Validate(); err != nil {
			log.Printf("dropping invalid %s message from %s: %v", msg.Type, sink.ParticipantID(), err)
			continue
		}

		if msg.UserID != sink.ParticipantID() {
			log.Printf("dropping %s message with mismatched user_id from %s", msg.Type, sink.ParticipantID())
			continue
		}

		if in, ok := msg.ToInbound(); ok {
			h.Publish(in)
		}
	}
}

// SetCheckOrigin sets a custom origin checker for the WebSocket upgrader.
func SetCheckOrigin(fn func(r *http.Request) bool) {
	upgrader.CheckOrigin = fn
}
