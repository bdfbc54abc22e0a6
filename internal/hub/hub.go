package hub

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fside/backend/internal/model"
	"github.com/fside/backend/internal/presence"
	"github.com/fside/backend/internal/transcript"
)

// ErrSinkClosed is returned by a Sink that can no longer accept deliveries.
var ErrSinkClosed = errors.New("sink closed")

// Sink is the per-participant delivery channel used by the hub to push
// events to one connection. Deliver must not block: it either accepts the
// event or returns an error, in which case the hub treats the participant
// as departed.
type Sink interface {
	Deliver(ev *Event) error
	Close()
}

// ChatAppender persists sequenced chat messages. Appends happen outside the
// hub's critical section; readers must order by Seq.
type ChatAppender interface {
	Append(msg *model.ChatMessage) error
}

// EventRecorder records the sequenced event stream of one project.
type EventRecorder interface {
	Record(ev *Event) error
	Close() error
}

// Hub is the fan-out event bus for one project's collaboration session. It
// owns the project's presence store and chat transcript, assigns every
// published event the next per-project sequence number, and broadcasts
// sequenced events to all attached sinks in a single total order.
//
// All mutations go through the hub's mutex, so every sink observes the same
// event order. Different projects' hubs share nothing and never contend.
type Hub struct {
	projectID string
	presence  *presence.Store
	tail      *transcript.Ring

	chatLog  ChatAppender  // optional durable chat log
	eventLog EventRecorder // optional event stream recorder

	mu        sync.Mutex
	sinks     map[string]Sink
	seq       uint64
	idleSince time.Time
	closed    bool
}

// NewHub creates a hub for the given project. chatLog and eventLog may be
// nil, in which case chat persistence and event recording are skipped.
func NewHub(projectID string, tailSize int, chatLog ChatAppender, eventLog EventRecorder) *Hub {
	return &Hub{
		projectID: projectID,
		presence:  presence.NewStore(),
		tail:      transcript.NewRing(tailSize),
		chatLog:   chatLog,
		eventLog:  eventLog,
		sinks:     make(map[string]Sink),
		idleSince: time.Now(),
	}
}

// ProjectID returns the project this hub serves.
func (h *Hub) ProjectID() string {
	return h.projectID
}

// Attach registers a delivery sink for a participant and joins them to the
// presence store. The new sink alone receives the recent chat tail; the full
// presence snapshot is then broadcast to every sink, the new one included,
// so all clients converge on the same participant list.
//
// A second attach for an already-attached participant replaces the prior
// sink (reconnect semantics) without creating a duplicate presence record.
//
// Attach reports false if the hub has been closed; a closed hub is no longer
// reachable through its manager, so the caller must fetch a fresh hub and
// attach again.
func (h *Hub) Attach(participantID, displayName, email string, sink Sink) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}

	if old, ok := h.sinks[participantID]; ok {
		old.Close()
	}
	h.sinks[participantID] = sink
	h.idleSince = time.Time{}

	h.presence.Join(participantID, displayName, email)

	if tail := h.tail.Tail(); len(tail) > 0 {
		if err := sink.Deliver(&Event{
			Type:      EventTypeChatHistory,
			ProjectID: h.projectID,
			Messages:  tail,
		}); err != nil {
			// The connection died before the handshake finished; the
			// presence broadcast below will drop it.
			log.Printf("hub %s: chat tail delivery to %s failed: %v", h.projectID, participantID, err)
		}
	}

	h.broadcastPresenceLocked()
	h.mu.Unlock()
	return true
}

// Detach unregisters a participant's sink, removes them from the presence
// store and broadcasts the resulting presence update to the remaining sinks.
// Detaching an unknown participant is a no-op.
func (h *Hub) Detach(participantID string) {
	h.mu.Lock()
	if _, ok := h.sinks[participantID]; !ok && !h.presence.Contains(participantID) {
		h.mu.Unlock()
		return
	}
	h.dropLocked(participantID)
	h.broadcastPresenceLocked()
	h.mu.Unlock()
}

// DetachSink detaches a participant only if the given sink is still the one
// registered for them. Connection teardown must use this form: when a
// reconnect has already replaced the sink, the superseded connection's
// teardown is a no-op and the replacement stays attached.
func (h *Hub) DetachSink(participantID string, sink Sink) {
	h.mu.Lock()
	if h.sinks[participantID] != sink {
		h.mu.Unlock()
		return
	}
	h.dropLocked(participantID)
	h.broadcastPresenceLocked()
	h.mu.Unlock()
}

// Publish sequences a validated client message, applies it to the presence
// store or transcript as appropriate, and broadcasts the sequenced event to
// every attached sink including the originator. The hub's sequencing is the
// single source of truth: all sinks observe publish-originated events in
// exactly the same order.
func (h *Hub) Publish(in Inbound) {
	h.mu.Lock()

	h.seq++
	seq := h.seq

	var ev *Event
	switch in.Kind {
	case InboundCursorUpdate:
		updated := h.presence.UpdateCursor(in.ParticipantID, in.File, in.Line, in.Column, seq)
		if updated == nil {
			// Unknown participant or stale update; nothing to broadcast.
			h.mu.Unlock()
			return
		}
		ev = &Event{
			Type:          EventTypeCursorUpdate,
			ProjectID:     h.projectID,
			ParticipantID: in.ParticipantID,
			File:          in.File,
			Position:      &model.CursorPosition{Line: in.Line, Column: in.Column},
			Seq:           seq,
		}

	case InboundFileChange:
		if h.presence.SetFile(in.ParticipantID, in.File) == nil {
			h.mu.Unlock()
			return
		}
		ev = &Event{
			Type:          EventTypeCollaboratorsUpdate,
			ProjectID:     h.projectID,
			Collaborators: h.presence.Snapshot(),
			Seq:           seq,
		}

	case InboundChatMessage:
		snapshot := h.presence.Snapshot()
		displayName := in.ParticipantID
		for _, p := range snapshot {
			if p.ID == in.ParticipantID {
				displayName = p.DisplayName
				break
			}
		}
		msg := &model.ChatMessage{
			ID:            uuid.New().String(),
			ProjectID:     h.projectID,
			ParticipantID: in.ParticipantID,
			DisplayName:   displayName,
			Text:          in.Text,
			Seq:           seq,
			Timestamp:     time.Now(),
		}
		h.tail.Append(msg)
		ev = &Event{
			Type:      EventTypeChatMessage,
			ProjectID: h.projectID,
			Message:   msg,
			Seq:       seq,
		}

	case InboundCallStart:
		ev = &Event{
			Type:          EventTypeVideoCallStarted,
			ProjectID:     h.projectID,
			ParticipantID: in.ParticipantID,
			Seq:           seq,
		}

	case InboundCallEnd:
		ev = &Event{
			Type:          EventTypeVideoCallEnded,
			ProjectID:     h.projectID,
			ParticipantID: in.ParticipantID,
			Seq:           seq,
		}

	default:
		h.mu.Unlock()
		return
	}

	h.fanOutLocked(ev)
	h.mu.Unlock()

	// Durable writes happen outside the critical section so a slow disk
	// never stalls delivery. Readers order by Seq, so write order between
	// racing publishers does not matter.
	if in.Kind == InboundChatMessage && h.chatLog != nil {
		if err := h.chatLog.Append(ev.Message); err != nil {
			log.Printf("hub %s: failed to persist chat message: %v", h.projectID, err)
		}
	}
	if h.eventLog != nil {
		if err := h.eventLog.Record(ev); err != nil {
			log.Printf("hub %s: failed to record event: %v", h.projectID, err)
		}
	}
}

// Snapshot returns the current participants in join order.
func (h *Hub) Snapshot() []*model.Participant {
	return h.presence.Snapshot()
}

// Tail returns the recent chat transcript.
func (h *Hub) Tail() []*model.ChatMessage {
	return h.tail.Tail()
}

// Seq returns the last assigned sequence number.
func (h *Hub) Seq() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seq
}

// SinkCount returns the number of attached sinks.
func (h *Hub) SinkCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sinks)
}

// IdleFor returns how long the hub has had zero attached sinks, or zero if
// sinks are attached.
func (h *Hub) IdleFor(now time.Time) time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.sinks) > 0 || h.idleSince.IsZero() {
		return 0
	}
	return now.Sub(h.idleSince)
}

// Close closes all attached sinks and the event recorder. A closed hub
// refuses further attaches; closing twice is a no-op.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	sinks := make([]Sink, 0, len(h.sinks))
	for _, s := range h.sinks {
		sinks = append(sinks, s)
	}
	h.sinks = make(map[string]Sink)
	h.idleSince = time.Now()
	h.mu.Unlock()

	for _, s := range sinks {
		s.Close()
	}
	if h.eventLog != nil {
		if err := h.eventLog.Close(); err != nil {
			log.Printf("hub %s: failed to close event log: %v", h.projectID, err)
		}
	}
}

// dropLocked removes a participant's sink and presence record.
func (h *Hub) dropLocked(participantID string) {
	if s, ok := h.sinks[participantID]; ok {
		delete(h.sinks, participantID)
		s.Close()
	}
	h.presence.Leave(participantID)
	if len(h.sinks) == 0 {
		h.idleSince = time.Now()
	}
}

// broadcastPresenceLocked broadcasts the full presence snapshot to all sinks.
func (h *Hub) broadcastPresenceLocked() {
	h.fanOutLocked(&Event{
		Type:          EventTypeCollaboratorsUpdate,
		ProjectID:     h.projectID,
		Collaborators: h.presence.Snapshot(),
	})
}

// fanOutLocked delivers an event to every attached sink. A sink that cannot
// accept the delivery is treated as an implicit detach: the participant is
// dropped and the remaining sinks receive a presence update. One broken sink
// never blocks or delays delivery to the others.
func (h *Hub) fanOutLocked(ev *Event) {
	var dead []string
	for id, s := range h.sinks {
		if err := s.Deliver(ev); err != nil {
			dead = append(dead, id)
		}
	}
	if len(dead) == 0 {
		return
	}

	for _, id := range dead {
		log.Printf("hub %s: dropping unresponsive participant %s", h.projectID, id)
		h.dropLocked(id)
	}

	// Remaining sinks learn about the departures. A failure here is caught
	// on the next fan-out.
	update := &Event{
		Type:          EventTypeCollaboratorsUpdate,
		ProjectID:     h.projectID,
		Collaborators: h.presence.Snapshot(),
	}
	for id, s := range h.sinks {
		if err := s.Deliver(update); err != nil {
			log.Printf("hub %s: presence update delivery to %s failed", h.projectID, id)
		}
	}
}
