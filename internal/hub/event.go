// Package hub provides the per-project broadcast and sequencing authority
// for collaboration events.
package hub

import (
	"github.com/fside/backend/internal/model"
)

// EventType represents the type of an outbound collaboration event.
type EventType string

const (
	// Hub -> Client event types
	EventTypeCollaboratorsUpdate EventType = "collaborators_update"
	EventTypeCursorUpdate        EventType = "cursor_update"
	EventTypeChatMessage         EventType = "chat_message"
	EventTypeChatHistory         EventType = "chat_history"
	EventTypeVideoCallStarted    EventType = "video_call_started"
	EventTypeVideoCallEnded      EventType = "video_call_ended"
)

// Event is an outbound collaboration event pushed by a hub to its sinks.
// Events are immutable once emitted; sequenced events carry the per-project
// monotonic Seq assigned at publish time.
type Event struct {
	Type          EventType             `json:"type"`
	ProjectID     string                `json:"project_id,omitempty"`
	Collaborators []*model.Participant  `json:"collaborators,omitempty"`
	ParticipantID string                `json:"user_id,omitempty"`
	File          string                `json:"file,omitempty"`
	Position      *model.CursorPosition `json:"position,omitempty"`
	Message       *model.ChatMessage    `json:"message,omitempty"`
	Messages      []*model.ChatMessage  `json:"messages,omitempty"`
	Seq           uint64                `json:"seq,omitempty"`
}

// InboundKind identifies a validated client message routed to Publish.
type InboundKind string

const (
	// Client -> Hub message kinds
	InboundCursorUpdate InboundKind = "cursor_update"
	InboundFileChange   InboundKind = "file_change"
	InboundChatMessage  InboundKind = "chat_message"
	InboundCallStart    InboundKind = "start_video_call"
	InboundCallEnd      InboundKind = "end_video_call"
)

// Inbound is a validated client message handed to a hub for sequencing and
// broadcast. The gateway is responsible for shape validation; by the time an
// Inbound reaches the hub it is well-formed.
type Inbound struct {
	Kind          InboundKind
	ParticipantID string
	File          string
	Line          int
	Column        int
	Text          string
}
