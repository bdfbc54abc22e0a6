package ws

import (
	"errors"
	"fmt"

	"github.com/fside/backend/internal/hub"
)

// MessageType represents the type of an inbound client message.
type MessageType string

const (
	// Client -> Server message types
	MessageTypeJoinProject    MessageType = "join_project"
	MessageTypeCursorUpdate   MessageType = "cursor_update"
	MessageTypeFileChange     MessageType = "file_change"
	MessageTypeChatMessage    MessageType = "chat_message"
	MessageTypeStartVideoCall MessageType = "start_video_call"
	MessageTypeEndVideoCall   MessageType = "end_video_call"
)

// ErrUnknownMessageType is returned for a message type the gateway does not
// recognize.
var ErrUnknownMessageType = errors.New("unknown message type")

// Message is the inbound wire envelope. Every client message carries a type
// tag plus the fields that type needs; Validate checks the shape before the
// message is allowed anywhere near a hub.
type Message struct {
	Type      MessageType `json:"type"`
	UserID    string      `json:"user_id,omitempty"`
	UserName  string      `json:"user_name,omitempty"`
	UserEmail string      `json:"user_email,omitempty"`
	File      string      `json:"file,omitempty"`
	Line      int         `json:"line,omitempty"`
	Column    int         `json:"column,omitempty"`
	Message   string      `json:"message,omitempty"`
}

// Validate checks that the message carries the fields its type requires.
func (m *Message) Validate() error {
	if m.UserID == "" {
		return fmt.Errorf("%s message missing user_id", m.Type)
	}

	switch m.Type {
	case MessageTypeJoinProject:
		if m.UserName == "" {
			return errors.New("join_project message missing user_name")
		}
	case MessageTypeCursorUpdate:
		if m.File == "" {
			return errors.New("cursor_update message missing file")
		}
		if m.Line < 0 || m.Column < 0 {
			return errors.New("cursor_update position out of range")
		}
	case MessageTypeFileChange:
		if m.File == "" {
			return errors.New("file_change message missing file")
		}
	case MessageTypeChatMessage:
		if m.Message == "" {
			return errors.New("chat_message message missing message body")
		}
	case MessageTypeStartVideoCall, MessageTypeEndVideoCall:
		// user_id is all these carry
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMessageType, m.Type)
	}

	return nil
}

// ToInbound converts a validated message into the hub's inbound form.
// join_project has no hub equivalent; it is consumed by the gateway itself.
func (m *Message) ToInbound() (hub.Inbound, bool) {
	switch m.Type {
	case MessageTypeCursorUpdate:
		return hub.Inbound{
			Kind:          hub.InboundCursorUpdate,
			ParticipantID: m.UserID,
			File:          m.File,
			Line:          m.Line,
			Column:        m.Column,
		}, true
	case MessageTypeFileChange:
		return hub.Inbound{
			Kind:          hub.InboundFileChange,
			ParticipantID: m.UserID,
			File:          m.File,
		}, true
	case MessageTypeChatMessage:
		return hub.Inbound{
			Kind:          hub.InboundChatMessage,
			ParticipantID: m.UserID,
			Text:          m.Message,
		}, true
	case MessageTypeStartVideoCall:
		return hub.Inbound{
			Kind:          hub.InboundCallStart,
			ParticipantID: m.UserID,
		}, true
	case MessageTypeEndVideoCall:
		return hub.Inbound{
			Kind:          hub.InboundCallEnd,
			ParticipantID: m.UserID,
		}, true
	}
	return hub.Inbound{}, false
}
