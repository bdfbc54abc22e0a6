package ws

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/fside/backend/internal/hub"
)

func TestValidateRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		wantErr bool
	}{
		{
			name: "valid join",
			msg:  Message{Type: MessageTypeJoinProject, UserID: "u1", UserName: "John"},
		},
		{
			name:    "join without user_name",
			msg:     Message{Type: MessageTypeJoinProject, UserID: "u1"},
			wantErr: true,
		},
		{
			name:    "missing user_id",
			msg:     Message{Type: MessageTypeChatMessage, Message: "hi"},
			wantErr: true,
		},
		{
			name: "valid cursor update",
			msg:  Message{Type: MessageTypeCursorUpdate, UserID: "u1", File: "main.go", Line: 3, Column: 7},
		},
		{
			name:    "cursor update without file",
			msg:     Message{Type: MessageTypeCursorUpdate, UserID: "u1", Line: 3},
			wantErr: true,
		},
		{
			name:    "cursor update with negative position",
			msg:     Message{Type: MessageTypeCursorUpdate, UserID: "u1", File: "main.go", Line: -1},
			wantErr: true,
		},
		{
			name: "valid file change",
			msg:  Message{Type: MessageTypeFileChange, UserID: "u1", File: "main.go"},
		},
		{
			name:    "file change without file",
			msg:     Message{Type: MessageTypeFileChange, UserID: "u1"},
			wantErr: true,
		},
		{
			name: "valid chat message",
			msg:  Message{Type: MessageTypeChatMessage, UserID: "u1", Message: "hello"},
		},
		{
			name:    "chat message without body",
			msg:     Message{Type: MessageTypeChatMessage, UserID: "u1"},
			wantErr: true,
		},
		{
			name: "video call start",
			msg:  Message{Type: MessageTypeStartVideoCall, UserID: "u1"},
		},
		{
			name: "video call end",
			msg:  Message{Type: MessageTypeEndVideoCall, UserID: "u1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestValidateUnknownType(t *testing.T) {
	msg := Message{Type: "teleport", UserID: "u1"}
	err := msg.Validate()
	if !errors.Is(err, ErrUnknownMessageType) {
		t.Errorf("expected ErrUnknownMessageType, got %v", err)
	}
}

func TestToInbound(t *testing.T) {
	msg := Message{Type: MessageTypeCursorUpdate, UserID: "u1", File: "main.go", Line: 12, Column: 4}
	in, ok := msg.ToInbound()
	if !ok {
		t.Fatal("expected cursor_update to convert")
	}
	if in.Kind != hub.InboundCursorUpdate || in.ParticipantID != "u1" || in.File != "main.go" || in.Line != 12 || in.Column != 4 {
		t.Errorf("unexpected inbound: %+v", in)
	}

	msg = Message{Type: MessageTypeChatMessage, UserID: "u1", Message: "hello"}
	in, ok = msg.ToInbound()
	if !ok || in.Kind != hub.InboundChatMessage || in.Text != "hello" {
		t.Errorf("unexpected inbound for chat message: %+v", in)
	}

	// join_project is handled by the gateway, not forwarded to a hub.
	msg = Message{Type: MessageTypeJoinProject, UserID: "u1", UserName: "John"}
	if _, ok := msg.ToInbound(); ok {
		t.Error("expected join_project not to convert to an inbound event")
	}
}

func TestMessageDecoding(t *testing.T) {
	raw := `{"type":"cursor_update","user_id":"u1","file":"src/app.ts","line":42,"column":8}`

	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("failed to decode message: %v", err)
	}
	if msg.Type != MessageTypeCursorUpdate || msg.File != "src/app.ts" || msg.Line != 42 || msg.Column != 8 {
		t.Errorf("unexpected decoded message: %+v", msg)
	}
	if err := msg.Validate(); err != nil {
		t.Errorf("decoded message should validate: %v", err)
	}
}
