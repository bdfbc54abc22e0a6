package model

import "time"

// ParticipantStatus represents the presence status of a participant. A
// record exists only while its connection is attached, so the only stored
// status is online; departed participants are removed, not marked offline.
type ParticipantStatus string

const (
	ParticipantStatusOnline ParticipantStatus = "online"
)

// CursorPosition is a participant's cursor location within a file.
type CursorPosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Participant represents one live member of a project's collaboration session.
// A participant record exists only while its connection is attached; a reconnect
// replaces the prior record rather than creating a second one.
type Participant struct {
	ID          string            `json:"id"`
	DisplayName string            `json:"name"`
	Email       string            `json:"email"`
	Color       string            `json:"color"`
	Status      ParticipantStatus `json:"status"`
	CurrentFile string            `json:"active_file,omitempty"`
	Cursor      *CursorPosition   `json:"cursor_position,omitempty"`
	JoinedAt    time.Time         `json:"joinedAt"`
}

// Clone returns a deep copy of the participant. Snapshots hand copies to
// callers so hub-owned state is never mutated from outside.
func (p *Participant) Clone() *Participant {
	clone := *p
	if p.Cursor != nil {
		cursor := *p.Cursor
		clone.Cursor = &cursor
	}
	return &clone
}
