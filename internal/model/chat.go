package model

import "time"

// ChatMessage is one entry in a project's chat transcript. Messages are
// immutable once sequenced by the hub; Seq establishes the per-project
// total order that every participant observes.
type ChatMessage struct {
	ID            string    `json:"message_id"`
	ProjectID     string    `json:"-"`
	ParticipantID string    `json:"participant_id"`
	DisplayName   string    `json:"user_name"`
	Text          string    `json:"message"`
	Seq           uint64    `json:"seq"`
	Timestamp     time.Time `json:"timestamp"`
}
