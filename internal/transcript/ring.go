// Package transcript provides a bounded chat transcript for session replay.
package transcript

import (
	"sync"

	"github.com/fside/backend/internal/model"
)

// Ring is a thread-safe bounded transcript that keeps the most recent chat
// messages up to a specified capacity. When the transcript is full, oldest
// messages are discarded to make room for new ones.
//
// This is what a newly attached participant receives as the chat tail,
// allowing clients to render recent history on (re)connect.
type Ring struct {
	messages []*model.ChatMessage
	capacity int
	mu       sync.RWMutex
}

// NewRing creates a new Ring with the specified capacity.
// The capacity must be greater than 0; if not, it defaults to 1.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring{
		messages: make([]*model.ChatMessage, 0, capacity),
		capacity: capacity,
	}
}

// Append adds a message to the transcript, discarding the oldest message
// when the transcript is at capacity.
func (r *Ring) Append(msg *model.ChatMessage) {
	if msg == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.messages) == r.capacity {
		copy(r.messages, r.messages[1:])
		r.messages[len(r.messages)-1] = msg
		return
	}
	r.messages = append(r.messages, msg)
}

// Tail returns a copy of the transcript in insertion order. The returned
// slice is safe to use without holding the lock.
func (r *Ring) Tail() []*model.ChatMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.messages) == 0 {
		return nil
	}

	result := make([]*model.ChatMessage, len(r.messages))
	copy(result, r.messages)
	return result
}

// Clear removes all messages from the transcript.
func (r *Ring) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages = r.messages[:0]
}

// Len returns the current number of messages in the transcript.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.messages)
}

// Cap returns the capacity of the transcript.
func (r *Ring) Cap() int {
	return r.capacity
}
