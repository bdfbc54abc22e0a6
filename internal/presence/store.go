// Package presence provides the live participant table for one project's
// collaboration session.
package presence

import (
	"sync"
	"time"

	"github.com/fside/backend/internal/model"
)

// colorPool is the palette assigned to participants. Colors are preferred
// in order, skipping colors already held by an online participant.
var colorPool = []string{
	"#00d4ff",
	"#39ff14",
	"#ff6ec7",
	"#ffb300",
	"#b388ff",
	"#ff5252",
	"#64ffda",
	"#ffd740",
}

// Store is the authoritative in-memory participant table for one project.
// It is owned exclusively by the project's hub; all mutations arrive through
// the hub's serialized critical section.
type Store struct {
	mu           sync.RWMutex
	participants map[string]*model.Participant
	joinOrder    []string
	lastSeq      map[string]uint64
}

// NewStore creates an empty presence store.
func NewStore() *Store {
	return &Store{
		participants: make(map[string]*model.Participant),
		lastSeq:      make(map[string]uint64),
	}
}

// Join creates or refreshes the record for a participant and returns a copy
// of it. A join for an already-present id is a refresh (reconnect semantics):
// the display name and email are updated, but color, join order and cursor
// state are preserved.
func (s *Store) Join(participantID, displayName, email string) *model.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.participants[participantID]; ok {
		existing.DisplayName = displayName
		existing.Email = email
		existing.Status = model.ParticipantStatusOnline
		return existing.Clone()
	}

	p := &model.Participant{
		ID:          participantID,
		DisplayName: displayName,
		Email:       email,
		Color:       s.pickColorLocked(),
		Status:      model.ParticipantStatusOnline,
		JoinedAt:    time.Now(),
	}
	s.participants[participantID] = p
	s.joinOrder = append(s.joinOrder, participantID)

	return p.Clone()
}

// Leave removes the record for a participant. It returns whether a record
// existed; a leave for an absent id is a no-op, not an error, because
// connection teardown races are expected.
func (s *Store) Leave(participantID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.participants[participantID]; !ok {
		return false
	}

	delete(s.participants, participantID)
	delete(s.lastSeq, participantID)
	for i, id := range s.joinOrder {
		if id == participantID {
			s.joinOrder = append(s.joinOrder[:i], s.joinOrder[i+1:]...)
			break
		}
	}
	return true
}

// UpdateCursor applies a cursor update for a participant. Updates whose
// sequence number is not greater than the last applied one are silently
// ignored and return nil; out-of-order arrival is not a fault. On success
// it returns a copy of the updated participant.
func (s *Store) UpdateCursor(participantID, file string, line, column int, seq uint64) *model.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[participantID]
	if !ok {
		return nil
	}

	if seq <= s.lastSeq[participantID] {
		return nil
	}
	s.lastSeq[participantID] = seq

	p.CurrentFile = file
	p.Cursor = &model.CursorPosition{Line: line, Column: column}
	return p.Clone()
}

// SetFile updates the file a participant is viewing without moving the cursor.
func (s *Store) SetFile(participantID, file string) *model.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[participantID]
	if !ok {
		return nil
	}
	p.CurrentFile = file
	return p.Clone()
}

// Snapshot returns copies of the current participants in join order. This is
// what a newly attached participant receives to replay full presence state.
func (s *Store) Snapshot() []*model.Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*model.Participant, 0, len(s.joinOrder))
	for _, id := range s.joinOrder {
		if p, ok := s.participants[id]; ok {
			result = append(result, p.Clone())
		}
	}
	return result
}

// Count returns the number of live participants.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.participants)
}

// Contains reports whether a participant is currently present.
func (s *Store) Contains(participantID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.participants[participantID]
	return ok
}

// pickColorLocked returns the first pool color not held by a live participant,
// falling back to round-robin over the pool when all colors are taken.
func (s *Store) pickColorLocked() string {
	inUse := make(map[string]bool, len(s.participants))
	for _, p := range s.participants {
		inUse[p.Color] = true
	}

	for _, c := range colorPool {
		if !inUse[c] {
			return c
		}
	}
	return colorPool[len(s.participants)%len(colorPool)]
}
