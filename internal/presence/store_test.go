package presence

import (
	"testing"

	"github.com/fside/backend/internal/model"
)

func TestJoinAndSnapshotOrder(t *testing.T) {
	s := NewStore()

	s.Join("user-1", "John Doe", "john@example.com")
	s.Join("user-2", "Jane Smith", "jane@example.com")
	s.Join("user-3", "Sam Lee", "sam@example.com")

	snapshot := s.Snapshot()
	if len(snapshot) != 3 {
		t.Fatalf("expected 3 participants, got %d", len(snapshot))
	}

	expected := []string{"user-1", "user-2", "user-3"}
	for i, id := range expected {
		if snapshot[i].ID != id {
			t.Errorf("snapshot[%d]: expected %s, got %s", i, id, snapshot[i].ID)
		}
	}

	for _, p := range snapshot {
		if p.Status != model.ParticipantStatusOnline {
			t.Errorf("participant %s: expected online status, got %s", p.ID, p.Status)
		}
	}
}

func TestJoinAssignsDistinctColors(t *testing.T) {
	s := NewStore()

	a := s.Join("user-1", "John", "john@example.com")
	b := s.Join("user-2", "Jane", "jane@example.com")

	if a.Color == "" || b.Color == "" {
		t.Fatal("expected colors to be assigned")
	}
	if a.Color == b.Color {
		t.Errorf("expected distinct colors, both got %s", a.Color)
	}
}

func TestJoinIsIdempotentOnReconnect(t *testing.T) {
	s := NewStore()

	first := s.Join("user-1", "John", "john@example.com")
	s.UpdateCursor("user-1", "src/App.tsx", 15, 8, 1)

	// Reconnect with an updated display name
	second := s.Join("user-1", "Johnny", "john@example.com")

	if s.Count() != 1 {
		t.Fatalf("expected 1 participant after reconnect, got %d", s.Count())
	}
	if second.Color != first.Color {
		t.Errorf("reconnect changed color: %s -> %s", first.Color, second.Color)
	}
	if second.DisplayName != "Johnny" {
		t.Errorf("expected refreshed display name, got %s", second.DisplayName)
	}
	if second.Cursor == nil || second.Cursor.Line != 15 {
		t.Error("reconnect reset cursor state")
	}
}

func TestLeave(t *testing.T) {
	s := NewStore()
	s.Join("user-1", "John", "john@example.com")

	if !s.Leave("user-1") {
		t.Error("expected leave of present participant to report true")
	}
	if s.Count() != 0 {
		t.Errorf("expected empty store, got %d participants", s.Count())
	}

	// Leaving an absent participant is a no-op, not an error
	if s.Leave("user-1") {
		t.Error("expected leave of absent participant to report false")
	}
	if s.Leave("never-joined") {
		t.Error("expected leave of unknown participant to report false")
	}
}

func TestLeaveRemovesFromSnapshotOrder(t *testing.T) {
	s := NewStore()
	s.Join("user-1", "John", "john@example.com")
	s.Join("user-2", "Jane", "jane@example.com")
	s.Join("user-3", "Sam", "sam@example.com")

	s.Leave("user-2")

	snapshot := s.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(snapshot))
	}
	if snapshot[0].ID != "user-1" || snapshot[1].ID != "user-3" {
		t.Errorf("unexpected snapshot order: %s, %s", snapshot[0].ID, snapshot[1].ID)
	}
}

func TestUpdateCursorRejectsStaleSeq(t *testing.T) {
	s := NewStore()
	s.Join("user-1", "John", "john@example.com")

	// Arrival order 5, 3, 7: the update with seq 3 must not win
	if p := s.UpdateCursor("user-1", "a.go", 5, 5, 5); p == nil {
		t.Fatal("expected seq 5 update to apply")
	}
	if p := s.UpdateCursor("user-1", "b.go", 3, 3, 3); p != nil {
		t.Error("expected seq 3 update to be ignored")
	}
	if p := s.UpdateCursor("user-1", "c.go", 7, 7, 7); p == nil {
		t.Fatal("expected seq 7 update to apply")
	}

	snapshot := s.Snapshot()
	got := snapshot[0]
	if got.CurrentFile != "c.go" || got.Cursor.Line != 7 || got.Cursor.Column != 7 {
		t.Errorf("expected final state from seq 7, got file=%s line=%d col=%d",
			got.CurrentFile, got.Cursor.Line, got.Cursor.Column)
	}
}

func TestUpdateCursorUnknownParticipant(t *testing.T) {
	s := NewStore()

	if p := s.UpdateCursor("ghost", "a.go", 1, 1, 1); p != nil {
		t.Error("expected update for unknown participant to be ignored")
	}
}

func TestLeaveResetsSeqGate(t *testing.T) {
	s := NewStore()
	s.Join("user-1", "John", "john@example.com")
	s.UpdateCursor("user-1", "a.go", 1, 1, 10)

	s.Leave("user-1")
	s.Join("user-1", "John", "john@example.com")

	// A fresh session starts a fresh seq gate
	if p := s.UpdateCursor("user-1", "a.go", 2, 2, 1); p == nil {
		t.Error("expected update after rejoin to apply")
	}
}

func TestSnapshotReturnsCopies(t *testing.T) {
	s := NewStore()
	s.Join("user-1", "John", "john@example.com")

	snapshot := s.Snapshot()
	snapshot[0].DisplayName = "mutated"
	snapshot[0].Cursor = &model.CursorPosition{Line: 99, Column: 99}

	fresh := s.Snapshot()
	if fresh[0].DisplayName != "John" {
		t.Error("snapshot mutation leaked into store")
	}
}
