package presence

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// For any sequence of join/leave operations on one store, the store never
// contains two live records for the same participant id, and the snapshot
// reflects exactly the set of participants that joined without leaving.
func TestPresenceUniquenessProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("no duplicate live records for any join/leave sequence", prop.ForAll(
		func(participants []int, joins []bool) bool {
			s := NewStore()

			n := len(participants)
			if len(joins) < n {
				n = len(joins)
			}

			alive := make(map[string]bool)
			for i := 0; i < n; i++ {
				id := string(rune('a' + participants[i]%6))
				if joins[i] {
					s.Join(id, "user "+id, id+"@example.com")
					alive[id] = true
				} else {
					s.Leave(id)
					delete(alive, id)
				}
			}

			snapshot := s.Snapshot()
			if len(snapshot) != len(alive) {
				return false
			}

			seen := make(map[string]bool)
			for _, p := range snapshot {
				if seen[p.ID] {
					return false
				}
				seen[p.ID] = true
				if !alive[p.ID] {
					return false
				}
			}

			return true
		},
		gen.SliceOf(gen.IntRange(0, 5)),
		gen.SliceOf(gen.Bool()),
	))

	properties.Property("repeated joins never grow the store", prop.ForAll(
		func(repeats int) bool {
			if repeats < 1 || repeats > 50 {
				repeats = 1
			}

			s := NewStore()
			for i := 0; i < repeats; i++ {
				s.Join("user-1", "John", "john@example.com")
			}

			return s.Count() == 1
		},
		gen.IntRange(1, 50),
	))

	properties.TestingRun(t)
}

// For any set of cursor updates, only updates with a strictly greater
// sequence number than the last applied one take effect.
func TestStaleCursorRejectionProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("stored cursor reflects the highest applied seq", prop.ForAll(
		func(seqs []uint64) bool {
			if len(seqs) == 0 {
				return true
			}

			s := NewStore()
			s.Join("user-1", "John", "john@example.com")

			var highest uint64
			var wantLine int
			for i, seq := range seqs {
				if seq == 0 {
					continue
				}
				applied := s.UpdateCursor("user-1", "main.go", i, 0, seq)
				if seq > highest {
					if applied == nil {
						return false
					}
					highest = seq
					wantLine = i
				} else if applied != nil {
					return false
				}
			}

			if highest == 0 {
				return true
			}

			snapshot := s.Snapshot()
			return snapshot[0].Cursor != nil && snapshot[0].Cursor.Line == wantLine
		},
		gen.SliceOf(gen.UInt64Range(0, 20)),
	))

	properties.TestingRun(t)
}
