// Package sink persists emitted half-move rows. Sinks are batch-oriented:
// the parser hands over one ordered batch per finalized game, tagged with
// the game's time control, and sinks decide buffering and file routing.
package sink

import (
	"context"
	"sync"

	"github.com/plyforge/movesheet/pkg/pgn"
)

// Batch is one recorded WriteBatch call.
type Batch struct {
	TimeControl string
	Rows        []pgn.Row
}

// Stub is a test sink that accepts batches without persisting.
// Tracks writes for test assertions.
type Stub struct {
	mu sync.Mutex

	// Batches stores all written batches in arrival order.
	Batches []Batch
	// Flushes is the number of Flush calls.
	Flushes int
	// Closed indicates whether Close was called.
	Closed bool

	// ErrOnWrite, if non-nil, is returned by WriteBatch.
	ErrOnWrite error
}

func NewStub() *Stub {
	return &Stub{}
}

// WriteBatch records the batch without persisting.
func (s *Stub) WriteBatch(_ context.Context, timeControl string, rows []pgn.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ErrOnWrite != nil {
		return s.ErrOnWrite
	}

	s.Batches = append(s.Batches, Batch{TimeControl: timeControl, Rows: rows})
	return nil
}

// Flush counts the call.
func (s *Stub) Flush(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Flushes++
	return nil
}

// Close marks the sink as closed.
func (s *Stub) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Closed = true
	return nil
}

// Rows returns all recorded rows across batches, in order.
func (s *Stub) Rows() []pgn.Row {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []pgn.Row
	for _, b := range s.Batches {
		rows = append(rows, b.Rows...)
	}
	return rows
}

var _ pgn.RowSink = (*Stub)(nil)
