// Package render holds the ports.Renderer adapters: an in-memory snapshot for
// the HTTP view endpoint and a lipgloss terminal renderer for the CLI.
package render

import (
	"context"
	"sync/atomic"

	"github.com/jsamuelsen/verse-service/internal/domain"
)

// Snapshot keeps the most recent view. Safe for concurrent use.
type Snapshot struct {
	latest  atomic.Pointer[domain.View]
	renders atomic.Int64
}

// NewSnapshot creates an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{}
}

// Render stores view as the latest one.
func (s *Snapshot) Render(_ context.Context, view *domain.View) error {
	s.latest.Store(view)
	s.renders.Add(1)

	return nil
}

// Latest returns the last rendered view, or nil if nothing was rendered.
func (s *Snapshot) Latest() *domain.View {
	return s.latest.Load()
}

// Renders counts the views received.
func (s *Snapshot) Renders() int64 {
	return s.renders.Load()
}
