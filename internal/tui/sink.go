package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/mvu/internal/ledger"
)

// SnapshotMsg carries a rendered model into the bubbletea loop.
type SnapshotMsg struct {
	Model *ledger.Model
}

// Sink is the program's view: it supplies the init args and forwards every
// render to an attached tea.Program. Renders before Attach are dropped.
type Sink struct {
	Args ledger.Args

	mu   sync.Mutex
	prog *tea.Program
}

func (s *Sink) Attach(p *tea.Program) {
	s.mu.Lock()
	s.prog = p
	s.mu.Unlock()
}

func (s *Sink) InitArgs() ledger.Args { return s.Args }

func (s *Sink) Render(ctx context.Context, m *ledger.Model) error {
	s.mu.Lock()
	p := s.prog
	s.mu.Unlock()
	if p == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p.Send(SnapshotMsg{Model: m})
	return nil
}
