package action

import (
	"context"
	"sync"

	"github.com/dropDatabas3/actionlink/internal/observability/logger"
)

// Flow es la forma común que el Router expone a la capa de presentación.
type Flow interface {
	Start(ctx context.Context) (Outcome, error)
	Outcome() Outcome
}

// machine guarda el Outcome actual de un flow.
// Las llamadas al proveedor se hacen fuera del lock; el estado Busy las serializa.
type machine struct {
	name string
	mu   sync.Mutex
	out  Outcome
}

func (m *machine) init(name string) {
	m.name = name
	m.out = Outcome{State: StateIdle}
}

// Outcome devuelve una copia del outcome actual.
func (m *machine) Outcome() Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.out
}

// advance pasa de from a next si el estado actual es from.
func (m *machine) advance(ctx context.Context, from State, next Outcome) (Outcome, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.out.State != from {
		return m.out, false
	}
	m.setLocked(ctx, next)
	return m.out, true
}

func (m *machine) set(ctx context.Context, next Outcome) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(ctx, next)
	return m.out
}

func (m *machine) setLocked(ctx context.Context, next Outcome) {
	prev := m.out.State
	m.out = next

	log := logger.From(ctx).With(
		logger.Component("action"),
		logger.String("flow", m.name),
		logger.String("from", string(prev)),
		logger.State(string(next.State)),
	)
	switch next.State {
	case StateSuccess:
		log.Info("flow succeeded")
	case StateError:
		log.Warn("flow failed", logger.Kind(string(next.Kind)))
	default:
		log.Debug("flow transition")
	}
}
