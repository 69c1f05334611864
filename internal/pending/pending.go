// Package pending implementa el PendingEmailStore por browsing context.
//
// La key es fija por contexto ("<contextID>:pendingSignInEmail") y no expira:
// un pedido nuevo pisa al anterior y uno nunca completado queda huérfano.
package pending

import (
	"context"
	"errors"
	"strings"

	"github.com/dropDatabas3/actionlink/internal/action"
	"github.com/dropDatabas3/actionlink/internal/metrics"
)

// KeySuffix es la key bien conocida dentro de un browsing context.
const KeySuffix = "pendingSignInEmail"

// ErrNoContext se devuelve cuando se usa un store sin browsing context.
var ErrNoContext = errors.New("pending: empty browsing context id")

// Backend persiste el email pendiente de cada browsing context.
type Backend interface {
	Load(ctx context.Context, contextID string) (email string, ok bool, err error)
	Save(ctx context.Context, contextID, email string) error
	Remove(ctx context.Context, contextID string) error
	Ping(ctx context.Context) error
	Name() string
}

// Key arma la key de storage para un browsing context.
func Key(contextID string) string {
	return contextID + ":" + KeySuffix
}

// ForContext devuelve el PendingEmailStore del browsing context dado.
func ForContext(b Backend, contextID string) action.PendingEmailStore {
	return &scoped{backend: b, contextID: strings.TrimSpace(contextID)}
}

type scoped struct {
	backend   Backend
	contextID string
}

func (s *scoped) Get(ctx context.Context) (string, bool, error) {
	if s.contextID == "" {
		return "", false, nil
	}
	email, ok, err := s.backend.Load(ctx, s.contextID)
	observe(s.backend, "get", err)
	return email, ok, err
}

func (s *scoped) Set(ctx context.Context, email string) error {
	if s.contextID == "" {
		return ErrNoContext
	}
	err := s.backend.Save(ctx, s.contextID, email)
	observe(s.backend, "set", err)
	return err
}

func (s *scoped) Clear(ctx context.Context) error {
	if s.contextID == "" {
		return nil
	}
	err := s.backend.Remove(ctx, s.contextID)
	observe(s.backend, "clear", err)
	return err
}

func observe(b Backend, op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.ObservePendingOp(b.Name(), op, result)
}
