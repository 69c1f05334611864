// Package action contiene el service que mantiene vivos los flows de links de acción
// entre requests HTTP.
package action

import (
	"time"

	core "github.com/dropDatabas3/actionlink/internal/action"
	"github.com/dropDatabas3/actionlink/internal/pending"
)

// Deps contiene las dependencias para crear los services de acción.
type Deps struct {
	Client   core.TokenClient
	Pending  pending.Backend
	FlowTTL  time.Duration
	Continue ContinuePolicy
}

// Services agrupa los services del dominio.
type Services struct {
	Action Service
}

// NewServices crea el agregador de services.
func NewServices(d Deps) Services {
	return Services{Action: NewService(d)}
}
