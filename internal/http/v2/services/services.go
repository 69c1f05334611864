// Package services agrupa los services HTTP V2 por dominio.
// Es el composition root de services: cada dominio vive en services/{dominio}/
// con su propio Deps/Services/NewServices, y se agrega acá.
//
//	svcs := services.New(services.Deps{Action: ..., Health: ...})
//	ctrls := controllers.New(svcs, cookie)
package services

import (
	"github.com/dropDatabas3/actionlink/internal/http/v2/services/action"
	"github.com/dropDatabas3/actionlink/internal/http/v2/services/health"
)

// Deps contiene las dependencias de cada dominio.
type Deps struct {
	Action action.Deps
	Health health.Deps
}

// Services agrupa los sub-services por dominio.
type Services struct {
	Action action.Services
	Health health.HealthService
}

// New crea todos los services.
func New(d Deps) *Services {
	return &Services{
		Action: action.NewServices(d.Action),
		Health: health.NewHealthService(d.Health),
	}
}
