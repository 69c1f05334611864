// Package controllers agrupa los controllers HTTP V2 por dominio.
//
//	svcs := services.New(deps)
//	ctrls := controllers.New(svcs, cookie)
//	h := router.New(router.Deps{Action: ctrls.Action, Health: ctrls.Health, ...})
package controllers

import (
	"github.com/dropDatabas3/actionlink/internal/http/v2/controllers/action"
	"github.com/dropDatabas3/actionlink/internal/http/v2/controllers/health"
	"github.com/dropDatabas3/actionlink/internal/http/v2/services"
)

// Controllers agrupa los controllers por dominio.
type Controllers struct {
	Action *action.Controllers
	Health *health.HealthController
}

// New crea todos los controllers inyectando los services.
func New(s *services.Services, session action.SessionCookie) *Controllers {
	return &Controllers{
		Action: action.NewControllers(s.Action, session),
		Health: health.NewHealthController(s.Health),
	}
}
