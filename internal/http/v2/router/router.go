// Package router arma el árbol de rutas V2 sobre chi.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	actionctrl "github.com/dropDatabas3/actionlink/internal/http/v2/controllers/action"
	healthctrl "github.com/dropDatabas3/actionlink/internal/http/v2/controllers/health"
	httperrors "github.com/dropDatabas3/actionlink/internal/http/v2/errors"
	mw "github.com/dropDatabas3/actionlink/internal/http/v2/middlewares"
	"github.com/dropDatabas3/actionlink/internal/metrics"
	"github.com/dropDatabas3/actionlink/internal/rate"
)

// Deps contiene todas las dependencias del router.
type Deps struct {
	Action  *actionctrl.Controllers
	Health  *healthctrl.HealthController
	Metrics http.Handler // nil = sin /metrics

	BrowsingContext    mw.BrowsingContextConfig
	LinkLimiter        rate.Limiter // nil = sin rate limit en pedidos de links
	CORSAllowedOrigins []string
}

// New devuelve el handler raíz.
func New(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(mw.WithRecover(), mw.WithRequestID(), metrics.WithMetrics)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	registerHealthRoutes(r, d)
	registerActionRoutes(r, d)
	return r
}
