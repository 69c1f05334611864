package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/actionlink/internal/http/v2/middlewares"
)

// registerActionRoutes registra las rutas de links de acción.
//
//	GET  /v2/auth/action                          punto de entrada de los links
//	GET  /v2/auth/action/flows/{id}
//	POST /v2/auth/action/flows/{id}/password
//	POST /v2/auth/password-reset/send
//	POST /v2/auth/verify-email/send
//	POST /v2/auth/signin-link
//	GET  /v2/auth/signin-link/complete            (también POST)
//	POST /v2/auth/signin-link/flows/{id}/email
func registerActionRoutes(r chi.Router, d Deps) {
	if d.Action == nil {
		return
	}
	a, s := d.Action.Action, d.Action.SignIn

	r.Route("/v2/auth", func(r chi.Router) {
		r.Use(
			mw.WithCORS(d.CORSAllowedOrigins),
			mw.WithSecurityHeaders(),
			mw.WithNoStore(),
			mw.WithBrowsingContext(d.BrowsingContext),
			mw.WithLogging(),
		)

		r.Get("/action", a.Resolve)
		r.Get("/action/flows/{id}", a.GetFlow)
		r.Post("/action/flows/{id}/password", a.SubmitPassword)

		limited := r.With(mw.WithRateLimit(d.LinkLimiter, mw.IPPathRateKey))
		limited.Post("/signin-link", s.RequestLink)
		limited.Post("/password-reset/send", a.SendPasswordReset)
		limited.Post("/verify-email/send", a.SendVerification)

		r.Get("/signin-link/complete", s.Complete)
		r.Post("/signin-link/complete", s.Complete)
		r.Post("/signin-link/flows/{id}/email", s.SubmitEmail)
	})
}
