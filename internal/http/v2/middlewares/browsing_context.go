package middlewares

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dropDatabas3/actionlink/internal/http/v2/helpers"
)

// BrowsingContextConfig configura la cookie que identifica al navegador.
type BrowsingContextConfig struct {
	CookieName string
	Cookie     helpers.CookieOptions
}

// WithBrowsingContext asegura que cada request tenga un browsing context.
// Si la cookie falta o no es un uuid, se emite una nueva. No expira: el email
// pendiente de un magic link vive tanto como el navegador la conserve.
func WithBrowsingContext(cfg BrowsingContextConfig) Middleware {
	name := cfg.CookieName
	if name == "" {
		name = "al_ctx"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(name); err == nil {
				if u, err := uuid.Parse(c.Value); err == nil {
					id = u.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
				helpers.SetCookie(w, name, id, 0, cfg.Cookie)
			}
			next.ServeHTTP(w, r.WithContext(WithContextID(r.Context(), id)))
		})
	}
}
