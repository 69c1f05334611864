package helpers

import (
	"net/http"
	"time"
)

// CookieOptions son los atributos comunes a las cookies que emite el servicio.
type CookieOptions struct {
	Domain string
	Secure bool
}

// SetCookie escribe una cookie HttpOnly + SameSite=Lax.
// ttl <= 0 genera una cookie de sesión del navegador.
func SetCookie(w http.ResponseWriter, name, value string, ttl time.Duration, o CookieOptions) {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   o.Domain,
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl > 0 {
		c.Expires = time.Now().Add(ttl)
		c.MaxAge = int(ttl.Seconds())
	}
	http.SetCookie(w, c)
}
