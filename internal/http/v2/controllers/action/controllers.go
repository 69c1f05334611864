// Package action contiene los controllers de links de acción V2.
package action

import (
	"time"

	"github.com/dropDatabas3/actionlink/internal/http/v2/helpers"
	svc "github.com/dropDatabas3/actionlink/internal/http/v2/services/action"
)

// SessionCookie configura la cookie que se emite al completar un sign-in.
type SessionCookie struct {
	Name    string
	TTL     time.Duration // fallback si la sesión no trae vencimiento
	Options helpers.CookieOptions
}

// Controllers agrupa todos los controllers del dominio.
type Controllers struct {
	Action *ActionController
	SignIn *SignInController
}

// NewControllers crea el agregador de controllers.
func NewControllers(s svc.Services, cookie SessionCookie) *Controllers {
	if cookie.Name == "" {
		cookie.Name = "al_session"
	}
	return &Controllers{
		Action: NewActionController(s.Action, cookie),
		SignIn: NewSignInController(s.Action, cookie),
	}
}
