package action

import (
	"context"
	"time"
)

// TokenInfo es lo que el proveedor informa de un token sin consumirlo.
type TokenInfo struct {
	// Operation es la acción para la que fue emitido el token.
	// Vacío si el proveedor no lo informa.
	Operation Mode
	Email     string
}

// Session es el resultado de un sign-in consumido.
type Session struct {
	Token        string
	RefreshToken string
	Email        string
	ExpiresAt    time.Time
}

// TokenClient abstrae las operaciones del proveedor de identidad sobre tokens de acción.
// Cada operación es una única llamada, sin reintentos. Los fallos se devuelven envolviendo
// los errores de este paquete (ErrInvalidToken, ErrExpiredToken, ...).
type TokenClient interface {
	// Inspect chequea validez y tipo del token sin consumirlo.
	Inspect(ctx context.Context, token string) (TokenInfo, error)
	// ConsumeForVerification aplica la verificación de email.
	ConsumeForVerification(ctx context.Context, token string) error
	// ResolveAccountEmail devuelve el email de la cuenta ligada a un token de reset, sin consumirlo.
	ResolveAccountEmail(ctx context.Context, token string) (string, error)
	// ConsumeForPasswordReset aplica la nueva credencial.
	ConsumeForPasswordReset(ctx context.Context, token, newCredential string) error
	// IssueSignInLink envía un magic link al email; el proveedor agrega el token a continueTarget.
	IssueSignInLink(ctx context.Context, email, continueTarget string) error
	// IsSignInLink indica si la URL tiene la forma de un link de sign-in (no valida el token).
	IsSignInLink(link string) bool
	// ConsumeForSignIn canjea el token por una sesión; email debe coincidir con el del link.
	ConsumeForSignIn(ctx context.Context, token, email string) (Session, error)
}

// PendingEmailStore guarda el email "en vuelo" de un pedido de magic link
// para el browsing context que lo pidió. La ausencia no es un error: Get devuelve ok=false.
type PendingEmailStore interface {
	Get(ctx context.Context) (email string, ok bool, err error)
	Set(ctx context.Context, email string) error
	Clear(ctx context.Context) error
}
