// Package audit registra eventos de seguridad (verificaciones, resets, ingresos)
// en un logger dedicado, separado del log de requests.
package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/actionlink/internal/observability/logger"
)

// Eventos emitidos.
const (
	EventEmailVerified      = "email_verified"
	EventPasswordReset      = "password_reset"
	EventSignInCompleted    = "signin_completed"
	EventSignInDeclined     = "signin_declined"
	EventSignInLinkIssued   = "signin_link_issued"
	EventResetLinkRequested = "reset_link_requested"
	EventVerifyLinkResent   = "verify_link_resent"
)

// Log escribe un evento de auditoría con el logger del contexto (request_id, context_id).
// Para la cuenta afectada usar logger.Email (enmascarado).
func Log(ctx context.Context, event string, fields ...zap.Field) {
	base := []zap.Field{
		zap.String("event", event),
		zap.String("ts", time.Now().UTC().Format(time.RFC3339Nano)),
	}
	logger.From(ctx).Named("audit").Info("audit", append(base, fields...)...)
}
