package middlewares

import "context"

// =================================================================================
// CONTEXT KEYS
// =================================================================================

type ctxKey string

const (
	ctxRequestIDKey ctxKey = "request_id"
	// ctxBrowsingContextKey guarda el id del browsing context (cookie al_ctx)
	ctxBrowsingContextKey ctxKey = "browsing_context"
)

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// WithContextID inyecta el browsing context. Lo usan el middleware y los tests.
func WithContextID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxBrowsingContextKey, id)
}

// GetRequestID obtiene el request ID del contexto.
// Retorna cadena vacía si no hay request ID.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxRequestIDKey).(string); ok {
		return v
	}
	return ""
}

// GetContextID obtiene el browsing context del request.
// Retorna cadena vacía si el middleware no se aplicó.
func GetContextID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxBrowsingContextKey).(string); ok {
		return v
	}
	return ""
}
