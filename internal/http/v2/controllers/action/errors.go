package action

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	core "github.com/dropDatabas3/actionlink/internal/action"
	dto "github.com/dropDatabas3/actionlink/internal/http/v2/dto/action"
	httperrors "github.com/dropDatabas3/actionlink/internal/http/v2/errors"
	"github.com/dropDatabas3/actionlink/internal/http/v2/helpers"
	svc "github.com/dropDatabas3/actionlink/internal/http/v2/services/action"
	"github.com/dropDatabas3/actionlink/internal/observability/logger"
	"github.com/dropDatabas3/actionlink/internal/provider"
)

// handleServiceError mapea errores del service a respuestas HTTP.
// Los outcomes de error NO pasan por acá: son respuestas 200.
func handleServiceError(w http.ResponseWriter, err error, log *zap.Logger) {
	switch {
	case errors.Is(err, svc.ErrFlowNotFound):
		httperrors.WriteError(w, httperrors.ErrFlowNotFound)
	case errors.Is(err, svc.ErrWrongFlow):
		httperrors.WriteError(w, httperrors.ErrSubmissionRejected.WithDetail("operation does not apply to this flow"))
	case errors.Is(err, core.ErrSubmissionRejected):
		httperrors.WriteError(w, httperrors.ErrSubmissionRejected)
	case errors.Is(err, svc.ErrNoContext):
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("browsing context cookie required"))
	case errors.Is(err, svc.ErrContinueNotAllowed):
		httperrors.WriteError(w, httperrors.ErrContinueTargetNotAllowed)
	case errors.Is(err, core.ErrInvalidEmail):
		httperrors.WriteError(w, httperrors.ErrInvalidEmail)
	case errors.Is(err, provider.ErrUnsupported):
		httperrors.WriteError(w, httperrors.ErrNotImplemented)
	case errors.Is(err, svc.ErrProviderFailed):
		log.Warn("provider failure", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrProviderUnavailable)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		log.Warn("request cancelled", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable)
	default:
		log.Error("unexpected action error", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
	}
}

// writeResult escribe el outcome y, si hubo sign-in, la cookie de sesión.
func writeResult(w http.ResponseWriter, res *dto.FlowResult, cookie *SessionCookie) {
	if cookie != nil && res.Session != nil && res.Session.Token != "" {
		ttl := cookie.TTL
		if !res.Session.ExpiresAt.IsZero() {
			ttl = time.Until(res.Session.ExpiresAt)
		}
		helpers.SetCookie(w, cookie.Name, res.Session.Token, ttl, cookie.Options)
	}
	helpers.WriteJSON(w, http.StatusOK, res.Response)
}
