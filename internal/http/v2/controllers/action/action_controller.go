package action

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	dto "github.com/dropDatabas3/actionlink/internal/http/v2/dto/action"
	httperrors "github.com/dropDatabas3/actionlink/internal/http/v2/errors"
	"github.com/dropDatabas3/actionlink/internal/http/v2/helpers"
	mw "github.com/dropDatabas3/actionlink/internal/http/v2/middlewares"
	svc "github.com/dropDatabas3/actionlink/internal/http/v2/services/action"
	"github.com/dropDatabas3/actionlink/internal/observability/logger"
)

// ActionController maneja el punto de entrada de los links y el reset de password.
// Un link de sign-in abierto acá también puede terminar en sesión.
type ActionController struct {
	service svc.Service
	cookie  SessionCookie
}

// NewActionController crea el controller.
func NewActionController(service svc.Service, cookie SessionCookie) *ActionController {
	return &ActionController{service: service, cookie: cookie}
}

// Resolve maneja GET /v2/auth/action?mode=...&oobCode=...&continueUrl=...
func (c *ActionController) Resolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ActionController.Resolve"))

	res, err := c.service.Resolve(ctx, mw.GetContextID(ctx), r.URL.Query())
	if err != nil {
		handleServiceError(w, err, log)
		return
	}
	log.Debug("action resolved", logger.FlowID(res.Response.FlowID), logger.State(string(res.Response.State)))
	writeResult(w, res, &c.cookie)
}

// GetFlow maneja GET /v2/auth/action/flows/{id}
func (c *ActionController) GetFlow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ActionController.GetFlow"))

	res, err := c.service.Get(ctx, mw.GetContextID(ctx), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err, log)
		return
	}
	writeResult(w, res, nil)
}

// SubmitPassword maneja POST /v2/auth/action/flows/{id}/password
func (c *ActionController) SubmitPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ActionController.SubmitPassword"))

	var req dto.SubmitPasswordRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	res, err := c.service.SubmitPassword(ctx, mw.GetContextID(ctx), id, req.Password, req.ConfirmPassword)
	if err != nil {
		handleServiceError(w, err, log.With(logger.FlowID(id)))
		return
	}
	writeResult(w, res, nil)
}

// SendPasswordReset maneja POST /v2/auth/password-reset/send.
// Siempre 202 para emails válidos: no revela si la cuenta existe.
func (c *ActionController) SendPasswordReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ActionController.SendPasswordReset"))

	var req dto.PasswordResetSendRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("email"))
		return
	}

	if err := c.service.SendPasswordReset(ctx, req.Email, req.ContinueTarget); err != nil {
		handleServiceError(w, err, log)
		return
	}
	helpers.WriteJSON(w, http.StatusAccepted, dto.AcceptedResponse{Status: "accepted"})
}

// SendVerification maneja POST /v2/auth/verify-email/send.
func (c *ActionController) SendVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ActionController.SendVerification"))

	var req dto.VerificationSendRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("email"))
		return
	}

	if err := c.service.SendVerification(ctx, req.Email, req.ContinueTarget); err != nil {
		handleServiceError(w, err, log)
		return
	}
	helpers.WriteJSON(w, http.StatusAccepted, dto.AcceptedResponse{Status: "accepted"})
}
