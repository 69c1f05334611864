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

// SignInController maneja el pedido y la completion de magic links.
type SignInController struct {
	service svc.Service
	cookie  SessionCookie
}

// NewSignInController crea el controller.
func NewSignInController(service svc.Service, cookie SessionCookie) *SignInController {
	return &SignInController{service: service, cookie: cookie}
}

// RequestLink maneja POST /v2/auth/signin-link
func (c *SignInController) RequestLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SignInController.RequestLink"))

	var req dto.SignInLinkRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("email"))
		return
	}

	if err := c.service.RequestSignInLink(ctx, mw.GetContextID(ctx), req.Email, req.ContinueTarget); err != nil {
		handleServiceError(w, err, log)
		return
	}
	helpers.WriteJSON(w, http.StatusAccepted, dto.AcceptedResponse{Status: "sent"})
}

// Complete maneja la completion de un magic link.
//
//	GET  /v2/auth/signin-link/complete?mode=signIn&oobCode=...   (el link apunta acá)
//	GET  /v2/auth/signin-link/complete?link=<url>
//	POST /v2/auth/signin-link/complete {"link": "<url>"}
func (c *SignInController) Complete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SignInController.Complete"))

	var link string
	if r.Method == http.MethodPost {
		var req dto.CompleteSignInRequest
		if !helpers.ReadJSON(w, r, &req) {
			return
		}
		link = req.Link
	} else if link = r.URL.Query().Get("link"); link == "" {
		link = r.URL.RequestURI()
	}
	if strings.TrimSpace(link) == "" {
		httperrors.WriteError(w, httperrors.ErrValidationFailed.WithDetail("link is required"))
		return
	}

	res, err := c.service.CompleteSignIn(ctx, mw.GetContextID(ctx), link)
	if err != nil {
		handleServiceError(w, err, log)
		return
	}
	writeResult(w, res, &c.cookie)
}

// SubmitEmail maneja POST /v2/auth/signin-link/flows/{id}/email
func (c *SignInController) SubmitEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SignInController.SubmitEmail"))

	var req dto.SubmitEmailRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	res, err := c.service.SubmitSignInEmail(ctx, mw.GetContextID(ctx), id, req.Email, req.Decline)
	if err != nil {
		handleServiceError(w, err, log.With(logger.FlowID(id)))
		return
	}
	writeResult(w, res, &c.cookie)
}
