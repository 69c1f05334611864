package action

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	core "github.com/dropDatabas3/actionlink/internal/action"
	"github.com/dropDatabas3/actionlink/internal/audit"
	dto "github.com/dropDatabas3/actionlink/internal/http/v2/dto/action"
	"github.com/dropDatabas3/actionlink/internal/metrics"
	"github.com/dropDatabas3/actionlink/internal/observability/logger"
	"github.com/dropDatabas3/actionlink/internal/pending"
	"github.com/dropDatabas3/actionlink/internal/provider"
	"github.com/dropDatabas3/actionlink/internal/security/token"
)

// Service expone los flows de acción sobre HTTP.
// Cada flow vive en memoria atado al browsing context que lo creó.
type Service interface {
	Resolve(ctx context.Context, contextID string, q url.Values) (*dto.FlowResult, error)
	Get(ctx context.Context, contextID, flowID string) (*dto.FlowResult, error)
	SubmitPassword(ctx context.Context, contextID, flowID, password, confirm string) (*dto.FlowResult, error)
	RequestSignInLink(ctx context.Context, contextID, email, continueTarget string) error
	CompleteSignIn(ctx context.Context, contextID, link string) (*dto.FlowResult, error)
	SubmitSignInEmail(ctx context.Context, contextID, flowID, email string, decline bool) (*dto.FlowResult, error)
	SendPasswordReset(ctx context.Context, email, continueTarget string) error
	SendVerification(ctx context.Context, email, continueTarget string) error
}

// Service errors
var (
	ErrFlowNotFound       = errors.New("flow not found")
	ErrWrongFlow          = errors.New("operation does not apply to this flow")
	ErrNoContext          = errors.New("browsing context required")
	ErrContinueNotAllowed = errors.New("continue target not allowed")
	ErrProviderFailed     = errors.New("identity provider call failed")
)

const flowSignIn = "sign_in"

type entry struct {
	contextID string
	name      string
	flow      core.Flow
}

type service struct {
	client  core.TokenClient
	router  *core.Router
	pending pending.Backend
	policy  ContinuePolicy
	ttl     time.Duration
	flows   *gocache.Cache
	sf      singleflight.Group
}

// NewService crea el Service.
func NewService(d Deps) Service {
	if d.FlowTTL <= 0 {
		d.FlowTTL = 15 * time.Minute
	}
	return &service{
		client:  d.Client,
		router:  core.NewRouter(d.Client),
		pending: d.Pending,
		policy:  d.Continue,
		ttl:     d.FlowTTL,
		flows:   gocache.New(d.FlowTTL, 2*d.FlowTTL),
	}
}

// =================================================================================
// ACTION HANDLER
// =================================================================================

func (s *service) Resolve(ctx context.Context, contextID string, q url.Values) (*dto.FlowResult, error) {
	req := core.ParseRequest(q)
	route := s.router.Route(req)
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("ActionService.Resolve"),
		logger.Mode(string(req.Mode)), logger.TokenRef(req.Token))

	switch route {
	case core.RouteSignIn:
		// Los magic links se completan por la superficie de sign-in.
		link := url.Values{}
		link.Set("mode", string(core.ModeSignIn))
		link.Set("oobCode", req.Token)
		if req.ContinueTarget != "" {
			link.Set("continueUrl", req.ContinueTarget)
		}
		return s.CompleteSignIn(ctx, contextID, "?"+link.Encode())
	case core.RouteVerifyEmail, core.RouteResetPassword:
	default:
		d := s.router.Dispatch(req)
		log.Debug("no action to run", logger.String("route", string(route)))
		return s.result(ctx, "", string(route), d.Outcome, true), nil
	}

	if contextID == "" {
		return nil, ErrNoContext
	}

	// Doble click sobre el mismo link desde el mismo navegador: un solo flow.
	key := contextID + "|" + string(req.Mode) + "|" + token.Hash(req.Token)
	// Si el primer cliente se desconecta, los demás clicks igual reciben el resultado.
	shared := context.WithoutCancel(ctx)
	v, err, collapsed := s.sf.Do(key, func() (any, error) {
		d := s.router.Dispatch(req)
		out, err := d.Flow.Start(shared)
		if err != nil {
			return nil, err
		}
		id := uuid.NewString()
		s.flows.Set(id, &entry{contextID: contextID, name: string(route), flow: d.Flow}, s.ttl)
		return s.result(shared, id, string(route), out, true), nil
	})
	if err != nil {
		log.Error("flow start failed", logger.Err(err))
		return nil, err
	}
	if collapsed {
		log.Debug("resolve collapsed with concurrent request")
	}
	res := *v.(*dto.FlowResult)
	return &res, nil
}

func (s *service) Get(ctx context.Context, contextID, flowID string) (*dto.FlowResult, error) {
	e, err := s.lookup(contextID, flowID)
	if err != nil {
		return nil, err
	}
	return s.result(ctx, flowID, e.name, e.flow.Outcome(), false), nil
}

func (s *service) SubmitPassword(ctx context.Context, contextID, flowID, password, confirm string) (*dto.FlowResult, error) {
	e, err := s.lookup(contextID, flowID)
	if err != nil {
		return nil, err
	}
	f, ok := e.flow.(*core.PasswordResetFlow)
	if !ok {
		return nil, ErrWrongFlow
	}

	out, err := f.Submit(ctx, password, confirm)
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		// El outcome ya lleva el mensaje; el flow sigue esperando input.
		logger.From(ctx).Debug("password rejected locally", logger.FlowID(flowID), logger.String("field", verr.Field))
	case err != nil:
		return nil, err
	}
	return s.result(ctx, flowID, e.name, out, true), nil
}

// =================================================================================
// MAGIC LINK
// =================================================================================

func (s *service) RequestSignInLink(ctx context.Context, contextID, email, continueTarget string) error {
	if contextID == "" {
		return ErrNoContext
	}
	if !s.policy.Allowed(continueTarget) {
		return ErrContinueNotAllowed
	}
	store := pending.ForContext(s.pending, contextID)
	err := core.RequestSignInLink(ctx, s.client, store, email, continueTarget)
	switch {
	case err == nil:
		metrics.SignInLinksRequested.WithLabelValues("issued").Inc()
		audit.Log(ctx, audit.EventSignInLinkIssued, logger.Email(email), logger.ContextID(contextID))
		return nil
	case errors.Is(err, core.ErrInvalidEmail):
		metrics.SignInLinksRequested.WithLabelValues("invalid_email").Inc()
		return err
	default:
		metrics.SignInLinksRequested.WithLabelValues("provider_error").Inc()
		return fmt.Errorf("%w: %v", ErrProviderFailed, err)
	}
}

func (s *service) CompleteSignIn(ctx context.Context, contextID, link string) (*dto.FlowResult, error) {
	if contextID == "" {
		return nil, ErrNoContext
	}
	f := core.NewSignInCompletionFlow(s.client, pending.ForContext(s.pending, contextID), link)
	out, err := f.Start(ctx)
	if err != nil {
		return nil, err
	}

	id := ""
	if !out.State.Terminal() {
		// Falta el email: el flow queda registrado esperando SubmitSignInEmail.
		id = uuid.NewString()
		s.flows.Set(id, &entry{contextID: contextID, name: flowSignIn, flow: f}, s.ttl)
	}
	res := s.result(ctx, id, flowSignIn, out, true)
	if sess, ok := f.Session(); ok {
		res.Session = &sess
	}
	return res, nil
}

func (s *service) SubmitSignInEmail(ctx context.Context, contextID, flowID, email string, decline bool) (*dto.FlowResult, error) {
	e, err := s.lookup(contextID, flowID)
	if err != nil {
		return nil, err
	}
	f, ok := e.flow.(*core.SignInCompletionFlow)
	if !ok {
		return nil, ErrWrongFlow
	}

	var out core.Outcome
	if decline {
		out, err = f.Decline(ctx)
		audit.Log(ctx, audit.EventSignInDeclined, logger.ContextID(contextID))
	} else {
		out, err = f.SubmitEmail(ctx, email)
	}
	var verr *core.ValidationError
	if err != nil && !errors.As(err, &verr) {
		return nil, err
	}

	res := s.result(ctx, flowID, e.name, out, true)
	if sess, ok := f.Session(); ok {
		res.Session = &sess
	}
	if out.State.Terminal() {
		s.flows.Delete(flowID)
	}
	return res, nil
}

// =================================================================================
// PASSWORD RESET (envío)
// =================================================================================

// SendPasswordReset pide al proveedor un link de reset. Cuentas inexistentes no
// se distinguen del éxito.
func (s *service) SendPasswordReset(ctx context.Context, email, continueTarget string) error {
	addr, err := core.NormalizeEmail(email)
	if err != nil {
		return err
	}
	if !s.policy.Allowed(continueTarget) {
		return ErrContinueNotAllowed
	}
	issuer, ok := s.client.(provider.ResetLinkIssuer)
	if !ok {
		return provider.ErrUnsupported
	}
	if err := issuer.IssuePasswordResetLink(ctx, addr, continueTarget); err != nil {
		if errors.Is(err, provider.ErrUnsupported) {
			return err
		}
		logger.From(ctx).Warn("reset link not issued", logger.Op("ActionService.SendPasswordReset"),
			logger.Email(addr), logger.Err(err))
		return nil
	}
	audit.Log(ctx, audit.EventResetLinkRequested, logger.Email(addr))
	return nil
}

// =================================================================================
// VERIFICACIÓN (reenvío)
// =================================================================================

// SendVerification reenvía el link de verificación de una cuenta. Igual que el reset,
// una cuenta inexistente no se distingue del éxito.
func (s *service) SendVerification(ctx context.Context, email, continueTarget string) error {
	addr, err := core.NormalizeEmail(email)
	if err != nil {
		return err
	}
	if !s.policy.Allowed(continueTarget) {
		return ErrContinueNotAllowed
	}
	issuer, ok := s.client.(provider.VerificationLinkIssuer)
	if !ok {
		return provider.ErrUnsupported
	}
	if err := issuer.IssueVerificationLink(ctx, addr, continueTarget); err != nil {
		if errors.Is(err, provider.ErrUnsupported) {
			return err
		}
		logger.From(ctx).Warn("verification link not issued", logger.Op("ActionService.SendVerification"),
			logger.Email(addr), logger.Err(err))
		return nil
	}
	audit.Log(ctx, audit.EventVerifyLinkResent, logger.Email(addr))
	return nil
}

// =================================================================================
// HELPERS
// =================================================================================

func (s *service) lookup(contextID, flowID string) (*entry, error) {
	if contextID == "" {
		return nil, ErrNoContext
	}
	v, ok := s.flows.Get(flowID)
	if !ok {
		return nil, ErrFlowNotFound
	}
	e := v.(*entry)
	// Un flow de otro navegador no existe para este.
	if e.contextID != contextID {
		return nil, ErrFlowNotFound
	}
	return e, nil
}

// successEvents: flows cuyo éxito queda en el log de auditoría.
var successEvents = map[string]string{
	string(core.RouteVerifyEmail):   audit.EventEmailVerified,
	string(core.RouteResetPassword): audit.EventPasswordReset,
	flowSignIn:                      audit.EventSignInCompleted,
}

// retryPaths: dónde pedir un link nuevo cuando un flow termina en Error.
var retryPaths = map[string]string{
	string(core.RouteVerifyEmail):   "/v2/auth/verify-email/send",
	string(core.RouteResetPassword): "/v2/auth/password-reset/send",
	flowSignIn:                      "/v2/auth/signin-link",
}

// result arma la respuesta y cuenta el outcome si corresponde.
// Success siempre lleva destino (el del link o el default); Error lleva el camino
// para pedir un link nuevo.
func (s *service) result(ctx context.Context, id, name string, out core.Outcome, observe bool) *dto.FlowResult {
	out.ContinueTarget = s.policy.Resolve(out.ContinueTarget)
	switch out.State {
	case core.StateSuccess:
		if out.ContinueTarget == "" {
			out.ContinueTarget = s.policy.Default
		}
	case core.StateError:
		out.RetryTarget = retryPaths[name]
	}
	if observe && (out.State.Terminal() || out.Kind != "") {
		metrics.ObserveOutcome(name, string(out.State), string(out.Kind))
	}
	if ev, ok := successEvents[name]; ok && observe && out.State == core.StateSuccess {
		audit.Log(ctx, ev, logger.Email(out.ResolvedEmail), logger.FlowID(id))
	}
	return &dto.FlowResult{Response: dto.FlowResponse{FlowID: id, Flow: name, Outcome: out}}
}
