package action

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/dropDatabas3/actionlink/internal/observability/logger"
)

// =================================================================================
// PEDIDO DE MAGIC LINK
// =================================================================================

// NormalizeEmail valida y normaliza un email ingresado por el usuario.
// Rechaza display names ("Bob <bob@x.com>").
func NormalizeEmail(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidEmail)
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, s)
	}
	return s, nil
}

// RequestSignInLink pide al proveedor un magic link y, solo si lo emitió, registra el
// email en el store del browsing context. Es el único camino que escribe el store.
func RequestSignInLink(ctx context.Context, client TokenClient, store PendingEmailStore, email, continueTarget string) error {
	log := logger.From(ctx).With(logger.Op("signin_link.request"), logger.Email(email))

	addr, err := NormalizeEmail(email)
	if err != nil {
		return err
	}
	if err := client.IssueSignInLink(ctx, addr, continueTarget); err != nil {
		log.Warn("issue sign-in link failed", logger.Err(err))
		return fmt.Errorf("issue sign-in link: %w", err)
	}

	// El link ya salió: si no podemos registrarlo, la completion pedirá el email.
	if err := store.Set(ctx, addr); err != nil {
		log.Warn("pending email not recorded", logger.Err(err))
		return nil
	}
	log.Info("sign-in link issued")
	return nil
}

// =================================================================================
// COMPLETION DE MAGIC LINK
// =================================================================================

// SignInCompletionFlow canjea un magic link por una sesión.
// Idle -> ReadyForInput -> Submitting -> Success | Error.
// Si el store tiene el email, la completion es automática; si no, queda en
// ReadyForInput con ResolvedEmail vacío hasta que SubmitEmail lo provea.
type SignInCompletionFlow struct {
	machine
	client   TokenClient
	store    PendingEmailStore
	link     string
	req      Request
	starting bool
	session  *Session
}

// NewSignInCompletionFlow crea el flow en Idle para la URL completa del link.
func NewSignInCompletionFlow(client TokenClient, store PendingEmailStore, link string) *SignInCompletionFlow {
	f := &SignInCompletionFlow{client: client, store: store, link: link}
	f.init("signin_completion")
	return f
}

// Start reconoce el link y resuelve el email desde el store.
func (f *SignInCompletionFlow) Start(ctx context.Context) (Outcome, error) {
	f.mu.Lock()
	if f.out.State != StateIdle || f.starting {
		out := f.out
		f.mu.Unlock()
		return out, ErrSubmissionRejected
	}
	f.starting = true
	f.mu.Unlock()

	req, err := ParseLink(f.link)
	if err != nil || req.Token == "" || !f.client.IsSignInLink(f.link) {
		return f.set(ctx, failed(KindNotASignInLink)), nil
	}

	email, ok, err := f.store.Get(ctx)
	if err != nil {
		// Un store roto se trata como ausencia: se pide el email al usuario.
		logger.From(ctx).Warn("pending email lookup failed",
			logger.Op("signin_completion.start"), logger.Err(err))
		ok = false
	}

	f.mu.Lock()
	f.req = req
	f.mu.Unlock()

	if !ok || email == "" {
		return f.set(ctx, Outcome{
			State:   StateReadyForInput,
			Message: "Ingresá el email con el que pediste el link.",
		}), nil
	}

	// Completion automática: sin input, directo a Submitting.
	f.mu.Lock()
	f.setLocked(ctx, Outcome{State: StateReadyForInput, ResolvedEmail: email})
	f.setLocked(ctx, Outcome{State: StateSubmitting, ResolvedEmail: email})
	f.mu.Unlock()
	return f.consume(ctx, email)
}

// SubmitEmail completa el sign-in con el email que ingresó el usuario.
// Un email vacío es un rechazo del usuario: el flow termina en Error(MissingParameters).
func (f *SignInCompletionFlow) SubmitEmail(ctx context.Context, email string) (Outcome, error) {
	if strings.TrimSpace(email) == "" {
		out, ok := f.advance(ctx, StateReadyForInput, failed(KindMissingParameters))
		if !ok {
			return out, ErrSubmissionRejected
		}
		return out, nil
	}

	addr, err := NormalizeEmail(email)
	if err != nil {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.out.State != StateReadyForInput {
			return f.out, ErrSubmissionRejected
		}
		f.out.Kind = KindLocalValidationFailed
		f.out.Message = "El email no tiene un formato válido."
		return f.out, &ValidationError{Field: "email", Reason: f.out.Message}
	}

	return f.submit(ctx, addr)
}

// Decline registra que el usuario no quiso ingresar el email.
func (f *SignInCompletionFlow) Decline(ctx context.Context) (Outcome, error) {
	return f.SubmitEmail(ctx, "")
}

// Session devuelve la sesión si el flow terminó en Success.
func (f *SignInCompletionFlow) Session() (Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil {
		return Session{}, false
	}
	return *f.session, true
}

func (f *SignInCompletionFlow) submit(ctx context.Context, email string) (Outcome, error) {
	if out, ok := f.advance(ctx, StateReadyForInput, Outcome{State: StateSubmitting, ResolvedEmail: email}); !ok {
		return out, ErrSubmissionRejected
	}
	return f.consume(ctx, email)
}

func (f *SignInCompletionFlow) consume(ctx context.Context, email string) (Outcome, error) {
	log := logger.From(ctx).With(logger.Op("signin_completion.submit"),
		logger.Email(email), logger.TokenRef(f.req.Token))

	sess, err := f.client.ConsumeForSignIn(ctx, f.req.Token, email)
	if err != nil {
		log.Debug("consume sign-in failed", logger.Err(err))
		out := failed(Classify(err))
		out.ResolvedEmail = email
		return f.set(ctx, out), nil
	}

	if err := f.store.Clear(ctx); err != nil {
		log.Warn("pending email not cleared", logger.Err(err))
	}

	f.mu.Lock()
	f.session = &sess
	f.setLocked(ctx, Outcome{
		State:          StateSuccess,
		Message:        "Ingresaste correctamente.",
		ResolvedEmail:  email,
		ContinueTarget: f.req.ContinueTarget,
	})
	out := f.out
	f.mu.Unlock()
	return out, nil
}
