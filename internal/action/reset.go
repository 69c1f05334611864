package action

import (
	"context"
	"unicode/utf8"

	"github.com/dropDatabas3/actionlink/internal/observability/logger"
)

// MinPasswordLength es el mínimo chequeado localmente antes de llamar al proveedor.
const MinPasswordLength = 8

// PasswordResetFlow resuelve el email de la cuenta y aplica una nueva contraseña.
// Idle -> Working -> ReadyForInput -> Submitting -> Success | Error.
type PasswordResetFlow struct {
	machine
	client TokenClient
	req    Request
}

// NewPasswordResetFlow crea el flow en Idle.
func NewPasswordResetFlow(client TokenClient, req Request) *PasswordResetFlow {
	f := &PasswordResetFlow{client: client, req: req}
	f.init("reset_password")
	return f
}

// Start resuelve el email ligado al token. Si falla, el flow termina en Error
// sin pasar por ReadyForInput.
func (f *PasswordResetFlow) Start(ctx context.Context) (Outcome, error) {
	if f.req.Token == "" {
		return f.Outcome(), ErrMissingToken
	}
	if out, ok := f.advance(ctx, StateIdle, Outcome{State: StateWorking}); !ok {
		return out, ErrSubmissionRejected
	}

	email, err := f.client.ResolveAccountEmail(ctx, f.req.Token)
	if err != nil {
		logger.From(ctx).Debug("resolve account email failed",
			logger.Op("reset_password.start"), logger.TokenRef(f.req.Token), logger.Err(err))
		return f.set(ctx, failed(Classify(err))), nil
	}

	return f.set(ctx, Outcome{
		State:         StateReadyForInput,
		ResolvedEmail: email,
		Message:       "Elegí una nueva contraseña.",
	}), nil
}

// Submit valida localmente y, si pasa, consume el token con la nueva contraseña.
// Un *ValidationError deja el flow en ReadyForInput (recuperable, sin llamada de red).
// Si el flow no está en ReadyForInput (ocupado o terminado) devuelve ErrSubmissionRejected.
func (f *PasswordResetFlow) Submit(ctx context.Context, password, confirm string) (Outcome, error) {
	f.mu.Lock()
	cur := f.out
	if cur.State != StateReadyForInput {
		f.mu.Unlock()
		return cur, ErrSubmissionRejected
	}
	if verr := validateNewPassword(password, confirm); verr != nil {
		f.out.Kind = KindLocalValidationFailed
		f.out.Message = verr.Reason
		out := f.out
		f.mu.Unlock()
		return out, verr
	}
	f.setLocked(ctx, Outcome{State: StateSubmitting, ResolvedEmail: cur.ResolvedEmail})
	f.mu.Unlock()

	if err := f.client.ConsumeForPasswordReset(ctx, f.req.Token, password); err != nil {
		logger.From(ctx).Debug("consume reset failed",
			logger.Op("reset_password.submit"), logger.TokenRef(f.req.Token), logger.Err(err))
		out := failed(Classify(err))
		out.ResolvedEmail = cur.ResolvedEmail
		return f.set(ctx, out), nil
	}

	return f.set(ctx, Outcome{
		State:          StateSuccess,
		Message:        "Tu contraseña fue actualizada.",
		ResolvedEmail:  cur.ResolvedEmail,
		ContinueTarget: f.req.ContinueTarget,
	}), nil
}

func validateNewPassword(password, confirm string) *ValidationError {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return &ValidationError{Field: "password", Reason: "La contraseña debe tener al menos 8 caracteres."}
	}
	if password != confirm {
		return &ValidationError{Field: "confirm", Reason: "Las contraseñas no coinciden."}
	}
	return nil
}
