package action

import (
	"context"

	"github.com/dropDatabas3/actionlink/internal/observability/logger"
)

// VerifyEmailFlow completa la confirmación de email de una cuenta.
// Idle -> Working -> Success | Error. No requiere input del usuario.
type VerifyEmailFlow struct {
	machine
	client TokenClient
	req    Request
}

// NewVerifyEmailFlow crea el flow en Idle.
func NewVerifyEmailFlow(client TokenClient, req Request) *VerifyEmailFlow {
	f := &VerifyEmailFlow{client: client, req: req}
	f.init("verify_email")
	return f
}

// Start inspecciona y consume el token. Los fallos del proveedor quedan en el Outcome;
// el error solo indica mal uso (sin token, flow ya iniciado).
func (f *VerifyEmailFlow) Start(ctx context.Context) (Outcome, error) {
	if f.req.Token == "" {
		return f.Outcome(), ErrMissingToken
	}
	if out, ok := f.advance(ctx, StateIdle, Outcome{State: StateWorking}); !ok {
		return out, ErrSubmissionRejected
	}

	log := logger.From(ctx).With(logger.Op("verify_email.start"), logger.TokenRef(f.req.Token))

	info, err := f.client.Inspect(ctx, f.req.Token)
	if err != nil {
		log.Debug("inspect failed", logger.Err(err))
		return f.set(ctx, verifyFailed(Classify(err))), nil
	}
	if info.Operation != "" && info.Operation != ModeVerifyEmail {
		log.Debug("token issued for another operation", logger.Mode(string(info.Operation)))
		return f.set(ctx, failed(KindInvalidLink)), nil
	}

	if err := f.client.ConsumeForVerification(ctx, f.req.Token); err != nil {
		log.Debug("consume failed", logger.Err(err))
		return f.set(ctx, verifyFailed(Classify(err))), nil
	}

	return f.set(ctx, Outcome{
		State:          StateSuccess,
		Message:        "Tu email fue verificado.",
		ResolvedEmail:  info.Email,
		ContinueTarget: f.req.ContinueTarget,
	}), nil
}

// verifyFailed: un token ya usado en verificación significa que el email ya está
// verificado, lo detecte Inspect o el canje.
func verifyFailed(kind ErrorKind) Outcome {
	out := failed(kind)
	if kind == KindAlreadyConsumed {
		out.Message = "Este email ya fue verificado."
	}
	return out
}
