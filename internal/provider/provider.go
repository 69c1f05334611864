// Package provider contiene lo común a las implementaciones de action.TokenClient.
package provider

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/dropDatabas3/actionlink/internal/action"
	"github.com/dropDatabas3/actionlink/internal/metrics"
)

// ResetLinkIssuer lo implementan los proveedores que pueden mandar links de reset
// a pedido de este servicio.
type ResetLinkIssuer interface {
	IssuePasswordResetLink(ctx context.Context, email, continueTarget string) error
}

// VerificationLinkIssuer lo implementan los proveedores que pueden reenviar el link
// de verificación de una cuenta existente.
type VerificationLinkIssuer interface {
	IssueVerificationLink(ctx context.Context, email, continueTarget string) error
}

// IsSignInLink reconoce la forma de un magic link: mode=signIn y un oobCode no vacío.
// También acepta el link envuelto en un parámetro "link" (redirects de apps móviles).
func IsSignInLink(link string) bool {
	return isSignInLink(link, 2)
}

func isSignInLink(link string, depth int) bool {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || depth == 0 {
		return false
	}
	q := u.Query()
	if q.Get("mode") == string(action.ModeSignIn) && q.Get("oobCode") != "" {
		return true
	}
	if inner := q.Get("link"); inner != "" {
		return isSignInLink(inner, depth-1)
	}
	return false
}

// Instrumented decora un TokenClient con métricas de latencia por operación.
func Instrumented(c action.TokenClient) action.TokenClient {
	return &instrumented{next: c}
}

type instrumented struct {
	next action.TokenClient
}

func (i *instrumented) Inspect(ctx context.Context, token string) (action.TokenInfo, error) {
	start := time.Now()
	info, err := i.next.Inspect(ctx, token)
	metrics.ObserveProviderCall("inspect", start, err)
	return info, err
}

func (i *instrumented) ConsumeForVerification(ctx context.Context, token string) error {
	start := time.Now()
	err := i.next.ConsumeForVerification(ctx, token)
	metrics.ObserveProviderCall("consume_verification", start, err)
	return err
}

func (i *instrumented) ResolveAccountEmail(ctx context.Context, token string) (string, error) {
	start := time.Now()
	email, err := i.next.ResolveAccountEmail(ctx, token)
	metrics.ObserveProviderCall("resolve_account_email", start, err)
	return email, err
}

func (i *instrumented) ConsumeForPasswordReset(ctx context.Context, token, newCredential string) error {
	start := time.Now()
	err := i.next.ConsumeForPasswordReset(ctx, token, newCredential)
	metrics.ObserveProviderCall("consume_password_reset", start, err)
	return err
}

func (i *instrumented) IssueSignInLink(ctx context.Context, email, continueTarget string) error {
	start := time.Now()
	err := i.next.IssueSignInLink(ctx, email, continueTarget)
	metrics.ObserveProviderCall("issue_signin_link", start, err)
	return err
}

func (i *instrumented) IsSignInLink(link string) bool {
	return i.next.IsSignInLink(link)
}

func (i *instrumented) ConsumeForSignIn(ctx context.Context, token, email string) (action.Session, error) {
	start := time.Now()
	sess, err := i.next.ConsumeForSignIn(ctx, token, email)
	metrics.ObserveProviderCall("consume_signin", start, err)
	return sess, err
}

// IssuePasswordResetLink delega si el proveedor decorado lo soporta.
func (i *instrumented) IssuePasswordResetLink(ctx context.Context, email, continueTarget string) error {
	r, ok := i.next.(ResetLinkIssuer)
	if !ok {
		return ErrUnsupported
	}
	start := time.Now()
	err := r.IssuePasswordResetLink(ctx, email, continueTarget)
	metrics.ObserveProviderCall("issue_reset_link", start, err)
	return err
}

// IssueVerificationLink delega si el proveedor decorado lo soporta.
func (i *instrumented) IssueVerificationLink(ctx context.Context, email, continueTarget string) error {
	v, ok := i.next.(VerificationLinkIssuer)
	if !ok {
		return ErrUnsupported
	}
	start := time.Now()
	err := v.IssueVerificationLink(ctx, email, continueTarget)
	metrics.ObserveProviderCall("issue_verification_link", start, err)
	return err
}
