package local

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/actionlink/internal/action"
	"github.com/dropDatabas3/actionlink/internal/security/password"
	"github.com/dropDatabas3/actionlink/internal/session"
)

// outbox captura los emails en lugar de mandarlos.
type outbox struct {
	mu   sync.Mutex
	sent []sentMail
}

type sentMail struct {
	to, subject, text string
}

func (o *outbox) Send(_ context.Context, to, subject, _, text string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, sentMail{to, subject, text})
	return nil
}

func newTestProvider(t *testing.T) (*Provider, *outbox) {
	t.Helper()
	iss, err := session.NewIssuer("test", time.Hour, nil)
	require.NoError(t, err)
	box := &outbox{}
	p := New(Config{
		LinkBase: "https://app.example.com/auth/action",
		Hash:     password.Light,
		Sender:   box,
		Sessions: iss,
	})
	require.NoError(t, p.CreateAccount("alice@example.com", "0ldPassword", false))
	return p, box
}

func TestVerificationLinkRoundTrip(t *testing.T) {
	p, box := newTestProvider(t)
	ctx := context.Background()

	require.NoError(t, p.IssueVerificationLink(ctx, "alice@example.com", "/home"))
	require.Len(t, box.sent, 1)

	tok := tokenFromText(t, box.sent[0].text)
	info, err := p.Inspect(ctx, tok)
	require.NoError(t, err)
	require.Equal(t, action.ModeVerifyEmail, info.Operation)

	require.NoError(t, p.ConsumeForVerification(ctx, tok))
	require.True(t, p.Verified("alice@example.com"))
	require.ErrorIs(t, p.ConsumeForVerification(ctx, tok), action.ErrTokenConsumed)

	require.ErrorIs(t, p.IssueVerificationLink(ctx, "nobody@example.com", ""), ErrUnknownAccount)
}

func TestPasswordReset(t *testing.T) {
	p, box := newTestProvider(t)
	ctx := context.Background()

	require.NoError(t, p.IssuePasswordResetLink(ctx, "nobody@example.com", ""))
	require.Empty(t, box.sent)

	require.NoError(t, p.IssuePasswordResetLink(ctx, "alice@example.com", ""))
	tok := tokenFromText(t, box.sent[0].text)

	email, err := p.ResolveAccountEmail(ctx, tok)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", email)

	err = p.ConsumeForPasswordReset(ctx, tok, "onlyletters")
	require.ErrorIs(t, err, action.ErrWeakCredential)

	require.NoError(t, p.ConsumeForPasswordReset(ctx, tok, "Secur3Pass!"))
	require.True(t, p.CheckPassword("alice@example.com", "Secur3Pass!"))
	require.False(t, p.CheckPassword("alice@example.com", "0ldPassword"))

	require.ErrorIs(t, p.ConsumeForPasswordReset(ctx, tok, "An0therPass"), action.ErrTokenConsumed)
}

func TestTokenClassification(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	tok, err := p.IssueToken(action.ModeResetPassword, "alice@example.com", "", time.Minute)
	require.NoError(t, err)

	// Token de otra operación.
	require.ErrorIs(t, p.ConsumeForVerification(ctx, tok), action.ErrInvalidToken)
	_, err = p.Inspect(ctx, "nope")
	require.ErrorIs(t, err, action.ErrInvalidToken)

	p.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = p.ResolveAccountEmail(ctx, tok)
	require.ErrorIs(t, err, action.ErrExpiredToken)
}

func TestSignIn(t *testing.T) {
	p, box := newTestProvider(t)
	ctx := context.Background()

	require.ErrorIs(t, p.IssueSignInLink(ctx, "bad", "/"), action.ErrInvalidEmail)
	require.NoError(t, p.IssueSignInLink(ctx, "new@example.com", "https://app.example.com/finish"))
	link := linkFromText(t, box.sent[0].text)
	require.True(t, p.IsSignInLink(link))

	req, err := action.ParseLink(link)
	require.NoError(t, err)
	require.Equal(t, "https://app.example.com/finish", req.ContinueTarget)

	_, err = p.ConsumeForSignIn(ctx, req.Token, "other@example.com")
	require.ErrorIs(t, err, action.ErrEmailMismatch)

	sess, err := p.ConsumeForSignIn(ctx, req.Token, "NEW@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)
	require.True(t, p.Verified("new@example.com"))

	_, err = p.ConsumeForSignIn(ctx, req.Token, "new@example.com")
	require.ErrorIs(t, err, action.ErrTokenConsumed)
}

func TestFlowsAgainstLocalProvider(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	tok, err := p.IssueToken(action.ModeResetPassword, "alice@example.com", "/login", time.Hour)
	require.NoError(t, err)

	d := action.NewRouter(p).Dispatch(action.Request{Mode: action.ModeResetPassword, Token: tok})
	f := d.Flow.(*action.PasswordResetFlow)
	out, err := f.Start(ctx)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", out.ResolvedEmail)

	out, err = f.Submit(ctx, "Secur3Pass!", "Secur3Pass!")
	require.NoError(t, err)
	require.Equal(t, action.StateSuccess, out.State)

	// Re-abrir el mismo link.
	f2 := action.NewPasswordResetFlow(p, action.Request{Mode: action.ModeResetPassword, Token: tok})
	out, err = f2.Start(ctx)
	require.NoError(t, err)
	require.Equal(t, action.KindAlreadyConsumed, out.Kind)
}

func TestLink(t *testing.T) {
	p := New(Config{LinkBase: "https://x.example.com/a?tenant=t"})
	link := p.Link(action.ModeSignIn, "tok", "/next")
	u, err := url.Parse(link)
	require.NoError(t, err)
	require.Equal(t, "t", u.Query().Get("tenant"))
	require.Equal(t, "signIn", u.Query().Get("mode"))
	require.Equal(t, "tok", u.Query().Get("oobCode"))
	require.Equal(t, "/next", u.Query().Get("continueUrl"))
}

func linkFromText(t *testing.T, text string) string {
	t.Helper()
	for _, f := range strings.Fields(text) {
		if strings.HasPrefix(f, "https://") {
			return f
		}
	}
	t.Fatalf("no link in email: %q", text)
	return ""
}

func tokenFromText(t *testing.T, text string) string {
	t.Helper()
	req, err := action.ParseLink(linkFromText(t, text))
	require.NoError(t, err)
	require.NotEmpty(t, req.Token)
	return req.Token
}
