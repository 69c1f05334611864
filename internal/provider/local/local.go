// Package local es un proveedor de identidad en proceso para desarrollo y tests.
// Emite tokens opacos de un solo uso (guardados hasheados en go-cache), guarda
// credenciales con argon2id y entrega sesiones JWT.
package local

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/actionlink/internal/action"
	"github.com/dropDatabas3/actionlink/internal/email"
	"github.com/dropDatabas3/actionlink/internal/observability/logger"
	"github.com/dropDatabas3/actionlink/internal/provider"
	"github.com/dropDatabas3/actionlink/internal/security/password"
	"github.com/dropDatabas3/actionlink/internal/security/token"
	"github.com/dropDatabas3/actionlink/internal/session"
)

// ErrUnknownAccount: no hay cuenta para el email.
var ErrUnknownAccount = errors.New("local: unknown account")

// Config configura el proveedor local.
type Config struct {
	// LinkBase es la URL de la superficie de acción; los links se arman como
	// LinkBase?mode=...&oobCode=...&continueUrl=...
	LinkBase string

	VerifyTTL time.Duration
	ResetTTL  time.Duration
	SignInTTL time.Duration

	Policy   password.Policy
	Hash     password.Params
	Sender   email.Sender
	Sessions *session.Issuer
}

type account struct {
	email        string
	passwordHash string
	verified     bool
}

type record struct {
	op             action.Mode
	email          string
	continueTarget string
	expiresAt      time.Time
	consumed       bool
}

// Provider implementa action.TokenClient y provider.ResetLinkIssuer.
type Provider struct {
	cfg Config

	mu       sync.Mutex
	accounts map[string]*account
	tokens   *gocache.Cache // hash(token) -> *record
	now      func() time.Time
}

// retention: un token vencido o usado se sigue reconociendo un tiempo para
// poder reportar Expired/AlreadyConsumed en lugar de Invalid.
const retention = 24 * time.Hour

// New crea el proveedor.
func New(cfg Config) *Provider {
	if cfg.VerifyTTL <= 0 {
		cfg.VerifyTTL = 48 * time.Hour
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = time.Hour
	}
	if cfg.SignInTTL <= 0 {
		cfg.SignInTTL = 15 * time.Minute
	}
	if cfg.Policy.MinLength == 0 {
		cfg.Policy = password.DefaultPolicy
	}
	if cfg.Hash.KeyLen == 0 {
		cfg.Hash = password.Default
	}
	if cfg.Sender == nil {
		cfg.Sender = email.LogSender{}
	}
	return &Provider{
		cfg:      cfg,
		accounts: map[string]*account{},
		tokens:   gocache.New(retention, time.Hour),
		now:      time.Now,
	}
}

func normalize(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// CreateAccount agrega una cuenta (seed de config o tests).
func (p *Provider) CreateAccount(addr, plain string, verified bool) error {
	hash := ""
	if plain != "" {
		h, err := password.Hash(p.cfg.Hash, plain)
		if err != nil {
			return err
		}
		hash = h
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts[normalize(addr)] = &account{email: strings.TrimSpace(addr), passwordHash: hash, verified: verified}
	return nil
}

// Verified indica si la cuenta tiene el email verificado.
func (p *Provider) Verified(addr string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.accounts[normalize(addr)]
	return ok && a.verified
}

// CheckPassword verifica la credencial actual de la cuenta.
func (p *Provider) CheckPassword(addr, plain string) bool {
	p.mu.Lock()
	a, ok := p.accounts[normalize(addr)]
	var hash string
	if ok {
		hash = a.passwordHash
	}
	p.mu.Unlock()
	return hash != "" && password.Verify(plain, hash)
}

// =================================================================================
// EMISIÓN
// =================================================================================

// IssueVerificationLink manda el link de verificación de una cuenta existente.
func (p *Provider) IssueVerificationLink(ctx context.Context, addr, continueTarget string) error {
	if !p.hasAccount(addr) {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, logger.MaskEmail(addr))
	}
	_, err := p.issue(ctx, action.ModeVerifyEmail, addr, continueTarget, p.cfg.VerifyTTL, email.KindVerifyEmail)
	return err
}

// IssuePasswordResetLink manda un link de reset. Si la cuenta no existe no manda nada
// y no lo informa (no revela qué emails existen).
func (p *Provider) IssuePasswordResetLink(ctx context.Context, addr, continueTarget string) error {
	if !p.hasAccount(addr) {
		logger.From(ctx).Debug("reset requested for unknown account",
			logger.Component("local_provider"), logger.Email(addr))
		return nil
	}
	_, err := p.issue(ctx, action.ModeResetPassword, addr, continueTarget, p.cfg.ResetTTL, email.KindResetPassword)
	return err
}

// IssueSignInLink manda un magic link. La cuenta se crea al completar el sign-in.
func (p *Provider) IssueSignInLink(ctx context.Context, addr, continueTarget string) error {
	if _, err := action.NormalizeEmail(addr); err != nil {
		return err
	}
	_, err := p.issue(ctx, action.ModeSignIn, addr, continueTarget, p.cfg.SignInTTL, email.KindSignIn)
	return err
}

// IssueToken registra un token sin mandar email. Lo usan los tests y el seed de dev.
func (p *Provider) IssueToken(op action.Mode, addr, continueTarget string, ttl time.Duration) (string, error) {
	tok, err := token.Generate(token.DefaultBytes)
	if err != nil {
		return "", err
	}
	p.tokens.Set(token.Hash(tok), &record{
		op:             op,
		email:          strings.TrimSpace(addr),
		continueTarget: continueTarget,
		expiresAt:      p.now().Add(ttl),
	}, ttl+retention)
	return tok, nil
}

// Link arma la URL del link de acción.
func (p *Provider) Link(op action.Mode, tok, continueTarget string) string {
	q := url.Values{}
	q.Set("mode", string(op))
	q.Set("oobCode", tok)
	if continueTarget != "" {
		q.Set("continueUrl", continueTarget)
	}
	sep := "?"
	if strings.Contains(p.cfg.LinkBase, "?") {
		sep = "&"
	}
	return p.cfg.LinkBase + sep + q.Encode()
}

func (p *Provider) issue(ctx context.Context, op action.Mode, addr, continueTarget string, ttl time.Duration, kind email.Kind) (string, error) {
	tok, err := p.IssueToken(op, addr, continueTarget, ttl)
	if err != nil {
		return "", err
	}
	link := p.Link(op, tok, continueTarget)
	subject, html, text, err := email.Render(kind, email.Vars{Email: addr, Link: link, TTL: email.FormatTTL(ttl)})
	if err != nil {
		return "", err
	}
	if err := p.cfg.Sender.Send(ctx, addr, subject, html, text); err != nil {
		p.tokens.Delete(token.Hash(tok))
		return "", fmt.Errorf("deliver %s link: %w", op, err)
	}
	return link, nil
}

func (p *Provider) hasAccount(addr string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.accounts[normalize(addr)]
	return ok
}

// =================================================================================
// INSPECCIÓN Y CONSUMO
// =================================================================================

// lookupLocked devuelve el record utilizable o el error clasificado. Requiere p.mu.
func (p *Provider) lookupLocked(tok string, want action.Mode) (*record, error) {
	v, ok := p.tokens.Get(token.Hash(tok))
	if !ok {
		return nil, action.ErrInvalidToken
	}
	rec := v.(*record)
	switch {
	case want != "" && rec.op != want:
		return nil, action.ErrInvalidToken
	case rec.consumed:
		return nil, action.ErrTokenConsumed
	case p.now().After(rec.expiresAt):
		return nil, action.ErrExpiredToken
	}
	return rec, nil
}

func (p *Provider) Inspect(_ context.Context, tok string) (action.TokenInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, err := p.lookupLocked(tok, "")
	if err != nil {
		return action.TokenInfo{}, err
	}
	return action.TokenInfo{Operation: rec.op, Email: rec.email}, nil
}

func (p *Provider) ConsumeForVerification(_ context.Context, tok string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, err := p.lookupLocked(tok, action.ModeVerifyEmail)
	if err != nil {
		return err
	}
	a, ok := p.accounts[normalize(rec.email)]
	if !ok {
		return action.ErrInvalidToken
	}
	rec.consumed = true
	a.verified = true
	return nil
}

func (p *Provider) ResolveAccountEmail(_ context.Context, tok string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, err := p.lookupLocked(tok, action.ModeResetPassword)
	if err != nil {
		return "", err
	}
	return rec.email, nil
}

func (p *Provider) ConsumeForPasswordReset(_ context.Context, tok, newCredential string) error {
	// Policy y hash fuera del lock: argon2 es caro.
	if err := p.cfg.Policy.Check(newCredential); err != nil {
		return fmt.Errorf("%w: %v", action.ErrWeakCredential, err)
	}
	hash, err := password.Hash(p.cfg.Hash, newCredential)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	rec, err := p.lookupLocked(tok, action.ModeResetPassword)
	if err != nil {
		return err
	}
	a, ok := p.accounts[normalize(rec.email)]
	if !ok {
		return action.ErrInvalidToken
	}
	rec.consumed = true
	a.passwordHash = hash
	// Haber recibido el email prueba control de la casilla.
	a.verified = true
	return nil
}

func (p *Provider) IsSignInLink(link string) bool {
	return provider.IsSignInLink(link)
}

func (p *Provider) ConsumeForSignIn(_ context.Context, tok, addr string) (action.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, err := p.lookupLocked(tok, action.ModeSignIn)
	if err != nil {
		return action.Session{}, err
	}
	if normalize(rec.email) != normalize(addr) {
		return action.Session{}, action.ErrEmailMismatch
	}

	key := normalize(rec.email)
	a, ok := p.accounts[key]
	if !ok {
		a = &account{email: rec.email}
		p.accounts[key] = a
	}
	a.verified = true

	sess := action.Session{Email: a.email}
	if p.cfg.Sessions != nil {
		signed, exp, err := p.cfg.Sessions.Issue(a.email)
		if err != nil {
			return action.Session{}, err
		}
		sess.Token, sess.ExpiresAt = signed, exp
	}
	rec.consumed = true
	return sess, nil
}
