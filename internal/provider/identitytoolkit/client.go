// Package identitytoolkit implementa action.TokenClient contra la REST API v1
// de Identity Toolkit (accounts:*). Cada operación es una sola llamada, sin reintentos.
package identitytoolkit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dropDatabas3/actionlink/internal/action"
	"github.com/dropDatabas3/actionlink/internal/observability/logger"
	"github.com/dropDatabas3/actionlink/internal/provider"
)

// DefaultBaseURL es el endpoint público de Identity Toolkit.
const DefaultBaseURL = "https://identitytoolkit.googleapis.com"

// Config configura el Client.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// HTTPClient opcional (tests); si es nil se crea uno con Timeout.
	HTTPClient *http.Client
}

// Client habla con accounts:resetPassword, accounts:update, accounts:sendOobCode
// y accounts:signInWithEmailLink.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	now     func() time.Time
}

// New crea un Client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
		now:     time.Now,
	}
}

// requestType del proveedor -> Mode.
var requestTypes = map[string]action.Mode{
	"VERIFY_EMAIL":   action.ModeVerifyEmail,
	"PASSWORD_RESET": action.ModeResetPassword,
	"EMAIL_SIGNIN":   action.ModeSignIn,
}

type oobInfo struct {
	Email       string `json:"email"`
	RequestType string `json:"requestType"`
}

// Inspect usa accounts:resetPassword solo con oobCode: informa el tipo y email sin consumir.
func (c *Client) Inspect(ctx context.Context, token string) (action.TokenInfo, error) {
	var out oobInfo
	if err := c.call(ctx, "accounts:resetPassword", map[string]string{"oobCode": token}, &out, nil); err != nil {
		return action.TokenInfo{}, err
	}
	info := action.TokenInfo{Email: out.Email}
	if m, ok := requestTypes[out.RequestType]; ok {
		info.Operation = m
	} else if out.RequestType != "" {
		info.Operation = action.Mode(out.RequestType)
	}
	return info, nil
}

// ConsumeForVerification aplica el código con accounts:update.
func (c *Client) ConsumeForVerification(ctx context.Context, token string) error {
	return c.call(ctx, "accounts:update", map[string]string{"oobCode": token}, nil, nil)
}

// ResolveAccountEmail devuelve el email de un código de reset sin consumirlo.
func (c *Client) ResolveAccountEmail(ctx context.Context, token string) (string, error) {
	info, err := c.Inspect(ctx, token)
	if err != nil {
		return "", err
	}
	if info.Operation != "" && info.Operation != action.ModeResetPassword {
		return "", fmt.Errorf("identitytoolkit: code issued for %s: %w", info.Operation, action.ErrInvalidToken)
	}
	return info.Email, nil
}

// ConsumeForPasswordReset aplica la nueva contraseña.
func (c *Client) ConsumeForPasswordReset(ctx context.Context, token, newCredential string) error {
	body := map[string]string{"oobCode": token, "newPassword": newCredential}
	return c.call(ctx, "accounts:resetPassword", body, nil, nil)
}

// IssueSignInLink pide un EMAIL_SIGNIN; el proveedor agrega el oobCode a continueTarget.
func (c *Client) IssueSignInLink(ctx context.Context, email, continueTarget string) error {
	body := map[string]any{
		"requestType":        "EMAIL_SIGNIN",
		"email":              email,
		"continueUrl":        continueTarget,
		"canHandleCodeInApp": true,
	}
	return c.call(ctx, "accounts:sendOobCode", body, nil, emailErrors)
}

// IssuePasswordResetLink pide un PASSWORD_RESET.
func (c *Client) IssuePasswordResetLink(ctx context.Context, email, continueTarget string) error {
	body := map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}
	if continueTarget != "" {
		body["continueUrl"] = continueTarget
	}
	return c.call(ctx, "accounts:sendOobCode", body, nil, emailErrors)
}

// IsSignInLink reconoce la forma del link (no valida el código).
func (c *Client) IsSignInLink(link string) bool {
	return provider.IsSignInLink(link)
}

type signInResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	Email        string `json:"email"`
}

// ConsumeForSignIn canjea el código por tokens de sesión.
func (c *Client) ConsumeForSignIn(ctx context.Context, token, email string) (action.Session, error) {
	var out signInResponse
	body := map[string]string{"oobCode": token, "email": email}
	if err := c.call(ctx, "accounts:signInWithEmailLink", body, &out, signInErrors); err != nil {
		return action.Session{}, err
	}
	sess := action.Session{Token: out.IDToken, RefreshToken: out.RefreshToken, Email: out.Email}
	if secs, err := strconv.Atoi(out.ExpiresIn); err == nil {
		sess.ExpiresAt = c.now().Add(time.Duration(secs) * time.Second)
	}
	if sess.Email == "" {
		sess.Email = email
	}
	return sess, nil
}

// =================================================================================
// TRANSPORTE
// =================================================================================

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// call hace POST {base}/v1/{method}?key=... con body JSON.
// overrides permite mapear códigos de error distinto según la operación.
func (c *Client) call(ctx context.Context, method string, body any, out any, overrides map[string]error) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	u := c.baseURL + "/v1/" + method
	if c.apiKey != "" {
		u += "?key=" + url.QueryEscape(c.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("identitytoolkit %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var ae apiError
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		_ = json.Unmarshal(raw, &ae)
		mapped := mapError(ae.Error.Message, overrides)
		logger.From(ctx).Debug("provider call failed",
			logger.Component("identitytoolkit"),
			logger.Op(method),
			logger.Status(resp.StatusCode),
			logger.String("provider_code", errorCode(ae.Error.Message)),
		)
		return fmt.Errorf("identitytoolkit %s: %w", method, mapped)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("identitytoolkit %s: decode: %w", method, err)
	}
	return nil
}

// ErrProvider envuelve errores no clasificados del proveedor.
var ErrProvider = errors.New("identity provider error")

var (
	emailErrors  = map[string]error{"INVALID_EMAIL": action.ErrInvalidEmail, "MISSING_EMAIL": action.ErrInvalidEmail}
	signInErrors = map[string]error{"INVALID_EMAIL": action.ErrEmailMismatch, "EMAIL_NOT_FOUND": action.ErrEmailMismatch}
)

var baseErrors = map[string]error{
	"INVALID_OOB_CODE": action.ErrInvalidToken,
	"MISSING_OOB_CODE": action.ErrInvalidToken,
	"EXPIRED_OOB_CODE": action.ErrExpiredToken,
	"USER_DISABLED":    action.ErrInvalidToken,
	"EMAIL_NOT_FOUND":  action.ErrInvalidToken,
	"WEAK_PASSWORD":    action.ErrWeakCredential,
}

// errorCode extrae el código de "WEAK_PASSWORD : Password should be ...".
func errorCode(msg string) string {
	code, _, _ := strings.Cut(msg, ":")
	return strings.TrimSpace(code)
}

func mapError(msg string, overrides map[string]error) error {
	code := errorCode(msg)
	if err, ok := overrides[code]; ok {
		return err
	}
	if err, ok := baseErrors[code]; ok {
		return err
	}
	if code == "" {
		code = "UNKNOWN"
	}
	return fmt.Errorf("%w: %s", ErrProvider, code)
}
