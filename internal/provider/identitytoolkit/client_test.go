package identitytoolkit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/actionlink/internal/action"
)

// fakeAPI responde como accounts:* según el body recibido.
type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int
	last  map[string]map[string]any
	reply func(method string, body map[string]any) (int, any)
}

func newFakeAPI(t *testing.T, reply func(method string, body map[string]any) (int, any)) (*Client, *fakeAPI) {
	t.Helper()
	f := &fakeAPI{calls: map[string]int{}, last: map[string]map[string]any{}, reply: reply}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "test-key", r.URL.Query().Get("key"))
		method := r.URL.Path[len("/v1/"):]

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		f.mu.Lock()
		f.calls[method]++
		f.last[method] = body
		f.mu.Unlock()

		status, resp := f.reply(method, body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return New(Config{APIKey: "test-key", BaseURL: srv.URL}), f
}

func apiErr(msg string) any {
	return map[string]any{"error": map[string]any{"code": 400, "message": msg}}
}

func TestInspect(t *testing.T) {
	c, f := newFakeAPI(t, func(method string, body map[string]any) (int, any) {
		require.Equal(t, "accounts:resetPassword", method)
		require.NotContains(t, body, "newPassword")
		switch body["oobCode"] {
		case "good":
			return 200, map[string]any{"email": "alice@example.com", "requestType": "PASSWORD_RESET"}
		case "old":
			return 400, apiErr("EXPIRED_OOB_CODE")
		default:
			return 400, apiErr("INVALID_OOB_CODE")
		}
	})
	ctx := context.Background()

	info, err := c.Inspect(ctx, "good")
	require.NoError(t, err)
	require.Equal(t, action.ModeResetPassword, info.Operation)
	require.Equal(t, "alice@example.com", info.Email)

	email, err := c.ResolveAccountEmail(ctx, "good")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", email)

	_, err = c.Inspect(ctx, "old")
	require.ErrorIs(t, err, action.ErrExpiredToken)
	require.Equal(t, action.KindExpiredLink, action.Classify(err))

	_, err = c.Inspect(ctx, "bad")
	require.ErrorIs(t, err, action.ErrInvalidToken)
	require.Equal(t, 4, f.calls["accounts:resetPassword"])
}

func TestResolveAccountEmail_WrongOperation(t *testing.T) {
	c, _ := newFakeAPI(t, func(string, map[string]any) (int, any) {
		return 200, map[string]any{"email": "a@example.com", "requestType": "VERIFY_EMAIL"}
	})
	_, err := c.ResolveAccountEmail(context.Background(), "x")
	require.ErrorIs(t, err, action.ErrInvalidToken)
}

func TestConsumeForPasswordReset(t *testing.T) {
	c, f := newFakeAPI(t, func(method string, body map[string]any) (int, any) {
		if body["newPassword"] == "weak" {
			return 400, apiErr("WEAK_PASSWORD : Password should be at least 6 characters")
		}
		return 200, map[string]any{"email": "a@example.com"}
	})
	ctx := context.Background()
	require.NoError(t, c.ConsumeForPasswordReset(ctx, "t", "Secur3Pass!"))
	require.Equal(t, "Secur3Pass!", f.last["accounts:resetPassword"]["newPassword"])

	err := c.ConsumeForPasswordReset(ctx, "t", "weak")
	require.ErrorIs(t, err, action.ErrWeakCredential)
}

func TestConsumeForVerification(t *testing.T) {
	c, f := newFakeAPI(t, func(method string, body map[string]any) (int, any) {
		require.Equal(t, "accounts:update", method)
		return 200, map[string]any{"emailVerified": true}
	})
	require.NoError(t, c.ConsumeForVerification(context.Background(), "v"))
	require.Equal(t, "v", f.last["accounts:update"]["oobCode"])
}

func TestIssueSignInLink(t *testing.T) {
	c, f := newFakeAPI(t, func(method string, body map[string]any) (int, any) {
		if body["email"] == "bad" {
			return 400, apiErr("INVALID_EMAIL")
		}
		return 200, map[string]any{"email": body["email"]}
	})
	ctx := context.Background()
	require.NoError(t, c.IssueSignInLink(ctx, "user@example.com", "https://app.example.com/finish"))
	body := f.last["accounts:sendOobCode"]
	require.Equal(t, "EMAIL_SIGNIN", body["requestType"])
	require.Equal(t, "https://app.example.com/finish", body["continueUrl"])

	require.ErrorIs(t, c.IssueSignInLink(ctx, "bad", "/"), action.ErrInvalidEmail)

	require.NoError(t, c.IssuePasswordResetLink(ctx, "user@example.com", ""))
	require.Equal(t, "PASSWORD_RESET", f.last["accounts:sendOobCode"]["requestType"])
}

func TestConsumeForSignIn(t *testing.T) {
	c, _ := newFakeAPI(t, func(method string, body map[string]any) (int, any) {
		require.Equal(t, "accounts:signInWithEmailLink", method)
		if body["email"] != "user@example.com" {
			return 400, apiErr("INVALID_EMAIL")
		}
		return 200, map[string]any{"idToken": "id", "refreshToken": "rt", "expiresIn": "3600", "email": "user@example.com"}
	})
	ctx := context.Background()

	sess, err := c.ConsumeForSignIn(ctx, "s", "user@example.com")
	require.NoError(t, err)
	require.Equal(t, "id", sess.Token)
	require.Equal(t, "rt", sess.RefreshToken)
	require.False(t, sess.ExpiresAt.IsZero())

	_, err = c.ConsumeForSignIn(ctx, "s", "other@example.com")
	require.ErrorIs(t, err, action.ErrEmailMismatch)
}

func TestUnknownErrorIsUnknownKind(t *testing.T) {
	c, _ := newFakeAPI(t, func(string, map[string]any) (int, any) {
		return 500, map[string]any{"unexpected": true}
	})
	err := c.ConsumeForVerification(context.Background(), "v")
	require.ErrorIs(t, err, ErrProvider)
	require.Equal(t, action.KindUnknown, action.Classify(err))
	require.NotContains(t, action.Message(action.Classify(err)), "UNKNOWN")
}

func TestIsSignInLink(t *testing.T) {
	c := New(Config{})
	require.True(t, c.IsSignInLink("https://x.example.com/?mode=signIn&oobCode=1"))
	require.False(t, c.IsSignInLink("https://x.example.com/?mode=verifyEmail&oobCode=1"))
}
