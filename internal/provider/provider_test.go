package provider

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/actionlink/internal/action"
)

func TestIsSignInLink(t *testing.T) {
	require.True(t, IsSignInLink("https://app.example.com/auth/action?mode=signIn&oobCode=abc"))
	require.False(t, IsSignInLink("https://app.example.com/auth/action?mode=signIn"))
	require.False(t, IsSignInLink("https://app.example.com/auth/action?mode=resetPassword&oobCode=abc"))
	require.False(t, IsSignInLink("%%%"))

	inner := "https://app.example.com/auth/action?mode=signIn&oobCode=abc"
	wrapped := "https://links.example.com/?link=" + url.QueryEscape(inner)
	require.True(t, IsSignInLink(wrapped))
}

type stubClient struct {
	action.TokenClient
	resetIssued string
}

func (s *stubClient) Inspect(context.Context, string) (action.TokenInfo, error) {
	return action.TokenInfo{Operation: action.ModeVerifyEmail}, nil
}

func (s *stubClient) IsSignInLink(link string) bool { return IsSignInLink(link) }

type resetStub struct {
	stubClient
}

func (r *resetStub) IssuePasswordResetLink(_ context.Context, email, _ string) error {
	r.resetIssued = email
	return nil
}

type verifyStub struct {
	stubClient
	verifyIssued string
}

func (v *verifyStub) IssueVerificationLink(_ context.Context, email, _ string) error {
	v.verifyIssued = email
	return nil
}

func TestInstrumented(t *testing.T) {
	c := Instrumented(&stubClient{})
	info, err := c.Inspect(context.Background(), "t")
	require.NoError(t, err)
	require.Equal(t, action.ModeVerifyEmail, info.Operation)

	r, ok := c.(ResetLinkIssuer)
	require.True(t, ok)
	require.ErrorIs(t, r.IssuePasswordResetLink(context.Background(), "u@example.com", ""), ErrUnsupported)

	rs := &resetStub{}
	r = Instrumented(rs).(ResetLinkIssuer)
	require.NoError(t, r.IssuePasswordResetLink(context.Background(), "u@example.com", ""))
	require.Equal(t, "u@example.com", rs.resetIssued)

	v, ok := c.(VerificationLinkIssuer)
	require.True(t, ok)
	require.ErrorIs(t, v.IssueVerificationLink(context.Background(), "u@example.com", ""), ErrUnsupported)

	vs := &verifyStub{}
	v = Instrumented(vs).(VerificationLinkIssuer)
	require.NoError(t, v.IssueVerificationLink(context.Background(), "u@example.com", "/welcome"))
	require.Equal(t, "u@example.com", vs.verifyIssued)
}
