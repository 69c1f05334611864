package action

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestSignInLink_RecordsPendingEmail(t *testing.T) {
	c := newFakeClient()
	s := &memStore{}

	err := RequestSignInLink(context.Background(), c, s, "user@example.com", "https://app.example.com/finish")
	require.NoError(t, err)

	email, ok, err := s.Get(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "user@example.com", email)
	require.Equal(t, []string{"user@example.com"}, c.issued)
}

func TestRequestSignInLink_FailureDoesNotWrite(t *testing.T) {
	s := &memStore{}

	err := RequestSignInLink(context.Background(), newFakeClient(), s, "not an email", "/")
	require.ErrorIs(t, err, ErrInvalidEmail)

	c := newFakeClient()
	c.issueErr = errors.New("provider down")
	err = RequestSignInLink(context.Background(), c, s, "user@example.com", "/")
	require.Error(t, err)

	_, ok, _ := s.Get(context.Background())
	require.False(t, ok)
}

func TestRequestSignInLink_OverwritesPrevious(t *testing.T) {
	c := newFakeClient()
	s := &memStore{}
	require.NoError(t, RequestSignInLink(context.Background(), c, s, "first@example.com", "/"))
	require.NoError(t, RequestSignInLink(context.Background(), c, s, "second@example.com", "/"))

	email, _, _ := s.Get(context.Background())
	require.Equal(t, "second@example.com", email)
}

func TestSignInCompletion_SameContextIsAutomatic(t *testing.T) {
	c := newFakeClient()
	s := &memStore{}
	require.NoError(t, RequestSignInLink(context.Background(), c, s, "user@example.com", "/dashboard"))
	c.add("S1", ModeSignIn, "user@example.com")

	f := NewSignInCompletionFlow(c, s, signInLink("S1"))
	out, err := f.Start(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateSuccess, out.State)
	require.Equal(t, "user@example.com", out.ResolvedEmail)
	require.Equal(t, "/dashboard", out.ContinueTarget)
	require.Equal(t, 1, c.signInCalls)

	sess, ok := f.Session()
	require.True(t, ok)
	require.Equal(t, "session-S1", sess.Token)

	// Cleanup: el registro ya no está.
	_, ok, err = s.Get(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSignInCompletion_FreshContextPrompts(t *testing.T) {
	c := newFakeClient()
	c.add("S1", ModeSignIn, "user@example.com")

	f := NewSignInCompletionFlow(c, &memStore{}, signInLink("S1"))
	out, err := f.Start(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateReadyForInput, out.State)
	require.Empty(t, out.ResolvedEmail)
	require.Zero(t, c.signInCalls)

	out, err = f.SubmitEmail(context.Background(), "user@example.com")
	require.NoError(t, err)
	require.Equal(t, StateSuccess, out.State)
	require.Equal(t, 1, c.signInCalls)
}

func TestSignInCompletion_DeclineFailsGracefully(t *testing.T) {
	c := newFakeClient()
	c.add("S1", ModeSignIn, "user@example.com")

	f := NewSignInCompletionFlow(c, &memStore{}, signInLink("S1"))
	_, err := f.Start(context.Background())
	require.NoError(t, err)

	out, err := f.Decline(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateError, out.State)
	require.Equal(t, KindMissingParameters, out.Kind)
	require.Zero(t, c.signInCalls)

	_, err = f.SubmitEmail(context.Background(), "user@example.com")
	require.ErrorIs(t, err, ErrSubmissionRejected)
}

func TestSignInCompletion_InvalidEmailIsLocal(t *testing.T) {
	c := newFakeClient()
	c.add("S1", ModeSignIn, "user@example.com")
	f := NewSignInCompletionFlow(c, &memStore{}, signInLink("S1"))
	_, err := f.Start(context.Background())
	require.NoError(t, err)

	out, err := f.SubmitEmail(context.Background(), "nope")
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.Equal(t, StateReadyForInput, out.State)
	require.Zero(t, c.signInCalls)
}

func TestSignInCompletion_WrappedLink(t *testing.T) {
	c := newFakeClient()
	c.add("S1", ModeSignIn, "user@example.com")
	s := &memStore{email: "user@example.com", ok: true}

	link := "https://app.example.com/open?link=" + url.QueryEscape(signInLink("S1"))
	f := NewSignInCompletionFlow(c, s, link)
	out, err := f.Start(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateSuccess, out.State)
	require.Equal(t, "user@example.com", out.ResolvedEmail)
	require.Equal(t, "/dashboard", out.ContinueTarget)
	require.Equal(t, 1, c.signInCalls)
}

func TestSignInCompletion_NotASignInLink(t *testing.T) {
	c := newFakeClient()
	for _, link := range []string{
		"https://app.example.com/auth/action?mode=resetPassword&oobCode=X",
		"https://app.example.com/auth/action?mode=signIn",
		"://bad",
	} {
		f := NewSignInCompletionFlow(c, &memStore{email: "u@example.com", ok: true}, link)
		out, err := f.Start(context.Background())
		require.NoError(t, err, link)
		require.Equal(t, StateError, out.State, link)
		require.Equal(t, KindNotASignInLink, out.Kind, link)
	}
	require.Zero(t, c.signInCalls)
}

func TestSignInCompletion_Mismatch(t *testing.T) {
	c := newFakeClient()
	c.add("S1", ModeSignIn, "user@example.com")
	s := &memStore{email: "other@example.com", ok: true}

	out, err := NewSignInCompletionFlow(c, s, signInLink("S1")).Start(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateError, out.State)
	require.Equal(t, KindEmailMismatch, out.Kind)

	// Sin éxito no hay cleanup.
	_, ok, _ := s.Get(context.Background())
	require.True(t, ok)
}

func TestSignInCompletion_SecondOpenIsAlreadyConsumed(t *testing.T) {
	c := newFakeClient()
	c.add("S1", ModeSignIn, "user@example.com")

	out, _ := NewSignInCompletionFlow(c, &memStore{email: "user@example.com", ok: true}, signInLink("S1")).Start(context.Background())
	require.Equal(t, StateSuccess, out.State)

	out, err := NewSignInCompletionFlow(c, &memStore{email: "user@example.com", ok: true}, signInLink("S1")).Start(context.Background())
	require.NoError(t, err)
	require.Equal(t, KindAlreadyConsumed, out.Kind)
}

func TestSignInCompletion_StoreErrorFallsBackToPrompt(t *testing.T) {
	c := newFakeClient()
	c.add("S1", ModeSignIn, "user@example.com")

	f := NewSignInCompletionFlow(c, &memStore{getErr: errors.New("redis down")}, signInLink("S1"))
	out, err := f.Start(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateReadyForInput, out.State)
}
