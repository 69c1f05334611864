package session

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	iss, err := NewIssuer("actionlink-test", time.Minute, nil)
	require.NoError(t, err)

	tok, exp, err := iss.Issue("user@example.com")
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Minute), exp, 5*time.Second)

	c, err := iss.Parse(tok)
	require.NoError(t, err)
	require.Equal(t, "user@example.com", c.Email)
	require.Equal(t, "user@example.com", c.Subject)
}

func TestParseRejects(t *testing.T) {
	a, err := NewIssuer("a", time.Minute, nil)
	require.NoError(t, err)
	b, err := NewIssuer("a", time.Minute, nil)
	require.NoError(t, err)

	tok, _, err := a.Issue("u@example.com")
	require.NoError(t, err)

	// Otra clave.
	_, err = b.Parse(tok)
	require.ErrorIs(t, err, ErrInvalid)

	// Expirado.
	a.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = a.Parse(tok)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestSeededIssuersShareKeys(t *testing.T) {
	seed := bytes.Repeat([]byte{7}, 32)
	a, err := NewIssuer("x", time.Minute, seed)
	require.NoError(t, err)
	b, err := NewIssuer("x", time.Minute, seed)
	require.NoError(t, err)

	tok, _, err := a.Issue("u@example.com")
	require.NoError(t, err)
	_, err = b.Parse(tok)
	require.NoError(t, err)

	_, err = NewIssuer("x", time.Minute, []byte("short"))
	require.Error(t, err)
}
