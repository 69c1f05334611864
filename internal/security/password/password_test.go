package password

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPolicy(t *testing.T) {
	p := DefaultPolicy
	p.Blacklist = NewBlacklist("Password123", "qwerty123")

	require.NoError(t, p.Check("Secur3Pass!"))

	ok, reasons := p.Validate("short1")
	require.False(t, ok)
	require.Contains(t, reasons, "too_short")

	require.ErrorIs(t, p.Check("onlyletters"), ErrWeak)
	require.ErrorIs(t, p.Check("12345678"), ErrWeak)

	err := p.Check("password123")
	require.ErrorIs(t, err, ErrWeak)
	require.Contains(t, err.Error(), "blacklisted")
}

func TestNilBlacklist(t *testing.T) {
	var bl *Blacklist
	require.False(t, bl.Contains("anything"))
}

func TestHashVerify(t *testing.T) {
	h, err := Hash(Light, "Secur3Pass!")
	require.NoError(t, err)
	require.True(t, Verify("Secur3Pass!", h))
	require.False(t, Verify("wrong", h))
	require.False(t, Verify("Secur3Pass!", "garbage"))

	_, err = Hash(Light, "")
	require.Error(t, err)
}
