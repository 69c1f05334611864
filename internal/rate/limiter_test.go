package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter(t *testing.T) {
	l := NewMemoryLimiter(2, time.Minute)
	fixed := time.Date(2026, 1, 1, 10, 0, 30, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	ctx := context.Background()
	r, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.True(t, r.Allowed)
	require.EqualValues(t, 1, r.Remaining)

	r, _ = l.Allow(ctx, "1.2.3.4")
	require.True(t, r.Allowed)
	require.EqualValues(t, 0, r.Remaining)

	r, _ = l.Allow(ctx, "1.2.3.4")
	require.False(t, r.Allowed)
	require.Equal(t, 30*time.Second, r.RetryAfter)

	// Otra key tiene su propia ventana.
	r, _ = l.Allow(ctx, "5.6.7.8")
	require.True(t, r.Allowed)

	// Ventana siguiente.
	l.now = func() time.Time { return fixed.Add(time.Minute) }
	r, _ = l.Allow(ctx, "1.2.3.4")
	require.True(t, r.Allowed)
}

func TestDecide(t *testing.T) {
	r := decide(5, 3, 0, time.Minute)
	require.False(t, r.Allowed)
	require.Zero(t, r.Remaining)
	require.Equal(t, time.Minute, r.RetryAfter)
}
