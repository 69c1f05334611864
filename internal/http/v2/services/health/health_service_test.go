package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	ok := PingFunc(func(context.Context) error { return nil })
	bad := PingFunc(func(context.Context) error { return errors.New("down") })

	r := NewHealthService(Deps{Pending: ok, PendingName: "memory"}).Check(context.Background())
	require.Equal(t, "ready", r.Status)
	require.Equal(t, "disabled", r.Components["rate_limiter"].Status)

	r = NewHealthService(Deps{Pending: ok, RateLimiter: bad}).Check(context.Background())
	require.Equal(t, "degraded", r.Status)

	r = NewHealthService(Deps{Pending: bad, RateLimiter: ok}).Check(context.Background())
	require.Equal(t, "unavailable", r.Status)
	require.Equal(t, "error", r.Components["pending_store"].Status)

	r = NewHealthService(Deps{}).Check(context.Background())
	require.Equal(t, "unavailable", r.Status)
}
