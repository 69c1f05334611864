package rate

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter es el fixed window en proceso, para un solo nodo o dev.
type MemoryLimiter struct {
	mu     sync.Mutex
	c      *gocache.Cache
	Max    int64
	Window time.Duration
	now    func() time.Time
}

// NewMemoryLimiter crea un limiter de max hits por window.
func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		c:      gocache.New(window, 2*window),
		Max:    int64(max),
		Window: window,
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.now().UTC()
	winStart := now.Truncate(l.Window)
	k := fmt.Sprintf("%s:%d", key, winStart.Unix())

	l.mu.Lock()
	defer l.mu.Unlock()
	hits, err := l.c.IncrementInt64(k, 1)
	if err != nil {
		// Primer hit de la ventana.
		l.c.Set(k, int64(1), l.Window)
		hits = 1
	}
	return decide(hits, l.Max, winStart.Add(l.Window).Sub(now), l.Window), nil
}
