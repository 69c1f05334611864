// Package health contiene el service para health checks.
package health

import (
	"context"
	"fmt"
	"time"

	dto "github.com/dropDatabas3/actionlink/internal/http/v2/dto/health"
	"github.com/dropDatabas3/actionlink/internal/observability/logger"
)

// HealthService define las operaciones de health check.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

// Pinger es cualquier dependencia que sabe responder un ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapta una función a Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Deps contiene las dependencias inyectables para el health service.
type Deps struct {
	Pending      Pinger // crítico: sin store no hay magic links
	PendingName  string
	RateLimiter  Pinger // opcional, no crítico (fail-open)
	ProviderName string
	Version      string
	Timeout      time.Duration
}

type healthService struct {
	deps Deps
}

// NewHealthService crea un nuevo service de health check.
func NewHealthService(deps Deps) HealthService {
	if deps.Timeout <= 0 {
		deps.Timeout = 2 * time.Second
	}
	return &healthService{deps: deps}
}

func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("health"), logger.Op("Check"))

	ctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
	defer cancel()

	resp := dto.HealthResponse{
		Status:     "ready",
		Components: make(map[string]dto.HealthStatus),
		Provider:   s.deps.ProviderName,
		Version:    s.deps.Version,
		Timestamp:  time.Now().UTC(),
	}

	// 1) Pending store (crítico)
	name := "pending_store"
	if s.deps.Pending == nil {
		resp.Components[name] = dto.HealthStatus{Status: "error", Message: "not initialized"}
		resp.Status = "unavailable"
	} else if err := s.deps.Pending.Ping(ctx); err != nil {
		resp.Components[name] = dto.HealthStatus{Status: "error", Message: fmt.Sprintf("%s unavailable: %v", s.deps.PendingName, err)}
		resp.Status = "unavailable"
		log.Error("pending store unavailable", logger.Err(err))
	} else {
		resp.Components[name] = dto.HealthStatus{Status: "ok", Message: s.deps.PendingName}
	}

	// 2) Rate limiter (no crítico)
	if s.deps.RateLimiter == nil {
		resp.Components["rate_limiter"] = dto.HealthStatus{Status: "disabled"}
	} else if err := s.deps.RateLimiter.Ping(ctx); err != nil {
		resp.Components["rate_limiter"] = dto.HealthStatus{Status: "error", Message: err.Error()}
		if resp.Status == "ready" {
			resp.Status = "degraded"
		}
		log.Warn("rate limiter unavailable", logger.Err(err))
	} else {
		resp.Components["rate_limiter"] = dto.HealthStatus{Status: "ok"}
	}

	return resp
}
