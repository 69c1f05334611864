package server

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	core "github.com/dropDatabas3/actionlink/internal/action"
	"github.com/dropDatabas3/actionlink/internal/cache"
	"github.com/dropDatabas3/actionlink/internal/config"
	"github.com/dropDatabas3/actionlink/internal/email"
	"github.com/dropDatabas3/actionlink/internal/http/v2/controllers"
	actionctrl "github.com/dropDatabas3/actionlink/internal/http/v2/controllers/action"
	"github.com/dropDatabas3/actionlink/internal/http/v2/helpers"
	mw "github.com/dropDatabas3/actionlink/internal/http/v2/middlewares"
	"github.com/dropDatabas3/actionlink/internal/http/v2/router"
	"github.com/dropDatabas3/actionlink/internal/http/v2/services"
	actionsvc "github.com/dropDatabas3/actionlink/internal/http/v2/services/action"
	healthsvc "github.com/dropDatabas3/actionlink/internal/http/v2/services/health"
	"github.com/dropDatabas3/actionlink/internal/metrics"
	"github.com/dropDatabas3/actionlink/internal/observability/logger"
	"github.com/dropDatabas3/actionlink/internal/pending"
	"github.com/dropDatabas3/actionlink/internal/provider"
	"github.com/dropDatabas3/actionlink/internal/provider/identitytoolkit"
	"github.com/dropDatabas3/actionlink/internal/provider/local"
	"github.com/dropDatabas3/actionlink/internal/rate"
	"github.com/dropDatabas3/actionlink/internal/security/password"
	"github.com/dropDatabas3/actionlink/internal/session"
)

// Options ajustan el armado sin tocar la config (tests, versión del binario).
type Options struct {
	Version string
	// Registerer de Prometheus; nil = default registerer.
	Registerer prometheus.Registerer
}

// BuildHandler arma el handler HTTP v2 con todas las dependencias según cfg.
// Devuelve un cleanup que cierra pools y conexiones abiertas.
func BuildHandler(ctx context.Context, cfg *config.Config, opts Options) (http.Handler, func() error, error) {
	log := logger.From(ctx).With(logger.Component("wiring"))

	var closers []func() error
	cleanup := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	fail := func(err error) (http.Handler, func() error, error) {
		_ = cleanup()
		return nil, nil, err
	}

	// 1. Pending store (+ redis/pg compartidos)
	var (
		backend pending.Backend
		rdb     *redis.Client
		pool    *pgxpool.Pool
	)
	switch cfg.Pending.Driver {
	case "redis":
		c, err := cache.Dial(cache.Config{
			Host:     cfg.Cache.Host,
			Port:     cfg.Cache.Port,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			return fail(fmt.Errorf("redis: %w", err))
		}
		rdb = c
		closers = append(closers, rdb.Close)
		backend = pending.NewCacheBackend(cache.NewRedis(rdb, cfg.Cache.Prefix))
	case "postgres":
		pcfg, err := pgxpool.ParseConfig(cfg.Postgres.DSN)
		if err != nil {
			return fail(fmt.Errorf("postgres dsn: %w", err))
		}
		if cfg.Postgres.MaxConns > 0 {
			pcfg.MaxConns = cfg.Postgres.MaxConns
		}
		p, err := pgxpool.NewWithConfig(ctx, pcfg)
		if err != nil {
			return fail(fmt.Errorf("postgres: %w", err))
		}
		pool = p
		closers = append(closers, func() error { pool.Close(); return nil })
		backend = pending.NewPostgresBackend(pool)
	default:
		c, err := cache.New(cache.Config{Driver: "memory", Prefix: cfg.Cache.Prefix})
		if err != nil {
			return fail(err)
		}
		closers = append(closers, c.Close)
		backend = pending.NewCacheBackend(c)
	}
	log.Info("pending store ready", logger.String("driver", backend.Name()))

	// 2. Rate limit de envío de links
	var (
		limiter     rate.Limiter
		limiterPing healthsvc.Pinger
	)
	if cfg.Rate.Enabled {
		if rdb != nil {
			limiter = rate.NewRedisLimiter(rdb, cfg.Cache.Prefix+"rl:", cfg.Rate.MaxRequests, cfg.Rate.Window)
			limiterPing = healthsvc.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		} else {
			limiter = rate.NewMemoryLimiter(cfg.Rate.MaxRequests, cfg.Rate.Window)
		}
	}

	// 3. Proveedor de tokens
	client, err := buildProvider(ctx, cfg)
	if err != nil {
		return fail(err)
	}

	// 4. Métricas
	metricsHandler, err := metrics.Register(opts.Registerer, pool)
	if err != nil {
		return fail(fmt.Errorf("metrics: %w", err))
	}

	// 5. Services + controllers
	cookieOpts := helpers.CookieOptions{Domain: cfg.Cookies.Domain, Secure: cfg.Cookies.Secure}
	svcs := services.New(services.Deps{
		Action: actionsvc.Deps{
			Client:  provider.Instrumented(client),
			Pending: backend,
			FlowTTL: cfg.Flows.TTL,
			Continue: actionsvc.ContinuePolicy{
				AllowedHosts: cfg.Continue.AllowedHosts,
				Default:      cfg.Continue.Default,
			},
		},
		Health: healthsvc.Deps{
			Pending:      backend,
			PendingName:  backend.Name(),
			RateLimiter:  limiterPing,
			ProviderName: cfg.Provider.Driver,
			Version:      opts.Version,
		},
	})
	ctrls := controllers.New(svcs, actionctrl.SessionCookie{
		Name:    cfg.Session.CookieName,
		TTL:     cfg.Session.TTL,
		Options: cookieOpts,
	})

	// 6. Router
	h := router.New(router.Deps{
		Action:  ctrls.Action,
		Health:  ctrls.Health,
		Metrics: metricsHandler,
		BrowsingContext: mw.BrowsingContextConfig{
			CookieName: cfg.Context.CookieName,
			Cookie:     cookieOpts,
		},
		LinkLimiter:        limiter,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	})
	return h, cleanup, nil
}

func buildProvider(ctx context.Context, cfg *config.Config) (core.TokenClient, error) {
	switch cfg.Provider.Driver {
	case "identitytoolkit":
		return identitytoolkit.New(identitytoolkit.Config{
			APIKey:  cfg.Provider.APIKey,
			BaseURL: cfg.Provider.BaseURL,
			Timeout: cfg.Provider.Timeout,
		}), nil
	case "local":
		return buildLocal(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown provider driver %q", cfg.Provider.Driver)
	}
}

func buildLocal(ctx context.Context, cfg *config.Config) (*local.Provider, error) {
	var seed []byte
	if cfg.Session.Seed != "" {
		b, err := hex.DecodeString(cfg.Session.Seed)
		if err != nil {
			return nil, fmt.Errorf("session seed: %w", err)
		}
		seed = b
	}
	issuer, err := session.NewIssuer(cfg.Session.Issuer, cfg.Session.TTL, seed)
	if err != nil {
		return nil, err
	}

	var sender email.Sender = email.LogSender{}
	if cfg.SMTP.Host != "" {
		sender = email.NewSMTPSender(email.SMTPConfig{
			Host:               cfg.SMTP.Host,
			Port:               cfg.SMTP.Port,
			From:               cfg.SMTP.From,
			User:               cfg.SMTP.User,
			Pass:               cfg.SMTP.Pass,
			TLSMode:            cfg.SMTP.TLS,
			InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
		})
	}

	policy := password.DefaultPolicy
	if cfg.Local.BlacklistPath != "" {
		bl, err := password.LoadBlacklist(cfg.Local.BlacklistPath)
		if err != nil {
			return nil, fmt.Errorf("blacklist: %w", err)
		}
		policy.Blacklist = bl
	}
	hash := password.Default
	if cfg.Local.HashProfile == "light" {
		hash = password.Light
	}

	p := local.New(local.Config{
		LinkBase:  cfg.Local.LinkBase,
		VerifyTTL: cfg.Local.VerifyTTL,
		ResetTTL:  cfg.Local.ResetTTL,
		SignInTTL: cfg.Local.SignInTTL,
		Policy:    policy,
		Hash:      hash,
		Sender:    sender,
		Sessions:  issuer,
	})
	for _, a := range cfg.Local.Accounts {
		if err := p.CreateAccount(a.Email, a.Password, a.Verified); err != nil {
			return nil, fmt.Errorf("seed account %s: %w", logger.MaskEmail(a.Email), err)
		}
	}
	logger.From(ctx).Info("local provider ready",
		logger.Int("accounts", len(cfg.Local.Accounts)),
		logger.Bool("smtp", cfg.SMTP.Host != ""))
	return p, nil
}
