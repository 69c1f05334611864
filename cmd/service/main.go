package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/actionlink/internal/config"
	v2server "github.com/dropDatabas3/actionlink/internal/http/v2/server"
	"github.com/dropDatabas3/actionlink/internal/observability/logger"
)

// version se pisa en build: -ldflags "-X main.version=..."
var version = "dev"

func main() {
	var (
		configPath = flag.String("config", "", "ruta a config.yaml (opcional; env ACTIONLINK_* pisa el archivo)")
		envFile    = flag.String("env-file", ".env", "ruta a .env (se ignora si no existe)")
	)
	flag.Parse()

	if *envFile != "" {
		_ = godotenv.Load(*envFile)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "actionlink",
		Version:     version,
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	if err := run(cfg); err != nil {
		log.Error("server stopped with error", logger.Err(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	log := logger.L()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h, cleanup, err := v2server.BuildHandler(logger.ToContext(ctx, log), cfg, v2server.Options{Version: version})
	if err != nil {
		return fmt.Errorf("wiring: %w", err)
	}
	defer func() {
		if err := cleanup(); err != nil {
			log.Warn("cleanup error", logger.Err(err))
		}
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening",
			logger.String("addr", cfg.Server.Addr),
			logger.String("provider", cfg.Provider.Driver),
			logger.String("pending", cfg.Pending.Driver),
			logger.String("public_url", cfg.Server.PublicURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", logger.String("timeout", cfg.Server.ShutdownTimeout.String()))
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
