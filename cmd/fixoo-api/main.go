// Command fixoo-api serves the admin dashboard JSON API.
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
	"time"

	"go.uber.org/zap"

	"github.com/fixoo-app/fixoo/internal/config"
	"github.com/fixoo-app/fixoo/internal/kv"
	"github.com/fixoo-app/fixoo/internal/kv/pgkv"
	"github.com/fixoo-app/fixoo/internal/kv/rediskv"
	"github.com/fixoo-app/fixoo/internal/limiter"
	"github.com/fixoo-app/fixoo/internal/migrate"
	"github.com/fixoo-app/fixoo/internal/repository"
	"github.com/fixoo-app/fixoo/internal/repository/postgres"
	"github.com/fixoo-app/fixoo/internal/server/httpapi"
	"github.com/fixoo-app/fixoo/internal/service"
	"github.com/fixoo-app/fixoo/internal/store"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if err := config.LoadDotEnv(".env", ".env.local"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg, err := config.Parse(os.Args[1:], os.Getenv, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := newLogger(cfg.Dev)
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
		zap.String("backend", cfg.Backend),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func newLogger(dev bool) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if dev {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// backend is the storage wired for one configuration.
type backend struct {
	kv     kv.Store
	admins repository.AdminRepository
	lim    limiter.Limiter
	close  func()
}

func openBackend(ctx context.Context, cfg *config.Config, log *zap.Logger) (*backend, error) {
	policy := limiter.Policy{Window: cfg.LoginWindow, MaxFails: cfg.LoginMaxFails, BlockFor: cfg.LoginBlock}
	b := &backend{
		admins: repository.NewMemoryAdmins(),
		lim:    limiter.NewMemory(policy, nil),
		close:  func() {},
	}

	switch cfg.Backend {
	case config.BackendMemory:
		b.kv = kv.NewMemory()
	case config.BackendFile:
		b.kv = kv.NewFile(cfg.FilePath)
	case config.BackendPostgres:
		if err := migrate.Up(ctx, cfg.DSN); err != nil {
			return nil, fmt.Errorf("migrate up: %w", err)
		}
		db, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		b.kv = pgkv.New(db)
		b.admins = postgres.NewAdminRepo(db)
		b.lim = limiter.NewPG(db.Pool, policy)
		b.close = db.Close
	case config.BackendRedis:
		rc, err := rediskv.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		b.kv = rediskv.New(rc, cfg.RedisPrefix)
		b.close = func() { _ = rc.Close() }
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	if cfg.Backend != config.BackendPostgres {
		log.Warn("admin accounts are kept in memory for this backend", zap.String("backend", cfg.Backend))
	}
	return b, nil
}

// newHandler wires services over b and seeds the bootstrap admin.
func newHandler(ctx context.Context, cfg *config.Config, b *backend, log *zap.Logger) (http.Handler, error) {
	auth := service.NewAdminAuth(b.admins, []byte(cfg.JWTKey), cfg.AccessTTL, b.lim, log.Named("auth"))
	created, err := auth.EnsureBootstrap(ctx, cfg.BootstrapUser, cfg.BootstrapPassword)
	if err != nil {
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		log.Info("bootstrap admin created", zap.String("username", cfg.BootstrapUser))
	}

	st := store.New(b.kv, log.Named("store"))
	dash := service.NewDashboard(st, log.Named("dashboard"))
	return httpapi.New(auth, dash, log.Named("http"), httpapi.WithRateLimit(cfg.RateLimit, cfg.RateBurst)).Handler(), nil
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.close()

	h, err := newHandler(ctx, cfg, b, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
