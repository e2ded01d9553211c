// Package app wires the config, stores, resolver, token issuer and completion engine into one process.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	challengeservice "userpool-emulator/internal/challenge/service"
	"userpool-emulator/internal/clock"
	"userpool-emulator/internal/config"
	"userpool-emulator/internal/datastore"
	"userpool-emulator/internal/db"
	"userpool-emulator/internal/db/migrate"
	"userpool-emulator/internal/security"
	tenancymetrics "userpool-emulator/internal/tenancy/metrics"
	tenancyservice "userpool-emulator/internal/tenancy/service"
)

const redisPingTimeout = 5 * time.Second

// App holds the wired emulator. Close releases the store connections.
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Clock      clock.Clock
	Stores     datastore.Factory
	Resolver   *tenancyservice.Resolver
	Tokens     *security.TokenProvider
	Challenges *challengeservice.Service

	closers []func() error
}

// Option overrides a collaborator New would otherwise build from cfg.
type Option func(*options)

type options struct {
	clock  clock.Clock
	stores datastore.Factory
}

// WithClock replaces the system clock.
func WithClock(clk clock.Clock) Option {
	return func(o *options) { o.clock = clk }
}

// WithStores replaces the store factory selected by STORE_BACKEND.
func WithStores(f datastore.Factory) Option {
	return func(o *options) { o.stores = f }
}

// New builds the emulator from cfg. A nil logger discards output.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := options{clock: clock.System{}}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, Logger: logger, Clock: o.clock}
	if o.stores != nil {
		a.Stores = o.stores
	} else {
		stores, closeStores, err := OpenStores(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		a.Stores = stores
		a.closers = append(a.closers, closeStores)
	}

	resolverMetrics, err := tenancymetrics.New(otel.Meter("userpool-emulator/tenancy"))
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("app: resolver metrics: %w", err)
	}
	resolver, err := tenancyservice.NewResolver(ctx, cfg.PoolDefaults(), a.Clock, a.Stores, tenancyservice.NewUserPool, logger,
		tenancyservice.WithMetrics(resolverMetrics))
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Resolver = resolver

	signer, pub, err := security.LoadKeyPair(cfg.JWTPrivateKey, cfg.JWTPublicKey)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("app: signing key: %w", err)
	}
	if cfg.JWTPrivateKey == "" {
		logger.Warn("JWT_PRIVATE_KEY not set; using an ephemeral signing key")
	}
	tokens, err := security.NewTokenProvider(signer, pub, cfg.JWTIssuerBase, security.TTLs{
		Access:  cfg.AccessTTL(),
		ID:      cfg.IDTTL(),
		Refresh: cfg.RefreshTTL(),
	}, a.Clock)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("app: token provider: %w", err)
	}
	a.Tokens = tokens

	var engineOpts []challengeservice.Option
	if cfg.PasswordBcryptCost > 0 {
		engineOpts = append(engineOpts, challengeservice.WithPasswordEncoder(security.NewHasher(cfg.PasswordBcryptCost)))
	}
	a.Challenges = challengeservice.NewService(resolver, tokens, logger, engineOpts...)
	return a, nil
}

// OpenStores returns the namespace factory for cfg.StoreBackend and a function releasing its connection.
// The postgres backend applies pending migrations first.
func OpenStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (datastore.Factory, func() error, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory, "":
		return datastore.NewMemoryFactory().Create, func() error { return nil }, nil
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("app: redis %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("store backend", zap.String("backend", "redis"), zap.String("addr", cfg.RedisAddr))
		return datastore.NewRedisFactory(client, cfg.RedisPrefix).Create, client.Close, nil
	case config.BackendPostgres:
		if err := migrate.Run(cfg.DatabaseURL, "up"); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return nil, nil, fmt.Errorf("app: migrate: %w", err)
		}
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("app: postgres: %w", err)
		}
		logger.Info("store backend", zap.String("backend", "postgres"))
		return datastore.NewPostgresFactory(conn).Create, conn.Close, nil
	default:
		return nil, nil, fmt.Errorf("app: unknown store backend %q", cfg.StoreBackend)
	}
}

// Close releases every connection opened by New.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
