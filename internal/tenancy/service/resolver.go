// Package service resolves which user pool an app client belongs to and builds pool handles.
package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"userpool-emulator/internal/apierror"
	appclientdomain "userpool-emulator/internal/appclient/domain"
	"userpool-emulator/internal/clock"
	"userpool-emulator/internal/datastore"
	"userpool-emulator/internal/tenancy/metrics"
	userpooldomain "userpool-emulator/internal/userpool/domain"
	userpoolservice "userpool-emulator/internal/userpool/service"
)

// ClientsNamespace is the datastore namespace holding app client registrations.
const ClientsNamespace = "clients"

var tracer = otel.Tracer("userpool-emulator/tenancy")

// UserPoolFactory builds a pool handle. NewUserPool is the production implementation.
type UserPoolFactory func(
	ctx context.Context,
	clients datastore.Store,
	clk clock.Clock,
	createStore datastore.Factory,
	cfg userpooldomain.Config,
	logger *zap.Logger,
) (userpoolservice.UserPool, error)

// NewUserPool adapts userpoolservice.New to UserPoolFactory.
func NewUserPool(ctx context.Context, clients datastore.Store, clk clock.Clock, createStore datastore.Factory, cfg userpooldomain.Config, logger *zap.Logger) (userpoolservice.UserPool, error) {
	pool, err := userpoolservice.New(ctx, clients, clk, createStore, cfg, logger)
	if err != nil {
		return nil, err
	}
	return pool, nil
}

type clientsSeed struct {
	Clients map[string]appclientdomain.AppClient `json:"Clients"`
}

// Resolver owns the client registrations and hands out pool handles. It keeps no per-pool state:
// every call builds a fresh handle over the pool's shared namespace.
type Resolver struct {
	clients        datastore.Store
	clock          clock.Clock
	defaults       userpooldomain.DefaultConfig
	createStore    datastore.Factory
	createUserPool UserPoolFactory
	logger         *zap.Logger
	metrics        *metrics.Metrics
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMetrics records lookups and handle construction in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// NewResolver acquires the clients namespace, seeding it with an empty registration set when it is new.
func NewResolver(
	ctx context.Context,
	defaults userpooldomain.DefaultConfig,
	clk clock.Clock,
	createStore datastore.Factory,
	createUserPool UserPoolFactory,
	logger *zap.Logger,
	opts ...Option,
) (*Resolver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	clients, err := createStore(ctx, ClientsNamespace, clientsSeed{Clients: map[string]appclientdomain.AppClient{}})
	if err != nil {
		return nil, fmt.Errorf("resolver: open clients store: %w", err)
	}
	r := &Resolver{
		clients:        clients,
		clock:          clk,
		defaults:       defaults,
		createStore:    createStore,
		createUserPool: createUserPool,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// GetAppClient returns the registration for clientID, or nil if it is not registered.
func (r *Resolver) GetAppClient(ctx context.Context, clientID string) (*appclientdomain.AppClient, error) {
	var client appclientdomain.AppClient
	found, err := r.clients.Get(ctx, []string{"Clients", clientID}, &client)
	if err != nil {
		r.metrics.ObserveClientLookup(ctx, metrics.ResultError)
		return nil, fmt.Errorf("resolver: get app client: %w", err)
	}
	if !found {
		r.metrics.ObserveClientLookup(ctx, metrics.ResultNotFound)
		return nil, nil
	}
	r.metrics.ObserveClientLookup(ctx, metrics.ResultFound)
	return &client, nil
}

// GetUserPool builds a handle for userPoolID configured with the shared defaults.
// It does not check that the pool has ever been created. ClientsNamespace is not a valid pool id.
func (r *Resolver) GetUserPool(ctx context.Context, userPoolID string) (userpoolservice.UserPool, error) {
	if userPoolID == ClientsNamespace {
		return nil, apierror.InvalidParameter("user pool id " + userPoolID + " is reserved")
	}
	r.logger.Debug("resolve user pool", zap.String("user_pool_id", userPoolID))
	pool, err := r.createUserPool(ctx, r.clients, r.clock, r.createStore, userpooldomain.NewConfig(r.defaults, userPoolID), r.logger)
	if err != nil {
		return nil, err
	}
	r.metrics.IncrementPoolHandles(ctx)
	return pool, nil
}

// GetUserPoolForClientID builds the handle for the pool that owns clientID.
// It fails with ResourceNotFound when the client is not registered.
func (r *Resolver) GetUserPoolForClientID(ctx context.Context, clientID string) (userpoolservice.UserPool, error) {
	ctx, span := tracer.Start(ctx, "Resolver.GetUserPoolForClientID", trace.WithAttributes(attribute.String("client_id", clientID)))
	defer span.End()
	defer r.metrics.ObserveResolveClient(ctx, time.Now())

	client, err := r.GetAppClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, apierror.ResourceNotFound("app client " + clientID + " not found")
	}
	return r.GetUserPool(ctx, client.UserPoolId)
}
