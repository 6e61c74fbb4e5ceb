package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/cors"

	"github.com/rhuss/tokengate/pkg/auth"
	"github.com/rhuss/tokengate/pkg/auth/bearer"
	"github.com/rhuss/tokengate/pkg/auth/credential"
	"github.com/rhuss/tokengate/pkg/auth/token"
	"github.com/rhuss/tokengate/pkg/config"
	"github.com/rhuss/tokengate/pkg/storage"
	"github.com/rhuss/tokengate/pkg/transport"
)

// App is a fully wired tokengate service.
type App struct {
	cfg     *config.Config
	store   storage.UserStore
	codec   *token.Codec
	gate    *auth.Gate
	handler http.Handler
	logger  *slog.Logger
}

// Option configures an App.
type Option func(*appOptions)

type appOptions struct {
	logger *slog.Logger
	now    func() time.Time
	cost   int
}

// WithLogger sets the logger used by the transport middleware.
func WithLogger(l *slog.Logger) Option {
	return func(o *appOptions) { o.logger = l }
}

// WithClock replaces time.Now for token issuance and verification.
func WithClock(now func() time.Time) Option {
	return func(o *appOptions) { o.now = now }
}

// WithDummyCost sets the bcrypt cost of the hash compared for unknown users.
func WithDummyCost(cost int) Option {
	return func(o *appOptions) { o.cost = cost }
}

// New opens the configured store, seeds the configured users and builds the
// service. cfg must have passed validation.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	store, err := OpenStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	app, err := NewWithStore(ctx, cfg, store, opts...)
	if err != nil {
		store.Close()
		return nil, err
	}
	return app, nil
}

// NewWithStore builds the service on an already opened store. The App takes
// ownership of store and closes it in Close.
func NewWithStore(ctx context.Context, cfg *config.Config, store storage.UserStore, opts ...Option) (*App, error) {
	o := appOptions{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	if err := SeedUsers(ctx, store, cfg.Storage.Users); err != nil {
		return nil, err
	}

	codec, err := token.New(token.Config{
		Secret: []byte(cfg.Auth.SigningSecret),
		TTL:    cfg.Auth.TokenTTL,
		Issuer: cfg.Auth.Issuer,
		Now:    o.now,
	})
	if err != nil {
		return nil, fmt.Errorf("creating token codec: %w", err)
	}

	required, rules, err := cfg.Auth.Roles()
	if err != nil {
		return nil, fmt.Errorf("resolving access rules: %w", err)
	}
	failure := auth.ErrorResponder{}
	access, err := auth.NewAccessDecision(required, rules, failure)
	if err != nil {
		return nil, fmt.Errorf("creating access decision: %w", err)
	}

	var credOpts []credential.Option
	if o.cost > 0 {
		credOpts = append(credOpts, credential.WithDummyCost(o.cost))
	}
	gate, err := auth.NewGate(auth.GateConfig{
		LoginPath:   cfg.Auth.LoginPath,
		Credentials: credential.New(store, credOpts...),
		Tokens:      bearer.New(codec),
		Success:     auth.NewTokenResponder(codec),
		Failure:     failure,
		Access:      access,
		MaxBodySize: cfg.Auth.MaxBodySize,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gate: %w", err)
	}

	res := &resources{
		storeType: cfg.Storage.Type,
		tokenTTL:  codec.TTL(),
		startedAt: o.now(),
		now:       o.now,
	}
	metricsPath := ""
	if cfg.Observability.Metrics.Enabled {
		metricsPath = cfg.Observability.Metrics.Path
	}
	var corsOpts *cors.Options
	if origins := cfg.Server.CORS.AllowedOrigins; len(origins) > 0 {
		c := CORSOptions(origins, cfg.Server.CORS.MaxAge)
		corsOpts = &c
	}
	handler := NewRouter(RouterOptions{
		Gate:          gate,
		API:           newAPIRouter(res),
		Logger:        o.logger,
		MetricsPath:   metricsPath,
		HealthHandler: storeHealthHandler(store),
		CORSOptions:   corsOpts,
	})

	return &App{
		cfg:     cfg,
		store:   store,
		codec:   codec,
		gate:    gate,
		handler: handler,
		logger:  o.logger,
	}, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Store returns the user store backing the gate.
func (a *App) Store() storage.UserStore {
	return a.store
}

// Run serves on the configured port until ctx is cancelled or a shutdown
// signal arrives.
func (a *App) Run(ctx context.Context) error {
	srv := transport.NewServer(a.handler,
		transport.WithAddr(":"+strconv.Itoa(a.cfg.Server.Port)),
		transport.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout),
		transport.WithShutdownTimeout(a.cfg.Server.ShutdownTimeout),
		transport.WithLogger(a.logger),
	)
	a.logger.Info("tokengate ready",
		"login_path", a.gate.LoginPath(),
		"storage", a.cfg.Storage.Type,
		"token_ttl", a.codec.TTL(),
	)
	return srv.ListenAndServe(ctx)
}

// Close releases the user store.
func (a *App) Close() error {
	return a.store.Close()
}
