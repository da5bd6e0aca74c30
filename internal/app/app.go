package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/teamsphere/teamsphere-server/internal/auth"
	"github.com/teamsphere/teamsphere-server/internal/config"
	"github.com/teamsphere/teamsphere-server/internal/relay"
	"github.com/teamsphere/teamsphere-server/internal/service"
	"github.com/teamsphere/teamsphere-server/internal/store"
	"github.com/teamsphere/teamsphere-server/internal/store/memstore"
	"github.com/teamsphere/teamsphere-server/internal/store/mongodb"
	transporthttp "github.com/teamsphere/teamsphere-server/internal/transport/http"
)

// App wires together the store, services, relay and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	relay           *relay.Relay
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := newStore(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("driver", cfg.Store.Driver).Msg("store initialized")

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	}
	authService := auth.NewService(st, jwtConfig)

	rel := relay.New(logger, relay.Options{
		MaxRoomsPerSession: cfg.Relay.MaxRoomsPerSession,
	})

	deps := transporthttp.Deps{
		Relay:         rel,
		Auth:          authService,
		Projects:      service.NewProjects(st, logger),
		Tasks:         service.NewTasks(st, logger),
		Milestones:    service.NewMilestones(st, logger),
		Notifications: service.NewNotifications(st),
		Activities:    service.NewActivities(st),
	}
	server := transporthttp.NewServer(deps, *cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		relay:           rel,
		store:           st,
		log:             logger,
	}, nil
}

func newStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "mongodb":
		return mongodb.New(ctx, cfg.MongoURI, cfg.Database)
	case "memory":
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// Run starts the relay and HTTP server and blocks until context
// cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.relay.Run(ctx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the store and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
