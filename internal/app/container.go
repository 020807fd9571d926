package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-desk/internal/auth"
	"github.com/spec-kit/complaint-desk/internal/config"
	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/events"
	"github.com/spec-kit/complaint-desk/internal/observability"
	"github.com/spec-kit/complaint-desk/internal/persistence"
	"github.com/spec-kit/complaint-desk/internal/policy"
	"github.com/spec-kit/complaint-desk/internal/repository"
	"github.com/spec-kit/complaint-desk/internal/repository/memory"
	"github.com/spec-kit/complaint-desk/internal/roster"
	"github.com/spec-kit/complaint-desk/internal/service"
	"github.com/spec-kit/complaint-desk/internal/worker"
)

// Container holds the wired services shared by the API server and the CLI.
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Metrics

	Postgres *persistence.Postgres
	Redis    *persistence.Redis
	Store    repository.Store
	Policy   *policy.Table
	Roster   roster.Provider
	Tokens   *auth.TokenManager

	Directory     *service.CategoryDirectory
	Router        *service.AssignmentRouter
	Roles         *service.RoleResolver
	Sessions      *service.SessionService
	Complaints    *service.ComplaintService
	Resolutions   *service.ResolutionService
	Notifications *service.NotificationService
	Reminders     *service.ReminderService
	Catalog       *service.CatalogService

	queue *worker.NotificationQueue
}

// Options tune Build.
type Options struct {
	// Store overrides the store chosen from configuration.
	Store repository.Store
	// Roster overrides the CSV roster provider.
	Roster roster.Provider
	// Synchronous delivers notifications on the calling goroutine.
	Synchronous bool
	Mailer      service.Mailer
}

// Build connects infrastructure and wires every service. Without a
// Postgres DSN the in-memory store is used.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger, Metrics: observability.NewMetrics()}

	table, err := policy.Load(cfg.Policy.Path)
	if err != nil {
		return nil, fmt.Errorf("load routing policy: %w", err)
	}
	c.Policy = table

	c.Store = opts.Store
	if c.Store == nil {
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		c.Postgres = pg
		if pool := pg.PoolHandle(); pool != nil {
			if cfg.Postgres.RunMigrations {
				if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
					pg.Close()
					return nil, err
				}
			}
			c.Store = repository.NewPostgresStore(pool)
		} else {
			c.Store = memory.New()
		}
		c.Redis = persistence.NewRedis(cfg.Redis, logger)
	}

	c.Roster = opts.Roster
	if c.Roster == nil {
		c.Roster = roster.NewCSVProvider(cfg.Roster.AdminPath, cfg.Roster.CoursePath, logger)
	}
	c.Tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())

	dispatcher := events.NewInMemoryDispatcher()
	mailer := opts.Mailer
	if mailer == nil {
		mailer = service.NewSMTPMailer(cfg.Notification)
	}
	c.Notifications = service.NewNotificationService(service.NotificationDependencies{
		Store:      c.Store,
		Dispatcher: dispatcher,
		Mailer:     mailer,
		Logger:     logger,
		Config:     cfg.Notification,
	})
	var sink service.NotificationSink = c.Notifications
	if opts.Synchronous {
		c.Notifications.RegisterHandlers()
	} else {
		c.queue = worker.StartNotificationWorker(ctx, c.Notifications, 2, 256, logger)
		sink = c.queue
	}

	var guard service.IdempotencyGuard
	if c.Redis != nil {
		guard = persistence.NewIdempotencyStore(c.Redis, cfg.Idempotency.TTL())
	}

	c.Directory = service.NewCategoryDirectory(table, logger)
	c.Router = service.NewAssignmentRouter(c.Directory, cfg.Institution, logger)
	c.Roles = service.NewRoleResolver(service.RoleResolverDependencies{
		Store:       c.Store,
		Roster:      c.Roster,
		Directory:   c.Directory,
		Policy:      table,
		Institution: cfg.Institution,
		Logger:      logger,
	})
	c.Sessions = service.NewSessionService(service.SessionDependencies{
		Store:    c.Store,
		Resolver: c.Roles,
		Tokens:   c.Tokens,
		Logger:   logger,
	})
	c.Complaints = service.NewComplaintService(service.ComplaintDependencies{
		Store:       c.Store,
		Router:      c.Router,
		Sink:        sink,
		Dispatcher:  dispatcher,
		Idempotency: guard,
		Metrics:     c.Metrics,
		Logger:      logger,
	})
	c.Resolutions = service.NewResolutionService(service.ResolutionDependencies{
		Store:      c.Store,
		Authorizer: service.NewResolutionAuthorizer(table),
		Sink:       sink,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	c.Reminders = service.NewReminderService(service.ReminderDependencies{
		Store:   c.Store,
		Sink:    sink,
		Metrics: c.Metrics,
		Logger:  logger,
	})
	c.Catalog = service.NewCatalogService(c.Store)
	return c, nil
}

// Bootstrap seeds the fixed categories and the system identity.
func (c *Container) Bootstrap(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	err := c.Store.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		categories, err = c.Directory.Seed(ctx, repos)
		if err != nil {
			return err
		}
		_, err = c.Router.EnsureSystemIdentity(ctx, repos)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	c.Logger.Info("bootstrap complete", zap.Int("categories", len(categories)))
	return categories, nil
}

// Close drains pending notifications and releases connections.
func (c *Container) Close() {
	if c.queue != nil {
		c.queue.Stop()
	}
	c.Redis.Close()
	c.Postgres.Close()
}
