// Package app wires the application together: configuration, connections,
// repositories, handlers and the transports that expose them.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/careflowhq/careflow/adapter/api"
	"github.com/careflowhq/careflow/internal/shared/application"
	"github.com/careflowhq/careflow/internal/shared/infrastructure/database"
	"github.com/careflowhq/careflow/internal/shared/infrastructure/database/postgres"
	"github.com/careflowhq/careflow/internal/shared/infrastructure/eventbus"
	"github.com/careflowhq/careflow/internal/shared/infrastructure/outbox"
	"github.com/careflowhq/careflow/internal/triage/application/commands"
	"github.com/careflowhq/careflow/internal/triage/application/queries"
	"github.com/careflowhq/careflow/internal/triage/application/services"
	"github.com/careflowhq/careflow/internal/triage/application/subscribers"
	"github.com/careflowhq/careflow/internal/triage/domain/worklist"
	"github.com/careflowhq/careflow/internal/triage/infrastructure/cache"
	"github.com/careflowhq/careflow/internal/triage/infrastructure/persistence"
	"github.com/careflowhq/careflow/internal/triage/infrastructure/sources"
	"github.com/careflowhq/careflow/pkg/config"
	"github.com/careflowhq/careflow/pkg/observability"
)

// ModelProvider combines model reads with cache invalidation.
type ModelProvider interface {
	commands.ActiveModelProvider
	commands.ActiveModelCache
}

// Container holds the wired application.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics observability.Metrics
	Health  *observability.HealthRegistry

	DB          database.Connection
	Redis       *redis.Client
	Publisher   eventbus.Publisher
	OutboxRepo  outbox.Repository
	Processor   *outbox.Processor
	UnitOfWork  application.UnitOfWork
	ModelSource ModelProvider

	RecordInteraction *commands.RecordInteractionHandler
	TrainModel        *commands.TrainModelHandler
	PrioritizeTasks   *commands.PrioritizeTasksHandler
	ModelInfo         *queries.ModelInfoHandler
	ListAudit         *queries.ListAuditHandler
	Training          *subscribers.TrainingSubscriber

	ModelRepo       *persistence.PostgresModelRepository
	InteractionRepo *persistence.PostgresInteractionRepository
}

// New builds the application container from configuration. Redis and
// RabbitMQ are optional: without Redis the model cache is bypassed, without
// RabbitMQ outbox events are dispatched to subscribers in-process.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NoopMetrics{},
		Health:  observability.NewHealthRegistry(),
	}

	conn, err := postgres.NewConnection(ctx, postgres.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	c.DB = conn
	c.Health.Register("postgres", observability.PingCheck(conn.Ping))

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		c.Redis = redis.NewClient(opts)
		c.Health.Register("redis", observability.PingCheck(func(ctx context.Context) error {
			return c.Redis.Ping(ctx).Err()
		}))
	}

	var inProcessBus *eventbus.InProcessEventBus
	if cfg.RabbitMQURL != "" {
		publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("connecting to rabbitmq: %w", err)
		}
		c.Publisher = publisher
	} else {
		logger.Warn("no message broker configured, dispatching events in-process")
		inProcessBus = eventbus.NewInProcessEventBus(logger)
		c.Publisher = inProcessBus
	}

	c.UnitOfWork = database.NewUnitOfWork(c.DB)
	c.OutboxRepo = outbox.NewPostgresRepository(c.DB)
	procCfg := outbox.DefaultProcessorConfig()
	if cfg.OutboxPollInterval > 0 {
		procCfg.PollInterval = cfg.OutboxPollInterval
	}
	if cfg.OutboxBatchSize > 0 {
		procCfg.BatchSize = cfg.OutboxBatchSize
	}
	if cfg.OutboxMaxRetries > 0 {
		procCfg.MaxRetries = cfg.OutboxMaxRetries
	}
	c.Processor = outbox.NewProcessor(c.OutboxRepo, c.Publisher, procCfg, logger)

	c.InteractionRepo = persistence.NewPostgresInteractionRepository(c.DB)
	c.ModelRepo = persistence.NewPostgresModelRepository(c.DB)
	auditRepo := persistence.NewPostgresAuditRepository(c.DB)

	if c.Redis != nil {
		c.ModelSource = cache.NewRedisModelCache(c.Redis, c.ModelRepo, cfg.ModelCacheTTL, logger)
	} else {
		c.ModelSource = cache.NewRepositoryModelProvider(c.ModelRepo)
	}

	taskSources := []worklist.Source{
		sources.NewPendingItemsSource(c.DB),
		sources.NewUrgentCareSource(c.DB),
		sources.NewMedicationRefillsSource(c.DB),
		sources.NewMessagesSource(c.DB, cfg.UnreadMessagesLimit),
	}
	aggregator := services.NewAggregator(taskSources, logger, c.Metrics)
	scorer := services.NewScorer()
	trainer := services.NewTrainer()
	sessions := services.NewSessionResolver(c.InteractionRepo, cfg.SessionWindow)

	c.RecordInteraction = commands.NewRecordInteractionHandler(
		c.InteractionRepo, c.OutboxRepo, sessions, c.UnitOfWork,
		cfg.RetrainEvery, logger, c.Metrics,
	)
	c.TrainModel = commands.NewTrainModelHandler(
		c.InteractionRepo, c.ModelRepo, trainer, c.ModelSource, c.OutboxRepo,
		c.UnitOfWork, cfg.MinTrainingSamples, logger, c.Metrics,
	)
	c.PrioritizeTasks = commands.NewPrioritizeTasksHandler(
		aggregator, c.ModelSource, scorer, auditRepo, c.UnitOfWork, logger, c.Metrics,
	)
	c.ModelInfo = queries.NewModelInfoHandler(c.ModelRepo, c.InteractionRepo, cfg.MinTrainingSamples)
	c.ListAudit = queries.NewListAuditHandler(auditRepo)
	c.Training = subscribers.NewTrainingSubscriber(c.TrainModel, cfg.RetrainEvery, logger)
	if inProcessBus != nil {
		inProcessBus.RegisterConsumer(c.Training)
	}

	return c, nil
}

// APIServer builds the HTTP server over the wired handlers.
func (c *Container) APIServer() *api.Server {
	serverCfg := api.DefaultServerConfig()
	serverCfg.Addr = c.Config.HTTPAddr

	handler := api.NewPriorityHandler(api.PriorityHandlerConfig{
		RecordInteraction: c.RecordInteraction,
		TrainModel:        c.TrainModel,
		PrioritizeTasks:   c.PrioritizeTasks,
		ModelInfo:         c.ModelInfo,
		ListAudit:         c.ListAudit,
		Logger:            c.Logger,
	})
	auth := api.NewAuthMiddleware(c.Config.JWTSecret, c.Logger)
	return api.NewServer(serverCfg, handler, auth, c.Health, c.Logger)
}

// Close releases all connections in reverse dependency order.
func (c *Container) Close() {
	if c.Publisher != nil {
		if err := c.Publisher.Close(); err != nil {
			c.Logger.Warn("closing publisher", "error", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("closing redis client", "error", err)
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger.Warn("closing database connection", "error", err)
		}
	}
}
