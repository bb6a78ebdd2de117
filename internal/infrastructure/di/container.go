package di

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/sherlock-service/sherlock_service/internal/domain/services"
	"github.com/sherlock-service/sherlock_service/internal/domain/services/decision"
	"github.com/sherlock-service/sherlock_service/internal/domain/services/scoring"
	"github.com/sherlock-service/sherlock_service/internal/domain/services/shadow"
	"github.com/sherlock-service/sherlock_service/internal/infrastructure/config"
	"github.com/sherlock-service/sherlock_service/internal/infrastructure/devicegraph"
	"github.com/sherlock-service/sherlock_service/internal/infrastructure/modelstore"
	"github.com/sherlock-service/sherlock_service/internal/infrastructure/queue"
	"github.com/sherlock-service/sherlock_service/internal/infrastructure/secrets"
	"github.com/sherlock-service/sherlock_service/internal/infrastructure/velocity"
	"github.com/sherlock-service/sherlock_service/pkg/circuitbreaker"
	"github.com/sherlock-service/sherlock_service/pkg/health"
	"github.com/sherlock-service/sherlock_service/pkg/logger"
	"github.com/sherlock-service/sherlock_service/pkg/metrics"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *logger.Logger

	// Infrastructure
	RedisClient *redis.Client
	GraphStore  devicegraph.Store
	Velocity    velocity.Store
	Queue       *queue.RabbitMQ
	Secrets     *secrets.Cache
	Health      *health.HealthChecker

	// Domain services
	Scorer       *scoring.Handle
	Dispatcher   *shadow.Dispatcher
	AuditService *services.AuditService
	Pipeline     *decision.Pipeline

	graphClose func(context.Context) error
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: log,
		Health: health.NewHealthChecker(5 * time.Second),
	}

	if err := c.initRedis(ctx); err != nil {
		return nil, err
	}
	if err := c.initGraphStore(ctx); err != nil {
		return nil, err
	}
	if err := c.initQueue(); err != nil {
		return nil, err
	}
	if err := c.initSecrets(ctx); err != nil {
		return nil, err
	}
	c.initServices()

	return c, nil
}

func (c *Container) initRedis(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Addr(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	c.RedisClient = client
	c.Velocity = velocity.NewRedisStore(client, c.Config.Risk.Window(), c.Logger)
	c.Health.Register(health.NewRedisChecker(client, 2*time.Second))

	c.Logger.Infow("Redis connected", "addr", c.Config.Redis.Addr())
	return nil
}

func (c *Container) initGraphStore(ctx context.Context) error {
	retention := c.Config.Risk.Retention()

	var inner devicegraph.Store
	switch c.Config.Graph.Backend {
	case "neo4j":
		store, err := devicegraph.NewNeo4jStore(ctx, devicegraph.Neo4jOptions{
			URI:            c.Config.Graph.URI,
			Database:       c.Config.Graph.Database,
			Username:       c.Config.Graph.Username,
			Password:       c.Config.Graph.Password,
			MaxConnections: c.Config.Graph.MaxConnections,
			Retention:      retention,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to graph store: %w", err)
		}
		inner = store
		c.graphClose = store.Close
		c.Health.Register(health.NewPingChecker("graph", store.Ping, 2*time.Second))
	case "memory":
		inner = devicegraph.NewMemoryStore(retention)
	default:
		inner = devicegraph.NewRedisStore(c.RedisClient, retention)
	}

	c.GraphStore = devicegraph.NewBreakerStore(inner, circuitbreaker.DefaultConfig())
	c.Logger.Infow("Device graph store ready", "backend", c.Config.Graph.Backend)
	return nil
}

func (c *Container) initQueue() error {
	if c.Config.Queue.Disabled || c.Config.Queue.URL == "" {
		c.Logger.Warnw("Shadow queue disabled, challenger evaluation is off")
		return nil
	}

	q, err := queue.NewRabbitMQ(c.Config.Queue, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to queue: %w", err)
	}

	c.Queue = q
	c.Health.Register(health.NewPingChecker("queue", q.Ping, 2*time.Second))
	return nil
}

func (c *Container) initSecrets(ctx context.Context) error {
	var source secrets.Source
	if c.Config.Auth.TokenFile != "" {
		source = secrets.FileSource{Path: c.Config.Auth.TokenFile}
	} else {
		source = secrets.StaticSource{Value: c.Config.Auth.BearerToken}
	}

	cache := secrets.NewCache(source, c.Logger)
	if err := cache.EnsureReady(ctx); err != nil {
		return fmt.Errorf("failed to load api token: %w", err)
	}

	c.Secrets = cache
	return nil
}

func (c *Container) initServices() {
	fetcher := modelstore.NewFetcher(
		c.Config.Model.CachePath,
		time.Duration(c.Config.Model.FetchTimeout)*time.Second,
	)
	c.Scorer = scoring.NewHandle(fetcher, c.Config.Model.ArtifactURL, c.Logger)

	var publisher queue.Publisher = queue.NoopPublisher{}
	if c.Queue != nil {
		publisher = c.Queue
	}
	c.Dispatcher = shadow.NewDispatcher(publisher, c.Logger)

	c.AuditService = services.NewAuditService(services.NewLogSink(c.Logger.Zap()), c.Logger.Zap())

	c.Pipeline = decision.NewPipeline(
		c.Velocity,
		c.GraphStore,
		c.Scorer,
		c.Dispatcher,
		c.AuditService,
		c.Config.Risk,
		c.Logger,
	)

	metrics.ModelLoadedGauge.Set(0)
}

// Close releases external connections.
func (c *Container) Close(ctx context.Context) error {
	if c.Queue != nil {
		if err := c.Queue.Close(); err != nil {
			c.Logger.WithError(err).Warnw("Queue close failed")
		}
	}
	if c.graphClose != nil {
		if err := c.graphClose(ctx); err != nil {
			c.Logger.WithError(err).Warnw("Graph store close failed")
		}
	}
	if c.RedisClient != nil {
		return c.RedisClient.Close()
	}
	return nil
}
