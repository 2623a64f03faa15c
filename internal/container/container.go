package container

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"ecoleta/client/internal/browse"
	"ecoleta/client/internal/cache"
	"ecoleta/client/internal/client"
	"ecoleta/client/internal/config"
	"ecoleta/client/internal/domain"
	"ecoleta/client/internal/form"
	"ecoleta/client/internal/queue"
	"ecoleta/client/internal/repository"
	"ecoleta/client/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config     *config.Config
	Client     client.EcoletaClient
	Geo        client.GeoClient
	Cache      cache.Cache
	Queue      queue.Queue
	Repository repository.SubmissionRepository
	Locator    domain.Locator

	Service *service.Service

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container. Redis and Postgres are only connected when
// enabled; without redis the cache is process-local and failed submissions
// are not retried.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
		Locator: domain.StaticLocator{
			Granted: cfg.Location.Granted,
			At: domain.Position{
				Latitude:  cfg.Location.Latitude,
				Longitude: cfg.Location.Longitude,
			},
		},
	}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})

		if _, err := rdb.Ping(ctx).Result(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("✅ Connected to Redis successfully")
		container.redis = rdb

		redisQueue, err := queue.NewRedisQueue(ctx, rdb, cfg.Redis)
		if err != nil {
			container.Close()
			return nil, err
		}
		container.Queue = redisQueue
		container.Cache = cache.NewRedisCache(rdb, cfg.Redis.CacheTTLDuration())
	} else {
		container.Cache = cache.NewMemoryCache(cfg.Redis.CacheTTLDuration())
	}

	if cfg.Database.Enabled {
		db, err := pgxpool.New(ctx,
			fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
				cfg.Database.Host,
				cfg.Database.Port,
				cfg.Database.User,
				cfg.Database.Password,
				cfg.Database.Name,
			))
		if err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		container.db = db

		submissionRepo := repository.NewSubmissionRepository(db)
		if err := submissionRepo.EnsureSchema(ctx); err != nil {
			container.Close()
			return nil, err
		}
		container.Repository = submissionRepo
		log.Info("✅ Connected to database successfully")
	}

	container.Client = client.NewEcoletaClient(cfg.API, container.Cache)
	container.Geo = client.NewGeoClient(cfg.Geo, container.Cache)

	container.Service = service.NewService(
		container.Client,
		container.Queue,
		container.Repository,
		cfg.Redis.ConsumerGroup,
		cfg.Redis.MinIdleDuration(),
		cfg.Workers.MaxAttempts,
	)

	return container, nil
}

// NewBrowser opens the point browsing screen for a UF/city
func (c *Container) NewBrowser(uf, city string) *browse.Browser {
	return browse.NewBrowser(c.Client, c.Locator, uf, city)
}

// NewForm opens the create-point screen
func (c *Container) NewForm() *form.Form {
	return form.New(c.Client, c.Geo, c.Locator, c.Service)
}

// Run processes queued submissions until ctx is cancelled
func (c *Container) Run(ctx context.Context) error {
	if c.Queue == nil {
		return service.ErrQueueDisabled
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.Service.RunWorkers(ctx, c.Config.Workers.Count)
	})

	return g.Wait()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Debug("Shutting down container...")

	if c.Client != nil {
		c.Client.Close()
	}
	if c.Geo != nil {
		c.Geo.Close()
	}
	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		c.redis.Close()
	}

	log.Debug("Container shut down successfully")
	return nil
}
