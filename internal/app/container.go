// Package app wires configuration into stores, caches and the event bus for
// the hifz binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/config"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/hifz"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/shared"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/infrastructure/messaging"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/infrastructure/persistence/postgres"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/infrastructure/persistence/redis"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/infrastructure/persistence/sqlite"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/pkg/circuitbreaker"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/pkg/retry"
)

// Store is a hifz store that can report its health.
type Store interface {
	hifz.Store
	Ping(ctx context.Context) error
}

// Container holds the wired infrastructure.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	Store       Store
	Postgres    *postgres.Connection // nil for SQLite
	Redis       *redis.Cache         // nil when Redis is disabled
	StatusCache hifz.StatusCache
	EventBus    shared.EventBus

	closers []func()
}

// eventBus is implemented by both bus flavours.
type eventBus interface {
	shared.EventBus
	Close() error
}

// Build connects everything the configuration asks for. Redis problems
// degrade to a local bus without a cache; database problems are fatal.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{Config: cfg, Logger: logger}

	if err := c.openStore(ctx); err != nil {
		c.Close()
		return nil, err
	}

	c.connectRedis(ctx)

	if err := c.buildEventBus(); err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}

func (c *Container) openStore(ctx context.Context) error {
	db := c.Config.Database

	switch db.Driver {
	case config.DriverPostgres:
		connectCtx, cancel := context.WithTimeout(ctx, db.ConnectTimeout)
		conn, err := retry.DoWithData(connectCtx, func(ctx context.Context) (*postgres.Connection, error) {
			return postgres.Open(ctx, db.URL, postgres.PoolSettings{
				MaxConns:        int32(db.MaxConns),
				MinConns:        int32(db.MinConns),
				MaxConnLifetime: db.ConnMaxLifetime,
				MaxConnIdleTime: db.ConnMaxIdleTime,
			})
		}, retry.ConnectOptions(func(attempt int, err error, delay time.Duration) {
			c.Logger.Warn("postgres not ready, retrying", "attempt", attempt, "delay", delay, "error", err)
		})...)
		cancel()
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		c.closers = append(c.closers, conn.Close)

		if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
		c.Postgres = conn
		c.Store = &pgStore{Store: postgres.NewStore(conn), conn: conn}
		c.Logger.Info("database ready", "driver", db.Driver)

	default:
		store, err := sqlite.Open(ctx, db.SQLitePath)
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		c.closers = append(c.closers, func() { _ = store.Close() })
		c.Store = store
		c.Logger.Info("database ready", "driver", db.Driver, "path", db.SQLitePath)
	}
	return nil
}

func (c *Container) connectRedis(ctx context.Context) {
	rc := c.Config.Redis
	features := c.Config.Features
	if rc.Disabled {
		return
	}
	if !features.IsEnabled(config.FeatureStatusCache) && !features.IsEnabled(config.FeatureRemoteEvents) {
		return
	}

	cache, err := redis.NewCache(ctx, redis.Config{
		Addr:         rc.Addr(),
		Password:     rc.Password,
		DB:           rc.DB,
		PoolSize:     rc.PoolSize,
		MaxRetries:   3,
		DialTimeout:  rc.DialTimeout,
		ReadTimeout:  rc.ReadTimeout,
		WriteTimeout: rc.WriteTimeout,
		KeyPrefix:    rc.KeyPrefix,
	})
	if err != nil {
		c.Logger.Warn("redis unavailable, running without cache and remote events", "error", err)
		return
	}
	c.closers = append(c.closers, func() { _ = cache.Close() })
	c.Redis = cache

	if features.IsEnabled(config.FeatureStatusCache) {
		breaker := circuitbreaker.CacheBreaker(func(name string, from, to circuitbreaker.State) {
			c.Logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		})
		c.StatusCache = redis.NewGuardedStatusCache(redis.NewStatusCache(cache, rc.StatusTTL), breaker)
	}
	c.Logger.Info("redis ready", "addr", rc.Addr())
}

func (c *Container) buildEventBus() error {
	local := messaging.InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 4,
		Logger:         c.Logger,
	}

	var bus eventBus
	if c.Redis != nil && c.Config.Features.IsEnabled(config.FeatureRemoteEvents) {
		hostname, _ := os.Hostname()
		remote, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:         messaging.NewCacheClient(c.Redis),
			ChannelName:    messaging.BusChannel(c.Redis),
			InstanceID:     fmt.Sprintf("%s-%d", hostname, os.Getpid()),
			LocalBusConfig: local,
			Logger:         c.Logger,
		})
		if err != nil {
			return fmt.Errorf("redis event bus: %w", err)
		}
		bus = remote
	} else {
		bus = messaging.NewInMemoryEventBus(local)
	}

	c.EventBus = bus
	c.closers = append(c.closers, func() { _ = bus.Close() })
	return nil
}

// MigrationInfo is a driver independent view of one schema migration.
type MigrationInfo struct {
	Version   int    `json:"version" yaml:"version"`
	Name      string `json:"name" yaml:"name"`
	Applied   bool   `json:"applied" yaml:"applied"`
	AppliedAt string `json:"applied_at,omitempty" yaml:"applied_at,omitempty"`
}

// Migrations reports the schema state of the configured database.
func (c *Container) Migrations(ctx context.Context) ([]MigrationInfo, error) {
	var out []MigrationInfo

	if c.Postgres != nil {
		list, err := postgres.NewMigrator(c.Postgres).Status(ctx)
		if err != nil {
			return nil, err
		}
		for _, m := range list {
			info := MigrationInfo{Version: m.Version, Name: m.Name, Applied: m.IsApplied}
			if m.IsApplied {
				info.AppliedAt = m.AppliedAt.Format(time.RFC3339)
			}
			out = append(out, info)
		}
		return out, nil
	}

	store, ok := c.Store.(*sqlite.Store)
	if !ok {
		return nil, nil
	}
	list, err := store.Status(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range list {
		out = append(out, MigrationInfo{Version: m.Version, Name: m.Name, Applied: m.IsApplied, AppliedAt: m.AppliedAt})
	}
	return out, nil
}

// Close releases resources in reverse order of acquisition.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// pgStore adds Ping to the Postgres store.
type pgStore struct {
	*postgres.Store
	conn *postgres.Connection
}

func (s *pgStore) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}
