package main

import (
	"context"
	"fmt"

	"github.com/aretw0/arche/internal/config"
	"github.com/aretw0/arche/pkg/adapters/file"
	"github.com/aretw0/arche/pkg/adapters/memory"
	"github.com/aretw0/arche/pkg/adapters/redis"
	"github.com/aretw0/arche/pkg/persistence/middleware"
	"github.com/aretw0/arche/pkg/ports"
	"github.com/aretw0/arche/pkg/project"
	"github.com/aretw0/arche/pkg/record"
)

// backend is the configured project store plus its optional distributed lock.
type backend struct {
	store  ports.ProjectStore
	locker ports.DistributedLocker
	close  func() error
}

// openBackend opens the configured store, wrapped with validation and
// encryption middlewares when enabled.
func openBackend(ctx context.Context, c config.Config) (*backend, error) {
	b, err := openStore(ctx, c)
	if err != nil {
		return nil, err
	}

	var mws []middleware.Middleware
	if c.Store.Validate {
		mws = append(mws, middleware.NewValidationMiddleware())
	}
	enc, err := c.Encryption()
	if err != nil {
		_ = b.close()
		return nil, err
	}
	if enc != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(*enc))
	}
	b.store = middleware.Chain(b.store, mws...)
	return b, nil
}

func openStore(ctx context.Context, c config.Config) (*backend, error) {
	switch c.Store.Backend {
	case config.BackendMemory:
		return &backend{store: memory.NewStore(), close: func() error { return nil }}, nil

	case config.BackendFile:
		format, err := record.ParseFormat(c.Store.Format)
		if err != nil {
			return nil, err
		}
		return &backend{store: file.New(c.Store.Dir, file.WithFormat(format)), close: func() error { return nil }}, nil

	case config.BackendRedis:
		opts := []redis.Option{redis.WithPrefix(c.Redis.Prefix)}
		if c.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(c.Redis.TTL))
		}
		store := redis.New(c.Redis.Addr, c.Redis.Password, c.Redis.DB, opts...)
		if err := store.Client().Ping(ctx).Err(); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("redis %s unreachable: %w", c.Redis.Addr, err)
		}
		b := &backend{store: store, close: store.Close}
		if c.Redis.Lock {
			b.locker = redis.NewLocker(store.Client(), c.Redis.Prefix)
		}
		logger.Info("Using redis store", "addr", c.Redis.Addr, "prefix", c.Redis.Prefix, "lock", c.Redis.Lock)
		return b, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
}

// manager wraps the backend in a project manager configured from c.
func (b *backend) manager(c config.Config, opts ...project.Option) *project.Manager {
	base := []project.Option{project.WithLogger(logger)}
	if b.locker != nil {
		base = append(base, project.WithLocker(b.locker), project.WithLockTTL(c.Redis.LockTTL))
	}
	return project.NewManager(b.store, append(base, opts...)...)
}
