package main

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/cschleiden/swf-workers/backend"
	"github.com/cschleiden/swf-workers/backend/memory"
	"github.com/cschleiden/swf-workers/backend/mysql"
	redisbackend "github.com/cschleiden/swf-workers/backend/redis"
	"github.com/cschleiden/swf-workers/backend/sqlite"
	"github.com/cschleiden/swf-workers/backend/swf"
	"github.com/cschleiden/swf-workers/internal/config"
)

func newBackend(ctx context.Context, cfg *config.Config, opts ...backend.BackendOption) (backend.Backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.NewBackend(opts...), nil

	case config.BackendRedis:
		rclient := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{cfg.Redis.Addr},
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		b, err := redisbackend.NewBackend(rclient,
			redisbackend.WithKeyPrefix(cfg.Redis.KeyPrefix),
			redisbackend.WithBackendOptions(opts...))
		if err != nil {
			rclient.Close()
			return nil, err
		}

		return b, nil

	case config.BackendSqlite:
		if cfg.Sqlite.Path == "" {
			return sqlite.NewInMemoryBackend(sqlite.WithBackendOptions(opts...))
		}

		return sqlite.NewSqliteBackend(cfg.Sqlite.Path, sqlite.WithBackendOptions(opts...))

	case config.BackendMysql:
		return mysql.NewMysqlBackend(cfg.Mysql.DSN, mysql.WithBackendOptions(opts...))

	default:
		return swf.NewFromConfig(ctx, cfg.SWF.Region, cfg.SWF.AccessKey, cfg.SWF.SecretKey, opts...)
	}
}
