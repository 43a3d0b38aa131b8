// Package redis provides a redis store for the local orchestrator.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cschleiden/swf-workers/backend/local"
)

type store struct {
	rdb     redis.UniversalClient
	options *RedisOptions
	keys    *keys
}

var _ local.Store = (*store)(nil)

// NewStore creates a store keeping executions, task queues and leases in redis. Closing the
// store closes the client.
func NewStore(client redis.UniversalClient, opts ...RedisBackendOption) (local.Store, error) {
	options := applyOptions(opts...)

	s := &store{
		rdb:     client,
		options: options,
		keys:    newKeys(options.KeyPrefix),
	}

	// Preload scripts here. Usually redis-go attempts to execute them first, and if redis doesn't
	// know them, loads them. Load them eagerly to fail early for unreachable servers.
	ctx := context.Background()
	cmds := map[string]*redis.StringCmd{
		"releaseLeaseCmd":  releaseLeaseCmd.Load(ctx, s.rdb),
		"expiredLeasesCmd": expiredLeasesCmd.Load(ctx, s.rdb),
	}
	for name, cmd := range cmds {
		if cmd.Err() != nil {
			return nil, fmt.Errorf("loading redis script: %v %w", name, cmd.Err())
		}
	}

	return s, nil
}

// NewBackend returns a local orchestrator keeping its state in redis.
func NewBackend(client redis.UniversalClient, opts ...RedisBackendOption) (*local.Orchestrator, error) {
	s, err := NewStore(client, opts...)
	if err != nil {
		return nil, err
	}

	return local.New("redis", s, applyOptions(opts...).BackendOptions...), nil
}

func applyOptions(opts ...RedisBackendOption) *RedisOptions {
	// Default options
	options := &RedisOptions{
		BlockTimeout:  time.Second * 5,
		UpdateRetries: 10,
	}

	for _, opt := range opts {
		opt(options)
	}

	return options
}

func (s *store) Close() error {
	return s.rdb.Close()
}
