package redis

import (
	"time"

	"github.com/cschleiden/swf-workers/backend"
)

type RedisOptions struct {
	BackendOptions []backend.BackendOption

	// BlockTimeout is the longest a single blocking pop waits for a task before the poll is
	// checked for cancellation.
	BlockTimeout time.Duration

	// UpdateRetries is the number of attempts for an execution update that conflicts with a
	// concurrent update.
	UpdateRetries int

	KeyPrefix string
}

type RedisBackendOption func(*RedisOptions)

func WithBlockTimeout(timeout time.Duration) RedisBackendOption {
	return func(o *RedisOptions) {
		o.BlockTimeout = timeout
	}
}

func WithBackendOptions(opts ...backend.BackendOption) RedisBackendOption {
	return func(o *RedisOptions) {
		o.BackendOptions = append(o.BackendOptions, opts...)
	}
}

func WithUpdateRetries(retries int) RedisBackendOption {
	return func(o *RedisOptions) {
		o.UpdateRetries = retries
	}
}

func WithKeyPrefix(keyPrefix string) RedisBackendOption {
	return func(o *RedisOptions) {
		o.KeyPrefix = keyPrefix
	}
}
