package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"github.com/cschleiden/swf-workers/backend"
	"github.com/cschleiden/swf-workers/backend/local"
	"github.com/cschleiden/swf-workers/core"
)

func (s *store) CreateExecution(ctx context.Context, e *local.Execution) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling execution: %w", err)
	}

	currentKey := s.keys.currentRunKey(e.Domain, e.Execution.WorkflowID)

	return s.watch(ctx, func(tx *redis.Tx) error {
		runID, err := tx.Get(ctx, currentKey).Result()
		switch {
		case err == nil:
			current, err := s.get(ctx, tx, e.Domain, core.NewWorkflowExecution(e.Execution.WorkflowID, runID))
			if err != nil {
				return err
			}

			if current.Open() {
				return backend.ErrExecutionAlreadyStarted
			}

		case !errors.Is(err, redis.Nil):
			return fmt.Errorf("reading current run: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, s.keys.executionKey(e.Domain, e.Execution), data, 0)
			p.Set(ctx, currentKey, e.Execution.RunID, 0)
			return s.enqueue(ctx, p, e.Scheduled)
		})

		return err
	}, currentKey)
}

func (s *store) GetExecution(ctx context.Context, domain core.Domain, execution core.WorkflowExecution) (*local.Execution, error) {
	execution, err := s.resolve(ctx, domain, execution)
	if err != nil {
		return nil, err
	}

	return s.get(ctx, s.rdb, domain, execution)
}

func (s *store) UpdateExecution(ctx context.Context, domain core.Domain, execution core.WorkflowExecution, fn func(*local.Execution) error) error {
	execution, err := s.resolve(ctx, domain, execution)
	if err != nil {
		return err
	}

	key := s.keys.executionKey(domain, execution)

	return s.watch(ctx, func(tx *redis.Tx) error {
		e, err := s.get(ctx, tx, domain, execution)
		if err != nil {
			return err
		}

		if err := fn(e); err != nil {
			return err
		}

		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshaling execution: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, data, 0)
			return s.enqueue(ctx, p, e.Scheduled)
		})

		return err
	}, key)
}

// watch runs fn in an optimistic transaction on the given keys, and runs it again if any of them
// changed concurrently.
func (s *store) watch(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	b := backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(s.options.UpdateRetries)), ctx)

	return backoff.Retry(func() error {
		err := s.rdb.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			return err
		}

		return backoff.Permanent(err)
	}, b)
}

// resolve fills in the current run id if none is given
func (s *store) resolve(ctx context.Context, domain core.Domain, execution core.WorkflowExecution) (core.WorkflowExecution, error) {
	if execution.RunID != "" {
		return execution, nil
	}

	runID, err := s.rdb.Get(ctx, s.keys.currentRunKey(domain, execution.WorkflowID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return execution, backend.ErrExecutionNotFound
		}

		return execution, fmt.Errorf("reading current run: %w", err)
	}

	execution.RunID = runID

	return execution, nil
}

// getter is satisfied by clients and transactions
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *store) get(ctx context.Context, c getter, domain core.Domain, execution core.WorkflowExecution) (*local.Execution, error) {
	data, err := c.Get(ctx, s.keys.executionKey(domain, execution)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, backend.ErrExecutionNotFound
		}

		return nil, fmt.Errorf("reading execution: %w", err)
	}

	var e local.Execution
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshaling execution: %w", err)
	}

	return &e, nil
}
