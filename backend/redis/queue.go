package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cschleiden/swf-workers/backend/local"
)

// popInterval is the wait between non-blocking pops when less than a second of the poll is left,
// blocking pops have second granularity.
const popInterval = time.Millisecond * 20

// enqueue queues the tasks as part of the transaction of an execution write.
func (s *store) enqueue(ctx context.Context, p redis.Pipeliner, tasks []local.ScheduledTask) error {
	for _, st := range tasks {
		data, err := json.Marshal(st.Task)
		if err != nil {
			return fmt.Errorf("marshaling task: %w", err)
		}

		p.RPush(ctx, s.keys.queueKey(st.Queue), data)
	}

	return nil
}

func (s *store) Dequeue(ctx context.Context, queue local.Queue) (*local.QueuedTask, error) {
	key := s.keys.queueKey(queue)

	for {
		timeout := s.options.BlockTimeout
		if deadline, ok := ctx.Deadline(); ok {
			if remaining := time.Until(deadline).Truncate(time.Second); remaining < timeout {
				timeout = remaining
			}
		}

		data, err := s.pop(ctx, key, timeout)
		switch {
		case err == nil:
			var t local.QueuedTask
			if err := json.Unmarshal([]byte(data), &t); err != nil {
				return nil, fmt.Errorf("unmarshaling task: %w", err)
			}

			return &t, nil

		case ctx.Err() != nil:
			return nil, nil

		case !errors.Is(err, redis.Nil):
			return nil, fmt.Errorf("popping task: %w", err)
		}

		if timeout < time.Second {
			select {
			case <-ctx.Done():
				return nil, nil
			case <-time.After(popInterval):
			}
		}
	}
}

func (s *store) pop(ctx context.Context, key string, timeout time.Duration) (string, error) {
	if timeout < time.Second {
		return s.rdb.LPop(ctx, key).Result()
	}

	r, err := s.rdb.BLPop(ctx, timeout, key).Result()
	if err != nil {
		return "", err
	}

	// Key, value
	return r[1], nil
}
