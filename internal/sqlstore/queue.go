package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cschleiden/swf-workers/backend/local"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// enqueue inserts the tasks within the transaction writing the execution that scheduled them.
func (s *store) enqueue(ctx context.Context, tx execer, tasks []local.ScheduledTask) error {
	for _, st := range tasks {
		data, err := json.Marshal(st.Task)
		if err != nil {
			return fmt.Errorf("marshaling task: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO tasks (queue, data) VALUES (?, ?)",
			st.Queue.String(), data,
		); err != nil {
			return fmt.Errorf("inserting task: %w", err)
		}
	}

	return nil
}

func (s *store) Dequeue(ctx context.Context, queue local.Queue) (*local.QueuedTask, error) {
	t := time.NewTicker(s.options.PollInterval)
	defer t.Stop()

	for {
		task, err := s.claim(ctx, queue)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil
			}

			return nil, err
		}

		if task != nil {
			return task, nil
		}

		select {
		case <-ctx.Done():
			return nil, nil
		case <-t.C:
		}
	}
}

// claim removes the oldest task of the queue. Concurrent pollers race for a task by deleting it,
// the loser moves on to the next one.
func (s *store) claim(ctx context.Context, queue local.Queue) (*local.QueuedTask, error) {
	for {
		var id int64
		var data []byte

		err := s.db.QueryRowContext(ctx,
			"SELECT id, data FROM tasks WHERE queue = ? ORDER BY id LIMIT 1",
			queue.String(),
		).Scan(&id, &data)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil
			}

			return nil, fmt.Errorf("reading task: %w", err)
		}

		res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
		if err != nil {
			return nil, fmt.Errorf("claiming task: %w", err)
		}

		if n, err := res.RowsAffected(); err != nil {
			return nil, fmt.Errorf("claiming task: %w", err)
		} else if n != 1 {
			continue
		}

		var t local.QueuedTask
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("unmarshaling task: %w", err)
		}

		return &t, nil
	}
}
