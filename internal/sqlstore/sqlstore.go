// Package sqlstore implements the local orchestrator store on top of database/sql. It is shared
// by the sqlite and mysql backends, which provide the connection, the schema and a Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/cschleiden/swf-workers/backend"
	"github.com/cschleiden/swf-workers/backend/local"
	"github.com/cschleiden/swf-workers/core"
)

// errConflict is returned when an execution changed between reading and writing it
var errConflict = errors.New("execution changed concurrently")

type Dialect struct {
	Name string

	// IsDuplicateKey returns true for errors caused by a primary key violation
	IsDuplicateKey func(err error) bool
}

type Options struct {
	// PollInterval is the interval at which queues are checked while dequeuing
	PollInterval time.Duration

	// UpdateRetries is the number of attempts for an execution update that conflicts with a
	// concurrent update.
	UpdateRetries int

	// OwnsConnection closes the database when the store is closed
	OwnsConnection bool
}

var DefaultOptions = Options{
	PollInterval:   time.Millisecond * 50,
	UpdateRetries:  10,
	OwnsConnection: true,
}

type store struct {
	db      *sql.DB
	dialect Dialect
	options Options
}

var _ local.Store = (*store)(nil)

// New returns a store using the given database. The schema has to be migrated already.
func New(db *sql.DB, dialect Dialect, options Options) local.Store {
	return &store{
		db:      db,
		dialect: dialect,
		options: options,
	}
}

func (s *store) Close() error {
	if !s.options.OwnsConnection {
		return nil
	}

	return s.db.Close()
}

func (s *store) CreateExecution(ctx context.Context, e *local.Execution) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling execution: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	var runID string
	err = tx.QueryRowContext(ctx,
		"SELECT run_id FROM current_runs WHERE domain = ? AND workflow_id = ?",
		e.Domain, e.Execution.WorkflowID,
	).Scan(&runID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO current_runs (domain, workflow_id, run_id) VALUES (?, ?, ?)",
			e.Domain, e.Execution.WorkflowID, e.Execution.RunID,
		); err != nil {
			return s.insertError(err, "inserting current run")
		}

	case err != nil:
		return fmt.Errorf("reading current run: %w", err)

	default:
		current, _, err := s.get(ctx, tx, e.Domain, core.NewWorkflowExecution(e.Execution.WorkflowID, runID))
		if err != nil {
			return err
		}

		if current.Open() {
			return backend.ErrExecutionAlreadyStarted
		}

		res, err := tx.ExecContext(ctx,
			"UPDATE current_runs SET run_id = ? WHERE domain = ? AND workflow_id = ? AND run_id = ?",
			e.Execution.RunID, e.Domain, e.Execution.WorkflowID, runID,
		)
		if err != nil {
			return fmt.Errorf("updating current run: %w", err)
		}

		if n, err := res.RowsAffected(); err != nil || n != 1 {
			return backend.ErrExecutionAlreadyStarted
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO executions (domain, workflow_id, run_id, version, data, created_at) VALUES (?, ?, ?, 1, ?, ?)",
		e.Domain, e.Execution.WorkflowID, e.Execution.RunID, data, e.CreatedAt.UnixMilli(),
	); err != nil {
		return s.insertError(err, "inserting execution")
	}

	if err := s.enqueue(ctx, tx, e.Scheduled); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return s.insertError(err, "creating execution")
	}

	return nil
}

func (s *store) insertError(err error, msg string) error {
	if s.dialect.IsDuplicateKey != nil && s.dialect.IsDuplicateKey(err) {
		return backend.ErrExecutionAlreadyStarted
	}

	return fmt.Errorf("%s: %w", msg, err)
}

func (s *store) GetExecution(ctx context.Context, domain core.Domain, execution core.WorkflowExecution) (*local.Execution, error) {
	execution, err := s.resolve(ctx, domain, execution)
	if err != nil {
		return nil, err
	}

	e, _, err := s.get(ctx, s.db, domain, execution)
	return e, err
}

func (s *store) UpdateExecution(ctx context.Context, domain core.Domain, execution core.WorkflowExecution, fn func(*local.Execution) error) error {
	execution, err := s.resolve(ctx, domain, execution)
	if err != nil {
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(s.options.UpdateRetries)), ctx)

	return backoff.Retry(func() error {
		err := s.update(ctx, domain, execution, fn)
		if errors.Is(err, errConflict) {
			return err
		}

		return backoff.Permanent(err)
	}, b)
}

// update writes the execution and its scheduled tasks if the version did not change since the
// execution was read.
func (s *store) update(ctx context.Context, domain core.Domain, execution core.WorkflowExecution, fn func(*local.Execution) error) error {
	e, version, err := s.get(ctx, s.db, domain, execution)
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE executions SET data = ?, version = version + 1 WHERE domain = ? AND workflow_id = ? AND run_id = ? AND version = ?",
		data, domain, execution.WorkflowID, execution.RunID, version,
	)
	if err != nil {
		return fmt.Errorf("updating execution: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating execution: %w", err)
	}

	if n != 1 {
		return errConflict
	}

	if err := s.enqueue(ctx, tx, e.Scheduled); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing execution: %w", err)
	}

	return nil
}

// resolve fills in the current run id if none is given
func (s *store) resolve(ctx context.Context, domain core.Domain, execution core.WorkflowExecution) (core.WorkflowExecution, error) {
	if execution.RunID != "" {
		return execution, nil
	}

	err := s.db.QueryRowContext(ctx,
		"SELECT run_id FROM current_runs WHERE domain = ? AND workflow_id = ?",
		domain, execution.WorkflowID,
	).Scan(&execution.RunID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return execution, backend.ErrExecutionNotFound
		}

		return execution, fmt.Errorf("reading current run: %w", err)
	}

	return execution, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (s *store) get(ctx context.Context, q queryer, domain core.Domain, execution core.WorkflowExecution) (*local.Execution, int64, error) {
	var data []byte
	var version int64

	err := q.QueryRowContext(ctx,
		"SELECT data, version FROM executions WHERE domain = ? AND workflow_id = ? AND run_id = ?",
		domain, execution.WorkflowID, execution.RunID,
	).Scan(&data, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, backend.ErrExecutionNotFound
		}

		return nil, 0, fmt.Errorf("reading execution: %w", err)
	}

	var e local.Execution
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, 0, fmt.Errorf("unmarshaling execution: %w", err)
	}

	return &e, version, nil
}
