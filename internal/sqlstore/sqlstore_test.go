package sqlstore_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/cschleiden/swf-workers/backend"
	"github.com/cschleiden/swf-workers/backend/local"
	"github.com/cschleiden/swf-workers/backend/sqlite"
	"github.com/cschleiden/swf-workers/core"
	"github.com/cschleiden/swf-workers/internal/sqlstore"
)

func newStore(t *testing.T) local.Store {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	require.NoError(t, sqlite.Migrate(db))

	s := sqlstore.New(db, sqlstore.Dialect{Name: "sqlite"}, sqlstore.DefaultOptions)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})

	return s
}

func Test_UpdateExecution_RetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	execution := core.NewWorkflowExecution("wf", "run")
	require.NoError(t, s.CreateExecution(ctx, &local.Execution{Domain: "test", Execution: execution, CreatedAt: time.Now()}))

	calls := 0
	err := s.UpdateExecution(ctx, "test", execution, func(e *local.Execution) error {
		calls++

		if calls == 1 {
			// Concurrent update
			require.NoError(t, s.UpdateExecution(ctx, "test", execution, func(e *local.Execution) error {
				e.Result = "concurrent"
				return nil
			}))
		}

		e.Result += "+mine"
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)

	e, err := s.GetExecution(ctx, "test", core.NewWorkflowExecution("wf", ""))
	require.NoError(t, err)
	require.Equal(t, "concurrent+mine", e.Result)
}

func Test_CreateExecution_OpenRunErrors(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	first := &local.Execution{Domain: "test", Execution: core.NewWorkflowExecution("wf", "run-1"), CreatedAt: time.Now()}
	require.NoError(t, s.CreateExecution(ctx, first))

	second := &local.Execution{Domain: "test", Execution: core.NewWorkflowExecution("wf", "run-2"), CreatedAt: time.Now()}
	require.ErrorIs(t, s.CreateExecution(ctx, second), backend.ErrExecutionAlreadyStarted)

	require.NoError(t, s.UpdateExecution(ctx, "test", first.Execution, func(e *local.Execution) error {
		e.Status = backend.ExecutionStatusCompleted
		return nil
	}))

	require.NoError(t, s.CreateExecution(ctx, second))

	e, err := s.GetExecution(ctx, "test", core.NewWorkflowExecution("wf", ""))
	require.NoError(t, err)
	require.Equal(t, "run-2", e.Execution.RunID)
}

func Test_Dequeue_FIFO(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	q := local.Queue{Kind: local.TaskKindActivity, Domain: "test", TaskList: "tasks"}
	other := local.Queue{Kind: local.TaskKindDecision, Domain: "test", TaskList: "tasks"}

	execution := core.NewWorkflowExecution("wf", "run")
	require.NoError(t, s.CreateExecution(ctx, &local.Execution{
		Domain:    "test",
		Execution: execution,
		CreatedAt: time.Now(),
		Scheduled: []local.ScheduledTask{
			{Queue: q, Task: local.QueuedTask{ActivityID: "a1"}},
			{Queue: other, Task: local.QueuedTask{ScheduledEventID: 2}},
		},
	}))

	require.NoError(t, s.UpdateExecution(ctx, "test", execution, func(e *local.Execution) error {
		e.Scheduled = append(e.Scheduled, local.ScheduledTask{Queue: q, Task: local.QueuedTask{ActivityID: "a2"}})
		return nil
	}))

	for _, id := range []string{"a1", "a2"} {
		qt, err := s.Dequeue(ctx, q)
		require.NoError(t, err)
		require.Equal(t, id, qt.ActivityID)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Millisecond*100)
	defer cancel()

	qt, err := s.Dequeue(ctx, q)
	require.NoError(t, err)
	require.Nil(t, qt)
}

func Test_UpdateExecution_ErrorDiscardsScheduledTasks(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	q := local.Queue{Kind: local.TaskKindDecision, Domain: "test", TaskList: "tasks"}
	execution := core.NewWorkflowExecution("wf", "run")
	require.NoError(t, s.CreateExecution(ctx, &local.Execution{Domain: "test", Execution: execution, CreatedAt: time.Now()}))

	err := s.UpdateExecution(ctx, "test", execution, func(e *local.Execution) error {
		e.Scheduled = append(e.Scheduled, local.ScheduledTask{Queue: q, Task: local.QueuedTask{ScheduledEventID: 2}})
		return backend.ErrUnknownTaskToken
	})
	require.ErrorIs(t, err, backend.ErrUnknownTaskToken)

	ctx, cancel := context.WithTimeout(ctx, time.Millisecond*100)
	defer cancel()

	qt, err := s.Dequeue(ctx, q)
	require.NoError(t, err)
	require.Nil(t, qt)
}

func Test_Leases(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	now := time.Now()

	require.NoError(t, s.Lease(ctx, &local.Lease{Token: "t1", Kind: local.TaskKindActivity, ExpiresAt: now}))
	require.NoError(t, s.Lease(ctx, &local.Lease{Token: "t2", Kind: local.TaskKindDecision, ExpiresAt: now.Add(time.Minute)}))

	expired, err := s.Expired(ctx, now)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	require.Equal(t, "t1", expired[0].Token)

	_, err = s.Release(ctx, "t1")
	require.ErrorIs(t, err, backend.ErrUnknownTaskToken)

	l, err := s.Release(ctx, "t2")
	require.NoError(t, err)
	require.Equal(t, local.TaskKindDecision, l.Kind)
}
