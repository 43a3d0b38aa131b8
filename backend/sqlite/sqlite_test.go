package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/cschleiden/swf-workers/backend"
	"github.com/cschleiden/swf-workers/backend/test"
	"github.com/cschleiden/swf-workers/core"
)

func Test_SqliteBackend(t *testing.T) {
	test.BackendTest(t, func(options ...backend.BackendOption) test.TestBackend {
		b, err := NewInMemoryBackend(WithBackendOptions(options...))
		if err != nil {
			panic(err)
		}

		return b
	}, closeBackend)
}

func Test_EndToEndSqliteBackend(t *testing.T) {
	test.EndToEndBackendTest(t, func(options ...backend.BackendOption) test.TestBackend {
		b, err := NewInMemoryBackend(WithBackendOptions(options...))
		if err != nil {
			panic(err)
		}

		return b
	}, closeBackend)
}

func Test_SqliteBackend_FilePersistsExecutions(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), uuid.NewString()+".sqlite")

	b, err := NewSqliteBackend(path)
	require.NoError(t, err)

	execution, err := b.StartWorkflowExecution(ctx, &backend.StartWorkflowExecutionRequest{
		Domain:       "test",
		WorkflowID:   "wf",
		WorkflowType: core.WorkflowType{Name: "HelloWorkflow", Version: "1.0"},
		TaskList:     "tasks",
		Input:        "input",
	})
	require.NoError(t, err)
	require.NoError(t, b.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)

	// Migrations are only applied once
	b, err = NewSqliteBackend(path)
	require.NoError(t, err)
	defer b.Close()

	d, err := b.DescribeWorkflowExecution(ctx, "test", execution)
	require.NoError(t, err)
	require.Equal(t, backend.ExecutionStatusOpen, d.Status)

	dt, err := b.PollDecisionTask(ctx, "test", "tasks", "worker")
	require.NoError(t, err)
	require.Equal(t, execution, dt.WorkflowExecution)
}

func closeBackend(b test.TestBackend) {
	if err := b.Close(); err != nil {
		panic(err)
	}
}
