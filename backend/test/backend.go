package test

import (
	"context"

	"github.com/cschleiden/swf-workers/backend"
	"github.com/cschleiden/swf-workers/core"
	"github.com/cschleiden/swf-workers/history"
)

// TestBackend is a backend that can start executions and expose their state to the test suites.
type TestBackend interface {
	backend.Backend
	backend.Starter

	GetWorkflowExecutionHistory(ctx context.Context, domain core.Domain, execution core.WorkflowExecution) ([]history.Event, error)

	// ExpireTasks times out all started tasks whose lease has expired
	ExpireTasks(ctx context.Context) error
}
