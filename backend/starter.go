package backend

import (
	"context"

	"github.com/cschleiden/swf-workers/core"
)

type ExecutionStatus int

const (
	ExecutionStatusOpen ExecutionStatus = iota
	ExecutionStatusCompleted
	ExecutionStatusFailed
	ExecutionStatusCanceled
	ExecutionStatusTerminated
	ExecutionStatusTimedOut
	ExecutionStatusContinuedAsNew
)

func (s ExecutionStatus) String() string {
	switch s {
	case ExecutionStatusOpen:
		return "OPEN"
	case ExecutionStatusCompleted:
		return "COMPLETED"
	case ExecutionStatusFailed:
		return "FAILED"
	case ExecutionStatusCanceled:
		return "CANCELED"
	case ExecutionStatusTerminated:
		return "TERMINATED"
	case ExecutionStatusTimedOut:
		return "TIMED_OUT"
	case ExecutionStatusContinuedAsNew:
		return "CONTINUED_AS_NEW"
	default:
		return "UNKNOWN"
	}
}

type StartWorkflowExecutionRequest struct {
	Domain core.Domain

	WorkflowID string

	WorkflowType core.WorkflowType

	TaskList core.TaskList

	Input string
}

type ExecutionDescription struct {
	Execution core.WorkflowExecution

	WorkflowType core.WorkflowType

	Status ExecutionStatus

	// Result is the result of a completed execution
	Result string
}

// Starter is implemented by backends that can start and describe workflow executions.
type Starter interface {
	StartWorkflowExecution(ctx context.Context, req *StartWorkflowExecutionRequest) (core.WorkflowExecution, error)

	// DescribeWorkflowExecution returns ErrExecutionNotFound for unknown executions
	DescribeWorkflowExecution(ctx context.Context, domain core.Domain, execution core.WorkflowExecution) (*ExecutionDescription, error)
}
