package worker

import (
	"time"

	"github.com/cschleiden/swf-workers/core"
)

// PollRetryOptions configures the exponential backoff applied to failing polls. Once
// MaxElapsedTime has passed without a successful poll, the worker stops with the last error.
// A MaxElapsedTime of 0 retries forever.
type PollRetryOptions struct {
	InitialInterval time.Duration

	MaxInterval time.Duration

	MaxElapsedTime time.Duration
}

type WorkerOptions struct {
	// Name identifies the loop in logs and metrics
	Name string

	PollRetry PollRetryOptions
}

type TaskListOptions struct {
	Domain core.Domain

	TaskList core.TaskList

	// Identity is reported to the orchestrator with every poll
	Identity string
}

type ActivityWorkerOptions struct {
	WorkerOptions
	TaskListOptions

	// RespondRetries is the number of retries for reporting an activity outcome
	RespondRetries int

	RespondRetryInterval time.Duration
}

type DecisionWorkerOptions struct {
	WorkerOptions
	TaskListOptions

	// WorkflowType is the name of the workflow type handled by the worker, decision tasks for
	// other types are skipped
	WorkflowType string

	ActivityType core.ActivityType

	// ActivityIDGenerator overrides the generator for the ids of scheduled activities
	ActivityIDGenerator func() string
}
