package worker

import (
	"fmt"
	"os"
	"time"

	"github.com/cschleiden/swf-workers/core"
	internal "github.com/cschleiden/swf-workers/internal/worker"
)

type PollRetryOptions = internal.PollRetryOptions

type Options struct {
	Domain core.Domain

	TaskList core.TaskList

	// Identity is reported to the orchestrator with every poll. Defaults to hostname:pid.
	Identity string

	// ActivityType is the activity type scheduled by the decision worker
	ActivityType core.ActivityType

	// WorkflowType is the name of the workflow type the decision worker handles. Decision tasks for
	// other workflow types are skipped.
	WorkflowType string

	// PollRetry configures retries of failing polls. When MaxElapsedTime passes without a
	// successful poll, the loop stops and reports the error. Defaults to retrying for 10 minutes.
	PollRetry PollRetryOptions

	// RespondRetries is the number of retries for reporting an activity outcome. Defaults to 3,
	// negative values disable retries.
	RespondRetries int

	// RespondRetryInterval is the interval between response retries. Defaults to 1 second.
	RespondRetryInterval time.Duration

	// ActivityIDGenerator generates the ids of scheduled activities. Defaults to random UUIDs.
	ActivityIDGenerator func() string
}

var DefaultOptions = Options{
	PollRetry: PollRetryOptions{
		InitialInterval: time.Second,
		MaxInterval:     time.Minute,
		MaxElapsedTime:  10 * time.Minute,
	},

	RespondRetries:       3,
	RespondRetryInterval: time.Second,
}

func (o *Options) withDefaults() *Options {
	opts := DefaultOptions
	if o != nil {
		opts = *o
	}

	if opts.Identity == "" {
		opts.Identity = defaultIdentity()
	}

	if opts.PollRetry == (PollRetryOptions{}) {
		opts.PollRetry = DefaultOptions.PollRetry
	}

	if opts.RespondRetries < 0 {
		opts.RespondRetries = 0
	}

	if opts.RespondRetryInterval == 0 {
		opts.RespondRetryInterval = DefaultOptions.RespondRetryInterval
	}

	return &opts
}

func defaultIdentity() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}

	return fmt.Sprintf("%s:%d", host, os.Getpid())
}
