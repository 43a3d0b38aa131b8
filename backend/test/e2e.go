package test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/cschleiden/swf-workers/activity"
	"github.com/cschleiden/swf-workers/backend"
	"github.com/cschleiden/swf-workers/client"
	"github.com/cschleiden/swf-workers/core"
	"github.com/cschleiden/swf-workers/history"
	"github.com/cschleiden/swf-workers/worker"
)

func EndToEndBackendTest(t *testing.T, setup func(opts ...backend.BackendOption) TestBackend, teardown func(b TestBackend)) {
	tests := []struct {
		name string
		f    func(t *testing.T, ctx context.Context, b TestBackend, c *client.Client, start func(activity.Activity, *worker.Options) *worker.Worker)
	}{
		{
			name: "DelayWorkflow",
			f: func(t *testing.T, ctx context.Context, b TestBackend, c *client.Client, start func(activity.Activity, *worker.Options) *worker.Worker) {
				options := workerOptions()
				start(activity.NewDelayActivity(clock.New()), options)

				execution := runWorkflow(t, ctx, c, options, `{"delay":"5"}`)

				result, err := c.GetWorkflowResult(ctx, domain, execution, time.Second*10)
				require.NoError(t, err)
				require.Equal(t, `Executed, {"delay":"5"}!`, result)

				events := getHistory(t, ctx, b, execution)
				require.Len(t, findEvents(events, history.EventType_ActivityTaskScheduled), 1)
				require.Len(t, findEvents(events, history.EventType_DecisionTaskCompleted), 2)
			},
		},
		{
			name: "FailedActivityIsScheduledAgain",
			f: func(t *testing.T, ctx context.Context, b TestBackend, c *client.Client, start func(activity.Activity, *worker.Options) *worker.Worker) {
				var calls int32
				a := func(ctx context.Context, input string) (string, error) {
					if atomic.AddInt32(&calls, 1) == 1 {
						return "", errors.New("try again")
					}

					return "done: " + input, nil
				}

				options := workerOptions()
				start(a, options)

				execution := runWorkflow(t, ctx, c, options, "input")

				result, err := c.GetWorkflowResult(ctx, domain, execution, time.Second*10)
				require.NoError(t, err)
				require.Equal(t, "done: input", result)
				require.Equal(t, int32(2), atomic.LoadInt32(&calls))

				events := getHistory(t, ctx, b, execution)
				require.Len(t, findEvents(events, history.EventType_ActivityTaskScheduled), 2)

				failed := findEvent(events, history.EventType_ActivityTaskFailed)
				require.NotNil(t, failed)

				attrs := failed.Attributes.(*history.ActivityTaskFailedAttributes)
				require.Equal(t, "Error", attrs.Reason)
				require.Equal(t, "try again", attrs.Details)
			},
		},
		{
			name: "ActivityPanicIsReportedAsFailure",
			f: func(t *testing.T, ctx context.Context, b TestBackend, c *client.Client, start func(activity.Activity, *worker.Options) *worker.Worker) {
				var calls int32
				a := func(ctx context.Context, input string) (string, error) {
					if atomic.AddInt32(&calls, 1) == 1 {
						panic("oh no")
					}

					return input, nil
				}

				options := workerOptions()
				w := start(a, options)

				execution := runWorkflow(t, ctx, c, options, "input")

				result, err := c.GetWorkflowResult(ctx, domain, execution, time.Second*10)
				require.NoError(t, err)
				require.Equal(t, "input", result)
				require.True(t, w.Activities().IsRunning())

				failed := findEvent(getHistory(t, ctx, b, execution), history.EventType_ActivityTaskFailed)
				require.NotNil(t, failed)
				require.Equal(t, "PanicError", failed.Attributes.(*history.ActivityTaskFailedAttributes).Reason)
			},
		},
		{
			name: "ConcurrentWorkflows",
			f: func(t *testing.T, ctx context.Context, b TestBackend, c *client.Client, start func(activity.Activity, *worker.Options) *worker.Worker) {
				options := workerOptions()
				start(activity.NewDelayActivity(clock.New()), options)

				executions := make([]core.WorkflowExecution, 0, 5)
				for i := 0; i < 5; i++ {
					executions = append(executions, runWorkflow(t, ctx, c, options, `{"delay":"1"}`))
				}

				for _, execution := range executions {
					result, err := c.GetWorkflowResult(ctx, domain, execution, time.Second*10)
					require.NoError(t, err)
					require.Equal(t, `Executed, {"delay":"1"}!`, result)
				}
			},
		},
		{
			name: "OtherWorkflowTypesAreSkipped",
			f: func(t *testing.T, ctx context.Context, b TestBackend, c *client.Client, start func(activity.Activity, *worker.Options) *worker.Worker) {
				options := workerOptions()
				start(activity.NewDelayActivity(clock.New()), options)

				execution, err := c.StartWorkflowExecution(ctx, client.StartOptions{
					Domain:       domain,
					WorkflowType: core.WorkflowType{Name: "OtherWorkflow", Version: "1.0"},
					TaskList:     options.TaskList,
					Input:        `{"delay":"1"}`,
				})
				require.NoError(t, err)

				_, err = c.WaitForWorkflowExecution(ctx, domain, execution, time.Millisecond*500)
				require.ErrorIs(t, err, client.ErrTimeout)

				events := getHistory(t, ctx, b, execution)
				require.Empty(t, findEvents(events, history.EventType_DecisionTaskCompleted))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := setup(backend.WithPollTimeout(time.Millisecond * 100))
			ctx, cancel := context.WithCancel(context.Background())

			c := client.New(b)

			var workers []*worker.Worker
			start := func(a activity.Activity, options *worker.Options) *worker.Worker {
				w := worker.New(b, a, options)
				require.NoError(t, w.Start(ctx))
				workers = append(workers, w)

				return w
			}

			tt.f(t, ctx, b, c, start)

			cancel()
			for _, w := range workers {
				require.NoError(t, w.WaitForCompletion(), "worker did not stop cleanly")
			}

			if teardown != nil {
				teardown(b)
			}
		})
	}
}

func workerOptions() *worker.Options {
	options := worker.DefaultOptions
	options.Domain = domain
	options.TaskList = taskList()
	options.Identity = identity
	options.ActivityType = activityType
	options.WorkflowType = workflowType.Name
	options.PollRetry = worker.PollRetryOptions{
		InitialInterval: time.Millisecond * 10,
		MaxInterval:     time.Millisecond * 100,
		MaxElapsedTime:  time.Second * 5,
	}
	options.RespondRetryInterval = time.Millisecond * 10

	return &options
}

func runWorkflow(t *testing.T, ctx context.Context, c *client.Client, options *worker.Options, input string) core.WorkflowExecution {
	execution, err := c.StartWorkflowExecution(ctx, client.StartOptions{
		Domain:       domain,
		WorkflowID:   uuid.NewString(),
		WorkflowType: workflowType,
		TaskList:     options.TaskList,
		Input:        input,
	})
	require.NoError(t, err)

	return execution
}
