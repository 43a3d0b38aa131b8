package test

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/cschleiden/swf-workers/backend"
	"github.com/cschleiden/swf-workers/core"
	"github.com/cschleiden/swf-workers/core/task"
	"github.com/cschleiden/swf-workers/decision"
	"github.com/cschleiden/swf-workers/history"
)

const (
	domain   = core.Domain("test")
	identity = "test-worker"

	activityTaskTimeout = time.Second * 10
	decisionTaskTimeout = time.Second * 5
)

var (
	workflowType = core.WorkflowType{Name: "HelloWorkflow", Version: "1.0"}
	activityType = core.ActivityType{Name: "HelloActivity", Version: "1.0"}
)

func BackendTest(t *testing.T, setup func(opts ...backend.BackendOption) TestBackend, teardown func(b TestBackend)) {
	tests := []struct {
		name string
		f    func(t *testing.T, ctx context.Context, c *clock.Mock, b TestBackend)
	}{
		{
			name: "PollDecisionTask_ReturnsEmptyTaskWhenTimeout",
			f: func(t *testing.T, ctx context.Context, c *clock.Mock, b TestBackend) {
				dt, err := b.PollDecisionTask(ctx, domain, taskList(), identity)
				require.NoError(t, err)
				require.True(t, dt.Empty())
			},
		},
		{
			name: "PollActivityTask_ReturnsEmptyTaskWhenTimeout",
			f: func(t *testing.T, ctx context.Context, c *clock.Mock, b TestBackend) {
				at, err := b.PollActivityTask(ctx, domain, taskList(), identity)
				require.NoError(t, err)
				require.True(t, at.Empty())
			},
		},
		{
			name: "StartWorkflowExecution_SameOpenWorkflowIDErrors",
			f: func(t *testing.T, ctx context.Context, c *clock.Mock, b TestBackend) {
				tl := taskList()
				execution := startExecution(t, ctx, b, tl, "input")

				_, err := b.StartWorkflowExecution(ctx, &backend.StartWorkflowExecutionRequest{
					Domain:       domain,
					WorkflowID:   execution.WorkflowID,
					WorkflowType: workflowType,
					TaskList:     tl,
				})
				require.ErrorIs(t, err, backend.ErrExecutionAlreadyStarted)
			},
		},
		{
			name: "StartWorkflowExecution_InvalidTaskListErrors",
			f: func(t *testing.T, ctx context.Context, c *clock.Mock, b TestBackend) {
				_, err := b.StartWorkflowExecution(ctx, &backend.StartWorkflowExecutionRequest{
					Domain:       domain,
					WorkflowID:   uuid.NewString(),
					WorkflowType: workflowType,
					TaskList:     "task list",
				})
				require.Error(t, err)
			},
		},
		{
			name: "DescribeWorkflowExecution_UnknownExecution",
			f: func(t *testing.T, ctx context.Context, c *clock.Mock, b TestBackend) {
				_, err := b.DescribeWorkflowExecution(ctx, domain, core.NewWorkflowExecution(uuid.NewString(), ""))
				require.ErrorIs(t, err, backend.ErrExecutionNotFound)

				_, err = b.DescribeWorkflowExecution(ctx, domain, core.NewWorkflowExecution(uuid.NewString(), uuid.NewString()))
				require.ErrorIs(t, err, backend.ErrExecutionNotFound)
			},
		},
		{
			name: "DescribeWorkflowExecution_ReturnsOpenExecution",
			f: func(t *testing.T, ctx context.Context, c *clock.Mock, b TestBackend) {
				execution := startExecution(t, ctx, b, taskList(), "input")

				d, err := b.DescribeWorkflowExecution(ctx, domain, core.NewWorkflowExecution(execution.WorkflowID, ""))
				require.NoError(t, err)
				require.Equal(t, execution, d.Execution)
				require.Equal(t, workflowType, d.WorkflowType)
				require.Equal(t, backend.ExecutionStatusOpen, d.Status)
			},
		},
		{
			name: "PollDecisionTask_ReturnsHistory",
			f: func(t *testing.T, ctx context.Context, c *clock.Mock, b TestBackend) {
				tl := taskList()
				execution := startExecution(t, ctx, b, tl, "input")

				dt := pollDecisionTask(t, ctx, b, tl)
				require.Equal(t, execution, dt.WorkflowExecution)
				require.Equal(t, workflowType, dt.WorkflowType)
				require.Equal(t, int64(3), dt.StartedEventID)
				require.Zero(t, dt.PreviousStartedEventID)
				require.Equal(t, []history.EventType{
					history.EventType_WorkflowExecutionStarted,
					history.EventType_DecisionTaskScheduled,
					history.EventType_DecisionTaskStarted,
				}, eventTypes(dt.Events))

				for i, event := range dt.Events {
					require.Equal(t, int64(i+1), event.ID)
				}

				started, ok := dt.Events[0].Attributes.(*history.ExecutionStartedAttributes)
				require.True(t, ok)
				require.Equal(t, "input", started.Input)

				dtStarted, ok := dt.Events[2].Attributes.(*history.DecisionTaskStartedAttributes)
				require.True(t, ok)
				require.Equal(t, identity, dtStarted.Identity)
			},
		},
		{
			name: "PollDecisionTask_OnlyOneOutstandingTask",
			f: func(t *testing.T, ctx context.Context, c *clock.Mock, b TestBackend) {
				tl := taskList()
				startExecution(t, ctx, b, tl, "input")

				pollDecisionTask(t, ctx, b, tl)

				dt, err := b.PollDecisionTask(ctx, domain, tl, identity)
				require.NoError(t, err)
				require.True(t, dt.Empty())
			},
		},
		{
			name: "RespondDecisionCompleted_SchedulesActivityTask",
			f: func(t *testing.T, ctx context.Context, c *clock.Mock, b TestBackend) {
				tl := taskList()
				execution := startExecution(t, ctx, b, tl, "input")

				dt := pollDecisionTask(t, ctx, b, tl)
				require.NoError(t, b.RespondDecisionCompleted(ctx, dt.Token, []decision.Decision{
					decision.NewScheduleActivityTask(activityType, "a1", "input"),
				}))

				at := pollActivityTask(t, ctx, b, tl)
				require.Equal(t, "a1", at.ActivityID)
				require.Equal(t, activityType, at.ActivityType)
				require.Equal(t, execution, at.WorkflowExecution)
				require.Equal(t, "input", at.Input)

				events := getHistory(t, ctx, b, execution)
				require.Equal(t, []history.EventType{
					history.EventType_WorkflowExecutionStarted,
					history.EventType_DecisionTaskScheduled,
					history.EventType_DecisionTaskStarted,
					history.EventType_DecisionTaskCompleted,
					history.EventType_ActivityTaskScheduled,
					history.EventType_ActivityTaskStarted,
				}, eventTypes(events))
				require.Equal(t, events[5].ID, at.StartedEventID)

				scheduled := events[4].Attributes.(*history.ActivityTaskScheduledAttributes)
				require.Equal(t, "a1", scheduled.ActivityID)
				require.Equal(t, tl, scheduled.TaskList)
				require.Equal(t, int64(4), scheduled.DecisionTaskCompletedEventID)
			},
		},
		{
			name: "RespondDecisionCompleted_EmptyDecisions",
			f: func(t *testing.T, ctx context.Context, c *clock.Mock, b TestBackend) {
				tl := taskList()
				execution := startExecution(t, ctx, b, tl, "input")

				dt := pollDecisionTask(t, ctx, b, tl)
				require.NoError(t, b.RespondDecisionCompleted(ctx, dt.Token, []decision.Decision{}))

				d, err := b.DescribeWorkflowExecution(ctx, domain, execution)
				require.NoError(t, err)
				require.Equal(t, backend.ExecutionStatusOpen, d.Status)

				// Nothing happened, so nothing to decide
				next, err := b.PollDecisionTask(ctx, domain, tl, identity)
				require.NoError(t, err)
				require.True(t, next.Empty())
			},
		},
		{
			name: "RespondDecisionCompleted_TokenIsSingleUse",
			f: func(t *testing.T, ctx context.Context, c *clock.Mock, b TestBackend) {
				tl := taskList()
				startExecution(t, ctx, b, tl, "input")

				dt := pollDecisionTask(t, ctx, b, tl)
				require.NoError(t, b.RespondDecisionCompleted(ctx, dt.Token, []decision.Decision{}))

				err := b.RespondDecisionCompleted(ctx, dt.Token, []decision.Decision{})
				require.ErrorIs(t, err, backend.ErrUnknownTaskToken)

				err = b.RespondDecisionCompleted(ctx, uuid.NewString(), []decision.Decision{})
				require.ErrorIs(t, err, backend.ErrUnknownTaskToken)
			},
		},
		{
			name: "RespondDecisionCompleted_InvalidDecisionKeepsToken",
			f: func(t *testing.T, ctx context.Context, c *clock.Mock, b TestBackend) {
				tl := taskList()
				startExecution(t, ctx, b, tl, "input")

				dt := pollDecisionTask(t, ctx, b, tl)

				err := b.RespondDecisionCompleted(ctx, dt.Token, []decision.Decision{
					decision.NewScheduleActivityTask(activityType, "", "input"),
				})
				require.Error(t, err)
				require.NotErrorIs(t, err, backend.ErrUnknownTaskToken)

				require.NoError(t, b.RespondDecisionCompleted(ctx, dt.Token, []decision.Decision{
					decision.NewScheduleActivityTask(activityType, "a1", "input"),
				}))
			},
		},
		{
			name: "RespondDecisionCompleted_DuplicateActivityIDFails",
			f: func(t *testing.T, ctx context.Context, c *clock.Mock, b TestBackend) {
				tl := taskList()
				execution := startExecution(t, ctx, b, tl, "input")

				dt := pollDecisionTask(t, ctx, b, tl)
				require.NoError(t, b.RespondDecisionCompleted(ctx, dt.Token, []decision.Decision{
					decision.NewScheduleActivityTask(activityType, "a1", "input"),
					decision.NewScheduleActivityTask(activityType, "a1", "input"),
				}))

				// The failed schedule is reported to a new decision task
				dt = pollDecisionTask(t, ctx, b, tl)
				require.Equal(t, int64(3), dt.PreviousStartedEventID)

				events := getHistory(t, ctx, b, execution)
				require.Equal(t, history.EventType_ScheduleActivityTaskFailed, events[5].Type)

				failed := events[5].Attributes.(*history.ScheduleActivityTaskFailedAttributes)
				require.Equal(t, "a1", failed.ActivityID)
				require.Equal(t, history.CauseActivityIDAlreadyInUse, failed.Cause)
			},
		},
		{
			name: "RespondActivityCompleted_SchedulesDecisionTask",
			f: func(t *testing.T, ctx context.Context, c *clock.Mock, b TestBackend) {
				tl := taskList()
				execution := startExecution(t, ctx, b, tl, "input")

				dt := pollDecisionTask(t, ctx, b, tl)
				require.NoError(t, b.RespondDecisionCompleted(ctx, dt.Token, []decision.Decision{
					decision.NewScheduleActivityTask(activityType, "a1", "input"),
				}))

				at := pollActivityTask(t, ctx, b, tl)
				require.NoError(t, b.RespondActivityCompleted(ctx, at.Token, "result"))

				dt2 := pollDecisionTask(t, ctx, b, tl)
				require.Equal(t, dt.StartedEventID, dt2.PreviousStartedEventID)

				completed := findEvent(dt2.Events, history.EventType_ActivityTaskCompleted)
				require.NotNil(t, completed)

				attrs := completed.Attributes.(*history.ActivityTaskCompletedAttributes)
				require.Equal(t, "result", attrs.Result)
				require.Equal(t, at.StartedEventID, attrs.StartedEventID)

				require.NoError(t, b.RespondDecisionCompleted(ctx, dt2.Token, []decision.Decision{
					decision.NewCompleteWorkflowExecution("result"),
				}))

				d, err := b.DescribeWorkflowExecution(ctx, domain, execution)
				require.NoError(t, err)
				require.Equal(t, backend.ExecutionStatusCompleted, d.Status)
				require.Equal(t, "result", d.Result)

				events := getHistory(t, ctx, b, execution)
				last := events[len(events)-1]
				require.Equal(t, history.EventType_WorkflowExecutionCompleted, last.Type)
				require.Equal(t, "result", last.Attributes.(*history.ExecutionCompletedAttributes).Result)
			},
		},
		{
			name: "RespondActivityFailed_SchedulesDecisionTask",
			f: func(t *testing.T, ctx context.Context, c *clock.Mock, b TestBackend) {
				tl := taskList()
				startExecution(t, ctx, b, tl, "input")

				dt := pollDecisionTask(t, ctx, b, tl)
				require.NoError(t, b.RespondDecisionCompleted(ctx, dt.Token, []decision.Decision{
					decision.NewScheduleActivityTask(activityType, "a1", "input"),
				}))

				at := pollActivityTask(t, ctx, b, tl)
				require.NoError(t, b.RespondActivityFailed(ctx, at.Token, "InvalidDelayError", "invalid delay: -5"))

				err := b.RespondActivityCompleted(ctx, at.Token, "result")
				require.ErrorIs(t, err, backend.ErrUnknownTaskToken)

				dt = pollDecisionTask(t, ctx, b, tl)

				failed := findEvent(dt.Events, history.EventType_ActivityTaskFailed)
				require.NotNil(t, failed)

				attrs := failed.Attributes.(*history.ActivityTaskFailedAttributes)
				require.Equal(t, "InvalidDelayError", attrs.Reason)
				require.Equal(t, "invalid delay: -5", attrs.Details)
			},
		},
		{
			name: "RespondActivityCompleted_DecisionTokenIsUnknown",
			f: func(t *testing.T, ctx context.Context, c *clock.Mock, b TestBackend) {
				tl := taskList()
				startExecution(t, ctx, b, tl, "input")

				dt := pollDecisionTask(t, ctx, b, tl)

				err := b.RespondActivityCompleted(ctx, dt.Token, "result")
				require.ErrorIs(t, err, backend.ErrUnknownTaskToken)

				require.NoError(t, b.RespondDecisionCompleted(ctx, dt.Token, []decision.Decision{}))
			},
		},
		{
			name: "ActivityEvents_ScheduleOneDecisionTask",
			f: func(t *testing.T, ctx context.Context, c *clock.Mock, b TestBackend) {
				tl := taskList()
				startExecution(t, ctx, b, tl, "input")

				dt := pollDecisionTask(t, ctx, b, tl)
				require.NoError(t, b.RespondDecisionCompleted(ctx, dt.Token, []decision.Decision{
					decision.NewScheduleActivityTask(activityType, "a1", "input"),
					decision.NewScheduleActivityTask(activityType, "a2", "input"),
				}))

				at1 := pollActivityTask(t, ctx, b, tl)
				at2 := pollActivityTask(t, ctx, b, tl)
				require.NoError(t, b.RespondActivityCompleted(ctx, at1.Token, "r1"))
				require.NoError(t, b.RespondActivityCompleted(ctx, at2.Token, "r2"))

				dt = pollDecisionTask(t, ctx, b, tl)
				require.Len(t, findEvents(dt.Events, history.EventType_ActivityTaskCompleted), 2)

				next, err := b.PollDecisionTask(ctx, domain, tl, identity)
				require.NoError(t, err)
				require.True(t, next.Empty())
			},
		},
		{
			name: "ActivityEvents_ScheduleFollowUpDecisionTask",
			f: func(t *testing.T, ctx context.Context, c *clock.Mock, b TestBackend) {
				tl := taskList()
				startExecution(t, ctx, b, tl, "input")

				dt := pollDecisionTask(t, ctx, b, tl)
				require.NoError(t, b.RespondDecisionCompleted(ctx, dt.Token, []decision.Decision{
					decision.NewScheduleActivityTask(activityType, "a1", "input"),
					decision.NewScheduleActivityTask(activityType, "a2", "input"),
				}))

				at1 := pollActivityTask(t, ctx, b, tl)
				at2 := pollActivityTask(t, ctx, b, tl)
				require.NoError(t, b.RespondActivityCompleted(ctx, at1.Token, "r1"))

				dt = pollDecisionTask(t, ctx, b, tl)
				require.Len(t, findEvents(dt.Events, history.EventType_ActivityTaskCompleted), 1)

				// Completes while the decision task is started
				require.NoError(t, b.RespondActivityCompleted(ctx, at2.Token, "r2"))
				require.NoError(t, b.RespondDecisionCompleted(ctx, dt.Token, []decision.Decision{}))

				dt = pollDecisionTask(t, ctx, b, tl)
				require.Len(t, findEvents(dt.Events, history.EventType_ActivityTaskCompleted), 2)
			},
		},
		{
			name: "ActivityTask_TimesOut",
			f: func(t *testing.T, ctx context.Context, c *clock.Mock, b TestBackend) {
				tl := taskList()
				execution := startExecution(t, ctx, b, tl, "input")

				dt := pollDecisionTask(t, ctx, b, tl)
				require.NoError(t, b.RespondDecisionCompleted(ctx, dt.Token, []decision.Decision{
					decision.NewScheduleActivityTask(activityType, "a1", "input"),
				}))

				at := pollActivityTask(t, ctx, b, tl)

				c.Add(activityTaskTimeout + time.Second)
				expireTasks(t, ctx, b, execution, history.EventType_ActivityTaskTimedOut)

				err := b.RespondActivityCompleted(ctx, at.Token, "result")
				require.ErrorIs(t, err, backend.ErrUnknownTaskToken)

				dt = pollDecisionTask(t, ctx, b, tl)

				timedOut := findEvent(dt.Events, history.EventType_ActivityTaskTimedOut)
				attrs := timedOut.Attributes.(*history.ActivityTaskTimedOutAttributes)
				require.Equal(t, history.TimeoutTypeStartToClose, attrs.TimeoutType)
				require.Equal(t, at.StartedEventID, attrs.StartedEventID)
			},
		},
		{
			name: "ActivityTask_DoesNotTimeOutBeforeLeaseExpires",
			f: func(t *testing.T, ctx context.Context, c *clock.Mock, b TestBackend) {
				tl := taskList()
				startExecution(t, ctx, b, tl, "input")

				dt := pollDecisionTask(t, ctx, b, tl)
				require.NoError(t, b.RespondDecisionCompleted(ctx, dt.Token, []decision.Decision{
					decision.NewScheduleActivityTask(activityType, "a1", "input"),
				}))

				at := pollActivityTask(t, ctx, b, tl)

				c.Add(activityTaskTimeout / 2)
				require.NoError(t, b.ExpireTasks(ctx))

				require.NoError(t, b.RespondActivityCompleted(ctx, at.Token, "result"))
			},
		},
		{
			name: "DecisionTask_TimesOut",
			f: func(t *testing.T, ctx context.Context, c *clock.Mock, b TestBackend) {
				tl := taskList()
				execution := startExecution(t, ctx, b, tl, "input")

				dt := pollDecisionTask(t, ctx, b, tl)

				c.Add(decisionTaskTimeout + time.Second)
				expireTasks(t, ctx, b, execution, history.EventType_DecisionTaskTimedOut)

				err := b.RespondDecisionCompleted(ctx, dt.Token, []decision.Decision{})
				require.ErrorIs(t, err, backend.ErrUnknownTaskToken)

				dt2 := pollDecisionTask(t, ctx, b, tl)
				require.NotEqual(t, dt.Token, dt2.Token)
				require.Equal(t, []history.EventType{
					history.EventType_WorkflowExecutionStarted,
					history.EventType_DecisionTaskScheduled,
					history.EventType_DecisionTaskStarted,
					history.EventType_DecisionTaskTimedOut,
					history.EventType_DecisionTaskScheduled,
					history.EventType_DecisionTaskStarted,
				}, eventTypes(dt2.Events))
			},
		},
		{
			name: "ClosedExecution_DropsTasks",
			f: func(t *testing.T, ctx context.Context, c *clock.Mock, b TestBackend) {
				tl := taskList()
				startExecution(t, ctx, b, tl, "input")

				dt := pollDecisionTask(t, ctx, b, tl)
				require.NoError(t, b.RespondDecisionCompleted(ctx, dt.Token, []decision.Decision{
					decision.NewScheduleActivityTask(activityType, "a1", "input"),
					decision.NewCompleteWorkflowExecution("done"),
				}))

				at, err := b.PollActivityTask(ctx, domain, tl, identity)
				require.NoError(t, err)
				require.True(t, at.Empty())
			},
		},
		{
			name: "StartWorkflowExecution_ReusesClosedWorkflowID",
			f: func(t *testing.T, ctx context.Context, c *clock.Mock, b TestBackend) {
				tl := taskList()
				execution := startExecution(t, ctx, b, tl, "input")

				dt := pollDecisionTask(t, ctx, b, tl)
				require.NoError(t, b.RespondDecisionCompleted(ctx, dt.Token, []decision.Decision{
					decision.NewCompleteWorkflowExecution("done"),
				}))

				next, err := b.StartWorkflowExecution(ctx, &backend.StartWorkflowExecutionRequest{
					Domain:       domain,
					WorkflowID:   execution.WorkflowID,
					WorkflowType: workflowType,
					TaskList:     tl,
				})
				require.NoError(t, err)
				require.NotEqual(t, execution.RunID, next.RunID)

				d, err := b.DescribeWorkflowExecution(ctx, domain, core.NewWorkflowExecution(execution.WorkflowID, ""))
				require.NoError(t, err)
				require.Equal(t, next, d.Execution)
				require.Equal(t, backend.ExecutionStatusOpen, d.Status)

				d, err = b.DescribeWorkflowExecution(ctx, domain, execution)
				require.NoError(t, err)
				require.Equal(t, backend.ExecutionStatusCompleted, d.Status)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := clock.NewMock()
			c.Set(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

			b := setup(
				backend.WithClock(c),
				backend.WithPollTimeout(time.Millisecond*200),
				backend.WithActivityTaskTimeout(activityTaskTimeout),
				backend.WithDecisionTaskTimeout(decisionTaskTimeout),
			)
			ctx := context.Background()

			tt.f(t, ctx, c, b)

			if teardown != nil {
				teardown(b)
			}
		})
	}
}

// taskList returns a task list not shared with any other test
func taskList() core.TaskList {
	return core.TaskList("tasks-" + uuid.NewString())
}

func startExecution(t *testing.T, ctx context.Context, b TestBackend, tl core.TaskList, input string) core.WorkflowExecution {
	execution, err := b.StartWorkflowExecution(ctx, &backend.StartWorkflowExecutionRequest{
		Domain:       domain,
		WorkflowID:   uuid.NewString(),
		WorkflowType: workflowType,
		TaskList:     tl,
		Input:        input,
	})
	require.NoError(t, err)
	require.NotEmpty(t, execution.RunID)

	return execution
}

func pollDecisionTask(t *testing.T, ctx context.Context, b TestBackend, tl core.TaskList) *task.Decision {
	dt, err := b.PollDecisionTask(ctx, domain, tl, identity)
	require.NoError(t, err)
	require.False(t, dt.Empty(), "expected decision task")

	return dt
}

func pollActivityTask(t *testing.T, ctx context.Context, b TestBackend, tl core.TaskList) *task.Activity {
	at, err := b.PollActivityTask(ctx, domain, tl, identity)
	require.NoError(t, err)
	require.False(t, at.Empty(), "expected activity task")

	return at
}

func getHistory(t *testing.T, ctx context.Context, b TestBackend, execution core.WorkflowExecution) []history.Event {
	events, err := b.GetWorkflowExecutionHistory(ctx, domain, execution)
	require.NoError(t, err)

	return events
}

// expireTasks expires tasks until the given event shows up. The backend's own reaper might pick
// up an expired lease first.
func expireTasks(t *testing.T, ctx context.Context, b TestBackend, execution core.WorkflowExecution, eventType history.EventType) {
	require.Eventually(t, func() bool {
		if err := b.ExpireTasks(ctx); err != nil {
			return false
		}

		events, err := b.GetWorkflowExecutionHistory(ctx, domain, execution)
		if err != nil {
			return false
		}

		return findEvent(events, eventType) != nil
	}, time.Second*5, time.Millisecond*10)
}

func eventTypes(events []history.Event) []history.EventType {
	types := make([]history.EventType, 0, len(events))
	for _, event := range events {
		types = append(types, event.Type)
	}

	return types
}

func findEvent(events []history.Event, eventType history.EventType) *history.Event {
	for i := range events {
		if events[i].Type == eventType {
			return &events[i]
		}
	}

	return nil
}

func findEvents(events []history.Event, eventType history.EventType) []history.Event {
	var r []history.Event
	for _, event := range events {
		if event.Type == eventType {
			r = append(r, event)
		}
	}

	return r
}
