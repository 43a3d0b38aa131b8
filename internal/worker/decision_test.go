package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/cschleiden/swf-workers/backend"
	"github.com/cschleiden/swf-workers/core"
	"github.com/cschleiden/swf-workers/core/task"
	"github.com/cschleiden/swf-workers/decision"
	"github.com/cschleiden/swf-workers/history"
	"github.com/cschleiden/swf-workers/internal/workflowerrors"
)

var helloActivity = core.ActivityType{Name: "HelloActivity", Version: "1.0"}

func decisionOptions() *DecisionWorkerOptions {
	return &DecisionWorkerOptions{
		WorkerOptions: *testOptions(),
		TaskListOptions: TaskListOptions{
			Domain:   "domain",
			TaskList: "tasks",
			Identity: "worker-1",
		},
		WorkflowType:        "HelloWorkflow",
		ActivityType:        helloActivity,
		ActivityIDGenerator: func() string { return "activity-1" },
	}
}

func decisionTask(workflowType string, events ...history.Event) *task.Decision {
	for i := range events {
		events[i].ID = int64(i + 1)
	}

	return &task.Decision{
		Token:             "token-1",
		WorkflowType:      core.WorkflowType{Name: workflowType, Version: "1.0"},
		WorkflowExecution: core.NewWorkflowExecution("wf", "run"),
		Events:            events,
		StartedEventID:    int64(len(events)),
	}
}

func workflowStarted(input string) history.Event {
	return history.NewHistoryEvent(0, time.Now(), history.EventType_WorkflowExecutionStarted, &history.ExecutionStartedAttributes{
		WorkflowType: core.WorkflowType{Name: "HelloWorkflow", Version: "1.0"},
		Input:        input,
	})
}

func newDecisionTaskWorker(b backend.Backend, options *DecisionWorkerOptions) *DecisionTaskWorker {
	w := NewDecisionWorker(b, options)
	return w.tw.(*DecisionTaskWorker)
}

func TestDecisionTaskWorker_Get(t *testing.T) {
	t.Run("empty poll", func(t *testing.T) {
		b := createMockBackend(t)
		b.On("PollDecisionTask", mock.Anything, core.Domain("domain"), core.TaskList("tasks"), "worker-1").
			Return(&task.Decision{}, nil).Once()

		got, err := newDecisionTaskWorker(b, decisionOptions()).Get(context.Background())
		require.NoError(t, err)
		require.Nil(t, got)
	})

	t.Run("matching workflow type", func(t *testing.T) {
		b := createMockBackend(t)
		dt := decisionTask("HelloWorkflow", workflowStarted("X"))
		b.On("PollDecisionTask", mock.Anything, core.Domain("domain"), core.TaskList("tasks"), "worker-1").
			Return(dt, nil).Once()

		got, err := newDecisionTaskWorker(b, decisionOptions()).Get(context.Background())
		require.NoError(t, err)
		require.Equal(t, dt, got)
	})

	t.Run("other workflow type is skipped", func(t *testing.T) {
		b := createMockBackend(t)
		b.On("PollDecisionTask", mock.Anything, core.Domain("domain"), core.TaskList("tasks"), "worker-1").
			Return(decisionTask("OtherWorkflow", workflowStarted("X")), nil).Once()

		got, err := newDecisionTaskWorker(b, decisionOptions()).Get(context.Background())
		require.NoError(t, err)
		require.Nil(t, got)
	})

	t.Run("error", func(t *testing.T) {
		b := createMockBackend(t)
		b.On("PollDecisionTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("throttled")).Once()

		_, err := newDecisionTaskWorker(b, decisionOptions()).Get(context.Background())
		require.EqualError(t, err, "throttled")
	})
}

func TestDecisionTaskWorker_Execute(t *testing.T) {
	tests := []struct {
		name   string
		events []history.Event
		want   []decision.Decision
	}{
		{
			name:   "schedules activity",
			events: []history.Event{workflowStarted("X")},
			want:   []decision.Decision{decision.NewScheduleActivityTask(helloActivity, "activity-1", "X")},
		},
		{
			name: "waits for activity",
			events: []history.Event{
				workflowStarted("X"),
				history.NewHistoryEvent(0, time.Now(), history.EventType_ActivityTaskScheduled, &history.ActivityTaskScheduledAttributes{}),
			},
			want: []decision.Decision{},
		},
		{
			name: "completes workflow",
			events: []history.Event{
				workflowStarted("X"),
				history.NewHistoryEvent(0, time.Now(), history.EventType_ActivityTaskScheduled, &history.ActivityTaskScheduledAttributes{}),
				history.NewHistoryEvent(0, time.Now(), history.EventType_ActivityTaskStarted, &history.ActivityTaskStartedAttributes{}),
				history.NewHistoryEvent(0, time.Now(), history.EventType_ActivityTaskCompleted, &history.ActivityTaskCompletedAttributes{Result: "R"}),
			},
			want: []decision.Decision{decision.NewCompleteWorkflowExecution("R")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dw := newDecisionTaskWorker(createMockBackend(t), decisionOptions())

			result, err := dw.Execute(context.Background(), decisionTask("HelloWorkflow", tt.events...))
			require.NoError(t, err)
			require.Equal(t, tt.want, result.Decisions)
		})
	}
}

func TestDecisionTaskWorker_Execute_Panic(t *testing.T) {
	options := decisionOptions()
	options.ActivityIDGenerator = func() string { panic("no ids left") }

	dw := newDecisionTaskWorker(createMockBackend(t), options)

	result, err := dw.Execute(context.Background(), decisionTask("HelloWorkflow", workflowStarted("X")))
	require.Nil(t, result)

	var pe *workflowerrors.PanicError
	require.ErrorAs(t, err, &pe)
}

func TestDecisionTaskWorker_Complete(t *testing.T) {
	decisions := []decision.Decision{decision.NewCompleteWorkflowExecution("R")}

	t.Run("submits decisions", func(t *testing.T) {
		b := createMockBackend(t)
		b.On("RespondDecisionCompleted", mock.Anything, "token-1", decisions).Return(nil).Once()

		dw := newDecisionTaskWorker(b, decisionOptions())
		require.NoError(t, dw.Complete(context.Background(), &DecisionResult{Decisions: decisions}, decisionTask("HelloWorkflow")))
	})

	t.Run("submit error", func(t *testing.T) {
		b := createMockBackend(t)
		b.On("RespondDecisionCompleted", mock.Anything, "token-1", decisions).Return(backend.ErrUnknownTaskToken).Once()

		dw := newDecisionTaskWorker(b, decisionOptions())
		err := dw.Complete(context.Background(), &DecisionResult{Decisions: decisions}, decisionTask("HelloWorkflow"))
		require.ErrorIs(t, err, backend.ErrUnknownTaskToken)
	})
}

func TestDecisionWorker_Loop(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := createMockBackend(t)
	responded := make(chan struct{})

	b.On("PollDecisionTask", mock.Anything, core.Domain("domain"), core.TaskList("tasks"), "worker-1").
		Return(decisionTask("OtherWorkflow", workflowStarted("Y")), nil).Once()
	b.On("PollDecisionTask", mock.Anything, core.Domain("domain"), core.TaskList("tasks"), "worker-1").
		Return(decisionTask("HelloWorkflow", workflowStarted("X")), nil).Once()
	b.On("PollDecisionTask", mock.Anything, core.Domain("domain"), core.TaskList("tasks"), "worker-1").
		Return(&task.Decision{}, nil).After(time.Millisecond)
	b.On("RespondDecisionCompleted", mock.Anything, "token-1",
		[]decision.Decision{decision.NewScheduleActivityTask(helloActivity, "activity-1", "X")}).
		Run(func(args mock.Arguments) {
			close(responded)
		}).Return(nil).Once()

	w := NewDecisionWorker(b, decisionOptions())
	require.NoError(t, w.Start(context.Background()))

	<-responded

	w.Stop()
	require.NoError(t, w.WaitForCompletion())
	require.False(t, w.IsRunning())
}

func TestDecisionWorker_Loop_AbandonsFailedTasks(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := createMockBackend(t)
	secondTask := make(chan struct{})

	b.On("PollDecisionTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(decisionTask("HelloWorkflow", workflowStarted("X")), nil).Once()
	b.On("RespondDecisionCompleted", mock.Anything, "token-1", mock.Anything).
		Return(errors.New("validation error")).Once()
	b.On("PollDecisionTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			select {
			case <-secondTask:
			default:
				close(secondTask)
			}
		}).Return(&task.Decision{}, nil).After(time.Millisecond)

	w := NewDecisionWorker(b, decisionOptions())
	require.NoError(t, w.Start(context.Background()))

	<-secondTask
	require.True(t, w.IsRunning())

	w.Stop()
	require.NoError(t, w.WaitForCompletion())
	b.AssertNumberOfCalls(t, "RespondDecisionCompleted", 1)
}
