package activity

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/cschleiden/swf-workers/core"
	"github.com/cschleiden/swf-workers/core/task"
)

type customError struct{}

func (customError) Error() string { return "custom failure" }

func newTestExecutor(a Activity) *Executor {
	return NewExecutor(slog.Default(), noop.NewTracerProvider().Tracer("test"), a)
}

func TestExecutor_Execute(t *testing.T) {
	tests := []struct {
		name     string
		activity Activity
		outcome  Outcome
	}{
		{
			name: "result",
			activity: func(ctx context.Context, input string) (string, error) {
				return "hello " + input, nil
			},
			outcome: Outcome{Result: "hello swf"},
		},
		{
			name: "empty result",
			activity: func(ctx context.Context, input string) (string, error) {
				return "", nil
			},
			outcome: Outcome{},
		},
		{
			name: "anonymous error",
			activity: func(ctx context.Context, input string) (string, error) {
				return "", errors.New("boom")
			},
			outcome: Outcome{Failure: &Failure{Reason: "Error", Details: "boom"}},
		},
		{
			name: "typed error",
			activity: func(ctx context.Context, input string) (string, error) {
				return "partial", customError{}
			},
			outcome: Outcome{Failure: &Failure{Reason: "customError", Details: "custom failure"}},
		},
		{
			name: "panic",
			activity: func(ctx context.Context, input string) (string, error) {
				panic("oh no")
			},
			outcome: Outcome{Failure: &Failure{Reason: "PanicError", Details: "panic: oh no"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestExecutor(tt.activity)

			outcome := e.Execute(context.Background(), "swf")
			require.Equal(t, tt.outcome, outcome)
			require.Equal(t, tt.outcome.Failure != nil, outcome.Failed())
		})
	}
}

func TestExecutor_ExecuteTask(t *testing.T) {
	var gotID string
	var gotLogger *slog.Logger

	e := newTestExecutor(func(ctx context.Context, input string) (string, error) {
		gotID = ID(ctx)
		gotLogger = Logger(ctx)
		return input, nil
	})

	outcome := e.ExecuteTask(context.Background(), &task.Activity{
		Token:             "token",
		ActivityID:        "activity-1",
		ActivityType:      core.ActivityType{Name: "delay", Version: "1.0"},
		WorkflowExecution: core.NewWorkflowExecution("wf", "run"),
		Input:             "input",
	})

	require.Equal(t, Outcome{Result: "input"}, outcome)
	require.Equal(t, "activity-1", gotID)
	require.NotNil(t, gotLogger)
}

func TestExecutor_ExecuteTask_DelayActivityFailure(t *testing.T) {
	e := newTestExecutor(NewDelayActivity(clock.NewMock()))

	outcome := e.ExecuteTask(context.Background(), &task.Activity{
		Token:      "token",
		ActivityID: "activity-1",
		Input:      `{"delay":"-5"}`,
	})

	require.True(t, outcome.Failed())
	require.Equal(t, "InvalidDelayError", outcome.Failure.Reason)
	require.Equal(t, "invalid delay: -5", outcome.Failure.Details)
}

func TestLogger_OutsideActivity(t *testing.T) {
	require.Equal(t, slog.Default(), Logger(context.Background()))
	require.Empty(t, ID(context.Background()))
}
