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
)

func echo(ctx context.Context, input string) (string, error) {
	return input, nil
}

func newMockBackend(t *testing.T) *backend.MockBackend {
	b := backend.NewMockBackend(t)

	opts := backend.ApplyOptions()
	b.On("Logger").Return(opts.Logger).Maybe()
	b.On("Metrics").Return(opts.Metrics).Maybe()
	b.On("Tracer").Return(opts.TracerProvider.Tracer(backend.TracerName)).Maybe()
	b.On("Options").Return(&opts).Maybe()

	return b
}

func testOptions() *Options {
	return &Options{
		Domain:       "domain",
		TaskList:     "tasks",
		Identity:     "worker-1",
		ActivityType: core.ActivityType{Name: "HelloActivity", Version: "1.0"},
		WorkflowType: "HelloWorkflow",
		PollRetry: PollRetryOptions{
			InitialInterval: time.Millisecond,
			MaxInterval:     2 * time.Millisecond,
			MaxElapsedTime:  20 * time.Millisecond,
		},
	}
}

func TestOptions_WithDefaults(t *testing.T) {
	t.Run("nil options", func(t *testing.T) {
		o := (*Options)(nil).withDefaults()

		require.Equal(t, DefaultOptions.PollRetry, o.PollRetry)
		require.Equal(t, DefaultOptions.RespondRetries, o.RespondRetries)
		require.NotEmpty(t, o.Identity)
	})

	t.Run("keeps configured values", func(t *testing.T) {
		o := testOptions().withDefaults()

		require.Equal(t, "worker-1", o.Identity)
		require.Equal(t, time.Millisecond, o.PollRetry.InitialInterval)
		require.Equal(t, DefaultOptions.RespondRetryInterval, o.RespondRetryInterval)
	})

	t.Run("negative respond retries", func(t *testing.T) {
		opts := testOptions()
		opts.RespondRetries = -1

		require.Equal(t, 0, opts.withDefaults().RespondRetries)
	})
}

func TestController_Lifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := newMockBackend(t)
	b.On("PollActivityTask", mock.Anything, core.Domain("domain"), core.TaskList("tasks"), "worker-1").
		Return(&task.Activity{}, nil).After(time.Millisecond)

	c := NewActivityWorker(b, echo, testOptions())
	require.False(t, c.IsRunning())

	require.NoError(t, c.Start(context.Background()))
	require.True(t, c.IsRunning())

	c.Stop()
	<-c.Done()

	require.False(t, c.IsRunning())
	require.NoError(t, c.Err())
	require.NoError(t, c.WaitForCompletion())
}

func TestWorker_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := newMockBackend(t)
	b.On("PollActivityTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&task.Activity{}, nil).After(time.Millisecond)
	b.On("PollDecisionTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&task.Decision{}, nil).After(time.Millisecond)

	w := New(b, echo, testOptions())
	require.NoError(t, w.Start(context.Background()))
	require.True(t, w.Activities().IsRunning())
	require.True(t, w.Decisions().IsRunning())

	w.Stop()
	require.NoError(t, w.WaitForCompletion())

	require.False(t, w.Activities().IsRunning())
	require.False(t, w.Decisions().IsRunning())
}

func TestWorker_PollFailureStopsLoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	errUnavailable := errors.New("service unavailable")

	b := newMockBackend(t)
	b.On("PollActivityTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&task.Activity{}, nil).After(time.Millisecond)
	b.On("PollDecisionTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errUnavailable)

	w := New(b, echo, testOptions())
	require.NoError(t, w.Start(context.Background()))

	select {
	case <-w.Decisions().Done():
	case <-time.After(5 * time.Second):
		t.Fatal("decision loop did not stop")
	}

	require.False(t, w.Decisions().IsRunning())
	require.ErrorIs(t, w.Decisions().Err(), errUnavailable)
	require.True(t, w.Activities().IsRunning())

	w.Stop()

	err := w.WaitForCompletion()
	require.ErrorIs(t, err, errUnavailable)
	require.Contains(t, err.Error(), "decision worker")
}
