package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/cschleiden/swf-workers/backend"
	"github.com/cschleiden/swf-workers/internal/workflowerrors"
)

type testTask struct {
	ID string
}

type testResult struct {
	Output string
}

type mockTaskWorker struct {
	mock.Mock
}

func (m *mockTaskWorker) Get(ctx context.Context) (*testTask, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*testTask), args.Error(1)
}

func (m *mockTaskWorker) Execute(ctx context.Context, task *testTask) (*testResult, error) {
	args := m.Called(ctx, task)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*testResult), args.Error(1)
}

func (m *mockTaskWorker) Complete(ctx context.Context, result *testResult, task *testTask) error {
	args := m.Called(ctx, result, task)
	return args.Error(0)
}

func createMockBackend(t *testing.T) *backend.MockBackend {
	b := backend.NewMockBackend(t)

	opts := backend.ApplyOptions()
	b.On("Logger").Return(opts.Logger).Maybe()
	b.On("Metrics").Return(opts.Metrics).Maybe()
	b.On("Tracer").Return(opts.TracerProvider.Tracer(backend.TracerName)).Maybe()
	b.On("Options").Return(&opts).Maybe()

	return b
}

func testOptions() *WorkerOptions {
	return &WorkerOptions{
		Name: "test",
		PollRetry: PollRetryOptions{
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
			MaxElapsedTime:  50 * time.Millisecond,
		},
	}
}

func waitFor(t *testing.T, w interface{ Done() <-chan struct{} }) {
	t.Helper()

	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestWorker_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	tw := &mockTaskWorker{}
	tw.On("Get", mock.Anything).Return(nil, nil).After(time.Millisecond)

	w := NewWorker[testTask, testResult](createMockBackend(t), tw, testOptions())
	require.False(t, w.IsRunning())

	require.NoError(t, w.Start(context.Background()))
	require.True(t, w.IsRunning())

	w.Stop()
	waitFor(t, w)

	require.False(t, w.IsRunning())
	require.NoError(t, w.WaitForCompletion())
	require.NoError(t, w.Err())
}

func TestWorker_WaitForCompletion_NotStarted(t *testing.T) {
	w := NewWorker[testTask, testResult](createMockBackend(t), &mockTaskWorker{}, testOptions())

	require.NoError(t, w.WaitForCompletion())
	require.False(t, w.IsRunning())
}

func TestWorker_StartIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	var concurrent, maxConcurrent atomic.Int32

	tw := &mockTaskWorker{}
	tw.On("Get", mock.Anything).Run(func(args mock.Arguments) {
		n := concurrent.Add(1)
		defer concurrent.Add(-1)

		if n > maxConcurrent.Load() {
			maxConcurrent.Store(n)
		}

		time.Sleep(time.Millisecond)
	}).Return(nil, nil)

	w := NewWorker[testTask, testResult](createMockBackend(t), tw, testOptions())

	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Start(context.Background()))

	time.Sleep(20 * time.Millisecond)

	w.Stop()
	require.NoError(t, w.WaitForCompletion())

	require.Equal(t, int32(1), maxConcurrent.Load())
}

func TestWorker_StopDoesNotInterruptPoll(t *testing.T) {
	defer goleak.VerifyNone(t)

	polling := make(chan struct{})
	release := make(chan struct{})

	task := &testTask{ID: "1"}
	result := &testResult{Output: "done"}

	tw := &mockTaskWorker{}
	tw.On("Get", mock.Anything).Run(func(args mock.Arguments) {
		close(polling)
		<-release
	}).Return(task, nil).Once()
	tw.On("Execute", mock.Anything, task).Return(result, nil).Once()
	tw.On("Complete", mock.Anything, result, task).Return(nil).Once()

	w := NewWorker[testTask, testResult](createMockBackend(t), tw, testOptions())
	require.NoError(t, w.Start(context.Background()))

	<-polling
	w.Stop()

	// The in-flight poll keeps the loop alive
	time.Sleep(10 * time.Millisecond)
	require.True(t, w.IsRunning())

	close(release)
	waitFor(t, w)

	require.False(t, w.IsRunning())
	require.NoError(t, w.Err())

	// The task returned by the last poll is still processed, no further poll happens
	tw.AssertExpectations(t)
	tw.AssertNumberOfCalls(t, "Get", 1)
}

func TestWorker_ExecuteErrorSkipsComplete(t *testing.T) {
	defer goleak.VerifyNone(t)

	task := &testTask{ID: "1"}
	executed := make(chan struct{})

	tw := &mockTaskWorker{}
	tw.On("Get", mock.Anything).Return(task, nil).Once()
	tw.On("Get", mock.Anything).Return(nil, nil).After(time.Millisecond)
	tw.On("Execute", mock.Anything, task).Run(func(args mock.Arguments) {
		close(executed)
	}).Return(nil, errors.New("execute failed")).Once()

	w := NewWorker[testTask, testResult](createMockBackend(t), tw, testOptions())
	require.NoError(t, w.Start(context.Background()))

	<-executed
	w.Stop()
	require.NoError(t, w.WaitForCompletion())

	tw.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestWorker_TaskPanicKeepsLoopRunning(t *testing.T) {
	defer goleak.VerifyNone(t)

	task := &testTask{ID: "1"}
	secondPoll := make(chan struct{})

	tw := &mockTaskWorker{}
	tw.On("Get", mock.Anything).Return(task, nil).Once()
	tw.On("Get", mock.Anything).Run(func(args mock.Arguments) {
		select {
		case <-secondPoll:
		default:
			close(secondPoll)
		}
	}).Return(nil, nil).After(time.Millisecond)
	tw.On("Execute", mock.Anything, task).Run(func(args mock.Arguments) {
		panic("execute panicked")
	}).Return(nil, nil).Once()

	w := NewWorker[testTask, testResult](createMockBackend(t), tw, testOptions())
	require.NoError(t, w.Start(context.Background()))

	<-secondPoll
	require.True(t, w.IsRunning())

	w.Stop()
	require.NoError(t, w.WaitForCompletion())
}

func TestWorker_PollRetry(t *testing.T) {
	defer goleak.VerifyNone(t)

	task := &testTask{ID: "1"}
	result := &testResult{Output: "done"}
	completed := make(chan struct{})

	tw := &mockTaskWorker{}
	tw.On("Get", mock.Anything).Return(nil, errors.New("unavailable")).Twice()
	tw.On("Get", mock.Anything).Return(task, nil).Once()
	tw.On("Get", mock.Anything).Return(nil, nil).After(time.Millisecond)
	tw.On("Execute", mock.Anything, task).Return(result, nil).Once()
	tw.On("Complete", mock.Anything, result, task).Run(func(args mock.Arguments) {
		close(completed)
	}).Return(nil).Once()

	w := NewWorker[testTask, testResult](createMockBackend(t), tw, testOptions())
	require.NoError(t, w.Start(context.Background()))

	<-completed
	require.True(t, w.IsRunning())

	w.Stop()
	require.NoError(t, w.WaitForCompletion())
}

func TestWorker_PollRetryExhausted(t *testing.T) {
	defer goleak.VerifyNone(t)

	errPoll := errors.New("unavailable")

	tw := &mockTaskWorker{}
	tw.On("Get", mock.Anything).Return(nil, errPoll)

	w := NewWorker[testTask, testResult](createMockBackend(t), tw, testOptions())
	require.NoError(t, w.Start(context.Background()))

	waitFor(t, w)

	require.False(t, w.IsRunning())
	require.ErrorIs(t, w.Err(), errPoll)
	require.ErrorIs(t, w.WaitForCompletion(), errPoll)
	assert.Greater(t, len(tw.Calls), 1)
}

func TestWorker_LoopPanicEndsWorker(t *testing.T) {
	defer goleak.VerifyNone(t)

	tw := &mockTaskWorker{}
	tw.On("Get", mock.Anything).Run(func(args mock.Arguments) {
		panic("poll panicked")
	}).Return(nil, nil)

	w := NewWorker[testTask, testResult](createMockBackend(t), tw, testOptions())
	require.NoError(t, w.Start(context.Background()))

	waitFor(t, w)

	require.False(t, w.IsRunning())

	var pe *workflowerrors.PanicError
	require.ErrorAs(t, w.Err(), &pe)
	require.Contains(t, pe.Error(), "poll panicked")
}

func TestWorker_ContextCanceled(t *testing.T) {
	defer goleak.VerifyNone(t)

	tw := &mockTaskWorker{}
	tw.On("Get", mock.Anything).Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	}).Return(nil, context.Canceled)

	w := NewWorker[testTask, testResult](createMockBackend(t), tw, testOptions())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))

	cancel()
	waitFor(t, w)

	require.False(t, w.IsRunning())
	require.NoError(t, w.Err())
}

func TestWorker_StartCancelsPendingStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	polling := make(chan struct{})
	release := make(chan struct{})
	polledAgain := make(chan struct{})

	tw := &mockTaskWorker{}
	tw.On("Get", mock.Anything).Run(func(args mock.Arguments) {
		close(polling)
		<-release
	}).Return(nil, nil).Once()
	tw.On("Get", mock.Anything).Run(func(args mock.Arguments) {
		close(polledAgain)
	}).Return(nil, nil).Once()
	tw.On("Get", mock.Anything).Return(nil, nil).After(time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWorker[testTask, testResult](createMockBackend(t), tw, testOptions())
	require.NoError(t, w.Start(ctx))

	<-polling
	w.Stop()
	require.NoError(t, w.Start(ctx))

	close(release)

	select {
	case <-polledAgain:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not keep polling")
	}

	require.True(t, w.IsRunning())

	cancel()
	require.NoError(t, w.WaitForCompletion())
	require.False(t, w.IsRunning())
}

func TestWorker_RestartAfterStopIsObserved(t *testing.T) {
	defer goleak.VerifyNone(t)

	tw := &mockTaskWorker{}
	tw.On("Get", mock.Anything).Return(nil, nil).After(time.Millisecond)

	w := NewWorker[testTask, testResult](createMockBackend(t), tw, testOptions())

	// Racing Start against an exiting loop always leaves one loop running
	for i := 0; i < 20; i++ {
		require.NoError(t, w.Start(context.Background()))
		w.Stop()
		require.NoError(t, w.Start(context.Background()))
		require.True(t, w.IsRunning())
	}

	w.Stop()
	require.NoError(t, w.WaitForCompletion())
	require.False(t, w.IsRunning())
}

func TestWorker_Restart(t *testing.T) {
	defer goleak.VerifyNone(t)

	tw := &mockTaskWorker{}
	tw.On("Get", mock.Anything).Return(nil, nil).After(time.Millisecond)

	w := NewWorker[testTask, testResult](createMockBackend(t), tw, testOptions())

	for i := 0; i < 2; i++ {
		require.NoError(t, w.Start(context.Background()))
		require.True(t, w.IsRunning())

		w.Stop()
		require.NoError(t, w.WaitForCompletion())
		require.False(t, w.IsRunning())
	}
}
