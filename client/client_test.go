package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/cschleiden/swf-workers/backend"
	"github.com/cschleiden/swf-workers/core"
)

// starterBackend is a mock backend that can also start workflow executions
type starterBackend struct {
	*backend.MockBackend
}

func (b *starterBackend) StartWorkflowExecution(ctx context.Context, req *backend.StartWorkflowExecutionRequest) (core.WorkflowExecution, error) {
	args := b.Called(ctx, req)
	return args.Get(0).(core.WorkflowExecution), args.Error(1)
}

func (b *starterBackend) DescribeWorkflowExecution(ctx context.Context, domain core.Domain, execution core.WorkflowExecution) (*backend.ExecutionDescription, error) {
	args := b.Called(ctx, domain, execution)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.ExecutionDescription), args.Error(1)
}

func newStarterBackend(t *testing.T) *starterBackend {
	b := &starterBackend{MockBackend: backend.NewMockBackend(t)}
	b.On("Tracer").Return(noop.NewTracerProvider().Tracer("test")).Maybe()

	return b
}

var execution = core.NewWorkflowExecution("wf", "run")

func Test_Client_StartWorkflowExecution(t *testing.T) {
	b := newStarterBackend(t)
	b.On("StartWorkflowExecution", mock.Anything, &backend.StartWorkflowExecutionRequest{
		Domain:       "domain",
		WorkflowID:   "wf",
		WorkflowType: core.WorkflowType{Name: "HelloWorkflow", Version: "1.0"},
		TaskList:     "tasks",
		Input:        "input",
	}).Return(execution, nil).Once()

	c := New(b)

	got, err := c.StartWorkflowExecution(context.Background(), StartOptions{
		Domain:       "domain",
		WorkflowID:   "wf",
		WorkflowType: core.WorkflowType{Name: "HelloWorkflow", Version: "1.0"},
		TaskList:     "tasks",
		Input:        "input",
	})
	require.NoError(t, err)
	require.Equal(t, execution, got)
}

func Test_Client_StartWorkflowExecution_GeneratesWorkflowID(t *testing.T) {
	b := newStarterBackend(t)
	b.On("StartWorkflowExecution", mock.Anything, mock.MatchedBy(func(req *backend.StartWorkflowExecutionRequest) bool {
		return req.WorkflowID != ""
	})).Return(execution, nil).Once()

	_, err := New(b).StartWorkflowExecution(context.Background(), StartOptions{Domain: "domain"})
	require.NoError(t, err)
}

func Test_Client_StartWorkflowExecution_Error(t *testing.T) {
	b := newStarterBackend(t)
	b.On("StartWorkflowExecution", mock.Anything, mock.Anything).
		Return(core.WorkflowExecution{}, backend.ErrExecutionAlreadyStarted).Once()

	_, err := New(b).StartWorkflowExecution(context.Background(), StartOptions{WorkflowID: "wf"})
	require.ErrorIs(t, err, backend.ErrExecutionAlreadyStarted)
}

func Test_Client_NotSupported(t *testing.T) {
	b := backend.NewMockBackend(t)
	c := New(b)

	_, err := c.StartWorkflowExecution(context.Background(), StartOptions{})
	require.ErrorIs(t, err, ErrNotSupported)

	_, err = c.WaitForWorkflowExecution(context.Background(), "domain", execution, time.Second)
	require.ErrorIs(t, err, ErrNotSupported)
}

func Test_Client_GetWorkflowResultTimeout(t *testing.T) {
	b := newStarterBackend(t)
	b.On("DescribeWorkflowExecution", mock.Anything, core.Domain("domain"), execution).
		Return(&backend.ExecutionDescription{Execution: execution, Status: backend.ExecutionStatusOpen}, nil)

	c := New(b)

	result, err := c.GetWorkflowResult(context.Background(), "domain", execution, time.Microsecond*1)
	require.Zero(t, result)
	require.EqualError(t, err, "workflow did not finish in time: workflow did not finish in specified timeout")
	require.ErrorIs(t, err, ErrTimeout)
}

func Test_Client_GetWorkflowResultSuccess(t *testing.T) {
	mockClock := clock.NewMock()

	b := newStarterBackend(t)
	b.On("DescribeWorkflowExecution", mock.Anything, core.Domain("domain"), execution).
		Return(&backend.ExecutionDescription{Execution: execution, Status: backend.ExecutionStatusOpen}, nil).
		Once().
		Run(func(args mock.Arguments) {
			// After the first call, advance the clock to immediately go to the second call below
			mockClock.Add(time.Second)
		})
	b.On("DescribeWorkflowExecution", mock.Anything, core.Domain("domain"), execution).
		Return(&backend.ExecutionDescription{
			Execution: execution,
			Status:    backend.ExecutionStatusCompleted,
			Result:    "Executed, hello!",
		}, nil).Once()

	c := &Client{
		backend: b,
		starter: b,
		clock:   mockClock,
	}

	result, err := c.GetWorkflowResult(context.Background(), "domain", execution, time.Second*2)
	require.NoError(t, err)
	require.Equal(t, "Executed, hello!", result)
}

func Test_Client_GetWorkflowResult_NotCompleted(t *testing.T) {
	b := newStarterBackend(t)
	b.On("DescribeWorkflowExecution", mock.Anything, core.Domain("domain"), execution).
		Return(&backend.ExecutionDescription{Execution: execution, Status: backend.ExecutionStatusTerminated}, nil).Once()

	_, err := New(b).GetWorkflowResult(context.Background(), "domain", execution, time.Second)
	require.ErrorIs(t, err, ErrNotCompleted)
	require.ErrorContains(t, err, "TERMINATED")
}

func Test_Client_WaitForWorkflowExecution_DescribeError(t *testing.T) {
	b := newStarterBackend(t)
	b.On("DescribeWorkflowExecution", mock.Anything, core.Domain("domain"), execution).
		Return(nil, backend.ErrExecutionNotFound).Once()

	_, err := New(b).WaitForWorkflowExecution(context.Background(), "domain", execution, time.Second)
	require.ErrorIs(t, err, backend.ErrExecutionNotFound)
}

func Test_Client_WaitForWorkflowExecution_Canceled(t *testing.T) {
	b := newStarterBackend(t)
	b.On("DescribeWorkflowExecution", mock.Anything, core.Domain("domain"), execution).
		Return(&backend.ExecutionDescription{Execution: execution, Status: backend.ExecutionStatusOpen}, nil).Maybe()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(b).WaitForWorkflowExecution(ctx, "domain", execution, time.Second)
	require.True(t, errors.Is(err, context.Canceled))
}
