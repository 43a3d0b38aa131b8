package swf

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/swf"
	"github.com/aws/aws-sdk-go-v2/service/swf/types"

	"github.com/cschleiden/swf-workers/backend"
	"github.com/cschleiden/swf-workers/core"
	"github.com/cschleiden/swf-workers/history"
)

func (b *Backend) StartWorkflowExecution(ctx context.Context, req *backend.StartWorkflowExecutionRequest) (core.WorkflowExecution, error) {
	input := &swf.StartWorkflowExecutionInput{
		Domain:     aws.String(string(req.Domain)),
		WorkflowId: aws.String(req.WorkflowID),
		WorkflowType: &types.WorkflowType{
			Name:    aws.String(req.WorkflowType.Name),
			Version: aws.String(req.WorkflowType.Version),
		},
		Input: aws.String(truncate(req.Input, MaxInputLength)),
	}

	if req.TaskList != "" {
		input.TaskList = &types.TaskList{Name: aws.String(string(req.TaskList))}
	}

	out, err := b.client.StartWorkflowExecution(ctx, input)
	if err != nil {
		var started *types.WorkflowExecutionAlreadyStartedFault
		if errors.As(err, &started) {
			return core.WorkflowExecution{}, fmt.Errorf("%w: %v", backend.ErrExecutionAlreadyStarted, err)
		}

		return core.WorkflowExecution{}, fmt.Errorf("starting workflow execution: %w", err)
	}

	return core.NewWorkflowExecution(req.WorkflowID, aws.ToString(out.RunId)), nil
}

func (b *Backend) DescribeWorkflowExecution(ctx context.Context, domain core.Domain, execution core.WorkflowExecution) (*backend.ExecutionDescription, error) {
	out, err := b.client.DescribeWorkflowExecution(ctx, &swf.DescribeWorkflowExecutionInput{
		Domain:    aws.String(string(domain)),
		Execution: swfExecution(execution),
	})
	if err != nil {
		return nil, notFoundError(err, "describing workflow execution")
	}

	info := out.ExecutionInfo
	if info == nil {
		return nil, backend.ErrExecutionNotFound
	}

	d := &backend.ExecutionDescription{
		Execution:    workflowExecution(info.Execution),
		WorkflowType: workflowType(info.WorkflowType),
		Status:       executionStatus(info.ExecutionStatus, info.CloseStatus),
	}

	if d.Status == backend.ExecutionStatusCompleted {
		events, err := b.GetWorkflowExecutionHistory(ctx, domain, d.Execution)
		if err != nil {
			return nil, err
		}

		for i := len(events) - 1; i >= 0; i-- {
			if a, ok := events[i].Attributes.(*history.ExecutionCompletedAttributes); ok {
				d.Result = a.Result
				break
			}
		}
	}

	return d, nil
}

// GetWorkflowExecutionHistory returns all pages of the history of the execution.
func (b *Backend) GetWorkflowExecutionHistory(ctx context.Context, domain core.Domain, execution core.WorkflowExecution) ([]history.Event, error) {
	input := &swf.GetWorkflowExecutionHistoryInput{
		Domain:    aws.String(string(domain)),
		Execution: swfExecution(execution),
	}

	var events []history.Event

	for {
		out, err := b.client.GetWorkflowExecutionHistory(ctx, input)
		if err != nil {
			return nil, notFoundError(err, "reading workflow execution history")
		}

		events = convertEvents(events, out.Events)

		if out.NextPageToken == nil {
			return events, nil
		}

		input.NextPageToken = out.NextPageToken
	}
}

func notFoundError(err error, msg string) error {
	var urf *types.UnknownResourceFault
	if errors.As(err, &urf) {
		return fmt.Errorf("%s: %w: %v", msg, backend.ErrExecutionNotFound, err)
	}

	return fmt.Errorf("%s: %w", msg, err)
}

func executionStatus(status types.ExecutionStatus, closeStatus types.CloseStatus) backend.ExecutionStatus {
	if status == types.ExecutionStatusOpen {
		return backend.ExecutionStatusOpen
	}

	switch closeStatus {
	case types.CloseStatusCompleted:
		return backend.ExecutionStatusCompleted
	case types.CloseStatusFailed:
		return backend.ExecutionStatusFailed
	case types.CloseStatusCanceled:
		return backend.ExecutionStatusCanceled
	case types.CloseStatusTimedOut:
		return backend.ExecutionStatusTimedOut
	case types.CloseStatusContinuedAsNew:
		return backend.ExecutionStatusContinuedAsNew
	default:
		return backend.ExecutionStatusTerminated
	}
}
