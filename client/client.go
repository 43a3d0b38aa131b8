package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cschleiden/swf-workers/backend"
	"github.com/cschleiden/swf-workers/core"
	"github.com/cschleiden/swf-workers/internal/tracing"
)

var (
	// ErrNotSupported is returned when the backend cannot start or describe workflow executions.
	ErrNotSupported = errors.New("backend does not support starting workflow executions")

	ErrTimeout = errors.New("workflow did not finish in specified timeout")

	// ErrNotCompleted is returned for a result of an execution that closed without completing.
	ErrNotCompleted = errors.New("workflow execution did not complete")
)

type StartOptions struct {
	Domain core.Domain

	// WorkflowID identifies the execution. Defaults to a random UUID.
	WorkflowID string

	WorkflowType core.WorkflowType

	TaskList core.TaskList

	Input string
}

type Client struct {
	backend backend.Backend
	starter backend.Starter
	clock   clock.Clock
}

func New(b backend.Backend) *Client {
	starter, _ := b.(backend.Starter)

	return &Client{
		backend: b,
		starter: starter,
		clock:   clock.New(),
	}
}

// StartWorkflowExecution starts a new execution of a workflow.
func (c *Client) StartWorkflowExecution(ctx context.Context, options StartOptions) (core.WorkflowExecution, error) {
	if c.starter == nil {
		return core.WorkflowExecution{}, ErrNotSupported
	}

	if options.WorkflowID == "" {
		options.WorkflowID = uuid.NewString()
	}

	ctx, span := c.backend.Tracer().Start(ctx, "StartWorkflowExecution", trace.WithAttributes(
		attribute.String(tracing.WorkflowID, options.WorkflowID),
		attribute.String(tracing.WorkflowType, options.WorkflowType.Name),
	))
	defer span.End()

	execution, err := c.starter.StartWorkflowExecution(ctx, &backend.StartWorkflowExecutionRequest{
		Domain:       options.Domain,
		WorkflowID:   options.WorkflowID,
		WorkflowType: options.WorkflowType,
		TaskList:     options.TaskList,
		Input:        options.Input,
	})
	if err != nil {
		return core.WorkflowExecution{}, tracing.WithSpanError(span, fmt.Errorf("starting workflow execution: %w", err))
	}

	span.SetAttributes(attribute.String(tracing.RunID, execution.RunID))

	return execution, nil
}

// WaitForWorkflowExecution waits for the given execution to close or until the given timeout has
// expired. It returns the description of the closed execution.
func (c *Client) WaitForWorkflowExecution(ctx context.Context, domain core.Domain, execution core.WorkflowExecution, timeout time.Duration) (*backend.ExecutionDescription, error) {
	if c.starter == nil {
		return nil, ErrNotSupported
	}

	if timeout == 0 {
		timeout = time.Second * 20
	}

	ctx, span := c.backend.Tracer().Start(ctx, "WaitForWorkflowExecution", trace.WithAttributes(
		attribute.String(tracing.WorkflowID, execution.WorkflowID),
		attribute.String(tracing.RunID, execution.RunID),
	))
	defer span.End()

	b := backoff.ExponentialBackOff{
		InitialInterval:     time.Millisecond * 1,
		MaxInterval:         time.Second * 1,
		Multiplier:          1.5,
		RandomizationFactor: 0.5,
		MaxElapsedTime:      timeout,
		Stop:                backoff.Stop,
		Clock:               c.clock,
	}
	b.Reset()

	ticker := backoff.NewTicker(backoff.WithContext(&b, ctx))
	defer ticker.Stop()

	for range ticker.C {
		d, err := c.starter.DescribeWorkflowExecution(ctx, domain, execution)
		if err != nil {
			return nil, fmt.Errorf("describing workflow execution: %w", err)
		}

		if d.Status != backend.ExecutionStatusOpen {
			return d, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return nil, ErrTimeout
}

// GetWorkflowResult waits for the execution to close and returns its result.
func (c *Client) GetWorkflowResult(ctx context.Context, domain core.Domain, execution core.WorkflowExecution, timeout time.Duration) (string, error) {
	ctx, span := c.backend.Tracer().Start(ctx, "GetWorkflowResult", trace.WithAttributes(
		attribute.String(tracing.WorkflowID, execution.WorkflowID),
		attribute.String(tracing.RunID, execution.RunID),
	))
	defer span.End()

	d, err := c.WaitForWorkflowExecution(ctx, domain, execution, timeout)
	if err != nil {
		return "", fmt.Errorf("workflow did not finish in time: %w", err)
	}

	if d.Status != backend.ExecutionStatusCompleted {
		return "", fmt.Errorf("%w: %s", ErrNotCompleted, d.Status)
	}

	return d.Result, nil
}
