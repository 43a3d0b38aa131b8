// Package swf implements the backend on top of Amazon Simple Workflow Service.
package swf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/swf"
	"github.com/aws/aws-sdk-go-v2/service/swf/types"
	"go.opentelemetry.io/otel/trace"

	"github.com/cschleiden/swf-workers/backend"
	"github.com/cschleiden/swf-workers/core"
	"github.com/cschleiden/swf-workers/core/task"
	"github.com/cschleiden/swf-workers/decision"
	"github.com/cschleiden/swf-workers/internal/metrickeys"
	"github.com/cschleiden/swf-workers/log"
	"github.com/cschleiden/swf-workers/metrics"
)

// SWFAPI is the subset of the SWF client used by the backend.
type SWFAPI interface {
	PollForActivityTask(ctx context.Context, params *swf.PollForActivityTaskInput, optFns ...func(*swf.Options)) (*swf.PollForActivityTaskOutput, error)
	RespondActivityTaskCompleted(ctx context.Context, params *swf.RespondActivityTaskCompletedInput, optFns ...func(*swf.Options)) (*swf.RespondActivityTaskCompletedOutput, error)
	RespondActivityTaskFailed(ctx context.Context, params *swf.RespondActivityTaskFailedInput, optFns ...func(*swf.Options)) (*swf.RespondActivityTaskFailedOutput, error)
	PollForDecisionTask(ctx context.Context, params *swf.PollForDecisionTaskInput, optFns ...func(*swf.Options)) (*swf.PollForDecisionTaskOutput, error)
	RespondDecisionTaskCompleted(ctx context.Context, params *swf.RespondDecisionTaskCompletedInput, optFns ...func(*swf.Options)) (*swf.RespondDecisionTaskCompletedOutput, error)
	StartWorkflowExecution(ctx context.Context, params *swf.StartWorkflowExecutionInput, optFns ...func(*swf.Options)) (*swf.StartWorkflowExecutionOutput, error)
	DescribeWorkflowExecution(ctx context.Context, params *swf.DescribeWorkflowExecutionInput, optFns ...func(*swf.Options)) (*swf.DescribeWorkflowExecutionOutput, error)
	GetWorkflowExecutionHistory(ctx context.Context, params *swf.GetWorkflowExecutionHistoryInput, optFns ...func(*swf.Options)) (*swf.GetWorkflowExecutionHistoryOutput, error)
}

var _ SWFAPI = (*swf.Client)(nil)

type Backend struct {
	client  SWFAPI
	options backend.Options
	logger  *slog.Logger
	metrics metrics.Client
}

var (
	_ backend.Backend = (*Backend)(nil)
	_ backend.Starter = (*Backend)(nil)
)

func New(client SWFAPI, opts ...backend.BackendOption) *Backend {
	options := backend.ApplyOptions(opts...)

	return &Backend{
		client:  client,
		options: options,
		logger:  options.Logger.With(log.BackendKey, "swf"),
		metrics: options.Metrics.WithTags(metrics.Tags{metrickeys.Backend: "swf"}),
	}
}

// NewFromConfig creates a backend using a SWF client for the given region. Static credentials are
// used if an access key is given, otherwise the default credential chain.
func NewFromConfig(ctx context.Context, region, accessKey, secretKey string, opts ...backend.BackendOption) (*Backend, error) {
	loadOpts := []func(*config.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}

	if accessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	return New(swf.NewFromConfig(cfg), opts...), nil
}

func (b *Backend) Logger() *slog.Logger {
	return b.logger
}

func (b *Backend) Tracer() trace.Tracer {
	return b.options.TracerProvider.Tracer(backend.TracerName)
}

func (b *Backend) Metrics() metrics.Client {
	return b.metrics
}

func (b *Backend) Options() *backend.Options {
	return &b.options
}

func (b *Backend) Close() error {
	return nil
}

func (b *Backend) PollActivityTask(ctx context.Context, domain core.Domain, taskList core.TaskList, identity string) (*task.Activity, error) {
	out, err := b.client.PollForActivityTask(ctx, &swf.PollForActivityTaskInput{
		Domain:   aws.String(string(domain)),
		TaskList: &types.TaskList{Name: aws.String(string(taskList))},
		Identity: aws.String(identity),
	})
	if err != nil {
		return nil, fmt.Errorf("polling for activity task: %w", err)
	}

	if aws.ToString(out.TaskToken) == "" {
		return &task.Activity{}, nil
	}

	return &task.Activity{
		Token:             aws.ToString(out.TaskToken),
		ActivityID:        aws.ToString(out.ActivityId),
		ActivityType:      activityType(out.ActivityType),
		WorkflowExecution: workflowExecution(out.WorkflowExecution),
		Input:             aws.ToString(out.Input),
		StartedEventID:    out.StartedEventId,
	}, nil
}

func (b *Backend) RespondActivityCompleted(ctx context.Context, token string, result string) error {
	_, err := b.client.RespondActivityTaskCompleted(ctx, &swf.RespondActivityTaskCompletedInput{
		TaskToken: aws.String(token),
		Result:    aws.String(truncate(result, MaxResultLength)),
	})

	return respondError(err, "completing activity task")
}

func (b *Backend) RespondActivityFailed(ctx context.Context, token string, reason, details string) error {
	_, err := b.client.RespondActivityTaskFailed(ctx, &swf.RespondActivityTaskFailedInput{
		TaskToken: aws.String(token),
		Reason:    aws.String(truncate(reason, MaxReasonLength)),
		Details:   aws.String(truncate(details, MaxDetailsLength)),
	})

	return respondError(err, "failing activity task")
}

// PollDecisionTask polls for a decision task and reads all pages of its history.
func (b *Backend) PollDecisionTask(ctx context.Context, domain core.Domain, taskList core.TaskList, identity string) (*task.Decision, error) {
	input := &swf.PollForDecisionTaskInput{
		Domain:   aws.String(string(domain)),
		TaskList: &types.TaskList{Name: aws.String(string(taskList))},
		Identity: aws.String(identity),
	}

	out, err := b.client.PollForDecisionTask(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("polling for decision task: %w", err)
	}

	if aws.ToString(out.TaskToken) == "" {
		return &task.Decision{}, nil
	}

	dt := &task.Decision{
		Token:                  aws.ToString(out.TaskToken),
		WorkflowType:           workflowType(out.WorkflowType),
		WorkflowExecution:      workflowExecution(out.WorkflowExecution),
		Events:                 convertEvents(nil, out.Events),
		PreviousStartedEventID: out.PreviousStartedEventId,
		StartedEventID:         out.StartedEventId,
	}

	for pages := 1; out.NextPageToken != nil; pages++ {
		input.NextPageToken = out.NextPageToken

		out, err = b.client.PollForDecisionTask(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("reading decision task history page %d: %w", pages+1, err)
		}

		dt.Events = convertEvents(dt.Events, out.Events)
	}

	return dt, nil
}

func (b *Backend) RespondDecisionCompleted(ctx context.Context, token string, decisions []decision.Decision) error {
	ds, err := convertDecisions(decisions)
	if err != nil {
		return err
	}

	_, err = b.client.RespondDecisionTaskCompleted(ctx, &swf.RespondDecisionTaskCompletedInput{
		TaskToken: aws.String(token),
		Decisions: ds,
	})

	return respondError(err, "completing decision task")
}

// respondError maps faults for consumed or expired task tokens to backend.ErrUnknownTaskToken
func respondError(err error, msg string) error {
	if err == nil {
		return nil
	}

	var urf *types.UnknownResourceFault
	if errors.As(err, &urf) {
		return fmt.Errorf("%s: %w: %v", msg, backend.ErrUnknownTaskToken, err)
	}

	return fmt.Errorf("%s: %w", msg, err)
}
