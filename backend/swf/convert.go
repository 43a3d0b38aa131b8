package swf

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/swf/types"

	"github.com/cschleiden/swf-workers/core"
	"github.com/cschleiden/swf-workers/decision"
	"github.com/cschleiden/swf-workers/history"
)

// Length limits of SWF fields, in characters.
const (
	MaxReasonLength  = 256
	MaxDetailsLength = 32768
	MaxResultLength  = 32768
	MaxInputLength   = 32768
)

// truncate shortens s to at most n characters
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n])
}

func workflowExecution(e *types.WorkflowExecution) core.WorkflowExecution {
	if e == nil {
		return core.WorkflowExecution{}
	}

	return core.NewWorkflowExecution(aws.ToString(e.WorkflowId), aws.ToString(e.RunId))
}

func swfExecution(e core.WorkflowExecution) *types.WorkflowExecution {
	return &types.WorkflowExecution{
		WorkflowId: aws.String(e.WorkflowID),
		RunId:      aws.String(e.RunID),
	}
}

func workflowType(t *types.WorkflowType) core.WorkflowType {
	if t == nil {
		return core.WorkflowType{}
	}

	return core.WorkflowType{Name: aws.ToString(t.Name), Version: aws.ToString(t.Version)}
}

func activityType(t *types.ActivityType) core.ActivityType {
	if t == nil {
		return core.ActivityType{}
	}

	return core.ActivityType{Name: aws.ToString(t.Name), Version: aws.ToString(t.Version)}
}

func taskList(t *types.TaskList) core.TaskList {
	if t == nil {
		return ""
	}

	return core.TaskList(aws.ToString(t.Name))
}

func convertEvents(events []history.Event, swfEvents []types.HistoryEvent) []history.Event {
	for _, e := range swfEvents {
		events = append(events, convertEvent(e))
	}

	return events
}

// convertEvent maps a SWF history event. Event kinds without a counterpart keep their id and
// timestamp but have no attributes.
func convertEvent(e types.HistoryEvent) history.Event {
	eventType := history.ParseEventType(string(e.EventType))

	var attributes interface{}

	switch eventType {
	case history.EventType_WorkflowExecutionStarted:
		if a := e.WorkflowExecutionStartedEventAttributes; a != nil {
			attributes = &history.ExecutionStartedAttributes{
				WorkflowType: workflowType(a.WorkflowType),
				TaskList:     taskList(a.TaskList),
				Input:        aws.ToString(a.Input),
			}
		}

	case history.EventType_WorkflowExecutionCompleted:
		if a := e.WorkflowExecutionCompletedEventAttributes; a != nil {
			attributes = &history.ExecutionCompletedAttributes{
				Result:                       aws.ToString(a.Result),
				DecisionTaskCompletedEventID: a.DecisionTaskCompletedEventId,
			}
		}

	case history.EventType_DecisionTaskScheduled:
		if a := e.DecisionTaskScheduledEventAttributes; a != nil {
			attributes = &history.DecisionTaskScheduledAttributes{
				TaskList: taskList(a.TaskList),
			}
		}

	case history.EventType_DecisionTaskStarted:
		if a := e.DecisionTaskStartedEventAttributes; a != nil {
			attributes = &history.DecisionTaskStartedAttributes{
				ScheduledEventID: a.ScheduledEventId,
				Identity:         aws.ToString(a.Identity),
			}
		}

	case history.EventType_DecisionTaskCompleted:
		if a := e.DecisionTaskCompletedEventAttributes; a != nil {
			attributes = &history.DecisionTaskCompletedAttributes{
				ScheduledEventID: a.ScheduledEventId,
				StartedEventID:   a.StartedEventId,
			}
		}

	case history.EventType_DecisionTaskTimedOut:
		if a := e.DecisionTaskTimedOutEventAttributes; a != nil {
			attributes = &history.DecisionTaskTimedOutAttributes{
				ScheduledEventID: a.ScheduledEventId,
				StartedEventID:   a.StartedEventId,
			}
		}

	case history.EventType_ActivityTaskScheduled:
		if a := e.ActivityTaskScheduledEventAttributes; a != nil {
			attributes = &history.ActivityTaskScheduledAttributes{
				ActivityID:                   aws.ToString(a.ActivityId),
				ActivityType:                 activityType(a.ActivityType),
				TaskList:                     taskList(a.TaskList),
				Input:                        aws.ToString(a.Input),
				DecisionTaskCompletedEventID: a.DecisionTaskCompletedEventId,
			}
		}

	case history.EventType_ScheduleActivityTaskFailed:
		if a := e.ScheduleActivityTaskFailedEventAttributes; a != nil {
			attributes = &history.ScheduleActivityTaskFailedAttributes{
				ActivityID:                   aws.ToString(a.ActivityId),
				ActivityType:                 activityType(a.ActivityType),
				Cause:                        string(a.Cause),
				DecisionTaskCompletedEventID: a.DecisionTaskCompletedEventId,
			}
		}

	case history.EventType_ActivityTaskStarted:
		if a := e.ActivityTaskStartedEventAttributes; a != nil {
			attributes = &history.ActivityTaskStartedAttributes{
				ScheduledEventID: a.ScheduledEventId,
				Identity:         aws.ToString(a.Identity),
			}
		}

	case history.EventType_ActivityTaskCompleted:
		if a := e.ActivityTaskCompletedEventAttributes; a != nil {
			attributes = &history.ActivityTaskCompletedAttributes{
				ScheduledEventID: a.ScheduledEventId,
				StartedEventID:   a.StartedEventId,
				Result:           aws.ToString(a.Result),
			}
		}

	case history.EventType_ActivityTaskFailed:
		if a := e.ActivityTaskFailedEventAttributes; a != nil {
			attributes = &history.ActivityTaskFailedAttributes{
				ScheduledEventID: a.ScheduledEventId,
				StartedEventID:   a.StartedEventId,
				Reason:           aws.ToString(a.Reason),
				Details:          aws.ToString(a.Details),
			}
		}

	case history.EventType_ActivityTaskTimedOut:
		if a := e.ActivityTaskTimedOutEventAttributes; a != nil {
			attributes = &history.ActivityTaskTimedOutAttributes{
				ScheduledEventID: a.ScheduledEventId,
				StartedEventID:   a.StartedEventId,
				TimeoutType:      string(a.TimeoutType),
			}
		}
	}

	return history.NewHistoryEvent(e.EventId, aws.ToTime(e.EventTimestamp), eventType, attributes)
}

func convertDecisions(decisions []decision.Decision) ([]types.Decision, error) {
	r := make([]types.Decision, 0, len(decisions))

	for i, d := range decisions {
		switch d.Type {
		case decision.Type_ScheduleActivityTask:
			a := d.ScheduleActivityTask
			if a == nil {
				return nil, fmt.Errorf("decision %d: missing attributes", i)
			}

			r = append(r, types.Decision{
				DecisionType: types.DecisionTypeScheduleActivityTask,
				ScheduleActivityTaskDecisionAttributes: &types.ScheduleActivityTaskDecisionAttributes{
					ActivityId: aws.String(a.ActivityID),
					ActivityType: &types.ActivityType{
						Name:    aws.String(a.ActivityType.Name),
						Version: aws.String(a.ActivityType.Version),
					},
					Input: aws.String(truncate(a.Input, MaxInputLength)),
				},
			})

		case decision.Type_CompleteWorkflowExecution:
			a := d.CompleteWorkflowExecution
			if a == nil {
				return nil, fmt.Errorf("decision %d: missing attributes", i)
			}

			r = append(r, types.Decision{
				DecisionType: types.DecisionTypeCompleteWorkflowExecution,
				CompleteWorkflowExecutionDecisionAttributes: &types.CompleteWorkflowExecutionDecisionAttributes{
					Result: aws.String(truncate(a.Result, MaxResultLength)),
				},
			})

		default:
			return nil, fmt.Errorf("decision %d: unsupported type %v", i, d.Type)
		}
	}

	return r, nil
}
