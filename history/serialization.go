package history

import (
	"encoding/json"
)

func (e *Event) UnmarshalJSON(data []byte) error {
	type Aevent Event
	a := &struct {
		// Attributes allows us to defer unmarshaling the events. Has to match the struct tag in Event
		Attributes json.RawMessage `json:"attr,omitempty"`
		*Aevent
	}{
		Aevent: (*Aevent)(e),
	}

	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	attributes, err := DeserializeAttributes(e.Type, a.Attributes)
	if err != nil {
		return err
	}

	e.Attributes = attributes

	return nil
}

// DeserializeAttributes decodes the attributes of the given event type. Unknown event types
// have no attributes.
func DeserializeAttributes(eventType EventType, attributes []byte) (attr interface{}, err error) {
	switch eventType {
	case EventType_WorkflowExecutionStarted:
		attr = &ExecutionStartedAttributes{}
	case EventType_WorkflowExecutionCompleted:
		attr = &ExecutionCompletedAttributes{}

	case EventType_DecisionTaskScheduled:
		attr = &DecisionTaskScheduledAttributes{}
	case EventType_DecisionTaskStarted:
		attr = &DecisionTaskStartedAttributes{}
	case EventType_DecisionTaskCompleted:
		attr = &DecisionTaskCompletedAttributes{}
	case EventType_DecisionTaskTimedOut:
		attr = &DecisionTaskTimedOutAttributes{}

	case EventType_ActivityTaskScheduled:
		attr = &ActivityTaskScheduledAttributes{}
	case EventType_ScheduleActivityTaskFailed:
		attr = &ScheduleActivityTaskFailedAttributes{}
	case EventType_ActivityTaskStarted:
		attr = &ActivityTaskStartedAttributes{}
	case EventType_ActivityTaskCompleted:
		attr = &ActivityTaskCompletedAttributes{}
	case EventType_ActivityTaskFailed:
		attr = &ActivityTaskFailedAttributes{}
	case EventType_ActivityTaskTimedOut:
		attr = &ActivityTaskTimedOutAttributes{}

	default:
		return nil, nil
	}

	if len(attributes) == 0 {
		return attr, nil
	}

	err = json.Unmarshal(attributes, attr)
	return attr, err
}
