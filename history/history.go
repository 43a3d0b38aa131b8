package history

import (
	"time"
)

type EventType uint

const (
	// EventType_Unknown is any event kind this worker does not know about. These events are kept in the
	// history so replays see them, but they never carry attributes.
	EventType_Unknown EventType = iota

	EventType_WorkflowExecutionStarted
	EventType_WorkflowExecutionCompleted

	EventType_DecisionTaskScheduled
	EventType_DecisionTaskStarted
	EventType_DecisionTaskCompleted
	EventType_DecisionTaskTimedOut

	EventType_ActivityTaskScheduled
	EventType_ScheduleActivityTaskFailed
	EventType_ActivityTaskStarted
	EventType_ActivityTaskCompleted
	EventType_ActivityTaskFailed
	EventType_ActivityTaskTimedOut
)

var eventTypeNames = map[EventType]string{
	EventType_WorkflowExecutionStarted:   "WorkflowExecutionStarted",
	EventType_WorkflowExecutionCompleted: "WorkflowExecutionCompleted",

	EventType_DecisionTaskScheduled: "DecisionTaskScheduled",
	EventType_DecisionTaskStarted:   "DecisionTaskStarted",
	EventType_DecisionTaskCompleted: "DecisionTaskCompleted",
	EventType_DecisionTaskTimedOut:  "DecisionTaskTimedOut",

	EventType_ActivityTaskScheduled:      "ActivityTaskScheduled",
	EventType_ScheduleActivityTaskFailed: "ScheduleActivityTaskFailed",
	EventType_ActivityTaskStarted:        "ActivityTaskStarted",
	EventType_ActivityTaskCompleted:      "ActivityTaskCompleted",
	EventType_ActivityTaskFailed:         "ActivityTaskFailed",
	EventType_ActivityTaskTimedOut:       "ActivityTaskTimedOut",
}

var eventTypesByName = func() map[string]EventType {
	m := make(map[string]EventType, len(eventTypeNames))
	for et, name := range eventTypeNames {
		m[name] = et
	}
	return m
}()

// String returns the wire name of the event type.
func (et EventType) String() string {
	if name, ok := eventTypeNames[et]; ok {
		return name
	}

	return "Unknown"
}

// ParseEventType maps a wire name to an event type. Names of event kinds this worker does not
// know map to EventType_Unknown.
func ParseEventType(name string) EventType {
	return eventTypesByName[name]
}

type Event struct {
	// ID is the position of the event in the history of its execution, starting at 1
	ID int64 `json:"id,omitempty"`

	Type EventType `json:"t,omitempty"`

	Timestamp time.Time `json:"ts,omitempty"`

	// Attributes are event type specific attributes, nil for unknown event types
	Attributes interface{} `json:"attr,omitempty"`
}

func (e Event) String() string {
	return e.Type.String()
}

func NewHistoryEvent(id int64, timestamp time.Time, eventType EventType, attributes interface{}) Event {
	return Event{
		ID:         id,
		Type:       eventType,
		Timestamp:  timestamp,
		Attributes: attributes,
	}
}
