package history

type ActivityTaskCompletedAttributes struct {
	ScheduledEventID int64 `json:"scheduled_event_id,omitempty"`
	StartedEventID   int64 `json:"started_event_id,omitempty"`

	Result string `json:"result,omitempty"`
}

type ActivityTaskFailedAttributes struct {
	ScheduledEventID int64 `json:"scheduled_event_id,omitempty"`
	StartedEventID   int64 `json:"started_event_id,omitempty"`

	Reason  string `json:"reason,omitempty"`
	Details string `json:"details,omitempty"`
}

// Timeout types reported with ActivityTaskTimedOut events.
const (
	TimeoutTypeStartToClose    = "START_TO_CLOSE"
	TimeoutTypeScheduleToStart = "SCHEDULE_TO_START"
)

type ActivityTaskTimedOutAttributes struct {
	ScheduledEventID int64 `json:"scheduled_event_id,omitempty"`
	StartedEventID   int64 `json:"started_event_id,omitempty"`

	TimeoutType string `json:"timeout_type,omitempty"`
}
