package history

type ExecutionCompletedAttributes struct {
	Result string `json:"result,omitempty"`

	DecisionTaskCompletedEventID int64 `json:"decision_task_completed_event_id,omitempty"`
}
