package tracing

const (
	WorkflowID   = "workflow.id"
	RunID        = "workflow.run_id"
	WorkflowType = "workflow.type"

	DecisionTaskEvents    = "decision_task.events"
	DecisionTaskDecisions = "decision_task.decisions"

	ActivityID   = "activity_task.id"
	ActivityType = "activity_task.type"

	StartedEventID = "started_event_id"
	FailureReason  = "failure.reason"
)
