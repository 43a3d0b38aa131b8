package metrickeys

const (
	Prefix = "swf."

	// Polling
	PollErrors = Prefix + "poll.errors"
	PollEmpty  = Prefix + "poll.empty"

	// Decisions
	DecisionTaskProcessed = Prefix + "decision.task.processed"
	DecisionTaskSkipped   = Prefix + "decision.task.skipped"
	DecisionTaskAbandoned = Prefix + "decision.task.abandoned"
	DecisionsMade         = Prefix + "decision.decisions"

	// Activities
	ActivityTaskProcessed = Prefix + "activity.task.processed"
	ActivityTaskCompleted = Prefix + "activity.task.completed"
	ActivityTaskFailed    = Prefix + "activity.task.failed"
	ActivityRespondFailed = Prefix + "activity.task.respond_failed"

	// Workflow executions, local orchestrator
	WorkflowExecutionStarted   = Prefix + "workflow.started"
	WorkflowExecutionCompleted = Prefix + "workflow.completed"
	TaskTimedOut               = Prefix + "task.timed_out"
)

// Tag names
const (
	// Backend being used
	Backend = "backend"

	Worker       = "worker"
	ActivityType = "activity"
	WorkflowType = "workflow"
	Reason       = "reason"
	Kind         = "kind"
)
