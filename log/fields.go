package log

const (
	NamespaceKey = "swf"

	DomainKey   = NamespaceKey + ".domain"
	TaskListKey = NamespaceKey + ".task_list"
	IdentityKey = NamespaceKey + ".identity"

	WorkflowIDKey   = NamespaceKey + ".workflow.id"
	RunIDKey        = NamespaceKey + ".workflow.run_id"
	WorkflowTypeKey = NamespaceKey + ".workflow.type"

	ActivityIDKey      = NamespaceKey + ".activity.id"
	ActivityTypeKey    = NamespaceKey + ".activity.type"
	ActivityInputKey   = NamespaceKey + ".activity.input"
	ActivityResultKey  = NamespaceKey + ".activity.result"
	ActivityReasonKey  = NamespaceKey + ".activity.reason"
	ActivityDetailsKey = NamespaceKey + ".activity.details"

	EventTypeKey  = NamespaceKey + ".event.type"
	EventIDKey    = NamespaceKey + ".event.id"
	EventCountKey = NamespaceKey + ".event.count"

	// TaskTokenKey carries a shortened task token, full tokens are credentials and not logged
	TaskTokenKey  = NamespaceKey + ".task.token"
	DecisionsKey  = NamespaceKey + ".task.decisions"
	WorkerKey     = NamespaceKey + ".worker"
	AttemptKey    = NamespaceKey + ".attempt"
	DurationKey   = NamespaceKey + ".duration_ms"
	BackoffKey    = NamespaceKey + ".backoff"
	BackendKey    = NamespaceKey + ".backend"
	StackTraceKey = NamespaceKey + ".stacktrace"
)

// Token shortens a task token for logging.
func Token(token string) string {
	if len(token) <= 8 {
		return token
	}

	return token[:8] + "…"
}
