package activity

import (
	"context"
	"log/slog"

	"github.com/cschleiden/swf-workers/core"
	"github.com/cschleiden/swf-workers/log"
)

type state struct {
	ActivityID   string
	ActivityType core.ActivityType
	Execution    core.WorkflowExecution
	Logger       *slog.Logger
}

func newState(activityID string, activityType core.ActivityType, execution core.WorkflowExecution, logger *slog.Logger) *state {
	return &state{
		ActivityID:   activityID,
		ActivityType: activityType,
		Execution:    execution,
		Logger: logger.With(
			log.ActivityIDKey, activityID,
			log.ActivityTypeKey, activityType.Name,
			log.WorkflowIDKey, execution.WorkflowID,
			log.RunIDKey, execution.RunID,
		),
	}
}

type key int

var stateCtxKey key

func withState(ctx context.Context, s *state) context.Context {
	return context.WithValue(ctx, stateCtxKey, s)
}

func getState(ctx context.Context) *state {
	s, _ := ctx.Value(stateCtxKey).(*state)
	return s
}

// Logger returns a logger with the activity task this activity is executed for set as default
// fields. Outside of an activity task the default logger is returned.
func Logger(ctx context.Context) *slog.Logger {
	if s := getState(ctx); s != nil {
		return s.Logger
	}

	return slog.Default()
}

// ID returns the id of the activity task the activity is executed for.
func ID(ctx context.Context) string {
	if s := getState(ctx); s != nil {
		return s.ActivityID
	}

	return ""
}
