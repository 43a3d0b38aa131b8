package activity

import "context"

// Activity is the unit of work run for every activity task. It receives the task's input and
// returns the result reported to the orchestrator. A returned error, or a panic, is reported as
// a failure of the task.
type Activity func(ctx context.Context, input string) (string, error)
