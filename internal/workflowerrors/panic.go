package workflowerrors

import "fmt"

type PanicError struct {
	message    string
	stacktrace string
}

func (pe *PanicError) Error() string {
	return pe.message
}

func (pe *PanicError) Stack() string {
	return pe.stacktrace
}

// NewPanicError creates an error for a recovered panic. Call it from the deferred function that
// recovered, the captured stack starts at its caller.
func NewPanicError(msg string) *PanicError {
	return &PanicError{
		message:    msg,
		stacktrace: stack(3),
	}
}

// FromPanic converts a value returned by recover into an error.
func FromPanic(r interface{}) *PanicError {
	return &PanicError{
		message:    fmt.Sprintf("panic: %v", r),
		stacktrace: stack(3),
	}
}
