package workflowerrors

import goerrors "github.com/go-errors/errors"

// stack returns the formatted stack of the calling goroutine, skip 1 starts at the caller of stack
func stack(skip int) string {
	goerr := goerrors.Wrap("", skip)
	return string(goerr.Stack())
}
