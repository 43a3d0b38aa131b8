package core

import (
	"errors"
	"regexp"
)

// Domain scopes workflow and activity types, task lists and executions.
type Domain string

// TaskList routes tasks to the workers polling it.
type TaskList string

// Names may not contain whitespace, ':', '/', '|' or control characters, nor be the literal "arn".
var validName = regexp.MustCompile(`^[^\s:/|\x00-\x1f\x7f-\x9f]{1,256}$`)

// ValidName ensures that a domain, task list or type name can be used with the orchestrator.
func ValidName(name string) error {
	if name == "arn" || !validName.MatchString(name) {
		return errors.New("invalid name")
	}

	return nil
}
