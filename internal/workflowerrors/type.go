package workflowerrors

import (
	"errors"
	"reflect"
)

// Wrappers from the standard library that do not name a failure themselves
var anonymous = map[string]map[string]bool{
	"errors": {"errorString": true, "joinError": true},
	"fmt":    {"wrapError": true, "wrapErrors": true},
}

// getErrorType returns the name of the given error type, returns "" for the anonymous error
// types of the standard library
func getErrorType(err error) string {
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if anonymous[t.PkgPath()][t.Name()] {
		return ""
	}

	return t.Name()
}

// Kind returns a short label naming the kind of the given error: the name of its type, or the
// name of the first named type it wraps. Errors without any named type are labeled "Error".
func Kind(err error) string {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if name := getErrorType(e); name != "" {
			return name
		}
	}

	return "Error"
}
