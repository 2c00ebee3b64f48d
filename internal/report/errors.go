package report

import (
	"errors"
	"strings"
)

// ValidationError carries every form violation found, joined: validation
// collects all reasons rather than failing on the first.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Reasons, ", ")
}

// IsValidationError reports whether err is a form validation failure
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// DependencyNotFoundError means a backend entity the submission depends on
// (task, material, report key field) could not be resolved. Fatal for the
// submission; the message names the missing entity.
type DependencyNotFoundError struct {
	Message string
}

func (e *DependencyNotFoundError) Error() string {
	return e.Message
}

// IsDependencyNotFound reports whether err is a missing-dependency failure
func IsDependencyNotFound(err error) bool {
	var dErr *DependencyNotFoundError
	return errors.As(err, &dErr)
}
