package walker

import (
	"context"
	"errors"

	"github.com/charles-forsyth/Skywalker/types"
)

// ClassifiedError tags a walker error with a failure class so the retry
// policy can decide whether another attempt makes sense.
type ClassifiedError struct {
	Class types.FailureClass
	Err   error
}

func (e *ClassifiedError) Error() string {
	return string(e.Class) + ": " + e.Err.Error()
}

func (e *ClassifiedError) Unwrap() error { return e.Err }

// NewError wraps err with a failure class.
func NewError(class types.FailureClass, err error) *ClassifiedError {
	return &ClassifiedError{Class: class, Err: err}
}

// Classify extracts the failure class from a walker error. Context
// cancellation wins over any wrapped classification; everything
// unclassified is unknown.
func Classify(err error) types.FailureClass {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return types.FailureCancelled
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class
	}
	return types.FailureUnknown
}
