package gcp

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"

	"github.com/charles-forsyth/Skywalker/types"
	"github.com/charles-forsyth/Skywalker/walker"
)

// classify tags a GCP API error with a failure class so the retry policy
// knows what to do with it. Context cancellation passes through untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return walker.NewError(classOf(err), err)
}

func classOf(err error) types.FailureClass {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusTooManyRequests:
			return types.FailureTransient
		case gerr.Code >= http.StatusInternalServerError:
			return types.FailureTransient
		case gerr.Code == http.StatusForbidden:
			// Rate limit violations also surface as 403 with a reason.
			for _, item := range gerr.Errors {
				if strings.Contains(item.Reason, "ateLimitExceeded") ||
					item.Reason == "quotaExceeded" {
					return types.FailureTransient
				}
			}
			return types.FailurePermissionDenied
		case gerr.Code == http.StatusUnauthorized:
			return types.FailurePermissionDenied
		case gerr.Code == http.StatusNotFound:
			return types.FailureNotFound
		}
	}

	// Fallback on message text for errors that lost their type.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Quota exceeded"),
		strings.Contains(msg, "rateLimitExceeded"),
		strings.Contains(msg, "RESOURCE_EXHAUSTED"):
		return types.FailureTransient
	case strings.Contains(msg, "permission denied"),
		strings.Contains(msg, "PermissionDenied"),
		strings.Contains(msg, "forbidden"),
		strings.Contains(msg, "does not have"):
		return types.FailurePermissionDenied
	case strings.Contains(msg, "notFound"),
		strings.Contains(msg, "not found"):
		return types.FailureNotFound
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "connection reset"):
		return types.FailureTransient
	}
	return types.FailureUnknown
}
