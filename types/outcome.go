package types

// FailureClass categorizes why a scan unit failed.
type FailureClass string

const (
	// FailureTransient covers rate limits, timeouts and 5xx-equivalent
	// errors. These are retried by the retry policy.
	FailureTransient FailureClass = "transient"

	// FailurePermissionDenied means the caller lacks IAM permissions for
	// the scope. Retrying cannot fix it.
	FailurePermissionDenied FailureClass = "permission-denied"

	// FailureNotFound means the scope no longer exists.
	FailureNotFound FailureClass = "not-found"

	// FailureCancelled means the orchestrator was aborted before or while
	// the unit ran.
	FailureCancelled FailureClass = "cancelled"

	// FailureUnknown is everything else.
	FailureUnknown FailureClass = "unknown"
)

// Retryable reports whether the retry policy should attempt the unit again.
func (c FailureClass) Retryable() bool {
	return c == FailureTransient
}

// ScanFailure describes a failed scan unit.
type ScanFailure struct {
	Class   FailureClass `json:"class"`
	Message string       `json:"message"`
}

// ValidationError records one raw resource that failed schema validation.
// Counted separately from scan failures: the unit itself still succeeds.
type ValidationError struct {
	Scope      ScanScope `json:"scope"`
	Identifier string    `json:"identifier,omitempty"`
	Reason     string    `json:"reason"`
}

// ScanOutcome is the result of one scan unit. Exactly one of Records or
// Failure holds; Invalid carries raw resources dropped by validation on
// an otherwise successful unit.
type ScanOutcome struct {
	Scope    ScanScope         `json:"scope"`
	Records  []ResourceRecord  `json:"records,omitempty"`
	Invalid  []ValidationError `json:"invalid,omitempty"`
	Failure  *ScanFailure      `json:"failure,omitempty"`
	Attempts int               `json:"attempts"`
}

// Failed reports whether the unit produced a failure instead of records.
func (o ScanOutcome) Failed() bool {
	return o.Failure != nil
}
