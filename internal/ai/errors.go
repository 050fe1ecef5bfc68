// Package ai provides clients for the generative model and the embedding
// service used by the TruthGuard pipeline.
package ai

import "fmt"

// ErrorKind is the closed taxonomy of remote-call failures. Stage logic
// switches on the kind instead of inspecting error strings or types.
type ErrorKind int

const (
	// KindTransient covers rate limits, timeouts, server errors, and
	// anything else worth retrying with backoff.
	KindTransient ErrorKind = iota
	// KindSafety is a content-safety block. Never retried.
	KindSafety
	// KindValidation is a response that arrived but does not conform to the
	// expected schema. Retried; the model may succeed on a re-ask.
	KindValidation
	// KindFatal is a non-recoverable request error (bad credentials,
	// malformed request). Never retried.
	KindFatal
)

// String returns the kind label used in fallback reasons and logs.
func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindSafety:
		return "safety"
	case KindValidation:
		return "validation"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// CallError is the tagged error produced by the remote-call adapters. Reason
// is a short stable token (e.g. "RateLimited", "SafetyBlocked") used in
// fallback annotations; Err carries the underlying cause.
type CallError struct {
	Kind   ErrorKind
	Reason string
	Err    error
}

func (e *CallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ai call (%s/%s): %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("ai call (%s/%s)", e.Kind, e.Reason)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

func newCallError(kind ErrorKind, reason string, err error) *CallError {
	return &CallError{Kind: kind, Reason: reason, Err: err}
}
