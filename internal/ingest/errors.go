package ingest

import (
	"errors"
	"fmt"

	"thirdcoast.systems/ytingest/internal/youtube"
)

// UpstreamError reports a failed search call: a network failure, a non-2xx
// answer or an undecodable body. Nothing is persisted when it is returned.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// StatusCode returns the upstream HTTP status, or 0 when the call never got
// an answer.
func (e *UpstreamError) StatusCode() int {
	var se *youtube.StatusError
	if errors.As(e.Err, &se) {
		return se.StatusCode
	}
	return 0
}

// ValidationError reports input rejected at the boundary. Msg is safe to
// show to the caller.
type ValidationError struct {
	Msg string
	Err error
}

func (e *ValidationError) Error() string {
	if e.Err != nil && e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// AuthenticityError reports a webhook body whose signature did not verify.
type AuthenticityError struct {
	Err error
}

var errSignatureMismatch = errors.New("signature mismatch")

func (e *AuthenticityError) Error() string {
	return fmt.Sprintf("authenticity: %v", e.Err)
}

func (e *AuthenticityError) Unwrap() error { return e.Err }

// PersistenceError reports a failed write or commit. The transaction was
// rolled back.
type PersistenceError struct {
	VideoID string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist video %q: %v", e.VideoID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
