// ABOUTME: The single failure type surfaced by every dispatch and bulk read
// ABOUTME: Classifies network, authority and response-shape problems

package dispatch

import (
	"errors"
	"fmt"
)

// ErrMissingField is returned by local presence checks before anything is sent.
var ErrMissingField = errors.New("required field missing")

// FailureKind classifies a Failure.
type FailureKind int

const (
	// Unreachable means the request never produced an HTTP response.
	Unreachable FailureKind = iota
	// Rejected means the authority answered with an error.
	Rejected
	// Malformed means the authority's success response had an unexpected shape.
	Malformed
)

func (k FailureKind) String() string {
	switch k {
	case Unreachable:
		return "unreachable"
	case Rejected:
		return "rejected"
	case Malformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Failure describes a dispatch or bulk read that did not succeed. Message is
// suitable for showing to the operator: the authority's own message when it
// sent one, otherwise a generic description.
type Failure struct {
	Action  string
	Kind    FailureKind
	Status  int
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Status != 0 {
		return fmt.Sprintf("%s %s (status %d): %s", f.Action, f.Kind, f.Status, f.Message)
	}
	return fmt.Sprintf("%s %s: %s", f.Action, f.Kind, f.Message)
}

func (f *Failure) Unwrap() error { return f.Err }

// StatusError is returned by a Transport when the authority answers with a
// non-success status.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("authority returned status %d: %s", e.Status, e.Message)
}

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// classify turns a transport error into a Failure.
func classify(action string, err error) *Failure {
	var se *StatusError
	if errors.As(err, &se) {
		msg := se.Message
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", se.Status)
		}
		return &Failure{Action: action, Kind: Rejected, Status: se.Status, Message: msg, Err: err}
	}
	return &Failure{Action: action, Kind: Unreachable, Message: "authority unreachable", Err: err}
}

func malformed(action string, err error) *Failure {
	return &Failure{Action: action, Kind: Malformed, Message: "unexpected response from authority", Err: err}
}
