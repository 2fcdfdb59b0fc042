package core

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyActive     = errors.New("session already active")
	ErrNotConnected      = errors.New("transport not connected")
	ErrMalformedResponse = errors.New("malformed response")
	ErrIdentityMismatch  = errors.New("issued token does not match requested identity")
	ErrJoinCanceled      = errors.New("join canceled by leave")
	ErrStopped           = errors.New("orchestrator stopped")
)

// CredentialError reports a bad or missing issuer response.
type CredentialError struct {
	StatusCode int
	Status     string
	Err        error
}

func (e *CredentialError) Error() string {
	if e.StatusCode != 0 {
		return "Server error: " + e.Status
	}
	if e.Err != nil {
		return "credential: " + e.Err.Error()
	}
	return "credential error"
}

func (e *CredentialError) Unwrap() error { return e.Err }

type CaptureFailure int

const (
	CaptureDeviceUnavailable CaptureFailure = iota
	CapturePermissionDenied
	CaptureNoCompatibleDevice
	CaptureAlreadyActive
	CaptureInvalidOptions
)

func (f CaptureFailure) String() string {
	switch f {
	case CaptureDeviceUnavailable:
		return "device unavailable"
	case CapturePermissionDenied:
		return "permission denied"
	case CaptureNoCompatibleDevice:
		return "no compatible input device"
	case CaptureAlreadyActive:
		return "capture already active"
	case CaptureInvalidOptions:
		return "invalid capture options"
	default:
		return "capture failure"
	}
}

// CaptureError reports that the audio input could not be acquired.
type CaptureError struct {
	Kind CaptureFailure
	Err  error
}

func (e *CaptureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("microphone: %s: %v", e.Kind, e.Err)
	}
	return "microphone: " + e.Kind.String()
}

func (e *CaptureError) Unwrap() error { return e.Err }

// TransportError reports a connect or protocol failure.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// PublicationError reports a publish attempted in the wrong state or rejected.
type PublicationError struct {
	Err error
}

func (e *PublicationError) Error() string {
	return fmt.Sprintf("publish: %v", e.Err)
}

func (e *PublicationError) Unwrap() error { return e.Err }

// AlreadyActiveError is returned for a join issued while a session is in flight.
type AlreadyActiveError struct {
	State StateKind
}

func (e *AlreadyActiveError) Error() string {
	return "join rejected: session is " + e.State.String()
}

func (e *AlreadyActiveError) Is(target error) bool { return target == ErrAlreadyActive }
