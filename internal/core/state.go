package core

import "errors"

type StateKind int

const (
	StateIdle StateKind = iota
	StateAcquiring
	StateConnecting
	StateConnected
	StateDisconnecting
	StateDisconnected
	StateFailed
)

func (k StateKind) String() string {
	switch k {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnecting:
		return "disconnecting"
	case StateDisconnected:
		return "disconnected"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (k StateKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// CanJoin reports whether a new join attempt may start from this state.
func (k StateKind) CanJoin() bool {
	return k == StateIdle || k == StateDisconnected || k == StateFailed
}

// FailureCause tells the presentation layer which step failed, so that a
// permission problem can be shown differently from a network problem.
type FailureCause string

const (
	CauseNone        FailureCause = ""
	CauseCredential  FailureCause = "credential"
	CauseCapture     FailureCause = "capture"
	CauseTransport   FailureCause = "transport"
	CausePublication FailureCause = "publication"
	CauseInternal    FailureCause = "internal"
)

// SessionState is the single externally observable session state.
type SessionState struct {
	Kind   StateKind    `json:"state"`
	Reason string       `json:"reason,omitempty"`
	Cause  FailureCause `json:"cause,omitempty"`
}

func StateOf(kind StateKind) SessionState {
	return SessionState{Kind: kind}
}

// FailedState builds Failed(reason) from the error that ended the attempt.
func FailedState(err error) SessionState {
	s := SessionState{Kind: StateFailed, Cause: CauseOf(err)}
	if err != nil {
		s.Reason = err.Error()
	}
	return s
}

func (s SessionState) String() string {
	if s.Kind == StateFailed && s.Reason != "" {
		return s.Kind.String() + "(" + s.Reason + ")"
	}
	return s.Kind.String()
}

func CauseOf(err error) FailureCause {
	var (
		credErr *CredentialError
		capErr  *CaptureError
		trErr   *TransportError
		pubErr  *PublicationError
	)
	switch {
	case err == nil:
		return CauseNone
	case errors.As(err, &credErr):
		return CauseCredential
	case errors.As(err, &capErr):
		return CauseCapture
	case errors.As(err, &pubErr):
		return CausePublication
	case errors.As(err, &trErr):
		return CauseTransport
	default:
		return CauseInternal
	}
}
