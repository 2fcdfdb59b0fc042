package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanJoin(t *testing.T) {
	allowed := map[StateKind]bool{
		StateIdle:          true,
		StateAcquiring:     false,
		StateConnecting:    false,
		StateConnected:     false,
		StateDisconnecting: false,
		StateDisconnected:  true,
		StateFailed:        true,
	}
	for kind, want := range allowed {
		assert.Equal(t, want, kind.CanJoin(), kind.String())
	}
}

func TestCauseOf(t *testing.T) {
	tests := []struct {
		err  error
		want FailureCause
	}{
		{nil, CauseNone},
		{&CredentialError{StatusCode: 500, Status: "500 Internal Server Error"}, CauseCredential},
		{&CaptureError{Kind: CapturePermissionDenied}, CauseCapture},
		{&TransportError{Op: "connect", Err: errors.New("refused")}, CauseTransport},
		{&PublicationError{Err: ErrNotConnected}, CausePublication},
		{fmt.Errorf("step: %w", &CaptureError{Kind: CaptureDeviceUnavailable}), CauseCapture},
		{errors.New("other"), CauseInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CauseOf(tt.err), fmt.Sprint(tt.err))
	}
}

func TestFailedState(t *testing.T) {
	s := FailedState(&CredentialError{StatusCode: 500, Status: "500 Internal Server Error"})
	assert.Equal(t, StateFailed, s.Kind)
	assert.Equal(t, CauseCredential, s.Cause)
	assert.Equal(t, "Server error: 500 Internal Server Error", s.Reason)
	assert.Equal(t, "failed(Server error: 500 Internal Server Error)", s.String())

	assert.Equal(t, "connected", StateOf(StateConnected).String())
}

func TestSessionStateJSON(t *testing.T) {
	data, err := json.Marshal(FailedState(&CaptureError{Kind: CapturePermissionDenied}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"failed","reason":"microphone: permission denied","cause":"capture"}`, string(data))

	data, err = json.Marshal(StateOf(StateIdle))
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"idle"}`, string(data))
}

func TestAlreadyActiveError(t *testing.T) {
	err := error(&AlreadyActiveError{State: StateConnecting})
	assert.ErrorIs(t, err, ErrAlreadyActive)
	assert.Equal(t, "join rejected: session is connecting", err.Error())
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("dial tcp: refused")
	assert.ErrorIs(t, &TransportError{Op: "connect", Err: inner}, inner)
	assert.ErrorIs(t, &PublicationError{Err: ErrNotConnected}, ErrNotConnected)
	assert.ErrorIs(t, &CredentialError{Err: ErrMalformedResponse}, ErrMalformedResponse)

	assert.Equal(t, "credential: malformed response", (&CredentialError{Err: ErrMalformedResponse}).Error())
	assert.Equal(t, "microphone: no compatible input device", (&CaptureError{Kind: CaptureNoCompatibleDevice}).Error())
}
