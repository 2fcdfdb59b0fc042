package core

type EventKind int

const (
	EventConnected EventKind = iota + 1
	EventDisconnected
	EventParticipantJoined
	EventParticipantLeft
	EventTrackSubscribed
	EventTrackUnsubscribed
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventParticipantJoined:
		return "participant_joined"
	case EventParticipantLeft:
		return "participant_left"
	case EventTrackSubscribed:
		return "track_subscribed"
	case EventTrackUnsubscribed:
		return "track_unsubscribed"
	default:
		return "unknown"
	}
}

// Event is one transport notification. Participant is set for participant and
// track events, Track only for track events, Reason only for Disconnected.
type Event struct {
	Kind        EventKind
	Participant string
	Track       RemoteTrack
	Reason      string
}
