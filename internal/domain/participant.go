package domain

type TrackKind string

const (
	TrackKindAudio TrackKind = "audio"
	TrackKindVideo TrackKind = "video"
)

// RemoteParticipant exists only while the session is connected.
type RemoteParticipant struct {
	Identity string `json:"identity"`
}

// MediaTrackBinding is the read-only view of one rendered remote track.
type MediaTrackBinding struct {
	ParticipantIdentity string    `json:"participant"`
	TrackID             string    `json:"track_id"`
	Kind                TrackKind `json:"kind"`
}
