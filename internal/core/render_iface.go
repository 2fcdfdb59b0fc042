package core

// RenderHandle is a playing remote track. Release is idempotent.
type RenderHandle interface {
	Release()
}

// Renderer is the playback collaborator handed every subscribed audio track.
type Renderer interface {
	Attach(track RemoteTrack, participant string) (RenderHandle, error)
}
