package orch

import (
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceAgent/internal/core"
	"github.com/dkeye/VoiceAgent/internal/domain"
)

// handleEvent folds one transport event into the session. Events only
// count while Connected.
func (o *Orchestrator) handleEvent(ev core.Event, ok bool) {
	if !ok {
		ev = core.Event{Kind: core.EventDisconnected, Reason: "transport closed"}
	}
	if o.state.Kind != core.StateConnected {
		log.Debug().Str("module", "orch").Str("event", ev.Kind.String()).Msg("event ignored outside connected")
		if !ok {
			o.events = nil
		}
		return
	}

	switch ev.Kind {
	case core.EventConnected:
	case core.EventDisconnected:
		o.onTransportDisconnected(ev.Reason)
	case core.EventParticipantJoined:
		o.onParticipantJoined(ev.Participant)
	case core.EventParticipantLeft:
		o.onParticipantLeft(ev.Participant)
	case core.EventTrackSubscribed:
		o.onTrackSubscribed(ev.Track, ev.Participant)
	case core.EventTrackUnsubscribed:
		o.onTrackUnsubscribed(ev.Track, ev.Participant)
	}
}

func (o *Orchestrator) onTransportDisconnected(reason string) {
	log.Warn().Str("module", "orch").Str("reason", reason).Msg("transport disconnected")
	o.teardown()
	o.identity = domain.SessionIdentity{}
	o.setState(core.StateOf(core.StateDisconnected))
}

func (o *Orchestrator) onParticipantJoined(identity string) {
	if identity == "" {
		return
	}
	if _, ok := o.participants[identity]; ok {
		return
	}
	o.participants[identity] = struct{}{}
	log.Info().Str("module", "orch").Str("participant", identity).Msg("participant joined")
	o.syncSnapshot()
}

func (o *Orchestrator) onParticipantLeft(identity string) {
	delete(o.participants, identity)
	for id, b := range o.bindings {
		if b.binding.ParticipantIdentity == identity {
			o.releaseBinding(id)
		}
	}
	log.Info().Str("module", "orch").Str("participant", identity).Msg("participant left")
	o.syncSnapshot()
}

// onTrackSubscribed binds a remote audio track to playback, one binding per track.
func (o *Orchestrator) onTrackSubscribed(track core.RemoteTrack, participant string) {
	if track == nil || track.Kind() != webrtc.RTPCodecTypeAudio {
		return
	}
	if participant != "" {
		o.participants[participant] = struct{}{}
	}
	id := track.ID()
	if _, ok := o.bindings[id]; ok {
		o.releaseBinding(id)
	}
	if o.deps.Renderer == nil {
		return
	}

	handle, err := o.deps.Renderer.Attach(track, participant)
	if err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("track_id", id).Str("participant", participant).Msg("cannot render track")
		o.syncSnapshot()
		return
	}
	o.bindings[id] = &boundTrack{
		binding: domain.MediaTrackBinding{
			ParticipantIdentity: participant,
			TrackID:             id,
			Kind:                domain.TrackKindAudio,
		},
		handle: handle,
	}
	log.Info().Str("module", "orch").Str("track_id", id).Str("participant", participant).Msg("track bound")
	o.syncSnapshot()
}

func (o *Orchestrator) onTrackUnsubscribed(track core.RemoteTrack, participant string) {
	if track == nil {
		return
	}
	if _, ok := o.bindings[track.ID()]; !ok {
		return
	}
	o.releaseBinding(track.ID())
	log.Info().Str("module", "orch").Str("track_id", track.ID()).Str("participant", participant).Msg("track unbound")
	o.syncSnapshot()
}

func (o *Orchestrator) releaseBinding(trackID string) {
	b, ok := o.bindings[trackID]
	if !ok {
		return
	}
	delete(o.bindings, trackID)
	b.handle.Release()
}

func (o *Orchestrator) releaseAllBindings() {
	for id := range o.bindings {
		o.releaseBinding(id)
	}
}
