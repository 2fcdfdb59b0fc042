package orch

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceAgent/internal/core"
	"github.com/dkeye/VoiceAgent/internal/domain"
	"github.com/dkeye/VoiceAgent/internal/metrics"
)

type stepKind int

const (
	stepCredential stepKind = iota
	stepConnect
	stepCapture
	stepPublish
)

func (k stepKind) String() string {
	switch k {
	case stepCredential:
		return "credential"
	case stepConnect:
		return "connect"
	case stepCapture:
		return "capture"
	case stepPublish:
		return "publish"
	default:
		return "unknown"
	}
}

// stepResult is what a worker reports back to the loop.
type stepResult struct {
	attempt     uint64
	kind        stepKind
	err         error
	credential  domain.Credential
	capture     core.CaptureHandle
	publication core.PublicationHandle
}

// release frees whatever a result carries when nobody will own it.
func (r stepResult) release() {
	if r.publication != nil {
		_ = r.publication.Unpublish()
	}
	if r.capture != nil {
		_ = r.capture.Release()
	}
}

func (o *Orchestrator) runStep(kind stepKind, fn func(ctx context.Context) stepResult) {
	ctx, attempt := o.attemptCtx, o.attempt
	go func() {
		res := fn(ctx)
		res.attempt = attempt
		res.kind = kind
		select {
		case o.steps <- res:
		case <-o.done:
			res.release()
		}
	}()
}

func (o *Orchestrator) join(ctx context.Context, reply chan error) {
	if !o.state.Kind.CanJoin() {
		metrics.JoinRejections.Inc()
		log.Info().Str("module", "orch").Str("state", o.state.Kind.String()).Msg("join rejected")
		reply <- &core.AlreadyActiveError{State: o.state.Kind}
		return
	}

	metrics.JoinAttempts.Inc()
	o.attempt++
	o.leaveRequested = false
	o.joinWaiters = append(o.joinWaiters, reply)
	if o.attemptCancel != nil {
		o.attemptCancel()
	}
	o.attemptCtx, o.attemptCancel = context.WithCancel(ctx)

	identity, err := o.deps.NewIdentity()
	if err != nil {
		o.identity = domain.SessionIdentity{}
		o.setState(core.StateOf(core.StateAcquiring))
		o.fail(stepCredential, err)
		return
	}
	o.identity = identity
	o.setState(core.StateOf(core.StateAcquiring))

	creds := o.deps.Credentials
	o.runStep(stepCredential, func(ctx context.Context) stepResult {
		cred, err := creds.RequestCredential(ctx, identity.Identity, identity.Room)
		return stepResult{credential: cred, err: err}
	})
}

func (o *Orchestrator) leave(reply chan error) {
	switch o.state.Kind {
	case core.StateIdle, core.StateDisconnected:
		reply <- nil
	case core.StateAcquiring, core.StateConnecting:
		// honored when the step in flight settles
		o.leaveRequested = true
		o.leaveWaiters = append(o.leaveWaiters, reply)
		o.syncSnapshot()
		log.Info().Str("module", "orch").Str("state", o.state.Kind.String()).Msg("leave deferred until step settles")
	case core.StateFailed:
		o.teardown()
		o.identity = domain.SessionIdentity{}
		o.setState(core.StateOf(core.StateDisconnected))
		reply <- nil
	default:
		o.setState(core.StateOf(core.StateDisconnecting))
		o.teardown()
		o.identity = domain.SessionIdentity{}
		o.setState(core.StateOf(core.StateDisconnected))
		reply <- nil
	}
}

func (o *Orchestrator) handleStep(res stepResult) {
	if res.attempt != o.attempt {
		log.Warn().Str("module", "orch").Str("step", res.kind.String()).Msg("dropping stale step result")
		res.release()
		return
	}

	if res.err != nil {
		if res.kind == stepConnect {
			// a failed connect leaves nothing to disconnect
			o.transport = nil
		}
		if o.leaveRequested {
			log.Info().Err(res.err).Str("module", "orch").Str("step", res.kind.String()).Msg("step failed after leave")
			o.finishLeave()
			return
		}
		o.fail(res.kind, res.err)
		return
	}

	switch res.kind {
	case stepCredential:
		if o.leaveRequested {
			o.finishLeave()
			return
		}
		o.transport = o.deps.Transports.NewSession()
		o.setState(core.StateOf(core.StateConnecting))

		transport, cred := o.transport, res.credential
		o.runStep(stepConnect, func(ctx context.Context) stepResult {
			return stepResult{err: transport.Connect(ctx, cred.TransportURL, cred.AccessToken)}
		})

	case stepConnect:
		if o.leaveRequested {
			o.finishLeave()
			return
		}
		capture, opts := o.deps.Capture, o.deps.CaptureOptions
		o.runStep(stepCapture, func(ctx context.Context) stepResult {
			h, err := capture.AcquireAudioCapture(ctx, opts)
			return stepResult{capture: h, err: err}
		})

	case stepCapture:
		o.capture = res.capture
		if o.leaveRequested {
			o.finishLeave()
			return
		}
		transport, track := o.transport, o.capture.Track()
		o.runStep(stepPublish, func(ctx context.Context) stepResult {
			pub, err := transport.Publish(ctx, track)
			return stepResult{publication: pub, err: err}
		})

	case stepPublish:
		o.publication = res.publication
		if o.leaveRequested {
			o.finishLeave()
			return
		}
		o.events = o.transport.Events()
		o.setState(core.StateOf(core.StateConnected))
		o.settleJoin(nil)
	}
}

// fail ends the attempt after releasing whatever was acquired so far.
func (o *Orchestrator) fail(step stepKind, err error) {
	log.Warn().Err(err).Str("module", "orch").Str("step", step.String()).Msg("join step failed")
	o.teardown()
	metrics.RecordJoinFailure(string(core.CauseOf(err)))
	o.setState(core.FailedState(err))
	o.settleJoin(err)
}

func (o *Orchestrator) finishLeave() {
	o.leaveRequested = false
	o.teardown()
	o.identity = domain.SessionIdentity{}
	o.setState(core.StateOf(core.StateDisconnected))
	o.settleJoin(core.ErrJoinCanceled)
	o.settleLeave(nil)
}

// teardown releases publication, capture, render bindings and the transport,
// in that order. Every call is best effort.
func (o *Orchestrator) teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), o.deps.TeardownTimeout)
	defer cancel()

	if o.publication != nil {
		if err := o.publication.Unpublish(); err != nil {
			o.teardownError("unpublish", err)
		}
		o.publication = nil
	}
	if o.capture != nil {
		if err := o.capture.Release(); err != nil {
			o.teardownError("capture", err)
		}
		o.capture = nil
	}
	o.releaseAllBindings()
	clear(o.participants)
	o.events = nil

	if o.transport != nil {
		if err := o.transport.Disconnect(ctx); err != nil {
			o.teardownError("disconnect", err)
		}
		o.transport = nil
	}
	o.syncSnapshot()
}

func (o *Orchestrator) teardownError(step string, err error) {
	metrics.RecordTeardownError(step)
	log.Error().Err(err).Str("module", "orch").Str("step", step).Msg("teardown step failed")
}

func (o *Orchestrator) settleJoin(err error) {
	for _, w := range o.joinWaiters {
		w <- err
	}
	o.joinWaiters = nil
}

func (o *Orchestrator) settleLeave(err error) {
	for _, w := range o.leaveWaiters {
		w <- err
	}
	o.leaveWaiters = nil
}

// IsCanceled reports whether a Join ended because Leave won the race.
func IsCanceled(err error) bool {
	return errors.Is(err, core.ErrJoinCanceled)
}
