// Package orch drives one voice session from join to teardown.
package orch

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceAgent/internal/core"
	"github.com/dkeye/VoiceAgent/internal/domain"
	"github.com/dkeye/VoiceAgent/internal/metrics"
)

const defaultTeardownTimeout = 5 * time.Second

// StatePublisher receives every state transition. It must not block.
type StatePublisher interface {
	Publish(core.SessionState)
}

type Deps struct {
	Credentials    core.CredentialClient
	Capture        core.CaptureDeviceManager
	Transports     core.TransportFactory
	Renderer       core.Renderer
	Observers      StatePublisher
	CaptureOptions core.CaptureOptions
	// NewIdentity mints the identity and room for each attempt.
	NewIdentity     func() (domain.SessionIdentity, error)
	TeardownTimeout time.Duration
}

// Snapshot is a consistent read-only copy of the session.
type Snapshot struct {
	State        core.SessionState          `json:"session"`
	Identity     domain.SessionIdentity     `json:"identity"`
	Participants []string                   `json:"participants"`
	Bindings     []domain.MediaTrackBinding `json:"bindings"`
	Published    bool                       `json:"published"`
	LeavePending bool                       `json:"leave_pending,omitempty"`
}

type cmdKind int

const (
	cmdJoin cmdKind = iota
	cmdLeave
)

type command struct {
	kind  cmdKind
	reply chan error
}

type boundTrack struct {
	binding domain.MediaTrackBinding
	handle  core.RenderHandle
}

// Orchestrator owns the session state. Everything below the snapshot is
// touched only by the Run goroutine.
type Orchestrator struct {
	deps Deps

	cmds  chan command
	steps chan stepResult
	done  chan struct{}

	runOnce sync.Once

	snapMu sync.RWMutex
	snap   Snapshot

	state          core.SessionState
	attempt        uint64
	attemptCtx     context.Context
	attemptCancel  context.CancelFunc
	identity       domain.SessionIdentity
	joinWaiters    []chan error
	leaveWaiters   []chan error
	leaveRequested bool

	transport   core.TransportSession
	events      <-chan core.Event
	capture     core.CaptureHandle
	publication core.PublicationHandle

	participants map[string]struct{}
	bindings     map[string]*boundTrack
}

func New(deps Deps) *Orchestrator {
	if deps.NewIdentity == nil {
		deps.NewIdentity = func() (domain.SessionIdentity, error) {
			return domain.NewSessionIdentity(domain.DefaultIdentityPrefix, time.Now())
		}
	}
	if deps.TeardownTimeout <= 0 {
		deps.TeardownTimeout = defaultTeardownTimeout
	}
	o := &Orchestrator{
		deps:         deps,
		cmds:         make(chan command),
		steps:        make(chan stepResult),
		done:         make(chan struct{}),
		state:        core.StateOf(core.StateIdle),
		participants: make(map[string]struct{}),
		bindings:     make(map[string]*boundTrack),
	}
	o.snap.State = o.state
	return o
}

// Run is the session loop. It returns when ctx is done, after releasing
// every resource the session still holds.
func (o *Orchestrator) Run(ctx context.Context) error {
	started := false
	o.runOnce.Do(func() { started = true })
	if !started {
		return core.ErrStopped
	}
	defer close(o.done)

	log.Info().Str("module", "orch").Msg("session loop started")
	for {
		select {
		case <-ctx.Done():
			o.shutdown()
			log.Info().Str("module", "orch").Msg("session loop stopped")
			return ctx.Err()
		case cmd := <-o.cmds:
			o.handleCommand(ctx, cmd)
		case res := <-o.steps:
			o.handleStep(res)
		case ev, ok := <-o.events:
			o.handleEvent(ev, ok)
		}
	}
}

// Join starts an attempt and waits until it settles. It returns nil once
// Connected, the step error on failure, *core.AlreadyActiveError when a
// session is already in flight, or core.ErrJoinCanceled if leave won.
func (o *Orchestrator) Join(ctx context.Context) error {
	return o.send(ctx, cmdJoin)
}

// Leave tears the session down. It never reports teardown errors.
func (o *Orchestrator) Leave(ctx context.Context) error {
	return o.send(ctx, cmdLeave)
}

func (o *Orchestrator) send(ctx context.Context, kind cmdKind) error {
	reply := make(chan error, 1)
	select {
	case o.cmds <- command{kind: kind, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	case <-o.done:
		return core.ErrStopped
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-o.done:
		return core.ErrStopped
	}
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.snapMu.RLock()
	defer o.snapMu.RUnlock()
	s := o.snap
	s.Participants = append([]string(nil), o.snap.Participants...)
	s.Bindings = append([]domain.MediaTrackBinding(nil), o.snap.Bindings...)
	return s
}

func (o *Orchestrator) State() core.SessionState {
	o.snapMu.RLock()
	defer o.snapMu.RUnlock()
	return o.snap.State
}

func (o *Orchestrator) setState(next core.SessionState) {
	prev := o.state
	o.state = next
	metrics.RecordStateTransition(prev.Kind.String(), next.Kind.String())

	ev := log.Info()
	if next.Kind == core.StateFailed {
		ev = log.Warn()
	}
	ev.Str("module", "orch").
		Str("from", prev.Kind.String()).
		Str("to", next.Kind.String()).
		Str("identity", o.identity.Identity).
		Str("room", string(o.identity.Room)).
		Str("reason", next.Reason).
		Msg("state changed")

	o.syncSnapshot()
	if o.deps.Observers != nil {
		o.deps.Observers.Publish(next)
	}
}

func (o *Orchestrator) syncSnapshot() {
	participants := make([]string, 0, len(o.participants))
	for id := range o.participants {
		participants = append(participants, id)
	}
	sort.Strings(participants)

	bindings := make([]domain.MediaTrackBinding, 0, len(o.bindings))
	for _, b := range o.bindings {
		bindings = append(bindings, b.binding)
	}
	sort.Slice(bindings, func(i, j int) bool { return bindings[i].TrackID < bindings[j].TrackID })

	o.snapMu.Lock()
	o.snap = Snapshot{
		State:        o.state,
		Identity:     o.identity,
		Participants: participants,
		Bindings:     bindings,
		Published:    o.publication != nil,
		LeavePending: o.leaveRequested,
	}
	o.snapMu.Unlock()
}

func (o *Orchestrator) handleCommand(ctx context.Context, cmd command) {
	switch cmd.kind {
	case cmdJoin:
		o.join(ctx, cmd.reply)
	case cmdLeave:
		o.leave(cmd.reply)
	}
}

// shutdown runs when the loop is stopping: whatever is held gets released
// and every waiter is told the loop is gone.
func (o *Orchestrator) shutdown() {
	if o.attemptCancel != nil {
		o.attemptCancel()
	}
	if o.transport != nil || o.capture != nil || o.publication != nil || len(o.bindings) > 0 {
		o.teardown()
		o.setState(core.StateOf(core.StateDisconnected))
	}
	o.settleJoin(core.ErrStopped)
	o.settleLeave(core.ErrStopped)
}
