package app

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceAgent/internal/core"
)

type observerEntry struct {
	ch chan core.SessionState
}

// Registry fans session state out to presentation observers. New observers
// get the latest state right away.
type Registry struct {
	mu        sync.RWMutex
	observers map[uuid.UUID]*observerEntry
	last      core.SessionState
	policy    Policy
}

func NewRegistry(policy Policy) *Registry {
	if policy == nil {
		policy = LatestStatePolicy{}
	}
	return &Registry{
		observers: make(map[uuid.UUID]*observerEntry),
		last:      core.StateOf(core.StateIdle),
		policy:    policy,
	}
}

func (r *Registry) Subscribe(buffer int) (uuid.UUID, <-chan core.SessionState) {
	if buffer < 1 {
		buffer = 1
	}
	id := uuid.New()
	e := &observerEntry{ch: make(chan core.SessionState, buffer)}

	r.mu.Lock()
	defer r.mu.Unlock()
	e.ch <- r.last
	r.observers[id] = e
	log.Info().Str("module", "app.registry").Str("observer", id.String()).Msg("observer subscribed")
	return id, e.ch
}

func (r *Registry) Unsubscribe(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(id)
}

func (r *Registry) removeLocked(id uuid.UUID) {
	e, ok := r.observers[id]
	if !ok {
		return
	}
	delete(r.observers, id)
	close(e.ch)
	log.Info().Str("module", "app.registry").Str("observer", id.String()).Msg("observer removed")
}

// Publish never blocks the caller.
func (r *Registry) Publish(state core.SessionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = state

	var evict []uuid.UUID
	for id, e := range r.observers {
		select {
		case e.ch <- state:
			continue
		default:
		}
		switch r.policy.OnBackPressure(id) {
		case DropOldest:
			select {
			case <-e.ch:
			default:
			}
			select {
			case e.ch <- state:
			default:
			}
		case EvictObserver:
			evict = append(evict, id)
		case NoAction:
		}
	}
	for _, id := range evict {
		log.Warn().Str("module", "app.registry").Str("observer", id.String()).Msg("observer too slow, evicting")
		r.removeLocked(id)
	}
}

func (r *Registry) Last() core.SessionState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.observers)
}
