package rtc

import (
	"sync"

	"github.com/dkeye/VoiceAgent/internal/core"
)

const eventBuffer = 64

// eventQueue serializes transport callbacks into one ordered stream.
// Nothing leaves the queue before Connected, and nothing after Disconnected.
type eventQueue struct {
	mu        sync.Mutex
	cond      *sync.Cond
	pending   []core.Event
	connected bool
	ended     bool // Disconnected was queued
	stopped   bool

	out chan core.Event
	// closed by shutdown; the consumer may be gone, so sends stop waiting
	abandoned   chan struct{}
	abandonOnce sync.Once
	done        chan struct{}
	stopOnce    sync.Once
}

func newEventQueue() *eventQueue {
	q := &eventQueue{
		out:       make(chan core.Event, eventBuffer),
		abandoned: make(chan struct{}),
		done:      make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

func (q *eventQueue) push(ev core.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ended || q.stopped {
		return
	}
	if ev.Kind == core.EventConnected {
		return
	}
	if ev.Kind == core.EventDisconnected {
		q.ended = true
	}
	q.pending = append(q.pending, ev)
	q.cond.Signal()
}

// markConnected releases held events behind Connected and the given
// already-present participants.
func (q *eventQueue) markConnected(participants []string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.connected || q.stopped {
		return
	}
	head := make([]core.Event, 0, len(participants)+1+len(q.pending))
	head = append(head, core.Event{Kind: core.EventConnected})
	for _, id := range participants {
		head = append(head, core.Event{Kind: core.EventParticipantJoined, Participant: id})
	}
	q.pending = append(head, q.pending...)
	q.connected = true
	q.cond.Signal()
}

// shutdown ends the stream after a local disconnect. A connected stream gets
// its Disconnected, one that never connected is dropped.
func (q *eventQueue) shutdown(reason string) {
	q.mu.Lock()
	connected := q.connected
	q.mu.Unlock()

	if !connected {
		q.stop()
		return
	}
	q.push(core.Event{Kind: core.EventDisconnected, Reason: reason})
	q.abandonOnce.Do(func() { close(q.abandoned) })
}

func (q *eventQueue) stop() {
	q.stopOnce.Do(func() {
		q.mu.Lock()
		q.stopped = true
		q.pending = nil
		q.cond.Signal()
		q.mu.Unlock()
		close(q.done)
	})
}

func (q *eventQueue) run() {
	defer close(q.out)
	for {
		q.mu.Lock()
		for !q.stopped && (len(q.pending) == 0 || !q.connected) {
			q.cond.Wait()
		}
		if q.stopped {
			q.mu.Unlock()
			return
		}
		ev := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		select {
		case q.out <- ev:
		case <-q.abandoned:
			select {
			case q.out <- ev:
			default:
			}
		case <-q.done:
			return
		}

		if ev.Kind == core.EventDisconnected {
			return
		}
	}
}
