// Package events implements the in-process notification bus between the
// core (watcher mutations, sync progress) and a front-end renderer.
package events

import (
	"sync/atomic"
	"time"
)

// Kind classifies a bus event.
type Kind string

const (
	NoteCreated  Kind = "note.created"
	NoteUpdated  Kind = "note.updated"
	NoteDeleted  Kind = "note.deleted"
	SyncStarted  Kind = "sync.started"
	SyncFinished Kind = "sync.finished"
	// ArchiveChanged is a throttled aggregate emitted alongside note events;
	// a renderer that redraws the whole listing can subscribe to this one
	// kind instead of tracking individual paths.
	ArchiveChanged Kind = "archive.changed"
)

// Event is a notification delivered to subscribers.
type Event struct {
	Kind    Kind
	Path    string // archive-relative, set for note events
	Message string // human-readable detail, set for sync events
}

type noteEventReq struct {
	kind Kind
	path string
}

// Bus broadcasts events to subscribers.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable
// state (subscribers + aggregate throttle timestamp). Public methods
// communicate with this loop through channels, so no mutexes are required.
type Bus struct {
	aggregateMin time.Duration

	subscribeCh   chan chan Event
	unsubscribeCh chan chan Event
	publishCh     chan Event
	noteEventCh   chan noteEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBus creates a bus with the given aggregate-event throttle interval.
func NewBus(aggregateThrottle time.Duration) *Bus {
	if aggregateThrottle <= 0 {
		aggregateThrottle = 250 * time.Millisecond
	}

	b := &Bus{
		aggregateMin:  aggregateThrottle,
		subscribeCh:   make(chan chan Event),
		unsubscribeCh: make(chan chan Event),
		publishCh:     make(chan Event, 256),
		noteEventCh:   make(chan noteEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Bus) run() {
	defer close(b.stopped)

	subs := make(map[chan Event]struct{})
	var lastAggregate time.Time

	broadcast := func(ev Event) {
		for ch := range subs {
			select {
			case ch <- ev:
			default:
				// Subscriber buffer full; skip to avoid blocking the loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range subs {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			subs[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}

		case ev := <-b.publishCh:
			broadcast(ev)

		case req := <-b.noteEventCh:
			broadcast(Event{Kind: req.kind, Path: req.path})

			now := time.Now()
			if now.Sub(lastAggregate) >= b.aggregateMin {
				lastAggregate = now
				broadcast(Event{Kind: ArchiveChanged})
			}

		case resp := <-b.countReqCh:
			resp <- len(subs)
		}
	}
}

// Close gracefully stops the loop and closes all subscriber channels.
func (b *Bus) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a subscriber and returns its channel.
func (b *Bus) Subscribe() chan Event {
	ch := make(chan Event, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(ch chan Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all subscribers.
func (b *Bus) Publish(ev Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- ev:
	case <-b.stopped:
	}
}

// PublishNoteEvent publishes a note change plus a throttled ArchiveChanged.
func (b *Bus) PublishNoteEvent(kind Kind, path string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.noteEventCh <- noteEventReq{kind: kind, path: path}:
	case <-b.stopped:
	}
}
