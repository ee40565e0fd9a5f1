package events

import (
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBus(100 * time.Millisecond)
	defer b.Close()
	if b.SubscriberCount() != 0 {
		t.Fatalf("expected 0 subscribers")
	}
	ch := b.Subscribe()
	if b.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscriber")
	}
	b.Unsubscribe(ch)
	if b.SubscriberCount() != 0 {
		t.Fatalf("expected 0 subscribers after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBus(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Kind: SyncFinished, Message: "up to date"})

	select {
	case ev := <-ch:
		if ev.Kind != SyncFinished || ev.Message != "up to date" {
			t.Errorf("got %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestPublishNoteEvent_AggregateThrottle(t *testing.T) {
	b := NewBus(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First note event triggers ArchiveChanged; an immediate second does not.
	b.PublishNoteEvent(NoteCreated, "a.md")
	b.PublishNoteEvent(NoteUpdated, "b.md")

	var aggregates, noteEvents int
	deadline := time.After(time.Second)
loop:
	for noteEvents < 2 {
		select {
		case ev := <-ch:
			switch ev.Kind {
			case ArchiveChanged:
				aggregates++
			case NoteCreated, NoteUpdated:
				noteEvents++
			}
		case <-deadline:
			break loop
		}
	}
	if noteEvents != 2 {
		t.Fatalf("noteEvents = %d, want 2", noteEvents)
	}
	if aggregates != 1 {
		t.Errorf("aggregates = %d, want exactly 1 within throttle window", aggregates)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	b := NewBus(0)
	ch := b.Subscribe()
	b.Close()
	b.Close()
	if _, ok := <-ch; ok {
		t.Error("subscriber channel should be closed")
	}
	// Operations after close are no-ops.
	b.Publish(Event{Kind: NoteDeleted, Path: "x.md"})
	if b.SubscriberCount() != 0 {
		t.Error("count after close should be 0")
	}
}
