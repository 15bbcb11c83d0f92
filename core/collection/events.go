package collection

// EventType names a lifecycle notification.
type EventType string

const (
	EventAdded   EventType = "added"
	EventRemoved EventType = "removed"
	EventChanged EventType = "changed"
	EventSorted  EventType = "sorted"
	EventReset   EventType = "reset"
	EventRange   EventType = "range"
	EventEvicted EventType = "evicted"
)

// Event is a structured lifecycle notification. Record and Index are set for
// per-record events, Changes for EventChanged, Start and Count for EventRange.
type Event struct {
	Type    EventType
	Record  Record
	Index   int
	Changes map[string]any
	Start   int
	Count   int
}

// EventSink receives events after the collection lock is released. Sinks run
// on the caller's goroutine, which for virtual collections is the task worker:
// they must not block on queued operations of the same collection.
type EventSink interface {
	Emit(Event)
}

// EventFunc adapts a function to EventSink.
type EventFunc func(Event)

func (f EventFunc) Emit(e Event) {
	f(e)
}

type nopSink struct{}

func (nopSink) Emit(Event) {}

// NopSink discards every event.
var NopSink EventSink = nopSink{}

type eventBuffer []Event

func (b *eventBuffer) add(e Event) {
	*b = append(*b, e)
}
