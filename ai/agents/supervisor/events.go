package supervisor

import (
	"log/slog"
	"sync"
)

// Event types emitted during a streamed query.
const (
	EventRouting  = "routing"  // data: JSON array of selected capabilities
	EventAgent    = "agent"    // data: JSON AgentEvent, one per completed agent
	EventResponse = "response" // data: consolidated answer text
	EventDone     = "done"     // data: JSON Result
	EventError    = "error"    // data: error message
)

// AgentEvent is the payload for per-agent completion events.
type AgentEvent struct {
	Agent  Capability `json:"agent"`
	Output string     `json:"output"`
	Failed bool       `json:"failed"`
}

// EventCallback receives streamed events. Delivery is sequential; the
// callback is never invoked concurrently with itself.
type EventCallback func(eventType, eventData string)

// eventDispatcher serializes event delivery to the callback through a
// buffered channel so slow consumers do not block the executor, and a panic
// in the callback never takes down the pipeline.
type eventDispatcher struct {
	callback EventCallback
	eventCh  chan dispatchedEvent
	wg       sync.WaitGroup
	closed   bool
	mu       sync.Mutex
	traceID  string
}

type dispatchedEvent struct {
	Type string
	Data string
}

func newEventDispatcher(traceID string, callback EventCallback) *eventDispatcher {
	if callback == nil {
		return &eventDispatcher{traceID: traceID}
	}

	d := &eventDispatcher{
		callback: callback,
		eventCh:  make(chan dispatchedEvent, 100),
		traceID:  traceID,
	}
	d.wg.Add(1)
	go d.dispatchLoop()
	return d
}

func (d *eventDispatcher) dispatchLoop() {
	defer d.wg.Done()
	for e := range d.eventCh {
		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("events: recovered from callback panic",
						"panic", r,
						"trace_id", d.traceID)
				}
			}()
			d.callback(e.Type, e.Data)
		}()
	}
}

// Send enqueues one event. No-op after Close or with a nil callback.
func (d *eventDispatcher) Send(eventType, eventData string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.callback == nil || d.closed {
		return
	}
	d.eventCh <- dispatchedEvent{Type: eventType, Data: eventData}
}

// Close stops accepting events and waits until every queued event has been
// delivered.
func (d *eventDispatcher) Close() {
	d.mu.Lock()
	if d.callback == nil || d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	close(d.eventCh)
	d.wg.Wait()
}
