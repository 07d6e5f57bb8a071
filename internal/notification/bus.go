// Package notification delivers alert lifecycle events to subscribers.
package notification

import (
	"sync"
	"time"
)

// EventKind distinguishes alert lifecycle events.
type EventKind string

const (
	EventTriggered EventKind = "triggered"
	EventResolved  EventKind = "resolved"
)

// Event is a rendered alert notification.
type Event struct {
	Kind        EventKind `json:"kind"`
	IndicatorID uint      `json:"indicator_id"`
	Indicator   string    `json:"indicator"`
	Owner       string    `json:"owner,omitempty"`
	Severity    string    `json:"severity,omitempty"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}

// EventHandler processes notification events.
type EventHandler func(event *Event)

// eventBusBufferSize is the capacity of the async event channel. Events
// are dropped if the buffer is full to avoid blocking the monitor.
const eventBusBufferSize = 1000

// EventBus is an async pub/sub for notification events. Publish is
// non-blocking: events are sent to a buffered channel and processed by a
// worker goroutine, so the executor is never blocked by slow subscribers.
type EventBus struct {
	handlers []EventHandler
	mu       sync.RWMutex
	eventCh  chan *Event
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewEventBus creates a new event bus and starts its worker.
func NewEventBus() *EventBus {
	b := &EventBus{
		handlers: make([]EventHandler, 0),
		eventCh:  make(chan *Event, eventBusBufferSize),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go b.processLoop()
	return b
}

// Subscribe registers a handler for notification events.
func (b *EventBus) Subscribe(handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

// Publish enqueues an event for async processing. Non-blocking: if the
// buffer is full the event is dropped to protect the monitor hot path.
// Events are silently dropped after Stop() has been called.
func (b *EventBus) Publish(event *Event) {
	select {
	case <-b.stopCh:
		return
	default:
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case b.eventCh <- event:
	default:
		// Buffer full, drop the event rather than block the caller.
	}
}

// Stop shuts down the worker goroutine after draining buffered events.
// Safe to call multiple times; returns once the worker has exited.
func (b *EventBus) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
	})
	<-b.done
}

// processLoop drains the event channel and dispatches to handlers.
func (b *EventBus) processLoop() {
	defer close(b.done)
	for {
		select {
		case event := <-b.eventCh:
			b.dispatch(event)
		case <-b.stopCh:
			// Drain remaining events before exiting.
			for {
				select {
				case event := <-b.eventCh:
					b.dispatch(event)
				default:
					return
				}
			}
		}
	}
}

func (b *EventBus) dispatch(event *Event) {
	b.mu.RLock()
	handlers := make([]EventHandler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.safeCall(handler, event)
	}
}

// safeCall invokes a handler with panic recovery so a panicking handler
// cannot kill the event bus goroutine.
func (b *EventBus) safeCall(handler EventHandler, event *Event) {
	defer func() {
		recover() //nolint:errcheck // swallowed to keep the bus alive
	}()
	handler(event)
}
