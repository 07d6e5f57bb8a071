package notification

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpiwatch/kpiwatch/internal/monitor"
)

// eventRecorder collects dispatched events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) handle(event *Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
}

func (r *eventRecorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, time.Second, 5*time.Millisecond)
}

func TestService_AlertTriggeredPublishes(t *testing.T) {
	svc := NewService(nil)
	t.Cleanup(svc.Stop)

	rec := &eventRecorder{}
	svc.Subscribe(rec.handle)

	baseline := 98.0
	deviation := -22.5
	require.NoError(t, svc.AlertTriggered(monitor.TriggeredAlert{
		IndicatorID:      7,
		Name:             "payment-success",
		Owner:            "payments",
		Severity:         monitor.SeverityHigh,
		CurrentValue:     75.95,
		BaselineValue:    &baseline,
		DeviationPercent: &deviation,
		TriggerTime:      time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC),
	}))

	waitFor(t, func() bool { return len(rec.snapshot()) == 1 })
	event := rec.snapshot()[0]
	assert.Equal(t, EventTriggered, event.Kind)
	assert.EqualValues(t, 7, event.IndicatorID)
	assert.Equal(t, "high", event.Severity)
	assert.Contains(t, event.Message, "-22.5%")
	assert.Contains(t, event.Message, "baseline 98.00")
}

func TestService_TriggeredWithoutBaselineMessage(t *testing.T) {
	svc := NewService(nil)
	t.Cleanup(svc.Stop)

	require.NoError(t, svc.AlertTriggered(monitor.TriggeredAlert{
		IndicatorID:  3,
		Name:         "checkout-latency",
		Severity:     monitor.SeverityMedium,
		CurrentValue: 612.0,
		TriggerTime:  time.Now(),
	}))

	recent := svc.Recent()
	require.Len(t, recent, 1)
	assert.Contains(t, recent[0].Message, "breached its limit")
	assert.Contains(t, recent[0].Message, "612.00")
}

func TestService_AlertResolvedPublishes(t *testing.T) {
	svc := NewService(nil)
	t.Cleanup(svc.Stop)

	rec := &eventRecorder{}
	svc.Subscribe(rec.handle)

	require.NoError(t, svc.AlertResolved(monitor.ResolvedAlert{
		IndicatorID:  7,
		Name:         "payment-success",
		ResolvedTime: time.Now(),
	}))

	waitFor(t, func() bool { return len(rec.snapshot()) == 1 })
	event := rec.snapshot()[0]
	assert.Equal(t, EventResolved, event.Kind)
	assert.Contains(t, event.Message, "returned to normal")
}

func TestService_RecentIsBounded(t *testing.T) {
	svc := NewService(&ServiceConfig{MaxRecent: 3})
	t.Cleanup(svc.Stop)

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.AlertResolved(monitor.ResolvedAlert{
			IndicatorID:  uint(i + 1),
			Name:         "payment-success",
			ResolvedTime: time.Now(),
		}))
	}

	recent := svc.Recent()
	require.Len(t, recent, 3)
	assert.EqualValues(t, 3, recent[0].IndicatorID, "oldest retained event")
	assert.EqualValues(t, 5, recent[2].IndicatorID, "newest event last")
}

func TestEventBus_PanickingHandlerDoesNotKillBus(t *testing.T) {
	bus := NewEventBus()
	t.Cleanup(bus.Stop)

	bus.Subscribe(func(*Event) { panic("boom") })
	rec := &eventRecorder{}
	bus.Subscribe(rec.handle)

	bus.Publish(&Event{Kind: EventTriggered, Indicator: "a"})
	bus.Publish(&Event{Kind: EventResolved, Indicator: "b"})

	waitFor(t, func() bool { return len(rec.snapshot()) == 2 })
}

func TestEventBus_StopDrainsBufferedEvents(t *testing.T) {
	bus := NewEventBus()
	rec := &eventRecorder{}
	bus.Subscribe(rec.handle)

	for i := 0; i < 10; i++ {
		bus.Publish(&Event{Kind: EventTriggered, Indicator: "checkout-latency"})
	}
	bus.Stop()

	assert.Len(t, rec.snapshot(), 10, "buffered events are dispatched before shutdown")

	// Publishing after stop is a silent no-op.
	bus.Publish(&Event{Kind: EventResolved, Indicator: "checkout-latency"})
	assert.Len(t, rec.snapshot(), 10)
}
