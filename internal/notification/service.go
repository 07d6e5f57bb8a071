package notification

import (
	"fmt"
	"sync"

	"github.com/kpiwatch/kpiwatch/internal/monitor"
)

// defaultMaxRecent bounds the in-memory recent-event list.
const defaultMaxRecent = 100

// ServiceConfig configures the notification service.
type ServiceConfig struct {
	// MaxRecent caps the retained recent-event list. Zero uses the default.
	MaxRecent int
}

// Service renders alert lifecycle events into human-readable notifications,
// fans them out through an async event bus and retains a bounded list of
// recent events for inspection. It satisfies monitor.Notifier.
type Service struct {
	bus       *EventBus
	maxRecent int

	mu     sync.RWMutex
	recent []Event
}

// NewService creates a notification service with a running event bus.
func NewService(config *ServiceConfig) *Service {
	maxRecent := defaultMaxRecent
	if config != nil && config.MaxRecent > 0 {
		maxRecent = config.MaxRecent
	}
	return &Service{
		bus:       NewEventBus(),
		maxRecent: maxRecent,
	}
}

// Subscribe registers a handler receiving every published event.
func (s *Service) Subscribe(handler EventHandler) {
	s.bus.Subscribe(handler)
}

// AlertTriggered publishes a notification for a new breach episode.
func (s *Service) AlertTriggered(alert monitor.TriggeredAlert) error {
	message := fmt.Sprintf("%s breached its limit: current value %.2f", alert.Name, alert.CurrentValue)
	if alert.DeviationPercent != nil && alert.BaselineValue != nil {
		message = fmt.Sprintf("%s deviates %.1f%% from baseline %.2f (current %.2f)",
			alert.Name, *alert.DeviationPercent, *alert.BaselineValue, alert.CurrentValue)
	}

	s.publish(&Event{
		Kind:        EventTriggered,
		IndicatorID: alert.IndicatorID,
		Indicator:   alert.Name,
		Owner:       alert.Owner,
		Severity:    string(alert.Severity),
		Message:     message,
		Timestamp:   alert.TriggerTime,
	})
	return nil
}

// AlertResolved publishes a notification for an indicator returning to normal.
func (s *Service) AlertResolved(alert monitor.ResolvedAlert) error {
	s.publish(&Event{
		Kind:        EventResolved,
		IndicatorID: alert.IndicatorID,
		Indicator:   alert.Name,
		Message:     fmt.Sprintf("%s returned to normal", alert.Name),
		Timestamp:   alert.ResolvedTime,
	})
	return nil
}

// Recent returns a copy of the retained events, newest last.
func (s *Service) Recent() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.recent))
	copy(out, s.recent)
	return out
}

// Stop shuts down the event bus, draining buffered events first.
func (s *Service) Stop() {
	s.bus.Stop()
}

func (s *Service) publish(event *Event) {
	s.mu.Lock()
	s.recent = append(s.recent, *event)
	if len(s.recent) > s.maxRecent {
		s.recent = s.recent[len(s.recent)-s.maxRecent:]
	}
	s.mu.Unlock()

	s.bus.Publish(event)
}
