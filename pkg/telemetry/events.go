package telemetry

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event represents an observable state change in the console.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type is the event type.
	Type string `json:"type"`

	// RunID is the associated bulk run ID, if applicable.
	RunID string `json:"run_id,omitempty"`

	// UnitID is the associated execution unit ID, if applicable.
	UnitID string `json:"unit_id,omitempty"`

	// PlaybookID is the associated playbook ID, if applicable.
	PlaybookID string `json:"playbook_id,omitempty"`

	// VMID is the associated VM ID, if applicable.
	VMID string `json:"vm_id,omitempty"`

	// Message is a human-readable event message.
	Message string `json:"message"`

	// Level is the event severity level (info, warning, error).
	Level string `json:"level"`

	// Data contains additional event-specific data.
	Data map[string]interface{} `json:"data,omitempty"`
}

// Event type constants.
const (
	EventTypeExecutionStarted   = "execution.started"
	EventTypeExecutionCompleted = "execution.completed"
	EventTypeExecutionFailed    = "execution.failed"
	EventTypeBulkRunStarted     = "bulk_run.started"
	EventTypeBulkRunCompleted   = "bulk_run.completed"
	EventTypeBulkRunCancelled   = "bulk_run.cancelled"
	EventTypeUnitStatusChanged  = "unit.status_changed"
	EventTypeResultAppended     = "result.appended"
	EventTypeAssistCalled       = "assist.called"
	EventTypeAssistFailed       = "assist.failed"
)

// Event level constants.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// EventSubscriber is a function that handles events.
type EventSubscriber func(event Event)

// EventFilter determines if an event should be delivered to a subscriber.
type EventFilter func(event Event) bool

// EventBus delivers events to subscribers synchronously and in publish
// order. The orchestrator relies on this: every unit status change is
// observed before the next unit starts executing.
type EventBus struct {
	config      EventsConfig
	mu          sync.RWMutex
	subscribers []subscriberEntry
}

type subscriberEntry struct {
	subscriber EventSubscriber
	filter     EventFilter
}

// NewEventBus creates a new event bus with the given configuration.
func NewEventBus(cfg EventsConfig) *EventBus {
	return &EventBus{
		config:      cfg,
		subscribers: make([]subscriberEntry, 0),
	}
}

// Subscribe registers a subscriber for all events.
func (b *EventBus) Subscribe(sub EventSubscriber) {
	b.SubscribeFiltered(sub, nil)
}

// SubscribeFiltered registers a subscriber that only receives events
// accepted by the filter. A nil filter accepts everything.
func (b *EventBus) SubscribeFiltered(sub EventSubscriber, filter EventFilter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, subscriberEntry{subscriber: sub, filter: filter})
}

// Publish delivers an event to all matching subscribers before returning.
func (b *EventBus) Publish(event Event) {
	if !b.config.Enabled {
		return
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Level == "" {
		event.Level = EventLevelInfo
	}

	b.mu.RLock()
	entries := make([]subscriberEntry, len(b.subscribers))
	copy(entries, b.subscribers)
	b.mu.RUnlock()

	for _, entry := range entries {
		if entry.filter == nil || entry.filter(event) {
			entry.subscriber(event)
		}
	}
}

// FilterByType returns a filter accepting only the given event types.
func FilterByType(types ...string) EventFilter {
	wanted := make(map[string]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}
	return func(event Event) bool {
		return wanted[event.Type]
	}
}

// FilterByRunID returns a filter accepting only events for one bulk run.
func FilterByRunID(runID string) EventFilter {
	return func(event Event) bool {
		return event.RunID == runID
	}
}
