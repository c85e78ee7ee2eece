package event

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Payload keys shared by publishers and handlers
const (
	KeyDraftKey  = "draft_key"
	KeyDraft     = "draft"
	KeyItemID    = "item_id"
	KeyRate      = "rate"
	KeyExpenseID = "expense_id"
	KeyLegacyID  = "legacy_id"
	KeyError     = "error"
	KeyState     = "state"
	KeyPayload   = "payload"
)

// Event represents a domain event raised by a form session
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	SessionID     string                 `json:"session_id"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
	// Sequence orders events raised in this process; it never repeats
	Sequence uint64 `json:"sequence"`
}

var sequence atomic.Uint64

// NewEvent creates a new domain event with generated ID and timestamp
func NewEvent(eventType Type, sessionID string, payload map[string]interface{}) *Event {
	return NewEventWithCorrelation(eventType, sessionID, payload, uuid.NewString())
}

// NewEventWithCorrelation creates an event linked to a correlation chain
func NewEventWithCorrelation(eventType Type, sessionID string, payload map[string]interface{}, correlationID string) *Event {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		SessionID:     sessionID,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: correlationID,
		Sequence:      sequence.Add(1),
	}
}

// WithPayload returns a new Event with an added payload key-value pair
func (e *Event) WithPayload(key string, value interface{}) *Event {
	newPayload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		newPayload[k] = v
	}
	newPayload[key] = value

	out := *e
	out.Payload = newPayload
	return &out
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// GetPayloadInt retrieves an int64 value from the payload
func (e *Event) GetPayloadInt(key string) int64 {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case float64:
			return int64(v)
		}
	}
	return 0
}

// GetPayload retrieves a raw payload value
func (e *Event) GetPayload(key string) (interface{}, bool) {
	val, ok := e.Payload[key]
	return val, ok
}
