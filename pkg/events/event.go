package events

import "time"

// Topic for gateway audit events on the in-process bus.
const AuditTopic = "gateway.audit"

// Event types published by the gateway.
const (
	TypeChatExchange    = "CHAT_EXCHANGE"
	TypeDocumentIndexed = "DOCUMENT_INDEXED"
	TypeIndexReset      = "INDEX_RESET"
)

// AuditEvent is the payload published for every completed gateway action.
// It is consumed in-process by the audit service and logged; nothing outside
// the process depends on its shape.
type AuditEvent struct {
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Details    map[string]any `json:"details,omitempty"`
}

// NewAuditEvent stamps an event with the current time.
func NewAuditEvent(eventType string, details map[string]any) AuditEvent {
	return AuditEvent{
		Type:       eventType,
		OccurredAt: time.Now(),
		Details:    details,
	}
}
