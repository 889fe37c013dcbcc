package types

import (
	"fmt"
	"time"
)

// EventType enumerates the security-relevant actions the audit log records.
type EventType string

const (
	EventTokenGenerated     EventType = "TOKEN_GENERATED"
	EventCardViewOpened     EventType = "SECURE_VIEW_OPENED"
	EventSecureViewFailed   EventType = "SECURE_VIEW_ERROR"
	EventValidationError    EventType = "VALIDATION_ERROR"
	EventUnauthorizedAccess EventType = "UNAUTHORIZED_ACCESS"
	EventDataAccessed       EventType = "DATA_ACCESSED"
)

// RiskLevel grades how suspicious an event is.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Metadata is the free-form context attached to a security event. Values are
// normalized at append time to a closed set of shapes (string, int64,
// float64, bool, nested Metadata) so records stay serializable and diffable.
type Metadata map[string]any

// Normalize returns a copy of m with every value coerced into the permitted
// shapes. Unrecognized values are stringified rather than dropped.
func (m Metadata) Normalize() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return t
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case int64:
		return t
	case uint:
		return int64(t)
	case uint32:
		return int64(t)
	case uint64:
		return int64(t)
	case float32:
		return float64(t)
	case float64:
		return t
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case time.Duration:
		return t.String()
	case Metadata:
		return t.Normalize()
	case map[string]any:
		return Metadata(t).Normalize()
	default:
		return fmt.Sprint(t)
	}
}

// SecurityEvent is one append-only audit record. ID and Timestamp are
// assigned by the store at append time, never by the caller.
type SecurityEvent struct {
	ID        string    `json:"id"`
	EventType EventType `json:"event_type"`
	CardID    string    `json:"card_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	RiskLevel RiskLevel `json:"risk_level"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  Metadata  `json:"metadata,omitempty"`
}
