package event

import (
	"fmt"
)

// TypeSale is the only event type the analysis pipeline acts on; every
// other type ("inventory", "visit", …) passes through untouched.
const TypeSale = "sale"

// Event is the canonical input model for all incoming retail events.
// Payload is an open map; for sale events it is expected to carry
// "amount" and "items", plus optional "season", "customer_category",
// "payment_method", "promotion" and "discount_applied" fields.
type Event struct {
	EventID   string                 `json:"event_id"`
	StoreID   string                 `json:"store_id"`
	TS        string                 `json:"ts"`
	EventType string                 `json:"event_type"`
	Payload   map[string]interface{} `json:"payload"`
}

// IsSale reports whether the event is a sale transaction.
func (e *Event) IsSale() bool { return e.EventType == TypeSale }

// Amount returns the transaction amount, or 0 when absent or non-numeric.
func (e *Event) Amount() float64 {
	switch v := e.Payload["amount"].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// Items returns the product identifiers of a transaction. A scalar value
// is treated as a single-item sequence; absent items yield nil.
func (e *Event) Items() []string {
	raw, ok := e.Payload["items"]
	if !ok || raw == nil {
		return nil
	}
	if seq, ok := raw.([]interface{}); ok {
		items := make([]string, 0, len(seq))
		for _, it := range seq {
			items = append(items, stringify(it))
		}
		return items
	}
	return []string{stringify(raw)}
}

// ItemShare is the revenue attributed to each item of a multi-item sale:
// amount split evenly across items. Zero when the sale has no items.
func (e *Event) ItemShare() float64 {
	items := e.Items()
	if len(items) == 0 {
		return 0
	}
	return e.Amount() / float64(len(items))
}

// PayloadString returns the payload field as a string, or "" when absent.
func (e *Event) PayloadString(key string) string {
	v, ok := e.Payload[key]
	if !ok || v == nil {
		return ""
	}
	return stringify(v)
}

// PayloadStringOr returns the payload field as a string, substituting
// fallback when the field is absent or empty.
func (e *Event) PayloadStringOr(key, fallback string) string {
	if s := e.PayloadString(key); s != "" {
		return s
	}
	return fallback
}

func stringify(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
