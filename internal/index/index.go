// Package index turns raw sale events into searchable term documents.
// Each document is a lowercase token string whose tokens are namespaced
// by category (store_, season_, product_, …) so that a product name can
// never collide with a store identifier in the retrieval vocabulary.
package index

import (
	"strings"

	"retailpulse/internal/event"
)

// Metadata is attached 1:1 to each document and carries everything a
// search result needs to point back at the underlying transaction.
type Metadata struct {
	EventID   string   `json:"event_id"`
	StoreID   string   `json:"store_id"`
	Amount    float64  `json:"amount"`
	Products  []string `json:"products"`
	Timestamp string   `json:"timestamp"`
}

// Document is the synthesized textual representation of one sale event.
type Document struct {
	Text string
	Meta Metadata
}

// Build emits one document per sale event; non-sale events are skipped.
// Missing payload fields degrade to empty tokens ("season_"), never to
// an error.
func Build(events []event.Event) []Document {
	docs := make([]Document, 0, len(events))
	for _, ev := range events {
		if !ev.IsSale() {
			continue
		}
		parts := []string{
			"store_" + ev.StoreID,
			"season_" + ev.PayloadString("season"),
			"customer_" + ev.PayloadString("customer_category"),
			"payment_" + ev.PayloadString("payment_method"),
			"promotion_" + ev.PayloadString("promotion"),
		}
		items := ev.Items()
		for _, it := range items {
			parts = append(parts, "product_"+it)
		}
		docs = append(docs, Document{
			Text: strings.ToLower(strings.Join(parts, " ")),
			Meta: Metadata{
				EventID:   ev.EventID,
				StoreID:   ev.StoreID,
				Amount:    ev.Amount(),
				Products:  items,
				Timestamp: ev.TS,
			},
		})
	}
	return docs
}
