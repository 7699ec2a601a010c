package search

import "strings"

// synonymSet maps an anchor term to related retail vocabulary appended
// to any query containing the anchor. Expansion is append-only: the
// original query is always kept intact.
type synonymSet struct {
	anchor  string
	related []string
}

// Fixed table covering seasons, shopping concepts and discount/premium
// framing. Kept as an ordered slice so expansion is deterministic.
var synonyms = []synonymSet{
	{"winter", []string{"cold", "snow", "jacket", "coat", "scarf", "gloves", "sweater"}},
	{"holiday", []string{"christmas", "gift", "celebration", "festive", "seasonal", "vacation"}},
	{"sales", []string{"purchase", "transaction", "buy", "revenue", "income", "order"}},
	{"trends", []string{"pattern", "behavior", "popular", "frequent", "common", "popularity"}},
	{"shopping", []string{"retail", "purchase", "buying", "consumer", "customer", "mall"}},
	{"patterns", []string{"behavior", "habit", "trend", "frequency", "routine", "tendency"}},
	{"butter", []string{"dairy", "food", "grocery", "spread", "cooking", "kitchen"}},
	{"summer", []string{"hot", "beach", "swim", "sun", "vacation", "warm"}},
	{"spring", []string{"flower", "fresh", "rain", "garden", "renewal"}},
	{"fall", []string{"autumn", "leaf", "harvest", "cool", "pumpkin"}},
	{"discount", []string{"sale", "offer", "promotion", "deal", "bargain", "reduced"}},
	{"premium", []string{"luxury", "expensive", "high_end", "exclusive", "deluxe"}},
	{"customer", []string{"client", "buyer", "shopper", "consumer", "patron"}},
}

// expandQuery lowercases the query and appends the related terms of
// every synonym set whose anchor appears in it.
func expandQuery(query string) string {
	lowered := strings.ToLower(query)
	expanded := lowered
	for _, set := range synonyms {
		// Anchors match against the original query only, so one
		// expansion never triggers another.
		if strings.Contains(lowered, set.anchor) {
			expanded += " " + strings.Join(set.related, " ")
		}
	}
	return expanded
}
