package pattern

import (
	"hash/fnv"
	"strings"
	"time"
)

// Season names, in the fixed bucket order used throughout the analyzer.
const (
	SeasonWinter = "winter"
	SeasonSpring = "spring"
	SeasonSummer = "summer"
	SeasonFall   = "fall"
)

var seasonOrder = []string{SeasonWinter, SeasonSpring, SeasonSummer, SeasonFall}

// Disjoint keyword sets strongly associated with each season. A product
// whose lowercased name contains any keyword is classified into that
// season without consulting the hash fallback.
var seasonalKeywords = map[string][]string{
	SeasonWinter: {"soup", "hot chocolate", "coat", "gloves", "scarf", "heater", "blanket", "thermos"},
	SeasonSummer: {"ice cream", "sunscreen", "fan", "lemonade", "swimsuit", "sunglasses", "cooler", "shorts"},
	SeasonSpring: {"gardening", "flowers", "seeds", "cleaning", "allergy", "raincoat", "umbrella", "plant"},
	SeasonFall:   {"pumpkin", "sweater", "candle", "jacket", "boots", "hot drink", "spice", "harvest"},
}

var monthToSeason = map[string]string{
	"December": SeasonWinter, "January": SeasonWinter, "February": SeasonWinter,
	"March": SeasonSpring, "April": SeasonSpring, "May": SeasonSpring,
	"June": SeasonSummer, "July": SeasonSummer, "August": SeasonSummer,
	"September": SeasonFall, "October": SeasonFall, "November": SeasonFall,
}

// resolveSeason classifies a product. A known season stated on the event
// payload wins; otherwise keyword matching on the product name; last, a
// deterministic hash of the name picks a bucket. The hash assignment is
// stable across runs but carries no semantic meaning.
func resolveSeason(product, payloadSeason string) string {
	if payloadSeason != "" && payloadSeason != "unknown" {
		return payloadSeason
	}
	lowered := strings.ToLower(product)
	for _, season := range seasonOrder {
		for _, kw := range seasonalKeywords[season] {
			if strings.Contains(lowered, kw) {
				return season
			}
		}
	}
	h := fnv.New32a()
	h.Write([]byte(lowered))
	return seasonOrder[h.Sum32()%uint32(len(seasonOrder))]
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// extractMonth returns the full English month name from a timestamp
// string, or "" when no supported layout matches.
func extractMonth(ts string) string {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.Month().String()
		}
	}
	return ""
}
