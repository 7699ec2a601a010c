package search

import (
	"fmt"
	"sort"

	"retailpulse/internal/event"
)

const (
	maxCrossSellPairs = 10
	minCoOccurrence   = 2
)

// CrossSellPair is an undirected product pair with the number of
// transactions in which both products appeared.
type CrossSellPair struct {
	ProductA          string `json:"product_a"`
	ProductB          string `json:"product_b"`
	CoOccurrenceCount int    `json:"co_occurrence_count"`
	Recommendation    string `json:"recommendation"`
}

// CrossSell mines product bundling opportunities: for every sale event
// with at least two items, each unordered item pair is counted once per
// transaction. Returns the top 10 pairs with a count of at least 2,
// ordered by count descending.
func CrossSell(events []event.Event) []CrossSellPair {
	type pairKey [2]string
	counts := make(map[pairKey]int)
	var order []pairKey

	for _, ev := range events {
		if !ev.IsSale() {
			continue
		}
		items := ev.Items()
		if len(items) < 2 {
			continue
		}
		for i := 0; i < len(items); i++ {
			for j := i + 1; j < len(items); j++ {
				a, b := items[i], items[j]
				if a > b {
					a, b = b, a
				}
				key := pairKey{a, b}
				if counts[key] == 0 {
					order = append(order, key)
				}
				counts[key]++
			}
		}
	}

	// Sort by count descending; lexicographic pair order breaks ties
	// deterministically.
	sort.SliceStable(order, func(x, y int) bool {
		if counts[order[x]] != counts[order[y]] {
			return counts[order[x]] > counts[order[y]]
		}
		return order[x][0] < order[y][0] || (order[x][0] == order[y][0] && order[x][1] < order[y][1])
	})

	pairs := make([]CrossSellPair, 0, maxCrossSellPairs)
	for _, key := range order {
		if len(pairs) == maxCrossSellPairs {
			break
		}
		count := counts[key]
		if count < minCoOccurrence {
			continue
		}
		pairs = append(pairs, CrossSellPair{
			ProductA:          key[0],
			ProductB:          key[1],
			CoOccurrenceCount: count,
			Recommendation: fmt.Sprintf("Bundle %s with %s - purchased together %d times",
				key[0], key[1], count),
		})
	}
	return pairs
}
