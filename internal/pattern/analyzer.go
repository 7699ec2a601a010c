// Package pattern mines seasonal and monthly sales patterns out of raw
// transaction events and turns them into ranked product insights.
package pattern

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"retailpulse/internal/event"
)

const (
	topProductsPerSeason = 2
	maxRecommendations   = 8
	// confidenceScale converts revenue into the [0,1] confidence
	// heuristic: min(revenue/confidenceScale, 1).
	confidenceScale    = 1000.0
	fallbackConfidence = 0.5
)

// productStats accumulates revenue attribution for one product within a
// seasonal bucket.
type productStats struct {
	revenue      float64
	transactions int
	monthly      map[string]float64
	monthOrder   []string
}

// bucket is one seasonal accumulator.
type bucket struct {
	products     map[string]*productStats
	productOrder []string
	totalRevenue float64
	transactions int
}

// Insight is one seasonal product finding.
type Insight struct {
	Season       string  `json:"season"`
	Product      string  `json:"product"`
	Revenue      float64 `json:"revenue"`
	Transactions int     `json:"transactions"`
	PeakMonth    string  `json:"peak_performance"`
	Confidence   float64 `json:"confidence"`
}

// MonthStat is the month-level revenue and transaction tally kept
// alongside the seasonal buckets.
type MonthStat struct {
	Revenue      float64 `json:"revenue"`
	Transactions int     `json:"transactions"`
}

// Summary describes the analysis run as a whole.
type Summary struct {
	SeasonsAnalyzed int                  `json:"total_seasons_analyzed"`
	TotalInsights   int                  `json:"total_insights"`
	MonthlyTrends   map[string]MonthStat `json:"monthly_trends"`
}

// Report is the full seasonality payload.
type Report struct {
	Insights        []Insight `json:"insights"`
	Recommendations []string  `json:"recommendations"`
	Summary         Summary   `json:"summary"`
}

// Analyzer detects product seasonality. It is stateless; every call to
// DetectSeasonality accumulates from scratch.
type Analyzer struct{}

func NewAnalyzer() *Analyzer { return &Analyzer{} }

// DetectSeasonality classifies every sale line item into a seasonal
// bucket, attributes the per-item revenue share to (season, product) and
// (season, product, month), then emits the top products per season.
func (a *Analyzer) DetectSeasonality(events []event.Event) Report {
	buckets := make(map[string]*bucket, len(seasonOrder))
	for _, s := range seasonOrder {
		buckets[s] = &bucket{products: make(map[string]*productStats)}
	}
	monthly := make(map[string]*MonthStat)
	var monthOrder []string

	for _, ev := range events {
		if !ev.IsSale() {
			continue
		}
		items := ev.Items()
		amount := ev.Amount()
		payloadSeason := strings.ToLower(ev.PayloadString("season"))

		month := extractMonth(ev.TS)
		if month != "" {
			ms, ok := monthly[month]
			if !ok {
				ms = &MonthStat{}
				monthly[month] = ms
				monthOrder = append(monthOrder, month)
			}
			ms.Revenue += amount
			ms.Transactions++
		}

		share := ev.ItemShare()
		for _, product := range items {
			season := resolveSeason(product, payloadSeason)
			b, ok := buckets[season]
			if !ok {
				// Payload stated something outside the four buckets.
				continue
			}
			ps, ok := b.products[product]
			if !ok {
				ps = &productStats{monthly: make(map[string]float64)}
				b.products[product] = ps
				b.productOrder = append(b.productOrder, product)
			}
			ps.revenue += share
			ps.transactions++
			b.totalRevenue += share
			b.transactions++
			if month != "" {
				if _, ok := ps.monthly[month]; !ok {
					ps.monthOrder = append(ps.monthOrder, month)
				}
				ps.monthly[month] += share
			}
		}
	}

	return buildReport(buckets, monthly, monthOrder)
}

func buildReport(buckets map[string]*bucket, monthly map[string]*MonthStat, monthOrder []string) Report {
	var insights []Insight
	var recommendations []string
	seasonsAnalyzed := 0

	for _, season := range seasonOrder {
		b := buckets[season]
		if len(b.products) == 0 {
			continue
		}
		seasonsAnalyzed++

		// Rank products by revenue; the stable sort breaks ties by
		// first-seen order.
		ranked := append([]string(nil), b.productOrder...)
		sort.SliceStable(ranked, func(x, y int) bool {
			return b.products[ranked[x]].revenue > b.products[ranked[y]].revenue
		})
		if len(ranked) > topProductsPerSeason {
			ranked = ranked[:topProductsPerSeason]
		}

		for _, product := range ranked {
			ps := b.products[product]
			if ps.revenue <= 0 {
				continue
			}
			insights = append(insights, Insight{
				Season:       season,
				Product:      product,
				Revenue:      round2(ps.revenue),
				Transactions: ps.transactions,
				PeakMonth:    peakMonth(ps),
				Confidence:   math.Min(ps.revenue/confidenceScale, 1.0),
			})
			recommendations = append(recommendations,
				fmt.Sprintf("Focus on %s during %s season (generated $%.2f revenue)",
					product, season, ps.revenue))
		}
	}

	// No seasonal insight but month-level revenue exists: emit one
	// generic insight per nonzero month instead.
	if len(insights) == 0 && len(monthly) > 0 {
		insights = fallbackInsights(monthly, monthOrder)
	}

	if len(recommendations) > maxRecommendations {
		recommendations = recommendations[:maxRecommendations]
	}

	trends := make(map[string]MonthStat, len(monthly))
	for m, ms := range monthly {
		trends[m] = *ms
	}
	return Report{
		Insights:        insights,
		Recommendations: recommendations,
		Summary: Summary{
			SeasonsAnalyzed: seasonsAnalyzed,
			TotalInsights:   len(insights),
			MonthlyTrends:   trends,
		},
	}
}

// peakMonth returns the month with the highest revenue for a product,
// breaking ties toward the first-seen month.
func peakMonth(ps *productStats) string {
	peak := "Unknown"
	best := 0.0
	for _, m := range ps.monthOrder {
		if ps.monthly[m] > best {
			best = ps.monthly[m]
			peak = m
		}
	}
	return peak
}

func fallbackInsights(monthly map[string]*MonthStat, monthOrder []string) []Insight {
	var insights []Insight
	for _, m := range monthOrder {
		ms := monthly[m]
		if ms.Revenue <= 0 {
			continue
		}
		season, ok := monthToSeason[m]
		if !ok {
			season = "unknown"
		}
		insights = append(insights, Insight{
			Season:       season,
			Product:      fmt.Sprintf("General %s products", season),
			Revenue:      ms.Revenue,
			Transactions: ms.Transactions,
			PeakMonth:    m,
			Confidence:   fallbackConfidence,
		})
	}
	return insights
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
