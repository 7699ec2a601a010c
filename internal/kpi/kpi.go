// Package kpi aggregates per-store sales KPIs from raw events. Every
// aggregation rebuilds from scratch; nothing is merged across calls.
package kpi

import (
	"math"
	"time"

	"retailpulse/internal/event"
)

// Metrics are the headline numbers for one store.
type Metrics struct {
	SalesCount        int     `json:"sales_count"`
	TotalSales        float64 `json:"total_sales"`
	AverageOrderValue float64 `json:"average_order_value"`
	TotalItemsSold    int     `json:"total_items_sold"`
}

// StoreKPI is the per-store KPI record with revenue breakdowns by
// customer category, payment method and promotion.
type StoreKPI struct {
	StoreID            string             `json:"store_id"`
	TS                 string             `json:"ts"`
	Metrics            Metrics            `json:"metrics"`
	ByCustomerCategory map[string]float64 `json:"by_customer_category"`
	ByPaymentMethod    map[string]float64 `json:"by_payment_method"`
	ByPromotion        map[string]float64 `json:"by_promotion"`
}

type accumulator struct {
	salesCount int
	saleAmount float64
	totalItems int
	byCategory map[string]float64
	byPayment  map[string]float64
	byPromo    map[string]float64
}

// Aggregate builds one KPI record per store with at least one sale
// event. Non-sale events are ignored entirely; missing payload fields
// take documented defaults ("unknown" store, "Unknown" category and
// payment, "None" promotion, zero amount). Monetary values are rounded
// to 2 decimals at emission time only, so accumulation never compounds
// rounding error. Zero events yield an empty slice, not an error.
func Aggregate(events []event.Event) []StoreKPI {
	byStore := make(map[string]*accumulator)
	var storeOrder []string

	for _, ev := range events {
		if !ev.IsSale() {
			continue
		}
		storeID := ev.StoreID
		if storeID == "" {
			storeID = "unknown"
		}
		acc, ok := byStore[storeID]
		if !ok {
			acc = &accumulator{
				byCategory: make(map[string]float64),
				byPayment:  make(map[string]float64),
				byPromo:    make(map[string]float64),
			}
			byStore[storeID] = acc
			storeOrder = append(storeOrder, storeID)
		}

		amount := ev.Amount()
		acc.salesCount++
		acc.saleAmount += amount
		acc.totalItems += len(ev.Items())
		acc.byCategory[ev.PayloadStringOr("customer_category", "Unknown")] += amount
		acc.byPayment[ev.PayloadStringOr("payment_method", "Unknown")] += amount
		acc.byPromo[ev.PayloadStringOr("promotion", "None")] += amount
	}

	now := time.Now().UTC().Format(time.RFC3339)
	kpis := make([]StoreKPI, 0, len(byStore))
	for _, storeID := range storeOrder {
		acc := byStore[storeID]
		total := round2(acc.saleAmount)
		aov := 0.0
		if acc.salesCount > 0 {
			aov = round2(total / float64(acc.salesCount))
		}
		kpis = append(kpis, StoreKPI{
			StoreID: storeID,
			TS:      now,
			Metrics: Metrics{
				SalesCount:        acc.salesCount,
				TotalSales:        total,
				AverageOrderValue: aov,
				TotalItemsSold:    acc.totalItems,
			},
			ByCustomerCategory: roundMap(acc.byCategory),
			ByPaymentMethod:    roundMap(acc.byPayment),
			ByPromotion:        roundMap(acc.byPromo),
		})
	}
	return kpis
}

func roundMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = round2(v)
	}
	return out
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
