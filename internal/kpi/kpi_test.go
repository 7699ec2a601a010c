package kpi

import (
	"math"
	"testing"

	"retailpulse/internal/event"
)

func sale(store string, amount float64, payload map[string]interface{}) event.Event {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	payload["amount"] = amount
	return event.Event{
		StoreID:   store,
		TS:        "2024-01-15T10:30:00Z",
		EventType: event.TypeSale,
		Payload:   payload,
	}
}

func TestAggregateEmptyEvents(t *testing.T) {
	kpis := Aggregate(nil)
	if len(kpis) != 0 {
		t.Fatalf("Aggregate(nil) = %d records, want 0", len(kpis))
	}
}

func TestAggregateIgnoresNonSaleEvents(t *testing.T) {
	events := []event.Event{
		{StoreID: "s1", EventType: "inventory", Payload: map[string]interface{}{"amount": 99.0}},
		{StoreID: "s1", EventType: "visit"},
	}
	if kpis := Aggregate(events); len(kpis) != 0 {
		t.Fatalf("Aggregate(non-sale) = %d records, want 0 (zero-sale stores never appear)", len(kpis))
	}
}

func TestAggregatePerStore(t *testing.T) {
	events := []event.Event{
		sale("s1", 100, map[string]interface{}{
			"items":             []interface{}{"soup", "bread"},
			"customer_category": "Premium",
			"payment_method":    "Card",
			"promotion":         "Holiday",
		}),
		sale("s1", 50, map[string]interface{}{
			"items":             []interface{}{"milk"},
			"customer_category": "Premium",
		}),
		sale("s2", 20, nil),
	}
	kpis := Aggregate(events)
	if len(kpis) != 2 {
		t.Fatalf("Aggregate = %d records, want 2 stores", len(kpis))
	}

	s1 := kpis[0]
	if s1.StoreID != "s1" {
		t.Fatalf("first record store = %q, want s1 (insertion order)", s1.StoreID)
	}
	if s1.Metrics.SalesCount != 2 {
		t.Errorf("s1 sales_count = %d, want 2", s1.Metrics.SalesCount)
	}
	if s1.Metrics.TotalSales != 150 {
		t.Errorf("s1 total_sales = %v, want 150", s1.Metrics.TotalSales)
	}
	if s1.Metrics.AverageOrderValue != 75 {
		t.Errorf("s1 average_order_value = %v, want 75", s1.Metrics.AverageOrderValue)
	}
	if s1.Metrics.TotalItemsSold != 3 {
		t.Errorf("s1 total_items_sold = %d, want 3", s1.Metrics.TotalItemsSold)
	}
	if got := s1.ByCustomerCategory["Premium"]; got != 150 {
		t.Errorf("s1 Premium revenue = %v, want 150", got)
	}
	if got := s1.ByPaymentMethod["Card"]; got != 100 {
		t.Errorf("s1 Card revenue = %v, want 100", got)
	}
	if got := s1.ByPaymentMethod["Unknown"]; got != 50 {
		t.Errorf("s1 Unknown payment revenue = %v, want 50", got)
	}
	if got := s1.ByPromotion["None"]; got != 50 {
		t.Errorf("s1 None promotion revenue = %v, want 50", got)
	}
}

func TestAggregateDefaults(t *testing.T) {
	events := []event.Event{
		{EventType: event.TypeSale, Payload: map[string]interface{}{}},
	}
	kpis := Aggregate(events)
	if len(kpis) != 1 {
		t.Fatalf("Aggregate = %d records, want 1", len(kpis))
	}
	k := kpis[0]
	if k.StoreID != "unknown" {
		t.Errorf("store id = %q, want unknown", k.StoreID)
	}
	if k.Metrics.TotalSales != 0 || k.Metrics.TotalItemsSold != 0 {
		t.Errorf("missing amount/items should default to zero, got %+v", k.Metrics)
	}
	if _, ok := k.ByCustomerCategory["Unknown"]; !ok {
		t.Error("missing customer_category should accumulate under Unknown")
	}
	if _, ok := k.ByPromotion["None"]; !ok {
		t.Error("missing promotion should accumulate under None")
	}
}

func TestAggregateRoundsAtEmissionOnly(t *testing.T) {
	// Three amounts that each carry repeating binary fractions; rounding
	// during accumulation would compound the error.
	events := []event.Event{
		sale("s1", 10.004, nil),
		sale("s1", 10.004, nil),
		sale("s1", 10.004, nil),
	}
	kpis := Aggregate(events)
	if len(kpis) != 1 {
		t.Fatalf("Aggregate = %d records, want 1", len(kpis))
	}
	// Sum first (30.012) then round: 30.01. Rounding each term first
	// would give 30.0.
	if got := kpis[0].Metrics.TotalSales; math.Abs(got-30.01) > 1e-9 {
		t.Errorf("total_sales = %v, want 30.01 (rounded at emission)", got)
	}
}

func TestSnapshot(t *testing.T) {
	s := NewSnapshot()
	if got := s.Latest(); len(got) != 0 {
		t.Fatalf("fresh snapshot has %d records", len(got))
	}
	s.Set([]StoreKPI{{StoreID: "s1"}, {StoreID: "s2"}})
	if _, ok := s.ForStore("s2"); !ok {
		t.Error("ForStore(s2) not found after Set")
	}
	if _, ok := s.ForStore("s3"); ok {
		t.Error("ForStore(s3) found, want miss")
	}
	s.Set([]StoreKPI{{StoreID: "s9"}})
	if _, ok := s.ForStore("s1"); ok {
		t.Error("snapshot not replaced wholesale on Set")
	}
}
