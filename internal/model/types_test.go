package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestListingFees(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		total string
		want  string
	}{
		{name: "with fees", base: "200", total: "243.50", want: "43.5"},
		{name: "no fees", base: "99.99", total: "99.99", want: "0"},
		{name: "fractional cents", base: "100.001", total: "100.0015", want: "0.0005"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Listing{
				BasePrice:  decimal.RequireFromString(tt.base),
				TotalPrice: decimal.RequireFromString(tt.total),
			}
			if got := l.Fees(); !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Fees() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNewHistoryRecord(t *testing.T) {
	cycleID := uuid.New()
	observed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("EST", -5*3600))

	l := Listing{
		ID:         "L-1",
		Section:    "312",
		Level:      "Loge",
		Row:        "7",
		BasePrice:  decimal.NewFromInt(200),
		TotalPrice: decimal.RequireFromString("245.10"),
	}

	rec := NewHistoryRecord(l, cycleID, observed)

	if rec.ListingID != "L-1" {
		t.Errorf("ListingID = %q, want %q", rec.ListingID, "L-1")
	}
	if rec.CycleID != cycleID {
		t.Errorf("CycleID = %s, want %s", rec.CycleID, cycleID)
	}
	if rec.ObservedAt.Location() != time.UTC {
		t.Errorf("ObservedAt location = %v, want UTC", rec.ObservedAt.Location())
	}
	if !rec.ObservedAt.Equal(observed) {
		t.Errorf("ObservedAt = %v, want %v", rec.ObservedAt, observed)
	}
	if !rec.TotalPrice.Equal(l.TotalPrice) {
		t.Errorf("TotalPrice = %s, want %s", rec.TotalPrice, l.TotalPrice)
	}
	if !rec.PriceChange.IsZero() {
		t.Errorf("PriceChange = %s, want 0 before the store computes it", rec.PriceChange)
	}
}

func TestPriceUpdateDirection(t *testing.T) {
	tests := []struct {
		change string
		want   string
	}{
		{"-20.00", "decreased"},
		{"0.01", "increased"},
		{"-0.001", "decreased"},
	}

	for _, tt := range tests {
		u := PriceUpdate{Change: decimal.RequireFromString(tt.change)}
		if got := u.Direction(); got != tt.want {
			t.Errorf("Direction() for %s = %q, want %q", tt.change, got, tt.want)
		}
	}
}
