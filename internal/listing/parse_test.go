package listing

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rickgao/ticket-tracker/internal/api"
)

var testOpts = ParseOptions{
	EventURL:     "https://www.vividseats.com/patriots-tickets",
	ProductionID: "5471078",
	Quantity:     4,
}

func TestParse(t *testing.T) {
	raw := api.RawTicket{
		Label:             "Loge Level 312",
		Price:             "200",
		Quantity:          "4",
		AllInclusivePrice: "243.50",
		Row:               "7",
		ID:                "L-1",
	}

	l, err := Parse(raw, testOpts)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if l.Section != "312" {
		t.Errorf("Section = %q, want %q", l.Section, "312")
	}
	if l.Level != "Loge" {
		t.Errorf("Level = %q, want %q", l.Level, "Loge")
	}
	if l.Quantity != 4 {
		t.Errorf("Quantity = %d, want 4", l.Quantity)
	}
	if !l.BasePrice.Equal(decimal.NewFromInt(200)) {
		t.Errorf("BasePrice = %s, want 200", l.BasePrice)
	}
	if !l.TotalPrice.Equal(decimal.RequireFromString("243.5")) {
		t.Errorf("TotalPrice = %s, want 243.5", l.TotalPrice)
	}
	if !l.Fees().Equal(decimal.RequireFromString("43.5")) {
		t.Errorf("Fees = %s, want 43.5", l.Fees())
	}
	if l.Row != "7" {
		t.Errorf("Row = %q, want %q", l.Row, "7")
	}
	if l.Notes != "No additional notes" {
		t.Errorf("Notes = %q, want default", l.Notes)
	}
	want := "https://www.vividseats.com/patriots-tickets/production/5471078?qty=4&showDetails=L-1"
	if l.URL != want {
		t.Errorf("URL = %q, want %q", l.URL, want)
	}
}

func TestParseDefaults(t *testing.T) {
	l, err := Parse(api.RawTicket{Label: "Mezz Section 331", Price: "150.10", Quantity: "2", ID: "9"}, testOpts)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if !l.TotalPrice.Equal(l.BasePrice) {
		t.Errorf("TotalPrice = %s, want base %s when aip is absent", l.TotalPrice, l.BasePrice)
	}
	if !l.Fees().IsZero() {
		t.Errorf("Fees = %s, want 0", l.Fees())
	}
	if l.Row != "Unknown" {
		t.Errorf("Row = %q, want %q", l.Row, "Unknown")
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  api.RawTicket
	}{
		{"empty label", api.RawTicket{Label: "", Price: "1", Quantity: "4", ID: "a"}},
		{"one token label", api.RawTicket{Label: "312", Price: "1", Quantity: "4", ID: "a"}},
		{"two token label", api.RawTicket{Label: "Loge 312", Price: "200", Quantity: "4", ID: "a"}},
		{"missing price", api.RawTicket{Label: "Loge Level 312", Quantity: "4", ID: "a"}},
		{"non-numeric price", api.RawTicket{Label: "Loge Level 312", Price: "Unknown", Quantity: "4", ID: "a"}},
		{"negative price", api.RawTicket{Label: "Loge Level 312", Price: "-5", Quantity: "4", ID: "a"}},
		{"missing quantity", api.RawTicket{Label: "Loge Level 312", Price: "200", ID: "a"}},
		{"fractional quantity", api.RawTicket{Label: "Loge Level 312", Price: "200", Quantity: "2.5", ID: "a"}},
		{"non-numeric aip", api.RawTicket{Label: "Loge Level 312", Price: "200", Quantity: "4", AllInclusivePrice: "n/a", ID: "a"}},
		{"aip below base", api.RawTicket{Label: "Loge Level 312", Price: "200", Quantity: "4", AllInclusivePrice: "199.99", ID: "a"}},
		{"missing id", api.RawTicket{Label: "Loge Level 312", Price: "200", Quantity: "4"}},
		{"array price", api.RawTicket{Label: "Loge Level 312", Price: `["n/a"]`, Quantity: "4", ID: "a"}},
		{"object quantity", api.RawTicket{Label: "Loge Level 312", Price: "200", Quantity: `{"n":4}`, ID: "a"}},
		{"array label", api.RawTicket{Label: `["Loge Level 312"]`, Price: "200", Quantity: "4", ID: "a"}},
		{"object id", api.RawTicket{Label: "Loge Level 312", Price: "200", Quantity: "4", ID: `{"id":1}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw, testOpts)
			if !errors.Is(err, ErrSkip) {
				t.Errorf("Parse() error = %v, want ErrSkip", err)
			}
		})
	}
}

func TestParseQuantityForms(t *testing.T) {
	tests := []struct {
		in   api.Scalar
		want int
	}{
		{"4", 4},
		{" 4 ", 4},
		{"4.0", 4},
		{"0", 0},
	}

	for _, tt := range tests {
		got, err := parseQuantity(tt.in)
		if err != nil {
			t.Errorf("parseQuantity(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseQuantity(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseAllTotalNeverBelowBase(t *testing.T) {
	raws := []api.RawTicket{
		{Label: "Loge Level 312", Price: "200", Quantity: "4", AllInclusivePrice: "250", ID: "1"},
		{Label: "Loge 312", Price: "200", Quantity: "4", ID: "2"},
		{Label: "Upper Level 330", Price: "99.995", Quantity: "4", AllInclusivePrice: "99.995", ID: "3"},
		{Label: "Upper Level 331", Price: "abc", Quantity: "4", ID: "4"},
		{Label: "Club Level C1", Price: "10", Quantity: "1", AllInclusivePrice: "12.345", ID: "5"},
	}

	listings, skipped := ParseAll(raws, testOpts)
	if len(listings) != 3 {
		t.Fatalf("len(listings) = %d, want 3", len(listings))
	}
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped)
	}

	for _, l := range listings {
		if l.TotalPrice.LessThan(l.BasePrice) {
			t.Errorf("listing %s: total %s < base %s", l.ID, l.TotalPrice, l.BasePrice)
		}
		if !l.Fees().Equal(l.TotalPrice.Sub(l.BasePrice)) {
			t.Errorf("listing %s: fees %s != total - base", l.ID, l.Fees())
		}
	}

	if listings[0].ID != "1" || listings[1].ID != "3" || listings[2].ID != "5" {
		t.Errorf("ParseAll did not keep payload order: %s, %s, %s", listings[0].ID, listings[1].ID, listings[2].ID)
	}
}

func TestParseAllSkipsOddRecordInPayload(t *testing.T) {
	payload := `{"tickets": [
		{"l": "Loge Level 312", "p": "170", "q": "4", "aip": "200", "i": "L-1"},
		{"l": "Loge Level 313", "p": ["n/a"], "q": "4", "i": "L-2"},
		{"l": "Loge Level 314", "p": "160", "q": 4, "r": {"row": 3}, "i": "L-3"}
	]}`

	var resp api.ListingsResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	listings, skipped := ParseAll(resp.Tickets, testOpts)
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if len(listings) != 2 || listings[0].ID != "L-1" || listings[1].ID != "L-3" {
		t.Fatalf("listings = %+v, want L-1 and L-3", listings)
	}
	if listings[1].Row != "Unknown" {
		t.Errorf("Row = %q, want default for an object row", listings[1].Row)
	}
}
