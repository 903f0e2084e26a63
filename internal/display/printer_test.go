package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rickgao/ticket-tracker/internal/model"
)

func TestPrinter_Event(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, decimal.NewFromInt(350), 4)

	p.Event(model.Event{ProductionID: "5471078", Name: "Patriots vs Jets", Venue: "Gillette Stadium"})

	out := buf.String()
	for _, want := range []string{
		"Production ID: 5471078",
		"Event Name   : Patriots vs Jets",
		"Venue        : Gillette Stadium",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrinter_Results(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, decimal.NewFromInt(350), 4)

	p.Results([]model.Listing{{
		ID:         "L-1",
		Section:    "312",
		Level:      "Loge",
		Row:        "5",
		Notes:      "Aisle",
		BasePrice:  decimal.RequireFromString("170"),
		TotalPrice: decimal.RequireFromString("200.5"),
		URL:        "https://tickets.test/L-1",
	}})

	want := `
Found 1 matching listings under $350 per ticket:
----------------------------------------
Section      : 312 (Loge)
Row          : 5
Base Price   : $170.00
Fees         : $30.50
Total Price  : $200.50
Notes        : Aisle
Purchase URL : https://tickets.test/L-1
----------------------------------------
`
	if buf.String() != want {
		t.Errorf("output =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestPrinter_ResultsEmpty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, decimal.RequireFromString("299.99"), 2)

	p.Results(nil)

	want := "\nNo tickets found matching your criteria (2 tickets, target sections, under $299.99)\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestPrinter_Changes(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, decimal.NewFromInt(350), 4)

	p.Changes([]model.PriceUpdate{{
		Section:       "312",
		Row:           "5",
		PreviousPrice: decimal.NewFromInt(200),
		CurrentPrice:  decimal.NewFromInt(180),
		Change:        decimal.NewFromInt(-20),
	}})

	if !strings.Contains(buf.String(), "Section 312, Row 5: $200.00 -> $180.00 (decreased by $20.00)") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

type countingReporter struct {
	events, results, changes int
}

func (c *countingReporter) Event(model.Event)           { c.events++ }
func (c *countingReporter) Results([]model.Listing)     { c.results++ }
func (c *countingReporter) Changes([]model.PriceUpdate) { c.changes++ }

func TestTee(t *testing.T) {
	a, b := &countingReporter{}, &countingReporter{}
	tee := Tee{a, b}

	tee.Event(model.Event{})
	tee.Results(nil)
	tee.Results(nil)
	tee.Changes(nil)

	for i, c := range []*countingReporter{a, b} {
		if c.events != 1 || c.results != 2 || c.changes != 1 {
			t.Errorf("reporter %d got %+v", i, *c)
		}
	}
}

func TestPrinter_ResultsWithoutCriteria(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, decimal.Zero, 0)

	p.Results([]model.Listing{{ID: "L-1", Section: "312"}})
	p.Results(nil)

	out := buf.String()
	if !strings.Contains(out, "Found 1 matching listings:\n") || !strings.Contains(out, "No matching listings\n") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
