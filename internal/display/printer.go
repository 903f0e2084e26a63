package display

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rickgao/ticket-tracker/internal/model"
)

var separator = strings.Repeat("-", 40)

// Printer writes event metadata, result tables and price changes as plain text.
// Write errors are ignored.
type Printer struct {
	mu       sync.Mutex
	w        io.Writer
	maxPrice decimal.Decimal
	quantity int
}

// NewPrinter creates a Printer. maxPrice and quantity only appear in headings;
// pass a zero quantity to leave them out.
func NewPrinter(w io.Writer, maxPrice decimal.Decimal, quantity int) *Printer {
	return &Printer{w: w, maxPrice: maxPrice, quantity: quantity}
}

// Event prints the production being tracked.
func (p *Printer) Event(e model.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, "Event Information:")
	fmt.Fprintln(p.w, separator)
	fmt.Fprintf(p.w, "Production ID: %s\n", e.ProductionID)
	fmt.Fprintf(p.w, "Event Name   : %s\n", e.Name)
	fmt.Fprintf(p.w, "Venue        : %s\n", e.Venue)
	fmt.Fprintln(p.w, separator)
}

// Results prints one block per listing.
func (p *Printer) Results(listings []model.Listing) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Zero criteria: the printer is rendering someone else's results.
	unknown := p.quantity == 0

	switch {
	case len(listings) == 0 && unknown:
		fmt.Fprintln(p.w, "\nNo matching listings")
		return
	case len(listings) == 0:
		fmt.Fprintf(p.w, "\nNo tickets found matching your criteria (%d tickets, target sections, under $%s)\n",
			p.quantity, p.maxPrice.String())
		return
	case unknown:
		fmt.Fprintf(p.w, "\nFound %d matching listings:\n", len(listings))
	default:
		fmt.Fprintf(p.w, "\nFound %d matching listings under $%s per ticket:\n", len(listings), p.maxPrice.String())
	}
	fmt.Fprintln(p.w, separator)
	for _, l := range listings {
		fmt.Fprintf(p.w, "Section      : %s (%s)\n", l.Section, l.Level)
		fmt.Fprintf(p.w, "Row          : %s\n", l.Row)
		fmt.Fprintf(p.w, "Base Price   : $%s\n", l.BasePrice.StringFixed(2))
		fmt.Fprintf(p.w, "Fees         : $%s\n", l.Fees().StringFixed(2))
		fmt.Fprintf(p.w, "Total Price  : $%s\n", l.TotalPrice.StringFixed(2))
		fmt.Fprintf(p.w, "Notes        : %s\n", l.Notes)
		fmt.Fprintf(p.w, "Purchase URL : %s\n", l.URL)
		fmt.Fprintln(p.w, separator)
	}
}

// Changes prints one line per price update.
func (p *Printer) Changes(updates []model.PriceUpdate) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, "Price Changes Detected:")
	fmt.Fprintln(p.w, separator)
	for _, u := range updates {
		fmt.Fprintf(p.w, "Section %s, Row %s: $%s -> $%s (%s by $%s)\n",
			u.Section, u.Row,
			u.PreviousPrice.StringFixed(2), u.CurrentPrice.StringFixed(2),
			u.Direction(), u.Change.Abs().StringFixed(2))
	}
}
