package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Defaults for optional listing fields.
const (
	UnknownRow   = "Unknown"
	DefaultNotes = "No additional notes"
	UnknownValue = "Unknown"
)

// -----------------------------------------------------------------------------
// Marketplace Types
// -----------------------------------------------------------------------------

// Event describes the production whose listings are being tracked.
type Event struct {
	ProductionID string // Marketplace production identifier
	Name         string // Display name (e.g., "Patriots vs Jets")
	Venue        string // Venue / map title
}

// Listing is one normalized ticket group derived from a raw marketplace record.
// Listings are rebuilt every cycle and never mutated.
type Listing struct {
	ID         string          // Marketplace listing id, identity key for history
	Section    string          // Last token of the compound label (e.g., "312")
	Level      string          // First token of the compound label (e.g., "Loge")
	Row        string          // Row, UnknownRow if absent
	Notes      string          // Seller notes, DefaultNotes if absent
	Quantity   int             // Tickets in the listing
	BasePrice  decimal.Decimal // Per-ticket price before fees
	TotalPrice decimal.Decimal // All-inclusive per-ticket price
	URL        string          // Purchase link
}

// Fees returns the difference between the all-inclusive and the base price.
func (l Listing) Fees() decimal.Decimal {
	return l.TotalPrice.Sub(l.BasePrice)
}

// -----------------------------------------------------------------------------
// History Types
// -----------------------------------------------------------------------------

// HistoryRecord is one observation of a listing price.
//
// PriceChange is computed by the history store at write time against the most
// recent prior record for the same listing (zero for the first observation).
type HistoryRecord struct {
	ObservedAt  time.Time
	CycleID     uuid.UUID
	ListingID   string
	Section     string
	Row         string
	BasePrice   decimal.Decimal
	TotalPrice  decimal.Decimal
	PriceChange decimal.Decimal
}

// NewHistoryRecord builds the record persisted for a listing seen in a cycle.
func NewHistoryRecord(l Listing, cycleID uuid.UUID, observedAt time.Time) HistoryRecord {
	return HistoryRecord{
		ObservedAt: observedAt.UTC(),
		CycleID:    cycleID,
		ListingID:  l.ID,
		Section:    l.Section,
		Row:        l.Row,
		BasePrice:  l.BasePrice,
		TotalPrice: l.TotalPrice,
	}
}

// PriceUpdate reports a listing whose total price moved since the last cycle.
// It is never persisted.
type PriceUpdate struct {
	ListingID     string
	Section       string
	Row           string
	CurrentPrice  decimal.Decimal
	PreviousPrice decimal.Decimal
	Change        decimal.Decimal // CurrentPrice - PreviousPrice
	URL           string
}

// Direction returns "decreased" for negative changes and "increased" otherwise.
func (u PriceUpdate) Direction() string {
	if u.Change.IsNegative() {
		return "decreased"
	}
	return "increased"
}
