package feed

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/ticket-tracker/internal/model"
)

// Envelope types.
const (
	TypeEvent   = "event"
	TypeResults = "results"
	TypeChanges = "changes"
)

// Envelope wraps every message sent to subscribers.
type Envelope struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data any       `json:"data"`
}

// Event is the wire form of model.Event.
type Event struct {
	ProductionID string `json:"production_id"`
	Name         string `json:"name"`
	Venue        string `json:"venue"`
}

// Listing is the wire form of model.Listing. Prices are decimal strings.
type Listing struct {
	ID         string          `json:"id"`
	Section    string          `json:"section"`
	Level      string          `json:"level"`
	Row        string          `json:"row"`
	Notes      string          `json:"notes"`
	Quantity   int             `json:"quantity"`
	BasePrice  decimal.Decimal `json:"base_price"`
	Fees       decimal.Decimal `json:"fees"`
	TotalPrice decimal.Decimal `json:"total_price"`
	URL        string          `json:"url"`
}

// PriceUpdate is the wire form of model.PriceUpdate.
type PriceUpdate struct {
	ListingID     string          `json:"listing_id"`
	Section       string          `json:"section"`
	Row           string          `json:"row"`
	PreviousPrice decimal.Decimal `json:"previous_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	Change        decimal.Decimal `json:"change"`
	Direction     string          `json:"direction"`
	URL           string          `json:"url"`
}

func toEvent(e model.Event) Event {
	return Event{ProductionID: e.ProductionID, Name: e.Name, Venue: e.Venue}
}

func toListings(in []model.Listing) []Listing {
	out := make([]Listing, len(in))
	for i, l := range in {
		out[i] = Listing{
			ID:         l.ID,
			Section:    l.Section,
			Level:      l.Level,
			Row:        l.Row,
			Notes:      l.Notes,
			Quantity:   l.Quantity,
			BasePrice:  l.BasePrice,
			Fees:       l.Fees(),
			TotalPrice: l.TotalPrice,
			URL:        l.URL,
		}
	}
	return out
}

func toUpdates(in []model.PriceUpdate) []PriceUpdate {
	out := make([]PriceUpdate, len(in))
	for i, u := range in {
		out[i] = PriceUpdate{
			ListingID:     u.ListingID,
			Section:       u.Section,
			Row:           u.Row,
			PreviousPrice: u.PreviousPrice,
			CurrentPrice:  u.CurrentPrice,
			Change:        u.Change,
			Direction:     u.Direction(),
			URL:           u.URL,
		}
	}
	return out
}
