package detector

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/rickgao/ticket-tracker/internal/model"
)

// PriceLookup is the part of history.Store the detector reads.
type PriceLookup interface {
	LatestPrice(ctx context.Context, listingID string) (decimal.Decimal, bool, error)
}

// Detector emits a PriceUpdate for every listing whose total price differs
// from its most recent recorded price. Unseen listings produce nothing.
type Detector struct {
	store  PriceLookup
	logger *slog.Logger
}

// New creates a Detector reading from store.
func New(store PriceLookup, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{store: store, logger: logger}
}

// Detect returns updates in the same order as listings. A lookup failure
// aborts detection and is returned as is.
func (d *Detector) Detect(ctx context.Context, listings []model.Listing) ([]model.PriceUpdate, error) {
	var updates []model.PriceUpdate

	for _, l := range listings {
		prev, ok, err := d.store.LatestPrice(ctx, l.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			d.logger.Debug("new listing", "listing_id", l.ID, "section", l.Section, "total", l.TotalPrice)
			continue
		}
		if prev.Equal(l.TotalPrice) {
			continue
		}

		updates = append(updates, model.PriceUpdate{
			ListingID:     l.ID,
			Section:       l.Section,
			Row:           l.Row,
			CurrentPrice:  l.TotalPrice,
			PreviousPrice: prev,
			Change:        l.TotalPrice.Sub(prev),
			URL:           l.URL,
		})
	}

	return updates, nil
}
