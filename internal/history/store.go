package history

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rickgao/ticket-tracker/internal/model"
)

// Store is the durable record of observed prices.
type Store interface {
	// LatestPrice returns the total price of the most recent record for the
	// listing. ok is false when the listing has never been observed.
	LatestPrice(ctx context.Context, listingID string) (price decimal.Decimal, ok bool, err error)

	// Append writes one record per input and returns them with PriceChange set.
	Append(ctx context.Context, records []model.HistoryRecord) ([]model.HistoryRecord, error)

	// Ping verifies the backing medium is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// StorageError reports that the backing medium failed.
type StorageError struct {
	Op  string // "open", "latest", "append", ...
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("history %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// withChanges sets PriceChange on each record from the pre-batch latest
// prices returned by lookup.
func withChanges(records []model.HistoryRecord, lookup func(listingID string) (decimal.Decimal, bool, error)) ([]model.HistoryRecord, error) {
	out := make([]model.HistoryRecord, len(records))
	for i, r := range records {
		prev, ok, err := lookup(r.ListingID)
		if err != nil {
			return nil, err
		}
		r.PriceChange = decimal.Zero
		if ok {
			r.PriceChange = r.TotalPrice.Sub(prev)
		}
		out[i] = r
	}
	return out, nil
}
