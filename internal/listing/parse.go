package listing

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rickgao/ticket-tracker/internal/api"
	"github.com/rickgao/ticket-tracker/internal/model"
)

// ErrSkip marks a raw record that was rejected. It is reported per record
// and never escalates to the poll cycle.
var ErrSkip = errors.New("listing skipped")

// minLabelTokens is the fewest whitespace tokens a usable label has,
// e.g. "Loge Level 312".
const minLabelTokens = 3

// ParseOptions carries the fixed values needed to build purchase links.
type ParseOptions struct {
	EventURL     string // Event page, e.g. https://www.vividseats.com/<event-slug>
	ProductionID string // Marketplace production id
	Quantity     int    // Ticket count requested in the purchase link
}

// Parse normalizes one raw record.
func Parse(raw api.RawTicket, opts ParseOptions) (model.Listing, error) {
	if raw.Label.IsComposite() || raw.ID.IsComposite() {
		return model.Listing{}, fmt.Errorf("%w: label or id is not a scalar", ErrSkip)
	}

	tokens := strings.Fields(raw.Label.String())
	if len(tokens) < minLabelTokens {
		return model.Listing{}, fmt.Errorf("%w: label %q has %d tokens", ErrSkip, raw.Label.String(), len(tokens))
	}

	id := raw.ID.String()
	if id == "" {
		return model.Listing{}, fmt.Errorf("%w: missing listing id", ErrSkip)
	}

	base, err := parsePrice(raw.Price)
	if err != nil {
		return model.Listing{}, fmt.Errorf("%w: listing %s price: %v", ErrSkip, id, err)
	}

	quantity, err := parseQuantity(raw.Quantity)
	if err != nil {
		return model.Listing{}, fmt.Errorf("%w: listing %s quantity: %v", ErrSkip, id, err)
	}

	total := base
	if !raw.AllInclusivePrice.IsEmpty() {
		total, err = parsePrice(raw.AllInclusivePrice)
		if err != nil {
			return model.Listing{}, fmt.Errorf("%w: listing %s all-inclusive price: %v", ErrSkip, id, err)
		}
		if total.LessThan(base) {
			return model.Listing{}, fmt.Errorf("%w: listing %s all-inclusive price %s below base %s", ErrSkip, id, total, base)
		}
	}

	return model.Listing{
		ID:         id,
		Section:    tokens[len(tokens)-1],
		Level:      tokens[0],
		Row:        orDefault(raw.Row, model.UnknownRow),
		Notes:      orDefault(raw.Notes, model.DefaultNotes),
		Quantity:   quantity,
		BasePrice:  base,
		TotalPrice: total,
		URL:        PurchaseURL(opts, id),
	}, nil
}

// ParseAll parses every record in a payload, dropping rejected ones.
// It returns the listings in payload order and the number skipped.
func ParseAll(raws []api.RawTicket, opts ParseOptions) ([]model.Listing, int) {
	listings := make([]model.Listing, 0, len(raws))
	skipped := 0
	for _, raw := range raws {
		l, err := Parse(raw, opts)
		if err != nil {
			skipped++
			continue
		}
		listings = append(listings, l)
	}
	return listings, skipped
}

// PurchaseURL builds the marketplace link for a listing.
func PurchaseURL(opts ParseOptions, listingID string) string {
	q := url.Values{}
	q.Set("showDetails", listingID)
	q.Set("qty", strconv.Itoa(opts.Quantity))
	return strings.TrimRight(opts.EventURL, "/") + "/production/" + url.PathEscape(opts.ProductionID) + "?" + q.Encode()
}

func parsePrice(s api.Scalar) (decimal.Decimal, error) {
	if s.IsEmpty() {
		return decimal.Zero, errors.New("absent")
	}
	if s.IsComposite() {
		return decimal.Zero, fmt.Errorf("not numeric: %s", s.String())
	}
	d, err := decimal.NewFromString(s.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("not numeric: %q", s.String())
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative: %s", d)
	}
	return d, nil
}

func parseQuantity(s api.Scalar) (int, error) {
	if s.IsEmpty() {
		return 0, errors.New("absent")
	}
	if s.IsComposite() {
		return 0, fmt.Errorf("not an integer: %s", s.String())
	}
	if n, err := strconv.Atoi(s.String()); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative: %d", n)
		}
		return n, nil
	}
	// JSON numbers such as 4.0
	d, err := decimal.NewFromString(s.String())
	if err != nil || !d.IsInteger() || d.IsNegative() {
		return 0, fmt.Errorf("not an integer: %q", s.String())
	}
	return int(d.IntPart()), nil
}

func orDefault(s api.Scalar, def string) string {
	if s.IsEmpty() || s.IsComposite() {
		return def
	}
	return s.String()
}
