package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// DefaultListingsOptions mirrors the query the marketplace web client sends.
func DefaultListingsOptions() GetListingsOptions {
	return GetListingsOptions{
		Currency:         "USD",
		IncludeIPAddress: true,
		LocalizeCurrency: true,
	}
}

// GetListings fetches every listing for a production.
func (c *Client) GetListings(ctx context.Context, productionID string) (*ListingsResponse, error) {
	return c.GetListingsWithOptions(ctx, productionID, DefaultListingsOptions())
}

// GetListingsWithOptions fetches listings using explicit query options.
func (c *Client) GetListingsWithOptions(ctx context.Context, productionID string, opts GetListingsOptions) (*ListingsResponse, error) {
	if productionID == "" {
		return nil, fmt.Errorf("get listings: production id is required")
	}

	query := url.Values{}
	query.Set("productionId", productionID)
	query.Set("includeIpAddress", strconv.FormatBool(opts.IncludeIPAddress))
	if opts.Currency != "" {
		query.Set("currency", opts.Currency)
	}
	query.Set("localizeCurrency", strconv.FormatBool(opts.LocalizeCurrency))

	var resp ListingsResponse
	if err := c.getJSON(ctx, "/listings", query, &resp); err != nil {
		return nil, fmt.Errorf("get listings %s: %w", productionID, err)
	}

	return &resp, nil
}
