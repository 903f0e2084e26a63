// Package model defines shared data types used across the ticket tracker.
//
// Conventions:
//   - Prices: decimal.Decimal dollars, never float64, so deltas are exact
//   - Timestamps: time.Time in UTC
//   - IDs: opaque marketplace strings for listings, uuid.UUID for poll cycles
package model
