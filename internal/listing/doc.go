// Package listing turns raw marketplace records into listings and applies
// the purchase criteria.
//
// Parsing is lenient: a record that cannot be normalized is rejected with
// ErrSkip and never fails the surrounding poll cycle. Filtering is pure and
// returns a new slice sorted by total price, highest first.
package listing
