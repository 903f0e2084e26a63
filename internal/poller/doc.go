// Package poller implements the poll loop.
//
// Each cycle:
//   - Fetches the marketplace payload for the configured production
//   - Parses and filters listings against the criteria
//   - Reports event metadata and results on the first run
//   - Detects price changes against history and notifies each one
//   - Appends every matching listing to the history store
//
// A failed fetch or store call aborts the cycle before anything is written
// and puts the loop in the Recovering state, which retries after the
// shorter retry interval. Notification failures never abort a cycle.
package poller
