// Package history persists observed listing prices.
//
// The store is append-only: records are never updated or deleted. Each
// appended record carries the change against the most recent prior record
// for the same listing, computed at write time from the state before the
// batch. When two records share a timestamp the last inserted one wins.
//
// Backends:
//   - CSVStore: a single CSV file, the default
//   - PostgresStore: the price_history table in PostgreSQL
package history
