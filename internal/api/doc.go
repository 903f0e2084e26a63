// Package api provides the marketplace REST client used to fetch ticket listings.
//
// Endpoint:
//   - Production: https://www.vividseats.com/hermes/api/v1
//
// The listings endpoint returns a "global" metadata array describing the production
// and a "tickets" array of raw listing records with single-letter keys
// (l = label, p = price, q = quantity, aip = all-inclusive price, r = row, n = notes, i = id).
package api
