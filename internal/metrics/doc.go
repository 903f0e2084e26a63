// Package metrics provides Prometheus metrics and the health endpoint.
//
// Key metrics:
//   - Poll cycles by result and their duration
//   - Listings matched and skipped per cycle
//   - Price changes detected
//   - Notification deliveries by result
//   - Time of the last successful cycle
//
// Each Metrics instance owns its registry, so tests can build as many as
// they like without colliding on the default registerer.
package metrics
