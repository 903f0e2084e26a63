// Package feed streams poll results to WebSocket subscribers.
//
// Every report is broadcast as a JSON envelope:
//
//	{"type": "event" | "results" | "changes", "at": "<RFC3339>", "data": ...}
//
// A new subscriber first receives the latest event and results snapshot.
// Subscribers that fall behind are disconnected rather than slowing the
// poll loop.
package feed
