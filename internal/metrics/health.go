package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Pinger is implemented by the history store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CycleStatus is the poll loop state reported by /health.
type CycleStatus struct {
	State       string    `json:"state"`
	Cycles      int64     `json:"cycles"`
	LastCycleAt time.Time `json:"last_cycle_at,omitzero"`
	LastSuccess time.Time `json:"last_success_at,omitzero"`
	LastError   string    `json:"last_error,omitempty"`
}

// HealthChecker serves the health endpoint.
type HealthChecker struct {
	store       Pinger
	status      func() CycleStatus
	startTime   time.Time
	pingTimeout time.Duration
}

// NewHealthChecker creates a checker. status may be nil.
func NewHealthChecker(store Pinger, status func() CycleStatus) *HealthChecker {
	return &HealthChecker{
		store:       store,
		status:      status,
		startTime:   time.Now(),
		pingTimeout: 2 * time.Second,
	}
}

type healthResponse struct {
	Status string       `json:"status"`
	Uptime string       `json:"uptime"`
	Store  string       `json:"store"`
	Poller *CycleStatus `json:"poller,omitempty"`
}

// ServeHTTP returns 200 while the store answers pings, 503 otherwise.
// A failing poll cycle alone does not make the tracker unhealthy; it is
// reported in the body.
func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status: "ok",
		Uptime: time.Since(h.startTime).Round(time.Second).String(),
		Store:  "ok",
	}
	code := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), h.pingTimeout)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		resp.Status = "unavailable"
		resp.Store = err.Error()
		code = http.StatusServiceUnavailable
	}

	if h.status != nil {
		s := h.status()
		resp.Poller = &s
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}
