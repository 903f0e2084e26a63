package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rickgao/ticket-tracker/internal/api"
	"github.com/rickgao/ticket-tracker/internal/detector"
	"github.com/rickgao/ticket-tracker/internal/listing"
	"github.com/rickgao/ticket-tracker/internal/metrics"
	"github.com/rickgao/ticket-tracker/internal/model"
	"github.com/rickgao/ticket-tracker/internal/notify"
)

// ListingSource fetches the raw marketplace payload.
type ListingSource interface {
	GetListings(ctx context.Context, productionID string) (*api.ListingsResponse, error)
}

// Store is the part of history.Store the poller uses.
type Store interface {
	LatestPrice(ctx context.Context, listingID string) (decimal.Decimal, bool, error)
	Append(ctx context.Context, records []model.HistoryRecord) ([]model.HistoryRecord, error)
}

// Reporter receives results for display. Calls are best effort.
type Reporter interface {
	Event(model.Event)
	Results([]model.Listing)
	Changes([]model.PriceUpdate)
}

// State is the loop state.
type State int

const (
	StatePolling State = iota
	StateRecovering
)

func (s State) String() string {
	switch s {
	case StatePolling:
		return "polling"
	case StateRecovering:
		return "recovering"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// FetchError wraps a failure to obtain the marketplace payload.
type FetchError struct {
	ProductionID string
	Err          error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch listings %s: %v", e.ProductionID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Config holds poller configuration.
type Config struct {
	ProductionID  string
	Interval      time.Duration // Wait after a successful cycle (default: 1h)
	RetryInterval time.Duration // Wait after a failed cycle (default: 5m)
	Parse         listing.ParseOptions
	Criteria      listing.Criteria
}

// CycleResult summarizes a completed cycle.
type CycleResult struct {
	ID       uuid.UUID
	Matched  int
	Skipped  int
	Updates  []model.PriceUpdate
	Appended int
}

// Option configures a Poller.
type Option func(*Poller)

// WithNotifier sets where price changes are sent (default: notify.Nop).
func WithNotifier(n notify.Notifier) Option {
	return func(p *Poller) {
		p.notifier = n
	}
}

// WithReporter sets where results are displayed.
func WithReporter(r Reporter) Option {
	return func(p *Poller) {
		p.reporter = r
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Poller) {
		p.metrics = m
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Poller) {
		p.now = now
	}
}

// WithWait overrides the sleep between cycles. The function must return
// ctx.Err() when the context is cancelled.
func WithWait(wait func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Poller) {
		p.wait = wait
	}
}

// Poller runs fetch, filter, detect, notify and record cycles.
type Poller struct {
	cfg      Config
	source   ListingSource
	store    Store
	detector *detector.Detector
	notifier notify.Notifier
	reporter Reporter
	metrics  *metrics.Metrics
	logger   *slog.Logger

	now   func() time.Time
	wait  func(ctx context.Context, d time.Duration) error
	newID func() uuid.UUID

	mu          sync.Mutex
	state       State
	firstRun    bool
	cycles      int64
	lastCycleAt time.Time
	lastSuccess time.Time
	lastErr     error

	// Lifecycle
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller.
func New(cfg Config, source ListingSource, store Store, logger *slog.Logger, opts ...Option) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Poller{
		cfg:      cfg,
		source:   source,
		store:    store,
		detector: detector.New(store, logger),
		notifier: notify.Nop{},
		reporter: nopReporter{},
		logger:   logger,
		now:      time.Now,
		wait:     sleep,
		newID:    uuid.New,
		state:    StatePolling,
		firstRun: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunCycle performs one cycle. Errors are *FetchError or *history.StorageError.
func (p *Poller) RunCycle(ctx context.Context) (*CycleResult, error) {
	start := p.now()
	res := &CycleResult{ID: p.newID()}
	log := p.logger.With("cycle_id", res.ID)

	log.Info("checking prices", "production_id", p.cfg.ProductionID)

	err := p.runCycle(ctx, log, res, start)
	p.finishCycle(start, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Poller) runCycle(ctx context.Context, log *slog.Logger, res *CycleResult, start time.Time) error {
	resp, err := p.source.GetListings(ctx, p.cfg.ProductionID)
	if err != nil {
		return &FetchError{ProductionID: p.cfg.ProductionID, Err: err}
	}

	parsed, skipped := listing.ParseAll(resp.Tickets, p.cfg.Parse)
	matched := p.cfg.Criteria.Filter(parsed)
	res.Matched, res.Skipped = len(matched), skipped
	p.metrics.ObserveListings(len(matched), skipped)

	log.Debug("listings filtered",
		"received", len(resp.Tickets),
		"skipped", skipped,
		"matched", len(matched),
	)

	display := p.isFirstRun()
	if display {
		p.reporter.Event(resp.Event(p.cfg.ProductionID))
		p.reporter.Results(matched)
	}

	updates, err := p.detector.Detect(ctx, matched)
	if err != nil {
		return err
	}
	res.Updates = updates

	for _, u := range updates {
		p.metrics.ObservePriceChange(u.Direction())
		log.Info("price changed",
			"listing_id", u.ListingID,
			"section", u.Section,
			"row", u.Row,
			"previous", u.PreviousPrice.StringFixed(2),
			"current", u.CurrentPrice.StringFixed(2),
		)

		err := p.notifier.Notify(ctx, notify.PriceChangeMessage(u))
		p.metrics.ObserveNotification(err)
		if err != nil {
			log.Warn("notification failed", "listing_id", u.ListingID, "error", err)
		}
	}

	if len(updates) > 0 {
		p.reporter.Changes(updates)
		p.reporter.Results(matched)
	} else {
		log.Info("no price changes")
	}

	records := make([]model.HistoryRecord, len(matched))
	for i, l := range matched {
		records[i] = model.NewHistoryRecord(l, res.ID, start)
	}
	written, err := p.store.Append(ctx, records)
	if err != nil {
		return err
	}
	res.Appended = len(written)

	if display {
		p.mu.Lock()
		p.firstRun = false
		p.mu.Unlock()
	}

	log.Info("cycle complete",
		"matched", res.Matched,
		"updates", len(res.Updates),
		"duration", p.now().Sub(start),
	)
	return nil
}

func (p *Poller) finishCycle(start time.Time, err error) {
	end := p.now()

	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultStorageError
		var fe *FetchError
		if errors.As(err, &fe) {
			result = metrics.ResultFetchError
		}
	}
	p.metrics.ObserveCycle(result, end.Sub(start), end)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.cycles++
	p.lastCycleAt = end
	p.lastErr = err
	if err == nil {
		p.lastSuccess = end
	}
}

// Run repeats cycles until ctx is cancelled, then returns ctx.Err().
func (p *Poller) Run(ctx context.Context) error {
	for {
		p.setState(StatePolling)

		_, err := p.RunCycle(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := p.cfg.Interval
		if err != nil {
			p.setState(StateRecovering)
			delay = p.cfg.RetryInterval
			p.logger.Error("poll cycle failed", "error", err, "retry_in", delay)
		} else {
			p.logger.Debug("next check", "in", delay)
		}

		if err := p.wait(ctx, delay); err != nil {
			return err
		}
	}
}

// Start runs the loop in the background.
func (p *Poller) Start(ctx context.Context) error {
	ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.Run(ctx)
	}()

	p.logger.Info("poller started",
		"production_id", p.cfg.ProductionID,
		"interval", p.cfg.Interval,
		"retry_interval", p.cfg.RetryInterval,
	)

	return nil
}

// Stop cancels the loop and waits for the current cycle to return.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current loop state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Status reports loop progress for the health endpoint.
func (p *Poller) Status() metrics.CycleStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := metrics.CycleStatus{
		State:       p.state.String(),
		Cycles:      p.cycles,
		LastCycleAt: p.lastCycleAt,
		LastSuccess: p.lastSuccess,
	}
	if p.lastErr != nil {
		s.LastError = p.lastErr.Error()
	}
	return s
}

func (p *Poller) setState(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s
}

func (p *Poller) isFirstRun() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.firstRun
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type nopReporter struct{}

func (nopReporter) Event(model.Event)           {}
func (nopReporter) Results([]model.Listing)     {}
func (nopReporter) Changes([]model.PriceUpdate) {}
