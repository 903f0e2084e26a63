package history

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rickgao/ticket-tracker/internal/model"
)

var csvHeader = []string{
	"timestamp", "cycle_id", "listing_id", "section", "row", "base_price", "total_price", "price_change",
}

type latestEntry struct {
	at    time.Time
	price decimal.Decimal
}

// CSVStore keeps price history in an append-only CSV file.
// The latest price per listing is indexed in memory when the file is opened;
// the store assumes it is the file's only writer.
type CSVStore struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	out    io.Writer
	writer *csv.Writer
	latest map[string]latestEntry
	logger *slog.Logger

	// broken holds a failed rollback; the file tail is then unknown and
	// Ping reports it until an append succeeds.
	broken error
}

// OpenCSV opens (or creates) the history file at path.
// Intermediate directories are created automatically.
func OpenCSV(path string, logger *slog.Logger) (*CSVStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, storageErr("open", fmt.Errorf("create dir: %w", err))
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, storageErr("open", err)
	}

	s := &CSVStore{
		path:   path,
		file:   f,
		out:    f,
		writer: csv.NewWriter(f),
		latest: make(map[string]latestEntry),
		logger: logger,
	}

	if err := s.load(); err != nil {
		_ = f.Close()
		return nil, storageErr("open", err)
	}

	return s, nil
}

// load indexes existing rows, or writes the header to an empty file.
func (s *CSVStore) load() error {
	info, err := s.file.Stat()
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	if info.Size() == 0 {
		if err := s.writer.Write(csvHeader); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		s.writer.Flush()
		if err := s.writer.Error(); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		return s.file.Sync()
	}

	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek: %w", err)
	}

	r := csv.NewReader(s.file)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(header) < len(csvHeader) || header[0] != csvHeader[0] || header[2] != csvHeader[2] {
		return fmt.Errorf("unexpected header %v", header)
	}

	rows, skipped := 0, 0
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A torn final line after a crash; everything before it is intact.
			s.logger.Warn("stopping at unreadable history row", "path", s.path, "error", err)
			break
		}

		hr, err := decodeRow(rec)
		if err != nil {
			skipped++
			s.logger.Warn("skipping malformed history row", "path", s.path, "error", err)
			continue
		}
		s.index(hr)
		rows++
	}

	s.logger.Debug("history loaded",
		"path", s.path,
		"rows", rows,
		"skipped", skipped,
		"listings", len(s.latest),
	)
	return nil
}

// index records hr as the latest observation if it is not older than the
// current one. Equal timestamps: the later row wins.
func (s *CSVStore) index(hr model.HistoryRecord) {
	cur, ok := s.latest[hr.ListingID]
	if ok && hr.ObservedAt.Before(cur.at) {
		return
	}
	s.latest[hr.ListingID] = latestEntry{at: hr.ObservedAt, price: hr.TotalPrice}
}

// LatestPrice implements Store.
func (s *CSVStore) LatestPrice(_ context.Context, listingID string) (decimal.Decimal, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return decimal.Zero, false, storageErr("latest", os.ErrClosed)
	}

	e, ok := s.latest[listingID]
	return e.price, ok, nil
}

// Append implements Store. Rows are flushed and fsynced before returning.
func (s *CSVStore) Append(_ context.Context, records []model.HistoryRecord) ([]model.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil, storageErr("append", os.ErrClosed)
	}
	if len(records) == 0 {
		return nil, nil
	}

	out, err := withChanges(records, func(id string) (decimal.Decimal, bool, error) {
		e, ok := s.latest[id]
		return e.price, ok, nil
	})
	if err != nil {
		return nil, storageErr("append", err)
	}

	info, err := s.file.Stat()
	if err != nil {
		return nil, storageErr("append", fmt.Errorf("stat: %w", err))
	}

	if err := s.writeRows(out); err != nil {
		return nil, storageErr("append", s.rollback(info.Size(), err))
	}
	s.broken = nil

	for _, r := range out {
		s.index(r)
	}

	return out, nil
}

func (s *CSVStore) writeRows(rows []model.HistoryRecord) error {
	for _, r := range rows {
		if err := s.writer.Write(encodeRow(r)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	return nil
}

// rollback cuts the file back to size, dropping any partially written rows,
// and replaces the writer, whose errors are sticky.
func (s *CSVStore) rollback(size int64, cause error) error {
	s.writer = csv.NewWriter(s.out)
	if err := s.file.Truncate(size); err != nil {
		s.broken = fmt.Errorf("truncate after failed append: %w", err)
		return errors.Join(cause, s.broken)
	}
	return cause
}

// Ping implements Store by checking the file is still present.
func (s *CSVStore) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return storageErr("ping", os.ErrClosed)
	}
	if s.broken != nil {
		return storageErr("ping", s.broken)
	}
	if _, err := os.Stat(s.path); err != nil {
		return storageErr("ping", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (s *CSVStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	s.writer.Flush()
	err := errors.Join(s.writer.Error(), s.file.Close())
	s.file = nil
	if err != nil {
		return storageErr("close", err)
	}
	return nil
}

func encodeRow(r model.HistoryRecord) []string {
	return []string{
		r.ObservedAt.UTC().Format(time.RFC3339Nano),
		r.CycleID.String(),
		r.ListingID,
		r.Section,
		r.Row,
		r.BasePrice.String(),
		r.TotalPrice.String(),
		r.PriceChange.String(),
	}
}

func decodeRow(rec []string) (model.HistoryRecord, error) {
	if len(rec) < len(csvHeader) {
		return model.HistoryRecord{}, fmt.Errorf("row has %d fields, want %d", len(rec), len(csvHeader))
	}

	at, err := time.Parse(time.RFC3339Nano, rec[0])
	if err != nil {
		return model.HistoryRecord{}, fmt.Errorf("timestamp: %w", err)
	}

	// Rows written before cycle ids existed carry an empty column.
	var cycleID uuid.UUID
	if rec[1] != "" {
		if cycleID, err = uuid.Parse(rec[1]); err != nil {
			return model.HistoryRecord{}, fmt.Errorf("cycle_id: %w", err)
		}
	}

	prices := make([]decimal.Decimal, 3)
	for i, field := range rec[5:8] {
		if prices[i], err = decimal.NewFromString(field); err != nil {
			return model.HistoryRecord{}, fmt.Errorf("%s: %w", csvHeader[5+i], err)
		}
	}

	return model.HistoryRecord{
		ObservedAt:  at,
		CycleID:     cycleID,
		ListingID:   rec[2],
		Section:     rec[3],
		Row:         rec[4],
		BasePrice:   prices[0],
		TotalPrice:  prices[1],
		PriceChange: prices[2],
	}, nil
}
