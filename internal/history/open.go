package history

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rickgao/ticket-tracker/internal/config"
)

// Open returns the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.HistoryConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Backend {
	case config.BackendCSV, "":
		return OpenCSV(cfg.Path, logger)
	case config.BackendPostgres:
		return OpenPostgres(ctx, cfg.Postgres, logger)
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}
