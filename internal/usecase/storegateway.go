package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"DjenScanner/internal/domain"
	"DjenScanner/internal/ports"
)

// StoreGateway applies the store-with-dedup contract on top of the raw
// repository: check existence, insert if absent, count the outcome.
type StoreGateway struct {
	repo   ports.RecordRepository
	logger *slog.Logger
}

// NewStoreGateway wires the repository behind the batch contract.
func NewStoreGateway(repo ports.RecordRepository, logger *slog.Logger) *StoreGateway {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &StoreGateway{repo: repo, logger: logger}
}

// ProcessBatch stores each record in input order. A record already present by
// identifier or content hash counts as a duplicate; an insert failure counts
// as an error; neither aborts the batch. Re-running the same batch against an
// unchanged store converges to zero inserts.
func (g *StoreGateway) ProcessBatch(ctx context.Context, records []domain.Record) domain.BatchStats {
	stats := domain.BatchStats{Total: len(records)}

	g.logger.Info("storing batch", "records", len(records))

	for _, rec := range records {
		exists, _, err := g.repo.Exists(ctx, rec.NotificationID, rec.ContentHash)
		if err != nil {
			// The existence check is an optimization; the unique index on the
			// insert path is the real guarantee, so fall through to Insert.
			g.logger.Warn("existence check failed", "notification_id", rec.NotificationID, "error", err)
		} else if exists {
			stats.Duplicates++
			g.logger.Debug("duplicate record", "notification_id", rec.NotificationID)
			continue
		}

		if _, err := g.repo.Insert(ctx, rec); err != nil {
			if errors.Is(err, domain.ErrDuplicateRecord) {
				stats.Duplicates++
				g.logger.Debug("duplicate record on insert", "notification_id", rec.NotificationID)
				continue
			}
			stats.Errors++
			stats.ErrorDetails = append(stats.ErrorDetails, fmt.Sprintf("insert %s: %v", rec.NotificationID, err))
			g.logger.Error("insert failed", "notification_id", rec.NotificationID, "error", err)
			continue
		}

		stats.Inserted++
		g.logger.Info("record inserted", "notification_id", rec.NotificationID)
	}

	g.logger.Info("batch stored",
		"inserted", stats.Inserted,
		"duplicates", stats.Duplicates,
		"errors", stats.Errors)

	return stats
}

// RecordCycleLog appends the report snapshot best-effort; a failure here is
// logged and never changes the report's already-finalized status.
func (g *StoreGateway) RecordCycleLog(ctx context.Context, report domain.CycleReport) {
	if err := g.repo.InsertCycleLog(ctx, report); err != nil {
		g.logger.Error("record cycle log", "cycle_id", report.ID, "error", err)
	}
}
