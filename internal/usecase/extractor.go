package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"DjenScanner/internal/domain"
	"DjenScanner/internal/ports"
	"DjenScanner/internal/textproc"
)

// selfTestHTML exercises the normalizer during component checks.
const selfTestHTML = "<p>Teste de <b>processamento</b><br>com HTML</p>"

// Extractor drives one full extraction cycle: query, process, store, report.
type Extractor struct {
	source    ports.NotificationSource
	repo      ports.RecordRepository
	store     *StoreGateway
	processor *textproc.Processor
	logger    *slog.Logger
}

// ExtractorDeps wires all collaborators into the orchestrator.
type ExtractorDeps struct {
	Source    ports.NotificationSource
	Repo      ports.RecordRepository
	Store     *StoreGateway
	Processor *textproc.Processor
	Logger    *slog.Logger
}

// NewExtractor constructs the orchestration component.
func NewExtractor(deps ExtractorDeps) *Extractor {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Extractor{
		source:    deps.Source,
		repo:      deps.Repo,
		store:     deps.Store,
		processor: deps.Processor,
		logger:    logger,
	}
}

// RunCycle executes one fetch-process-store cycle. It always terminates in
// success or error, and the cycle log is attempted whichever terminal state
// was reached.
func (e *Extractor) RunCycle(ctx context.Context, dateFrom, dateTo string) (report domain.CycleReport) {
	started := time.Now()
	report = domain.CycleReport{
		ID:        uuid.NewString(),
		Status:    domain.ExecutionInProgress,
		StartedAt: started.UTC(),
		DateFrom:  dateFrom,
		DateTo:    dateTo,
	}

	defer func() {
		report.FinishedAt = time.Now().UTC()
		report.ElapsedSeconds = int(time.Since(started).Seconds())
		e.store.RecordCycleLog(ctx, report)
		e.logger.Info("cycle finished",
			"cycle_id", report.ID,
			"status", report.Status,
			"found", report.TotalFound,
			"new", report.TotalNew,
			"duplicates", report.TotalDuplicates,
			"errors", report.TotalErrors,
			"elapsed_seconds", report.ElapsedSeconds)
	}()

	e.logger.Info("starting extraction cycle", "cycle_id", report.ID, "date_from", dateFrom, "date_to", dateTo)

	items, err := e.source.SearchAllRegistered(ctx, dateFrom, dateTo)
	if err != nil {
		report.Status = domain.ExecutionError
		report.MainError = fmt.Sprintf("source query failed: %v", err)
		e.logger.Error("source query failed", "cycle_id", report.ID, "error", err)
		return report
	}

	report.TotalFound = len(items)
	if len(items) == 0 {
		report.Status = domain.ExecutionSuccess
		e.logger.Info("no notifications for the period", "cycle_id", report.ID)
		return report
	}

	records := make([]domain.Record, 0, len(items))
	for _, item := range items {
		rec := e.processor.Build(item)
		if !e.processor.Validate(rec) {
			report.TotalErrors++
			continue
		}
		records = append(records, rec)
	}
	e.logger.Info("processed notifications", "cycle_id", report.ID, "valid", len(records))

	stats := e.store.ProcessBatch(ctx, records)
	report.TotalNew = stats.Inserted
	report.TotalDuplicates = stats.Duplicates
	report.TotalErrors += stats.Errors
	report.ErrorDetails = append(report.ErrorDetails, stats.ErrorDetails...)

	report.Status = domain.ExecutionSuccess
	return report
}

// SelfTest runs a lightweight check of each collaborator. It never fails;
// a broken component simply reports false.
func (e *Extractor) SelfTest(ctx context.Context) map[string]bool {
	checks := map[string]bool{
		"api":     e.source.Ping(ctx),
		"storage": e.repo.Ping(ctx) == nil,
	}

	normalized := textproc.Normalize(selfTestHTML)
	checks["text_processor"] = len(normalized) > 0 && !strings.Contains(normalized, "<")

	e.logger.Info("self test finished", "api", checks["api"], "storage", checks["storage"], "text_processor", checks["text_processor"])
	return checks
}

// SystemStatus summarizes the system for the status endpoint.
type SystemStatus struct {
	Timestamp  time.Time           `json:"timestamp"`
	Components map[string]bool     `json:"components"`
	Totals     domain.StoreTotals  `json:"totals"`
	LastCycle  *domain.CycleReport `json:"last_cycle,omitempty"`
	Healthy    bool                `json:"healthy"`
}

// Status combines component checks with store statistics.
func (e *Extractor) Status(ctx context.Context) SystemStatus {
	status := SystemStatus{
		Timestamp:  time.Now().UTC(),
		Components: e.SelfTest(ctx),
	}

	totals, err := e.repo.Totals(ctx)
	if err != nil {
		e.logger.Error("store totals", "error", err)
	} else {
		status.Totals = totals
	}

	if logs, err := e.repo.RecentCycleLogs(ctx, 1); err != nil {
		e.logger.Error("recent cycle logs", "error", err)
	} else if len(logs) > 0 {
		status.LastCycle = &logs[0]
	}

	status.Healthy = true
	for _, ok := range status.Components {
		if !ok {
			status.Healthy = false
			break
		}
	}

	return status
}
