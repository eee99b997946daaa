package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"DjenScanner/internal/config"
	"DjenScanner/internal/domain"
	"DjenScanner/internal/ports"
)

// uniqueViolation is the Postgres error code raised when the notification_id
// or content_hash unique index rejects an insert.
const uniqueViolation = "23505"

var recordColumns = []string{
	"notification_id",
	"content_hash",
	"process_number",
	"court",
	"organ",
	"communication_type",
	"publication_date",
	"content_text",
	"raw_payload",
	"metadata",
	"processing_status",
	"processing_error",
	"extracted_at",
}

// PostgresRepository persists notification records and cycle logs.
type PostgresRepository struct {
	db                 *sql.DB
	notificationsTable string
	cycleLogsTable     string
	timeout            time.Duration
	builder            sq.StatementBuilderType
	logger             *slog.Logger
}

var _ ports.RecordRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB, cfg config.DatabaseConfig, logger *slog.Logger) *PostgresRepository {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &PostgresRepository{
		db:                 db,
		notificationsTable: cfg.NotificationsTable,
		cycleLogsTable:     cfg.CycleLogsTable,
		timeout:            cfg.Timeout(),
		builder:            sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		logger:             logger,
	}
}

// Exists looks a record up by identifier, or by content hash when one is
// given, returning the first match.
func (r *PostgresRepository) Exists(ctx context.Context, notificationID, contentHash string) (bool, *domain.Record, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	match := sq.Or{sq.Eq{"notification_id": notificationID}}
	if contentHash != "" {
		match = append(match, sq.Eq{"content_hash": contentHash})
	}

	query, args, err := r.builder.
		Select(recordColumns...).
		From(r.notificationsTable).
		Where(match).
		Limit(1).
		ToSql()
	if err != nil {
		return false, nil, fmt.Errorf("build exists query: %w", err)
	}

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, fmt.Errorf("query existing record: %w", err)
	}

	return true, rec, nil
}

// Insert stores a new record. A uniqueness conflict surfaces as
// domain.ErrDuplicateRecord so the batch processor can count it.
func (r *PostgresRepository) Insert(ctx context.Context, rec domain.Record) (*domain.Record, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query, args, err := r.builder.
		Insert(r.notificationsTable).
		Columns(recordColumns...).
		Values(
			rec.NotificationID,
			nullIfEmpty(rec.ContentHash),
			nullIfEmpty(rec.ProcessNumber),
			nullIfEmpty(rec.Court),
			nullIfEmpty(rec.Organ),
			nullIfEmpty(rec.CommunicationType),
			nullIfEmpty(rec.PublicationDate),
			rec.Text,
			rec.RawPayload,
			rec.Metadata,
			string(rec.Status),
			nullIfEmpty(rec.ProcessingError),
			rec.ExtractedAt,
		).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return nil, fmt.Errorf("insert %s: %w", rec.NotificationID, domain.ErrDuplicateRecord)
		}
		return nil, fmt.Errorf("insert %s: %w", rec.NotificationID, err)
	}

	return &rec, nil
}

// List returns recent records, optionally filtered by publication date.
func (r *PostgresRepository) List(ctx context.Context, limit int, publicationDate string) ([]domain.Record, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	builder := r.builder.
		Select(recordColumns...).
		From(r.notificationsTable).
		OrderBy("extracted_at DESC").
		Limit(uint64(limit))

	if publicationDate != "" {
		builder = builder.Where(sq.Eq{"publication_date": publicationDate})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return records, nil
}

// CourtStats aggregates stored notifications per court, busiest first.
func (r *PostgresRepository) CourtStats(ctx context.Context) ([]domain.CourtCount, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query, args, err := r.builder.
		Select("COALESCE(court, 'N/A') AS court", "COUNT(*) AS total").
		From(r.notificationsTable).
		GroupBy("court").
		OrderBy("total DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build court stats query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("court stats: %w", err)
	}
	defer rows.Close()

	var stats []domain.CourtCount
	for rows.Next() {
		var count domain.CourtCount
		if err := rows.Scan(&count.Court, &count.Total); err != nil {
			return nil, fmt.Errorf("scan court count: %w", err)
		}
		stats = append(stats, count)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return stats, nil
}

// Totals reports overall record and distinct-court counts.
func (r *PostgresRepository) Totals(ctx context.Context) (domain.StoreTotals, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query, args, err := r.builder.
		Select("COUNT(*)", "COUNT(DISTINCT court)").
		From(r.notificationsTable).
		ToSql()
	if err != nil {
		return domain.StoreTotals{}, fmt.Errorf("build totals query: %w", err)
	}

	var totals domain.StoreTotals
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&totals.Notifications, &totals.Courts); err != nil {
		return domain.StoreTotals{}, fmt.Errorf("totals: %w", err)
	}

	return totals, nil
}

// InsertCycleLog appends one cycle report snapshot.
func (r *PostgresRepository) InsertCycleLog(ctx context.Context, report domain.CycleReport) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	details, err := json.Marshal(report.ErrorDetails)
	if err != nil {
		return fmt.Errorf("marshal error details: %w", err)
	}

	query, args, err := r.builder.
		Insert(r.cycleLogsTable).
		Columns(
			"id", "status", "started_at", "finished_at",
			"total_found", "total_new", "total_duplicates", "total_errors",
			"elapsed_seconds", "date_from", "date_to", "error_details", "main_error",
		).
		Values(
			report.ID,
			string(report.Status),
			report.StartedAt,
			report.FinishedAt,
			report.TotalFound,
			report.TotalNew,
			report.TotalDuplicates,
			report.TotalErrors,
			report.ElapsedSeconds,
			nullIfEmpty(report.DateFrom),
			nullIfEmpty(report.DateTo),
			details,
			nullIfEmpty(report.MainError),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build cycle log insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert cycle log: %w", err)
	}

	return nil
}

// RecentCycleLogs returns the latest cycle reports, newest first.
func (r *PostgresRepository) RecentCycleLogs(ctx context.Context, limit int) ([]domain.CycleReport, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query, args, err := r.builder.
		Select(
			"id", "status", "started_at", "finished_at",
			"total_found", "total_new", "total_duplicates", "total_errors",
			"elapsed_seconds", "date_from", "date_to", "error_details", "main_error",
		).
		From(r.cycleLogsTable).
		OrderBy("started_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build cycle log query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cycle logs: %w", err)
	}
	defer rows.Close()

	var reports []domain.CycleReport
	for rows.Next() {
		var (
			report   domain.CycleReport
			status   string
			dateFrom sql.NullString
			dateTo   sql.NullString
			mainErr  sql.NullString
			details  []byte
		)
		if err := rows.Scan(
			&report.ID, &status, &report.StartedAt, &report.FinishedAt,
			&report.TotalFound, &report.TotalNew, &report.TotalDuplicates, &report.TotalErrors,
			&report.ElapsedSeconds, &dateFrom, &dateTo, &details, &mainErr,
		); err != nil {
			return nil, fmt.Errorf("scan cycle log: %w", err)
		}

		report.Status = domain.ExecutionStatus(status)
		report.DateFrom = dateFrom.String
		report.DateTo = dateTo.String
		report.MainError = mainErr.String
		if len(details) > 0 {
			if err := json.Unmarshal(details, &report.ErrorDetails); err != nil {
				r.logger.Warn("undecodable error details in cycle log", "id", report.ID, "error", err)
			}
		}

		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return reports, nil
}

// Ping verifies the database connection.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	return r.db.PingContext(ctx)
}

func (r *PostgresRepository) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.Record, error) {
	var (
		rec           domain.Record
		contentHash   sql.NullString
		processNumber sql.NullString
		court         sql.NullString
		organ         sql.NullString
		commType      sql.NullString
		pubDate       sql.NullString
		procError     sql.NullString
		status        string
	)

	if err := row.Scan(
		&rec.NotificationID,
		&contentHash,
		&processNumber,
		&court,
		&organ,
		&commType,
		&pubDate,
		&rec.Text,
		&rec.RawPayload,
		&rec.Metadata,
		&status,
		&procError,
		&rec.ExtractedAt,
	); err != nil {
		return nil, err
	}

	rec.ContentHash = contentHash.String
	rec.ProcessNumber = processNumber.String
	rec.Court = court.String
	rec.Organ = organ.String
	rec.CommunicationType = commType.String
	rec.PublicationDate = pubDate.String
	rec.ProcessingError = procError.String
	rec.Status = domain.ProcessingStatus(status)

	return &rec, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
