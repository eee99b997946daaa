package ports

import (
	"context"
	"time"

	"DjenScanner/internal/domain"
)

// NotificationSource pulls notifications from the upstream DJEN API.
type NotificationSource interface {
	// SearchAllRegistered sweeps the name query plus every registered OAB in
	// fixed order, deduplicating by identifier (first seen wins). Partial
	// results are returned alongside a non-nil error when any sub-query fails.
	SearchAllRegistered(ctx context.Context, dateFrom, dateTo string) ([]domain.RawItem, error)

	// Ping reports whether a default-range query succeeds.
	Ping(ctx context.Context) bool
}

// RecordRepository persists canonical records and cycle logs.
type RecordRepository interface {
	// Exists matches on identifier, or on content hash when one is given.
	Exists(ctx context.Context, notificationID, contentHash string) (bool, *domain.Record, error)

	// Insert stores a new record; a uniqueness conflict is reported as
	// domain.ErrDuplicateRecord.
	Insert(ctx context.Context, rec domain.Record) (*domain.Record, error)

	List(ctx context.Context, limit int, publicationDate string) ([]domain.Record, error)
	CourtStats(ctx context.Context) ([]domain.CourtCount, error)
	Totals(ctx context.Context) (domain.StoreTotals, error)

	InsertCycleLog(ctx context.Context, report domain.CycleReport) error
	RecentCycleLogs(ctx context.Context, limit int) ([]domain.CycleReport, error)

	Ping(ctx context.Context) error
}

// Notifier publishes finished cycle reports to an external channel.
type Notifier interface {
	PublishReport(ctx context.Context, report domain.CycleReport) error
}

// Scheduler controls when extraction cycles execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
