package usecase

import (
	"context"
	"errors"
	"fmt"

	"DjenScanner/internal/domain"
)

// fakeSource serves canned items or a canned failure.
type fakeSource struct {
	items   []domain.RawItem
	err     error
	pingOK  bool
	queries int
}

func (f *fakeSource) SearchAllRegistered(ctx context.Context, dateFrom, dateTo string) ([]domain.RawItem, error) {
	f.queries++
	return f.items, f.err
}

func (f *fakeSource) Ping(ctx context.Context) bool { return f.pingOK }

// fakeRepo keeps records in memory, enforcing uniqueness by identifier and
// content hash the way the real unique indexes do.
type fakeRepo struct {
	byID      map[string]domain.Record
	byHash    map[string]domain.Record
	logs      []domain.CycleReport
	existsErr error
	insertErr error
	logErr    error
	pingErr   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		byID:   map[string]domain.Record{},
		byHash: map[string]domain.Record{},
	}
}

func (f *fakeRepo) Exists(ctx context.Context, notificationID, contentHash string) (bool, *domain.Record, error) {
	if f.existsErr != nil {
		return false, nil, f.existsErr
	}
	if rec, ok := f.byID[notificationID]; ok {
		return true, &rec, nil
	}
	if contentHash != "" {
		if rec, ok := f.byHash[contentHash]; ok {
			return true, &rec, nil
		}
	}
	return false, nil, nil
}

func (f *fakeRepo) Insert(ctx context.Context, rec domain.Record) (*domain.Record, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	if _, ok := f.byID[rec.NotificationID]; ok {
		return nil, fmt.Errorf("id taken: %w", domain.ErrDuplicateRecord)
	}
	if rec.ContentHash != "" {
		if _, ok := f.byHash[rec.ContentHash]; ok {
			return nil, fmt.Errorf("hash taken: %w", domain.ErrDuplicateRecord)
		}
	}
	f.byID[rec.NotificationID] = rec
	if rec.ContentHash != "" {
		f.byHash[rec.ContentHash] = rec
	}
	return &rec, nil
}

func (f *fakeRepo) List(ctx context.Context, limit int, publicationDate string) ([]domain.Record, error) {
	out := make([]domain.Record, 0, len(f.byID))
	for _, rec := range f.byID {
		if publicationDate != "" && rec.PublicationDate != publicationDate {
			continue
		}
		out = append(out, rec)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRepo) CourtStats(ctx context.Context) ([]domain.CourtCount, error) {
	counts := map[string]int{}
	for _, rec := range f.byID {
		counts[rec.Court]++
	}
	out := make([]domain.CourtCount, 0, len(counts))
	for court, total := range counts {
		out = append(out, domain.CourtCount{Court: court, Total: total})
	}
	return out, nil
}

func (f *fakeRepo) Totals(ctx context.Context) (domain.StoreTotals, error) {
	courts := map[string]struct{}{}
	for _, rec := range f.byID {
		courts[rec.Court] = struct{}{}
	}
	return domain.StoreTotals{Notifications: len(f.byID), Courts: len(courts)}, nil
}

func (f *fakeRepo) InsertCycleLog(ctx context.Context, report domain.CycleReport) error {
	if f.logErr != nil {
		return f.logErr
	}
	f.logs = append(f.logs, report)
	return nil
}

func (f *fakeRepo) RecentCycleLogs(ctx context.Context, limit int) ([]domain.CycleReport, error) {
	if len(f.logs) == 0 {
		return nil, nil
	}
	out := make([]domain.CycleReport, 0, limit)
	for i := len(f.logs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.logs[i])
	}
	return out, nil
}

func (f *fakeRepo) Ping(ctx context.Context) error { return f.pingErr }

var errStoreDown = errors.New("store down")
