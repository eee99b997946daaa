package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"DjenScanner/internal/domain"
	"DjenScanner/internal/textproc"
)

func rawItems(n int) []domain.RawItem {
	items := make([]domain.RawItem, 0, n)
	for i := 1; i <= n; i++ {
		items = append(items, domain.RawItem{
			ID:               json.Number(fmt.Sprint(i)),
			Hash:             fmt.Sprintf("hash-%d", i),
			Text:             fmt.Sprintf("<p>Intimação %d dirigida a Eduardo Koetz no processo, %s</p>", i, strings.Repeat("detalhes ", 10)),
			CourtCode:        "TJSC",
			AvailabilityDate: "2024-03-15T00:00:00",
		})
	}
	return items
}

func newTestExtractor(source *fakeSource, repo *fakeRepo) *Extractor {
	return NewExtractor(ExtractorDeps{
		Source:    source,
		Repo:      repo,
		Store:     NewStoreGateway(repo, nil),
		Processor: textproc.NewProcessor("Eduardo Koetz", nil),
	})
}

func TestRunCycleStoresNewNotifications(t *testing.T) {
	t.Parallel()

	source := &fakeSource{items: rawItems(3)}
	repo := newFakeRepo()
	extractor := newTestExtractor(source, repo)

	report := extractor.RunCycle(context.Background(), "2024-03-15", "2024-03-15")

	if report.Status != domain.ExecutionSuccess {
		t.Fatalf("status = %q, main error %q", report.Status, report.MainError)
	}
	if report.TotalFound != 3 || report.TotalNew != 3 || report.TotalDuplicates != 0 || report.TotalErrors != 0 {
		t.Fatalf("unexpected counters: %+v", report)
	}
	if report.ID == "" {
		t.Fatal("cycle id not assigned")
	}
	if report.FinishedAt.IsZero() {
		t.Fatal("finished_at not set")
	}
	if report.DateFrom != "2024-03-15" || report.DateTo != "2024-03-15" {
		t.Fatalf("date range not carried: %+v", report)
	}

	if len(repo.logs) != 1 {
		t.Fatalf("expected 1 cycle log, got %d", len(repo.logs))
	}
	if repo.logs[0].ID != report.ID || repo.logs[0].Status != domain.ExecutionSuccess {
		t.Fatalf("cycle log does not match report: %+v", repo.logs[0])
	}
}

func TestRunCycleRerunIsAllDuplicates(t *testing.T) {
	t.Parallel()

	source := &fakeSource{items: rawItems(3)}
	repo := newFakeRepo()
	extractor := newTestExtractor(source, repo)

	extractor.RunCycle(context.Background(), "", "")
	report := extractor.RunCycle(context.Background(), "", "")

	if report.Status != domain.ExecutionSuccess {
		t.Fatalf("status = %q", report.Status)
	}
	if report.TotalNew != 0 || report.TotalDuplicates != 3 {
		t.Fatalf("rerun must converge to duplicates: %+v", report)
	}
	if len(repo.byID) != 3 {
		t.Fatalf("store grew on rerun: %d records", len(repo.byID))
	}
}

func TestRunCycleSourceFailure(t *testing.T) {
	t.Parallel()

	source := &fakeSource{err: errors.New("upstream timeout")}
	repo := newFakeRepo()
	extractor := newTestExtractor(source, repo)

	report := extractor.RunCycle(context.Background(), "", "")

	if report.Status != domain.ExecutionError {
		t.Fatalf("status = %q, want error", report.Status)
	}
	if !strings.Contains(report.MainError, "upstream timeout") {
		t.Fatalf("main error = %q", report.MainError)
	}
	// The cycle log is written even on the failure path.
	if len(repo.logs) != 1 || repo.logs[0].Status != domain.ExecutionError {
		t.Fatalf("failure cycle not logged: %+v", repo.logs)
	}
}

func TestRunCycleEmptyPeriod(t *testing.T) {
	t.Parallel()

	source := &fakeSource{}
	repo := newFakeRepo()
	extractor := newTestExtractor(source, repo)

	report := extractor.RunCycle(context.Background(), "", "")

	if report.Status != domain.ExecutionSuccess || report.TotalFound != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(repo.logs) != 1 {
		t.Fatal("empty cycles are still logged")
	}
}

func TestRunCycleCountsInvalidItems(t *testing.T) {
	t.Parallel()

	items := rawItems(2)
	items = append(items, domain.RawItem{ID: json.Number("99"), Text: "curto"})
	source := &fakeSource{items: items}
	repo := newFakeRepo()
	extractor := newTestExtractor(source, repo)

	report := extractor.RunCycle(context.Background(), "", "")

	if report.TotalFound != 3 || report.TotalNew != 2 {
		t.Fatalf("unexpected counters: %+v", report)
	}
	if report.TotalErrors != 1 {
		t.Fatalf("invalid item not counted: %+v", report)
	}
	if report.Status != domain.ExecutionSuccess {
		t.Fatalf("validation failures must not fail the cycle: %q", report.Status)
	}
}

func TestSelfTest(t *testing.T) {
	t.Parallel()

	source := &fakeSource{pingOK: true}
	repo := newFakeRepo()
	extractor := newTestExtractor(source, repo)

	checks := extractor.SelfTest(context.Background())

	for _, component := range []string{"api", "storage", "text_processor"} {
		if !checks[component] {
			t.Fatalf("component %s should pass, got %v", component, checks)
		}
	}

	repo.pingErr = errStoreDown
	checks = extractor.SelfTest(context.Background())
	if checks["storage"] {
		t.Fatal("storage check should fail when ping fails")
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()

	source := &fakeSource{items: rawItems(2), pingOK: true}
	repo := newFakeRepo()
	extractor := newTestExtractor(source, repo)

	extractor.RunCycle(context.Background(), "", "")
	status := extractor.Status(context.Background())

	if !status.Healthy {
		t.Fatalf("expected healthy status: %+v", status.Components)
	}
	if status.Totals.Notifications != 2 {
		t.Fatalf("totals = %+v", status.Totals)
	}
	if status.LastCycle == nil || status.LastCycle.Status != domain.ExecutionSuccess {
		t.Fatalf("last cycle missing: %+v", status.LastCycle)
	}

	source.pingOK = false
	if extractor.Status(context.Background()).Healthy {
		t.Fatal("unhealthy api must flip the aggregate flag")
	}
}
