package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"DjenScanner/internal/domain"
	"DjenScanner/internal/ports"
)

// Notifier posts finished cycle reports to an automation webhook.
type Notifier struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers the webhook endpoint.
func NewNotifier(url string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Notifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// PublishReport posts the report as JSON to the configured webhook.
func (n *Notifier) PublishReport(ctx context.Context, report domain.CycleReport) error {
	if n.url == "" {
		return fmt.Errorf("webhook notifier misconfigured")
	}

	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	n.logger.Info("cycle report published", "cycle_id", report.ID)
	return nil
}
