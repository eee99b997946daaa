package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"DjenScanner/internal/domain"
)

const apiVersion = "1.0.0"

// recordResponse is the wire shape of one stored notification.
type recordResponse struct {
	NotificationID    string          `json:"notification_id"`
	ContentHash       string          `json:"content_hash,omitempty"`
	ProcessNumber     string          `json:"process_number,omitempty"`
	Court             string          `json:"court,omitempty"`
	Organ             string          `json:"organ,omitempty"`
	CommunicationType string          `json:"communication_type,omitempty"`
	PublicationDate   string          `json:"publication_date,omitempty"`
	Text              string          `json:"text"`
	Metadata          json.RawMessage `json:"metadata,omitempty"`
	Status            string          `json:"status"`
	ExtractedAt       time.Time       `json:"extracted_at"`
}

func toRecordResponse(rec domain.Record) recordResponse {
	return recordResponse{
		NotificationID:    rec.NotificationID,
		ContentHash:       rec.ContentHash,
		ProcessNumber:     rec.ProcessNumber,
		Court:             rec.Court,
		Organ:             rec.Organ,
		CommunicationType: rec.CommunicationType,
		PublicationDate:   rec.PublicationDate,
		Text:              rec.Text,
		Metadata:          rec.Metadata,
		Status:            string(rec.Status),
		ExtractedAt:       rec.ExtractedAt,
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"version":   apiVersion,
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.extractor.Status(c.Request.Context()))
}

func (s *Server) handleSelfTest(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"components": s.extractor.SelfTest(c.Request.Context()),
		"timestamp":  time.Now().UTC(),
	})
}

// handleExtract fires one cycle in the background and returns immediately.
// The request context dies with the response, so the cycle runs detached.
func (s *Server) handleExtract(c *gin.Context) {
	go func() {
		report := s.extractor.RunCycle(context.Background(), "", "")
		s.logger.Info("manual extraction finished", "cycle_id", report.ID, "status", report.Status)
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"status":    "accepted",
		"message":   "extraction started in background",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleNotifications(c *gin.Context) {
	limit := queryInt(c, "limit", 10)
	date := c.Query("date")
	soleOnly := c.Query("sole_attorney") == "true"

	records, err := s.repo.List(c.Request.Context(), limit, date)
	if err != nil {
		s.logger.Error("list notifications", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// The sole-attorney flag is derived at query time, never persisted.
	out := make([]recordResponse, 0, len(records))
	for _, rec := range records {
		if soleOnly && !s.processor.IsSoleAttorney(rec.Text) {
			continue
		}
		out = append(out, toRecordResponse(rec))
	}

	c.JSON(http.StatusOK, out)
}

func (s *Server) handleCourtStats(c *gin.Context) {
	stats, err := s.repo.CourtStats(c.Request.Context())
	if err != nil {
		s.logger.Error("court stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if stats == nil {
		stats = []domain.CourtCount{}
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleLogs(c *gin.Context) {
	limit := queryInt(c, "limit", 10)

	logs, err := s.repo.RecentCycleLogs(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("recent cycle logs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if logs == nil {
		logs = []domain.CycleReport{}
	}
	c.JSON(http.StatusOK, logs)
}

func (s *Server) handleSchedulerStatus(c *gin.Context) {
	if s.scheduler == nil {
		c.JSON(http.StatusOK, gin.H{"status": "inactive"})
		return
	}

	next, ok := s.scheduler.NextRun()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"status": "inactive"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "active",
		"next_run":  next,
		"timestamp": time.Now().UTC(),
	})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
