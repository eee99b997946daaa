package textproc

import (
	"encoding/json"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"DjenScanner/internal/domain"
)

// minTextLength is the smallest cleaned text accepted by Validate.
const minTextLength = 50

var (
	processNumberExpr = regexp.MustCompile(`\d{7}-\d{2}\.\d{4}\.\d{1}\.\d{2}\.\d{4}`)
	signatureExpr     = regexp.MustCompile(`(?i)data da assinatura eletrônica\.?`)
	deadlineExpr      = regexp.MustCompile(`(?i)prazo de (\d+) \(([^)]+)\) dias?`)

	isoDateExpr       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	brazilianDateExpr = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})`)

	// ADV: A, B or ADVOGADO(A): A captures the comma-separated listing up to
	// the end of its line.
	attorneyListExpr  = regexp.MustCompile(`ADV(?:OGAD[OA]?)?\s*(?:\([^)]*\))?\s*:\s*([^\n]+)`)
	parentheticalExpr = regexp.MustCompile(`\([^)]*\)`)
	oabReferenceExpr  = regexp.MustCompile(`OAB\s*[^\s,]+`)
)

// documentTypePatterns is ordered by priority; the first match wins.
var documentTypePatterns = []struct {
	expr  *regexp.Regexp
	label string
}{
	{regexp.MustCompile(`(?i)\bDESPACHO\b`), "Despacho"},
	{regexp.MustCompile(`(?i)\bSENTENÇA\b`), "Sentença"},
	{regexp.MustCompile(`(?i)\bDECISÃO\b`), "Decisão"},
	{regexp.MustCompile(`(?i)\bACÓRDÃO\b`), "Acórdão"},
}

// connectives are dropped from attorney-name candidates before counting
// remaining tokens.
var connectives = map[string]bool{
	"E": true, "DA": true, "DE": true, "DO": true, "DOS": true, "DAS": true,
}

// Processor builds canonical records out of raw notifications and runs the
// text heuristics tied to the tracked lawyer.
type Processor struct {
	trackedName  string
	trackedUpper string
	trackedParts []string
	logger       *slog.Logger
}

// NewProcessor wires the tracked lawyer's name into the heuristics.
func NewProcessor(trackedName string, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	upper := strings.ToUpper(strings.TrimSpace(trackedName))
	return &Processor{
		trackedName:  trackedName,
		trackedUpper: upper,
		trackedParts: strings.Fields(upper),
		logger:       logger,
	}
}

// ExtractMetadata scans cleaned text for advisory signals. It never fails;
// signals that do not match are simply absent.
func (p *Processor) ExtractMetadata(text string) domain.TextMetadata {
	md := domain.TextMetadata{}
	if text == "" {
		return md
	}

	for _, pattern := range documentTypePatterns {
		if pattern.expr.MatchString(text) {
			md.DocumentType = pattern.label
			break
		}
	}

	md.ProcessNumber = processNumberExpr.FindString(text)
	md.HasElectronicSignature = signatureExpr.MatchString(text)

	for _, m := range deadlineExpr.FindAllStringSubmatch(text, -1) {
		quantity, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		md.Deadlines = append(md.Deadlines, domain.Deadline{Quantity: quantity, Unit: m[2]})
	}

	if p.trackedUpper != "" {
		md.TrackedLawyerMentioned = strings.Contains(strings.ToUpper(text), p.trackedUpper)
	}

	md.LineCount = len(strings.Split(text, "\n"))
	md.CharCount = utf8.RuneCountInString(text)

	return md
}

// NormalizeDate reduces an upstream date string to YYYY-MM-DD. Anything that
// is neither ISO-shaped nor DD/MM/YYYY yields the empty string.
func (p *Processor) NormalizeDate(value string) string {
	if value == "" {
		return ""
	}

	if isoDateExpr.MatchString(value) {
		return strings.SplitN(value, "T", 2)[0]
	}

	if m := brazilianDateExpr.FindStringSubmatch(value); m != nil {
		return m[3] + "-" + m[2] + "-" + m[1]
	}

	p.logger.Debug("unrecognized date format", "value", value)
	return ""
}

// Build turns one raw notification into the canonical record shape. It never
// fails: when the metadata blob cannot be assembled, a minimal record tagged
// processing_error is returned and left for Validate to judge.
func (p *Processor) Build(raw domain.RawItem) domain.Record {
	cleanText := Normalize(raw.Text)

	textMD := p.ExtractMetadata(cleanText)
	textMD.Links = ExtractLinks(raw.Text)

	meta := domain.RecordMetadata{
		CommunicationNumber: raw.CommunicationNumber,
		ClassName:           raw.ClassName,
		ClassCode:           raw.ClassCode,
		Link:                raw.Link,
		FullMedium:          raw.FullMedium,
		Status:              raw.Status,
		Active:              raw.Active,
		Recipients:          raw.Recipients,
		RecipientLawyers:    raw.RecipientLawyers,
		Text:                textMD,
	}

	processNumber := raw.ProcessNumber
	if processNumber == "" {
		processNumber = raw.ProcessNumberMasked
	}

	rec := domain.Record{
		NotificationID:    raw.ID.String(),
		ContentHash:       raw.Hash,
		ProcessNumber:     processNumber,
		Court:             raw.CourtCode,
		Organ:             raw.OrganName,
		CommunicationType: raw.CommunicationType,
		PublicationDate:   p.NormalizeDate(raw.AvailabilityDate),
		Text:              cleanText,
		RawPayload:        rawPayload(raw),
		Status:            domain.StatusExtracted,
		ExtractedAt:       time.Now().UTC(),
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		p.logger.Error("build record", "notification_id", rec.NotificationID, "error", err)
		return domain.Record{
			NotificationID:  rec.NotificationID,
			ContentHash:     rec.ContentHash,
			Text:            raw.Text,
			RawPayload:      rec.RawPayload,
			Status:          domain.StatusProcessingError,
			ProcessingError: err.Error(),
			ExtractedAt:     rec.ExtractedAt,
		}
	}
	rec.Metadata = metaJSON

	return rec
}

// Validate gates records before storage: identifier present, text present,
// text at least minTextLength runes.
func (p *Processor) Validate(rec domain.Record) bool {
	if rec.NotificationID == "" {
		p.logger.Warn("record without identifier rejected")
		return false
	}

	if rec.Text == "" {
		p.logger.Warn("record without text rejected", "notification_id", rec.NotificationID)
		return false
	}

	if utf8.RuneCountInString(rec.Text) < minTextLength {
		p.logger.Warn("record text below minimum length", "notification_id", rec.NotificationID)
		return false
	}

	return true
}

// IsSoleAttorney reports whether the tracked lawyer appears to be the only
// attorney listed in a notification. With no ADV listing at all the tracked
// lawyer is conservatively assumed sole.
func (p *Processor) IsSoleAttorney(text string) bool {
	if p.trackedUpper == "" {
		return false
	}

	upper := strings.ToUpper(text)
	if !strings.Contains(upper, p.trackedUpper) {
		return false
	}

	m := attorneyListExpr.FindStringSubmatch(upper)
	if m == nil {
		return true
	}

	var candidates []string
	for _, part := range strings.Split(m[1], ",") {
		name := strings.TrimSpace(parentheticalExpr.ReplaceAllString(part, ""))
		name = strings.TrimSpace(oabReferenceExpr.ReplaceAllString(name, ""))

		if utf8.RuneCountInString(name) <= 5 {
			continue
		}

		var kept []string
		for _, word := range strings.Fields(name) {
			if !connectives[word] {
				kept = append(kept, word)
			}
		}
		if len(kept) >= 2 {
			candidates = append(candidates, strings.Join(kept, " "))
		}
	}

	for _, name := range candidates {
		if !p.isTrackedName(name) {
			p.logger.Debug("other attorney listed", "name", name)
			return false
		}
	}

	return true
}

func (p *Processor) isTrackedName(candidate string) bool {
	for _, part := range p.trackedParts {
		if !strings.Contains(candidate, part) {
			return false
		}
	}
	return len(p.trackedParts) > 0
}

func rawPayload(raw domain.RawItem) []byte {
	if len(raw.Payload) > 0 {
		return raw.Payload
	}
	payload, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	return payload
}
