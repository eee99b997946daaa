package domain

import (
	"encoding/json"
	"time"
)

// RawItem is one notification as returned by the DJEN communications API.
// Field tags follow the upstream payload; Payload keeps the item verbatim.
type RawItem struct {
	ID                  json.Number     `json:"id"`
	Hash                string          `json:"hash"`
	Text                string          `json:"texto"`
	ProcessNumber       string          `json:"numero_processo"`
	ProcessNumberMasked string          `json:"numeroprocessocommascara"`
	CourtCode           string          `json:"siglaTribunal"`
	OrganName           string          `json:"nomeOrgao"`
	CommunicationType   string          `json:"tipoComunicacao"`
	DocumentType        string          `json:"tipoDocumento"`
	AvailabilityDate    string          `json:"data_disponibilizacao"`
	CommunicationNumber json.Number     `json:"numeroComunicacao"`
	ClassName           string          `json:"nomeClasse"`
	ClassCode           json.Number     `json:"codigoClasse"`
	Link                string          `json:"link"`
	FullMedium          string          `json:"meiocompleto"`
	Status              string          `json:"status"`
	Active              bool            `json:"ativo"`
	Recipients          json.RawMessage `json:"destinatarios"`
	RecipientLawyers    json.RawMessage `json:"destinatarioadvogados"`

	Payload json.RawMessage `json:"-"`
}

// Deadline is one "prazo de N (unit) dias" mention found in a notification.
type Deadline struct {
	Quantity int    `json:"quantity"`
	Unit     string `json:"unit"`
}

// TextMetadata holds heuristic signals extracted from the cleaned text.
// Every field is advisory; absence is never an error.
type TextMetadata struct {
	ProcessNumber          string     `json:"process_number,omitempty"`
	DocumentType           string     `json:"document_type,omitempty"`
	HasElectronicSignature bool       `json:"has_electronic_signature,omitempty"`
	Deadlines              []Deadline `json:"deadlines,omitempty"`
	TrackedLawyerMentioned bool       `json:"tracked_lawyer_mentioned,omitempty"`
	Links                  []string   `json:"links,omitempty"`
	LineCount              int        `json:"line_count"`
	CharCount              int        `json:"char_count"`
}

// RecordMetadata is the structured blob persisted alongside each record,
// carrying the upstream secondary attributes plus the text heuristics.
type RecordMetadata struct {
	CommunicationNumber json.Number     `json:"communication_number,omitempty"`
	ClassName           string          `json:"class_name,omitempty"`
	ClassCode           json.Number     `json:"class_code,omitempty"`
	Link                string          `json:"link,omitempty"`
	FullMedium          string          `json:"full_medium,omitempty"`
	Status              string          `json:"status,omitempty"`
	Active              bool            `json:"active"`
	Recipients          json.RawMessage `json:"recipients,omitempty"`
	RecipientLawyers    json.RawMessage `json:"recipient_lawyers,omitempty"`
	Text                TextMetadata    `json:"text_metadata"`
}

// ProcessingStatus tags how far a record made it through the pipeline.
type ProcessingStatus string

const (
	StatusExtracted       ProcessingStatus = "extracted"
	StatusProcessingError ProcessingStatus = "processing_error"
)

// Record is the canonical persisted shape of one notification.
type Record struct {
	NotificationID    string
	ContentHash       string
	ProcessNumber     string
	Court             string
	Organ             string
	CommunicationType string
	PublicationDate   string // YYYY-MM-DD, empty when unparseable
	Text              string
	RawPayload        []byte
	Metadata          []byte
	Status            ProcessingStatus
	ProcessingError   string
	ExtractedAt       time.Time
}

// ExecutionStatus enumerates terminal and transient cycle states.
type ExecutionStatus string

const (
	ExecutionInProgress ExecutionStatus = "in_progress"
	ExecutionSuccess    ExecutionStatus = "success"
	ExecutionError      ExecutionStatus = "error"
)

// CycleReport is the outcome of one fetch-process-store run.
type CycleReport struct {
	ID              string          `json:"id"`
	Status          ExecutionStatus `json:"status"`
	StartedAt       time.Time       `json:"started_at"`
	FinishedAt      time.Time       `json:"finished_at,omitzero"`
	TotalFound      int             `json:"total_found"`
	TotalNew        int             `json:"total_new"`
	TotalDuplicates int             `json:"total_duplicates"`
	TotalErrors     int             `json:"total_errors"`
	ElapsedSeconds  int             `json:"elapsed_seconds"`
	DateFrom        string          `json:"date_from,omitempty"`
	DateTo          string          `json:"date_to,omitempty"`
	ErrorDetails    []string        `json:"error_details,omitempty"`
	MainError       string          `json:"main_error,omitempty"`
}

// BatchStats summarizes one store pass over a list of built records.
type BatchStats struct {
	Total        int      `json:"total"`
	Inserted     int      `json:"inserted"`
	Duplicates   int      `json:"duplicates"`
	Errors       int      `json:"errors"`
	ErrorDetails []string `json:"error_details,omitempty"`
}

// CourtCount is one row of the per-court aggregate.
type CourtCount struct {
	Court string `json:"court"`
	Total int    `json:"total"`
}

// StoreTotals summarizes the backing store for the status endpoint.
type StoreTotals struct {
	Notifications int `json:"notifications"`
	Courts        int `json:"courts"`
}
