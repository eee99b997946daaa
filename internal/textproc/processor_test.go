package textproc

import (
	"encoding/json"
	"strings"
	"testing"

	"DjenScanner/internal/domain"
)

const trackedLawyer = "Eduardo Koetz"

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	return NewProcessor(trackedLawyer, nil)
}

func TestExtractMetadata(t *testing.T) {
	t.Parallel()
	p := newTestProcessor(t)

	text := "DESPACHO\n\nProcesso 1234567-89.2024.8.26.0100\n" +
		"Intimado: EDUARDO KOETZ\n" +
		"prazo de 15 (quinze) dias para manifestação\n" +
		"Prazo de 5 (cinco) dia\n" +
		"Data da assinatura eletrônica."
	md := p.ExtractMetadata(text)

	if md.DocumentType != "Despacho" {
		t.Fatalf("document type = %q, want Despacho", md.DocumentType)
	}
	if md.ProcessNumber != "1234567-89.2024.8.26.0100" {
		t.Fatalf("process number = %q", md.ProcessNumber)
	}
	if !md.HasElectronicSignature {
		t.Fatal("expected electronic signature marker")
	}
	if !md.TrackedLawyerMentioned {
		t.Fatal("expected tracked lawyer mention")
	}
	if len(md.Deadlines) != 2 {
		t.Fatalf("expected 2 deadlines, got %d", len(md.Deadlines))
	}
	if md.Deadlines[0].Quantity != 15 || md.Deadlines[0].Unit != "quinze" {
		t.Fatalf("unexpected first deadline: %+v", md.Deadlines[0])
	}
	if md.Deadlines[1].Quantity != 5 || md.Deadlines[1].Unit != "cinco" {
		t.Fatalf("unexpected second deadline: %+v", md.Deadlines[1])
	}
	if md.LineCount != 7 {
		t.Fatalf("line count = %d, want 7", md.LineCount)
	}
	if md.CharCount == 0 {
		t.Fatal("char count should be positive")
	}
}

func TestExtractMetadataDocumentTypePriority(t *testing.T) {
	t.Parallel()
	p := newTestProcessor(t)

	cases := map[string]string{
		"Publicada a SENTENÇA nos autos. Segue DESPACHO do juízo.": "Despacho",
		"ACÓRDÃO proferido após a DECISÃO monocrática":              "Decisão",
		"sentença de mérito transitada em julgado":                  "Sentença",
		"texto sem classificação alguma":                            "",
	}

	for text, want := range cases {
		if got := p.ExtractMetadata(text).DocumentType; got != want {
			t.Fatalf("document type for %q = %q, want %q", text, got, want)
		}
	}
}

func TestExtractMetadataEmptyText(t *testing.T) {
	t.Parallel()
	p := newTestProcessor(t)

	md := p.ExtractMetadata("")
	if md.LineCount != 0 || md.CharCount != 0 || md.DocumentType != "" {
		t.Fatalf("expected zero metadata for empty text, got %+v", md)
	}
}

func TestNormalizeDate(t *testing.T) {
	t.Parallel()
	p := newTestProcessor(t)

	cases := map[string]string{
		"2024-03-15T10:00:00Z": "2024-03-15",
		"2024-03-15":           "2024-03-15",
		"15/03/2024":           "2024-03-15",
		"01/12/2023 10:30":     "2023-12-01",
		"not-a-date":           "",
		"":                     "",
		"15-03-2024":           "",
	}

	for in, want := range cases {
		if got := p.NormalizeDate(in); got != want {
			t.Fatalf("NormalizeDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()
	p := newTestProcessor(t)

	raw := domain.RawItem{
		ID:                  json.Number("98765"),
		Hash:                "abc123",
		Text:                "<p>DESPACHO proferido no processo 1234567-89.2024.8.26.0100</p><p>Intime-se EDUARDO KOETZ. prazo de 10 (dez) dias.</p>",
		ProcessNumber:       "",
		ProcessNumberMasked: "1234567-89.2024.8.26.0100",
		CourtCode:           "TJSP",
		OrganName:           "1ª Vara Cível",
		CommunicationType:   "Intimação",
		AvailabilityDate:    "2024-03-15T00:00:00",
	}

	rec := p.Build(raw)

	if rec.NotificationID != "98765" {
		t.Fatalf("notification id = %q", rec.NotificationID)
	}
	if rec.ContentHash != "abc123" {
		t.Fatalf("content hash = %q", rec.ContentHash)
	}
	if rec.ProcessNumber != "1234567-89.2024.8.26.0100" {
		t.Fatalf("expected masked process number fallback, got %q", rec.ProcessNumber)
	}
	if rec.PublicationDate != "2024-03-15" {
		t.Fatalf("publication date = %q", rec.PublicationDate)
	}
	if rec.Status != domain.StatusExtracted {
		t.Fatalf("status = %q", rec.Status)
	}
	if strings.Contains(rec.Text, "<") {
		t.Fatalf("text still carries markup: %q", rec.Text)
	}
	if rec.ExtractedAt.IsZero() {
		t.Fatal("extracted_at not set")
	}

	var meta domain.RecordMetadata
	if err := json.Unmarshal(rec.Metadata, &meta); err != nil {
		t.Fatalf("metadata does not round-trip: %v", err)
	}
	if meta.Text.DocumentType != "Despacho" {
		t.Fatalf("metadata document type = %q", meta.Text.DocumentType)
	}
	if !meta.Text.TrackedLawyerMentioned {
		t.Fatal("metadata should flag tracked lawyer")
	}
	if len(meta.Text.Deadlines) != 1 || meta.Text.Deadlines[0].Quantity != 10 {
		t.Fatalf("unexpected deadlines: %+v", meta.Text.Deadlines)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	p := newTestProcessor(t)

	long := strings.Repeat("a", 50)
	short := strings.Repeat("a", 49)

	cases := []struct {
		name string
		rec  domain.Record
		want bool
	}{
		{"valid", domain.Record{NotificationID: "1", Text: long}, true},
		{"missing identifier", domain.Record{Text: long}, false},
		{"empty text", domain.Record{NotificationID: "1"}, false},
		{"text below minimum", domain.Record{NotificationID: "1", Text: short}, false},
		{"multibyte runes count once", domain.Record{NotificationID: "1", Text: strings.Repeat("ç", 50)}, true},
	}

	for _, tc := range cases {
		if got := p.Validate(tc.rec); got != tc.want {
			t.Fatalf("%s: Validate = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsSoleAttorney(t *testing.T) {
	t.Parallel()
	p := newTestProcessor(t)

	cases := []struct {
		name string
		text string
		want bool
	}{
		{
			"mentioned without listing",
			"Intimação dirigida a Eduardo Koetz nos autos do processo",
			true,
		},
		{
			"not mentioned at all",
			"ADV: JOAO DA SILVA",
			false,
		},
		{
			"sole listed attorney",
			"Autor: Fulano\nADV: EDUARDO KOETZ (OAB 42934/SC)",
			true,
		},
		{
			"second attorney listed",
			"ADV: EDUARDO KOETZ, MARIA PEREIRA\nIntime-se.",
			false,
		},
		{
			"oab reference is not an attorney",
			"ADVOGADO: EDUARDO KOETZ, OAB 42934/SC",
			true,
		},
		{
			"short fragments dropped",
			"ADV(A): EDUARDO KOETZ, Dr., 123",
			true,
		},
		{
			"connectives ignored in candidate",
			"ADV: EDUARDO DE KOETZ",
			true,
		},
	}

	for _, tc := range cases {
		if got := p.IsSoleAttorney(tc.text); got != tc.want {
			t.Fatalf("%s: IsSoleAttorney = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsSoleAttorneyWithoutTrackedName(t *testing.T) {
	t.Parallel()

	p := NewProcessor("", nil)
	if p.IsSoleAttorney("ADV: EDUARDO KOETZ") {
		t.Fatal("processor without tracked name must never report sole attorney")
	}
}
