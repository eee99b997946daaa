package textproc

import (
	"strings"
	"testing"
)

func TestNormalizeStripsHTML(t *testing.T) {
	t.Parallel()

	in := "<p>Intima\u00e7\u00e3o do processo <b>1234567-89.2024.8.26.0100</b></p><div>prazo de 15 (quinze) dias</div>"
	got := Normalize(in)

	want := "Intima\u00e7\u00e3o do processo 1234567-89.2024.8.26.0100\n\nprazo de 15 (quinze) dias"
	if got != want {
		t.Fatalf("unexpected output:\n got: %q\nwant: %q", got, want)
	}
}

func TestNormalizeBreaksAndWhitespace(t *testing.T) {
	t.Parallel()

	in := "linha um<br/>linha   dois\r\n\r\n\r\n\r\nlinha tr\u00eas  \n  linha quatro"
	got := Normalize(in)

	want := "linha um\nlinha dois\n\nlinha tr\u00eas\nlinha quatro"
	if got != want {
		t.Fatalf("unexpected output:\n got: %q\nwant: %q", got, want)
	}
}

func TestNormalizeDecodesEntities(t *testing.T) {
	t.Parallel()

	got := Normalize("Tribunal &amp; Vara &lt;especial&gt; &quot;urgente&quot; &#39;ok&#39;")
	want := `Tribunal & Vara <especial> "urgente" 'ok'`
	if got != want {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	samples := []string{
		"",
		"texto simples sem marca\u00e7\u00e3o",
		"<p>Primeiro</p><p>Segundo</p><br><div>Terceiro</div>",
		"espa\u00e7os    m\u00faltiplos\t e\ttabs",
		"quebras\r\nmistas\rde linha\n\n\n\nfinal",
	}

	for _, sample := range samples {
		once := Normalize(sample)
		twice := Normalize(once)
		if once != twice {
			t.Fatalf("not idempotent for %q:\n once: %q\ntwice: %q", sample, once, twice)
		}
	}
}

func TestNormalizeTotality(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":                   "",
		"   \t\n  ":          "",
		"<p><div>sem fechar": "sem fechar",
		"a < b e c > d":      "a d", // unbalanced brackets swallow the span between them
		"<<<>>>":             ">>",
	}

	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractLinks(t *testing.T) {
	t.Parallel()

	html := `<p>Documento em <a href="https://pje.jus.br/doc/1">anexo</a> e <a href="https://pje.jus.br/doc/2">outro</a></p>`
	links := ExtractLinks(html)

	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %d", len(links))
	}
	if links[0] != "https://pje.jus.br/doc/1" || links[1] != "https://pje.jus.br/doc/2" {
		t.Fatalf("unexpected links: %v", links)
	}

	if got := ExtractLinks("texto sem marca\u00e7\u00e3o"); got != nil {
		t.Fatalf("expected nil for plain text, got %v", got)
	}

	if got := ExtractLinks(strings.Repeat("x", 10)); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
