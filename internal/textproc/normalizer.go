package textproc

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	brTagExpr    = regexp.MustCompile(`(?i)<br\s*/?>`)
	pCloseExpr   = regexp.MustCompile(`(?i)</p>`)
	pOpenExpr    = regexp.MustCompile(`(?i)<p[^>]*>`)
	divOpenExpr  = regexp.MustCompile(`(?i)<div[^>]*>`)
	divCloseExpr = regexp.MustCompile(`(?i)</div>`)
	anyTagExpr   = regexp.MustCompile(`<[^>]*>`)

	horizontalWSExpr = regexp.MustCompile(`[ \t]+`)
	leadingWSExpr    = regexp.MustCompile(`\n[ \t]+`)
	trailingWSExpr   = regexp.MustCompile(`[ \t]+\n`)
	multiNewlineExpr = regexp.MustCompile(`\n{3,}`)
)

// Normalize renders HTML-bearing notification text as clean plain text.
// It is total: every step is a pure string rewrite and the empty input
// yields the empty string. The rewrite order is load-bearing; changing it
// changes which records downstream heuristics flag.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	clean := text

	// Strip tags while preserving block structure.
	clean = brTagExpr.ReplaceAllString(clean, "\n")
	clean = pCloseExpr.ReplaceAllString(clean, "\n\n")
	clean = pOpenExpr.ReplaceAllString(clean, "")
	clean = divOpenExpr.ReplaceAllString(clean, "\n")
	clean = divCloseExpr.ReplaceAllString(clean, "")
	clean = anyTagExpr.ReplaceAllString(clean, "")

	// Decode entities; the named set is replaced again in case the generic
	// decode left any of them behind.
	clean = html.UnescapeString(clean)
	clean = strings.ReplaceAll(clean, "&nbsp;", " ")
	clean = strings.ReplaceAll(clean, "&amp;", "&")
	clean = strings.ReplaceAll(clean, "&lt;", "<")
	clean = strings.ReplaceAll(clean, "&gt;", ">")
	clean = strings.ReplaceAll(clean, "&quot;", `"`)
	clean = strings.ReplaceAll(clean, "&#39;", "'")

	clean = strings.ReplaceAll(clean, "\r\n", "\n")
	clean = strings.ReplaceAll(clean, "\r", "\n")

	clean = horizontalWSExpr.ReplaceAllString(clean, " ")
	clean = leadingWSExpr.ReplaceAllString(clean, "\n")
	clean = trailingWSExpr.ReplaceAllString(clean, "\n")

	clean = multiNewlineExpr.ReplaceAllString(clean, "\n\n")

	return strings.TrimSpace(clean)
}

// ExtractLinks collects anchor targets from the raw HTML body before it is
// flattened by Normalize. Best-effort: unparseable input yields nil.
func ExtractLinks(rawHTML string) []string {
	if rawHTML == "" || !strings.Contains(rawHTML, "<") {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}

	var links []string
	doc.Find("a[href]").Each(func(i int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok && strings.TrimSpace(href) != "" {
			links = append(links, strings.TrimSpace(href))
		}
	})

	return links
}
