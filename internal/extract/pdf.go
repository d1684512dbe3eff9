package extract

import (
	"regexp"
	"strings"
)

// parenTextPattern matches a PDF content-stream string-literal operand,
// i.e. the text argument of a Tj/TJ show-text operator: "(...)".
var parenTextPattern = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)\s*T[jJ]`)

// streamPattern finds each content stream, one per page in the common
// case, well enough to partition extracted text by page.
var streamPattern = regexp.MustCompile(`(?s)stream\r?\n(.*?)\r?\nendstream`)

// extractPDF is a minimal, layout-unaware PDF text scraper: it reads the
// literal-string operands of text-showing operators directly out of each
// uncompressed content stream. It has no OCR and does not decode
// FlateDecode-compressed streams, so scanned or compressed PDFs yield a
// low-confidence empty/partial page — both are reported via
// Page.OCRUsed=false and Page.Confidence so callers can tell a thin
// extraction from a real one. mode is presently unused (no layout/OCR
// backend is wired) but kept for dispatch-policy symmetry with HTML.
func extractPDF(raw []byte, mode string) (Result, error) {
	streams := streamPattern.FindAllSubmatch(raw, -1)

	var pages []Page
	for i, m := range streams {
		content := m[1]
		if looksCompressed(content) {
			pages = append(pages, Page{Page: i + 1, Confidence: 0.1})
			continue
		}
		text := extractShowTextOperands(content)
		pages = append(pages, Page{
			Page:       i + 1,
			Text:       text,
			CharCount:  len(text),
			Confidence: confidenceFor(text),
		})
	}

	if len(pages) == 0 {
		return Result{DecoderVersion: "pdf-plain-text-scrape-v1"}, nil
	}
	return Result{Pages: pages, DecoderVersion: "pdf-plain-text-scrape-v1"}, nil
}

func extractShowTextOperands(content []byte) string {
	matches := parenTextPattern.FindAllSubmatch(content, -1)
	var b strings.Builder
	for _, m := range matches {
		b.WriteString(unescapePDFString(string(m[1])))
		b.WriteString(" ")
	}
	return normalizeText(strings.TrimSpace(b.String()))
}

func unescapePDFString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case '(', ')', '\\':
				b.WriteByte(s[i])
			default:
				b.WriteByte(s[i])
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func looksCompressed(content []byte) bool {
	// Uncompressed content streams are printable PostScript-like
	// operators; a high ratio of non-printable bytes signals
	// FlateDecode (or another filter) we don't decode.
	if len(content) == 0 {
		return false
	}
	nonPrintable := 0
	sample := content
	if len(sample) > 512 {
		sample = sample[:512]
	}
	for _, b := range sample {
		if b < 9 || (b > 13 && b < 32) {
			nonPrintable++
		}
	}
	return nonPrintable*4 > len(sample)
}

func confidenceFor(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	return 0.6
}
