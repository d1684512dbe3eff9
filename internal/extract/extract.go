// Package extract implements the extractor dispatch (spec.md §4.D):
// decoding a raw fetched artifact into either a flat text document or a
// page-partitioned record stream, by content type or an explicit format
// hint. Dispatch policy and decoder choice are configuration surfaces;
// this package only records which decoder ran, in which mode, so the
// build orchestrator can write it into the phase manifest.
package extract

import (
	"strings"
)

// Format is the decoder selected for a raw artifact.
type Format string

const (
	FormatPlainText Format = "plain"
	FormatMarkdown  Format = "markdown"
	FormatHTML      Format = "html"
	FormatPDF       Format = "pdf"
	FormatJSON      Format = "json"
	FormatCSV       Format = "csv"
)

// Page is one page of a paginated extraction (§4.D page-partitioned stream).
type Page struct {
	Page        int     `json:"page"`
	Text        string  `json:"text"`
	CharCount   int     `json:"char_count"`
	OCRUsed     bool    `json:"ocr_used"`
	Confidence  float64 `json:"confidence,omitempty"`
}

// Result is the decoded artifact: Text for flat documents, Pages for
// paginated ones (PDFs). Exactly one of Text/Pages is populated.
type Result struct {
	Text           string
	Pages          []Page
	DecoderVersion string
}

// DetectFormat maps a content type (and optional explicit hint, which
// always wins) to a Format.
func DetectFormat(contentType, hint string) Format {
	if f := formatFromHint(hint); f != "" {
		return f
	}
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	switch {
	case ct == "application/pdf":
		return FormatPDF
	case ct == "text/html" || ct == "application/xhtml+xml":
		return FormatHTML
	case ct == "text/markdown" || strings.HasSuffix(ct, "+markdown"):
		return FormatMarkdown
	case ct == "application/json":
		return FormatJSON
	case ct == "text/csv":
		return FormatCSV
	default:
		return FormatPlainText
	}
}

func formatFromHint(hint string) Format {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case "markdown", "md":
		return FormatMarkdown
	case "html", "htm":
		return FormatHTML
	case "pdf":
		return FormatPDF
	case "json":
		return FormatJSON
	case "csv":
		return FormatCSV
	case "txt", "text", "plain":
		return FormatPlainText
	default:
		return ""
	}
}

// Extract decodes raw bytes per format, in the named mode ("plain",
// "layout", "ocr" for PDF; "plain", "preserve" for HTML; ignored
// elsewhere). mode == "" selects each decoder's default.
func Extract(raw []byte, format Format, mode string) (Result, error) {
	switch format {
	case FormatHTML:
		return extractHTML(raw, mode)
	case FormatPDF:
		return extractPDF(raw, mode)
	case FormatJSON:
		return extractJSON(raw)
	case FormatCSV:
		return extractCSV(raw)
	case FormatMarkdown:
		return Result{Text: normalizeText(string(raw)), DecoderVersion: "markdown-passthrough-v1"}, nil
	default:
		return Result{Text: normalizeText(string(raw)), DecoderVersion: "plaintext-v1"}, nil
	}
}

// normalizeText canonicalizes line endings, matching the §4.E chunker's
// assumption of \n-delimited text.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}
