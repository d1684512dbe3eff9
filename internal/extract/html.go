package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractHTML converts HTML into flat text. In "preserve" mode (the
// default) ATX-style heading markers, link targets, and table cell
// boundaries are kept so the downstream chunker's heading/hierarchical
// strategies and symbol-free text search still have something to key on;
// "plain" mode strips everything down to bare text per §4.D's plain
// mode for generic documents.
func extractHTML(raw []byte, mode string) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(raw)))
	if err != nil {
		return Result{}, err
	}

	doc.Find("script, style, noscript").Remove()

	if mode == "plain" {
		text := normalizeText(collapseBlankLines(doc.Text()))
		return Result{Text: text, DecoderVersion: "goquery-plain-v1"}, nil
	}

	var b strings.Builder
	doc.Find("body").Each(func(_ int, body *goquery.Selection) {
		walkHTML(body, &b)
	})
	if b.Len() == 0 {
		walkHTML(doc.Selection, &b)
	}
	return Result{Text: normalizeText(collapseBlankLines(b.String())), DecoderVersion: "goquery-preserve-v1"}, nil
}

func walkHTML(s *goquery.Selection, b *strings.Builder) {
	s.Contents().Each(func(_ int, node *goquery.Selection) {
		if goquery.NodeName(node) == "#text" {
			if t := strings.TrimSpace(node.Text()); t != "" {
				b.WriteString(t)
				b.WriteString(" ")
			}
			return
		}
		switch goquery.NodeName(node) {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			level := int(node.Get(0).Data[1] - '0')
			b.WriteString("\n" + strings.Repeat("#", level) + " " + strings.TrimSpace(node.Text()) + "\n")
		case "a":
			href, _ := node.Attr("href")
			text := strings.TrimSpace(node.Text())
			if href != "" && text != "" {
				b.WriteString(text + " (" + href + ") ")
			} else {
				walkHTML(node, b)
			}
		case "tr":
			var cells []string
			node.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(cell.Text()))
			})
			b.WriteString(strings.Join(cells, "\t") + "\n")
		case "br":
			b.WriteString("\n")
		case "p", "div", "li", "table":
			walkHTML(node, b)
			b.WriteString("\n")
		default:
			walkHTML(node, b)
		}
	})
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := false
	for _, l := range lines {
		trimmed := strings.TrimSpace(l)
		if trimmed == "" {
			if blank {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n")
}
