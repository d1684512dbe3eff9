package extract

import (
	"encoding/csv"
	"encoding/json"
	"sort"
	"strings"
)

// extractJSON flattens a JSON document's string/number/bool leaves into
// newline-delimited text (array elements in document order, object members
// in sorted key order, so the output is deterministic), so keyword and semantic
// search have real token content instead of punctuation-heavy raw JSON.
func extractJSON(raw []byte) (Result, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return Result{Text: normalizeText(string(raw)), DecoderVersion: "json-raw-fallback-v1"}, nil
	}
	var b strings.Builder
	flattenJSON(v, &b)
	return Result{Text: normalizeText(strings.TrimSpace(b.String())), DecoderVersion: "json-flatten-v1"}, nil
}

func flattenJSON(v any, b *strings.Builder) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flattenJSON(t[k], b)
		}
	case []any:
		for _, val := range t {
			flattenJSON(val, b)
		}
	case string:
		if strings.TrimSpace(t) != "" {
			b.WriteString(t)
			b.WriteString("\n")
		}
	case nil:
	default:
		b.WriteString(jsonScalarString(t))
		b.WriteString("\n")
	}
}

func jsonScalarString(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// extractCSV renders rows as tab-joined lines, first row treated as a
// header the same way as the body (CSV has no reliable schema signal
// here; callers needing structured fields should configure a format hint).
func extractCSV(raw []byte) (Result, error) {
	r := csv.NewReader(strings.NewReader(string(raw)))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return Result{}, err
	}
	var b strings.Builder
	for _, row := range records {
		b.WriteString(strings.Join(row, "\t"))
		b.WriteString("\n")
	}
	return Result{Text: normalizeText(b.String()), DecoderVersion: "csv-plain-v1"}, nil
}
