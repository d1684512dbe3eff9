package retrieve

import (
	"fmt"

	"github.com/indexfoundry/indexfoundry/internal/ierrors"
	"github.com/indexfoundry/indexfoundry/internal/workspace"
)

// Op is a filter comparison operator (§4.I filter semantics).
type Op string

const (
	OpEq       Op = "eq"
	OpNeq      Op = "neq"
	OpGt       Op = "gt"
	OpGte      Op = "gte"
	OpLt       Op = "lt"
	OpLte      Op = "lte"
	OpIn       Op = "in"
	OpContains Op = "contains"
)

// allowedFilterFields are the metadata fields a predicate may name, the
// "pre-declared in the retrieval profile" set named by §4.I. Anything
// else is InvalidFilter.
var allowedFilterFields = map[string]bool{
	"source_id":    true,
	"doc_id":       true,
	"content_type": true,
	"language":     true,
	"title":        true,
	"tags":         true,
}

// Predicate is one filter clause.
type Predicate struct {
	Field string
	Op    Op
	Value any
}

// Filter is a conjunction of predicates (§4.I: "Predicates are
// conjunctions over declared metadata fields").
type Filter struct {
	Predicates []Predicate
}

// Validate rejects any predicate naming a field or operator outside
// the pre-declared set, returning an InvalidFilter error per §4.I.
func (f *Filter) Validate() error {
	if f == nil {
		return nil
	}
	for _, p := range f.Predicates {
		if !allowedFilterFields[p.Field] {
			return ierrors.New(ierrors.CodeInvalidFilter, fmt.Sprintf("unknown filter field %q", p.Field), nil)
		}
		switch p.Op {
		case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpIn, OpContains:
		default:
			return ierrors.New(ierrors.CodeInvalidFilter, fmt.Sprintf("unknown filter operator %q", p.Op), nil)
		}
	}
	return nil
}

// Matches reports whether c satisfies every predicate in f.
func (f *Filter) Matches(c workspace.Chunk) bool {
	if f == nil {
		return true
	}
	for _, p := range f.Predicates {
		if !p.matches(fieldValue(c, p.Field)) {
			return false
		}
	}
	return true
}

func fieldValue(c workspace.Chunk, field string) any {
	switch field {
	case "source_id":
		return c.SourceID
	case "doc_id":
		return c.DocID
	case "content_type":
		return c.Metadata.ContentType
	case "language":
		return c.Metadata.Language
	case "title":
		return c.Metadata.Title
	case "tags":
		return c.Metadata.Tags
	default:
		return nil
	}
}

func (p Predicate) matches(actual any) bool {
	switch p.Op {
	case OpEq:
		return compareEqual(actual, p.Value)
	case OpNeq:
		return !compareEqual(actual, p.Value)
	case OpGt, OpGte, OpLt, OpLte:
		return compareOrdered(p.Op, actual, p.Value)
	case OpIn:
		return containsAny(asStringSlice(p.Value), actual)
	case OpContains:
		return containsAny(asStringSlice(actual), p.Value)
	default:
		return false
	}
}

func compareEqual(a, b any) bool {
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return as == bs
	}
	af, aerr := toFloat(a)
	bf, berr := toFloat(b)
	if aerr && berr {
		return af == bf
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func compareOrdered(op Op, a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return false
	}
	switch op {
	case OpGt:
		return af > bf
	case OpGte:
		return af >= bf
	case OpLt:
		return af < bf
	case OpLte:
		return af <= bf
	default:
		return false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func asStringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case string:
		return []string{s}
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			out = append(out, fmt.Sprint(e))
		}
		return out
	default:
		return nil
	}
}

// containsAny reports whether needle (a single value or a slice coerced
// to one element) appears in haystack; used for both "in" (haystack is
// the predicate's value list, needle is the field) and "contains"
// (haystack is the field's list, needle is the predicate's value).
func containsAny(haystack []string, needle any) bool {
	s := fmt.Sprint(needle)
	for _, h := range haystack {
		if h == s {
			return true
		}
	}
	return false
}
