package retrieve

import (
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
)

var (
	wordTokenizer = unicode.NewUnicodeTokenizer()
	lowerFilter   = lowercase.NewLowerCaseFilter()
)

// tokenize splits text the way §4.I's keyword mode requires: word
// boundaries via Bleve's Unicode tokenizer, lowercased, dropping any
// term under three runes. Reused from the teacher's Bleve-based
// keyword index instead of hand-rolling a second tokenizer.
func tokenize(text string) []string {
	stream := lowerFilter.Filter(wordTokenizer.Tokenize([]byte(text)))
	terms := make([]string, 0, len(stream))
	for _, tok := range stream {
		if utf8.RuneCountInString(string(tok.Term)) < 3 {
			continue
		}
		terms = append(terms, string(tok.Term))
	}
	return terms
}
