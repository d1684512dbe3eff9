package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat_HintWinsOverContentType(t *testing.T) {
	assert.Equal(t, FormatMarkdown, DetectFormat("text/html", "markdown"))
}

func TestDetectFormat_FallsBackToContentType(t *testing.T) {
	assert.Equal(t, FormatHTML, DetectFormat("text/html; charset=utf-8", ""))
	assert.Equal(t, FormatPDF, DetectFormat("application/pdf", ""))
	assert.Equal(t, FormatPlainText, DetectFormat("application/octet-stream", ""))
}

func TestExtract_PlainTextNormalizesLineEndings(t *testing.T) {
	res, err := Extract([]byte("a\r\nb\rc"), FormatPlainText, "")
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc", res.Text)
}

func TestExtractHTML_PreservesHeadingsAndLinks(t *testing.T) {
	html := `<html><body><h1>Title</h1><p>See <a href="https://example.com">here</a>.</p></body></html>`
	res, err := Extract([]byte(html), FormatHTML, "")
	require.NoError(t, err)
	assert.Contains(t, res.Text, "# Title")
	assert.Contains(t, res.Text, "here (https://example.com)")
}

func TestExtractHTML_PlainModeStripsTags(t *testing.T) {
	html := `<html><body><h1>Title</h1><p>Body text</p></body></html>`
	res, err := Extract([]byte(html), FormatHTML, "plain")
	require.NoError(t, err)
	assert.NotContains(t, res.Text, "<h1>")
	assert.Contains(t, res.Text, "Title")
	assert.Contains(t, res.Text, "Body text")
}

func TestExtractJSON_FlattensStringLeaves(t *testing.T) {
	res, err := Extract([]byte(`{"title":"Hello","tags":["a","b"]}`), FormatJSON, "")
	require.NoError(t, err)
	assert.Contains(t, res.Text, "Hello")
	assert.Contains(t, res.Text, "a")
	assert.Contains(t, res.Text, "b")
}

func TestExtractCSV_JoinsRowsWithTabs(t *testing.T) {
	res, err := Extract([]byte("a,b\nc,d\n"), FormatCSV, "")
	require.NoError(t, err)
	assert.Equal(t, "a\tb\nc\td\n", res.Text)
}

func TestExtractPDF_ReadsShowTextOperands(t *testing.T) {
	pdf := "stream\nBT (Hello World) Tj ET\nendstream"
	res, err := Extract([]byte(pdf), FormatPDF, "")
	require.NoError(t, err)
	require.Len(t, res.Pages, 1)
	assert.Contains(t, res.Pages[0].Text, "Hello World")
}

func TestExtractPDF_NoStreamsYieldsEmptyResult(t *testing.T) {
	res, err := Extract([]byte("%PDF-1.4\n%%EOF"), FormatPDF, "")
	require.NoError(t, err)
	assert.Empty(t, res.Pages)
}
