package build

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/indexfoundry/indexfoundry/internal/fetch"
	"github.com/indexfoundry/indexfoundry/internal/workspace"
)

// sourceOption reads a string-typed per-source option (§3 Source
// record's free-form Options bag), falling back to def if absent or
// unparseable.
func sourceOption(opts map[string]string, key, def string) string {
	if v, ok := opts[key]; ok && v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func fetchOptionsFor(src workspace.SourceRecord, concurrency int) fetch.Options {
	opts := fetch.DefaultOptions()
	opts.AllowDomains = splitCSV(sourceOption(src.Options, "allow_domains", ""))
	opts.BlockDomains = splitCSV(sourceOption(src.Options, "block_domains", ""))
	opts.Concurrency = concurrency
	if ms, err := strconv.Atoi(sourceOption(src.Options, "timeout_ms", "")); err == nil && ms > 0 {
		opts.Timeout = time.Duration(ms) * time.Millisecond
	}
	return opts
}

func sitemapOptionsFor(src workspace.SourceRecord, concurrency int) fetch.SitemapOptions {
	maxPages := 1000
	if n, err := strconv.Atoi(sourceOption(src.Options, "max_pages", "")); err == nil && n > 0 {
		maxPages = n
	}
	opts := fetch.SitemapOptions{
		MaxPages:    maxPages,
		Concurrency: concurrency,
		Fetch:       fetchOptionsFor(src, concurrency),
	}
	if p := sourceOption(src.Options, "include", ""); p != "" {
		if re, err := regexp.Compile(p); err == nil {
			opts.Include = []*regexp.Regexp{re}
		}
	}
	if p := sourceOption(src.Options, "exclude", ""); p != "" {
		if re, err := regexp.Compile(p); err == nil {
			opts.Exclude = []*regexp.Regexp{re}
		}
	}
	return opts
}

func folderOptionsFor(src workspace.SourceRecord) fetch.FolderOptions {
	opts := fetch.FolderOptions{
		Glob:    sourceOption(src.Options, "glob", "*"),
		Exclude: splitCSV(sourceOption(src.Options, "exclude", "")),
	}
	if n, err := strconv.ParseInt(sourceOption(src.Options, "max_bytes", ""), 10, 64); err == nil && n > 0 {
		opts.MaxBytes = n
	}
	return opts
}
