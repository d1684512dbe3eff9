package chunk

import (
	"regexp"
	"strings"

	"github.com/indexfoundry/indexfoundry/internal/config"
	"github.com/indexfoundry/indexfoundry/internal/workspace"
)

// boundaryFunc returns the byte offsets (relative to text) at which a
// boundary-based strategy should split, always including 0 and len(text)
// as implicit start/end marks.
type boundaryFunc func(text string) []int

var (
	paragraphSplitPattern = regexp.MustCompile(`\n\s*\n`)
	headingSplitPattern   = regexp.MustCompile(`(?m)^#{1,6}\s+.+$`)
	pageBreakPattern      = regexp.MustCompile(`\f|\n-{3,}\s*page\s+\d+\s*-{3,}\n`)
	sentenceSplitPattern  = regexp.MustCompile(`[.!?]["')\]]?\s+`)
)

func paragraphBoundaries(text string) []int {
	return splitOffsets(text, paragraphSplitPattern, false)
}

func headingBoundaries(text string) []int {
	return splitOffsets(text, headingSplitPattern, true)
}

func pageBoundaries(text string) []int {
	return splitOffsets(text, pageBreakPattern, false)
}

func sentenceBoundaries(text string) []int {
	return splitOffsets(text, sentenceSplitPattern, false)
}

// splitOffsets finds every match of pat and returns the cut points.
// splitBefore=true cuts at the start of the match (used for headings,
// which belong to the section that follows them); otherwise cuts at the
// end of the match (paragraph/page/sentence separators are discarded).
func splitOffsets(text string, pat *regexp.Regexp, splitBefore bool) []int {
	matches := pat.FindAllStringIndex(text, -1)
	offsets := []int{0}
	for _, m := range matches {
		if splitBefore {
			if m[0] > 0 {
				offsets = append(offsets, m[0])
			}
		} else {
			offsets = append(offsets, m[1])
		}
	}
	if offsets[len(offsets)-1] != len(text) {
		offsets = append(offsets, len(text))
	}
	return offsets
}

// splitByBoundary cuts text at the points boundaryFn identifies, then
// enforces cfg's min/max bounds: segments under MinChars are merged into
// the following segment, and segments over MaxChars are re-split with the
// recursive separator hierarchy (§4.E "merge-below-min / re-split-above-max").
func splitByBoundary(docID, sourceID, text string, cfg config.ChunkConfig, boundaryFn boundaryFunc) ([]workspace.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	offsets := boundaryFn(text)
	type segment struct{ start, end int }
	var segments []segment
	for i := 0; i+1 < len(offsets); i++ {
		start, end := offsets[i], offsets[i+1]
		if start >= end {
			continue
		}
		segments = append(segments, segment{start, end})
	}
	if len(segments) == 0 {
		segments = []segment{{0, len(text)}}
	}

	minChars := cfg.MinChars
	merged := make([]segment, 0, len(segments))
	for _, s := range segments {
		if len(merged) > 0 && merged[len(merged)-1].end-merged[len(merged)-1].start < minChars {
			merged[len(merged)-1].end = s.end
			continue
		}
		merged = append(merged, s)
	}
	// A lone trailing segment below the minimum merges backward instead of
	// standing alone, unless it is the only segment in the document.
	if len(merged) > 1 {
		last := merged[len(merged)-1]
		if last.end-last.start < minChars {
			merged = merged[:len(merged)-1]
			merged[len(merged)-1].end = last.end
		}
	}

	var chunks []workspace.Chunk
	idx := 0
	for _, s := range merged {
		segText := text[s.start:s.end]
		if cfg.MaxChars > 0 && len(segText) > cfg.MaxChars {
			sub, err := splitRecursive(docID, sourceID, segText, cfg)
			if err != nil {
				return nil, err
			}
			for _, c := range sub {
				c.ChunkIndex = idx
				c.Position.ByteStart += s.start
				c.Position.ByteEnd += s.start
				c.ChunkID = chunkID(docID, c.Position.ByteStart, c.Position.ByteEnd)
				chunks = append(chunks, c)
				idx++
			}
			continue
		}
		chunks = append(chunks, newChunk(docID, sourceID, idx, segText, s.start, s.end))
		idx++
	}
	return chunks, nil
}
