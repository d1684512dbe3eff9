package chunk

import (
	"strings"

	"github.com/indexfoundry/indexfoundry/internal/config"
	"github.com/indexfoundry/indexfoundry/internal/workspace"
)

// window is a packed, possibly-overlapping span of text plus the byte
// offset in the original document where it begins.
type window struct {
	text  string
	start int
}

// splitRecursive implements the §4.E recursive separator-hierarchy
// strategy (the project's default): try the first separator in
// cfg.Separators, and if a resulting piece still exceeds MaxChars, retry
// it against the next separator down, falling back to a hard character
// cut when no separator remains. Adjacent output windows overlap by up to
// cfg.OverlapChars, carried from the tail of the prior window; the overlap
// is shortened or dropped where carrying it in full would exceed MaxChars.
func splitRecursive(docID, sourceID, text string, cfg config.ChunkConfig) ([]workspace.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	seps := cfg.Separators
	if len(seps) == 0 {
		seps = []string{"\n\n", "\n", ". ", " "}
	}
	maxChars := cfg.MaxChars
	if maxChars <= 0 {
		maxChars = 1000
	}

	pieces := recursiveSplit(text, seps, maxChars)
	windows := packWithOverlap(pieces, maxChars, cfg.OverlapChars)

	chunks := make([]workspace.Chunk, 0, len(windows))
	for idx, w := range windows {
		chunks = append(chunks, newChunk(docID, sourceID, idx, w.text, w.start, w.start+len(w.text)))
	}
	return chunks, nil
}

// recursiveSplit breaks text into pieces no larger than maxChars, trying
// each separator in order before falling back to a hard cut. Pieces
// concatenate back to exactly text, in order — callers rely on this to
// recover byte offsets without re-searching the document.
func recursiveSplit(text string, seps []string, maxChars int) []string {
	if len(text) <= maxChars {
		return []string{text}
	}
	if len(seps) == 0 {
		return hardSplit(text, maxChars)
	}

	sep := seps[0]
	rest := seps[1:]
	parts := strings.Split(text, sep)
	if len(parts) == 1 {
		return recursiveSplit(text, rest, maxChars)
	}

	var pieces []string
	var buf strings.Builder
	flush := func() {
		if buf.Len() == 0 {
			return
		}
		pieces = append(pieces, buf.String())
		buf.Reset()
	}
	for i, p := range parts {
		candidate := p
		if i < len(parts)-1 {
			candidate += sep
		}
		if buf.Len()+len(candidate) > maxChars && buf.Len() > 0 {
			flush()
		}
		buf.WriteString(candidate)
		if buf.Len() > maxChars {
			flush()
		}
	}
	flush()

	var out []string
	for _, piece := range pieces {
		if len(piece) > maxChars {
			out = append(out, recursiveSplit(piece, rest, maxChars)...)
		} else {
			out = append(out, piece)
		}
	}
	return out
}

func hardSplit(text string, maxChars int) []string {
	var out []string
	for start := 0; start < len(text); start += maxChars {
		end := start + maxChars
		if end > len(text) {
			end = len(text)
		}
		out = append(out, text[start:end])
	}
	return out
}

// packWithOverlap merges adjacent pieces up to maxChars and carries up to
// overlapChars of trailing context from window N into window N+1, so no
// window exceeds the configured size. Offsets are derived from the
// running position in the original document rather than re-searching it,
// since pieces are guaranteed to reconstruct the source text in order.
func packWithOverlap(pieces []string, maxChars, overlapChars int) []window {
	if len(pieces) == 0 {
		return nil
	}
	var windows []window
	var buf strings.Builder
	pos := 0    // position in the original document of the next unread piece
	winStart := 0 // document offset where the current buffer began

	for _, p := range pieces {
		if buf.Len() > 0 && buf.Len()+len(p) > maxChars {
			windows = append(windows, window{text: buf.String(), start: winStart})
			tailLen := overlapChars
			if tailLen > buf.Len() {
				tailLen = 0
			}
			if tailLen > maxChars-len(p) {
				tailLen = maxChars - len(p)
			}
			if tailLen < 0 {
				tailLen = 0
			}
			tail := ""
			if tailLen > 0 {
				tail = buf.String()[buf.Len()-tailLen:]
			}
			winStart = pos - len(tail)
			buf.Reset()
			buf.WriteString(tail)
		}
		buf.WriteString(p)
		pos += len(p)
	}
	if buf.Len() > 0 {
		windows = append(windows, window{text: buf.String(), start: winStart})
	}
	return windows
}
