package chunk

import (
	"regexp"
	"strings"

	"github.com/indexfoundry/indexfoundry/internal/config"
	"github.com/indexfoundry/indexfoundry/internal/workspace"
)

var atxHeadingPattern = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)

type heading struct {
	level int
	title string
	start int // byte offset of the heading line itself
	body  int // byte offset where the section body begins (after the heading line)
}

// splitHierarchical implements the §4.E hierarchical strategy: parse
// markdown ATX headings and, when cfg.CreateParentChunks is set, emit
// one parent chunk per heading (the heading line plus its immediate
// content) followed by child chunks from a recursive split of that
// content, each child's Hierarchy.ParentID pointing at its parent's
// chunk id. Without CreateParentChunks it falls back to one flat chunk
// per heading carrying a breadcrumb of ancestor titles instead of a
// parent link — cheaper for callers that never expand by parent/child.
// Grounded on the teacher's MarkdownChunker header-stack walk
// (internal/chunk/markdown_chunker.go), generalized from a Markdown-file
// chunker into a source-agnostic hierarchical strategy.
func splitHierarchical(docID, sourceID, text string, cfg config.ChunkConfig) ([]workspace.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	headings := parseHeadings(text)
	if len(headings) == 0 {
		return splitRecursive(docID, sourceID, text, cfg)
	}

	if cfg.CreateParentChunks {
		return splitHierarchicalWithParents(docID, sourceID, text, headings, cfg)
	}
	return splitHierarchicalFlat(docID, sourceID, text, headings, cfg)
}

// splitHierarchicalWithParents is the §4.E / S1 parent+child model: each
// heading yields a parent chunk (heading line through the start of the
// next heading) plus child chunks from recursively splitting the
// section's body content, each child stamped with Hierarchy.ParentID
// and the leading ParentContextChars bytes of the parent's own text.
func splitHierarchicalWithParents(docID, sourceID, text string, headings []heading, cfg config.ChunkConfig) ([]workspace.Chunk, error) {
	var chunks []workspace.Chunk
	idx := 0

	for i, h := range headings {
		sectionEnd := len(text)
		if i+1 < len(headings) {
			sectionEnd = headings[i+1].start
		}
		sectionBody := strings.TrimRight(text[h.body:sectionEnd], "\n")
		if sectionBody == "" {
			continue
		}

		parentText := strings.TrimRight(text[h.start:sectionEnd], "\n")
		parent := newChunk(docID, sourceID, idx, parentText, h.start, h.start+len(parentText))
		parent.Position.Heading = h.title
		parent.Hierarchy = workspace.Hierarchy{HierarchyLevel: h.level}
		chunks = append(chunks, parent)
		idx++

		parentContext := parentText
		if cfg.ParentContextChars > 0 && len(parentContext) > cfg.ParentContextChars {
			parentContext = parentContext[:cfg.ParentContextChars]
		}

		children, err := splitRecursive(docID, sourceID, sectionBody, cfg)
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			c.ChunkIndex = idx
			c.Position.ByteStart += h.body
			c.Position.ByteEnd += h.body
			c.Position.Heading = h.title
			c.ChunkID = chunkID(docID, c.Position.ByteStart, c.Position.ByteEnd)
			c.Hierarchy = workspace.Hierarchy{
				ParentID:       parent.ChunkID,
				ParentContext:  parentContext,
				HierarchyLevel: h.level,
			}
			chunks = append(chunks, c)
			idx++
		}
	}
	return chunks, nil
}

// splitHierarchicalFlat emits exactly one chunk per heading, re-split by
// the recursive strategy if its section exceeds MaxChars, carrying a
// breadcrumb of ancestor heading titles instead of a parent link.
func splitHierarchicalFlat(docID, sourceID, text string, headings []heading, cfg config.ChunkConfig) ([]workspace.Chunk, error) {
	var chunks []workspace.Chunk
	idx := 0
	stack := make([]heading, 0, 6)

	for i, h := range headings {
		for len(stack) > 0 && stack[len(stack)-1].level >= h.level {
			stack = stack[:len(stack)-1]
		}

		sectionEnd := len(text)
		if i+1 < len(headings) {
			sectionEnd = headings[i+1].start
		}
		sectionText := strings.TrimRight(text[h.body:sectionEnd], "\n")
		stack = append(stack, h)

		parentPath := make([]string, 0, len(stack)-1)
		for _, anc := range stack[:len(stack)-1] {
			parentPath = append(parentPath, anc.title)
		}
		parentContext := strings.Join(parentPath, " > ")
		if len(parentContext) > cfg.ParentContextChars && cfg.ParentContextChars > 0 {
			parentContext = parentContext[len(parentContext)-cfg.ParentContextChars:]
		}

		if sectionText == "" {
			continue
		}

		if cfg.MaxChars > 0 && len(sectionText) > cfg.MaxChars {
			sub, err := splitRecursive(docID, sourceID, sectionText, cfg)
			if err != nil {
				return nil, err
			}
			for _, c := range sub {
				c.ChunkIndex = idx
				c.Position.ByteStart += h.body
				c.Position.ByteEnd += h.body
				c.Position.Heading = h.title
				c.ChunkID = chunkID(docID, c.Position.ByteStart, c.Position.ByteEnd)
				c.Hierarchy = workspace.Hierarchy{
					ParentContext:  parentContext,
					HierarchyLevel: h.level,
				}
				chunks = append(chunks, c)
				idx++
			}
			continue
		}

		c := newChunk(docID, sourceID, idx, sectionText, h.body, h.body+len(sectionText))
		c.Position.Heading = h.title
		c.Hierarchy = workspace.Hierarchy{
			ParentContext:  parentContext,
			HierarchyLevel: h.level,
		}
		chunks = append(chunks, c)
		idx++
	}
	return chunks, nil
}

func parseHeadings(text string) []heading {
	matches := atxHeadingPattern.FindAllStringSubmatchIndex(text, -1)
	headings := make([]heading, 0, len(matches))
	for _, m := range matches {
		level := m[3] - m[2]
		title := strings.TrimSpace(text[m[4]:m[5]])
		bodyStart := m[1]
		if bodyStart < len(text) && text[bodyStart] == '\n' {
			bodyStart++
		}
		headings = append(headings, heading{level: level, title: title, start: m[0], body: bodyStart})
	}
	return headings
}
