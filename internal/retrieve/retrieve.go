// Package retrieve implements the hybrid retriever (spec.md §4.I): an
// in-memory semantic+keyword fusion engine over a project's chunk and
// vector logs, with metadata filtering and context expansion across
// the chunk hierarchy graph. Grounded on the teacher's search package
// (internal/search) for the options/scoring-adjustment shape and
// internal/store/bm25.go for the keyword-side tokenizer choice, with
// the teacher's own ANN-backed ranking replaced by the spec's mandated
// deterministic exhaustive cosine scan (see DESIGN.md's Open Question
// decision on ANN vs. exhaustive scan).
package retrieve

import "github.com/indexfoundry/indexfoundry/internal/workspace"

// Mode selects which ranking signal(s) Search uses.
type Mode string

const (
	ModeSemantic Mode = "semantic"
	ModeKeyword  Mode = "keyword"
	ModeHybrid   Mode = "hybrid"
)

// FusionMethod selects how hybrid mode combines the semantic and
// keyword candidate lists.
type FusionMethod string

const (
	FusionRRF         FusionMethod = "rrf"
	FusionWeightedSum FusionMethod = "weighted_sum"
)

// ExpandStrategy names a context-expansion mode (§4.I).
type ExpandStrategy string

const (
	ExpandNone     ExpandStrategy = ""
	ExpandAdjacent ExpandStrategy = "adjacent"
	ExpandParent   ExpandStrategy = "parent"
	ExpandBoth     ExpandStrategy = "both"
)

// ExpandOptions configures context expansion of the top-k hit set.
type ExpandOptions struct {
	Strategy       ExpandStrategy
	AdjacentBefore int
	AdjacentAfter  int
	MaxTotalChunks int
}

// ScoreAdjustments carries the two opt-in, off-by-default post-fusion
// adjustments supplementing §4.I (SPEC_FULL.md enrichment), grounded on
// the teacher's internal/search/options.go.
type ScoreAdjustments struct {
	PenalizeTestPaths   bool
	TestPathPenalty     float64
	ImplementationBoost float64
	WrapperPenalty      float64
}

// Options parameterizes a single Search call (§4.I Inputs).
type Options struct {
	Mode         Mode
	TopK         int
	Alpha        float64
	RRFConstant  int
	FusionMethod FusionMethod
	Filter       *Filter
	Expand       ExpandOptions
	Explain      bool
	Adjustments  ScoreAdjustments
}

// Hit is one scored result, optionally annotated with why it ranked
// where it did and whether it's an expansion neighbour rather than an
// original match.
type Hit struct {
	Chunk         workspace.Chunk
	Score         float64
	RankSemantic  int // 1-based; 0 means absent from the semantic list
	RankKeyword   int // 1-based; 0 means absent from the keyword list
	SemanticScore float64
	KeywordScore  float64
	IsExpansion   bool
}

// ExplainData is attached to the response when Options.Explain is set
// (SPEC_FULL.md query explain mode enrichment).
type ExplainData struct {
	Query              string   `json:"query"`
	ModeUsed           Mode     `json:"mode_used"`
	SemanticCandidates int      `json:"semantic_candidates"`
	KeywordCandidates  int      `json:"keyword_candidates"`
	Alpha              float64  `json:"alpha,omitempty"`
	RRFConstant        int      `json:"rrf_constant,omitempty"`
	FusionMethod       FusionMethod `json:"fusion_method,omitempty"`
	FellBackToKeyword  bool     `json:"fell_back_to_keyword"`
	Terms              []string `json:"terms,omitempty"`
}

// Response is Search's full result.
type Response struct {
	Hits     []Hit
	ModeUsed Mode
	Explain  *ExplainData
}
