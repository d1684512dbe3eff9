package searchapi

import "github.com/indexfoundry/indexfoundry/internal/retrieve"

// Every *Params struct below is decoded from a Request's Params field;
// every *Result struct is what ends up in a Response's Result field.

// ProjectParams is embedded by every operation that targets one project.
type ProjectParams struct {
	ProjectID string `json:"project_id"`
}

// HealthResult answers the health operation.
type HealthResult struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// StatsResult answers the stats operation (§4.J: "index sizes, uptime, counters").
type StatsResult struct {
	ProjectID     string `json:"project_id"`
	ChunkCount    int    `json:"chunk_count"`
	VectorCount   int    `json:"vector_count"`
	SourceCount   int    `json:"source_count"`
	Uptime        string `json:"uptime"`
	SearchesTotal int64  `json:"searches_total"`
}

// GetChunkParams parameterizes get-chunk-by-id.
type GetChunkParams struct {
	ProjectID string `json:"project_id"`
	ChunkID   string `json:"chunk_id"`
}

// ListSourcesParams parameterizes list-sources.
type ListSourcesParams struct {
	ProjectID string `json:"project_id"`
}

// SourceSummary is one entry of a list-sources response.
type SourceSummary struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	URI             string `json:"uri"`
	Status          string `json:"status"`
	ProcessedChunks int    `json:"processed_chunks"`
	LastError       string `json:"last_error,omitempty"`
}

// ListSourcesResult answers list-sources.
type ListSourcesResult struct {
	Sources []SourceSummary `json:"sources"`
}

// SearchParams parameterizes the search operation (§4.I Inputs).
type SearchParams struct {
	ProjectID   string              `json:"project_id"`
	Query       string              `json:"query"`
	QueryVector []float32           `json:"query_vector,omitempty"`
	Mode        retrieve.Mode       `json:"mode,omitempty"`
	TopK        int                 `json:"top_k,omitempty"`
	Alpha       float64             `json:"alpha,omitempty"`
	Fusion      retrieve.FusionMethod `json:"fusion,omitempty"`
	Filter      []FilterClause      `json:"filter,omitempty"`
	Expand      *ExpandClause       `json:"expand,omitempty"`
	Explain     bool                `json:"explain,omitempty"`
}

// FilterClause is the wire shape of one retrieve.Predicate.
type FilterClause struct {
	Field string      `json:"field"`
	Op    retrieve.Op `json:"op"`
	Value any         `json:"value"`
}

// ExpandClause is the wire shape of retrieve.ExpandOptions.
type ExpandClause struct {
	Strategy       retrieve.ExpandStrategy `json:"strategy"`
	AdjacentBefore int                     `json:"adjacent_before,omitempty"`
	AdjacentAfter  int                     `json:"adjacent_after,omitempty"`
	MaxTotalChunks int                     `json:"max_total_chunks,omitempty"`
}

// SearchResultItem is one hit in a search response.
type SearchResultItem struct {
	ChunkID      string  `json:"chunk_id"`
	DocID        string  `json:"doc_id"`
	SourceID     string  `json:"source_id"`
	Text         string  `json:"text"`
	Score        float64 `json:"score"`
	RankSemantic int     `json:"rank_semantic,omitempty"`
	RankKeyword  int     `json:"rank_keyword,omitempty"`
	IsExpansion  bool    `json:"is_expansion,omitempty"`
}

// SearchResult answers the search operation.
type SearchResult struct {
	Results  []SearchResultItem    `json:"results"`
	ModeUsed retrieve.Mode         `json:"mode_used"`
	Explain  *retrieve.ExplainData `json:"explain,omitempty"`
}

// GetDocumentParams parameterizes get-document.
type GetDocumentParams struct {
	ProjectID string `json:"project_id"`
	DocID     string `json:"doc_id"`
}

// GetDocumentResult answers get-document: every chunk of a doc_id,
// sorted by chunk_index.
type GetDocumentResult struct {
	DocID  string             `json:"doc_id"`
	Chunks []SearchResultItem `json:"chunks"`
}

// IndexInfoParams parameterizes the index_info introspection operation
// (SPEC_FULL.md enrichment).
type IndexInfoParams struct {
	ProjectID string `json:"project_id"`
}

// IndexInfoResult answers index_info.
type IndexInfoResult struct {
	ProjectID          string `json:"project_id"`
	ConfiguredModel    string `json:"configured_model"`
	ConfiguredProvider string `json:"configured_provider"`
	ConfiguredDim      int    `json:"configured_dimension"`
	OnDiskModel        string `json:"on_disk_model"`
	OnDiskProvider     string `json:"on_disk_provider"`
	OnDiskDim          int    `json:"on_disk_dimension"`
	VectorCount        int    `json:"vector_count"`
	Compatible         bool   `json:"compatible"`
}
