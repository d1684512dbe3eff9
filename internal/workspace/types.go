// Package workspace implements the manifest & checkpoint store (spec.md
// §4.B): the content-addressed, resumable, idempotent on-disk layout for
// projects, their source ledgers, chunk/vector logs, and checkpoints.
//
// The on-disk layout is bit-exact per §6:
//
//	<base>/projects/<project_id>/
//	  project.json
//	  sources.jsonl
//	  data/chunks.jsonl
//	  data/vectors.jsonl
//	  data/checkpoints/latest.json
//	  raw/<sha256><ext>
//	  raw/raw_manifest.jsonl
package workspace

import (
	"regexp"
	"time"

	"github.com/indexfoundry/indexfoundry/internal/config"
)

// ProjectIDPattern is the identifier grammar from spec.md §6.
var ProjectIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// ValidProjectID reports whether id is a legal project slug (max 64 chars).
func ValidProjectID(id string) bool {
	return len(id) > 0 && len(id) <= 64 && ProjectIDPattern.MatchString(id)
}

// SourceType enumerates the kinds of ingestible sources (§3 Source record).
type SourceType string

const (
	SourceURL     SourceType = "url"
	SourceSitemap SourceType = "sitemap"
	SourceFolder  SourceType = "folder"
	SourcePDF     SourceType = "pdf"
)

// SourceStatus is the per-source state machine position (§4.H).
type SourceStatus string

const (
	StatusPending   SourceStatus = "pending"
	StatusFetching  SourceStatus = "fetching"
	StatusChunking  SourceStatus = "chunking"
	StatusEmbedding SourceStatus = "embedding"
	StatusCompleted SourceStatus = "completed"
	StatusFailed    SourceStatus = "failed"
)

// SourceRecord is an immutable-identity, mutable-status ledger entry (§3).
type SourceRecord struct {
	ID              string            `json:"id"`
	Type            SourceType        `json:"type"`
	URI             string            `json:"uri"`
	DisplayName     string            `json:"display_name"`
	Tags            []string          `json:"tags,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	Status          SourceStatus      `json:"status"`
	LastError       string            `json:"last_error,omitempty"`
	ProcessedChunks int               `json:"processed_chunks"`
	Options         map[string]string `json:"options,omitempty"`
}

// Position locates a chunk within its source document (§3 Chunk).
type Position struct {
	ByteStart int    `json:"byte_start"`
	ByteEnd   int    `json:"byte_end"`
	Page      *int   `json:"page,omitempty"`
	Heading   string `json:"heading,omitempty"`
	LineStart *int   `json:"line_start,omitempty"`
	LineEnd   *int   `json:"line_end,omitempty"`
}

// Hierarchy carries the optional parent-chunk linkage (§3, §4.E hierarchical).
type Hierarchy struct {
	ParentID       string `json:"parent_id,omitempty"`
	ParentContext  string `json:"parent_context,omitempty"`
	HierarchyLevel int    `json:"hierarchy_level"`
}

// Symbol is an optional code-structure annotation a chunker may attach
// (SPEC_FULL.md chunk metadata richness expansion).
type Symbol struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
	Signature  string `json:"signature,omitempty"`
	DocComment string `json:"doc_comment,omitempty"`
}

// ChunkMetadata is the free-form per-chunk metadata bag (§3 Chunk).
type ChunkMetadata struct {
	ContentType string            `json:"content_type,omitempty"`
	Language    string            `json:"language,omitempty"`
	Title       string            `json:"title,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Custom      map[string]string `json:"custom,omitempty"`
}

// Chunk is the bounded, content-addressed unit of retrievable text (§3).
//
// Invariant: ChunkID depends only on DocID and the byte range, so
// reprocessing identical bytes under identical config yields identical IDs.
type Chunk struct {
	ChunkID    string        `json:"chunk_id"`
	DocID      string        `json:"doc_id"`
	SourceID   string        `json:"source_id"`
	Text       string        `json:"text"`
	TextHash   string        `json:"text_hash"`
	CharCount  int           `json:"char_count"`
	TokenCount int           `json:"token_count"`
	Position   Position      `json:"position"`
	Hierarchy  Hierarchy     `json:"hierarchy"`
	Metadata   ChunkMetadata `json:"metadata"`
	Symbols    []Symbol      `json:"symbols,omitempty"`
	ChunkIndex int           `json:"chunk_index"`
}

// EmbeddingRecord is a stored vector for a chunk (§3 Embedding).
type EmbeddingRecord struct {
	ChunkID   string    `json:"chunk_id"`
	Vector    []float32 `json:"vector"`
	Model     string    `json:"model"`
	Provider  string    `json:"provider"`
	Timestamp time.Time `json:"timestamp"`
}

// ManifestStatus is the overall build/project state (§3 Manifest).
type ManifestStatus string

const (
	ManifestRunning   ManifestStatus = "running"
	ManifestCompleted ManifestStatus = "completed"
	ManifestFailed    ManifestStatus = "failed"
	ManifestPartial   ManifestStatus = "partial"
)

// PhaseManifest records one pipeline phase's audit trail (§3 Manifest).
type PhaseManifest struct {
	Name        string    `json:"name"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at,omitempty"`
	InputCount  int       `json:"input_count"`
	OutputCount int       `json:"output_count"`
	ToolVersion string    `json:"tool_version,omitempty"`
	Errors      []string  `json:"errors,omitempty"`
}

// Manifest is the project-scoped audit record (§3 Manifest).
type Manifest struct {
	ProjectID    string          `json:"project_id"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  time.Time       `json:"completed_at,omitempty"`
	Status       ManifestStatus  `json:"status"`
	ConfigHash   string          `json:"config_hash"`
	Phases       []PhaseManifest `json:"phases,omitempty"`
	SourcesCount int             `json:"sources_fetched"`
	ChunksCount  int             `json:"chunks_created"`
	VectorsCount int             `json:"vectors_indexed"`
	ErrorCount   int             `json:"errors"`
}

// Project is the top-level workspace (§3 Project).
type Project struct {
	ID        string        `json:"id"`
	Config    config.Config `json:"config"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Manifest  Manifest      `json:"manifest"`
}

// InProgressSource captures a partially-processed source at checkpoint time.
type InProgressSource struct {
	SourceID        string `json:"source_id"`
	PartialProgress string `json:"partial_progress,omitempty"`
}

// CheckpointStats are the aggregate counters carried across a resume (§3).
type CheckpointStats struct {
	ChunksAdded    int     `json:"chunks_added"`
	VectorsAdded   int     `json:"vectors_added"`
	TokensUsed     int     `json:"tokens_used"`
	DurationMS     int64   `json:"duration_ms"`
	EstimatedCost  float64 `json:"estimated_cost_usd"`
}

// Checkpoint is a durable, resumable snapshot of build progress (§3, §4.H.7).
//
// Invariant: a checkpoint is always a valid prefix of the full build —
// resuming from it and finishing reproduces the manifest a single
// uninterrupted build would have produced.
type Checkpoint struct {
	CheckpointID       string            `json:"checkpoint_id"`
	ProjectID          string            `json:"project_id"`
	CreatedAt          time.Time         `json:"created_at"`
	CompletedSourceIDs []string          `json:"completed_source_ids"`
	InProgress         *InProgressSource `json:"in_progress,omitempty"`
	Stats              CheckpointStats   `json:"stats"`
}
