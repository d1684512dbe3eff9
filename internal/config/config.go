// Package config loads and validates per-project configuration: the
// embedding model descriptor, chunking strategy, and build quotas from
// spec.md §3-§4.H. Layering follows the teacher's config package: a
// project-level YAML file overridden by environment variables.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ChunkStrategy names one of the deterministic splitting strategies
// from spec.md §4.E.
type ChunkStrategy string

const (
	StrategyFixedChars   ChunkStrategy = "fixed_chars"
	StrategyParagraph     ChunkStrategy = "paragraph"
	StrategyHeading       ChunkStrategy = "heading"
	StrategyPage          ChunkStrategy = "page"
	StrategySentence      ChunkStrategy = "sentence"
	StrategyRecursive     ChunkStrategy = "recursive"
	StrategyHierarchical  ChunkStrategy = "hierarchical"
)

// EmbeddingModel describes the embedding provider for a project (§3 Project).
type EmbeddingModel struct {
	Provider   string `yaml:"provider" json:"provider"`
	ModelName  string `yaml:"model_name" json:"model_name"`
	Dimension  int    `yaml:"dimension" json:"dimension"`
	APIKeyEnv  string `yaml:"api_key_env" json:"api_key_env"`
	Normalize  bool   `yaml:"normalize" json:"normalize"`
}

// ChunkConfig configures the chunker for a project (§4.E).
type ChunkConfig struct {
	Strategy           ChunkStrategy `yaml:"strategy" json:"strategy"`
	MaxChars           int           `yaml:"max_chars" json:"max_chars"`
	MinChars           int           `yaml:"min_chars" json:"min_chars"`
	OverlapChars       int           `yaml:"overlap_chars" json:"overlap_chars"`
	Separators         []string      `yaml:"separators" json:"separators"`
	CreateParentChunks bool          `yaml:"create_parent_chunks" json:"create_parent_chunks"`
	ParentContextChars int           `yaml:"parent_context_chars" json:"parent_context_chars"`
}

// DefaultChunkConfig returns the recursive-strategy defaults named in §4.E.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Strategy:           StrategyRecursive,
		MaxChars:           1000,
		MinChars:           100,
		OverlapChars:       100,
		Separators:         []string{"\n\n", "\n", ". ", " "},
		ParentContextChars: 200,
	}
}

// BuildOptions configures a build invocation (§4.H bounded ranges).
type BuildOptions struct {
	MaxSourcesPerBuild  int    `yaml:"max_sources_per_build" json:"max_sources_per_build"`
	FetchConcurrency    int    `yaml:"fetch_concurrency" json:"fetch_concurrency"`
	EmbeddingBatchSize  int    `yaml:"embedding_batch_size" json:"embedding_batch_size"`
	EnableCheckpointing bool   `yaml:"enable_checkpointing" json:"enable_checkpointing"`
	BuildTimeoutMS      int    `yaml:"build_timeout_ms" json:"build_timeout_ms"`
	TimeoutStrategy     string `yaml:"timeout_strategy" json:"timeout_strategy"`
}

// DefaultBuildOptions returns the §4.H defaults.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		MaxSourcesPerBuild:  10,
		FetchConcurrency:    3,
		EmbeddingBatchSize:  50,
		EnableCheckpointing: true,
		BuildTimeoutMS:      300_000,
		TimeoutStrategy:     "checkpoint",
	}
}

// Clamp enforces the bounded ranges from §4.H, correcting out-of-range
// values to their nearest bound rather than erroring — callers that want
// strict validation should compare before/after.
func (o *BuildOptions) Clamp() {
	o.MaxSourcesPerBuild = clamp(o.MaxSourcesPerBuild, 1, 50)
	o.FetchConcurrency = clamp(o.FetchConcurrency, 1, 10)
	o.EmbeddingBatchSize = clamp(o.EmbeddingBatchSize, 10, 100)
	o.BuildTimeoutMS = clamp(o.BuildTimeoutMS, 60_000, 1_800_000)
	switch o.TimeoutStrategy {
	case "skip", "checkpoint", "split":
	default:
		o.TimeoutStrategy = "checkpoint"
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RetrievalConfig configures default hybrid-search weighting (§4.I).
type RetrievalConfig struct {
	DefaultMode  string  `yaml:"default_mode" json:"default_mode"`
	Alpha        float64 `yaml:"alpha" json:"alpha"`
	RRFConstant  int     `yaml:"rrf_constant" json:"rrf_constant"`
	FusionMethod string  `yaml:"fusion_method" json:"fusion_method"` // "rrf" | "weighted_sum"
}

// DefaultRetrievalConfig returns the §4.I / §8 mandated defaults (k=60, α=0.7).
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		DefaultMode:  "hybrid",
		Alpha:        0.7,
		RRFConstant:  60,
		FusionMethod: "rrf",
	}
}

// Config is a project's full configuration, persisted as part of project.json
// and overridable via environment variables per spec.md §6.
type Config struct {
	Embedding EmbeddingModel  `yaml:"embedding" json:"embedding"`
	Chunk     ChunkConfig     `yaml:"chunk" json:"chunk"`
	Build     BuildOptions    `yaml:"build" json:"build"`
	Retrieval RetrievalConfig `yaml:"retrieval" json:"retrieval"`
}

// NewDefault returns a Config with every field set to its spec default.
func NewDefault() *Config {
	return &Config{
		Chunk:     DefaultChunkConfig(),
		Build:     DefaultBuildOptions(),
		Retrieval: DefaultRetrievalConfig(),
	}
}

// Load reads and parses a project config YAML file, then applies
// environment-variable overrides (highest priority, mirroring the
// teacher's BM25Weight/SemanticWeight/RRFConstant env override scheme).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := NewDefault()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnvOverrides()
	cfg.Build.Clamp()
	return cfg, nil
}

// applyEnvOverrides mirrors the teacher's AMANMCP_BM25_WEIGHT-style
// environment override mechanism for the fusion tuning knobs.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("INDEXFOUNDRY_RRF_CONSTANT"); v != "" {
		if n, err := parseInt(v); err == nil {
			c.Retrieval.RRFConstant = n
		}
	}
	if v := os.Getenv("INDEXFOUNDRY_ALPHA"); v != "" {
		if f, err := parseFloat(v); err == nil {
			c.Retrieval.Alpha = f
		}
	}
}

func parseInt(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}

func parseFloat(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(s, "%g", &f)
	return f, err
}

// APIKey resolves the embedding provider API key from the environment
// variable named by EmbeddingModel.APIKeyEnv. Returns "" if unset.
func (e EmbeddingModel) APIKey() string {
	if e.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(e.APIKeyEnv)
}
