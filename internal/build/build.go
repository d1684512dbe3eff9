// Package build implements the build orchestrator (spec.md §4.H): the
// fetch→chunk→embed→upsert pipeline that drives a project's pending
// sources to completion within a bounded per-invocation work budget,
// with resumption, progress, and cost metrics. Grounded on the
// teacher's indexing Runner (internal/index/runner.go) for the
// stage-timing/sequencing shape and internal/async's background-worker
// lifecycle for the bounded concurrent-source pattern.
package build

import (
	"context"
	"sync"
	"time"

	"github.com/indexfoundry/indexfoundry/internal/blobstore"
	"github.com/indexfoundry/indexfoundry/internal/config"
	"github.com/indexfoundry/indexfoundry/internal/embed"
	"github.com/indexfoundry/indexfoundry/internal/fetch"
	"github.com/indexfoundry/indexfoundry/internal/ierrors"
	"github.com/indexfoundry/indexfoundry/internal/vectorstore"
	"github.com/indexfoundry/indexfoundry/internal/workspace"
)

// Request is a single build invocation's parameters (§4.H Inputs).
type Request struct {
	ProjectID            string
	Force                bool
	DryRun               bool
	ResumeFromCheckpoint bool
	CheckpointID         string
}

// Progress reports the work-set accounting for one invocation (§4.H Outputs).
type Progress struct {
	TotalSources     int    `json:"total_sources"`
	ProcessedThisRun int    `json:"processed_this_run"`
	Remaining        int    `json:"remaining"`
	HasMore          bool   `json:"has_more"`
	CheckpointID     string `json:"checkpoint_id,omitempty"`
}

// Metrics is the cost/timing accounting for one invocation (§4.H Outputs).
type Metrics struct {
	DurationMS       int64   `json:"duration_ms"`
	FetchTimeMS      int64   `json:"fetch_time_ms"`
	ChunkTimeMS      int64   `json:"chunk_time_ms"`
	EmbedTimeMS      int64   `json:"embed_time_ms"`
	TokensUsed       int     `json:"tokens_used"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
}

// Result is a build invocation's full outcome.
type Result struct {
	Success      bool     `json:"success"`
	ChunksAdded  int      `json:"chunks_added"`
	VectorsAdded int      `json:"vectors_added"`
	Errors       []string `json:"errors,omitempty"`
	Progress     Progress `json:"progress"`
	Metrics      Metrics  `json:"metrics"`
	// RecommendedMaxSourcesPerBuild is set only for timeout_strategy=split
	// on a timeout, naming a smaller per-invocation cap for future runs.
	RecommendedMaxSourcesPerBuild int `json:"recommended_max_sources_per_build,omitempty"`
}

// graceWindow bounds how long an in-flight source gets to finish after
// the hard deadline under the checkpoint/split timeout strategies,
// capped at 30s or a tenth of the budget, whichever is smaller.
func graceWindow(timeout time.Duration) time.Duration {
	g := timeout / 10
	if g > 30*time.Second {
		g = 30 * time.Second
	}
	return g
}

// Builder drives builds for any project in a workspace.
type Builder struct {
	Workspace *workspace.Workspace
	Blobs     *blobstore.Store
	Fetcher   *fetch.Fetcher
	Provider  embed.Provider
}

// New constructs a Builder from its collaborators.
func New(ws *workspace.Workspace, blobs *blobstore.Store, fetcher *fetch.Fetcher, provider embed.Provider) *Builder {
	return &Builder{Workspace: ws, Blobs: blobs, Fetcher: fetcher, Provider: provider}
}

// Run drives one build invocation for req.ProjectID (§4.H main algorithm).
func (b *Builder) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	project, err := b.Workspace.LoadProject(req.ProjectID)
	if err != nil {
		return nil, err
	}
	opts := project.Config.Build
	opts.Clamp()

	if req.Force {
		if err := b.resetCompletedToPending(req.ProjectID); err != nil {
			return nil, err
		}
	}

	working, total, err := b.plan(req.ProjectID, opts)
	if err != nil {
		return nil, err
	}

	if req.DryRun {
		return &Result{
			Success: true,
			Progress: Progress{
				TotalSources:     total,
				ProcessedThisRun: 0,
				Remaining:        len(working),
				HasMore:          len(working) > 0,
			},
		}, nil
	}

	var seed CheckpointSeed
	if req.ResumeFromCheckpoint {
		seed, working, err = b.resumeCheckpoint(req.ProjectID, req.CheckpointID, working)
		if err != nil {
			return nil, err
		}
	}

	run := &runState{
		projectID:            req.ProjectID,
		project:              project,
		opts:                 opts,
		metrics:              seed.Metrics,
		completedIDs:         append([]string{}, seed.CompletedSourceIDs...),
		seededCompletedCount: len(seed.CompletedSourceIDs),
		timeoutDeadline:      start.Add(time.Duration(opts.BuildTimeoutMS) * time.Millisecond),
	}

	grace := graceWindow(time.Duration(opts.BuildTimeoutMS) * time.Millisecond)
	workDeadline := run.timeoutDeadline
	if opts.TimeoutStrategy != "skip" {
		workDeadline = workDeadline.Add(grace)
	}
	workCtx, cancel := context.WithDeadline(ctx, workDeadline)
	defer cancel()

	result := b.dispatch(workCtx, run, working)
	result.Progress.TotalSources = total
	result.Metrics.DurationMS = time.Since(start).Milliseconds()
	if _, known := embed.EstimateCost(b.Provider.ModelName(), 0); !known && result.VectorsAdded > 0 {
		result.Errors = append(result.Errors, "no price for embedding model "+b.Provider.ModelName()+"; estimated cost counted as 0")
	}

	if opts.TimeoutStrategy == "split" && result.Progress.HasMore {
		rec := opts.MaxSourcesPerBuild / 2
		if rec < 1 {
			rec = 1
		}
		result.RecommendedMaxSourcesPerBuild = rec
	}

	return result, nil
}

// runState threads shared, mutex-protected build bookkeeping through
// the concurrent per-source pipelines dispatched by dispatch().
type runState struct {
	projectID       string
	project         *workspace.Project
	opts            config.BuildOptions
	timeoutDeadline time.Time

	// seededCompletedCount is how many of completedIDs came from a
	// resumed checkpoint rather than this invocation, so Progress's
	// ProcessedThisRun can report just this run's own work.
	seededCompletedCount int

	mu           sync.Mutex
	metrics      Metrics
	completedIDs []string
	errs         []string
	chunksAdded  int
	vectorsAdded int
	fatal        error
}

func (r *runState) recordTerminal(sourceID string, chunks, vectors, tokens int, fetchMS, chunkMS, embedMS int64, errMsg string, fatal error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completedIDs = append(r.completedIDs, sourceID)
	r.chunksAdded += chunks
	r.vectorsAdded += vectors
	r.metrics.TokensUsed += tokens
	r.metrics.FetchTimeMS += fetchMS
	r.metrics.ChunkTimeMS += chunkMS
	r.metrics.EmbedTimeMS += embedMS
	if errMsg != "" {
		r.errs = append(r.errs, sourceID+": "+errMsg)
	}
	if fatal != nil && r.fatal == nil {
		r.fatal = fatal
	}
}

func (r *runState) isFatal() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fatal
}

// setFatal records a build-aborting error not tied to any single source
// (e.g. a checkpoint write failure).
func (r *runState) setFatal(msg string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, msg)
	if r.fatal == nil {
		r.fatal = err
	}
}

// isFatalCode reports whether err's ierrors code is one of the three
// build-aborting codes named in §4.H's error policy.
func isFatalCode(err error) bool {
	switch ierrors.Code(err) {
	case ierrors.CodeDimensionMismatch, ierrors.CodeMissingAPIKey, ierrors.CodeCheckpointWriteFailed:
		return true
	}
	return false
}

func (b *Builder) resetCompletedToPending(projectID string) error {
	sources, err := b.Workspace.ListSources(projectID)
	if err != nil {
		return err
	}
	for _, s := range sources {
		if s.Status != workspace.StatusCompleted {
			continue
		}
		if err := b.Workspace.TruncateForRebuild(projectID, map[string]struct{}{s.ID: {}}); err != nil {
			return err
		}
		if err := b.Workspace.UpdateSourceStatus(projectID, s.ID, workspace.StatusPending, "", 0); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) plan(projectID string, opts config.BuildOptions) (working []workspace.SourceRecord, total int, err error) {
	sources, err := b.Workspace.ListSources(projectID)
	if err != nil {
		return nil, 0, err
	}
	total = len(sources)
	for _, s := range sources {
		if s.Status == workspace.StatusPending || s.Status == workspace.StatusFailed {
			working = append(working, s)
		}
	}
	if len(working) > opts.MaxSourcesPerBuild {
		working = working[:opts.MaxSourcesPerBuild]
	}
	return working, total, nil
}

// CheckpointSeed carries forward aggregate state from a resumed checkpoint.
type CheckpointSeed struct {
	Metrics            Metrics
	CompletedSourceIDs []string
}

func (b *Builder) resumeCheckpoint(projectID, checkpointID string, working []workspace.SourceRecord) (CheckpointSeed, []workspace.SourceRecord, error) {
	ckpt, err := b.Workspace.LoadLatestCheckpoint(projectID)
	if err != nil {
		return CheckpointSeed{}, working, err
	}
	if ckpt == nil || (checkpointID != "" && ckpt.CheckpointID != checkpointID) {
		return CheckpointSeed{}, working, nil
	}

	done := make(map[string]struct{}, len(ckpt.CompletedSourceIDs))
	for _, id := range ckpt.CompletedSourceIDs {
		done[id] = struct{}{}
	}
	var remaining []workspace.SourceRecord
	for _, s := range working {
		if _, ok := done[s.ID]; !ok {
			remaining = append(remaining, s)
		}
	}

	seed := CheckpointSeed{
		CompletedSourceIDs: ckpt.CompletedSourceIDs,
		Metrics: Metrics{
			TokensUsed:       ckpt.Stats.TokensUsed,
			EstimatedCostUSD: ckpt.Stats.EstimatedCost,
			DurationMS:       ckpt.Stats.DurationMS,
		},
	}
	return seed, remaining, nil
}

func (b *Builder) vectorCollectionInfo(project *workspace.Project) vectorstore.CollectionInfo {
	return vectorstore.CollectionInfo{
		Name:      project.ID,
		Model:     project.Config.Embedding.ModelName,
		Provider:  project.Config.Embedding.Provider,
		Dimension: project.Config.Embedding.Dimension,
	}
}
