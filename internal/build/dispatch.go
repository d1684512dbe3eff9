package build

import (
	"context"
	"sync"
	"time"

	"github.com/indexfoundry/indexfoundry/internal/workspace"
)

// dispatch runs working through the bounded-concurrency pipeline,
// honoring run.opts.FetchConcurrency as the number of sources processed
// at once (the spec's "bounded fetcher pool... consuming a source work
// channel", generalized here to the whole per-source pipeline rather
// than fetch alone, since chunk/embed are themselves bounded by the
// embed driver's own batching).
func (b *Builder) dispatch(ctx context.Context, run *runState, working []workspace.SourceRecord) *Result {
	sem := make(chan struct{}, run.opts.FetchConcurrency)
	var wg sync.WaitGroup

	timedOutDispatch := false
	dispatched := 0

	for _, src := range working {
		if time.Now().After(run.timeoutDeadline) {
			timedOutDispatch = true
			break
		}
		if run.isFatal() != nil {
			break
		}

		select {
		case <-ctx.Done():
			timedOutDispatch = true
		case sem <- struct{}{}:
		}
		if timedOutDispatch {
			break
		}

		dispatched++
		wg.Add(1)
		go func(s workspace.SourceRecord) {
			defer wg.Done()
			defer func() { <-sem }()
			b.processSource(ctx, run, s)
		}(src)
	}
	wg.Wait()

	run.mu.Lock()
	processedThisRun := len(run.completedIDs) - run.seededCompletedCount
	result := &Result{
		Success:      run.fatal == nil,
		ChunksAdded:  run.chunksAdded,
		VectorsAdded: run.vectorsAdded,
		Errors:       append([]string{}, run.errs...),
		Metrics:      run.metrics,
		Progress: Progress{
			ProcessedThisRun: processedThisRun,
		},
	}
	if run.fatal != nil {
		result.Errors = append(result.Errors, run.fatal.Error())
	}
	completedIDs := append([]string{}, run.completedIDs...)
	run.mu.Unlock()

	// Remaining/HasMore reflect the project's total outstanding
	// pending-or-failed sources, not this invocation's capped working
	// set: a build that fully dispatches its capped slice still leaves
	// work behind when the project has more pending sources than
	// MaxSourcesPerBuild (§4.H S2). Abandoned in-flight sources are
	// reset to pending by processSource before this point, so a live
	// re-read of source status is authoritative for every outcome
	// (success, failure, or timeout).
	remaining := 0
	if sources, err := b.Workspace.ListSources(run.projectID); err == nil {
		for _, s := range sources {
			if s.Status == workspace.StatusPending || s.Status == workspace.StatusFailed {
				remaining++
			}
		}
	}
	hasMore := remaining > 0
	result.Progress.Remaining = remaining
	result.Progress.HasMore = hasMore

	if run.opts.EnableCheckpointing {
		if !hasMore && run.fatal == nil {
			_ = b.Workspace.ClearCheckpoint(run.projectID)
		} else {
			ckpt := &workspace.Checkpoint{
				ProjectID:          run.projectID,
				CompletedSourceIDs: completedIDs,
				Stats: workspace.CheckpointStats{
					ChunksAdded:   result.ChunksAdded,
					VectorsAdded:  result.VectorsAdded,
					TokensUsed:    result.Metrics.TokensUsed,
					EstimatedCost: result.Metrics.EstimatedCostUSD,
				},
			}
			if err := b.Workspace.SaveCheckpoint(run.projectID, ckpt); err != nil {
				run.setFatal("checkpoint write failed: "+err.Error(), err)
				result.Success = false
				result.Errors = append(result.Errors, err.Error())
			} else {
				result.Progress.CheckpointID = ckpt.CheckpointID
			}
		}
	}

	return result
}
