package build

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/indexfoundry/indexfoundry/internal/chunk"
	"github.com/indexfoundry/indexfoundry/internal/config"
	"github.com/indexfoundry/indexfoundry/internal/embed"
	"github.com/indexfoundry/indexfoundry/internal/extract"
	"github.com/indexfoundry/indexfoundry/internal/fetch"
	"github.com/indexfoundry/indexfoundry/internal/vectorstore"
	"github.com/indexfoundry/indexfoundry/internal/workspace"
)

// processSource drives one source through fetch→chunk→embed→upsert
// (§4.H per-source state machine), persisting a status transition after
// each step so a crash mid-pipeline leaves the source in a resumable
// state. Errors from one source never abort other sources' pipelines —
// only DimensionMismatch/MissingApiKey/checkpoint-write failures do that,
// and checkpoint failures are handled by the caller, not here.
func (b *Builder) processSource(ctx context.Context, run *runState, src workspace.SourceRecord) {
	projectID := run.projectID

	_ = b.Workspace.UpdateSourceStatus(projectID, src.ID, workspace.StatusFetching, "", 0)

	fetchStart := time.Now()
	artifacts, err := b.fetchSource(ctx, src, run.opts.FetchConcurrency)
	fetchMS := time.Since(fetchStart).Milliseconds()

	if err != nil {
		if isAbandon(ctx, err) {
			_ = b.Workspace.UpdateSourceStatus(projectID, src.ID, workspace.StatusPending, "", 0)
			return
		}
		b.failSource(run, src, err, fetchMS, 0, 0)
		return
	}
	if len(artifacts) == 0 {
		b.failSource(run, src, errors.New("no content fetched"), fetchMS, 0, 0)
		return
	}

	_ = b.Workspace.UpdateSourceStatus(projectID, src.ID, workspace.StatusChunking, "", 0)

	chunkStart := time.Now()
	chunks, err := b.chunkArtifacts(src, artifacts, run.project.Config.Chunk)
	chunkMS := time.Since(chunkStart).Milliseconds()
	if err != nil {
		b.failSource(run, src, err, fetchMS, chunkMS, 0)
		return
	}
	if len(chunks) > 0 {
		if err := b.Workspace.AppendChunks(projectID, chunks); err != nil {
			b.failSource(run, src, err, fetchMS, chunkMS, 0)
			return
		}
	}

	_ = b.Workspace.UpdateSourceStatus(projectID, src.ID, workspace.StatusEmbedding, "", len(chunks))

	embedStart := time.Now()
	driver := embed.NewDriver(b.Provider)
	driver.BatchSize = run.opts.EmbeddingBatchSize
	records, metrics, err := driver.EmbedChunks(ctx, run.project.Config.Embedding, chunks, nil)
	embedMS := time.Since(embedStart).Milliseconds()
	if err != nil {
		if isAbandon(ctx, err) {
			_ = b.Workspace.UpdateSourceStatus(projectID, src.ID, workspace.StatusPending, "", 0)
			return
		}
		if isFatalCode(err) {
			run.setFatal(src.ID+": "+err.Error(), err)
			_ = b.Workspace.UpdateSourceStatus(projectID, src.ID, workspace.StatusFailed, err.Error(), len(chunks))
			return
		}
		b.failSource(run, src, err, fetchMS, chunkMS, embedMS)
		return
	}

	if len(records) > 0 {
		vs := vectorstore.New(b.Workspace, projectID)
		if err := vs.Upsert(b.vectorCollectionInfo(run.project), records); err != nil {
			if isFatalCode(err) {
				run.setFatal(src.ID+": "+err.Error(), err)
			}
			b.failSource(run, src, err, fetchMS, chunkMS, embedMS)
			return
		}
	}

	_ = b.Workspace.UpdateSourceStatus(projectID, src.ID, workspace.StatusCompleted, "", len(chunks))
	run.recordTerminal(src.ID, len(chunks), len(records), metrics.TokensUsed, fetchMS, chunkMS, embedMS, "", nil)
	run.mu.Lock()
	run.metrics.EstimatedCostUSD += metrics.EstimatedCostUSD
	run.mu.Unlock()
}

func (b *Builder) failSource(run *runState, src workspace.SourceRecord, err error, fetchMS, chunkMS, embedMS int64) {
	_ = b.Workspace.UpdateSourceStatus(run.projectID, src.ID, workspace.StatusFailed, err.Error(), 0)
	run.recordTerminal(src.ID, 0, 0, 0, fetchMS, chunkMS, embedMS, err.Error(), nil)
}

// isAbandon reports whether err reflects the pipeline's own context
// being cancelled or exceeding its deadline — the "skip" timeout
// strategy's abandonment path, which leaves the source pending rather
// than marking it failed.
func isAbandon(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled))
}

func (b *Builder) fetchSource(ctx context.Context, src workspace.SourceRecord, concurrency int) ([]fetch.RawArtifact, error) {
	switch src.Type {
	case workspace.SourceURL:
		a, err := b.Fetcher.FetchURL(ctx, src.URI, fetchOptionsFor(src, concurrency))
		if err != nil {
			return nil, err
		}
		return []fetch.RawArtifact{a}, nil
	case workspace.SourcePDF:
		a, err := b.Fetcher.FetchPDF(ctx, src.URI, fetchOptionsFor(src, concurrency))
		if err != nil {
			return nil, err
		}
		return []fetch.RawArtifact{a}, nil
	case workspace.SourceSitemap:
		artifacts, errs := b.Fetcher.FetchSitemap(ctx, src.URI, sitemapOptionsFor(src, concurrency))
		if len(artifacts) == 0 && len(errs) > 0 {
			return nil, errs[0]
		}
		return artifacts, nil
	case workspace.SourceFolder:
		artifacts, errs := b.Fetcher.FetchFolder(ctx, src.URI, folderOptionsFor(src))
		if len(artifacts) == 0 && len(errs) > 0 {
			return nil, errs[0]
		}
		return artifacts, nil
	default:
		return nil, errors.New("unknown source type: " + string(src.Type))
	}
}

// chunkArtifacts decodes each fetched artifact via the extractor dispatch
// and splits the result with the project's configured chunk strategy.
// Multi-page extractions (PDFs) are joined with form-feed separators so
// the page-boundary chunk strategy's \f detection still applies.
func (b *Builder) chunkArtifacts(src workspace.SourceRecord, artifacts []fetch.RawArtifact, cfg config.ChunkConfig) ([]workspace.Chunk, error) {
	var all []workspace.Chunk
	for _, a := range artifacts {
		raw, err := b.Blobs.Get(a.Sha256, a.ContentType)
		if err != nil {
			return nil, err
		}
		format := extract.DetectFormat(a.ContentType, sourceOption(src.Options, "format_hint", ""))
		mode := sourceOption(src.Options, "extract_mode", "")
		res, err := extract.Extract(raw, format, mode)
		if err != nil {
			return nil, err
		}

		text := res.Text
		if len(res.Pages) > 0 {
			text = joinPages(res.Pages)
		}
		if text == "" {
			continue
		}

		docID := chunk.DocID(raw)
		chunks, err := chunk.Split(docID, src.ID, text, cfg)
		if err != nil {
			return nil, err
		}
		all = append(all, chunks...)
	}
	return all, nil
}

func joinPages(pages []extract.Page) string {
	var b strings.Builder
	for i, p := range pages {
		if i > 0 {
			b.WriteString("\f")
		}
		b.WriteString(p.Text)
	}
	return b.String()
}
