package searchapi

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/indexfoundry/indexfoundry/internal/ierrors"
	"github.com/indexfoundry/indexfoundry/internal/retrieve"
	"github.com/indexfoundry/indexfoundry/internal/vectorstore"
	"github.com/indexfoundry/indexfoundry/internal/workspace"
)

// ProjectContext bundles a single project's dependencies so Handler
// never has to know how a Retriever or vector store gets constructed.
type ProjectContext struct {
	Workspace *workspace.Workspace
	Vectors   *vectorstore.Store
	Retriever *retrieve.Retriever
}

// Resolver looks up a project's dependencies by id.
type Resolver func(projectID string) (*ProjectContext, error)

// Handler dispatches JSON-RPC requests to the §4.J operation set.
// Grounded on the teacher's daemon.Server.handleRequest method switch,
// generalized from one fixed search method to the full operation list.
type Handler struct {
	Resolve Resolver
	Started time.Time
	Metrics *Metrics
}

// NewHandler returns a Handler backed by resolve.
func NewHandler(resolve Resolver) *Handler {
	return &Handler{Resolve: resolve, Started: time.Now(), Metrics: NewMetrics()}
}

// HandleRequest dispatches req to the matching operation and always
// returns a well-formed Response, never an error — failures are
// reported as a JSON-RPC Error per the teacher's envelope convention.
func (h *Handler) HandleRequest(ctx context.Context, req Request) Response {
	switch req.Method {
	case MethodHealth:
		return newSuccess(req.ID, HealthResult{Status: "ok", Uptime: time.Since(h.Started).Round(time.Second).String()})
	case MethodStats:
		return h.handleStats(req)
	case MethodGetChunk:
		return h.handleGetChunk(req)
	case MethodListSources:
		return h.handleListSources(req)
	case MethodSearch:
		return h.handleSearch(ctx, req)
	case MethodGetDocument:
		return h.handleGetDocument(req)
	case MethodIndexInfo:
		return h.handleIndexInfo(req)
	default:
		return newError(req.ID, ErrCodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}
}

func decodeParams[T any](req Request) (T, error) {
	var out T
	data, err := json.Marshal(req.Params)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (h *Handler) resolve(projectID string, id string) (*ProjectContext, *Response) {
	pc, err := h.Resolve(projectID)
	if err != nil {
		resp := newError(id, ErrCodeProjectNotFound, err.Error())
		return nil, &resp
	}
	return pc, nil
}

func (h *Handler) handleStats(req Request) Response {
	params, err := decodeParams[ProjectParams](req)
	if err != nil {
		return newError(req.ID, ErrCodeInvalidParams, err.Error())
	}
	pc, errResp := h.resolve(params.ProjectID, req.ID)
	if errResp != nil {
		return *errResp
	}

	chunks, err := pc.Workspace.LoadChunks(params.ProjectID)
	if err != nil {
		return newError(req.ID, ErrCodeInternalError, err.Error())
	}
	sources, err := pc.Workspace.ListSources(params.ProjectID)
	if err != nil {
		return newError(req.ID, ErrCodeInternalError, err.Error())
	}
	vectors, err := pc.Vectors.Load()
	if err != nil {
		return newError(req.ID, ErrCodeInternalError, err.Error())
	}

	return newSuccess(req.ID, StatsResult{
		ProjectID:     params.ProjectID,
		ChunkCount:    len(chunks),
		VectorCount:   len(vectors),
		SourceCount:   len(sources),
		Uptime:        time.Since(h.Started).Round(time.Second).String(),
		SearchesTotal: h.Metrics.SearchesTotal(),
	})
}

func (h *Handler) handleGetChunk(req Request) Response {
	params, err := decodeParams[GetChunkParams](req)
	if err != nil {
		return newError(req.ID, ErrCodeInvalidParams, err.Error())
	}
	pc, errResp := h.resolve(params.ProjectID, req.ID)
	if errResp != nil {
		return *errResp
	}

	chunks, err := pc.Workspace.LoadChunks(params.ProjectID)
	if err != nil {
		return newError(req.ID, ErrCodeInternalError, err.Error())
	}
	for _, c := range chunks {
		if c.ChunkID == params.ChunkID {
			return newSuccess(req.ID, toResultItem(c, 0, 0, 0, false))
		}
	}
	return newError(req.ID, ErrCodeNotFound, "chunk not found: "+params.ChunkID)
}

func (h *Handler) handleListSources(req Request) Response {
	params, err := decodeParams[ListSourcesParams](req)
	if err != nil {
		return newError(req.ID, ErrCodeInvalidParams, err.Error())
	}
	pc, errResp := h.resolve(params.ProjectID, req.ID)
	if errResp != nil {
		return *errResp
	}

	sources, err := pc.Workspace.ListSources(params.ProjectID)
	if err != nil {
		return newError(req.ID, ErrCodeInternalError, err.Error())
	}
	out := make([]SourceSummary, 0, len(sources))
	for _, s := range sources {
		out = append(out, SourceSummary{
			ID:              s.ID,
			Type:            string(s.Type),
			URI:             s.URI,
			Status:          string(s.Status),
			ProcessedChunks: s.ProcessedChunks,
			LastError:       s.LastError,
		})
	}
	return newSuccess(req.ID, ListSourcesResult{Sources: out})
}

func (h *Handler) handleSearch(ctx context.Context, req Request) Response {
	params, err := decodeParams[SearchParams](req)
	if err != nil {
		return newError(req.ID, ErrCodeInvalidParams, err.Error())
	}
	pc, errResp := h.resolve(params.ProjectID, req.ID)
	if errResp != nil {
		return *errResp
	}

	opts := retrieve.Options{
		Mode:         params.Mode,
		TopK:         params.TopK,
		Alpha:        params.Alpha,
		FusionMethod: params.Fusion,
		Explain:      params.Explain,
	}
	if len(params.Filter) > 0 {
		f := &retrieve.Filter{}
		for _, c := range params.Filter {
			f.Predicates = append(f.Predicates, retrieve.Predicate{Field: c.Field, Op: c.Op, Value: c.Value})
		}
		opts.Filter = f
	}
	if params.Expand != nil {
		opts.Expand = retrieve.ExpandOptions{
			Strategy:       params.Expand.Strategy,
			AdjacentBefore: params.Expand.AdjacentBefore,
			AdjacentAfter:  params.Expand.AdjacentAfter,
			MaxTotalChunks: params.Expand.MaxTotalChunks,
		}
	}

	start := h.Metrics.ObserveSearchStart()
	resp, err := pc.Retriever.Search(ctx, params.Query, params.QueryVector, opts)
	h.Metrics.ObserveSearchDone(start, err)
	if err != nil {
		if ierrors.Code(err) == ierrors.CodeInvalidFilter {
			return newError(req.ID, ErrCodeInvalidFilter, err.Error())
		}
		return newError(req.ID, ErrCodeSearchFailed, err.Error())
	}

	items := make([]SearchResultItem, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		items = append(items, toResultItem(hit.Chunk, hit.Score, hit.RankSemantic, hit.RankKeyword, hit.IsExpansion))
	}
	return newSuccess(req.ID, SearchResult{Results: items, ModeUsed: resp.ModeUsed, Explain: resp.Explain})
}

func (h *Handler) handleGetDocument(req Request) Response {
	params, err := decodeParams[GetDocumentParams](req)
	if err != nil {
		return newError(req.ID, ErrCodeInvalidParams, err.Error())
	}
	pc, errResp := h.resolve(params.ProjectID, req.ID)
	if errResp != nil {
		return *errResp
	}

	chunks, err := pc.Workspace.LoadChunks(params.ProjectID)
	if err != nil {
		return newError(req.ID, ErrCodeInternalError, err.Error())
	}
	var doc []workspace.Chunk
	for _, c := range chunks {
		if c.DocID == params.DocID {
			doc = append(doc, c)
		}
	}
	sort.Slice(doc, func(i, j int) bool { return doc[i].ChunkIndex < doc[j].ChunkIndex })

	items := make([]SearchResultItem, 0, len(doc))
	for _, c := range doc {
		items = append(items, toResultItem(c, 0, 0, 0, false))
	}
	return newSuccess(req.ID, GetDocumentResult{DocID: params.DocID, Chunks: items})
}

func (h *Handler) handleIndexInfo(req Request) Response {
	params, err := decodeParams[IndexInfoParams](req)
	if err != nil {
		return newError(req.ID, ErrCodeInvalidParams, err.Error())
	}
	pc, errResp := h.resolve(params.ProjectID, req.ID)
	if errResp != nil {
		return *errResp
	}

	project, err := pc.Workspace.LoadProject(params.ProjectID)
	if err != nil {
		return newError(req.ID, ErrCodeInternalError, err.Error())
	}
	manifest, err := pc.Vectors.LoadManifest()
	if err != nil {
		return newError(req.ID, ErrCodeInternalError, err.Error())
	}

	compatible := manifest.Count == 0 ||
		(manifest.Model == project.Config.Embedding.ModelName && manifest.Dimension == project.Config.Embedding.Dimension)

	return newSuccess(req.ID, IndexInfoResult{
		ProjectID:          params.ProjectID,
		ConfiguredModel:    project.Config.Embedding.ModelName,
		ConfiguredProvider: project.Config.Embedding.Provider,
		ConfiguredDim:      project.Config.Embedding.Dimension,
		OnDiskModel:        manifest.Model,
		OnDiskProvider:     manifest.Provider,
		OnDiskDim:          manifest.Dimension,
		VectorCount:        manifest.Count,
		Compatible:         compatible,
	})
}

func toResultItem(c workspace.Chunk, score float64, rankSem, rankKw int, isExpansion bool) SearchResultItem {
	return SearchResultItem{
		ChunkID:      c.ChunkID,
		DocID:        c.DocID,
		SourceID:     c.SourceID,
		Text:         c.Text,
		Score:        score,
		RankSemantic: rankSem,
		RankKeyword:  rankKw,
		IsExpansion:  isExpansion,
	}
}
