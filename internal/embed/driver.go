package embed

import (
	"context"
	"strconv"

	"github.com/indexfoundry/indexfoundry/internal/config"
	"github.com/indexfoundry/indexfoundry/internal/ierrors"
	"github.com/indexfoundry/indexfoundry/internal/workspace"
)

// Metrics accumulates the cost/token accounting §4.H asks the build
// orchestrator to report back.
type Metrics struct {
	TokensUsed       int
	EstimatedCostUSD float64
}

// Driver batches chunks through a Provider per §4.F: grouping by
// EmbeddingBatchSize, retrying transient failures, normalizing, skipping
// already-embedded chunks unless Force, and emitting records in stable
// input order regardless of the provider's response order.
type Driver struct {
	Provider  Provider
	BatchSize int
	Normalize bool
	Force     bool
	Retry     RetryConfig
}

// NewDriver returns a Driver with the given provider and spec default
// batch size (50).
func NewDriver(provider Provider) *Driver {
	return &Driver{
		Provider:  provider,
		BatchSize: 50,
		Normalize: true,
		Retry:     DefaultRetryConfig(),
	}
}

// EmbedChunks embeds chunks not already present in alreadyEmbedded
// (unless d.Force), returning EmbeddingRecord entries in the same order
// as the input chunk slice.
func (d *Driver) EmbedChunks(ctx context.Context, model config.EmbeddingModel, chunks []workspace.Chunk, alreadyEmbedded map[string]struct{}) ([]workspace.EmbeddingRecord, Metrics, error) {
	if model.Provider != "static" && model.APIKeyEnv != "" && model.APIKey() == "" {
		return nil, Metrics{}, ierrors.New(ierrors.CodeMissingAPIKey, "missing API key for env var "+model.APIKeyEnv, nil)
	}

	var pending []workspace.Chunk
	for _, c := range chunks {
		if _, done := alreadyEmbedded[c.ChunkID]; done && !d.Force {
			continue
		}
		pending = append(pending, c)
	}
	if len(pending) == 0 {
		return nil, Metrics{}, nil
	}

	batchSize := d.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	var records []workspace.EmbeddingRecord
	var metrics Metrics

	for start := 0; start < len(pending); start += batchSize {
		end := start + batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]
		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		var vectors [][]float32
		err := withRetry(ctx, d.Retry, isRetryableEmbedError, func() error {
			v, err := d.Provider.EmbedBatch(ctx, texts)
			if err != nil {
				return err
			}
			vectors = v
			return nil
		})
		if err != nil {
			return records, metrics, ierrors.New(ierrors.CodeEmbedProviderError, "embed batch: "+err.Error(), err).WithRetryable(true)
		}

		expectedDim := model.Dimension
		if expectedDim == 0 {
			expectedDim = d.Provider.Dimension()
		}
		for i, v := range vectors {
			if len(v) != expectedDim {
				return records, metrics, ierrors.New(ierrors.CodeDimensionMismatch,
					"embedding dimension mismatch", nil).
					WithDetail("expected", strconv.Itoa(expectedDim)).
					WithDetail("actual", strconv.Itoa(len(v)))
			}
			if d.Normalize {
				v = L2Normalize(v)
			}
			records = append(records, workspace.EmbeddingRecord{
				ChunkID:  batch[i].ChunkID,
				Vector:   v,
				Model:    d.Provider.ModelName(),
				Provider: model.Provider,
			})
			metrics.TokensUsed += batch[i].TokenCount
		}
	}

	if cost, ok := EstimateCost(d.Provider.ModelName(), metrics.TokensUsed); ok {
		metrics.EstimatedCostUSD = cost
	}
	return records, metrics, nil
}

// isRetryableEmbedError treats every provider error as transient; the
// driver's own DimensionMismatch/MissingApiKey checks happen outside
// withRetry precisely because those must never be retried.
func isRetryableEmbedError(err error) bool { return err != nil }

