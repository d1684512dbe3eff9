package vectorstore

import (
	"sync"

	"github.com/coder/hnsw"
	"github.com/indexfoundry/indexfoundry/internal/workspace"
)

// ANNThreshold is a vector-count threshold for the optional ANN pre-filter
// below. Nothing in this module consults it: the retriever does not call
// ANNIndex and always ranks by an exhaustive cosine scan. Grounded on the
// teacher's HNSWStore (internal/store/hnsw.go); unlike the teacher's store,
// this one is a pre-filter only and never ranks by the graph's own distance.
const ANNThreshold = 5000

// ANNIndex wraps a coder/hnsw graph that can narrow a large collection down
// to a candidate set. The retriever does not use it.
type ANNIndex struct {
	mu      sync.RWMutex
	graph   *hnsw.Graph[uint64]
	idByKey map[uint64]string
	keyByID map[string]uint64
	nextKey uint64
}

// NewANNIndex builds a fresh, empty cosine-distance graph.
func NewANNIndex() *ANNIndex {
	g := hnsw.NewGraph[uint64]()
	g.Distance = hnsw.CosineDistance
	g.M = 16
	g.Ml = 0.25
	g.EfSearch = 20
	return &ANNIndex{
		graph:   g,
		idByKey: make(map[uint64]string),
		keyByID: make(map[string]uint64),
	}
}

// Add inserts or replaces the vector for chunkID.
func (a *ANNIndex) Add(chunkID string, vector []float32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if oldKey, ok := a.keyByID[chunkID]; ok {
		delete(a.idByKey, oldKey) // lazy delete: coder/hnsw can't safely remove the last node
	}
	key := a.nextKey
	a.nextKey++

	vec := make([]float32, len(vector))
	copy(vec, vector)
	a.graph.Add(hnsw.MakeNode(key, vec))
	a.idByKey[key] = chunkID
	a.keyByID[chunkID] = key
}

// Len returns the number of live (non-orphaned) chunk ids in the index.
func (a *ANNIndex) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.keyByID)
}

// CandidateIDs returns up to k chunk ids nearest to query, used only to
// narrow the exhaustive scorer's working set. Returns nil if the index
// is empty.
func (a *ANNIndex) CandidateIDs(query []float32, k int) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.graph.Len() == 0 {
		return nil
	}
	nodes := a.graph.Search(query, k)
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if id, ok := a.idByKey[n.Key]; ok {
			out = append(out, id)
		}
	}
	return out
}

// BuildANNIndex constructs an index from a full set of embedding records,
// keyed by ChunkID.
func BuildANNIndex(records []workspace.EmbeddingRecord) *ANNIndex {
	idx := NewANNIndex()
	for _, r := range records {
		idx.Add(r.ChunkID, r.Vector)
	}
	return idx
}
