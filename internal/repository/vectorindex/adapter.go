// Package vectorindex wraps the low-level db.Store vector search primitives
// with the §4.2 contract: index lifecycle, idempotent batched upsert, and
// bounded topK query.
package vectorindex

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/kailas-cloud/creatormatch/internal/db"
	"github.com/kailas-cloud/creatormatch/internal/domain"
)

const (
	minTopK      = 1
	maxTopK      = 100
	maxBatchSize = 100

	vectorFieldName = "vector"
)

// Vector is a single creator embedding plus TAG-filterable metadata, ready
// for upsert.
type Vector struct {
	ID       string
	Embedding []float32
	Metadata map[string]string // flattened onto TAG fields; also stores niches etc.
}

// Stats summarizes the index's current state.
type Stats struct {
	IndexName string
	DocCount  int
}

// Adapter is the §4.2 Vector Index Adapter, backed by Redis/Valkey HNSW via
// rueidis, grounded on internal/db/redis.
type Adapter struct {
	store      db.Store
	indexName  string
	dimension  int
	keyPrefix  string
	hnswM      int
	hnswEF     int
}

// Config configures an Adapter.
type Config struct {
	IndexName string
	Dimension int
	KeyPrefix string
	HNSWM     int
	HNSWEFConstruct int
}

// New builds an Adapter over the given low-level store.
func New(store db.Store, cfg Config) *Adapter {
	return &Adapter{
		store:     store,
		indexName: cfg.IndexName,
		dimension: cfg.Dimension,
		keyPrefix: cfg.KeyPrefix,
		hnswM:     cfg.HNSWM,
		hnswEF:    cfg.HNSWEFConstruct,
	}
}

// EnsureIndex creates the FT index if absent. At-most-once under races: an
// "already exists" outcome from the store is treated as success.
func (a *Adapter) EnsureIndex(ctx context.Context) error {
	exists, err := a.store.IndexExists(ctx, a.indexName)
	if err != nil {
		return fmt.Errorf("check index existence: %w", domain.ErrDependencyUnavailable)
	}
	if exists {
		return nil
	}

	def, err := db.NewIndex(a.indexName).
		OnHash().
		Prefix(a.keyPrefix).
		Tag("niches").
		Tag("region").
		VectorHNSW(vectorFieldName, a.dimension, db.DistanceCosine, a.hnswM, a.hnswEF).
		Build()
	if err != nil {
		return fmt.Errorf("build index definition: %w", domain.ErrConfigInvalid)
	}

	if err := a.store.CreateIndex(ctx, def); err != nil {
		if err == db.ErrIndexExists {
			return nil
		}
		return fmt.Errorf("create index: %w", domain.ErrDependencyUnavailable)
	}
	return nil
}

// Upsert writes vectors in batches of at most maxBatchSize, idempotent on id.
func (a *Adapter) Upsert(ctx context.Context, vectors []Vector) error {
	items := make([]db.HashSetItem, 0, len(vectors))
	for _, v := range vectors {
		if len(v.Embedding) != a.dimension {
			return fmt.Errorf("vector %s has dimension %d, want %d: %w", v.ID, len(v.Embedding), a.dimension, domain.ErrConfigInvalid)
		}
		fields := make(map[string]string, len(v.Metadata)+1)
		for k, val := range v.Metadata {
			fields[k] = val
		}
		fields[vectorFieldName] = encodeVector(v.Embedding)
		items = append(items, db.HashSetItem{Key: a.keyPrefix + v.ID, Fields: fields})
	}

	for start := 0; start < len(items); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(items) {
			end = len(items)
		}
		if err := a.store.HSetMulti(ctx, items[start:end]); err != nil {
			return fmt.Errorf("upsert vectors: %w", domain.ErrDependencyUnavailable)
		}
	}
	return nil
}

// QueryResult is a single nearest-neighbor hit.
type QueryResult struct {
	ID       string
	Score    float64
	Metadata map[string]string
}

// Query runs a KNN search, clamping topK to [1,100] and filters to an ANDed
// exact-match TAG predicate.
func (a *Adapter) Query(ctx context.Context, vector []float32, topK int, filters map[string]string) ([]QueryResult, error) {
	if len(vector) != a.dimension {
		return nil, fmt.Errorf("query vector has dimension %d, want %d: %w", len(vector), a.dimension, domain.ErrConfigInvalid)
	}
	topK = clampTopK(topK)

	result, err := a.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName: a.indexName,
		Filters:   filters,
		Vector:    vector,
		K:         topK,
	})
	if err != nil {
		return nil, fmt.Errorf("query vector index: %w", domain.ErrDependencyUnavailable)
	}

	out := make([]QueryResult, 0, len(result.Entries))
	for _, e := range result.Entries {
		out = append(out, QueryResult{ID: stripPrefix(e.Key, a.keyPrefix), Score: e.Score, Metadata: e.Fields})
	}
	return out, nil
}

// Stats reports whether the index exists; document counts require FT.INFO
// parsing the underlying client does not yet expose, so DocCount is best-effort.
func (a *Adapter) Stats(ctx context.Context) (Stats, error) {
	exists, err := a.store.IndexExists(ctx, a.indexName)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", domain.ErrDependencyUnavailable)
	}
	if !exists {
		return Stats{}, db.ErrIndexNotFound
	}
	return Stats{IndexName: a.indexName}, nil
}

func clampTopK(k int) int {
	if k < minTopK {
		return minTopK
	}
	if k > maxTopK {
		return maxTopK
	}
	return k
}

func stripPrefix(key, prefix string) string {
	if len(key) > len(prefix) && key[:len(prefix)] == prefix {
		return key[len(prefix):]
	}
	return key
}

// encodeVector renders a float32 slice as little-endian FP32 bytes, the wire
// format FT.SEARCH expects for a HASH-backed VECTOR field.
func encodeVector(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
