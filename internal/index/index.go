// Package index owns the article vector index: building it from records,
// persisting it to disk, loading it back and answering nearest-neighbor queries.
package index

import (
	"math"
	"time"

	"legalrag/internal/domain"
	"legalrag/internal/vectorstore/memory"
)

const (
	// FormatVersion is bumped whenever the on-disk layout changes.
	FormatVersion = 1

	// DefaultTopK is used when a query asks for k <= 0.
	DefaultTopK = memory.DefaultTopK
)

// Entry pairs a record with its vector and stable identifier.
type Entry struct {
	ID     string
	Record domain.ArticleRecord
	Vector []float32
}

// Index is immutable once built or loaded and safe for concurrent queries.
type Index struct {
	manifest Manifest
	store    *memory.Storage
}

func newIndex(m Manifest, entries []Entry) (*Index, error) {
	store := memory.NewStorage()
	ix := &Index{manifest: m, store: store}
	if len(entries) == 0 {
		return ix, nil
	}
	if err := store.Init(m.Dim); err != nil {
		return nil, err
	}
	ids := make([]string, len(entries))
	recs := make([]domain.ArticleRecord, len(entries))
	vecs := make([][]float32, len(entries))
	for i, e := range entries {
		ids[i], recs[i], vecs[i] = e.ID, e.Record, e.Vector
	}
	if err := store.Upsert(ids, recs, vecs); err != nil {
		return nil, err
	}
	return ix, nil
}

// Empty returns an index with no entries pinned to modelID.
func Empty(modelID, sourceLabel string) *Index {
	ix, _ := newIndex(Manifest{
		FormatVersion: FormatVersion,
		ModelID:       modelID,
		SourceLabel:   sourceLabel,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
	}, nil)
	return ix
}

// Manifest returns the index metadata.
func (ix *Index) Manifest() Manifest { return ix.manifest }

// ModelID is the embedding model the vectors were produced with.
func (ix *Index) ModelID() string { return ix.manifest.ModelID }

// Len reports the number of entries.
func (ix *Index) Len() int { return ix.store.Len() }

// Entries returns a copy of all entries in insertion order.
func (ix *Index) Entries() []Entry {
	out := make([]Entry, 0, ix.store.Len())
	ix.store.Each(func(id string, rec domain.ArticleRecord, vec []float32) {
		v := make([]float32, len(vec))
		copy(v, vec)
		out = append(out, Entry{ID: id, Record: rec, Vector: v})
	})
	return out
}

// Records returns the article records in insertion order.
func (ix *Index) Records() []domain.ArticleRecord {
	out := make([]domain.ArticleRecord, 0, ix.store.Len())
	ix.store.Each(func(_ string, rec domain.ArticleRecord, _ []float32) {
		out = append(out, rec)
	})
	return out
}

// Query returns the k entries most similar to vec by cosine similarity.
// Ties keep insertion order. k larger than the index returns every entry.
func (ix *Index) Query(vec []float32, k int) (domain.RetrievalResult, error) {
	if ix.store.Len() == 0 {
		return domain.RetrievalResult{}, nil
	}
	if k <= 0 {
		k = DefaultTopK
	}
	hits, err := ix.store.Search(NormalizeL2(vec), k)
	if err != nil {
		return nil, domain.E(domain.KindInvalidInput, "index query", "", err)
	}
	return domain.RetrievalResult(hits), nil
}

// NormalizeL2 returns a new vector normalized to unit L2 norm.
func NormalizeL2(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	n := math.Sqrt(sum)
	if n == 0 {
		copy(out, v)
		return out
	}
	inv := 1.0 / n
	for i := range v {
		out[i] = float32(float64(v[i]) * inv)
	}
	return out
}
