package memory

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"legalrag/internal/domain"
	"legalrag/internal/vectorstore"
)

// DefaultTopK is used when Search is called with a non-positive topK.
const DefaultTopK = 3

// Storage is a simple in-memory vector store using brute-force cosine similarity.
// Vectors are expected to be L2-normalized, so the dot product is the cosine.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	ids       []string
	records   []domain.ArticleRecord
	vectors   [][]float32
}

var _ vectorstore.Storage = (*Storage)(nil)

func NewStorage() *Storage { return &Storage{} }

func (s *Storage) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.ids = nil
	s.records = nil
	s.vectors = nil
	return nil
}

// Dimension reports the vector size fixed by Init.
func (s *Storage) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}

// Upsert appends entries in the given order; insertion order breaks score ties.
func (s *Storage) Upsert(ids []string, records []domain.ArticleRecord, vectors [][]float32) error {
	if len(ids) != len(records) || len(records) != len(vectors) {
		return errors.New("ids, records and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		if len(v) != s.dimension {
			return fmt.Errorf("vector dimension mismatch: got %d want %d", len(v), s.dimension)
		}
	}
	s.ids = append(s.ids, ids...)
	s.records = append(s.records, records...)
	s.vectors = append(s.vectors, vectors...)
	return nil
}

func (s *Storage) Search(vector []float32, topK int) ([]domain.ScoredArticle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.vectors) == 0 {
		return nil, nil
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query dimension mismatch: got %d want %d", len(vector), s.dimension)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	scores := make([]float64, len(s.vectors))
	for i := range s.vectors {
		scores[i] = dot(s.vectors[i], vector)
	}
	idxs := argsortDesc(scores)
	if topK > len(idxs) {
		topK = len(idxs)
	}
	results := make([]domain.ScoredArticle, 0, topK)
	for i := 0; i < topK; i++ {
		j := idxs[i]
		results = append(results, domain.ScoredArticle{Record: s.records[j], Score: scores[j]})
	}
	return results, nil
}

// Each calls fn for every entry in insertion order.
func (s *Storage) Each(fn func(id string, rec domain.ArticleRecord, vec []float32)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.ids {
		fn(s.ids[i], s.records[i], s.vectors[i])
	}
}

func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Storage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = nil
	s.records = nil
	s.vectors = nil
	return nil
}

func dot(a, b []float32) float64 {
	sum := 0.0
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// argsortDesc orders indexes by descending score, keeping insertion order on ties.
func argsortDesc(vals []float64) []int {
	idxs := make([]int, len(vals))
	for i := range vals {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool { return vals[idxs[a]] > vals[idxs[b]] })
	return idxs
}
