package vectorstore

import "legalrag/internal/domain"

// Storage holds article vectors and supports similarity search.
type Storage interface {
	Init(dimension int) error
	Upsert(ids []string, records []domain.ArticleRecord, vectors [][]float32) error
	Search(vector []float32, topK int) ([]domain.ScoredArticle, error)
	Len() int
	Clear() error
}
