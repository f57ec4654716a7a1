// Package retriever turns a user question into the top-k statute articles and
// renders them as the context block handed to the answer composer.
package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"legalrag/internal/domain"
)

// DefaultTopK is the number of articles retrieved per question.
const DefaultTopK = 3

// Index is the query side of the vector index.
type Index interface {
	ModelID() string
	Query(vec []float32, k int) (domain.RetrievalResult, error)
}

// Retriever embeds queries with the same model the index was built with.
type Retriever struct {
	index    Index
	embedder domain.Embedder
	topK     int
	logger   *slog.Logger
}

// New pairs an index with its embedder. A model mismatch is rejected with
// domain.ErrCorruptIndex since the stored vectors would be meaningless.
func New(ix Index, emb domain.Embedder, topK int, logger *slog.Logger) (*Retriever, error) {
	if ix == nil || emb == nil {
		return nil, domain.E(domain.KindInvalidInput, "retriever", "index and embedder are required", nil)
	}
	if ix.ModelID() != emb.ModelID() {
		return nil, domain.E(domain.KindCorruptIndex, "retriever",
			fmt.Sprintf("index model %q does not match embedder %q", ix.ModelID(), emb.ModelID()), nil)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Retriever{index: ix, embedder: emb, topK: topK, logger: logger}, nil
}

// Retrieve returns up to k articles for query, most relevant first.
// k <= 0 uses the configured default.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.E(domain.KindInvalidInput, "retrieve", "query is empty", nil)
	}
	if k <= 0 {
		k = r.topK
	}
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		if domain.KindOf(err) != domain.KindEmbeddingService {
			err = domain.E(domain.KindEmbeddingService, "retrieve", "embedding query", err)
		}
		return nil, err
	}
	if isZero(vec) {
		r.logger.Debug("query has no indexable terms", "query", query)
		return domain.RetrievalResult{}, nil
	}
	res, err := r.index.Query(vec, k)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("retrieved articles", "k", k, "hits", len(res))
	return res, nil
}

// FormatContext renders each article as "- Art. N (title): body", separated by blank lines.
func FormatContext(res domain.RetrievalResult) string {
	parts := make([]string, 0, len(res))
	for _, s := range res {
		parts = append(parts, fmt.Sprintf("- Art. %s (%s): %s", s.Record.Number, s.Record.Title, s.Record.Body))
	}
	return strings.Join(parts, "\n\n")
}

func isZero(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}
