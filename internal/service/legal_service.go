package service

import (
	"context"
	"log/slog"
	"sync"

	"legalrag/internal/composer"
	"legalrag/internal/domain"
	"legalrag/internal/enricher"
	"legalrag/internal/index"
	"legalrag/internal/retriever"
	"legalrag/internal/segmenter"
)

var _ domain.LegalService = (*LegalService)(nil)

// Deps are the collaborators of a LegalService.
type Deps struct {
	Manager  *index.Manager
	Embedder domain.Embedder
	Composer *composer.Composer
	TopK     int
	Logger   *slog.Logger
}

// LegalService answers questions about the statute: it owns the index
// lifecycle and runs retrieve-then-compose per query.
type LegalService struct {
	manager  *index.Manager
	embedder domain.Embedder
	composer *composer.Composer
	topK     int
	logger   *slog.Logger

	mu        sync.RWMutex
	ix        *index.Index
	retriever *retriever.Retriever
}

// New creates the service. The index is opened lazily on first use, or
// eagerly with Open.
func New(d Deps) *LegalService {
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LegalService{
		manager:  d.Manager,
		embedder: d.Embedder,
		composer: d.Composer,
		topK:     d.TopK,
		logger:   logger,
	}
}

// CorpusSource reads, segments and enriches the statute at path.
func CorpusSource(path string, seg *segmenter.Segmenter, enr *enricher.Enricher) index.RecordSource {
	return func(ctx context.Context) ([]domain.ArticleRecord, error) {
		raw, err := segmenter.ReadCorpus(path)
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return enr.EnrichAll(seg.Segment(raw)), nil
	}
}

// Open loads or builds the index.
func (s *LegalService) Open(ctx context.Context) (*index.Index, error) {
	ix, err := s.manager.Open(ctx)
	if err != nil {
		return nil, err
	}
	return ix, s.attach(ix)
}

// Rebuild forces a fresh index build from the corpus.
func (s *LegalService) Rebuild(ctx context.Context) (*index.Index, error) {
	ix, err := s.manager.Rebuild(ctx)
	if err != nil {
		return nil, err
	}
	return ix, s.attach(ix)
}

func (s *LegalService) attach(ix *index.Index) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ix == ix && s.retriever != nil {
		return nil
	}
	r, err := retriever.New(ix, s.embedder, s.topK, s.logger)
	if err != nil {
		return err
	}
	s.ix, s.retriever = ix, r
	return nil
}

func (s *LegalService) current(ctx context.Context) (*retriever.Retriever, error) {
	s.mu.RLock()
	r := s.retriever
	s.mu.RUnlock()
	if r != nil {
		return r, nil
	}
	if _, err := s.Open(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.retriever, nil
}

// Search returns the articles most relevant to query.
func (s *LegalService) Search(ctx context.Context, query string, topK int) (domain.RetrievalResult, error) {
	r, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return r.Retrieve(ctx, query, topK)
}

// Ask retrieves context for query and composes an answer. fields are
// advisory hints passed to the model. The returned Answer carries the
// retrieved sources even when the completion fails.
func (s *LegalService) Ask(ctx context.Context, query string, fields map[string]string) (domain.Answer, error) {
	res, err := s.Search(ctx, query, 0)
	if err != nil {
		return domain.Answer{Query: query}, err
	}
	ans, err := s.composer.Answer(ctx, res, query, fields)
	if err != nil {
		s.logger.Warn("completion failed", "error", err, "sources", len(ans.Sources))
		return ans, err
	}
	s.logger.Info("answered", "sources", len(ans.Sources), "no_applicable_law", ans.NoApplicableLaw)
	return ans, nil
}
