package domain

import "context"

// NoNumber is the article number used when a heading carries no digits.
const NoNumber = "S/N"

// Candidate is one heading/body pair produced by splitting the statute text.
type Candidate struct {
	Heading string
	Number  string
	Body    string
}

// ArticleRecord is one statute article ready for indexing.
type ArticleRecord struct {
	Number        string `json:"number"`
	Title         string `json:"title"`
	Body          string `json:"body"`
	SourceLabel   string `json:"source_label"`
	EmbeddingText string `json:"embedding_text"`
}

// ScoredArticle is a retrieved article with its relevance score (higher is better).
type ScoredArticle struct {
	Record ArticleRecord `json:"article"`
	Score  float64       `json:"score"`
}

// RetrievalResult holds at most k articles ordered by descending relevance.
type RetrievalResult []ScoredArticle

// Records returns the articles of the result in rank order.
func (r RetrievalResult) Records() []ArticleRecord {
	out := make([]ArticleRecord, len(r))
	for i, s := range r {
		out[i] = s.Record
	}
	return out
}

// Answer pairs the generated text with the articles that were given as context.
// Sources are populated even when generation fails.
type Answer struct {
	Query           string          `json:"query"`
	Text            string          `json:"answer"`
	Sources         []ArticleRecord `json:"sources"`
	NoApplicableLaw bool            `json:"no_applicable_law"`
}

// Embedder converts free text into a numeric vector representation.
// The same ModelID must be used at build and query time.
type Embedder interface {
	ModelID() string
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchEmbedder is implemented by embedders that can embed many texts per call.
type BatchEmbedder interface {
	Embedder
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Completer is the text-completion service that answers composed prompts.
type Completer interface {
	Name() string
	Complete(ctx context.Context, prompt string, temperature float64) (string, error)
}

// LegalService defines the operations exposed by the application core.
type LegalService interface {
	Search(ctx context.Context, query string, topK int) (RetrievalResult, error)
	Ask(ctx context.Context, query string, fields map[string]string) (Answer, error)
}
