// Package enricher turns segmenter candidates into indexable article records.
package enricher

import (
	"strings"

	"legalrag/internal/domain"
)

const (
	// DefaultTemplate frames each article as an offense definition with its
	// penalty, which pulls fact-pattern queries toward the right articles.
	DefaultTemplate = "LEY PENAL BOLIVIANA. DELITO: {title}. DEFINICIÓN Y PENA: {body}"

	// DefaultSourceLabel tags every record with the corpus it came from.
	DefaultSourceLabel = "Código Penal (Texto Completo)"
)

// Enricher builds ArticleRecords with their embedding text.
type Enricher struct {
	template    string
	sourceLabel string
}

// New creates an Enricher. Empty arguments fall back to the defaults.
// A template missing either slot gets the missing parts appended so the
// embedding text always carries the full title and body.
func New(template, sourceLabel string) *Enricher {
	if strings.TrimSpace(template) == "" {
		template = DefaultTemplate
	}
	if !strings.Contains(template, "{title}") {
		template += " {title}"
	}
	if !strings.Contains(template, "{body}") {
		template += " {body}"
	}
	if sourceLabel == "" {
		sourceLabel = DefaultSourceLabel
	}
	return &Enricher{template: template, sourceLabel: sourceLabel}
}

// Enrich converts one candidate. It is deterministic and never truncates.
func (e *Enricher) Enrich(c domain.Candidate) domain.ArticleRecord {
	text := strings.NewReplacer("{title}", c.Heading, "{body}", c.Body).Replace(e.template)
	return domain.ArticleRecord{
		Number:        c.Number,
		Title:         c.Heading,
		Body:          c.Body,
		SourceLabel:   e.sourceLabel,
		EmbeddingText: text,
	}
}

// EnrichAll converts candidates in order.
func (e *Enricher) EnrichAll(cs []domain.Candidate) []domain.ArticleRecord {
	out := make([]domain.ArticleRecord, len(cs))
	for i, c := range cs {
		out[i] = e.Enrich(c)
	}
	return out
}

// SourceLabel returns the provenance tag applied to records.
func (e *Enricher) SourceLabel() string { return e.sourceLabel }
