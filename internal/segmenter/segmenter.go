// Package segmenter splits a statute text into per-article candidates.
package segmenter

import (
	"log/slog"
	"regexp"
	"strings"

	"legalrag/internal/domain"
)

var (
	headingRe    = regexp.MustCompile(`(?i)ARTICULO[\s\p{Zs}]+\d+[.\-º°]+`)
	digitsRe     = regexp.MustCompile(`\d+`)
	whitespaceRe = regexp.MustCompile(`[\s\p{Zs}]+`)
)

// Segmenter splits statute text on article headings and drops candidates
// rejected by its filters.
type Segmenter struct {
	filters []Filter
	logger  *slog.Logger
}

// New creates a Segmenter. With no filters the default pipeline is used.
func New(logger *slog.Logger, filters ...Filter) *Segmenter {
	if len(filters) == 0 {
		filters = DefaultFilters()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Segmenter{filters: filters, logger: logger}
}

// Segment returns the candidates of raw that pass every filter, in text order.
func (s *Segmenter) Segment(raw string) []domain.Candidate {
	all := Split(raw)
	out := make([]domain.Candidate, 0, len(all))
	rejected := map[string]int{}
	for _, c := range all {
		if ok, reason := s.accept(c); !ok {
			rejected[reason]++
			s.logger.Debug("article rejected", "heading", c.Heading, "reason", reason)
			continue
		}
		out = append(out, c)
	}
	s.logger.Info("statute segmented",
		"candidates", len(all),
		"accepted", len(out),
		"rejected", len(all)-len(out),
	)
	for reason, n := range rejected {
		s.logger.Debug("rejections", "reason", reason, "count", n)
	}
	return out
}

func (s *Segmenter) accept(c domain.Candidate) (bool, string) {
	for _, f := range s.filters {
		if ok, reason := f(c); !ok {
			return false, reason
		}
	}
	return true, ""
}

// Split cuts raw on article headings without filtering. The text before the
// first heading is discarded; a heading at the very end gets an empty body.
func Split(raw string) []domain.Candidate {
	locs := headingRe.FindAllStringIndex(raw, -1)
	if len(locs) == 0 {
		return nil
	}
	out := make([]domain.Candidate, 0, len(locs))
	for i, loc := range locs {
		end := len(raw)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		heading := strings.TrimSpace(raw[loc[0]:loc[1]])
		out = append(out, domain.Candidate{
			Heading: heading,
			Number:  Number(heading),
			Body:    Normalize(raw[loc[1]:end]),
		})
	}
	return out
}

// Number returns the first run of digits in heading, or domain.NoNumber.
func Number(heading string) string {
	if n := digitsRe.FindString(heading); n != "" {
		return n
	}
	return domain.NoNumber
}

// Normalize collapses whitespace runs to single spaces and trims the ends.
func Normalize(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
