// Package hashing implements an offline embedder based on signed feature hashing.
// Vectors depend only on the input text, so an index built with it can be
// reloaded without keeping any corpus vocabulary around.
package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"legalrag/internal/domain"
)

// DefaultDimension is the vector size used when none is configured.
const DefaultDimension = 512

// Embedder hashes Spanish tokens into a fixed number of buckets.
type Embedder struct {
	dimension    int
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

var _ domain.BatchEmbedder = (*Embedder)(nil)

// NewEmbedder creates a hashing embedder with the given dimension.
func NewEmbedder(dimension int) *Embedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Embedder{
		dimension:    dimension,
		tokenPattern: regexp.MustCompile(`\p{L}+|\d+`),
		stopwords:    defaultStopwords(),
	}
}

// ModelID encodes the scheme version and dimension.
func (e *Embedder) ModelID() string { return fmt.Sprintf("hashing:v1:%d", e.dimension) }

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed computes the hashed embedding for the given text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.E(domain.KindEmbeddingService, "hashing embed", "", err)
	}
	tf := make(map[string]int)
	for _, tok := range e.tokenize(text) {
		tf[tok]++
	}

	acc := make([]float64, e.dimension)
	for tok, count := range tf {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum64()
		idx := int(sum % uint64(e.dimension))
		sign := 1.0
		if sum>>63 == 1 {
			sign = -1.0
		}
		acc[idx] += sign * (1 + math.Log(float64(count)))
	}

	// L2 normalize
	normSq := 0.0
	for _, v := range acc {
		normSq += v * v
	}
	n := math.Sqrt(normSq)
	vec := make([]float32, e.dimension)
	if n == 0 {
		return vec, nil
	}
	for i, v := range acc {
		vec[i] = float32(v / n)
	}
	return vec, nil
}

// EmbedBatch embeds each text in order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *Embedder) tokenize(text string) []string {
	lower := strings.ToLower(foldAccents(text))
	raw := e.tokenPattern.FindAllString(lower, -1)
	if len(raw) == 0 {
		return nil
	}
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

// foldAccents maps "privación" to "privacion" so queries typed without
// diacritics still hit the same buckets.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "al", "ante", "con", "como", "contra", "de", "del", "desde", "el", "en", "entre", "es", "esta", "este", "la", "las", "le", "les", "lo", "los", "mas", "no", "o", "otro", "para", "pero", "por", "que", "se", "segun", "si", "sin", "sobre", "su", "sus", "u", "un", "una", "uno", "y", "ya",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
