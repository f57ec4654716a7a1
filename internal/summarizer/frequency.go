// Package summarizer produces short extractive gists of article bodies for
// listings where the full statute text would not fit.
package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// DefaultMaxSentences is used when Summarize is called with maxSentences <= 0.
const DefaultMaxSentences = 2

// Frequency ranks sentences by the normalized frequency of their content words.
type Frequency struct {
	tokenPattern *regexp.Regexp
	boundary     *regexp.Regexp
	stopwords    map[string]struct{}
}

// New creates a frequency-based summarizer with Spanish stopwords.
func New() *Frequency {
	return &Frequency{
		tokenPattern: regexp.MustCompile(`\p{L}+`),
		// a sentence ends only where the next one starts with a capital or
		// parenthesis, so "Art. 251" stays intact
		boundary:  regexp.MustCompile(`[.!?;]\s+[\p{Lu}(]`),
		stopwords: stopwords(),
	}
}

// Summarize keeps the maxSentences highest-scoring sentences in their
// original order. Text with fewer sentences is returned trimmed.
func (s *Frequency) Summarize(text string, maxSentences int) string {
	text = strings.TrimSpace(text)
	if maxSentences <= 0 {
		maxSentences = DefaultMaxSentences
	}
	sentences := s.split(text)
	if len(sentences) <= maxSentences {
		return text
	}

	freq := map[string]float64{}
	tokens := make([][]string, len(sentences))
	for i, sent := range sentences {
		tokens[i] = s.tokens(sent)
		for _, tok := range tokens[i] {
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		maxF = math.Max(maxF, v)
	}

	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(sentences))
	for i := range sentences {
		sum := 0.0
		for _, tok := range tokens[i] {
			sum += freq[tok] / maxF
		}
		// dampen long sentences
		if n := float64(len(tokens[i])); n > 0 {
			sum /= math.Sqrt(n)
		}
		scores[i] = pair{i, sum}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	selected := make([]int, maxSentences)
	for i := range selected {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, 0, maxSentences)
	for _, idx := range selected {
		out = append(out, sentences[idx])
	}
	return strings.Join(out, " … ")
}

func (s *Frequency) split(text string) []string {
	var out []string
	start := 0
	for _, loc := range s.boundary.FindAllStringIndex(text, -1) {
		// loc[1] is just past the first rune of the next sentence
		end := loc[0] + 1
		out = append(out, strings.TrimSpace(text[start:end]))
		start = end
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

func (s *Frequency) tokens(text string) []string {
	raw := s.tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := s.stopwords[t]; stop || len([]rune(t)) < 3 {
			continue
		}
		out = append(out, t)
	}
	return out
}

func stopwords() map[string]struct{} {
	words := []string{
		"ante", "con", "como", "contra", "del", "desde", "entre", "esta", "este", "las", "les", "los", "más", "mas", "otro", "otra", "para", "pero", "por", "que", "según", "sin", "sobre", "sus", "una", "uno", "será", "sido", "cual", "cuando", "donde",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
