package summarizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize_ShortTextUnchanged(t *testing.T) {
	body := "(HOMICIDIO). El que matare a otro, será sancionado con presidio de cinco a veinte años."
	assert.Equal(t, body, New().Summarize("  "+body+"\n", 2))
}

func TestSummarize_KeepsOriginalOrder(t *testing.T) {
	body := "La pena será agravada. " +
		"El robo con violencia en las personas se sanciona con presidio. " +
		"Se aplicará la misma pena al que robe con violencia. " +
		"Disposición transitoria sin efecto."
	got := New().Summarize(body, 2)

	parts := strings.Split(got, " … ")
	assert.Len(t, parts, 2)
	assert.Contains(t, got, "robo con violencia")
	assert.Less(t, strings.Index(body, parts[0]), strings.Index(body, parts[1]))
}

func TestSummarize_DoesNotSplitArticleReferences(t *testing.T) {
	s := New()
	got := s.Summarize("Conforme al Art. 251 se sanciona el homicidio. Fin.", 1)
	assert.NotEqual(t, "Conforme al Art.", got)
}
