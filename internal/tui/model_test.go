package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legalrag/internal/domain"
)

type stubService struct {
	answer domain.Answer
	err    error
	got    string
}

func (s *stubService) Ask(_ context.Context, q string, _ map[string]string) (domain.Answer, error) {
	s.got = q
	return s.answer, s.err
}

var homicide = domain.ArticleRecord{
	Number:      "251",
	Title:       "ARTICULO 251.-",
	Body:        "(HOMICIDIO). El que matare a otro, será sancionado con presidio de cinco a veinte años.",
	SourceLabel: "Código Penal (Texto Completo)",
}

func ready(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func TestEnterAsksAndRendersAnswerWithSources(t *testing.T) {
	svc := &stubService{answer: domain.Answer{Text: "Podría tratarse de homicidio (Art. 251).", Sources: []domain.ArticleRecord{homicide}}}
	m := ready(t, New(svc, nil))
	m.input.SetValue("maté a alguien")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.busy)

	// run the ask command directly; the batch also contains the spinner tick
	next, _ = m.Update(m.ask("maté a alguien")())
	m = next.(Model)
	assert.Equal(t, "maté a alguien", svc.got)
	assert.False(t, m.busy)

	out := m.renderAnswer()
	assert.Contains(t, out, "Podría tratarse de homicidio")
	assert.Contains(t, out, "Art. 251 ARTICULO 251.-")
	assert.Contains(t, out, "presidio de cinco a veinte años")
	assert.Contains(t, m.status, "1 artículos citados")
}

func TestCompletionErrorStillShowsSources(t *testing.T) {
	m := ready(t, New(&stubService{}, nil))
	err := domain.E(domain.KindCompletionService, "compose answer", "", errors.New("timeout"))

	next, _ := m.Update(answerMsg{answer: domain.Answer{Sources: []domain.ArticleRecord{homicide}}, err: err})
	m = next.(Model)
	assert.Contains(t, m.status, "se muestran los artículos recuperados")
	assert.Contains(t, m.renderAnswer(), "Art. 251")
}

func TestNoApplicableLawStatus(t *testing.T) {
	m := ready(t, New(&stubService{}, nil))
	next, _ := m.Update(answerMsg{answer: domain.Answer{Text: "No se encontró ningún artículo aplicable", NoApplicableLaw: true}})
	m = next.(Model)
	assert.Equal(t, "Sin artículos aplicables.", m.status)
	assert.Contains(t, m.renderAnswer(), "No se encontró")
}

func TestTabCyclesSources(t *testing.T) {
	robbery := homicide
	robbery.Number = "331"
	m := ready(t, New(&stubService{}, nil))
	next, _ := m.Update(answerMsg{answer: domain.Answer{Text: "x", Sources: []domain.ArticleRecord{homicide, robbery}}})
	m = next.(Model)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	assert.Equal(t, 1, m.cursor)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 0, next.(Model).cursor)
}

func TestEmptyInputIgnored(t *testing.T) {
	m := ready(t, New(&stubService{}, nil))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestHighlightBestSentence(t *testing.T) {
	text := "Primera oración sin relación. El que matare a otro será sancionado."
	out := highlightBestSentence(text, "matare")
	assert.Contains(t, out, "Primera oración sin relación.")
	assert.Contains(t, out, "matare")
}
