package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legalrag/internal/domain"
)

type stubService struct {
	res       domain.RetrievalResult
	answer    domain.Answer
	err       error
	gotFields map[string]string
	gotTopK   int
}

func (s *stubService) Search(_ context.Context, _ string, topK int) (domain.RetrievalResult, error) {
	s.gotTopK = topK
	return s.res, s.err
}

func (s *stubService) Ask(_ context.Context, _ string, fields map[string]string) (domain.Answer, error) {
	s.gotFields = fields
	return s.answer, s.err
}

var homicide = domain.ArticleRecord{
	Number:      "251",
	Title:       "ARTICULO 251.-",
	Body:        "(HOMICIDIO). El que matare a otro, será sancionado con presidio de cinco a veinte años.",
	SourceLabel: "Código Penal (Texto Completo)",
}

func newServer(t *testing.T, svc domain.LegalService) *Server {
	t.Helper()
	s, err := NewServer(Config{Service: svc})
	require.NoError(t, err)
	require.NotNil(t, s.Handler())
	return s
}

func TestNewServer_RequiresService(t *testing.T) {
	_, err := NewServer(Config{})
	assert.Error(t, err)
}

func TestHandleSearch(t *testing.T) {
	svc := &stubService{res: domain.RetrievalResult{{Record: homicide, Score: 0.8}}}
	res, out, err := newServer(t, svc).handleSearch(context.Background(), nil, SearchInput{Query: "maté a alguien", TopK: 2})
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, 2, svc.gotTopK)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "251", out.Articles[0].Number)
	assert.Equal(t, homicide.Body, out.Articles[0].Body)
	assert.InDelta(t, 0.8, out.Articles[0].Score, 1e-9)
}

func TestHandleSearch_ErrorIsToolError(t *testing.T) {
	svc := &stubService{err: domain.E(domain.KindEmbeddingService, "retrieve", "", errors.New("timeout"))}
	res, _, err := newServer(t, svc).handleSearch(context.Background(), nil, SearchInput{Query: "robo"})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.IsError)
	text := res.Content[0].(*mcp.TextContent).Text
	assert.Contains(t, text, "retryable")
}

func TestHandleAsk_PassesHintsAndSources(t *testing.T) {
	svc := &stubService{answer: domain.Answer{Text: "Art. 251", Sources: []domain.ArticleRecord{homicide}}}
	res, out, err := newServer(t, svc).handleAsk(context.Background(), nil, AskInput{Query: "maté a alguien", Area: "penal"})
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, map[string]string{"area": "penal"}, svc.gotFields)
	assert.Equal(t, "Art. 251", out.Answer)
	require.Len(t, out.Sources, 1)
	assert.Equal(t, "Código Penal (Texto Completo)", out.Sources[0].Source)
}

func TestHandleAsk_CompletionFailureKeepsSources(t *testing.T) {
	svc := &stubService{
		answer: domain.Answer{Sources: []domain.ArticleRecord{homicide}},
		err:    domain.E(domain.KindCompletionService, "compose answer", "", errors.New("503")),
	}
	res, out, err := newServer(t, svc).handleAsk(context.Background(), nil, AskInput{Query: "maté a alguien"})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.IsError)
	require.Len(t, res.Content, 2)
	assert.Contains(t, res.Content[1].(*mcp.TextContent).Text, "- Art. 251 (ARTICULO 251.-)")
	assert.Len(t, out.Sources, 1)
}
