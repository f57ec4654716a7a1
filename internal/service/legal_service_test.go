package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legalrag/internal/composer"
	"legalrag/internal/domain"
	"legalrag/internal/embedding/hashing"
	"legalrag/internal/enricher"
	"legalrag/internal/index"
	"legalrag/internal/segmenter"
)

const homicideText = "ARTICULO 251.- (HOMICIDIO). El que matare a otro, será sancionado con presidio de cinco a veinte años."

const penalCode = `CODIGO PENAL
ARTICULO 251.- (HOMICIDIO). El que matare a otro, será sancionado con presidio de cinco a veinte años.
ARTICULO 271.- (LESIONES GRAVES Y LEVES). Se sancionará con privación de libertad de tres a nueve años, al que de cualquier modo ocasione a otra persona una lesión de la cual resulte una enfermedad.
ARTICULO 331.- (ROBO). El que se apoderare de una cosa mueble ajena con fuerza en las cosas o con violencia, será sancionado con privación de libertad de uno a cinco años.
ARTICULO 335.- (ESTAFA). El que con la intención de obtener para sí o un tercero un beneficio económico indebido, mediante engaños o artificios, será sancionado con reclusión de uno a cinco años.
`

type fakeCompleter struct {
	reply string
	err   error
	calls int
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) Complete(context.Context, string, float64) (string, error) {
	f.calls++
	return f.reply, f.err
}

func newService(t *testing.T, corpus string, fc *fakeCompleter) *LegalService {
	t.Helper()
	dir := t.TempDir()
	corpusPath := filepath.Join(dir, "codigo_penal.txt")
	if corpus != "" {
		require.NoError(t, os.WriteFile(corpusPath, []byte(corpus), 0o644))
	}
	emb := hashing.NewEmbedder(1024)
	mgr := index.NewManager(index.ManagerConfig{
		Dir:      filepath.Join(dir, "index_penal"),
		Embedder: emb,
		Records:  CorpusSource(corpusPath, segmenter.New(nil), enricher.New("", "")),
		Build:    index.BuildOptions{SourceLabel: enricher.DefaultSourceLabel},
	})
	return New(Deps{
		Manager:  mgr,
		Embedder: emb,
		Composer: composer.New(fc, composer.Config{}, nil),
		TopK:     3,
	})
}

func TestSingleArticleEndToEnd(t *testing.T) {
	fc := &fakeCompleter{reply: "Art. 251: presidio de cinco a veinte años."}
	svc := newService(t, homicideText, fc)

	ix, err := svc.Open(context.Background())
	require.NoError(t, err)
	recs := ix.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "251", recs[0].Number)
	assert.True(t, len(recs[0].Body) > 0 && recs[0].Body[:11] == "(HOMICIDIO)")

	res, err := svc.Search(context.Background(), "maté a otro, ¿qué pena de presidio tengo por homicidio?", 3)
	require.NoError(t, err)
	require.NotEmpty(t, res)
	assert.Equal(t, "251", res[0].Record.Number)

	ans, err := svc.Ask(context.Background(), "maté a otro", nil)
	require.NoError(t, err)
	assert.Equal(t, "Art. 251: presidio de cinco a veinte años.", ans.Text)
	require.Len(t, ans.Sources, 1)
	assert.Equal(t, "251", ans.Sources[0].Number)
	assert.Equal(t, 1, fc.calls)
}

func TestSearch_RanksRelevantArticleFirst(t *testing.T) {
	svc := newService(t, penalCode, &fakeCompleter{reply: "ok"})

	res, err := svc.Search(context.Background(), "robo con violencia de una cosa mueble ajena", 3)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, "331", res[0].Record.Number)
	for i := 1; i < len(res); i++ {
		assert.GreaterOrEqual(t, res[i-1].Score, res[i].Score)
	}

	all, err := svc.Search(context.Background(), "estafa engaños", 10)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "335", all[0].Record.Number)
}

func TestEmptyCorpusScenario(t *testing.T) {
	fc := &fakeCompleter{reply: "should not be called"}
	svc := newService(t, "", fc)

	res, err := svc.Search(context.Background(), "maté a alguien", 3)
	require.NoError(t, err)
	assert.Empty(t, res)

	ans, err := svc.Ask(context.Background(), "maté a alguien", nil)
	require.NoError(t, err)
	assert.True(t, ans.NoApplicableLaw)
	assert.Equal(t, composer.NoApplicableLawText, ans.Text)
	assert.Zero(t, fc.calls)
}

func TestAsk_CompletionFailureKeepsSources(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("connection refused")}
	svc := newService(t, penalCode, fc)

	ans, err := svc.Ask(context.Background(), "homicidio", map[string]string{"area": "penal"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCompletionService)
	assert.Len(t, ans.Sources, 3)
	assert.Equal(t, "251", ans.Sources[0].Number)
}

func TestRebuild_IdempotentRecordSet(t *testing.T) {
	svc := newService(t, penalCode, &fakeCompleter{reply: "ok"})
	first, err := svc.Open(context.Background())
	require.NoError(t, err)
	second, err := svc.Rebuild(context.Background())
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, first.Records(), second.Records())
	assert.Equal(t, first.Entries(), second.Entries())
}
