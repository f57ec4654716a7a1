package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legalrag/internal/domain"
)

func rec(n string) domain.ArticleRecord { return domain.ArticleRecord{Number: n} }

func seeded(t *testing.T) *Storage {
	t.Helper()
	s := NewStorage()
	require.NoError(t, s.Init(2))
	require.NoError(t, s.Upsert(
		[]string{"a", "b", "c", "d"},
		[]domain.ArticleRecord{rec("1"), rec("2"), rec("3"), rec("4")},
		[][]float32{{1, 0}, {0, 1}, {1, 0}, {0.6, 0.8}},
	))
	return s
}

func TestSearch_OrderAndStableTies(t *testing.T) {
	got, err := seeded(t).Search([]float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "1", got[0].Record.Number)
	assert.Equal(t, "3", got[1].Record.Number)
	assert.Equal(t, "4", got[2].Record.Number)
	assert.InDelta(t, 0.6, got[2].Score, 1e-6)
}

func TestSearch_TopKLargerThanStore(t *testing.T) {
	got, err := seeded(t).Search([]float32{0, 1}, 10)
	require.NoError(t, err)
	assert.Len(t, got, 4)
	assert.Equal(t, "2", got[0].Record.Number)
}

func TestSearch_NonPositiveTopKUsesDefault(t *testing.T) {
	got, err := seeded(t).Search([]float32{0, 1}, 0)
	require.NoError(t, err)
	assert.Len(t, got, DefaultTopK)
}

func TestSearch_Errors(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.Init(2))
	got, err := s.Search([]float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = seeded(t).Search([]float32{1, 0, 0}, 3)
	assert.Error(t, err)

	assert.Error(t, s.Upsert([]string{"x"}, []domain.ArticleRecord{rec("1")}, [][]float32{{1, 2, 3}}))
	assert.Error(t, s.Upsert([]string{"x"}, nil, nil))
	assert.Error(t, NewStorage().Init(0))
}

func TestConcurrentReaders(t *testing.T) {
	s := seeded(t)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := s.Search([]float32{1, 0}, 1)
			assert.NoError(t, err)
			assert.Equal(t, "1", got[0].Record.Number)
		}()
	}
	wg.Wait()
}
