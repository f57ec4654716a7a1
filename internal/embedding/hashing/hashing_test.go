package hashing

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestEmbed_DeterministicAndNormalized(t *testing.T) {
	e := NewEmbedder(0)
	assert.Equal(t, DefaultDimension, e.Dimension())
	assert.Equal(t, "hashing:v1:512", e.ModelID())

	a, err := e.Embed(context.Background(), "El que matare a otro será sancionado")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "El que matare a otro será sancionado")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.InDelta(t, 1.0, cosine(a, a), 1e-6)
}

func TestEmbed_AccentInsensitive(t *testing.T) {
	e := NewEmbedder(256)
	a, _ := e.Embed(context.Background(), "privación de libertad")
	b, _ := e.Embed(context.Background(), "PRIVACION DE LIBERTAD")
	assert.InDelta(t, 1.0, cosine(a, b), 1e-6)
}

func TestEmbed_RelatedTextScoresHigher(t *testing.T) {
	e := NewEmbedder(1024)
	ctx := context.Background()
	q, _ := e.Embed(ctx, "pena por homicidio matare")
	homicide, _ := e.Embed(ctx, "HOMICIDIO. El que matare a otro, será sancionado con presidio")
	robbery, _ := e.Embed(ctx, "ROBO. El que se apoderare de una cosa mueble ajena con fuerza")
	assert.Greater(t, cosine(q, homicide), cosine(q, robbery))
}

func TestEmbed_OnlyStopwordsGivesZeroVector(t *testing.T) {
	v, err := NewEmbedder(64).Embed(context.Background(), "de la y el")
	require.NoError(t, err)
	for _, x := range v {
		assert.Zero(t, x)
	}
}

func TestEmbedBatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEmbedder(64).EmbedBatch(ctx, []string{"robo"})
	assert.Error(t, err)
}
