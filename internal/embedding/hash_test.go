package embedding_test

import (
	"context"
	"math"
	"testing"

	"github.com/Rrens/rag-chatbot/internal/domain"
	"github.com/Rrens/rag-chatbot/internal/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func l2(v []float32) float64 {
	var sq float64
	for _, x := range v {
		sq += float64(x) * float64(x)
	}
	return math.Sqrt(sq)
}

func TestHashEmbedder_Embed(t *testing.T) {
	e := embedding.NewHashEmbedder(embedding.DefaultDimension)
	ctx := context.Background()

	t.Run("fixed length", func(t *testing.T) {
		v, err := e.Embed(ctx, "Breaking news from the capital")
		require.NoError(t, err)
		assert.Len(t, v, 768)
		assert.Equal(t, 768, e.Dimension())
	})

	t.Run("deterministic", func(t *testing.T) {
		a, err := e.Embed(ctx, "the quick brown fox")
		require.NoError(t, err)
		b, err := e.Embed(ctx, "the quick brown fox")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("case and inner whitespace insensitive", func(t *testing.T) {
		a, err := e.Embed(ctx, "Hello \t\n World")
		require.NoError(t, err)
		b, err := e.Embed(ctx, "hello world")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("edge whitespace adds an empty word", func(t *testing.T) {
		small := embedding.NewHashEmbedder(10)
		// "ab" lands in bucket 5, the empty word in bucket 0 with the same weight
		v, err := small.Embed(ctx, " ab")
		require.NoError(t, err)
		assert.InDelta(t, 1/math.Sqrt2, v[0], 1e-6)
		assert.InDelta(t, 1/math.Sqrt2, v[5], 1e-6)

		trailing, err := small.Embed(ctx, "ab\n")
		require.NoError(t, err)
		assert.Equal(t, v, trailing)
	})

	t.Run("whitespace only", func(t *testing.T) {
		for _, text := range []string{"   ", "\t\n"} {
			v, err := e.Embed(ctx, text)
			require.NoError(t, err)
			assert.InDelta(t, 1.0, l2(v), 1e-5)
			assert.InDelta(t, 1.0, v[0], 1e-6)
		}
	})

	t.Run("astral characters sum utf-16 code units", func(t *testing.T) {
		// U+1F600 encodes as 0xD83D 0xDE00, 112189 % 768 = 61
		v, err := e.Embed(ctx, "\U0001F600")
		require.NoError(t, err)
		assert.InDelta(t, 1.0, v[61], 1e-6)
		assert.Zero(t, v[256])
	})

	t.Run("unit norm", func(t *testing.T) {
		for _, text := range []string{"a", "doc1", "many words repeated repeated repeated"} {
			v, err := e.Embed(ctx, text)
			require.NoError(t, err)
			assert.InDelta(t, 1.0, l2(v), 1e-5, text)
		}
	})

	t.Run("empty text", func(t *testing.T) {
		_, err := e.Embed(ctx, "")
		assert.ErrorIs(t, err, domain.ErrEmptyText)
	})

	t.Run("bucket from rune sum", func(t *testing.T) {
		small := embedding.NewHashEmbedder(10)
		// "ab" = 97+98 = 195, bucket 5
		v, err := small.Embed(ctx, "ab")
		require.NoError(t, err)
		assert.InDelta(t, 1.0, v[5], 1e-6)
		for i, x := range v {
			if i != 5 {
				assert.Zero(t, x)
			}
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := e.Embed(cctx, "hello")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCosineSimilarity(t *testing.T) {
	e := embedding.NewHashEmbedder(embedding.DefaultDimension)

	t.Run("self similarity", func(t *testing.T) {
		v, err := e.Embed(context.Background(), "security threats and protections")
		require.NoError(t, err)
		got, err := embedding.CosineSimilarity(v, v)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, got, 1e-6)
	})

	t.Run("orthogonal", func(t *testing.T) {
		got, err := embedding.CosineSimilarity([]float32{1, 0}, []float32{0, 1})
		require.NoError(t, err)
		assert.InDelta(t, 0.0, got, 1e-9)
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := embedding.CosineSimilarity([]float32{1, 2}, []float32{1})
		assert.Error(t, err)
	})

	t.Run("zero vector", func(t *testing.T) {
		got, err := embedding.CosineSimilarity([]float32{0, 0}, []float32{1, 1})
		require.NoError(t, err)
		assert.Zero(t, got)
	})
}
