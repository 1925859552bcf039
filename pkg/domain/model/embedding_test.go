package model_test

import (
	"math"
	"testing"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/m-mizutani/gt"
)

func TestEmbedding_Binary(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		vec := model.Embedding{0.5, -1.25, 3, float32(math.Inf(1))}
		data, err := vec.MarshalBinary()
		gt.NoError(t, err).Required()
		gt.Number(t, len(data)).Equal(4 + 4*4)

		var decoded model.Embedding
		gt.NoError(t, decoded.UnmarshalBinary(data)).Required()
		gt.Value(t, decoded).Equal(vec)
	})

	t.Run("little endian layout", func(t *testing.T) {
		data, err := model.Embedding{1}.MarshalBinary()
		gt.NoError(t, err).Required()
		// dimension 1, then 1.0f = 0x3f800000
		gt.Value(t, data).Equal([]byte{1, 0, 0, 0, 0x00, 0x00, 0x80, 0x3f})
	})

	t.Run("truncated payload is rejected", func(t *testing.T) {
		var e model.Embedding
		gt.Error(t, e.UnmarshalBinary([]byte{2, 0, 0, 0, 1, 2, 3, 4})).Is(model.ErrInvalidEmbeddingEncoding)
		gt.Error(t, e.UnmarshalBinary([]byte{1})).Is(model.ErrInvalidEmbeddingEncoding)
	})
}

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical vectors score one", func(t *testing.T) {
		score, ok := model.CosineSimilarity(model.Embedding{0.3, 0.4, 0.5}, model.Embedding{0.3, 0.4, 0.5})
		gt.Bool(t, ok).True()
		gt.Bool(t, math.Abs(score-1.0) < 1e-9).True()
	})

	t.Run("orthogonal vectors score zero", func(t *testing.T) {
		score, ok := model.CosineSimilarity(model.Embedding{1, 0}, model.Embedding{0, 1})
		gt.Bool(t, ok).True()
		gt.Value(t, score).Equal(0.0)
	})

	t.Run("opposite vectors score minus one", func(t *testing.T) {
		score, ok := model.CosineSimilarity(model.Embedding{1, 1}, model.Embedding{-2, -2})
		gt.Bool(t, ok).True()
		gt.Bool(t, math.Abs(score+1.0) < 1e-9).True()
	})

	t.Run("zero norm is not comparable", func(t *testing.T) {
		_, ok := model.CosineSimilarity(model.Embedding{0, 0}, model.Embedding{1, 0})
		gt.Bool(t, ok).False()
	})

	t.Run("dimension mismatch is not comparable", func(t *testing.T) {
		_, ok := model.CosineSimilarity(model.Embedding{1, 0}, model.Embedding{1, 0, 0})
		gt.Bool(t, ok).False()
	})

	t.Run("empty is not comparable", func(t *testing.T) {
		_, ok := model.CosineSimilarity(nil, nil)
		gt.Bool(t, ok).False()
	})
}
