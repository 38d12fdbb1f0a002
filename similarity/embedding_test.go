package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	t.Run("should return 1 for identical vectors", func(t *testing.T) {
		assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
	})

	t.Run("should return 0 for orthogonal vectors", func(t *testing.T) {
		assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	})

	t.Run("should return -1 for opposite vectors", func(t *testing.T) {
		assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 1}, []float32{-1, -1}), 1e-9)
	})

	t.Run("should return 0 for a zero vector", func(t *testing.T) {
		assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 2}))
	})
}

func TestComparatorFactory(t *testing.T) {
	factory := NewComparatorFactory("http://localhost:8081/v1", "")

	t.Run("should resolve the supported models", func(t *testing.T) {
		comparator, err := factory(ModelSBERTHyb)
		require.NoError(t, err)
		assert.Equal(t, "SBERT", comparator.ModelWord())

		comparator, err = factory(ModelATTACKBERTHyb)
		require.NoError(t, err)
		assert.Equal(t, "ATTACKBERT", comparator.ModelWord())
	})

	t.Run("should reject unknown models", func(t *testing.T) {
		_, err := factory("GPT Hyb")
		assert.Error(t, err)
	})
}
