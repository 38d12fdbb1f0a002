package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextProcessor(t *testing.T) {
	t.Run("should lowercase and strip punctuation", func(t *testing.T) {
		processor, err := NewTextProcessor(Options{
			Lowercase:          true,
			RemoveSpecialChars: true,
		})
		require.NoError(t, err)

		result := processor.Process("Remote\tCode, Execution!\n(RCE)")
		assert.Equal(t, "remote code execution rce", result)
	})

	t.Run("should remove stopwords", func(t *testing.T) {
		processor, err := NewTextProcessor(Options{
			RemoveStopwords: true,
		})
		require.NoError(t, err)

		result := processor.Process("the attacker is in the network")
		assert.Equal(t, "attacker network", result)
	})

	t.Run("should stem tokens", func(t *testing.T) {
		processor, err := NewTextProcessor(Options{
			Stem: true,
		})
		require.NoError(t, err)

		result := processor.Process("encoding encoded urls")
		assert.Equal(t, "encod encod url", result)
	})

	t.Run("should run the full pipeline in order", func(t *testing.T) {
		processor, err := NewTextProcessor(Options{
			Lowercase:          true,
			RemoveSpecialChars: true,
			RemoveStopwords:    true,
			Stem:               true,
			Lemmatize:          true,
		})
		require.NoError(t, err)

		result := processor.Process("The attacker injects a crafted payload.")
		assert.NotContains(t, result, "the")
		assert.NotContains(t, result, ".")
	})

	t.Run("should return empty string for stopword only input", func(t *testing.T) {
		processor, err := NewTextProcessor(Options{
			Lowercase:       true,
			RemoveStopwords: true,
		})
		require.NoError(t, err)

		assert.Equal(t, "", processor.Process("is the a of"))
	})

	t.Run("should pass text through when all stages are disabled", func(t *testing.T) {
		processor, err := NewTextProcessor(Options{})
		require.NoError(t, err)

		assert.Equal(t, "Some Raw Text", processor.Process("Some Raw Text"))
	})
}
