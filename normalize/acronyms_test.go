package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcronymResolver(t *testing.T) {
	resolver, err := NewAcronymResolver()
	require.NoError(t, err)

	t.Run("should fold an expansion into its acronym", func(t *testing.T) {
		result := resolver.Resolve("a malformed Uniform Resource Locator crashes the parser")
		assert.Equal(t, "a malformed URL crashes the parser", result)
	})

	t.Run("should canonicalize a bare acronym", func(t *testing.T) {
		result := resolver.Resolve("the URL gets rewritten")
		assert.Equal(t, "the URL gets rewritten", result)
	})

	t.Run("should collapse redundant expansion acronym pairs", func(t *testing.T) {
		result := resolver.Resolve("uses a Uniform Resource Locator URL as input")
		assert.Equal(t, "uses a URL as input", result)
	})

	t.Run("should match case insensitively", func(t *testing.T) {
		result := resolver.Resolve("cross site scripting in the login form")
		assert.Equal(t, "XSS in the login form", result)
	})

	t.Run("should be idempotent", func(t *testing.T) {
		input := "denial of service through a structured query language injection"
		once := resolver.Resolve(input)
		assert.Equal(t, once, resolver.Resolve(once))
	})

	t.Run("should not rewrite inside longer words", func(t *testing.T) {
		result := resolver.Resolve("the plural urls stays untouched")
		assert.Equal(t, "the plural urls stays untouched", result)
	})
}
