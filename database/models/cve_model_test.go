package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCVEGetSummary(t *testing.T) {
	t.Run("should return short descriptions unchanged", func(t *testing.T) {
		cve := CVE{Description: "A buffer overflow in the parser."}
		assert.Equal(t, "A buffer overflow in the parser.", cve.GetSummary())
	})

	t.Run("should truncate long descriptions to 100 characters", func(t *testing.T) {
		cve := CVE{Description: strings.Repeat("a", 150)}
		summary := cve.GetSummary()
		assert.Equal(t, strings.Repeat("a", 100)+"...", summary)
	})
}
