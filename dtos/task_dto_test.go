package dtos

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidCVEID(t *testing.T) {
	t.Run("should accept well formed ids", func(t *testing.T) {
		assert.True(t, ValidCVEID("CVE-1999-0001"))
		assert.True(t, ValidCVEID("CVE-2021-44228"))
		assert.True(t, ValidCVEID("CVE-2014-1234567"))
	})

	t.Run("should reject years before 1999", func(t *testing.T) {
		assert.False(t, ValidCVEID("CVE-1998-0001"))
	})

	t.Run("should reject years in the future", func(t *testing.T) {
		assert.False(t, ValidCVEID("CVE-2999-0001"))
	})

	t.Run("should reject malformed ids", func(t *testing.T) {
		assert.False(t, ValidCVEID(""))
		assert.False(t, ValidCVEID("CVE-2021"))
		assert.False(t, ValidCVEID("CVE-2021-123"))
		assert.False(t, ValidCVEID("cve-2021-44228"))
		assert.False(t, ValidCVEID("GHSA-1234-5678"))
	})
}

func TestParseCVEList(t *testing.T) {
	t.Run("should split and trim a comma separated list", func(t *testing.T) {
		ids := ParseCVEList("CVE-2021-44228, CVE-2014-0160 ,CVE-2017-5638")

		assert.Equal(t, []string{"CVE-2021-44228", "CVE-2014-0160", "CVE-2017-5638"}, ids)
	})

	t.Run("should drop invalid entries", func(t *testing.T) {
		ids := ParseCVEList("CVE-2021-44228,not-a-cve,CVE-1998-0001")

		assert.Equal(t, []string{"CVE-2021-44228"}, ids)
	})

	t.Run("should return an empty slice for an empty string", func(t *testing.T) {
		assert.Empty(t, ParseCVEList(""))
	})
}

func TestTaskCreateRequestValidate(t *testing.T) {
	t.Run("should accept a request with valid cve ids", func(t *testing.T) {
		req := TaskCreateRequest{
			Name:    "quarterly scan",
			CVEList: []string{"CVE-2021-44228", "CVE-2014-0160"},
			AIModel: "SBERT Hyb",
		}

		assert.NoError(t, req.Validate())
	})

	t.Run("should name the offending id", func(t *testing.T) {
		req := TaskCreateRequest{
			Name:    "quarterly scan",
			CVEList: []string{"CVE-2021-44228", "CVE-1998-0001"},
			AIModel: "SBERT Hyb",
		}

		err := req.Validate()
		assert.ErrorContains(t, err, "CVE-1998-0001")
	})
}
