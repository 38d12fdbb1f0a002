package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitBalanced(t *testing.T) {
	t.Run("should give the extra elements to the first groups", func(t *testing.T) {
		groups := SplitBalanced([]int{1, 2, 3, 4, 5}, 2)

		assert.Equal(t, [][]int{{1, 2, 3}, {4, 5}}, groups)
	})

	t.Run("should drop empty groups when there are fewer elements than groups", func(t *testing.T) {
		groups := SplitBalanced([]string{"a"}, 4)

		assert.Equal(t, [][]string{{"a"}}, groups)
	})

	t.Run("should keep the input order across groups", func(t *testing.T) {
		input := []int{1, 2, 3, 4, 5, 6, 7}
		groups := SplitBalanced(input, 3)

		flattened := make([]int, 0, len(input))
		for _, group := range groups {
			flattened = append(flattened, group...)
		}
		assert.Equal(t, input, flattened)
	})

	t.Run("should return nil for a non positive group count", func(t *testing.T) {
		assert.Nil(t, SplitBalanced([]int{1, 2}, 0))
	})

	t.Run("should return no groups for an empty slice", func(t *testing.T) {
		assert.Empty(t, SplitBalanced([]int{}, 3))
	})
}

func TestFilter(t *testing.T) {
	even := Filter([]int{1, 2, 3, 4}, func(i int) bool { return i%2 == 0 })

	assert.Equal(t, []int{2, 4}, even)
}

func TestMap(t *testing.T) {
	doubled := Map([]int{1, 2, 3}, func(i int) int { return i * 2 })

	assert.Equal(t, []int{2, 4, 6}, doubled)
}
