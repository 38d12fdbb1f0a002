package utils

import (
	"sort"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrGroup(t *testing.T) {
	t.Run("should collect all results", func(t *testing.T) {
		group := ErrGroup[int](2)
		for i := 1; i <= 5; i++ {
			group.Go(func() (int, error) {
				return i * i, nil
			})
		}

		results, err := group.WaitAndCollect()
		require.NoError(t, err)

		sort.Ints(results)
		assert.Equal(t, []int{1, 4, 9, 16, 25}, results)
	})

	t.Run("should return an error if any function fails", func(t *testing.T) {
		group := ErrGroup[int](2)
		group.Go(func() (int, error) {
			return 1, nil
		})
		group.Go(func() (int, error) {
			return 0, errors.New("boom")
		})

		_, err := group.WaitAndCollect()
		assert.Error(t, err)
	})
}
