package database

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateKeyError(t *testing.T) {
	t.Run("should detect a postgres unique constraint violation", func(t *testing.T) {
		err := errors.New(`ERROR: duplicate key value violates unique constraint "idx_task_cve" (SQLSTATE 23505)`)

		assert.True(t, IsDuplicateKeyError(err))
	})

	t.Run("should not match other errors", func(t *testing.T) {
		assert.False(t, IsDuplicateKeyError(errors.New("connection refused")))
		assert.False(t, IsDuplicateKeyError(nil))
	})
}
