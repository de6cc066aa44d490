package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\% sure`, escapeLike("100% sure"))
	assert.Equal(t, `snake\_case`, escapeLike("snake_case"))
	assert.Equal(t, `back\\slash`, escapeLike(`back\slash`))
	assert.Equal(t, "pothole", escapeLike("pothole"))
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, translate(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)), ErrDuplicate)

	other := errors.New("connection reset")
	assert.Equal(t, other, translate(other))
}

func TestStatsCache_WithoutRedis(t *testing.T) {
	s := NewStorageService(nil, nil, zap.NewNop())
	ctx := context.Background()

	var dest map[string]int
	found, err := s.GetCachedStats(ctx, &dest)
	assert.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, s.SetCachedStats(ctx, map[string]int{"total": 1}))
	assert.NoError(t, s.InvalidateStats(ctx))
}
