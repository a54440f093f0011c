package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/azizur-rahaman/skillflow-sub002/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var dest []string
	err := repo.Get(ctx, "minting:skills:learner-1", &dest)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))

	require.NoError(t, repo.Set(ctx, "minting:skills:learner-1", []string{"skill-react"}, time.Minute))
	require.NoError(t, repo.DeleteByPattern(ctx, "minting:skills:*"))
	require.NoError(t, repo.Close())
}
