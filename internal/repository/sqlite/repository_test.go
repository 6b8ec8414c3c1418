package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/omarshaarawi/pickem/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokensSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	ctx := context.Background()

	repo, err := Open(path)
	require.NoError(t, err)

	_, ok, err := repo.GetTokens(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.SaveTokens(ctx, 7, models.Tokens{AccessToken: "a1", RefreshToken: "r1"}))
	require.NoError(t, repo.SaveTokens(ctx, 7, models.Tokens{AccessToken: "a2", RefreshToken: "r2"}))
	require.NoError(t, repo.Close())

	repo, err = Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	tokens, ok, err := repo.GetTokens(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.Tokens{AccessToken: "a2", RefreshToken: "r2"}, tokens)

	require.NoError(t, repo.DeleteTokens(ctx, 7))
	_, ok, err = repo.GetTokens(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)
}
