package memory

import (
	"context"
	"sync"

	"github.com/omarshaarawi/pickem/internal/models"
)

// Repository keeps session tokens for the life of the process.
type Repository struct {
	tokens map[int64]models.Tokens
	mu     sync.RWMutex
}

func NewRepository() *Repository {
	return &Repository{tokens: make(map[int64]models.Tokens)}
}

func (r *Repository) SaveTokens(ctx context.Context, chatID int64, tokens models.Tokens) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[chatID] = tokens
	return nil
}

func (r *Repository) GetTokens(ctx context.Context, chatID int64) (models.Tokens, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tokens, ok := r.tokens[chatID]
	return tokens, ok, nil
}

func (r *Repository) DeleteTokens(ctx context.Context, chatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, chatID)
	return nil
}
