package backend

import (
	"context"
	"fmt"

	"github.com/omarshaarawi/pickem/internal/models"
)

func (a *API) Login(ctx context.Context, email, password string) (*models.TokenResponse, error) {
	var resp models.TokenResponse
	body := models.LoginRequest{Email: email, Password: password}
	if err := a.client.Post(ctx, nil, "/auth/login", body, &resp); err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}
	return &resp, nil
}

func (a *API) Register(ctx context.Context, email, username, password string) (*models.TokenResponse, error) {
	var resp models.TokenResponse
	body := models.RegisterRequest{Email: email, Username: username, Password: password}
	if err := a.client.Post(ctx, nil, "/auth/register", body, &resp); err != nil {
		return nil, fmt.Errorf("registering: %w", err)
	}
	return &resp, nil
}

func (a *API) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := a.client.Get(ctx, a.token, "/users/me", nil, &user); err != nil {
		return nil, fmt.Errorf("fetching current user: %w", err)
	}
	return &user, nil
}
