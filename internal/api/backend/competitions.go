package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/omarshaarawi/pickem/internal/models"
)

const dateLayout = "2006-01-02"

type API struct {
	client *Client
	token  TokenSource
}

// NewAPI binds the shared client to one session's credentials.
func NewAPI(client *Client, token TokenSource) *API {
	return &API{client: client, token: token}
}

func (a *API) ListCompetitions(ctx context.Context) ([]models.Competition, error) {
	var competitions []models.Competition
	if err := a.client.Get(ctx, a.token, "/competitions", nil, &competitions); err != nil {
		return nil, fmt.Errorf("fetching competitions: %w", err)
	}
	return competitions, nil
}

func (a *API) GetCompetition(ctx context.Context, id uuid.UUID) (*models.Competition, error) {
	var competition models.Competition
	if err := a.client.Get(ctx, a.token, fmt.Sprintf("/competitions/%s", id), nil, &competition); err != nil {
		return nil, fmt.Errorf("fetching competition: %w", err)
	}
	return &competition, nil
}

func (a *API) JoinCompetition(ctx context.Context, id uuid.UUID) (*models.JoinResponse, error) {
	var resp models.JoinResponse
	if err := a.client.Post(ctx, a.token, fmt.Sprintf("/competitions/%s/join", id), nil, &resp); err != nil {
		return nil, fmt.Errorf("joining competition: %w", err)
	}
	return &resp, nil
}

func (a *API) GetLeaderboard(ctx context.Context, id uuid.UUID) ([]models.LeaderboardEntry, error) {
	var entries []models.LeaderboardEntry
	if err := a.client.Get(ctx, a.token, fmt.Sprintf("/leaderboards/%s", id), nil, &entries); err != nil {
		return nil, fmt.Errorf("fetching leaderboard: %w", err)
	}
	return entries, nil
}

func (a *API) GetGames(ctx context.Context, id uuid.UUID, date time.Time) ([]models.Game, error) {
	var games []models.Game
	params := map[string]string{
		"date": date.Format(dateLayout),
	}
	if err := a.client.Get(ctx, a.token, fmt.Sprintf("/competitions/%s/games", id), params, &games); err != nil {
		return nil, fmt.Errorf("fetching games: %w", err)
	}
	return games, nil
}

func (a *API) GetAvailableSelections(ctx context.Context, id uuid.UUID) (models.AvailableSelections, error) {
	var selections models.AvailableSelections
	if err := a.client.Get(ctx, a.token, fmt.Sprintf("/competitions/%s/available-selections", id), nil, &selections); err != nil {
		return models.AvailableSelections{}, fmt.Errorf("fetching available selections: %w", err)
	}
	return selections, nil
}
