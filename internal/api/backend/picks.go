package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/omarshaarawi/pickem/internal/models"
)

func (a *API) GetMyPicks(ctx context.Context, id uuid.UUID, date time.Time) ([]models.Pick, error) {
	var picks []models.Pick
	params := map[string]string{
		"date": date.Format(dateLayout),
	}
	if err := a.client.Get(ctx, a.token, fmt.Sprintf("/picks/%s/my-picks", id), params, &picks); err != nil {
		return nil, fmt.Errorf("fetching my picks: %w", err)
	}
	return picks, nil
}

func (a *API) SubmitDailyPicks(ctx context.Context, id uuid.UUID, picks []models.PickRequest) error {
	body := models.DailyPicksRequest{Picks: picks}
	if err := a.client.Post(ctx, a.token, fmt.Sprintf("/picks/%s/daily", id), body, nil); err != nil {
		return fmt.Errorf("submitting picks: %w", err)
	}
	return nil
}

func (a *API) GetMyFixedSelections(ctx context.Context, id uuid.UUID) ([]models.FixedSelection, error) {
	var selections []models.FixedSelection
	if err := a.client.Get(ctx, a.token, fmt.Sprintf("/picks/%s/my-fixed-selections", id), nil, &selections); err != nil {
		return nil, fmt.Errorf("fetching my fixed selections: %w", err)
	}
	return selections, nil
}

func (a *API) SubmitFixedSelections(ctx context.Context, id uuid.UUID, selections []models.SelectionRequest) error {
	body := models.FixedSelectionsRequest{Selections: selections}
	if err := a.client.Post(ctx, a.token, fmt.Sprintf("/picks/%s/fixed-teams", id), body, nil); err != nil {
		return fmt.Errorf("submitting selections: %w", err)
	}
	return nil
}
