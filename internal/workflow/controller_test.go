package workflow

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/omarshaarawi/pickem/internal/api/backend"
	"github.com/omarshaarawi/pickem/internal/cache"
	"github.com/omarshaarawi/pickem/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu sync.Mutex

	competition *models.Competition
	leaderboard []models.LeaderboardEntry
	games       []models.Game
	myPicks     []models.Pick
	available   models.AvailableSelections
	myFixed     []models.FixedSelection
	submitErr   error
	joinErr     error

	calls      map[string]int
	submitted  [][]models.PickRequest
	selections [][]models.SelectionRequest
	gameDates  []string

	// beforeMyPicks runs inside GetMyPicks, letting a test change the view mid-request.
	beforeMyPicks func()
}

func (f *fakeAPI) count(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
}

func (f *fakeAPI) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) GetCompetition(ctx context.Context, id uuid.UUID) (*models.Competition, error) {
	f.count("competition")
	comp := *f.competition
	return &comp, nil
}

func (f *fakeAPI) JoinCompetition(ctx context.Context, id uuid.UUID) (*models.JoinResponse, error) {
	f.count("join")
	if f.joinErr != nil {
		return nil, f.joinErr
	}
	f.competition.UserIsParticipant = true
	return &models.JoinResponse{Message: "Joined competition successfully"}, nil
}

func (f *fakeAPI) GetLeaderboard(ctx context.Context, id uuid.UUID) ([]models.LeaderboardEntry, error) {
	f.count("leaderboard")
	return f.leaderboard, nil
}

func (f *fakeAPI) GetGames(ctx context.Context, id uuid.UUID, date time.Time) ([]models.Game, error) {
	f.count("games")
	f.mu.Lock()
	f.gameDates = append(f.gameDates, date.Format(dateLayout))
	f.mu.Unlock()
	return f.games, nil
}

func (f *fakeAPI) GetMyPicks(ctx context.Context, id uuid.UUID, date time.Time) ([]models.Pick, error) {
	f.count("my-picks")
	if f.beforeMyPicks != nil {
		f.beforeMyPicks()
	}
	return f.myPicks, nil
}

func (f *fakeAPI) SubmitDailyPicks(ctx context.Context, id uuid.UUID, picks []models.PickRequest) error {
	f.count("submit-picks")
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = append(f.submitted, picks)
	return nil
}

func (f *fakeAPI) GetAvailableSelections(ctx context.Context, id uuid.UUID) (models.AvailableSelections, error) {
	f.count("available")
	return f.available, nil
}

func (f *fakeAPI) GetMyFixedSelections(ctx context.Context, id uuid.UUID) ([]models.FixedSelection, error) {
	f.count("my-fixed")
	return f.myFixed, nil
}

func (f *fakeAPI) SubmitFixedSelections(ctx context.Context, id uuid.UUID, selections []models.SelectionRequest) error {
	f.count("submit-fixed")
	if f.submitErr != nil {
		return f.submitErr
	}
	f.selections = append(f.selections, selections)
	return nil
}

func newTestController(api *fakeAPI) (*Controller, clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(now)
	return NewController(api, cache.New(clock), clock, api.competition.ID, now), clock
}

func TestDailyPicksScenario(t *testing.T) {
	a := newGame(now.Add(time.Hour), models.GameScheduled)
	b := newGame(now.Add(2*time.Hour), models.GameScheduled)
	c := newGame(now.Add(-time.Hour), models.GameInProgress)

	api := &fakeAPI{
		competition: &models.Competition{
			ID:                uuid.New(),
			Mode:              models.ModeDailyPicks,
			Status:            models.CompetitionActive,
			MaxPicksPerDay:    intPtr(3),
			UserIsParticipant: true,
		},
		games: []models.Game{a, b, c},
	}
	ctrl, _ := newTestController(api)
	ctx := context.Background()

	require.NoError(t, ctrl.Load(ctx))
	_, err := ctrl.Leaderboard(ctx)
	require.NoError(t, err)

	require.NoError(t, ctrl.Pick(a.ID, a.HomeTeam.ID))
	require.NoError(t, ctrl.Pick(b.ID, b.AwayTeam.ID))
	assert.ErrorIs(t, ctrl.Pick(c.ID, c.HomeTeam.ID), ErrGameLocked)

	require.NoError(t, ctrl.SubmitPicks(ctx))
	require.Len(t, api.submitted, 1)
	assert.Equal(t, []models.PickRequest{
		{GameID: a.ID, PredictedWinnerTeamID: a.HomeTeam.ID},
		{GameID: b.ID, PredictedWinnerTeamID: b.AwayTeam.ID},
	}, api.submitted[0])

	state, msg := ctrl.PickSubmission()
	assert.Equal(t, Succeeded, state)
	assert.Empty(t, msg)

	// my-picks refetched and re-seeded from server truth; leaderboard marked stale.
	assert.Equal(t, 2, api.Calls("my-picks"))
	assert.Equal(t, Seeded, ctrl.PickDraftState())
	_, st := cache.Peek[[]models.LeaderboardEntry](ctrl.cache, LeaderboardKey(api.competition.ID))
	assert.True(t, st.Stale)

	_, err = ctrl.Leaderboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, api.Calls("leaderboard"))
}

func TestSubmitEmptyPicksSkipsNetwork(t *testing.T) {
	api := &fakeAPI{
		competition: &models.Competition{ID: uuid.New(), Mode: models.ModeDailyPicks, UserIsParticipant: true},
		games:       []models.Game{newGame(now.Add(time.Hour), models.GameScheduled)},
	}
	ctrl, _ := newTestController(api)
	require.NoError(t, ctrl.Load(context.Background()))

	err := ctrl.SubmitPicks(context.Background())
	assert.ErrorIs(t, err, ErrNoPicks)
	assert.Zero(t, api.Calls("submit-picks"))

	state, msg := ctrl.PickSubmission()
	assert.Equal(t, Failed, state)
	assert.Equal(t, "Please select at least one pick.", msg)
}

func TestSubmitFailureKeepsDraft(t *testing.T) {
	game := newGame(now.Add(time.Hour), models.GameScheduled)
	api := &fakeAPI{
		competition: &models.Competition{ID: uuid.New(), Mode: models.ModeDailyPicks, UserIsParticipant: true},
		games:       []models.Game{game},
		submitErr:   &backend.APIError{Status: http.StatusBadRequest, Detail: "Game has already started - picks are locked"},
	}
	ctrl, _ := newTestController(api)
	require.NoError(t, ctrl.Load(context.Background()))
	require.NoError(t, ctrl.Pick(game.ID, game.HomeTeam.ID))

	err := ctrl.SubmitPicks(context.Background())
	require.Error(t, err)

	state, msg := ctrl.PickSubmission()
	assert.Equal(t, Failed, state)
	assert.Equal(t, "Game has already started - picks are locked", msg)
	assert.Equal(t, 1, ctrl.PickCount())
	assert.Equal(t, Dirty, ctrl.PickDraftState())

	api.submitErr = &backend.APIError{Status: http.StatusInternalServerError}
	require.Error(t, ctrl.SubmitPicks(context.Background()))
	_, msg = ctrl.PickSubmission()
	assert.Equal(t, "Failed to submit picks. Please try again.", msg)
}

func TestBackgroundRefreshKeepsEdits(t *testing.T) {
	game := newGame(now.Add(time.Hour), models.GameScheduled)
	api := &fakeAPI{
		competition: &models.Competition{ID: uuid.New(), Mode: models.ModeDailyPicks, UserIsParticipant: true},
		games:       []models.Game{game},
		myPicks:     []models.Pick{{GameID: game.ID, PredictedWinnerTeamID: game.HomeTeam.ID}},
	}
	ctrl, _ := newTestController(api)
	ctx := context.Background()
	require.NoError(t, ctrl.Load(ctx))
	require.NoError(t, ctrl.Pick(game.ID, game.AwayTeam.ID))

	require.NoError(t, ctrl.RefreshGames(ctx))
	require.NoError(t, ctrl.RefreshLeaderboard(ctx))
	ctrl.cache.Invalidate(MyPicksKey(api.competition.ID, ctrl.Date()))
	require.NoError(t, ctrl.Load(ctx))

	winner, ok := ctrl.PickedWinner(game.ID)
	require.True(t, ok)
	assert.Equal(t, game.AwayTeam.ID, winner)
	assert.Equal(t, 2, api.Calls("games"))
	assert.Equal(t, 2, api.Calls("my-picks"))
}

func TestSetDateReseedsAndDropsLateSeed(t *testing.T) {
	game := newGame(now.Add(time.Hour), models.GameScheduled)
	api := &fakeAPI{
		competition: &models.Competition{ID: uuid.New(), Mode: models.ModeDailyPicks, UserIsParticipant: true},
		games:       []models.Game{game},
		myPicks:     []models.Pick{{GameID: game.ID, PredictedWinnerTeamID: game.HomeTeam.ID}},
	}
	ctrl, _ := newTestController(api)
	ctx := context.Background()
	oldCtx := ctrl.Context()

	// The day changes while the saved picks for the old day are still loading.
	api.beforeMyPicks = func() {
		api.beforeMyPicks = nil
		ctrl.SetDate(now.AddDate(0, 0, 1))
	}
	require.NoError(t, ctrl.Load(ctx))

	assert.Equal(t, Unseeded, ctrl.PickDraftState())
	assert.Zero(t, ctrl.PickCount())
	assert.Error(t, oldCtx.Err())

	require.NoError(t, ctrl.Load(ctx))
	assert.Equal(t, Seeded, ctrl.PickDraftState())
	assert.Equal(t, []string{"2025-03-14", "2025-03-15"}, api.gameDates)
}

func TestFixedTeamsScenario(t *testing.T) {
	x := models.Candidate{ID: uuid.New(), Name: "X", IsAvailable: true}
	y := models.Candidate{ID: uuid.New(), Name: "Y", IsAvailable: true}
	z := models.Candidate{ID: uuid.New(), Name: "Z", IsAvailable: false}

	api := &fakeAPI{
		competition: &models.Competition{
			ID:                     uuid.New(),
			Mode:                   models.ModeFixedTeams,
			Status:                 models.CompetitionUpcoming,
			MaxTeamsPerParticipant: intPtr(2),
			UserIsParticipant:      true,
		},
		available: models.AvailableSelections{Teams: []models.Candidate{x, y, z}},
	}
	ctrl, _ := newTestController(api)
	ctx := context.Background()
	require.NoError(t, ctrl.Load(ctx))

	for _, id := range []uuid.UUID{x.ID, y.ID} {
		selected, err := ctrl.ToggleSelection(id)
		require.NoError(t, err)
		assert.True(t, selected)
	}

	_, err := ctrl.ToggleSelection(z.ID)
	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, "teams", capErr.Unit)

	selected, err := ctrl.ToggleSelection(x.ID)
	require.NoError(t, err)
	assert.False(t, selected)

	_, err = ctrl.ToggleSelection(z.ID)
	assert.ErrorIs(t, err, ErrCandidateUnavailable)

	require.NoError(t, ctrl.SubmitSelections(ctx))
	require.Len(t, api.selections, 1)
	require.Len(t, api.selections[0], 1)
	assert.Equal(t, y.ID, *api.selections[0][0].TeamID)

	assert.Equal(t, 2, api.Calls("available"))
	assert.Equal(t, 2, api.Calls("my-fixed"))
}

func TestFixedSelectionsLockedWhileActive(t *testing.T) {
	x := models.Candidate{ID: uuid.New(), Name: "X", IsAvailable: true}
	api := &fakeAPI{
		competition: &models.Competition{
			ID:                uuid.New(),
			Mode:              models.ModeFixedTeams,
			Status:            models.CompetitionActive,
			UserIsParticipant: true,
		},
		available: models.AvailableSelections{Teams: []models.Candidate{x}},
	}
	ctrl, _ := newTestController(api)
	require.NoError(t, ctrl.Load(context.Background()))

	_, err := ctrl.ToggleSelection(x.ID)
	assert.ErrorIs(t, err, ErrSelectionsLocked)
	assert.ErrorIs(t, ctrl.SubmitSelections(context.Background()), ErrSelectionsLocked)
	assert.Zero(t, api.Calls("submit-fixed"))
}

func TestJoinOpensLeaderboardGate(t *testing.T) {
	api := &fakeAPI{
		competition: &models.Competition{
			ID:       uuid.New(),
			Mode:     models.ModeDailyPicks,
			JoinType: models.JoinRequiresApproval,
		},
	}
	ctrl, _ := newTestController(api)
	ctx := context.Background()

	comp, err := ctrl.Competition(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Request to Join", comp.JoinLabel())

	_, err = ctrl.Leaderboard(ctx)
	assert.ErrorIs(t, err, ErrNotParticipant)
	assert.Zero(t, api.Calls("leaderboard"))

	_, err = cache.Get(ctx, ctrl.cache, CompetitionsKey(), func(ctx context.Context) ([]models.Competition, error) {
		return []models.Competition{*api.competition}, nil
	})
	require.NoError(t, err)

	_, err = ctrl.Join(ctx)
	require.NoError(t, err)
	_, st := cache.Peek[[]models.Competition](ctrl.cache, CompetitionsKey())
	assert.True(t, st.Stale)
	state, _ := ctrl.JoinSubmission()
	assert.Equal(t, Succeeded, state)

	comp, err = ctrl.Competition(ctx)
	require.NoError(t, err)
	assert.True(t, comp.UserIsParticipant)

	_, err = ctrl.Leaderboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, api.Calls("leaderboard"))
}

func TestJoinFailureMessage(t *testing.T) {
	api := &fakeAPI{
		competition: &models.Competition{ID: uuid.New(), Mode: models.ModeDailyPicks},
		joinErr:     &backend.APIError{Status: http.StatusBadRequest, Detail: "Competition is full"},
	}
	ctrl, _ := newTestController(api)

	_, err := ctrl.Join(context.Background())
	require.Error(t, err)

	state, msg := ctrl.JoinSubmission()
	assert.Equal(t, Failed, state)
	assert.Equal(t, "Competition is full", msg)
}

func TestLocksFollowClockBetweenFetches(t *testing.T) {
	game := newGame(now.Add(time.Minute), models.GameScheduled)
	api := &fakeAPI{
		competition: &models.Competition{ID: uuid.New(), Mode: models.ModeDailyPicks, UserIsParticipant: true},
		games:       []models.Game{game},
	}
	ctrl, clock := newTestController(api)
	require.NoError(t, ctrl.Load(context.Background()))

	require.NoError(t, ctrl.Pick(game.ID, game.HomeTeam.ID))
	clock.Advance(time.Minute)
	assert.ErrorIs(t, ctrl.Pick(game.ID, game.AwayTeam.ID), ErrGameLocked)
	assert.ErrorIs(t, ctrl.SubmitPicks(context.Background()), ErrNoPicks)
}

func TestLockedPickCountFollowsGamesRefresh(t *testing.T) {
	started := newGame(now.Add(-time.Hour), models.GameInProgress)
	later := newGame(now.Add(time.Minute), models.GameScheduled)
	api := &fakeAPI{
		competition: &models.Competition{ID: uuid.New(), Mode: models.ModeDailyPicks, UserIsParticipant: true},
		games:       []models.Game{started, later},
		myPicks:     []models.Pick{{GameID: started.ID, PredictedWinnerTeamID: started.AwayTeam.ID}},
	}
	ctrl, clock := newTestController(api)
	ctx := context.Background()

	require.NoError(t, ctrl.Load(ctx))
	assert.Equal(t, 1, ctrl.LockedPickCount())

	require.NoError(t, ctrl.Pick(later.ID, later.HomeTeam.ID))
	clock.Advance(time.Minute)
	assert.Equal(t, 1, ctrl.LockedPickCount())

	require.NoError(t, ctrl.RefreshGames(ctx))
	assert.Equal(t, 2, ctrl.LockedPickCount())

	ctrl.Close()
	ctrl.cache.Invalidate(GamesKey(api.competition.ID, ctrl.Date()))
	_, err := cache.Get(ctx, ctrl.cache, GamesKey(api.competition.ID, ctrl.Date()), func(ctx context.Context) ([]models.Game, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, ctrl.LockedPickCount())
}
