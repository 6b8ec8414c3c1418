package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/omarshaarawi/pickem/internal/cache"
	"github.com/omarshaarawi/pickem/internal/models"
)

const dateLayout = "2006-01-02"

// API is the slice of the backend the controller talks to.
type API interface {
	GetCompetition(ctx context.Context, id uuid.UUID) (*models.Competition, error)
	JoinCompetition(ctx context.Context, id uuid.UUID) (*models.JoinResponse, error)
	GetLeaderboard(ctx context.Context, id uuid.UUID) ([]models.LeaderboardEntry, error)
	GetGames(ctx context.Context, id uuid.UUID, date time.Time) ([]models.Game, error)
	GetMyPicks(ctx context.Context, id uuid.UUID, date time.Time) ([]models.Pick, error)
	SubmitDailyPicks(ctx context.Context, id uuid.UUID, picks []models.PickRequest) error
	GetAvailableSelections(ctx context.Context, id uuid.UUID) (models.AvailableSelections, error)
	GetMyFixedSelections(ctx context.Context, id uuid.UUID) ([]models.FixedSelection, error)
	SubmitFixedSelections(ctx context.Context, id uuid.UUID, selections []models.SelectionRequest) error
}

func CompetitionsKey() cache.Key { return cache.KeyOf("competitions") }
func CompetitionKey(id uuid.UUID) cache.Key { return cache.KeyOf("competition", id) }
func LeaderboardKey(id uuid.UUID) cache.Key { return cache.KeyOf("leaderboard", id) }
func AvailableKey(id uuid.UUID) cache.Key { return cache.KeyOf("available-selections", id) }
func MyFixedKey(id uuid.UUID) cache.Key { return cache.KeyOf("my-fixed-selections", id) }
func GamesKey(id uuid.UUID, d time.Time) cache.Key {
	return cache.KeyOf("games", id, d.Format(dateLayout))
}
func MyPicksKey(id uuid.UUID, d time.Time) cache.Key {
	return cache.KeyOf("my-picks", id, d.Format(dateLayout))
}

// Controller drives the prediction workflow for one competition: it reads server state
// through the cache, keeps the unsaved drafts and runs the submissions.
//
// Every change of date, and Close, starts a new epoch. Work started under an older epoch
// may still land in the cache, but it never seeds or edits the drafts of the current one.
type Controller struct {
	mu            sync.Mutex
	api           API
	cache         *cache.Cache
	clock         clockwork.Clock
	competitionID uuid.UUID
	date          time.Time
	epoch         uint64
	ctx           context.Context
	cancel        context.CancelFunc
	closed        bool

	picks      *PickDraft
	selections *SelectionDraft

	pickSubmit      *Submission
	selectionSubmit *Submission
	joinSubmit      *Submission

	lockedPicks int
	unsubscribe func()
}

func NewController(api API, c *cache.Cache, clock clockwork.Clock, competitionID uuid.UUID, date time.Time) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	ctrl := &Controller{
		api:             api,
		cache:           c,
		clock:           clock,
		competitionID:   competitionID,
		date:            truncateDay(date),
		ctx:             ctx,
		cancel:          cancel,
		picks:           NewPickDraft(),
		selections:      NewSelectionDraft(),
		pickSubmit:      NewSubmission("Failed to submit picks. Please try again."),
		selectionSubmit: NewSubmission("Failed to submit selections. Please try again."),
		joinSubmit:      NewSubmission("Failed to join competition. Please try again."),
	}
	ctrl.unsubscribe = c.Subscribe(ctrl.cacheChanged)
	return ctrl
}

func (c *Controller) CompetitionID() uuid.UUID {
	return c.competitionID
}

func (c *Controller) Date() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.date
}

func (c *Controller) Clock() clockwork.Clock {
	return c.clock
}

// Context is cancelled when the view's date changes or the view closes.
func (c *Controller) Context() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx
}

// SetDate switches the observed day. The pick draft starts over for the new day and any
// request still running for the old day is abandoned.
func (c *Controller) SetDate(date time.Time) {
	date = truncateDay(date)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || date.Equal(c.date) {
		return
	}
	c.newEpoch()
	c.date = date
	c.picks.Reset()
	c.pickSubmit.Reset()
	c.lockedPicks = 0
}

// Close abandons everything in flight. The controller must not be used afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.epoch++
	c.cancel()
	c.unsubscribe()
}

func (c *Controller) newEpoch() {
	c.epoch++
	c.cancel()
	c.ctx, c.cancel = context.WithCancel(context.Background())
}

func (c *Controller) view() (uint64, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch, c.date
}

func (c *Controller) Competition(ctx context.Context) (*models.Competition, error) {
	id := c.competitionID
	return cache.Get(ctx, c.cache, CompetitionKey(id), func(ctx context.Context) (*models.Competition, error) {
		return c.api.GetCompetition(ctx, id)
	})
}

// Leaderboard stays unfetched until the user participates in the competition.
func (c *Controller) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	comp, err := c.Competition(ctx)
	if err != nil {
		return nil, err
	}
	id := c.competitionID
	entries, err := cache.GetWhen(ctx, c.cache, comp.UserIsParticipant, LeaderboardKey(id), func(ctx context.Context) ([]models.LeaderboardEntry, error) {
		return c.api.GetLeaderboard(ctx, id)
	})
	if errors.Is(err, cache.ErrDisabled) {
		return nil, ErrNotParticipant
	}
	return entries, err
}

func (c *Controller) Games(ctx context.Context) ([]models.Game, error) {
	comp, err := c.Competition(ctx)
	if err != nil {
		return nil, err
	}
	if comp.Mode != models.ModeDailyPicks {
		return nil, ErrWrongMode
	}
	_, date := c.view()
	return c.games(ctx, comp, date)
}

func (c *Controller) games(ctx context.Context, comp *models.Competition, date time.Time) ([]models.Game, error) {
	id := c.competitionID
	games, err := cache.GetWhen(ctx, c.cache, comp.UserIsParticipant, GamesKey(id, date), func(ctx context.Context) ([]models.Game, error) {
		return c.api.GetGames(ctx, id, date)
	})
	if errors.Is(err, cache.ErrDisabled) {
		return nil, ErrNotParticipant
	}
	return games, err
}

func (c *Controller) Candidates(ctx context.Context) ([]models.Candidate, error) {
	comp, err := c.Competition(ctx)
	if err != nil {
		return nil, err
	}
	if comp.Mode != models.ModeFixedTeams {
		return nil, ErrWrongMode
	}
	return c.candidates(ctx, comp)
}

func (c *Controller) candidates(ctx context.Context, comp *models.Competition) ([]models.Candidate, error) {
	id := c.competitionID
	available, err := cache.GetWhen(ctx, c.cache, comp.UserIsParticipant, AvailableKey(id), func(ctx context.Context) (models.AvailableSelections, error) {
		return c.api.GetAvailableSelections(ctx, id)
	})
	if errors.Is(err, cache.ErrDisabled) {
		return nil, ErrNotParticipant
	}
	if err != nil {
		return nil, err
	}
	return available.Candidates(), nil
}

// Load fetches the competition and the lists its mode needs, seeding the drafts from the
// user's saved picks or roster the first time they arrive.
func (c *Controller) Load(ctx context.Context) error {
	comp, err := c.Competition(ctx)
	if err != nil {
		return err
	}
	if !comp.UserIsParticipant {
		return nil
	}

	switch comp.Mode {
	case models.ModeDailyPicks:
		_, date := c.view()
		if _, err := c.games(ctx, comp, date); err != nil {
			return err
		}
		return c.seedPicks(ctx)
	case models.ModeFixedTeams:
		if _, err := c.candidates(ctx, comp); err != nil {
			return err
		}
		return c.seedSelections(ctx)
	}
	return nil
}

func (c *Controller) seedPicks(ctx context.Context) error {
	epoch, date := c.view()
	id := c.competitionID

	picks, err := cache.Get(ctx, c.cache, MyPicksKey(id, date), func(ctx context.Context) ([]models.Pick, error) {
		return c.api.GetMyPicks(ctx, id, date)
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return nil
	}
	if c.picks.Seed(picks) {
		slog.Debug("Seeded pick draft", "competition", id, "date", date.Format(dateLayout), "picks", len(picks))
		c.countLockedPicks()
	}
	return nil
}

// cacheChanged recounts locked picks whenever the current day's games are stored.
func (c *Controller) cacheChanged(key cache.Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || key != GamesKey(c.competitionID, c.date) {
		return
	}
	if _, st := cache.Peek[[]models.Game](c.cache, key); !st.Loaded || st.Stale {
		return
	}
	c.countLockedPicks()
}

// countLockedPicks must be called with c.mu held.
func (c *Controller) countLockedPicks() {
	locked := 0
	for _, g := range c.cachedGames(c.date) {
		if _, ok := c.picks.Winner(g.ID); ok && IsLocked(g, c.clock) {
			locked++
		}
	}
	if locked > c.lockedPicks {
		slog.Info("Picks locked", "competition", c.competitionID, "date", c.date.Format(dateLayout), "locked", locked)
	}
	c.lockedPicks = locked
}

// LockedPickCount is the number of the day's picks on locked games, as of the last games
// fetch or seed.
func (c *Controller) LockedPickCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lockedPicks
}

func (c *Controller) seedSelections(ctx context.Context) error {
	epoch, _ := c.view()
	id := c.competitionID

	selections, err := cache.Get(ctx, c.cache, MyFixedKey(id), func(ctx context.Context) ([]models.FixedSelection, error) {
		return c.api.GetMyFixedSelections(ctx, id)
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return nil
	}
	if c.selections.Seed(selections) {
		slog.Debug("Seeded selection draft", "competition", id, "selections", len(selections))
	}
	return nil
}

// RefreshLeaderboard refetches the leaderboard. Drafts are never touched.
func (c *Controller) RefreshLeaderboard(ctx context.Context) error {
	c.cache.Invalidate(LeaderboardKey(c.competitionID))
	_, err := c.Leaderboard(ctx)
	if errors.Is(err, ErrNotParticipant) {
		return nil
	}
	return err
}

// RefreshGames refetches the current day's games so lock and status changes show up.
// Drafts are never touched.
func (c *Controller) RefreshGames(ctx context.Context) error {
	comp, err := c.Competition(ctx)
	if err != nil {
		return err
	}
	if comp.Mode != models.ModeDailyPicks || !comp.UserIsParticipant {
		return nil
	}
	_, date := c.view()
	c.cache.Invalidate(GamesKey(c.competitionID, date))
	_, err = c.games(ctx, comp, date)
	return err
}

func (c *Controller) cachedGames(date time.Time) []models.Game {
	games, _ := cache.Peek[[]models.Game](c.cache, GamesKey(c.competitionID, date))
	return games
}

func (c *Controller) findGame(gameID uuid.UUID) (models.Game, error) {
	for _, g := range c.cachedGames(c.date) {
		if g.ID == gameID {
			return g, nil
		}
	}
	return models.Game{}, ErrUnknownGame
}

// Pick sets teamID as the predicted winner of gameID in the draft.
func (c *Controller) Pick(gameID, teamID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	game, err := c.findGame(gameID)
	if err != nil {
		return err
	}
	return c.picks.Pick(game, teamID, c.clock)
}

func (c *Controller) Unpick(gameID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	game, err := c.findGame(gameID)
	if err != nil {
		return err
	}
	return c.picks.Unpick(game, c.clock)
}

func (c *Controller) PickedWinner(gameID uuid.UUID) (uuid.UUID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.picks.Winner(gameID)
}

func (c *Controller) PickCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.picks.Len()
}

func (c *Controller) PickDraftState() DraftState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.picks.State()
}

// SubmitPicks validates and posts the pick draft. On success the saved picks and the
// leaderboard are refetched and the draft is rebuilt from the server's copy; on failure
// the draft is kept for a retry.
func (c *Controller) SubmitPicks(ctx context.Context) error {
	c.mu.Lock()
	if c.pickSubmit.InFlight() {
		c.mu.Unlock()
		return ErrSubmitInFlight
	}
	payload, err := c.picks.Payload(c.cachedGames(c.date), c.clock)
	if err != nil {
		c.pickSubmit.Reject(err)
		c.mu.Unlock()
		return err
	}
	if err := c.pickSubmit.Begin(); err != nil {
		c.mu.Unlock()
		return err
	}
	epoch, date := c.epoch, c.date
	c.mu.Unlock()

	id := c.competitionID
	err = c.api.SubmitDailyPicks(ctx, id, payload)

	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		if err == nil {
			c.cache.Invalidate(MyPicksKey(id, date), LeaderboardKey(id))
			return nil
		}
		return ErrViewChanged
	}
	if err != nil {
		c.pickSubmit.Fail(err)
		c.mu.Unlock()
		slog.Warn("Pick submission failed", "competition", id, "error", err)
		return fmt.Errorf("submitting picks: %w", err)
	}
	c.pickSubmit.Succeed()
	c.picks.Reset()
	c.mu.Unlock()

	c.cache.Invalidate(MyPicksKey(id, date), LeaderboardKey(id))
	if err := c.seedPicks(ctx); err != nil {
		slog.Warn("Reloading picks after submit failed", "competition", id, "error", err)
	}
	return nil
}

func (c *Controller) PickSubmission() (SubmitState, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pickSubmit.State(), c.pickSubmit.Message()
}

// ToggleSelection adds or removes candidateID from the roster draft and reports whether
// it is selected afterwards.
func (c *Controller) ToggleSelection(candidateID uuid.UUID) (bool, error) {
	comp, st := cache.Peek[*models.Competition](c.cache, CompetitionKey(c.competitionID))
	if comp == nil || !st.Loaded {
		return false, fmt.Errorf("competition not loaded")
	}
	if comp.Mode != models.ModeFixedTeams {
		return false, ErrWrongMode
	}

	available, _ := cache.Peek[models.AvailableSelections](c.cache, AvailableKey(c.competitionID))
	var candidate *models.Candidate
	for _, cand := range available.Candidates() {
		if cand.ID == candidateID {
			cand := cand
			candidate = &cand
			break
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if candidate == nil {
		// Already on the roster but dropped from the list: still removable.
		if c.selections.Contains(candidateID) {
			return c.selections.Toggle(comp, models.Candidate{ID: candidateID})
		}
		return false, ErrUnknownCandidate
	}
	return c.selections.Toggle(comp, *candidate)
}

func (c *Controller) Selected(candidateID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selections.Contains(candidateID)
}

func (c *Controller) SelectedIDs() []uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selections.IDs()
}

func (c *Controller) SelectionDraftState() DraftState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selections.State()
}

// SubmitSelections validates and posts the roster draft, mirroring SubmitPicks.
func (c *Controller) SubmitSelections(ctx context.Context) error {
	comp, err := c.Competition(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.selectionSubmit.InFlight() {
		c.mu.Unlock()
		return ErrSubmitInFlight
	}
	if comp.SelectionsLocked() {
		c.selectionSubmit.Reject(ErrSelectionsLocked)
		c.mu.Unlock()
		return ErrSelectionsLocked
	}
	payload, err := c.selections.Payload()
	if err != nil {
		c.selectionSubmit.Reject(err)
		c.mu.Unlock()
		return err
	}
	if err := c.selectionSubmit.Begin(); err != nil {
		c.mu.Unlock()
		return err
	}
	epoch := c.epoch
	c.mu.Unlock()

	id := c.competitionID
	err = c.api.SubmitFixedSelections(ctx, id, payload)

	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		if err == nil {
			c.cache.Invalidate(MyFixedKey(id), AvailableKey(id))
			return nil
		}
		return ErrViewChanged
	}
	if err != nil {
		c.selectionSubmit.Fail(err)
		c.mu.Unlock()
		slog.Warn("Selection submission failed", "competition", id, "error", err)
		return fmt.Errorf("submitting selections: %w", err)
	}
	c.selectionSubmit.Succeed()
	c.selections.Reset()
	c.mu.Unlock()

	c.cache.Invalidate(MyFixedKey(id), AvailableKey(id))
	if _, err := c.candidates(ctx, comp); err != nil {
		slog.Warn("Reloading selections after submit failed", "competition", id, "error", err)
	}
	if err := c.seedSelections(ctx); err != nil {
		slog.Warn("Reloading roster after submit failed", "competition", id, "error", err)
	}
	return nil
}

func (c *Controller) SelectionSubmission() (SubmitState, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectionSubmit.State(), c.selectionSubmit.Message()
}

// Join asks to join the competition. On success the competition is refetched so the
// participant gate opens.
func (c *Controller) Join(ctx context.Context) (*models.JoinResponse, error) {
	c.mu.Lock()
	if err := c.joinSubmit.Begin(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.mu.Unlock()

	id := c.competitionID
	resp, err := c.api.JoinCompetition(ctx, id)

	c.mu.Lock()
	if err != nil {
		c.joinSubmit.Fail(err)
		c.mu.Unlock()
		return nil, fmt.Errorf("joining competition: %w", err)
	}
	c.joinSubmit.Succeed()
	c.mu.Unlock()

	// Covers this competition and the competitions list, whose participant counts changed.
	c.cache.InvalidatePrefix(cache.KeyOf("competition"))
	if _, err := c.Competition(ctx); err != nil {
		slog.Warn("Reloading competition after join failed", "competition", id, "error", err)
	}
	return resp, nil
}

func (c *Controller) JoinSubmission() (SubmitState, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.joinSubmit.State(), c.joinSubmit.Message()
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
