package workflow

import (
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/omarshaarawi/pickem/internal/models"
)

// PickDraft is the unsaved winner choice per game for one (competition, date) view. It is
// not safe for concurrent use; Controller serializes access.
type PickDraft struct {
	lifecycle
	picks map[uuid.UUID]uuid.UUID
}

func NewPickDraft() *PickDraft {
	return &PickDraft{picks: make(map[uuid.UUID]uuid.UUID)}
}

// Seed loads the server's saved picks. Only the first snapshot after creation or Reset is
// taken; later calls return false and leave the draft alone.
func (d *PickDraft) Seed(picks []models.Pick) bool {
	if !d.fire(eventSeed) {
		return false
	}
	for _, p := range picks {
		d.picks[p.GameID] = p.PredictedWinnerTeamID
	}
	return true
}

// Pick records teamID as the predicted winner of game, replacing any earlier choice.
func (d *PickDraft) Pick(game models.Game, teamID uuid.UUID, clock clockwork.Clock) error {
	if IsLocked(game, clock) {
		return ErrGameLocked
	}
	if !game.HasTeam(teamID) {
		return ErrUnknownTeam
	}
	d.fire(eventEdit)
	d.picks[game.ID] = teamID
	return nil
}

func (d *PickDraft) Unpick(game models.Game, clock clockwork.Clock) error {
	if IsLocked(game, clock) {
		return ErrGameLocked
	}
	if _, ok := d.picks[game.ID]; !ok {
		return nil
	}
	d.fire(eventEdit)
	delete(d.picks, game.ID)
	return nil
}

func (d *PickDraft) Winner(gameID uuid.UUID) (uuid.UUID, bool) {
	teamID, ok := d.picks[gameID]
	return teamID, ok
}

func (d *PickDraft) Len() int {
	return len(d.picks)
}

// Reset discards every local choice; the next Seed repopulates the draft.
func (d *PickDraft) Reset() {
	d.fire(eventReset)
	d.picks = make(map[uuid.UUID]uuid.UUID)
}

// Payload serializes the draft in schedule order. Picks on games that have since locked
// are frozen server side and left out, as are picks on games missing from games, whose
// lock state cannot be checked.
func (d *PickDraft) Payload(games []models.Game, clock clockwork.Clock) ([]models.PickRequest, error) {
	out := make([]models.PickRequest, 0, len(d.picks))
	for _, g := range games {
		teamID, ok := d.picks[g.ID]
		if !ok || IsLocked(g, clock) {
			continue
		}
		out = append(out, models.PickRequest{GameID: g.ID, PredictedWinnerTeamID: teamID})
	}

	if len(out) == 0 {
		return nil, ErrNoPicks
	}
	return out, nil
}
