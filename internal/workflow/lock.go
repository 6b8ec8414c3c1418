package workflow

import (
	"github.com/jonboulle/clockwork"
	"github.com/omarshaarawi/pickem/internal/models"
)

// IsLocked reports whether picks on game are frozen: the game has started or the backend
// has moved it out of the scheduled state. Evaluate it on every use; the clock keeps
// moving between fetches.
func IsLocked(game models.Game, clock clockwork.Clock) bool {
	if game.Status != models.GameScheduled {
		return true
	}
	return !clock.Now().Before(game.ScheduledStartTime.Time)
}
