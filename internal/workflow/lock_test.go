package workflow

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/omarshaarawi/pickem/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestIsLocked(t *testing.T) {
	start := time.Date(2025, 3, 14, 19, 30, 0, 0, time.UTC)

	cases := []struct {
		name   string
		now    time.Time
		status models.GameStatus
		want   bool
	}{
		{name: "scheduled before start", now: start.Add(-time.Minute), status: models.GameScheduled, want: false},
		{name: "scheduled at start", now: start, status: models.GameScheduled, want: true},
		{name: "scheduled after start", now: start.Add(time.Second), status: models.GameScheduled, want: true},
		{name: "in progress before start", now: start.Add(-time.Hour), status: models.GameInProgress, want: true},
		{name: "final", now: start.Add(-time.Hour), status: models.GameFinal, want: true},
		{name: "postponed", now: start.Add(-time.Hour), status: models.GamePostponed, want: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			game := models.Game{Status: tc.status, ScheduledStartTime: models.Timestamp{Time: start}}
			assert.Equal(t, tc.want, IsLocked(game, clockwork.NewFakeClockAt(tc.now)))
		})
	}
}

func TestIsLockedFollowsClock(t *testing.T) {
	start := time.Date(2025, 3, 14, 19, 30, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start.Add(-30 * time.Second))
	game := models.Game{Status: models.GameScheduled, ScheduledStartTime: models.Timestamp{Time: start}}

	assert.False(t, IsLocked(game, clock))
	clock.Advance(30 * time.Second)
	assert.True(t, IsLocked(game, clock))
}
