package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/omarshaarawi/pickem/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRefresher struct {
	ctx          context.Context
	leaderboards int
	games        int
	err          error
}

func (f *fakeRefresher) Context() context.Context { return f.ctx }

func (f *fakeRefresher) RefreshLeaderboard(ctx context.Context) error {
	f.leaderboards++
	return f.err
}

func (f *fakeRefresher) RefreshGames(ctx context.Context) error {
	f.games++
	return f.err
}

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := NewScheduler(config.Refresh{Leaderboard: 30 * time.Second, Games: 60 * time.Second}, time.UTC, clockwork.NewFakeClock())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func TestWatchRegistersTaggedJobs(t *testing.T) {
	s := newTestScheduler(t)
	r := &fakeRefresher{ctx: context.Background()}

	require.NoError(t, s.Watch("chat-1", r))
	require.NoError(t, s.Watch("chat-2", r))
	assert.Equal(t, 2, s.Watching("chat-1"))
	assert.Equal(t, 2, s.Watching("chat-2"))

	require.NoError(t, s.Watch("chat-1", r))
	assert.Equal(t, 2, s.Watching("chat-1"))

	s.Unwatch("chat-1")
	assert.Zero(t, s.Watching("chat-1"))
	assert.Equal(t, 2, s.Watching("chat-2"))
}

func TestRefreshTasks(t *testing.T) {
	r := &fakeRefresher{ctx: context.Background(), err: errors.New("boom")}

	refreshLeaderboard(r)
	refreshGames(r)
	assert.Equal(t, 1, r.leaderboards)
	assert.Equal(t, 1, r.games)
}

func TestRefreshTasksSkipClosedViews(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &fakeRefresher{ctx: ctx}

	refreshLeaderboard(r)
	refreshGames(r)
	assert.Zero(t, r.leaderboards)
	assert.Zero(t, r.games)
}
