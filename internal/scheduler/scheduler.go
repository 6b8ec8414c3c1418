package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/omarshaarawi/pickem/internal/config"
)

// Refresher is a competition view whose time-sensitive data is polled in the background.
type Refresher interface {
	Context() context.Context
	RefreshLeaderboard(ctx context.Context) error
	RefreshGames(ctx context.Context) error
}

type Scheduler struct {
	s                gocron.Scheduler
	leaderboardEvery time.Duration
	gamesEvery       time.Duration
}

func NewScheduler(cfg config.Refresh, location *time.Location, clock clockwork.Clock) (*Scheduler, error) {
	opts := []gocron.SchedulerOption{}
	if location != nil {
		opts = append(opts, gocron.WithLocation(location))
	}
	if clock != nil {
		opts = append(opts, gocron.WithClock(clock))
	}

	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		s:                s,
		leaderboardEvery: cfg.Leaderboard,
		gamesEvery:       cfg.Games,
	}, nil
}

func (s *Scheduler) Start() {
	s.s.Start()
}

func (s *Scheduler) Stop() error {
	return s.s.Shutdown()
}

// Watch polls r's leaderboard and games until Unwatch(tag). Watching a tag again replaces
// its jobs.
func (s *Scheduler) Watch(tag string, r Refresher) error {
	s.s.RemoveByTags(tag)

	// Leaderboard - every 30s by default
	leaderboardJob, err := s.s.NewJob(
		gocron.DurationJob(s.leaderboardEvery),
		gocron.NewTask(func() { refreshLeaderboard(r) }),
		gocron.WithTags(tag),
		gocron.WithName(tag+"/leaderboard"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create leaderboard refresh job: %w", err)
	}

	// Games - every 60s by default, to surface lock and status changes
	gamesJob, err := s.s.NewJob(
		gocron.DurationJob(s.gamesEvery),
		gocron.NewTask(func() { refreshGames(r) }),
		gocron.WithTags(tag),
		gocron.WithName(tag+"/games"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		s.s.RemoveByTags(tag)
		return fmt.Errorf("failed to create games refresh job: %w", err)
	}

	slog.Debug("Watching view", "tag", tag, "leaderboard_job", leaderboardJob.ID(), "games_job", gamesJob.ID())
	return nil
}

func (s *Scheduler) Unwatch(tag string) {
	s.s.RemoveByTags(tag)
}

// Watching returns the number of refresh jobs registered under tag.
func (s *Scheduler) Watching(tag string) int {
	n := 0
	for _, j := range s.s.Jobs() {
		for _, t := range j.Tags() {
			if t == tag {
				n++
				break
			}
		}
	}
	return n
}

func refreshLeaderboard(r Refresher) {
	ctx := r.Context()
	if ctx.Err() != nil {
		return
	}
	if err := r.RefreshLeaderboard(ctx); err != nil && ctx.Err() == nil {
		slog.Error("Failed to refresh leaderboard", "error", err)
	}
}

func refreshGames(r Refresher) {
	ctx := r.Context()
	if ctx.Err() != nil {
		return
	}
	if err := r.RefreshGames(ctx); err != nil && ctx.Err() == nil {
		slog.Error("Failed to refresh games", "error", err)
	}
}
