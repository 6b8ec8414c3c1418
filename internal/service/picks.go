package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/omarshaarawi/pickem/internal/models"
	"github.com/omarshaarawi/pickem/internal/workflow"
)

const pickUsage = "Usage: /pick <game number> <home|away|team name>"

// parseDate understands today, tomorrow, yesterday, next, prev and YYYY-MM-DD. Relative
// words are resolved against now or, for next and prev, against the current view date.
func parseDate(arg string, now, current time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "", "today":
		return now, nil
	case "tomorrow":
		return now.AddDate(0, 0, 1), nil
	case "yesterday":
		return now.AddDate(0, 0, -1), nil
	case "next":
		return current.AddDate(0, 0, 1), nil
	case "prev", "previous":
		return current.AddDate(0, 0, -1), nil
	}
	d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(arg), now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", arg)
	}
	return d, nil
}

// SetDate moves the open daily competition to another day and shows its games.
func (s *PickemService) SetDate(ctx context.Context, chatID int64, arg string) (string, error) {
	_, ctrl, prompt := s.current(ctx, chatID)
	if ctrl == nil {
		return prompt, nil
	}
	comp, err := ctrl.Competition(ctx)
	if err != nil {
		return "", fmt.Errorf("error fetching competition: %w", err)
	}
	if comp.Mode != models.ModeDailyPicks {
		return workflow.ErrWrongMode.Error(), nil
	}

	loc := s.location(comp)
	date, err := parseDate(arg, s.today(loc), ctrl.Date())
	if err != nil {
		return "Usage: /date <today|tomorrow|yesterday|next|prev|YYYY-MM-DD>", nil
	}
	if ctrl.PickDraftState() == workflow.Dirty && !sameDay(date, ctrl.Date()) {
		ctrl.SetDate(date)
		games, err := s.Games(ctx, chatID)
		return "⚠️ Unsaved picks for the previous day were discarded.\n\n" + games, err
	}
	ctrl.SetDate(date)
	return s.Games(ctx, chatID)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (s *PickemService) Games(ctx context.Context, chatID int64) (string, error) {
	_, ctrl, prompt := s.current(ctx, chatID)
	if ctrl == nil {
		return prompt, nil
	}

	comp, err := ctrl.Competition(ctx)
	if err != nil {
		return "", fmt.Errorf("error fetching competition: %w", err)
	}
	games, msg, err := s.dailyGames(ctx, ctrl)
	if msg != "" || err != nil {
		return msg, err
	}

	loc := s.location(comp)
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 *Games for %s*\n\n", formatDay(ctrl.Date())))
	if len(games) == 0 {
		sb.WriteString("No games scheduled for this date.\n")
		sb.WriteString("Try /date next or /date prev.")
		return sb.String(), nil
	}

	clock := ctrl.Clock()
	for i, g := range games {
		sb.WriteString(fmt.Sprintf("%d. %s @ %s\n", i+1, teamLabel(g.AwayTeam), teamLabel(g.HomeTeam)))

		line := formatKickoff(g.ScheduledStartTime.Time, loc)
		if g.VenueName != "" {
			line += " · " + g.VenueName
			if g.VenueCity != "" {
				line += ", " + g.VenueCity
			}
		}
		sb.WriteString("   " + line + "\n")

		var status []string
		if badge := gameBadge(g.Status); badge != "" {
			status = append(status, badge)
		}
		if score := formatScore(g); score != "" {
			status = append(status, score)
		}
		if workflow.IsLocked(g, clock) {
			status = append(status, "🔒 Locked")
		}
		if len(status) > 0 {
			sb.WriteString("   " + strings.Join(status, " · ") + "\n")
		}

		if winner, ok := ctrl.PickedWinner(g.ID); ok {
			sb.WriteString(fmt.Sprintf("   👉 Your pick: *%s*\n", pickedTeam(g, winner).Name))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("Picks selected: %d", ctrl.PickCount()))
	if comp.MaxPicksPerDay != nil {
		sb.WriteString(fmt.Sprintf(" (max %d per day)", *comp.MaxPicksPerDay))
	}
	sb.WriteString("\n")
	if n := ctrl.LockedPickCount(); n > 0 {
		sb.WriteString(fmt.Sprintf("🔒 %d of your picks are locked in.\n", n))
	}
	if ctrl.PickDraftState() == workflow.Dirty {
		sb.WriteString("✏️ You have unsaved changes. Send /submitpicks to save them.\n")
	}
	sb.WriteString(pickUsage)
	return sb.String(), nil
}

// resolveGame maps a 1-based game number from the last games list to a game.
func resolveGame(games []models.Game, arg string) (models.Game, bool) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(games) {
		return models.Game{}, false
	}
	return games[n-1], true
}

func resolveTeam(g models.Game, arg string) (models.Team, bool) {
	switch strings.ToLower(arg) {
	case "home":
		return g.HomeTeam, true
	case "away":
		return g.AwayTeam, true
	}
	teams := []models.Team{g.HomeTeam, g.AwayTeam}
	choices := make([][]string, len(teams))
	for i, t := range teams {
		choices[i] = []string{t.Name, t.Abbreviation, teamLabel(t)}
	}
	if i := bestMatch(arg, choices); i >= 0 {
		return teams[i], true
	}
	return models.Team{}, false
}

func (s *PickemService) dailyGames(ctx context.Context, ctrl *workflow.Controller) ([]models.Game, string, error) {
	if err := ctrl.Load(ctx); err != nil {
		return nil, "", fmt.Errorf("error loading picks: %w", err)
	}
	games, err := ctrl.Games(ctx)
	if msg, ok := userMessage(err); ok {
		return nil, msg, nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("error fetching games: %w", err)
	}
	return games, "", nil
}

// Pick records a predicted winner in the draft. Nothing is sent until SubmitPicks.
func (s *PickemService) Pick(ctx context.Context, chatID int64, args string) (string, error) {
	_, ctrl, prompt := s.current(ctx, chatID)
	if ctrl == nil {
		return prompt, nil
	}
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return pickUsage, nil
	}

	games, msg, err := s.dailyGames(ctx, ctrl)
	if msg != "" || err != nil {
		return msg, err
	}
	game, ok := resolveGame(games, fields[0])
	if !ok {
		return fmt.Sprintf("There is no game %s. Send /games to see the list.", fields[0]), nil
	}
	team, ok := resolveTeam(game, strings.Join(fields[1:], " "))
	if !ok {
		return fmt.Sprintf("Pick %s or %s for game %s.", game.AwayTeam.Name, game.HomeTeam.Name, fields[0]), nil
	}

	if err := ctrl.Pick(game.ID, team.ID); err != nil {
		if msg, ok := userMessage(err); ok {
			return "❌ " + msg, nil
		}
		return "", err
	}
	return fmt.Sprintf("✅ Picked *%s* in game %s. Send /submitpicks when you're done.", team.Name, fields[0]), nil
}

func (s *PickemService) Unpick(ctx context.Context, chatID int64, args string) (string, error) {
	_, ctrl, prompt := s.current(ctx, chatID)
	if ctrl == nil {
		return prompt, nil
	}
	fields := strings.Fields(args)
	if len(fields) != 1 {
		return "Usage: /unpick <game number>", nil
	}

	games, msg, err := s.dailyGames(ctx, ctrl)
	if msg != "" || err != nil {
		return msg, err
	}
	game, ok := resolveGame(games, fields[0])
	if !ok {
		return fmt.Sprintf("There is no game %s. Send /games to see the list.", fields[0]), nil
	}
	if _, picked := ctrl.PickedWinner(game.ID); !picked {
		return fmt.Sprintf("You have no pick for game %s.", fields[0]), nil
	}
	if err := ctrl.Unpick(game.ID); err != nil {
		if msg, ok := userMessage(err); ok {
			return "❌ " + msg, nil
		}
		return "", err
	}
	return fmt.Sprintf("Removed your pick for game %s.", fields[0]), nil
}

func (s *PickemService) SubmitPicks(ctx context.Context, chatID int64) (string, error) {
	_, ctrl, prompt := s.current(ctx, chatID)
	if ctrl == nil {
		return prompt, nil
	}

	err := ctrl.SubmitPicks(ctx)
	switch {
	case err == nil:
		return fmt.Sprintf("✅ Picks submitted successfully! You have %d picks for %s.", ctrl.PickCount(), formatDay(ctrl.Date())), nil
	case errors.Is(err, workflow.ErrSubmitInFlight):
		return "Hold on, your picks are still being submitted.", nil
	case errors.Is(err, workflow.ErrViewChanged):
		return "The date changed before your picks were saved. Please pick again.", nil
	}
	if msg, ok := userMessage(err); ok {
		return "❌ " + msg, nil
	}
	_, msg := ctrl.PickSubmission()
	return "❌ " + msg, nil
}

func pickedTeam(g models.Game, winner uuid.UUID) models.Team {
	if winner == g.AwayTeam.ID {
		return g.AwayTeam
	}
	return g.HomeTeam
}
