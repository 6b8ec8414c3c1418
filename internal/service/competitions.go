package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/omarshaarawi/pickem/internal/api/backend"
	"github.com/omarshaarawi/pickem/internal/cache"
	"github.com/omarshaarawi/pickem/internal/models"
	"github.com/omarshaarawi/pickem/internal/workflow"
)

const (
	noViewPrompt     = "Open a competition first with /open."
	notFoundMessage  = "Competition not found"
	detailBoardLimit = 5
)

// current returns the chat's open competition. When there is none, or the chat is not
// signed in, the returned prompt tells the user what to do instead.
func (s *PickemService) current(ctx context.Context, chatID int64) (*chat, *workflow.Controller, string) {
	c := s.chat(ctx, chatID)
	if !c.session.IsAuthenticated() {
		return c, nil, signInPrompt
	}
	c.mu.Lock()
	view := c.view
	c.mu.Unlock()
	if view == nil {
		return c, nil, noViewPrompt
	}
	return c, view, ""
}

func (s *PickemService) listCompetitions(ctx context.Context, c *chat) ([]models.Competition, error) {
	return cache.Get(ctx, c.cache, workflow.CompetitionsKey(), func(ctx context.Context) ([]models.Competition, error) {
		return c.api.ListCompetitions(ctx)
	})
}

func (s *PickemService) Dashboard(ctx context.Context, chatID int64) (string, error) {
	c := s.chat(ctx, chatID)
	if !c.session.IsAuthenticated() {
		return signInPrompt, nil
	}

	c.cache.Invalidate(workflow.CompetitionsKey())
	comps, err := s.listCompetitions(ctx, c)
	if err != nil {
		return "", fmt.Errorf("error fetching competitions: %w", err)
	}

	var active, upcoming []models.Competition
	for _, comp := range comps {
		if !comp.UserIsParticipant {
			continue
		}
		switch comp.Status {
		case models.CompetitionActive:
			active = append(active, comp)
		case models.CompetitionUpcoming:
			upcoming = append(upcoming, comp)
		}
	}

	var sb strings.Builder
	sb.WriteString("📊 *Your Dashboard*\n")
	if user := c.session.User(); user != nil {
		sb.WriteString(fmt.Sprintf("Welcome back, %s!\n", user.Username))
	}

	var ids []uuid.UUID
	n := 1
	writeSection := func(heading string, list []models.Competition, empty string) {
		sb.WriteString(fmt.Sprintf("\n*%s*\n", heading))
		if len(list) == 0 {
			sb.WriteString(empty + "\n")
			return
		}
		for _, comp := range list {
			sb.WriteString(fmt.Sprintf("%d. *%s* (%s)\n", n, comp.Name, titleCase(string(comp.Mode))))
			if comp.Status == models.CompetitionUpcoming {
				sb.WriteString(fmt.Sprintf("   Starts %s\n", formatDate(comp.StartDate.Time)))
			} else {
				sb.WriteString(fmt.Sprintf("   Ends %s\n", formatDate(comp.EndDate.Time)))
			}
			ids = append(ids, comp.ID)
			n++
		}
	}
	writeSection("Active Competitions", active, "No active competitions. Browse /competitions to join one.")
	writeSection("Upcoming Competitions", upcoming, "No upcoming competitions.")

	if len(ids) > 0 {
		sb.WriteString("\nSend /open <number> to view a competition.")
	}

	c.mu.Lock()
	c.competitions = ids
	c.mu.Unlock()
	return sb.String(), nil
}

func (s *PickemService) Competitions(ctx context.Context, chatID int64) (string, error) {
	c := s.chat(ctx, chatID)
	if !c.session.IsAuthenticated() {
		return signInPrompt, nil
	}

	c.cache.Invalidate(workflow.CompetitionsKey())
	comps, err := s.listCompetitions(ctx, c)
	if err != nil {
		return "", fmt.Errorf("error fetching competitions: %w", err)
	}
	if len(comps) == 0 {
		return "No competitions available right now.", nil
	}

	var sb strings.Builder
	sb.WriteString("🏆 *Competitions*\n\n")
	ids := make([]uuid.UUID, 0, len(comps))
	for i, comp := range comps {
		sb.WriteString(fmt.Sprintf("%d. *%s*\n", i+1, comp.Name))
		sb.WriteString(fmt.Sprintf("   %s · %s · %s participants\n",
			statusBadge(comp.Status), titleCase(string(comp.Mode)), formatParticipants(&comp)))
		if comp.UserIsParticipant {
			sb.WriteString("   ✅ Joined · View Details\n")
		} else {
			sb.WriteString(fmt.Sprintf("   ➕ %s\n", comp.JoinLabel()))
		}
		ids = append(ids, comp.ID)
	}
	sb.WriteString("\nSend /open <number> for details or /join <number> to join.")

	c.mu.Lock()
	c.competitions = ids
	c.mu.Unlock()
	return sb.String(), nil
}

// resolveCompetition maps a command argument to a competition id: a UUID, a number from
// the last list shown, or a competition name.
func (s *PickemService) resolveCompetition(ctx context.Context, c *chat, arg string) (uuid.UUID, error) {
	arg = strings.TrimSpace(arg)
	if id, err := uuid.Parse(arg); err == nil {
		return id, nil
	}
	c.mu.Lock()
	ids := c.competitions
	c.mu.Unlock()

	comps, err := s.listCompetitions(ctx, c)
	if err != nil {
		return uuid.Nil, fmt.Errorf("error fetching competitions: %w", err)
	}

	if n, err := strconv.Atoi(arg); err == nil {
		// Numbers refer to the last list shown, or to /competitions order before any.
		if len(ids) == 0 {
			for _, comp := range comps {
				ids = append(ids, comp.ID)
			}
		}
		if n < 1 || n > len(ids) {
			return uuid.Nil, nil
		}
		return ids[n-1], nil
	}

	choices := make([][]string, len(comps))
	for i, comp := range comps {
		choices[i] = []string{comp.Name}
	}
	if i := bestMatch(arg, choices); i >= 0 {
		return comps[i].ID, nil
	}
	return uuid.Nil, nil
}

func (s *PickemService) location(comp *models.Competition) *time.Location {
	if comp != nil && comp.DisplayTimezone != "" {
		if loc, err := time.LoadLocation(comp.DisplayTimezone); err == nil {
			return loc
		}
		slog.Warn("Unknown competition timezone", "competition", comp.ID, "timezone", comp.DisplayTimezone)
	}
	return s.loc
}

func (s *PickemService) today(loc *time.Location) time.Time {
	return s.clock.Now().In(loc)
}

// Open makes the competition named by arg the chat's current view and starts refreshing
// it in the background.
func (s *PickemService) Open(ctx context.Context, chatID int64, arg string) (string, error) {
	c := s.chat(ctx, chatID)
	if !c.session.IsAuthenticated() {
		return signInPrompt, nil
	}
	if strings.TrimSpace(arg) == "" {
		return "Usage: /open <number|name>", nil
	}

	ctrl, msg, err := s.open(ctx, chatID, c, arg)
	if ctrl == nil {
		return msg, err
	}
	return s.renderDetail(ctx, ctrl)
}

func (s *PickemService) open(ctx context.Context, chatID int64, c *chat, arg string) (*workflow.Controller, string, error) {
	id, err := s.resolveCompetition(ctx, c, arg)
	if err != nil {
		return nil, "", err
	}
	if id == uuid.Nil {
		return nil, fmt.Sprintf("🔍 No competition found matching '%s'.", arg), nil
	}

	// Opening a view always shows the server's current state.
	c.cache.Invalidate(workflow.CompetitionKey(id))
	ctrl := workflow.NewController(c.api, c.cache, s.clock, id, s.today(s.loc))
	comp, err := ctrl.Competition(ctx)
	if err != nil {
		ctrl.Close()
		if backend.IsNotFound(err) {
			return nil, notFoundMessage, nil
		}
		return nil, "", fmt.Errorf("error fetching competition: %w", err)
	}
	ctrl.SetDate(s.today(s.location(comp)))
	if err := ctrl.Load(ctx); err != nil {
		slog.Warn("Failed to load competition view", "chat", chatID, "competition", id, "error", err)
	}

	s.closeView(chatID, c)
	c.mu.Lock()
	c.view = ctrl
	c.mu.Unlock()

	if err := s.watcher.Watch(tag(chatID), ctrl); err != nil {
		slog.Error("Failed to schedule refresh", "chat", chatID, "competition", id, "error", err)
	}
	slog.Info("Opened competition", "chat", chatID, "competition", id)
	return ctrl, "", nil
}

// Detail re-renders the open competition.
func (s *PickemService) Detail(ctx context.Context, chatID int64) (string, error) {
	_, ctrl, prompt := s.current(ctx, chatID)
	if ctrl == nil {
		return prompt, nil
	}
	return s.renderDetail(ctx, ctrl)
}

func (s *PickemService) renderDetail(ctx context.Context, ctrl *workflow.Controller) (string, error) {
	comp, err := ctrl.Competition(ctx)
	if err != nil {
		if backend.IsNotFound(err) {
			return notFoundMessage, nil
		}
		return "", fmt.Errorf("error fetching competition: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🏆 *%s*\n", comp.Name))
	sb.WriteString(fmt.Sprintf("%s · %s\n", statusBadge(comp.Status), titleCase(string(comp.Mode))))
	if comp.Description != "" {
		sb.WriteString(fmt.Sprintf("_%s_\n", comp.Description))
	}
	sb.WriteString("\n")
	if comp.League != nil && comp.League.Name != "" {
		sb.WriteString(fmt.Sprintf("League: %s\n", comp.League.Name))
	}
	sb.WriteString(fmt.Sprintf("Dates: %s to %s\n", formatDate(comp.StartDate.Time), formatDate(comp.EndDate.Time)))
	sb.WriteString(fmt.Sprintf("Participants: %s\n", formatParticipants(comp)))
	if comp.Visibility != "" {
		sb.WriteString(fmt.Sprintf("Visibility: %s\n", titleCase(comp.Visibility)))
	}
	sb.WriteString(fmt.Sprintf("Join Type: %s\n", titleCase(string(comp.JoinType))))

	if !comp.UserIsParticipant {
		sb.WriteString(fmt.Sprintf("\n%s\n", workflow.ErrNotParticipant.Error()))
		sb.WriteString(fmt.Sprintf("Send /join to *%s*.", comp.JoinLabel()))
		return sb.String(), nil
	}

	sb.WriteString("\n")
	switch comp.Mode {
	case models.ModeDailyPicks:
		if comp.MaxPicksPerDay != nil {
			sb.WriteString(fmt.Sprintf("Up to %d picks per day. ", *comp.MaxPicksPerDay))
		}
		sb.WriteString("Send /games to make your picks.\n")
	case models.ModeFixedTeams:
		if comp.SelectionsLocked() {
			sb.WriteString("🔒 Selections are locked once the competition has started.\n")
		} else if limit := comp.SelectionLimit(); limit > 0 {
			sb.WriteString(fmt.Sprintf("Pick up to %d %s. ", limit, comp.SelectionUnit()))
		}
		sb.WriteString(fmt.Sprintf("Send /candidates to see your %s.\n", comp.SelectionUnit()))
	}

	entries, err := ctrl.Leaderboard(ctx)
	if err != nil {
		slog.Warn("Failed to load leaderboard", "competition", comp.ID, "error", err)
		sb.WriteString("\nLeaderboard unavailable right now.")
		return sb.String(), nil
	}
	sb.WriteString("\n")
	sb.WriteString(renderLeaderboard(entries, detailBoardLimit))
	if len(entries) > detailBoardLimit {
		sb.WriteString("\nSend /leaderboard for the full standings.")
	}
	return sb.String(), nil
}

// Join joins the open competition, or the one named by arg.
func (s *PickemService) Join(ctx context.Context, chatID int64, arg string) (string, error) {
	c := s.chat(ctx, chatID)
	if !c.session.IsAuthenticated() {
		return signInPrompt, nil
	}

	var ctrl *workflow.Controller
	if strings.TrimSpace(arg) != "" {
		var msg string
		var err error
		if ctrl, msg, err = s.open(ctx, chatID, c, arg); ctrl == nil {
			return msg, err
		}
	} else {
		var prompt string
		if _, ctrl, prompt = s.current(ctx, chatID); ctrl == nil {
			return prompt, nil
		}
	}

	comp, err := ctrl.Competition(ctx)
	if err != nil {
		return "", fmt.Errorf("error fetching competition: %w", err)
	}
	if comp.UserIsParticipant {
		return fmt.Sprintf("You're already in *%s*.", comp.Name), nil
	}

	resp, err := ctrl.Join(ctx)
	if err != nil {
		if errors.Is(err, workflow.ErrSubmitInFlight) {
			return "Hold on, your join request is still being sent.", nil
		}
		_, msg := ctrl.JoinSubmission()
		return "❌ " + msg, nil
	}

	comp, err = ctrl.Competition(ctx)
	if err == nil && comp.UserIsParticipant {
		if err := ctrl.Load(ctx); err != nil {
			slog.Warn("Failed to load competition after join", "chat", chatID, "competition", comp.ID, "error", err)
		}
		detail, err := s.renderDetail(ctx, ctrl)
		if err != nil {
			return "", err
		}
		return "🎉 You're in!\n\n" + detail, nil
	}

	msg := "Your request to join has been sent."
	if resp != nil && resp.Message != "" {
		msg = resp.Message
	}
	return "📨 " + msg, nil
}

func (s *PickemService) Leaderboard(ctx context.Context, chatID int64) (string, error) {
	_, ctrl, prompt := s.current(ctx, chatID)
	if ctrl == nil {
		return prompt, nil
	}

	comp, err := ctrl.Competition(ctx)
	if err != nil {
		return "", fmt.Errorf("error fetching competition: %w", err)
	}
	entries, err := ctrl.Leaderboard(ctx)
	if errors.Is(err, workflow.ErrNotParticipant) {
		return err.Error(), nil
	}
	if err != nil {
		return "", fmt.Errorf("error fetching leaderboard: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*%s*\n", comp.Name))
	sb.WriteString(renderLeaderboard(entries, 0))
	return sb.String(), nil
}

// renderLeaderboard lists the first limit entries, or all of them when limit is 0.
func renderLeaderboard(entries []models.LeaderboardEntry, limit int) string {
	var sb strings.Builder
	sb.WriteString("🏆 *Leaderboard*\n\n")
	if len(entries) == 0 {
		sb.WriteString("No standings yet.\n")
		return sb.String()
	}

	for i, e := range entries {
		if limit > 0 && i >= limit {
			break
		}
		you := ""
		if e.IsCurrentUser {
			you = " (You)"
		}
		sb.WriteString(fmt.Sprintf("%d. *%s*%s: %d pts\n", e.Rank, e.Username, you, e.TotalPoints))
		sb.WriteString(fmt.Sprintf("   %d-%d · %.1f%%", e.TotalWins, e.TotalLosses, e.AccuracyPercentage))
		if e.CurrentStreak > 0 {
			sb.WriteString(fmt.Sprintf(" · 🔥 %d", e.CurrentStreak))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
