package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/omarshaarawi/pickem/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// titleCase turns wire enums such as "daily_picks" into "Daily Picks".
func titleCase(s string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(s, "_", " "))
}

func statusBadge(status models.CompetitionStatus) string {
	switch status {
	case models.CompetitionActive:
		return "🟢 Active"
	case models.CompetitionUpcoming:
		return "🗓 Upcoming"
	case models.CompetitionCompleted:
		return "🏁 Completed"
	}
	return titleCase(string(status))
}

func gameBadge(status models.GameStatus) string {
	switch status {
	case models.GameInProgress:
		return "🔴 Live"
	case models.GameFinal:
		return "✅ Final"
	case models.GamePostponed:
		return "⏸ Postponed"
	case models.GameCancelled:
		return "🚫 Cancelled"
	case models.GameNoResult:
		return "➖ No Result"
	}
	return ""
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "TBD"
	}
	return t.Format("Jan 2, 2006")
}

func formatDay(t time.Time) string {
	return t.Format("Mon, Jan 2")
}

func formatKickoff(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("3:04 PM MST")
}

func formatScore(g models.Game) string {
	if g.HomeTeamScore == nil || g.AwayTeamScore == nil {
		return ""
	}
	return fmt.Sprintf("%d - %d", *g.AwayTeamScore, *g.HomeTeamScore)
}

func formatParticipants(c *models.Competition) string {
	if c.MaxParticipants != nil {
		return fmt.Sprintf("%d / %d", c.ParticipantCount, *c.MaxParticipants)
	}
	return fmt.Sprintf("%d", c.ParticipantCount)
}

func teamLabel(t models.Team) string {
	if t.City != "" {
		return t.City + " " + t.Name
	}
	return t.Name
}

func candidateLabel(c models.Candidate) string {
	var extra []string
	if c.City != "" {
		extra = append(extra, c.City)
	}
	if c.Country != "" {
		extra = append(extra, c.Country)
	}
	if len(extra) == 0 {
		return c.Name
	}
	return fmt.Sprintf("%s (%s)", c.Name, strings.Join(extra, ", "))
}
