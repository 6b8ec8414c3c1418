package models

import (
	"time"

	"github.com/google/uuid"
)

type CompetitionStatus string

const (
	CompetitionUpcoming  CompetitionStatus = "upcoming"
	CompetitionActive    CompetitionStatus = "active"
	CompetitionCompleted CompetitionStatus = "completed"
)

type CompetitionMode string

const (
	ModeDailyPicks CompetitionMode = "daily_picks"
	ModeFixedTeams CompetitionMode = "fixed_teams"
)

type JoinType string

const (
	JoinOpen             JoinType = "open"
	JoinRequiresApproval JoinType = "requires_approval"
)

const SportPGA = "PGA"

type League struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Sport string    `json:"sport"`
}

type Competition struct {
	ID                       uuid.UUID         `json:"id"`
	Name                     string            `json:"name"`
	Description              string            `json:"description"`
	Status                   CompetitionStatus `json:"status"`
	Mode                     CompetitionMode   `json:"mode"`
	LeagueID                 uuid.UUID         `json:"league_id"`
	League                   *League           `json:"league,omitempty"`
	StartDate                Timestamp         `json:"start_date"`
	EndDate                  Timestamp         `json:"end_date"`
	DisplayTimezone          string            `json:"display_timezone"`
	Visibility               string            `json:"visibility"`
	JoinType                 JoinType          `json:"join_type"`
	ParticipantCount         int               `json:"participant_count"`
	MaxParticipants          *int              `json:"max_participants"`
	MaxPicksPerDay           *int              `json:"max_picks_per_day"`
	MaxTeamsPerParticipant   *int              `json:"max_teams_per_participant"`
	MaxGolfersPerParticipant *int              `json:"max_golfers_per_participant"`
	UserIsParticipant        bool              `json:"user_is_participant"`
	UserIsAdmin              bool              `json:"user_is_admin"`
}

// SelectionsLocked reports whether the fixed roster can no longer be edited.
func (c *Competition) SelectionsLocked() bool {
	return c.Status == CompetitionActive || c.Status == CompetitionCompleted
}

// SelectionLimit returns the roster size cap, or 0 when the competition sets none.
func (c *Competition) SelectionLimit() int {
	if c.MaxTeamsPerParticipant != nil {
		return *c.MaxTeamsPerParticipant
	}
	if c.MaxGolfersPerParticipant != nil {
		return *c.MaxGolfersPerParticipant
	}
	return 0
}

// SelectionUnit names what a fixed roster is made of: "golfers" or "teams".
func (c *Competition) SelectionUnit() string {
	if c.League != nil && c.League.Sport != "" {
		if c.League.Sport == SportPGA {
			return "golfers"
		}
		return "teams"
	}
	if c.MaxGolfersPerParticipant != nil && c.MaxTeamsPerParticipant == nil {
		return "golfers"
	}
	return "teams"
}

func (c *Competition) JoinLabel() string {
	if c.JoinType == JoinOpen {
		return "Join Now"
	}
	return "Request to Join"
}

type JoinResponse struct {
	Message string    `json:"message"`
	ID      uuid.UUID `json:"id"`
	Status  string    `json:"status"`
}

type LeaderboardEntry struct {
	Rank               int       `json:"rank"`
	UserID             uuid.UUID `json:"user_id"`
	Username           string    `json:"username"`
	TotalPoints        int       `json:"total_points"`
	TotalWins          int       `json:"total_wins"`
	TotalLosses        int       `json:"total_losses"`
	AccuracyPercentage float64   `json:"accuracy_percentage"`
	CurrentStreak      int       `json:"current_streak"`
	IsCurrentUser      bool      `json:"is_current_user"`
}

// Timestamp accepts both RFC 3339 and the zone-less ISO form the backend emits for UTC
// columns.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		t.Time = time.Time{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return &time.ParseError{Layout: time.RFC3339, Value: s, Message: ": timestamp must be a string"}
	}
	s = s[1 : len(s)-1]

	var err error
	for _, layout := range timestampLayouts {
		var parsed time.Time
		parsed, err = time.Parse(layout, s)
		if err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return err
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format(time.RFC3339) + `"`), nil
}
