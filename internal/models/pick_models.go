package models

import (
	"github.com/google/uuid"
)

type GameStatus string

const (
	GameScheduled  GameStatus = "scheduled"
	GameInProgress GameStatus = "in_progress"
	GameFinal      GameStatus = "final"
	GamePostponed  GameStatus = "postponed"
	GameCancelled  GameStatus = "cancelled"
	GameNoResult   GameStatus = "no_result"
)

type Team struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	City         string    `json:"city"`
	Abbreviation string    `json:"abbreviation"`
}

type Game struct {
	ID                 uuid.UUID  `json:"id"`
	ExternalID         string     `json:"external_id"`
	ScheduledStartTime Timestamp  `json:"scheduled_start_time"`
	Status             GameStatus `json:"status"`
	HomeTeam           Team       `json:"home_team"`
	AwayTeam           Team       `json:"away_team"`
	HomeTeamScore      *int       `json:"home_team_score"`
	AwayTeamScore      *int       `json:"away_team_score"`
	VenueName          string     `json:"venue_name"`
	VenueCity          string     `json:"venue_city"`
}

// HasTeam reports whether teamID plays in the game.
func (g Game) HasTeam(teamID uuid.UUID) bool {
	return g.HomeTeam.ID == teamID || g.AwayTeam.ID == teamID
}

type Pick struct {
	ID                    uuid.UUID `json:"id"`
	UserID                uuid.UUID `json:"user_id"`
	CompetitionID         uuid.UUID `json:"competition_id"`
	GameID                uuid.UUID `json:"game_id"`
	PredictedWinnerTeamID uuid.UUID `json:"predicted_winner_team_id"`
	IsLocked              bool      `json:"is_locked"`
	IsCorrect             *bool     `json:"is_correct"`
	PointsEarned          int       `json:"points_earned"`
}

type PickRequest struct {
	GameID                uuid.UUID `json:"game_id"`
	PredictedWinnerTeamID uuid.UUID `json:"predicted_winner_team_id"`
}

type DailyPicksRequest struct {
	Picks []PickRequest `json:"picks"`
}

type CandidateKind string

const (
	KindTeam   CandidateKind = "team"
	KindGolfer CandidateKind = "golfer"
)

type Candidate struct {
	ID           uuid.UUID     `json:"id"`
	Name         string        `json:"name"`
	City         string        `json:"city,omitempty"`
	Country      string        `json:"country,omitempty"`
	Abbreviation string        `json:"abbreviation,omitempty"`
	IsAvailable  bool          `json:"is_available"`
	Kind         CandidateKind `json:"-"`
}

type AvailableSelections struct {
	Teams   []Candidate `json:"teams,omitempty"`
	Golfers []Candidate `json:"golfers,omitempty"`
}

// Candidates flattens the response into one list tagged with its kind.
func (a AvailableSelections) Candidates() []Candidate {
	out := make([]Candidate, 0, len(a.Teams)+len(a.Golfers))
	for _, t := range a.Teams {
		t.Kind = KindTeam
		out = append(out, t)
	}
	for _, g := range a.Golfers {
		g.Kind = KindGolfer
		out = append(out, g)
	}
	return out
}

type FixedSelection struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	CompetitionID uuid.UUID  `json:"competition_id"`
	TeamID        *uuid.UUID `json:"team_id"`
	GolferID      *uuid.UUID `json:"golfer_id"`
	IsLocked      bool       `json:"is_locked"`
	TotalPoints   int        `json:"total_points"`
}

type SelectionRequest struct {
	TeamID   *uuid.UUID `json:"team_id,omitempty"`
	GolferID *uuid.UUID `json:"golfer_id,omitempty"`
}

type FixedSelectionsRequest struct {
	Selections []SelectionRequest `json:"selections"`
}
