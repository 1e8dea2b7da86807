// Package models holds the persistent entities from spec §3: Team, Board
// snapshots, GameRecord, MatchRecord, Round, Schedule and
// LeaderboardEntry. Types here are pure data — behavior lives in the
// components that own each entity (board, gamedriver, match, schedule,
// store).
package models

import (
	"time"

	"connect4-tournament/internal/board"
)

// Team is a registered tournament participant.
type Team struct {
	TeamID       string    `json:"teamId" bson:"teamId"`
	DisplayName  string    `json:"displayName" bson:"displayName"`
	EndpointURL  string    `json:"endpointUrl" bson:"endpointUrl"`
	RegisteredAt time.Time `json:"registeredAt" bson:"registeredAt"`
}

// Side identifies one of the two teams in a match, never a board player
// index — spec §9 flags the source's player/team confusion and the spec
// normalizes winners to team identities.
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

// GameOutcome is the terminal state of a single game.
type GameOutcome string

const (
	OutcomeWin1     GameOutcome = "win1"
	OutcomeWin2     GameOutcome = "win2"
	OutcomeDraw     GameOutcome = "draw"
	OutcomeForfeit1 GameOutcome = "forfeit1"
	OutcomeForfeit2 GameOutcome = "forfeit2"
)

// MoveRecord is one entry in a game's move log.
type MoveRecord struct {
	Player    Side  `json:"player" bson:"player"`
	Column    int   `json:"column" bson:"column"`
	ElapsedMs int64 `json:"elapsedMs" bson:"elapsedMs"`
}

// GameRecord is one of the four games inside a match.
type GameRecord struct {
	GameIndex    int          `json:"gameIndex" bson:"gameIndex"`
	FirstMover   Side         `json:"firstMover" bson:"firstMover"`
	ColorA       string       `json:"colorA" bson:"colorA"` // "red" or "yellow"
	MoveLog      []MoveRecord `json:"moveLog" bson:"moveLog"`
	Terminal     GameOutcome  `json:"terminal" bson:"terminal"`
	PointsA      float64      `json:"pointsA" bson:"pointsA"`
	PointsB      float64      `json:"pointsB" bson:"pointsB"`
	DurationAMs  int64        `json:"durationAMs" bson:"durationAMs"`
	DurationBMs  int64        `json:"durationBMs" bson:"durationBMs"`
	FinalBoard   [board.Rows][board.Cols]int `json:"finalBoard" bson:"finalBoard"`
}

// MatchStatus is the lifecycle state of a MatchRecord.
type MatchStatus string

const (
	MatchScheduled  MatchStatus = "scheduled"
	MatchInProgress MatchStatus = "in_progress"
	MatchFinished   MatchStatus = "finished"
	MatchAborted    MatchStatus = "aborted"
)

// MatchRecord is the persistent record of one match (four games) between
// two teams.
type MatchRecord struct {
	MatchID              string      `json:"matchId" bson:"_id"`
	RoundIndex           int         `json:"roundIndex" bson:"roundIndex"`
	TeamA                string      `json:"teamA" bson:"teamA"` // team_id, empty for a bye
	TeamB                string      `json:"teamB" bson:"teamB"`
	IsBye                bool        `json:"isBye" bson:"isBye"`
	Status               MatchStatus `json:"status" bson:"status"`
	Games                []GameRecord `json:"games" bson:"games"`
	PointsA              float64     `json:"pointsA" bson:"pointsA"`
	PointsB              float64     `json:"pointsB" bson:"pointsB"`
	MatchBankRemainingA  int64       `json:"matchBankRemainingAMs" bson:"matchBankRemainingAMs"`
	MatchBankRemainingB  int64       `json:"matchBankRemainingBMs" bson:"matchBankRemainingBMs"`
	UpdatedAt            time.Time   `json:"updatedAt" bson:"updatedAt"`
}

// Sealed reports whether the match is in a terminal status.
func (m MatchRecord) Sealed() bool {
	return m.Status == MatchFinished || m.Status == MatchAborted
}

// Round is an immutable (after generation) list of match ids.
type Round struct {
	RoundIndex int      `json:"roundIndex" bson:"roundIndex"`
	MatchIDs   []string `json:"matchIds" bson:"matchIds"`
}

// Schedule is the full round-robin schedule, derived once from the team
// roster at tournament start.
type Schedule struct {
	Rounds []Round `json:"rounds" bson:"rounds"`
}

// LeaderboardEntry is a derived (never directly written) standings row.
type LeaderboardEntry struct {
	TeamID      string  `json:"teamId"`
	DisplayName string  `json:"displayName"`
	TotalPoints float64 `json:"totalPoints"`
	Wins        int     `json:"wins"`
	Draws       int     `json:"draws"`
	Losses      int     `json:"losses"`
	TotalTimeMs int64   `json:"totalTimeMs"`
}

// TournamentStatus is the Championship Controller's top-level state.
type TournamentStatus string

const (
	StatusWaiting    TournamentStatus = "waiting"
	StatusInProgress TournamentStatus = "in_progress"
	StatusComplete   TournamentStatus = "complete"
)
