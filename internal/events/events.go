// Package events defines the tagged-variant event types the Broadcaster
// delivers, replacing the "dynamic event dispatch by string tag" the
// source used (spec §9) with a closed Go type per topic kind.
package events

import "connect4-tournament/internal/models"

// Kind identifies an event's shape. Kinds are namespaced by the topic they
// are valid on (spec §4.7).
type Kind string

const (
	// Dashboard topic kinds.
	KindInitialState      Kind = "initial_state"
	KindStatusUpdate      Kind = "status_update"
	KindRoundStart        Kind = "round_start"
	KindRoundComplete     Kind = "round_complete"
	KindMatchUpdate       Kind = "match_update"
	KindLeaderboardUpdate Kind = "leaderboard_update"

	// Per-match topic kinds.
	KindChampionshipMatchInfo Kind = "championship_match_info"
	KindGameInfo              Kind = "game_info"
	KindGameStart             Kind = "game_start"
	KindGameUpdate            Kind = "game_update"
	KindMoveMade              Kind = "move_made"
	KindGameComplete          Kind = "game_complete"
	KindSpectatorCount        Kind = "spectator_count"
	KindMatchRestart          Kind = "match_restart"

	// Delivered on any topic when a subscriber's buffer overflowed.
	KindResync Kind = "resync"
)

// Event is the envelope delivered to subscribers. Payload holds one of the
// *Payload structs below, selected by Kind.
type Event struct {
	Kind      Kind        `json:"kind"`
	MatchID   string      `json:"matchId,omitempty"`
	GameIndex int         `json:"gameIndex,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
}

// InitialStatePayload seeds a freshly-subscribed dashboard client.
type InitialStatePayload struct {
	Status       models.TournamentStatus    `json:"status"`
	CurrentRound int                        `json:"currentRound"`
	TotalRounds  int                        `json:"totalRounds"`
	Schedule     *models.Schedule           `json:"schedule,omitempty"`
	Leaderboard  []models.LeaderboardEntry  `json:"leaderboard,omitempty"`
}

// StatusUpdatePayload reflects a Championship Controller state transition.
type StatusUpdatePayload struct {
	Status models.TournamentStatus `json:"status"`
}

// RoundPayload carries round_start / round_complete events.
type RoundPayload struct {
	RoundIndex int `json:"roundIndex"`
}

// MatchUpdatePayload reflects a MatchRecord change.
type MatchUpdatePayload struct {
	Match models.MatchRecord `json:"match"`
}

// LeaderboardUpdatePayload carries a freshly recomputed leaderboard.
type LeaderboardUpdatePayload struct {
	Entries []models.LeaderboardEntry `json:"entries"`
}

// ChampionshipMatchInfoPayload is sent once on a match-topic subscribe.
type ChampionshipMatchInfoPayload struct {
	Match models.MatchRecord `json:"match"`
}

// GameInfoPayload reflects the current game of a match on subscribe.
type GameInfoPayload struct {
	Game models.GameRecord `json:"game"`
}

// GameStartPayload announces a new game beginning.
type GameStartPayload struct {
	FirstMover models.Side `json:"firstMover"`
	ColorA     string      `json:"colorA"`
}

// GameUpdatePayload is a lightweight live-state tick (e.g. bank remaining).
type GameUpdatePayload struct {
	BankRemainingAMs int64 `json:"bankRemainingAMs"`
	BankRemainingBMs int64 `json:"bankRemainingBMs"`
}

// MoveMadePayload carries a single applied move.
type MoveMadePayload struct {
	Player     models.Side                 `json:"player"`
	Column     int                          `json:"column"`
	BoardAfter [6][7]int                    `json:"boardAfter"`
	MoveIndex  int                          `json:"moveIndex"`
}

// GameCompletePayload announces a terminal game outcome.
type GameCompletePayload struct {
	Outcome models.GameOutcome `json:"outcome"`
	Reason  string             `json:"reason"`
}

// SpectatorCountPayload reports the number of live subscribers on a match
// topic.
type SpectatorCountPayload struct {
	Count int `json:"count"`
}

// MatchRestartPayload tells spectators to reload a match from game 1.
type MatchRestartPayload struct{}

// ResyncPayload tells a subscriber it missed events and must fetch a fresh
// snapshot (spec §4.7: buffer overflow policy).
type ResyncPayload struct{}
