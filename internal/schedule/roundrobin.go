// Package schedule generates the round-robin pairing table and drives
// rounds through a bounded worker pool (spec §4.5).
package schedule

import (
	"connect4-tournament/internal/models"
)

// byeTeamID marks a round's team with no opponent this round.
const byeTeamID = ""

// pairing is one round's list of team-id pairs, in schedule order.
// A pair with an empty id on either side is a bye.
type pairing struct {
	teamA string
	teamB string
}

// Generate builds the round-robin schedule for teamIDs using the circle
// method (spec §4.5): fix team 0, rotate the rest; for odd N a phantom BYE
// is added so every round has an even number of slots. Deterministic given
// the ordered roster — the same roster always yields the same schedule.
func Generate(teamIDs []string) [][]pairing {
	ids := append([]string(nil), teamIDs...)
	if len(ids)%2 == 1 {
		ids = append(ids, byeTeamID)
	}
	n := len(ids)
	if n < 2 {
		return nil
	}
	rounds := make([][]pairing, 0, n-1)

	fixed := ids[0]
	rotating := append([]string(nil), ids[1:]...)

	for r := 0; r < n-1; r++ {
		round := make([]pairing, 0, n/2)
		round = append(round, pairing{teamA: fixed, teamB: rotating[len(rotating)-1]})
		for i, j := 0, len(rotating)-2; i < j; i, j = i+1, j-1 {
			round = append(round, pairing{teamA: rotating[i], teamB: rotating[j]})
		}
		rounds = append(rounds, round)

		// Rotate: move the last element to the front of the rotating slice.
		last := rotating[len(rotating)-1]
		copy(rotating[1:], rotating[:len(rotating)-1])
		rotating[0] = last
	}
	return rounds
}

// BuildMatches turns the pairing table into MatchRecords, ready for the
// Store, numbering rounds from 0 and skipping no pairing — byes are kept as
// IsBye records so dashboard consumers can render a full bracket.
func BuildMatches(rounds [][]pairing, matchIDFor func(roundIndex, pairIndex int) string) []models.MatchRecord {
	var matches []models.MatchRecord
	for roundIndex, round := range rounds {
		for pairIndex, p := range round {
			isBye := p.teamA == byeTeamID || p.teamB == byeTeamID
			matches = append(matches, models.MatchRecord{
				MatchID:    matchIDFor(roundIndex, pairIndex),
				RoundIndex: roundIndex,
				TeamA:      p.teamA,
				TeamB:      p.teamB,
				IsBye:      isBye,
				Status:     matchInitialStatus(isBye),
			})
		}
	}
	return matches
}

func matchInitialStatus(isBye bool) models.MatchStatus {
	if isBye {
		return models.MatchFinished
	}
	return models.MatchScheduled
}
