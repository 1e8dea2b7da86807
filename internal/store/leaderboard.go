package store

import (
	"context"
	"sort"

	"connect4-tournament/internal/models"
)

// Leaderboard recomputes standings from every sealed match record, the
// derivation spec §4.6 describes: points and time summed per team, then
// sorted by (−points, time_used, display_name). It is grounded on the
// aggregate-then-sort shape of internal/services/game_completion.go's
// post-game stat rollups, generalized from a single game's Elo delta to a
// full-tournament recomputation since Connect-4 standings have no running
// rating to update incrementally.
func (s *Store) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	teams, err := s.Teams(ctx)
	if err != nil {
		return nil, err
	}
	matches, err := s.AllMatches(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.LeaderboardEntry, len(teams))
	order := make([]string, 0, len(teams))
	for _, t := range teams {
		byID[t.TeamID] = &models.LeaderboardEntry{TeamID: t.TeamID, DisplayName: t.DisplayName}
		order = append(order, t.TeamID)
	}

	for _, m := range matches {
		if !m.Sealed() || m.IsBye {
			continue
		}
		applyMatch(byID, m)
	}

	entries := make([]models.LeaderboardEntry, 0, len(order))
	for _, id := range order {
		entries = append(entries, *byID[id])
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalPoints != entries[j].TotalPoints {
			return entries[i].TotalPoints > entries[j].TotalPoints
		}
		if entries[i].TotalTimeMs != entries[j].TotalTimeMs {
			return entries[i].TotalTimeMs < entries[j].TotalTimeMs
		}
		return entries[i].DisplayName < entries[j].DisplayName
	})
	return entries, nil
}

func applyMatch(byID map[string]*models.LeaderboardEntry, m models.MatchRecord) {
	a, okA := byID[m.TeamA]
	b, okB := byID[m.TeamB]

	for _, g := range m.Games {
		if okA {
			a.TotalPoints += g.PointsA
			a.TotalTimeMs += g.DurationAMs
			tallyOutcome(a, g.PointsA, g.PointsB)
		}
		if okB {
			b.TotalPoints += g.PointsB
			b.TotalTimeMs += g.DurationBMs
			tallyOutcome(b, g.PointsB, g.PointsA)
		}
	}

	// A match aborted before any game completed (spec §4.4/§7: "neither
	// team reachable for the first move") still has to land on standings —
	// both sides take the four losses they would have forfeited.
	if m.Status == models.MatchAborted && len(m.Games) == 0 {
		if okA {
			a.Losses += 4
		}
		if okB {
			b.Losses += 4
		}
	}
}

func tallyOutcome(e *models.LeaderboardEntry, own, opponent float64) {
	switch {
	case own > opponent:
		e.Wins++
	case own < opponent:
		e.Losses++
	default:
		e.Draws++
	}
}
