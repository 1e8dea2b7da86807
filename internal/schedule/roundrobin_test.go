package schedule

import (
	"fmt"
	"testing"
)

func countGames(rounds [][]pairing) map[[2]string]int {
	counts := make(map[[2]string]int)
	for _, round := range rounds {
		for _, p := range round {
			if p.teamA == byeTeamID || p.teamB == byeTeamID {
				continue
			}
			key := [2]string{p.teamA, p.teamB}
			if key[0] > key[1] {
				key[0], key[1] = key[1], key[0]
			}
			counts[key]++
		}
	}
	return counts
}

func TestGenerateEvenTeamsEveryPairOnce(t *testing.T) {
	ids := []string{"t1", "t2", "t3", "t4"}
	rounds := Generate(ids)
	if len(rounds) != 3 {
		t.Fatalf("expected N-1=3 rounds for 4 teams, got %d", len(rounds))
	}
	counts := countGames(rounds)
	if len(counts) != 6 {
		t.Fatalf("expected 6 distinct pairs for 4 teams, got %d", len(counts))
	}
	for pair, n := range counts {
		if n != 1 {
			t.Fatalf("pair %v played %d times, want 1", pair, n)
		}
	}
}

func TestGenerateOddTeamsRotatingBye(t *testing.T) {
	ids := []string{"t1", "t2", "t3"}
	rounds := Generate(ids)
	if len(rounds) != 3 {
		t.Fatalf("expected N=3 rounds for 3 teams (odd), got %d", len(rounds))
	}
	byeCounts := make(map[string]int)
	for _, round := range rounds {
		for _, p := range round {
			if p.teamA == byeTeamID {
				byeCounts[p.teamB]++
			} else if p.teamB == byeTeamID {
				byeCounts[p.teamA]++
			}
		}
	}
	for _, id := range ids {
		if byeCounts[id] != 1 {
			t.Fatalf("expected team %s to sit out exactly once, got %d", id, byeCounts[id])
		}
	}
	counts := countGames(rounds)
	if len(counts) != 3 {
		t.Fatalf("expected 3 distinct pairs for 3 teams, got %d", len(counts))
	}
}

func TestGenerateTwentyTeamsEveryPairOnce(t *testing.T) {
	ids := make([]string, 20)
	for i := range ids {
		ids[i] = fmt.Sprintf("t%d", i)
	}
	rounds := Generate(ids)
	if len(rounds) != 19 {
		t.Fatalf("expected 19 rounds for 20 teams, got %d", len(rounds))
	}
	counts := countGames(rounds)
	want := 20 * 19 / 2
	if len(counts) != want {
		t.Fatalf("expected %d distinct pairs, got %d", want, len(counts))
	}
	for _, round := range rounds {
		if len(round) != 10 {
			t.Fatalf("expected 10 matches per round for 20 teams, got %d", len(round))
		}
	}
}

func TestBuildMatchesMarksByes(t *testing.T) {
	ids := []string{"t1", "t2", "t3"}
	rounds := Generate(ids)
	matches := BuildMatches(rounds, func(r, p int) string {
		return fmt.Sprintf("m-%d-%d", r, p)
	})
	sawBye := false
	for _, m := range matches {
		if m.IsBye {
			sawBye = true
			if m.Status != "finished" {
				t.Fatalf("expected a bye match to be immediately finished, got %s", m.Status)
			}
		}
	}
	if !sawBye {
		t.Fatal("expected at least one bye match for an odd team count")
	}
}
