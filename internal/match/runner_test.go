package match

import (
	"context"
	"testing"
	"time"

	"connect4-tournament/internal/agentclient"
	"connect4-tournament/internal/board"
	"connect4-tournament/internal/models"
)

type columnPlayer struct {
	preferred int
}

func (p columnPlayer) RequestMove(_ context.Context, _ string, _ board.Board, _ board.Cell, legalMoves []int, _ time.Time) (int, error) {
	for _, m := range legalMoves {
		if m == p.preferred {
			return p.preferred, nil
		}
	}
	return legalMoves[0], nil
}

type unreachablePlayer struct{}

func (unreachablePlayer) RequestMove(context.Context, string, board.Board, board.Cell, []int, time.Time) (int, error) {
	return 0, &agentclient.Failure{Kind: agentclient.FailureTransport}
}

type alwaysIllegalPlayer struct{}

func (alwaysIllegalPlayer) RequestMove(context.Context, string, board.Board, board.Cell, []int, time.Time) (int, error) {
	return 0, &agentclient.Failure{Kind: agentclient.FailureIllegal}
}

func newTestParams() Params {
	return Params{
		MatchID:    "match-1",
		TeamAID:    "team-a",
		TeamBID:    "team-b",
		EndpointA:  "http://a",
		EndpointB:  "http://b",
		PerTurnCap: 5 * time.Second,
	}
}

func TestRunFourGamesFinishesMatch(t *testing.T) {
	rec := Run(context.Background(), columnPlayer{preferred: 3}, newTestParams())
	if rec.Status != models.MatchFinished {
		t.Fatalf("expected finished status, got %s", rec.Status)
	}
	if len(rec.Games) != 4 {
		t.Fatalf("expected 4 games, got %d", len(rec.Games))
	}
	if rec.Games[0].FirstMover != models.SideA || rec.Games[0].ColorA != "red" {
		t.Fatalf("game 1 rotation wrong: %+v", rec.Games[0])
	}
	if rec.Games[1].FirstMover != models.SideB || rec.Games[1].ColorA != "yellow" {
		t.Fatalf("game 2 rotation wrong: %+v", rec.Games[1])
	}
	if rec.Games[2].FirstMover != models.SideA || rec.Games[2].ColorA != "yellow" {
		t.Fatalf("game 3 rotation wrong: %+v", rec.Games[2])
	}
	if rec.Games[3].FirstMover != models.SideB || rec.Games[3].ColorA != "red" {
		t.Fatalf("game 4 rotation wrong: %+v", rec.Games[3])
	}
}

func TestRunAbortsWhenNeitherTeamReachable(t *testing.T) {
	rec := Run(context.Background(), unreachablePlayer{}, newTestParams())
	if rec.Status != models.MatchAborted {
		t.Fatalf("expected aborted status, got %s", rec.Status)
	}
	if rec.PointsA != 0 || rec.PointsB != 0 {
		t.Fatalf("expected 0/0 points on abort, got %v/%v", rec.PointsA, rec.PointsB)
	}
	if len(rec.Games) != 0 {
		t.Fatalf("expected no games played on a setup abort, got %d", len(rec.Games))
	}
}

func TestRunIllegalMoveForfeitsAllGamesToOpponent(t *testing.T) {
	rec := Run(context.Background(), alwaysIllegalPlayer{}, newTestParams())
	if rec.Status != models.MatchFinished {
		t.Fatalf("expected finished status, got %s", rec.Status)
	}
	// Every game is decided by a forfeit; whichever side moves first each
	// game loses that game, so totals should sum across 4 games to 4.0.
	if rec.PointsA+rec.PointsB != 4 {
		t.Fatalf("expected points to sum to 4 across 4 games, got %v+%v", rec.PointsA, rec.PointsB)
	}
}

func TestRestartMatchResetsToScheduled(t *testing.T) {
	rec := Run(context.Background(), columnPlayer{preferred: 3}, newTestParams())
	p := newTestParams()
	RestartMatch(p, &rec)
	if rec.Status != models.MatchScheduled {
		t.Fatalf("expected scheduled status after restart, got %s", rec.Status)
	}
	if len(rec.Games) != 0 {
		t.Fatalf("expected games cleared after restart, got %d", len(rec.Games))
	}
	if rec.MatchBankRemainingA != MatchBank.Milliseconds() || rec.MatchBankRemainingB != MatchBank.Milliseconds() {
		t.Fatalf("expected banks reset to full after restart")
	}
}
