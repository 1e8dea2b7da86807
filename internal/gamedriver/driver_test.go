package gamedriver

import (
	"context"
	"testing"
	"time"

	"connect4-tournament/internal/agentclient"
	"connect4-tournament/internal/board"
	"connect4-tournament/internal/match"
	"connect4-tournament/internal/models"
)

// columnPlayer always returns the same column, or a fallback when that
// column is full, matching the scenario 1 fixture in spec §8.
type columnPlayer struct {
	preferred int
}

func (p columnPlayer) RequestMove(_ context.Context, _ string, b board.Board, _ board.Cell, legalMoves []int, _ time.Time) (int, error) {
	for _, m := range legalMoves {
		if m == p.preferred {
			return p.preferred, nil
		}
	}
	return legalMoves[0], nil
}

// staticFailurePlayer always fails with the same kind.
type staticFailurePlayer struct {
	kind agentclient.FailureKind
}

func (p staticFailurePlayer) RequestMove(context.Context, string, board.Board, board.Cell, []int, time.Time) (int, error) {
	return 0, &agentclient.Failure{Kind: p.kind}
}

// sleepyPlayer sleeps past the deadline before answering.
type sleepyPlayer struct {
	sleep time.Duration
}

func (p sleepyPlayer) RequestMove(ctx context.Context, _ string, _ board.Board, _ board.Cell, _ []int, deadline time.Time) (int, error) {
	select {
	case <-time.After(p.sleep):
		return 0, nil
	case <-time.After(time.Until(deadline)):
		return 0, &agentclient.Failure{Kind: agentclient.FailureTimeout}
	case <-ctx.Done():
		return 0, &agentclient.Failure{Kind: agentclient.FailureTimeout}
	}
}

func newParams() Params {
	return Params{
		MatchID:    "m1",
		GameIndex:  1,
		FirstMover: models.SideA,
		ColorA:     "red",
		Endpoints:  Endpoints{A: "http://a", B: "http://b"},
		Banks:      Banks{A: match.NewBank(240 * time.Second), B: match.NewBank(240 * time.Second)},
		PerTurnCap: 10 * time.Second,
	}
}

func TestPlaySameColumnPreferenceReachesTerminalOutcome(t *testing.T) {
	client := columnPlayer{preferred: 3}
	rec := Play(context.Background(), client, newParams())
	if rec.Terminal != models.OutcomeDraw && rec.Terminal != models.OutcomeWin1 && rec.Terminal != models.OutcomeWin2 {
		t.Fatalf("expected a terminal game outcome, got %s", rec.Terminal)
	}
	if rec.PointsA+rec.PointsB != 1 {
		t.Fatalf("expected points to sum to 1, got %v+%v", rec.PointsA, rec.PointsB)
	}
}

func TestPlayIllegalMoveForfeits(t *testing.T) {
	p := newParams()
	client := staticFailurePlayer{kind: agentclient.FailureIllegal}
	rec := Play(context.Background(), client, p)
	if rec.Terminal != models.OutcomeForfeit1 {
		t.Fatalf("expected forfeit1 (first mover forfeits), got %s", rec.Terminal)
	}
	if rec.PointsA != 0 || rec.PointsB != 1 {
		t.Fatalf("expected points 0/1, got %v/%v", rec.PointsA, rec.PointsB)
	}
}

func TestPlayTimeoutForfeits(t *testing.T) {
	p := newParams()
	p.PerTurnCap = 20 * time.Millisecond
	client := sleepyPlayer{sleep: 200 * time.Millisecond}
	rec := Play(context.Background(), client, p)
	if rec.Terminal != models.OutcomeForfeit1 {
		t.Fatalf("expected forfeit1 on timeout, got %s", rec.Terminal)
	}
}

func TestPlayZeroBankForfeitsWithoutCall(t *testing.T) {
	p := newParams()
	p.Banks.A = match.NewBank(0)
	calls := 0
	client := countingPlayer{inner: columnPlayer{preferred: 3}, calls: &calls}
	rec := Play(context.Background(), client, p)
	if rec.Terminal != models.OutcomeForfeit1 {
		t.Fatalf("expected immediate forfeit1 on exhausted bank, got %s", rec.Terminal)
	}
	if calls != 0 {
		t.Fatalf("expected no agent call when bank is already exhausted, got %d calls", calls)
	}
}

type countingPlayer struct {
	inner MoveRequester
	calls *int
}

func (p countingPlayer) RequestMove(ctx context.Context, endpoint string, b board.Board, c board.Cell, legal []int, deadline time.Time) (int, error) {
	*p.calls++
	return p.inner.RequestMove(ctx, endpoint, b, c, legal, deadline)
}

func TestPlayWellFormedBoardThroughoutMoveLog(t *testing.T) {
	client := columnPlayer{preferred: 0}
	rec := Play(context.Background(), client, newParams())
	var b board.Board
	for _, mv := range rec.MoveLog {
		cell := board.Player1
		if mv.Player == models.SideB {
			cell = board.Player2
		}
		var err error
		b, _, err = b.Apply(mv.Column, cell)
		if err != nil {
			t.Fatalf("replaying move log failed: %v", err)
		}
		if !b.WellFormed() {
			t.Fatalf("board not well-formed after move %+v", mv)
		}
	}
}
