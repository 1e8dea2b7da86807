package refagent

import (
	"connect4-tournament/internal/board"
	"testing"
)

func TestChooseTakesImmediateWin(t *testing.T) {
	var b board.Board
	b.Grid[5][0] = board.Player1
	b.Grid[5][1] = board.Player1
	b.Grid[5][2] = board.Player1
	// column 3 completes the horizontal four for Player1
	req := moveRequest{
		Board:         b.Snapshot(),
		CurrentPlayer: int(board.Player1),
		ValidMoves:    b.LegalMoves(),
	}
	move, ok := choose(req)
	if !ok || move != 3 {
		t.Fatalf("expected winning move at column 3, got %d (ok=%v)", move, ok)
	}
}

func TestChooseBlocksOpponentWin(t *testing.T) {
	var b board.Board
	b.Grid[5][0] = board.Player2
	b.Grid[5][1] = board.Player2
	b.Grid[5][2] = board.Player2
	req := moveRequest{
		Board:         b.Snapshot(),
		CurrentPlayer: int(board.Player1),
		ValidMoves:    b.LegalMoves(),
	}
	move, ok := choose(req)
	if !ok || move != 3 {
		t.Fatalf("expected blocking move at column 3, got %d (ok=%v)", move, ok)
	}
}

func TestChooseNoLegalMoves(t *testing.T) {
	req := moveRequest{ValidMoves: nil}
	if _, ok := choose(req); ok {
		t.Fatalf("expected no move when no legal moves are available")
	}
}

func TestChoosePrefersCenter(t *testing.T) {
	b := board.New()
	req := moveRequest{
		Board:         b.Snapshot(),
		CurrentPlayer: int(board.Player1),
		ValidMoves:    b.LegalMoves(),
	}
	move, ok := choose(req)
	if !ok || move != board.Cols/2 {
		t.Fatalf("expected opening move at center column %d, got %d", board.Cols/2, move)
	}
}
