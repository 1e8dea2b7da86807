package board

import "testing"

func TestLegalMovesEmptyBoard(t *testing.T) {
	b := New()
	moves := b.LegalMoves()
	if len(moves) != Cols {
		t.Fatalf("expected %d legal moves, got %d", Cols, len(moves))
	}
}

func TestApplyGravity(t *testing.T) {
	b := New()
	b, row, err := b.Apply(3, Player1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row != Rows-1 {
		t.Fatalf("expected piece to land on row %d, got %d", Rows-1, row)
	}
	b, row, err = b.Apply(3, Player2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row != Rows-2 {
		t.Fatalf("expected second piece to stack on row %d, got %d", Rows-2, row)
	}
	if !b.WellFormed() {
		t.Fatalf("board should be well-formed after stacking")
	}
}

func TestApplyFullColumn(t *testing.T) {
	b := New()
	var err error
	for i := 0; i < Rows; i++ {
		b, _, err = b.Apply(0, Player1)
		if err != nil {
			t.Fatalf("unexpected error filling column: %v", err)
		}
	}
	if _, _, err = b.Apply(0, Player2); err == nil {
		t.Fatalf("expected error applying to full column")
	}
	if b.IsLegal(0) {
		t.Fatalf("full column should not be legal")
	}
}

func TestApplyOutOfRange(t *testing.T) {
	b := New()
	if _, _, err := b.Apply(7, Player1); err == nil {
		t.Fatalf("expected error for out-of-range column")
	}
	if _, _, err := b.Apply(-1, Player1); err == nil {
		t.Fatalf("expected error for negative column")
	}
}

func TestHorizontalWin(t *testing.T) {
	b := New()
	var err error
	for _, col := range []int{0, 1, 2, 3} {
		b, _, err = b.Apply(col, Player1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	outcome, winner := b.Terminal()
	if outcome != Win || winner != Player1 {
		t.Fatalf("expected Player1 win, got outcome=%v winner=%v", outcome, winner)
	}
}

func TestVerticalWin(t *testing.T) {
	b := New()
	var err error
	for i := 0; i < 4; i++ {
		b, _, err = b.Apply(2, Player2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	outcome, winner := b.Terminal()
	if outcome != Win || winner != Player2 {
		t.Fatalf("expected Player2 win, got outcome=%v winner=%v", outcome, winner)
	}
}

func TestDiagonalWin(t *testing.T) {
	b := New()
	// Build a rising diagonal for Player1 at (5,0),(4,1),(3,2),(2,3) by
	// stacking filler pieces for Player2 underneath.
	moves := []struct {
		col    int
		player Cell
	}{
		{0, Player1},
		{1, Player2}, {1, Player1},
		{2, Player2}, {2, Player2}, {2, Player1},
		{3, Player2}, {3, Player2}, {3, Player2}, {3, Player1},
	}
	var err error
	for _, m := range moves {
		b, _, err = b.Apply(m.col, m.player)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	outcome, winner := b.Terminal()
	if outcome != Win || winner != Player1 {
		t.Fatalf("expected Player1 diagonal win, got outcome=%v winner=%v", outcome, winner)
	}
}

func TestDrawFullBoardNoWinner(t *testing.T) {
	// A known draw-filling pattern avoiding any four-in-a-row.
	pattern := [Rows][Cols]Cell{
		{Player1, Player1, Player2, Player1, Player1, Player2, Player2},
		{Player2, Player2, Player1, Player2, Player2, Player1, Player1},
		{Player1, Player1, Player2, Player1, Player1, Player2, Player2},
		{Player2, Player2, Player1, Player2, Player2, Player1, Player1},
		{Player1, Player1, Player2, Player1, Player1, Player2, Player2},
		{Player2, Player2, Player1, Player2, Player2, Player1, Player1},
	}
	b := Board{Grid: pattern}
	if !b.WellFormed() {
		t.Fatalf("fixture board should be well-formed")
	}
	outcome, _ := b.Terminal()
	if outcome != Draw {
		t.Fatalf("expected draw, got outcome=%v", outcome)
	}
	if len(b.LegalMoves()) != 0 {
		t.Fatalf("full board should have no legal moves")
	}
}

func TestWellFormedRejectsGap(t *testing.T) {
	var b Board
	b.Grid[Rows-2][0] = Player1 // filled above an empty cell below it
	if b.WellFormed() {
		t.Fatalf("board with a gap should not be well-formed")
	}
}
