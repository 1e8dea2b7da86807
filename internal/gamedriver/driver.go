// Package gamedriver implements the per-game state machine from spec
// §4.3: alternates turns, calls the Agent Client under a deadline,
// validates the response, updates the board, detects terminal
// conditions, and emits move events.
package gamedriver

import (
	"context"
	"errors"
	"time"

	"connect4-tournament/internal/agentclient"
	"connect4-tournament/internal/board"
	"connect4-tournament/internal/broadcaster"
	"connect4-tournament/internal/events"
	"connect4-tournament/internal/match"
	"connect4-tournament/internal/models"
)

// MoveRequester is the subset of agentclient.Client the driver depends on,
// so tests can substitute a fake.
type MoveRequester interface {
	RequestMove(ctx context.Context, endpoint string, b board.Board, currentPlayer board.Cell, legalMoves []int, deadline time.Time) (int, error)
}

// Endpoints maps each side to its agent's endpoint URL.
type Endpoints struct {
	A string
	B string
}

// Banks maps each side to its match time bank.
type Banks struct {
	A *match.Bank
	B *match.Bank
}

// Params configures a single game.
type Params struct {
	MatchID    string
	GameIndex  int
	FirstMover models.Side
	ColorA     string // "red" or "yellow"; team_a's color for this game
	Endpoints  Endpoints
	Banks      Banks
	PerTurnCap time.Duration
	Broadcast  *broadcaster.Broadcaster // optional
}

// Play drives one game to completion and returns its sealed record. It
// never returns an error: every agent failure or time exhaustion is
// contained here and turned into a terminal forfeit outcome (spec §7).
func Play(ctx context.Context, client MoveRequester, p Params) models.GameRecord {
	rec := models.GameRecord{
		GameIndex:  p.GameIndex,
		FirstMover: p.FirstMover,
		ColorA:     p.ColorA,
	}

	publish(p, events.KindGameStart, events.GameStartPayload{
		FirstMover: p.FirstMover,
		ColorA:     p.ColorA,
	})

	// The side to move first always plays as Player1 on the board; color
	// and "first mover" are match-level bookkeeping, not board semantics.
	sideOf := map[board.Cell]models.Side{board.Player1: p.FirstMover, board.Player2: opposite(p.FirstMover)}

	b := board.New()
	current := board.Player1
	moveIndex := 0

	for {
		side := sideOf[current]
		endpoint, bank := sideEndpointAndBank(p, side)

		if bank.Exhausted() {
			seal(&rec, forfeitOutcome(side))
			publish(p, events.KindGameComplete, events.GameCompletePayload{
				Outcome: rec.Terminal,
				Reason:  "match_bank_exhausted",
			})
			return rec
		}

		legalMoves := b.LegalMoves()
		bankBefore := bank.Remaining()
		deadline := bank.Deadline(p.PerTurnCap)

		start := time.Now()
		col, err := client.RequestMove(ctx, endpoint, b, current, legalMoves, deadline)
		elapsed := time.Since(start)
		bank.Debit(elapsed)

		chargeElapsed(&rec, side, elapsed)
		publish(p, events.KindGameUpdate, events.GameUpdatePayload{
			BankRemainingAMs: p.Banks.A.Remaining().Milliseconds(),
			BankRemainingBMs: p.Banks.B.Remaining().Milliseconds(),
		})

		if err != nil {
			reason := failureReason(err, bankBefore, p.PerTurnCap)
			seal(&rec, forfeitOutcome(side))
			publish(p, events.KindGameComplete, events.GameCompletePayload{
				Outcome: rec.Terminal,
				Reason:  reason,
			})
			return rec
		}

		var applyErr error
		b, _, applyErr = b.Apply(col, current)
		if applyErr != nil {
			// The agent client already validated col against legalMoves;
			// this should be unreachable, but a defensive forfeit keeps
			// the state machine total.
			seal(&rec, forfeitOutcome(side))
			publish(p, events.KindGameComplete, events.GameCompletePayload{
				Outcome: rec.Terminal,
				Reason:  "illegal",
			})
			return rec
		}

		rec.MoveLog = append(rec.MoveLog, models.MoveRecord{
			Player:    side,
			Column:    col,
			ElapsedMs: elapsed.Milliseconds(),
		})
		rec.FinalBoard = b.Snapshot()

		publish(p, events.KindMoveMade, events.MoveMadePayload{
			Player:     side,
			Column:     col,
			BoardAfter: b.Snapshot(),
			MoveIndex:  moveIndex,
		})
		moveIndex++

		if outcome, winner := b.Terminal(); outcome != board.None {
			switch outcome {
			case board.Win:
				seal(&rec, winOutcome(sideOf[winner]))
			case board.Draw:
				seal(&rec, models.OutcomeDraw)
			}
			publish(p, events.KindGameComplete, events.GameCompletePayload{
				Outcome: rec.Terminal,
				Reason:  "terminal",
			})
			return rec
		}

		current = opponentCell(current)
	}
}

func sideEndpointAndBank(p Params, side models.Side) (string, *match.Bank) {
	if side == models.SideA {
		return p.Endpoints.A, p.Banks.A
	}
	return p.Endpoints.B, p.Banks.B
}

func opposite(s models.Side) models.Side {
	if s == models.SideA {
		return models.SideB
	}
	return models.SideA
}

func opponentCell(c board.Cell) board.Cell {
	return board.Opponent(c)
}

func forfeitOutcome(side models.Side) models.GameOutcome {
	if side == models.SideA {
		return models.OutcomeForfeit1
	}
	return models.OutcomeForfeit2
}

func winOutcome(winnerSide models.Side) models.GameOutcome {
	if winnerSide == models.SideA {
		return models.OutcomeWin1
	}
	return models.OutcomeWin2
}

// seal assigns the terminal outcome and the point split it implies (spec
// §4.3: win=1/0, draw=0.5/0.5, forfeit=0/1).
func seal(rec *models.GameRecord, outcome models.GameOutcome) {
	rec.Terminal = outcome
	switch outcome {
	case models.OutcomeWin1:
		rec.PointsA, rec.PointsB = 1, 0
	case models.OutcomeWin2:
		rec.PointsA, rec.PointsB = 0, 1
	case models.OutcomeDraw:
		rec.PointsA, rec.PointsB = 0.5, 0.5
	case models.OutcomeForfeit1:
		rec.PointsA, rec.PointsB = 0, 1
	case models.OutcomeForfeit2:
		rec.PointsA, rec.PointsB = 1, 0
	}
}

func chargeElapsed(rec *models.GameRecord, side models.Side, elapsed time.Duration) {
	if side == models.SideA {
		rec.DurationAMs += elapsed.Milliseconds()
	} else {
		rec.DurationBMs += elapsed.Milliseconds()
	}
}

func failureReason(err error, bankBeforeTurn, perTurnCap time.Duration) string {
	var f *agentclient.Failure
	if errors.As(err, &f) {
		switch f.Kind {
		case agentclient.FailureTimeout:
			if bankBeforeTurn <= perTurnCap {
				return "match_bank_exhausted"
			}
			return "per_turn_timeout"
		case agentclient.FailureTransport:
			return "transport"
		case agentclient.FailureMalformed:
			return "malformed"
		case agentclient.FailureIllegal:
			return "illegal"
		}
	}
	return "unknown"
}

func publish(p Params, kind events.Kind, payload interface{}) {
	if p.Broadcast == nil {
		return
	}
	p.Broadcast.Publish(broadcaster.MatchTopic(p.MatchID), events.Event{
		Kind:      kind,
		MatchID:   p.MatchID,
		GameIndex: p.GameIndex,
		Payload:   payload,
	})
}
