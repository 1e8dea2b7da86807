package match

import (
	"context"
	"errors"
	"time"

	"connect4-tournament/internal/agentclient"
	"connect4-tournament/internal/board"
	"connect4-tournament/internal/broadcaster"
	"connect4-tournament/internal/events"
	"connect4-tournament/internal/gamedriver"
	"connect4-tournament/internal/models"
)

// MatchBank is the per-match duration for each team (spec §4.4).
const MatchBank = 240 * time.Second

// SetupTimeout bounds how long the runner waits for either team to answer
// the first move of game 1 before declaring the match unreachable.
const SetupTimeout = 30 * time.Second

// rotation is the fixed four-game color/first-move table from spec §4.4,
// indexed by game_index-1.
var rotation = [4]struct {
	firstMover models.Side
	colorA     string
}{
	{models.SideA, "red"},
	{models.SideB, "yellow"},
	{models.SideA, "yellow"},
	{models.SideB, "red"},
}

// Params configures a single match run.
type Params struct {
	MatchID    string
	TeamAID    string
	TeamBID    string
	EndpointA  string
	EndpointB  string
	PerTurnCap time.Duration
	Broadcast  *broadcaster.Broadcaster
}

// Run drives one match to completion: four games under the color/first-move
// rotation, sharing a pair of time banks across games, per spec §4.4. It
// never panics or returns an error: the fatal setup-unreachable condition
// and every in-game failure are folded into the returned MatchRecord.
func Run(ctx context.Context, client gamedriver.MoveRequester, p Params) models.MatchRecord {
	rec := models.MatchRecord{
		MatchID: p.MatchID,
		TeamA:   p.TeamAID,
		TeamB:   p.TeamBID,
		Status:  models.MatchInProgress,
	}

	bankA := NewBank(MatchBank)
	bankB := NewBank(MatchBank)

	if unreachable := probeSetup(ctx, client, p); unreachable {
		rec.Status = models.MatchAborted
		rec.PointsA, rec.PointsB = 0, 0
		rec.MatchBankRemainingA = bankA.Remaining().Milliseconds()
		rec.MatchBankRemainingB = bankB.Remaining().Milliseconds()
		rec.UpdatedAt = time.Now()
		publish(p, events.KindMatchUpdate, events.MatchUpdatePayload{Match: rec})
		return rec
	}

	for i, rot := range rotation {
		gameIndex := i + 1

		if bankA.Exhausted() || bankB.Exhausted() {
			// Every remaining game is credited to whichever team still has
			// time, but the events still fire for UI consistency.
			g := creditExhaustedGame(gameIndex, rot, bankA, bankB)
			rec.Games = append(rec.Games, g)
			rec.PointsA += g.PointsA
			rec.PointsB += g.PointsB
			publish(p, events.KindGameStart, events.GameStartPayload{FirstMover: rot.firstMover, ColorA: rot.colorA})
			publish(p, events.KindGameComplete, events.GameCompletePayload{Outcome: g.Terminal, Reason: "match_bank_exhausted"})
			continue
		}

		g := gamedriver.Play(ctx, client, gamedriver.Params{
			MatchID:    p.MatchID,
			GameIndex:  gameIndex,
			FirstMover: rot.firstMover,
			ColorA:     rot.colorA,
			Endpoints:  gamedriver.Endpoints{A: p.EndpointA, B: p.EndpointB},
			Banks:      gamedriver.Banks{A: bankA, B: bankB},
			PerTurnCap: p.PerTurnCap,
			Broadcast:  p.Broadcast,
		})
		rec.Games = append(rec.Games, g)
		rec.PointsA += g.PointsA
		rec.PointsB += g.PointsB

		rec.MatchBankRemainingA = bankA.Remaining().Milliseconds()
		rec.MatchBankRemainingB = bankB.Remaining().Milliseconds()
		rec.UpdatedAt = time.Now()
		publish(p, events.KindMatchUpdate, events.MatchUpdatePayload{Match: rec})

		if ctx.Err() != nil {
			rec.Status = models.MatchAborted
			rec.UpdatedAt = time.Now()
			publish(p, events.KindMatchUpdate, events.MatchUpdatePayload{Match: rec})
			return rec
		}
	}

	rec.Status = models.MatchFinished
	rec.MatchBankRemainingA = bankA.Remaining().Milliseconds()
	rec.MatchBankRemainingB = bankB.Remaining().Milliseconds()
	rec.UpdatedAt = time.Now()
	publish(p, events.KindMatchUpdate, events.MatchUpdatePayload{Match: rec})
	return rec
}

// probeSetup reports whether neither team is reachable for the first move
// of game 1 within SetupTimeout, the match's only fatal condition (spec
// §4.4). "Reachable" means the agent responded at all: a malformed or
// illegal reply still proves the endpoint is up, so only a timeout or
// transport failure counts against reachability. The actual game is
// replayed by Run's main loop, so the probe's own move (if any) is not
// consumed.
func probeSetup(ctx context.Context, client gamedriver.MoveRequester, p Params) bool {
	setupCtx, cancel := context.WithTimeout(ctx, SetupTimeout)
	defer cancel()

	results := make(chan bool, 2)
	attempt := func(endpoint string) {
		b := board.New()
		_, err := client.RequestMove(setupCtx, endpoint, b, board.Player1, b.LegalMoves(), time.Now().Add(SetupTimeout))
		results <- reachable(err)
	}
	go attempt(p.EndpointA)
	go attempt(p.EndpointB)

	successes := 0
	for i := 0; i < 2; i++ {
		select {
		case ok := <-results:
			if ok {
				successes++
			}
		case <-setupCtx.Done():
			i = 2 // stop waiting; treat remaining as unreachable
		}
	}
	return successes == 0
}

func reachable(err error) bool {
	if err == nil {
		return true
	}
	var f *agentclient.Failure
	if errors.As(err, &f) {
		return f.Kind == agentclient.FailureMalformed || f.Kind == agentclient.FailureIllegal
	}
	return false
}

func creditExhaustedGame(gameIndex int, rot struct {
	firstMover models.Side
	colorA     string
}, bankA, bankB *Bank) models.GameRecord {
	g := models.GameRecord{
		GameIndex:  gameIndex,
		FirstMover: rot.firstMover,
		ColorA:     rot.colorA,
	}
	switch {
	case bankA.Exhausted() && bankB.Exhausted():
		g.Terminal = models.OutcomeDraw
		g.PointsA, g.PointsB = 0.5, 0.5
	case bankA.Exhausted():
		g.Terminal = models.OutcomeForfeit1
		g.PointsA, g.PointsB = 0, 1
	default:
		g.Terminal = models.OutcomeForfeit2
		g.PointsA, g.PointsB = 1, 0
	}
	return g
}

func publish(p Params, kind events.Kind, payload interface{}) {
	if p.Broadcast == nil {
		return
	}
	p.Broadcast.Publish(broadcaster.MatchTopic(p.MatchID), events.Event{
		Kind:      kind,
		MatchID:   p.MatchID,
		GameIndex: 0,
		Payload:   payload,
	})
}

// RestartMatch resets an in-flight or finished match back to scheduled and
// emits match_restart so spectators reload from game 1 (spec §4.4).
func RestartMatch(p Params, rec *models.MatchRecord) {
	rec.Status = models.MatchScheduled
	rec.Games = nil
	rec.PointsA, rec.PointsB = 0, 0
	rec.MatchBankRemainingA = MatchBank.Milliseconds()
	rec.MatchBankRemainingB = MatchBank.Milliseconds()
	rec.UpdatedAt = time.Now()
	publish(p, events.KindMatchRestart, events.MatchRestartPayload{})
}
