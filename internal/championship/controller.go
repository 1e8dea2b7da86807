// Package championship is the top-level façade (spec §4.8): registration,
// start, status, schedule, leaderboard and reset, owning the coordinator's
// lifecycle end to end. Control flow fans out Controller → Scheduler →
// Match Runner → Game Driver → Agent Client, exactly as spec §2 lays out.
package championship

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"connect4-tournament/internal/agentclient"
	"connect4-tournament/internal/broadcaster"
	"connect4-tournament/internal/events"
	"connect4-tournament/internal/gamedriver"
	"connect4-tournament/internal/match"
	"connect4-tournament/internal/models"
	"connect4-tournament/internal/schedule"
	"connect4-tournament/internal/store"
)

// ErrInvalidTransition is the Operator failure kind from spec §7: a command
// arrived while the tournament was in the wrong state for it.
var ErrInvalidTransition = errors.New("invalid tournament state transition")

// ErrNotEnoughTeams is returned by Start when fewer than two teams have
// registered.
var ErrNotEnoughTeams = errors.New("at least two teams must register before starting")

// ErrTooManyTeams enforces the spec's twenty-team upper bound.
var ErrTooManyTeams = errors.New("maximum of twenty teams allowed")

const maxTeams = 20

// Controller owns the tournament's lifecycle: one Controller per running
// tournament process.
type Controller struct {
	store   *store.Store
	bus     *broadcaster.Broadcaster
	client  gamedriver.MoveRequester
	perTurn time.Duration

	mu           sync.Mutex
	status       models.TournamentStatus
	currentRound int
	totalRounds  int
	cancel       context.CancelFunc
}

// New builds a Controller around its dependencies. Agents are called
// through an agentclient.Client built on a default http.Client.
func New(st *store.Store, bus *broadcaster.Broadcaster, perTurnCap time.Duration) *Controller {
	return &Controller{
		store:   st,
		bus:     bus,
		client:  agentclient.New(nil),
		perTurn: perTurnCap,
		status:  models.StatusWaiting,
	}
}

// Recover implements the restart rule from spec §4.4 / NON-GOALS: any match
// left in_progress when the process last stopped is reset to scheduled and
// will be replayed from game 1. It is grounded on the teacher's
// StaleGameCleanupService.RunImmediateCleanup one-shot startup pass,
// simplified from a periodic ticker-driven sweep (this domain's matches
// only ever go stale across a restart, never mid-run) to a single call made
// once before the controller starts serving traffic.
func (c *Controller) Recover(ctx context.Context) error {
	stuck, err := c.store.InProgressMatches(ctx)
	if err != nil {
		return fmt.Errorf("finding in-progress matches: %w", err)
	}
	for _, m := range stuck {
		m.Status = models.MatchScheduled
		m.Games = nil
		m.PointsA, m.PointsB = 0, 0
		m.MatchBankRemainingA = match.MatchBank.Milliseconds()
		m.MatchBankRemainingB = match.MatchBank.Milliseconds()
		if err := c.store.UpdateMatch(ctx, m); err != nil {
			log.Printf("Warning: failed to recover match %s: %v", m.MatchID, err)
			continue
		}
		c.bus.Publish(broadcaster.MatchTopic(m.MatchID), events.Event{
			Kind: events.KindMatchRestart, MatchID: m.MatchID, Payload: events.MatchRestartPayload{},
		})
		log.Printf("Recovered in-progress match %s to scheduled", m.MatchID)
	}

	snap, err := c.store.ReadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("reading snapshot on recover: %w", err)
	}
	endpointByID := make(map[string]string, len(snap.Teams))
	for _, t := range snap.Teams {
		endpointByID[t.TeamID] = t.EndpointURL
	}
	c.mu.Lock()
	c.totalRounds = len(snap.Schedule.Rounds)
	if c.totalRounds > 0 {
		c.status = models.StatusInProgress
		runCtx, cancel := context.WithCancel(context.Background())
		c.cancel = cancel
		go c.runTournament(runCtx, endpointByID)
	}
	c.mu.Unlock()
	return nil
}

// Register adds a new team (spec §6: POST /api/championship/register).
// Returns ErrInvalidTransition if the tournament already started, and
// store.ErrDuplicateTeamName on a repeat display name.
func (c *Controller) Register(ctx context.Context, displayName, endpointURL string) (models.Team, error) {
	if displayName == "" || len(displayName) > 64 {
		return models.Team{}, fmt.Errorf("display name must be 1-64 characters")
	}
	if endpointURL == "" {
		return models.Team{}, fmt.Errorf("api_endpoint is required")
	}

	c.mu.Lock()
	status := c.status
	c.mu.Unlock()
	if status != models.StatusWaiting {
		return models.Team{}, ErrInvalidTransition
	}

	count, err := c.store.TeamCount(ctx)
	if err != nil {
		return models.Team{}, err
	}
	if count >= maxTeams {
		return models.Team{}, ErrTooManyTeams
	}

	team := models.Team{
		TeamID:       uuid.NewString(),
		DisplayName:  displayName,
		EndpointURL:  endpointURL,
		RegisteredAt: time.Now(),
	}
	if err := c.store.RegisterTeam(ctx, team); err != nil {
		return models.Team{}, err
	}
	return team, nil
}

// Start transitions waiting → in_progress (spec §4.5): builds the
// round-robin schedule, persists its matches, and kicks off round
// execution in the background. Returns ErrInvalidTransition if the
// tournament is not waiting, ErrNotEnoughTeams if fewer than two teams
// registered.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.status != models.StatusWaiting {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	c.mu.Unlock()

	teams, err := c.store.Teams(ctx)
	if err != nil {
		return err
	}
	if len(teams) < 2 {
		return ErrNotEnoughTeams
	}

	ids := make([]string, len(teams))
	endpointByID := make(map[string]string, len(teams))
	for i, t := range teams {
		ids[i] = t.TeamID
		endpointByID[t.TeamID] = t.EndpointURL
	}

	rounds := schedule.Generate(ids)
	sched := models.Schedule{Rounds: make([]models.Round, len(rounds))}
	matches := schedule.BuildMatches(rounds, func(roundIndex, pairIndex int) string {
		return uuid.NewString()
	})
	for i, m := range matches {
		roundIndex := m.RoundIndex
		sched.Rounds[roundIndex].RoundIndex = roundIndex
		sched.Rounds[roundIndex].MatchIDs = append(sched.Rounds[roundIndex].MatchIDs, m.MatchID)
		if err := c.store.InsertMatch(ctx, matches[i]); err != nil {
			return fmt.Errorf("persisting match: %w", err)
		}
	}
	if err := c.store.SaveSchedule(ctx, sched); err != nil {
		return fmt.Errorf("persisting schedule: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.status = models.StatusInProgress
	c.currentRound = 0
	c.totalRounds = len(sched.Rounds)
	c.cancel = cancel
	c.mu.Unlock()

	c.publishDashboard(events.KindStatusUpdate, events.StatusUpdatePayload{Status: models.StatusInProgress})

	go c.runTournament(runCtx, endpointByID)
	return nil
}

// runTournament drives every round sequentially to completion (spec §4.5).
func (c *Controller) runTournament(ctx context.Context, endpointByID map[string]string) {
	dispatcher := schedule.NewDispatcher(schedule.MaxParallel)

	for round := 0; ; round++ {
		if ctx.Err() != nil {
			return
		}
		matches, err := c.store.MatchesInRound(ctx, round)
		if err != nil {
			log.Printf("Warning: failed to load round %d: %v", round, err)
			return
		}
		if len(matches) == 0 {
			break
		}

		c.mu.Lock()
		c.currentRound = round
		c.mu.Unlock()
		c.publishDashboard(events.KindRoundStart, events.RoundPayload{RoundIndex: round})

		run := func(ctx context.Context, m models.MatchRecord) models.MatchRecord {
			return c.runMatch(ctx, m, endpointByID)
		}
		onUpdate := func(m models.MatchRecord) {
			if err := c.store.UpdateMatch(ctx, m); err != nil {
				log.Printf("Warning: failed to persist match %s: %v", m.MatchID, err)
			}
			c.publishDashboard(events.KindMatchUpdate, events.MatchUpdatePayload{Match: m})
			lb, err := c.store.Leaderboard(ctx)
			if err == nil {
				c.publishDashboard(events.KindLeaderboardUpdate, events.LeaderboardUpdatePayload{Entries: lb})
			}
		}
		dispatcher.RunRound(ctx, matches, run, onUpdate)

		c.publishDashboard(events.KindRoundComplete, events.RoundPayload{RoundIndex: round})
	}

	c.mu.Lock()
	c.status = models.StatusComplete
	c.mu.Unlock()
	c.publishDashboard(events.KindStatusUpdate, events.StatusUpdatePayload{Status: models.StatusComplete})
}

func (c *Controller) runMatch(ctx context.Context, m models.MatchRecord, endpointByID map[string]string) models.MatchRecord {
	m.Status = models.MatchInProgress
	if err := c.store.UpdateMatch(ctx, m); err != nil {
		log.Printf("Warning: failed to mark match %s in_progress: %v", m.MatchID, err)
	}

	return match.Run(ctx, c.client, match.Params{
		MatchID:    m.MatchID,
		TeamAID:    m.TeamA,
		TeamBID:    m.TeamB,
		EndpointA:  endpointByID[m.TeamA],
		EndpointB:  endpointByID[m.TeamB],
		PerTurnCap: c.perTurn,
		Broadcast:  c.bus,
	})
}

// Status reports the tournament's top-level state (spec §6: GET
// /api/championship/status).
type Status struct {
	TournamentStatus models.TournamentStatus
	TeamCount        int
	CurrentRound     int
	TotalRounds      int
}

func (c *Controller) Status(ctx context.Context) (Status, error) {
	count, err := c.store.TeamCount(ctx)
	if err != nil {
		return Status{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		TournamentStatus: c.status,
		TeamCount:        count,
		CurrentRound:     c.currentRound,
		TotalRounds:      c.totalRounds,
	}, nil
}

// Schedule returns the persisted schedule, along with every match's
// current state (spec §6: GET /api/championship/schedule).
func (c *Controller) Schedule(ctx context.Context) (models.Schedule, []models.MatchRecord, error) {
	sched, err := c.store.LoadSchedule(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return models.Schedule{}, nil, err
	}
	matches, err := c.store.AllMatches(ctx)
	if err != nil {
		return models.Schedule{}, nil, err
	}
	return sched, matches, nil
}

// Leaderboard returns current standings (spec §6: GET
// /api/championship/leaderboard).
func (c *Controller) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	return c.store.Leaderboard(ctx)
}

// RestartMatch implements the explicit restart command from spec §4.4: the
// match reverts to scheduled and a match_restart event is emitted. It does
// not dispatch the match again: runTournament does not revisit a round it
// has already run, so within a running tournament the match is not replayed.
func (c *Controller) RestartMatch(ctx context.Context, matchID string) error {
	m, err := c.store.Match(ctx, matchID)
	if err != nil {
		return err
	}
	p := match.Params{MatchID: m.MatchID, TeamAID: m.TeamA, TeamBID: m.TeamB, Broadcast: c.bus}
	match.RestartMatch(p, &m)
	return c.store.UpdateMatch(ctx, m)
}

// Reset clears all persisted state and cancels any active round execution
// (spec §6: POST /api/clear-cache).
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.status = models.StatusWaiting
	c.currentRound = 0
	c.totalRounds = 0
	c.mu.Unlock()

	return c.store.Reset(ctx)
}

func (c *Controller) publishDashboard(kind events.Kind, payload interface{}) {
	c.bus.Publish(broadcaster.DashboardTopic, events.Event{Kind: kind, Payload: payload})
}
