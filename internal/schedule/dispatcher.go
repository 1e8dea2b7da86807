package schedule

import (
	"context"
	"log"
	"sync"

	"connect4-tournament/internal/models"
)

// MaxParallel is the worker pool capacity for concurrent matches within a
// round (spec §4.5: "cap = five concurrent matches").
const MaxParallel = 5

// RunMatch executes one match to completion and returns its sealed record.
// In production it is a closure in the championship controller that calls
// match.Run; tests substitute a fake.
type RunMatch func(ctx context.Context, m models.MatchRecord) models.MatchRecord

// OnMatchUpdate is called once per dispatched match, with the record its run
// returned, so the caller can persist it and fan it out to the dashboard
// topic.
type OnMatchUpdate func(m models.MatchRecord)

// Dispatcher drives rounds sequentially, fanning each round's matches out
// to a bounded worker pool. It is grounded on internal/matchmaking/queue.go,
// generalized from a continuously-ticking matchmaker into a fixed-size
// semaphore of goroutines: round dispatch is a one-shot fan-out/fan-in per
// round, not a continuous queue drain, so a ticker has no role here.
type Dispatcher struct {
	maxParallel int
}

// NewDispatcher returns a Dispatcher with the given worker-pool capacity.
// A non-positive capacity is replaced by MaxParallel.
func NewDispatcher(maxParallel int) *Dispatcher {
	if maxParallel <= 0 {
		maxParallel = MaxParallel
	}
	return &Dispatcher{maxParallel: maxParallel}
}

// RunRound executes every non-bye match in matches concurrently, bounded by
// the dispatcher's capacity, and blocks until the round is complete — every
// match has reached a terminal status (spec §4.5: "finished" or "aborted").
// Bye matches are already terminal on entry and are skipped.
func (d *Dispatcher) RunRound(ctx context.Context, matches []models.MatchRecord, run RunMatch, onUpdate OnMatchUpdate) []models.MatchRecord {
	results := make([]models.MatchRecord, len(matches))
	sem := make(chan struct{}, d.maxParallel)
	var wg sync.WaitGroup

	for i, m := range matches {
		if m.IsBye || m.Sealed() {
			results[i] = m
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, m models.MatchRecord) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[Dispatcher] match %s panicked: %v", m.MatchID, r)
					m.Status = models.MatchAborted
					results[i] = m
					if onUpdate != nil {
						onUpdate(m)
					}
				}
			}()
			sealed := run(ctx, m)
			results[i] = sealed
			if onUpdate != nil {
				onUpdate(sealed)
			}
		}(i, m)
	}
	wg.Wait()
	return results
}
