package schedule

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"connect4-tournament/internal/models"
)

func TestRunRoundRespectsParallelCap(t *testing.T) {
	d := NewDispatcher(2)
	matches := make([]models.MatchRecord, 6)
	for i := range matches {
		matches[i] = models.MatchRecord{MatchID: fmt.Sprintf("m%d", i), Status: models.MatchScheduled}
	}

	var inFlight, maxInFlight int32
	run := func(ctx context.Context, m models.MatchRecord) models.MatchRecord {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			cur := atomic.LoadInt32(&maxInFlight)
			if n <= cur || atomic.CompareAndSwapInt32(&maxInFlight, cur, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		m.Status = models.MatchFinished
		return m
	}

	results := d.RunRound(context.Background(), matches, run, nil)
	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Status != models.MatchFinished {
			t.Fatalf("expected all matches finished, got %s", r.Status)
		}
	}
	if maxInFlight > 2 {
		t.Fatalf("expected at most 2 concurrent matches, saw %d", maxInFlight)
	}
}

func TestRunRoundSkipsByesAndSealedMatches(t *testing.T) {
	d := NewDispatcher(5)
	matches := []models.MatchRecord{
		{MatchID: "bye", IsBye: true, Status: models.MatchFinished},
		{MatchID: "live", Status: models.MatchScheduled},
	}
	calls := 0
	run := func(ctx context.Context, m models.MatchRecord) models.MatchRecord {
		calls++
		m.Status = models.MatchFinished
		return m
	}
	results := d.RunRound(context.Background(), matches, run, nil)
	if calls != 1 {
		t.Fatalf("expected exactly one match run (bye skipped), got %d calls", calls)
	}
	if results[0].MatchID != "bye" || results[1].MatchID != "live" {
		t.Fatal("expected results to preserve input order")
	}
}

func TestRunRoundReportsUpdates(t *testing.T) {
	d := NewDispatcher(5)
	matches := []models.MatchRecord{{MatchID: "m1", Status: models.MatchScheduled}}
	run := func(ctx context.Context, m models.MatchRecord) models.MatchRecord {
		m.Status = models.MatchFinished
		return m
	}
	var updated []models.MatchRecord
	onUpdate := func(m models.MatchRecord) { updated = append(updated, m) }
	d.RunRound(context.Background(), matches, run, onUpdate)
	if len(updated) != 1 || updated[0].Status != models.MatchFinished {
		t.Fatalf("expected one finished update, got %+v", updated)
	}
}
