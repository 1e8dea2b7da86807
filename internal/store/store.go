package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"connect4-tournament/internal/models"
)

// ErrDuplicateTeamName is returned by RegisterTeam when display_name is
// already taken (spec §3: "no two teams share a display_name").
var ErrDuplicateTeamName = errors.New("team display name already registered")

// ErrNotFound is returned when a lookup misses.
var ErrNotFound = errors.New("not found")

const scheduleDocID = "schedule"

type scheduleDoc struct {
	ID       string          `bson:"_id"`
	Schedule models.Schedule `bson:"schedule"`
}

// Store is the durable key/value contract from spec §4.6: three logical
// namespaces (teams, schedule, matches), idempotent writes, a full
// snapshot for dashboard bootstrap, and atomic per-match updates.
type Store struct {
	db *MongoDB
}

// New wraps an already-connected MongoDB handle.
func New(db *MongoDB) *Store {
	return &Store{db: db}
}

// RegisterTeam inserts a new team, enforcing the unique display_name
// invariant via the unique index created by ensureIndexes.
func (s *Store) RegisterTeam(ctx context.Context, team models.Team) error {
	_, err := s.db.Teams().InsertOne(ctx, team)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateTeamName
	}
	return err
}

// Teams returns every registered team, in registration order.
func (s *Store) Teams(ctx context.Context) ([]models.Team, error) {
	cursor, err := s.db.Teams().Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"registeredAt": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var teams []models.Team
	if err := cursor.All(ctx, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// TeamCount returns the number of registered teams.
func (s *Store) TeamCount(ctx context.Context) (int, error) {
	n, err := s.db.Teams().CountDocuments(ctx, bson.M{})
	return int(n), err
}

// SaveSchedule persists the schedule blob as a singleton document, replacing
// any previous schedule (spec §4.6: built once, immutable thereafter).
func (s *Store) SaveSchedule(ctx context.Context, schedule models.Schedule) error {
	_, err := s.db.Schedule().ReplaceOne(ctx,
		bson.M{"_id": scheduleDocID},
		scheduleDoc{ID: scheduleDocID, Schedule: schedule},
		options.Replace().SetUpsert(true))
	return err
}

// LoadSchedule fetches the persisted schedule, if any.
func (s *Store) LoadSchedule(ctx context.Context) (models.Schedule, error) {
	var doc scheduleDoc
	err := s.db.Schedule().FindOne(ctx, bson.M{"_id": scheduleDocID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Schedule{}, ErrNotFound
	}
	if err != nil {
		return models.Schedule{}, err
	}
	return doc.Schedule, nil
}

// InsertMatch creates a match record at schedule generation time.
func (s *Store) InsertMatch(ctx context.Context, match models.MatchRecord) error {
	match.UpdatedAt = time.Now()
	_, err := s.db.Matches().InsertOne(ctx, match)
	return err
}

// UpdateMatch replaces a match record wholesale. Safe under concurrent
// calls for the same match because exactly one Match Runner ever owns a
// given match_id (spec §4.6): last write observed by Mongo wins, which is
// always this runner's own most recent write.
func (s *Store) UpdateMatch(ctx context.Context, match models.MatchRecord) error {
	match.UpdatedAt = time.Now()
	_, err := s.db.Matches().ReplaceOne(ctx, bson.M{"_id": match.MatchID}, match, options.Replace().SetUpsert(true))
	return err
}

// Match fetches a single match record by id.
func (s *Store) Match(ctx context.Context, matchID string) (models.MatchRecord, error) {
	var m models.MatchRecord
	err := s.db.Matches().FindOne(ctx, bson.M{"_id": matchID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.MatchRecord{}, ErrNotFound
	}
	return m, err
}

// MatchesInRound fetches every match belonging to a round, in schedule order.
func (s *Store) MatchesInRound(ctx context.Context, roundIndex int) ([]models.MatchRecord, error) {
	cursor, err := s.db.Matches().Find(ctx, bson.M{"roundIndex": roundIndex})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var matches []models.MatchRecord
	if err := cursor.All(ctx, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// AllMatches fetches every match record, used by leaderboard derivation and
// dashboard snapshots.
func (s *Store) AllMatches(ctx context.Context) ([]models.MatchRecord, error) {
	cursor, err := s.db.Matches().Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var matches []models.MatchRecord
	if err := cursor.All(ctx, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// InProgressMatches returns matches left in_progress, used at startup to
// implement the restart-from-game-1 recovery rule (spec §4.4, §NON-GOALS:
// "matches in flight at shutdown are restarted from game 1").
func (s *Store) InProgressMatches(ctx context.Context) ([]models.MatchRecord, error) {
	cursor, err := s.db.Matches().Find(ctx, bson.M{"status": models.MatchInProgress})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var matches []models.MatchRecord
	if err := cursor.All(ctx, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// Snapshot is the dashboard's initial_state payload (spec §4.6: "exposes
// snapshot() for the dashboard initial payload").
type Snapshot struct {
	Teams    []models.Team
	Schedule models.Schedule
	Matches  []models.MatchRecord
}

// ReadSnapshot assembles a consistent-enough read of the whole tournament
// state. Individual collection reads are not transactional with each
// other, matching the teacher's style of read-then-serve rather than
// multi-document transactions for a dashboard-only view.
func (s *Store) ReadSnapshot(ctx context.Context) (Snapshot, error) {
	teams, err := s.Teams(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading teams: %w", err)
	}
	schedule, err := s.LoadSchedule(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Snapshot{}, fmt.Errorf("reading schedule: %w", err)
	}
	matches, err := s.AllMatches(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading matches: %w", err)
	}
	return Snapshot{Teams: teams, Schedule: schedule, Matches: matches}, nil
}

// Reset clears all persisted state (spec: "clear-cache... resets store").
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.Teams().DeleteMany(ctx, bson.M{}); err != nil {
		return err
	}
	if _, err := s.db.Matches().DeleteMany(ctx, bson.M{}); err != nil {
		return err
	}
	if _, err := s.db.Schedule().DeleteMany(ctx, bson.M{}); err != nil {
		return err
	}
	return nil
}
