// Package store is the persistence layer: durable teams/schedule/matches
// collections plus the leaderboard view derived from them. It is adapted
// from internal/db/mongodb.go, trimmed to the three collections this
// domain needs and with the user-account-era indexes (users, refresh
// tokens, api keys, oauth, audit log) dropped — see DESIGN.md.
package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDB owns the database handle and exposes the domain's collections.
type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// NewMongoDB connects and pings, mirroring internal/db/mongodb.go's
// connection-pool tuning.
func NewMongoDB(uri, database string) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(200).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(5 * time.Minute)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	m := &MongoDB{
		Client:   client,
		Database: client.Database(database),
	}

	go m.ensureIndexes()

	return m, nil
}

// ensureIndexes creates all required indexes. Called once on startup.
func (m *MongoDB) ensureIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	indexes := []struct {
		collection string
		models     []mongo.IndexModel
	}{
		{
			"teams",
			[]mongo.IndexModel{
				{Keys: bson.D{{Key: "displayName", Value: 1}}, Options: options.Index().SetUnique(true)},
			},
		},
		{
			"matches",
			[]mongo.IndexModel{
				{Keys: bson.D{{Key: "roundIndex", Value: 1}}},
				{Keys: bson.D{{Key: "status", Value: 1}}},
				{Keys: bson.D{{Key: "teamA", Value: 1}}},
				{Keys: bson.D{{Key: "teamB", Value: 1}}},
			},
		},
		{
			"relay_events",
			[]mongo.IndexModel{
				{Keys: bson.D{{Key: "createdAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(60)},
			},
		},
	}

	for _, idx := range indexes {
		coll := m.Database.Collection(idx.collection)
		if _, err := coll.Indexes().CreateMany(ctx, idx.models); err != nil {
			log.Printf("Warning: failed to create indexes on %s: %v", idx.collection, err)
		}
	}

	log.Println("Database indexes ensured")
}

// Close disconnects the client.
func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

func (m *MongoDB) Teams() *mongo.Collection {
	return m.Database.Collection("teams")
}

func (m *MongoDB) Matches() *mongo.Collection {
	return m.Database.Collection("matches")
}

func (m *MongoDB) Schedule() *mongo.Collection {
	return m.Database.Collection("schedule")
}

func (m *MongoDB) RelayEvents() *mongo.Collection {
	return m.Database.Collection("relay_events")
}
