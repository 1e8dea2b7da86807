// Package broadcaster implements the topic-based pub/sub layer from spec
// §4.7: one topic per match plus a dashboard topic, bounded per-subscriber
// buffers that absorb slow readers without blocking publishers, and a
// durable cross-process relay so delivery survives a coordinator restart.
//
// It is grounded on internal/eventbus/eventbus.go's Mongo change-stream
// relay, generalized in two ways documented in SPEC_FULL.md §4.7: local
// delivery goes through a bounded per-subscriber channel with a
// drop-oldest-plus-resync overflow policy, and the Mongo collection is
// kept purely as the at-least-once cross-process fanout, not as the only
// delivery path.
package broadcaster

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"connect4-tournament/internal/events"
)

const subscriberBufferSize = 64

// relayDoc is the document persisted to the events collection for
// cross-process relay. It is intentionally separate from events.Event so
// the wire/storage schema can evolve independently of the in-process type.
type relayDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	OriginMachineID string             `bson:"originMachineId"`
	Topic           string             `bson:"topic"`
	Event           []byte             `bson:"event"`
	CreatedAt       time.Time          `bson:"createdAt"`
}

type subscriber struct {
	id uint64
	ch chan events.Event
}

// Broadcaster fans events out to per-topic subscriber sets. The zero value
// is not usable; construct with New.
type Broadcaster struct {
	machineID  string
	collection *mongo.Collection

	mu      sync.Mutex
	topics  map[string]map[uint64]*subscriber
	nextID  uint64
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// New returns a Broadcaster. If collection is nil, the Broadcaster runs in
// local-only mode: Publish still delivers to local subscribers, but no
// cross-process relay happens.
func New(collection *mongo.Collection) *Broadcaster {
	return &Broadcaster{
		machineID:  generateMachineID(),
		collection: collection,
		topics:     make(map[string]map[uint64]*subscriber),
	}
}

func generateMachineID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// EnsureIndexes creates the TTL index backing the relay collection.
// Idempotent.
func (b *Broadcaster) EnsureIndexes(ctx context.Context) error {
	if b.collection == nil {
		return nil
	}
	_, err := b.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(60).SetName("ttl_createdAt_60s"),
	})
	return err
}

// Start begins the cross-process relay watcher.
func (b *Broadcaster) Start() {
	if b.collection == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.running = true
	b.wg.Add(1)
	go b.watchLoop(ctx)
	log.Printf("[Broadcaster] started (machineId=%s)", b.machineID)
}

// Stop halts the relay watcher and waits for it to exit.
func (b *Broadcaster) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	b.running = false
	cancel := b.cancel
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	b.wg.Wait()
	log.Println("[Broadcaster] stopped")
}

// Subscribe registers a new subscriber on topic and immediately delivers
// snapshot as its first event (spec §4.7: "on initial subscribe the
// broadcaster sends a snapshot event computed from the Store"). It returns
// a receive channel and an unsubscribe function; callers must call
// unsubscribe exactly once.
func (b *Broadcaster) Subscribe(topic string, snapshot events.Event) (<-chan events.Event, func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	sub := &subscriber{id: id, ch: make(chan events.Event, subscriberBufferSize)}
	if b.topics[topic] == nil {
		b.topics[topic] = make(map[uint64]*subscriber)
	}
	b.topics[topic][id] = sub
	b.mu.Unlock()

	sub.ch <- snapshot

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if subs, ok := b.topics[topic]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(b.topics, topic)
			}
		}
	}
	return sub.ch, unsubscribe
}

// SubscriberCount returns the number of live subscribers on topic.
func (b *Broadcaster) SubscriberCount(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics[topic])
}

// Publish delivers ev to every local subscriber of topic without blocking,
// and — if a relay collection is configured — persists it for other
// coordinator processes to pick up. Publish never blocks on a slow
// subscriber: see deliverLocal's overflow policy.
func (b *Broadcaster) Publish(topic string, ev events.Event) {
	b.deliverLocal(topic, ev)
	b.relay(topic, ev)
}

func (b *Broadcaster) deliverLocal(topic string, ev events.Event) {
	b.mu.Lock()
	subs := make([]*subscriber, 0, len(b.topics[topic]))
	for _, s := range b.topics[topic] {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		deliverOne(s.ch, ev)
	}
}

// deliverOne sends ev to ch, applying the bounded-buffer overflow policy
// from spec §4.7: drop the oldest unread event and enqueue a resync marker
// instead of blocking the publisher.
func deliverOne(ch chan events.Event, ev events.Event) {
	select {
	case ch <- ev:
		return
	default:
	}

	select {
	case <-ch:
	default:
	}
	select {
	case ch <- events.Event{Kind: events.KindResync}:
	default:
	}
}

func (b *Broadcaster) relay(topic string, ev events.Event) {
	if b.collection == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[Broadcaster] failed to encode event for relay: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	doc := relayDoc{
		OriginMachineID: b.machineID,
		Topic:           topic,
		Event:           payload,
		CreatedAt:       time.Now(),
	}
	if _, err := b.collection.InsertOne(ctx, doc); err != nil {
		log.Printf("[Broadcaster] failed to persist relay event: %v", err)
	}
}

func (b *Broadcaster) watchLoop(ctx context.Context) {
	defer b.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		err := b.watch(ctx)
		if ctx.Err() != nil {
			return
		}
		log.Printf("[Broadcaster] relay watch error (reconnecting in 2s): %v", err)
		time.Sleep(2 * time.Second)
	}
}

func (b *Broadcaster) watch(ctx context.Context) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "operationType", Value: "insert"}}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	cs, err := b.collection.Watch(ctx, pipeline, opts)
	if err != nil {
		return err
	}
	defer cs.Close(ctx)

	for cs.Next(ctx) {
		var changeDoc struct {
			FullDocument relayDoc `bson:"fullDocument"`
		}
		if err := cs.Decode(&changeDoc); err != nil {
			log.Printf("[Broadcaster] failed to decode relay event: %v", err)
			continue
		}
		doc := changeDoc.FullDocument
		if doc.OriginMachineID == b.machineID {
			continue // already delivered locally
		}
		var ev events.Event
		if err := json.Unmarshal(doc.Event, &ev); err != nil {
			log.Printf("[Broadcaster] failed to decode relayed event payload: %v", err)
			continue
		}
		b.deliverLocal(doc.Topic, ev)
	}
	return cs.Err()
}

// DashboardTopic is the single dashboard topic name.
const DashboardTopic = "dashboard"

// MatchTopic returns the topic name for a given match.
func MatchTopic(matchID string) string {
	return "match:" + matchID
}
