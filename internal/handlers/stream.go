package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"connect4-tournament/internal/broadcaster"
	"connect4-tournament/internal/championship"
	"connect4-tournament/internal/events"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// StreamHandler upgrades spectators onto the dashboard and per-match event
// topics (spec §6: "Event stream surface"). Its write/read pump split is
// adapted from the teacher's handlers/websocket.go Client, trimmed to a
// single subscriber role — there are no players here, only spectators.
type StreamHandler struct {
	bus        *broadcaster.Broadcaster
	controller *championship.Controller
}

func NewStreamHandler(bus *broadcaster.Broadcaster, controller *championship.Controller) *StreamHandler {
	return &StreamHandler{bus: bus, controller: controller}
}

// Dashboard handles GET /ws/dashboard: subscribes to the dashboard topic,
// seeded with an initial_state snapshot built from the Store.
func (h *StreamHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("dashboard websocket upgrade failed: %v", err)
		return
	}

	snapshot := h.dashboardSnapshot(r)
	ch, unsubscribe := h.bus.Subscribe(broadcaster.DashboardTopic, snapshot)
	runStream(conn, ch, unsubscribe)
}

func (h *StreamHandler) dashboardSnapshot(r *http.Request) events.Event {
	st, err := h.controller.Status(r.Context())
	if err != nil {
		return events.Event{Kind: events.KindInitialState}
	}
	sched, _, _ := h.controller.Schedule(r.Context())
	lb, _ := h.controller.Leaderboard(r.Context())
	return events.Event{
		Kind: events.KindInitialState,
		Payload: events.InitialStatePayload{
			Status:       st.TournamentStatus,
			CurrentRound: st.CurrentRound,
			TotalRounds:  st.TotalRounds,
			Schedule:     &sched,
			Leaderboard:  lb,
		},
	}
}

// Match handles GET /ws/match/{matchId}: on connect the subscriber receives
// one snapshot event, then the live event stream of the match. The snapshot
// is game_info for the match's latest game when it has games, otherwise
// championship_match_info; the two are never both sent.
func (h *StreamHandler) Match(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["matchId"]

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("match websocket upgrade failed: %v", err)
		return
	}

	snapshot := h.matchSnapshot(r, matchID)
	topic := broadcaster.MatchTopic(matchID)
	ch, unsubscribe := h.bus.Subscribe(topic, snapshot)
	h.publishSpectatorCount(matchID, topic)

	runStream(conn, ch, func() {
		unsubscribe()
		h.publishSpectatorCount(matchID, topic)
	})
}

// publishSpectatorCount announces the current subscriber count on topic
// (spec §4.7: spectator_count), fired whenever a match-topic subscriber
// connects or disconnects.
func (h *StreamHandler) publishSpectatorCount(matchID, topic string) {
	h.bus.Publish(topic, events.Event{
		Kind:    events.KindSpectatorCount,
		MatchID: matchID,
		Payload: events.SpectatorCountPayload{Count: h.bus.SubscriberCount(topic)},
	})
}

func (h *StreamHandler) matchSnapshot(r *http.Request, matchID string) events.Event {
	_, matches, err := h.controller.Schedule(r.Context())
	if err != nil {
		return events.Event{Kind: events.KindChampionshipMatchInfo, MatchID: matchID}
	}
	for _, m := range matches {
		if m.MatchID != matchID {
			continue
		}
		ev := events.Event{
			Kind:    events.KindChampionshipMatchInfo,
			MatchID: matchID,
			Payload: events.ChampionshipMatchInfoPayload{Match: m},
		}
		if len(m.Games) > 0 {
			ev.Payload = events.GameInfoPayload{Game: m.Games[len(m.Games)-1]}
			ev.Kind = events.KindGameInfo
		}
		return ev
	}
	return events.Event{Kind: events.KindChampionshipMatchInfo, MatchID: matchID}
}

// runStream drives one subscriber connection: a write pump forwarding
// broadcaster events (plus keepalive pings) and a read pump that exists
// only to detect client disconnects, mirroring the teacher's
// Client.readPump/writePump split.
func runStream(conn *websocket.Conn, ch <-chan events.Event, unsubscribe func()) {
	done := make(chan struct{})
	go readPump(conn, done)
	writePump(conn, ch, done)
	unsubscribe()
	conn.Close()
}

func readPump(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(conn *websocket.Conn, ch <-chan events.Event, done chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				log.Printf("failed to marshal event: %v", err)
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
