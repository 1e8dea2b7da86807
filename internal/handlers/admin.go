// Package handlers implements the HTTP admin surface and websocket
// spectator stream from spec §6, wired onto a championship.Controller. It
// is grounded on the teacher's internal/handlers package: JSON request/
// response shapes decoded by hand, gorilla/mux path variables, and plain
// http.Error for failures rather than a generic problem-details envelope.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"connect4-tournament/internal/championship"
	"connect4-tournament/internal/models"
	"connect4-tournament/internal/store"
)

// AdminHandler exposes the registration and tournament-control endpoints
// (spec §6: "HTTP admin surface").
type AdminHandler struct {
	controller *championship.Controller
}

func NewAdminHandler(controller *championship.Controller) *AdminHandler {
	return &AdminHandler{controller: controller}
}

type registerRequest struct {
	TeamName    string `json:"team_name"`
	APIEndpoint string `json:"api_endpoint"`
}

type registerResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Register handles POST /api/championship/register.
func (h *AdminHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, registerResponse{Message: "invalid request body"})
		return
	}

	_, err := h.controller.Register(r.Context(), req.TeamName, req.APIEndpoint)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, registerResponse{Success: true, Message: "team registered"})
	case errors.Is(err, championship.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, registerResponse{Message: "registration is closed"})
	case errors.Is(err, store.ErrDuplicateTeamName):
		writeJSON(w, http.StatusBadRequest, registerResponse{Message: err.Error()})
	case errors.Is(err, championship.ErrTooManyTeams):
		writeJSON(w, http.StatusBadRequest, registerResponse{Message: err.Error()})
	default:
		writeJSON(w, http.StatusBadRequest, registerResponse{Message: err.Error()})
	}
}

// Start handles POST /api/championship/start (admin-gated).
func (h *AdminHandler) Start(w http.ResponseWriter, r *http.Request) {
	err := h.controller.Start(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, registerResponse{Success: true, Message: "tournament started"})
	case errors.Is(err, championship.ErrInvalidTransition), errors.Is(err, championship.ErrNotEnoughTeams):
		writeJSON(w, http.StatusConflict, registerResponse{Message: err.Error()})
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type statusResponse struct {
	Status       models.TournamentStatus `json:"status"`
	TeamCount    int                     `json:"team_count"`
	CurrentRound int                     `json:"current_round"`
	TotalRounds  int                     `json:"total_rounds"`
}

// Status handles GET /api/championship/status.
func (h *AdminHandler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.controller.Status(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Status:       st.TournamentStatus,
		TeamCount:    st.TeamCount,
		CurrentRound: st.CurrentRound,
		TotalRounds:  st.TotalRounds,
	})
}

type scheduleMatchView struct {
	MatchID      string             `json:"match_id"`
	TeamA        string             `json:"team_a"`
	TeamB        string             `json:"team_b"`
	Status       models.MatchStatus `json:"status"`
	Winner       string             `json:"winner,omitempty"`
	TeamAPoints  float64            `json:"team_a_points"`
	TeamBPoints  float64            `json:"team_b_points"`
}

type scheduleRoundView struct {
	Round   int                 `json:"round"`
	Matches []scheduleMatchView `json:"matches"`
}

type scheduleResponse struct {
	Rounds []scheduleRoundView `json:"rounds"`
}

// Schedule handles GET /api/championship/schedule.
func (h *AdminHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	sched, matches, err := h.controller.Schedule(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	byID := make(map[string]models.MatchRecord, len(matches))
	for _, m := range matches {
		byID[m.MatchID] = m
	}

	resp := scheduleResponse{Rounds: make([]scheduleRoundView, len(sched.Rounds))}
	for i, round := range sched.Rounds {
		view := scheduleRoundView{Round: round.RoundIndex}
		for _, id := range round.MatchIDs {
			m := byID[id]
			view.Matches = append(view.Matches, scheduleMatchView{
				MatchID:     m.MatchID,
				TeamA:       m.TeamA,
				TeamB:       m.TeamB,
				Status:      m.Status,
				Winner:      matchWinner(m),
				TeamAPoints: m.PointsA,
				TeamBPoints: m.PointsB,
			})
		}
		resp.Rounds[i] = view
	}
	writeJSON(w, http.StatusOK, resp)
}

func matchWinner(m models.MatchRecord) string {
	if !m.Sealed() || m.IsBye {
		return ""
	}
	switch {
	case m.PointsA > m.PointsB:
		return m.TeamA
	case m.PointsB > m.PointsA:
		return m.TeamB
	default:
		return ""
	}
}

type leaderboardEntryView struct {
	TeamName string  `json:"team_name"`
	Points   float64 `json:"points"`
}

// Leaderboard handles GET /api/championship/leaderboard.
func (h *AdminHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.controller.Leaderboard(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	views := make([]leaderboardEntryView, len(entries))
	for i, e := range entries {
		views[i] = leaderboardEntryView{TeamName: e.DisplayName, Points: e.TotalPoints}
	}
	writeJSON(w, http.StatusOK, views)
}

// ClearCache handles POST /api/clear-cache (admin-gated).
func (h *AdminHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.Reset(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, registerResponse{Success: true, Message: "cache cleared"})
}

// RestartMatch handles POST /api/championship/matches/{matchId}/restart
// (admin-gated), the explicit per-match restart command from spec §4.4.
func (h *AdminHandler) RestartMatch(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["matchId"]
	if err := h.controller.RestartMatch(r.Context(), matchID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "match not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, registerResponse{Success: true, Message: "match restarted"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
