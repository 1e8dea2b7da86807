package agentclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connect4-tournament/internal/board"
)

func TestRequestMoveHappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req moveRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(moveResponse{Move: intPtr(3)})
	}))
	defer srv.Close()

	c := New(nil)
	b := board.New()
	move, err := c.RequestMove(context.Background(), srv.URL, b, board.Player1, b.LegalMoves(), time.Now().Add(time.Second))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if move != 3 {
		t.Fatalf("expected move 3, got %d", move)
	}
}

func TestRequestMoveIllegal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(moveResponse{Move: intPtr(9)})
	}))
	defer srv.Close()

	c := New(nil)
	b := board.New()
	_, err := c.RequestMove(context.Background(), srv.URL, b, board.Player1, b.LegalMoves(), time.Now().Add(time.Second))
	assertFailureKind(t, err, FailureIllegal)
}

func TestRequestMoveMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := New(nil)
	b := board.New()
	_, err := c.RequestMove(context.Background(), srv.URL, b, board.Player1, b.LegalMoves(), time.Now().Add(time.Second))
	assertFailureKind(t, err, FailureMalformed)
}

func TestRequestMoveTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(nil)
	b := board.New()
	_, err := c.RequestMove(context.Background(), srv.URL, b, board.Player1, b.LegalMoves(), time.Now().Add(time.Second))
	assertFailureKind(t, err, FailureTransport)
}

func TestRequestMoveTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(moveResponse{Move: intPtr(0)})
	}))
	defer srv.Close()

	c := New(nil)
	b := board.New()
	_, err := c.RequestMove(context.Background(), srv.URL, b, board.Player1, b.LegalMoves(), time.Now().Add(20*time.Millisecond))
	assertFailureKind(t, err, FailureTimeout)
}

func intPtr(v int) *int { return &v }

func assertFailureKind(t *testing.T, err error, want FailureKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected failure kind %s, got nil error", want)
	}
	var f *Failure
	if !errors.As(err, &f) {
		t.Fatalf("expected *Failure, got %T: %v", err, err)
	}
	if f.Kind != want {
		t.Fatalf("expected kind %s, got %s", want, f.Kind)
	}
}
