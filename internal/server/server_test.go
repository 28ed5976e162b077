package server

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/jremy42/42-ft-transcendence/internal/config"
	"github.com/jremy42/42-ft-transcendence/internal/game"
	"github.com/jremy42/42-ft-transcendence/internal/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Server.DBPath = filepath.Join(t.TempDir(), "games.db")
	srv, err := New(cfg, log.New(io.Discard))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

// newTestClient builds a client without a live WebSocket; dispatch is
// exercised directly and replies are read off the session handle.
func newTestClient(t *testing.T, srv *Server, user game.User) *client {
	t.Helper()
	handle := session.NewChannelHandle(session.ID(uuid.NewString()), sessionBufferSize)
	srv.hub.Register(handle)
	srv.cluster.Connect(user.ID)
	return &client{srv: srv, user: user, handle: handle}
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// awaitEvent drains the session until an event with the given name
// arrives. Periodic snapshots may interleave with gateway replies.
func awaitEvent(t *testing.T, h *session.ChannelHandle, name string) session.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case evt := <-h.Events():
			if evt.EventName() == name {
				return evt
			}
		case <-deadline:
			t.Fatalf("no %q event received", name)
		}
	}
}

func TestDispatchCreate(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv, game.User{ID: 1, Username: "alice"})

	srv.dispatch(c, envelope{Event: "game.create", Data: mustJSON(t, createPayload{})})

	evt := awaitEvent(t, c.handle, "game.created").(createdEvent)
	id, err := uuid.Parse(evt.GameID)
	if err != nil {
		t.Fatalf("created event carries invalid id %q", evt.GameID)
	}
	m := srv.cluster.FindOne(id)
	if m == nil {
		t.Fatal("created match not registered")
	}
	if !m.Private() {
		t.Error("game.create must produce a private match")
	}
}

func TestDispatchFindOrCreate(t *testing.T) {
	srv := newTestServer(t)
	c1 := newTestClient(t, srv, game.User{ID: 1, Username: "alice"})
	c2 := newTestClient(t, srv, game.User{ID: 2, Username: "bob"})

	srv.dispatch(c1, envelope{Event: "game.findOrCreate"})
	first := awaitEvent(t, c1.handle, "game.created").(createdEvent)

	srv.dispatch(c2, envelope{Event: "game.findOrCreate"})
	second := awaitEvent(t, c2.handle, "game.created").(createdEvent)

	if first.GameID != second.GameID {
		t.Errorf("matchmaking created %q and %q, want the same match", first.GameID, second.GameID)
	}
}

func TestDispatchJoin(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv, game.User{ID: 1, Username: "alice"})
	m := srv.cluster.CreateMatch(false, game.Options{})

	srv.dispatch(c, envelope{Event: "game.join", Data: mustJSON(t, joinPayload{GameID: m.ID().String()})})

	evt := awaitEvent(t, c.handle, "game.joined").(joinedEvent)
	if evt.GameID != m.ID().String() {
		t.Errorf("joined id = %q, want %q", evt.GameID, m.ID())
	}
	if evt.Snapshot.Status != "waiting" {
		t.Errorf("join snapshot status = %q, want waiting", evt.Snapshot.Status)
	}

	// Joining the same match twice is answered with a typed error.
	srv.dispatch(c, envelope{Event: "game.join", Data: mustJSON(t, joinPayload{GameID: m.ID().String()})})
	if evt := awaitEvent(t, c.handle, "error").(errorEvent); evt.Code != "AlreadyInMatch" {
		t.Errorf("error code = %q, want AlreadyInMatch", evt.Code)
	}
}

func TestDispatchJoinUnknown(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv, game.User{ID: 1, Username: "alice"})

	srv.dispatch(c, envelope{Event: "game.join", Data: mustJSON(t, joinPayload{GameID: uuid.NewString()})})
	if evt := awaitEvent(t, c.handle, "error").(errorEvent); evt.Code != "NotFound" {
		t.Errorf("error code = %q, want NotFound", evt.Code)
	}

	srv.dispatch(c, envelope{Event: "game.join", Data: mustJSON(t, joinPayload{GameID: "not-a-uuid"})})
	if evt := awaitEvent(t, c.handle, "error").(errorEvent); evt.Code != "InvalidInput" {
		t.Errorf("error code = %q, want InvalidInput", evt.Code)
	}
}

func TestDispatchPlayerInput(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv, game.User{ID: 1, Username: "alice"})
	m := srv.cluster.CreateMatch(false, game.Options{})
	srv.dispatch(c, envelope{Event: "game.join", Data: mustJSON(t, joinPayload{GameID: m.ID().String()})})
	awaitEvent(t, c.handle, "game.joined")

	before := m.Snapshot().Players[0].Pos
	srv.dispatch(c, envelope{Event: "game.playerInput", Data: mustJSON(t, inputPayload{
		GameID: m.ID().String(),
		Move:   game.MoveDown,
	})})

	if after := m.Snapshot().Players[0].Pos; after <= before {
		t.Errorf("pos = %v after Down input, want above %v", after, before)
	}
}

func TestDispatchQuit(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv, game.User{ID: 1, Username: "alice"})
	m := srv.cluster.CreateMatch(false, game.Options{})
	srv.dispatch(c, envelope{Event: "game.join", Data: mustJSON(t, joinPayload{GameID: m.ID().String()})})
	awaitEvent(t, c.handle, "game.joined")

	srv.dispatch(c, envelope{Event: "game.quit", Data: mustJSON(t, quitPayload{GameID: m.ID().String()})})

	if srv.cluster.Count() != 0 {
		t.Errorf("Count() = %d after the only player quit, want 0", srv.cluster.Count())
	}
}

func TestDispatchUnknownEvent(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv, game.User{ID: 1, Username: "alice"})

	srv.dispatch(c, envelope{Event: "game.teleport"})
	if evt := awaitEvent(t, c.handle, "error").(errorEvent); evt.Code != "InvalidInput" {
		t.Errorf("error code = %q, want InvalidInput", evt.Code)
	}
}
