package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jremy42/42-ft-transcendence/internal/game"
	"github.com/jremy42/42-ft-transcendence/internal/storage"
)

func TestFetchGames(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "games.db"))
	if err != nil {
		t.Fatalf("Open() = %v", err)
	}
	defer store.Close()

	now := time.Now()
	first := game.Result{
		ID:      "match-1",
		Players: [2]game.User{{ID: 1, Username: "alice"}, {ID: 2, Username: "bob"}},
		Score:   [2]int{3, 2},
		Winner:  game.User{ID: 1, Username: "alice"},
		Date:    now,
	}
	second := game.Result{
		ID:      "match-2",
		Players: [2]game.User{{ID: 3, Username: "carol"}, {ID: 4, Username: "dan"}},
		Score:   [2]int{1, 3},
		Winner:  game.User{ID: 4, Username: "dan"},
		Date:    now.Add(time.Minute),
	}
	for _, res := range []game.Result{first, second} {
		if err := store.SaveGame(res); err != nil {
			t.Fatal(err)
		}
	}

	games, err := fetchGames(store, 0, 0)
	if err != nil {
		t.Fatalf("fetchGames() = %v", err)
	}
	if len(games) != 2 {
		t.Errorf("without a user filter got %d matches, want 2", len(games))
	}

	games, err = fetchGames(store, 0, 3)
	if err != nil {
		t.Fatalf("fetchGames(user) = %v", err)
	}
	if len(games) != 1 || games[0].ID != "match-2" {
		t.Errorf("user filter returned %+v, want only match-2", games)
	}
}
