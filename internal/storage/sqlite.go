// Package storage provides SQLite-based persistence for finished matches.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jremy42/42-ft-transcendence/internal/game"
)

// pageSize is the number of records per history page.
const pageSize = 10

// Store manages the SQLite database connection for match persistence.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS saved_games (
			id TEXT PRIMARY KEY,
			player1_id INTEGER NOT NULL,
			player1_name TEXT NOT NULL,
			player2_id INTEGER NOT NULL,
			player2_name TEXT NOT NULL,
			score1 INTEGER NOT NULL DEFAULT 0,
			score2 INTEGER NOT NULL DEFAULT 0,
			winner_id INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_saved_games_date ON saved_games(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_saved_games_player1 ON saved_games(player1_id);
		CREATE INDEX IF NOT EXISTS idx_saved_games_player2 ON saved_games(player2_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveGame records a finished match. Saving the same match id twice keeps
// the first record: teardown is idempotent upstream, but a replayed save
// must not duplicate history.
func (s *Store) SaveGame(res game.Result) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO saved_games
		 (id, player1_id, player1_name, player2_id, player2_name, score1, score2, winner_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID,
		res.Players[0].ID, res.Players[0].Username,
		res.Players[1].ID, res.Players[1].Username,
		res.Score[0], res.Score[1],
		res.Winner.ID,
		res.Date.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save game: %w", err)
	}
	return nil
}

// RecentGames retrieves one page of finished matches, newest first.
func (s *Store) RecentGames(page int) ([]game.Result, error) {
	if page < 0 {
		page = 0
	}
	rows, err := s.db.Query(
		`SELECT id, player1_id, player1_name, player2_id, player2_name, score1, score2, winner_id, created_at
		 FROM saved_games
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		pageSize, page*pageSize,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query games: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}

// GamesByUser retrieves every finished match the user played in, newest
// first.
func (s *Store) GamesByUser(userID int64) ([]game.Result, error) {
	rows, err := s.db.Query(
		`SELECT id, player1_id, player1_name, player2_id, player2_name, score1, score2, winner_id, created_at
		 FROM saved_games
		 WHERE player1_id = ? OR player2_id = ?
		 ORDER BY created_at DESC`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query games: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}

// WinsByUser returns how many saved matches the user won.
func (s *Store) WinsByUser(userID int64) (int, error) {
	var wins int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM saved_games WHERE winner_id = ?",
		userID,
	).Scan(&wins)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot count wins: %w", err)
	}
	return wins, nil
}

func scanResults(rows *sql.Rows) ([]game.Result, error) {
	var results []game.Result
	for rows.Next() {
		var r game.Result
		var winnerID int64
		var createdAt any
		if err := rows.Scan(
			&r.ID,
			&r.Players[0].ID, &r.Players[0].Username,
			&r.Players[1].ID, &r.Players[1].Username,
			&r.Score[0], &r.Score[1],
			&winnerID,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}

		if r.Players[0].ID == winnerID {
			r.Winner = r.Players[0]
		} else {
			r.Winner = r.Players[1]
		}

		// Parse the datetime - handle both time.Time and string
		switch v := createdAt.(type) {
		case time.Time:
			r.Date = v
		case string:
			if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
				r.Date = parsed
			}
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return results, nil
}
