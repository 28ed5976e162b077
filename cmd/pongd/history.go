package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jremy42/42-ft-transcendence/internal/config"
	"github.com/jremy42/42-ft-transcendence/internal/game"
	"github.com/jremy42/42-ft-transcendence/internal/storage"
)

var (
	flagPage   int
	flagUserID int64
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently finished matches",
	Long: `Print finished matches from the database, newest first.

Examples:
  pongd history
  pongd history --page 2
  pongd history --user 42`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&flagPage, "page", 0, "History page (10 matches per page)")
	historyCmd.Flags().Int64Var(&flagUserID, "user", 0, "Only matches played by this user id")
}

// fetchGames picks the history query: per-user when a user id is given,
// otherwise one page of recent matches.
func fetchGames(store *storage.Store, page int, userID int64) ([]game.Result, error) {
	if userID > 0 {
		return store.GamesByUser(userID)
	}
	return store.RecentGames(page)
}

func runHistory(_ *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	cfg.ApplyEnv()
	if flagDBPath != "" {
		cfg.Server.DBPath = flagDBPath
	}

	store, err := storage.Open(cfg.Server.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	games, err := fetchGames(store, flagPage, flagUserID)
	if err != nil {
		return err
	}

	if len(games) == 0 {
		fmt.Println("No finished matches.")
		return nil
	}
	for _, g := range games {
		fmt.Printf("%s  %s %d - %d %s  (winner: %s)\n",
			g.Date.Format("2006-01-02 15:04"),
			g.Players[0].Username, g.Score[0],
			g.Score[1], g.Players[1].Username,
			g.Winner.Username,
		)
	}
	return nil
}
