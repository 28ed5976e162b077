// pongd is the authoritative match server for the pong platform: it hosts
// the game simulations, matchmaking and the WebSocket gateway, and records
// finished matches.
//
// Usage:
//
//	pongd serve             - Run the match server
//	pongd history           - Show recently finished matches
//
// Global flags:
//
//	--config <path>  - Path to a YAML config file (default: ./pongd.yaml)
//	--db <path>      - Path to the match database (default: ~/.pongd/games.db)
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConfig string
	flagDBPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pongd",
	Short: "Authoritative pong match server",
	Long: `pongd runs server-side pong matches: a fixed-tick physics simulation
per match, matchmaking over open public matches, and a WebSocket gateway
that relays player input in and state snapshots out.

Available commands:
  serve    - Run the match server
  history  - Show recently finished matches

Examples:
  pongd serve
  pongd serve --addr :9000 --db ./games.db
  pongd history --page 2`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to match database (overrides config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
}
