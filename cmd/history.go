package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jfmyers9/mpvctl/internal/history"
	"github.com/jfmyers9/mpvctl/internal/playback"
	"github.com/spf13/cobra"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently loaded media",
	Long: `Show media that was successfully loaded by mpvctl, most recent first.

Loads are recorded by every command that runs a session (open, upload,
watch and tui). Entries older than 90 days are dropped automatically.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntP("limit", "n", 20, "Number of entries to show")
	historyCmd.Flags().Duration("prune", 0, "Delete entries older than this before listing (e.g. 720h)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	store, err := history.Open(cfg.HistoryDB())
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if prune, _ := cmd.Flags().GetDuration("prune"); prune > 0 {
		deleted, err := store.Cleanup(ctx, prune)
		if err != nil {
			return fmt.Errorf("failed to prune history: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Pruned %d entries\n", deleted)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := store.Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No loads recorded yet")
		return nil
	}

	printHistory(os.Stdout, entries)
	return nil
}

// printHistory writes one aligned line per entry.
func printHistory(w io.Writer, entries []history.Entry) {
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			e.LoadedAt.Local().Format("2006-01-02 15:04"),
			padToWidth(e.Name, 32),
			playback.FormatClock(e.Duration.Seconds()),
			e.Source,
		)
	}
}
