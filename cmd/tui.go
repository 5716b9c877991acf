package cmd

import (
	"context"

	"github.com/jfmyers9/mpvctl/internal/session"
	"github.com/jfmyers9/mpvctl/internal/tui"
	"github.com/spf13/cobra"
)

// tuiCmd represents the tui command
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Control the server from a terminal UI",
	Long: `Open a terminal UI that follows the server's playback state.

The TUI includes:
- Now playing display with the media name and play state
- Progress bar that can be clicked or dragged to seek
- Load status and the most recent loads

Keys:
  space   play/pause
  ←/→     move back/forward 15 seconds
  o       open a path or URL
  r       sync with the server now
  q       quit

Playback keys do nothing while no media is loaded.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	// Logs would draw over the UI.
	a, err := openApp(true)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	app := tui.New()
	return withSession(ctx, a, app.Hooks(), func(ctx context.Context, s *session.Session) error {
		app.SetSession(s)
		if h := s.History(); h != nil {
			app.SetHistory(h)
		}
		return app.Run(ctx)
	})
}
