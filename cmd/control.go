package cmd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jfmyers9/mpvctl/pkg/mpvremote"
	"github.com/spf13/cobra"
)

// playCmd represents the play command
var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Resume playback",
	Long:  `Resume playback of the media currently loaded on the server.`,
	Args:  cobra.NoArgs,
	RunE:  runPlay,
}

// pauseCmd represents the pause command
var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause playback",
	Long:  `Pause playback of the media currently loaded on the server.`,
	Args:  cobra.NoArgs,
	RunE:  runPause,
}

// toggleCmd represents the toggle command
var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Toggle between play and pause",
	Long:  `Toggle between play and pause. The current state is read from the server first.`,
	Args:  cobra.NoArgs,
	RunE:  runToggle,
}

// moveCmd represents the move command
var moveCmd = &cobra.Command{
	Use:   "move SECONDS",
	Short: "Move playback by a relative number of seconds",
	Long: `Move playback forwards or backwards by whole seconds.

Use a negative number to move backwards, e.g. 'mpvctl move -- -15'.`,
	Args: cobra.ExactArgs(1),
	RunE: runMove,
}

// seekCmd represents the seek command
var seekCmd = &cobra.Command{
	Use:   "seek POSITION",
	Short: "Seek to an absolute position",
	Long: `Seek to an absolute position in the loaded media.

POSITION is either seconds (e.g. 90.5) or a clock value (e.g. 1:30 or 1:02:03).`,
	Args: cobra.ExactArgs(1),
	RunE: runSeek,
}

// stopCmd represents the stop command
var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop playback and unload the media",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

// killCmd represents the kill command
var killCmd = &cobra.Command{
	Use:   "kill",
	Short: "Terminate the player process on the server",
	Args:  cobra.NoArgs,
	RunE:  runKill,
}

func init() {
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(seekCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(killCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	return sendCommand("play", mpvremote.Pause(false))
}

func runPause(cmd *cobra.Command, args []string) error {
	return sendCommand("pause", mpvremote.Pause(true))
}

func runToggle(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	snap, err := a.client.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	if !snap.Loaded {
		return fmt.Errorf("nothing is loaded")
	}

	if err := a.client.Send(ctx, mpvremote.Pause(!snap.Paused)); err != nil {
		return commandError("toggle", err)
	}

	return nil
}

func runMove(cmd *cobra.Command, args []string) error {
	seconds, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid offset: %s (must be whole seconds)", args[0])
	}

	return sendCommand("move", mpvremote.Move(seconds))
}

func runSeek(cmd *cobra.Command, args []string) error {
	seconds, err := parsePosition(args[0])
	if err != nil {
		return err
	}

	return sendCommand("seek", mpvremote.Seek(seconds))
}

func runStop(cmd *cobra.Command, args []string) error {
	return sendCommand("stop", mpvremote.Stop())
}

func runKill(cmd *cobra.Command, args []string) error {
	return sendCommand("kill", mpvremote.Kill())
}

// sendCommand sends a single command to the server.
func sendCommand(name string, command mpvremote.Command) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.logger.Debug().Str("command", command.String()).Msg("Sending command")

	if err := a.client.Send(ctx, command); err != nil {
		return commandError(name, err)
	}

	return nil
}

// commandError wraps a failed command, pointing at login when the
// server wants a password.
func commandError(name string, err error) error {
	if errors.Is(err, mpvremote.ErrUnauthorized) {
		return fmt.Errorf("failed to %s: %w (run 'mpvctl login')", name, err)
	}
	return fmt.Errorf("failed to %s: %w", name, err)
}

// parsePosition parses seconds ("90.5") or a clock value ("1:30",
// "1:02:03") into seconds.
func parsePosition(s string) (float64, error) {
	if seconds, err := strconv.ParseFloat(s, 64); err == nil {
		if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
			return 0, fmt.Errorf("invalid position: %s (must be a non-negative number)", s)
		}
		return seconds, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid position: %s", s)
	}

	var total float64
	for i, p := range parts {
		n, err := strconv.ParseFloat(p, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid position: %s", s)
		}
		// Minutes and seconds fields must stay below 60.
		if i > 0 && n >= 60 {
			return 0, fmt.Errorf("invalid position: %s", s)
		}
		total = total*60 + n
	}

	return total, nil
}
