package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jfmyers9/mpvctl/internal/loader"
	"github.com/spf13/cobra"
)

// openCmd represents the open command
var openCmd = &cobra.Command{
	Use:   "open SOURCE",
	Short: "Load a file path or URL on the server",
	Long: `Ask the server to open SOURCE, paused, and wait until it is loaded.

SOURCE is a path on the server (see 'mpvctl browse') or any URL the
player understands. The command fails if the server reports an error
or does not load the media within sync.load_timeout.

With sync.strict_sources enabled (the default), sources containing
double quotes or line breaks are rejected before anything is sent.`,
	Args: cobra.ExactArgs(1),
	RunE: runOpen,
}

// uploadCmd represents the upload command
var uploadCmd = &cobra.Command{
	Use:   "upload FILE",
	Short: "Upload a local file and load it",
	Long:  `Upload FILE to the server's Uploads folder and load the stored copy, paused.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runUpload,
}

func init() {
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(uploadCmd)

	openCmd.Flags().Bool("play", false, "Start playback once loaded")
	uploadCmd.Flags().Bool("play", false, "Start playback once loaded")
}

func runOpen(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	play, _ := cmd.Flags().GetBool("play")

	ctx, stop := signalContext()
	defer stop()

	source := args[0]
	result, err := awaitLoad(ctx, a, play, func(seq *loader.Sequencer) bool {
		return seq.RequestLoad(source)
	})
	if err != nil {
		return err
	}

	fmt.Printf("Loaded %s\n", result.state.DisplayName())
	return nil
}

func runUpload(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	play, _ := cmd.Flags().GetBool("play")

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	ctx, stop := signalContext()
	defer stop()

	name := filepath.Base(args[0])
	result, err := awaitLoad(ctx, a, play, func(seq *loader.Sequencer) bool {
		return seq.Upload(name, f)
	})
	if err != nil {
		return err
	}

	fmt.Printf("Uploaded and loaded %s (%s)\n", result.state.DisplayName(), result.status.Source)
	return nil
}
