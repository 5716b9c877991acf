package cmd

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// thumbnailCmd represents the thumbnail command
var thumbnailCmd = &cobra.Command{
	Use:   "thumbnail FILE",
	Short: "Download the preview image of a video on the server",
	Long: `Download the thumbnail the server renders for a video file.

The image is written to --output, or into the current directory
named after the video with the extension of the returned image type.
Use --output - to write to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runThumbnail,
}

func init() {
	rootCmd.AddCommand(thumbnailCmd)

	thumbnailCmd.Flags().StringP("output", "o", "", "Output file (- for stdout)")
}

func runThumbnail(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	data, contentType, err := a.client.Thumbnail(ctx, args[0])
	if err != nil {
		return commandError("fetch thumbnail", err)
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if output == "" {
		output = thumbnailName(args[0], contentType)
	}

	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("failed to write thumbnail: %w", err)
	}

	fmt.Printf("Wrote %s (%d bytes)\n", output, len(data))
	return nil
}

// thumbnailName derives a local file name from the server path and the
// image content type, e.g. "Films/bbb.mp4" + image/jpeg -> "bbb.jpg".
func thumbnailName(file, contentType string) string {
	base := strings.TrimSuffix(path.Base(file), path.Ext(file))
	if base == "" || base == "." || base == "/" {
		base = "thumbnail"
	}

	ext := ".jpg"
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mediaType {
		case "image/jpeg":
			ext = ".jpg"
		case "image/png":
			ext = ".png"
		case "image/gif":
			ext = ".gif"
		case "image/webp":
			ext = ".webp"
		}
	}
	return base + ext
}
