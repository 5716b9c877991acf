package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/jfmyers9/mpvctl/internal/playback"
	"github.com/jfmyers9/mpvctl/pkg/mpvremote"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

// nowCmd represents the now command
var nowCmd = &cobra.Command{
	Use:   "now",
	Short: "Display what the server is playing",
	Long: `Query the server and display the media that is currently playing.

The output format can be customized in ~/.config/mpvctl/config.yaml
using a Go template. Available fields: .Name, .URL, .State, .Position,
.Length, .Time, .Duration, .Paused

Exit codes:
  0 - Media is currently playing
  1 - Nothing loaded, paused (unless --paused), or server unreachable`,
	Args: cobra.NoArgs,
	RunE: runNow,
}

func init() {
	rootCmd.AddCommand(nowCmd)

	// Add format flag to override config
	nowCmd.Flags().StringP("format", "f", "", "Output format template (overrides config)")
	// Add width flag to set fixed output width
	nowCmd.Flags().IntP("width", "w", 0, "Fixed output width (0=disabled, overrides config)")
	// Add marquee flag to enable scrolling
	nowCmd.Flags().Bool("marquee", false, "Enable marquee scrolling for long text (overrides config)")
	nowCmd.Flags().Bool("paused", false, "Also print paused media")
}

// nowPlaying is the data available to the output template.
type nowPlaying struct {
	Name     string
	URL      string
	State    string
	Position string
	Length   string
	Time     float64
	Duration float64
	Paused   bool
}

func newNowPlaying(snap *mpvremote.Snapshot) nowPlaying {
	st := playback.State{
		Loaded:   snap.Loaded,
		Name:     snap.Name,
		Duration: snap.Duration,
		Time:     playback.Clamp(snap.Time, snap.Duration),
		Paused:   snap.Paused,
	}
	return nowPlaying{
		Name:     st.DisplayName(),
		URL:      snap.URL,
		State:    st.Phase().String(),
		Position: playback.FormatClock(st.Time),
		Length:   playback.FormatClock(st.Duration),
		Time:     st.Time,
		Duration: st.Duration,
		Paused:   st.Paused,
	}
}

func runNow(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a, err := newApp()
	if err != nil {
		return err
	}
	cfg := a.cfg

	// Check for format flag override
	formatFlag, _ := cmd.Flags().GetString("format")
	if formatFlag != "" {
		cfg.OutputFormat = formatFlag
	}

	snap, err := a.client.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	showPaused, _ := cmd.Flags().GetBool("paused")
	if !snap.Loaded || (snap.Paused && !showPaused) {
		os.Exit(1)
		return nil
	}

	// Format and print output
	output, err := formatNowPlaying(newNowPlaying(snap), cfg.OutputFormat)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	// Apply width padding/marquee if requested
	width, _ := cmd.Flags().GetInt("width")
	if width == 0 {
		width = cfg.OutputWidth
	}

	marquee, _ := cmd.Flags().GetBool("marquee")
	if !cmd.Flags().Changed("marquee") {
		marquee = cfg.MarqueeEnabled
	}

	if width > 0 {
		if marquee {
			output = marqueeText(output, width, cfg.MarqueeSpeed, cfg.MarqueeSeparator, time.Now())
		} else {
			output = padToWidth(output, width)
		}
	}

	fmt.Println(output)
	return nil
}

// formatNowPlaying applies the template to the playback data
func formatNowPlaying(np nowPlaying, templateStr string) (string, error) {
	tmpl, err := template.New("output").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("invalid template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, np); err != nil {
		return "", fmt.Errorf("template execution failed: %w", err)
	}

	return buf.String(), nil
}

// padToWidth pads or truncates text to a fixed display width.
// Width is measured in display columns, accounting for Unicode characters.
// If width <= 0, returns text unchanged.
// If text is longer than width, truncates with "..." suffix.
func padToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}

	currentWidth := runewidth.StringWidth(text)
	if currentWidth == width {
		return text
	}
	if currentWidth < width {
		return text + strings.Repeat(" ", width-currentWidth)
	}

	const ellipsis = "..."
	ellipsisWidth := runewidth.StringWidth(ellipsis)
	if width <= ellipsisWidth {
		return runewidth.Truncate(ellipsis, width, "")
	}

	// Wide runes can leave the truncated text one column short.
	result := runewidth.Truncate(text, width-ellipsisWidth, "") + ellipsis
	if w := runewidth.StringWidth(result); w < width {
		result += strings.Repeat(" ", width-w)
	}
	return result
}

// marqueeText scrolls text that exceeds width through a fixed window.
//
// The window starts at now (in unix seconds) * speed characters into
// "text{separator}text", so repeated invocations from a status bar
// advance the text without keeping any state. Text that fits is padded.
func marqueeText(text string, width int, speed int, separator string, now time.Time) string {
	if width <= 0 {
		return text
	}

	if runewidth.StringWidth(text) <= width {
		return padToWidth(text, width)
	}

	extended := []rune(text + separator + text)
	total := len(extended)
	position := int(now.Unix()*int64(speed)) % total
	if position < 0 {
		position += total
	}

	var result []rune
	resultWidth := 0
	for i := 0; i < total && resultWidth < width; i++ {
		r := extended[(position+i)%total]
		rw := runewidth.RuneWidth(r)
		if resultWidth+rw > width {
			break
		}
		result = append(result, r)
		resultWidth += rw
	}

	if resultWidth < width {
		return string(result) + strings.Repeat(" ", width-resultWidth)
	}
	return string(result)
}
