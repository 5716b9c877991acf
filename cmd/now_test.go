package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/jfmyers9/mpvctl/pkg/mpvremote"
	"github.com/mattn/go-runewidth"
)

func TestPadToWidth(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		width    int
		expected string
	}{
		{
			name:     "no padding when width is 0",
			input:    "Hello",
			width:    0,
			expected: "Hello",
		},
		{
			name:     "no padding when width is negative",
			input:    "Hello",
			width:    -1,
			expected: "Hello",
		},
		{
			name:     "pad short text with spaces",
			input:    "Hi",
			width:    10,
			expected: "Hi        ",
		},
		{
			name:     "exact width unchanged",
			input:    "Hello",
			width:    5,
			expected: "Hello",
		},
		{
			name:     "truncate long text with ellipsis",
			input:    "This is a very long string that needs truncation",
			width:    20,
			expected: "This is a very lo...",
		},
		{
			name:     "handle wide characters",
			input:    "日本語",
			width:    10,
			expected: "日本語    ",
		},
		{
			name:     "truncate wide characters",
			input:    "日本語とても長いテキスト",
			width:    10,
			expected: "日本語... ",
		},
		{
			name:     "empty string padding",
			input:    "",
			width:    5,
			expected: "     ",
		},
		{
			name:     "minimum width for truncation",
			input:    "Hello",
			width:    3,
			expected: "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := padToWidth(tt.input, tt.width)
			if result != tt.expected {
				t.Errorf("padToWidth(%q, %d) = %q, expected %q",
					tt.input, tt.width, result, tt.expected)
			}

			if tt.width > 0 {
				if w := runewidth.StringWidth(result); w != tt.width {
					t.Errorf("padToWidth(%q, %d) produced width %d, expected %d",
						tt.input, tt.width, w, tt.width)
				}
			}
		})
	}
}

func TestMarqueeText(t *testing.T) {
	text := "Big Buck Bunny"
	sep := " | "

	t.Run("short text is padded, not scrolled", func(t *testing.T) {
		got := marqueeText("Hi", 6, 2, sep, time.Unix(100, 0))
		if got != "Hi    " {
			t.Errorf("marqueeText() = %q", got)
		}
	})

	t.Run("window starts at unix time times speed", func(t *testing.T) {
		got := marqueeText(text, 5, 1, sep, time.Unix(4, 0))
		if got != "Buck " {
			t.Errorf("marqueeText() = %q, want %q", got, "Buck ")
		}
	})

	t.Run("window wraps across the separator", func(t *testing.T) {
		// len("Big Buck Bunny | Big Buck Bunny") = 31, start at 12
		got := marqueeText(text, 8, 3, sep, time.Unix(4, 0))
		if got != "ny | Big" {
			t.Errorf("marqueeText() = %q, want %q", got, "ny | Big")
		}
	})

	t.Run("same instant gives same output", func(t *testing.T) {
		now := time.Unix(1234, 0)
		a := marqueeText(text, 7, 2, sep, now)
		b := marqueeText(text, 7, 2, sep, now)
		if a != b {
			t.Errorf("marqueeText() not deterministic: %q vs %q", a, b)
		}
	})

	t.Run("output always has the requested width", func(t *testing.T) {
		for sec := int64(0); sec < 40; sec++ {
			got := marqueeText("日本語のとても長いタイトル", 9, 1, sep, time.Unix(sec, 0))
			if w := runewidth.StringWidth(got); w != 9 {
				t.Fatalf("t=%d: width %d, want 9 (%q)", sec, w, got)
			}
		}
	})
}

func TestFormatNowPlaying(t *testing.T) {
	snap := &mpvremote.Snapshot{
		Loaded:   true,
		Name:     "Big Buck Bunny",
		URL:      "https://example.com/bbb.mp4",
		Duration: 3725,
		Time:     65.4,
	}

	tests := []struct {
		name     string
		format   string
		expected string
	}{
		{
			name:     "default format",
			format:   "{{.Name}} {{.Position}}/{{.Length}}",
			expected: "Big Buck Bunny 0:01:05/1:02:05",
		},
		{
			name:     "state and url",
			format:   "[{{.State}}] {{.URL}}",
			expected: "[playing] https://example.com/bbb.mp4",
		},
		{
			name:     "raw seconds",
			format:   `{{printf "%.0f" .Time}}s`,
			expected: "65s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatNowPlaying(newNowPlaying(snap), tt.format)
			if err != nil {
				t.Fatalf("formatNowPlaying() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("formatNowPlaying() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFormatNowPlayingInvalidTemplate(t *testing.T) {
	_, err := formatNowPlaying(nowPlaying{}, "{{.Name")
	if err == nil || !strings.Contains(err.Error(), "invalid template") {
		t.Errorf("expected invalid template error, got %v", err)
	}
}

func TestNewNowPlaying(t *testing.T) {
	np := newNowPlaying(&mpvremote.Snapshot{
		Loaded:   true,
		Name:     "  ",
		Duration: 10,
		Time:     25,
		Paused:   true,
	})

	if np.Name != "Untitled" {
		t.Errorf("Name = %q, want Untitled", np.Name)
	}
	if np.Time != 10 {
		t.Errorf("Time = %v, want clamped to 10", np.Time)
	}
	if np.State != "paused" {
		t.Errorf("State = %q, want paused", np.State)
	}
}
