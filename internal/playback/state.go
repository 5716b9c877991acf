package playback

import (
	"fmt"
	"math"
	"strings"
)

// Phase is the coarse playback state shown to the user.
type Phase int

const (
	// Disabled means nothing is loaded and the controls are inert.
	Disabled Phase = iota
	Paused
	Playing
)

func (p Phase) String() string {
	switch p {
	case Disabled:
		return "disabled"
	case Paused:
		return "paused"
	case Playing:
		return "playing"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// State is the locally believed player state.
type State struct {
	Loaded   bool
	Name     string
	Duration float64 // seconds
	Time     float64 // seconds, always within [0, Duration]
	Paused   bool
}

// Phase derives the playback phase from the state.
func (s State) Phase() Phase {
	switch {
	case !s.Loaded:
		return Disabled
	case s.Paused:
		return Paused
	default:
		return Playing
	}
}

// DisplayName returns the media name, or "Untitled" for a blank one.
func (s State) DisplayName() string {
	if strings.TrimSpace(s.Name) == "" {
		return "Untitled"
	}
	return s.Name
}

// Fraction returns the playback position as a fraction of the duration.
func (s State) Fraction() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return s.Time / s.Duration
}

// Clamp limits t to [0, duration].
func Clamp(t, duration float64) float64 {
	if math.IsNaN(t) || t < 0 {
		return 0
	}
	if duration < 0 {
		duration = 0
	}
	if t > duration {
		return duration
	}
	return t
}

// FormatClock renders seconds as H:MM:SS.
func FormatClock(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int64(seconds)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total/60)%60, total%60)
}
