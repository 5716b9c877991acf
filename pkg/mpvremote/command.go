package mpvremote

import (
	"strconv"
	"strings"
)

// Command is a single line of the server's command grammar: a verb
// followed by space separated arguments.
type Command string

// Pause pauses (true) or resumes (false) playback.
func Pause(paused bool) Command {
	if paused {
		return "pause 1"
	}
	return "pause 0"
}

// Move skips forward (positive) or rewinds (negative) by seconds.
func Move(seconds int) Command {
	return Command("move " + strconv.Itoa(seconds))
}

// Seek jumps to an absolute position in seconds.
func Seek(seconds float64) Command {
	return Command("seek " + strconv.FormatFloat(seconds, 'f', -1, 64))
}

// Open loads source paused. The source is wrapped in double quotes and
// otherwise sent as is; see ValidateSource.
func Open(source string) Command {
	return Command(`open "` + source + `" --pause`)
}

// Stop unloads the current media.
func Stop() Command {
	return "stop"
}

// Kill terminates the player process on the server.
func Kill() Command {
	return "kill"
}

// Verb returns the first word of the command.
func (c Command) Verb() string {
	verb, _, _ := strings.Cut(string(c), " ")
	return verb
}

// String returns the command line as sent on the wire.
func (c Command) String() string {
	return string(c)
}

// ValidateSource returns ErrUnsafeSource if source contains a double
// quote or a line break, and ErrBlankSource if it is blank.
func ValidateSource(source string) error {
	if strings.TrimSpace(source) == "" {
		return ErrBlankSource
	}
	if strings.ContainsAny(source, "\"\r\n") {
		return ErrUnsafeSource
	}
	return nil
}
