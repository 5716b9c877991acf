package mpvremote

import (
	"errors"
	"testing"
)

func TestCommandConstructors(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
		verb string
	}{
		{name: "pause", cmd: Pause(true), want: "pause 1", verb: "pause"},
		{name: "resume", cmd: Pause(false), want: "pause 0", verb: "pause"},
		{name: "move forward", cmd: Move(15), want: "move 15", verb: "move"},
		{name: "move back", cmd: Move(-15), want: "move -15", verb: "move"},
		{name: "seek whole", cmd: Seek(42), want: "seek 42", verb: "seek"},
		{name: "seek fraction", cmd: Seek(61.5), want: "seek 61.5", verb: "seek"},
		{name: "seek zero", cmd: Seek(0), want: "seek 0", verb: "seek"},
		{name: "open", cmd: Open("http://x/a.mp4"), want: `open "http://x/a.mp4" --pause`, verb: "open"},
		{name: "open path with spaces", cmd: Open("${Videos}/My Film.mkv"), want: `open "${Videos}/My Film.mkv" --pause`, verb: "open"},
		{name: "stop", cmd: Stop(), want: "stop", verb: "stop"},
		{name: "kill", cmd: Kill(), want: "kill", verb: "kill"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cmd.String(); got != tt.want {
				t.Errorf("command = %q, want %q", got, tt.want)
			}
			if got := tt.cmd.Verb(); got != tt.verb {
				t.Errorf("verb = %q, want %q", got, tt.verb)
			}
		})
	}
}

func TestOpenDoesNotEscape(t *testing.T) {
	// The wire format is fixed; unsafe sources pass through unchanged.
	got := Open(`a" --evil "b`).String()
	want := `open "a" --evil "b" --pause`
	if got != want {
		t.Errorf("Open = %q, want %q", got, want)
	}
}

func TestValidateSource(t *testing.T) {
	tests := []struct {
		source  string
		wantErr error
	}{
		{source: "http://x/a.mp4"},
		{source: "uploads/clip.webm"},
		{source: "${Music}/Album/01 Track.flac"},
		{source: "", wantErr: ErrBlankSource},
		{source: "   ", wantErr: ErrBlankSource},
		{source: `a"b`, wantErr: ErrUnsafeSource},
		{source: "a\nb", wantErr: ErrUnsafeSource},
		{source: "a\rb", wantErr: ErrUnsafeSource},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			err := ValidateSource(tt.source)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidateSource(%q) = %v, want nil", tt.source, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateSource(%q) = %v, want %v", tt.source, err, tt.wantErr)
			}
		})
	}
}
