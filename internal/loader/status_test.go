package loader

import "testing"

func TestPhase(t *testing.T) {
	tests := []struct {
		phase    Phase
		name     string
		active   bool
		terminal bool
	}{
		{Idle, "idle", false, false},
		{Uploading, "uploading", true, false},
		{Pending, "pending", true, false},
		{Polling, "polling", true, false},
		{Loaded, "loaded", false, true},
		{Failed, "failed", false, true},
		{TimedOut, "timed out", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.phase.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			if got := tt.phase.Active(); got != tt.active {
				t.Errorf("Active() = %v, want %v", got, tt.active)
			}
			if got := tt.phase.Terminal(); got != tt.terminal {
				t.Errorf("Terminal() = %v, want %v", got, tt.terminal)
			}
		})
	}
}
