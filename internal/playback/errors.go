package playback

import "github.com/jfmyers9/mpvctl/pkg/mpvremote"

// ErrorTracker remembers the time of the last server error that was
// surfaced. The server echoes its last error on every status response
// until a later command succeeds, so an error counts as new only when
// its time differs from the last one seen.
//
// ErrorTracker is owned by the event loop and is not safe for
// concurrent use.
type ErrorTracker struct {
	last   float64
	seeded bool
}

// NewErrorTracker returns a tracker that will treat the first record it
// is offered as already seen.
func NewErrorTracker() *ErrorTracker {
	return &ErrorTracker{}
}

// RestoreErrorTracker returns a tracker that has already seen the error
// stamped with last, typically loaded from a previous run.
func RestoreErrorTracker(last float64) *ErrorTracker {
	return &ErrorTracker{last: last, seeded: true}
}

// Seeded reports whether the tracker has a baseline yet.
func (t *ErrorTracker) Seeded() bool {
	return t.seeded
}

// Last returns the time of the last error seen.
func (t *ErrorTracker) Last() float64 {
	return t.last
}

// Seed records e as seen without surfacing it. It has no effect once
// the tracker has a baseline.
func (t *ErrorTracker) Seed(e mpvremote.ServerError) {
	if t.seeded {
		return
	}
	t.last = e.Time
	t.seeded = true
}

// Offer reports whether e is an error that has not been surfaced yet,
// and marks it as surfaced.
func (t *ErrorTracker) Offer(e mpvremote.ServerError) bool {
	if !t.seeded {
		t.Seed(e)
		return false
	}
	if e.IsZero() || e.Time == t.last {
		return false
	}
	t.last = e.Time
	return true
}
