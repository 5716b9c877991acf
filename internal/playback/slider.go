package playback

// Slider is a position control owned by the presentation layer.
type Slider interface {
	// SetPosition moves the control to fraction (0 to 1) without
	// firing the control's own change handler.
	SetPosition(fraction float64)
}

// BeginDrag suspends the local clock while the user holds the slider.
func (r *Reconciler) BeginDrag() {
	if r.dragging {
		return
	}
	r.dragging = true
	r.stopClock()
}

// Drag seeks to fraction of the duration. Every drag event seeks.
func (r *Reconciler) Drag(fraction float64) {
	r.Seek(r.state.Duration * Clamp(fraction, 1))
}

// EndDrag resumes the local clock if the player is playing.
func (r *Reconciler) EndDrag() {
	if !r.dragging {
		return
	}
	r.dragging = false
	r.updateClock()
}

// Dragging reports whether a slider drag is in progress.
func (r *Reconciler) Dragging() bool {
	return r.dragging
}
