package negotiation

import "time"

// Progress maps wall-clock time to the elapsed fraction of the negotiation's
// time budget: 0 at session start, 1 at the deadline, clamped outside that
// window. Get is monotonically non-decreasing for non-decreasing inputs.
type Progress struct {
	start    time.Time
	duration time.Duration
}

// NewProgress creates a Progress for a session starting at start and ending
// duration later.
func NewProgress(start time.Time, duration time.Duration) *Progress {
	return &Progress{start: start, duration: duration}
}

// Get returns the progress fraction at the given instant, in [0,1].
func (p *Progress) Get(now time.Time) float64 {
	if p.duration <= 0 {
		return 1
	}
	f := float64(now.Sub(p.start)) / float64(p.duration)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Deadline returns the instant at which progress reaches 1.
func (p *Progress) Deadline() time.Time {
	return p.start.Add(p.duration)
}
