package appointment

import "time"

// Interval is a half-open time range [Start, Finish). Both endpoints are kept
// in UTC so comparisons are never skewed by wall-clock offsets.
type Interval struct {
	Start  time.Time
	Finish time.Time
}

// NewInterval normalizes both endpoints to UTC. Callers are expected to pass
// start <= finish; a reversed pair is returned as-is and will simply never
// overlap anything.
func NewInterval(start, finish time.Time) Interval {
	return Interval{Start: start.UTC(), Finish: finish.UTC()}
}

// Overlaps reports whether the existing interval i intersects the candidate
// interval c. The check is the union of four cases:
//
//	A: i encloses c (or equals it)
//	B: i's finish falls strictly inside c
//	C: i's start falls strictly inside c
//	D: i lies strictly inside c
//
// Touching endpoints do not count as overlap: an appointment finishing at
// 10:00 does not collide with one starting at 10:00.
func (i Interval) Overlaps(c Interval) bool {
	// Case A: existing covers the candidate.
	if !i.Finish.Before(c.Finish) && !i.Start.After(c.Start) {
		return true
	}
	// Case B: existing finish lands inside the candidate.
	if i.Finish.Before(c.Finish) && i.Finish.After(c.Start) {
		return true
	}
	// Case C: existing start lands inside the candidate.
	if i.Start.After(c.Start) && i.Start.Before(c.Finish) {
		return true
	}
	// Case D: existing is contained in the candidate.
	if i.Start.After(c.Start) && i.Finish.Before(c.Finish) {
		return true
	}
	return false
}

// Duration returns the interval length. Zero for degenerate intervals.
func (i Interval) Duration() time.Duration {
	if i.Finish.Before(i.Start) {
		return 0
	}
	return i.Finish.Sub(i.Start)
}
