package coverage

import "strconv"

// LineHits is the coverage state of one physical source line. A line is
// either untracked (no executable content) or tracked with a hit count.
// The zero value is an untracked line.
type LineHits struct {
	count   int
	tracked bool
}

// Untracked returns the state of a line with no executable content.
func Untracked() LineHits {
	return LineHits{}
}

// Hits returns the state of a tracked line executed count times.
func Hits(count int) LineHits {
	return LineHits{count: count, tracked: true}
}

// Count returns the hit count and whether the line is tracked.
func (h LineHits) Count() (int, bool) {
	return h.count, h.tracked
}

// Tracked reports whether the line carries a hit count.
func (h LineHits) Tracked() bool {
	return h.tracked
}

// Missed reports whether the line is tracked and was never executed.
func (h LineHits) Missed() bool {
	return h.tracked && h.count == 0
}

// String renders the state as the hit count, or "-" for an untracked line.
func (h LineHits) String() string {
	if !h.tracked {
		return "-"
	}

	return strconv.Itoa(h.count)
}

