package coverage

import "strconv"

// Gap is a closed range of 1-based line numbers that are all tracked and
// were never executed. Gaps returned by FindGaps are maximal.
type Gap struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end"   yaml:"end"`
}

// Len returns the number of lines in the gap.
func (g Gap) Len() int {
	return g.End - g.Start + 1
}

// String formats a single-line gap as its line number and a longer gap as
// "start - end".
func (g Gap) String() string {
	if g.Start == g.End {
		return strconv.Itoa(g.Start)
	}

	return strconv.Itoa(g.Start) + " - " + strconv.Itoa(g.End)
}

// FindGaps scans lines once and returns the maximal runs of missed lines in
// ascending order. Untracked lines terminate a run and are never part of one.
func FindGaps(lines []LineHits) []Gap {
	var gaps []Gap

	for i := 0; i < len(lines); i++ {
		if !lines[i].Missed() {
			continue
		}

		end := i + 1
		for end < len(lines) && lines[end].Missed() {
			end++
		}

		// Positions are 0-based and end is exclusive; gaps are 1-based and closed.
		gaps = append(gaps, Gap{Start: i + 1, End: end})
		i = end
	}

	return gaps
}
