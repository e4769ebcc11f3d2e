package recognize

import (
	"github.com/google/uuid"
)

// Entry is one enrolled identity in the gallery: at most one descriptor
// per employee, replaced wholesale on re-enrollment.
type Entry struct {
	EmployeeID uuid.UUID
	Code       string
	Descriptor []float32
}

// Result is the outcome of matching a probe against the gallery.
// When Matched is false, Distance and Similarity describe the closest
// candidate so callers can build user-facing messaging.
type Result struct {
	Matched    bool
	EmployeeID uuid.UUID
	Code       string
	Distance   float64
	Similarity float64 // (1 - distance) * 100
	Tolerance  float64 // ladder rung that accepted the match, 0 otherwise
}

// DefaultLadder is the stepped tolerance relaxation. A single global
// threshold either rejects marginal legitimate matches or lets in too many
// false positives; relaxing only when the closest candidate is itself within
// the next rung bounds the added risk.
var DefaultLadder = []float64{0.6, 0.65, 0.7}

// Matcher finds the best-matching gallery entry for a probe descriptor.
// The zero value is not usable; construct with NewMatcher.
type Matcher struct {
	ladder []float64
}

func NewMatcher(ladder []float64) *Matcher {
	if len(ladder) == 0 {
		ladder = DefaultLadder
	}
	return &Matcher{ladder: ladder}
}

// Match compares probe against every entry and applies the tolerance ladder.
// Ambiguous matches (several entries within the accepted tolerance) resolve
// to the smallest distance; exact distance ties resolve to the lowest gallery
// index, which the loader orders by employee code. Match never mutates the
// gallery and is safe for concurrent use.
func (m *Matcher) Match(probe []float32, entries []Entry) Result {
	if len(entries) == 0 {
		return Result{}
	}

	dists := make([]float64, len(entries))
	minIdx := 0
	for i, e := range entries {
		dists[i] = Distance(probe, e.Descriptor)
		if dists[i] < dists[minIdx] {
			minIdx = i
		}
	}
	minDist := dists[minIdx]

	for _, tol := range m.ladder {
		if minDist > tol {
			continue
		}
		best := -1
		for i, d := range dists {
			if d <= tol && (best < 0 || d < dists[best]) {
				best = i
			}
		}
		if best >= 0 {
			return Result{
				Matched:    true,
				EmployeeID: entries[best].EmployeeID,
				Code:       entries[best].Code,
				Distance:   dists[best],
				Similarity: (1 - dists[best]) * 100,
				Tolerance:  tol,
			}
		}
	}

	return Result{
		Distance:   minDist,
		Similarity: (1 - minDist) * 100,
	}
}
