package recognize

import (
	"math"
	"testing"

	"github.com/google/uuid"
)

// probeAt returns a descriptor at the given Euclidean distance from the
// zero vector (all the distance in element 0). Fixture distances that must
// sit exactly on a comparison boundary have to be exactly representable in
// float32 (dyadic fractions like 0.5625); a value like 0.6 rounds up to
// 0.60000002 and lands on the far side of the rung.
func probeAt(dist float32) []float32 {
	d := make([]float32, Dim)
	d[0] = dist
	return d
}

func entry(code string, descriptor []float32) Entry {
	return Entry{EmployeeID: uuid.New(), Code: code, Descriptor: descriptor}
}

func TestMatchEmptyGallery(t *testing.T) {
	m := NewMatcher(nil)
	res := m.Match(probeAt(0), nil)
	if res.Matched {
		t.Fatal("match against empty gallery should fail")
	}
}

func TestMatchExactDescriptor(t *testing.T) {
	m := NewMatcher(nil)
	e := entry("EMP-001", probeAt(0.3))

	res := m.Match(probeAt(0.3), []Entry{e})
	if !res.Matched {
		t.Fatal("exact probe should match")
	}
	if res.EmployeeID != e.EmployeeID {
		t.Errorf("matched %v; want %v", res.EmployeeID, e.EmployeeID)
	}
	if res.Distance != 0 {
		t.Errorf("distance = %v; want 0", res.Distance)
	}
}

func TestMatchToleranceLadder(t *testing.T) {
	m := NewMatcher(nil)
	probe := probeAt(0)

	tests := []struct {
		name          string
		dist          float32
		wantMatch     bool
		wantTolerance float64
	}{
		{"well within first rung", 0.5, true, 0.6},
		{"just under first rung", 0.59375, true, 0.6},
		{"needs second rung", 0.625, true, 0.65},
		{"needs third rung", 0.6875, true, 0.7},
		{"beyond all rungs", 0.75, false, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := m.Match(probe, []Entry{entry("EMP-001", probeAt(tc.dist))})
			if res.Matched != tc.wantMatch {
				t.Fatalf("Matched = %v; want %v", res.Matched, tc.wantMatch)
			}
			if res.Tolerance != tc.wantTolerance {
				t.Errorf("Tolerance = %v; want %v", res.Tolerance, tc.wantTolerance)
			}
		})
	}
}

// Rung comparisons are inclusive: a distance exactly equal to a tolerance
// is admitted at that tolerance, not the next one. The ladder here uses
// dyadic fractions so the fixture distances survive the float32 round trip
// bit-exact and actually land on the boundary.
func TestMatchToleranceInclusiveAtBoundary(t *testing.T) {
	ladder := []float64{0.5625, 0.625, 0.75}
	m := NewMatcher(ladder)
	probe := probeAt(0)

	for _, tol := range ladder {
		res := m.Match(probe, []Entry{entry("EMP-001", probeAt(float32(tol)))})
		if !res.Matched {
			t.Fatalf("distance %v rejected; want inclusive match", tol)
		}
		if res.Tolerance != tol {
			t.Errorf("distance %v admitted at rung %v; want %v", tol, res.Tolerance, tol)
		}
	}

	if res := m.Match(probe, []Entry{entry("EMP-001", probeAt(0.8125))}); res.Matched {
		t.Errorf("distance beyond the last rung matched: %+v", res)
	}
}

// Relaxing the ladder must never change which identity wins, only whether a
// marginal one is accepted at all.
func TestMatchThresholdMonotonicity(t *testing.T) {
	probe := probeAt(0)
	gallery := []Entry{
		entry("EMP-001", probeAt(0.55)),
		entry("EMP-002", probeAt(0.9)),
	}

	var winner uuid.UUID
	for i, ladder := range [][]float64{{0.6}, {0.6, 0.65}, {0.6, 0.65, 0.7}} {
		res := NewMatcher(ladder).Match(probe, gallery)
		if !res.Matched {
			t.Fatalf("ladder %v: expected match", ladder)
		}
		if i == 0 {
			winner = res.EmployeeID
		} else if res.EmployeeID != winner {
			t.Fatalf("ladder %v picked a different identity", ladder)
		}
	}
}

func TestMatchAmbiguousPrefersSmallestDistance(t *testing.T) {
	m := NewMatcher(nil)
	near := entry("EMP-002", probeAt(0.4))
	far := entry("EMP-001", probeAt(0.55))

	res := m.Match(probeAt(0), []Entry{far, near})
	if !res.Matched {
		t.Fatal("expected match")
	}
	if res.EmployeeID != near.EmployeeID {
		t.Errorf("matched %s; want the closer entry %s", res.Code, near.Code)
	}
}

func TestMatchExactTieIsDeterministic(t *testing.T) {
	m := NewMatcher(nil)
	first := entry("EMP-001", probeAt(0.5))
	second := entry("EMP-002", probeAt(0.5))
	gallery := []Entry{first, second}

	for i := 0; i < 10; i++ {
		res := m.Match(probeAt(0), gallery)
		if !res.Matched {
			t.Fatal("expected match")
		}
		if res.EmployeeID != first.EmployeeID {
			t.Fatalf("tie resolved to %s; want the first entry %s", res.Code, first.Code)
		}
	}
}

func TestMatchNoMatchReportsSimilarity(t *testing.T) {
	m := NewMatcher(nil)
	res := m.Match(probeAt(0), []Entry{entry("EMP-001", probeAt(0.8))})

	if res.Matched {
		t.Fatal("distance 0.8 should not match")
	}
	if math.Abs(res.Distance-0.8) > 1e-6 {
		t.Errorf("Distance = %v; want 0.8", res.Distance)
	}
	wantSim := (1 - 0.8) * 100
	if math.Abs(res.Similarity-wantSim) > 1e-4 {
		t.Errorf("Similarity = %v; want %v", res.Similarity, wantSim)
	}
}

func TestMatchEndToEnd(t *testing.T) {
	m := NewMatcher(nil)

	ea := make([]float32, Dim)
	eb := make([]float32, Dim)
	for i := 0; i < Dim; i++ {
		ea[i] = 0.1
	}
	eb[0] = 1.5 // far from both ea and the unrelated probe

	if d := Distance(ea, eb); d <= 0.7 {
		t.Fatalf("fixture error: distance(ea, eb) = %v; want > 0.7", d)
	}

	a := entry("EMP-A", ea)
	b := entry("EMP-B", eb)
	gallery := []Entry{a, b}

	if res := m.Match(ea, gallery); !res.Matched || res.EmployeeID != a.EmployeeID {
		t.Errorf("probe ea: got %+v; want match on A", res)
	}
	if res := m.Match(eb, gallery); !res.Matched || res.EmployeeID != b.EmployeeID {
		t.Errorf("probe eb: got %+v; want match on B", res)
	}

	unrelated := make([]float32, Dim)
	for i := 0; i < Dim; i++ {
		unrelated[i] = -0.2
	}
	res := m.Match(unrelated, gallery)
	if res.Matched {
		t.Fatalf("unrelated probe matched: %+v", res)
	}
	if res.Distance <= 0.7 {
		t.Errorf("unrelated min distance = %v; want > 0.7", res.Distance)
	}
}
