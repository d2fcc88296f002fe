package spc

import (
	"math"
	"testing"

	"github.com/weldtech/weldwatch/internal/types"
)

func result(id string, depth float64, verdict string) types.CycleResult {
	return types.CycleResult{ID: id, WeldDepth: depth, PassFail: verdict}
}

func TestSummarize(t *testing.T) {
	e := New(10)
	e.Add(result("a", 2.0, types.VerdictPass))
	e.Add(result("b", 3.0, types.VerdictPass))
	e.Add(result("c", 4.0, types.VerdictFail))

	limits := &types.ActiveModel{LowerLimit: 1.0, UpperLimit: 5.0}
	s := e.Summarize(limits)

	if s.Count != 3 || s.PassCount != 2 || s.FailCount != 1 {
		t.Errorf("counts = %d/%d/%d, expected 3/2/1", s.Count, s.PassCount, s.FailCount)
	}
	if math.Abs(s.Mean-3.0) > 1e-9 {
		t.Errorf("Mean = %v, expected 3.0", s.Mean)
	}
	// Sample standard deviation of {2,3,4} is 1.
	if math.Abs(s.StdDev-1.0) > 1e-9 {
		t.Errorf("StdDev = %v, expected 1.0", s.StdDev)
	}
	if s.Min != 2.0 || s.Max != 4.0 {
		t.Errorf("Min/Max = %v/%v, expected 2.0/4.0", s.Min, s.Max)
	}
	// Cpk = min((5-3)/3, (3-1)/3) = 2/3.
	if math.Abs(s.Cpk-2.0/3.0) > 1e-9 {
		t.Errorf("Cpk = %v, expected %v", s.Cpk, 2.0/3.0)
	}
}

func TestSummarizeDegenerateCases(t *testing.T) {
	e := New(10)

	if s := e.Summarize(nil); s.Count != 0 || s.Cpk != 0 {
		t.Errorf("empty window summary = %+v, expected zeros", s)
	}

	e.Add(result("a", 2.5, types.VerdictPass))
	s := e.Summarize(&types.ActiveModel{LowerLimit: 1, UpperLimit: 5})
	if s.Count != 1 || s.Mean != 2.5 || s.StdDev != 0 || s.Cpk != 0 {
		t.Errorf("single-sample summary = %+v, expected no spread stats", s)
	}
}

func TestWindowEviction(t *testing.T) {
	e := New(3)
	for i, depth := range []float64{1, 2, 3, 4, 5} {
		e.Add(result(string(rune('a'+i)), depth, types.VerdictPass))
	}

	s := e.Summarize(nil)
	if s.Count != 3 {
		t.Fatalf("window holds %d results, expected 3", s.Count)
	}
	if s.Min != 3.0 || s.Max != 5.0 {
		t.Errorf("Min/Max = %v/%v, expected the newest three (3..5)", s.Min, s.Max)
	}

	recent := e.Recent(2)
	if len(recent) != 2 || recent[0].WeldDepth != 5.0 || recent[1].WeldDepth != 4.0 {
		t.Errorf("Recent(2) = %+v, expected newest first (5, 4)", recent)
	}
}
