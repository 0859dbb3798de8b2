package attendance

import (
	"math"
	"testing"
)

type pair struct{ am, pm bool }

func (p pair) Sessions() (bool, bool) { return p.am, p.pm }

func TestDayValue(t *testing.T) {
	cases := []struct {
		am, pm bool
		want   float64
	}{
		{true, true, 1},
		{true, false, 0.5},
		{false, true, 0.5},
		{false, false, 0},
	}
	for _, tc := range cases {
		if got := DayValue(tc.am, tc.pm); got != tc.want {
			t.Errorf("DayValue(%v, %v) = %v, want %v", tc.am, tc.pm, got, tc.want)
		}
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize([]pair(nil))
	if s.TotalDays != 0 || s.PresentValue != 0 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if p := s.Percentage(); p != 0 {
		t.Fatalf("empty percentage = %v, want 0", p)
	}
}

func TestSummarizeClassifies(t *testing.T) {
	s := Summarize([]pair{{true, true}, {true, false}, {false, true}, {false, false}, {true, true}})
	want := Summary{TotalDays: 5, PresentValue: 3, FullDays: 2, HalfDays: 2, AbsentDays: 1}
	if s != want {
		t.Fatalf("got %+v, want %+v", s, want)
	}
	if p := s.Percentage(); p != 60 {
		t.Fatalf("percentage = %v, want 60", p)
	}
}

func TestPercentageRoundsToTwoPlaces(t *testing.T) {
	s := Summarize([]pair{{true, true}, {true, true}, {false, false}})
	if p := s.Percentage(); p != 66.67 {
		t.Fatalf("percentage = %v, want 66.67", p)
	}
	s = Summarize([]pair{{true, false}})
	if p := s.Percentage(); p != 50 {
		t.Fatalf("percentage = %v, want 50", p)
	}
}

// Every mix of up to six days stays within [0, 100] with at most two decimals.
func TestPercentageBounds(t *testing.T) {
	all := []pair{{true, true}, {true, false}, {false, true}, {false, false}}
	var walk func(days []pair, depth int)
	walk = func(days []pair, depth int) {
		s := Summarize(days)
		p := s.Percentage()
		if p < 0 || p > 100 {
			t.Fatalf("percentage %v out of range for %+v", p, s)
		}
		if scaled := p * 100; math.Abs(scaled-math.Round(scaled)) > 1e-6 {
			t.Fatalf("percentage %v has more than two decimals", p)
		}
		if s.FullDays+s.HalfDays+s.AbsentDays != s.TotalDays {
			t.Fatalf("classification does not partition days: %+v", s)
		}
		if depth == 6 {
			return
		}
		for _, d := range all {
			walk(append(days, d), depth+1)
		}
	}
	walk(nil, 0)
}
