package attendance

import "math"

// DayValue scores one day: 1 when present for both sessions, 0.5 for exactly
// one session, 0 otherwise. Every report derives its numbers from this function.
func DayValue(am, pm bool) float64 {
	switch {
	case am && pm:
		return 1
	case am || pm:
		return 0.5
	default:
		return 0
	}
}

// Summary is the fold of a set of days.
type Summary struct {
	TotalDays    int     `json:"totalDays"`
	PresentValue float64 `json:"presentValue"`
	FullDays     int     `json:"fullDays"`
	HalfDays     int     `json:"halfDays"`
	AbsentDays   int     `json:"absentDays"`
}

// Add folds one day into the summary.
func (s *Summary) Add(am, pm bool) {
	v := DayValue(am, pm)
	s.TotalDays++
	s.PresentValue += v
	switch v {
	case 1:
		s.FullDays++
	case 0.5:
		s.HalfDays++
	default:
		s.AbsentDays++
	}
}

// Percentage is PresentValue/TotalDays*100 rounded to two decimals, and 0 for an empty summary.
func (s Summary) Percentage() float64 {
	if s.TotalDays == 0 {
		return 0
	}
	return Round2(s.PresentValue / float64(s.TotalDays) * 100)
}

// Session is anything carrying an AM/PM pair.
type Session interface {
	Sessions() (am, pm bool)
}

// Summarize folds a sequence of records in a single pass.
func Summarize[T Session](records []T) Summary {
	var s Summary
	for _, r := range records {
		s.Add(r.Sessions())
	}
	return s
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
