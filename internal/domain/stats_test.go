package domain

import "testing"

func TestAppointmentStats_RatesAreZeroWithoutAppointments(t *testing.T) {
	var s AppointmentStats
	if s.AttendanceRate() != 0 || s.AbsentRate() != 0 || s.DailyAverage() != 0 {
		t.Fatalf("expected zero rates for empty stats")
	}
	if got := s.MostFrequentTime(); got != "" {
		t.Fatalf("MostFrequentTime = %q, want empty", got)
	}
}

func TestAppointmentStats_Rates(t *testing.T) {
	s := AppointmentStats{
		Total:    10,
		Attended: 7,
		Absent:   2,
		ByDay:    map[string]int{"2026-01-05": 6, "2026-01-06": 4},
	}
	if got := s.AttendanceRate(); got != 0.7 {
		t.Fatalf("AttendanceRate = %v, want 0.7", got)
	}
	if got := s.AbsentRate(); got != 0.2 {
		t.Fatalf("AbsentRate = %v, want 0.2", got)
	}
	if got := s.DailyAverage(); got != 5 {
		t.Fatalf("DailyAverage = %v, want 5", got)
	}
	if got := s.BusiestDay(); got != "Monday" {
		t.Fatalf("BusiestDay = %q, want Monday", got)
	}
}

func TestAppointmentStats_BusiestTimeRange(t *testing.T) {
	s := AppointmentStats{ByHour: map[string]int{
		"08:00": 1,
		"10:00": 3,
		"11:00": 4,
		"11:30": 1,
		"15:00": 6,
	}}
	got, ok := s.BusiestTimeRange()
	if !ok {
		t.Fatalf("expected a range")
	}
	if got.Start != "10:00" || got.End != "12:00" {
		t.Fatalf("BusiestTimeRange = %+v, want 10:00-12:00", got)
	}

	if _, ok := (AppointmentStats{ByHour: map[string]int{"09:00": 3}}).BusiestTimeRange(); ok {
		t.Fatalf("expected no range for a single hour")
	}
}

func TestAppointmentStats_DistributionAndTrends(t *testing.T) {
	s := AppointmentStats{
		Total:    10,
		Attended: 9,
		ByHour:   map[string]int{"08:00": 5, "09:30": 2, "13:00": 2, "18:00": 1},
	}
	dist := s.Distribution()
	if dist.Morning != 7 || dist.Afternoon != 2 || dist.Evening != 1 {
		t.Fatalf("Distribution = %+v", dist)
	}

	trends := s.Trends()
	if len(trends) != 2 {
		t.Fatalf("len(trends) = %d, want 2", len(trends))
	}
	if trends[0].Kind != TrendPositive || trends[1].Kind != TrendNeutral {
		t.Fatalf("trends = %+v", trends)
	}
}

func TestAppointmentStats_MostFrequentTimeTieIsEarliest(t *testing.T) {
	s := AppointmentStats{ByHour: map[string]int{"14:00": 3, "09:00": 3}}
	if got := s.MostFrequentTime(); got != "09:00" {
		t.Fatalf("MostFrequentTime = %q, want 09:00", got)
	}
}
