package domain

import (
	"reflect"
	"testing"
	"time"
)

func TestGenerateTimeSlots_Defaults(t *testing.T) {
	slots, err := GenerateTimeSlots(DefaultSlotStartHour, DefaultSlotEndHour, DefaultSlotInterval)
	if err != nil {
		t.Fatalf("GenerateTimeSlots error: %v", err)
	}
	if len(slots) != 20 {
		t.Fatalf("len(slots) = %d, want 20", len(slots))
	}
	if slots[0] != "07:00" || slots[1] != "07:30" || slots[len(slots)-1] != "16:30" {
		t.Fatalf("slots = %v", slots)
	}
}

func TestGenerateTimeSlots_Validation(t *testing.T) {
	tests := []struct {
		name     string
		start    int
		end      int
		interval time.Duration
	}{
		{name: "zero interval", start: 7, end: 17, interval: 0},
		{name: "inverted range", start: 17, end: 7, interval: time.Hour},
		{name: "empty range", start: 9, end: 9, interval: time.Hour},
		{name: "end past midnight", start: 20, end: 25, interval: time.Hour},
		{name: "negative start", start: -1, end: 5, interval: time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := GenerateTimeSlots(tt.start, tt.end, tt.interval); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestAvailableTimeSlots_RemovesBookedAndBlocked(t *testing.T) {
	slots := []string{"07:00", "07:30", "08:00", "08:30"}
	booked := []Appointment{
		{ID: 1, InitTime: "07:30:00"},
		{ID: 2, InitTime: "09:00"},
	}
	got := AvailableTimeSlots(slots, booked, []string{"08:30"})
	want := []string{"07:00", "08:00"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("AvailableTimeSlots = %v, want %v", got, want)
	}
}

func TestNormalizeSlots(t *testing.T) {
	got, err := NormalizeSlots([]string{"10:00", " 08:30 ", "10:00:00", "08:30"})
	if err != nil {
		t.Fatalf("NormalizeSlots error: %v", err)
	}
	want := []string{"08:30", "10:00"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NormalizeSlots = %v, want %v", got, want)
	}

	if _, err := NormalizeSlots([]string{"25:00"}); err == nil {
		t.Fatalf("expected error for 25:00")
	}
}

func TestIsWeekend(t *testing.T) {
	sat, _ := ParseDay("2026-01-03")
	mon, _ := ParseDay("2026-01-05")
	if !IsWeekend(sat) {
		t.Fatalf("IsWeekend(saturday) = false")
	}
	if IsWeekend(mon) {
		t.Fatalf("IsWeekend(monday) = true")
	}
}

func TestParseDay_RejectsGarbage(t *testing.T) {
	if _, err := ParseDay("03/01/2026"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestAppointmentStatus_AbsentWins(t *testing.T) {
	tests := []struct {
		attendance bool
		absent     bool
		want       AppointmentStatus
	}{
		{false, false, AppointmentStatusPending},
		{true, false, AppointmentStatusAttended},
		{false, true, AppointmentStatusAbsent},
		{true, true, AppointmentStatusAbsent},
	}
	for _, tt := range tests {
		a := Appointment{Attendance: tt.attendance, Absent: tt.absent}
		if got := a.Status(); got != tt.want {
			t.Fatalf("Status(attendance=%v, absent=%v) = %s, want %s", tt.attendance, tt.absent, got, tt.want)
		}
	}
}
