package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	DayLayout  = "2006-01-02"
	TimeLayout = "15:04"
)

const (
	DefaultSlotStartHour = 7
	DefaultSlotEndHour   = 17
	DefaultSlotInterval  = 30 * time.Minute
)

func ParseDay(s string) (time.Time, error) {
	d, err := time.Parse(DayLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return d, nil
}

func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

// ParseSlot accepts HH:MM or HH:MM:SS and returns the normalized HH:MM form.
func ParseSlot(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) == 8 {
		if _, err := time.Parse("15:04:05", s); err != nil {
			return "", fmt.Errorf("invalid time %q", s)
		}
		return s[:5], nil
	}
	if _, err := time.Parse(TimeLayout, s); err != nil {
		return "", fmt.Errorf("invalid time %q", s)
	}
	return s, nil
}

func IsWeekend(day time.Time) bool {
	wd := day.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// GenerateTimeSlots lists HH:MM slots from startHour (inclusive) to endHour
// (exclusive) at the given interval.
func GenerateTimeSlots(startHour, endHour int, interval time.Duration) ([]string, error) {
	if interval <= 0 {
		return nil, errors.New("invalid interval")
	}
	if startHour < 0 || endHour > 24 || startHour >= endHour {
		return nil, errors.New("invalid hour range")
	}

	base := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	cur := base.Add(time.Duration(startHour) * time.Hour)
	end := base.Add(time.Duration(endHour) * time.Hour)

	out := make([]string, 0, int(end.Sub(cur)/interval))
	for cur.Before(end) {
		out = append(out, cur.Format(TimeLayout))
		cur = cur.Add(interval)
	}
	return out, nil
}

// AvailableTimeSlots removes booked and blocked times from slots, keeping
// the input order.
func AvailableTimeSlots(slots []string, booked []Appointment, blocked []string) []string {
	taken := make(map[string]struct{}, len(booked)+len(blocked))
	for _, a := range booked {
		taken[a.SlotTime()] = struct{}{}
	}
	for _, b := range blocked {
		taken[b] = struct{}{}
	}

	out := make([]string, 0, len(slots))
	for _, s := range slots {
		if _, ok := taken[s]; ok {
			continue
		}
		out = append(out, s)
	}
	return out
}

// NormalizeSlots validates, de-duplicates and sorts a set of HH:MM times.
func NormalizeSlots(in []string) ([]string, error) {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		s, err := ParseSlot(raw)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}
