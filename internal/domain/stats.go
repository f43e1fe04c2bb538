package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type AppointmentStats struct {
	Total    int            `json:"total"`
	Attended int            `json:"attended"`
	Pending  int            `json:"pending"`
	Absent   int            `json:"absent"`
	ByDay    map[string]int `json:"by_day"`
	ByHour   map[string]int `json:"by_hour"`
}

func (s AppointmentStats) AttendanceRate() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Attended) / float64(s.Total)
}

func (s AppointmentStats) AbsentRate() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Absent) / float64(s.Total)
}

func (s AppointmentStats) DailyAverage() float64 {
	if len(s.ByDay) == 0 {
		return 0
	}
	return float64(s.Total) / float64(len(s.ByDay))
}

// MostFrequentTime returns the busiest hour key, or "" if there is none.
// Ties resolve to the earliest key.
func (s AppointmentStats) MostFrequentTime() string {
	key, _ := maxEntry(s.ByHour)
	return key
}

// BusiestDay returns the weekday name of the busiest date.
func (s AppointmentStats) BusiestDay() string {
	key, _ := maxEntry(s.ByDay)
	if key == "" {
		return ""
	}
	d, err := ParseDay(key)
	if err != nil {
		return key
	}
	return d.Weekday().String()
}

type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// BusiestTimeRange finds the run of consecutive hours carrying the most
// appointments. At least two distinct hours are needed.
func (s AppointmentStats) BusiestTimeRange() (TimeRange, bool) {
	if len(s.ByHour) < 2 {
		return TimeRange{}, false
	}

	type bucket struct {
		hour  int
		count int
	}
	buckets := make([]bucket, 0, len(s.ByHour))
	for k, v := range s.ByHour {
		h, err := hourOf(k)
		if err != nil {
			continue
		}
		buckets = append(buckets, bucket{hour: h, count: v})
	}
	if len(buckets) < 2 {
		return TimeRange{}, false
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].hour < buckets[j].hour })

	// Several keys can share an hour (09:00, 09:30); fold them first.
	folded := make([]bucket, 1, len(buckets))
	folded[0] = buckets[0]
	for _, b := range buckets[1:] {
		last := &folded[len(folded)-1]
		if b.hour == last.hour {
			last.count += b.count
			continue
		}
		folded = append(folded, b)
	}

	bestStart, bestEnd, bestCount := folded[0].hour, folded[0].hour, folded[0].count
	runStart, runCount := folded[0].hour, folded[0].count
	for i := 1; i < len(folded); i++ {
		if folded[i].hour-folded[i-1].hour == 1 {
			runCount += folded[i].count
		} else {
			runStart, runCount = folded[i].hour, folded[i].count
		}
		if runCount > bestCount {
			bestStart, bestEnd, bestCount = runStart, folded[i].hour, runCount
		}
	}

	return TimeRange{
		Start: fmt.Sprintf("%02d:00", bestStart),
		End:   fmt.Sprintf("%02d:00", bestEnd+1),
	}, true
}

type TimeDistribution struct {
	Morning   int `json:"morning"`
	Afternoon int `json:"afternoon"`
	Evening   int `json:"evening"`
}

// Distribution buckets hours into 07-11, 12-16 and 17-21.
func (s AppointmentStats) Distribution() TimeDistribution {
	var out TimeDistribution
	for k, v := range s.ByHour {
		h, err := hourOf(k)
		if err != nil {
			continue
		}
		switch {
		case h >= 7 && h <= 11:
			out.Morning += v
		case h >= 12 && h <= 16:
			out.Afternoon += v
		case h >= 17 && h <= 21:
			out.Evening += v
		}
	}
	return out
}

// WeekdayDistribution sums ByDay per weekday name.
func (s AppointmentStats) WeekdayDistribution() map[string]int {
	out := make(map[string]int, 7)
	for k, v := range s.ByDay {
		d, err := ParseDay(k)
		if err != nil {
			out["Unknown"] += v
			continue
		}
		out[d.Weekday().String()] += v
	}
	return out
}

type TrendKind string

const (
	TrendPositive TrendKind = "positive"
	TrendNegative TrendKind = "negative"
	TrendNeutral  TrendKind = "neutral"
)

type Trend struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Kind        TrendKind `json:"kind"`
}

func (s AppointmentStats) Trends() []Trend {
	var out []Trend
	if s.Total > 0 {
		switch rate := s.AttendanceRate(); {
		case rate > 0.8:
			out = append(out, Trend{Title: "High attendance", Description: "Attendance rate is above 80%", Kind: TrendPositive})
		case rate < 0.6:
			out = append(out, Trend{Title: "Low attendance", Description: "Attendance rate is below 60%", Kind: TrendNegative})
		}
	}

	dist := s.Distribution()
	sum := dist.Morning + dist.Afternoon + dist.Evening
	if sum > 0 && float64(dist.Morning)/float64(sum) > 0.5 {
		out = append(out, Trend{Title: "Morning preference", Description: "More than 50% of appointments are in the morning", Kind: TrendNeutral})
	}
	return out
}

func hourOf(key string) (int, error) {
	head, _, _ := strings.Cut(key, ":")
	h, err := strconv.Atoi(head)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour %q", key)
	}
	return h, nil
}

func maxEntry(m map[string]int) (string, int) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best, bestCount := "", 0
	for _, k := range keys {
		if m[k] > bestCount {
			best, bestCount = k, m[k]
		}
	}
	return best, bestCount
}
