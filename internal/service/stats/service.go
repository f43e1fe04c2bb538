package stats

import (
	"context"
	"errors"
	"time"

	"medagenda/internal/domain"
	"medagenda/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

type Range string

const (
	RangeToday  Range = "today"
	RangeWeek   Range = "week"
	RangeMonth  Range = "month"
	RangeCustom Range = "custom"
)

type Filter struct {
	Range        Range
	From         string
	To           string
	ShowAttended bool
	ShowPending  bool
	ShowAbsent   bool
}

// DefaultFilter is the last seven days with every status shown.
func DefaultFilter() Filter {
	return Filter{Range: RangeWeek, ShowAttended: true, ShowPending: true, ShowAbsent: true}
}

type Summary struct {
	From  string                  `json:"from"`
	To    string                  `json:"to"`
	Stats domain.AppointmentStats `json:"stats"`
}

type Insights struct {
	AttendanceRate      float64                 `json:"attendance_rate"`
	AbsentRate          float64                 `json:"absent_rate"`
	DailyAverage        float64                 `json:"daily_average"`
	MostFrequentTime    string                  `json:"most_frequent_time,omitempty"`
	BusiestDay          string                  `json:"busiest_day,omitempty"`
	BusiestTimeRange    *domain.TimeRange       `json:"busiest_time_range,omitempty"`
	Distribution        domain.TimeDistribution `json:"distribution"`
	WeekdayDistribution map[string]int          `json:"weekday_distribution"`
	Trends              []domain.Trend          `json:"trends"`
}

type Service struct {
	store store.StatsStore
	now   func() time.Time
}

func NewService(s store.StatsStore, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: s, now: now}
}

func (s *Service) Summary(ctx context.Context, f Filter) (Summary, error) {
	from, to, err := s.window(f)
	if err != nil {
		return Summary{}, err
	}
	today := domain.FormatDay(s.now())

	st, err := s.store.AppointmentStats(ctx, from, to, today)
	if err != nil {
		return Summary{}, err
	}
	return Summary{From: from, To: to, Stats: applyStatusFilter(st, f)}, nil
}

func Analyze(st domain.AppointmentStats) Insights {
	out := Insights{
		AttendanceRate:      st.AttendanceRate(),
		AbsentRate:          st.AbsentRate(),
		DailyAverage:        st.DailyAverage(),
		MostFrequentTime:    st.MostFrequentTime(),
		BusiestDay:          st.BusiestDay(),
		Distribution:        st.Distribution(),
		WeekdayDistribution: st.WeekdayDistribution(),
		Trends:              st.Trends(),
	}
	if r, ok := st.BusiestTimeRange(); ok {
		out.BusiestTimeRange = &r
	}
	if out.Trends == nil {
		out.Trends = []domain.Trend{}
	}
	return out
}

func (s *Service) window(f Filter) (string, string, error) {
	today := s.now()
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	switch f.Range {
	case RangeToday:
		return domain.FormatDay(day), domain.FormatDay(day), nil
	case RangeWeek, "":
		return domain.FormatDay(day.AddDate(0, 0, -6)), domain.FormatDay(day), nil
	case RangeMonth:
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return domain.FormatDay(first), domain.FormatDay(first.AddDate(0, 1, -1)), nil
	case RangeCustom:
		from, err := domain.ParseDay(f.From)
		if err != nil {
			return "", "", &ValidationError{msg: "from must be YYYY-MM-DD"}
		}
		to, err := domain.ParseDay(f.To)
		if err != nil {
			return "", "", &ValidationError{msg: "to must be YYYY-MM-DD"}
		}
		if to.Before(from) {
			return "", "", &ValidationError{msg: "to must not be before from"}
		}
		return domain.FormatDay(from), domain.FormatDay(to), nil
	default:
		return "", "", &ValidationError{msg: "unknown range " + string(f.Range)}
	}
}

// applyStatusFilter zeroes the counts of hidden statuses. Total is reduced
// accordingly so rates stay relative to what is shown.
func applyStatusFilter(st domain.AppointmentStats, f Filter) domain.AppointmentStats {
	if !f.ShowAttended {
		st.Total -= st.Attended
		st.Attended = 0
	}
	if !f.ShowAbsent {
		st.Total -= st.Absent
		st.Absent = 0
	}
	if !f.ShowPending {
		st.Total -= st.Pending
		st.Pending = 0
	}
	if st.Total < 0 {
		st.Total = 0
	}
	return st
}

func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
