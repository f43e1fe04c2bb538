package appointments

import (
	"context"

	"medagenda/internal/domain"
)

type Settings struct {
	WeekendEnabled bool     `json:"weekend_enabled"`
	BlockedTimes   []string `json:"blocked_times"`
}

// AvailableTimeSlots lists the free 30 minute slots of the office day.
// Weekend days have no slots unless the weekend is enabled.
func (s *Service) AvailableTimeSlots(ctx context.Context, date string) ([]string, error) {
	day, err := domain.ParseDay(date)
	if err != nil {
		return nil, validationError("date must be YYYY-MM-DD")
	}

	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}
	if domain.IsWeekend(day) && !settings.WeekendEnabled {
		return []string{}, nil
	}

	slots, err := domain.GenerateTimeSlots(domain.DefaultSlotStartHour, domain.DefaultSlotEndHour, domain.DefaultSlotInterval)
	if err != nil {
		return nil, err
	}

	var booked []domain.Appointment
	for _, a := range s.GetAppointments(ctx, date) {
		if a.InitDate == date {
			booked = append(booked, a)
		}
	}
	return domain.AvailableTimeSlots(slots, booked, settings.BlockedTimes), nil
}

func (s *Service) Settings(ctx context.Context) (Settings, error) {
	weekend, err := s.prefs.WeekendEnabled(ctx)
	if err != nil {
		return Settings{}, err
	}
	blocked, err := s.prefs.BlockedTimes(ctx)
	if err != nil {
		return Settings{}, err
	}
	if blocked == nil {
		blocked = []string{}
	}
	return Settings{WeekendEnabled: weekend, BlockedTimes: blocked}, nil
}

func (s *Service) UpdateSettings(ctx context.Context, in Settings) (Settings, error) {
	if _, err := domain.NormalizeSlots(in.BlockedTimes); err != nil {
		return Settings{}, validationError(err.Error())
	}
	blocked, err := s.prefs.SetBlockedTimes(ctx, in.BlockedTimes)
	if err != nil {
		return Settings{}, err
	}
	if err := s.prefs.SetWeekendEnabled(ctx, in.WeekendEnabled); err != nil {
		return Settings{}, err
	}
	if blocked == nil {
		blocked = []string{}
	}
	return Settings{WeekendEnabled: in.WeekendEnabled, BlockedTimes: blocked}, nil
}
