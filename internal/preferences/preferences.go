package preferences

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"medagenda/internal/domain"
	"medagenda/internal/store"
)

const (
	keyAccessToken    = "access_token"
	keyTokenExpiresAt = "access_token_expires_at"
	keyWeekendEnabled = "weekend_enabled"
	keyBlockedTimes   = "blocked_times"
)

// Manager keeps the session token and office settings in a key-value store.
type Manager struct {
	kv store.PreferencesStore
}

func New(kv store.PreferencesStore) *Manager {
	return &Manager{kv: kv}
}

func (m *Manager) SaveToken(ctx context.Context, token string, expiresAt *time.Time) error {
	if err := m.kv.Set(ctx, keyAccessToken, token); err != nil {
		return err
	}
	if expiresAt == nil {
		return m.kv.Delete(ctx, keyTokenExpiresAt)
	}
	return m.kv.Set(ctx, keyTokenExpiresAt, expiresAt.UTC().Format(time.RFC3339))
}

// Token returns the stored session token or "" when none is stored.
func (m *Manager) Token(ctx context.Context) (string, error) {
	return m.get(ctx, keyAccessToken)
}

func (m *Manager) TokenExpiry(ctx context.Context) (*time.Time, error) {
	raw, err := m.get(ctx, keyTokenExpiresAt)
	if err != nil || raw == "" {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ClearSession removes every stored preference.
func (m *Manager) ClearSession(ctx context.Context) error {
	return m.kv.Clear(ctx)
}

func (m *Manager) WeekendEnabled(ctx context.Context) (bool, error) {
	raw, err := m.get(ctx, keyWeekendEnabled)
	if err != nil || raw == "" {
		return false, err
	}
	return strconv.ParseBool(raw)
}

func (m *Manager) SetWeekendEnabled(ctx context.Context, enabled bool) error {
	return m.kv.Set(ctx, keyWeekendEnabled, strconv.FormatBool(enabled))
}

func (m *Manager) BlockedTimes(ctx context.Context) ([]string, error) {
	raw, err := m.get(ctx, keyBlockedTimes)
	if err != nil || raw == "" {
		return nil, err
	}
	return strings.Split(raw, ","), nil
}

func (m *Manager) SetBlockedTimes(ctx context.Context, times []string) ([]string, error) {
	normalized, err := domain.NormalizeSlots(times)
	if err != nil {
		return nil, err
	}
	if len(normalized) == 0 {
		return nil, m.kv.Delete(ctx, keyBlockedTimes)
	}
	return normalized, m.kv.Set(ctx, keyBlockedTimes, strings.Join(normalized, ","))
}

func (m *Manager) get(ctx context.Context, key string) (string, error) {
	v, err := m.kv.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	return v, err
}
