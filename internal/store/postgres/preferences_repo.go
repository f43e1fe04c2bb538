package postgres

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

type preferenceRow struct {
	bun.BaseModel `bun:"table:preferences"`

	Key       string    `bun:"key,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

type PreferencesRepo struct {
	db bun.IDB
}

func NewPreferencesRepo(db bun.IDB) *PreferencesRepo {
	return &PreferencesRepo{db: db}
}

func (r *PreferencesRepo) Get(ctx context.Context, key string) (string, error) {
	var row preferenceRow
	err := r.db.NewSelect().
		Model(&row).
		Where("key = ?", key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return "", notFound(err)
	}
	return row.Value, nil
}

func (r *PreferencesRepo) Set(ctx context.Context, key, value string) error {
	row := preferenceRow{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := r.db.NewInsert().
		Model(&row).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (r *PreferencesRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.NewDelete().
		Model((*preferenceRow)(nil)).
		Where("key = ?", key).
		Exec(ctx)
	return err
}

func (r *PreferencesRepo) Clear(ctx context.Context) error {
	_, err := r.db.NewDelete().
		Model((*preferenceRow)(nil)).
		Where("TRUE").
		Exec(ctx)
	return err
}
