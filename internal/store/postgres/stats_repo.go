package postgres

import (
	"context"

	"github.com/uptrace/bun"

	"medagenda/internal/domain"
)

type StatsRepo struct {
	db bun.IDB
}

func NewStatsRepo(db bun.IDB) *StatsRepo {
	return &StatsRepo{db: db}
}

type statusCounts struct {
	Total    int `bun:"total"`
	Attended int `bun:"attended"`
	Pending  int `bun:"pending"`
	Absent   int `bun:"absent"`
}

type bucketCount struct {
	Key   string `bun:"key"`
	Count int    `bun:"count"`
}

func (r *StatsRepo) AppointmentStats(ctx context.Context, from, to, today string) (domain.AppointmentStats, error) {
	var counts statusCounts
	err := r.db.NewSelect().
		TableExpr("appointments").
		ColumnExpr("count(*) AS total").
		ColumnExpr("count(*) FILTER (WHERE attendance) AS attended").
		ColumnExpr("count(*) FILTER (WHERE NOT attendance AND init_date >= ?) AS pending", today).
		ColumnExpr("count(*) FILTER (WHERE absent) AS absent").
		Where("init_date >= ?", from).
		Where("init_date <= ?", to).
		Scan(ctx, &counts)
	if err != nil {
		return domain.AppointmentStats{}, err
	}

	var days []bucketCount
	err = r.db.NewSelect().
		TableExpr("appointments").
		ColumnExpr("init_date AS key").
		ColumnExpr("count(*) AS count").
		Where("init_date >= ?", from).
		Where("init_date <= ?", to).
		GroupExpr("init_date").
		OrderExpr("init_date ASC").
		Scan(ctx, &days)
	if err != nil {
		return domain.AppointmentStats{}, err
	}

	var hours []bucketCount
	err = r.db.NewSelect().
		TableExpr("appointments").
		ColumnExpr("substr(init_time, 1, 5) AS key").
		ColumnExpr("count(*) AS count").
		Where("init_date >= ?", from).
		Where("init_date <= ?", to).
		GroupExpr("substr(init_time, 1, 5)").
		OrderExpr("key ASC").
		Scan(ctx, &hours)
	if err != nil {
		return domain.AppointmentStats{}, err
	}

	return buildStats(counts, days, hours), nil
}

func buildStats(counts statusCounts, days, hours []bucketCount) domain.AppointmentStats {
	out := domain.AppointmentStats{
		Total:    counts.Total,
		Attended: counts.Attended,
		Pending:  counts.Pending,
		Absent:   counts.Absent,
		ByDay:    make(map[string]int, len(days)),
		ByHour:   make(map[string]int, len(hours)),
	}
	for _, d := range days {
		out.ByDay[d.Key] += d.Count
	}
	for _, h := range hours {
		out.ByHour[h.Key] += h.Count
	}
	return out
}
