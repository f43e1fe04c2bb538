package postgres

import (
	"context"

	"github.com/uptrace/bun"

	"medagenda/internal/domain"
)

type CustomerRepo struct {
	db bun.IDB
}

func NewCustomerRepo(db bun.IDB) *CustomerRepo {
	return &CustomerRepo{db: db}
}

func (r *CustomerRepo) UpsertAll(ctx context.Context, customers []domain.Customer) error {
	if len(customers) == 0 {
		return nil
	}
	rows := make([]domain.Customer, len(customers))
	copy(rows, customers)

	_, err := r.db.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("card = EXCLUDED.card").
		Set("name = EXCLUDED.name").
		Set("phone = EXCLUDED.phone").
		Set("email = EXCLUDED.email").
		Set("birthday = EXCLUDED.birthday").
		Set("gender = EXCLUDED.gender").
		Set("address = EXCLUDED.address").
		Exec(ctx)
	return err
}

func (r *CustomerRepo) GetByID(ctx context.Context, id int64) (domain.Customer, error) {
	var c domain.Customer
	err := r.db.NewSelect().
		Model(&c).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Customer{}, notFound(err)
	}
	return c, nil
}

func (r *CustomerRepo) GetByCard(ctx context.Context, card string) (domain.Customer, error) {
	var c domain.Customer
	err := r.db.NewSelect().
		Model(&c).
		Where("card = ?", card).
		OrderExpr("id ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Customer{}, notFound(err)
	}
	return c, nil
}

func (r *CustomerRepo) ListByIDs(ctx context.Context, ids []int64) ([]domain.Customer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []domain.Customer
	err := r.db.NewSelect().
		Model(&rows).
		Where("id IN (?)", bun.In(ids)).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
