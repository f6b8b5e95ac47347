package sellers

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-marketplace-settlement/internal/apperr"
	"github.com/ariefcatur/go-marketplace-settlement/internal/postgres"
	"github.com/jackc/pgx/v5"
)

var errStatusMoved = errors.New("seller status changed concurrently")

type PGStore struct{ DB postgres.DB }

var _ Store = (*PGStore)(nil)

func (r *PGStore) Create(ctx context.Context, s Seller) (Seller, error) {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO sellers(user_id, shop_name, shop_description, email, status)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5)
		RETURNING id, rating, total_sales, created_at`,
		s.UserID, s.ShopName, s.ShopDescription, s.Email, string(s.Status),
	).Scan(&s.ID, &s.Rating, &s.TotalSales, &s.CreatedAt)
	return s, err
}

func (r *PGStore) Get(ctx context.Context, id int64) (Seller, error) {
	var s Seller
	err := r.DB.QueryRow(ctx, `
		SELECT id, COALESCE(user_id, ''), shop_name, COALESCE(shop_description, ''), COALESCE(email, ''), status,
		       COALESCE(bank_name, ''), COALESCE(account_number, ''), COALESCE(account_holder_name, ''),
		       rating, total_sales, created_at
		FROM sellers WHERE id = $1`, id).Scan(
		&s.ID, &s.UserID, &s.ShopName, &s.ShopDescription, &s.Email, &s.Status,
		&s.BankName, &s.AccountNumber, &s.AccountHolderName,
		&s.Rating, &s.TotalSales, &s.CreatedAt,
	)
	return s, err
}

func (r *PGStore) SetStatus(ctx context.Context, id int64, from, to Status) error {
	ct, err := r.DB.Exec(ctx, `UPDATE sellers SET status = $3 WHERE id = $1 AND status = $2`, id, string(from), string(to))
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM sellers WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return pgx.ErrNoRows
	}
	return apperr.Conflict("set seller status", errStatusMoved)
}

func (r *PGStore) UpdateBank(ctx context.Context, id int64, b BankDetails) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE sellers SET bank_name = $2, account_number = $3, account_holder_name = $4
		WHERE id = $1`, id, b.BankName, b.AccountNumber, b.AccountHolderName)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PGStore) RefreshStats(ctx context.Context, id int64) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `
		UPDATE sellers SET total_sales = (
			SELECT COALESCE(SUM(subtotal), 0) FROM seller_orders
			WHERE seller_id = $1 AND status = 'delivered')
		WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	if _, err := tx.Exec(ctx, `SELECT update_seller_rating($1)`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
