package payouts

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-marketplace-settlement/internal/apperr"
	"github.com/ariefcatur/go-marketplace-settlement/internal/postgres"
	"github.com/jackc/pgx/v5"
	pkgerrors "github.com/pkg/errors"
)

type PGStore struct{ DB postgres.DB }

var _ Store = (*PGStore)(nil)

func (r *PGStore) DeliveredSellerOrders(ctx context.Context) ([]DeliveredOrder, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT so.id, so.order_id, so.seller_id, so.subtotal, so.created_at, so.fulfilled_at,
		       o.customer_name, s.shop_name, COALESCE(s.bank_name, ''), COALESCE(s.account_number, ''),
		       COALESCE(s.account_holder_name, '')
		FROM seller_orders so
		JOIN sellers s ON s.id = so.seller_id
		JOIN orders o ON o.id = so.order_id
		WHERE so.status = 'delivered'
		ORDER BY so.seller_id, so.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DeliveredOrder
	for rows.Next() {
		var d DeliveredOrder
		if err := rows.Scan(&d.SellerOrderID, &d.OrderID, &d.SellerID, &d.Subtotal, &d.CreatedAt, &d.FulfilledAt,
			&d.CustomerName, &d.Seller.ShopName, &d.Seller.BankName, &d.Seller.AccountNumber,
			&d.Seller.AccountHolderName); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *PGStore) PaidSellerOrderIDs(ctx context.Context) (map[int64]struct{}, error) {
	rows, err := r.DB.Query(ctx, `SELECT seller_order_id FROM seller_payouts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int64]struct{}{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// only matches a seller order that is still delivered, owned by the seller and
// carries the subtotal the batch was computed from
const insertPayoutSQL = `
	INSERT INTO seller_payouts(seller_id, seller_order_id, amount, commission_rate, commission_amount,
	                           net_amount, status, payment_method, transaction_reference, paid_at)
	SELECT so.seller_id, so.id, $3, $4, $5, $6, $7, $8, $9, $10
	FROM seller_orders so
	WHERE so.id = $2 AND so.seller_id = $1 AND so.status = 'delivered' AND so.subtotal = $3
	RETURNING id`

func (r *PGStore) InsertPayouts(ctx context.Context, rows []Payout) ([]Payout, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	out := make([]Payout, len(rows))
	copy(out, rows)
	for i, p := range out {
		err := tx.QueryRow(ctx, insertPayoutSQL, p.SellerID, p.SellerOrderID, p.Amount, p.CommissionRate,
			p.CommissionAmount, p.NetAmount, p.Status, p.PaymentMethod, p.TransactionReference, p.PaidAt,
		).Scan(&out[i].ID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Conflict("insert payout",
				pkgerrors.Errorf("seller order %d is no longer payable", p.SellerOrderID))
		}
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "insert payout for seller order %d", p.SellerOrderID)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PGStore) SellerOrderAmounts(ctx context.Context, sellerID int64) ([]OrderAmount, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, status, subtotal FROM seller_orders WHERE seller_id = $1`, sellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderAmount
	for rows.Next() {
		var a OrderAmount
		if err := rows.Scan(&a.SellerOrderID, &a.Status, &a.Subtotal); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

const selectPayouts = `
	SELECT id, seller_id, seller_order_id, amount, commission_rate, commission_amount, net_amount,
	       status, payment_method, transaction_reference, paid_at
	FROM seller_payouts`

func (r *PGStore) SellerPayouts(ctx context.Context, sellerID int64) ([]Payout, error) {
	return r.queryPayouts(ctx, selectPayouts+` WHERE seller_id = $1 ORDER BY paid_at DESC, id DESC`, sellerID)
}

func (r *PGStore) ListPayouts(ctx context.Context) ([]Payout, error) {
	return r.queryPayouts(ctx, selectPayouts+` ORDER BY paid_at DESC, id DESC`)
}

func (r *PGStore) queryPayouts(ctx context.Context, sql string, args ...any) ([]Payout, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payout
	for rows.Next() {
		var p Payout
		if err := rows.Scan(&p.ID, &p.SellerID, &p.SellerOrderID, &p.Amount, &p.CommissionRate, &p.CommissionAmount,
			&p.NetAmount, &p.Status, &p.PaymentMethod, &p.TransactionReference, &p.PaidAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
