package orders

import (
	"context"
	"errors"
	"time"

	"github.com/ariefcatur/go-marketplace-settlement/internal/apperr"
	"github.com/jackc/pgx/v5"
)

var errStatusMoved = errors.New("seller order status changed concurrently")

func (r *PGStore) UpdateStatus(ctx context.Context, id int64, from, to Status, tracking string) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE seller_orders
		SET status = $3, tracking_number = COALESCE(NULLIF($4, ''), tracking_number)
		WHERE id = $1 AND status = $2 AND fulfilled_at IS NULL`,
		id, string(from), string(to), tracking)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM seller_orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return pgx.ErrNoRows
	}
	return apperr.Conflict("update seller order status", errStatusMoved)
}

// Deliver locks the seller order, sets fulfilled_at once and decrements stock for
// each item. Every decrement runs in its own savepoint: a failing product is
// reported and skipped without undoing the others or the status change.
func (r *PGStore) Deliver(ctx context.Context, id int64, from Status, tracking string) (DeliveryResult, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return DeliveryResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status Status
	var fulfilledAt *time.Time
	err = tx.QueryRow(ctx, `SELECT status, fulfilled_at FROM seller_orders WHERE id = $1 FOR UPDATE`, id).
		Scan(&status, &fulfilledAt)
	if err != nil {
		return DeliveryResult{}, err
	}
	if fulfilledAt != nil {
		return DeliveryResult{}, tx.Commit(ctx)
	}
	if status != from {
		return DeliveryResult{}, apperr.Conflict("deliver seller order", errStatusMoved)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE seller_orders
		SET status = 'delivered', fulfilled_at = now(), tracking_number = COALESCE(NULLIF($2, ''), tracking_number)
		WHERE id = $1`, id, tracking); err != nil {
		return DeliveryResult{}, err
	}

	items, err := r.itemQuantities(ctx, tx, id)
	if err != nil {
		return DeliveryResult{}, err
	}

	res := DeliveryResult{FirstDelivery: true}
	for _, it := range items {
		if err := reduceStock(ctx, tx, it.productID, it.qty); err != nil {
			res.StockFailures = append(res.StockFailures, StockFailure{ProductID: it.productID, Quantity: it.qty, Err: err})
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return DeliveryResult{}, err
	}
	return res, nil
}

type itemQty struct {
	productID int64
	qty       int
}

func (r *PGStore) itemQuantities(ctx context.Context, tx pgx.Tx, sellerOrderID int64) ([]itemQty, error) {
	rows, err := tx.Query(ctx, `SELECT product_id, quantity FROM order_items WHERE seller_order_id = $1 ORDER BY id`, sellerOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []itemQty
	for rows.Next() {
		var x itemQty
		if err := rows.Scan(&x.productID, &x.qty); err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

func reduceStock(ctx context.Context, tx pgx.Tx, productID int64, qty int) error {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return err
	}
	if _, err := sp.Exec(ctx, `SELECT reduce_product_stock($1, $2)`, productID, qty); err != nil {
		_ = sp.Rollback(ctx)
		return err
	}
	return sp.Commit(ctx)
}
