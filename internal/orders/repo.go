package orders

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

func (r *PGStore) SellersByID(ctx context.Context, ids []int64) (map[int64]SellerRef, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, shop_name, status FROM sellers WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]SellerRef, len(ids))
	for rows.Next() {
		var s SellerRef
		if err := rows.Scan(&s.ID, &s.ShopName, &s.Status); err != nil {
			return nil, err
		}
		out[s.ID] = s
	}
	return out, rows.Err()
}

func (r *PGStore) IsActiveSellerEmail(ctx context.Context, email string) (bool, error) {
	var ok bool
	err := r.DB.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM sellers WHERE lower(email) = lower($1) AND status = 'active')`, email).Scan(&ok)
	return ok, err
}

// CreateOrder is idempotent via request_id.
func (r *PGStore) CreateOrder(ctx context.Context, o NewOrder) (CreatedOrder, error) {
	if o.Order.RequestID != "" {
		if id, ok, err := r.orderByRequestID(ctx, o.Order.RequestID); err != nil || ok {
			return CreatedOrder{OrderID: id, Existed: ok}, err
		}
	}

	created, err := r.createOrderTx(ctx, o)
	if err != nil && o.Order.RequestID != "" && apperr.IsConflict(apperr.Database("create order", "order", err)) {
		// lost the race against the same request
		if id, ok, lookupErr := r.orderByRequestID(ctx, o.Order.RequestID); lookupErr == nil && ok {
			return CreatedOrder{OrderID: id, Existed: true}, nil
		}
	}
	return created, err
}

func (r *PGStore) orderByRequestID(ctx context.Context, requestID string) (int64, bool, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `SELECT id FROM orders WHERE request_id = $1`, requestID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (r *PGStore) createOrderTx(ctx context.Context, o NewOrder) (CreatedOrder, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return CreatedOrder{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var out CreatedOrder
	err = tx.QueryRow(ctx, `
		INSERT INTO orders(request_id, customer_name, customer_email, total_amount, payment_status, payment_method, shipping_address)
		VALUES (NULLIF($1, ''), $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		o.Order.RequestID, o.Order.CustomerName, o.Order.CustomerEmail, o.Order.TotalAmount,
		string(o.Order.PaymentStatus), o.Order.PaymentMethod, o.Order.ShippingAddress,
	).Scan(&out.OrderID)
	if err != nil {
		return CreatedOrder{}, pkgerrors.Wrap(err, "insert order")
	}

	for _, g := range o.Groups {
		var soID int64
		err = tx.QueryRow(ctx, `
			INSERT INTO seller_orders(order_id, seller_id, subtotal, status)
			VALUES ($1, $2, $3, 'pending')
			RETURNING id`, out.OrderID, g.SellerID, g.Subtotal).Scan(&soID)
		if err != nil {
			return CreatedOrder{}, pkgerrors.Wrapf(err, "insert seller order for seller %d", g.SellerID)
		}
		for _, it := range g.Items {
			if _, err = tx.Exec(ctx, `
				INSERT INTO order_items(seller_order_id, product_id, product_name, product_image, quantity, price)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				soID, it.ProductID, it.ProductName, it.ProductImage, it.Quantity, it.UnitPrice,
			); err != nil {
				return CreatedOrder{}, pkgerrors.Wrapf(err, "insert order item for product %d", it.ProductID)
			}
		}
		out.SellerOrderIDs = append(out.SellerOrderIDs, soID)
	}

	if err := tx.Commit(ctx); err != nil {
		return CreatedOrder{}, err
	}
	return out, nil
}

const selectOrder = `
	SELECT id, COALESCE(request_id, ''), customer_name, customer_email, total_amount, payment_status,
	       payment_method, COALESCE(shipping_address, '{}'::jsonb), COALESCE(receipt_image, ''), created_at
	FROM orders`

const selectOrderSellerOrders = `
	SELECT so.id, so.order_id, so.seller_id, s.shop_name, so.subtotal, so.status,
	       COALESCE(so.tracking_number, ''), so.fulfilled_at, so.created_at, '', ''
	FROM seller_orders so JOIN sellers s ON s.id = so.seller_id`

func scanOrder(row pgx.Row, o *Order) error {
	return row.Scan(
		&o.ID, &o.RequestID, &o.CustomerName, &o.CustomerEmail, &o.TotalAmount, &o.PaymentStatus,
		&o.PaymentMethod, &o.ShippingAddress, &o.ReceiptImage, &o.CreatedAt,
	)
}

func (r *PGStore) GetOrder(ctx context.Context, id int64) (Order, error) {
	var o Order
	if err := scanOrder(r.DB.QueryRow(ctx, selectOrder+` WHERE id = $1`, id), &o); err != nil {
		return Order{}, err
	}
	var err error
	o.SellerOrders, err = r.querySellerOrders(ctx, selectOrderSellerOrders+`
		WHERE so.order_id = $1 ORDER BY so.id`, id)
	return o, err
}

func (r *PGStore) ListOrders(ctx context.Context, customerEmail string) ([]Order, error) {
	rows, err := r.DB.Query(ctx, selectOrder+`
		WHERE $1 = '' OR lower(customer_email) = lower($1)
		ORDER BY created_at DESC, id DESC`, customerEmail)
	if err != nil {
		return nil, err
	}
	var out []Order
	index := map[int64]int{}
	ids := []int64{}
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			rows.Close()
			return nil, err
		}
		index[o.ID] = len(out)
		ids = append(ids, o.ID)
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []Order{}, nil
	}

	sos, err := r.querySellerOrders(ctx, selectOrderSellerOrders+`
		WHERE so.order_id = ANY($1) ORDER BY so.id`, ids)
	if err != nil {
		return nil, err
	}
	for _, so := range sos {
		i := index[so.OrderID]
		out[i].SellerOrders = append(out[i].SellerOrders, so)
	}
	return out, nil
}

func (r *PGStore) ListSellerOrders(ctx context.Context, sellerID int64) ([]SellerOrder, error) {
	return r.querySellerOrders(ctx, `
		SELECT so.id, so.order_id, so.seller_id, s.shop_name, so.subtotal, so.status,
		       COALESCE(so.tracking_number, ''), so.fulfilled_at, so.created_at, o.customer_name, o.customer_email
		FROM seller_orders so
		JOIN sellers s ON s.id = so.seller_id
		JOIN orders o ON o.id = so.order_id
		WHERE so.seller_id = $1 ORDER BY so.created_at DESC, so.id DESC`, sellerID)
}

func (r *PGStore) GetSellerOrder(ctx context.Context, id int64) (SellerOrder, error) {
	var so SellerOrder
	err := r.DB.QueryRow(ctx, `
		SELECT id, order_id, seller_id, subtotal, status, COALESCE(tracking_number, ''), fulfilled_at, created_at
		FROM seller_orders WHERE id = $1`, id).Scan(
		&so.ID, &so.OrderID, &so.SellerID, &so.Subtotal, &so.Status, &so.TrackingNumber, &so.FulfilledAt, &so.CreatedAt,
	)
	return so, err
}

// querySellerOrders scans seller orders and attaches their items.
func (r *PGStore) querySellerOrders(ctx context.Context, sql string, args ...any) ([]SellerOrder, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	var out []SellerOrder
	index := map[int64]int{}
	ids := []int64{}
	for rows.Next() {
		var so SellerOrder
		if err := rows.Scan(&so.ID, &so.OrderID, &so.SellerID, &so.SellerName, &so.Subtotal, &so.Status,
			&so.TrackingNumber, &so.FulfilledAt, &so.CreatedAt, &so.CustomerName, &so.CustomerEmail); err != nil {
			rows.Close()
			return nil, err
		}
		index[so.ID] = len(out)
		ids = append(ids, so.ID)
		out = append(out, so)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	itemRows, err := r.DB.Query(ctx, `
		SELECT id, seller_order_id, product_id, product_name, COALESCE(product_image, ''), quantity, price, created_at
		FROM order_items WHERE seller_order_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var it OrderItem
		if err := itemRows.Scan(&it.ID, &it.SellerOrderID, &it.ProductID, &it.ProductName, &it.ProductImage,
			&it.Quantity, &it.Price, &it.CreatedAt); err != nil {
			return nil, err
		}
		i := index[it.SellerOrderID]
		out[i].Items = append(out[i].Items, it)
	}
	return out, itemRows.Err()
}

func (r *PGStore) AttachReceipt(ctx context.Context, orderID int64, receipt string) error {
	ct, err := r.DB.Exec(ctx, `UPDATE orders SET receipt_image = $2 WHERE id = $1`, orderID, receipt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PGStore) DeleteOrder(ctx context.Context, orderID int64) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	if err := tx.QueryRow(ctx, `SELECT id FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&id); err != nil {
		return err
	}
	var paid bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM seller_payouts sp JOIN seller_orders so ON so.id = sp.seller_order_id
			WHERE so.order_id = $1)`, orderID).Scan(&paid)
	if err != nil {
		return err
	}
	if paid {
		return apperr.Validation("order_id", "order has paid seller orders")
	}
	// seller_orders and order_items cascade
	if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
