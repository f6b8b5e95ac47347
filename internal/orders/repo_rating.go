package orders

import "context"

// InsertRating only matches a delivered seller order. The seller's average is
// recomputed in the same transaction.
func (r *PGStore) InsertRating(ctx context.Context, rt Rating) (Rating, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return Rating{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO seller_ratings(seller_id, seller_order_id, customer_email, rating, comment)
		SELECT so.seller_id, so.id, $2, $3, NULLIF($4, '')
		FROM seller_orders so
		WHERE so.id = $1 AND so.status = 'delivered'
		RETURNING id, seller_id, created_at`,
		rt.SellerOrderID, rt.CustomerEmail, rt.Rating, rt.Comment,
	).Scan(&rt.ID, &rt.SellerID, &rt.CreatedAt)
	if err != nil {
		return Rating{}, err
	}
	if _, err := tx.Exec(ctx, `SELECT update_seller_rating($1)`, rt.SellerID); err != nil {
		return Rating{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Rating{}, err
	}
	return rt, nil
}
