package orders

import (
	"context"
	"strings"

	"github.com/ariefcatur/go-marketplace-settlement/internal/apperr"
	log "github.com/sirupsen/logrus"
)

// RateSellerOrder records the customer's rating of a delivered seller order and
// refreshes the seller's average. Each seller order is rated at most once.
func (s *Service) RateSellerOrder(ctx context.Context, in RatingInput) (Rating, error) {
	in.CustomerEmail = strings.TrimSpace(in.CustomerEmail)
	in.Comment = strings.TrimSpace(in.Comment)
	if err := apperr.ValidateStruct(in); err != nil {
		return Rating{}, err
	}

	so, err := s.Store.GetSellerOrder(ctx, in.SellerOrderID)
	if err != nil {
		return Rating{}, notFoundOr(apperr.Database("get seller order", "seller order", err), "seller order", in.SellerOrderID)
	}
	if so.Status != StatusDelivered {
		return Rating{}, apperr.Validation("seller_order_id", "only delivered seller orders can be rated")
	}
	order, err := s.Store.GetOrder(ctx, so.OrderID)
	if err != nil {
		return Rating{}, notFoundOr(apperr.Database("get order", "order", err), "order", so.OrderID)
	}
	if !strings.EqualFold(order.CustomerEmail, in.CustomerEmail) {
		return Rating{}, apperr.Validation("customer_email", "does not match the order")
	}

	r, err := s.Store.InsertRating(ctx, Rating{
		SellerID:      so.SellerID,
		SellerOrderID: so.ID,
		CustomerEmail: in.CustomerEmail,
		Rating:        in.Rating,
		Comment:       in.Comment,
	})
	if err != nil {
		err = apperr.Database("insert rating", "seller order", err)
		if apperr.IsConflict(err) {
			return Rating{}, apperr.Validation("seller_order_id", "already rated")
		}
		if apperr.IsDatabase(err) {
			log.WithError(err).WithField("seller_order_id", so.ID).Error("insert rating failed")
		}
		return Rating{}, notFoundOr(err, "seller order", so.ID)
	}
	log.WithFields(log.Fields{"seller_order_id": so.ID, "seller_id": so.SellerID, "rating": r.Rating}).Info("seller order rated")
	return r, nil
}
