package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-marketplace-settlement/internal/apperr"
	kafkax "github.com/ariefcatur/go-marketplace-settlement/internal/kafka"
	log "github.com/sirupsen/logrus"
)

type AdvanceInput struct {
	SellerOrderID  int64
	To             Status
	TrackingNumber string
}

// Advance moves a seller order along the fulfillment path on behalf of actor.
// Requesting the status the order already has is a no-op.
func (s *Service) Advance(ctx context.Context, actor Actor, in AdvanceInput) (SellerOrder, error) {
	if !actor.Role.Valid() {
		return SellerOrder{}, apperr.Validation("role", "must be seller or admin")
	}
	if !in.To.Valid() {
		return SellerOrder{}, apperr.Validation("status", fmt.Sprintf("unknown status %q", in.To))
	}
	in.TrackingNumber = strings.TrimSpace(in.TrackingNumber)

	so, err := s.Store.GetSellerOrder(ctx, in.SellerOrderID)
	if err != nil {
		return SellerOrder{}, notFoundOr(apperr.Database("get seller order", "seller order", err), "seller order", in.SellerOrderID)
	}
	if actor.Role == RoleSeller && so.SellerID != actor.SellerID {
		return SellerOrder{}, apperr.NotFound("seller order", in.SellerOrderID)
	}
	if so.Status == in.To {
		return so, nil
	}
	if !CanTransition(actor.Role, so.Status, in.To) {
		return SellerOrder{}, apperr.Validation("status", fmt.Sprintf("cannot move from %s to %s", so.Status, in.To))
	}

	fields := log.Fields{"seller_order_id": so.ID, "from": so.Status, "to": in.To, "role": actor.Role}
	first := false
	if in.To == StatusDelivered {
		res, err := s.Store.Deliver(ctx, so.ID, so.Status, in.TrackingNumber)
		if err != nil {
			log.WithError(err).WithFields(fields).Error("deliver failed")
			return SellerOrder{}, apperr.Database("deliver seller order", "seller order", err)
		}
		first = res.FirstDelivery
		for _, f := range res.StockFailures {
			log.WithError(f.Err).WithFields(log.Fields{
				"seller_order_id": so.ID, "product_id": f.ProductID, "quantity": f.Quantity,
			}).Warn("stock decrement failed")
		}
		if !first {
			log.WithFields(fields).Info("seller order already fulfilled, stock untouched")
		}
	} else if err := s.Store.UpdateStatus(ctx, so.ID, so.Status, in.To, in.TrackingNumber); err != nil {
		log.WithError(err).WithFields(fields).Error("update status failed")
		return SellerOrder{}, apperr.Database("update seller order status", "seller order", err)
	}

	from := so.Status
	so.Status = in.To
	if in.TrackingNumber != "" {
		so.TrackingNumber = in.TrackingNumber
	}
	log.WithFields(fields).Info("seller order status updated")
	s.publishStatusChanged(so, from, actor.Role, first)
	return so, nil
}

func (s *Service) publishStatusChanged(so SellerOrder, from Status, role Role, first bool) {
	if s.Publisher == nil {
		return
	}
	payload := SellerOrderStatusChangedPayload{
		SellerOrderID:  so.ID,
		OrderID:        so.OrderID,
		SellerID:       so.SellerID,
		From:           from,
		To:             so.Status,
		ActorRole:      role,
		TrackingNumber: so.TrackingNumber,
		FirstDelivery:  first,
	}
	err := kafkax.PublishEvent(s.Publisher, TopicSellerOrderStatus, EventSellerOrderStatusChanged,
		s.ServiceName, PartitionKey(so.ID), payload)
	if err != nil {
		log.WithError(err).WithField("seller_order_id", so.ID).Error("publish status changed")
	}
}
