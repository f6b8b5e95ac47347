package orders

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ariefcatur/go-marketplace-settlement/internal/apperr"
	kafkax "github.com/ariefcatur/go-marketplace-settlement/internal/kafka"
	"github.com/ariefcatur/go-marketplace-settlement/internal/money"
	log "github.com/sirupsen/logrus"
)

// PlaceOrder splits a multi-seller cart into one order plus one seller order per seller.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (PlaceResult, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerEmail = strings.TrimSpace(in.CustomerEmail)
	if err := apperr.ValidateStruct(in); err != nil {
		return PlaceResult{}, err
	}
	if err := checkPrices(in.Items); err != nil {
		return PlaceResult{}, err
	}
	if !money.IsCents(in.TotalAmount) {
		return PlaceResult{}, apperr.Validation("total_amount", "must have at most 2 decimal places")
	}

	if id, ok := s.cachedRequest(ctx, in.RequestID); ok {
		return PlaceResult{OrderID: id, Idempotent: true}, nil
	}

	groups := PartitionBySeller(in.Items)
	if err := s.checkSellers(ctx, in, groups); err != nil {
		return PlaceResult{}, err
	}

	quote := QuoteCart(in.Items)
	if in.TotalAmount.LessThan(quote.Subtotal) {
		return PlaceResult{}, apperr.Validation("total_amount", "is below the cart subtotal")
	}
	if !in.TotalAmount.Equal(quote.Total.Round(2)) {
		log.WithFields(log.Fields{
			"total_amount": in.TotalAmount.String(),
			"quote_total":  quote.Total.String(),
		}).Warn("order total differs from cart quote")
	}

	method := in.PaymentMethod
	if method == "" {
		method = PaymentMethodReceiptUpload
	}
	created, err := s.Store.CreateOrder(ctx, NewOrder{
		Order: Order{
			RequestID:       in.RequestID,
			CustomerName:    in.CustomerName,
			CustomerEmail:   in.CustomerEmail,
			TotalAmount:     in.TotalAmount,
			PaymentStatus:   PaymentPaid, // attested by receipt upload, not verified here
			PaymentMethod:   method,
			ShippingAddress: in.ShippingAddress,
		},
		Groups: groups,
	})
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"customer_email": in.CustomerEmail,
			"sellers":        len(groups),
		}).Error("create order failed")
		return PlaceResult{}, apperr.Database("create order", "order", err)
	}
	s.rememberRequest(ctx, in.RequestID, created.OrderID)
	if created.Existed {
		log.WithFields(log.Fields{"order_id": created.OrderID, "request_id": in.RequestID}).Info("order request replayed")
		return PlaceResult{OrderID: created.OrderID, Idempotent: true}, nil
	}

	log.WithFields(log.Fields{"order_id": created.OrderID, "seller_orders": len(created.SellerOrderIDs)}).Info("order placed")
	s.publishPlaced(created, in, groups)
	return PlaceResult{OrderID: created.OrderID}, nil
}

func (s *Service) cachedRequest(ctx context.Context, requestID string) (int64, bool) {
	if s.Requests == nil || requestID == "" {
		return 0, false
	}
	id, ok, err := s.Requests.Lookup(ctx, requestID)
	if err != nil {
		log.WithError(err).WithField("request_id", requestID).Warn("request cache lookup failed")
		return 0, false
	}
	return id, ok
}

func (s *Service) rememberRequest(ctx context.Context, requestID string, orderID int64) {
	if s.Requests == nil || requestID == "" {
		return
	}
	if err := s.Requests.Remember(ctx, requestID, orderID); err != nil {
		log.WithError(err).WithField("request_id", requestID).Warn("request cache write failed")
	}
}

func (s *Service) checkSellers(ctx context.Context, in PlaceOrderInput, groups []SellerGroup) error {
	ids := make([]int64, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.SellerID)
	}
	sellers, err := s.Store.SellersByID(ctx, ids)
	if err != nil {
		return apperr.Database("load sellers", "seller", err)
	}
	for i, it := range in.Items {
		ref, ok := sellers[it.SellerID]
		if !ok {
			return apperr.Validation(fmt.Sprintf("items[%d].seller_id", i), "unknown seller")
		}
		if ref.Status != sellerStatusActive {
			return apperr.Validation(fmt.Sprintf("items[%d].seller_id", i), "seller is not active")
		}
	}

	isSeller, err := s.Store.IsActiveSellerEmail(ctx, in.CustomerEmail)
	if err != nil {
		return apperr.Database("check seller email", "seller", err)
	}
	if isSeller {
		return apperr.Validation("customer_email", "sellers cannot place orders")
	}
	return nil
}

func (s *Service) publishPlaced(created CreatedOrder, in PlaceOrderInput, groups []SellerGroup) {
	if s.Publisher == nil {
		return
	}
	payload := OrderPlacedPayload{OrderID: created.OrderID, RequestID: in.RequestID, TotalAmount: in.TotalAmount}
	for i, g := range groups {
		so := PlacedSellerOrder{SellerID: g.SellerID, Subtotal: g.Subtotal}
		if i < len(created.SellerOrderIDs) {
			so.SellerOrderID = created.SellerOrderIDs[i]
		}
		payload.SellerOrders = append(payload.SellerOrders, so)
	}
	key := strconv.FormatInt(created.OrderID, 10)
	if err := kafkax.PublishEvent(s.Publisher, TopicOrderPlaced, EventOrderPlaced, s.ServiceName, key, payload); err != nil {
		log.WithError(err).WithField("order_id", created.OrderID).Error("publish order placed")
	}
}

func (s *Service) GetOrder(ctx context.Context, id int64) (Order, error) {
	o, err := s.Store.GetOrder(ctx, id)
	if err != nil {
		return Order{}, notFoundOr(apperr.Database("get order", "order", err), "order", id)
	}
	return o, nil
}

// AttachReceipt stores the customer's proof of bank transfer on the order.
func (s *Service) AttachReceipt(ctx context.Context, orderID int64, receipt string) error {
	if strings.TrimSpace(receipt) == "" {
		return apperr.Validation("receipt_image", "is required")
	}
	if err := s.Store.AttachReceipt(ctx, orderID, receipt); err != nil {
		return notFoundOr(apperr.Database("attach receipt", "order", err), "order", orderID)
	}
	log.WithField("order_id", orderID).Info("receipt attached")
	return nil
}

// DeleteOrder is an admin override. Orders with paid seller orders are kept.
func (s *Service) DeleteOrder(ctx context.Context, orderID int64) error {
	if err := s.Store.DeleteOrder(ctx, orderID); err != nil {
		err = notFoundOr(apperr.Database("delete order", "order", err), "order", orderID)
		if apperr.IsDatabase(err) {
			log.WithError(err).WithField("order_id", orderID).Error("delete order failed")
		}
		return err
	}
	log.WithField("order_id", orderID).Warn("order deleted by admin")
	return nil
}

// ListCustomerOrders is one customer's order history, newest first.
func (s *Service) ListCustomerOrders(ctx context.Context, email string) ([]Order, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperr.Validation("customer_email", "is required")
	}
	out, err := s.Store.ListOrders(ctx, email)
	if err != nil {
		return nil, apperr.Database("list customer orders", "order", err)
	}
	return out, nil
}

func (s *Service) ListOrders(ctx context.Context) ([]Order, error) {
	out, err := s.Store.ListOrders(ctx, "")
	if err != nil {
		return nil, apperr.Database("list orders", "order", err)
	}
	return out, nil
}

func (s *Service) ListSellerOrders(ctx context.Context, sellerID int64) ([]SellerOrder, error) {
	out, err := s.Store.ListSellerOrders(ctx, sellerID)
	if err != nil {
		return nil, apperr.Database("list seller orders", "seller order", err)
	}
	return out, nil
}

// notFoundOr fills in the id on an anonymous NotFoundError.
func notFoundOr(err error, resource string, id int64) error {
	if nf, ok := err.(*apperr.NotFoundError); ok && nf.ID == nil {
		return apperr.NotFound(resource, id)
	}
	return err
}
