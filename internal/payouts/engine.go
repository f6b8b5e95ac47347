// Package payouts settles delivered seller orders into seller payouts.
//
// Eligibility is recomputed from the store on every call: a seller order is
// payable while it is delivered and no payout references it. The unique index on
// seller_payouts.seller_order_id, together with the conditional insert in PGStore,
// is what keeps a seller order from being paid twice across operators.
package payouts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ariefcatur/go-marketplace-settlement/internal/apperr"
	kafkax "github.com/ariefcatur/go-marketplace-settlement/internal/kafka"
	"github.com/ariefcatur/go-marketplace-settlement/internal/money"
	"github.com/ariefcatur/go-marketplace-settlement/internal/redisx"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type Store interface {
	// DeliveredSellerOrders returns every delivered seller order with its seller's bank details.
	DeliveredSellerOrders(ctx context.Context) ([]DeliveredOrder, error)
	PaidSellerOrderIDs(ctx context.Context) (map[int64]struct{}, error)
	// InsertPayouts writes all rows or none. A row whose seller order is no longer
	// delivered with the same subtotal, or is already paid, fails with a conflict.
	InsertPayouts(ctx context.Context, rows []Payout) ([]Payout, error)

	SellerOrderAmounts(ctx context.Context, sellerID int64) ([]OrderAmount, error)
	SellerPayouts(ctx context.Context, sellerID int64) ([]Payout, error)
	ListPayouts(ctx context.Context) ([]Payout, error)
}

type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

type Engine struct {
	Store       Store
	Locker      Locker
	LockTTL     time.Duration
	Publisher   kafkax.Publisher
	ServiceName string
	Now         func() time.Time
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now().UTC()
}

// ComputePendingPayouts returns one batch per seller with at least one delivered,
// unpaid seller order.
func (e *Engine) ComputePendingPayouts(ctx context.Context) (map[int64]Batch, error) {
	var delivered []DeliveredOrder
	var paid map[int64]struct{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		delivered, err = e.Store.DeliveredSellerOrders(gctx)
		return apperr.Database("load delivered seller orders", "seller order", err)
	})
	g.Go(func() error {
		var err error
		paid, err = e.Store.PaidSellerOrderIDs(gctx)
		return apperr.Database("load paid seller orders", "payout", err)
	})
	if err := g.Wait(); err != nil {
		log.WithError(err).Error("compute pending payouts")
		return nil, err
	}

	batches := map[int64]Batch{}
	for _, o := range delivered {
		if _, done := paid[o.SellerOrderID]; done {
			continue
		}
		b, ok := batches[o.SellerID]
		if !ok {
			b = Batch{
				SellerID:          o.SellerID,
				SellerName:        o.Seller.ShopName,
				BankName:          o.Seller.BankName,
				AccountNumber:     o.Seller.AccountNumber,
				AccountHolderName: o.Seller.AccountHolderName,
			}
		}
		b.Orders = append(b.Orders, o)
		batches[o.SellerID] = b
	}
	for id, b := range batches {
		batches[id] = withTotals(b)
	}
	return batches, nil
}

func withTotals(b Batch) Batch {
	amounts := make([]decimal.Decimal, 0, len(b.Orders))
	for _, o := range b.Orders {
		amounts = append(amounts, o.Subtotal)
	}
	b.TotalAmount = money.Sum(amounts...)
	b.CommissionRate = money.CommissionRate()
	b.CommissionAmount, b.NetAmount = money.Split(b.TotalAmount)
	return b
}

// PendingBatchFor returns the seller's current batch. With ids set, the batch is
// narrowed to them and every id must still be pending.
func (e *Engine) PendingBatchFor(ctx context.Context, sellerID int64, ids []int64) (Batch, error) {
	batches, err := e.ComputePendingPayouts(ctx)
	if err != nil {
		return Batch{}, err
	}
	b, ok := batches[sellerID]
	if !ok {
		if len(ids) > 0 {
			return Batch{}, apperr.Conflict("select payout batch", fmt.Errorf("seller %d has no pending seller orders", sellerID))
		}
		return Batch{}, apperr.NotFound("pending payout batch", sellerID)
	}
	if len(ids) == 0 {
		return b, nil
	}

	byID := make(map[int64]DeliveredOrder, len(b.Orders))
	for _, o := range b.Orders {
		byID[o.SellerOrderID] = o
	}
	picked := make([]DeliveredOrder, 0, len(ids))
	seen := map[int64]bool{}
	for _, id := range ids {
		o, ok := byID[id]
		if !ok {
			return Batch{}, apperr.Conflict("select payout batch", fmt.Errorf("seller order %d is no longer pending", id))
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		picked = append(picked, o)
	}
	b.Orders = picked
	return withTotals(b), nil
}

// MarkBatchPaid records one payout per seller order in batch under ref.
// A conflict means another operator paid some of these orders first; the caller
// should recompute pending payouts.
func (e *Engine) MarkBatchPaid(ctx context.Context, batch Batch, ref string) ([]Payout, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, apperr.Validation("transaction_reference", "is required")
	}
	if len(batch.Orders) == 0 {
		return nil, apperr.Validation("seller_order_ids", "batch has no seller orders")
	}
	if strings.TrimSpace(batch.BankName) == "" || strings.TrimSpace(batch.AccountNumber) == "" {
		return nil, apperr.Validation("bank_details", "seller has no bank details on file")
	}

	fields := log.Fields{"seller_id": batch.SellerID, "orders": len(batch.Orders), "reference": ref}
	if e.Locker != nil {
		release, err := e.Locker.Acquire(ctx, fmt.Sprintf(redisx.KeyPayoutLock, batch.SellerID), e.lockTTL())
		if errors.Is(err, redisx.ErrLocked) {
			log.WithFields(fields).Warn("payout already in flight for seller")
			return nil, apperr.Conflict("mark batch paid", err)
		}
		if err != nil {
			return nil, apperr.Database("acquire payout lock", "payout", err)
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				log.WithError(err).WithFields(fields).Warn("release payout lock")
			}
		}()
	}

	paidAt := e.now()
	rows := make([]Payout, 0, len(batch.Orders))
	for _, o := range batch.Orders {
		commission, net := money.Split(o.Subtotal)
		rows = append(rows, Payout{
			SellerID:             batch.SellerID,
			SellerOrderID:        o.SellerOrderID,
			Amount:               o.Subtotal,
			CommissionRate:       money.CommissionRate(),
			CommissionAmount:     commission,
			NetAmount:            net,
			Status:               StatusCompleted,
			PaymentMethod:        PaymentMethodBankTransfer,
			TransactionReference: ref,
			PaidAt:               paidAt,
		})
	}

	out, err := e.Store.InsertPayouts(ctx, rows)
	if err != nil {
		err = apperr.Database("insert payouts", "payout", err)
		if apperr.IsConflict(err) {
			log.WithError(err).WithFields(fields).Warn("payout batch lost a race")
		} else {
			log.WithError(err).WithFields(fields).Error("insert payouts failed")
		}
		return nil, err
	}

	batch = withTotals(batch)
	log.WithFields(fields).WithField("net_amount", money.Display(batch.NetAmount)).Info("payout batch marked paid")
	e.publishPaid(batch, ref)
	return out, nil
}

func (e *Engine) lockTTL() time.Duration {
	if e.LockTTL > 0 {
		return e.LockTTL
	}
	return 30 * time.Second
}

func (e *Engine) publishPaid(b Batch, ref string) {
	if e.Publisher == nil {
		return
	}
	payload := PayoutBatchPaidPayload{
		SellerID:             b.SellerID,
		TransactionReference: ref,
		TotalAmount:          b.TotalAmount,
		CommissionAmount:     b.CommissionAmount,
		NetAmount:            b.NetAmount,
	}
	for _, o := range b.Orders {
		payload.SellerOrderIDs = append(payload.SellerOrderIDs, o.SellerOrderID)
	}
	key := strconv.FormatInt(b.SellerID, 10)
	if err := kafkax.PublishEvent(e.Publisher, TopicPayoutPaid, EventPayoutBatchPaid, e.ServiceName, key, payload); err != nil {
		log.WithError(err).WithField("seller_id", b.SellerID).Error("publish payout batch paid")
	}
}

func (e *Engine) ListPayouts(ctx context.Context) ([]Payout, error) {
	out, err := e.Store.ListPayouts(ctx)
	if err != nil {
		return nil, apperr.Database("list payouts", "payout", err)
	}
	return out, nil
}

func (e *Engine) SellerPayouts(ctx context.Context, sellerID int64) ([]Payout, error) {
	out, err := e.Store.SellerPayouts(ctx, sellerID)
	if err != nil {
		return nil, apperr.Database("list seller payouts", "payout", err)
	}
	return out, nil
}
