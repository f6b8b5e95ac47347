package payouts

import (
	"context"

	"github.com/ariefcatur/go-marketplace-settlement/internal/apperr"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const statusDelivered = "delivered"

// Earnings derives one seller's figures from its seller orders and payout history.
// Nothing is cached.
func (e *Engine) Earnings(ctx context.Context, sellerID int64) (Earnings, error) {
	var orders []OrderAmount
	var paid []Payout

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = e.Store.SellerOrderAmounts(gctx, sellerID)
		return apperr.Database("load seller order amounts", "seller order", err)
	})
	g.Go(func() error {
		var err error
		paid, err = e.Store.SellerPayouts(gctx, sellerID)
		return apperr.Database("load seller payouts", "payout", err)
	})
	if err := g.Wait(); err != nil {
		log.WithError(err).WithField("seller_id", sellerID).Error("compute earnings")
		return Earnings{}, err
	}

	out := Summarize(sellerID, orders, paid)
	if out.AvailableForPayout.IsNegative() {
		log.WithFields(log.Fields{
			"seller_id": sellerID,
			"available": out.AvailableForPayout.String(),
		}).Warn("payouts exceed delivered total")
	}
	return out, nil
}

// Summarize folds seller orders and payouts into Earnings. Any status other than
// delivered counts as pending.
func Summarize(sellerID int64, orders []OrderAmount, paid []Payout) Earnings {
	out := Earnings{
		SellerID:        sellerID,
		Pending:         decimal.Zero,
		DeliveredTotal:  decimal.Zero,
		PaidGross:       decimal.Zero,
		PaidNet:         decimal.Zero,
		CommissionTotal: decimal.Zero,
	}
	for _, o := range orders {
		if o.Status == statusDelivered {
			out.DeliveredTotal = out.DeliveredTotal.Add(o.Subtotal)
		} else {
			out.Pending = out.Pending.Add(o.Subtotal)
		}
	}
	for _, p := range paid {
		out.PaidGross = out.PaidGross.Add(p.Amount)
		out.PaidNet = out.PaidNet.Add(p.NetAmount)
		out.CommissionTotal = out.CommissionTotal.Add(p.CommissionAmount)
	}
	out.AvailableForPayout = out.DeliveredTotal.Sub(out.PaidGross)
	return out
}
