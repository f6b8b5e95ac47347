package sellers

import (
	"context"

	"github.com/ariefcatur/go-marketplace-settlement/internal/apperr"
	kafkax "github.com/ariefcatur/go-marketplace-settlement/internal/kafka"
	"github.com/ariefcatur/go-marketplace-settlement/internal/orders"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

// Claimer remembers which events were already handled.
type Claimer interface {
	Claim(ctx context.Context, id string) (bool, error)
	Forget(ctx context.Context, id string) error
}

// StatsRefresher keeps a seller's total_sales and rating current as its seller
// orders are delivered. It is a kafka.Handler for the status topic.
type StatsRefresher struct {
	Store Store
	Dedup Claimer
}

func (s *StatsRefresher) HandleStatusChanged(ctx context.Context, m kafka.Message) error {
	var env kafkax.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		log.WithError(err).WithField("offset", m.Offset).Warn("drop undecodable event")
		return nil
	}
	if env.EventType != orders.EventSellerOrderStatusChanged {
		return nil
	}
	p, err := kafkax.UnwrapPayload[orders.SellerOrderStatusChangedPayload](env.Payload)
	if err != nil {
		log.WithError(err).WithField("event_id", env.EventID).Warn("drop event with bad payload")
		return nil
	}
	if p.To != orders.StatusDelivered || !p.FirstDelivery {
		return nil
	}

	if s.Dedup != nil {
		first, err := s.Dedup.Claim(ctx, env.EventID)
		if err != nil {
			return err
		}
		if !first {
			return nil
		}
	}

	fields := log.Fields{"seller_id": p.SellerID, "seller_order_id": p.SellerOrderID, "event_id": env.EventID}
	if err := apperr.Database("refresh seller stats", "seller", s.Store.RefreshStats(ctx, p.SellerID)); err != nil {
		if apperr.IsNotFound(err) {
			log.WithFields(fields).Warn("seller gone, stats not refreshed")
			return nil
		}
		if s.Dedup != nil {
			_ = s.Dedup.Forget(ctx, env.EventID)
		}
		return err
	}
	log.WithFields(fields).Info("seller stats refreshed")
	return nil
}
