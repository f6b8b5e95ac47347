package sellers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	kafkax "github.com/ariefcatur/go-marketplace-settlement/internal/kafka"
	"github.com/ariefcatur/go-marketplace-settlement/internal/orders"
	"github.com/ariefcatur/go-marketplace-settlement/internal/redisx"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusMessage(t *testing.T, p orders.SellerOrderStatusChangedPayload) (kafka.Message, string) {
	t.Helper()
	env, err := kafkax.NewEnvelope(orders.EventSellerOrderStatusChanged, "test", "", p)
	require.NoError(t, err)
	b, err := json.Marshal(env)
	require.NoError(t, err)
	return kafka.Message{Topic: orders.TopicSellerOrderStatus, Value: b}, env.EventID
}

func newRefresher(t *testing.T, st *memStore) (*StatsRefresher, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return &StatsRefresher{Store: st, Dedup: &redisx.Dedup{Redis: rdb, Service: "worker"}}, mr
}

func TestStatsRefresher_DeliveredOnce(t *testing.T) {
	st := newMemStore(Seller{ID: 7, Status: StatusActive})
	h, mr := newRefresher(t, st)
	m, eventID := statusMessage(t, orders.SellerOrderStatusChangedPayload{
		SellerOrderID: 3, SellerID: 7, From: orders.StatusShipped, To: orders.StatusDelivered, FirstDelivery: true,
	})

	require.NoError(t, h.HandleStatusChanged(context.Background(), m))
	require.NoError(t, h.HandleStatusChanged(context.Background(), m))

	assert.Equal(t, []int64{7}, st.refreshed)
	assert.True(t, mr.Exists("dedup:worker:"+eventID))
}

func TestStatsRefresher_Ignores(t *testing.T) {
	cases := map[string]orders.SellerOrderStatusChangedPayload{
		"not delivered":     {SellerID: 7, From: orders.StatusPending, To: orders.StatusPacked},
		"repeated delivery": {SellerID: 7, From: orders.StatusShipped, To: orders.StatusDelivered},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			st := newMemStore(Seller{ID: 7})
			h, _ := newRefresher(t, st)
			m, _ := statusMessage(t, p)

			require.NoError(t, h.HandleStatusChanged(context.Background(), m))
			assert.Empty(t, st.refreshed)
		})
	}

	t.Run("garbage", func(t *testing.T) {
		st := newMemStore()
		h, _ := newRefresher(t, st)
		assert.NoError(t, h.HandleStatusChanged(context.Background(), kafka.Message{Value: []byte("{")}))
	})
}

func TestStatsRefresher_FailureReleasesClaim(t *testing.T) {
	st := newMemStore(Seller{ID: 7})
	st.refreshErr = errors.New("deadlock detected")
	h, mr := newRefresher(t, st)
	m, eventID := statusMessage(t, orders.SellerOrderStatusChangedPayload{
		SellerID: 7, To: orders.StatusDelivered, FirstDelivery: true,
	})

	assert.Error(t, h.HandleStatusChanged(context.Background(), m))
	assert.False(t, mr.Exists("dedup:worker:"+eventID))

	st.refreshErr = nil
	require.NoError(t, h.HandleStatusChanged(context.Background(), m))
	assert.Equal(t, []int64{7}, st.refreshed)
}

func TestStatsRefresher_MissingSellerIsDropped(t *testing.T) {
	st := newMemStore()
	h, _ := newRefresher(t, st)
	m, _ := statusMessage(t, orders.SellerOrderStatusChangedPayload{SellerID: 99, To: orders.StatusDelivered, FirstDelivery: true})

	assert.NoError(t, h.HandleStatusChanged(context.Background(), m))
}
