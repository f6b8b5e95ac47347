package payouts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ariefcatur/go-marketplace-settlement/internal/apperr"
	"github.com/ariefcatur/go-marketplace-settlement/internal/redisx"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

var _ Store = (*memStore)(nil)

type memSellerOrder struct {
	id, orderID, sellerID int64
	subtotal              decimal.Decimal
	status                string
}

type memStore struct {
	mu           sync.Mutex
	sellers      map[int64]BankDetails
	sellerOrders map[int64]*memSellerOrder
	payouts      []Payout
	nextID       int64

	readErr error
	// runs inside InsertPayouts before any row is checked
	beforeInsert func()
}

func newMemStore() *memStore {
	return &memStore{sellers: map[int64]BankDetails{}, sellerOrders: map[int64]*memSellerOrder{}}
}

func (m *memStore) seller(id int64, bank BankDetails) { m.sellers[id] = bank }

func (m *memStore) sellerOrder(id, sellerID int64, subtotal, status string) {
	m.sellerOrders[id] = &memSellerOrder{id: id, orderID: id * 10, sellerID: sellerID,
		subtotal: decimal.RequireFromString(subtotal), status: status}
}

func (m *memStore) sortedIDs() []int64 {
	ids := make([]int64, 0, len(m.sellerOrders))
	for id := range m.sellerOrders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *memStore) DeliveredSellerOrders(context.Context) ([]DeliveredOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	var out []DeliveredOrder
	for _, id := range m.sortedIDs() {
		so := m.sellerOrders[id]
		if so.status != statusDelivered {
			continue
		}
		out = append(out, DeliveredOrder{
			SellerOrderID: so.id, OrderID: so.orderID, SellerID: so.sellerID,
			Subtotal: so.subtotal, Seller: m.sellers[so.sellerID],
		})
	}
	return out, nil
}

func (m *memStore) PaidSellerOrderIDs(context.Context) (map[int64]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[int64]struct{}{}
	for _, p := range m.payouts {
		out[p.SellerOrderID] = struct{}{}
	}
	return out, nil
}

func (m *memStore) InsertPayouts(_ context.Context, rows []Payout) ([]Payout, error) {
	if m.beforeInsert != nil {
		m.beforeInsert()
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	paid := map[int64]bool{}
	for _, p := range m.payouts {
		paid[p.SellerOrderID] = true
	}
	out := make([]Payout, len(rows))
	for i, p := range rows {
		so, ok := m.sellerOrders[p.SellerOrderID]
		if !ok || so.sellerID != p.SellerID || so.status != statusDelivered || !so.subtotal.Equal(p.Amount) {
			return nil, apperr.Conflict("insert payout", fmt.Errorf("seller order %d is no longer payable", p.SellerOrderID))
		}
		if paid[p.SellerOrderID] {
			return nil, apperr.Conflict("insert payout", errors.New("duplicate key value violates unique constraint"))
		}
		paid[p.SellerOrderID] = true
		m.nextID++
		p.ID = m.nextID
		out[i] = p
	}
	m.payouts = append(m.payouts, out...)
	return out, nil
}

func (m *memStore) SellerOrderAmounts(_ context.Context, sellerID int64) ([]OrderAmount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []OrderAmount
	for _, id := range m.sortedIDs() {
		so := m.sellerOrders[id]
		if so.sellerID == sellerID {
			out = append(out, OrderAmount{SellerOrderID: so.id, Status: so.status, Subtotal: so.subtotal})
		}
	}
	return out, nil
}

func (m *memStore) SellerPayouts(_ context.Context, sellerID int64) ([]Payout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Payout
	for _, p := range m.payouts {
		if p.SellerID == sellerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) ListPayouts(context.Context) ([]Payout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Payout(nil), m.payouts...), nil
}

// memLocker mimics redisx.Locker without expiry.
type memLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func (l *memLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = map[string]bool{}
	}
	if l.held[key] {
		return nil, redisx.ErrLocked
	}
	l.held[key] = true
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
		return nil
	}, nil
}

type memPublisher struct {
	mu     sync.Mutex
	topics []string
	values [][]byte
}

func (p *memPublisher) Publish(topic string, _, value []byte, _ ...kafka.Header) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.values = append(p.values, value)
}
