package orders

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/ariefcatur/go-marketplace-settlement/internal/apperr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

var _ Store = (*memStore)(nil)

type memSeller struct {
	ref   SellerRef
	email string
}

type memStore struct {
	nextID       int64
	sellers      map[int64]memSeller
	orders       map[int64]*Order
	sellerOrders map[int64]*SellerOrder
	requestIDs   map[string]int64
	paidSOs      map[int64]bool
	stock        map[int64]int
	failStock    map[int64]bool
	decrements   int

	ratings      map[int64]Rating
	sellerRated  map[int64]int

	createErr error
}

func newMemStore() *memStore {
	return &memStore{
		sellers:      map[int64]memSeller{},
		orders:       map[int64]*Order{},
		sellerOrders: map[int64]*SellerOrder{},
		requestIDs:   map[string]int64{},
		paidSOs:      map[int64]bool{},
		stock:        map[int64]int{},
		failStock:    map[int64]bool{},
		ratings:      map[int64]Rating{},
		sellerRated:  map[int64]int{},
	}
}

func (m *memStore) addSeller(id int64, status, email string) {
	m.sellers[id] = memSeller{ref: SellerRef{ID: id, ShopName: "shop", Status: status}, email: email}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) SellersByID(_ context.Context, ids []int64) (map[int64]SellerRef, error) {
	out := map[int64]SellerRef{}
	for _, id := range ids {
		if s, ok := m.sellers[id]; ok {
			out[id] = s.ref
		}
	}
	return out, nil
}

func (m *memStore) IsActiveSellerEmail(_ context.Context, email string) (bool, error) {
	for _, s := range m.sellers {
		if s.email == email && s.ref.Status == sellerStatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CreateOrder(_ context.Context, o NewOrder) (CreatedOrder, error) {
	if m.createErr != nil {
		return CreatedOrder{}, m.createErr
	}
	if id, ok := m.requestIDs[o.Order.RequestID]; ok && o.Order.RequestID != "" {
		return CreatedOrder{OrderID: id, Existed: true}, nil
	}
	order := o.Order
	order.ID = m.id()
	order.CreatedAt = time.Now()
	out := CreatedOrder{OrderID: order.ID}
	for _, g := range o.Groups {
		so := &SellerOrder{ID: m.id(), OrderID: order.ID, SellerID: g.SellerID, Subtotal: g.Subtotal, Status: StatusPending}
		for _, it := range g.Items {
			so.Items = append(so.Items, OrderItem{
				ID: m.id(), SellerOrderID: so.ID, ProductID: it.ProductID, ProductName: it.ProductName,
				ProductImage: it.ProductImage, Quantity: it.Quantity, Price: it.UnitPrice,
			})
		}
		m.sellerOrders[so.ID] = so
		out.SellerOrderIDs = append(out.SellerOrderIDs, so.ID)
	}
	m.orders[order.ID] = &order
	if o.Order.RequestID != "" {
		m.requestIDs[o.Order.RequestID] = order.ID
	}
	return out, nil
}

func (m *memStore) GetOrder(_ context.Context, id int64) (Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return Order{}, apperr.NotFound("order", id)
	}
	out := *o
	for _, so := range m.sortedSellerOrders() {
		if so.OrderID == id {
			out.SellerOrders = append(out.SellerOrders, so)
		}
	}
	return out, nil
}

func (m *memStore) ListOrders(ctx context.Context, customerEmail string) ([]Order, error) {
	out := []Order{}
	for id, o := range m.orders {
		if customerEmail != "" && !strings.EqualFold(o.CustomerEmail, customerEmail) {
			continue
		}
		full, _ := m.GetOrder(ctx, id)
		out = append(out, full)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// InsertRating mirrors the unique seller_order_id constraint.
func (m *memStore) InsertRating(_ context.Context, r Rating) (Rating, error) {
	so, ok := m.sellerOrders[r.SellerOrderID]
	if !ok || so.Status != StatusDelivered {
		return Rating{}, pgx.ErrNoRows
	}
	if _, dup := m.ratings[so.ID]; dup {
		return Rating{}, &pgconn.PgError{Code: "23505", ConstraintName: "seller_ratings_seller_order_key"}
	}
	r.ID = m.id()
	r.SellerID = so.SellerID
	r.CreatedAt = time.Now()
	m.ratings[so.ID] = r
	m.sellerRated[so.SellerID]++
	return r, nil
}

func (m *memStore) AttachReceipt(_ context.Context, orderID int64, receipt string) error {
	o, ok := m.orders[orderID]
	if !ok {
		return &apperr.NotFoundError{Resource: "order"}
	}
	o.ReceiptImage = receipt
	return nil
}

func (m *memStore) DeleteOrder(_ context.Context, orderID int64) error {
	if _, ok := m.orders[orderID]; !ok {
		return &apperr.NotFoundError{Resource: "order"}
	}
	for id, so := range m.sellerOrders {
		if so.OrderID == orderID && m.paidSOs[id] {
			return apperr.Validation("order_id", "order has paid seller orders")
		}
	}
	for id, so := range m.sellerOrders {
		if so.OrderID == orderID {
			delete(m.sellerOrders, id)
		}
	}
	delete(m.orders, orderID)
	return nil
}

func (m *memStore) sortedSellerOrders() []SellerOrder {
	out := make([]SellerOrder, 0, len(m.sellerOrders))
	for _, so := range m.sellerOrders {
		out = append(out, *so)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memStore) ListSellerOrders(_ context.Context, sellerID int64) ([]SellerOrder, error) {
	var out []SellerOrder
	for _, so := range m.sortedSellerOrders() {
		if so.SellerID == sellerID {
			out = append(out, so)
		}
	}
	return out, nil
}

func (m *memStore) GetSellerOrder(_ context.Context, id int64) (SellerOrder, error) {
	so, ok := m.sellerOrders[id]
	if !ok {
		return SellerOrder{}, &apperr.NotFoundError{Resource: "seller order"}
	}
	return *so, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id int64, from, to Status, tracking string) error {
	so, ok := m.sellerOrders[id]
	if !ok {
		return &apperr.NotFoundError{Resource: "seller order"}
	}
	if so.Status != from {
		return apperr.Conflict("update status", errStatusMoved)
	}
	so.Status = to
	if tracking != "" {
		so.TrackingNumber = tracking
	}
	return nil
}

func (m *memStore) Deliver(_ context.Context, id int64, from Status, tracking string) (DeliveryResult, error) {
	so, ok := m.sellerOrders[id]
	if !ok {
		return DeliveryResult{}, &apperr.NotFoundError{Resource: "seller order"}
	}
	if so.FulfilledAt != nil {
		return DeliveryResult{}, nil
	}
	if so.Status != from {
		return DeliveryResult{}, apperr.Conflict("deliver", errStatusMoved)
	}
	now := time.Now()
	so.Status = StatusDelivered
	so.FulfilledAt = &now
	if tracking != "" {
		so.TrackingNumber = tracking
	}
	res := DeliveryResult{FirstDelivery: true}
	for _, it := range so.Items {
		if m.failStock[it.ProductID] {
			res.StockFailures = append(res.StockFailures, StockFailure{ProductID: it.ProductID, Quantity: it.Quantity, Err: errors.New("stock row locked")})
			continue
		}
		m.stock[it.ProductID] -= it.Quantity
		m.decrements++
	}
	return res, nil
}

type published struct {
	topic string
	key   string
	value []byte
}

type memPublisher struct{ msgs []published }

func (p *memPublisher) Publish(topic string, key, value []byte, _ ...kafka.Header) {
	p.msgs = append(p.msgs, published{topic: topic, key: string(key), value: value})
}

func (p *memPublisher) topics() []string {
	out := make([]string, 0, len(p.msgs))
	for _, m := range p.msgs {
		out = append(out, m.topic)
	}
	return out
}

func sumSubtotals(sos []SellerOrder) decimal.Decimal {
	total := decimal.Zero
	for _, so := range sos {
		total = total.Add(so.Subtotal)
	}
	return total
}
