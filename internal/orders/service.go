package orders

import (
	"context"

	kafkax "github.com/ariefcatur/go-marketplace-settlement/internal/kafka"
)

// Store is the relational side of orders. PGStore implements it over Postgres.
type Store interface {
	SellersByID(ctx context.Context, ids []int64) (map[int64]SellerRef, error)
	IsActiveSellerEmail(ctx context.Context, email string) (bool, error)

	// CreateOrder writes the order, its seller orders and their items as one unit.
	// A repeated non-empty request id returns the existing order with Existed set.
	CreateOrder(ctx context.Context, o NewOrder) (CreatedOrder, error)
	GetOrder(ctx context.Context, id int64) (Order, error)
	// ListOrders returns orders newest first with their seller orders. An empty
	// customerEmail lists every order.
	ListOrders(ctx context.Context, customerEmail string) ([]Order, error)
	AttachReceipt(ctx context.Context, orderID int64, receipt string) error
	// DeleteOrder refuses orders with any paid seller order.
	DeleteOrder(ctx context.Context, orderID int64) error

	ListSellerOrders(ctx context.Context, sellerID int64) ([]SellerOrder, error)
	GetSellerOrder(ctx context.Context, id int64) (SellerOrder, error)
	// UpdateStatus moves a seller order only if its status is still from.
	UpdateStatus(ctx context.Context, id int64, from, to Status, tracking string) error
	// Deliver marks the seller order delivered and decrements stock, once.
	Deliver(ctx context.Context, id int64, from Status, tracking string) (DeliveryResult, error)
	InsertRating(ctx context.Context, r Rating) (Rating, error)
}

type CreatedOrder struct {
	OrderID        int64
	SellerOrderIDs []int64
	Existed        bool
}

// RequestCache is an optional shortcut from request id to order id in front of the Store.
type RequestCache interface {
	Lookup(ctx context.Context, requestID string) (int64, bool, error)
	Remember(ctx context.Context, requestID string, orderID int64) error
}

type Service struct {
	Store       Store
	Requests    RequestCache
	Publisher   kafkax.Publisher
	ServiceName string
}
