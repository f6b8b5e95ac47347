package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

const PaymentMethodReceiptUpload = "receipt_upload"

type ShippingAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zipcode string `json:"zipcode"`
	Country string `json:"country"`
}

type Order struct {
	ID              int64           `json:"id"`
	RequestID       string          `json:"request_id,omitempty"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	PaymentMethod   string          `json:"payment_method"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	ReceiptImage    string          `json:"receipt_image,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	SellerOrders    []SellerOrder   `json:"seller_orders,omitempty"`
}

// SellerOrder is one seller's slice of an Order. Subtotal is fixed at creation.
type SellerOrder struct {
	ID             int64           `json:"id"`
	OrderID        int64           `json:"order_id"`
	SellerID       int64           `json:"seller_id"`
	SellerName     string          `json:"seller_name,omitempty"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Status         Status          `json:"status"`
	TrackingNumber string          `json:"tracking_number,omitempty"`
	FulfilledAt    *time.Time      `json:"fulfilled_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	Items          []OrderItem     `json:"items,omitempty"`

	CustomerName  string `json:"customer_name,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
}

// OrderItem snapshots product name, image and unit price at purchase time.
type OrderItem struct {
	ID            int64           `json:"id"`
	SellerOrderID int64           `json:"seller_order_id"`
	ProductID     int64           `json:"product_id"`
	ProductName   string          `json:"product_name"`
	ProductImage  string          `json:"product_image"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	CreatedAt     time.Time       `json:"created_at"`
}

type CartItem struct {
	ProductID    int64           `json:"product_id" validate:"required"`
	SellerID     int64           `json:"seller_id" validate:"required"`
	Quantity     int             `json:"quantity" validate:"gt=0"`
	UnitPrice    decimal.Decimal `json:"price"`
	ProductName  string          `json:"product_name" validate:"required"`
	ProductImage string          `json:"product_image"`
}

type PlaceOrderInput struct {
	RequestID       string          `json:"request_id"`
	CustomerName    string          `json:"customer_name" validate:"required"`
	CustomerEmail   string          `json:"customer_email" validate:"required,email"`
	PaymentMethod   string          `json:"payment_method"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Items           []CartItem      `json:"items" validate:"required,min=1,dive"`
}

type PlaceResult struct {
	OrderID    int64 `json:"order_id"`
	Idempotent bool  `json:"idempotent"`
}

// SellerRef is the part of a seller record placement needs.
type SellerRef struct {
	ID       int64
	ShopName string
	Status   string
}

const sellerStatusActive = "active"

// NewOrder is the full row group written by one placement.
type NewOrder struct {
	Order  Order
	Groups []SellerGroup
}

type SellerGroup struct {
	SellerID int64
	Subtotal decimal.Decimal
	Items    []CartItem
}

type StockFailure struct {
	ProductID int64
	Quantity  int
	Err       error
}

type DeliveryResult struct {
	// FirstDelivery is false when the seller order was already fulfilled and nothing changed.
	FirstDelivery bool
	StockFailures []StockFailure
}

// RatingInput is a customer's score for one delivered seller order.
type RatingInput struct {
	SellerOrderID int64  `json:"-"`
	CustomerEmail string `json:"customer_email" validate:"required,email"`
	Rating        int    `json:"rating" validate:"gte=1,lte=5"`
	Comment       string `json:"comment"`
}

type Rating struct {
	ID            int64     `json:"id"`
	SellerID      int64     `json:"seller_id"`
	SellerOrderID int64     `json:"seller_order_id"`
	CustomerEmail string    `json:"customer_email"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
