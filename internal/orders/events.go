package orders

import "github.com/shopspring/decimal"

const (
	EventOrderPlaced              = "OrderPlaced"
	EventSellerOrderStatusChanged = "SellerOrderStatusChanged"
)

type PlacedSellerOrder struct {
	SellerOrderID int64           `json:"seller_order_id"`
	SellerID      int64           `json:"seller_id"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}

type OrderPlacedPayload struct {
	OrderID      int64               `json:"order_id"`
	RequestID    string              `json:"request_id,omitempty"`
	TotalAmount  decimal.Decimal     `json:"total_amount"`
	SellerOrders []PlacedSellerOrder `json:"seller_orders"`
}

type SellerOrderStatusChangedPayload struct {
	SellerOrderID  int64  `json:"seller_order_id"`
	OrderID        int64  `json:"order_id"`
	SellerID       int64  `json:"seller_id"`
	From           Status `json:"from"`
	To             Status `json:"to"`
	ActorRole      Role   `json:"actor_role"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	FirstDelivery  bool   `json:"first_delivery,omitempty"`
}
