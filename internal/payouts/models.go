package payouts

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusCompleted           = "completed"
	PaymentMethodBankTransfer = "bank_transfer"
)

// DeliveredOrder is a delivered seller order joined with its seller's bank details.
type DeliveredOrder struct {
	SellerOrderID int64           `json:"seller_order_id"`
	OrderID       int64           `json:"order_id"`
	SellerID      int64           `json:"-"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	CustomerName  string          `json:"customer_name"`
	CreatedAt     time.Time       `json:"created_at"`
	FulfilledAt   *time.Time      `json:"fulfilled_at,omitempty"`

	Seller BankDetails `json:"-"`
}

type BankDetails struct {
	ShopName          string
	BankName          string
	AccountNumber     string
	AccountHolderName string
}

// Batch is one seller's delivered, unpaid seller orders.
type Batch struct {
	SellerID          int64            `json:"seller_id"`
	SellerName        string           `json:"seller_name"`
	BankName          string           `json:"bank_name"`
	AccountNumber     string           `json:"account_number"`
	AccountHolderName string           `json:"account_holder_name"`
	Orders            []DeliveredOrder `json:"orders"`
	TotalAmount       decimal.Decimal  `json:"total_amount"`
	CommissionRate    decimal.Decimal  `json:"commission_rate"`
	CommissionAmount  decimal.Decimal  `json:"commission_amount"`
	NetAmount         decimal.Decimal  `json:"net_amount"`
}

type Payout struct {
	ID                   int64           `json:"id"`
	SellerID             int64           `json:"seller_id"`
	SellerOrderID        int64           `json:"seller_order_id"`
	Amount               decimal.Decimal `json:"amount"`
	CommissionRate       decimal.Decimal `json:"commission_rate"`
	CommissionAmount     decimal.Decimal `json:"commission_amount"`
	NetAmount            decimal.Decimal `json:"net_amount"`
	Status               string          `json:"status"`
	PaymentMethod        string          `json:"payment_method"`
	TransactionReference string          `json:"transaction_reference"`
	PaidAt               time.Time       `json:"paid_at"`
}

// OrderAmount is the part of a seller order the earnings view reads.
type OrderAmount struct {
	SellerOrderID int64
	Status        string
	Subtotal      decimal.Decimal
}

type Earnings struct {
	SellerID           int64           `json:"seller_id"`
	Pending            decimal.Decimal `json:"pending"`
	DeliveredTotal     decimal.Decimal `json:"delivered_total"`
	PaidGross          decimal.Decimal `json:"paid_amount_gross"`
	AvailableForPayout decimal.Decimal `json:"available_for_payout"`
	PaidNet            decimal.Decimal `json:"paid_net"`
	CommissionTotal    decimal.Decimal `json:"commission_total"`
}
