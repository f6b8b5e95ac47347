package sellers

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

type Seller struct {
	ID                int64           `json:"id"`
	UserID            string          `json:"user_id"`
	ShopName          string          `json:"shop_name"`
	ShopDescription   string          `json:"shop_description,omitempty"`
	Email             string          `json:"email"`
	Status            Status          `json:"status"`
	BankName          string          `json:"bank_name,omitempty"`
	AccountNumber     string          `json:"account_number,omitempty"`
	AccountHolderName string          `json:"account_holder_name,omitempty"`
	Rating            decimal.Decimal `json:"rating"`
	TotalSales        decimal.Decimal `json:"total_sales"`
	CreatedAt         time.Time       `json:"created_at"`
}

type BankDetails struct {
	BankName          string `json:"bank_name" validate:"required"`
	AccountNumber     string `json:"account_number" validate:"required"`
	AccountHolderName string `json:"account_holder_name" validate:"required"`
}

// Registration is a user's application to sell. Sellers start pending until an admin approves them.
type Registration struct {
	UserID          string `json:"user_id" validate:"required"`
	ShopName        string `json:"shop_name" validate:"required"`
	ShopDescription string `json:"shop_description"`
	Email           string `json:"email" validate:"omitempty,email"`
}
