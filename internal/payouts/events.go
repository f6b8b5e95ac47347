package payouts

import "github.com/shopspring/decimal"

const (
	TopicPayoutPaid      = "marketplace.payout.paid"
	EventPayoutBatchPaid = "PayoutBatchPaid"
)

type PayoutBatchPaidPayload struct {
	SellerID             int64           `json:"seller_id"`
	TransactionReference string          `json:"transaction_reference"`
	SellerOrderIDs       []int64         `json:"seller_order_ids"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	CommissionAmount     decimal.Decimal `json:"commission_amount"`
	NetAmount            decimal.Decimal `json:"net_amount"`
}
