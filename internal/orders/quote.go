package orders

import (
	"fmt"

	"github.com/ariefcatur/go-marketplace-settlement/internal/apperr"
	"github.com/ariefcatur/go-marketplace-settlement/internal/money"
	"github.com/shopspring/decimal"
)

const TaxPercent = 15

// ShippingFee is charged once per non-empty cart.
var ShippingFee = decimal.RequireFromString("9.99")

type Quote struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

func LineTotal(it CartItem) decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

func QuoteCart(items []CartItem) Quote {
	q := Quote{Subtotal: decimal.Zero, Shipping: decimal.Zero}
	for _, it := range items {
		q.Subtotal = q.Subtotal.Add(LineTotal(it))
	}
	if len(items) > 0 {
		q.Shipping = ShippingFee
	}
	q.Tax = money.Percent(q.Subtotal, TaxPercent)
	q.Total = money.Sum(q.Subtotal, q.Shipping, q.Tax)
	return q
}

type cartLines struct {
	Items []CartItem `json:"items" validate:"dive"`
}

// CheckCart validates cart lines the way placement does, without requiring a non-empty cart.
func CheckCart(items []CartItem) error {
	if err := apperr.ValidateStruct(cartLines{Items: items}); err != nil {
		return err
	}
	return checkPrices(items)
}

func checkPrices(items []CartItem) error {
	for i, it := range items {
		field := fmt.Sprintf("items[%d].price", i)
		if it.UnitPrice.IsNegative() {
			return apperr.Validation(field, "must not be negative")
		}
		if !money.IsCents(it.UnitPrice) {
			return apperr.Validation(field, "must have at most 2 decimal places")
		}
	}
	return nil
}

// PartitionBySeller groups items per seller in order of first appearance,
// keeping the cart order inside each group.
func PartitionBySeller(items []CartItem) []SellerGroup {
	index := map[int64]int{}
	var groups []SellerGroup
	for _, it := range items {
		i, ok := index[it.SellerID]
		if !ok {
			i = len(groups)
			index[it.SellerID] = i
			groups = append(groups, SellerGroup{SellerID: it.SellerID, Subtotal: decimal.Zero})
		}
		groups[i].Items = append(groups[i].Items, it)
		groups[i].Subtotal = groups[i].Subtotal.Add(LineTotal(it))
	}
	return groups
}
