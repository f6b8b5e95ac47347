package orders

import (
	"errors"
	"testing"

	"github.com/ariefcatur/go-marketplace-settlement/internal/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPartitionBySeller(t *testing.T) {
	items := []CartItem{
		{ProductID: 1, SellerID: 7, Quantity: 2, UnitPrice: dec("50"), ProductName: "mug"},
		{ProductID: 2, SellerID: 9, Quantity: 1, UnitPrice: dec("30"), ProductName: "tea"},
		{ProductID: 3, SellerID: 7, Quantity: 1, UnitPrice: dec("0"), ProductName: "sticker"},
	}

	groups := PartitionBySeller(items)

	require.Len(t, groups, 2)
	assert.Equal(t, int64(7), groups[0].SellerID)
	assert.True(t, groups[0].Subtotal.Equal(dec("100")))
	require.Len(t, groups[0].Items, 2)
	assert.Equal(t, int64(1), groups[0].Items[0].ProductID)
	assert.Equal(t, int64(3), groups[0].Items[1].ProductID)

	assert.Equal(t, int64(9), groups[1].SellerID)
	assert.True(t, groups[1].Subtotal.Equal(dec("30")))
}

func TestQuoteCart(t *testing.T) {
	q := QuoteCart([]CartItem{
		{SellerID: 1, Quantity: 2, UnitPrice: dec("50")},
		{SellerID: 2, Quantity: 1, UnitPrice: dec("30")},
	})

	assert.True(t, q.Subtotal.Equal(dec("130")))
	assert.True(t, q.Shipping.Equal(dec("9.99")))
	assert.True(t, q.Tax.Equal(dec("19.5")))
	assert.True(t, q.Total.Equal(dec("159.49")))
}

func TestQuoteEmptyCartHasNoShipping(t *testing.T) {
	q := QuoteCart(nil)

	assert.True(t, q.Total.IsZero())
	assert.True(t, q.Shipping.IsZero())
}

func TestCheckCart(t *testing.T) {
	line := func(mut func(*CartItem)) []CartItem {
		it := CartItem{ProductID: 1, SellerID: 7, Quantity: 2, UnitPrice: dec("50"), ProductName: "mug"}
		mut(&it)
		return []CartItem{it}
	}
	cases := []struct {
		name  string
		items []CartItem
		field string
	}{
		{"ok", line(func(*CartItem) {}), ""},
		{"empty cart", nil, ""},
		{"negative quantity", line(func(it *CartItem) { it.Quantity = -3 }), "items[0].quantity"},
		{"negative price", line(func(it *CartItem) { it.UnitPrice = dec("-5") }), "items[0].price"},
		{"sub-cent price", line(func(it *CartItem) { it.UnitPrice = dec("0.335") }), "items[0].price"},
		{"missing product", line(func(it *CartItem) { it.ProductID = 0 }), "items[0].product_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckCart(tc.items)
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			var ve *apperr.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

// stored per-row values stay consistent only when every price is whole cents
func TestPartitionBySeller_CentPricesKeepSubtotalExact(t *testing.T) {
	items := []CartItem{
		{ProductID: 1, SellerID: 7, Quantity: 3, UnitPrice: dec("0.33"), ProductName: "pin"},
		{ProductID: 2, SellerID: 7, Quantity: 7, UnitPrice: dec("1.01"), ProductName: "card"},
	}
	require.NoError(t, CheckCart(items))

	groups := PartitionBySeller(items)

	require.Len(t, groups, 1)
	sum := decimal.Zero
	for _, it := range groups[0].Items {
		sum = sum.Add(it.UnitPrice.Round(2).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	assert.True(t, groups[0].Subtotal.Round(2).Equal(sum), "subtotal %s, rows %s", groups[0].Subtotal, sum)
	assert.True(t, groups[0].Subtotal.Equal(groups[0].Subtotal.Round(2)))
}
