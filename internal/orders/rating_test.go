package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/ariefcatur/go-marketplace-settlement/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deliveredOne places the cart and delivers seller 1's seller order.
func deliveredOne(t *testing.T, svc *Service, st *memStore) int64 {
	t.Helper()
	id := placeOne(t, svc, st)
	_, err := svc.Advance(context.Background(), seller1, AdvanceInput{SellerOrderID: id, To: StatusDelivered})
	require.NoError(t, err)
	return id
}

func TestRateSellerOrder(t *testing.T) {
	svc, st, _ := newService(t)
	id := deliveredOne(t, svc, st)

	r, err := svc.RateSellerOrder(context.Background(), RatingInput{
		SellerOrderID: id, CustomerEmail: " ADA@example.com ", Rating: 4, Comment: " quick ",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.SellerID)
	assert.Equal(t, id, r.SellerOrderID)
	assert.Equal(t, 4, r.Rating)
	assert.Equal(t, "quick", r.Comment)
	assert.Equal(t, 1, st.sellerRated[1])
}

func TestRateSellerOrder_SecondRatingRejected(t *testing.T) {
	svc, st, _ := newService(t)
	id := deliveredOne(t, svc, st)
	in := RatingInput{SellerOrderID: id, CustomerEmail: "ada@example.com", Rating: 5}

	_, err := svc.RateSellerOrder(context.Background(), in)
	require.NoError(t, err)
	_, err = svc.RateSellerOrder(context.Background(), in)

	var ve *apperr.ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)
	assert.Equal(t, "seller_order_id", ve.Field)
	assert.Equal(t, "already rated", ve.Message)
	assert.Equal(t, 1, st.sellerRated[1])
}

func TestRateSellerOrder_Rejects(t *testing.T) {
	cases := []struct {
		name    string
		deliver bool
		in      RatingInput
		field   string
	}{
		{"not delivered", false, RatingInput{CustomerEmail: "ada@example.com", Rating: 5}, "seller_order_id"},
		{"rating too low", true, RatingInput{CustomerEmail: "ada@example.com", Rating: 0}, "rating"},
		{"rating too high", true, RatingInput{CustomerEmail: "ada@example.com", Rating: 6}, "rating"},
		{"missing email", true, RatingInput{Rating: 3}, "customer_email"},
		{"other customer", true, RatingInput{CustomerEmail: "bob@example.com", Rating: 3}, "customer_email"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, st, _ := newService(t)
			var id int64
			if tc.deliver {
				id = deliveredOne(t, svc, st)
			} else {
				id = placeOne(t, svc, st)
			}
			tc.in.SellerOrderID = id

			_, err := svc.RateSellerOrder(context.Background(), tc.in)

			var ve *apperr.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tc.field, ve.Field)
			assert.Empty(t, st.ratings)
		})
	}
}

func TestRateSellerOrder_MissingSellerOrder(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.RateSellerOrder(context.Background(), RatingInput{SellerOrderID: 404, CustomerEmail: "ada@example.com", Rating: 3})

	var nf *apperr.NotFoundError
	require.True(t, errors.As(err, &nf), "got %v", err)
	assert.Equal(t, int64(404), nf.ID)
}

func TestListCustomerOrders(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.PlaceOrder(context.Background(), twoSellerCart())
	require.NoError(t, err)
	other := twoSellerCart()
	other.RequestID = "req-2"
	other.CustomerEmail = "bob@example.com"
	_, err = svc.PlaceOrder(context.Background(), other)
	require.NoError(t, err)

	mine, err := svc.ListCustomerOrders(context.Background(), " Ada@Example.com ")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "ada@example.com", mine[0].CustomerEmail)
	assert.Len(t, mine[0].SellerOrders, 2)

	all, err := svc.ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "bob@example.com", all[0].CustomerEmail, "newest first")

	_, err = svc.ListCustomerOrders(context.Background(), "  ")
	assert.True(t, apperr.IsValidation(err))
}
