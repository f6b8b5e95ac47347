package httpx

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/ariefcatur/go-marketplace-settlement/internal/apperr"
	"github.com/ariefcatur/go-marketplace-settlement/internal/orders"
	"github.com/go-chi/chi/v5"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderActorRole      = "X-Actor-Role"
	HeaderSellerID       = "X-Seller-Id"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, in orders.PlaceOrderInput) (orders.PlaceResult, error)
	GetOrder(ctx context.Context, id int64) (orders.Order, error)
	ListCustomerOrders(ctx context.Context, email string) ([]orders.Order, error)
	ListOrders(ctx context.Context) ([]orders.Order, error)
	AttachReceipt(ctx context.Context, orderID int64, receipt string) error
	DeleteOrder(ctx context.Context, orderID int64) error
	ListSellerOrders(ctx context.Context, sellerID int64) ([]orders.SellerOrder, error)
	Advance(ctx context.Context, actor orders.Actor, in orders.AdvanceInput) (orders.SellerOrder, error)
	RateSellerOrder(ctx context.Context, in orders.RatingInput) (orders.Rating, error)
}

type OrdersHandler struct {
	Orders OrderService
	// wraps POST /orders when set
	PlaceLimit func(http.Handler) http.Handler
}

type receiptReq struct {
	ReceiptImage string `json:"receipt_image"`
}

type quoteReq struct {
	Items []orders.CartItem `json:"items"`
}

type advanceReq struct {
	Status         orders.Status `json:"status"`
	TrackingNumber string        `json:"tracking_number"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	place := http.Handler(http.HandlerFunc(h.placeOrder))
	if h.PlaceLimit != nil {
		place = h.PlaceLimit(place)
	}
	r.Method(http.MethodPost, "/orders", place)
	r.Get("/orders", h.listCustomerOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/admin/orders", h.listOrders)
	r.Put("/orders/{id}/receipt", h.attachReceipt)
	r.Delete("/admin/orders/{id}", h.deleteOrder)
	r.Post("/cart/quote", h.quote)
	r.Patch("/seller-orders/{id}/status", h.advance)
	r.Post("/seller-orders/{id}/rating", h.rate)
	r.Get("/sellers/{id}/orders", h.listSellerOrders)
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var in orders.PlaceOrderInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if in.RequestID == "" {
		in.RequestID = strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey))
	}

	res, err := h.Orders.PlaceOrder(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	code := http.StatusCreated
	if res.Idempotent {
		code = http.StatusOK
	}
	writeJSON(w, code, res)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.Orders.GetOrder(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) attachReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req receiptReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Orders.AttachReceipt(r.Context(), id, req.ReceiptImage); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrdersHandler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Orders.DeleteOrder(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrdersHandler) quote(w http.ResponseWriter, r *http.Request) {
	var req quoteReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := orders.CheckCart(req.Items); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders.QuoteCart(req.Items))
}

func (h *OrdersHandler) advance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req advanceReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	so, err := h.Orders.Advance(r.Context(), actor, orders.AdvanceInput{
		SellerOrderID:  id,
		To:             req.Status,
		TrackingNumber: req.TrackingNumber,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, so)
}

func (h *OrdersHandler) listSellerOrders(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Orders.ListSellerOrders(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if out == nil {
		out = []orders.SellerOrder{}
	}
	writeJSON(w, http.StatusOK, out)
}

// actorFrom reads the caller identity set by the upstream auth layer.
func actorFrom(r *http.Request) (orders.Actor, error) {
	actor := orders.Actor{Role: orders.Role(strings.ToLower(r.Header.Get(HeaderActorRole)))}
	if !actor.Role.Valid() {
		return orders.Actor{}, apperr.Validation(HeaderActorRole, "must be seller or admin")
	}
	if actor.Role == orders.RoleSeller {
		id, err := strconv.ParseInt(r.Header.Get(HeaderSellerID), 10, 64)
		if err != nil || id <= 0 {
			return orders.Actor{}, apperr.Validation(HeaderSellerID, "is required for sellers")
		}
		actor.SellerID = id
	}
	return actor, nil
}

func (h *OrdersHandler) listCustomerOrders(w http.ResponseWriter, r *http.Request) {
	out, err := h.Orders.ListCustomerOrders(r.Context(), r.URL.Query().Get("customer_email"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	out, err := h.Orders.ListOrders(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) rate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in orders.RatingInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.SellerOrderID = id
	out, err := h.Orders.RateSellerOrder(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}
