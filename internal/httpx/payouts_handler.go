package httpx

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/ariefcatur/go-marketplace-settlement/internal/apperr"
	"github.com/ariefcatur/go-marketplace-settlement/internal/payouts"
	"github.com/go-chi/chi/v5"
)

type PayoutService interface {
	ComputePendingPayouts(ctx context.Context) (map[int64]payouts.Batch, error)
	PendingBatchFor(ctx context.Context, sellerID int64, ids []int64) (payouts.Batch, error)
	MarkBatchPaid(ctx context.Context, batch payouts.Batch, ref string) ([]payouts.Payout, error)
	ListPayouts(ctx context.Context) ([]payouts.Payout, error)
	SellerPayouts(ctx context.Context, sellerID int64) ([]payouts.Payout, error)
	Earnings(ctx context.Context, sellerID int64) (payouts.Earnings, error)
}

type PayoutsHandler struct {
	Payouts PayoutService
}

type markPaidReq struct {
	TransactionReference string  `json:"transaction_reference"`
	SellerOrderIDs       []int64 `json:"seller_order_ids"`
}

func (h *PayoutsHandler) Register(r chi.Router) {
	r.Get("/admin/payouts/pending", h.pending)
	r.Post("/admin/payouts/{seller_id}/paid", h.markPaid)
	r.Get("/admin/payouts", h.list)
	r.Get("/sellers/{id}/earnings", h.earnings)
	r.Get("/sellers/{id}/payouts", h.sellerPayouts)
}

func (h *PayoutsHandler) pending(w http.ResponseWriter, r *http.Request) {
	batches, err := h.Payouts.ComputePendingPayouts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]payouts.Batch, 0, len(batches))
	for _, b := range batches {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SellerID < out[j].SellerID })
	writeJSON(w, http.StatusOK, out)
}

func (h *PayoutsHandler) markPaid(w http.ResponseWriter, r *http.Request) {
	sellerID, err := pathID(r, "seller_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req markPaidReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	// the operator pays exactly the seller orders they reviewed
	if strings.TrimSpace(req.TransactionReference) == "" {
		writeError(w, r, apperr.Validation("transaction_reference", "is required"))
		return
	}
	if len(req.SellerOrderIDs) == 0 {
		writeError(w, r, apperr.Validation("seller_order_ids", "is required"))
		return
	}
	batch, err := h.Payouts.PendingBatchFor(r.Context(), sellerID, req.SellerOrderIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := h.Payouts.MarkBatchPaid(r.Context(), batch, req.TransactionReference)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rows)
}

func (h *PayoutsHandler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.Payouts.ListPayouts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePayouts(w, out)
}

func (h *PayoutsHandler) sellerPayouts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Payouts.SellerPayouts(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePayouts(w, out)
}

func writePayouts(w http.ResponseWriter, out []payouts.Payout) {
	if out == nil {
		out = []payouts.Payout{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *PayoutsHandler) earnings(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := h.Payouts.Earnings(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}
