package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/go-marketplace-settlement/internal/sellers"
	"github.com/go-chi/chi/v5"
)

type SellerService interface {
	Register(ctx context.Context, in sellers.Registration) (sellers.Seller, error)
	Get(ctx context.Context, id int64) (sellers.Seller, error)
	ChangeStatus(ctx context.Context, id int64, to sellers.Status) (sellers.Seller, error)
	UpdateBankDetails(ctx context.Context, id int64, bank sellers.BankDetails) error
}

type SellersHandler struct {
	Sellers SellerService
}

type sellerStatusReq struct {
	Status sellers.Status `json:"status"`
}

func (h *SellersHandler) Register(r chi.Router) {
	r.Post("/sellers", h.register)
	r.Get("/sellers/{id}", h.get)
	r.Put("/sellers/{id}/bank", h.updateBank)
	r.Patch("/admin/sellers/{id}/status", h.changeStatus)
}

func (h *SellersHandler) register(w http.ResponseWriter, r *http.Request) {
	var in sellers.Registration
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	s, err := h.Sellers.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *SellersHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	s, err := h.Sellers.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *SellersHandler) updateBank(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req sellers.BankDetails
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Sellers.UpdateBankDetails(r.Context(), id, req); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SellersHandler) changeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req sellerStatusReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s, err := h.Sellers.ChangeStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
