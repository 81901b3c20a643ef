package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/example/ec-cart/internal/api/middleware"
	"github.com/example/ec-cart/internal/domain/cart"
	"github.com/example/ec-cart/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

type Handlers struct {
	carts   *cart.Service
	catalog catalog.Repository
}

func NewHandlers(carts *cart.Service, cat catalog.Repository) *Handlers {
	return &Handlers{
		carts:   carts,
		catalog: cat,
	}
}

// Cart Handlers

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.GetOwner(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	c, err := h.carts.GetOrCreateCart(r.Context(), owner)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *Handlers) AddItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.GetOwner(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		ProductID       string            `json:"product_id"`
		Quantity        int               `json:"quantity"`
		SelectedOptions map[string]string `json:"selected_options"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	// Omitted quantity defaults to one.
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	c, err := h.carts.AddItem(r.Context(), owner, req.ProductID, req.Quantity, req.SelectedOptions)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *Handlers) UpdateItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.GetOwner(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	productID := extractPathParam(r.URL.Path, "/cart/items/")

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Zero or negative quantity removes the line.
	c, err := h.carts.UpdateQuantity(r.Context(), owner, productID, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *Handlers) RemoveItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.GetOwner(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	productID := extractPathParam(r.URL.Path, "/cart/items/")

	c, err := h.carts.RemoveItem(r.Context(), owner, productID)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.GetOwner(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.carts.ClearCart(r.Context(), owner); err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handlers) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.GetOwner(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	c, err := h.carts.ApplyDiscount(r.Context(), owner, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *Handlers) SetDeliveryFee(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.GetOwner(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	c, err := h.carts.SetDeliveryFee(r.Context(), owner, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

// writeError maps domain errors onto the stable HTTP error contract.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrInvalidIdentity):
		respondError(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, catalog.ErrProductNotFound), errors.Is(err, cart.ErrItemNotFound):
		respondError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidProduct),
		errors.Is(err, cart.ErrInvalidAmount),
		errors.Is(err, catalog.ErrInvalidName),
		errors.Is(err, catalog.ErrInvalidPrice):
		respondError(w, err.Error(), http.StatusBadRequest)
	default:
		respondError(w, err.Error(), http.StatusInternalServerError)
	}
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}
