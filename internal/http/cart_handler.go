package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/domain"
	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/service"
)

type CartLedger interface {
	AddOrIncrement(ctx context.Context, userID, productID int64) (*domain.CartEntry, error)
	SetQuantity(ctx context.Context, userID, entryID int64, quantity int) error
	Remove(ctx context.Context, userID, productID int64) error
	Cart(ctx context.Context, userID int64) (*domain.Cart, error)
}

type CartHandler struct {
	cart    CartLedger
	timeout time.Duration
}

func NewCartHandler(cart CartLedger, timeout time.Duration) *CartHandler {
	return &CartHandler{
		cart:    cart,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, err := service.CurrentUser(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	cart, err := h.cart.Cart(ctx, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, err := service.CurrentUser(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	if _, err := h.cart.AddOrIncrement(ctx, userID, req.ProductID); err != nil {
		handleServiceError(w, err)
		return
	}

	h.respondCart(ctx, w, userID, http.StatusCreated)
}

// UpdateQuantity sets the quantity of one cart entry. Zero or less removes it.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, err := service.CurrentUser(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	entryID, err := strconv.ParseInt(chi.URLParam(r, "entry_id"), 10, 64)
	if err != nil || entryID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_entry_id", "entry_id must be a positive integer")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity > domain.MaxQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", fmt.Sprintf("quantity must not exceed %d", domain.MaxQuantity))
		return
	}

	if err := h.cart.SetQuantity(ctx, userID, entryID, req.Quantity); err != nil {
		handleServiceError(w, err)
		return
	}

	h.respondCart(ctx, w, userID, http.StatusOK)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, err := service.CurrentUser(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	if err := h.cart.Remove(ctx, userID, productID); err != nil {
		handleServiceError(w, err)
		return
	}

	h.respondCart(ctx, w, userID, http.StatusOK)
}

// respondCart reloads the cart after a committed change. A failed reload must
// not be reported as a failed change.
func (h *CartHandler) respondCart(ctx context.Context, w http.ResponseWriter, userID int64, status int) {
	cart, err := h.cart.Cart(ctx, userID)
	if errors.Is(err, domain.ErrStorage) {
		respondError(w, http.StatusServiceUnavailable, "cart_reload_failed",
			"the change was saved but the cart could not be reloaded, fetch it again")
		return
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, status, cart)
}
