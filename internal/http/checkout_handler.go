package http

import (
	"context"
	"net/http"
	"time"

	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/domain"
	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/service"
)

type CheckoutEngine interface {
	Checkout(ctx context.Context, userID int64) (*domain.CheckoutResult, error)
	ListPurchases(ctx context.Context, userID int64) ([]*domain.PurchaseRecord, error)
}

type CheckoutHandler struct {
	checkout CheckoutEngine
	timeout  time.Duration
}

func NewCheckoutHandler(checkout CheckoutEngine, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		timeout:  timeout,
	}
}

func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, err := service.CurrentUser(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.checkout.Checkout(ctx, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

func (h *CheckoutHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, err := service.CurrentUser(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	records, err := h.checkout.ListPurchases(ctx, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, records)
}
