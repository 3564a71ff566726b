package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/domain"
	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/service"
)

type CartMock struct {
	cart *domain.Cart
	err  error
	// cartErr fails only the cart read that follows a mutation.
	cartErr error

	gotUser     int64
	gotProduct  int64
	gotEntry    int64
	gotQuantity int
}

func (c *CartMock) AddOrIncrement(ctx context.Context, userID, productID int64) (*domain.CartEntry, error) {
	c.gotUser, c.gotProduct = userID, productID
	if c.err != nil {
		return nil, c.err
	}
	return &domain.CartEntry{ID: 1, UserID: userID, ProductID: productID, Quantity: 1}, nil
}

func (c *CartMock) SetQuantity(ctx context.Context, userID, entryID int64, quantity int) error {
	c.gotUser, c.gotEntry, c.gotQuantity = userID, entryID, quantity
	return c.err
}

func (c *CartMock) Remove(ctx context.Context, userID, productID int64) error {
	c.gotUser, c.gotProduct = userID, productID
	return c.err
}

func (c *CartMock) Cart(ctx context.Context, userID int64) (*domain.Cart, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.cartErr != nil {
		return nil, c.cartErr
	}
	return c.cart, nil
}

func sampleCart() *domain.Cart {
	return &domain.Cart{
		UserID: 1,
		Lines: []domain.CartLine{
			{EntryID: 1, ProductID: 7, Title: "Lamp", Price: decimal.NewFromInt(50), Discount: decimal.NewFromInt(10), Quantity: 2, Available: true},
		},
		Total: decimal.NewFromInt(80),
	}
}

func authed(r *http.Request, userID int64) *http.Request {
	return r.WithContext(service.WithUser(r.Context(), userID))
}

// withURLParams attaches chi route params so handlers can be called directly.
func withURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	return response
}

func TestGetCart_Success(t *testing.T) {
	mock := &CartMock{cart: sampleCart()}
	handler := NewCartHandler(mock, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := authed(httptest.NewRequest(http.MethodGet, "/", nil), 1)

	handler.GetCart(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)

	var response domain.Cart
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, int64(1), response.UserID)
	require.Len(t, response.Lines, 1)
	assert.True(t, decimal.NewFromInt(80).Equal(response.Total))
}

func TestGetCart_Unauthenticated(t *testing.T) {
	handler := NewCartHandler(&CartMock{cart: sampleCart()}, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/", nil)

	handler.GetCart(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "unauthenticated", decodeError(t, recorder).Code)
}

func TestAddItem_Success(t *testing.T) {
	mock := &CartMock{cart: sampleCart()}
	handler := NewCartHandler(mock, 5*time.Second)

	body, _ := json.Marshal(AddItemRequestDTO{ProductID: 7})
	recorder := httptest.NewRecorder()
	request := authed(httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body)), 1)

	handler.AddItem(recorder, request)

	assert.Equal(t, http.StatusCreated, recorder.Code)
	assert.Equal(t, int64(1), mock.gotUser)
	assert.Equal(t, int64(7), mock.gotProduct)
}

func TestAddItem_InvalidBody(t *testing.T) {
	handler := NewCartHandler(&CartMock{}, 5*time.Second)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", "{", "invalid_request"},
		{"missing product", `{}`, "invalid_product_id"},
		{"negative product", `{"product_id": -3}`, "invalid_product_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			request := authed(httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(tt.body)), 1)

			handler.AddItem(recorder, request)

			assert.Equal(t, http.StatusBadRequest, recorder.Code)
			assert.Equal(t, tt.code, decodeError(t, recorder).Code)
		})
	}
}

func TestAddItem_ProductNotFound(t *testing.T) {
	mock := &CartMock{err: &domain.NotFoundError{Resource: "product", ID: 99}}
	handler := NewCartHandler(mock, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := authed(httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"product_id": 99}`)), 1)

	handler.AddItem(recorder, request)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, "not_found", decodeError(t, recorder).Code)
}

func TestUpdateQuantity_Success(t *testing.T) {
	mock := &CartMock{cart: sampleCart()}
	handler := NewCartHandler(mock, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := authed(httptest.NewRequest(http.MethodPut, "/", bytes.NewBufferString(`{"quantity": 0}`)), 1)
	request = withURLParams(request, map[string]string{"entry_id": "12"})

	handler.UpdateQuantity(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, int64(12), mock.gotEntry)
	assert.Equal(t, 0, mock.gotQuantity)
}

func TestUpdateQuantity_Validation(t *testing.T) {
	handler := NewCartHandler(&CartMock{cart: sampleCart()}, 5*time.Second)

	tests := []struct {
		name    string
		entryID string
		body    string
		code    string
	}{
		{"non numeric entry", "abc", `{"quantity": 1}`, "invalid_entry_id"},
		{"zero entry", "0", `{"quantity": 1}`, "invalid_entry_id"},
		{"malformed json", "1", `{"quantity":`, "invalid_request"},
		{"quantity too large", "1", `{"quantity": 100}`, "invalid_quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			request := authed(httptest.NewRequest(http.MethodPut, "/", bytes.NewBufferString(tt.body)), 1)
			request = withURLParams(request, map[string]string{"entry_id": tt.entryID})

			handler.UpdateQuantity(recorder, request)

			assert.Equal(t, http.StatusBadRequest, recorder.Code)
			assert.Equal(t, tt.code, decodeError(t, recorder).Code)
		})
	}
}

func TestUpdateQuantity_ForeignEntry(t *testing.T) {
	mock := &CartMock{err: &domain.NotFoundError{Resource: "cart entry", ID: 5}}
	handler := NewCartHandler(mock, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := authed(httptest.NewRequest(http.MethodPut, "/", bytes.NewBufferString(`{"quantity": 3}`)), 2)
	request = withURLParams(request, map[string]string{"entry_id": "5"})

	handler.UpdateQuantity(recorder, request)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestRemoveItem_Success(t *testing.T) {
	mock := &CartMock{cart: &domain.Cart{UserID: 1, Total: decimal.Zero}}
	handler := NewCartHandler(mock, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := authed(httptest.NewRequest(http.MethodDelete, "/", nil), 1)
	request = withURLParams(request, map[string]string{"product_id": "7"})

	handler.RemoveItem(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, int64(7), mock.gotProduct)
}

func TestRemoveItem_StorageFailure(t *testing.T) {
	mock := &CartMock{err: &domain.StorageError{Op: "remove cart entry", Err: fmt.Errorf("disk I/O error")}}
	handler := NewCartHandler(mock, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := authed(httptest.NewRequest(http.MethodDelete, "/", nil), 1)
	request = withURLParams(request, map[string]string{"product_id": "7"})

	handler.RemoveItem(recorder, request)

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	response := decodeError(t, recorder)
	assert.Equal(t, "storage_unavailable", response.Code)
	assert.NotContains(t, response.Error, "disk")
}

func TestAddItem_ReloadFailureAfterCommit(t *testing.T) {
	mock := &CartMock{cartErr: &domain.StorageError{Op: "list cart", Err: context.DeadlineExceeded}}
	handler := NewCartHandler(mock, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := authed(httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"product_id": 7}`)), 1)

	handler.AddItem(recorder, request)

	assert.Equal(t, int64(7), mock.gotProduct)
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	response := decodeError(t, recorder)
	assert.Equal(t, "cart_reload_failed", response.Code)
	assert.NotContains(t, response.Error, "nothing was changed")
}

func TestUpdateQuantity_AboveMaxRejected(t *testing.T) {
	mock := &CartMock{cart: sampleCart()}
	handler := NewCartHandler(mock, 5*time.Second)

	body := fmt.Sprintf(`{"quantity": %d}`, domain.MaxQuantity+1)
	recorder := httptest.NewRecorder()
	request := authed(httptest.NewRequest(http.MethodPut, "/", bytes.NewBufferString(body)), 1)
	request = withURLParams(request, map[string]string{"entry_id": "1"})

	handler.UpdateQuantity(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Zero(t, mock.gotEntry)
}
