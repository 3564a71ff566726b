package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/domain"
	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/logger"
	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/repository"
)

// CartService is the cart ledger. Every mutation runs inside the user's
// transaction so it serializes with checkout.
type CartService struct {
	tx      repository.TxRunner
	carts   repository.CartRepository
	timeout time.Duration
	log     *zap.Logger
}

func NewCartService(tx repository.TxRunner, carts repository.CartRepository, timeout time.Duration, log *zap.Logger) *CartService {
	return &CartService{
		tx:      tx,
		carts:   carts,
		timeout: timeout,
		log:     log,
	}
}

func (s *CartService) AddOrIncrement(ctx context.Context, userID, productID int64) (*domain.CartEntry, error) {
	if userID <= 0 {
		return nil, domain.ErrUnauthenticated
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var entry *domain.CartEntry
	err := s.tx.WithUserTx(ctx, userID, func(tx repository.Tx) error {
		if _, err := tx.Catalog().GetProduct(ctx, productID); err != nil {
			return notFound(err, repository.ErrProductNotFound, "product", productID)
		}
		e, err := tx.Carts().AddOrIncrement(ctx, userID, productID)
		if errors.Is(err, repository.ErrQuantityLimit) {
			return fmt.Errorf("%w: quantity of product %d is already %d", domain.ErrInvalidArgument, productID, domain.MaxQuantity)
		}
		if err != nil {
			return notFound(err, repository.ErrProductNotFound, "product", productID)
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, "add to cart", err)
	}
	return entry, nil
}

// SetQuantity overwrites an entry's quantity. Zero or less removes the entry.
func (s *CartService) SetQuantity(ctx context.Context, userID, entryID int64, quantity int) error {
	if userID <= 0 {
		return domain.ErrUnauthenticated
	}
	if quantity > domain.MaxQuantity {
		return fmt.Errorf("%w: quantity must not exceed %d", domain.ErrInvalidArgument, domain.MaxQuantity)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.tx.WithUserTx(ctx, userID, func(tx repository.Tx) error {
		err := tx.Carts().SetQuantity(ctx, userID, entryID, quantity)
		return notFound(err, repository.ErrCartEntryNotFound, "cart entry", entryID)
	})
	return s.fail(ctx, "set cart quantity", err)
}

func (s *CartService) Remove(ctx context.Context, userID, productID int64) error {
	if userID <= 0 {
		return domain.ErrUnauthenticated
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.tx.WithUserTx(ctx, userID, func(tx repository.Tx) error {
		return tx.Carts().RemoveProduct(ctx, userID, productID)
	})
	return s.fail(ctx, "remove from cart", err)
}

func (s *CartService) List(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	if userID <= 0 {
		return nil, domain.ErrUnauthenticated
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	lines, err := s.carts.ListLines(ctx, userID)
	if err != nil {
		return nil, s.fail(ctx, "list cart", err)
	}
	return lines, nil
}

// Total prices the cart with the same effective price checkout snapshots.
func (s *CartService) Total(ctx context.Context, userID int64) (decimal.Decimal, error) {
	lines, err := s.List(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.CartTotal(lines), nil
}

// Cart returns the lines together with their total.
func (s *CartService) Cart(ctx context.Context, userID int64) (*domain.Cart, error) {
	lines, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return &domain.Cart{
		UserID: userID,
		Lines:  lines,
		Total:  domain.CartTotal(lines),
	}, nil
}

func (s *CartService) fail(ctx context.Context, op string, err error) error {
	err = classify(op, err)
	if err != nil {
		logger.FromContext(ctx, s.log).Debug("cart operation failed", zap.String("op", op), zap.Error(err))
	}
	return err
}
