package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/domain"
	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/logger"
	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/metrics"
	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/repository"
)

type CheckoutService struct {
	tx        repository.TxRunner
	purchases repository.PurchaseRepository
	timeout   time.Duration
	log       *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewCheckoutService(
	tx repository.TxRunner,
	purchases repository.PurchaseRepository,
	timeout time.Duration,
	log *zap.Logger,
	m *metrics.Metrics) *CheckoutService {
	return &CheckoutService{
		tx:        tx,
		purchases: purchases,
		timeout:   timeout,
		log:       log,
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Checkout converts the user's cart into purchase records. Reading the cart,
// writing the records, clearing the cart and queueing the purchase event
// happen in one transaction: either all of it is visible afterwards or none.
func (s *CheckoutService) Checkout(ctx context.Context, userID int64) (*domain.CheckoutResult, error) {
	if userID <= 0 {
		return nil, domain.ErrUnauthenticated
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	checkoutID := uuid.New()
	log := logger.FromContext(ctx, s.log).With(
		zap.Int64("user_id", userID),
		zap.String("checkout_id", checkoutID.String()))

	state := domain.CheckoutStateValidating
	var result *domain.CheckoutResult

	err := s.tx.WithUserTx(ctx, userID, func(tx repository.Tx) error {
		lines, err := tx.Carts().ListLines(ctx, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return domain.ErrEmptyCart
		}

		if dangling := danglingProducts(lines); len(dangling) > 0 {
			return &domain.DanglingReferenceError{ProductIDs: dangling}
		}

		records, total := s.snapshot(checkoutID, userID, lines)

		if err := tx.Purchases().InsertPurchases(ctx, records); err != nil {
			return err
		}
		if _, err := tx.Carts().Clear(ctx, userID); err != nil {
			return err
		}
		if err := s.queueEvent(ctx, tx, checkoutID, userID, records, total); err != nil {
			return err
		}

		result = &domain.CheckoutResult{
			CheckoutID: checkoutID,
			Records:    records,
			Total:      total,
		}
		return nil
	})

	state, errTransition := advance(state, err)
	if errTransition != nil {
		log.Error("checkout state machine", zap.Stringer("state", state), zap.Error(errTransition))
		return nil, errTransition
	}
	s.metrics.ObserveCheckout(state.String())

	if err != nil {
		err = classify("checkout", err)
		switch state {
		case domain.CheckoutStateEmptyCart:
			log.Info("checkout finished", zap.Stringer("state", state))
		default:
			log.Warn("checkout aborted", zap.Stringer("state", state), zap.Error(err))
		}
		return nil, err
	}

	result.State = state
	log.Info("checkout committed",
		zap.Stringer("state", state),
		zap.Int("records", len(result.Records)),
		zap.String("total", result.Total.String()))
	return result, nil
}

func (s *CheckoutService) ListPurchases(ctx context.Context, userID int64) ([]*domain.PurchaseRecord, error) {
	if userID <= 0 {
		return nil, domain.ErrUnauthenticated
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	records, err := s.purchases.ListPurchases(ctx, userID)
	if err != nil {
		return nil, classify("list purchases", err)
	}
	if records == nil {
		records = []*domain.PurchaseRecord{}
	}
	return records, nil
}

// snapshot freezes the effective unit price of every line into a purchase record.
func (s *CheckoutService) snapshot(checkoutID uuid.UUID, userID int64, lines []domain.CartLine) ([]*domain.PurchaseRecord, decimal.Decimal) {
	purchasedAt := s.now()
	total := decimal.Zero
	records := make([]*domain.PurchaseRecord, 0, len(lines))

	for _, l := range lines {
		unit := l.UnitPrice()
		lineTotal := unit.Mul(decimal.NewFromInt(int64(l.Quantity)))
		total = total.Add(lineTotal)

		records = append(records, &domain.PurchaseRecord{
			CheckoutID:   checkoutID,
			UserID:       userID,
			ProductID:    l.ProductID,
			ProductTitle: l.Title,
			Quantity:     l.Quantity,
			UnitPrice:    unit,
			TotalPrice:   lineTotal,
			PurchasedAt:  purchasedAt,
		})
	}
	return records, total
}

func (s *CheckoutService) queueEvent(
	ctx context.Context,
	tx repository.Tx,
	checkoutID uuid.UUID,
	userID int64,
	records []*domain.PurchaseRecord,
	total decimal.Decimal) error {

	payload, err := json.Marshal(domain.PurchaseCompletedEvent{
		CheckoutID:  checkoutID,
		UserID:      userID,
		Records:     records,
		Total:       total,
		CompletedAt: s.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal checkout payload: %w", err)
	}

	return tx.Outbox().InsertEvent(ctx, &repository.OutboxEvent{
		AggregateID: checkoutID.String(),
		EventType:   domain.EventTypePurchaseCompleted,
		Payload:     payload,
	})
}

func danglingProducts(lines []domain.CartLine) []int64 {
	var ids []int64
	for _, l := range lines {
		if !l.Available {
			ids = append(ids, l.ProductID)
		}
	}
	return ids
}

// advance moves a checkout out of from into the terminal state implied by the
// outcome err.
func advance(from domain.CheckoutState, err error) (domain.CheckoutState, error) {
	next := terminalState(err)
	if !domain.CanTransitionTo(from, next) {
		return from, IllegalTransitionError
	}
	return next, nil
}

func terminalState(err error) domain.CheckoutState {
	switch {
	case err == nil:
		return domain.CheckoutStateCommitted
	case errors.Is(err, domain.ErrEmptyCart):
		return domain.CheckoutStateEmptyCart
	default:
		return domain.CheckoutStateAborted
	}
}
