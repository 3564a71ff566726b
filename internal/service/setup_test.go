package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/domain"
	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/metrics"
	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/repository"
)

func setupTestDB(t *testing.T) *repository.Repository {
	// a file keeps the schema alive if a cancelled transaction discards the connection
	repo, err := repository.NewSQLiteRepository(filepath.Join(t.TempDir(), "marketplace.db"))
	require.NoError(t, err)
	require.NoError(t, repo.RunMigrations("../repository/migrations"))
	t.Cleanup(func() { repo.Close() })
	return repo
}

type fixture struct {
	repo     *repository.Repository
	cart     *CartService
	checkout *CheckoutService
	metrics  *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	repo := setupTestDB(t)
	m := metrics.New()
	return &fixture{
		repo:     repo,
		cart:     NewCartService(repo, repo, 5*time.Second, zap.NewNop()),
		checkout: NewCheckoutService(repo, repo, 5*time.Second, zap.NewNop(), m),
		metrics:  m,
	}
}

func (f *fixture) user(t *testing.T, email string) int64 {
	u := &domain.User{Username: email, Email: email, PasswordHash: "hash"}
	require.NoError(t, f.repo.CreateUser(context.Background(), u))
	return u.ID
}

func (f *fixture) product(t *testing.T, sellerID int64, title, price, discount string) *domain.Product {
	p := &domain.Product{
		Title:      title,
		CategoryID: 1,
		Price:      decimal.RequireFromString(price),
		Discount:   decimal.RequireFromString(discount),
		SellerID:   sellerID,
	}
	require.NoError(t, f.repo.CreateProduct(context.Background(), p))
	return p
}

func (f *fixture) add(t *testing.T, userID, productID int64, times int) {
	for i := 0; i < times; i++ {
		_, err := f.cart.AddOrIncrement(context.Background(), userID, productID)
		require.NoError(t, err)
	}
}

// faultyRunner wraps every transaction handle before handing it to the caller.
type faultyRunner struct {
	inner repository.TxRunner
	wrap  func(repository.Tx) repository.Tx
}

func (f faultyRunner) WithUserTx(ctx context.Context, userID int64, fn func(tx repository.Tx) error) error {
	return f.inner.WithUserTx(ctx, userID, func(tx repository.Tx) error {
		return fn(f.wrap(tx))
	})
}

type faultyTx struct {
	repository.Tx
	outboxErr  error
	blockLines bool
}

func (f faultyTx) Outbox() repository.OutboxRepository {
	if f.outboxErr != nil {
		return failingOutbox{OutboxRepository: f.Tx.Outbox(), err: f.outboxErr}
	}
	return f.Tx.Outbox()
}

func (f faultyTx) Carts() repository.CartRepository {
	if f.blockLines {
		return blockingCarts{CartRepository: f.Tx.Carts()}
	}
	return f.Tx.Carts()
}

type failingOutbox struct {
	repository.OutboxRepository
	err error
}

func (f failingOutbox) InsertEvent(context.Context, *repository.OutboxEvent) error {
	return f.err
}

// blockingCarts simulates a storage call that never returns before the deadline.
type blockingCarts struct {
	repository.CartRepository
}

func (b blockingCarts) ListLines(ctx context.Context, _ int64) ([]domain.CartLine, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func requireMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}
