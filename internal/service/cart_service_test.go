package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/domain"
)

func TestAddOrIncrement_SameProductTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.user(t, "buyer@example.com")
	p := f.product(t, buyer, "Chair", "30", "0")

	f.add(t, buyer, p.ID, 2)

	lines, err := f.cart.List(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, "Chair", lines[0].Title)
}

func TestAddOrIncrement_MissingProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.user(t, "buyer@example.com")
	retired := f.product(t, buyer, "Old", "30", "0")
	require.NoError(t, f.repo.RetireProduct(ctx, retired.ID))

	for _, id := range []int64{404, retired.ID} {
		_, err := f.cart.AddOrIncrement(ctx, buyer, id)
		require.ErrorIs(t, err, domain.ErrNotFound)

		var nf *domain.NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, "product", nf.Resource)
		assert.Equal(t, id, nf.ID)
	}

	lines, err := f.cart.List(ctx, buyer)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestQuantityCappedAtMax(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.user(t, "buyer@example.com")
	p := f.product(t, buyer, "Chair", "30", "0")

	entry, err := f.cart.AddOrIncrement(ctx, buyer, p.ID)
	require.NoError(t, err)

	err = f.cart.SetQuantity(ctx, buyer, entry.ID, domain.MaxQuantity+1)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	require.NoError(t, f.cart.SetQuantity(ctx, buyer, entry.ID, domain.MaxQuantity))
	_, err = f.cart.AddOrIncrement(ctx, buyer, p.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	lines, err := f.cart.List(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, domain.MaxQuantity, lines[0].Quantity)
}

func TestSetQuantity_NonPositiveRemoves(t *testing.T) {
	for _, qty := range []int{0, -3} {
		f := newFixture(t)
		ctx := context.Background()
		buyer := f.user(t, "buyer@example.com")
		p := f.product(t, buyer, "Chair", "30", "0")

		entry, err := f.cart.AddOrIncrement(ctx, buyer, p.ID)
		require.NoError(t, err)

		require.NoError(t, f.cart.SetQuantity(ctx, buyer, entry.ID, qty))

		lines, err := f.cart.List(ctx, buyer)
		require.NoError(t, err)
		assert.Empty(t, lines)
	}
}

func TestSetQuantity_RequiresOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	intruder := f.user(t, "intruder@example.com")
	p := f.product(t, owner, "Chair", "30", "0")

	entry, err := f.cart.AddOrIncrement(ctx, owner, p.ID)
	require.NoError(t, err)

	err = f.cart.SetQuantity(ctx, intruder, entry.ID, 9)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	err = f.cart.SetQuantity(ctx, intruder, entry.ID, 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, f.cart.SetQuantity(ctx, owner, entry.ID, 4))
	lines, err := f.cart.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 4, lines[0].Quantity)
}

func TestRemove_AbsentProductIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.user(t, "buyer@example.com")
	p := f.product(t, buyer, "Chair", "30", "0")

	assert.NoError(t, f.cart.Remove(ctx, buyer, p.ID))
	assert.NoError(t, f.cart.Remove(ctx, buyer, 12345))

	f.add(t, buyer, p.ID, 3)
	require.NoError(t, f.cart.Remove(ctx, buyer, p.ID))

	lines, err := f.cart.List(ctx, buyer)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCart_TotalAndOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.user(t, "buyer@example.com")
	b := f.product(t, buyer, "B", "50", "0")
	a := f.product(t, buyer, "A", "100", "10")
	f.add(t, buyer, b.ID, 1)
	f.add(t, buyer, a.ID, 2)

	cart, err := f.cart.Cart(ctx, buyer)
	require.NoError(t, err)

	requireMoney(t, "230", cart.Total)
	require.Len(t, cart.Lines, 2)
	assert.Equal(t, b.ID, cart.Lines[0].ProductID)
	assert.Equal(t, a.ID, cart.Lines[1].ProductID)
	requireMoney(t, "90", cart.Lines[1].UnitPrice())
}

func TestCart_EmptyCartHasZeroTotal(t *testing.T) {
	f := newFixture(t)
	buyer := f.user(t, "buyer@example.com")

	cart, err := f.cart.Cart(context.Background(), buyer)
	require.NoError(t, err)
	assert.NotNil(t, cart.Lines)
	assert.True(t, cart.Total.IsZero())
}

func TestCartService_Unauthenticated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.cart.AddOrIncrement(ctx, 0, 1)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.ErrorIs(t, f.cart.SetQuantity(ctx, 0, 1, 1), domain.ErrUnauthenticated)
	assert.ErrorIs(t, f.cart.Remove(ctx, 0, 1), domain.ErrUnauthenticated)
	_, err = f.cart.List(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestCartService_StorageError(t *testing.T) {
	f := newFixture(t)
	buyer := f.user(t, "buyer@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.cart.List(ctx, buyer)
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.ErrorIs(t, err, context.Canceled)
}
