package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newComposite(t *testing.T, balances ...float64) *CompositeAccount {
	t.Helper()
	logger := zap.NewNop()
	c := NewCompositeAccount(100, "COM100", logger)
	for i, b := range balances {
		c.Add(NewSavingsAccount(int64(i+1), GenerateNumber(TypeSavings), dec(b), logger))
	}
	return c
}

func TestComposite_BalanceSumsChildren(t *testing.T) {
	c := newComposite(t, 30, 20)

	assert.True(t, c.Balance().Equal(dec(50)))
	assert.Equal(t, "COMPOSITE", c.Type())
	assert.Len(t, c.Children(), 2)
}

func TestComposite_WithdrawDrainsInOrder(t *testing.T) {
	c := newComposite(t, 30, 20)

	// Act: 45 drains the first child fully and takes 15 from the second
	require.NoError(t, c.Withdraw(dec(45)))

	children := c.Children()
	assert.True(t, children[0].Balance().Equal(dec(0)), "first child = %s", children[0].Balance())
	assert.True(t, children[1].Balance().Equal(dec(5)), "second child = %s", children[1].Balance())
	assert.True(t, c.Balance().Equal(dec(5)))
}

func TestComposite_WithdrawExceedingTotal(t *testing.T) {
	c := newComposite(t, 30, 20)

	err := c.Withdraw(dec(51))

	var insufficient *InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Available.Equal(dec(50)))
	// nothing debited on an upfront rejection
	assert.True(t, c.Balance().Equal(dec(50)))
}

func TestComposite_DepositGoesToFirstChild(t *testing.T) {
	c := newComposite(t, 10, 10)

	require.NoError(t, c.Deposit(dec(50)))

	children := c.Children()
	assert.True(t, children[0].Balance().Equal(dec(60)))
	assert.True(t, children[1].Balance().Equal(dec(10)))
}

func TestComposite_EmptyMutationsRejected(t *testing.T) {
	c := NewCompositeAccount(100, "COM100", zap.NewNop())

	assert.ErrorIs(t, c.Deposit(dec(10)), ErrEmptyComposite)
	assert.ErrorIs(t, c.Withdraw(dec(10)), ErrEmptyComposite)
	assert.True(t, c.Balance().Equal(decimal.Zero))
}

func TestComposite_RemoveChild(t *testing.T) {
	logger := zap.NewNop()
	c := NewCompositeAccount(100, "COM100", logger)
	first := NewSavingsAccount(1, "SAV1", dec(30), logger)
	second := NewSavingsAccount(2, "SAV2", dec(20), logger)
	c.Add(first)
	c.Add(second)

	c.Remove(first)

	assert.Len(t, c.Children(), 1)
	assert.True(t, c.Balance().Equal(dec(20)))

	// removing an unknown child is a no-op
	c.Remove(first)
	assert.Len(t, c.Children(), 1)
}

func TestComposite_NestedComposite(t *testing.T) {
	logger := zap.NewNop()
	inner := NewCompositeAccount(200, "COM200", logger)
	inner.Add(NewSavingsAccount(1, "SAV1", dec(15), logger))

	outer := NewCompositeAccount(100, "COM100", logger)
	outer.Add(inner)
	outer.Add(NewSavingsAccount(2, "SAV2", dec(5), logger))

	assert.True(t, outer.Balance().Equal(dec(20)))
	require.NoError(t, outer.Withdraw(dec(18)))
	assert.True(t, inner.Balance().Equal(decimal.Zero))
	assert.True(t, outer.Balance().Equal(dec(2)))
}

func TestChildrenOf(t *testing.T) {
	logger := zap.NewNop()
	leaf := NewSavingsAccount(1, "SAV1", dec(10), logger)
	c := newComposite(t, 10)

	assert.Nil(t, ChildrenOf(leaf))
	assert.Len(t, ChildrenOf(c), 1)
}
