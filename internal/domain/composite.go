package domain

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CompositeAccount aggregates other accounts. Its balance is the sum of its
// children's balances, recomputed on every read and never persisted as its
// own row.
type CompositeAccount struct {
	id       int64
	number   string
	children []Account
	logger   *zap.Logger
}

func NewCompositeAccount(id int64, number string, logger *zap.Logger) *CompositeAccount {
	return &CompositeAccount{id: id, number: number, logger: logger}
}

func (c *CompositeAccount) ID() int64      { return c.id }
func (c *CompositeAccount) Number() string { return c.number }
func (c *CompositeAccount) Type() string   { return string(TypeComposite) }

// Add appends a child; sequence order determines withdrawal drain order.
func (c *CompositeAccount) Add(account Account) {
	c.children = append(c.children, account)
	c.logger.Info("child added to composite",
		zap.String("composite", c.number),
		zap.String("child", account.Number()),
		zap.String("child_balance", account.Balance().String()),
	)
}

// Remove detaches a child by id; unknown ids are ignored.
func (c *CompositeAccount) Remove(account Account) {
	for i, child := range c.children {
		if child.ID() == account.ID() {
			c.children = append(c.children[:i], c.children[i+1:]...)
			c.logger.Info("child removed from composite",
				zap.String("composite", c.number),
				zap.String("child", child.Number()),
			)
			return
		}
	}
	c.logger.Info("child not found in composite", zap.String("composite", c.number))
}

func (c *CompositeAccount) Children() []Account { return c.children }

// Balance sums the children's balances on demand.
func (c *CompositeAccount) Balance() decimal.Decimal {
	total := decimal.Zero
	for _, child := range c.children {
		total = total.Add(child.Balance())
	}
	return total
}

// Deposit routes the entire amount to the first child.
func (c *CompositeAccount) Deposit(amount decimal.Decimal) error {
	if len(c.children) == 0 {
		return ErrEmptyComposite
	}
	if err := c.children[0].Deposit(amount); err != nil {
		return err
	}
	c.logger.Info("composite deposit complete",
		zap.String("composite", c.number),
		zap.String("amount", amount.String()),
		zap.String("balance", c.Balance().String()),
	)
	return nil
}

// Withdraw drains children in sequence order, taking min(remaining,
// childBalance) from each. Children debited before a late failure stay
// debited; there is no rollback.
func (c *CompositeAccount) Withdraw(amount decimal.Decimal) error {
	if len(c.children) == 0 {
		return ErrEmptyComposite
	}
	total := c.Balance()
	if total.LessThan(amount) {
		return &InsufficientFundsError{Available: total, Requested: amount}
	}

	remaining := amount
	for _, child := range c.children {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		toWithdraw := decimal.Min(remaining, child.Balance())
		if toWithdraw.GreaterThan(decimal.Zero) {
			if err := child.Withdraw(toWithdraw); err != nil {
				return err
			}
			remaining = remaining.Sub(toWithdraw)
		}
	}

	if remaining.GreaterThan(decimal.Zero) {
		return &PartialWithdrawalError{Remaining: remaining}
	}
	c.logger.Info("composite withdrawal complete",
		zap.String("composite", c.number),
		zap.String("amount", amount.String()),
		zap.String("balance", c.Balance().String()),
	)
	return nil
}
