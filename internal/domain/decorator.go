package domain

import "github.com/shopspring/decimal"

// AccountDecorator is the embeddable delegation base for feature decorators.
// It forwards the full Account capability set to the wrapped account;
// concrete decorators override only the methods their feature changes.
type AccountDecorator struct {
	wrapped Account
}

func (d *AccountDecorator) ID() int64                { return d.wrapped.ID() }
func (d *AccountDecorator) Number() string           { return d.wrapped.Number() }
func (d *AccountDecorator) Balance() decimal.Decimal { return d.wrapped.Balance() }
func (d *AccountDecorator) Type() string             { return d.wrapped.Type() }

func (d *AccountDecorator) Deposit(amount decimal.Decimal) error {
	return d.wrapped.Deposit(amount)
}

func (d *AccountDecorator) Withdraw(amount decimal.Decimal) error {
	return d.wrapped.Withdraw(amount)
}

// Children forwards the composite capability through the decorator chain;
// wrapping a leaf yields nil.
func (d *AccountDecorator) Children() []Account {
	return ChildrenOf(d.wrapped)
}
