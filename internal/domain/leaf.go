package domain

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SavingsAccount is the strict leaf: withdrawals may not exceed the balance.
type SavingsAccount struct {
	baseAccount
}

func NewSavingsAccount(id int64, number string, balance decimal.Decimal, logger *zap.Logger) *SavingsAccount {
	return &SavingsAccount{baseAccount{id: id, number: number, balance: balance, typ: TypeSavings, logger: logger}}
}

func (a *SavingsAccount) Deposit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	a.balance = a.balance.Add(amount)
	a.logger.Info("deposit applied",
		zap.String("account", a.number),
		zap.String("amount", amount.String()),
		zap.String("balance", a.balance.String()),
	)
	return nil
}

func (a *SavingsAccount) Withdraw(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if a.balance.LessThan(amount) {
		return &InsufficientFundsError{Available: a.balance, Requested: amount}
	}
	a.balance = a.balance.Sub(amount)
	a.logger.Info("withdrawal applied",
		zap.String("account", a.number),
		zap.String("amount", amount.String()),
		zap.String("balance", a.balance.String()),
	)
	return nil
}

// CanWithdraw reports whether the balance covers the amount.
func (a *SavingsAccount) CanWithdraw(amount decimal.Decimal) bool {
	return a.balance.GreaterThanOrEqual(amount)
}

// CheckingAccount is the permissive leaf: the balance may go negative, so an
// overdraft decorator can police limits and fees on top of it. Loan and
// investment accounts reuse this behavior with their own type tag.
type CheckingAccount struct {
	baseAccount
}

func NewCheckingAccount(id int64, number string, balance decimal.Decimal, typ Type, logger *zap.Logger) *CheckingAccount {
	return &CheckingAccount{baseAccount{id: id, number: number, balance: balance, typ: typ, logger: logger}}
}

func (a *CheckingAccount) Deposit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	a.balance = a.balance.Add(amount)
	a.logger.Info("deposit applied",
		zap.String("account", a.number),
		zap.String("amount", amount.String()),
		zap.String("balance", a.balance.String()),
	)
	return nil
}

func (a *CheckingAccount) Withdraw(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	a.balance = a.balance.Sub(amount)
	a.logger.Info("withdrawal applied",
		zap.String("account", a.number),
		zap.String("amount", amount.String()),
		zap.String("balance", a.balance.String()),
	)
	return nil
}
