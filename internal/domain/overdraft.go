package domain

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const OverdraftLimit = 1000

// overdraftFeeRate is charged on the portion of a withdrawal that dips into
// the overdraft.
const overdraftFeeRate = 0.05

// OverdraftProtectionDecorator lets withdrawals exceed the balance up to a
// fixed limit, charging a fee on the overdrawn portion.
type OverdraftProtectionDecorator struct {
	AccountDecorator
	limit   decimal.Decimal
	feeRate decimal.Decimal
	logger  *zap.Logger
}

func NewOverdraftProtectionDecorator(account Account, logger *zap.Logger) *OverdraftProtectionDecorator {
	return &OverdraftProtectionDecorator{
		AccountDecorator: AccountDecorator{wrapped: account},
		limit:            decimal.NewFromInt(OverdraftLimit),
		feeRate:          decimal.NewFromFloat(overdraftFeeRate),
		logger:           logger,
	}
}

func (d *OverdraftProtectionDecorator) Withdraw(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	balance := d.wrapped.Balance()
	available := balance.Add(d.limit)
	if amount.GreaterThan(available) {
		return &InsufficientFundsError{Available: available, Requested: amount}
	}

	if amount.GreaterThan(balance) {
		overdrawn := amount.Sub(balance)
		fee := overdrawn.Mul(d.feeRate)
		d.logger.Info("overdraft protection engaged",
			zap.String("account", d.wrapped.Number()),
			zap.String("overdrawn", overdrawn.String()),
			zap.String("fee", fee.String()),
		)
		return d.wrapped.Withdraw(amount.Add(fee))
	}
	return d.wrapped.Withdraw(amount)
}

// AvailableBalance is the balance plus the overdraft limit.
func (d *OverdraftProtectionDecorator) AvailableBalance() decimal.Decimal {
	return d.wrapped.Balance().Add(d.limit)
}

func (d *OverdraftProtectionDecorator) Type() string {
	return d.wrapped.Type() + " (Overdraft Protected)"
}
