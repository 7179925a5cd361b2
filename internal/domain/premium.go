package domain

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	premiumMonthlyFee = 10
	premiumBonusRate  = 0.01
)

// PremiumServiceDecorator credits a bonus on every deposit. The bonus lands
// as a second deposit on the wrapped account, so it shows up as its own
// ledger entry.
type PremiumServiceDecorator struct {
	AccountDecorator
	monthlyFee decimal.Decimal
	bonusRate  decimal.Decimal
	logger     *zap.Logger
}

func NewPremiumServiceDecorator(account Account, logger *zap.Logger) *PremiumServiceDecorator {
	return &PremiumServiceDecorator{
		AccountDecorator: AccountDecorator{wrapped: account},
		monthlyFee:       decimal.NewFromInt(premiumMonthlyFee),
		bonusRate:        decimal.NewFromFloat(premiumBonusRate),
		logger:           logger,
	}
}

func (d *PremiumServiceDecorator) Deposit(amount decimal.Decimal) error {
	if err := d.wrapped.Deposit(amount); err != nil {
		return err
	}
	bonus := amount.Mul(d.bonusRate)
	d.logger.Info("premium deposit bonus credited",
		zap.String("account", d.wrapped.Number()),
		zap.String("bonus", bonus.String()),
	)
	return d.wrapped.Deposit(bonus)
}

// ChargeMonthlyFee withdraws the flat premium fee from the wrapped account.
func (d *PremiumServiceDecorator) ChargeMonthlyFee() error {
	d.logger.Info("charging premium monthly fee",
		zap.String("account", d.wrapped.Number()),
		zap.String("fee", d.monthlyFee.String()),
	)
	return d.wrapped.Withdraw(d.monthlyFee)
}

func (d *PremiumServiceDecorator) Type() string {
	return d.wrapped.Type() + " (Premium)"
}
