package domain

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	insuranceMonthlyFee    = 5
	insuranceCoverageLimit = 100000
	// largeWithdrawalThreshold triggers the monitoring log line.
	largeWithdrawalThreshold = 10000
)

// InsuranceDecorator monitors large withdrawals and accepts claims up to the
// coverage limit. Verification is simulated as always approved, so the
// withdrawal itself passes through unchanged.
type InsuranceDecorator struct {
	AccountDecorator
	monthlyFee    decimal.Decimal
	coverageLimit decimal.Decimal
	logger        *zap.Logger
}

func NewInsuranceDecorator(account Account, logger *zap.Logger) *InsuranceDecorator {
	return &InsuranceDecorator{
		AccountDecorator: AccountDecorator{wrapped: account},
		monthlyFee:       decimal.NewFromInt(insuranceMonthlyFee),
		coverageLimit:    decimal.NewFromInt(insuranceCoverageLimit),
		logger:           logger,
	}
}

func (d *InsuranceDecorator) Withdraw(amount decimal.Decimal) error {
	if amount.GreaterThan(decimal.NewFromInt(largeWithdrawalThreshold)) {
		d.logger.Info("large withdrawal detected, insurance monitoring active",
			zap.String("account", d.wrapped.Number()),
			zap.String("amount", amount.String()),
			zap.Bool("verification_approved", true),
		)
	}
	return d.wrapped.Withdraw(amount)
}

// ChargeMonthlyFee withdraws the flat insurance fee from the wrapped account.
func (d *InsuranceDecorator) ChargeMonthlyFee() error {
	d.logger.Info("charging insurance monthly fee",
		zap.String("account", d.wrapped.Number()),
		zap.String("fee", d.monthlyFee.String()),
	)
	return d.wrapped.Withdraw(d.monthlyFee)
}

// FileClaim accepts claims up to the coverage limit. Filing never mutates the
// balance.
func (d *InsuranceDecorator) FileClaim(amount decimal.Decimal, reason string) bool {
	if amount.GreaterThan(d.coverageLimit) {
		d.logger.Warn("claim exceeds coverage limit",
			zap.String("account", d.wrapped.Number()),
			zap.String("amount", amount.String()),
			zap.String("coverage_limit", d.coverageLimit.String()),
		)
		return false
	}
	d.logger.Info("insurance claim filed",
		zap.String("account", d.wrapped.Number()),
		zap.String("amount", amount.String()),
		zap.String("reason", reason),
		zap.String("status", "under review"),
	)
	return true
}

func (d *InsuranceDecorator) Type() string {
	return d.wrapped.Type() + " (Insured)"
}
