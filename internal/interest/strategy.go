package interest

import (
	"math/rand"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Strategy is a stateless interest policy keyed off the account type by the
// Calculator registry.
type Strategy interface {
	// CalculateInterest maps (balance, days) to an interest amount. Negative
	// results are charges.
	CalculateInterest(balance decimal.Decimal, days int) decimal.Decimal
	AnnualRate() float64
	Name() string
}

// prorate applies balance * (rate/12) * (days/30).
func prorate(balance decimal.Decimal, annualRate float64, days int) decimal.Decimal {
	factor := annualRate / 12 * float64(days) / 30
	return balance.Mul(decimal.NewFromFloat(factor))
}

// SavingsStrategy pays 2% APY on positive balances.
type SavingsStrategy struct {
	logger *zap.Logger
}

func NewSavingsStrategy(logger *zap.Logger) *SavingsStrategy {
	return &SavingsStrategy{logger: logger}
}

func (s *SavingsStrategy) CalculateInterest(balance decimal.Decimal, days int) decimal.Decimal {
	if balance.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	interest := prorate(balance, s.AnnualRate(), days)
	s.logger.Info("savings interest calculated",
		zap.String("balance", balance.String()),
		zap.Int("days", days),
		zap.String("interest", interest.String()),
	)
	return interest
}

func (s *SavingsStrategy) AnnualRate() float64 { return 0.02 }
func (s *SavingsStrategy) Name() string        { return "Savings Interest Strategy (2% APY)" }

// CheckingStrategy pays 0.1% APY on positive balances.
type CheckingStrategy struct {
	logger *zap.Logger
}

func NewCheckingStrategy(logger *zap.Logger) *CheckingStrategy {
	return &CheckingStrategy{logger: logger}
}

func (s *CheckingStrategy) CalculateInterest(balance decimal.Decimal, days int) decimal.Decimal {
	if balance.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	interest := prorate(balance, s.AnnualRate(), days)
	s.logger.Info("checking interest calculated",
		zap.String("balance", balance.String()),
		zap.Int("days", days),
		zap.String("interest", interest.String()),
	)
	return interest
}

func (s *CheckingStrategy) AnnualRate() float64 { return 0.001 }
func (s *CheckingStrategy) Name() string        { return "Checking Interest Strategy (0.1% APY)" }

// LoanStrategy charges 5% APR on the outstanding debt. The result is
// negative to mark it as a charge; a non-positive debt yields zero.
type LoanStrategy struct {
	logger *zap.Logger
}

func NewLoanStrategy(logger *zap.Logger) *LoanStrategy {
	return &LoanStrategy{logger: logger}
}

func (s *LoanStrategy) CalculateInterest(balance decimal.Decimal, days int) decimal.Decimal {
	debt := balance.Abs()
	if debt.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	interest := prorate(debt, s.AnnualRate(), days)
	s.logger.Info("loan interest charged",
		zap.String("debt", debt.String()),
		zap.Int("days", days),
		zap.String("interest", interest.String()),
	)
	return interest.Neg()
}

func (s *LoanStrategy) AnnualRate() float64 { return 0.05 }
func (s *LoanStrategy) Name() string        { return "Loan Interest Strategy (5% APR - Charged)" }

// VolatilitySource yields a market perturbation in [-0.02, 0.02]. Injectable
// so tests can pin the rate.
type VolatilitySource func() float64

// DefaultVolatility samples uniformly from plus or minus 2%.
func DefaultVolatility() float64 {
	return (rand.Float64() - 0.5) * 0.04
}

// InvestmentStrategy pays a 7% base APY perturbed by a sampled volatility
// term, so two runs over the same balance may differ.
type InvestmentStrategy struct {
	volatility VolatilitySource
	logger     *zap.Logger
}

func NewInvestmentStrategy(volatility VolatilitySource, logger *zap.Logger) *InvestmentStrategy {
	if volatility == nil {
		volatility = DefaultVolatility
	}
	return &InvestmentStrategy{volatility: volatility, logger: logger}
}

func (s *InvestmentStrategy) CalculateInterest(balance decimal.Decimal, days int) decimal.Decimal {
	if balance.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	volatility := s.volatility()
	effectiveRate := s.AnnualRate() + volatility
	interest := prorate(balance, effectiveRate, days)
	s.logger.Info("investment interest calculated",
		zap.String("balance", balance.String()),
		zap.Int("days", days),
		zap.Float64("volatility", volatility),
		zap.Float64("effective_rate", effectiveRate),
		zap.String("interest", interest.String()),
	)
	return interest
}

func (s *InvestmentStrategy) AnnualRate() float64 { return 0.07 }
func (s *InvestmentStrategy) Name() string {
	return "Investment Interest Strategy (7% APY with volatility)"
}
