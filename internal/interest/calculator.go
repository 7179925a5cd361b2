package interest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/accountforge/account-service/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultDays is the accrual window assumed when a caller does not supply one.
const DefaultDays = 30

// ErrUnsupportedStrategy is returned when no policy is registered for an
// account type.
var ErrUnsupportedStrategy = errors.New("no interest strategy registered")

// Calculator dispatches interest calculations to the strategy registered for
// an account type. Strategies may be swapped at runtime via SetStrategy.
type Calculator struct {
	mu         sync.RWMutex
	strategies map[domain.Type]Strategy
	logger     *zap.Logger
}

// NewCalculator registers the four built-in strategies. The volatility
// source feeds the investment strategy; pass nil for the default sampler.
func NewCalculator(volatility VolatilitySource, logger *zap.Logger) *Calculator {
	return &Calculator{
		strategies: map[domain.Type]Strategy{
			domain.TypeSavings:    NewSavingsStrategy(logger),
			domain.TypeChecking:   NewCheckingStrategy(logger),
			domain.TypeLoan:       NewLoanStrategy(logger),
			domain.TypeInvestment: NewInvestmentStrategy(volatility, logger),
		},
		logger: logger,
	}
}

func (c *Calculator) strategyFor(typ domain.Type) (Strategy, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	strategy, ok := c.strategies[typ]
	if !ok {
		return nil, fmt.Errorf("%w for account type %s", ErrUnsupportedStrategy, typ)
	}
	return strategy, nil
}

// CalculateInterest runs the registered strategy for the type.
func (c *Calculator) CalculateInterest(typ domain.Type, balance decimal.Decimal, days int) (decimal.Decimal, error) {
	strategy, err := c.strategyFor(typ)
	if err != nil {
		return decimal.Zero, err
	}
	c.logger.Info("using interest strategy", zap.String("strategy", strategy.Name()))
	return strategy.CalculateInterest(balance, days), nil
}

// AnnualRate returns the nominal annual rate for the type.
func (c *Calculator) AnnualRate(typ domain.Type) (float64, error) {
	strategy, err := c.strategyFor(typ)
	if err != nil {
		return 0, err
	}
	return strategy.AnnualRate(), nil
}

// SetStrategy swaps the policy for a type at runtime.
func (c *Calculator) SetStrategy(typ domain.Type, strategy Strategy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger.Info("interest strategy changed",
		zap.String("account_type", string(typ)),
		zap.String("strategy", strategy.Name()),
	)
	c.strategies[typ] = strategy
}

// CompareReturns runs every registered strategy against the same balance and
// days, keyed by account type.
func (c *Calculator) CompareReturns(balance decimal.Decimal, days int) map[domain.Type]decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	results := make(map[domain.Type]decimal.Decimal, len(c.strategies))
	for typ, strategy := range c.strategies {
		results[typ] = strategy.CalculateInterest(balance, days)
	}
	return results
}
