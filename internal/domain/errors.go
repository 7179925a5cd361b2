package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount rejects non-positive deposit/withdrawal amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrEmptyComposite rejects mutations on a composite with no children.
	ErrEmptyComposite = errors.New("composite account has no child accounts")
)

// InsufficientFundsError reports a withdrawal exceeding the available
// balance, accounting for the overdraft limit where one applies.
type InsufficientFundsError struct {
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: available %s, requested %s", e.Available, e.Requested)
}

// PartialWithdrawalError reports a composite withdrawal that could not be
// fully satisfied across children. Children debited before the failure stay
// debited; there is no compensating transaction.
type PartialWithdrawalError struct {
	Remaining decimal.Decimal
}

func (e *PartialWithdrawalError) Error() string {
	return fmt.Sprintf("failed to withdraw full amount, still need %s", e.Remaining)
}
