package domain

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Type tags the concrete account variants stored in the accounts table.
type Type string

const (
	TypeSavings    Type = "SAVINGS"
	TypeChecking   Type = "CHECKING"
	TypeLoan       Type = "LOAN"
	TypeInvestment Type = "INVESTMENT"
	TypeComposite  Type = "COMPOSITE"
)

// Account is the polymorphic capability set shared by leaf accounts,
// composites, and feature decorators. Balances mutate in memory only;
// persistence is the repository's job.
type Account interface {
	ID() int64
	Number() string
	Balance() decimal.Decimal
	Type() string
	Deposit(amount decimal.Decimal) error
	Withdraw(amount decimal.Decimal) error
}

// Parent is the optional capability that distinguishes a composite from a
// leaf. Leaves do not implement it; decorators forward it to whatever they
// wrap.
type Parent interface {
	Children() []Account
}

// ChildrenOf returns the child accounts if acc exposes them, nil otherwise.
func ChildrenOf(acc Account) []Account {
	if p, ok := acc.(Parent); ok {
		return p.Children()
	}
	return nil
}

// baseAccount carries the identity shared by every leaf variant.
type baseAccount struct {
	id      int64
	number  string
	balance decimal.Decimal
	typ     Type
	logger  *zap.Logger
}

func (a *baseAccount) ID() int64                { return a.id }
func (a *baseAccount) Number() string           { return a.number }
func (a *baseAccount) Balance() decimal.Decimal { return a.balance }
func (a *baseAccount) Type() string             { return string(a.typ) }

// NewLeaf materializes a leaf account for the given stored type. Savings
// accounts enforce the strict insufficient-funds check; checking, loan and
// investment accounts share the permissive leaf behavior (overdraft allowed,
// the decorator layer adds limits and fees).
func NewLeaf(id int64, number string, balance decimal.Decimal, typ Type, logger *zap.Logger) (Account, error) {
	switch typ {
	case TypeSavings:
		return NewSavingsAccount(id, number, balance, logger), nil
	case TypeChecking, TypeLoan, TypeInvestment:
		return NewCheckingAccount(id, number, balance, typ, logger), nil
	default:
		return nil, fmt.Errorf("unknown account type: %s", typ)
	}
}

// GenerateNumber builds an account number as
// <3-letter-type-prefix><unix-millis><random 0-999>.
func GenerateNumber(typ Type) string {
	prefix := string(typ)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	return fmt.Sprintf("%s%d%d", prefix, time.Now().UnixMilli(), rand.Intn(1000))
}
