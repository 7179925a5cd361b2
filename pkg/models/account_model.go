package models

import (
	"time"

	"github.com/accountforge/account-service/pkg"
	"github.com/shopspring/decimal"
)

// Account maps to table `accounts`
type Account struct {
	ID        int64
	OwnerID   int64
	Number    string
	Type      string
	Balance   decimal.Decimal
	State     pkg.AccountState
	ParentID  *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
