package views

import (
	"time"

	"github.com/accountforge/account-service/pkg"
	"github.com/shopspring/decimal"
)

// Requests

type CreateAccountRequest struct {
	OwnerID     int64  `json:"ownerId" binding:"required,min=1"`
	AccountType string `json:"accountType" binding:"required,oneof=SAVINGS CHECKING LOAN INVESTMENT"`
}

type CreateCompositeRequest struct {
	OwnerID         int64   `json:"ownerId" binding:"required,min=1"`
	ChildAccountIDs []int64 `json:"childAccountIds" binding:"required,min=1,dive,min=1"`
}

type TransactionRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

type AddFeatureRequest struct {
	FeatureName string `json:"featureName" binding:"required,oneof=OVERDRAFT PREMIUM INSURANCE"`
}

type ApplyInterestRequest struct {
	Days int `json:"days" binding:"omitempty,min=1"`
}

// Responses

type AccountResponse struct {
	ID            int64           `json:"id"`
	OwnerID       int64           `json:"ownerId"`
	AccountNumber string          `json:"accountNumber"`
	AccountType   string          `json:"accountType"`
	Balance       decimal.Decimal `json:"balance"`
	State         string          `json:"state"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type ChildBalance struct {
	ID            int64           `json:"id"`
	AccountNumber string          `json:"accountNumber"`
	Balance       decimal.Decimal `json:"balance"`
	AccountType   string          `json:"accountType"`
}

type BalanceResponse struct {
	AccountID     int64           `json:"accountId"`
	AccountNumber string          `json:"accountNumber"`
	Balance       decimal.Decimal `json:"balance"`
	AccountType   string          `json:"accountType"`
	Children      []ChildBalance  `json:"children"`
}

type TransactionResponse struct {
	AccountNumber string          `json:"accountNumber"`
	AccountType   string          `json:"accountType"`
	NewBalance    decimal.Decimal `json:"newBalance"`
}

type FeatureResponse struct {
	MapID     int64  `json:"mapId"`
	AccountID int64  `json:"accountId"`
	Feature   string `json:"feature"`
}

type InterestResponse struct {
	AccountID     int64           `json:"accountId"`
	AccountNumber string          `json:"accountNumber"`
	AccountType   string          `json:"accountType"`
	Days          int             `json:"days"`
	Interest      decimal.Decimal `json:"interest"`
	NewBalance    decimal.Decimal `json:"newBalance"`
}

type InterestRunResponse struct {
	Applied []InterestResponse `json:"applied"`
	Skipped int                `json:"skipped"`
}

type RateResponse struct {
	AccountID   int64   `json:"accountId"`
	AccountType string  `json:"accountType"`
	AnnualRate  float64 `json:"annualRate"`
}

// TransactionEvent is the audit record published to Kafka after a successful
// balance mutation.
type TransactionEvent struct {
	TraceID       string                   `json:"traceId"`
	EventType     pkg.TransactionEventType `json:"eventType"`
	AccountID     int64                    `json:"accountId"`
	AccountNumber string                   `json:"accountNumber"`
	Amount        decimal.Decimal          `json:"amount"`
	NewBalance    decimal.Decimal          `json:"newBalance"`
	OccurredAt    time.Time                `json:"occurredAt"`
}
