package pkg

const (
	HeaderTraceId   string = "X-Trace-Id"
	HeaderRequestId string = "X-Request-Id"
)

const (
	TraceId   string = "trace_id"
	RequestId string = "request_id"
)

type AccountState string

const (
	AccountStateActive AccountState = "ACTIVE"
	AccountStateFrozen AccountState = "FROZEN"
	AccountStateClosed AccountState = "CLOSED"
)

type FeatureName string

const (
	FeatureOverdraft FeatureName = "OVERDRAFT"
	FeaturePremium   FeatureName = "PREMIUM"
	FeatureInsurance FeatureName = "INSURANCE"
)

// TransactionEventType labels the audit events published after balance mutations.
type TransactionEventType string

const (
	EventDeposit  TransactionEventType = "deposit"
	EventWithdraw TransactionEventType = "withdraw"
	EventInterest TransactionEventType = "interest"
)
