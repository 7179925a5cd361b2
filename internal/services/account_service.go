package services

import (
	"context"
	"errors"
	"time"

	"github.com/accountforge/account-service/internal/domain"
	"github.com/accountforge/account-service/internal/interest"
	"github.com/accountforge/account-service/internal/observability"
	"github.com/accountforge/account-service/internal/views"
	"github.com/accountforge/account-service/pkg"
	"github.com/accountforge/account-service/pkg/database"
	"github.com/accountforge/account-service/pkg/models"
	"github.com/accountforge/account-service/pkg/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RateLimiter gates balance mutations; pkg.DistributedLimiter satisfies it.
type RateLimiter interface {
	Allow(ctx context.Context) bool
}

// AccountService coordinates the load, mutate, persist sequence over the
// domain model. No in-process lock spans the sequence; two concurrent
// requests against the same account can interleave, bounded only by the
// per-update guarantee of storage.
type AccountService interface {
	CreateAccount(ctx context.Context, traceID string, ownerID int64, typ domain.Type) (views.AccountResponse, error)
	CreateComposite(ctx context.Context, traceID string, ownerID int64, childIDs []int64) (views.AccountResponse, error)
	GetBalance(ctx context.Context, traceID string, accountID int64) (views.BalanceResponse, error)
	Deposit(ctx context.Context, traceID string, accountID int64, amount decimal.Decimal, withFeatures bool) (views.TransactionResponse, error)
	Withdraw(ctx context.Context, traceID string, accountID int64, amount decimal.Decimal, withFeatures bool) (views.TransactionResponse, error)
	AddFeature(ctx context.Context, traceID string, accountID int64, name pkg.FeatureName) (views.FeatureResponse, error)
	RemoveFeature(ctx context.Context, traceID string, accountID int64, name pkg.FeatureName) error
	DescribeWithFeatures(ctx context.Context, traceID string, accountID int64) (views.BalanceResponse, error)
	ApplyInterest(ctx context.Context, traceID string, accountID int64, days int) (views.InterestResponse, error)
	ApplyInterestToAll(ctx context.Context, traceID string, days int) (views.InterestRunResponse, error)
	InterestRate(ctx context.Context, traceID string, accountID int64) (views.RateResponse, error)
	CompareInterest(traceID string, balance decimal.Decimal, days int) map[string]decimal.Decimal
}

// AccountServiceConfig bundles the service dependencies.
type AccountServiceConfig struct {
	Logger      *zap.Logger
	DB          *database.DB
	AccountRepo repositories.AccountRepository
	FeatureRepo repositories.FeatureRepository
	Calculator  *interest.Calculator
	Publisher   EventPublisher
	Limiter     RateLimiter // optional; nil means unlimited
}

type AccountServiceImpl struct {
	logger      *zap.Logger
	db          *database.DB
	accountRepo repositories.AccountRepository
	featureRepo repositories.FeatureRepository
	calculator  *interest.Calculator
	publisher   EventPublisher
	limiter     RateLimiter
}

func NewAccountService(cnf AccountServiceConfig) AccountService {
	return &AccountServiceImpl{
		logger:      cnf.Logger,
		db:          cnf.DB,
		accountRepo: cnf.AccountRepo,
		featureRepo: cnf.FeatureRepo,
		calculator:  cnf.Calculator,
		publisher:   cnf.Publisher,
		limiter:     cnf.Limiter,
	}
}

// mapDomainError wraps domain rule violations into AppError codes; anything
// else falls through to the SQL error mapper.
func (s *AccountServiceImpl) mapDomainError(traceID string, err error) error {
	var insufficient *domain.InsufficientFundsError
	var partial *domain.PartialWithdrawalError
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return pkg.NewAppError(pkg.ErrInvalidAmountCode, err.Error(), err)
	case errors.As(err, &insufficient):
		return pkg.NewAppError(pkg.ErrInsufficientFundsCode, err.Error(), err)
	case errors.Is(err, domain.ErrEmptyComposite):
		return pkg.NewAppError(pkg.ErrEmptyCompositeCode, err.Error(), err)
	case errors.As(err, &partial):
		return pkg.NewAppError(pkg.ErrPartialWithdrawalCode, err.Error(), err)
	case errors.Is(err, interest.ErrUnsupportedStrategy):
		return pkg.NewAppError(pkg.ErrUnsupportedStrategyCode, err.Error(), err)
	default:
		return pkg.HandleSQLError(traceID, s.logger, err)
	}
}

func toAccountResponse(row models.Account) views.AccountResponse {
	return views.AccountResponse{
		ID:            row.ID,
		OwnerID:       row.OwnerID,
		AccountNumber: row.Number,
		AccountType:   row.Type,
		Balance:       row.Balance,
		State:         string(row.State),
		CreatedAt:     row.CreatedAt,
	}
}

func (s *AccountServiceImpl) CreateAccount(ctx context.Context, traceID string, ownerID int64, typ domain.Type) (views.AccountResponse, error) {
	var row models.Account
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		row, err = s.accountRepo.Create(ctx, tx, ownerID, typ, nil)
		return err
	})
	if err != nil {
		return views.AccountResponse{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	s.logger.Info("account created",
		zap.String(pkg.TraceId, traceID),
		zap.Int64("owner_id", ownerID),
		zap.String("account_number", row.Number),
	)
	return toAccountResponse(row), nil
}

// CreateComposite creates the parent row and reparents the given children
// under it in one transaction. The parent row itself is typed SAVINGS; it
// only acts as a composite because children point at it.
func (s *AccountServiceImpl) CreateComposite(ctx context.Context, traceID string, ownerID int64, childIDs []int64) (views.AccountResponse, error) {
	var row models.Account
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		row, err = s.accountRepo.Create(ctx, tx, ownerID, domain.TypeSavings, nil)
		if err != nil {
			return err
		}
		return s.accountRepo.Reparent(ctx, tx, row.ID, childIDs)
	})
	if err != nil {
		return views.AccountResponse{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	s.logger.Info("composite account created",
		zap.String(pkg.TraceId, traceID),
		zap.String("account_number", row.Number),
		zap.Int("children", len(childIDs)),
	)
	return toAccountResponse(row), nil
}

func (s *AccountServiceImpl) GetBalance(ctx context.Context, traceID string, accountID int64) (views.BalanceResponse, error) {
	account, err := s.accountRepo.LoadWithChildren(ctx, accountID)
	if err != nil {
		return views.BalanceResponse{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	return describeAccount(accountID, account), nil
}

func describeAccount(accountID int64, account domain.Account) views.BalanceResponse {
	resp := views.BalanceResponse{
		AccountID:     accountID,
		AccountNumber: account.Number(),
		Balance:       account.Balance(),
		AccountType:   account.Type(),
		Children:      []views.ChildBalance{},
	}
	for _, child := range domain.ChildrenOf(account) {
		resp.Children = append(resp.Children, views.ChildBalance{
			ID:            child.ID(),
			AccountNumber: child.Number(),
			Balance:       child.Balance(),
			AccountType:   child.Type(),
		})
	}
	return resp
}

func (s *AccountServiceImpl) Deposit(ctx context.Context, traceID string, accountID int64, amount decimal.Decimal, withFeatures bool) (views.TransactionResponse, error) {
	return s.transact(ctx, traceID, accountID, amount, withFeatures, pkg.EventDeposit)
}

func (s *AccountServiceImpl) Withdraw(ctx context.Context, traceID string, accountID int64, amount decimal.Decimal, withFeatures bool) (views.TransactionResponse, error) {
	return s.transact(ctx, traceID, accountID, amount, withFeatures, pkg.EventWithdraw)
}

// transact runs the load, mutate, persist sequence for a deposit or
// withdrawal. When the mutated object exposes children, each child balance is
// persisted individually; the composite aggregate is never stored. A late
// persistence failure after earlier children were saved leaves the account
// inconsistent on purpose: there is no compensating transaction.
func (s *AccountServiceImpl) transact(ctx context.Context, traceID string, accountID int64, amount decimal.Decimal, withFeatures bool, kind pkg.TransactionEventType) (views.TransactionResponse, error) {
	if s.limiter != nil && !s.limiter.Allow(ctx) {
		return views.TransactionResponse{}, pkg.NewAppError(pkg.ErrRateLimitedCode, "too many transaction requests", pkg.ErrRateLimitExceeded)
	}

	var account domain.Account
	var err error
	if withFeatures {
		account, err = s.accountRepo.LoadWithFeatures(ctx, accountID)
	} else {
		account, err = s.accountRepo.LoadWithChildren(ctx, accountID)
	}
	if err != nil {
		return views.TransactionResponse{}, pkg.HandleSQLError(traceID, s.logger, err)
	}

	switch kind {
	case pkg.EventDeposit:
		err = account.Deposit(amount)
	default:
		err = account.Withdraw(amount)
	}
	if err != nil {
		return views.TransactionResponse{}, s.mapDomainError(traceID, err)
	}

	if children := domain.ChildrenOf(account); len(children) > 0 {
		for _, child := range children {
			if err := s.accountRepo.SaveBalance(ctx, child.ID(), child.Balance()); err != nil {
				return views.TransactionResponse{}, pkg.HandleSQLError(traceID, s.logger, err)
			}
		}
	} else {
		if err := s.accountRepo.SaveBalance(ctx, accountID, account.Balance()); err != nil {
			return views.TransactionResponse{}, pkg.HandleSQLError(traceID, s.logger, err)
		}
	}

	s.publish(views.TransactionEvent{
		TraceID:       traceID,
		EventType:     kind,
		AccountID:     accountID,
		AccountNumber: account.Number(),
		Amount:        amount,
		NewBalance:    account.Balance(),
		OccurredAt:    time.Now().UTC(),
	})

	return views.TransactionResponse{
		AccountNumber: account.Number(),
		AccountType:   account.Type(),
		NewBalance:    account.Balance(),
	}, nil
}

// publish emits the audit event; failures are logged only.
func (s *AccountServiceImpl) publish(event views.TransactionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransaction(event); err != nil {
		s.logger.Error("failed to publish transaction event",
			zap.String(pkg.TraceId, event.TraceID),
			zap.Int64("account_id", event.AccountID),
			zap.Error(err),
		)
	}
}

func (s *AccountServiceImpl) AddFeature(ctx context.Context, traceID string, accountID int64, name pkg.FeatureName) (views.FeatureResponse, error) {
	// Existence check keeps the 404 ahead of the foreign-key violation.
	if _, err := s.accountRepo.FindById(ctx, accountID); err != nil {
		return views.FeatureResponse{}, pkg.HandleSQLError(traceID, s.logger, err)
	}

	var featureMap models.FeatureMap
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		feature, err := s.featureRepo.Ensure(ctx, tx, name)
		if err != nil {
			return err
		}
		featureMap, err = s.featureRepo.Attach(ctx, tx, accountID, feature.ID)
		return err
	})
	if err != nil {
		return views.FeatureResponse{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	s.logger.Info("feature added",
		zap.String(pkg.TraceId, traceID),
		zap.Int64("account_id", accountID),
		zap.String("feature", string(name)),
	)
	return views.FeatureResponse{
		MapID:     featureMap.ID,
		AccountID: accountID,
		Feature:   string(name),
	}, nil
}

func (s *AccountServiceImpl) RemoveFeature(ctx context.Context, traceID string, accountID int64, name pkg.FeatureName) error {
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return s.featureRepo.Detach(ctx, tx, accountID, name)
	})
	if err != nil {
		return pkg.HandleSQLError(traceID, s.logger, err)
	}
	s.logger.Info("feature removed",
		zap.String(pkg.TraceId, traceID),
		zap.Int64("account_id", accountID),
		zap.String("feature", string(name)),
	)
	return nil
}

func (s *AccountServiceImpl) DescribeWithFeatures(ctx context.Context, traceID string, accountID int64) (views.BalanceResponse, error) {
	account, err := s.accountRepo.LoadWithFeatures(ctx, accountID)
	if err != nil {
		return views.BalanceResponse{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	return describeAccount(accountID, account), nil
}

// ApplyInterest computes interest for the stored balance through the
// strategy registry and persists the adjusted balance.
func (s *AccountServiceImpl) ApplyInterest(ctx context.Context, traceID string, accountID int64, days int) (views.InterestResponse, error) {
	if days <= 0 {
		days = interest.DefaultDays
	}
	row, err := s.accountRepo.FindById(ctx, accountID)
	if err != nil {
		return views.InterestResponse{}, pkg.HandleSQLError(traceID, s.logger, err)
	}

	amount, err := s.calculator.CalculateInterest(domain.Type(row.Type), row.Balance, days)
	if err != nil {
		return views.InterestResponse{}, s.mapDomainError(traceID, err)
	}

	newBalance := row.Balance.Add(amount)
	if err := s.accountRepo.SaveBalance(ctx, row.ID, newBalance); err != nil {
		return views.InterestResponse{}, pkg.HandleSQLError(traceID, s.logger, err)
	}

	s.publish(views.TransactionEvent{
		TraceID:       traceID,
		EventType:     pkg.EventInterest,
		AccountID:     row.ID,
		AccountNumber: row.Number,
		Amount:        amount,
		NewBalance:    newBalance,
		OccurredAt:    time.Now().UTC(),
	})

	return views.InterestResponse{
		AccountID:     row.ID,
		AccountNumber: row.Number,
		AccountType:   row.Type,
		Days:          days,
		Interest:      amount,
		NewBalance:    newBalance,
	}, nil
}

// ApplyInterestToAll iterates every ACTIVE account sequentially. A failure on
// one account is logged and skipped; the batch never aborts early. The run is
// cancellable between iterations via ctx.
func (s *AccountServiceImpl) ApplyInterestToAll(ctx context.Context, traceID string, days int) (views.InterestRunResponse, error) {
	if days <= 0 {
		days = interest.DefaultDays
	}
	start := time.Now()
	defer func() {
		observability.InterestRunLatency.Observe(time.Since(start).Seconds())
	}()

	rows, err := s.accountRepo.FindByState(ctx, pkg.AccountStateActive)
	if err != nil {
		return views.InterestRunResponse{}, pkg.HandleSQLError(traceID, s.logger, err)
	}

	result := views.InterestRunResponse{Applied: []views.InterestResponse{}}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return views.InterestRunResponse{}, pkg.NewAppError(pkg.ErrServerCode, "interest run cancelled", err)
		}

		amount, err := s.calculator.CalculateInterest(domain.Type(row.Type), row.Balance, days)
		if err != nil {
			s.logger.Warn("skipping account in interest run",
				zap.String(pkg.TraceId, traceID),
				zap.Int64("account_id", row.ID),
				zap.String("account_type", row.Type),
				zap.Error(err),
			)
			observability.InterestSkipped.WithLabelValues("unsupported_strategy").Inc()
			result.Skipped++
			continue
		}

		newBalance := row.Balance.Add(amount)
		if err := s.accountRepo.SaveBalance(ctx, row.ID, newBalance); err != nil {
			s.logger.Warn("failed to persist interest, account skipped",
				zap.String(pkg.TraceId, traceID),
				zap.Int64("account_id", row.ID),
				zap.Error(err),
			)
			observability.InterestSkipped.WithLabelValues("save_failed").Inc()
			result.Skipped++
			continue
		}

		observability.InterestApplied.WithLabelValues(row.Type).Inc()
		result.Applied = append(result.Applied, views.InterestResponse{
			AccountID:     row.ID,
			AccountNumber: row.Number,
			AccountType:   row.Type,
			Days:          days,
			Interest:      amount,
			NewBalance:    newBalance,
		})
	}

	s.logger.Info("interest run complete",
		zap.String(pkg.TraceId, traceID),
		zap.Int("applied", len(result.Applied)),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (s *AccountServiceImpl) InterestRate(ctx context.Context, traceID string, accountID int64) (views.RateResponse, error) {
	row, err := s.accountRepo.FindById(ctx, accountID)
	if err != nil {
		return views.RateResponse{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	rate, err := s.calculator.AnnualRate(domain.Type(row.Type))
	if err != nil {
		return views.RateResponse{}, s.mapDomainError(traceID, err)
	}
	return views.RateResponse{
		AccountID:   row.ID,
		AccountType: row.Type,
		AnnualRate:  rate,
	}, nil
}

func (s *AccountServiceImpl) CompareInterest(traceID string, balance decimal.Decimal, days int) map[string]decimal.Decimal {
	if days <= 0 {
		days = interest.DefaultDays
	}
	s.logger.Info("comparing interest returns",
		zap.String(pkg.TraceId, traceID),
		zap.String("balance", balance.String()),
		zap.Int("days", days),
	)
	results := make(map[string]decimal.Decimal)
	for typ, amount := range s.calculator.CompareReturns(balance, days) {
		results[string(typ)] = amount
	}
	return results
}
