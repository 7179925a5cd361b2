package repositories

import (
	"context"
	"fmt"

	"github.com/accountforge/account-service/internal/domain"
	"github.com/accountforge/account-service/pkg"
	"github.com/accountforge/account-service/pkg/database"
	"github.com/accountforge/account-service/pkg/models"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AccountRepository defines the storage contract for accounts. Load methods
// materialize domain objects; a stored row with children comes back as a
// composite, one with feature rows comes back wrapped in decorators.
type AccountRepository interface {
	// Create inserts an account row with a generated account number.
	Create(ctx context.Context, tx pgx.Tx, ownerID int64, typ domain.Type, parentID *int64) (models.Account, error)
	// FindById finds an account row by ID.
	FindById(ctx context.Context, accountID int64) (models.Account, error)
	// FindByState lists account rows in the given state.
	FindByState(ctx context.Context, state pkg.AccountState) ([]models.Account, error)
	// FindChildren lists the child rows of a parent account.
	FindChildren(ctx context.Context, parentID int64) ([]models.Account, error)
	// FindFeatureNames lists the feature names enabled on an account, in
	// attach order.
	FindFeatureNames(ctx context.Context, accountID int64) ([]pkg.FeatureName, error)
	// Reparent attaches existing accounts as children of a parent.
	Reparent(ctx context.Context, tx pgx.Tx, parentID int64, childIDs []int64) error
	// SaveBalance persists a new balance for a single account row.
	SaveBalance(ctx context.Context, accountID int64, balance decimal.Decimal) error
	// LoadWithChildren materializes the domain account, building a composite
	// when the row has children.
	LoadWithChildren(ctx context.Context, accountID int64) (domain.Account, error)
	// LoadWithFeatures materializes the domain account and folds the
	// persisted feature list into a decorator chain around it.
	LoadWithFeatures(ctx context.Context, accountID int64) (domain.Account, error)
}

type AccountRepositoryImpl struct {
	db     *database.DB
	logger *zap.Logger
}

func NewAccountRepository(db *database.DB, logger *zap.Logger) AccountRepository {
	return &AccountRepositoryImpl{db: db, logger: logger}
}

const accountColumns = `account_id, owner_id, account_number, account_type, balance, state, parent_account_id, created_at, updated_at`

func scanAccount(row pgx.Row) (models.Account, error) {
	var account models.Account
	err := row.Scan(&account.ID, &account.OwnerID, &account.Number, &account.Type, &account.Balance,
		&account.State, &account.ParentID, &account.CreatedAt, &account.UpdatedAt)
	return account, err
}

func (r *AccountRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, ownerID int64, typ domain.Type, parentID *int64) (models.Account, error) {
	number := domain.GenerateNumber(typ)
	row := tx.QueryRow(ctx, `INSERT INTO accounts (owner_id, account_number, account_type, balance, state, parent_account_id)
		VALUES ($1, $2, $3, 0, $4, $5)
		RETURNING `+accountColumns,
		ownerID, number, string(typ), pkg.AccountStateActive, parentID)
	account, err := scanAccount(row)
	if err != nil {
		return models.Account{}, err
	}
	r.logger.Info("account created",
		zap.Int64("account_id", account.ID),
		zap.String("account_number", account.Number),
		zap.String("account_type", account.Type),
	)
	return account, nil
}

func (r *AccountRepositoryImpl) FindById(ctx context.Context, accountID int64) (models.Account, error) {
	if accountID <= 0 {
		return models.Account{}, fmt.Errorf("invalid account ID: %d", accountID)
	}
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_id = $1`, accountID)
	return scanAccount(row)
}

func (r *AccountRepositoryImpl) FindByState(ctx context.Context, state pkg.AccountState) ([]models.Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE state = $1 ORDER BY account_id`, state)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (r *AccountRepositoryImpl) FindChildren(ctx context.Context, parentID int64) ([]models.Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE parent_account_id = $1 ORDER BY account_id`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var children []models.Account
	for rows.Next() {
		child, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, rows.Err()
}

func (r *AccountRepositoryImpl) FindFeatureNames(ctx context.Context, accountID int64) ([]pkg.FeatureName, error) {
	rows, err := r.db.Query(ctx, `SELECT f.name FROM account_feature_map m
		JOIN account_features f ON f.feature_id = m.feature_id
		WHERE m.account_id = $1 ORDER BY m.map_id`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []pkg.FeatureName
	for rows.Next() {
		var name pkg.FeatureName
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *AccountRepositoryImpl) Reparent(ctx context.Context, tx pgx.Tx, parentID int64, childIDs []int64) error {
	tag, err := tx.Exec(ctx, `UPDATE accounts SET parent_account_id = $1, updated_at = now() WHERE account_id = ANY($2)`,
		parentID, childIDs)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != int64(len(childIDs)) {
		return fmt.Errorf("reparented %d of %d child accounts: %w", tag.RowsAffected(), len(childIDs), pgx.ErrNoRows)
	}
	return nil
}

func (r *AccountRepositoryImpl) SaveBalance(ctx context.Context, accountID int64, balance decimal.Decimal) error {
	tag, err := r.db.Exec(ctx, `UPDATE accounts SET balance = $1, updated_at = now() WHERE account_id = $2`,
		balance, accountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	r.logger.Info("balance saved",
		zap.Int64("account_id", accountID),
		zap.String("balance", balance.String()),
	)
	return nil
}

// toDomain maps a stored row to its leaf domain variant.
func (r *AccountRepositoryImpl) toDomain(row models.Account) (domain.Account, error) {
	return domain.NewLeaf(row.ID, row.Number, row.Balance, domain.Type(row.Type), r.logger)
}

func (r *AccountRepositoryImpl) LoadWithChildren(ctx context.Context, accountID int64) (domain.Account, error) {
	row, err := r.FindById(ctx, accountID)
	if err != nil {
		return nil, err
	}

	children, err := r.FindChildren(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if len(children) > 0 {
		composite := domain.NewCompositeAccount(row.ID, row.Number, r.logger)
		for _, childRow := range children {
			child, err := r.toDomain(childRow)
			if err != nil {
				return nil, err
			}
			composite.Add(child)
		}
		return composite, nil
	}

	return r.toDomain(row)
}

func (r *AccountRepositoryImpl) LoadWithFeatures(ctx context.Context, accountID int64) (domain.Account, error) {
	account, err := r.LoadWithChildren(ctx, accountID)
	if err != nil {
		return nil, err
	}

	names, err := r.FindFeatureNames(ctx, accountID)
	if err != nil {
		return nil, err
	}

	// Fold the persisted feature list into a decorator chain, innermost
	// first, so the earliest attached feature sits closest to the account.
	for _, name := range names {
		switch name {
		case pkg.FeatureOverdraft:
			account = domain.NewOverdraftProtectionDecorator(account, r.logger)
		case pkg.FeaturePremium:
			account = domain.NewPremiumServiceDecorator(account, r.logger)
		case pkg.FeatureInsurance:
			account = domain.NewInsuranceDecorator(account, r.logger)
		default:
			r.logger.Warn("unknown feature skipped",
				zap.Int64("account_id", accountID),
				zap.String("feature", string(name)),
			)
		}
	}
	return account, nil
}
