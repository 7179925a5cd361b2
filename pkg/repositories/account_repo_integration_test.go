package repositories_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/accountforge/account-service/internal/domain"
	"github.com/accountforge/account-service/pkg"
	"github.com/accountforge/account-service/pkg/database"
	"github.com/accountforge/account-service/pkg/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"
)

// startPostgres spins up a disposable PostgreSQL container and returns a DSN
// without the protocol prefix, matching what database.New expects.
func startPostgres(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("account_service"),
		tcpostgres.WithUsername("db_user"),
		tcpostgres.WithPassword("db_password"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "failed to start postgres test container")
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = container.Terminate(ctx)
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return strings.TrimPrefix(connStr, "postgres://")
}

func setupRepos(t *testing.T) (*database.DB, repositories.AccountRepository, repositories.FeatureRepository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dsn := startPostgres(t)
	logger := zap.NewNop()

	ctx := context.Background()
	db, disconnect, err := database.New(ctx, logger, database.Config{
		PrimaryDSN: dsn,
		MaxConns:   5,
		MinConns:   1,
	})
	require.NoError(t, err)
	t.Cleanup(disconnect)

	require.NoError(t, database.RunMigrations(logger, dsn))

	return db, repositories.NewAccountRepository(db, logger), repositories.NewFeatureRepository(db, logger)
}

func createAccount(t *testing.T, db *database.DB, repo repositories.AccountRepository, ownerID int64, typ domain.Type, balance decimal.Decimal) int64 {
	t.Helper()
	ctx := context.Background()
	var id int64
	err := db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		row, err := repo.Create(ctx, tx, ownerID, typ, nil)
		if err != nil {
			return err
		}
		id = row.ID
		return nil
	})
	require.NoError(t, err)
	if !balance.IsZero() {
		require.NoError(t, repo.SaveBalance(ctx, id, balance))
	}
	return id
}

func TestAccountRepository_CreateAndFind(t *testing.T) {
	db, repo, _ := setupRepos(t)
	ctx := context.Background()

	id := createAccount(t, db, repo, 7, domain.TypeSavings, decimal.Zero)

	row, err := repo.FindById(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(7), row.OwnerID)
	assert.Equal(t, "SAVINGS", row.Type)
	assert.Equal(t, "SAV", row.Number[:3])
	assert.Equal(t, pkg.AccountStateActive, row.State)
	assert.True(t, row.Balance.IsZero())

	_, err = repo.FindById(ctx, id+1000)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestAccountRepository_SaveBalanceRoundTrip(t *testing.T) {
	db, repo, _ := setupRepos(t)
	ctx := context.Background()

	id := createAccount(t, db, repo, 7, domain.TypeChecking, decimal.Zero)

	require.NoError(t, repo.SaveBalance(ctx, id, decimal.NewFromFloat(123.45)))

	row, err := repo.FindById(ctx, id)
	require.NoError(t, err)
	assert.True(t, row.Balance.Equal(decimal.NewFromFloat(123.45)), "balance = %s", row.Balance)

	// negative balances survive the round trip (overdrawn checking)
	require.NoError(t, repo.SaveBalance(ctx, id, decimal.NewFromFloat(-525)))
	row, err = repo.FindById(ctx, id)
	require.NoError(t, err)
	assert.True(t, row.Balance.Equal(decimal.NewFromInt(-525)))

	assert.ErrorIs(t, repo.SaveBalance(ctx, id+1000, decimal.Zero), pgx.ErrNoRows)
}

func TestAccountRepository_ReparentAndLoadComposite(t *testing.T) {
	db, repo, _ := setupRepos(t)
	ctx := context.Background()

	first := createAccount(t, db, repo, 7, domain.TypeSavings, decimal.NewFromInt(30))
	second := createAccount(t, db, repo, 7, domain.TypeSavings, decimal.NewFromInt(20))

	var parentID int64
	err := db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		parent, err := repo.Create(ctx, tx, 7, domain.TypeSavings, nil)
		if err != nil {
			return err
		}
		parentID = parent.ID
		return repo.Reparent(ctx, tx, parentID, []int64{first, second})
	})
	require.NoError(t, err)

	children, err := repo.FindChildren(ctx, parentID)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, first, children[0].ID)
	assert.Equal(t, second, children[1].ID)

	account, err := repo.LoadWithChildren(ctx, parentID)
	require.NoError(t, err)
	assert.Equal(t, "COMPOSITE", account.Type())
	assert.True(t, account.Balance().Equal(decimal.NewFromInt(50)))

	// a childless row loads as a plain leaf
	leaf, err := repo.LoadWithChildren(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "SAVINGS", leaf.Type())
}

func TestAccountRepository_ReparentUnknownChild(t *testing.T) {
	db, repo, _ := setupRepos(t)
	ctx := context.Background()

	parent := createAccount(t, db, repo, 7, domain.TypeSavings, decimal.Zero)

	err := db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return repo.Reparent(ctx, tx, parent, []int64{parent + 1000})
	})
	assert.Error(t, err)
}

func TestAccountRepository_FindByState(t *testing.T) {
	db, repo, _ := setupRepos(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		ids = append(ids, createAccount(t, db, repo, 7, domain.TypeSavings, decimal.Zero))
	}
	_, err := db.Exec(ctx, `UPDATE accounts SET state = 'FROZEN' WHERE account_id = $1`, ids[1])
	require.NoError(t, err)

	rows, err := repo.FindByState(ctx, pkg.AccountStateActive)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, ids[0], rows[0].ID)
	assert.Equal(t, ids[2], rows[1].ID)
}

func TestFeatureRepository_AttachAndLoadDecorated(t *testing.T) {
	db, repo, features := setupRepos(t)
	ctx := context.Background()

	id := createAccount(t, db, repo, 7, domain.TypeChecking, decimal.NewFromInt(100))

	for _, name := range []pkg.FeatureName{pkg.FeatureOverdraft, pkg.FeatureInsurance} {
		err := db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
			feature, err := features.Ensure(ctx, tx, name)
			if err != nil {
				return err
			}
			_, err = features.Attach(ctx, tx, id, feature.ID)
			return err
		})
		require.NoError(t, err)
	}

	names, err := repo.FindFeatureNames(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []pkg.FeatureName{pkg.FeatureOverdraft, pkg.FeatureInsurance}, names)

	account, err := repo.LoadWithFeatures(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "CHECKING (Overdraft Protected) (Insured)", account.Type())

	// the decorated chain still honors the overdraft limit
	err = account.Withdraw(decimal.NewFromInt(1500))
	var insufficient *domain.InsufficientFundsError
	assert.True(t, errors.As(err, &insufficient))
}

func TestFeatureRepository_Detach(t *testing.T) {
	db, repo, features := setupRepos(t)
	ctx := context.Background()

	id := createAccount(t, db, repo, 7, domain.TypeSavings, decimal.Zero)

	err := db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		feature, err := features.Ensure(ctx, tx, pkg.FeaturePremium)
		if err != nil {
			return err
		}
		_, err = features.Attach(ctx, tx, id, feature.ID)
		return err
	})
	require.NoError(t, err)

	err = db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return features.Detach(ctx, tx, id, pkg.FeaturePremium)
	})
	require.NoError(t, err)

	names, err := repo.FindFeatureNames(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, names)

	// detaching a feature that was never created surfaces as no rows
	err = db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return features.Detach(ctx, tx, id, pkg.FeatureOverdraft)
	})
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestFeatureRepository_EnsureIsIdempotent(t *testing.T) {
	db, _, features := setupRepos(t)
	ctx := context.Background()

	var firstID, secondID int64
	err := db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		feature, err := features.Ensure(ctx, tx, pkg.FeatureInsurance)
		if err != nil {
			return err
		}
		firstID = feature.ID
		feature, err = features.Ensure(ctx, tx, pkg.FeatureInsurance)
		if err != nil {
			return err
		}
		secondID = feature.ID
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, firstID, secondID)
}
