package repositories

import (
	"context"
	"errors"

	"github.com/accountforge/account-service/pkg"
	"github.com/accountforge/account-service/pkg/database"
	"github.com/accountforge/account-service/pkg/models"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// featureCosts seeds the catalog row on first use of a feature.
var featureCosts = map[pkg.FeatureName]decimal.Decimal{
	pkg.FeatureOverdraft: decimal.Zero,
	pkg.FeaturePremium:   decimal.NewFromInt(10),
	pkg.FeatureInsurance: decimal.NewFromInt(5),
}

// FeatureRepository persists the feature catalog and the account-feature map.
type FeatureRepository interface {
	// Ensure returns the catalog row for a feature name, creating it with
	// its default extra cost on first use.
	Ensure(ctx context.Context, tx pgx.Tx, name pkg.FeatureName) (models.Feature, error)
	// Attach links a feature to an account.
	Attach(ctx context.Context, tx pgx.Tx, accountID, featureID int64) (models.FeatureMap, error)
	// Detach removes a named feature from an account. Unknown feature names
	// surface as pgx.ErrNoRows.
	Detach(ctx context.Context, tx pgx.Tx, accountID int64, name pkg.FeatureName) error
}

type FeatureRepositoryImpl struct {
	db     *database.DB
	logger *zap.Logger
}

func NewFeatureRepository(db *database.DB, logger *zap.Logger) FeatureRepository {
	return &FeatureRepositoryImpl{db: db, logger: logger}
}

func (r *FeatureRepositoryImpl) Ensure(ctx context.Context, tx pgx.Tx, name pkg.FeatureName) (models.Feature, error) {
	var feature models.Feature
	err := tx.QueryRow(ctx, `SELECT feature_id, name, extra_cost FROM account_features WHERE name = $1`, name).
		Scan(&feature.ID, &feature.Name, &feature.ExtraCost)
	if err == nil {
		return feature, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.Feature{}, err
	}

	cost, ok := featureCosts[name]
	if !ok {
		cost = decimal.Zero
	}
	err = tx.QueryRow(ctx, `INSERT INTO account_features (name, extra_cost) VALUES ($1, $2)
		RETURNING feature_id, name, extra_cost`, name, cost).
		Scan(&feature.ID, &feature.Name, &feature.ExtraCost)
	if err != nil {
		return models.Feature{}, err
	}
	r.logger.Info("feature catalog row created",
		zap.String("feature", string(name)),
		zap.String("extra_cost", cost.String()),
	)
	return feature, nil
}

func (r *FeatureRepositoryImpl) Attach(ctx context.Context, tx pgx.Tx, accountID, featureID int64) (models.FeatureMap, error) {
	var featureMap models.FeatureMap
	err := tx.QueryRow(ctx, `INSERT INTO account_feature_map (account_id, feature_id) VALUES ($1, $2)
		RETURNING map_id, account_id, feature_id, created_at`, accountID, featureID).
		Scan(&featureMap.ID, &featureMap.AccountID, &featureMap.FeatureID, &featureMap.CreatedAt)
	return featureMap, err
}

func (r *FeatureRepositoryImpl) Detach(ctx context.Context, tx pgx.Tx, accountID int64, name pkg.FeatureName) error {
	var featureID int64
	err := tx.QueryRow(ctx, `SELECT feature_id FROM account_features WHERE name = $1`, name).Scan(&featureID)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `DELETE FROM account_feature_map WHERE account_id = $1 AND feature_id = $2`,
		accountID, featureID)
	return err
}
