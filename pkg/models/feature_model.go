package models

import (
	"time"

	"github.com/accountforge/account-service/pkg"
	"github.com/shopspring/decimal"
)

// Feature maps to table `account_features`
type Feature struct {
	ID        int64
	Name      pkg.FeatureName
	ExtraCost decimal.Decimal
}

// FeatureMap maps to table `account_feature_map`, linking an account to an
// enabled feature. Rows are read back in map_id order, so decorator wrapping
// follows attach order.
type FeatureMap struct {
	ID        int64
	AccountID int64
	FeatureID int64
	CreatedAt time.Time
}
