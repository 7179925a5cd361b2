package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/accountforge/account-service/internal/domain"
	"github.com/accountforge/account-service/internal/views"
	"github.com/accountforge/account-service/pkg"
	middleware "github.com/accountforge/account-service/pkg/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubService returns canned responses and records the last call arguments.
type stubService struct {
	account     views.AccountResponse
	balance     views.BalanceResponse
	transaction views.TransactionResponse
	feature     views.FeatureResponse
	interest    views.InterestResponse
	run         views.InterestRunResponse
	rate        views.RateResponse
	returns     map[string]decimal.Decimal
	err         error

	lastAmount decimal.Decimal
	lastDays   int
	lastOwner  int64
}

func (s *stubService) CreateAccount(ctx context.Context, traceID string, ownerID int64, typ domain.Type) (views.AccountResponse, error) {
	s.lastOwner = ownerID
	return s.account, s.err
}

func (s *stubService) CreateComposite(ctx context.Context, traceID string, ownerID int64, childIDs []int64) (views.AccountResponse, error) {
	s.lastOwner = ownerID
	return s.account, s.err
}

func (s *stubService) GetBalance(ctx context.Context, traceID string, accountID int64) (views.BalanceResponse, error) {
	return s.balance, s.err
}

func (s *stubService) Deposit(ctx context.Context, traceID string, accountID int64, amount decimal.Decimal, withFeatures bool) (views.TransactionResponse, error) {
	s.lastAmount = amount
	return s.transaction, s.err
}

func (s *stubService) Withdraw(ctx context.Context, traceID string, accountID int64, amount decimal.Decimal, withFeatures bool) (views.TransactionResponse, error) {
	s.lastAmount = amount
	return s.transaction, s.err
}

func (s *stubService) AddFeature(ctx context.Context, traceID string, accountID int64, name pkg.FeatureName) (views.FeatureResponse, error) {
	return s.feature, s.err
}

func (s *stubService) RemoveFeature(ctx context.Context, traceID string, accountID int64, name pkg.FeatureName) error {
	return s.err
}

func (s *stubService) DescribeWithFeatures(ctx context.Context, traceID string, accountID int64) (views.BalanceResponse, error) {
	return s.balance, s.err
}

func (s *stubService) ApplyInterest(ctx context.Context, traceID string, accountID int64, days int) (views.InterestResponse, error) {
	s.lastDays = days
	return s.interest, s.err
}

func (s *stubService) ApplyInterestToAll(ctx context.Context, traceID string, days int) (views.InterestRunResponse, error) {
	s.lastDays = days
	return s.run, s.err
}

func (s *stubService) InterestRate(ctx context.Context, traceID string, accountID int64) (views.RateResponse, error) {
	return s.rate, s.err
}

func (s *stubService) CompareInterest(traceID string, balance decimal.Decimal, days int) map[string]decimal.Decimal {
	s.lastDays = days
	return s.returns
}

func newTestRouter(svc *stubService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(middleware.TraceID())
	NewAccountHandler(zap.NewNop(), svc).RegisterRoutes(api)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateAccount_Created(t *testing.T) {
	svc := &stubService{account: views.AccountResponse{ID: 1, AccountNumber: "SAV123", AccountType: "SAVINGS"}}
	r := newTestRouter(svc)

	w := doJSON(t, r, http.MethodPost, "/api/v1/accounts", map[string]interface{}{
		"ownerId":     7,
		"accountType": "SAVINGS",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, w.Header().Get(pkg.HeaderTraceId))
	assert.Equal(t, int64(7), svc.lastOwner)

	var out pkg.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.NotEmpty(t, out.TraceID)
	assert.Contains(t, out.Data, "account")
}

func TestCreateAccount_RejectsUnknownType(t *testing.T) {
	r := newTestRouter(&stubService{})

	w := doJSON(t, r, http.MethodPost, "/api/v1/accounts", map[string]interface{}{
		"ownerId":     7,
		"accountType": "CRYPTO",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var out pkg.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, pkg.ErrInvalidInputCode.Code, out.Code)
}

func TestCreateComposite_RequiresChildren(t *testing.T) {
	r := newTestRouter(&stubService{})

	w := doJSON(t, r, http.MethodPost, "/api/v1/accounts/composite", map[string]interface{}{
		"ownerId":         7,
		"childAccountIds": []int64{},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeposit_OK(t *testing.T) {
	svc := &stubService{transaction: views.TransactionResponse{AccountNumber: "SAV1", NewBalance: decimal.NewFromInt(150)}}
	r := newTestRouter(svc)

	w := doJSON(t, r, http.MethodPost, "/api/v1/accounts/1/deposit", map[string]interface{}{"amount": 50})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.lastAmount.Equal(decimal.NewFromInt(50)))
}

func TestDeposit_InvalidAccountID(t *testing.T) {
	r := newTestRouter(&stubService{})

	w := doJSON(t, r, http.MethodPost, "/api/v1/accounts/abc/deposit", map[string]interface{}{"amount": 50})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWithdraw_ServiceErrorMappedToStatus(t *testing.T) {
	svc := &stubService{err: pkg.NewAppError(pkg.ErrInsufficientFundsCode, "insufficient funds", nil)}
	r := newTestRouter(svc)

	w := doJSON(t, r, http.MethodPost, "/api/v1/accounts/1/withdraw", map[string]interface{}{"amount": 500})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var out pkg.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, pkg.ErrInsufficientFundsCode.Code, out.Code)
	assert.NotEmpty(t, out.TraceID)
}

func TestAddFeature_RejectsUnknownName(t *testing.T) {
	r := newTestRouter(&stubService{})

	w := doJSON(t, r, http.MethodPost, "/api/v1/accounts/1/features", map[string]interface{}{"featureName": "TELEPORT"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRemoveFeature_RejectsUnknownName(t *testing.T) {
	r := newTestRouter(&stubService{})

	w := doJSON(t, r, http.MethodDelete, "/api/v1/accounts/1/features/TELEPORT", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRemoveFeature_OK(t *testing.T) {
	r := newTestRouter(&stubService{})

	w := doJSON(t, r, http.MethodDelete, "/api/v1/accounts/1/features/PREMIUM", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestApplyInterest_EmptyBodyUsesDefaultWindow(t *testing.T) {
	svc := &stubService{interest: views.InterestResponse{AccountID: 1}}
	r := newTestRouter(svc)

	w := doJSON(t, r, http.MethodPost, "/api/v1/accounts/1/apply-interest", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, svc.lastDays)
}

func TestApplyInterest_ExplicitDays(t *testing.T) {
	svc := &stubService{interest: views.InterestResponse{AccountID: 1}}
	r := newTestRouter(svc)

	w := doJSON(t, r, http.MethodPost, "/api/v1/accounts/1/apply-interest", map[string]interface{}{"days": 15})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 15, svc.lastDays)
}

func TestApplyInterestToAll_OK(t *testing.T) {
	svc := &stubService{run: views.InterestRunResponse{Applied: []views.InterestResponse{}, Skipped: 1}}
	r := newTestRouter(svc)

	w := doJSON(t, r, http.MethodPost, "/api/v1/accounts/apply-interest-all", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var out pkg.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Contains(t, out.Data, "run")
}

func TestCompareInterest_QueryParams(t *testing.T) {
	svc := &stubService{returns: map[string]decimal.Decimal{"SAVINGS": decimal.NewFromInt(2)}}
	r := newTestRouter(svc)

	w := doJSON(t, r, http.MethodGet, "/api/v1/accounts/compare-interest?balance=1000&days=15", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 15, svc.lastDays)
}

func TestCompareInterest_RejectsBadBalance(t *testing.T) {
	r := newTestRouter(&stubService{})

	w := doJSON(t, r, http.MethodGet, "/api/v1/accounts/compare-interest?balance=lots", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetBalance_OK(t *testing.T) {
	svc := &stubService{balance: views.BalanceResponse{AccountID: 10, AccountType: "COMPOSITE"}}
	r := newTestRouter(svc)

	w := doJSON(t, r, http.MethodGet, "/api/v1/accounts/10/balance", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var out pkg.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Contains(t, out.Data, "balance")
}

func TestTraceID_PropagatedFromHeader(t *testing.T) {
	svc := &stubService{balance: views.BalanceResponse{AccountID: 10}}
	r := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/10/balance", nil)
	req.Header.Set(pkg.HeaderTraceId, "trace-from-client")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "trace-from-client", w.Header().Get(pkg.HeaderTraceId))

	var out pkg.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "trace-from-client", out.TraceID)
}
