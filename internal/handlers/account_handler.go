package handlers

import (
	"net/http"
	"strconv"

	"github.com/accountforge/account-service/internal/domain"
	"github.com/accountforge/account-service/internal/services"
	"github.com/accountforge/account-service/internal/views"
	"github.com/accountforge/account-service/pkg"
	"github.com/accountforge/account-service/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type AccountHandler struct {
	logger  *zap.Logger
	service services.AccountService
}

func NewAccountHandler(logger *zap.Logger, svc services.AccountService) *AccountHandler {
	return &AccountHandler{logger: logger, service: svc}
}

// RegisterRoutes registers account routes on the provided Gin router group.
func (h *AccountHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/accounts", h.CreateAccount)
	r.POST("/accounts/composite", h.CreateComposite)
	r.GET("/accounts/compare-interest", h.CompareInterest)
	r.POST("/accounts/apply-interest-all", h.ApplyInterestToAll)
	r.GET("/accounts/:id/balance", h.GetBalance)
	r.POST("/accounts/:id/deposit", h.Deposit)
	r.POST("/accounts/:id/withdraw", h.Withdraw)
	r.POST("/accounts/:id/features", h.AddFeature)
	r.DELETE("/accounts/:id/features/:featureName", h.RemoveFeature)
	r.GET("/accounts/:id/with-features", h.DescribeWithFeatures)
	r.POST("/accounts/:id/deposit-with-features", h.DepositWithFeatures)
	r.POST("/accounts/:id/withdraw-with-features", h.WithdrawWithFeatures)
	r.POST("/accounts/:id/apply-interest", h.ApplyInterest)
	r.GET("/accounts/:id/interest-rate", h.InterestRate)
}

func (h *AccountHandler) traceID(c *gin.Context) string {
	traceID, err := utils.GetTraceID(c)
	if err != nil {
		h.logger.Warn("missing trace id", zap.Error(err))
	}
	return traceID
}

func (h *AccountHandler) accountID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, pkg.ErrorResponse{
			Status:  http.StatusBadRequest,
			Code:    pkg.ErrInvalidInputCode.Code,
			Message: "account id must be a positive integer",
			TraceID: h.traceID(c),
		})
		return 0, false
	}
	return id, true
}

func (h *AccountHandler) writeError(c *gin.Context, traceID string, err error) {
	resp := pkg.ToErrorResponse(h.logger, traceID, err)
	c.JSON(resp.Status, resp)
}

func (h *AccountHandler) writeBadRequest(c *gin.Context, traceID string, err error) {
	c.JSON(http.StatusBadRequest, pkg.ErrorResponse{
		Status:  http.StatusBadRequest,
		Code:    pkg.ErrInvalidInputCode.Code,
		Message: "invalid request body",
		TraceID: traceID,
		Details: err.Error(),
	})
}

func (h *AccountHandler) CreateAccount(c *gin.Context) {
	traceID := h.traceID(c)

	var req views.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBadRequest(c, traceID, err)
		return
	}

	account, err := h.service.CreateAccount(c.Request.Context(), traceID, req.OwnerID, domain.Type(req.AccountType))
	if err != nil {
		h.writeError(c, traceID, err)
		return
	}

	c.JSON(http.StatusCreated, pkg.APIResponse{
		TraceID: traceID,
		Data: map[string]interface{}{
			"account": account,
		},
	})
}

func (h *AccountHandler) CreateComposite(c *gin.Context) {
	traceID := h.traceID(c)

	var req views.CreateCompositeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBadRequest(c, traceID, err)
		return
	}

	account, err := h.service.CreateComposite(c.Request.Context(), traceID, req.OwnerID, req.ChildAccountIDs)
	if err != nil {
		h.writeError(c, traceID, err)
		return
	}

	c.JSON(http.StatusCreated, pkg.APIResponse{
		TraceID: traceID,
		Data: map[string]interface{}{
			"account": account,
		},
	})
}

func (h *AccountHandler) GetBalance(c *gin.Context) {
	traceID := h.traceID(c)
	id, ok := h.accountID(c)
	if !ok {
		return
	}

	balance, err := h.service.GetBalance(c.Request.Context(), traceID, id)
	if err != nil {
		h.writeError(c, traceID, err)
		return
	}

	c.JSON(http.StatusOK, pkg.APIResponse{
		TraceID: traceID,
		Data: map[string]interface{}{
			"balance": balance,
		},
	})
}

func (h *AccountHandler) Deposit(c *gin.Context) {
	h.transact(c, pkg.EventDeposit, false)
}

func (h *AccountHandler) Withdraw(c *gin.Context) {
	h.transact(c, pkg.EventWithdraw, false)
}

func (h *AccountHandler) DepositWithFeatures(c *gin.Context) {
	h.transact(c, pkg.EventDeposit, true)
}

func (h *AccountHandler) WithdrawWithFeatures(c *gin.Context) {
	h.transact(c, pkg.EventWithdraw, true)
}

func (h *AccountHandler) transact(c *gin.Context, kind pkg.TransactionEventType, withFeatures bool) {
	traceID := h.traceID(c)
	id, ok := h.accountID(c)
	if !ok {
		return
	}

	var req views.TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBadRequest(c, traceID, err)
		return
	}

	var result views.TransactionResponse
	var err error
	if kind == pkg.EventDeposit {
		result, err = h.service.Deposit(c.Request.Context(), traceID, id, req.Amount, withFeatures)
	} else {
		result, err = h.service.Withdraw(c.Request.Context(), traceID, id, req.Amount, withFeatures)
	}
	if err != nil {
		h.writeError(c, traceID, err)
		return
	}

	c.JSON(http.StatusOK, pkg.APIResponse{
		TraceID: traceID,
		Data: map[string]interface{}{
			"transaction": result,
		},
	})
}

func (h *AccountHandler) AddFeature(c *gin.Context) {
	traceID := h.traceID(c)
	id, ok := h.accountID(c)
	if !ok {
		return
	}

	var req views.AddFeatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBadRequest(c, traceID, err)
		return
	}

	feature, err := h.service.AddFeature(c.Request.Context(), traceID, id, pkg.FeatureName(req.FeatureName))
	if err != nil {
		h.writeError(c, traceID, err)
		return
	}

	c.JSON(http.StatusCreated, pkg.APIResponse{
		TraceID: traceID,
		Data: map[string]interface{}{
			"feature": feature,
		},
	})
}

func (h *AccountHandler) RemoveFeature(c *gin.Context) {
	traceID := h.traceID(c)
	id, ok := h.accountID(c)
	if !ok {
		return
	}

	name := pkg.FeatureName(c.Param("featureName"))
	switch name {
	case pkg.FeatureOverdraft, pkg.FeaturePremium, pkg.FeatureInsurance:
	default:
		c.JSON(http.StatusBadRequest, pkg.ErrorResponse{
			Status:  http.StatusBadRequest,
			Code:    pkg.ErrInvalidInputCode.Code,
			Message: "unknown feature name",
			TraceID: traceID,
		})
		return
	}

	if err := h.service.RemoveFeature(c.Request.Context(), traceID, id, name); err != nil {
		h.writeError(c, traceID, err)
		return
	}

	c.JSON(http.StatusOK, pkg.APIResponse{
		TraceID: traceID,
		Data: map[string]interface{}{
			"removed": string(name),
		},
	})
}

func (h *AccountHandler) DescribeWithFeatures(c *gin.Context) {
	traceID := h.traceID(c)
	id, ok := h.accountID(c)
	if !ok {
		return
	}

	description, err := h.service.DescribeWithFeatures(c.Request.Context(), traceID, id)
	if err != nil {
		h.writeError(c, traceID, err)
		return
	}

	c.JSON(http.StatusOK, pkg.APIResponse{
		TraceID: traceID,
		Data: map[string]interface{}{
			"account": description,
		},
	})
}

func (h *AccountHandler) ApplyInterest(c *gin.Context) {
	traceID := h.traceID(c)
	id, ok := h.accountID(c)
	if !ok {
		return
	}

	// Body is optional; an absent body means the default accrual window.
	var req views.ApplyInterestRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.writeBadRequest(c, traceID, err)
			return
		}
	}

	result, err := h.service.ApplyInterest(c.Request.Context(), traceID, id, req.Days)
	if err != nil {
		h.writeError(c, traceID, err)
		return
	}

	c.JSON(http.StatusOK, pkg.APIResponse{
		TraceID: traceID,
		Data: map[string]interface{}{
			"interest": result,
		},
	})
}

func (h *AccountHandler) ApplyInterestToAll(c *gin.Context) {
	traceID := h.traceID(c)

	var req views.ApplyInterestRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.writeBadRequest(c, traceID, err)
			return
		}
	}

	result, err := h.service.ApplyInterestToAll(c.Request.Context(), traceID, req.Days)
	if err != nil {
		h.writeError(c, traceID, err)
		return
	}

	c.JSON(http.StatusOK, pkg.APIResponse{
		TraceID: traceID,
		Data: map[string]interface{}{
			"run": result,
		},
	})
}

func (h *AccountHandler) InterestRate(c *gin.Context) {
	traceID := h.traceID(c)
	id, ok := h.accountID(c)
	if !ok {
		return
	}

	rate, err := h.service.InterestRate(c.Request.Context(), traceID, id)
	if err != nil {
		h.writeError(c, traceID, err)
		return
	}

	c.JSON(http.StatusOK, pkg.APIResponse{
		TraceID: traceID,
		Data: map[string]interface{}{
			"rate": rate,
		},
	})
}

func (h *AccountHandler) CompareInterest(c *gin.Context) {
	traceID := h.traceID(c)

	balance, err := decimal.NewFromString(c.Query("balance"))
	if err != nil {
		c.JSON(http.StatusBadRequest, pkg.ErrorResponse{
			Status:  http.StatusBadRequest,
			Code:    pkg.ErrInvalidInputCode.Code,
			Message: "balance must be a decimal number",
			TraceID: traceID,
		})
		return
	}

	days := 0
	if raw := c.Query("days"); !utils.IsEmpty(raw) {
		days, err = strconv.Atoi(raw)
		if err != nil || days <= 0 {
			c.JSON(http.StatusBadRequest, pkg.ErrorResponse{
				Status:  http.StatusBadRequest,
				Code:    pkg.ErrInvalidInputCode.Code,
				Message: "days must be a positive integer",
				TraceID: traceID,
			})
			return
		}
	}

	results := h.service.CompareInterest(traceID, balance, days)

	c.JSON(http.StatusOK, pkg.APIResponse{
		TraceID: traceID,
		Data: map[string]interface{}{
			"returns": results,
		},
	})
}
