package handler

import (
	"net/http"
	"time"

	ledgerapp "github.com/fleetops/backend/internal/application/ledger"
	"github.com/fleetops/backend/internal/domain/ledger"
	"github.com/fleetops/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LedgerHandler handles accrual ledger API endpoints
type LedgerHandler struct {
	BaseHandler
	service *ledgerapp.Service
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(service *ledgerapp.Service) *LedgerHandler {
	return &LedgerHandler{
		service: service,
	}
}

// ===================== Request/Response DTOs =====================

// PostLedgerCreditRequest accrues a deferred charge onto a driver's balance
//
//	@Description	Post ledger credit request
type PostLedgerCreditRequest struct {
	DriverID     string  `json:"driver_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Amount       float64 `json:"amount" binding:"required,gt=0" example:"12.35"`
	CostRecordID string  `json:"cost_record_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440001"`
}

// LedgerCreditResponse reports whether the credit was newly posted
//
//	@Description	Ledger credit response
type LedgerCreditResponse struct {
	DriverID     string `json:"driver_id"`
	CostRecordID string `json:"cost_record_id"`
	Created      bool   `json:"created" example:"true"`
}

// LedgerBalanceQuery identifies the driver whose balance to read
//
//	@Description	Ledger balance query
type LedgerBalanceQuery struct {
	DriverID string `form:"driver_id" binding:"required,uuid"`
}

// LedgerStatementQuery identifies the driver and period for a statement
//
//	@Description	Ledger statement query
type LedgerStatementQuery struct {
	DriverID string `form:"driver_id" binding:"required,uuid"`
	FromDate string `form:"from_date" binding:"required"`
	ToDate   string `form:"to_date" binding:"required"`
}

// LedgerEntryResponse represents one ledger entry in API responses
//
//	@Description	Ledger entry response
type LedgerEntryResponse struct {
	ID         string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	DriverID   string    `json:"driver_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	Type       string    `json:"type" example:"credit"`
	Amount     string    `json:"amount" example:"12.35"`
	SourceType string    `json:"source_type" example:"cost_record"`
	SourceID   string    `json:"source_id" example:"550e8400-e29b-41d4-a716-446655440002"`
	OccurredAt time.Time `json:"occurred_at"`
}

// LedgerStatementLine is one statement entry with its running balance
//
//	@Description	Ledger statement line
type LedgerStatementLine struct {
	Entry          LedgerEntryResponse `json:"entry"`
	RunningBalance string              `json:"running_balance" example:"45.20"`
}

func toLedgerEntryResponse(e ledger.Entry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:         e.ID.String(),
		DriverID:   e.DriverID.String(),
		Type:       string(e.Type),
		Amount:     e.Amount.StringFixed(2),
		SourceType: string(e.SourceType),
		SourceID:   e.SourceID.String(),
		OccurredAt: e.OccurredAt,
	}
}

// ===================== Handlers =====================

// PostCredit godoc
// @ID           postLedgerCredit
//
//	@Summary		Post ledger credit
//	@Description	Accrue a deferred charge onto the driver's balance; idempotent per cost record
//	@Tags			ledger
//	@Accept			json
//	@Produce		json
//	@Param			request	body	PostLedgerCreditRequest	true	"Credit request"
//	@Success		201	{object}	APIResponse[LedgerCreditResponse]
//	@Success		200	{object}	APIResponse[LedgerCreditResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Router			/ledger/credits [post]
func (h *LedgerHandler) PostCredit(c *gin.Context) {
	var req PostLedgerCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	driverID := uuid.MustParse(req.DriverID)
	costRecordID := uuid.MustParse(req.CostRecordID)

	created, err := h.service.Credit(c.Request.Context(), driverID, toDecimal(req.Amount), costRecordID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	resp := LedgerCreditResponse{
		DriverID:     req.DriverID,
		CostRecordID: req.CostRecordID,
		Created:      created,
	}
	if created {
		h.Created(c, resp)
		return
	}
	h.Success(c, resp)
}

// GetBalance godoc
// @ID           getLedgerBalance
//
//	@Summary		Get ledger balance
//	@Description	Return the driver's outstanding accrual balance
//	@Tags			ledger
//	@Produce		json
//	@Param			driver_id	query	string	true	"Driver ID"
//	@Success		200	{object}	APIResponse[BalanceData]
//	@Failure		400	{object}	ErrorResponse
//	@Router			/ledger/balance [get]
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	var query LedgerBalanceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	balance, err := h.service.Balance(c.Request.Context(), uuid.MustParse(query.DriverID))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Response{
		Success: true,
		Data: BalanceData{
			DriverID: query.DriverID,
			Balance:  balance.StringFixed(2),
		},
	})
}

// GetStatement godoc
// @ID           getLedgerStatement
//
//	@Summary		Get ledger statement
//	@Description	Return the driver's ledger entries in a period with running balances, oldest first
//	@Tags			ledger
//	@Produce		json
//	@Param			driver_id	query	string	true	"Driver ID"
//	@Param			from_date	query	string	true	"Period start (YYYY-MM-DD, inclusive)"
//	@Param			to_date		query	string	true	"Period end (YYYY-MM-DD, exclusive)"
//	@Success		200	{object}	APIResponse[[]LedgerStatementLine]
//	@Failure		400	{object}	ErrorResponse
//	@Router			/ledger/statement [get]
func (h *LedgerHandler) GetStatement(c *gin.Context) {
	var query LedgerStatementQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	period, err := parsePeriod(query.FromDate, query.ToDate)
	if err != nil {
		h.ErrorWithCode(c, "INVALID_PERIOD", err.Error())
		return
	}

	lines, err := h.service.Statement(c.Request.Context(), uuid.MustParse(query.DriverID), period)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	items := make([]LedgerStatementLine, 0, len(lines))
	for _, line := range lines {
		items = append(items, LedgerStatementLine{
			Entry:          toLedgerEntryResponse(line.Entry),
			RunningBalance: line.RunningBalance.StringFixed(2),
		})
	}

	h.Success(c, items)
}

// RegisterRoutes registers all ledger routes
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	ledgerGroup := rg.Group("/ledger")
	{
		ledgerGroup.POST("/credits", h.PostCredit)
		ledgerGroup.GET("/balance", h.GetBalance)
		ledgerGroup.GET("/statement", h.GetStatement)
	}
}
