package handler

import (
	"net/http"
	"time"

	settlementapp "github.com/fleetops/backend/internal/application/settlement"
	"github.com/fleetops/backend/internal/domain/settlement"
	"github.com/fleetops/backend/internal/domain/shared/valueobject"
	"github.com/fleetops/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// SettlementHandler handles settlement generation and workflow API endpoints
type SettlementHandler struct {
	BaseHandler
	service *settlementapp.Service
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(service *settlementapp.Service) *SettlementHandler {
	return &SettlementHandler{
		service: service,
	}
}

// ===================== Request/Response DTOs =====================

// ComputeSettlementRequest identifies the settlement to generate or
// recompute. LedgerDebit is the amount to settle from the driver's accrual
// ledger into this settlement; omitted or empty means no debit.
//
//	@Description	Compute settlement request
type ComputeSettlementRequest struct {
	DriverID    string `json:"driver_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	VehicleID   string `json:"vehicle_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440001"`
	PeriodStart string `json:"period_start" binding:"required" example:"2026-08-01"`
	PeriodEnd   string `json:"period_end" binding:"required" example:"2026-08-08"`
	LedgerDebit string `json:"ledger_debit_request" binding:"omitempty" example:"15.00"`
}

// SubmitReceiptRequest carries the driver's receipt reference
//
//	@Description	Submit receipt request
type SubmitReceiptRequest struct {
	ReceiptRef string `json:"receipt_ref" binding:"required" example:"receipts/2026-08/abc123.pdf"`
}

// MarkSettlementPaidRequest carries the payment proof reference
//
//	@Description	Mark settlement paid request
type MarkSettlementPaidRequest struct {
	PaymentProofRef string `json:"payment_proof_ref" binding:"required" example:"transfers/2026-08/tx-789.pdf"`
}

// RejectSettlementRequest carries the mandatory rejection reason
//
//	@Description	Reject settlement request
type RejectSettlementRequest struct {
	Reason string `json:"reason" binding:"required" example:"Receipt total does not match liquid value"`
}

// SettlementListFilter represents filter parameters for the settlement list
//
//	@Description	Settlement list filter
type SettlementListFilter struct {
	DriverID    string `form:"driver_id" binding:"omitempty,uuid" json:"driver_id"`
	VehicleID   string `form:"vehicle_id" binding:"omitempty,uuid" json:"vehicle_id"`
	PartnerID   string `form:"partner_id" binding:"omitempty,uuid" json:"partner_id"`
	Status      string `form:"status" json:"status"`
	FromDate    string `form:"from_date" json:"from_date"`
	ToDate      string `form:"to_date" json:"to_date"`
	Page        int    `form:"page,omitempty" binding:"omitempty,min=1" example:"1"`
	PageSize    int    `form:"page_size,omitempty" binding:"omitempty,min=1,max=100" json:"page_size" example:"20"`
}

// SettlementBreakdownResponse represents the monetary breakdown of a settlement
//
//	@Description	Settlement breakdown response
type SettlementBreakdownResponse struct {
	TotalGross      string `json:"total_gross" example:"1250.00"`
	TotalCommission string `json:"total_commission" example:"187.50"`
	TotalNet        string `json:"total_net" example:"1062.50"`
	TotalTips       string `json:"total_tips" example:"45.00"`

	CommissionBase   string `json:"commission_base" example:"1016.26"`
	DriverPct        string `json:"driver_pct" example:"60"`
	PartnerPct       string `json:"partner_pct" example:"40"`
	DriverShare      string `json:"driver_share" example:"609.76"`
	PartnerShare     string `json:"partner_share" example:"406.50"`
	GratuitySeparate string `json:"gratuity_separate" example:"45.00"`

	RentDue        string `json:"rent_due" example:"0.00"`
	ImmediateCosts string `json:"immediate_costs" example:"85.40"`
	DeferredCosts  string `json:"deferred_costs" example:"32.15"`
	LedgerDebit    string `json:"ledger_debit" example:"32.15"`

	TotalDeductions string `json:"total_deductions" example:"117.55"`
	LiquidValue     string `json:"liquid_value" example:"537.21"`
}

// PlatformEarningsLine represents one platform's earnings inside a settlement
//
//	@Description	Per-platform earnings line
type PlatformEarningsLine struct {
	Platform           string `json:"platform" example:"uber"`
	GrossAmount        string `json:"gross_amount" example:"800.00"`
	PlatformCommission string `json:"platform_commission" example:"120.00"`
	NetAmount          string `json:"net_amount" example:"680.00"`
	TipAmount          string `json:"tip_amount" example:"25.00"`
}

// SettlementResponse represents a settlement in API responses
//
//	@Description	Settlement response
type SettlementResponse struct {
	ID        string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	DriverID  string `json:"driver_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	VehicleID string `json:"vehicle_id" example:"550e8400-e29b-41d4-a716-446655440002"`
	PartnerID string `json:"partner_id" example:"550e8400-e29b-41d4-a716-446655440003"`

	PeriodStart string `json:"period_start" example:"2026-08-01"`
	PeriodEnd   string `json:"period_end" example:"2026-08-08"`

	ContractID    string `json:"contract_id" example:"550e8400-e29b-41d4-a716-446655440004"`
	ContractModel string `json:"contract_model" example:"commission"`
	ConfigVersion int    `json:"config_version" example:"3"`

	EarningsLines []PlatformEarningsLine      `json:"earnings_lines"`
	Breakdown     SettlementBreakdownResponse `json:"breakdown"`

	Status          string `json:"status" example:"pending_receipt"`
	ReceiptRef      string `json:"receipt_ref,omitempty"`
	PaymentProofRef string `json:"payment_proof_ref,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`

	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	SubmittedBy *string    `json:"submitted_by,omitempty"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	ApprovedBy  *string    `json:"approved_by,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	PaidBy      *string    `json:"paid_by,omitempty"`
	RejectedAt  *time.Time `json:"rejected_at,omitempty"`
	RejectedBy  *string    `json:"rejected_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version" example:"1"`
}

// SettlementCountsResponse represents settlement counts grouped by status
//
//	@Description	Settlement counts by status
type SettlementCountsResponse struct {
	Counts map[string]int64 `json:"counts"`
}

// ===================== Conversion helpers =====================

func (h *SettlementHandler) toSettlementResponse(s settlement.Settlement) SettlementResponse {
	resp := SettlementResponse{
		ID:              s.ID.String(),
		DriverID:        s.DriverID.String(),
		VehicleID:       s.VehicleID.String(),
		PartnerID:       s.PartnerID.String(),
		PeriodStart:     s.PeriodStart.Format(dateLayout),
		PeriodEnd:       s.PeriodEnd.Format(dateLayout),
		ContractID:      s.ContractID.String(),
		ContractModel:   string(s.ContractModel),
		ConfigVersion:   s.ConfigVersion,
		EarningsLines:   make([]PlatformEarningsLine, 0, len(s.EarningsLines)),
		Breakdown:       toBreakdownResponse(s.Breakdown),
		Status:          string(s.Status),
		ReceiptRef:      s.ReceiptRef,
		PaymentProofRef: s.PaymentProofRef,
		RejectionReason: s.RejectionReason,
		SubmittedAt:     s.SubmittedAt,
		SubmittedBy:     uuidPtrToStringPtr(s.SubmittedBy),
		ApprovedAt:      s.ApprovedAt,
		ApprovedBy:      uuidPtrToStringPtr(s.ApprovedBy),
		PaidAt:          s.PaidAt,
		PaidBy:          uuidPtrToStringPtr(s.PaidBy),
		RejectedAt:      s.RejectedAt,
		RejectedBy:      uuidPtrToStringPtr(s.RejectedBy),
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
		Version:         s.Version,
	}
	for _, line := range s.EarningsLines {
		resp.EarningsLines = append(resp.EarningsLines, PlatformEarningsLine{
			Platform:           string(line.Platform),
			GrossAmount:        line.GrossAmount.StringFixed(2),
			PlatformCommission: line.PlatformCommission.StringFixed(2),
			NetAmount:          line.NetAmount.StringFixed(2),
			TipAmount:          line.TipAmount.StringFixed(2),
		})
	}
	return resp
}

func toBreakdownResponse(b settlement.Breakdown) SettlementBreakdownResponse {
	return SettlementBreakdownResponse{
		TotalGross:       b.TotalGross.StringFixed(2),
		TotalCommission:  b.TotalCommission.StringFixed(2),
		TotalNet:         b.TotalNet.StringFixed(2),
		TotalTips:        b.TotalTips.StringFixed(2),
		CommissionBase:   b.CommissionBase.StringFixed(2),
		DriverPct:        b.DriverPct.String(),
		PartnerPct:       b.PartnerPct.String(),
		DriverShare:      b.DriverShare.StringFixed(2),
		PartnerShare:     b.PartnerShare.StringFixed(2),
		GratuitySeparate: b.GratuitySeparate.StringFixed(2),
		RentDue:          b.RentDue.StringFixed(2),
		ImmediateCosts:   b.ImmediateCosts.StringFixed(2),
		DeferredCosts:    b.DeferredCosts.StringFixed(2),
		LedgerDebit:      b.LedgerDebit.StringFixed(2),
		TotalDeductions:  b.TotalDeductions.StringFixed(2),
		LiquidValue:      b.LiquidValue.StringFixed(2),
	}
}

func uuidPtrToStringPtr(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// parsePeriod parses closed-open date bounds in 2006-01-02 form
func parsePeriod(startStr, endStr string) (valueobject.Period, error) {
	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		return valueobject.Period{}, err
	}
	end, err := time.Parse(dateLayout, endStr)
	if err != nil {
		return valueobject.Period{}, err
	}
	return valueobject.NewPeriod(start, end)
}

// ===================== Handlers =====================

// ComputeSettlement godoc
// @ID           computeSettlement
//
//	@Summary		Compute a settlement
//	@Description	Generate the settlement for a driver, vehicle and period, or recompute it while pending receipt
//	@Tags			settlements
//	@Accept			json
//	@Produce		json
//	@Param			request	body	ComputeSettlementRequest	true	"Compute settlement request"
//	@Success		200	{object}	APIResponse[SettlementResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Router			/settlements/compute [post]
func (h *SettlementHandler) ComputeSettlement(c *gin.Context) {
	var req ComputeSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	period, err := parsePeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		h.ErrorWithCode(c, "INVALID_PERIOD", err.Error())
		return
	}

	ledgerDebit := decimal.Zero
	if req.LedgerDebit != "" {
		ledgerDebit, err = decimal.NewFromString(req.LedgerDebit)
		if err != nil || ledgerDebit.IsNegative() {
			h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "ledger_debit_request must be a non-negative decimal")
			return
		}
	}

	stl, err := h.service.Compute(c.Request.Context(), settlementapp.ComputeRequest{
		DriverID:    uuid.MustParse(req.DriverID),
		VehicleID:   uuid.MustParse(req.VehicleID),
		Period:      period,
		LedgerDebit: ledgerDebit,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Response{
		Success: true,
		Data:    h.toSettlementResponse(*stl),
	})
}

// GetSettlement godoc
// @ID           getSettlement
//
//	@Summary		Get settlement
//	@Description	Get a single settlement by ID
//	@Tags			settlements
//	@Produce		json
//	@Param			id	path	string	true	"Settlement ID"
//	@Success		200	{object}	APIResponse[SettlementResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Router			/settlements/{id} [get]
func (h *SettlementHandler) GetSettlement(c *gin.Context) {
	settlementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid settlement ID")
		return
	}

	stl, err := h.service.Get(c.Request.Context(), settlementID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, h.toSettlementResponse(*stl))
}

// ListSettlements godoc
// @ID           listSettlements
//
//	@Summary		List settlements
//	@Description	List settlements filtered by driver, vehicle, partner, status and period
//	@Tags			settlements
//	@Produce		json
//	@Param			driver_id	query	string	false	"Driver ID"
//	@Param			vehicle_id	query	string	false	"Vehicle ID"
//	@Param			partner_id	query	string	false	"Partner ID"
//	@Param			status		query	string	false	"Workflow status"
//	@Param			from_date	query	string	false	"Period start lower bound (YYYY-MM-DD)"
//	@Param			to_date		query	string	false	"Period end upper bound (YYYY-MM-DD)"
//	@Param			page		query	int		false	"Page number"
//	@Param			page_size	query	int		false	"Page size"
//	@Success		200	{object}	APIResponse[[]SettlementResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Router			/settlements [get]
func (h *SettlementHandler) ListSettlements(c *gin.Context) {
	var filter SettlementListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	domainFilter := settlement.ListFilter{
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	}
	if filter.DriverID != "" {
		id := uuid.MustParse(filter.DriverID)
		domainFilter.DriverID = &id
	}
	if filter.VehicleID != "" {
		id := uuid.MustParse(filter.VehicleID)
		domainFilter.VehicleID = &id
	}
	if filter.PartnerID != "" {
		id := uuid.MustParse(filter.PartnerID)
		domainFilter.PartnerID = &id
	}
	if filter.Status != "" {
		status := settlement.Status(filter.Status)
		if !status.IsValid() {
			h.BadRequest(c, "Unknown settlement status")
			return
		}
		domainFilter.Status = &status
	}
	if filter.FromDate != "" {
		from, err := time.Parse(dateLayout, filter.FromDate)
		if err != nil {
			h.BadRequest(c, "Invalid from_date, expected YYYY-MM-DD")
			return
		}
		domainFilter.PeriodStart = &from
	}
	if filter.ToDate != "" {
		to, err := time.Parse(dateLayout, filter.ToDate)
		if err != nil {
			h.BadRequest(c, "Invalid to_date, expected YYYY-MM-DD")
			return
		}
		domainFilter.PeriodEnd = &to
	}

	result, err := h.service.List(c.Request.Context(), domainFilter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	items := make([]SettlementResponse, 0, len(result.Items))
	for _, stl := range result.Items {
		items = append(items, h.toSettlementResponse(*stl))
	}

	h.SuccessWithMeta(c, items, result.Total, page, pageSize)
}

// GetSettlementCounts godoc
// @ID           getSettlementCounts
//
//	@Summary		Settlement counts by status
//	@Description	Returns the number of settlements in each workflow status
//	@Tags			settlements
//	@Produce		json
//	@Success		200	{object}	APIResponse[SettlementCountsResponse]
//	@Router			/settlements/counts [get]
func (h *SettlementHandler) GetSettlementCounts(c *gin.Context) {
	counts, err := h.service.GetSettlementCountsByStatus(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, SettlementCountsResponse{Counts: counts})
}

// SubmitReceipt godoc
// @ID           submitSettlementReceipt
//
//	@Summary		Submit receipt
//	@Description	Record the driver's receipt and move the settlement to receipt submitted
//	@Tags			settlements
//	@Accept			json
//	@Produce		json
//	@Param			id		path	string					true	"Settlement ID"
//	@Param			request	body	SubmitReceiptRequest	true	"Receipt reference"
//	@Success		200	{object}	APIResponse[SettlementResponse]
//	@Failure		422	{object}	ErrorResponse
//	@Router			/settlements/{id}/submit-receipt [post]
func (h *SettlementHandler) SubmitReceipt(c *gin.Context) {
	settlementID, actorID, ok := h.bindTransition(c)
	if !ok {
		return
	}

	var body SubmitReceiptRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	stl, err := h.service.SubmitReceipt(c.Request.Context(), settlementID, actorID, body.ReceiptRef)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, h.toSettlementResponse(*stl))
}

// ApproveSettlement godoc
// @ID           approveSettlement
//
//	@Summary		Approve settlement
//	@Description	Approve a submitted settlement for payment
//	@Tags			settlements
//	@Produce		json
//	@Param			id	path	string	true	"Settlement ID"
//	@Success		200	{object}	APIResponse[SettlementResponse]
//	@Failure		422	{object}	ErrorResponse
//	@Router			/settlements/{id}/approve [post]
func (h *SettlementHandler) ApproveSettlement(c *gin.Context) {
	settlementID, actorID, ok := h.bindTransition(c)
	if !ok {
		return
	}

	stl, err := h.service.Approve(c.Request.Context(), settlementID, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, h.toSettlementResponse(*stl))
}

// MarkSettlementPaid godoc
// @ID           markSettlementPaid
//
//	@Summary		Mark settlement paid
//	@Description	Finalize the settlement; the earmarked ledger debit posts on success
//	@Tags			settlements
//	@Accept			json
//	@Produce		json
//	@Param			id		path	string						true	"Settlement ID"
//	@Param			request	body	MarkSettlementPaidRequest	true	"Payment proof reference"
//	@Success		200	{object}	APIResponse[SettlementResponse]
//	@Failure		422	{object}	ErrorResponse
//	@Router			/settlements/{id}/pay [post]
func (h *SettlementHandler) MarkSettlementPaid(c *gin.Context) {
	settlementID, actorID, ok := h.bindTransition(c)
	if !ok {
		return
	}

	var body MarkSettlementPaidRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	stl, err := h.service.MarkPaid(c.Request.Context(), settlementID, actorID, body.PaymentProofRef)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, h.toSettlementResponse(*stl))
}

// RejectSettlement godoc
// @ID           rejectSettlement
//
//	@Summary		Reject settlement
//	@Description	Reject a submitted settlement with a mandatory reason
//	@Tags			settlements
//	@Accept			json
//	@Produce		json
//	@Param			id		path	string					true	"Settlement ID"
//	@Param			request	body	RejectSettlementRequest	true	"Rejection reason"
//	@Success		200	{object}	APIResponse[SettlementResponse]
//	@Failure		422	{object}	ErrorResponse
//	@Router			/settlements/{id}/reject [post]
func (h *SettlementHandler) RejectSettlement(c *gin.Context) {
	settlementID, actorID, ok := h.bindTransition(c)
	if !ok {
		return
	}

	var body RejectSettlementRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	stl, err := h.service.Reject(c.Request.Context(), settlementID, actorID, body.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, h.toSettlementResponse(*stl))
}

// ReopenSettlement godoc
// @ID           reopenSettlement
//
//	@Summary		Reopen settlement
//	@Description	Return a rejected settlement to pending receipt
//	@Tags			settlements
//	@Produce		json
//	@Param			id	path	string	true	"Settlement ID"
//	@Success		200	{object}	APIResponse[SettlementResponse]
//	@Failure		422	{object}	ErrorResponse
//	@Router			/settlements/{id}/reopen [post]
func (h *SettlementHandler) ReopenSettlement(c *gin.Context) {
	settlementID, actorID, ok := h.bindTransition(c)
	if !ok {
		return
	}

	stl, err := h.service.Reopen(c.Request.Context(), settlementID, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, h.toSettlementResponse(*stl))
}

// bindTransition extracts the settlement ID and acting user common to all
// workflow transition endpoints
func (h *SettlementHandler) bindTransition(c *gin.Context) (settlementID, actorID uuid.UUID, ok bool) {
	settlementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid settlement ID")
		return uuid.Nil, uuid.Nil, false
	}

	actorID, err = getActorID(c)
	if err != nil || actorID == uuid.Nil {
		h.Unauthorized(c, "Actor identity required")
		return uuid.Nil, uuid.Nil, false
	}

	return settlementID, actorID, true
}

// RegisterRoutes registers all settlement routes
func (h *SettlementHandler) RegisterRoutes(rg *gin.RouterGroup) {
	settlements := rg.Group("/settlements")
	{
		settlements.GET("", h.ListSettlements)
		settlements.GET("/counts", h.GetSettlementCounts)
		settlements.GET("/:id", h.GetSettlement)
		settlements.POST("/compute", h.ComputeSettlement)
		settlements.POST("/:id/submit-receipt", h.SubmitReceipt)
		settlements.POST("/:id/approve", h.ApproveSettlement)
		settlements.POST("/:id/pay", h.MarkSettlementPaid)
		settlements.POST("/:id/reject", h.RejectSettlement)
		settlements.POST("/:id/reopen", h.ReopenSettlement)
	}
}
