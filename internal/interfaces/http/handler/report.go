package handler

import (
	"net/http"
	"time"

	fleetapp "github.com/fleetops/backend/internal/application/fleet"
	"github.com/fleetops/backend/internal/application/reporting"
	settlementapp "github.com/fleetops/backend/internal/application/settlement"
	"github.com/fleetops/backend/internal/domain/settlement"
	"github.com/fleetops/backend/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReportHandler handles profitability reports and read-side aggregation endpoints
type ReportHandler struct {
	BaseHandler
	reports   *reporting.Service
	earnings  *settlementapp.EarningsAggregator
	costs     *settlementapp.CostAggregator
	configSvc *fleetapp.ConfigService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(
	reports *reporting.Service,
	earnings *settlementapp.EarningsAggregator,
	costs *settlementapp.CostAggregator,
	configSvc *fleetapp.ConfigService,
) *ReportHandler {
	return &ReportHandler{
		reports:   reports,
		earnings:  earnings,
		costs:     costs,
		configSvc: configSvc,
	}
}

// ===================== Request/Response DTOs =====================

// SummaryQuery identifies the driver and period to aggregate. VehicleID
// additionally pulls in vehicle-scoped costs not tied to any driver; it is
// ignored by earnings summaries.
//
//	@Description	Summary query
type SummaryQuery struct {
	DriverID  string `form:"driver_id" binding:"required,uuid"`
	VehicleID string `form:"vehicle_id" binding:"omitempty,uuid"`
	FromDate  string `form:"from_date" binding:"required"`
	ToDate    string `form:"to_date" binding:"required"`
}

// EarningsSummaryResponse represents a driver's aggregated earnings for a period
//
//	@Description	Earnings summary response
type EarningsSummaryResponse struct {
	DriverID        string                 `json:"driver_id"`
	PeriodStart     string                 `json:"period_start" example:"2026-08-01"`
	PeriodEnd       string                 `json:"period_end" example:"2026-08-08"`
	Lines           []PlatformEarningsLine `json:"lines"`
	TotalGross      string                 `json:"total_gross" example:"1250.00"`
	TotalCommission string                 `json:"total_commission" example:"187.50"`
	TotalNet        string                 `json:"total_net" example:"1062.50"`
	TotalTips       string                 `json:"total_tips" example:"45.00"`
}

// CostLineResponse represents one cost record inside a summary
//
//	@Description	Cost line
type CostLineResponse struct {
	ID              string    `json:"id"`
	Category        string    `json:"category" example:"fuel"`
	Amount          string    `json:"amount" example:"42.70"`
	IncurredAt      time.Time `json:"incurred_at"`
	AccrualEligible bool      `json:"accrual_eligible" example:"false"`
	Platform        string    `json:"platform,omitempty" example:"uber"`
}

// CostSummaryResponse partitions a driver's costs into immediate deductions
// and deferred accruals
//
//	@Description	Cost summary response
type CostSummaryResponse struct {
	DriverID            string             `json:"driver_id"`
	PeriodStart         string             `json:"period_start" example:"2026-08-01"`
	PeriodEnd           string             `json:"period_end" example:"2026-08-08"`
	Immediate           []CostLineResponse `json:"immediate"`
	Deferred            []CostLineResponse `json:"deferred"`
	ImmediateByCategory map[string]string  `json:"immediate_by_category"`
	ImmediateTotal      string             `json:"immediate_total" example:"85.40"`
	DeferredTotal       string             `json:"deferred_total" example:"32.15"`
}

// VehicleROIResponse represents one vehicle's profitability for a period
//
//	@Description	Vehicle ROI response
type VehicleROIResponse struct {
	VehicleID   string  `json:"vehicle_id"`
	PeriodStart string  `json:"period_start" example:"2026-08-01"`
	PeriodEnd   string  `json:"period_end" example:"2026-09-01"`
	Revenue     string  `json:"revenue" example:"1600.00"`
	Costs       string  `json:"costs" example:"900.00"`
	Profit      string  `json:"profit" example:"700.00"`
	ROIPercent  *string `json:"roi_percent,omitempty" example:"77.78"`
}

// PartnerSummaryResponse aggregates vehicle profitability for one partner
//
//	@Description	Partner summary response
type PartnerSummaryResponse struct {
	PartnerID           string               `json:"partner_id"`
	PeriodStart         string               `json:"period_start" example:"2026-08-01"`
	PeriodEnd           string               `json:"period_end" example:"2026-09-01"`
	Vehicles            []VehicleROIResponse `json:"vehicles"`
	TotalRevenue        string               `json:"total_revenue" example:"4800.00"`
	TotalCosts          string               `json:"total_costs" example:"2700.00"`
	TotalProfit         string               `json:"total_profit" example:"2100.00"`
	TotalLiquid         string               `json:"total_liquid" example:"1980.00"`
	TotalEarnings       string               `json:"total_earnings" example:"4800.00"`
	TotalDeductions     string               `json:"total_deductions" example:"620.00"`
	SettlementsByStatus map[string]int       `json:"settlements_by_status"`
}

// FleetRollupResponse aggregates every partner's summary for a period
//
//	@Description	Fleet rollup response
type FleetRollupResponse struct {
	PeriodStart  string                   `json:"period_start" example:"2026-08-01"`
	PeriodEnd    string                   `json:"period_end" example:"2026-09-01"`
	Partners     []PartnerSummaryResponse `json:"partners"`
	TotalRevenue string                   `json:"total_revenue" example:"9200.00"`
	TotalCosts   string                   `json:"total_costs" example:"5100.00"`
	TotalProfit  string                   `json:"total_profit" example:"4100.00"`
}

func toVehicleROIResponse(roi reporting.VehicleROI) VehicleROIResponse {
	resp := VehicleROIResponse{
		VehicleID:   roi.VehicleID.String(),
		PeriodStart: roi.Period.Start().Format(dateLayout),
		PeriodEnd:   roi.Period.End().Format(dateLayout),
		Revenue:     roi.Revenue.StringFixed(2),
		Costs:       roi.Costs.StringFixed(2),
		Profit:      roi.Profit.StringFixed(2),
	}
	if roi.ROIPercent != nil {
		pct := roi.ROIPercent.StringFixed(2)
		resp.ROIPercent = &pct
	}
	return resp
}

func toPartnerSummaryResponse(summary reporting.PartnerSummary) PartnerSummaryResponse {
	resp := PartnerSummaryResponse{
		PartnerID:           summary.PartnerID.String(),
		PeriodStart:         summary.Period.Start().Format(dateLayout),
		PeriodEnd:           summary.Period.End().Format(dateLayout),
		Vehicles:            make([]VehicleROIResponse, 0, len(summary.Vehicles)),
		TotalRevenue:        summary.TotalRevenue.StringFixed(2),
		TotalCosts:          summary.TotalCosts.StringFixed(2),
		TotalProfit:         summary.TotalProfit.StringFixed(2),
		TotalLiquid:         summary.TotalLiquid.StringFixed(2),
		TotalEarnings:       summary.TotalEarnings.StringFixed(2),
		TotalDeductions:     summary.TotalDeductions.StringFixed(2),
		SettlementsByStatus: make(map[string]int, len(summary.SettlementsByStatus)),
	}
	for status, n := range summary.SettlementsByStatus {
		resp.SettlementsByStatus[string(status)] = n
	}
	for _, roi := range summary.Vehicles {
		resp.Vehicles = append(resp.Vehicles, toVehicleROIResponse(roi))
	}
	return resp
}

func toCostLines(records []*settlement.CostRecord) []CostLineResponse {
	lines := make([]CostLineResponse, 0, len(records))
	for _, record := range records {
		lines = append(lines, CostLineResponse{
			ID:              record.ID.String(),
			Category:        string(record.Category),
			Amount:          record.Amount.StringFixed(2),
			IncurredAt:      record.IncurredAt,
			AccrualEligible: record.AccrualEligible,
			Platform:        record.Platform,
		})
	}
	return lines
}

// ===================== Handlers =====================

// GetEarningsSummary godoc
// @ID           getEarningsSummary
//
//	@Summary		Earnings summary
//	@Description	Aggregate a driver's earnings records for a period, grouped by platform
//	@Tags			reports
//	@Produce		json
//	@Param			driver_id	query	string	true	"Driver ID"
//	@Param			from_date	query	string	true	"Period start (YYYY-MM-DD, inclusive)"
//	@Param			to_date		query	string	true	"Period end (YYYY-MM-DD, exclusive)"
//	@Success		200	{object}	APIResponse[EarningsSummaryResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Router			/earnings/summary [get]
func (h *ReportHandler) GetEarningsSummary(c *gin.Context) {
	var query SummaryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	period, err := parsePeriod(query.FromDate, query.ToDate)
	if err != nil {
		h.ErrorWithCode(c, "INVALID_PERIOD", err.Error())
		return
	}

	summary, err := h.earnings.Aggregate(c.Request.Context(), uuid.MustParse(query.DriverID), period)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	resp := EarningsSummaryResponse{
		DriverID:        summary.DriverID.String(),
		PeriodStart:     summary.PeriodStart.Format(dateLayout),
		PeriodEnd:       summary.PeriodEnd.Format(dateLayout),
		Lines:           make([]PlatformEarningsLine, 0, len(summary.Lines)),
		TotalGross:      summary.TotalGross.StringFixed(2),
		TotalCommission: summary.TotalCommission.StringFixed(2),
		TotalNet:        summary.TotalNet.StringFixed(2),
		TotalTips:       summary.TotalTips.StringFixed(2),
	}
	for _, line := range summary.Lines {
		resp.Lines = append(resp.Lines, PlatformEarningsLine{
			Platform:           string(line.Platform),
			GrossAmount:        line.GrossAmount.StringFixed(2),
			PlatformCommission: line.PlatformCommission.StringFixed(2),
			NetAmount:          line.NetAmount.StringFixed(2),
			TipAmount:          line.TipAmount.StringFixed(2),
		})
	}

	h.Success(c, resp)
}

// GetCostSummary godoc
// @ID           getCostSummary
//
//	@Summary		Cost summary
//	@Description	Partition a driver's costs for a period into immediate deductions and deferred accruals under the current config
//	@Tags			reports
//	@Produce		json
//	@Param			driver_id	query	string	true	"Driver ID"
//	@Param			vehicle_id	query	string	false	"Vehicle ID, includes vehicle-scoped costs not tied to any driver"
//	@Param			from_date	query	string	true	"Period start (YYYY-MM-DD, inclusive)"
//	@Param			to_date		query	string	true	"Period end (YYYY-MM-DD, exclusive)"
//	@Success		200	{object}	APIResponse[CostSummaryResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Router			/costs/summary [get]
func (h *ReportHandler) GetCostSummary(c *gin.Context) {
	var query SummaryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	period, err := parsePeriod(query.FromDate, query.ToDate)
	if err != nil {
		h.ErrorWithCode(c, "INVALID_PERIOD", err.Error())
		return
	}

	driverID := uuid.MustParse(query.DriverID)
	var vehicleID uuid.UUID
	if query.VehicleID != "" {
		vehicleID = uuid.MustParse(query.VehicleID)
	}

	config, err := h.configSvc.Latest(c.Request.Context(), driverID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	summary, err := h.costs.Aggregate(c.Request.Context(), driverID, vehicleID, period, config)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	byCategory := make(map[string]string, len(summary.ImmediateByCategory))
	for category, amount := range summary.ImmediateByCategory {
		byCategory[string(category)] = amount.StringFixed(2)
	}

	h.Success(c, CostSummaryResponse{
		DriverID:            summary.DriverID.String(),
		PeriodStart:         summary.PeriodStart.Format(dateLayout),
		PeriodEnd:           summary.PeriodEnd.Format(dateLayout),
		Immediate:           toCostLines(summary.Immediate),
		Deferred:            toCostLines(summary.Deferred),
		ImmediateByCategory: byCategory,
		ImmediateTotal:      summary.ImmediateTotal.StringFixed(2),
		DeferredTotal:       summary.DeferredTotal.StringFixed(2),
	})
}

// GetVehicleROI godoc
// @ID           getVehicleROI
//
//	@Summary		Vehicle ROI
//	@Description	Return one vehicle's revenue, costs, profit and ROI for a period
//	@Tags			reports
//	@Produce		json
//	@Param			id			path	string	true	"Vehicle ID"
//	@Param			from_date	query	string	true	"Period start (YYYY-MM-DD, inclusive)"
//	@Param			to_date		query	string	true	"Period end (YYYY-MM-DD, exclusive)"
//	@Success		200	{object}	APIResponse[VehicleROIResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Router			/reports/vehicles/{id}/roi [get]
func (h *ReportHandler) GetVehicleROI(c *gin.Context) {
	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid vehicle ID")
		return
	}

	period, ok := h.bindReportPeriod(c)
	if !ok {
		return
	}

	roi, err := h.reports.VehicleROI(c.Request.Context(), vehicleID, period)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toVehicleROIResponse(*roi))
}

// GetPartnerSummary godoc
// @ID           getPartnerSummary
//
//	@Summary		Partner summary
//	@Description	Return per-vehicle profitability and totals for one partner company
//	@Tags			reports
//	@Produce		json
//	@Param			id			path	string	true	"Partner ID"
//	@Param			from_date	query	string	true	"Period start (YYYY-MM-DD, inclusive)"
//	@Param			to_date		query	string	true	"Period end (YYYY-MM-DD, exclusive)"
//	@Success		200	{object}	APIResponse[PartnerSummaryResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Router			/reports/partners/{id}/summary [get]
func (h *ReportHandler) GetPartnerSummary(c *gin.Context) {
	partnerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid partner ID")
		return
	}

	period, ok := h.bindReportPeriod(c)
	if !ok {
		return
	}

	summary, err := h.reports.PartnerSummary(c.Request.Context(), partnerID, period)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPartnerSummaryResponse(*summary))
}

// GetFleetRollup godoc
// @ID           getFleetRollup
//
//	@Summary		Fleet rollup
//	@Description	Return every partner's profitability summary for a period
//	@Tags			reports
//	@Produce		json
//	@Param			from_date	query	string	true	"Period start (YYYY-MM-DD, inclusive)"
//	@Param			to_date		query	string	true	"Period end (YYYY-MM-DD, exclusive)"
//	@Success		200	{object}	APIResponse[FleetRollupResponse]
//	@Router			/reports/fleet/rollup [get]
func (h *ReportHandler) GetFleetRollup(c *gin.Context) {
	period, ok := h.bindReportPeriod(c)
	if !ok {
		return
	}

	rollup, err := h.reports.FleetRollup(c.Request.Context(), period)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	resp := FleetRollupResponse{
		PeriodStart:  rollup.Period.Start().Format(dateLayout),
		PeriodEnd:    rollup.Period.End().Format(dateLayout),
		Partners:     make([]PartnerSummaryResponse, 0, len(rollup.Partners)),
		TotalRevenue: rollup.TotalRevenue.StringFixed(2),
		TotalCosts:   rollup.TotalCosts.StringFixed(2),
		TotalProfit:  rollup.TotalProfit.StringFixed(2),
	}
	for _, partner := range rollup.Partners {
		resp.Partners = append(resp.Partners, toPartnerSummaryResponse(partner))
	}

	h.Success(c, resp)
}

// bindReportPeriod parses the from_date/to_date query pair shared by the
// report endpoints
func (h *ReportHandler) bindReportPeriod(c *gin.Context) (valueobject.Period, bool) {
	fromDate := c.Query("from_date")
	toDate := c.Query("to_date")
	if fromDate == "" || toDate == "" {
		h.BadRequest(c, "from_date and to_date are required")
		return valueobject.Period{}, false
	}

	period, err := parsePeriod(fromDate, toDate)
	if err != nil {
		h.ErrorWithCode(c, "INVALID_PERIOD", err.Error())
		return valueobject.Period{}, false
	}
	return period, true
}

// RegisterRoutes registers all report and summary routes
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/earnings/summary", h.GetEarningsSummary)
	rg.GET("/costs/summary", h.GetCostSummary)

	reports := rg.Group("/reports")
	{
		reports.GET("/vehicles/:id/roi", h.GetVehicleROI)
		reports.GET("/partners/:id/summary", h.GetPartnerSummary)
		reports.GET("/fleet/rollup", h.GetFleetRollup)
	}
}
