package handler

import (
	"net/http"
	"time"

	fleetapp "github.com/fleetops/backend/internal/application/fleet"
	"github.com/fleetops/backend/internal/domain/fleet"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContractHandler handles compensation contract API endpoints
type ContractHandler struct {
	BaseHandler
	service *fleetapp.ContractService
}

// NewContractHandler creates a new ContractHandler
func NewContractHandler(service *fleetapp.ContractService) *ContractHandler {
	return &ContractHandler{
		service: service,
	}
}

// ===================== Request/Response DTOs =====================

// OpenRentalContractRequest opens a rental contract for a vehicle-driver pairing
//
//	@Description	Open rental contract request
type OpenRentalContractRequest struct {
	VehicleID   string   `json:"vehicle_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	DriverID    string   `json:"driver_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440001"`
	RentAmount  float64  `json:"rent_amount" binding:"required,gt=0" example:"250.00"`
	Periodicity string   `json:"periodicity" binding:"required,oneof=weekly monthly" example:"weekly"`
	Deposit     *float64 `json:"deposit,omitempty" binding:"omitempty,gte=0" example:"500.00"`
	StartDate   string   `json:"start_date" binding:"required" example:"2026-08-01"`
}

// OpenCommissionContractRequest opens a commission contract for a pairing
//
//	@Description	Open commission contract request
type OpenCommissionContractRequest struct {
	VehicleID  string  `json:"vehicle_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	DriverID   string  `json:"driver_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440001"`
	DriverPct  float64 `json:"driver_pct" binding:"required,gt=0" example:"60"`
	PartnerPct float64 `json:"partner_pct" binding:"required,gt=0" example:"40"`
	StartDate  string  `json:"start_date" binding:"required" example:"2026-08-01"`
}

// CloseContractRequest ends a contract on a given date
//
//	@Description	Close contract request
type CloseContractRequest struct {
	EndDate string `json:"end_date" binding:"required" example:"2026-12-31"`
}

// ResolveContractQuery identifies the pairing and date to resolve
//
//	@Description	Resolve contract query
type ResolveContractQuery struct {
	VehicleID string `form:"vehicle_id" binding:"required,uuid"`
	DriverID  string `form:"driver_id" binding:"required,uuid"`
	Date      string `form:"date" binding:"required"`
}

// RentalTermsResponse represents rental terms in API responses
//
//	@Description	Rental terms
type RentalTermsResponse struct {
	RentAmount  string  `json:"rent_amount" example:"250.00"`
	Currency    string  `json:"currency" example:"EUR"`
	Periodicity string  `json:"periodicity" example:"weekly"`
	Deposit     *string `json:"deposit,omitempty" example:"500.00"`
}

// CommissionTermsResponse represents commission terms in API responses
//
//	@Description	Commission terms
type CommissionTermsResponse struct {
	DriverPct  string `json:"driver_pct" example:"60"`
	PartnerPct string `json:"partner_pct" example:"40"`
}

// ContractResponse represents a contract in API responses
//
//	@Description	Contract response
type ContractResponse struct {
	ID         string                   `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	VehicleID  string                   `json:"vehicle_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	DriverID   string                   `json:"driver_id" example:"550e8400-e29b-41d4-a716-446655440002"`
	PartnerID  string                   `json:"partner_id" example:"550e8400-e29b-41d4-a716-446655440003"`
	Model      string                   `json:"model" example:"rental"`
	Rental     *RentalTermsResponse     `json:"rental,omitempty"`
	Commission *CommissionTermsResponse `json:"commission,omitempty"`
	StartDate  string                   `json:"start_date" example:"2026-08-01"`
	EndDate    *string                  `json:"end_date,omitempty" example:"2026-12-31"`
	CreatedAt  time.Time                `json:"created_at"`
	UpdatedAt  time.Time                `json:"updated_at"`
	Version    int                      `json:"version" example:"1"`
}

func (h *ContractHandler) toContractResponse(c fleet.Contract) ContractResponse {
	resp := ContractResponse{
		ID:        c.ID.String(),
		VehicleID: c.VehicleID.String(),
		DriverID:  c.DriverID.String(),
		PartnerID: c.PartnerID.String(),
		Model:     string(c.Model),
		StartDate: c.StartDate.Format(dateLayout),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Version:   c.Version,
	}
	if c.EndDate != nil {
		end := c.EndDate.Format(dateLayout)
		resp.EndDate = &end
	}
	if c.Rental != nil {
		rent := c.Rental.RentMoney()
		terms := RentalTermsResponse{
			RentAmount:  rent.StringFixed(2),
			Currency:    string(rent.Currency()),
			Periodicity: string(c.Rental.Periodicity),
		}
		if c.Rental.Deposit != nil {
			deposit := c.Rental.Deposit.StringFixed(2)
			terms.Deposit = &deposit
		}
		resp.Rental = &terms
	}
	if c.Commission != nil {
		resp.Commission = &CommissionTermsResponse{
			DriverPct:  c.Commission.DriverPct.String(),
			PartnerPct: c.Commission.PartnerPct.String(),
		}
	}
	return resp
}

// ===================== Handlers =====================

// OpenRentalContract godoc
// @ID           openRentalContract
//
//	@Summary		Open rental contract
//	@Description	Open a rental contract for a vehicle-driver pairing, superseding any open contract
//	@Tags			contracts
//	@Accept			json
//	@Produce		json
//	@Param			request	body	OpenRentalContractRequest	true	"Rental contract request"
//	@Success		201	{object}	APIResponse[ContractResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Router			/contracts/rental [post]
func (h *ContractHandler) OpenRentalContract(c *gin.Context) {
	var req OpenRentalContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		h.BadRequest(c, "Invalid start_date, expected YYYY-MM-DD")
		return
	}

	serviceReq := fleetapp.OpenRentalRequest{
		VehicleID:   uuid.MustParse(req.VehicleID),
		DriverID:    uuid.MustParse(req.DriverID),
		RentAmount:  decimal.NewFromFloat(req.RentAmount),
		Periodicity: fleet.RentPeriodicity(req.Periodicity),
		StartDate:   startDate,
	}
	if req.Deposit != nil {
		serviceReq.Deposit = toDecimalPtr(*req.Deposit)
	}

	contract, err := h.service.OpenRental(c.Request.Context(), serviceReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, h.toContractResponse(*contract))
}

// OpenCommissionContract godoc
// @ID           openCommissionContract
//
//	@Summary		Open commission contract
//	@Description	Open a commission contract for a vehicle-driver pairing, superseding any open contract
//	@Tags			contracts
//	@Accept			json
//	@Produce		json
//	@Param			request	body	OpenCommissionContractRequest	true	"Commission contract request"
//	@Success		201	{object}	APIResponse[ContractResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Router			/contracts/commission [post]
func (h *ContractHandler) OpenCommissionContract(c *gin.Context) {
	var req OpenCommissionContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		h.BadRequest(c, "Invalid start_date, expected YYYY-MM-DD")
		return
	}

	contract, err := h.service.OpenCommission(c.Request.Context(), fleetapp.OpenCommissionRequest{
		VehicleID:  uuid.MustParse(req.VehicleID),
		DriverID:   uuid.MustParse(req.DriverID),
		DriverPct:  decimal.NewFromFloat(req.DriverPct),
		PartnerPct: decimal.NewFromFloat(req.PartnerPct),
		StartDate:  startDate,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, h.toContractResponse(*contract))
}

// CloseContract godoc
// @ID           closeContract
//
//	@Summary		Close contract
//	@Description	End a contract on the given date; the contract stays available for historical settlements
//	@Tags			contracts
//	@Accept			json
//	@Produce		json
//	@Param			id		path	string					true	"Contract ID"
//	@Param			request	body	CloseContractRequest	true	"Close contract request"
//	@Success		200	{object}	APIResponse[ContractResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Router			/contracts/{id}/close [post]
func (h *ContractHandler) CloseContract(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}

	var req CloseContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	endDate, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		h.BadRequest(c, "Invalid end_date, expected YYYY-MM-DD")
		return
	}

	contract, err := h.service.Close(c.Request.Context(), contractID, endDate)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, h.toContractResponse(*contract))
}

// ResolveContract godoc
// @ID           resolveContract
//
//	@Summary		Resolve active contract
//	@Description	Return the contract in force for a vehicle-driver pairing on a date
//	@Tags			contracts
//	@Produce		json
//	@Param			vehicle_id	query	string	true	"Vehicle ID"
//	@Param			driver_id	query	string	true	"Driver ID"
//	@Param			date		query	string	true	"Date (YYYY-MM-DD)"
//	@Success		200	{object}	APIResponse[ContractResponse]
//	@Failure		422	{object}	ErrorResponse
//	@Router			/contracts/resolve [get]
func (h *ContractHandler) ResolveContract(c *gin.Context) {
	var query ResolveContractQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	at, err := time.Parse(dateLayout, query.Date)
	if err != nil {
		h.BadRequest(c, "Invalid date, expected YYYY-MM-DD")
		return
	}

	contract, err := h.service.Resolve(c.Request.Context(), uuid.MustParse(query.VehicleID), uuid.MustParse(query.DriverID), at)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, h.toContractResponse(*contract))
}

// ListDriverContracts godoc
// @ID           listDriverContracts
//
//	@Summary		List driver contracts
//	@Description	Return a driver's contract history, newest first
//	@Tags			contracts
//	@Produce		json
//	@Param			id	path	string	true	"Driver ID"
//	@Success		200	{object}	APIResponse[[]ContractResponse]
//	@Router			/drivers/{id}/contracts [get]
func (h *ContractHandler) ListDriverContracts(c *gin.Context) {
	driverID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid driver ID")
		return
	}

	contracts, err := h.service.ListByDriver(c.Request.Context(), driverID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	items := make([]ContractResponse, 0, len(contracts))
	for _, contract := range contracts {
		items = append(items, h.toContractResponse(contract))
	}

	h.Success(c, items)
}

// RegisterRoutes registers all contract routes
func (h *ContractHandler) RegisterRoutes(rg *gin.RouterGroup) {
	contracts := rg.Group("/contracts")
	{
		contracts.GET("/resolve", h.ResolveContract)
		contracts.POST("/rental", h.OpenRentalContract)
		contracts.POST("/commission", h.OpenCommissionContract)
		contracts.POST("/:id/close", h.CloseContract)
	}

	rg.GET("/drivers/:id/contracts", h.ListDriverContracts)
}
