package handler

import (
	"net/http"
	"strconv"
	"time"

	fleetapp "github.com/fleetops/backend/internal/application/fleet"
	"github.com/fleetops/backend/internal/domain/fleet"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FinancialConfigHandler handles driver financial configuration API endpoints
type FinancialConfigHandler struct {
	BaseHandler
	service *fleetapp.ConfigService
}

// NewFinancialConfigHandler creates a new FinancialConfigHandler
func NewFinancialConfigHandler(service *fleetapp.ConfigService) *FinancialConfigHandler {
	return &FinancialConfigHandler{
		service: service,
	}
}

// ===================== Request/Response DTOs =====================

// UpdateFinancialConfigRequest carries the config fields to change. Omitted
// fields keep their current value; a new version is appended either way.
//
//	@Description	Update financial config request
type UpdateFinancialConfigRequest struct {
	TollAccumulation   *bool    `json:"toll_accumulation,omitempty" example:"true"`
	TollPlatforms      []string `json:"toll_platforms,omitempty" example:"uber,bolt"`
	Gratuity           *string  `json:"gratuity,omitempty" binding:"omitempty,oneof=included_in_commission paid_separately" example:"paid_separately"`
	VATIncluded        *bool    `json:"vat_included,omitempty" example:"true"`
	VATPercent         *float64 `json:"vat_percent,omitempty" binding:"omitempty,gte=0,lt=100" example:"23"`
	CommissionOverride *bool    `json:"commission_override,omitempty" example:"true"`
	OverrideDriverPct  *float64 `json:"override_driver_pct,omitempty" binding:"omitempty,gte=0" example:"55"`
	OverridePartnerPct *float64 `json:"override_partner_pct,omitempty" binding:"omitempty,gte=0" example:"45"`
}

// FinancialConfigResponse represents a financial config version in API responses
//
//	@Description	Financial config response
type FinancialConfigResponse struct {
	ID            string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	DriverID      string `json:"driver_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	ConfigVersion int    `json:"config_version" example:"3"`

	TollAccumulation bool     `json:"toll_accumulation" example:"true"`
	TollPlatforms    []string `json:"toll_platforms"`

	Gratuity string `json:"gratuity" example:"included_in_commission"`

	VATIncluded bool   `json:"vat_included" example:"false"`
	VATPercent  string `json:"vat_percent" example:"23"`

	CommissionOverride bool   `json:"commission_override" example:"false"`
	OverrideDriverPct  string `json:"override_driver_pct" example:"0"`
	OverridePartnerPct string `json:"override_partner_pct" example:"0"`

	CreatedAt time.Time `json:"created_at"`
}

func (h *FinancialConfigHandler) toConfigResponse(cfg fleet.DriverFinancialConfig) FinancialConfigResponse {
	platforms := cfg.TollPlatforms
	if platforms == nil {
		platforms = []string{}
	}
	return FinancialConfigResponse{
		ID:                 cfg.ID.String(),
		DriverID:           cfg.DriverID.String(),
		ConfigVersion:      cfg.ConfigVersion,
		TollAccumulation:   cfg.TollAccumulation,
		TollPlatforms:      platforms,
		Gratuity:           string(cfg.Gratuity),
		VATIncluded:        cfg.VATIncluded,
		VATPercent:         cfg.VATPercent.String(),
		CommissionOverride: cfg.CommissionOverride,
		OverrideDriverPct:  cfg.OverrideDriverPct.String(),
		OverridePartnerPct: cfg.OverridePartnerPct.String(),
		CreatedAt:          cfg.CreatedAt,
	}
}

// ===================== Handlers =====================

// UpdateFinancialConfig godoc
// @ID           updateFinancialConfig
//
//	@Summary		Update financial config
//	@Description	Append a new financial config version for a driver; prior versions are never mutated
//	@Tags			financial-config
//	@Accept			json
//	@Produce		json
//	@Param			id		path	string							true	"Driver ID"
//	@Param			request	body	UpdateFinancialConfigRequest	true	"Config changes"
//	@Success		200	{object}	APIResponse[FinancialConfigResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Router			/drivers/{id}/financial-config [put]
func (h *FinancialConfigHandler) UpdateFinancialConfig(c *gin.Context) {
	driverID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid driver ID")
		return
	}

	var req UpdateFinancialConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	update := fleetapp.ConfigUpdate{
		TollAccumulation:   req.TollAccumulation,
		TollPlatforms:      req.TollPlatforms,
		VATIncluded:        req.VATIncluded,
		CommissionOverride: req.CommissionOverride,
	}
	if req.Gratuity != nil {
		policy := fleet.GratuityPolicy(*req.Gratuity)
		update.Gratuity = &policy
	}
	if req.VATPercent != nil {
		update.VATPercent = toDecimalPtr(*req.VATPercent)
	}
	if req.OverrideDriverPct != nil {
		update.OverrideDriverPct = toDecimalPtr(*req.OverrideDriverPct)
	}
	if req.OverridePartnerPct != nil {
		update.OverridePartnerPct = toDecimalPtr(*req.OverridePartnerPct)
	}

	cfg, err := h.service.Update(c.Request.Context(), driverID, update)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, h.toConfigResponse(*cfg))
}

// GetFinancialConfig godoc
// @ID           getFinancialConfig
//
//	@Summary		Get current financial config
//	@Description	Return the driver's latest financial config version, or platform defaults when none exists
//	@Tags			financial-config
//	@Produce		json
//	@Param			id	path	string	true	"Driver ID"
//	@Success		200	{object}	APIResponse[FinancialConfigResponse]
//	@Router			/drivers/{id}/financial-config [get]
func (h *FinancialConfigHandler) GetFinancialConfig(c *gin.Context) {
	driverID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid driver ID")
		return
	}

	cfg, err := h.service.Latest(c.Request.Context(), driverID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, h.toConfigResponse(*cfg))
}

// GetFinancialConfigVersion godoc
// @ID           getFinancialConfigVersion
//
//	@Summary		Get historical financial config version
//	@Description	Return a specific financial config version for a driver
//	@Tags			financial-config
//	@Produce		json
//	@Param			id		path	string	true	"Driver ID"
//	@Param			version	path	int		true	"Config version"
//	@Success		200	{object}	APIResponse[FinancialConfigResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Router			/drivers/{id}/financial-config/versions/{version} [get]
func (h *FinancialConfigHandler) GetFinancialConfigVersion(c *gin.Context) {
	driverID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid driver ID")
		return
	}

	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version < 1 {
		h.BadRequest(c, "Invalid config version")
		return
	}

	cfg, err := h.service.Version(c.Request.Context(), driverID, version)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, h.toConfigResponse(*cfg))
}

// RegisterRoutes registers all financial config routes
func (h *FinancialConfigHandler) RegisterRoutes(rg *gin.RouterGroup) {
	config := rg.Group("/drivers/:id/financial-config")
	{
		config.GET("", h.GetFinancialConfig)
		config.PUT("", h.UpdateFinancialConfig)
		config.GET("/versions/:version", h.GetFinancialConfigVersion)
	}
}
