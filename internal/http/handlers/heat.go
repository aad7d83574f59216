package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/steelbound/forgetrace-backend/internal/services"
)

type HeatHandler struct {
	heatLedger services.HeatLedgerService
}

func NewHeatHandler(heatLedger services.HeatLedgerService) *HeatHandler {
	return &HeatHandler{heatLedger: heatLedger}
}

type registerHeatRequest struct {
	RawMaterialID uuid.UUID `json:"raw_material_id" binding:"required"`
	HeatNumber    string    `json:"heat_number" binding:"required"`
	QuantityKg    float64   `json:"quantity_kg"`
	Pieces        int       `json:"pieces"`
}

func (h *HeatHandler) Register(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	var req registerHeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	heat, err := h.heatLedger.RegisterHeat(c.Request.Context(), nil, tenantID, services.RegisterHeatInput{
		RawMaterialID: req.RawMaterialID,
		HeatNumber:    req.HeatNumber,
		QuantityKg:    req.QuantityKg,
		Pieces:        req.Pieces,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"heat": heat})
}

func (h *HeatHandler) Availability(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	heatID, ok := parseID(c, "id")
	if !ok {
		return
	}
	availability, err := h.heatLedger.AvailableHeatQuantity(c.Request.Context(), tenantID, heatID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"availability": availability})
}

func (h *HeatHandler) Audit(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	heatID, ok := parseID(c, "id")
	if !ok {
		return
	}
	availability, err := h.heatLedger.AuditLookup(c.Request.Context(), tenantID, heatID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"availability": availability})
}

func (h *HeatHandler) LookupByNumber(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	heat, err := h.heatLedger.LookupByNumber(c.Request.Context(), tenantID, c.Param("number"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"heat": heat})
}

func (h *HeatHandler) LookupByItem(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	itemID, ok := parseID(c, "id")
	if !ok {
		return
	}
	heats, err := h.heatLedger.LookupByProduct(c.Request.Context(), tenantID, itemID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"heats": heats})
}
