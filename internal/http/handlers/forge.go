package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/steelbound/forgetrace-backend/internal/services"
)

type ForgeHandler struct {
	forgeSvc services.ForgeService
}

func NewForgeHandler(forgeSvc services.ForgeService) *ForgeHandler {
	return &ForgeHandler{forgeSvc: forgeSvc}
}

type createForgeRequest struct {
	ItemID                 uuid.UUID  `json:"item_id" binding:"required"`
	HeatID                 uuid.UUID  `json:"heat_id" binding:"required"`
	QuantityKg             float64    `json:"quantity_kg" binding:"required"`
	Pieces                 int        `json:"pieces" binding:"required"`
	ExpectedPieces         int        `json:"expected_pieces"`
	ActualPieces           int        `json:"actual_pieces"`
	RejectedPieces         int        `json:"rejected_pieces"`
	OtherForgeRejectionsKg float64    `json:"other_forge_rejections_kg"`
	WorkflowID             uuid.UUID  `json:"workflow_id"`
	ForgeDate              *time.Time `json:"forge_date"`
	Shift                  string     `json:"shift"`
}

func (h *ForgeHandler) Create(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	var req createForgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.forgeSvc.CreateForge(c.Request.Context(), tenantID, services.CreateForgeInput{
		ItemID:                 req.ItemID,
		HeatID:                 req.HeatID,
		QuantityKg:             req.QuantityKg,
		Pieces:                 req.Pieces,
		ExpectedPieces:         req.ExpectedPieces,
		ActualPieces:           req.ActualPieces,
		RejectedPieces:         req.RejectedPieces,
		OtherForgeRejectionsKg: req.OtherForgeRejectionsKg,
		WorkflowID:             req.WorkflowID,
		ForgeDate:              req.ForgeDate,
		Shift:                  req.Shift,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *ForgeHandler) Get(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	forgeID, ok := parseID(c, "id")
	if !ok {
		return
	}
	forge, err := h.forgeSvc.GetByID(c.Request.Context(), tenantID, forgeID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"forge": forge})
}
