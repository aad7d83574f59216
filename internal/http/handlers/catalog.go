package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/steelbound/forgetrace-backend/internal/services"
)

type CatalogHandler struct {
	catalogSvc services.CatalogService
}

func NewCatalogHandler(catalogSvc services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogSvc: catalogSvc}
}

type createItemRequest struct {
	Code          string `json:"code" binding:"required"`
	Name          string `json:"name" binding:"required"`
	DrawingNumber string `json:"drawing_number"`
	MaterialGrade string `json:"material_grade"`
}

func (h *CatalogHandler) CreateItem(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.catalogSvc.CreateItem(c.Request.Context(), tenantID, services.CreateItemInput{
		Code:          req.Code,
		Name:          req.Name,
		DrawingNumber: req.DrawingNumber,
		MaterialGrade: req.MaterialGrade,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item})
}

func (h *CatalogHandler) GetItemByCode(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	item, err := h.catalogSvc.GetItemByCode(c.Request.Context(), tenantID, c.Param("code"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

type createRawMaterialRequest struct {
	ItemID     uuid.UUID  `json:"item_id" binding:"required"`
	Supplier   string     `json:"supplier"`
	Grade      string     `json:"grade"`
	ReceivedAt *time.Time `json:"received_at"`
}

func (h *CatalogHandler) CreateRawMaterial(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	var req createRawMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rawMaterial, err := h.catalogSvc.CreateRawMaterial(c.Request.Context(), tenantID, services.CreateRawMaterialInput{
		ItemID:     req.ItemID,
		Supplier:   req.Supplier,
		Grade:      req.Grade,
		ReceivedAt: req.ReceivedAt,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"raw_material": rawMaterial})
}

type createBuyerRequest struct {
	Name string `json:"name" binding:"required"`
	City string `json:"city"`
}

func (h *CatalogHandler) CreateBuyer(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	var req createBuyerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	buyer, err := h.catalogSvc.CreateBuyer(c.Request.Context(), tenantID, req.Name, req.City)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"buyer": buyer})
}

type createTransporterRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *CatalogHandler) CreateTransporter(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	var req createTransporterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	transporter, err := h.catalogSvc.CreateTransporter(c.Request.Context(), tenantID, req.Name)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transporter": transporter})
}
