package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/steelbound/forgetrace-backend/internal/http/middleware"
	"github.com/steelbound/forgetrace-backend/internal/services"
)

// AuthHandler onboards tenants and mints tenant-scoped tokens. Token issuing
// is keyed by tenant code only; plant operators authenticate upstream of this
// service.
type AuthHandler struct {
	tenantSvc services.TenantService
	secret    string
	tokenTTL  time.Duration
}

func NewAuthHandler(tenantSvc services.TenantService, secret string, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{tenantSvc: tenantSvc, secret: secret, tokenTTL: tokenTTL}
}

type createTenantRequest struct {
	Name string `json:"name" binding:"required"`
	Code string `json:"code" binding:"required"`
}

func (h *AuthHandler) CreateTenant(c *gin.Context) {
	var req createTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tenant, err := h.tenantSvc.Create(c.Request.Context(), req.Name, req.Code)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tenant": tenant})
}

type issueTokenRequest struct {
	TenantCode string     `json:"tenant_code" binding:"required"`
	UserID     *uuid.UUID `json:"user_id"`
}

func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req issueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tenant, err := h.tenantSvc.GetByCode(c.Request.Context(), req.TenantCode)
	if err != nil {
		respondErr(c, err)
		return
	}
	userID := uuid.Nil
	if req.UserID != nil {
		userID = *req.UserID
	}
	token, err := middleware.IssueToken(h.secret, tenant.ID, userID, h.tokenTTL)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "tenant_id": tenant.ID})
}

func (h *AuthHandler) RetireTenant(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	if err := h.tenantSvc.Retire(c.Request.Context(), tenantID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
