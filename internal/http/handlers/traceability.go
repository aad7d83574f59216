package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/steelbound/forgetrace-backend/internal/services"
)

type TraceabilityHandler struct {
	traceSvc services.TraceabilityService
}

func NewTraceabilityHandler(traceSvc services.TraceabilityService) *TraceabilityHandler {
	return &TraceabilityHandler{traceSvc: traceSvc}
}

func (h *TraceabilityHandler) ByHeat(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	heatID, ok := parseID(c, "id")
	if !ok {
		return
	}
	trace, err := h.traceSvc.ResolveByHeat(c.Request.Context(), tenantID, heatID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trace": trace})
}

func (h *TraceabilityHandler) ByForge(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	forgeID, ok := parseID(c, "id")
	if !ok {
		return
	}
	trace, err := h.traceSvc.ResolveByForge(c.Request.Context(), tenantID, forgeID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trace": trace})
}

func (h *TraceabilityHandler) ByWorkflow(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	workflowID, ok := parseID(c, "id")
	if !ok {
		return
	}
	trace, err := h.traceSvc.ResolveByWorkflow(c.Request.Context(), tenantID, workflowID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trace": trace})
}
