package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/steelbound/forgetrace-backend/internal/domain"
	wf "github.com/steelbound/forgetrace-backend/internal/domain/workflow"
	"github.com/steelbound/forgetrace-backend/internal/services"
)

type WorkflowHandler struct {
	workflowSvc services.ItemWorkflowService
}

func NewWorkflowHandler(workflowSvc services.ItemWorkflowService) *WorkflowHandler {
	return &WorkflowHandler{workflowSvc: workflowSvc}
}

type startWorkflowRequest struct {
	ItemID     uuid.UUID `json:"item_id" binding:"required"`
	TemplateID uuid.UUID `json:"template_id"`
	// Empty identifier starts the item-level workflow; a non-empty one
	// starts a batch-level workflow under that identifier.
	Identifier string `json:"identifier"`
}

func (h *WorkflowHandler) Start(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	var req startWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	scope := wf.ItemScope()
	if req.Identifier != "" {
		scope = wf.BatchScope(req.Identifier)
	}
	workflow, err := h.workflowSvc.Start(c.Request.Context(), nil, tenantID, req.ItemID, req.TemplateID, scope)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"workflow": workflow})
}

type recordStepRequest struct {
	OperationType string    `json:"operation_type" binding:"required"`
	BatchEntityID uuid.UUID `json:"batch_entity_id" binding:"required"`
	Outcome       string    `json:"outcome" binding:"required"`
}

func (h *WorkflowHandler) RecordStep(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	workflowID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req recordStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	step, err := h.workflowSvc.RecordStep(c.Request.Context(), nil, tenantID, services.RecordStepInput{
		WorkflowID:    workflowID,
		OperationType: types.OperationType(req.OperationType),
		BatchEntityID: req.BatchEntityID,
		Outcome:       types.StepOutcome(req.Outcome),
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"step": step})
}

func (h *WorkflowHandler) State(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	workflowID, ok := parseID(c, "id")
	if !ok {
		return
	}
	state, err := h.workflowSvc.CurrentStepAndNextOperations(c.Request.Context(), tenantID, workflowID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *WorkflowHandler) ListByItem(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	itemID, ok := parseID(c, "id")
	if !ok {
		return
	}
	workflows, err := h.workflowSvc.GetByItemID(c.Request.Context(), tenantID, itemID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workflows": workflows})
}

type cancelWorkflowRequest struct {
	Reason string `json:"reason"`
}

func (h *WorkflowHandler) Cancel(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	workflowID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req cancelWorkflowRequest
	_ = c.ShouldBindJSON(&req)
	if err := h.workflowSvc.Cancel(c.Request.Context(), tenantID, workflowID, req.Reason); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
