package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/services"
)

type TemplateHandler struct {
	templateSvc services.WorkflowTemplateService
}

func NewTemplateHandler(templateSvc services.WorkflowTemplateService) *TemplateHandler {
	return &TemplateHandler{templateSvc: templateSvc}
}

type templateStepRequest struct {
	OperationType string         `json:"operation_type" binding:"required"`
	Optional      bool           `json:"optional"`
	Parallel      bool           `json:"parallel"`
	Config        datatypes.JSON `json:"config"`
}

type createTemplateRequest struct {
	Name      string                `json:"name" binding:"required"`
	IsDefault bool                  `json:"is_default"`
	Steps     []templateStepRequest `json:"steps" binding:"required"`
}

func (h *TemplateHandler) Create(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	var req createTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input := services.CreateTemplateInput{Name: req.Name, IsDefault: req.IsDefault}
	for _, st := range req.Steps {
		input.Steps = append(input.Steps, services.TemplateStepInput{
			OperationType: types.OperationType(st.OperationType),
			Optional:      st.Optional,
			Parallel:      st.Parallel,
			Config:        st.Config,
		})
	}
	template, err := h.templateSvc.CreateTemplate(c.Request.Context(), nil, tenantID, input)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"template": template})
}

func (h *TemplateHandler) GetDefault(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	template, err := h.templateSvc.GetDefaultTemplate(c.Request.Context(), nil, tenantID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": template})
}

func (h *TemplateHandler) ListActive(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	templates, err := h.templateSvc.GetActiveTemplates(c.Request.Context(), tenantID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

func (h *TemplateHandler) Get(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	templateID, ok := parseID(c, "id")
	if !ok {
		return
	}
	template, err := h.templateSvc.GetByID(c.Request.Context(), nil, tenantID, templateID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": template})
}

func (h *TemplateHandler) SetDefault(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	templateID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.templateSvc.SetDefault(c.Request.Context(), tenantID, templateID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *TemplateHandler) Deactivate(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	templateID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.templateSvc.Deactivate(c.Request.Context(), tenantID, templateID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
