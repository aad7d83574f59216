package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/services"
)

type BatchHandler struct {
	stageSvc     services.StageBatchService
	pieceTracker services.PieceTrackerService
}

func NewBatchHandler(stageSvc services.StageBatchService, pieceTracker services.PieceTrackerService) *BatchHandler {
	return &BatchHandler{stageSvc: stageSvc, pieceTracker: pieceTracker}
}

type createHeatTreatmentRequest struct {
	WorkflowID      uuid.UUID `json:"workflow_id" binding:"required"`
	ProcessedItemID uuid.UUID `json:"processed_item_id" binding:"required"`
	ConsumedPieces  int       `json:"consumed_pieces" binding:"required"`
	ExpectedPieces  int       `json:"expected_pieces"`
	ActualPieces    int       `json:"actual_pieces"`
	RejectedPieces  int       `json:"rejected_pieces"`
	FurnaceNumber   string    `json:"furnace_number"`
	CycleNumber     string    `json:"cycle_number"`
}

func (h *BatchHandler) CreateHeatTreatment(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	var req createHeatTreatmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	batch, err := h.stageSvc.CreateHeatTreatmentBatch(c.Request.Context(), tenantID, services.CreateHeatTreatmentBatchInput{
		WorkflowID:      req.WorkflowID,
		ProcessedItemID: req.ProcessedItemID,
		ConsumedPieces:  req.ConsumedPieces,
		ExpectedPieces:  req.ExpectedPieces,
		ActualPieces:    req.ActualPieces,
		RejectedPieces:  req.RejectedPieces,
		FurnaceNumber:   req.FurnaceNumber,
		CycleNumber:     req.CycleNumber,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"batch": batch})
}

type createMachiningRequest struct {
	WorkflowID           uuid.UUID  `json:"workflow_id" binding:"required"`
	HeatTreatmentBatchID *uuid.UUID `json:"heat_treatment_batch_id"`
	ProcessedItemID      *uuid.UUID `json:"processed_item_id"`
	ConsumedPieces       int        `json:"consumed_pieces" binding:"required"`
	ExpectedPieces       int        `json:"expected_pieces"`
	ActualPieces         int        `json:"actual_pieces"`
	RejectedPieces       int        `json:"rejected_pieces"`
	MachineNumber        string     `json:"machine_number"`
}

func (h *BatchHandler) CreateMachining(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	var req createMachiningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	batch, err := h.stageSvc.CreateMachiningBatch(c.Request.Context(), tenantID, services.CreateMachiningBatchInput{
		WorkflowID:           req.WorkflowID,
		HeatTreatmentBatchID: req.HeatTreatmentBatchID,
		ProcessedItemID:      req.ProcessedItemID,
		ConsumedPieces:       req.ConsumedPieces,
		ExpectedPieces:       req.ExpectedPieces,
		ActualPieces:         req.ActualPieces,
		RejectedPieces:       req.RejectedPieces,
		MachineNumber:        req.MachineNumber,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"batch": batch})
}

type createInspectionRequest struct {
	WorkflowID       uuid.UUID `json:"workflow_id" binding:"required"`
	MachiningBatchID uuid.UUID `json:"machining_batch_id" binding:"required"`
	ConsumedPieces   int       `json:"consumed_pieces" binding:"required"`
	ExpectedPieces   int       `json:"expected_pieces"`
	ActualPieces     int       `json:"actual_pieces"`
	RejectedPieces   int       `json:"rejected_pieces"`
	Result           string    `json:"result"`
	Outcome          string    `json:"outcome"`
}

func (h *BatchHandler) CreateInspection(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	var req createInspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	batch, err := h.stageSvc.CreateInspectionBatch(c.Request.Context(), tenantID, services.CreateInspectionBatchInput{
		WorkflowID:       req.WorkflowID,
		MachiningBatchID: req.MachiningBatchID,
		ConsumedPieces:   req.ConsumedPieces,
		ExpectedPieces:   req.ExpectedPieces,
		ActualPieces:     req.ActualPieces,
		RejectedPieces:   req.RejectedPieces,
		Result:           req.Result,
		Outcome:          types.StepOutcome(req.Outcome),
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"batch": batch})
}

type createDispatchRequest struct {
	WorkflowID        uuid.UUID  `json:"workflow_id" binding:"required"`
	MachiningBatchID  uuid.UUID  `json:"machining_batch_id" binding:"required"`
	InspectionBatchID *uuid.UUID `json:"inspection_batch_id"`
	ConsumedPieces    int        `json:"consumed_pieces" binding:"required"`
	InvoiceNumber     string     `json:"invoice_number"`
	BuyerID           *uuid.UUID `json:"buyer_id"`
	TransporterID     *uuid.UUID `json:"transporter_id"`
	DispatchedAt      *time.Time `json:"dispatched_at"`
}

func (h *BatchHandler) CreateDispatch(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	var req createDispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	batch, err := h.stageSvc.CreateDispatchBatch(c.Request.Context(), tenantID, services.CreateDispatchBatchInput{
		WorkflowID:        req.WorkflowID,
		MachiningBatchID:  req.MachiningBatchID,
		InspectionBatchID: req.InspectionBatchID,
		ConsumedPieces:    req.ConsumedPieces,
		InvoiceNumber:     req.InvoiceNumber,
		BuyerID:           req.BuyerID,
		TransporterID:     req.TransporterID,
		DispatchedAt:      req.DispatchedAt,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"batch": batch})
}

func (h *BatchHandler) Cancel(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	batchID, ok := parseID(c, "id")
	if !ok {
		return
	}
	kind := services.BatchKind(c.Param("kind"))
	if err := h.stageSvc.CancelBatch(c.Request.Context(), tenantID, kind, batchID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Availability reads the derived claimable pieces of any upstream output.
func (h *BatchHandler) Availability(c *gin.Context) {
	tenantID, ok := tenantOf(c)
	if !ok {
		return
	}
	sourceID, ok := parseID(c, "id")
	if !ok {
		return
	}
	source := types.SourceRef{Kind: types.SourceKind(c.Param("kind")), ID: sourceID}
	available, err := h.pieceTracker.AvailablePieces(c.Request.Context(), nil, tenantID, source)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available_pieces": available})
}
