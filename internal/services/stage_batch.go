package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/steelbound/forgetrace-backend/internal/data/repos"
	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/domain/faults"
	"github.com/steelbound/forgetrace-backend/internal/events"
	"github.com/steelbound/forgetrace-backend/internal/platform/dbctx"
	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
)

// BatchKind names a cancellable stage record.
type BatchKind string

const (
	BatchForge         BatchKind = "FORGE"
	BatchHeatTreatment BatchKind = "HEAT_TREATMENT"
	BatchMachining     BatchKind = "MACHINING"
	BatchInspection    BatchKind = "INSPECTION"
	BatchDispatch      BatchKind = "DISPATCH"
)

type CreateHeatTreatmentBatchInput struct {
	WorkflowID      uuid.UUID
	ProcessedItemID uuid.UUID
	ConsumedPieces  int
	ExpectedPieces  int
	ActualPieces    int
	RejectedPieces  int
	FurnaceNumber   string
	CycleNumber     string
}

type CreateMachiningBatchInput struct {
	WorkflowID uuid.UUID
	// Exactly one source: the heat-treatment batch, or the processed item
	// directly when the template marks heat treatment optional.
	HeatTreatmentBatchID *uuid.UUID
	ProcessedItemID      *uuid.UUID
	ConsumedPieces       int
	ExpectedPieces       int
	ActualPieces         int
	RejectedPieces       int
	MachineNumber        string
}

type CreateInspectionBatchInput struct {
	WorkflowID       uuid.UUID
	MachiningBatchID uuid.UUID
	ConsumedPieces   int
	ExpectedPieces   int
	ActualPieces     int
	RejectedPieces   int
	Result           string
	Outcome          types.StepOutcome
}

type CreateDispatchBatchInput struct {
	WorkflowID        uuid.UUID
	MachiningBatchID  uuid.UUID
	InspectionBatchID *uuid.UUID
	ConsumedPieces    int
	InvoiceNumber     string
	BuyerID           *uuid.UUID
	TransporterID     *uuid.UUID
	DispatchedAt      *time.Time
}

// StageBatchService creates the downstream stage batches. Each create
// consumes upstream pieces, records the workflow step, and writes the batch
// in one transaction, so a failed ordering check or short availability leaves
// nothing behind.
type StageBatchService interface {
	CreateHeatTreatmentBatch(ctx context.Context, tenantID uuid.UUID, input CreateHeatTreatmentBatchInput) (*types.HeatTreatmentBatch, error)
	CreateMachiningBatch(ctx context.Context, tenantID uuid.UUID, input CreateMachiningBatchInput) (*types.MachiningBatch, error)
	CreateInspectionBatch(ctx context.Context, tenantID uuid.UUID, input CreateInspectionBatchInput) (*types.InspectionBatch, error)
	CreateDispatchBatch(ctx context.Context, tenantID uuid.UUID, input CreateDispatchBatchInput) (*types.DispatchBatch, error)
	// CancelBatch undoes a stage record: the claim (or heat allocation) is
	// released, the batch and its workflow step are retired. Fails with a
	// conflict while open downstream claims still draw from the batch.
	CancelBatch(ctx context.Context, tenantID uuid.UUID, kind BatchKind, batchID uuid.UUID) error
}

type stageBatchService struct {
	db            *gorm.DB
	log           *logger.Logger
	heatLedger    HeatLedgerService
	pieceTracker  PieceTrackerService
	workflowSvc   ItemWorkflowService
	forgeRepo     repos.ForgeRepo
	processedRepo repos.ProcessedItemRepo
	claimRepo     repos.PieceClaimRepo
	htBatchRepo   repos.HeatTreatmentBatchRepo
	machBatchRepo repos.MachiningBatchRepo
	inspBatchRepo repos.InspectionBatchRepo
	dispBatchRepo repos.DispatchBatchRepo
	stepRepo      repos.StepRepo
	workflowRepo  repos.ItemWorkflowRepo
	buyerRepo     repos.BuyerRepo
	transportRepo repos.TransporterRepo
	publisher     events.Publisher
}

func NewStageBatchService(
	db *gorm.DB,
	baseLog *logger.Logger,
	heatLedger HeatLedgerService,
	pieceTracker PieceTrackerService,
	workflowSvc ItemWorkflowService,
	forgeRepo repos.ForgeRepo,
	processedRepo repos.ProcessedItemRepo,
	claimRepo repos.PieceClaimRepo,
	htBatchRepo repos.HeatTreatmentBatchRepo,
	machBatchRepo repos.MachiningBatchRepo,
	inspBatchRepo repos.InspectionBatchRepo,
	dispBatchRepo repos.DispatchBatchRepo,
	stepRepo repos.StepRepo,
	workflowRepo repos.ItemWorkflowRepo,
	buyerRepo repos.BuyerRepo,
	transportRepo repos.TransporterRepo,
	publisher events.Publisher,
) StageBatchService {
	return &stageBatchService{
		db:            db,
		log:           baseLog.With("service", "StageBatchService"),
		heatLedger:    heatLedger,
		pieceTracker:  pieceTracker,
		workflowSvc:   workflowSvc,
		forgeRepo:     forgeRepo,
		processedRepo: processedRepo,
		claimRepo:     claimRepo,
		htBatchRepo:   htBatchRepo,
		machBatchRepo: machBatchRepo,
		inspBatchRepo: inspBatchRepo,
		dispBatchRepo: dispBatchRepo,
		stepRepo:      stepRepo,
		workflowRepo:  workflowRepo,
		buyerRepo:     buyerRepo,
		transportRepo: transportRepo,
		publisher:     publisher,
	}
}

func validateStageCounts(op string, consumed, actual, rejected int) error {
	if consumed < 0 || actual < 0 || rejected < 0 {
		return faults.NegativeQuantity(op, "batch counts must not be negative")
	}
	if rejected > actual {
		return faults.NegativeQuantity(op, "rejected pieces exceed actual pieces")
	}
	if actual > consumed {
		return faults.Validation(op, "actual pieces exceed consumed pieces")
	}
	return nil
}

func (s *stageBatchService) CreateHeatTreatmentBatch(ctx context.Context, tenantID uuid.UUID, input CreateHeatTreatmentBatchInput) (*types.HeatTreatmentBatch, error) {
	const op = "StageBatch.CreateHeatTreatmentBatch"
	if err := validateStageCounts(op, input.ConsumedPieces, input.ActualPieces, input.RejectedPieces); err != nil {
		return nil, err
	}

	batch := &types.HeatTreatmentBatch{
		ID:                  uuid.New(),
		TenantID:            tenantID,
		ProcessedItemID:     input.ProcessedItemID,
		ConsumedPieces:      input.ConsumedPieces,
		ExpectedPiecesCount: input.ExpectedPieces,
		ActualPiecesCount:   input.ActualPieces,
		RejectedPiecesCount: input.RejectedPieces,
		FurnaceNumber:       input.FurnaceNumber,
		CycleNumber:         input.CycleNumber,
	}
	err := s.db.Transaction(func(txx *gorm.DB) error {
		source := types.SourceRef{Kind: types.SourceProcessedItem, ID: input.ProcessedItemID}
		claim, err := s.pieceTracker.Consume(ctx, txx, tenantID, source, input.ConsumedPieces, string(types.SourceHeatTreatmentBatch), batch.ID)
		if err != nil {
			return err
		}
		step, err := s.workflowSvc.RecordStep(ctx, txx, tenantID, RecordStepInput{
			WorkflowID:    input.WorkflowID,
			OperationType: types.OpHeatTreatment,
			BatchEntityID: batch.ID,
			Outcome:       types.OutcomePass,
		})
		if err != nil {
			return err
		}
		batch.ClaimID = claim.ID
		batch.WorkflowStepID = step.ID
		if _, err := s.htBatchRepo.Create(dbctx.Context{Ctx: ctx, Tx: txx}, []*types.HeatTreatmentBatch{batch}); err != nil {
			return faults.Wrap(faults.CodeInternal, op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishCreated(ctx, tenantID, "HEAT_TREATMENT", batch.ID, input.WorkflowID)
	return batch, nil
}

func (s *stageBatchService) CreateMachiningBatch(ctx context.Context, tenantID uuid.UUID, input CreateMachiningBatchInput) (*types.MachiningBatch, error) {
	const op = "StageBatch.CreateMachiningBatch"
	if err := validateStageCounts(op, input.ConsumedPieces, input.ActualPieces, input.RejectedPieces); err != nil {
		return nil, err
	}
	if (input.HeatTreatmentBatchID == nil) == (input.ProcessedItemID == nil) {
		return nil, faults.Validation(op, "exactly one of heat treatment batch or processed item must be set")
	}

	var source types.SourceRef
	if input.HeatTreatmentBatchID != nil {
		source = types.SourceRef{Kind: types.SourceHeatTreatmentBatch, ID: *input.HeatTreatmentBatchID}
	} else {
		source = types.SourceRef{Kind: types.SourceProcessedItem, ID: *input.ProcessedItemID}
	}

	batch := &types.MachiningBatch{
		ID:                   uuid.New(),
		TenantID:             tenantID,
		HeatTreatmentBatchID: input.HeatTreatmentBatchID,
		ProcessedItemID:      input.ProcessedItemID,
		ConsumedPieces:       input.ConsumedPieces,
		ExpectedPiecesCount:  input.ExpectedPieces,
		ActualPiecesCount:    input.ActualPieces,
		RejectedPiecesCount:  input.RejectedPieces,
		MachineNumber:        input.MachineNumber,
	}
	err := s.db.Transaction(func(txx *gorm.DB) error {
		claim, err := s.pieceTracker.Consume(ctx, txx, tenantID, source, input.ConsumedPieces, string(types.SourceMachiningBatch), batch.ID)
		if err != nil {
			return err
		}
		step, err := s.workflowSvc.RecordStep(ctx, txx, tenantID, RecordStepInput{
			WorkflowID:    input.WorkflowID,
			OperationType: types.OpMachining,
			BatchEntityID: batch.ID,
			Outcome:       types.OutcomePass,
		})
		if err != nil {
			return err
		}
		batch.ClaimID = claim.ID
		batch.WorkflowStepID = step.ID
		if _, err := s.machBatchRepo.Create(dbctx.Context{Ctx: ctx, Tx: txx}, []*types.MachiningBatch{batch}); err != nil {
			return faults.Wrap(faults.CodeInternal, op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishCreated(ctx, tenantID, "MACHINING", batch.ID, input.WorkflowID)
	return batch, nil
}

func (s *stageBatchService) CreateInspectionBatch(ctx context.Context, tenantID uuid.UUID, input CreateInspectionBatchInput) (*types.InspectionBatch, error) {
	const op = "StageBatch.CreateInspectionBatch"
	if err := validateStageCounts(op, input.ConsumedPieces, input.ActualPieces, input.RejectedPieces); err != nil {
		return nil, err
	}
	outcome := input.Outcome
	if outcome == "" {
		outcome = types.OutcomePass
	}

	batch := &types.InspectionBatch{
		ID:                  uuid.New(),
		TenantID:            tenantID,
		MachiningBatchID:    input.MachiningBatchID,
		ConsumedPieces:      input.ConsumedPieces,
		ExpectedPiecesCount: input.ExpectedPieces,
		ActualPiecesCount:   input.ActualPieces,
		RejectedPiecesCount: input.RejectedPieces,
		Result:              input.Result,
	}
	err := s.db.Transaction(func(txx *gorm.DB) error {
		source := types.SourceRef{Kind: types.SourceMachiningBatch, ID: input.MachiningBatchID}
		claim, err := s.pieceTracker.Consume(ctx, txx, tenantID, source, input.ConsumedPieces, string(types.SourceInspectionBatch), batch.ID)
		if err != nil {
			return err
		}
		// A failed inspection is still a recorded step; the workflow keeps
		// offering INSPECTION until one passes.
		step, err := s.workflowSvc.RecordStep(ctx, txx, tenantID, RecordStepInput{
			WorkflowID:    input.WorkflowID,
			OperationType: types.OpInspection,
			BatchEntityID: batch.ID,
			Outcome:       outcome,
		})
		if err != nil {
			return err
		}
		batch.ClaimID = claim.ID
		batch.WorkflowStepID = step.ID
		if _, err := s.inspBatchRepo.Create(dbctx.Context{Ctx: ctx, Tx: txx}, []*types.InspectionBatch{batch}); err != nil {
			return faults.Wrap(faults.CodeInternal, op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishCreated(ctx, tenantID, "INSPECTION", batch.ID, input.WorkflowID)
	return batch, nil
}

func (s *stageBatchService) CreateDispatchBatch(ctx context.Context, tenantID uuid.UUID, input CreateDispatchBatchInput) (*types.DispatchBatch, error) {
	const op = "StageBatch.CreateDispatchBatch"
	if input.ConsumedPieces <= 0 {
		return nil, faults.Validation(op, "dispatched pieces must be positive")
	}

	source := types.SourceRef{Kind: types.SourceMachiningBatch, ID: input.MachiningBatchID}
	if input.InspectionBatchID != nil {
		source = types.SourceRef{Kind: types.SourceInspectionBatch, ID: *input.InspectionBatchID}
	}

	batch := &types.DispatchBatch{
		ID:                uuid.New(),
		TenantID:          tenantID,
		MachiningBatchID:  input.MachiningBatchID,
		InspectionBatchID: input.InspectionBatchID,
		ConsumedPieces:    input.ConsumedPieces,
		InvoiceNumber:     input.InvoiceNumber,
		BuyerID:           input.BuyerID,
		TransporterID:     input.TransporterID,
		DispatchedAt:      input.DispatchedAt,
	}
	err := s.db.Transaction(func(txx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: txx}

		if input.BuyerID != nil {
			buyers, err := s.buyerRepo.GetByIDs(dbc, tenantID, []uuid.UUID{*input.BuyerID})
			if err != nil {
				return faults.Wrap(faults.CodeInternal, op, err)
			}
			if len(buyers) == 0 {
				return faults.NotFound(op, "buyer")
			}
		}
		if input.TransporterID != nil {
			transporters, err := s.transportRepo.GetByIDs(dbc, tenantID, []uuid.UUID{*input.TransporterID})
			if err != nil {
				return faults.Wrap(faults.CodeInternal, op, err)
			}
			if len(transporters) == 0 {
				return faults.NotFound(op, "transporter")
			}
		}

		claim, err := s.pieceTracker.Consume(ctx, txx, tenantID, source, input.ConsumedPieces, "DISPATCH_BATCH", batch.ID)
		if err != nil {
			return err
		}
		step, err := s.workflowSvc.RecordStep(ctx, txx, tenantID, RecordStepInput{
			WorkflowID:    input.WorkflowID,
			OperationType: types.OpDispatch,
			BatchEntityID: batch.ID,
			Outcome:       types.OutcomePass,
			EndedAt:       input.DispatchedAt,
		})
		if err != nil {
			return err
		}
		batch.ClaimID = claim.ID
		batch.WorkflowStepID = step.ID
		if _, err := s.dispBatchRepo.Create(dbc, []*types.DispatchBatch{batch}); err != nil {
			return faults.Wrap(faults.CodeInternal, op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishCreated(ctx, tenantID, "DISPATCH", batch.ID, input.WorkflowID)
	return batch, nil
}

func (s *stageBatchService) CancelBatch(ctx context.Context, tenantID uuid.UUID, kind BatchKind, batchID uuid.UUID) error {
	const op = "StageBatch.CancelBatch"

	err := s.db.Transaction(func(txx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: txx}
		switch kind {
		case BatchForge:
			return s.cancelForge(ctx, dbc, tenantID, batchID)
		case BatchHeatTreatment:
			batches, err := s.htBatchRepo.GetByIDs(dbc, tenantID, []uuid.UUID{batchID})
			if err != nil {
				return faults.Wrap(faults.CodeInternal, op, err)
			}
			if len(batches) == 0 {
				return faults.NotFound(op, "heat treatment batch")
			}
			b := batches[0]
			if err := s.guardNoOpenClaims(dbc, tenantID, types.SourceRef{Kind: types.SourceHeatTreatmentBatch, ID: b.ID}); err != nil {
				return err
			}
			if err := s.retireStep(dbc, tenantID, b.WorkflowStepID); err != nil {
				return err
			}
			if err := s.pieceTracker.Release(ctx, txx, tenantID, b.ClaimID); err != nil {
				return err
			}
			return s.htBatchRepo.SoftDeleteByIDs(dbc, tenantID, []uuid.UUID{b.ID})
		case BatchMachining:
			batches, err := s.machBatchRepo.GetByIDs(dbc, tenantID, []uuid.UUID{batchID})
			if err != nil {
				return faults.Wrap(faults.CodeInternal, op, err)
			}
			if len(batches) == 0 {
				return faults.NotFound(op, "machining batch")
			}
			b := batches[0]
			if err := s.guardNoOpenClaims(dbc, tenantID, types.SourceRef{Kind: types.SourceMachiningBatch, ID: b.ID}); err != nil {
				return err
			}
			if err := s.retireStep(dbc, tenantID, b.WorkflowStepID); err != nil {
				return err
			}
			if err := s.pieceTracker.Release(ctx, txx, tenantID, b.ClaimID); err != nil {
				return err
			}
			return s.machBatchRepo.SoftDeleteByIDs(dbc, tenantID, []uuid.UUID{b.ID})
		case BatchInspection:
			batches, err := s.inspBatchRepo.GetByIDs(dbc, tenantID, []uuid.UUID{batchID})
			if err != nil {
				return faults.Wrap(faults.CodeInternal, op, err)
			}
			if len(batches) == 0 {
				return faults.NotFound(op, "inspection batch")
			}
			b := batches[0]
			if err := s.guardNoOpenClaims(dbc, tenantID, types.SourceRef{Kind: types.SourceInspectionBatch, ID: b.ID}); err != nil {
				return err
			}
			if err := s.retireStep(dbc, tenantID, b.WorkflowStepID); err != nil {
				return err
			}
			if err := s.pieceTracker.Release(ctx, txx, tenantID, b.ClaimID); err != nil {
				return err
			}
			return s.inspBatchRepo.SoftDeleteByIDs(dbc, tenantID, []uuid.UUID{b.ID})
		case BatchDispatch:
			batches, err := s.dispBatchRepo.GetByIDs(dbc, tenantID, []uuid.UUID{batchID})
			if err != nil {
				return faults.Wrap(faults.CodeInternal, op, err)
			}
			if len(batches) == 0 {
				return faults.NotFound(op, "dispatch batch")
			}
			b := batches[0]
			if err := s.retireStep(dbc, tenantID, b.WorkflowStepID); err != nil {
				return err
			}
			if err := s.pieceTracker.Release(ctx, txx, tenantID, b.ClaimID); err != nil {
				return err
			}
			return s.dispBatchRepo.SoftDeleteByIDs(dbc, tenantID, []uuid.UUID{b.ID})
		}
		return faults.Validation(op, "unknown batch kind "+string(kind))
	})
	if err != nil {
		return err
	}

	s.publisher.Publish(ctx, events.BatchCancelled, map[string]interface{}{
		"tenant_id": tenantID,
		"kind":      kind,
		"batch_id":  batchID,
	})
	return nil
}

func (s *stageBatchService) cancelForge(ctx context.Context, dbc dbctx.Context, tenantID, forgeID uuid.UUID) error {
	const op = "StageBatch.CancelBatch"

	forge, err := s.forgeRepo.GetByID(dbc, tenantID, forgeID)
	if err != nil {
		return faults.Wrap(faults.CodeInternal, op, err)
	}
	if forge == nil {
		return faults.NotFound(op, "forge")
	}

	processed, err := s.processedRepo.GetByForgeIDs(dbc, tenantID, []uuid.UUID{forge.ID})
	if err != nil {
		return faults.Wrap(faults.CodeInternal, op, err)
	}
	for _, p := range processed {
		if err := s.guardNoOpenClaims(dbc, tenantID, types.SourceRef{Kind: types.SourceProcessedItem, ID: p.ID}); err != nil {
			return err
		}
	}

	// Put the allocated quantity and pieces back on the heat.
	if _, err := s.heatLedger.Release(ctx, dbc.Tx, tenantID, forge.HeatID, forge.AllocatedQuantityKg, forge.AllocatedPieces); err != nil {
		return err
	}

	// Retire the FORGING steps this forge fulfilled so the operation is
	// offered again.
	steps, err := s.stepRepo.GetByWorkflowID(dbc, tenantID, forge.WorkflowID)
	if err != nil {
		return faults.Wrap(faults.CodeInternal, op, err)
	}
	var stepIDs []uuid.UUID
	for _, st := range steps {
		if st.BatchEntityID == forge.ID {
			stepIDs = append(stepIDs, st.ID)
		}
	}
	if len(stepIDs) > 0 {
		if err := s.retireStepIDs(dbc, tenantID, forge.WorkflowID, stepIDs); err != nil {
			return err
		}
	}

	var processedIDs []uuid.UUID
	for _, p := range processed {
		processedIDs = append(processedIDs, p.ID)
	}
	if err := s.processedRepo.SoftDeleteByIDs(dbc, tenantID, processedIDs); err != nil {
		return faults.Wrap(faults.CodeInternal, op, err)
	}
	return s.forgeRepo.SoftDeleteByIDs(dbc, tenantID, []uuid.UUID{forge.ID})
}

func (s *stageBatchService) guardNoOpenClaims(dbc dbctx.Context, tenantID uuid.UUID, source types.SourceRef) error {
	const op = "StageBatch.CancelBatch"
	open, err := s.claimRepo.SumOpenPieces(dbc, tenantID, source)
	if err != nil {
		return faults.Wrap(faults.CodeInternal, op, err)
	}
	if open > 0 {
		return faults.New(faults.CodeConflict, "", op, "downstream batches still hold claims against this batch")
	}
	return nil
}

// retireStep soft-deletes one workflow step and winds the workflow status
// back from COMPLETED if the step's removal reopened it.
func (s *stageBatchService) retireStep(dbc dbctx.Context, tenantID, stepID uuid.UUID) error {
	const op = "StageBatch.CancelBatch"
	steps, err := s.stepRepo.GetByIDs(dbc, tenantID, []uuid.UUID{stepID})
	if err != nil {
		return faults.Wrap(faults.CodeInternal, op, err)
	}
	if len(steps) == 0 {
		return nil
	}
	return s.retireStepIDs(dbc, tenantID, steps[0].WorkflowID, []uuid.UUID{stepID})
}

func (s *stageBatchService) retireStepIDs(dbc dbctx.Context, tenantID, workflowID uuid.UUID, stepIDs []uuid.UUID) error {
	const op = "StageBatch.CancelBatch"

	locked, err := s.workflowRepo.Touch(dbc, tenantID, workflowID)
	if err != nil {
		return faults.Wrap(faults.CodeInternal, op, err)
	}
	if !locked {
		return faults.NotFound(op, "workflow")
	}
	if err := s.stepRepo.SoftDeleteByIDs(dbc, tenantID, stepIDs); err != nil {
		return faults.Wrap(faults.CodeInternal, op, err)
	}

	workflow, err := s.workflowRepo.GetByID(dbc, tenantID, workflowID)
	if err != nil {
		return faults.Wrap(faults.CodeInternal, op, err)
	}
	if workflow != nil && workflow.Status == types.StatusCompleted {
		if err := s.workflowRepo.UpdateFields(dbc, tenantID, workflowID, map[string]interface{}{
			"status": types.StatusInProgress,
		}); err != nil {
			return faults.Wrap(faults.CodeInternal, op, err)
		}
	}
	return nil
}

func (s *stageBatchService) publishCreated(ctx context.Context, tenantID uuid.UUID, stage string, batchID, workflowID uuid.UUID) {
	s.publisher.Publish(ctx, events.BatchCreated, map[string]interface{}{
		"tenant_id":   tenantID,
		"stage":       stage,
		"batch_id":    batchID,
		"workflow_id": workflowID,
	})
}
