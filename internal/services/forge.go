package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/steelbound/forgetrace-backend/internal/data/repos"
	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/domain/faults"
	wf "github.com/steelbound/forgetrace-backend/internal/domain/workflow"
	"github.com/steelbound/forgetrace-backend/internal/events"
	"github.com/steelbound/forgetrace-backend/internal/platform/dbctx"
	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
)

type CreateForgeInput struct {
	ItemID     uuid.UUID
	HeatID     uuid.UUID
	QuantityKg float64
	Pieces     int

	// Forge output, recorded with the allocation in the same transaction.
	ExpectedPieces         int
	ActualPieces           int
	RejectedPieces         int
	OtherForgeRejectionsKg float64

	// WorkflowID targets an existing workflow. When nil, the item-level
	// workflow is used, started from the tenant default template if absent.
	WorkflowID uuid.UUID
	ForgeDate  *time.Time
	Shift      string
}

type CreateForgeResult struct {
	Forge         *types.Forge            `json:"forge"`
	ProcessedItem *types.ProcessedItem    `json:"processed_item"`
	Workflow      *types.ItemWorkflow     `json:"workflow"`
	Step          *types.ItemWorkflowStep `json:"step"`
}

// ForgeService composes the first production stage: heat allocation, forge
// record, forge output, and the workflow FORGING step commit or roll back
// together.
type ForgeService interface {
	CreateForge(ctx context.Context, tenantID uuid.UUID, input CreateForgeInput) (*CreateForgeResult, error)
	GetByID(ctx context.Context, tenantID, forgeID uuid.UUID) (*types.Forge, error)
}

type forgeService struct {
	db           *gorm.DB
	log          *logger.Logger
	heatLedger   HeatLedgerService
	pieceTracker PieceTrackerService
	workflowSvc  ItemWorkflowService
	forgeRepo    repos.ForgeRepo
	heatRepo     repos.HeatRepo
	rawRepo      repos.RawMaterialRepo
	workflowRepo repos.ItemWorkflowRepo
	publisher    events.Publisher
}

func NewForgeService(
	db *gorm.DB,
	baseLog *logger.Logger,
	heatLedger HeatLedgerService,
	pieceTracker PieceTrackerService,
	workflowSvc ItemWorkflowService,
	forgeRepo repos.ForgeRepo,
	heatRepo repos.HeatRepo,
	rawRepo repos.RawMaterialRepo,
	workflowRepo repos.ItemWorkflowRepo,
	publisher events.Publisher,
) ForgeService {
	return &forgeService{
		db:           db,
		log:          baseLog.With("service", "ForgeService"),
		heatLedger:   heatLedger,
		pieceTracker: pieceTracker,
		workflowSvc:  workflowSvc,
		forgeRepo:    forgeRepo,
		heatRepo:     heatRepo,
		rawRepo:      rawRepo,
		workflowRepo: workflowRepo,
		publisher:    publisher,
	}
}

func (s *forgeService) CreateForge(ctx context.Context, tenantID uuid.UUID, input CreateForgeInput) (*CreateForgeResult, error) {
	const op = "Forge.CreateForge"
	if input.QuantityKg <= 0 || input.Pieces <= 0 {
		return nil, faults.Validation(op, "allocation quantity and pieces must be positive")
	}

	result := &CreateForgeResult{}
	err := s.db.Transaction(func(txx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: txx}

		// The heat must feed the item being forged.
		heat, err := s.heatRepo.GetByID(dbc, tenantID, input.HeatID)
		if err != nil {
			return faults.Wrap(faults.CodeInternal, op, err)
		}
		if heat == nil {
			return faults.NotFound(op, "heat")
		}
		materials, err := s.rawRepo.GetByIDs(dbc, tenantID, []uuid.UUID{heat.RawMaterialID})
		if err != nil {
			return faults.Wrap(faults.CodeInternal, op, err)
		}
		if len(materials) == 0 || materials[0].ItemID != input.ItemID {
			return faults.Validation(op, "heat does not belong to this item's raw material")
		}

		workflow, err := s.resolveWorkflow(ctx, txx, tenantID, input)
		if err != nil {
			return err
		}
		result.Workflow = workflow

		if _, err := s.heatLedger.Allocate(ctx, txx, tenantID, input.HeatID, input.QuantityKg, input.Pieces); err != nil {
			return err
		}

		forge := &types.Forge{
			TenantID:            tenantID,
			ItemID:              input.ItemID,
			HeatID:              input.HeatID,
			WorkflowID:          workflow.ID,
			AllocatedQuantityKg: input.QuantityKg,
			AllocatedPieces:     input.Pieces,
			ForgeDate:           input.ForgeDate,
			Shift:               input.Shift,
		}
		if _, err := s.forgeRepo.Create(dbc, []*types.Forge{forge}); err != nil {
			return faults.Wrap(faults.CodeInternal, op, err)
		}
		result.Forge = forge

		expected := input.ExpectedPieces
		if expected == 0 {
			expected = input.Pieces
		}
		processed, err := s.pieceTracker.RecordForgeOutput(ctx, txx, tenantID, ForgeOutputInput{
			ForgeID:                forge.ID,
			ExpectedPieces:         expected,
			ActualPieces:           input.ActualPieces,
			RejectedPieces:         input.RejectedPieces,
			OtherForgeRejectionsKg: input.OtherForgeRejectionsKg,
		})
		if err != nil {
			return err
		}
		result.ProcessedItem = processed

		step, err := s.workflowSvc.RecordStep(ctx, txx, tenantID, RecordStepInput{
			WorkflowID:    workflow.ID,
			OperationType: types.OpForging,
			BatchEntityID: forge.ID,
			Outcome:       types.OutcomePass,
			StartedAt:     input.ForgeDate,
		})
		if err != nil {
			return err
		}
		result.Step = step
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.BatchCreated, map[string]interface{}{
		"tenant_id":   tenantID,
		"stage":       "FORGING",
		"forge_id":    result.Forge.ID,
		"workflow_id": result.Workflow.ID,
	})
	return result, nil
}

func (s *forgeService) resolveWorkflow(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, input CreateForgeInput) (*types.ItemWorkflow, error) {
	const op = "Forge.CreateForge"
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	if input.WorkflowID != uuid.Nil {
		workflow, err := s.workflowRepo.GetByID(dbc, tenantID, input.WorkflowID)
		if err != nil {
			return nil, faults.Wrap(faults.CodeInternal, op, err)
		}
		if workflow == nil {
			return nil, faults.NotFound(op, "workflow")
		}
		if workflow.ItemID != input.ItemID {
			return nil, faults.Validation(op, "workflow belongs to a different item")
		}
		return workflow, nil
	}

	existing, err := s.workflowRepo.GetLiveByIdentity(dbc, tenantID, input.ItemID, "")
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	if existing != nil {
		return existing, nil
	}
	return s.workflowSvc.Start(ctx, tx, tenantID, input.ItemID, uuid.Nil, wf.ItemScope())
}

func (s *forgeService) GetByID(ctx context.Context, tenantID, forgeID uuid.UUID) (*types.Forge, error) {
	const op = "Forge.GetByID"
	forge, err := s.forgeRepo.GetByID(dbctx.Context{Ctx: ctx}, tenantID, forgeID)
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	if forge == nil {
		return nil, faults.NotFound(op, "forge")
	}
	return forge, nil
}
