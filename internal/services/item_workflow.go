package services

import (
	"context"
	"encoding/json"
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

type RecordStepInput struct {
	WorkflowID    uuid.UUID
	OperationType types.OperationType
	BatchEntityID uuid.UUID
	Outcome       types.StepOutcome
	StartedAt     *time.Time
	EndedAt       *time.Time
}

// WorkflowState is the live position of a workflow: the recorded history, the
// operations currently permitted, and completion. It is always derived from
// the template and step history, never persisted.
type WorkflowState struct {
	Workflow       *types.ItemWorkflow     `json:"workflow"`
	Template       *types.WorkflowTemplate `json:"template"`
	CurrentStep    *types.ItemWorkflowStep `json:"current_step,omitempty"`
	NextOperations []types.OperationType   `json:"next_operations"`
	Complete       bool                    `json:"complete"`
}

// ItemWorkflowService drives workflows through their templates. Every
// mutation locks the workflow row first so concurrent recorders against the
// same workflow serialize and each sees the other's history.
type ItemWorkflowService interface {
	Start(ctx context.Context, tx *gorm.DB, tenantID, itemID, templateID uuid.UUID, scope wf.Scope) (*types.ItemWorkflow, error)
	RecordStep(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, input RecordStepInput) (*types.ItemWorkflowStep, error)
	CurrentStepAndNextOperations(ctx context.Context, tenantID, workflowID uuid.UUID) (*WorkflowState, error)
	GetByItemID(ctx context.Context, tenantID, itemID uuid.UUID) ([]*types.ItemWorkflow, error)
	Cancel(ctx context.Context, tenantID, workflowID uuid.UUID, reason string) error
}

type itemWorkflowService struct {
	db           *gorm.DB
	log          *logger.Logger
	templateSvc  WorkflowTemplateService
	workflowRepo repos.ItemWorkflowRepo
	stepRepo     repos.StepRepo
	itemRepo     repos.ItemRepo
	publisher    events.Publisher
}

func NewItemWorkflowService(
	db *gorm.DB,
	baseLog *logger.Logger,
	templateSvc WorkflowTemplateService,
	workflowRepo repos.ItemWorkflowRepo,
	stepRepo repos.StepRepo,
	itemRepo repos.ItemRepo,
	publisher events.Publisher,
) ItemWorkflowService {
	return &itemWorkflowService{
		db:           db,
		log:          baseLog.With("service", "ItemWorkflowService"),
		templateSvc:  templateSvc,
		workflowRepo: workflowRepo,
		stepRepo:     stepRepo,
		itemRepo:     itemRepo,
		publisher:    publisher,
	}
}

func (s *itemWorkflowService) Start(ctx context.Context, tx *gorm.DB, tenantID, itemID, templateID uuid.UUID, scope wf.Scope) (*types.ItemWorkflow, error) {
	const op = "ItemWorkflow.Start"
	if !scope.Valid() {
		return nil, faults.Validation(op, "invalid workflow scope")
	}

	var workflow *types.ItemWorkflow
	run := func(txx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: txx}

		items, err := s.itemRepo.GetByIDs(dbc, tenantID, []uuid.UUID{itemID})
		if err != nil {
			return faults.Wrap(faults.CodeInternal, op, err)
		}
		if len(items) == 0 {
			return faults.NotFound(op, "item")
		}

		var template *types.WorkflowTemplate
		if templateID == uuid.Nil {
			template, err = s.templateSvc.GetDefaultTemplate(ctx, txx, tenantID)
		} else {
			template, err = s.templateSvc.GetByID(ctx, txx, tenantID, templateID)
		}
		if err != nil {
			return err
		}
		if !template.Active {
			return faults.Validation(op, "workflow template is retired")
		}

		existing, err := s.workflowRepo.GetLiveByIdentity(dbc, tenantID, itemID, scope.Identifier)
		if err != nil {
			return faults.Wrap(faults.CodeInternal, op, err)
		}
		if existing != nil {
			return faults.DuplicateWorkflow(op)
		}

		workflow = &types.ItemWorkflow{
			TenantID:           tenantID,
			ItemID:             itemID,
			ScopeKind:          scope.Kind,
			WorkflowIdentifier: scope.Identifier,
			TemplateID:         template.ID,
			Status:             types.StatusNotStarted,
		}
		if _, err := s.workflowRepo.Create(dbc, []*types.ItemWorkflow{workflow}); err != nil {
			// The partial unique index over live, non-cancelled rows catches
			// the read-then-insert race; a loser surfaces here.
			return faults.New(faults.CodeConflict, faults.ReasonDuplicateWorkflow, op, err.Error())
		}
		return nil
	}

	var err error
	if tx != nil {
		err = run(tx)
	} else {
		err = s.db.Transaction(run)
	}
	if err != nil {
		return nil, err
	}

	// A caller-supplied tx has not committed yet; the composing service
	// publishes its own event after its commit.
	if tx == nil {
		s.publisher.Publish(ctx, events.WorkflowStarted, map[string]interface{}{
			"tenant_id":   tenantID,
			"workflow_id": workflow.ID,
			"item_id":     itemID,
			"scope":       workflow.ScopeKind,
		})
	}
	return workflow, nil
}

func (s *itemWorkflowService) RecordStep(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, input RecordStepInput) (*types.ItemWorkflowStep, error) {
	const op = "ItemWorkflow.RecordStep"
	if input.Outcome != types.OutcomePass && input.Outcome != types.OutcomeFail {
		return nil, faults.Validation(op, "outcome must be PASS or FAIL")
	}
	if input.BatchEntityID == uuid.Nil {
		return nil, faults.Validation(op, "missing batch entity id")
	}

	var step *types.ItemWorkflowStep
	var newStatus types.WorkflowStatus
	run := func(txx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: txx}

		// Lock the workflow row so concurrent recorders serialize and each
		// validates against the other's committed history.
		locked, err := s.workflowRepo.Touch(dbc, tenantID, input.WorkflowID)
		if err != nil {
			return faults.Wrap(faults.CodeInternal, op, err)
		}
		if !locked {
			return faults.NotFound(op, "workflow")
		}

		workflow, err := s.workflowRepo.GetByID(dbc, tenantID, input.WorkflowID)
		if err != nil {
			return faults.Wrap(faults.CodeInternal, op, err)
		}
		if workflow == nil {
			return faults.NotFound(op, "workflow")
		}
		if workflow.Status.Terminal() {
			return faults.New(faults.CodeConflict, faults.ReasonWorkflowTerminal, op, "workflow is "+string(workflow.Status))
		}

		template, err := s.templateSvc.GetByID(ctx, txx, tenantID, workflow.TemplateID)
		if err != nil {
			return err
		}

		history, err := s.stepRepo.GetByWorkflowID(dbc, tenantID, workflow.ID)
		if err != nil {
			return faults.Wrap(faults.CodeInternal, op, err)
		}

		matched, err := matchNextStep(template, history, input.OperationType)
		if err != nil {
			return err
		}

		step = &types.ItemWorkflowStep{
			TenantID:      tenantID,
			WorkflowID:    workflow.ID,
			Sequence:      matched.Sequence,
			OperationType: matched.OperationType,
			BatchEntityID: input.BatchEntityID,
			Outcome:       input.Outcome,
			StartedAt:     input.StartedAt,
			EndedAt:       input.EndedAt,
		}
		if _, err := s.stepRepo.Create(dbc, []*types.ItemWorkflowStep{step}); err != nil {
			return faults.Wrap(faults.CodeInternal, op, err)
		}

		newStatus = workflow.Status
		if workflow.Status == types.StatusNotStarted {
			newStatus = types.StatusInProgress
		}
		if input.Outcome == types.OutcomePass && workflowComplete(template, append(history, step)) {
			newStatus = types.StatusCompleted
		}
		if newStatus != workflow.Status {
			if err := s.workflowRepo.UpdateFields(dbc, tenantID, workflow.ID, map[string]interface{}{
				"status": newStatus,
			}); err != nil {
				return faults.Wrap(faults.CodeInternal, op, err)
			}
		}
		return nil
	}

	var err error
	if tx != nil {
		err = run(tx)
	} else {
		err = s.db.Transaction(run)
	}
	if err != nil {
		return nil, err
	}

	// Publish only once the write is durable: inside a caller-supplied tx the
	// step may still be rolled back by a later failure.
	if tx == nil {
		s.publisher.Publish(ctx, events.WorkflowStepRecorded, map[string]interface{}{
			"tenant_id":      tenantID,
			"workflow_id":    input.WorkflowID,
			"operation_type": step.OperationType,
			"outcome":        step.Outcome,
			"status":         newStatus,
		})
	}
	return step, nil
}

func (s *itemWorkflowService) CurrentStepAndNextOperations(ctx context.Context, tenantID, workflowID uuid.UUID) (*WorkflowState, error) {
	const op = "ItemWorkflow.CurrentStepAndNextOperations"
	dbc := dbctx.Context{Ctx: ctx}

	workflow, err := s.workflowRepo.GetByID(dbc, tenantID, workflowID)
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	if workflow == nil {
		return nil, faults.NotFound(op, "workflow")
	}

	template, err := s.templateSvc.GetByID(ctx, nil, tenantID, workflow.TemplateID)
	if err != nil {
		return nil, err
	}

	history, err := s.stepRepo.GetByWorkflowID(dbc, tenantID, workflow.ID)
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}

	state := &WorkflowState{
		Workflow: workflow,
		Template: template,
		Complete: workflowComplete(template, history),
	}
	if len(history) > 0 {
		state.CurrentStep = history[len(history)-1]
	}
	if !workflow.Status.Terminal() {
		for _, next := range nextSteps(template, history) {
			state.NextOperations = append(state.NextOperations, next.OperationType)
		}
	}
	return state, nil
}

func (s *itemWorkflowService) GetByItemID(ctx context.Context, tenantID, itemID uuid.UUID) ([]*types.ItemWorkflow, error) {
	const op = "ItemWorkflow.GetByItemID"
	workflows, err := s.workflowRepo.GetByItemID(dbctx.Context{Ctx: ctx}, tenantID, itemID)
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	return workflows, nil
}

func (s *itemWorkflowService) Cancel(ctx context.Context, tenantID, workflowID uuid.UUID, reason string) error {
	const op = "ItemWorkflow.Cancel"

	var alreadyCancelled bool
	err := s.db.Transaction(func(txx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: txx}

		locked, err := s.workflowRepo.Touch(dbc, tenantID, workflowID)
		if err != nil {
			return faults.Wrap(faults.CodeInternal, op, err)
		}
		if !locked {
			return faults.NotFound(op, "workflow")
		}

		workflow, err := s.workflowRepo.GetByID(dbc, tenantID, workflowID)
		if err != nil {
			return faults.Wrap(faults.CodeInternal, op, err)
		}
		if workflow == nil {
			return faults.NotFound(op, "workflow")
		}
		if workflow.Status == types.StatusCancelled {
			alreadyCancelled = true
			return nil
		}
		if workflow.Status == types.StatusCompleted {
			return faults.New(faults.CodeConflict, faults.ReasonWorkflowTerminal, op, "workflow already completed")
		}

		meta, _ := json.Marshal(map[string]interface{}{
			"cancelled_at":    time.Now().UTC(),
			"previous_status": workflow.Status,
		})
		return s.workflowRepo.UpdateFields(dbc, tenantID, workflowID, map[string]interface{}{
			"status":        types.StatusCancelled,
			"cancel_reason": reason,
			"cancel_meta":   meta,
		})
	})
	if err != nil {
		return err
	}
	if alreadyCancelled {
		return nil
	}

	s.publisher.Publish(ctx, events.WorkflowCancelled, map[string]interface{}{
		"tenant_id":   tenantID,
		"workflow_id": workflowID,
		"reason":      reason,
	})
	return nil
}
