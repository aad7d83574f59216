package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/steelbound/forgetrace-backend/internal/data/repos"
	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/domain/faults"
	"github.com/steelbound/forgetrace-backend/internal/platform/dbctx"
	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
)

// TemplateStepInput is one proposed step of a new template, in order.
type TemplateStepInput struct {
	OperationType types.OperationType
	Optional      bool
	Parallel      bool
	Config        datatypes.JSON
}

type CreateTemplateInput struct {
	Name      string
	IsDefault bool
	Steps     []TemplateStepInput
}

// WorkflowTemplateService is the registry of workflow templates plus the
// step-ordering rules every workflow consults. A template's step list is
// immutable once any live workflow references it; retirement (Deactivate) is
// the only change allowed after that.
type WorkflowTemplateService interface {
	CreateTemplate(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, input CreateTemplateInput) (*types.WorkflowTemplate, error)
	GetByID(ctx context.Context, tx *gorm.DB, tenantID, templateID uuid.UUID) (*types.WorkflowTemplate, error)
	GetDefaultTemplate(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) (*types.WorkflowTemplate, error)
	GetActiveTemplates(ctx context.Context, tenantID uuid.UUID) ([]*types.WorkflowTemplate, error)
	SetDefault(ctx context.Context, tenantID, templateID uuid.UUID) error
	Deactivate(ctx context.Context, tenantID, templateID uuid.UUID) error

	// ValidateStepOrder reports whether recording proposed next against the
	// given history is legal under the template's ordering rules.
	ValidateStepOrder(template *types.WorkflowTemplate, history []*types.ItemWorkflowStep, proposed types.OperationType) error
}

type workflowTemplateService struct {
	db           *gorm.DB
	log          *logger.Logger
	templateRepo repos.TemplateRepo
}

func NewWorkflowTemplateService(
	db *gorm.DB,
	baseLog *logger.Logger,
	templateRepo repos.TemplateRepo,
) WorkflowTemplateService {
	return &workflowTemplateService{
		db:           db,
		log:          baseLog.With("service", "WorkflowTemplateService"),
		templateRepo: templateRepo,
	}
}

func (s *workflowTemplateService) CreateTemplate(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, input CreateTemplateInput) (*types.WorkflowTemplate, error) {
	const op = "WorkflowTemplate.CreateTemplate"
	if input.Name == "" {
		return nil, faults.Validation(op, "missing template name")
	}
	if len(input.Steps) == 0 {
		return nil, faults.Validation(op, "template needs at least one step")
	}
	for _, st := range input.Steps {
		if !st.OperationType.Valid() {
			return nil, faults.Validation(op, "unknown operation type "+string(st.OperationType))
		}
	}

	template := &types.WorkflowTemplate{
		TenantID: tenantID,
		Name:     input.Name,
		Active:   true,
	}
	for i, st := range input.Steps {
		template.Steps = append(template.Steps, types.WorkflowTemplateStep{
			Sequence:      i + 1,
			OperationType: st.OperationType,
			Optional:      st.Optional,
			Parallel:      st.Parallel,
			Config:        st.Config,
		})
	}

	run := func(txx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: txx}
		if _, err := s.templateRepo.Create(dbc, []*types.WorkflowTemplate{template}); err != nil {
			return faults.Wrap(faults.CodeInternal, op, err)
		}
		if input.IsDefault {
			ok, err := s.templateRepo.SetDefault(dbc, tenantID, template.ID)
			if err != nil {
				return faults.Wrap(faults.CodeInternal, op, err)
			}
			if !ok {
				return faults.NotFound(op, "template")
			}
			template.IsDefault = true
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
	return template, nil
}

func (s *workflowTemplateService) GetByID(ctx context.Context, tx *gorm.DB, tenantID, templateID uuid.UUID) (*types.WorkflowTemplate, error) {
	const op = "WorkflowTemplate.GetByID"
	template, err := s.templateRepo.GetByID(dbctx.Context{Ctx: ctx, Tx: tx}, tenantID, templateID)
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	if template == nil {
		return nil, faults.NotFound(op, "workflow template")
	}
	return template, nil
}

func (s *workflowTemplateService) GetDefaultTemplate(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) (*types.WorkflowTemplate, error) {
	const op = "WorkflowTemplate.GetDefaultTemplate"
	template, err := s.templateRepo.GetDefault(dbctx.Context{Ctx: ctx, Tx: tx}, tenantID)
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	if template == nil {
		return nil, faults.NoDefaultTemplate(op)
	}
	return template, nil
}

func (s *workflowTemplateService) GetActiveTemplates(ctx context.Context, tenantID uuid.UUID) ([]*types.WorkflowTemplate, error) {
	const op = "WorkflowTemplate.GetActiveTemplates"
	templates, err := s.templateRepo.GetActive(dbctx.Context{Ctx: ctx}, tenantID)
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	return templates, nil
}

func (s *workflowTemplateService) SetDefault(ctx context.Context, tenantID, templateID uuid.UUID) error {
	const op = "WorkflowTemplate.SetDefault"
	ok, err := s.templateRepo.SetDefault(dbctx.Context{Ctx: ctx}, tenantID, templateID)
	if err != nil {
		return faults.Wrap(faults.CodeInternal, op, err)
	}
	if !ok {
		return faults.NotFound(op, "active workflow template")
	}
	return nil
}

func (s *workflowTemplateService) Deactivate(ctx context.Context, tenantID, templateID uuid.UUID) error {
	const op = "WorkflowTemplate.Deactivate"
	ok, err := s.templateRepo.SetActive(dbctx.Context{Ctx: ctx}, tenantID, templateID, false)
	if err != nil {
		return faults.Wrap(faults.CodeInternal, op, err)
	}
	if !ok {
		return faults.NotFound(op, "workflow template")
	}
	return nil
}

func (s *workflowTemplateService) ValidateStepOrder(template *types.WorkflowTemplate, history []*types.ItemWorkflowStep, proposed types.OperationType) error {
	_, err := matchNextStep(template, history, proposed)
	return err
}

// stepSatisfied reports whether the template step at this sequence has a
// recorded PASS. FAIL attempts do not satisfy, so the operation stays on
// offer for rework.
func stepSatisfied(step types.WorkflowTemplateStep, history []*types.ItemWorkflowStep) bool {
	for _, h := range history {
		if h.Sequence == step.Sequence && h.Outcome == types.OutcomePass {
			return true
		}
	}
	return false
}

// nextSteps computes the template steps currently on offer given the recorded
// history. A contiguous run of parallel steps is offered together in any
// order; optional steps are offered but never block the scan; the first
// unsatisfied mandatory sequential step ends it.
func nextSteps(template *types.WorkflowTemplate, history []*types.ItemWorkflowStep) []types.WorkflowTemplateStep {
	steps := template.OrderedSteps()
	var offered []types.WorkflowTemplateStep

	i := 0
	for i < len(steps) {
		if steps[i].Parallel {
			groupDone := true
			j := i
			for j < len(steps) && steps[j].Parallel {
				if !stepSatisfied(steps[j], history) {
					offered = append(offered, steps[j])
					if !steps[j].Optional {
						groupDone = false
					}
				}
				j++
			}
			if !groupDone {
				return offered
			}
			i = j
			continue
		}

		if stepSatisfied(steps[i], history) {
			i++
			continue
		}
		offered = append(offered, steps[i])
		if !steps[i].Optional {
			return offered
		}
		i++
	}
	return offered
}

// matchNextStep resolves which template step the proposed operation would
// satisfy, or fails with an invalid-transition fault.
func matchNextStep(template *types.WorkflowTemplate, history []*types.ItemWorkflowStep, proposed types.OperationType) (*types.WorkflowTemplateStep, error) {
	const op = "WorkflowTemplate.ValidateStepOrder"
	if !proposed.Valid() {
		return nil, faults.Validation(op, "unknown operation type "+string(proposed))
	}
	for _, candidate := range nextSteps(template, history) {
		if candidate.OperationType == proposed {
			c := candidate
			return &c, nil
		}
	}
	return nil, faults.InvalidStepTransition(op, string(proposed)+" is not a permitted next operation")
}

// workflowComplete reports whether every mandatory template step has passed.
func workflowComplete(template *types.WorkflowTemplate, history []*types.ItemWorkflowStep) bool {
	for _, step := range template.OrderedSteps() {
		if step.Optional {
			continue
		}
		if !stepSatisfied(step, history) {
			return false
		}
	}
	return true
}
