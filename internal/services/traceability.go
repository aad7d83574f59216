package services

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/steelbound/forgetrace-backend/internal/data/repos"
	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/domain/faults"
	"github.com/steelbound/forgetrace-backend/internal/platform/dbctx"
	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
)

// Trace DTOs nest each stage inside its upstream stage, so one response
// carries the full forward chain from the anchor.

type MachiningNode struct {
	Batch       *types.MachiningBatch    `json:"batch"`
	Inspections []*types.InspectionBatch `json:"inspections"`
	Dispatches  []*types.DispatchBatch   `json:"dispatches"`
}

type HeatTreatmentNode struct {
	Batch     *types.HeatTreatmentBatch `json:"batch"`
	Machining []*MachiningNode          `json:"machining"`
}

type ForgeTrace struct {
	Forge         *types.Forge         `json:"forge"`
	ProcessedItem *types.ProcessedItem `json:"processed_item,omitempty"`
	HeatTreatment []*HeatTreatmentNode `json:"heat_treatment"`
	// Machining batches drawing directly on the processed item, recorded when
	// heat treatment was optional and skipped.
	DirectMachining []*MachiningNode `json:"direct_machining"`
}

type HeatTrace struct {
	Heat        *types.RawMaterialHeat `json:"heat"`
	RawMaterial *types.RawMaterial     `json:"raw_material,omitempty"`
	Forges      []*ForgeTrace          `json:"forges"`
}

type WorkflowTrace struct {
	Workflow *types.ItemWorkflow       `json:"workflow"`
	Template *types.WorkflowTemplate   `json:"template,omitempty"`
	Steps    []*types.ItemWorkflowStep `json:"steps"`
	Forges   []*ForgeTrace             `json:"forges"`
}

// TraceabilityService answers "where did this metal go" from any anchor.
// Reads are non-locking snapshots; empty downstream lists are valid answers,
// only a missing anchor faults.
type TraceabilityService interface {
	ResolveByHeat(ctx context.Context, tenantID, heatID uuid.UUID) (*HeatTrace, error)
	ResolveByForge(ctx context.Context, tenantID, forgeID uuid.UUID) (*ForgeTrace, error)
	ResolveByWorkflow(ctx context.Context, tenantID, workflowID uuid.UUID) (*WorkflowTrace, error)
}

type traceabilityService struct {
	db            *gorm.DB
	log           *logger.Logger
	heatRepo      repos.HeatRepo
	rawRepo       repos.RawMaterialRepo
	forgeRepo     repos.ForgeRepo
	processedRepo repos.ProcessedItemRepo
	htBatchRepo   repos.HeatTreatmentBatchRepo
	machBatchRepo repos.MachiningBatchRepo
	inspBatchRepo repos.InspectionBatchRepo
	dispBatchRepo repos.DispatchBatchRepo
	workflowRepo  repos.ItemWorkflowRepo
	templateRepo  repos.TemplateRepo
	stepRepo      repos.StepRepo
}

func NewTraceabilityService(
	db *gorm.DB,
	baseLog *logger.Logger,
	heatRepo repos.HeatRepo,
	rawRepo repos.RawMaterialRepo,
	forgeRepo repos.ForgeRepo,
	processedRepo repos.ProcessedItemRepo,
	htBatchRepo repos.HeatTreatmentBatchRepo,
	machBatchRepo repos.MachiningBatchRepo,
	inspBatchRepo repos.InspectionBatchRepo,
	dispBatchRepo repos.DispatchBatchRepo,
	workflowRepo repos.ItemWorkflowRepo,
	templateRepo repos.TemplateRepo,
	stepRepo repos.StepRepo,
) TraceabilityService {
	return &traceabilityService{
		db:            db,
		log:           baseLog.With("service", "TraceabilityService"),
		heatRepo:      heatRepo,
		rawRepo:       rawRepo,
		forgeRepo:     forgeRepo,
		processedRepo: processedRepo,
		htBatchRepo:   htBatchRepo,
		machBatchRepo: machBatchRepo,
		inspBatchRepo: inspBatchRepo,
		dispBatchRepo: dispBatchRepo,
		workflowRepo:  workflowRepo,
		templateRepo:  templateRepo,
		stepRepo:      stepRepo,
	}
}

func (s *traceabilityService) ResolveByHeat(ctx context.Context, tenantID, heatID uuid.UUID) (*HeatTrace, error) {
	const op = "Traceability.ResolveByHeat"
	dbc := dbctx.Context{Ctx: ctx}

	heat, err := s.heatRepo.GetByID(dbc, tenantID, heatID)
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	if heat == nil {
		return nil, faults.TraceabilityAnchorNotFound(op)
	}

	trace := &HeatTrace{Heat: heat, Forges: []*ForgeTrace{}}

	materials, err := s.rawRepo.GetByIDs(dbc, tenantID, []uuid.UUID{heat.RawMaterialID})
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	if len(materials) > 0 {
		trace.RawMaterial = materials[0]
	}

	forges, err := s.forgeRepo.GetByHeatIDs(dbc, tenantID, []uuid.UUID{heatID})
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	for _, forge := range forges {
		ft, err := s.traceForge(ctx, tenantID, forge)
		if err != nil {
			return nil, err
		}
		trace.Forges = append(trace.Forges, ft)
	}
	return trace, nil
}

func (s *traceabilityService) ResolveByForge(ctx context.Context, tenantID, forgeID uuid.UUID) (*ForgeTrace, error) {
	const op = "Traceability.ResolveByForge"
	dbc := dbctx.Context{Ctx: ctx}

	forge, err := s.forgeRepo.GetByID(dbc, tenantID, forgeID)
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	if forge == nil {
		return nil, faults.TraceabilityAnchorNotFound(op)
	}
	return s.traceForge(ctx, tenantID, forge)
}

func (s *traceabilityService) ResolveByWorkflow(ctx context.Context, tenantID, workflowID uuid.UUID) (*WorkflowTrace, error) {
	const op = "Traceability.ResolveByWorkflow"
	dbc := dbctx.Context{Ctx: ctx}

	workflow, err := s.workflowRepo.GetByID(dbc, tenantID, workflowID)
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	if workflow == nil {
		return nil, faults.TraceabilityAnchorNotFound(op)
	}

	trace := &WorkflowTrace{Workflow: workflow, Forges: []*ForgeTrace{}}

	template, err := s.templateRepo.GetByID(dbc, tenantID, workflow.TemplateID)
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	trace.Template = template

	steps, err := s.stepRepo.GetByWorkflowID(dbc, tenantID, workflowID)
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	trace.Steps = steps

	forges, err := s.forgeRepo.GetByWorkflowID(dbc, tenantID, workflowID)
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	for _, forge := range forges {
		ft, err := s.traceForge(ctx, tenantID, forge)
		if err != nil {
			return nil, err
		}
		trace.Forges = append(trace.Forges, ft)
	}
	return trace, nil
}

func (s *traceabilityService) traceForge(ctx context.Context, tenantID uuid.UUID, forge *types.Forge) (*ForgeTrace, error) {
	const op = "Traceability.ResolveByForge"
	dbc := dbctx.Context{Ctx: ctx}

	trace := &ForgeTrace{
		Forge:           forge,
		HeatTreatment:   []*HeatTreatmentNode{},
		DirectMachining: []*MachiningNode{},
	}

	processed, err := s.processedRepo.GetByForgeIDs(dbc, tenantID, []uuid.UUID{forge.ID})
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	if len(processed) == 0 {
		return trace, nil
	}
	trace.ProcessedItem = processed[0]
	processedID := processed[0].ID

	// The two consumer kinds of a processed item are independent lookups.
	var htBatches []*types.HeatTreatmentBatch
	var directMach []*types.MachiningBatch
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		htBatches, err = s.htBatchRepo.GetByProcessedItemIDs(dbctx.Context{Ctx: gctx}, tenantID, []uuid.UUID{processedID})
		return err
	})
	g.Go(func() error {
		var err error
		directMach, err = s.machBatchRepo.GetByProcessedItemIDs(dbctx.Context{Ctx: gctx}, tenantID, []uuid.UUID{processedID})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}

	for _, ht := range htBatches {
		node := &HeatTreatmentNode{Batch: ht, Machining: []*MachiningNode{}}
		machBatches, err := s.machBatchRepo.GetByHeatTreatmentBatchIDs(dbc, tenantID, []uuid.UUID{ht.ID})
		if err != nil {
			return nil, faults.Wrap(faults.CodeInternal, op, err)
		}
		node.Machining, err = s.traceMachining(ctx, tenantID, machBatches)
		if err != nil {
			return nil, err
		}
		trace.HeatTreatment = append(trace.HeatTreatment, node)
	}

	trace.DirectMachining, err = s.traceMachining(ctx, tenantID, directMach)
	if err != nil {
		return nil, err
	}
	return trace, nil
}

// traceMachining loads the inspection and dispatch children of a machining
// set; the two sibling lookups run concurrently.
func (s *traceabilityService) traceMachining(ctx context.Context, tenantID uuid.UUID, batches []*types.MachiningBatch) ([]*MachiningNode, error) {
	const op = "Traceability.ResolveByForge"
	nodes := []*MachiningNode{}
	if len(batches) == 0 {
		return nodes, nil
	}

	ids := make([]uuid.UUID, 0, len(batches))
	for _, b := range batches {
		ids = append(ids, b.ID)
	}

	var inspections []*types.InspectionBatch
	var dispatches []*types.DispatchBatch
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		inspections, err = s.inspBatchRepo.GetByMachiningBatchIDs(dbctx.Context{Ctx: gctx}, tenantID, ids)
		return err
	})
	g.Go(func() error {
		var err error
		dispatches, err = s.dispBatchRepo.GetByMachiningBatchIDs(dbctx.Context{Ctx: gctx}, tenantID, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}

	inspByMach := map[uuid.UUID][]*types.InspectionBatch{}
	for _, insp := range inspections {
		inspByMach[insp.MachiningBatchID] = append(inspByMach[insp.MachiningBatchID], insp)
	}
	dispByMach := map[uuid.UUID][]*types.DispatchBatch{}
	for _, disp := range dispatches {
		dispByMach[disp.MachiningBatchID] = append(dispByMach[disp.MachiningBatchID], disp)
	}

	for _, b := range batches {
		node := &MachiningNode{
			Batch:       b,
			Inspections: inspByMach[b.ID],
			Dispatches:  dispByMach[b.ID],
		}
		if node.Inspections == nil {
			node.Inspections = []*types.InspectionBatch{}
		}
		if node.Dispatches == nil {
			node.Dispatches = []*types.DispatchBatch{}
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}
