package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/steelbound/forgetrace-backend/internal/data/repos/testutil"
	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/domain/faults"
)

func idRef(id uuid.UUID) *uuid.UUID { return &id }

// TestStageBatchPipeline walks a heat all the way to dispatch and checks the
// quantity ledger at every hop.
func TestStageBatchPipeline(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tenant := testutil.SeedTenant(t, e.db)
	item := testutil.SeedItem(t, e.db, tenant.ID)
	raw := testutil.SeedRawMaterial(t, e.db, tenant.ID, item.ID)
	heat := testutil.SeedHeat(t, e.db, tenant.ID, raw.ID, 1000, 200)
	testutil.SeedTemplate(t, e.db, tenant.ID, true, testutil.StandardSteps())

	forged, err := e.forges.CreateForge(ctx, tenant.ID, CreateForgeInput{
		ItemID:         item.ID,
		HeatID:         heat.ID,
		QuantityKg:     600,
		Pieces:         120,
		ExpectedPieces: 120,
		ActualPieces:   118,
		RejectedPieces: 3,
	})
	if err != nil {
		t.Fatalf("CreateForge: %v", err)
	}
	workflowID := forged.Workflow.ID
	processedID := forged.ProcessedItem.ID

	ht, err := e.batches.CreateHeatTreatmentBatch(ctx, tenant.ID, CreateHeatTreatmentBatchInput{
		WorkflowID:      workflowID,
		ProcessedItemID: processedID,
		ConsumedPieces:  50,
		ExpectedPieces:  50,
		ActualPieces:    50,
		RejectedPieces:  2,
		FurnaceNumber:   "F-2",
		CycleNumber:     "C-113",
	})
	if err != nil {
		t.Fatalf("CreateHeatTreatmentBatch: %v", err)
	}

	left, err := e.pieceTracker.AvailablePieces(ctx, nil, tenant.ID,
		types.SourceRef{Kind: types.SourceProcessedItem, ID: processedID})
	if err != nil {
		t.Fatalf("AvailablePieces: %v", err)
	}
	if left != 65 {
		t.Fatalf("expected 65 pieces left on forge output, got %d", left)
	}

	mach, err := e.batches.CreateMachiningBatch(ctx, tenant.ID, CreateMachiningBatchInput{
		WorkflowID:           workflowID,
		HeatTreatmentBatchID: idRef(ht.ID),
		ConsumedPieces:       48,
		ExpectedPieces:       48,
		ActualPieces:         47,
		RejectedPieces:       1,
		MachineNumber:        "VMC-4",
	})
	if err != nil {
		t.Fatalf("CreateMachiningBatch: %v", err)
	}

	insp, err := e.batches.CreateInspectionBatch(ctx, tenant.ID, CreateInspectionBatchInput{
		WorkflowID:       workflowID,
		MachiningBatchID: mach.ID,
		ConsumedPieces:   46,
		ExpectedPieces:   46,
		ActualPieces:     46,
		RejectedPieces:   2,
		Result:           "dimensional check ok",
		Outcome:          types.OutcomePass,
	})
	if err != nil {
		t.Fatalf("CreateInspectionBatch: %v", err)
	}

	if _, err := e.batches.CreateDispatchBatch(ctx, tenant.ID, CreateDispatchBatchInput{
		WorkflowID:        workflowID,
		MachiningBatchID:  mach.ID,
		InspectionBatchID: idRef(insp.ID),
		ConsumedPieces:    40,
		InvoiceNumber:     "INV-2031",
	}); err != nil {
		t.Fatalf("CreateDispatchBatch: %v", err)
	}

	state, err := e.workflows.CurrentStepAndNextOperations(ctx, tenant.ID, workflowID)
	if err != nil {
		t.Fatalf("CurrentStepAndNextOperations: %v", err)
	}
	if state.Workflow.Status != types.StatusCompleted {
		t.Fatalf("expected COMPLETED after dispatch, got %s", state.Workflow.Status)
	}

	left, err = e.pieceTracker.AvailablePieces(ctx, nil, tenant.ID,
		types.SourceRef{Kind: types.SourceInspectionBatch, ID: insp.ID})
	if err != nil {
		t.Fatalf("AvailablePieces: %v", err)
	}
	if left != 4 {
		t.Fatalf("expected 4 inspected pieces left after dispatching 40 of 44, got %d", left)
	}
}

func TestCreateBatchOutOfOrderLeavesNothing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	fx := seedForgeOutput(t, e, 120, 118, 3)

	// MACHINING straight from the forge output while HEAT_TREATMENT is still
	// mandatory and unsatisfied.
	_, err := e.batches.CreateMachiningBatch(ctx, fx.tenant.ID, CreateMachiningBatchInput{
		WorkflowID:      fx.workflow.ID,
		ProcessedItemID: idRef(fx.processed.ID),
		ConsumedPieces:  10,
		ActualPieces:    10,
	})
	if !faults.IsReason(err, faults.ReasonInvalidStepTransition) {
		t.Fatalf("expected invalid_step_transition, got %v", err)
	}

	// The rejected batch must not have claimed any pieces.
	left, err := e.pieceTracker.AvailablePieces(ctx, nil, fx.tenant.ID,
		types.SourceRef{Kind: types.SourceProcessedItem, ID: fx.processed.ID})
	if err != nil {
		t.Fatalf("AvailablePieces: %v", err)
	}
	if left != 115 {
		t.Fatalf("expected untouched availability 115, got %d", left)
	}
}

func TestCreateMachiningBatchRequiresExactlyOneSource(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	fx := seedForgeOutput(t, e, 120, 118, 3)

	_, err := e.batches.CreateMachiningBatch(ctx, fx.tenant.ID, CreateMachiningBatchInput{
		WorkflowID:     fx.workflow.ID,
		ConsumedPieces: 10,
		ActualPieces:   10,
	})
	if !faults.IsCode(err, faults.CodeValidation) {
		t.Fatalf("expected validation with no source, got %v", err)
	}

	_, err = e.batches.CreateMachiningBatch(ctx, fx.tenant.ID, CreateMachiningBatchInput{
		WorkflowID:           fx.workflow.ID,
		HeatTreatmentBatchID: idRef(uuid.New()),
		ProcessedItemID:      idRef(fx.processed.ID),
		ConsumedPieces:       10,
		ActualPieces:         10,
	})
	if !faults.IsCode(err, faults.CodeValidation) {
		t.Fatalf("expected validation with both sources, got %v", err)
	}
}

func TestCreateDispatchBatchUnknownBuyer(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	fx := seedForgeOutput(t, e, 120, 118, 3)

	_, err := e.batches.CreateDispatchBatch(ctx, fx.tenant.ID, CreateDispatchBatchInput{
		WorkflowID:       fx.workflow.ID,
		MachiningBatchID: uuid.New(),
		ConsumedPieces:   5,
		BuyerID:          idRef(uuid.New()),
	})
	if !faults.IsCode(err, faults.CodeNotFound) {
		t.Fatalf("expected not_found for unknown buyer, got %v", err)
	}
}

// TestCancelMachiningBatchRewindsWorkflow completes a short pipeline, cancels
// the final machining batch, and expects the upstream availability back and
// the workflow reopened.
func TestCancelMachiningBatchRewindsWorkflow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tenant := testutil.SeedTenant(t, e.db)
	item := testutil.SeedItem(t, e.db, tenant.ID)
	raw := testutil.SeedRawMaterial(t, e.db, tenant.ID, item.ID)
	heat := testutil.SeedHeat(t, e.db, tenant.ID, raw.ID, 1000, 200)
	testutil.SeedTemplate(t, e.db, tenant.ID, true, []testutil.TemplateStep{
		{Op: types.OpForging},
		{Op: types.OpHeatTreatment},
		{Op: types.OpMachining},
	})

	forged, err := e.forges.CreateForge(ctx, tenant.ID, CreateForgeInput{
		ItemID:       item.ID,
		HeatID:       heat.ID,
		QuantityKg:   500,
		Pieces:       100,
		ActualPieces: 100,
	})
	if err != nil {
		t.Fatalf("CreateForge: %v", err)
	}
	ht, err := e.batches.CreateHeatTreatmentBatch(ctx, tenant.ID, CreateHeatTreatmentBatchInput{
		WorkflowID:      forged.Workflow.ID,
		ProcessedItemID: forged.ProcessedItem.ID,
		ConsumedPieces:  60,
		ActualPieces:    60,
	})
	if err != nil {
		t.Fatalf("CreateHeatTreatmentBatch: %v", err)
	}
	mach, err := e.batches.CreateMachiningBatch(ctx, tenant.ID, CreateMachiningBatchInput{
		WorkflowID:           forged.Workflow.ID,
		HeatTreatmentBatchID: idRef(ht.ID),
		ConsumedPieces:       55,
		ActualPieces:         54,
		RejectedPieces:       1,
	})
	if err != nil {
		t.Fatalf("CreateMachiningBatch: %v", err)
	}

	state, err := e.workflows.CurrentStepAndNextOperations(ctx, tenant.ID, forged.Workflow.ID)
	if err != nil {
		t.Fatalf("CurrentStepAndNextOperations: %v", err)
	}
	if state.Workflow.Status != types.StatusCompleted {
		t.Fatalf("expected COMPLETED before cancel, got %s", state.Workflow.Status)
	}

	if err := e.batches.CancelBatch(ctx, tenant.ID, BatchMachining, mach.ID); err != nil {
		t.Fatalf("CancelBatch: %v", err)
	}

	left, err := e.pieceTracker.AvailablePieces(ctx, nil, tenant.ID,
		types.SourceRef{Kind: types.SourceHeatTreatmentBatch, ID: ht.ID})
	if err != nil {
		t.Fatalf("AvailablePieces: %v", err)
	}
	if left != 60 {
		t.Fatalf("expected the heat treatment output fully available again, got %d", left)
	}

	state, err = e.workflows.CurrentStepAndNextOperations(ctx, tenant.ID, forged.Workflow.ID)
	if err != nil {
		t.Fatalf("CurrentStepAndNextOperations: %v", err)
	}
	if state.Workflow.Status != types.StatusInProgress {
		t.Fatalf("cancel must reopen the workflow, got %s", state.Workflow.Status)
	}
	if len(state.NextOperations) != 1 || state.NextOperations[0] != types.OpMachining {
		t.Fatalf("expected MACHINING back on offer, got %v", state.NextOperations)
	}
}

func TestCancelBatchWithOpenDownstreamClaims(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tenant := testutil.SeedTenant(t, e.db)
	item := testutil.SeedItem(t, e.db, tenant.ID)
	raw := testutil.SeedRawMaterial(t, e.db, tenant.ID, item.ID)
	heat := testutil.SeedHeat(t, e.db, tenant.ID, raw.ID, 1000, 200)
	testutil.SeedTemplate(t, e.db, tenant.ID, true, testutil.StandardSteps())

	forged, err := e.forges.CreateForge(ctx, tenant.ID, CreateForgeInput{
		ItemID:       item.ID,
		HeatID:       heat.ID,
		QuantityKg:   500,
		Pieces:       100,
		ActualPieces: 100,
	})
	if err != nil {
		t.Fatalf("CreateForge: %v", err)
	}
	ht, err := e.batches.CreateHeatTreatmentBatch(ctx, tenant.ID, CreateHeatTreatmentBatchInput{
		WorkflowID:      forged.Workflow.ID,
		ProcessedItemID: forged.ProcessedItem.ID,
		ConsumedPieces:  60,
		ActualPieces:    60,
	})
	if err != nil {
		t.Fatalf("CreateHeatTreatmentBatch: %v", err)
	}
	mach, err := e.batches.CreateMachiningBatch(ctx, tenant.ID, CreateMachiningBatchInput{
		WorkflowID:           forged.Workflow.ID,
		HeatTreatmentBatchID: idRef(ht.ID),
		ConsumedPieces:       50,
		ActualPieces:         50,
	})
	if err != nil {
		t.Fatalf("CreateMachiningBatch: %v", err)
	}

	// The machining batch still draws from the heat treatment output.
	err = e.batches.CancelBatch(ctx, tenant.ID, BatchHeatTreatment, ht.ID)
	if !faults.IsCode(err, faults.CodeConflict) {
		t.Fatalf("expected conflict while downstream claims are open, got %v", err)
	}

	// Unwinding from the tail end works.
	if err := e.batches.CancelBatch(ctx, tenant.ID, BatchMachining, mach.ID); err != nil {
		t.Fatalf("cancel machining: %v", err)
	}
	if err := e.batches.CancelBatch(ctx, tenant.ID, BatchHeatTreatment, ht.ID); err != nil {
		t.Fatalf("cancel heat treatment after downstream released: %v", err)
	}
}

func TestCancelForgeRestoresHeat(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tenant := testutil.SeedTenant(t, e.db)
	item := testutil.SeedItem(t, e.db, tenant.ID)
	raw := testutil.SeedRawMaterial(t, e.db, tenant.ID, item.ID)
	heat := testutil.SeedHeat(t, e.db, tenant.ID, raw.ID, 1000, 200)
	testutil.SeedTemplate(t, e.db, tenant.ID, true, testutil.StandardSteps())

	forged, err := e.forges.CreateForge(ctx, tenant.ID, CreateForgeInput{
		ItemID:       item.ID,
		HeatID:       heat.ID,
		QuantityKg:   600,
		Pieces:       120,
		ActualPieces: 118,
	})
	if err != nil {
		t.Fatalf("CreateForge: %v", err)
	}

	if err := e.batches.CancelBatch(ctx, tenant.ID, BatchForge, forged.Forge.ID); err != nil {
		t.Fatalf("CancelBatch forge: %v", err)
	}

	avail, err := e.heatLedger.AvailableHeatQuantity(ctx, tenant.ID, heat.ID)
	if err != nil {
		t.Fatalf("AvailableHeatQuantity: %v", err)
	}
	if avail.AvailableQuantityKg != 1000 || avail.AvailablePieces != 200 {
		t.Fatalf("expected heat fully restored, got %f/%d", avail.AvailableQuantityKg, avail.AvailablePieces)
	}

	state, err := e.workflows.CurrentStepAndNextOperations(ctx, tenant.ID, forged.Workflow.ID)
	if err != nil {
		t.Fatalf("CurrentStepAndNextOperations: %v", err)
	}
	if len(state.NextOperations) != 1 || state.NextOperations[0] != types.OpForging {
		t.Fatalf("expected FORGING offered again, got %v", state.NextOperations)
	}

	// The retired forge output is no longer a claimable source.
	_, err = e.pieceTracker.AvailablePieces(ctx, nil, tenant.ID,
		types.SourceRef{Kind: types.SourceProcessedItem, ID: forged.ProcessedItem.ID})
	if !faults.IsCode(err, faults.CodeNotFound) {
		t.Fatalf("expected not_found for retired forge output, got %v", err)
	}
}

func TestCancelForgeBlockedByDownstream(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tenant := testutil.SeedTenant(t, e.db)
	item := testutil.SeedItem(t, e.db, tenant.ID)
	raw := testutil.SeedRawMaterial(t, e.db, tenant.ID, item.ID)
	heat := testutil.SeedHeat(t, e.db, tenant.ID, raw.ID, 1000, 200)
	testutil.SeedTemplate(t, e.db, tenant.ID, true, testutil.StandardSteps())

	forged, err := e.forges.CreateForge(ctx, tenant.ID, CreateForgeInput{
		ItemID:       item.ID,
		HeatID:       heat.ID,
		QuantityKg:   500,
		Pieces:       100,
		ActualPieces: 100,
	})
	if err != nil {
		t.Fatalf("CreateForge: %v", err)
	}
	if _, err := e.batches.CreateHeatTreatmentBatch(ctx, tenant.ID, CreateHeatTreatmentBatchInput{
		WorkflowID:      forged.Workflow.ID,
		ProcessedItemID: forged.ProcessedItem.ID,
		ConsumedPieces:  10,
		ActualPieces:    10,
	}); err != nil {
		t.Fatalf("CreateHeatTreatmentBatch: %v", err)
	}

	err = e.batches.CancelBatch(ctx, tenant.ID, BatchForge, forged.Forge.ID)
	if !faults.IsCode(err, faults.CodeConflict) {
		t.Fatalf("expected conflict cancelling a consumed forge, got %v", err)
	}
}

func TestCancelBatchUnknownKind(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tenant := testutil.SeedTenant(t, e.db)

	err := e.batches.CancelBatch(ctx, tenant.ID, BatchKind("GRINDING"), uuid.New())
	if !faults.IsCode(err, faults.CodeValidation) {
		t.Fatalf("expected validation for unknown kind, got %v", err)
	}
}
