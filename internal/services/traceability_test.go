package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/steelbound/forgetrace-backend/internal/data/repos/testutil"
	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/domain/faults"
)

// traceChain builds heat -> forge -> heat treatment -> machining ->
// inspection -> dispatch through the services so the resolvers read a real
// pipeline.
type traceChain struct {
	tenant   *types.Tenant
	heat     *types.RawMaterialHeat
	forge    *types.Forge
	workflow *types.ItemWorkflow
	ht       *types.HeatTreatmentBatch
	mach     *types.MachiningBatch
	insp     *types.InspectionBatch
	disp     *types.DispatchBatch
}

func buildTraceChain(t *testing.T, e *env) *traceChain {
	t.Helper()
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
		ConsumedPieces:  80,
		ActualPieces:    80,
	})
	if err != nil {
		t.Fatalf("CreateHeatTreatmentBatch: %v", err)
	}
	mach, err := e.batches.CreateMachiningBatch(ctx, tenant.ID, CreateMachiningBatchInput{
		WorkflowID:           forged.Workflow.ID,
		HeatTreatmentBatchID: idRef(ht.ID),
		ConsumedPieces:       70,
		ActualPieces:         70,
	})
	if err != nil {
		t.Fatalf("CreateMachiningBatch: %v", err)
	}
	insp, err := e.batches.CreateInspectionBatch(ctx, tenant.ID, CreateInspectionBatchInput{
		WorkflowID:       forged.Workflow.ID,
		MachiningBatchID: mach.ID,
		ConsumedPieces:   70,
		ActualPieces:     70,
		Result:           "ok",
	})
	if err != nil {
		t.Fatalf("CreateInspectionBatch: %v", err)
	}
	disp, err := e.batches.CreateDispatchBatch(ctx, tenant.ID, CreateDispatchBatchInput{
		WorkflowID:        forged.Workflow.ID,
		MachiningBatchID:  mach.ID,
		InspectionBatchID: idRef(insp.ID),
		ConsumedPieces:    65,
		InvoiceNumber:     "INV-88",
	})
	if err != nil {
		t.Fatalf("CreateDispatchBatch: %v", err)
	}

	return &traceChain{
		tenant:   tenant,
		heat:     heat,
		forge:    forged.Forge,
		workflow: forged.Workflow,
		ht:       ht,
		mach:     mach,
		insp:     insp,
		disp:     disp,
	}
}

func TestResolveByHeatWalksFullChain(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	chain := buildTraceChain(t, e)

	trace, err := e.trace.ResolveByHeat(ctx, chain.tenant.ID, chain.heat.ID)
	if err != nil {
		t.Fatalf("ResolveByHeat: %v", err)
	}
	if trace.Heat.ID != chain.heat.ID || trace.RawMaterial == nil {
		t.Fatal("trace must carry the heat and its raw material")
	}
	if len(trace.Forges) != 1 {
		t.Fatalf("expected 1 forge, got %d", len(trace.Forges))
	}
	forge := trace.Forges[0]
	if forge.Forge.ID != chain.forge.ID || forge.ProcessedItem == nil {
		t.Fatal("forge node must carry forge and recorded output")
	}
	if len(forge.HeatTreatment) != 1 || forge.HeatTreatment[0].Batch.ID != chain.ht.ID {
		t.Fatalf("expected the heat treatment batch nested under the forge")
	}
	machining := forge.HeatTreatment[0].Machining
	if len(machining) != 1 || machining[0].Batch.ID != chain.mach.ID {
		t.Fatal("expected the machining batch nested under heat treatment")
	}
	if len(machining[0].Inspections) != 1 || machining[0].Inspections[0].ID != chain.insp.ID {
		t.Fatal("expected the inspection batch nested under machining")
	}
	if len(machining[0].Dispatches) != 1 || machining[0].Dispatches[0].ID != chain.disp.ID {
		t.Fatal("expected the dispatch batch nested under machining")
	}
	if len(forge.DirectMachining) != 0 {
		t.Fatalf("no machining drew on the forge output directly, got %d", len(forge.DirectMachining))
	}
}

func TestResolveByForgeBeforeDownstream(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	fx := seedForgeOutput(t, e, 120, 118, 3)

	trace, err := e.trace.ResolveByForge(ctx, fx.tenant.ID, fx.forge.ID)
	if err != nil {
		t.Fatalf("ResolveByForge: %v", err)
	}
	if trace.ProcessedItem == nil || trace.ProcessedItem.ID != fx.processed.ID {
		t.Fatal("trace must carry the recorded output")
	}
	// Empty downstream is a valid answer, never nil.
	if trace.HeatTreatment == nil || len(trace.HeatTreatment) != 0 {
		t.Fatalf("expected empty heat treatment list, got %v", trace.HeatTreatment)
	}
	if trace.DirectMachining == nil || len(trace.DirectMachining) != 0 {
		t.Fatalf("expected empty direct machining list, got %v", trace.DirectMachining)
	}
}

func TestResolveByWorkflowCarriesStepsAndTemplate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	chain := buildTraceChain(t, e)

	trace, err := e.trace.ResolveByWorkflow(ctx, chain.tenant.ID, chain.workflow.ID)
	if err != nil {
		t.Fatalf("ResolveByWorkflow: %v", err)
	}
	if trace.Template == nil {
		t.Fatal("trace must carry the template")
	}
	// FORGING, HEAT_TREATMENT, MACHINING, INSPECTION, DISPATCH.
	if len(trace.Steps) != 5 {
		t.Fatalf("expected 5 recorded steps, got %d", len(trace.Steps))
	}
	if len(trace.Forges) != 1 || trace.Forges[0].Forge.ID != chain.forge.ID {
		t.Fatal("trace must carry the workflow's forge")
	}
}

func TestResolveMissingAnchors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tenant := testutil.SeedTenant(t, e.db)

	if _, err := e.trace.ResolveByHeat(ctx, tenant.ID, uuid.New()); !faults.IsReason(err, faults.ReasonTraceabilityAnchorNotFound) {
		t.Fatalf("expected traceability_anchor_not_found for heat, got %v", err)
	}
	if _, err := e.trace.ResolveByForge(ctx, tenant.ID, uuid.New()); !faults.IsReason(err, faults.ReasonTraceabilityAnchorNotFound) {
		t.Fatalf("expected traceability_anchor_not_found for forge, got %v", err)
	}
	if _, err := e.trace.ResolveByWorkflow(ctx, tenant.ID, uuid.New()); !faults.IsReason(err, faults.ReasonTraceabilityAnchorNotFound) {
		t.Fatalf("expected traceability_anchor_not_found for workflow, got %v", err)
	}
}

func TestTraceIsTenantScoped(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	chain := buildTraceChain(t, e)
	other := testutil.SeedTenant(t, e.db)

	_, err := e.trace.ResolveByHeat(ctx, other.ID, chain.heat.ID)
	if !faults.IsReason(err, faults.ReasonTraceabilityAnchorNotFound) {
		t.Fatalf("trace anchors must be invisible across tenants, got %v", err)
	}
}
