package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/steelbound/forgetrace-backend/internal/data/repos/testutil"
	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/domain/faults"
	wf "github.com/steelbound/forgetrace-backend/internal/domain/workflow"
)

type forgeFixture struct {
	tenant    *types.Tenant
	item      *types.Item
	heat      *types.RawMaterialHeat
	workflow  *types.ItemWorkflow
	forge     *types.Forge
	processed *types.ProcessedItem
}

// seedForgeOutput seeds a forge with recorded output so piece tracking has a
// source to draw from.
func seedForgeOutput(t *testing.T, e *env, expected, actual, rejected int) *forgeFixture {
	t.Helper()
	tenant := testutil.SeedTenant(t, e.db)
	item := testutil.SeedItem(t, e.db, tenant.ID)
	raw := testutil.SeedRawMaterial(t, e.db, tenant.ID, item.ID)
	heat := testutil.SeedHeat(t, e.db, tenant.ID, raw.ID, 1000, 200)
	template := testutil.SeedTemplate(t, e.db, tenant.ID, true, testutil.StandardSteps())
	workflow := testutil.SeedWorkflow(t, e.db, tenant.ID, item.ID, template.ID, wf.ItemScope())
	forge := testutil.SeedForge(t, e.db, tenant.ID, item.ID, heat.ID, workflow.ID, 600, 120)
	processed := testutil.SeedProcessedItem(t, e.db, tenant.ID, forge.ID, item.ID, expected, actual, rejected)
	return &forgeFixture{
		tenant:    tenant,
		item:      item,
		heat:      heat,
		workflow:  workflow,
		forge:     forge,
		processed: processed,
	}
}

func TestRecordForgeOutputOncePerForge(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tenant := testutil.SeedTenant(t, e.db)
	item := testutil.SeedItem(t, e.db, tenant.ID)
	raw := testutil.SeedRawMaterial(t, e.db, tenant.ID, item.ID)
	heat := testutil.SeedHeat(t, e.db, tenant.ID, raw.ID, 1000, 200)
	template := testutil.SeedTemplate(t, e.db, tenant.ID, true, testutil.StandardSteps())
	workflow := testutil.SeedWorkflow(t, e.db, tenant.ID, item.ID, template.ID, wf.ItemScope())
	forge := testutil.SeedForge(t, e.db, tenant.ID, item.ID, heat.ID, workflow.ID, 600, 120)

	processed, err := e.pieceTracker.RecordForgeOutput(ctx, nil, tenant.ID, ForgeOutputInput{
		ForgeID:        forge.ID,
		ExpectedPieces: 120,
		ActualPieces:   118,
		RejectedPieces: 3,
	})
	if err != nil {
		t.Fatalf("RecordForgeOutput: %v", err)
	}
	if processed.GoodPieces() != 115 {
		t.Fatalf("expected 115 good pieces, got %d", processed.GoodPieces())
	}

	_, err = e.pieceTracker.RecordForgeOutput(ctx, nil, tenant.ID, ForgeOutputInput{
		ForgeID:      forge.ID,
		ActualPieces: 1,
	})
	if !faults.IsCode(err, faults.CodeConflict) {
		t.Fatalf("expected conflict on second output record, got %v", err)
	}
}

func TestRecordForgeOutputRejectsBadCounts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tenant := testutil.SeedTenant(t, e.db)

	_, err := e.pieceTracker.RecordForgeOutput(ctx, nil, tenant.ID, ForgeOutputInput{
		ForgeID:        uuid.New(),
		ActualPieces:   10,
		RejectedPieces: 11,
	})
	if !faults.IsReason(err, faults.ReasonNegativeQuantity) {
		t.Fatalf("expected negative_quantity when rejected exceeds actual, got %v", err)
	}

	_, err = e.pieceTracker.RecordForgeOutput(ctx, nil, tenant.ID, ForgeOutputInput{
		ForgeID:      uuid.New(),
		ActualPieces: -1,
	})
	if !faults.IsReason(err, faults.ReasonNegativeQuantity) {
		t.Fatalf("expected negative_quantity, got %v", err)
	}
}

func TestAvailablePiecesDerivation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	fx := seedForgeOutput(t, e, 120, 118, 3)
	source := types.SourceRef{Kind: types.SourceProcessedItem, ID: fx.processed.ID}

	available, err := e.pieceTracker.AvailablePieces(ctx, nil, fx.tenant.ID, source)
	if err != nil {
		t.Fatalf("AvailablePieces: %v", err)
	}
	if available != 115 {
		t.Fatalf("expected 115 available, got %d", available)
	}

	claim, err := e.pieceTracker.Consume(ctx, nil, fx.tenant.ID, source, 50, string(types.SourceHeatTreatmentBatch), uuid.New())
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}

	available, err = e.pieceTracker.AvailablePieces(ctx, nil, fx.tenant.ID, source)
	if err != nil {
		t.Fatalf("AvailablePieces: %v", err)
	}
	if available != 65 {
		t.Fatalf("expected 65 available after consuming 50, got %d", available)
	}

	if err := e.pieceTracker.Release(ctx, nil, fx.tenant.ID, claim.ID); err != nil {
		t.Fatalf("Release: %v", err)
	}
	available, err = e.pieceTracker.AvailablePieces(ctx, nil, fx.tenant.ID, source)
	if err != nil {
		t.Fatalf("AvailablePieces: %v", err)
	}
	if available != 115 {
		t.Fatalf("expected full availability back after release, got %d", available)
	}

	// Releasing again is a no-op.
	if err := e.pieceTracker.Release(ctx, nil, fx.tenant.ID, claim.ID); err != nil {
		t.Fatalf("second Release must be idempotent: %v", err)
	}
}

func TestConsumeGuards(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	fx := seedForgeOutput(t, e, 100, 100, 0)
	source := types.SourceRef{Kind: types.SourceProcessedItem, ID: fx.processed.ID}

	_, err := e.pieceTracker.Consume(ctx, nil, fx.tenant.ID, source, 101, "HEAT_TREATMENT_BATCH", uuid.New())
	if !faults.IsReason(err, faults.ReasonInsufficientAvailablePieces) {
		t.Fatalf("expected insufficient_available_pieces, got %v", err)
	}

	_, err = e.pieceTracker.Consume(ctx, nil, fx.tenant.ID, source, 0, "HEAT_TREATMENT_BATCH", uuid.New())
	if !faults.IsCode(err, faults.CodeValidation) {
		t.Fatalf("expected validation fault on empty consumption, got %v", err)
	}

	missing := types.SourceRef{Kind: types.SourceProcessedItem, ID: uuid.New()}
	_, err = e.pieceTracker.Consume(ctx, nil, fx.tenant.ID, missing, 1, "HEAT_TREATMENT_BATCH", uuid.New())
	if !faults.IsCode(err, faults.CodeNotFound) {
		t.Fatalf("expected not_found for missing source, got %v", err)
	}

	err = e.pieceTracker.Release(ctx, nil, fx.tenant.ID, uuid.New())
	if !faults.IsCode(err, faults.CodeNotFound) {
		t.Fatalf("expected not_found for unknown claim, got %v", err)
	}
}

func TestConcurrentConsumersCannotOversubscribe(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	fx := seedForgeOutput(t, e, 100, 100, 0)
	source := types.SourceRef{Kind: types.SourceProcessedItem, ID: fx.processed.ID}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.pieceTracker.Consume(ctx, nil, fx.tenant.ID, source, 60, "HEAT_TREATMENT_BATCH", uuid.New())
		}(i)
	}
	wg.Wait()

	var succeeded, short int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case faults.IsReason(err, faults.ReasonInsufficientAvailablePieces):
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || short != 1 {
		t.Fatalf("expected exactly one winner, got %d successes / %d shortfalls", succeeded, short)
	}

	available, err := e.pieceTracker.AvailablePieces(ctx, nil, fx.tenant.ID, source)
	if err != nil {
		t.Fatalf("AvailablePieces: %v", err)
	}
	if available != 40 {
		t.Fatalf("expected 40 available after one 60-piece claim, got %d", available)
	}
}
