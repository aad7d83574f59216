package testutil

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/steelbound/forgetrace-backend/internal/domain"
	wf "github.com/steelbound/forgetrace-backend/internal/domain/workflow"
)

func SeedTenant(tb testing.TB, tx *gorm.DB) *types.Tenant {
	tb.Helper()
	t := &types.Tenant{
		Name:   "Test Forge Works",
		Code:   "T-" + uuid.NewString()[:8],
		Status: "active",
	}
	if err := tx.Create(t).Error; err != nil {
		tb.Fatalf("seed tenant: %v", err)
	}
	return t
}

func SeedItem(tb testing.TB, tx *gorm.DB, tenantID uuid.UUID) *types.Item {
	tb.Helper()
	i := &types.Item{
		TenantID:      tenantID,
		Code:          "ITM-" + uuid.NewString()[:8],
		Name:          "Flange Blank",
		MaterialGrade: "EN8",
	}
	if err := tx.Create(i).Error; err != nil {
		tb.Fatalf("seed item: %v", err)
	}
	return i
}

func SeedRawMaterial(tb testing.TB, tx *gorm.DB, tenantID, itemID uuid.UUID) *types.RawMaterial {
	tb.Helper()
	m := &types.RawMaterial{
		TenantID: tenantID,
		ItemID:   itemID,
		Supplier: "Apex Steels",
		Grade:    "EN8",
	}
	if err := tx.Create(m).Error; err != nil {
		tb.Fatalf("seed raw material: %v", err)
	}
	return m
}

func SeedHeat(tb testing.TB, tx *gorm.DB, tenantID, rawMaterialID uuid.UUID, quantityKg float64, pieces int) *types.RawMaterialHeat {
	tb.Helper()
	h := &types.RawMaterialHeat{
		TenantID:            tenantID,
		RawMaterialID:       rawMaterialID,
		HeatNumber:          "H-" + uuid.NewString()[:8],
		TotalQuantityKg:     quantityKg,
		TotalPieces:         pieces,
		AvailableQuantityKg: quantityKg,
		AvailablePieces:     pieces,
	}
	if err := tx.Create(h).Error; err != nil {
		tb.Fatalf("seed heat: %v", err)
	}
	return h
}

// TemplateStep describes one step for SeedTemplate, in order.
type TemplateStep struct {
	Op       types.OperationType
	Optional bool
	Parallel bool
}

// StandardSteps is the full forge-to-dispatch sequence.
func StandardSteps() []TemplateStep {
	return []TemplateStep{
		{Op: types.OpForging},
		{Op: types.OpHeatTreatment},
		{Op: types.OpMachining},
		{Op: types.OpInspection},
		{Op: types.OpDispatch},
	}
}

func SeedTemplate(tb testing.TB, tx *gorm.DB, tenantID uuid.UUID, isDefault bool, steps []TemplateStep) *types.WorkflowTemplate {
	tb.Helper()
	t := &types.WorkflowTemplate{
		TenantID:  tenantID,
		Name:      "TPL-" + uuid.NewString()[:8],
		IsDefault: isDefault,
		Active:    true,
	}
	for i, s := range steps {
		t.Steps = append(t.Steps, types.WorkflowTemplateStep{
			Sequence:      i + 1,
			OperationType: s.Op,
			Optional:      s.Optional,
			Parallel:      s.Parallel,
		})
	}
	if err := tx.Create(t).Error; err != nil {
		tb.Fatalf("seed template: %v", err)
	}
	return t
}

func SeedWorkflow(tb testing.TB, tx *gorm.DB, tenantID, itemID, templateID uuid.UUID, scope wf.Scope) *types.ItemWorkflow {
	tb.Helper()
	w := &types.ItemWorkflow{
		TenantID:           tenantID,
		ItemID:             itemID,
		ScopeKind:          scope.Kind,
		WorkflowIdentifier: scope.Identifier,
		TemplateID:         templateID,
		Status:             types.StatusNotStarted,
	}
	if err := tx.Create(w).Error; err != nil {
		tb.Fatalf("seed workflow: %v", err)
	}
	return w
}

func SeedForge(tb testing.TB, tx *gorm.DB, tenantID, itemID, heatID, workflowID uuid.UUID, quantityKg float64, pieces int) *types.Forge {
	tb.Helper()
	f := &types.Forge{
		TenantID:            tenantID,
		ItemID:              itemID,
		HeatID:              heatID,
		WorkflowID:          workflowID,
		AllocatedQuantityKg: quantityKg,
		AllocatedPieces:     pieces,
	}
	if err := tx.Create(f).Error; err != nil {
		tb.Fatalf("seed forge: %v", err)
	}
	return f
}

func SeedProcessedItem(tb testing.TB, tx *gorm.DB, tenantID, forgeID, itemID uuid.UUID, expected, actual, rejected int) *types.ProcessedItem {
	tb.Helper()
	p := &types.ProcessedItem{
		TenantID:                 tenantID,
		ForgeID:                  forgeID,
		ItemID:                   itemID,
		ExpectedForgePiecesCount: expected,
		ActualForgePiecesCount:   actual,
		RejectedForgePiecesCount: rejected,
	}
	if err := tx.Create(p).Error; err != nil {
		tb.Fatalf("seed processed item: %v", err)
	}
	return p
}
