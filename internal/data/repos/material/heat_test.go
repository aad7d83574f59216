package material

import (
	"context"
	"testing"

	"github.com/steelbound/forgetrace-backend/internal/data/repos/testutil"
	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/platform/dbctx"
)

func TestAllocateAvailableIsConditional(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewHeatRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	tenant := testutil.SeedTenant(t, tx)
	item := testutil.SeedItem(t, tx, tenant.ID)
	raw := testutil.SeedRawMaterial(t, tx, tenant.ID, item.ID)
	heat := testutil.SeedHeat(t, tx, tenant.ID, raw.ID, 100, 20)

	ok, err := repo.AllocateAvailable(dbc, tenant.ID, heat.ID, 60, 10)
	if err != nil {
		t.Fatalf("AllocateAvailable: %v", err)
	}
	if !ok {
		t.Fatal("allocation within availability must succeed")
	}

	// 40kg left; asking for 50 must not touch the row.
	ok, err = repo.AllocateAvailable(dbc, tenant.ID, heat.ID, 50, 1)
	if err != nil {
		t.Fatalf("AllocateAvailable: %v", err)
	}
	if ok {
		t.Fatal("allocation beyond availability must report false")
	}

	got, err := repo.GetByID(dbc, tenant.ID, heat.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.AvailableQuantityKg != 40 || got.AvailablePieces != 10 {
		t.Fatalf("expected 40kg/10pc, got %f/%d", got.AvailableQuantityKg, got.AvailablePieces)
	}
}

func TestReleaseAvailableCappedAtTotals(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewHeatRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	tenant := testutil.SeedTenant(t, tx)
	item := testutil.SeedItem(t, tx, tenant.ID)
	raw := testutil.SeedRawMaterial(t, tx, tenant.ID, item.ID)
	heat := testutil.SeedHeat(t, tx, tenant.ID, raw.ID, 100, 20)

	if _, err := repo.AllocateAvailable(dbc, tenant.ID, heat.ID, 30, 5); err != nil {
		t.Fatalf("AllocateAvailable: %v", err)
	}

	ok, err := repo.ReleaseAvailable(dbc, tenant.ID, heat.ID, 30, 5)
	if err != nil {
		t.Fatalf("ReleaseAvailable: %v", err)
	}
	if !ok {
		t.Fatal("release back to totals must succeed")
	}

	ok, err = repo.ReleaseAvailable(dbc, tenant.ID, heat.ID, 1, 0)
	if err != nil {
		t.Fatalf("ReleaseAvailable: %v", err)
	}
	if ok {
		t.Fatal("release beyond totals must report false")
	}
}

func TestGetByIDIncludingDeleted(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewHeatRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	tenant := testutil.SeedTenant(t, tx)
	item := testutil.SeedItem(t, tx, tenant.ID)
	raw := testutil.SeedRawMaterial(t, tx, tenant.ID, item.ID)
	heat := testutil.SeedHeat(t, tx, tenant.ID, raw.ID, 100, 20)

	if err := tx.Delete(&types.RawMaterialHeat{}, "id = ?", heat.ID).Error; err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	got, err := repo.GetByID(dbc, tenant.ID, heat.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Fatal("live read must not see a retired heat")
	}

	got, err = repo.GetByIDIncludingDeleted(dbc, tenant.ID, heat.ID)
	if err != nil {
		t.Fatalf("GetByIDIncludingDeleted: %v", err)
	}
	if got == nil || !got.DeletedAt.Valid {
		t.Fatal("audit read must see the retired heat with its deletion time")
	}
}

func TestGetByItemIDSkipsRetiredRawMaterial(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewHeatRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	tenant := testutil.SeedTenant(t, tx)
	item := testutil.SeedItem(t, tx, tenant.ID)
	liveRaw := testutil.SeedRawMaterial(t, tx, tenant.ID, item.ID)
	liveHeat := testutil.SeedHeat(t, tx, tenant.ID, liveRaw.ID, 100, 20)
	deadRaw := testutil.SeedRawMaterial(t, tx, tenant.ID, item.ID)
	testutil.SeedHeat(t, tx, tenant.ID, deadRaw.ID, 50, 10)

	if err := tx.Delete(&types.RawMaterial{}, "id = ?", deadRaw.ID).Error; err != nil {
		t.Fatalf("soft delete raw material: %v", err)
	}

	heats, err := repo.GetByItemID(dbc, tenant.ID, item.ID)
	if err != nil {
		t.Fatalf("GetByItemID: %v", err)
	}
	if len(heats) != 1 || heats[0].ID != liveHeat.ID {
		t.Fatalf("expected only the heat of the live raw material, got %d heats", len(heats))
	}
}
