package production

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/steelbound/forgetrace-backend/internal/data/repos/testutil"
	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/platform/dbctx"
)

func TestSumOpenPiecesCountsOnlyOpenClaims(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewPieceClaimRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	tenant := testutil.SeedTenant(t, tx)
	source := types.SourceRef{Kind: types.SourceProcessedItem, ID: uuid.New()}

	total, err := repo.SumOpenPieces(dbc, tenant.ID, source)
	if err != nil {
		t.Fatalf("SumOpenPieces: %v", err)
	}
	if total != 0 {
		t.Fatalf("no claims must sum to zero, got %d", total)
	}

	claims := []*types.PieceClaim{
		{TenantID: tenant.ID, SourceKind: source.Kind, SourceID: source.ID, ConsumerKind: "HEAT_TREATMENT_BATCH", ConsumerID: uuid.New(), Pieces: 30, Status: "CLAIMED"},
		{TenantID: tenant.ID, SourceKind: source.Kind, SourceID: source.ID, ConsumerKind: "HEAT_TREATMENT_BATCH", ConsumerID: uuid.New(), Pieces: 20, Status: "CLAIMED"},
		{TenantID: tenant.ID, SourceKind: source.Kind, SourceID: source.ID, ConsumerKind: "HEAT_TREATMENT_BATCH", ConsumerID: uuid.New(), Pieces: 99, Status: "RELEASED"},
	}
	if _, err := repo.Create(dbc, claims); err != nil {
		t.Fatalf("Create: %v", err)
	}

	total, err = repo.SumOpenPieces(dbc, tenant.ID, source)
	if err != nil {
		t.Fatalf("SumOpenPieces: %v", err)
	}
	if total != 50 {
		t.Fatalf("released claims must not count, expected 50 got %d", total)
	}

	open, err := repo.GetOpenBySource(dbc, tenant.ID, source)
	if err != nil {
		t.Fatalf("GetOpenBySource: %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("expected 2 open claims, got %d", len(open))
	}
}

func TestReleaseFlipsOnlyOpenClaims(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewPieceClaimRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	tenant := testutil.SeedTenant(t, tx)
	claim := &types.PieceClaim{
		TenantID:     tenant.ID,
		SourceKind:   types.SourceProcessedItem,
		SourceID:     uuid.New(),
		ConsumerKind: "MACHINING_BATCH",
		ConsumerID:   uuid.New(),
		Pieces:       10,
		Status:       "CLAIMED",
	}
	if _, err := repo.Create(dbc, []*types.PieceClaim{claim}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	released, err := repo.Release(dbc, tenant.ID, claim.ID)
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if !released {
		t.Fatal("releasing an open claim must report true")
	}

	released, err = repo.Release(dbc, tenant.ID, claim.ID)
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if released {
		t.Fatal("releasing an already-released claim must report false")
	}

	got, err := repo.GetByID(dbc, tenant.ID, claim.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != "RELEASED" {
		t.Fatalf("expected RELEASED, got %s", got.Status)
	}
}
