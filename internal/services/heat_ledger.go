package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/steelbound/forgetrace-backend/internal/data/repos"
	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/domain/faults"
	"github.com/steelbound/forgetrace-backend/internal/platform/dbctx"
	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
)

// RegisterHeatInput describes a new metallurgical batch entering the ledger.
type RegisterHeatInput struct {
	RawMaterialID uuid.UUID
	HeatNumber    string
	QuantityKg    float64
	Pieces        int
}

// HeatAvailability is the ledger read model for one heat.
type HeatAvailability struct {
	HeatID              uuid.UUID `json:"heat_id"`
	HeatNumber          string    `json:"heat_number"`
	TotalQuantityKg     float64   `json:"total_quantity_kg"`
	TotalPieces         int       `json:"total_pieces"`
	AvailableQuantityKg float64   `json:"available_quantity_kg"`
	AvailablePieces     int       `json:"available_pieces"`
	Retired             bool      `json:"retired"`
	RetiredAt           time.Time `json:"retired_at,omitempty"`
}

// HeatLedgerService owns the availability counters of raw-material heats.
// Totals are immutable after registration; the available counters only move
// through Allocate and Release, both single conditional updates, so two
// concurrent allocations can never oversubscribe a heat.
type HeatLedgerService interface {
	RegisterHeat(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, input RegisterHeatInput) (*types.RawMaterialHeat, error)
	Allocate(ctx context.Context, tx *gorm.DB, tenantID, heatID uuid.UUID, quantityKg float64, pieces int) (*HeatAvailability, error)
	Release(ctx context.Context, tx *gorm.DB, tenantID, heatID uuid.UUID, quantityKg float64, pieces int) (*HeatAvailability, error)
	AvailableHeatQuantity(ctx context.Context, tenantID, heatID uuid.UUID) (*HeatAvailability, error)
	LookupByNumber(ctx context.Context, tenantID uuid.UUID, heatNumber string) (*types.RawMaterialHeat, error)
	LookupByProduct(ctx context.Context, tenantID, itemID uuid.UUID) ([]*types.RawMaterialHeat, error)
	// AuditLookup also returns retired heats; soft-deleted heats stay
	// readable for audit.
	AuditLookup(ctx context.Context, tenantID, heatID uuid.UUID) (*HeatAvailability, error)
}

type heatLedgerService struct {
	db       *gorm.DB
	log      *logger.Logger
	heatRepo repos.HeatRepo
	rawRepo  repos.RawMaterialRepo
}

func NewHeatLedgerService(
	db *gorm.DB,
	baseLog *logger.Logger,
	heatRepo repos.HeatRepo,
	rawRepo repos.RawMaterialRepo,
) HeatLedgerService {
	return &heatLedgerService{
		db:       db,
		log:      baseLog.With("service", "HeatLedgerService"),
		heatRepo: heatRepo,
		rawRepo:  rawRepo,
	}
}

func (s *heatLedgerService) RegisterHeat(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, input RegisterHeatInput) (*types.RawMaterialHeat, error) {
	const op = "HeatLedger.RegisterHeat"
	if tenantID == uuid.Nil {
		return nil, faults.Validation(op, "missing tenant id")
	}
	if input.HeatNumber == "" {
		return nil, faults.Validation(op, "missing heat number")
	}
	if input.QuantityKg < 0 || input.Pieces < 0 {
		return nil, faults.NegativeQuantity(op, "heat totals must not be negative")
	}

	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	materials, err := s.rawRepo.GetByIDs(dbc, tenantID, []uuid.UUID{input.RawMaterialID})
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	if len(materials) == 0 {
		return nil, faults.NotFound(op, "raw material")
	}

	if existing, err := s.heatRepo.GetByNumber(dbc, tenantID, input.HeatNumber); err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	} else if existing != nil {
		return nil, faults.New(faults.CodeConflict, "", op, "heat number already registered")
	}

	heat := &types.RawMaterialHeat{
		TenantID:            tenantID,
		RawMaterialID:       input.RawMaterialID,
		HeatNumber:          input.HeatNumber,
		TotalQuantityKg:     input.QuantityKg,
		TotalPieces:         input.Pieces,
		AvailableQuantityKg: input.QuantityKg,
		AvailablePieces:     input.Pieces,
	}
	if _, err := s.heatRepo.Create(dbc, []*types.RawMaterialHeat{heat}); err != nil {
		s.log.Error("Failed to register heat", "error", err, "heat_number", input.HeatNumber)
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	return heat, nil
}

func (s *heatLedgerService) Allocate(ctx context.Context, tx *gorm.DB, tenantID, heatID uuid.UUID, quantityKg float64, pieces int) (*HeatAvailability, error) {
	const op = "HeatLedger.Allocate"
	if quantityKg < 0 || pieces < 0 {
		return nil, faults.NegativeQuantity(op, "allocation must not be negative")
	}
	if quantityKg == 0 && pieces == 0 {
		return nil, faults.Validation(op, "empty allocation")
	}

	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	ok, err := s.heatRepo.AllocateAvailable(dbc, tenantID, heatID, quantityKg, pieces)
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	if !ok {
		heat, err := s.heatRepo.GetByID(dbc, tenantID, heatID)
		if err != nil {
			return nil, faults.Wrap(faults.CodeInternal, op, err)
		}
		if heat == nil {
			return nil, faults.NotFound(op, "heat")
		}
		return nil, faults.InsufficientHeatQuantity(op)
	}

	heat, err := s.heatRepo.GetByID(dbc, tenantID, heatID)
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	if heat == nil {
		return nil, faults.NotFound(op, "heat")
	}
	return availabilityOf(heat), nil
}

func (s *heatLedgerService) Release(ctx context.Context, tx *gorm.DB, tenantID, heatID uuid.UUID, quantityKg float64, pieces int) (*HeatAvailability, error) {
	const op = "HeatLedger.Release"
	if quantityKg < 0 || pieces < 0 {
		return nil, faults.NegativeQuantity(op, "release must not be negative")
	}
	if quantityKg == 0 && pieces == 0 {
		return nil, faults.Validation(op, "empty release")
	}

	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	ok, err := s.heatRepo.ReleaseAvailable(dbc, tenantID, heatID, quantityKg, pieces)
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	if !ok {
		heat, err := s.heatRepo.GetByID(dbc, tenantID, heatID)
		if err != nil {
			return nil, faults.Wrap(faults.CodeInternal, op, err)
		}
		if heat == nil {
			return nil, faults.NotFound(op, "heat")
		}
		return nil, faults.HeatOverRelease(op)
	}

	heat, err := s.heatRepo.GetByID(dbc, tenantID, heatID)
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	if heat == nil {
		return nil, faults.NotFound(op, "heat")
	}
	return availabilityOf(heat), nil
}

func (s *heatLedgerService) AvailableHeatQuantity(ctx context.Context, tenantID, heatID uuid.UUID) (*HeatAvailability, error) {
	const op = "HeatLedger.AvailableHeatQuantity"
	heat, err := s.heatRepo.GetByID(dbctx.Context{Ctx: ctx}, tenantID, heatID)
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	if heat == nil {
		return nil, faults.NotFound(op, "heat")
	}
	return availabilityOf(heat), nil
}

func (s *heatLedgerService) LookupByNumber(ctx context.Context, tenantID uuid.UUID, heatNumber string) (*types.RawMaterialHeat, error) {
	const op = "HeatLedger.LookupByNumber"
	if heatNumber == "" {
		return nil, faults.Validation(op, "missing heat number")
	}
	heat, err := s.heatRepo.GetByNumber(dbctx.Context{Ctx: ctx}, tenantID, heatNumber)
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	if heat == nil {
		return nil, faults.NotFound(op, "heat")
	}
	return heat, nil
}

func (s *heatLedgerService) LookupByProduct(ctx context.Context, tenantID, itemID uuid.UUID) ([]*types.RawMaterialHeat, error) {
	const op = "HeatLedger.LookupByProduct"
	heats, err := s.heatRepo.GetByItemID(dbctx.Context{Ctx: ctx}, tenantID, itemID)
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	return heats, nil
}

func (s *heatLedgerService) AuditLookup(ctx context.Context, tenantID, heatID uuid.UUID) (*HeatAvailability, error) {
	const op = "HeatLedger.AuditLookup"
	heat, err := s.heatRepo.GetByIDIncludingDeleted(dbctx.Context{Ctx: ctx}, tenantID, heatID)
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	if heat == nil {
		return nil, faults.NotFound(op, "heat")
	}
	return availabilityOf(heat), nil
}

func availabilityOf(heat *types.RawMaterialHeat) *HeatAvailability {
	out := &HeatAvailability{
		HeatID:              heat.ID,
		HeatNumber:          heat.HeatNumber,
		TotalQuantityKg:     heat.TotalQuantityKg,
		TotalPieces:         heat.TotalPieces,
		AvailableQuantityKg: heat.AvailableQuantityKg,
		AvailablePieces:     heat.AvailablePieces,
	}
	if heat.DeletedAt.Valid {
		out.Retired = true
		out.RetiredAt = heat.DeletedAt.Time
	}
	return out
}
