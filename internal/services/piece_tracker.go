package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/steelbound/forgetrace-backend/internal/data/repos"
	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/domain/faults"
	"github.com/steelbound/forgetrace-backend/internal/platform/dbctx"
	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
)

type ForgeOutputInput struct {
	ForgeID                uuid.UUID
	ExpectedPieces         int
	ActualPieces           int
	RejectedPieces         int
	OtherForgeRejectionsKg float64
}

// PieceTrackerService conserves piece counts from forge output downstream.
// Availability of any upstream output is derived on every read as
// actual - rejected - sum(open claims); it is never cached, so a crashed or
// rolled-back consumer can never strand a stale counter.
type PieceTrackerService interface {
	RecordForgeOutput(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, input ForgeOutputInput) (*types.ProcessedItem, error)
	AvailablePieces(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, source types.SourceRef) (int, error)
	// Consume claims pieces from an upstream output. The claim insert runs
	// under the source's row lock so concurrent consumers serialize.
	Consume(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, source types.SourceRef, pieces int, consumerKind string, consumerID uuid.UUID) (*types.PieceClaim, error)
	// Release reopens a claim's pieces. Releasing an already-released claim
	// is a no-op.
	Release(ctx context.Context, tx *gorm.DB, tenantID, claimID uuid.UUID) error
}

type pieceTrackerService struct {
	db            *gorm.DB
	log           *logger.Logger
	forgeRepo     repos.ForgeRepo
	processedRepo repos.ProcessedItemRepo
	claimRepo     repos.PieceClaimRepo
	htBatchRepo   repos.HeatTreatmentBatchRepo
	machBatchRepo repos.MachiningBatchRepo
	inspBatchRepo repos.InspectionBatchRepo
}

func NewPieceTrackerService(
	db *gorm.DB,
	baseLog *logger.Logger,
	forgeRepo repos.ForgeRepo,
	processedRepo repos.ProcessedItemRepo,
	claimRepo repos.PieceClaimRepo,
	htBatchRepo repos.HeatTreatmentBatchRepo,
	machBatchRepo repos.MachiningBatchRepo,
	inspBatchRepo repos.InspectionBatchRepo,
) PieceTrackerService {
	return &pieceTrackerService{
		db:            db,
		log:           baseLog.With("service", "PieceTrackerService"),
		forgeRepo:     forgeRepo,
		processedRepo: processedRepo,
		claimRepo:     claimRepo,
		htBatchRepo:   htBatchRepo,
		machBatchRepo: machBatchRepo,
		inspBatchRepo: inspBatchRepo,
	}
}

func (s *pieceTrackerService) RecordForgeOutput(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, input ForgeOutputInput) (*types.ProcessedItem, error) {
	const op = "PieceTracker.RecordForgeOutput"
	if input.ExpectedPieces < 0 || input.ActualPieces < 0 || input.RejectedPieces < 0 || input.OtherForgeRejectionsKg < 0 {
		return nil, faults.NegativeQuantity(op, "forge output counts must not be negative")
	}
	if input.RejectedPieces > input.ActualPieces {
		return nil, faults.NegativeQuantity(op, "rejected pieces exceed actual pieces")
	}

	var processed *types.ProcessedItem
	run := func(txx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: txx}

		forge, err := s.forgeRepo.GetByID(dbc, tenantID, input.ForgeID)
		if err != nil {
			return faults.Wrap(faults.CodeInternal, op, err)
		}
		if forge == nil {
			return faults.NotFound(op, "forge")
		}

		existing, err := s.processedRepo.GetByForgeIDs(dbc, tenantID, []uuid.UUID{input.ForgeID})
		if err != nil {
			return faults.Wrap(faults.CodeInternal, op, err)
		}
		if len(existing) > 0 {
			return faults.New(faults.CodeConflict, "", op, "forge output already recorded")
		}

		processed = &types.ProcessedItem{
			TenantID:                 tenantID,
			ForgeID:                  forge.ID,
			ItemID:                   forge.ItemID,
			ExpectedForgePiecesCount: input.ExpectedPieces,
			ActualForgePiecesCount:   input.ActualPieces,
			RejectedForgePiecesCount: input.RejectedPieces,
			OtherForgeRejectionsKg:   input.OtherForgeRejectionsKg,
		}
		if _, err := s.processedRepo.Create(dbc, []*types.ProcessedItem{processed}); err != nil {
			return faults.Wrap(faults.CodeInternal, op, err)
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
	return processed, nil
}

func (s *pieceTrackerService) AvailablePieces(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, source types.SourceRef) (int, error) {
	const op = "PieceTracker.AvailablePieces"
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	return s.availableOf(dbc, op, tenantID, source)
}

func (s *pieceTrackerService) Consume(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, source types.SourceRef, pieces int, consumerKind string, consumerID uuid.UUID) (*types.PieceClaim, error) {
	const op = "PieceTracker.Consume"
	if pieces < 0 {
		return nil, faults.NegativeQuantity(op, "consumed pieces must not be negative")
	}
	if pieces == 0 {
		return nil, faults.Validation(op, "empty consumption")
	}
	if !source.Kind.Valid() {
		return nil, faults.Validation(op, "unknown source kind "+string(source.Kind))
	}

	var claim *types.PieceClaim
	run := func(txx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: txx}

		// Lock the source row so the availability check and claim insert are
		// atomic against concurrent consumers of the same output.
		locked, err := s.touchSource(dbc, tenantID, source)
		if err != nil {
			return faults.Wrap(faults.CodeInternal, op, err)
		}
		if !locked {
			return faults.NotFound(op, "claim source")
		}

		available, err := s.availableOf(dbc, op, tenantID, source)
		if err != nil {
			return err
		}
		if pieces > available {
			return faults.InsufficientAvailablePieces(op)
		}

		claim = &types.PieceClaim{
			TenantID:     tenantID,
			SourceKind:   source.Kind,
			SourceID:     source.ID,
			ConsumerKind: consumerKind,
			ConsumerID:   consumerID,
			Pieces:       pieces,
			Status:       "CLAIMED",
		}
		if _, err := s.claimRepo.Create(dbc, []*types.PieceClaim{claim}); err != nil {
			return faults.Wrap(faults.CodeInternal, op, err)
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
	return claim, nil
}

func (s *pieceTrackerService) Release(ctx context.Context, tx *gorm.DB, tenantID, claimID uuid.UUID) error {
	const op = "PieceTracker.Release"
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	released, err := s.claimRepo.Release(dbc, tenantID, claimID)
	if err != nil {
		return faults.Wrap(faults.CodeInternal, op, err)
	}
	if released {
		return nil
	}

	claim, err := s.claimRepo.GetByID(dbc, tenantID, claimID)
	if err != nil {
		return faults.Wrap(faults.CodeInternal, op, err)
	}
	if claim == nil {
		return faults.NotFound(op, "piece claim")
	}
	// Already released; idempotent.
	return nil
}

// availableOf derives the claimable pieces of an upstream output.
func (s *pieceTrackerService) availableOf(dbc dbctx.Context, op string, tenantID uuid.UUID, source types.SourceRef) (int, error) {
	good, found, err := s.goodPiecesOf(dbc, tenantID, source)
	if err != nil {
		return 0, faults.Wrap(faults.CodeInternal, op, err)
	}
	if !found {
		return 0, faults.NotFound(op, "claim source")
	}

	claimed, err := s.claimRepo.SumOpenPieces(dbc, tenantID, source)
	if err != nil {
		return 0, faults.Wrap(faults.CodeInternal, op, err)
	}
	available := good - claimed
	if available < 0 {
		available = 0
	}
	return available, nil
}

func (s *pieceTrackerService) goodPiecesOf(dbc dbctx.Context, tenantID uuid.UUID, source types.SourceRef) (int, bool, error) {
	switch source.Kind {
	case types.SourceProcessedItem:
		p, err := s.processedRepo.GetByID(dbc, tenantID, source.ID)
		if err != nil || p == nil {
			return 0, false, err
		}
		return p.GoodPieces(), true, nil
	case types.SourceHeatTreatmentBatch:
		batches, err := s.htBatchRepo.GetByIDs(dbc, tenantID, []uuid.UUID{source.ID})
		if err != nil || len(batches) == 0 {
			return 0, false, err
		}
		return batches[0].ActualPiecesCount - batches[0].RejectedPiecesCount, true, nil
	case types.SourceMachiningBatch:
		batches, err := s.machBatchRepo.GetByIDs(dbc, tenantID, []uuid.UUID{source.ID})
		if err != nil || len(batches) == 0 {
			return 0, false, err
		}
		return batches[0].ActualPiecesCount - batches[0].RejectedPiecesCount, true, nil
	case types.SourceInspectionBatch:
		batches, err := s.inspBatchRepo.GetByIDs(dbc, tenantID, []uuid.UUID{source.ID})
		if err != nil || len(batches) == 0 {
			return 0, false, err
		}
		return batches[0].ActualPiecesCount - batches[0].RejectedPiecesCount, true, nil
	}
	return 0, false, nil
}

func (s *pieceTrackerService) touchSource(dbc dbctx.Context, tenantID uuid.UUID, source types.SourceRef) (bool, error) {
	switch source.Kind {
	case types.SourceProcessedItem:
		return s.processedRepo.Touch(dbc, tenantID, source.ID)
	case types.SourceHeatTreatmentBatch:
		return s.htBatchRepo.Touch(dbc, tenantID, source.ID)
	case types.SourceMachiningBatch:
		return s.machBatchRepo.Touch(dbc, tenantID, source.ID)
	case types.SourceInspectionBatch:
		return s.inspBatchRepo.Touch(dbc, tenantID, source.ID)
	}
	return false, nil
}
