package production

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/platform/dbctx"
	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
)

type PieceClaimRepo interface {
	Create(dbc dbctx.Context, claims []*types.PieceClaim) ([]*types.PieceClaim, error)
	GetByID(dbc dbctx.Context, tenantID, claimID uuid.UUID) (*types.PieceClaim, error)
	GetOpenBySource(dbc dbctx.Context, tenantID uuid.UUID, source types.SourceRef) ([]*types.PieceClaim, error)
	// SumOpenPieces totals the CLAIMED pieces against an upstream output; the
	// availability derivation subtracts this on every read.
	SumOpenPieces(dbc dbctx.Context, tenantID uuid.UUID, source types.SourceRef) (int, error)
	// Release flips a claim to RELEASED. Returns false when the claim was
	// already released (callers treat that as idempotent success).
	Release(dbc dbctx.Context, tenantID, claimID uuid.UUID) (bool, error)
}

type pieceClaimRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPieceClaimRepo(db *gorm.DB, baseLog *logger.Logger) PieceClaimRepo {
	repoLog := baseLog.With("repo", "PieceClaimRepo")
	return &pieceClaimRepo{db: db, log: repoLog}
}

func (r *pieceClaimRepo) Create(dbc dbctx.Context, claims []*types.PieceClaim) ([]*types.PieceClaim, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(claims) == 0 {
		return []*types.PieceClaim{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&claims).Error; err != nil {
		return nil, err
	}
	return claims, nil
}

func (r *pieceClaimRepo) GetByID(dbc dbctx.Context, tenantID, claimID uuid.UUID) (*types.PieceClaim, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.PieceClaim
	err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND id = ?", tenantID, claimID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *pieceClaimRepo) GetOpenBySource(dbc dbctx.Context, tenantID uuid.UUID, source types.SourceRef) ([]*types.PieceClaim, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.PieceClaim
	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND source_kind = ? AND source_id = ? AND status = ?",
			tenantID, source.Kind, source.ID, "CLAIMED").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *pieceClaimRepo) SumOpenPieces(dbc dbctx.Context, tenantID uuid.UUID, source types.SourceRef) (int, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var total *int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.PieceClaim{}).
		Select("SUM(pieces)").
		Where("tenant_id = ? AND source_kind = ? AND source_id = ? AND status = ?",
			tenantID, source.Kind, source.ID, "CLAIMED").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return int(*total), nil
}

func (r *pieceClaimRepo) Release(dbc dbctx.Context, tenantID, claimID uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(dbc.Ctx).
		Model(&types.PieceClaim{}).
		Where("tenant_id = ? AND id = ? AND status = ?", tenantID, claimID, "CLAIMED").
		Updates(map[string]interface{}{
			"status":     "RELEASED",
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
