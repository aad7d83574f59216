package material

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/platform/dbctx"
	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
)

type RawMaterialRepo interface {
	Create(dbc dbctx.Context, lots []*types.RawMaterial) ([]*types.RawMaterial, error)
	GetByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*types.RawMaterial, error)
	GetByItemIDs(dbc dbctx.Context, tenantID uuid.UUID, itemIDs []uuid.UUID) ([]*types.RawMaterial, error)
}

type rawMaterialRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRawMaterialRepo(db *gorm.DB, baseLog *logger.Logger) RawMaterialRepo {
	repoLog := baseLog.With("repo", "RawMaterialRepo")
	return &rawMaterialRepo{db: db, log: repoLog}
}

func (r *rawMaterialRepo) Create(dbc dbctx.Context, lots []*types.RawMaterial) ([]*types.RawMaterial, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(lots) == 0 {
		return []*types.RawMaterial{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

func (r *rawMaterialRepo) GetByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*types.RawMaterial, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.RawMaterial
	if len(ids) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *rawMaterialRepo) GetByItemIDs(dbc dbctx.Context, tenantID uuid.UUID, itemIDs []uuid.UUID) ([]*types.RawMaterial, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.RawMaterial
	if len(itemIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND item_id IN ?", tenantID, itemIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
