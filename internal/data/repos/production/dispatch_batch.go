package production

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/platform/dbctx"
	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
)

type DispatchBatchRepo interface {
	Create(dbc dbctx.Context, batches []*types.DispatchBatch) ([]*types.DispatchBatch, error)
	GetByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*types.DispatchBatch, error)
	GetByMachiningBatchIDs(dbc dbctx.Context, tenantID uuid.UUID, machiningBatchIDs []uuid.UUID) ([]*types.DispatchBatch, error)
	SoftDeleteByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) error
}

type dispatchBatchRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDispatchBatchRepo(db *gorm.DB, baseLog *logger.Logger) DispatchBatchRepo {
	repoLog := baseLog.With("repo", "DispatchBatchRepo")
	return &dispatchBatchRepo{db: db, log: repoLog}
}

func (r *dispatchBatchRepo) Create(dbc dbctx.Context, batches []*types.DispatchBatch) ([]*types.DispatchBatch, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(batches) == 0 {
		return []*types.DispatchBatch{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

func (r *dispatchBatchRepo) GetByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*types.DispatchBatch, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.DispatchBatch
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

func (r *dispatchBatchRepo) GetByMachiningBatchIDs(dbc dbctx.Context, tenantID uuid.UUID, machiningBatchIDs []uuid.UUID) ([]*types.DispatchBatch, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.DispatchBatch
	if len(machiningBatchIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND machining_batch_id IN ?", tenantID, machiningBatchIDs).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *dispatchBatchRepo) SoftDeleteByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Delete(&types.DispatchBatch{}).Error; err != nil {
		return err
	}
	return nil
}
