package production

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/platform/dbctx"
	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
)

type MachiningBatchRepo interface {
	Create(dbc dbctx.Context, batches []*types.MachiningBatch) ([]*types.MachiningBatch, error)
	GetByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*types.MachiningBatch, error)
	GetByHeatTreatmentBatchIDs(dbc dbctx.Context, tenantID uuid.UUID, htBatchIDs []uuid.UUID) ([]*types.MachiningBatch, error)
	GetByProcessedItemIDs(dbc dbctx.Context, tenantID uuid.UUID, processedItemIDs []uuid.UUID) ([]*types.MachiningBatch, error)
	Touch(dbc dbctx.Context, tenantID, batchID uuid.UUID) (bool, error)
	SoftDeleteByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) error
}

type machiningBatchRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMachiningBatchRepo(db *gorm.DB, baseLog *logger.Logger) MachiningBatchRepo {
	repoLog := baseLog.With("repo", "MachiningBatchRepo")
	return &machiningBatchRepo{db: db, log: repoLog}
}

func (r *machiningBatchRepo) Create(dbc dbctx.Context, batches []*types.MachiningBatch) ([]*types.MachiningBatch, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(batches) == 0 {
		return []*types.MachiningBatch{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

func (r *machiningBatchRepo) GetByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*types.MachiningBatch, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.MachiningBatch
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

func (r *machiningBatchRepo) GetByHeatTreatmentBatchIDs(dbc dbctx.Context, tenantID uuid.UUID, htBatchIDs []uuid.UUID) ([]*types.MachiningBatch, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.MachiningBatch
	if len(htBatchIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND heat_treatment_batch_id IN ?", tenantID, htBatchIDs).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *machiningBatchRepo) GetByProcessedItemIDs(dbc dbctx.Context, tenantID uuid.UUID, processedItemIDs []uuid.UUID) ([]*types.MachiningBatch, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.MachiningBatch
	if len(processedItemIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND processed_item_id IN ?", tenantID, processedItemIDs).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *machiningBatchRepo) Touch(dbc dbctx.Context, tenantID, batchID uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(dbc.Ctx).
		Model(&types.MachiningBatch{}).
		Where("tenant_id = ? AND id = ?", tenantID, batchID).
		Update("updated_at", time.Now())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *machiningBatchRepo) SoftDeleteByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Delete(&types.MachiningBatch{}).Error; err != nil {
		return err
	}
	return nil
}
