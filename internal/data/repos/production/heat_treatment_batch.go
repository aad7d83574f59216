package production

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/platform/dbctx"
	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
)

type HeatTreatmentBatchRepo interface {
	Create(dbc dbctx.Context, batches []*types.HeatTreatmentBatch) ([]*types.HeatTreatmentBatch, error)
	GetByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*types.HeatTreatmentBatch, error)
	GetByProcessedItemIDs(dbc dbctx.Context, tenantID uuid.UUID, processedItemIDs []uuid.UUID) ([]*types.HeatTreatmentBatch, error)
	Touch(dbc dbctx.Context, tenantID, batchID uuid.UUID) (bool, error)
	SoftDeleteByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) error
}

type heatTreatmentBatchRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHeatTreatmentBatchRepo(db *gorm.DB, baseLog *logger.Logger) HeatTreatmentBatchRepo {
	repoLog := baseLog.With("repo", "HeatTreatmentBatchRepo")
	return &heatTreatmentBatchRepo{db: db, log: repoLog}
}

func (r *heatTreatmentBatchRepo) Create(dbc dbctx.Context, batches []*types.HeatTreatmentBatch) ([]*types.HeatTreatmentBatch, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(batches) == 0 {
		return []*types.HeatTreatmentBatch{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

func (r *heatTreatmentBatchRepo) GetByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*types.HeatTreatmentBatch, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.HeatTreatmentBatch
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

func (r *heatTreatmentBatchRepo) GetByProcessedItemIDs(dbc dbctx.Context, tenantID uuid.UUID, processedItemIDs []uuid.UUID) ([]*types.HeatTreatmentBatch, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.HeatTreatmentBatch
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

func (r *heatTreatmentBatchRepo) Touch(dbc dbctx.Context, tenantID, batchID uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(dbc.Ctx).
		Model(&types.HeatTreatmentBatch{}).
		Where("tenant_id = ? AND id = ?", tenantID, batchID).
		Update("updated_at", time.Now())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *heatTreatmentBatchRepo) SoftDeleteByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Delete(&types.HeatTreatmentBatch{}).Error; err != nil {
		return err
	}
	return nil
}
