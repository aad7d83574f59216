package production

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/platform/dbctx"
	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
)

type InspectionBatchRepo interface {
	Create(dbc dbctx.Context, batches []*types.InspectionBatch) ([]*types.InspectionBatch, error)
	GetByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*types.InspectionBatch, error)
	GetByMachiningBatchIDs(dbc dbctx.Context, tenantID uuid.UUID, machiningBatchIDs []uuid.UUID) ([]*types.InspectionBatch, error)
	Touch(dbc dbctx.Context, tenantID, batchID uuid.UUID) (bool, error)
	SoftDeleteByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) error
}

type inspectionBatchRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInspectionBatchRepo(db *gorm.DB, baseLog *logger.Logger) InspectionBatchRepo {
	repoLog := baseLog.With("repo", "InspectionBatchRepo")
	return &inspectionBatchRepo{db: db, log: repoLog}
}

func (r *inspectionBatchRepo) Create(dbc dbctx.Context, batches []*types.InspectionBatch) ([]*types.InspectionBatch, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(batches) == 0 {
		return []*types.InspectionBatch{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

func (r *inspectionBatchRepo) GetByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*types.InspectionBatch, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.InspectionBatch
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

func (r *inspectionBatchRepo) GetByMachiningBatchIDs(dbc dbctx.Context, tenantID uuid.UUID, machiningBatchIDs []uuid.UUID) ([]*types.InspectionBatch, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.InspectionBatch
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

func (r *inspectionBatchRepo) Touch(dbc dbctx.Context, tenantID, batchID uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(dbc.Ctx).
		Model(&types.InspectionBatch{}).
		Where("tenant_id = ? AND id = ?", tenantID, batchID).
		Update("updated_at", time.Now())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *inspectionBatchRepo) SoftDeleteByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Delete(&types.InspectionBatch{}).Error; err != nil {
		return err
	}
	return nil
}
