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

type ProcessedItemRepo interface {
	Create(dbc dbctx.Context, items []*types.ProcessedItem) ([]*types.ProcessedItem, error)
	GetByID(dbc dbctx.Context, tenantID, processedItemID uuid.UUID) (*types.ProcessedItem, error)
	GetByForgeIDs(dbc dbctx.Context, tenantID uuid.UUID, forgeIDs []uuid.UUID) ([]*types.ProcessedItem, error)
	SoftDeleteByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) error

	// Touch rewrites updated_at inside the current transaction, taking the
	// processed item's row write-lock so concurrent claim inserts against the
	// same output serialize on it. Returns false if the row does not exist.
	Touch(dbc dbctx.Context, tenantID, processedItemID uuid.UUID) (bool, error)
}

type processedItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProcessedItemRepo(db *gorm.DB, baseLog *logger.Logger) ProcessedItemRepo {
	repoLog := baseLog.With("repo", "ProcessedItemRepo")
	return &processedItemRepo{db: db, log: repoLog}
}

func (r *processedItemRepo) Create(dbc dbctx.Context, items []*types.ProcessedItem) ([]*types.ProcessedItem, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(items) == 0 {
		return []*types.ProcessedItem{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *processedItemRepo) GetByID(dbc dbctx.Context, tenantID, processedItemID uuid.UUID) (*types.ProcessedItem, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.ProcessedItem
	err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND id = ?", tenantID, processedItemID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *processedItemRepo) GetByForgeIDs(dbc dbctx.Context, tenantID uuid.UUID, forgeIDs []uuid.UUID) ([]*types.ProcessedItem, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ProcessedItem
	if len(forgeIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND forge_id IN ?", tenantID, forgeIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *processedItemRepo) SoftDeleteByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Delete(&types.ProcessedItem{}).Error; err != nil {
		return err
	}
	return nil
}

func (r *processedItemRepo) Touch(dbc dbctx.Context, tenantID, processedItemID uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(dbc.Ctx).
		Model(&types.ProcessedItem{}).
		Where("tenant_id = ? AND id = ?", tenantID, processedItemID).
		Update("updated_at", time.Now())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
