package catalog

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/platform/dbctx"
	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
)

type ItemRepo interface {
	Create(dbc dbctx.Context, items []*types.Item) ([]*types.Item, error)
	GetByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*types.Item, error)
	GetByCode(dbc dbctx.Context, tenantID uuid.UUID, code string) (*types.Item, error)
	SoftDeleteByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) error
}

type itemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewItemRepo(db *gorm.DB, baseLog *logger.Logger) ItemRepo {
	repoLog := baseLog.With("repo", "ItemRepo")
	return &itemRepo{db: db, log: repoLog}
}

func (r *itemRepo) Create(dbc dbctx.Context, items []*types.Item) ([]*types.Item, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(items) == 0 {
		return []*types.Item{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *itemRepo) GetByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*types.Item, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Item
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

func (r *itemRepo) GetByCode(dbc dbctx.Context, tenantID uuid.UUID, code string) (*types.Item, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Item
	err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND code = ?", tenantID, code).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *itemRepo) SoftDeleteByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Delete(&types.Item{}).Error; err != nil {
		return err
	}
	return nil
}
