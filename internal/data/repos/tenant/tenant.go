package tenant

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/platform/dbctx"
	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
)

type TenantRepo interface {
	Create(dbc dbctx.Context, tenants []*types.Tenant) ([]*types.Tenant, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Tenant, error)
	GetByCode(dbc dbctx.Context, code string) (*types.Tenant, error)
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	// GetByIDsIncludingDeleted is the audit read: soft-deleted tenants stay
	// readable here and nowhere else.
	GetByIDsIncludingDeleted(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Tenant, error)
}

type tenantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTenantRepo(db *gorm.DB, baseLog *logger.Logger) TenantRepo {
	repoLog := baseLog.With("repo", "TenantRepo")
	return &tenantRepo{db: db, log: repoLog}
}

func (r *tenantRepo) Create(dbc dbctx.Context, tenants []*types.Tenant) ([]*types.Tenant, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(tenants) == 0 {
		return []*types.Tenant{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

func (r *tenantRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Tenant, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Tenant
	if len(ids) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *tenantRepo) GetByCode(dbc dbctx.Context, code string) (*types.Tenant, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Tenant
	err := transaction.WithContext(dbc.Ctx).
		Where("code = ?", code).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *tenantRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&types.Tenant{}).Error; err != nil {
		return err
	}
	return nil
}

func (r *tenantRepo) GetByIDsIncludingDeleted(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Tenant, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Tenant
	if len(ids) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Unscoped().
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
