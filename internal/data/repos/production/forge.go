package production

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/platform/dbctx"
	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
)

type ForgeRepo interface {
	Create(dbc dbctx.Context, forges []*types.Forge) ([]*types.Forge, error)
	GetByID(dbc dbctx.Context, tenantID, forgeID uuid.UUID) (*types.Forge, error)
	GetByHeatIDs(dbc dbctx.Context, tenantID uuid.UUID, heatIDs []uuid.UUID) ([]*types.Forge, error)
	GetByWorkflowID(dbc dbctx.Context, tenantID, workflowID uuid.UUID) ([]*types.Forge, error)
	SoftDeleteByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) error
}

type forgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewForgeRepo(db *gorm.DB, baseLog *logger.Logger) ForgeRepo {
	repoLog := baseLog.With("repo", "ForgeRepo")
	return &forgeRepo{db: db, log: repoLog}
}

func (r *forgeRepo) Create(dbc dbctx.Context, forges []*types.Forge) ([]*types.Forge, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(forges) == 0 {
		return []*types.Forge{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&forges).Error; err != nil {
		return nil, err
	}
	return forges, nil
}

func (r *forgeRepo) GetByID(dbc dbctx.Context, tenantID, forgeID uuid.UUID) (*types.Forge, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Forge
	err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND id = ?", tenantID, forgeID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *forgeRepo) GetByHeatIDs(dbc dbctx.Context, tenantID uuid.UUID, heatIDs []uuid.UUID) ([]*types.Forge, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Forge
	if len(heatIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND heat_id IN ?", tenantID, heatIDs).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *forgeRepo) GetByWorkflowID(dbc dbctx.Context, tenantID, workflowID uuid.UUID) ([]*types.Forge, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Forge
	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND workflow_id = ?", tenantID, workflowID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *forgeRepo) SoftDeleteByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Delete(&types.Forge{}).Error; err != nil {
		return err
	}
	return nil
}
