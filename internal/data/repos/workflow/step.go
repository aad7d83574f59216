package workflow

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/platform/dbctx"
	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
)

type StepRepo interface {
	Create(dbc dbctx.Context, steps []*types.ItemWorkflowStep) ([]*types.ItemWorkflowStep, error)
	GetByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*types.ItemWorkflowStep, error)
	GetByWorkflowID(dbc dbctx.Context, tenantID, workflowID uuid.UUID) ([]*types.ItemWorkflowStep, error)
	SoftDeleteByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) error
}

type stepRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStepRepo(db *gorm.DB, baseLog *logger.Logger) StepRepo {
	repoLog := baseLog.With("repo", "StepRepo")
	return &stepRepo{db: db, log: repoLog}
}

func (r *stepRepo) Create(dbc dbctx.Context, steps []*types.ItemWorkflowStep) ([]*types.ItemWorkflowStep, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(steps) == 0 {
		return []*types.ItemWorkflowStep{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&steps).Error; err != nil {
		return nil, err
	}
	return steps, nil
}

func (r *stepRepo) GetByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*types.ItemWorkflowStep, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ItemWorkflowStep
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

func (r *stepRepo) GetByWorkflowID(dbc dbctx.Context, tenantID, workflowID uuid.UUID) ([]*types.ItemWorkflowStep, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ItemWorkflowStep
	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND workflow_id = ?", tenantID, workflowID).
		Order("sequence ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *stepRepo) SoftDeleteByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Delete(&types.ItemWorkflowStep{}).Error; err != nil {
		return err
	}
	return nil
}
