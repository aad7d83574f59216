package workflow

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/platform/dbctx"
	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
)

type ItemWorkflowRepo interface {
	Create(dbc dbctx.Context, workflows []*types.ItemWorkflow) ([]*types.ItemWorkflow, error)
	GetByID(dbc dbctx.Context, tenantID, workflowID uuid.UUID) (*types.ItemWorkflow, error)
	GetLiveByIdentity(dbc dbctx.Context, tenantID, itemID uuid.UUID, identifier string) (*types.ItemWorkflow, error)
	GetByItemID(dbc dbctx.Context, tenantID, itemID uuid.UUID) ([]*types.ItemWorkflow, error)
	UpdateFields(dbc dbctx.Context, tenantID, workflowID uuid.UUID, updates map[string]interface{}) error

	// Touch rewrites updated_at on the workflow row inside the current
	// transaction, taking its row write-lock so concurrent step recorders
	// serialize. Returns false if the workflow does not exist.
	Touch(dbc dbctx.Context, tenantID, workflowID uuid.UUID) (bool, error)
}

type itemWorkflowRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewItemWorkflowRepo(db *gorm.DB, baseLog *logger.Logger) ItemWorkflowRepo {
	repoLog := baseLog.With("repo", "ItemWorkflowRepo")
	return &itemWorkflowRepo{db: db, log: repoLog}
}

func (r *itemWorkflowRepo) Create(dbc dbctx.Context, workflows []*types.ItemWorkflow) ([]*types.ItemWorkflow, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(workflows) == 0 {
		return []*types.ItemWorkflow{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&workflows).Error; err != nil {
		return nil, err
	}
	return workflows, nil
}

func (r *itemWorkflowRepo) GetByID(dbc dbctx.Context, tenantID, workflowID uuid.UUID) (*types.ItemWorkflow, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.ItemWorkflow
	err := transaction.WithContext(dbc.Ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		Where("tenant_id = ? AND id = ?", tenantID, workflowID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *itemWorkflowRepo) GetLiveByIdentity(dbc dbctx.Context, tenantID, itemID uuid.UUID, identifier string) (*types.ItemWorkflow, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	// Cancelled workflows free their identity slot; completed ones keep it.
	var result types.ItemWorkflow
	err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND item_id = ? AND workflow_identifier = ? AND status <> ?",
			tenantID, itemID, identifier, types.StatusCancelled).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *itemWorkflowRepo) GetByItemID(dbc dbctx.Context, tenantID, itemID uuid.UUID) ([]*types.ItemWorkflow, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ItemWorkflow
	if err := transaction.WithContext(dbc.Ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		Where("tenant_id = ? AND item_id = ?", tenantID, itemID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *itemWorkflowRepo) UpdateFields(dbc dbctx.Context, tenantID, workflowID uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.ItemWorkflow{}).
		Where("tenant_id = ? AND id = ?", tenantID, workflowID).
		Updates(updates).Error
}

func (r *itemWorkflowRepo) Touch(dbc dbctx.Context, tenantID, workflowID uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(dbc.Ctx).
		Model(&types.ItemWorkflow{}).
		Where("tenant_id = ? AND id = ?", tenantID, workflowID).
		Update("updated_at", time.Now())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
