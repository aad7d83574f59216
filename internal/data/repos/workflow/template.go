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

type TemplateRepo interface {
	Create(dbc dbctx.Context, templates []*types.WorkflowTemplate) ([]*types.WorkflowTemplate, error)
	GetByID(dbc dbctx.Context, tenantID, templateID uuid.UUID) (*types.WorkflowTemplate, error)
	GetDefault(dbc dbctx.Context, tenantID uuid.UUID) (*types.WorkflowTemplate, error)
	GetActive(dbc dbctx.Context, tenantID uuid.UUID) ([]*types.WorkflowTemplate, error)
	// SetDefault atomically clears the tenant's previous default.
	SetDefault(dbc dbctx.Context, tenantID, templateID uuid.UUID) (bool, error)
	SetActive(dbc dbctx.Context, tenantID, templateID uuid.UUID, active bool) (bool, error)
	CountLiveWorkflows(dbc dbctx.Context, templateID uuid.UUID) (int64, error)
}

type templateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTemplateRepo(db *gorm.DB, baseLog *logger.Logger) TemplateRepo {
	repoLog := baseLog.With("repo", "TemplateRepo")
	return &templateRepo{db: db, log: repoLog}
}

func (r *templateRepo) Create(dbc dbctx.Context, templates []*types.WorkflowTemplate) ([]*types.WorkflowTemplate, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(templates) == 0 {
		return []*types.WorkflowTemplate{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *templateRepo) GetByID(dbc dbctx.Context, tenantID, templateID uuid.UUID) (*types.WorkflowTemplate, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.WorkflowTemplate
	err := transaction.WithContext(dbc.Ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		Where("tenant_id = ? AND id = ?", tenantID, templateID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *templateRepo) GetDefault(dbc dbctx.Context, tenantID uuid.UUID) (*types.WorkflowTemplate, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.WorkflowTemplate
	err := transaction.WithContext(dbc.Ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		Where("tenant_id = ? AND is_default = ? AND active = ?", tenantID, true, true).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *templateRepo) GetActive(dbc dbctx.Context, tenantID uuid.UUID) ([]*types.WorkflowTemplate, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.WorkflowTemplate
	if err := transaction.WithContext(dbc.Ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		Where("tenant_id = ? AND active = ?", tenantID, true).
		Order("name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *templateRepo) SetDefault(dbc dbctx.Context, tenantID, templateID uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var updated bool
	err := transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		if err := txx.Model(&types.WorkflowTemplate{}).
			Where("tenant_id = ? AND is_default = ?", tenantID, true).
			Updates(map[string]interface{}{"is_default": false, "updated_at": time.Now()}).Error; err != nil {
			return err
		}
		res := txx.Model(&types.WorkflowTemplate{}).
			Where("tenant_id = ? AND id = ? AND active = ?", tenantID, templateID, true).
			Updates(map[string]interface{}{"is_default": true, "updated_at": time.Now()})
		if res.Error != nil {
			return res.Error
		}
		updated = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return updated, nil
}

func (r *templateRepo) SetActive(dbc dbctx.Context, tenantID, templateID uuid.UUID, active bool) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	updates := map[string]interface{}{"active": active, "updated_at": time.Now()}
	if !active {
		// A retired template can no longer be the tenant default.
		updates["is_default"] = false
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.WorkflowTemplate{}).
		Where("tenant_id = ? AND id = ?", tenantID, templateID).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *templateRepo) CountLiveWorkflows(dbc dbctx.Context, templateID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.ItemWorkflow{}).
		Where("template_id = ?", templateID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
