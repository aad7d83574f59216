package material

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/platform/dbctx"
	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
)

type HeatRepo interface {
	Create(dbc dbctx.Context, heats []*types.RawMaterialHeat) ([]*types.RawMaterialHeat, error)
	GetByID(dbc dbctx.Context, tenantID, heatID uuid.UUID) (*types.RawMaterialHeat, error)
	GetByNumber(dbc dbctx.Context, tenantID uuid.UUID, heatNumber string) (*types.RawMaterialHeat, error)
	GetByItemID(dbc dbctx.Context, tenantID, itemID uuid.UUID) ([]*types.RawMaterialHeat, error)
	GetByIDIncludingDeleted(dbc dbctx.Context, tenantID, heatID uuid.UUID) (*types.RawMaterialHeat, error)

	// AllocateAvailable decrements the available counters iff both cover the
	// request, as a single conditional update. Returns false when the row was
	// not updated (missing heat or insufficient availability).
	AllocateAvailable(dbc dbctx.Context, tenantID, heatID uuid.UUID, quantityKg float64, pieces int) (bool, error)

	// ReleaseAvailable increments the available counters iff the result stays
	// within the heat's original totals.
	ReleaseAvailable(dbc dbctx.Context, tenantID, heatID uuid.UUID, quantityKg float64, pieces int) (bool, error)
}

type heatRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHeatRepo(db *gorm.DB, baseLog *logger.Logger) HeatRepo {
	repoLog := baseLog.With("repo", "HeatRepo")
	return &heatRepo{db: db, log: repoLog}
}

func (r *heatRepo) Create(dbc dbctx.Context, heats []*types.RawMaterialHeat) ([]*types.RawMaterialHeat, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(heats) == 0 {
		return []*types.RawMaterialHeat{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&heats).Error; err != nil {
		return nil, err
	}
	return heats, nil
}

func (r *heatRepo) GetByID(dbc dbctx.Context, tenantID, heatID uuid.UUID) (*types.RawMaterialHeat, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.RawMaterialHeat
	err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND id = ?", tenantID, heatID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *heatRepo) GetByNumber(dbc dbctx.Context, tenantID uuid.UUID, heatNumber string) (*types.RawMaterialHeat, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.RawMaterialHeat
	err := transaction.WithContext(dbc.Ctx).
		Where("tenant_id = ? AND heat_number = ?", tenantID, heatNumber).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *heatRepo) GetByItemID(dbc dbctx.Context, tenantID, itemID uuid.UUID) ([]*types.RawMaterialHeat, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	// The raw material join must re-apply the live-rows filter: GORM only
	// scopes the soft delete on the primary table.
	var results []*types.RawMaterialHeat
	if err := transaction.WithContext(dbc.Ctx).
		Joins("JOIN raw_material ON raw_material.id = raw_material_heat.raw_material_id AND raw_material.deleted_at IS NULL").
		Where("raw_material_heat.tenant_id = ? AND raw_material.item_id = ?", tenantID, itemID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *heatRepo) GetByIDIncludingDeleted(dbc dbctx.Context, tenantID, heatID uuid.UUID) (*types.RawMaterialHeat, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.RawMaterialHeat
	err := transaction.WithContext(dbc.Ctx).
		Unscoped().
		Where("tenant_id = ? AND id = ?", tenantID, heatID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *heatRepo) AllocateAvailable(dbc dbctx.Context, tenantID, heatID uuid.UUID, quantityKg float64, pieces int) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(dbc.Ctx).
		Model(&types.RawMaterialHeat{}).
		Where("tenant_id = ? AND id = ?", tenantID, heatID).
		Where("available_quantity_kg >= ? AND available_pieces >= ?", quantityKg, pieces).
		Updates(map[string]interface{}{
			"available_quantity_kg": gorm.Expr("available_quantity_kg - ?", quantityKg),
			"available_pieces":      gorm.Expr("available_pieces - ?", pieces),
			"updated_at":            time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *heatRepo) ReleaseAvailable(dbc dbctx.Context, tenantID, heatID uuid.UUID, quantityKg float64, pieces int) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(dbc.Ctx).
		Model(&types.RawMaterialHeat{}).
		Where("tenant_id = ? AND id = ?", tenantID, heatID).
		Where("available_quantity_kg + ? <= total_quantity_kg AND available_pieces + ? <= total_pieces", quantityKg, pieces).
		Updates(map[string]interface{}{
			"available_quantity_kg": gorm.Expr("available_quantity_kg + ?", quantityKg),
			"available_pieces":      gorm.Expr("available_pieces + ?", pieces),
			"updated_at":            time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
