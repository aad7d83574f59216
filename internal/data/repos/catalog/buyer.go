package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/platform/dbctx"
	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
)

type BuyerRepo interface {
	Create(dbc dbctx.Context, buyers []*types.Buyer) ([]*types.Buyer, error)
	GetByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*types.Buyer, error)
}

type buyerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBuyerRepo(db *gorm.DB, baseLog *logger.Logger) BuyerRepo {
	repoLog := baseLog.With("repo", "BuyerRepo")
	return &buyerRepo{db: db, log: repoLog}
}

func (r *buyerRepo) Create(dbc dbctx.Context, buyers []*types.Buyer) ([]*types.Buyer, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(buyers) == 0 {
		return []*types.Buyer{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&buyers).Error; err != nil {
		return nil, err
	}
	return buyers, nil
}

func (r *buyerRepo) GetByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*types.Buyer, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Buyer
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

type TransporterRepo interface {
	Create(dbc dbctx.Context, transporters []*types.Transporter) ([]*types.Transporter, error)
	GetByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*types.Transporter, error)
}

type transporterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTransporterRepo(db *gorm.DB, baseLog *logger.Logger) TransporterRepo {
	repoLog := baseLog.With("repo", "TransporterRepo")
	return &transporterRepo{db: db, log: repoLog}
}

func (r *transporterRepo) Create(dbc dbctx.Context, transporters []*types.Transporter) ([]*types.Transporter, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(transporters) == 0 {
		return []*types.Transporter{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&transporters).Error; err != nil {
		return nil, err
	}
	return transporters, nil
}

func (r *transporterRepo) GetByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*types.Transporter, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Transporter
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
