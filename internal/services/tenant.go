package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/steelbound/forgetrace-backend/internal/data/repos"
	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/domain/faults"
	"github.com/steelbound/forgetrace-backend/internal/platform/dbctx"
	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
)

// TenantService manages the isolation boundary itself. Retiring a tenant is a
// soft delete; its code becomes reusable and its rows stay for audit.
type TenantService interface {
	Create(ctx context.Context, name, code string) (*types.Tenant, error)
	GetByCode(ctx context.Context, code string) (*types.Tenant, error)
	Retire(ctx context.Context, tenantID uuid.UUID) error
}

type tenantService struct {
	db         *gorm.DB
	log        *logger.Logger
	tenantRepo repos.TenantRepo
}

func NewTenantService(db *gorm.DB, baseLog *logger.Logger, tenantRepo repos.TenantRepo) TenantService {
	return &tenantService{
		db:         db,
		log:        baseLog.With("service", "TenantService"),
		tenantRepo: tenantRepo,
	}
}

func (s *tenantService) Create(ctx context.Context, name, code string) (*types.Tenant, error) {
	const op = "Tenant.Create"
	if name == "" || code == "" {
		return nil, faults.Validation(op, "missing tenant name or code")
	}
	dbc := dbctx.Context{Ctx: ctx}

	existing, err := s.tenantRepo.GetByCode(dbc, code)
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	if existing != nil {
		return nil, faults.New(faults.CodeConflict, "", op, "tenant code already in use")
	}

	tenant := &types.Tenant{Name: name, Code: code, Status: "active"}
	if _, err := s.tenantRepo.Create(dbc, []*types.Tenant{tenant}); err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	return tenant, nil
}

func (s *tenantService) GetByCode(ctx context.Context, code string) (*types.Tenant, error) {
	const op = "Tenant.GetByCode"
	tenant, err := s.tenantRepo.GetByCode(dbctx.Context{Ctx: ctx}, code)
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	if tenant == nil {
		return nil, faults.NotFound(op, "tenant")
	}
	return tenant, nil
}

func (s *tenantService) Retire(ctx context.Context, tenantID uuid.UUID) error {
	const op = "Tenant.Retire"
	if err := s.tenantRepo.SoftDeleteByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{tenantID}); err != nil {
		return faults.Wrap(faults.CodeInternal, op, err)
	}
	return nil
}
