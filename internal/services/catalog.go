package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/steelbound/forgetrace-backend/internal/data/repos"
	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/domain/faults"
	"github.com/steelbound/forgetrace-backend/internal/platform/dbctx"
	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
)

type CreateItemInput struct {
	Code          string
	Name          string
	DrawingNumber string
	MaterialGrade string
}

type CreateRawMaterialInput struct {
	ItemID     uuid.UUID
	Supplier   string
	Grade      string
	ReceivedAt *time.Time
}

// CatalogService manages the product and party masters the production chain
// references.
type CatalogService interface {
	CreateItem(ctx context.Context, tenantID uuid.UUID, input CreateItemInput) (*types.Item, error)
	GetItemByCode(ctx context.Context, tenantID uuid.UUID, code string) (*types.Item, error)
	CreateRawMaterial(ctx context.Context, tenantID uuid.UUID, input CreateRawMaterialInput) (*types.RawMaterial, error)
	CreateBuyer(ctx context.Context, tenantID uuid.UUID, name, city string) (*types.Buyer, error)
	CreateTransporter(ctx context.Context, tenantID uuid.UUID, name string) (*types.Transporter, error)
}

type catalogService struct {
	db            *gorm.DB
	log           *logger.Logger
	itemRepo      repos.ItemRepo
	rawRepo       repos.RawMaterialRepo
	buyerRepo     repos.BuyerRepo
	transportRepo repos.TransporterRepo
}

func NewCatalogService(
	db *gorm.DB,
	baseLog *logger.Logger,
	itemRepo repos.ItemRepo,
	rawRepo repos.RawMaterialRepo,
	buyerRepo repos.BuyerRepo,
	transportRepo repos.TransporterRepo,
) CatalogService {
	return &catalogService{
		db:            db,
		log:           baseLog.With("service", "CatalogService"),
		itemRepo:      itemRepo,
		rawRepo:       rawRepo,
		buyerRepo:     buyerRepo,
		transportRepo: transportRepo,
	}
}

func (s *catalogService) CreateItem(ctx context.Context, tenantID uuid.UUID, input CreateItemInput) (*types.Item, error) {
	const op = "Catalog.CreateItem"
	if input.Code == "" || input.Name == "" {
		return nil, faults.Validation(op, "missing item code or name")
	}
	dbc := dbctx.Context{Ctx: ctx}

	existing, err := s.itemRepo.GetByCode(dbc, tenantID, input.Code)
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	if existing != nil {
		return nil, faults.New(faults.CodeConflict, "", op, "item code already in use")
	}

	item := &types.Item{
		TenantID:      tenantID,
		Code:          input.Code,
		Name:          input.Name,
		DrawingNumber: input.DrawingNumber,
		MaterialGrade: input.MaterialGrade,
	}
	if _, err := s.itemRepo.Create(dbc, []*types.Item{item}); err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	return item, nil
}

func (s *catalogService) GetItemByCode(ctx context.Context, tenantID uuid.UUID, code string) (*types.Item, error) {
	const op = "Catalog.GetItemByCode"
	item, err := s.itemRepo.GetByCode(dbctx.Context{Ctx: ctx}, tenantID, code)
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	if item == nil {
		return nil, faults.NotFound(op, "item")
	}
	return item, nil
}

func (s *catalogService) CreateRawMaterial(ctx context.Context, tenantID uuid.UUID, input CreateRawMaterialInput) (*types.RawMaterial, error) {
	const op = "Catalog.CreateRawMaterial"
	dbc := dbctx.Context{Ctx: ctx}

	items, err := s.itemRepo.GetByIDs(dbc, tenantID, []uuid.UUID{input.ItemID})
	if err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	if len(items) == 0 {
		return nil, faults.NotFound(op, "item")
	}

	lot := &types.RawMaterial{
		TenantID:   tenantID,
		ItemID:     input.ItemID,
		Supplier:   input.Supplier,
		Grade:      input.Grade,
		ReceivedAt: input.ReceivedAt,
	}
	if _, err := s.rawRepo.Create(dbc, []*types.RawMaterial{lot}); err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	return lot, nil
}

func (s *catalogService) CreateBuyer(ctx context.Context, tenantID uuid.UUID, name, city string) (*types.Buyer, error) {
	const op = "Catalog.CreateBuyer"
	if name == "" {
		return nil, faults.Validation(op, "missing buyer name")
	}
	buyer := &types.Buyer{TenantID: tenantID, Name: name, City: city}
	if _, err := s.buyerRepo.Create(dbctx.Context{Ctx: ctx}, []*types.Buyer{buyer}); err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	return buyer, nil
}

func (s *catalogService) CreateTransporter(ctx context.Context, tenantID uuid.UUID, name string) (*types.Transporter, error) {
	const op = "Catalog.CreateTransporter"
	if name == "" {
		return nil, faults.Validation(op, "missing transporter name")
	}
	transporter := &types.Transporter{TenantID: tenantID, Name: name}
	if _, err := s.transportRepo.Create(dbctx.Context{Ctx: ctx}, []*types.Transporter{transporter}); err != nil {
		return nil, faults.Wrap(faults.CodeInternal, op, err)
	}
	return transporter, nil
}
