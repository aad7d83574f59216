package repos

import (
	"gorm.io/gorm"

	"github.com/steelbound/forgetrace-backend/internal/data/repos/catalog"
	"github.com/steelbound/forgetrace-backend/internal/data/repos/material"
	"github.com/steelbound/forgetrace-backend/internal/data/repos/production"
	"github.com/steelbound/forgetrace-backend/internal/data/repos/tenant"
	"github.com/steelbound/forgetrace-backend/internal/data/repos/workflow"
	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
)

type TenantRepo = tenant.TenantRepo

type ItemRepo = catalog.ItemRepo
type BuyerRepo = catalog.BuyerRepo
type TransporterRepo = catalog.TransporterRepo

type RawMaterialRepo = material.RawMaterialRepo
type HeatRepo = material.HeatRepo

type TemplateRepo = workflow.TemplateRepo
type ItemWorkflowRepo = workflow.ItemWorkflowRepo
type StepRepo = workflow.StepRepo

type ForgeRepo = production.ForgeRepo
type ProcessedItemRepo = production.ProcessedItemRepo
type PieceClaimRepo = production.PieceClaimRepo
type HeatTreatmentBatchRepo = production.HeatTreatmentBatchRepo
type MachiningBatchRepo = production.MachiningBatchRepo
type InspectionBatchRepo = production.InspectionBatchRepo
type DispatchBatchRepo = production.DispatchBatchRepo

func NewTenantRepo(db *gorm.DB, baseLog *logger.Logger) TenantRepo {
	return tenant.NewTenantRepo(db, baseLog)
}

func NewItemRepo(db *gorm.DB, baseLog *logger.Logger) ItemRepo {
	return catalog.NewItemRepo(db, baseLog)
}
func NewBuyerRepo(db *gorm.DB, baseLog *logger.Logger) BuyerRepo {
	return catalog.NewBuyerRepo(db, baseLog)
}
func NewTransporterRepo(db *gorm.DB, baseLog *logger.Logger) TransporterRepo {
	return catalog.NewTransporterRepo(db, baseLog)
}

func NewRawMaterialRepo(db *gorm.DB, baseLog *logger.Logger) RawMaterialRepo {
	return material.NewRawMaterialRepo(db, baseLog)
}
func NewHeatRepo(db *gorm.DB, baseLog *logger.Logger) HeatRepo {
	return material.NewHeatRepo(db, baseLog)
}

func NewTemplateRepo(db *gorm.DB, baseLog *logger.Logger) TemplateRepo {
	return workflow.NewTemplateRepo(db, baseLog)
}
func NewItemWorkflowRepo(db *gorm.DB, baseLog *logger.Logger) ItemWorkflowRepo {
	return workflow.NewItemWorkflowRepo(db, baseLog)
}
func NewStepRepo(db *gorm.DB, baseLog *logger.Logger) StepRepo {
	return workflow.NewStepRepo(db, baseLog)
}

func NewForgeRepo(db *gorm.DB, baseLog *logger.Logger) ForgeRepo {
	return production.NewForgeRepo(db, baseLog)
}
func NewProcessedItemRepo(db *gorm.DB, baseLog *logger.Logger) ProcessedItemRepo {
	return production.NewProcessedItemRepo(db, baseLog)
}
func NewPieceClaimRepo(db *gorm.DB, baseLog *logger.Logger) PieceClaimRepo {
	return production.NewPieceClaimRepo(db, baseLog)
}
func NewHeatTreatmentBatchRepo(db *gorm.DB, baseLog *logger.Logger) HeatTreatmentBatchRepo {
	return production.NewHeatTreatmentBatchRepo(db, baseLog)
}
func NewMachiningBatchRepo(db *gorm.DB, baseLog *logger.Logger) MachiningBatchRepo {
	return production.NewMachiningBatchRepo(db, baseLog)
}
func NewInspectionBatchRepo(db *gorm.DB, baseLog *logger.Logger) InspectionBatchRepo {
	return production.NewInspectionBatchRepo(db, baseLog)
}
func NewDispatchBatchRepo(db *gorm.DB, baseLog *logger.Logger) DispatchBatchRepo {
	return production.NewDispatchBatchRepo(db, baseLog)
}
