package app

import (
	"gorm.io/gorm"

	"github.com/steelbound/forgetrace-backend/internal/data/repos"
	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
)

type Repos struct {
	Tenant             repos.TenantRepo
	Item               repos.ItemRepo
	Buyer              repos.BuyerRepo
	Transporter        repos.TransporterRepo
	RawMaterial        repos.RawMaterialRepo
	Heat               repos.HeatRepo
	Template           repos.TemplateRepo
	ItemWorkflow       repos.ItemWorkflowRepo
	Step               repos.StepRepo
	Forge              repos.ForgeRepo
	ProcessedItem      repos.ProcessedItemRepo
	PieceClaim         repos.PieceClaimRepo
	HeatTreatmentBatch repos.HeatTreatmentBatchRepo
	MachiningBatch     repos.MachiningBatchRepo
	InspectionBatch    repos.InspectionBatchRepo
	DispatchBatch      repos.DispatchBatchRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Tenant:             repos.NewTenantRepo(db, log),
		Item:               repos.NewItemRepo(db, log),
		Buyer:              repos.NewBuyerRepo(db, log),
		Transporter:        repos.NewTransporterRepo(db, log),
		RawMaterial:        repos.NewRawMaterialRepo(db, log),
		Heat:               repos.NewHeatRepo(db, log),
		Template:           repos.NewTemplateRepo(db, log),
		ItemWorkflow:       repos.NewItemWorkflowRepo(db, log),
		Step:               repos.NewStepRepo(db, log),
		Forge:              repos.NewForgeRepo(db, log),
		ProcessedItem:      repos.NewProcessedItemRepo(db, log),
		PieceClaim:         repos.NewPieceClaimRepo(db, log),
		HeatTreatmentBatch: repos.NewHeatTreatmentBatchRepo(db, log),
		MachiningBatch:     repos.NewMachiningBatchRepo(db, log),
		InspectionBatch:    repos.NewInspectionBatchRepo(db, log),
		DispatchBatch:      repos.NewDispatchBatchRepo(db, log),
	}
}
