package app

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/steelbound/forgetrace-backend/internal/events"
	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
	"github.com/steelbound/forgetrace-backend/internal/services"
)

type Services struct {
	Tenant           services.TenantService
	Catalog          services.CatalogService
	HeatLedger       services.HeatLedgerService
	WorkflowTemplate services.WorkflowTemplateService
	ItemWorkflow     services.ItemWorkflowService
	PieceTracker     services.PieceTrackerService
	Forge            services.ForgeService
	StageBatch       services.StageBatchService
	Traceability     services.TraceabilityService

	Publisher events.Publisher
}

func wireServices(db *gorm.DB, log *logger.Logger, redisClient *redis.Client, r Repos) Services {
	log.Info("Wiring services...")

	publisher := events.NewRedisPublisher(redisClient, log)

	tenantSvc := services.NewTenantService(db, log, r.Tenant)
	catalogSvc := services.NewCatalogService(db, log, r.Item, r.RawMaterial, r.Buyer, r.Transporter)
	heatLedger := services.NewHeatLedgerService(db, log, r.Heat, r.RawMaterial)
	templateSvc := services.NewWorkflowTemplateService(db, log, r.Template)
	workflowSvc := services.NewItemWorkflowService(db, log, templateSvc, r.ItemWorkflow, r.Step, r.Item, publisher)
	pieceTracker := services.NewPieceTrackerService(db, log, r.Forge, r.ProcessedItem, r.PieceClaim, r.HeatTreatmentBatch, r.MachiningBatch, r.InspectionBatch)
	forgeSvc := services.NewForgeService(db, log, heatLedger, pieceTracker, workflowSvc, r.Forge, r.Heat, r.RawMaterial, r.ItemWorkflow, publisher)
	stageBatchSvc := services.NewStageBatchService(
		db, log,
		heatLedger, pieceTracker, workflowSvc,
		r.Forge, r.ProcessedItem, r.PieceClaim,
		r.HeatTreatmentBatch, r.MachiningBatch, r.InspectionBatch, r.DispatchBatch,
		r.Step, r.ItemWorkflow, r.Buyer, r.Transporter,
		publisher,
	)
	traceSvc := services.NewTraceabilityService(
		db, log,
		r.Heat, r.RawMaterial, r.Forge, r.ProcessedItem,
		r.HeatTreatmentBatch, r.MachiningBatch, r.InspectionBatch, r.DispatchBatch,
		r.ItemWorkflow, r.Template, r.Step,
	)

	return Services{
		Tenant:           tenantSvc,
		Catalog:          catalogSvc,
		HeatLedger:       heatLedger,
		WorkflowTemplate: templateSvc,
		ItemWorkflow:     workflowSvc,
		PieceTracker:     pieceTracker,
		Forge:            forgeSvc,
		StageBatch:       stageBatchSvc,
		Traceability:     traceSvc,
		Publisher:        publisher,
	}
}
