package services

import (
	"testing"

	"gorm.io/gorm"

	"github.com/steelbound/forgetrace-backend/internal/data/repos"
	"github.com/steelbound/forgetrace-backend/internal/data/repos/testutil"
	"github.com/steelbound/forgetrace-backend/internal/events"
)

// env wires the full service graph over the shared test database. Tests seed
// their own tenants, so committed rows never collide across tests.
type env struct {
	db *gorm.DB

	tenantRepo   repos.TenantRepo
	itemRepo     repos.ItemRepo
	heatRepo     repos.HeatRepo
	claimRepo    repos.PieceClaimRepo
	stepRepo     repos.StepRepo
	workflowRepo repos.ItemWorkflowRepo
	forgeRepo    repos.ForgeRepo

	tenants      TenantService
	catalog      CatalogService
	heatLedger   HeatLedgerService
	templates    WorkflowTemplateService
	workflows    ItemWorkflowService
	pieceTracker PieceTrackerService
	forges       ForgeService
	batches      StageBatchService
	trace        TraceabilityService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	pub := events.NewRedisPublisher(nil, log)

	tenantRepo := repos.NewTenantRepo(db, log)
	itemRepo := repos.NewItemRepo(db, log)
	buyerRepo := repos.NewBuyerRepo(db, log)
	transportRepo := repos.NewTransporterRepo(db, log)
	rawRepo := repos.NewRawMaterialRepo(db, log)
	heatRepo := repos.NewHeatRepo(db, log)
	templateRepo := repos.NewTemplateRepo(db, log)
	workflowRepo := repos.NewItemWorkflowRepo(db, log)
	stepRepo := repos.NewStepRepo(db, log)
	forgeRepo := repos.NewForgeRepo(db, log)
	processedRepo := repos.NewProcessedItemRepo(db, log)
	claimRepo := repos.NewPieceClaimRepo(db, log)
	htBatchRepo := repos.NewHeatTreatmentBatchRepo(db, log)
	machBatchRepo := repos.NewMachiningBatchRepo(db, log)
	inspBatchRepo := repos.NewInspectionBatchRepo(db, log)
	dispBatchRepo := repos.NewDispatchBatchRepo(db, log)

	heatLedger := NewHeatLedgerService(db, log, heatRepo, rawRepo)
	templateSvc := NewWorkflowTemplateService(db, log, templateRepo)
	workflowSvc := NewItemWorkflowService(db, log, templateSvc, workflowRepo, stepRepo, itemRepo, pub)
	pieceTracker := NewPieceTrackerService(db, log, forgeRepo, processedRepo, claimRepo, htBatchRepo, machBatchRepo, inspBatchRepo)
	forgeSvc := NewForgeService(db, log, heatLedger, pieceTracker, workflowSvc, forgeRepo, heatRepo, rawRepo, workflowRepo, pub)
	batchSvc := NewStageBatchService(
		db, log,
		heatLedger, pieceTracker, workflowSvc,
		forgeRepo, processedRepo, claimRepo,
		htBatchRepo, machBatchRepo, inspBatchRepo, dispBatchRepo,
		stepRepo, workflowRepo, buyerRepo, transportRepo,
		pub,
	)
	traceSvc := NewTraceabilityService(
		db, log,
		heatRepo, rawRepo, forgeRepo, processedRepo,
		htBatchRepo, machBatchRepo, inspBatchRepo, dispBatchRepo,
		workflowRepo, templateRepo, stepRepo,
	)

	return &env{
		db:           db,
		tenantRepo:   tenantRepo,
		itemRepo:     itemRepo,
		heatRepo:     heatRepo,
		claimRepo:    claimRepo,
		stepRepo:     stepRepo,
		workflowRepo: workflowRepo,
		forgeRepo:    forgeRepo,

		tenants:      NewTenantService(db, log, tenantRepo),
		catalog:      NewCatalogService(db, log, itemRepo, rawRepo, buyerRepo, transportRepo),
		heatLedger:   heatLedger,
		templates:    templateSvc,
		workflows:    workflowSvc,
		pieceTracker: pieceTracker,
		forges:       forgeSvc,
		batches:      batchSvc,
		trace:        traceSvc,
	}
}
