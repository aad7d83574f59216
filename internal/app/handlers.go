package app

import (
	httpH "github.com/steelbound/forgetrace-backend/internal/http/handlers"
	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
)

type Handlers struct {
	Auth         *httpH.AuthHandler
	Catalog      *httpH.CatalogHandler
	Heat         *httpH.HeatHandler
	Template     *httpH.TemplateHandler
	Workflow     *httpH.WorkflowHandler
	Forge        *httpH.ForgeHandler
	Batch        *httpH.BatchHandler
	Traceability *httpH.TraceabilityHandler
}

func wireHandlers(log *logger.Logger, cfg Config, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:         httpH.NewAuthHandler(s.Tenant, cfg.JWTSecretKey, cfg.TokenTTL),
		Catalog:      httpH.NewCatalogHandler(s.Catalog),
		Heat:         httpH.NewHeatHandler(s.HeatLedger),
		Template:     httpH.NewTemplateHandler(s.WorkflowTemplate),
		Workflow:     httpH.NewWorkflowHandler(s.ItemWorkflow),
		Forge:        httpH.NewForgeHandler(s.Forge),
		Batch:        httpH.NewBatchHandler(s.StageBatch, s.PieceTracker),
		Traceability: httpH.NewTraceabilityHandler(s.Traceability),
	}
}
