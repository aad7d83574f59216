package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/steelbound/forgetrace-backend/internal/http/handlers"
	httpMW "github.com/steelbound/forgetrace-backend/internal/http/middleware"
	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	AuthMiddleware *httpMW.AuthMiddleware

	AuthHandler         *httpH.AuthHandler
	CatalogHandler      *httpH.CatalogHandler
	HeatHandler         *httpH.HeatHandler
	TemplateHandler     *httpH.TemplateHandler
	WorkflowHandler     *httpH.WorkflowHandler
	ForgeHandler        *httpH.ForgeHandler
	BatchHandler        *httpH.BatchHandler
	TraceabilityHandler *httpH.TraceabilityHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	r.Use(httpMW.CORS())
	r.Use(httpMW.RequestLogger(cfg.Log))

	// Health
	r.GET("/healthcheck", httpH.HealthCheck)

	api := r.Group("/api")
	{
		// Tenant onboarding and token issuing (public)
		if cfg.AuthHandler != nil {
			api.POST("/tenants", cfg.AuthHandler.CreateTenant)
			api.POST("/token", cfg.AuthHandler.IssueToken)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.AuthHandler != nil {
			protected.DELETE("/tenants/me", cfg.AuthHandler.RetireTenant)
		}

		// Catalog masters
		if cfg.CatalogHandler != nil {
			protected.POST("/items", cfg.CatalogHandler.CreateItem)
			protected.GET("/item-codes/:code", cfg.CatalogHandler.GetItemByCode)
			protected.POST("/raw-materials", cfg.CatalogHandler.CreateRawMaterial)
			protected.POST("/buyers", cfg.CatalogHandler.CreateBuyer)
			protected.POST("/transporters", cfg.CatalogHandler.CreateTransporter)
		}

		// Heat ledger
		if cfg.HeatHandler != nil {
			protected.POST("/heats", cfg.HeatHandler.Register)
			protected.GET("/heats/:id/availability", cfg.HeatHandler.Availability)
			protected.GET("/heats/:id/audit", cfg.HeatHandler.Audit)
			protected.GET("/heat-numbers/:number", cfg.HeatHandler.LookupByNumber)
			protected.GET("/items/:id/heats", cfg.HeatHandler.LookupByItem)
		}

		// Workflow templates
		if cfg.TemplateHandler != nil {
			protected.POST("/templates", cfg.TemplateHandler.Create)
			protected.GET("/templates", cfg.TemplateHandler.ListActive)
			protected.GET("/default-template", cfg.TemplateHandler.GetDefault)
			protected.GET("/templates/:id", cfg.TemplateHandler.Get)
			protected.POST("/templates/:id/default", cfg.TemplateHandler.SetDefault)
			protected.POST("/templates/:id/deactivate", cfg.TemplateHandler.Deactivate)
		}

		// Item workflows
		if cfg.WorkflowHandler != nil {
			protected.POST("/workflows", cfg.WorkflowHandler.Start)
			protected.POST("/workflows/:id/steps", cfg.WorkflowHandler.RecordStep)
			protected.GET("/workflows/:id/state", cfg.WorkflowHandler.State)
			protected.POST("/workflows/:id/cancel", cfg.WorkflowHandler.Cancel)
			protected.GET("/items/:id/workflows", cfg.WorkflowHandler.ListByItem)
		}

		// Forge stage
		if cfg.ForgeHandler != nil {
			protected.POST("/forges", cfg.ForgeHandler.Create)
			protected.GET("/forges/:id", cfg.ForgeHandler.Get)
		}

		// Downstream stage batches
		if cfg.BatchHandler != nil {
			protected.POST("/batches/heat-treatment", cfg.BatchHandler.CreateHeatTreatment)
			protected.POST("/batches/machining", cfg.BatchHandler.CreateMachining)
			protected.POST("/batches/inspection", cfg.BatchHandler.CreateInspection)
			protected.POST("/batches/dispatch", cfg.BatchHandler.CreateDispatch)
			protected.POST("/batches/cancel/:kind/:id", cfg.BatchHandler.Cancel)
			protected.GET("/availability/:kind/:id", cfg.BatchHandler.Availability)
		}

		// Traceability
		if cfg.TraceabilityHandler != nil {
			protected.GET("/trace/heat/:id", cfg.TraceabilityHandler.ByHeat)
			protected.GET("/trace/forge/:id", cfg.TraceabilityHandler.ByForge)
			protected.GET("/trace/workflow/:id", cfg.TraceabilityHandler.ByWorkflow)
		}
	}

	return r
}
