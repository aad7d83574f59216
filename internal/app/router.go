package app

import (
	"github.com/gin-gonic/gin"

	httpx "github.com/steelbound/forgetrace-backend/internal/http"
	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, handlers Handlers, middleware Middleware) *gin.Engine {
	return httpx.NewRouter(httpx.RouterConfig{
		Log:            log,
		AuthMiddleware: middleware.Auth,

		AuthHandler:         handlers.Auth,
		CatalogHandler:      handlers.Catalog,
		HeatHandler:         handlers.Heat,
		TemplateHandler:     handlers.Template,
		WorkflowHandler:     handlers.Workflow,
		ForgeHandler:        handlers.Forge,
		BatchHandler:        handlers.Batch,
		TraceabilityHandler: handlers.Traceability,
	})
}
