package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/steelbound/forgetrace-backend/internal/platform/apierr"
	"github.com/steelbound/forgetrace-backend/internal/platform/ctxutil"
)

// respondErr translates a domain fault into its HTTP shape.
func respondErr(c *gin.Context, err error) {
	apiErr := apierr.FromFault(err)
	c.JSON(apiErr.Status, gin.H{"error": apiErr.Error(), "code": apiErr.Code})
}

// tenantOf pulls the authenticated tenant off the request. The auth
// middleware guarantees it on protected routes; a nil here is a wiring bug.
func tenantOf(c *gin.Context) (uuid.UUID, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.TenantID == uuid.Nil {
		c.AbortWithStatusJSON(403, gin.H{"error": "no tenant in request"})
		return uuid.Nil, false
	}
	return rd.TenantID, true
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid " + param})
		return uuid.Nil, false
	}
	return id, true
}
