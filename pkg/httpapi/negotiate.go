package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// acceptsJSON enforces the read-side content negotiation contract: the Accept
// header must name application/json or */*; a missing header is rejected too.
// On violation it writes 406 and returns false, before any storage work
// happens.
func acceptsJSON(c *gin.Context) bool {
	accept := c.GetHeader("Accept")
	if strings.Contains(accept, "application/json") || strings.Contains(accept, "*/*") {
		return true
	}
	c.AbortWithStatusJSON(http.StatusNotAcceptable, detailResponse{
		Detail: "the Accept header must include application/json",
	})
	return false
}

// suppliesJSON enforces the write-side contract: Content-Type must be
// application/json. On violation it writes 415 and returns false.
func suppliesJSON(c *gin.Context) bool {
	if strings.Contains(c.GetHeader("Content-Type"), "application/json") {
		return true
	}
	c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, detailResponse{
		Detail: "the Content-Type header must include application/json",
	})
	return false
}
