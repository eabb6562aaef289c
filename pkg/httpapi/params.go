package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/eventual-app/eventual/pkg/document"
	"github.com/gin-gonic/gin"
)

// Pagination defaults for list endpoints.
const (
	DefaultOffset int64 = 0
	DefaultLimit  int64 = 10
)

// listQuery builds the common list descriptor from the request: fields
// projection, sort specification and the pagination window. On invalid input
// it writes a 400 and returns nil.
func listQuery(c *gin.Context) *document.Query {
	offset, ok := intParam(c, "offset", DefaultOffset)
	if !ok {
		return nil
	}
	limit, ok := intParam(c, "limit", DefaultLimit)
	if !ok {
		return nil
	}

	q, err := document.NewQuery().
		WithProjection(c.Query("fields")).
		WithSort(c.Query("sort")).
		WithPage(offset, limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, detailResponse{Detail: err.Error()})
		return nil
	}
	return q
}

// intParam parses an optional integer query parameter.
func intParam(c *gin.Context, name string, fallback int64) (int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, detailResponse{
			Detail: fmt.Sprintf("query parameter %q must be an integer", name),
		})
		return 0, false
	}
	return value, true
}

// floatParam parses a required float query parameter.
func floatParam(c *gin.Context, name string) (float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, detailResponse{
			Detail: fmt.Sprintf("query parameter %q is required", name),
		})
		return 0, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, detailResponse{
			Detail: fmt.Sprintf("query parameter %q must be a number", name),
		})
		return 0, false
	}
	return value, true
}

// selfLink builds the HATEOAS href for one document of a resource.
func selfLink(resource string, doc map[string]interface{}) string {
	id, _ := doc["_id"].(string)
	return fmt.Sprintf("/api/v1/%s/%s", resource, id)
}

// addLinks decorates every document with its self href when the client asked
// for HATEOAS links.
func addLinks(c *gin.Context, resource string, docs []map[string]interface{}) {
	if c.Query("hateoas") != "true" {
		return
	}
	for _, doc := range docs {
		doc["href"] = selfLink(resource, doc)
	}
}
