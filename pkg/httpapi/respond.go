// Package httpapi implements the versioned REST surface: one controller per
// resource (events, countries, media, users), all configuration over the
// generic document repository.
package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/eventual-app/eventual/pkg/document"
	"github.com/eventual-app/eventual/pkg/observability/logger"
	"github.com/gin-gonic/gin"
)

// TotalCountHeader carries the number of documents matching the filter,
// independent of the pagination window.
const TotalCountHeader = "X-Total-Count"

// detailResponse is the envelope for status messages.
type detailResponse struct {
	Detail string `json:"detail"`
}

// resultResponse pairs a status message with the affected document.
type resultResponse struct {
	Detail string      `json:"detail"`
	Result interface{} `json:"result"`
}

// writeList sends a document page with the total-count header.
func writeList(c *gin.Context, docs []map[string]interface{}, total int64) {
	c.Header(TotalCountHeader, strconv.FormatInt(total, 10))
	c.JSON(http.StatusOK, docs)
}

// writeOne sends a single document with a total count of one, mirroring the
// list contract.
func writeOne(c *gin.Context, doc map[string]interface{}) {
	c.Header(TotalCountHeader, "1")
	c.JSON(http.StatusOK, doc)
}

// writeError maps repository errors onto the HTTP taxonomy: malformed ids,
// validation failures and conflicts are client errors, a missing document is
// 404, and anything else is a 500 whose cause is logged but never leaked.
func writeError(c *gin.Context, log logger.Logger, err error) {
	switch {
	case errors.Is(err, document.ErrInvalidID):
		c.JSON(http.StatusBadRequest, detailResponse{Detail: "the provided id is not valid"})
	case errors.Is(err, document.ErrNotFound):
		c.JSON(http.StatusNotFound, detailResponse{Detail: "resource not found"})
	case errors.Is(err, document.ErrValidation):
		c.JSON(http.StatusBadRequest, detailResponse{Detail: err.Error()})
	case errors.Is(err, document.ErrConflict):
		c.JSON(http.StatusBadRequest, detailResponse{Detail: err.Error()})
	default:
		log.WithContext(c.Request.Context()).Error("storage failure", "error", err)
		c.JSON(http.StatusInternalServerError, detailResponse{Detail: "internal server error"})
	}
}

// notFound sends a resource-specific 404 message.
func notFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, detailResponse{Detail: msg})
}
