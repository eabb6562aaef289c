package httpapi

import (
	"context"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/eventual-app/eventual/pkg/document"
	"github.com/eventual-app/eventual/pkg/observability/logger"
	"github.com/gin-gonic/gin"
)

// Uploader is the narrow contract for the external image host: it accepts
// raw file bytes and yields a public URL plus an opaque identifier.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader) (url, key string, err error)
}

// MediaController serves the media resource. Images are uploaded to the
// image host first; the returned URL is then persisted as a document.
type MediaController struct {
	repo     *document.Repository
	uploader Uploader
	log      logger.Logger
}

// NewMediaController creates the media controller.
func NewMediaController(repo *document.Repository, uploader Uploader, log logger.Logger) *MediaController {
	return &MediaController{repo: repo, uploader: uploader, log: log.With("controller", "media")}
}

// Register mounts the media routes on the versioned group.
func (mc *MediaController) Register(r gin.IRouter) {
	r.GET("/media", mc.list)
	r.GET("/media/:id", mc.getByID)
	r.POST("/media", mc.upload)
	r.OPTIONS("/media", mc.options)
	r.OPTIONS("/media/:id", mc.optionsByID)
}

func (mc *MediaController) list(c *gin.Context) {
	if !acceptsJSON(c) {
		return
	}
	q := listQuery(c)
	if q == nil {
		return
	}
	q.Match("name", c.Query("name"))
	if c.Query("ownerId") != "" {
		ownerID, ok := intParam(c, "ownerId", 0)
		if !ok {
			return
		}
		if ownerID <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, detailResponse{
				Detail: `query parameter "ownerId" must be positive`,
			})
			return
		}
		q.MatchValue("ownerId", ownerID)
	}

	docs, total, err := mc.repo.Find(c.Request.Context(), q)
	if err != nil {
		writeError(c, mc.log, err)
		return
	}
	addLinks(c, "media", docs)
	writeList(c, docs, total)
}

func (mc *MediaController) getByID(c *gin.Context) {
	if !acceptsJSON(c) {
		return
	}

	projection := document.BuildProjection(c.Query("fields"))
	doc, err := mc.repo.GetByID(c.Request.Context(), c.Param("id"), projection)
	if err != nil {
		writeError(c, mc.log, err)
		return
	}
	writeOne(c, doc)
}

// upload pushes the file to the image host and records the resulting URL as
// a media document.
func (mc *MediaController) upload(c *gin.Context) {
	if mc.uploader == nil {
		c.JSON(http.StatusServiceUnavailable, detailResponse{Detail: "media uploads are disabled"})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, detailResponse{Detail: "a file form field is required"})
		return
	}

	file, err := header.Open()
	if err != nil {
		writeError(c, mc.log, err)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	url, key, err := mc.uploader.Upload(c.Request.Context(), header.Filename, contentType, file)
	if err != nil {
		mc.log.WithContext(c.Request.Context()).Error("image upload failed", "error", err)
		c.JSON(http.StatusInternalServerError, detailResponse{Detail: "the image could not be uploaded"})
		return
	}

	doc, err := mc.repo.Create(c.Request.Context(), map[string]interface{}{
		"name":      header.Filename,
		"ownerId":   int64(1 + rand.Intn(10)),
		"url":       url,
		"assetKey":  key,
		"timestamp": time.Now(),
	})
	if err != nil {
		writeError(c, mc.log, err)
		return
	}

	c.Header("Location", selfLink("media", doc))
	c.JSON(http.StatusCreated, resultResponse{Detail: "the image was uploaded", Result: doc})
}

func (mc *MediaController) options(c *gin.Context) {
	c.Header("Allow", "GET, POST, OPTIONS")
	c.JSON(http.StatusOK, gin.H{"methods": []string{"GET", "POST", "OPTIONS"}})
}

func (mc *MediaController) optionsByID(c *gin.Context) {
	c.Header("Allow", "GET, OPTIONS")
	c.JSON(http.StatusOK, gin.H{"methods": []string{"GET", "OPTIONS"}})
}
