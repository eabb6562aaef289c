package httpapi

import (
	"net/http"

	"github.com/eventual-app/eventual/pkg/document"
	"github.com/eventual-app/eventual/pkg/observability/logger"
	"github.com/gin-gonic/gin"
)

// EventCreate is the payload for creating an event. Timestamp uses the
// DD/MM/YYYY HH:MM client layout.
type EventCreate struct {
	Nombre      string  `json:"nombre" binding:"required"`
	Timestamp   string  `json:"timestamp" binding:"required"`
	Lugar       string  `json:"lugar"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Organizador string  `json:"organizador"`
	Imagen      string  `json:"imagen"`
}

// EventUpdate carries the optional fields of a partial update; nil fields are
// left untouched.
type EventUpdate struct {
	Nombre      *string  `json:"nombre"`
	Timestamp   *string  `json:"timestamp"`
	Lugar       *string  `json:"lugar"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
	Organizador *string  `json:"organizador"`
	Imagen      *string  `json:"imagen"`
}

// EventsController serves the events resource.
type EventsController struct {
	repo *document.Repository
	log  logger.Logger
}

// NewEventsController creates the events controller.
func NewEventsController(repo *document.Repository, log logger.Logger) *EventsController {
	return &EventsController{repo: repo, log: log.With("controller", "events")}
}

// Register mounts the event routes on the versioned group.
func (ec *EventsController) Register(r gin.IRouter) {
	r.GET("/events", ec.list)
	r.GET("/events/nearby", ec.nearby)
	r.GET("/events/:id", ec.getByID)
	r.POST("/events", ec.create)
	r.PUT("/events/:id", ec.update)
	r.DELETE("/events/:id", ec.remove)
}

func (ec *EventsController) list(c *gin.Context) {
	if !acceptsJSON(c) {
		return
	}
	q := listQuery(c)
	if q == nil {
		return
	}

	docs, total, err := ec.repo.Find(c.Request.Context(), q)
	if err != nil {
		writeError(c, ec.log, err)
		return
	}
	writeList(c, docs, total)
}

// nearby returns events whose coordinates fall within a bounding box around
// the given center, each axis bounded independently.
func (ec *EventsController) nearby(c *gin.Context) {
	if !acceptsJSON(c) {
		return
	}
	lat, ok := floatParam(c, "lat")
	if !ok {
		return
	}
	lon, ok := floatParam(c, "lon")
	if !ok {
		return
	}
	q := listQuery(c)
	if q == nil {
		return
	}
	q.Box("lat", "lon", lat, lon, document.DefaultBoxRadius)

	docs, total, err := ec.repo.Find(c.Request.Context(), q)
	if err != nil {
		writeError(c, ec.log, err)
		return
	}
	writeList(c, docs, total)
}

func (ec *EventsController) getByID(c *gin.Context) {
	if !acceptsJSON(c) {
		return
	}

	doc, err := ec.repo.GetByID(c.Request.Context(), c.Param("id"), nil)
	if err != nil {
		writeError(c, ec.log, err)
		return
	}
	writeOne(c, doc)
}

func (ec *EventsController) create(c *gin.Context) {
	if !suppliesJSON(c) {
		return
	}

	var payload EventCreate
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, detailResponse{Detail: "invalid event payload: " + err.Error()})
		return
	}

	doc, err := ec.repo.Create(c.Request.Context(), map[string]interface{}{
		"nombre":      payload.Nombre,
		"timestamp":   payload.Timestamp,
		"lugar":       payload.Lugar,
		"lat":         payload.Lat,
		"lon":         payload.Lon,
		"organizador": payload.Organizador,
		"imagen":      payload.Imagen,
	})
	if err != nil {
		writeError(c, ec.log, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (ec *EventsController) update(c *gin.Context) {
	if !suppliesJSON(c) {
		return
	}

	var payload EventUpdate
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, detailResponse{Detail: "invalid event payload: " + err.Error()})
		return
	}

	fields := map[string]interface{}{}
	setString(fields, "nombre", payload.Nombre)
	setString(fields, "timestamp", payload.Timestamp)
	setString(fields, "lugar", payload.Lugar)
	setFloat(fields, "lat", payload.Lat)
	setFloat(fields, "lon", payload.Lon)
	setString(fields, "organizador", payload.Organizador)
	setString(fields, "imagen", payload.Imagen)
	if len(fields) == 0 {
		c.JSON(http.StatusUnprocessableEntity, detailResponse{Detail: "no event fields were provided"})
		return
	}

	doc, err := ec.repo.UpdateByID(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		writeError(c, ec.log, err)
		return
	}
	c.JSON(http.StatusOK, resultResponse{Detail: "the event was updated", Result: doc})
}

func (ec *EventsController) remove(c *gin.Context) {
	count, err := ec.repo.DeleteByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, ec.log, err)
		return
	}
	if count == 0 {
		notFound(c, "no event found with that id, nothing was deleted")
		return
	}
	c.JSON(http.StatusOK, detailResponse{Detail: "the event was deleted"})
}

// setString copies a present optional string field into the update map.
func setString(fields map[string]interface{}, name string, value *string) {
	if value != nil {
		fields[name] = *value
	}
}

// setFloat copies a present optional float field into the update map.
func setFloat(fields map[string]interface{}, name string, value *float64) {
	if value != nil {
		fields[name] = *value
	}
}
