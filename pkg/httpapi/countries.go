package httpapi

import (
	"net/http"

	"github.com/eventual-app/eventual/pkg/document"
	"github.com/eventual-app/eventual/pkg/observability/logger"
	"github.com/gin-gonic/gin"
)

// CountryCreate is the payload for recording a visited country.
type CountryCreate struct {
	Nombre string  `json:"nombre" binding:"required"`
	Email  string  `json:"email" binding:"required"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Imagen string  `json:"imagen"`
}

// CountryUpdate carries the optional fields of a partial update.
type CountryUpdate struct {
	Nombre *string  `json:"nombre"`
	Email  *string  `json:"email"`
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
	Imagen *string  `json:"imagen"`
}

// CountriesController serves the countries resource.
type CountriesController struct {
	repo *document.Repository
	log  logger.Logger
}

// NewCountriesController creates the countries controller.
func NewCountriesController(repo *document.Repository, log logger.Logger) *CountriesController {
	return &CountriesController{repo: repo, log: log.With("controller", "countries")}
}

// Register mounts the country routes on the versioned group.
func (cc *CountriesController) Register(r gin.IRouter) {
	r.GET("/countries", cc.list)
	r.GET("/countries/email/:email", cc.listByEmail)
	r.GET("/countries/:id", cc.getByID)
	r.POST("/countries", cc.create)
	r.PUT("/countries/:id", cc.update)
	r.DELETE("/countries/:id", cc.remove)
}

func (cc *CountriesController) list(c *gin.Context) {
	if !acceptsJSON(c) {
		return
	}
	q := listQuery(c)
	if q == nil {
		return
	}

	docs, total, err := cc.repo.Find(c.Request.Context(), q)
	if err != nil {
		writeError(c, cc.log, err)
		return
	}
	writeList(c, docs, total)
}

// listByEmail returns every country recorded by one user, unpaginated.
func (cc *CountriesController) listByEmail(c *gin.Context) {
	if !acceptsJSON(c) {
		return
	}

	q := document.NewQuery().Match("email", c.Param("email"))
	docs, total, err := cc.repo.Find(c.Request.Context(), q)
	if err != nil {
		writeError(c, cc.log, err)
		return
	}
	writeList(c, docs, total)
}

func (cc *CountriesController) getByID(c *gin.Context) {
	if !acceptsJSON(c) {
		return
	}

	doc, err := cc.repo.GetByID(c.Request.Context(), c.Param("id"), nil)
	if err != nil {
		writeError(c, cc.log, err)
		return
	}
	writeOne(c, doc)
}

func (cc *CountriesController) create(c *gin.Context) {
	if !suppliesJSON(c) {
		return
	}

	var payload CountryCreate
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, detailResponse{Detail: "invalid country payload: " + err.Error()})
		return
	}

	doc, err := cc.repo.Create(c.Request.Context(), map[string]interface{}{
		"nombre": payload.Nombre,
		"email":  payload.Email,
		"lat":    payload.Lat,
		"lon":    payload.Lon,
		"imagen": payload.Imagen,
	})
	if err != nil {
		writeError(c, cc.log, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (cc *CountriesController) update(c *gin.Context) {
	if !suppliesJSON(c) {
		return
	}

	var payload CountryUpdate
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, detailResponse{Detail: "invalid country payload: " + err.Error()})
		return
	}

	fields := map[string]interface{}{}
	setString(fields, "nombre", payload.Nombre)
	setString(fields, "email", payload.Email)
	setFloat(fields, "lat", payload.Lat)
	setFloat(fields, "lon", payload.Lon)
	setString(fields, "imagen", payload.Imagen)
	if len(fields) == 0 {
		c.JSON(http.StatusUnprocessableEntity, detailResponse{Detail: "no country fields were provided"})
		return
	}

	doc, err := cc.repo.UpdateByID(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		writeError(c, cc.log, err)
		return
	}
	c.JSON(http.StatusOK, resultResponse{Detail: "the country was updated", Result: doc})
}

func (cc *CountriesController) remove(c *gin.Context) {
	count, err := cc.repo.DeleteByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, cc.log, err)
		return
	}
	if count == 0 {
		notFound(c, "no country found with that id, nothing was deleted")
		return
	}
	c.JSON(http.StatusOK, detailResponse{Detail: "the country was deleted"})
}
