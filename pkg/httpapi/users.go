package httpapi

import (
	"fmt"
	"math"
	"net/http"

	"github.com/eventual-app/eventual/pkg/document"
	"github.com/eventual-app/eventual/pkg/observability/logger"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCreate is the payload for registering a user.
type UserCreate struct {
	Email          string `json:"email" binding:"required"`
	Name           string `json:"name"`
	Surname        string `json:"surname"`
	Description    string `json:"description"`
	UserName       string `json:"userName" binding:"required"`
	OauthID        string `json:"oauthId"`
	OauthProvider  string `json:"oauthProvider"`
	OauthToken     string `json:"oauthToken"`
	ProfilePicture string `json:"profilePicture"`
}

// UserUpdate carries the optional fields of a partial update.
type UserUpdate struct {
	Email          *string `json:"email"`
	Name           *string `json:"name"`
	Surname        *string `json:"surname"`
	Description    *string `json:"description"`
	UserName       *string `json:"userName"`
	ProfilePicture *string `json:"profilePicture"`
	WantEmails     *bool   `json:"wantEmails"`
}

// ReviewPayload is one rating submitted for a user. Each reviewer holds at
// most one review per target; resubmitting replaces the previous rating.
type ReviewPayload struct {
	User   string `json:"user"`
	Rating int    `json:"rating"`
}

// ratingSummary is the aggregate returned after review changes.
type ratingSummary struct {
	TotalRates    int     `json:"totalRates"`
	RatingAverage float64 `json:"ratingAverage"`
}

// UsersController serves the users resource, including the embedded review
// list and its aggregates.
type UsersController struct {
	repo *document.Repository
	log  logger.Logger
}

// NewUsersController creates the users controller.
func NewUsersController(repo *document.Repository, log logger.Logger) *UsersController {
	return &UsersController{repo: repo, log: log.With("controller", "users")}
}

// Register mounts the user routes on the versioned group.
func (uc *UsersController) Register(r gin.IRouter) {
	r.GET("/users", uc.list)
	r.GET("/users/oauth/:oauthId", uc.getByOauthID)
	r.GET("/users/:id", uc.getByID)
	r.GET("/users/:id/profile", uc.profile)
	r.GET("/users/:id/review-average", uc.reviewAverage)
	r.POST("/users", uc.create)
	r.POST("/users/:id/review", uc.addReview)
	r.PUT("/users/:id", uc.update)
	r.DELETE("/users/:id", uc.remove)
	r.DELETE("/users/:id/review/:reviewerId", uc.removeReview)
	r.OPTIONS("/users", uc.options)
	r.OPTIONS("/users/:id", uc.optionsByID)
}

func (uc *UsersController) list(c *gin.Context) {
	if !acceptsJSON(c) {
		return
	}
	q := listQuery(c)
	if q == nil {
		return
	}
	q.Match("email", c.Query("email")).
		Match("name", c.Query("name")).
		Match("surname", c.Query("surname")).
		Match("userName", c.Query("userName")).
		Match("oauthId", c.Query("oauthId")).
		Match("oauthProvider", c.Query("oauthProvider")).
		Match("profilePicture", c.Query("profilePicture")).
		Match("description", c.Query("description"))

	docs, total, err := uc.repo.Find(c.Request.Context(), q)
	if err != nil {
		writeError(c, uc.log, err)
		return
	}
	addLinks(c, "users", docs)
	writeList(c, docs, total)
}

func (uc *UsersController) getByID(c *gin.Context) {
	if !acceptsJSON(c) {
		return
	}

	projection := document.BuildProjection(c.Query("fields"))
	if c.Query("oauth") == "true" {
		if projection == nil {
			projection = bson.M{}
		}
		projection["oauthId"] = 1
		projection["oauthProvider"] = 1
	}

	doc, err := uc.repo.GetByID(c.Request.Context(), c.Param("id"), projection)
	if err != nil {
		writeError(c, uc.log, err)
		return
	}
	writeOne(c, doc)
}

// getByOauthID resolves a user by external identity provider credentials.
func (uc *UsersController) getByOauthID(c *gin.Context) {
	if !acceptsJSON(c) {
		return
	}

	q := document.NewQuery().
		Match("oauthId", c.Param("oauthId")).
		Match("oauthProvider", c.Query("oauthProvider"))
	q.Projection = document.BuildProjection(c.Query("fields"))

	doc, err := uc.repo.FindOne(c.Request.Context(), q)
	if err != nil {
		writeError(c, uc.log, err)
		return
	}
	writeOne(c, doc)
}

// profile returns the user without oauth credentials, decorated with the
// review aggregates.
func (uc *UsersController) profile(c *gin.Context) {
	if !acceptsJSON(c) {
		return
	}

	projection := bson.M{"oauthId": 0, "oauthProvider": 0, "oauthToken": 0}
	doc, err := uc.repo.GetByID(c.Request.Context(), c.Param("id"), projection)
	if err != nil {
		writeError(c, uc.log, err)
		return
	}

	total, average := ratingStats(doc)
	doc["totalRates"] = total
	doc["ratingAverage"] = average
	writeOne(c, doc)
}

func (uc *UsersController) reviewAverage(c *gin.Context) {
	doc, err := uc.repo.GetByID(c.Request.Context(), c.Param("id"), bson.M{"reviews": 1})
	if err != nil {
		writeError(c, uc.log, err)
		return
	}

	total, average := ratingStats(doc)
	if total == 0 {
		c.JSON(http.StatusOK, gin.H{"detail": "the user has no reviews", "average": 0})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"detail":  fmt.Sprintf("the user's review average is %.2f", average),
		"average": average,
	})
}

func (uc *UsersController) create(c *gin.Context) {
	if !suppliesJSON(c) {
		return
	}

	var payload UserCreate
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, detailResponse{Detail: "invalid user payload: " + err.Error()})
		return
	}

	taken, err := uc.userNameTaken(c, payload.UserName, "")
	if err != nil {
		writeError(c, uc.log, err)
		return
	}
	if taken {
		c.JSON(http.StatusBadRequest, detailResponse{Detail: "the user name already exists"})
		return
	}

	doc, err := uc.repo.Create(c.Request.Context(), map[string]interface{}{
		"email":          payload.Email,
		"name":           payload.Name,
		"surname":        payload.Surname,
		"description":    payload.Description,
		"userName":       payload.UserName,
		"oauthId":        payload.OauthID,
		"oauthProvider":  payload.OauthProvider,
		"oauthToken":     payload.OauthToken,
		"profilePicture": payload.ProfilePicture,
		"wantEmails":     true,
		"reviews":        []interface{}{},
	})
	if err != nil {
		writeError(c, uc.log, err)
		return
	}

	c.Header("Location", selfLink("users", doc))
	c.JSON(http.StatusCreated, resultResponse{Detail: "the user was created", Result: doc})
}

func (uc *UsersController) update(c *gin.Context) {
	if !suppliesJSON(c) {
		return
	}

	var payload UserUpdate
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, detailResponse{Detail: "invalid user payload: " + err.Error()})
		return
	}

	fields := map[string]interface{}{}
	setString(fields, "email", payload.Email)
	setString(fields, "name", payload.Name)
	setString(fields, "surname", payload.Surname)
	setString(fields, "description", payload.Description)
	setString(fields, "userName", payload.UserName)
	setString(fields, "profilePicture", payload.ProfilePicture)
	if payload.WantEmails != nil {
		fields["wantEmails"] = *payload.WantEmails
	}
	if len(fields) == 0 {
		c.JSON(http.StatusUnprocessableEntity, detailResponse{Detail: "no user fields were provided"})
		return
	}

	if payload.UserName != nil {
		taken, err := uc.userNameTaken(c, *payload.UserName, c.Param("id"))
		if err != nil {
			writeError(c, uc.log, err)
			return
		}
		if taken {
			c.JSON(http.StatusBadRequest, detailResponse{Detail: "the user name already exists"})
			return
		}
	}

	doc, err := uc.repo.UpdateByID(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		writeError(c, uc.log, err)
		return
	}
	c.JSON(http.StatusOK, resultResponse{Detail: "the user was updated", Result: doc})
}

func (uc *UsersController) remove(c *gin.Context) {
	count, err := uc.repo.DeleteByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, uc.log, err)
		return
	}
	if count == 0 {
		notFound(c, "no user found with that id, nothing was deleted")
		return
	}
	c.JSON(http.StatusOK, detailResponse{Detail: "the user was deleted"})
}

// addReview stores one rating for the target user. The merge happens inside
// the store as a single update expression, so a reviewer ends up with exactly
// one review even under concurrent submissions.
func (uc *UsersController) addReview(c *gin.Context) {
	if !suppliesJSON(c) {
		return
	}

	var payload ReviewPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, detailResponse{Detail: "invalid review payload: " + err.Error()})
		return
	}
	if payload.User == "" {
		c.JSON(http.StatusBadRequest, detailResponse{Detail: "the reviewer and the rating are required"})
		return
	}
	if payload.Rating < 1 || payload.Rating > 5 {
		c.JSON(http.StatusBadRequest, detailResponse{Detail: "the rating must be between 1 and 5"})
		return
	}

	targetID := c.Param("id")
	if !document.ValidID(targetID) || !document.ValidID(payload.User) {
		c.JSON(http.StatusBadRequest, detailResponse{Detail: "the provided id is not valid"})
		return
	}

	// The reviewer must exist; the target's existence is checked by the
	// array update itself.
	if _, err := uc.repo.GetByID(c.Request.Context(), payload.User, bson.M{"_id": 1}); err != nil {
		writeError(c, uc.log, err)
		return
	}

	element := map[string]interface{}{"user": payload.User, "rating": payload.Rating}
	if err := uc.repo.PushOrReplace(c.Request.Context(), targetID, "reviews", "user", payload.User, element); err != nil {
		writeError(c, uc.log, err)
		return
	}

	doc, err := uc.repo.GetByID(c.Request.Context(), targetID, bson.M{"reviews": 1})
	if err != nil {
		writeError(c, uc.log, err)
		return
	}

	total, average := ratingStats(doc)
	c.JSON(http.StatusOK, ratingSummary{TotalRates: total, RatingAverage: average})
}

// removeReview withdraws a reviewer's rating from the target user.
func (uc *UsersController) removeReview(c *gin.Context) {
	reviewerID := c.Param("reviewerId")
	if !document.ValidID(reviewerID) {
		c.JSON(http.StatusBadRequest, detailResponse{Detail: "the provided id is not valid"})
		return
	}

	if err := uc.repo.Pull(c.Request.Context(), c.Param("id"), "reviews", "user", reviewerID); err != nil {
		writeError(c, uc.log, err)
		return
	}
	c.JSON(http.StatusOK, detailResponse{Detail: "the review was removed"})
}

func (uc *UsersController) options(c *gin.Context) {
	c.Header("Allow", "GET, POST, OPTIONS")
	c.JSON(http.StatusOK, gin.H{"methods": []string{"GET", "POST", "OPTIONS"}})
}

func (uc *UsersController) optionsByID(c *gin.Context) {
	c.Header("Allow", "GET, PUT, DELETE, OPTIONS")
	c.JSON(http.StatusOK, gin.H{"methods": []string{"GET", "PUT", "DELETE", "OPTIONS"}})
}

// userNameTaken reports whether another user already holds name. excludeID,
// when set, ignores the user being updated so renaming to the current name
// is allowed.
func (uc *UsersController) userNameTaken(c *gin.Context, name, excludeID string) (bool, error) {
	q := document.NewQuery().Match("userName", name)
	if excludeID != "" {
		oid, err := document.ParseID(excludeID)
		if err != nil {
			return false, err
		}
		q.MatchValue("_id", bson.M{"$ne": oid})
	}
	total, err := uc.repo.Count(c.Request.Context(), q)
	if err != nil {
		return false, err
	}
	return total > 0, nil
}

// ratingStats computes the review count and the mean rating rounded to two
// decimals from a shaped user document.
func ratingStats(doc map[string]interface{}) (int, float64) {
	var reviews []interface{}
	switch arr := doc["reviews"].(type) {
	case []interface{}:
		reviews = arr
	case primitive.A:
		reviews = arr
	default:
		return 0, 0
	}
	if len(reviews) == 0 {
		return 0, 0
	}

	var sum float64
	var count int
	for _, raw := range reviews {
		rating, ok := reviewRating(raw)
		if !ok {
			continue
		}
		sum += rating
		count++
	}
	if count == 0 {
		return 0, 0
	}
	return count, math.Round(sum/float64(count)*100) / 100
}

// reviewRating extracts the numeric rating from one review element,
// whatever integer width the driver decoded it into.
func reviewRating(raw interface{}) (float64, bool) {
	var value interface{}
	switch review := raw.(type) {
	case map[string]interface{}:
		value = review["rating"]
	case bson.M:
		value = review["rating"]
	default:
		return 0, false
	}

	switch n := value.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
