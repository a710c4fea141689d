package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Alias    string `json:"alias" binding:"required"`
	Icon     string `json:"icon"`
}

func (r *Router) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	secret, user, err := r.service.Register(c.Request.Context(), req.Email, req.Password, req.Name, req.Alias, req.Icon)
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"secret": secret, "user": user})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (r *Router) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	secret, user, err := r.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"secret": secret, "user": user})
}

func (r *Router) logout(c *gin.Context) {
	secret := c.GetString(secretContextKey)
	if err := r.service.Logout(c.Request.Context(), secret); err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

type createFweetRequest struct {
	Message   string `json:"message" binding:"required"`
	AssetID   string `json:"asset_id"`
	AssetType string `json:"asset_type"`
}

func (r *Router) createFweet(c *gin.Context) {
	var req createFweetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := r.service.CreateFweet(c.Request.Context(), sessionFrom(c), req.Message, req.AssetID, req.AssetType)
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func refParam(c *gin.Context) (uuid.UUID, bool) {
	ref, err := uuid.Parse(c.Param("ref"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ref"})
		return uuid.Nil, false
	}
	return ref, true
}

func (r *Router) likeFweet(c *gin.Context) {
	ref, ok := refParam(c)
	if !ok {
		return
	}

	view, err := r.service.Like(c.Request.Context(), sessionFrom(c), ref)
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type messageRequest struct {
	Message string `json:"message"`
}

func (r *Router) refweet(c *gin.Context) {
	ref, ok := refParam(c)
	if !ok {
		return
	}
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := r.service.Refweet(c.Request.Context(), sessionFrom(c), ref, req.Message)
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (r *Router) commentFweet(c *gin.Context) {
	ref, ok := refParam(c)
	if !ok {
		return
	}
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := r.service.CommentFweet(c.Request.Context(), sessionFrom(c), ref, req.Message)
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (r *Router) follow(c *gin.Context) {
	ref, ok := refParam(c)
	if !ok {
		return
	}

	following, err := r.service.Follow(c.Request.Context(), sessionFrom(c), ref)
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": following})
}

type updateProfileRequest struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

func (r *Router) updateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := r.service.UpdateProfile(c.Request.Context(), sessionFrom(c), req.Name, req.Icon)
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// getFeed serves /feed?kind=home, /feed?kind=tag&tag=<name> and
// /feed?kind=author&alias=<alias>. The default kind is the home feed.
func (r *Router) getFeed(c *gin.Context) {
	kind := c.DefaultQuery("kind", "home")
	var param string
	switch kind {
	case "tag":
		param = c.Query("tag")
	case "author":
		param = c.Query("alias")
	}

	views, err := r.service.GetFeed(c.Request.Context(), sessionFrom(c), kind, param)
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fweets": views})
}

func (r *Router) searchHandler(c *gin.Context) {
	keyword := c.Query("q")

	results, err := r.service.Search(c.Request.Context(), sessionFrom(c), keyword)
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
