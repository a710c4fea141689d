package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fauna-labs/fwitter/internal/auth"
	"github.com/fauna-labs/fwitter/internal/cache"
	"github.com/fauna-labs/fwitter/internal/db"
	"github.com/fauna-labs/fwitter/internal/service"
	"github.com/fauna-labs/fwitter/pkg/logging"
)

const (
	sessionContextKey = "session"
	secretContextKey  = "session_secret"
)

// Router sets up API routes
type Router struct {
	service *service.Service
	db      *db.DB
	cache   *cache.Cache
	logger  *zap.Logger
}

// NewRouter creates a new API router
func NewRouter(svc *service.Service, database *db.DB, redisCache *cache.Cache) *Router {
	return &Router{
		service: svc,
		db:      database,
		cache:   redisCache,
		logger:  logging.GetLogger().With(zap.String("component", "api-router")),
	}
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.Use(r.traceRequests)

	// Health check endpoints
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	api := engine.Group("/api")
	api.POST("/register", r.register)
	api.POST("/login", r.login)

	authed := api.Group("", r.requireSession)
	authed.POST("/logout", r.logout)
	authed.POST("/fweets", r.createFweet)
	authed.POST("/fweets/:ref/like", r.likeFweet)
	authed.POST("/fweets/:ref/refweet", r.refweet)
	authed.POST("/fweets/:ref/comment", r.commentFweet)
	authed.POST("/follow/:ref", r.follow)
	authed.PUT("/profile", r.updateProfile)
	authed.GET("/feed", r.getFeed)
	authed.GET("/search", r.searchHandler)
}

func (r *Router) healthHandler(c *gin.Context) {
	if err := r.db.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "FAIL",
			"service": "fwitter-api",
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "OK",
		"service": "fwitter-api",
	})
}

// requireSession resolves the bearer token into a session and stores it on
// the request context.
func (r *Router) requireSession(c *gin.Context) {
	header := c.GetHeader("Authorization")
	secret := strings.TrimPrefix(header, "Bearer ")
	if header == "" || secret == header {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}

	session, err := r.service.Sessions().Resolve(secret)
	if err != nil {
		r.writeError(c, err)
		c.Abort()
		return
	}

	c.Set(sessionContextKey, session)
	c.Set(secretContextKey, secret)
	c.Next()
}

func sessionFrom(c *gin.Context) *auth.Session {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil
	}
	return v.(*auth.Session)
}
