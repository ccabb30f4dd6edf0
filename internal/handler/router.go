package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmoraru/personas/internal/middleware"
	"github.com/dmoraru/personas/internal/pkg/response"
)

type RouterDeps struct {
	Auth      *AuthHandler
	Personas  *PersonaHandler
	Ingestion *IngestionHandler
	Uploads   *UploadHandler
	Query     *QueryHandler
	JWTSecret []byte
	// APIKey gates the public query surface; empty disables the check.
	APIKey          string
	RateLimitWindow time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/health", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})
	api.POST("/auth/login", deps.Auth.Login)

	api.GET("/personas", deps.Personas.List)
	api.GET("/personas/:id", deps.Personas.Get)
	api.GET("/personas/:id/ingestion/status", deps.Ingestion.Status)
	api.GET("/personas/:id/files", deps.Uploads.List)

	adminGroup := api.Group("")
	adminGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	adminGroup.POST("/personas", deps.Personas.Create)
	adminGroup.PUT("/personas/:id", deps.Personas.Update)
	adminGroup.DELETE("/personas/:id", deps.Personas.Delete)
	adminGroup.POST("/personas/:id/upload/:type", deps.Uploads.Upload)
	adminGroup.POST("/personas/:id/ingest", deps.Ingestion.Trigger)
	adminGroup.POST("/personas/:id/ingest/retry", deps.Ingestion.Retry)
	adminGroup.DELETE("/personas/:id/ingestion/jobs", deps.Ingestion.ClearHistory)

	queryGroup := api.Group("")
	queryGroup.Use(middleware.APIKeyAuth(deps.APIKey))
	queryGroup.Use(middleware.RateLimit(deps.RateLimitWindow))
	queryGroup.POST("/ask", deps.Query.Ask)
}
