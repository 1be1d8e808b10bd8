package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"feedgate/app/database"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, tokens database.TokenRepository) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	setupRoutes(r, handler, tokens)

	return r
}

// setupRoutes configures all the application routes
func setupRoutes(r *gin.Engine, handler *Handler, tokens database.TokenRepository) {
	// Main serving endpoint
	r.GET("/rss/:token", handler.GetRSS)

	// Health and status endpoints
	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)

	// Admin endpoints (require an admin access token)
	api := r.Group("/api")
	api.Use(adminAuthMiddleware(tokens))
	{
		api.POST("/ingest", handler.APITriggerIngest)
		api.GET("/runs/latest", handler.APIGetLatestRun)
	}

	// Root endpoint with basic information
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "FeedGate",
			"description": "Token-scoped RSS aggregation with HTTP cache validation",
			"endpoints": gin.H{
				"feed":   "/rss/<token>?limit=N",
				"health": "/health",
				"stats":  "/stats",
				"ingest": "/api/ingest (POST, requires admin token)",
				"runs":   "/api/runs/latest (requires admin token)",
			},
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

// adminAuthMiddleware guards the admin endpoints: the caller must present an
// enabled admin access token in X-API-Key or as a bearer token.
func adminAuthMiddleware(tokens database.TokenRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Access token required",
				"message": "Provide an admin token in X-API-Key header or Authorization: Bearer <token>",
			})
			c.Abort()
			return
		}

		t, err := tokens.GetToken(providedKey)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			c.Abort()
			return
		}

		if t == nil || !t.Enabled || !t.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "Invalid access token",
				"message": "The provided token is not a valid admin token",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
