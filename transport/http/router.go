package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/playsolmates/warden/config"
	"github.com/playsolmates/warden/service"
)

// SetupRouter sets up the Gin router
func SetupRouter(authService *service.AuthService, cfg *config.Config) *gin.Engine {
	router := gin.Default()

	// Single boundary CORS policy; no per-route header mutation. With an
	// empty allow-list only same-origin callers are served.
	if len(cfg.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	handlers := NewAuthHandlers(authService, cfg.AuthDomain, cfg.Production)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := router.Group("/auth")
	auth.Use(SessionMiddleware(authService))
	{
		auth.POST("/nonce", handlers.Nonce)
		auth.POST("/verify", handlers.Verify)
		auth.POST("/token", handlers.Token)
		auth.POST("/logout", handlers.Logout)
		auth.GET("/me", RequireSession(), handlers.Me)
	}

	return router
}
