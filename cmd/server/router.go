package main

import (
	"net/http"

	"nick8/config"
	"nick8/controllers"
	"nick8/internal/ratelimit"
	"nick8/metrics"
	"nick8/middlewares"
	"nick8/routes"
	"nick8/services"
	"nick8/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func setupRouter(cfg *config.Config, service *services.ProgressService, hub *websocket.ProgressHub, limiter ratelimit.Limiter) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), metrics.Middleware())

	// Set trusted proxies (adjust as needed)
	router.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))
	router.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	// Public routes
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/api", func(c *gin.Context) { c.String(http.StatusOK, "Server is running!") })
	router.GET("/api/ws/progress", websocket.ProgressWebSocketHandler(hub, cfg.JWT.Secret))

	var limit gin.HandlerFunc
	if limiter != nil {
		limit = ratelimit.Middleware(limiter, func(c *gin.Context) string { return c.GetString("email") })
	}

	// Protected routes (JWT auth)
	pc := controllers.NewProgressController(service, cfg.Database.Timeout)
	auth := router.Group("/api")
	auth.Use(middlewares.AuthMiddleware(cfg.JWT.Secret))
	{
		routes.SetupProgressRoutes(auth, pc, limit)
		routes.SetupFoodRoutes(auth, pc)
	}

	return router
}
