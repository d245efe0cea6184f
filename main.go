package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"aasaan-server/config"
	"aasaan-server/database"
	"aasaan-server/jobs"
	"aasaan-server/middleware"
	"aasaan-server/routes"
	"aasaan-server/websocket"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, using environment variables")
	}

	config.Load()
	gin.SetMode(config.AppConfig.Server.GinMode)

	if err := database.Initialize(); err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Device-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.InputValidationMiddleware())
	router.Use(middleware.RateLimitMiddleware())
	router.Use(middleware.AuditLogMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC(),
		})
	})

	v1 := router.Group("/api/v1")
	{
		routes.RegisterAuthRoutes(v1)
		routes.RegisterWorkRequestRoutes(v1)
		routes.RegisterPaymentRoutes(v1)
		routes.RegisterNotificationRoutes(v1)
		routes.RegisterProfileRoutes(v1)

		v1.GET("/ws/provider", middleware.WebSocketAuthMiddleware(), websocket.HandleProviderFeed)
	}

	go websocket.FeedHub.Run()

	stop := make(chan struct{})
	routes.SharedOTPService().StartCleanupLoop(stop)
	middleware.StartRateLimiterCleanup(stop)

	autoCloseJob := jobs.NewAutoCloseJob()
	autoCloseJob.Start()

	tokenCleanupJob := jobs.NewTokenCleanupJob()
	tokenCleanupJob.Start()

	srv := &http.Server{
		Addr:    ":" + config.AppConfig.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("🚀 Aasaan server listening on port %s", config.AppConfig.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	autoCloseJob.Stop()
	tokenCleanupJob.Stop()
	close(stop)

	log.Println("✅ Server stopped")
}
