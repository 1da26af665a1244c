package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"casino-ledger-backend/internal/config"
	"casino-ledger-backend/internal/handlers"
	"casino-ledger-backend/internal/metrics"
	"casino-ledger-backend/internal/middleware"
	"casino-ledger-backend/internal/services"
	"casino-ledger-backend/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	redisStore, err := store.NewRedisStore(cfg.RedisURL, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisStore.Close()

	feed := services.NewAccountFeed()
	ledger := services.NewLedger(redisStore, redisStore, feed, cfg.StartingBalance)
	admin := services.NewAdmin(redisStore, redisStore, feed)
	jwtService := services.NewJWTService(cfg.JWTSecret)

	authHandler := handlers.NewAuthHandler(ledger, jwtService)
	ledgerHandler := handlers.NewLedgerHandler(ledger)
	adminHandler := handlers.NewAdminHandler(admin)
	wsHandler := handlers.NewWebSocketHandler(ledger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.POST("/auth/session", authHandler.CreateSession)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService))
	{
		protected.GET("/me", ledgerHandler.GetMe)
		protected.POST("/profile", ledgerHandler.UpdateProfile)
		protected.GET("/ws", wsHandler.HandleWebSocket)
		protected.GET("/leaderboard", adminHandler.Leaderboard)

		ledgerGroup := protected.Group("/ledger")
		{
			ledgerGroup.GET("/balance", ledgerHandler.GetBalance)
			ledgerGroup.POST("/deposit", ledgerHandler.Deposit)
			ledgerGroup.POST("/settle", ledgerHandler.Settle)
			ledgerGroup.POST("/rakeback/claim", ledgerHandler.ClaimRakeback)
			ledgerGroup.GET("/vip", ledgerHandler.GetVIP)
			ledgerGroup.GET("/history", ledgerHandler.GetHistory)
		}

		adminGroup := protected.Group("/admin")
		adminGroup.Use(middleware.AdminMiddleware(ledger))
		{
			adminGroup.GET("/accounts", adminHandler.ListAccounts)
			adminGroup.POST("/accounts/:id/balance", adminHandler.AdjustBalance)
			adminGroup.POST("/accounts/:id/admin-flag", adminHandler.SetAdminFlag)
			adminGroup.POST("/accounts/:id/reset-stats", adminHandler.ResetStats)
			adminGroup.DELETE("/accounts/:id", adminHandler.DeleteAccount)
			adminGroup.POST("/migrate", adminHandler.Migrate)
		}
	}

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	logger.Info("Server starting", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
