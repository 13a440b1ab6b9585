package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"tabletop-session-backend/internal/config"
	"tabletop-session-backend/internal/handlers"
	"tabletop-session-backend/internal/middleware"
	"tabletop-session-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisService.Close()

	jwtService := services.NewJWTService(cfg)

	wsHandler := handlers.NewWebSocketHandler()

	ledger := services.NewTokenLedger(redisService, redisService)
	rollState := services.NewRollMessageState(redisService)
	relay := services.NewAuthorityRelay(ledger, rollState, redisService, redisService, wsHandler, cfg.PendingRequestTTL)
	gate := services.NewConsentGate(ledger, rollState, redisService, relay, wsHandler, cfg.SelfSpendNeedsApproval)
	wsHandler.AttachConsentGate(gate)

	rollService := services.NewRollService(redisService, redisService, wsHandler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopExpiry := relay.StartExpiryWorker(ctx)
	defer stopExpiry()

	sessionHandler := handlers.NewSessionHandler(jwtService, cfg.ArbiterKey)
	rollHandler := handlers.NewRollHandler(rollService, ledger, redisService)
	tokenHandler := handlers.NewTokenHandler(gate, relay, redisService)
	actorHandler := handlers.NewActorHandler(redisService)

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

	router.POST("/session/join", sessionHandler.Join)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService))
	{
		protected.GET("/me", sessionHandler.Me)
		protected.GET("/ws", wsHandler.HandleWebSocket)

		protected.POST("/rolls", rollHandler.Roll)
		protected.GET("/messages", rollHandler.Messages)

		actors := protected.Group("/actors")
		{
			actors.GET("", actorHandler.List)
			actors.GET("/:id", actorHandler.Get)
			actors.GET("/:id/balance", rollHandler.Balance)
			actors.GET("/:id/history", rollHandler.History)
			actors.POST("", middleware.RequireGM(), actorHandler.Create)
			actors.POST("/:id/owners", middleware.RequireGM(), actorHandler.AddOwner)
		}

		tokens := protected.Group("/tokens")
		{
			tokens.POST("/claim", tokenHandler.Claim)
			tokens.POST("/spend", tokenHandler.Spend)

			tokens.GET("/requests", middleware.RequireGM(), tokenHandler.PendingRequests)
			tokens.POST("/requests/:id/resolve", middleware.RequireGM(), tokenHandler.Resolve)
		}
	}

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Infof("Session server starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
