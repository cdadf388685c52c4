package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"storeops-system/config"
	"storeops-system/internal/audit"
	"storeops-system/internal/database"
	"storeops-system/internal/server/handlers"
	"storeops-system/internal/server/middleware"
	"storeops-system/internal/utils"
)

func main() {
	cfg := config.LoadConfig()
	logger := config.GetLogger()

	utils.SetJWTSecret(cfg.Auth.JWTSecret)

	db, err := database.NewConnection(cfg.DB.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	redisClient := config.NewRedisClient(cfg.Redis)
	defer redisClient.Close()
	locker := config.NewLockClient(redisClient)

	auditStore := database.NewAuditStore(db)
	uow := database.NewUnitOfWork(db)

	auditService := audit.NewService(auditStore, logger)
	generator := audit.NewGenerator(uow, logger)
	engine := audit.NewEngine(auditStore, logger)
	controller := audit.NewController(uow, locker, logger)

	auditHandler := handlers.NewAuditHandler(auditService, generator, engine, controller)
	inventoryHandler := handlers.NewInventoryHandler(db, redisClient)
	userHandler := handlers.NewUserHandler(db, time.Duration(cfg.Auth.TokenTTL)*time.Hour)

	r := gin.Default()

	r.Use(middleware.CORS())
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit())

	// --- Public API Group ---
	public := r.Group("/api/v1")
	{
		auth := public.Group("/auth")
		{
			auth.POST("/login", userHandler.Login)
			auth.POST("/register", userHandler.Register)
		}
	}

	// --- Protected API Group ---
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth())
	{
		protected.GET("/me", userHandler.Me)

		audits := protected.Group("/audits")
		{
			audits.POST("", auditHandler.CreateAudit)
			audits.GET("", auditHandler.ListAudits)
			audits.GET("/:id", auditHandler.GetAudit)
			audits.PATCH("/:id", auditHandler.UpdateAudit)
			audits.DELETE("/:id", auditHandler.DeleteAudit)
			audits.POST("/:id/start", auditHandler.StartAudit)
			audits.GET("/:id/items", auditHandler.ListItems)
			audits.PATCH("/:id/items/:itemId/status", auditHandler.UpdateItemStatus)
			audits.POST("/:id/items/:itemId/reopen", auditHandler.ReopenItem)
			audits.POST("/:id/assignments", auditHandler.CreateAssignment)
			audits.GET("/:id/assignments", auditHandler.ListAssignments)
		}

		warehouses := protected.Group("/warehouses")
		{
			warehouses.GET("", inventoryHandler.ListWarehouses)
			warehouses.GET("/:id", inventoryHandler.GetWarehouse)
		}

		products := protected.Group("/products")
		{
			products.GET("", inventoryHandler.ListProducts)
			products.GET("/:id", inventoryHandler.GetProduct)
		}

		protected.GET("/stock-movements", inventoryHandler.ListStockMovements)
	}

	r.GET("/health", healthCheckHandler(db, redisClient))

	port := ":" + cfg.Server.Port
	log.Printf("Starting server on port %s", port)
	if err := r.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func healthCheckHandler(db *gorm.DB, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		status := "healthy"
		httpStatus := http.StatusOK
		unavailable := []string{}

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			unavailable = append(unavailable, "database")
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			unavailable = append(unavailable, "redis")
		}

		if len(unavailable) > 0 {
			status = "degraded"
			httpStatus = http.StatusPartialContent
		}

		c.JSON(httpStatus, gin.H{
			"status":               status,
			"message":              "Server is running",
			"unavailable_services": unavailable,
			"timestamp":            time.Now(),
		})
	}
}
