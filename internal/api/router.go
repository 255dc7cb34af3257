package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"xiaodiyanxuan-backend/config"
	"xiaodiyanxuan-backend/internal/api/v1/auth"
	orderRoutes "xiaodiyanxuan-backend/internal/api/v1/order"
	"xiaodiyanxuan-backend/internal/database"
	"xiaodiyanxuan-backend/internal/middleware"
	"xiaodiyanxuan-backend/internal/repository"
	"xiaodiyanxuan-backend/internal/services"
)

func NewRouter() (*gin.Engine, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return nil, err
	}

	if err := database.ConnectRedis(cfg); err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(middleware.Logger(), gin.Recovery())

	// Configure CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:8080"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	orderRepo := repository.NewOrderRepository(db)
	orderService := services.NewOrderService(orderRepo)
	commissionService := services.NewCommissionService(orderRepo)

	// 小程序端路径约定为 /api/orders/...，不带版本号
	apiGroup := router.Group("/api")
	{
		auth.RegisterRoutes(apiGroup)
		orderRoutes.RegisterRoutes(apiGroup,
			orderRoutes.NewHandler(orderService, commissionService),
			middleware.AuthMiddleware(),
			middleware.AdminAuthMiddleware(),
		)
	}

	return router, nil
}
