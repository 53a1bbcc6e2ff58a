package main

import (
	"context"
	"fmt"
	"log"
	"myJara/app/echo-server/router"
	"myJara/business/category"
	"myJara/business/chat"
	"myJara/business/product"
	"myJara/business/store"
	userService "myJara/business/user"
	"myJara/internal/middleware"
	"myJara/internal/repository/memory"
	psqlRepo "myJara/internal/repository/postgres"
	redisRepo "myJara/internal/repository/redis"
	"myJara/internal/rest"
	"myJara/pkg/config"
	"myJara/pkg/database"
	redisClient "myJara/pkg/database/redis"
	"myJara/pkg/logger"
	"myJara/pkg/metrics"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	defer func() { _ = logger.Sync() }()
	logger.Info("Starting MyJara", "version", cfg.App.Version, "env", cfg.App.Environment)

	metrics.Init()

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	logger.Info("Database connected successfully")

	// Realtime feed: redis pub/sub across instances, in-process otherwise
	var (
		feed chat.MessageFeed
		rdb  *redis.Client
	)
	if cfg.Redis.Enabled {
		rdb, err = redisClient.NewRedisClient(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to redis", "error", err)
		}
		feed = redisRepo.NewRoomFeed(rdb, cfg.Chat.SendBufferSize)
		logger.Info("Redis connected successfully")
	} else {
		feed = memory.NewRoomFeed(cfg.Chat.SendBufferSize)
		logger.Warn("Redis disabled, chat feed is local to this instance")
	}

	// Init validate
	validate := validator.New()

	// Init repo
	userRepo := psqlRepo.NewUserRepository(db)
	storeRepo := psqlRepo.NewStoreRepository(db)
	productRepo := psqlRepo.NewProductRepository(db)
	categoryRepo := psqlRepo.NewCategoryRepository(db)
	chatRoomRepo := psqlRepo.NewChatRoomRepository(db)
	chatMessageRepo := psqlRepo.NewChatMessageRepository(db)

	// Init service
	userService := userService.NewUserService(userRepo, validate)
	storeService := store.NewStoreService(storeRepo, validate, cfg.Store.MaxLocationAccuracyMeters)
	productService := product.NewProductService(productRepo, storeRepo, product.Config{
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxLimit:     cfg.Search.MaxLimit,
		RankWindow:   cfg.Search.RankWindow,
	})
	categoryService := category.NewCategoryService(categoryRepo)
	chatService := chat.NewChatService(chatRoomRepo, chatMessageRepo, storeRepo, userRepo, feed, chat.Config{
		PreviewLength:    cfg.Chat.PreviewLength,
		MaxMessageLength: cfg.Chat.MaxMessageLength,
	})

	// Init handler
	userHandler := rest.NewUserHandler(userService)
	storeHandler := rest.NewStoreHandler(storeService)
	productHandler := rest.NewProductHandler(productService)
	categoryHandler := rest.NewCategoryHandler(categoryService)
	chatHandler := rest.NewChatHandler(chatService, cfg.Server.AllowOrigins, cfg.Chat.SendBufferSize)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	authRequired := middleware.AuthMiddleware(cfg.JWT.SecretKey)
	adminOnly := middleware.AdminOnly()

	// Setup routes
	router.SetupOpsRoutes(e, cfg.App.Version)
	api := e.Group("/api/v1")
	router.SetupUserRoutes(api, userHandler, authRequired)
	router.SetupStoreRoutes(api, storeHandler, authRequired)
	router.SetupProductRoutes(api, productHandler, authRequired)
	router.SetupCategoryRoutes(api, categoryHandler, authRequired, adminOnly)
	router.SetupChatRoutes(api, chatHandler, authRequired)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	if err := redisClient.CloseRedisClient(rdb); err != nil {
		logger.Error("Redis close error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("Server stopped")
}
