package main

import (
	"context"
	"fmt"
	"laptopVision/app/echo-server/router"
	"laptopVision/business/orders"
	"laptopVision/business/payments"
	"laptopVision/business/product"
	"laptopVision/business/review"
	userService "laptopVision/business/user"
	"laptopVision/internal/middleware"
	"laptopVision/internal/repository/cloudinary"
	"laptopVision/internal/repository/notification"
	psqlRepo "laptopVision/internal/repository/postgres"
	redisRepo "laptopVision/internal/repository/redis"
	"laptopVision/internal/repository/sslcommerz"
	"laptopVision/internal/rest"
	"laptopVision/pkg/config"
	"laptopVision/pkg/database"
	redisdb "laptopVision/pkg/database/redis"
	"laptopVision/pkg/logger"
	"laptopVision/pkg/metrics"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting LaptopVision", "version", cfg.App.Version)

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	logger.Info("Database connected successfully")

	redisClient, err := redisdb.NewRedisClient(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to redis", "error", err)
	}
	defer func() {
		_ = redisdb.CloseRedisClient(redisClient)
	}()

	metrics.Init()

	// Init notification from mailjet
	mailjetEmail := notification.NewMailjetRepository(
		notification.MailjetConfig{
			MailjetBaseURL:           cfg.Mailjet.MailjetBaseUrl,
			MailjetBasicAuthUsername: cfg.Mailjet.MailjetBasicAuthUsername,
			MailjetBasicAuthPassword: cfg.Mailjet.MailjetBasicAuthPassword,
			MailjetSenderEmail:       cfg.Mailjet.MailjetSenderEmail,
			MailjetSenderName:        cfg.Mailjet.MailjetSenderName,
		},
	)

	gatewayRepo := sslcommerz.NewSSLCommerzRepository(
		sslcommerz.SSLCommerzConfig{
			StoreID:       cfg.SSLCommerz.StoreID,
			StorePassword: cfg.SSLCommerz.StorePassword,
			SessionURL:    cfg.SSLCommerz.SessionURL,
			Currency:      cfg.SSLCommerz.Currency,
			BackendURL:    cfg.App.BackendURL,
		},
	)

	imageRepo := cloudinary.NewCloudinaryRepository(
		cloudinary.CloudinaryConfig{
			CloudName: cfg.Cloudinary.CloudName,
			APIKey:    cfg.Cloudinary.APIKey,
			APISecret: cfg.Cloudinary.APISecret,
			Folder:    cfg.Cloudinary.Folder,
		},
	)

	// Init validate
	validate := validator.New()

	// Init repo
	userRepo := psqlRepo.NewUserRepository(db)
	ordersRepo := psqlRepo.NewOrdersRepository(db)
	productsRepo := psqlRepo.NewProductRepository(db)
	reviewsRepo := psqlRepo.NewReviewRepository(db)
	codesRepo := psqlRepo.NewVerificationCodeRepository(db)
	tokenRepo := redisRepo.NewTokenRepository(redisClient)

	// Init service
	usersService := userService.NewUserService(userRepo, codesRepo, mailjetEmail, tokenRepo, imageRepo, validate)
	ordersService := orders.NewOrdersService(ordersRepo, userRepo, mailjetEmail)
	paymentsService := payments.NewPaymentsService(ordersRepo, userRepo, gatewayRepo, mailjetEmail)
	productsService := product.NewProductService(productsRepo, imageRepo)
	reviewsService := review.NewReviewService(reviewsRepo, ordersRepo, productsRepo, imageRepo)

	// Init handler
	userHandler := rest.NewUserHandler(usersService)
	ordersHandler := rest.NewOrdersHandler(ordersService)
	paymentsHandler := rest.NewPaymentsHandler(paymentsService)
	productHandler := rest.NewProductHandler(productsService)
	reviewHandler := rest.NewReviewHandler(reviewsService)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Auth middleware
	authRequired := middleware.AuthMiddleware()
	adminOnly := middleware.AdminOnly()

	// Setup routes
	api := e.Group("/api/v1")
	router.SetupAuthRoutes(api, userHandler, authRequired)
	router.SetupUserRoutes(api, userHandler, authRequired, adminOnly)
	router.SetupProductRoutes(api, productHandler, authRequired, adminOnly)
	router.SetOrdersRoutes(api, ordersHandler, authRequired, adminOnly)
	router.SetPaymentsRoutes(api, paymentsHandler, authRequired)
	router.SetupReviewRoutes(api, reviewHandler, authRequired)

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

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
