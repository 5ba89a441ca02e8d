package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "millorders/api/swagger" // swagger docs
	"millorders/internal/config"
	"millorders/internal/database"
	"millorders/internal/events"
	"millorders/internal/handler"
	"millorders/internal/metrics"
	"millorders/internal/middleware"
	"millorders/internal/repository"
	"millorders/internal/service"
	"millorders/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Mill Orders API
// @version         1.0
// @description     Order intake, approval and delivery tracking for a flour mill's sales team.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := config.NewLogger(os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load(logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	logger = config.NewLogger(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(cfg.DSN(), logger)
	if err != nil {
		logger.WithError(err).Fatal("Database connection failed")
	}
	logger.Info("Connected to PostgreSQL successfully")

	// Repositories
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	productRepo := repository.NewProductRepository(db)
	taxRuleRepo := repository.NewTaxRuleRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	visitRepo := repository.NewVisitRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	filterRepo := repository.NewFilterRepository(db)

	if err := database.Seed(ctx, roleRepo, taxRuleRepo, logger); err != nil {
		logger.WithError(err).Fatal("Failed to seed roles and tax rules")
	}

	// Realtime fan-out: websocket clients always, RabbitMQ when configured
	wsHub := websocket.NewHub(logger, cfg.CORSOrigins...)
	go wsHub.Run(ctx)

	publishers := []events.Publisher{events.NewHubPublisher(wsHub)}
	if cfg.RabbitMQURL != "" {
		rabbit, err := events.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			logger.WithError(err).Warn("RabbitMQ unavailable, order events stay in-process")
		} else {
			defer rabbit.Close()
			publishers = append(publishers, rabbit)
			logger.WithField("exchange", cfg.RabbitMQExchange).Info("Publishing order events to RabbitMQ")
		}
	}
	publisher := events.NewFanout(publishers...)

	// Services
	permissionService := service.NewPermissionService(roleRepo, cfg.PermissionCacheTTL)
	userService := service.NewUserService(userRepo, txManager, permissionService, service.TokenConfig{
		Secret:     []byte(cfg.JWTSecret),
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	})
	orderService := service.NewOrderService(orderRepo, customerRepo, productRepo, taxRuleRepo, auditRepo, txManager, publisher, logger)
	catalogService := service.NewCatalogService(productRepo, customerRepo)
	customerService := service.NewCustomerService(customerRepo, auditRepo, txManager)
	visitService := service.NewVisitService(visitRepo, customerRepo, auditRepo, txManager, logger)
	dashboardService := service.NewDashboardService(dashboardRepo)
	filterService := service.NewFilterService(filterRepo)
	auditService := service.NewAuditService(auditRepo)

	auth := middleware.NewAuth([]byte(cfg.JWTSecret), permissionService, cfg.IsRelease())

	// Handlers
	authHandler := handler.NewAuthHandler(userService, auth, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	staffHandler := handler.NewStaffHandler(userService, auth)
	orderHandler := handler.NewOrderHandler(orderService, auth)
	catalogHandler := handler.NewCatalogHandler(catalogService, auth)
	customerHandler := handler.NewCustomerHandler(customerService, auth)
	visitHandler := handler.NewVisitHandler(visitService, auth)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, auth)
	filterHandler := handler.NewFilterHandler(filterService, auth)
	auditHandler := handler.NewAuditHandler(auditService, auth)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.Metrics())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	router.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DEGRADED"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK", "ws_clients": wsHub.ClientCount()})
	})

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, []byte(cfg.JWTSecret))
	})

	authHandler.RegisterRoutes(router.Group(""))
	staffHandler.RegisterRoutes(router.Group(""))
	orderHandler.RegisterRoutes(router.Group(""))
	catalogHandler.RegisterRoutes(router.Group(""))
	customerHandler.RegisterRoutes(router.Group(""))
	visitHandler.RegisterRoutes(router.Group(""))
	dashboardHandler.RegisterRoutes(router.Group(""))
	filterHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	go runMaintenance(ctx, cfg.OverdueSweepInterval, orderService, userRepo, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
}

// runMaintenance flags overdue orders and prunes expired refresh tokens on every tick
func runMaintenance(ctx context.Context, interval time.Duration, orders service.OrderService, users repository.UserRepository, logger *logrus.Logger) {
	if interval <= 0 {
		logger.Warn("Overdue sweep disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := orders.MarkOverduePayments(ctx, now)
			if err != nil {
				logger.WithError(err).Error("Overdue sweep finished with errors")
			}
			if n > 0 {
				logger.WithField("orders", n).Info("Marked orders overdue")
			}
			pruned, err := users.DeleteExpiredRefreshTokens(ctx, now)
			if err != nil {
				logger.WithError(err).Warn("Failed to prune refresh tokens")
			} else if pruned > 0 {
				logger.WithField("tokens", pruned).Debug("Pruned expired refresh tokens")
			}
		}
	}
}
