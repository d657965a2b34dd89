package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"wishyoulucky/internal/cart"
	"wishyoulucky/internal/config"
	"wishyoulucky/internal/database"
	"wishyoulucky/internal/events"
	"wishyoulucky/internal/mailer"
	custommiddleware "wishyoulucky/internal/middleware"
	"wishyoulucky/internal/pkg/clock"
	"wishyoulucky/internal/realtime"
	"wishyoulucky/internal/repository"
	"wishyoulucky/internal/reviews"
	"wishyoulucky/internal/service"
	"wishyoulucky/internal/storage"
	"wishyoulucky/internal/telemetry"
	"wishyoulucky/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deps are the long-lived resources the API is built from. The server owns
// them after NewServer and releases them in Close.
type Deps struct {
	DB        database.Service
	Redis     *redis.Client
	Publisher events.Publisher
	Sender    mailer.Sender
	Store     *storage.ImageStore
	Hub       *realtime.Hub
	Clock     clock.Clock
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	deps   Deps
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Deps) *Server {
	if deps.Clock == nil {
		deps.Clock = clock.NewRealClock()
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NopPublisher{}
	}
	if deps.Hub == nil {
		deps.Hub = realtime.NewHub(0, logger)
	}

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		deps:   deps,
	}
	server.Handler = server.routes()
	// Shutdown does not cancel in-flight requests; end the SSE streams explicitly.
	server.RegisterOnShutdown(deps.Hub.Close)

	return server
}

func (s *Server) routes() http.Handler {
	cfg, logger, deps := s.config, s.logger, s.deps
	db := deps.DB.DB()
	loc := cfg.Shop.Location()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	productRepo := repository.NewProductRepository(db)
	imageRepo := repository.NewProductImageRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	wishlistRepo := repository.NewWishlistRepository(db)
	bannerRepo := repository.NewBannerRepository(db)
	extraRepo := repository.NewProductExtraRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	cartStore := cart.NewRedisStore(deps.Redis, cfg.Shop.CartTTL, logger)

	// Services
	orderMailer := mailer.New(deps.Sender, cfg.Mail.From, cfg.Mail.OrderStatusURL, logger)
	userService := service.NewUserService(userRepo, refreshTokenRepo, service.TokenConfig{
		Secret:     cfg.JWT.Secret,
		AccessTTL:  time.Duration(cfg.JWT.AccessExpiry) * time.Minute,
		RefreshTTL: time.Duration(cfg.JWT.RefreshExpiry) * 24 * time.Hour,
	}, deps.Clock)
	catalogService := service.NewCatalogService(productRepo, imageRepo, categoryRepo, logger)
	cartService := service.NewCartService(cartStore, productRepo)
	orderService := service.NewOrderService(service.OrderDeps{
		Orders:    orderRepo,
		Products:  productRepo,
		Users:     userRepo,
		Carts:     cartStore,
		Files:     deps.Store,
		Publisher: deps.Publisher,
		Notifier:  orderMailer,
		Clock:     deps.Clock,
		Logger:    logger,
	}, cfg.Shop.OrderPrefix, loc)
	wishlistService := service.NewWishlistService(wishlistRepo)
	bannerService := service.NewBannerService(bannerRepo, logger)
	reviewService := reviews.NewService(reviews.Default(), deps.Clock, loc)
	extraService := service.NewProductExtraService(extraRepo, logger)
	noticeService := service.NewProductNoticeService(notificationRepo, orderMailer, deps.Clock, logger)

	// Handlers
	userHandler := transport.NewUserHandler(userService, orderService, logger)
	catalogHandler := transport.NewCatalogHandler(catalogService, logger)
	cartHandler := transport.NewCartHandler(cartService, logger)
	orderHandler := transport.NewOrderHandler(orderService, logger)
	wishlistHandler := transport.NewWishlistHandler(wishlistService, logger)
	contentHandler := transport.NewContentHandler(bannerService, reviewService, logger)
	uploadHandler := transport.NewUploadHandler(deps.Store, logger)
	notificationHandler := transport.NewNotificationHandler(orderMailer, logger)
	extraHandler := transport.NewProductExtraHandler(extraService, logger)
	noticeHandler := transport.NewProductNoticeHandler(noticeService, logger)

	// Middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	optionalAuth := custommiddleware.OptionalAuthMiddleware(cfg.JWT.Secret, logger)
	admin := []func(http.Handler) http.Handler{authMiddleware, custommiddleware.RequireAdmin(logger)}
	checkoutLimit := custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.CheckoutPerMinute,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit:checkout",
	}, logger)
	webhookLimit := custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.WebhookPerMinute,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit:webhook",
	}, logger)

	router := chi.NewRouter()
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	if cfg.Telemetry.Enabled {
		router.Use(telemetry.Middleware(cfg.Telemetry.ServiceName))
	}

	router.Get("/health", s.health)
	router.Handle(deps.Store.PublicPath()+"/*", deps.Store.Handler())

	// The webhook answers its own preflight, so it stays outside the CORS group.
	notificationHandler.RegisterRoutes(router, webhookLimit)

	router.Group(func(r chi.Router) {
		r.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.Env == "development"))

		userHandler.RegisterRoutes(r, authMiddleware)
		catalogHandler.RegisterRoutes(r, optionalAuth, admin...)
		cartHandler.RegisterRoutes(r)
		orderHandler.RegisterRoutes(r, transport.OrderRoutes{
			OptionalAuth:  optionalAuth,
			CheckoutLimit: checkoutLimit,
			Admin:         admin,
			Stream:        transport.NewOrderStreamHandler(deps.Hub, orderService, logger),
		})
		wishlistHandler.RegisterRoutes(r, authMiddleware)
		contentHandler.RegisterRoutes(r, admin...)
		uploadHandler.RegisterRoutes(r, admin...)
		extraHandler.RegisterRoutes(r, admin...)
		noticeHandler.RegisterRoutes(r, admin...)
	})

	return router
}

// health reports database and redis reachability.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	dbHealth := s.deps.DB.Health(ctx)
	if dbHealth["status"] != "up" {
		status = http.StatusServiceUnavailable
	}

	redisStatus := "up"
	if err := s.deps.Redis.Ping(ctx).Err(); err != nil {
		redisStatus = "down"
		status = http.StatusServiceUnavailable
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	custommiddleware.RespondWithJSON(w, status, map[string]interface{}{
		"status":   overall,
		"database": dbHealth,
		"redis":    redisStatus,
	})
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.deps.Publisher != nil {
		s.deps.Publisher.Close()
	}

	if s.deps.Redis != nil {
		if err := s.deps.Redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	// Close database connection
	if s.deps.DB != nil {
		if err := s.deps.DB.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	_ = s.logger.Sync()
	return nil
}
