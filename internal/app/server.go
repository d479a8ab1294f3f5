// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"inboker-service/internal/billing"
	"inboker-service/internal/config"
	"inboker-service/internal/db"
	billingHandler "inboker-service/internal/handlers/billing"
	bookingHandler "inboker-service/internal/handlers/booking"
	catalogHandler "inboker-service/internal/handlers/catalog"
	crmHandler "inboker-service/internal/handlers/crm"
	profileHandler "inboker-service/internal/handlers/profile"
	teamHandler "inboker-service/internal/handlers/team"
	wsHandler "inboker-service/internal/handlers/websocket"
	workspaceHandler "inboker-service/internal/handlers/workspace"
	"inboker-service/internal/middleware"
	"inboker-service/internal/pkg/jwt"
	"inboker-service/internal/pkg/metrics"
	"inboker-service/internal/pkg/session"
	"inboker-service/internal/repository/postgres"
	bookingUsecase "inboker-service/internal/service/booking"
	catalogUsecase "inboker-service/internal/service/catalog"
	crmUsecase "inboker-service/internal/service/crm"
	"inboker-service/internal/service/email"
	profileUsecase "inboker-service/internal/service/profile"
	subscriptionUsecase "inboker-service/internal/service/subscription"
	teamUsecase "inboker-service/internal/service/team"
	workspaceUsecase "inboker-service/internal/service/workspace"
	"inboker-service/internal/websocket"
	wsHandlers "inboker-service/internal/websocket/handler"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server
	stop  context.CancelFunc

	bookings *bookingUsecase.Service
}

func NewServer(cfg config.AppConfig) (*Server, error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	return &Server{cfg: cfg, engine: gin.New(), logger: logger}, nil
}

func newLogger(cfg config.AppConfig) (*zap.Logger, error) {
	if cfg.Env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Start wires every dependency and serves HTTP until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	logger := s.logger
	ctx, s.stop = context.WithCancel(ctx)

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, s.cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	s.pool = pool
	logger.Info("connected to PostgreSQL")

	if s.cfg.DB.AutoMigrate {
		if err := db.Migrate(ctx, pool, s.cfg.DB.MigrationsTable, logger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(ctx, db.RedisConfig{
		Address:  s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	s.redis = redisClient
	logger.Info("connected to Redis")

	m := metrics.New()

	// ----- Repositories -----
	dbWrapper := postgres.NewDB(pool)
	profileRepo := postgres.NewProfileRepository(pool)
	subscriptionRepo := postgres.NewSubscriptionRepository(pool)
	workspaceRepo := postgres.NewWorkspaceRepository(pool)
	serviceRepo := postgres.NewServiceRepository(pool)
	teamRepo := postgres.NewTeamRepository(pool)
	clientRepo := postgres.NewClientRepository(pool)
	bookingRepo := postgres.NewBookingRepository(pool)

	// ----- Identity -----
	verifier := jwt.NewVerifier(s.cfg.Auth.JWTSecret, s.cfg.Auth.Issuer, s.cfg.Auth.Audience)
	sessionManager := session.NewManager(redisClient, profileRepo, logger)
	authenticator := session.NewAuthenticator(verifier, sessionManager)
	rateLimiter := session.NewRateLimiter(redisClient)

	// ----- Email -----
	var mailer email.Sender
	if s.cfg.Postmark.Enabled() {
		mailer = email.NewPostmarkSender(
			s.cfg.Postmark.ServerToken,
			s.cfg.Postmark.AccountToken,
			s.cfg.Postmark.From,
			s.cfg.Postmark.Support,
		)
	} else {
		logger.Warn("POSTMARK_SERVER_TOKEN not set, emails will only be logged")
		mailer = email.NewLogSender(logger)
	}
	templates := email.NewTemplates(s.cfg.BaseURL)

	// ----- Billing provider -----
	stripeProvider := billing.NewStripeProvider(s.cfg.Stripe.SecretKey, s.cfg.Stripe.WebhookSecret)

	// ----- WebSocket Hub -----
	hub := websocket.NewHub(authenticator, logger)
	hub.SetGauge(m)
	go hub.Run(ctx)

	// ----- Services (Usecases) -----
	profileService := profileUsecase.NewService(profileRepo, sessionManager, logger)
	workspaceService := workspaceUsecase.NewService(workspaceRepo, serviceRepo, logger)
	catalogService := catalogUsecase.NewService(serviceRepo, workspaceService, logger)
	teamService := teamUsecase.NewService(teamRepo, workspaceService, logger)
	crmService := crmUsecase.NewService(clientRepo, workspaceService, logger)
	subscriptionService := subscriptionUsecase.NewService(
		subscriptionRepo,
		stripeProvider,
		profileRepo,
		mailer,
		templates,
		hub,
		subscriptionUsecase.Config{
			PriceMonthly:  s.cfg.Stripe.PriceMonthly,
			PriceAnnually: s.cfg.Stripe.PriceAnnually,
			BaseURL:       s.cfg.BaseURL,
			Production:    s.cfg.IsProduction(),
		},
		logger,
	)
	bookingService := bookingUsecase.NewService(bookingUsecase.Deps{
		Bookings:   bookingRepo,
		Tx:         dbWrapper,
		Clients:    clientRepo,
		Workspaces: workspaceRepo,
		Services:   serviceRepo,
		Staff:      teamRepo,
		Profiles:   profileRepo,
		Mailer:     mailer,
		Templates:  templates,
		Notifier:   hub,
	}, logger)
	s.bookings = bookingService

	hub.RegisterHandler(wsHandlers.NewBookingHandler(bookingService))

	// ----- Handlers -----
	handlers := &Handlers{
		ProfileHandler:   profileHandler.NewProfileHandler(profileService),
		WorkspaceHandler: workspaceHandler.NewWorkspaceHandler(workspaceService),
		ServiceHandler:   catalogHandler.NewServiceHandler(catalogService),
		TeamHandler:      teamHandler.NewTeamHandler(teamService),
		ClientHandler:    crmHandler.NewClientHandler(crmService),
		BookingHandler:   bookingHandler.NewBookingHandler(bookingService, m),
		BillingHandler:   billingHandler.NewBillingHandler(subscriptionService, stripeProvider, s.cfg.Cron.Secret, m, logger),
		WSHandler:        wsHandler.NewWebSocketHandler(hub, s.cfg.CORSOrigins, s.cfg.Auth.CookieName, logger),
		AuthMiddleware:   middleware.NewAuthMiddleware(authenticator, s.cfg.Auth.CookieName),
		BookingLimit:     middleware.RateLimit(rateLimiter, "public-booking", s.cfg.Booking.RateLimit, s.cfg.Booking.RateWindow, logger),
		Metrics:          m,
		Health:           healthCheck(dbWrapper, redisClient),
	}

	// ----- Middlewares -----
	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger, m),
		middleware.CORSMiddleware(s.cfg.CORSOrigins),
	)

	SetupRouter(s.engine, handlers)

	// ----- Start HTTP -----
	s.http = &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("server running", zap.String("addr", s.cfg.HTTPAddr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains HTTP and pending booking emails, stops the hub and closes
// the pools.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.http != nil {
		err = s.http.Shutdown(ctx)
	}
	if s.bookings != nil {
		if derr := s.bookings.Drain(ctx); derr != nil {
			s.logger.Warn("booking emails still in flight at shutdown", zap.Error(derr))
		}
	}
	if s.stop != nil {
		s.stop()
	}
	if s.redis != nil {
		if cerr := s.redis.Close(); cerr != nil {
			s.logger.Warn("failed to close redis", zap.Error(cerr))
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
	_ = s.logger.Sync()
	return err
}

func healthCheck(database *postgres.DB, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"status": "ok", "database": "ok", "redis": "ok"}
		code := http.StatusOK
		if err := database.Ping(ctx); err != nil {
			status["status"], status["database"] = "degraded", err.Error()
			code = http.StatusServiceUnavailable
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			status["status"], status["redis"] = "degraded", err.Error()
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	}
}
