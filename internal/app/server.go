// internal/app/server.go
package app

import (
	"context"
	"fmt"

	"crm-service/internal/config"
	"crm-service/internal/db"
	"crm-service/internal/events"
	eventsHandler "crm-service/internal/handlers/events"
	leadHandler "crm-service/internal/handlers/lead"
	userHandler "crm-service/internal/handlers/user"
	"crm-service/internal/middleware"
	"crm-service/internal/pkg/jwt"
	"crm-service/internal/pkg/ratelimit"
	"crm-service/internal/repository/postgres"
	leadService "crm-service/internal/service/lead"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
}

func NewServer() *Server {
	cfg := config.Load()
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine}
}

func (s *Server) Start(ctx context.Context) error {
	// ----- Logger -----
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()
	s.logger = logger

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	logger.Info("connected to PostgreSQL")

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       0,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("connected to Redis")

	// ----- JWT Verifier -----
	verifier, err := jwt.Load(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT verifier: %w", err)
	}

	// ----- Rate Limiter -----
	intakeLimiter := ratelimit.NewLimiter(redisClient, s.cfg.IntakeMaxRequests, s.cfg.IntakeWindow)

	// ----- Event Hub -----
	hub := events.NewHub(logger)
	go hub.Run(ctx)

	// ----- Repositories -----
	leadRepo := postgres.NewLeadRepository(pool)
	userRepo := postgres.NewUserRepository(pool)

	// ----- Services -----
	leadSvc := leadService.NewService(leadRepo, userRepo, hub, logger)

	// ----- Handlers -----
	leadHandlerInst := leadHandler.NewLeadHandler(leadSvc)
	userHandlerInst := userHandler.NewUserHandler(userRepo)
	wsHandlerInst := eventsHandler.NewWebSocketHandler(hub, verifier, logger)

	// ----- Middlewares -----
	authMiddleware := middleware.NewAuthMiddleware(verifier)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(),
	)

	// ----- Router -----
	handlers := &Handlers{
		LeadHandler:    leadHandlerInst,
		UserHandler:    userHandlerInst,
		WSHandler:      wsHandlerInst,
		AuthMiddleware: authMiddleware,
		IntakeLimit:    middleware.RateLimitMiddleware(intakeLimiter, logger),
	}
	SetupRouter(s.engine, handlers)

	// ----- Start HTTP -----
	logger.Info("server running", zap.String("addr", s.cfg.HTTPAddr))
	return s.engine.Run(s.cfg.HTTPAddr)
}
