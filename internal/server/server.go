package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"faishion-storefront/internal/backend"
	"faishion-storefront/internal/config"
	"faishion-storefront/internal/database"
	"faishion-storefront/internal/domain"
	"faishion-storefront/internal/metrics"
	custommiddleware "faishion-storefront/internal/middleware"
	"faishion-storefront/internal/qnaview"
	"faishion-storefront/internal/repository"
	"faishion-storefront/internal/service"
	"faishion-storefront/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client
	purger Purger
}

// NewServer wires the view-state store, backend client, services and routes.
// db is required for the postgres store and redisClient for the redis store;
// without a redis client rate limiting is off.
func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB, redisClient *redis.Client) (*Server, error) {
	states, purger, err := newViewStateRepository(cfg.ViewState, db, redisClient)
	if err != nil {
		return nil, err
	}

	m := metrics.New(prometheus.NewRegistry())

	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.LoggingMiddleware(logger, m))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.IsDevelopment()))

	// Health check endpoint
	router.Get("/health", healthHandler(db, redisClient))

	// Initialize backend client
	client := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, logger, backend.WithObserver(m))

	// Initialize services
	panelService := service.NewProductPanelService(client, states, m, logger)
	qnaService := service.NewQnaService(client, states, qnaview.NewGuard(), m, logger)

	// Initialize handlers
	panelHandler := transport.NewProductPanelHandler(panelService, qnaService, logger)
	qnaHandler := transport.NewQnaHandler(qnaService, logger)

	// Create auth middleware; rate limiting runs after it so clients are keyed by subject
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	protected := authMiddleware
	if redisClient != nil {
		limiter := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         cfg.ViewState.Prefix + ":ratelimit",
			MutatingOnly:      true,
		}, logger)
		protected = func(next http.Handler) http.Handler {
			return authMiddleware(limiter(next))
		}
	}

	// Register routes
	panelHandler.RegisterRoutes(router, protected)
	qnaHandler.RegisterRoutes(router, protected)

	router.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(custommiddleware.RequireRole([]string{domain.RoleAdmin}, logger))
		r.Method(http.MethodGet, "/metrics", m.Handler())
	})

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
		purger: purger,
	}

	return server, nil
}

func newViewStateRepository(cfg config.ViewStateConfig, db *sql.DB, redisClient *redis.Client) (repository.ViewStateRepository, Purger, error) {
	switch cfg.Driver {
	case config.StoreMemory, "":
		return repository.NewMemoryViewStateRepository(cfg.TTL), nil, nil
	case config.StoreRedis:
		if redisClient == nil {
			return nil, nil, errors.New("redis view-state store needs a redis client")
		}
		return repository.NewRedisViewStateRepository(redisClient, cfg.Prefix, cfg.TTL), nil, nil
	case config.StorePostgres:
		if db == nil {
			return nil, nil, errors.New("postgres view-state store needs a database")
		}
		repo := repository.NewPostgresViewStateRepository(db, cfg.TTL)
		return repo, repo, nil
	}
	return nil, nil, fmt.Errorf("unknown view-state store driver %q", cfg.Driver)
}

func healthHandler(db *sql.DB, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{"status": "ok"}
		status := http.StatusOK

		if db != nil {
			dbHealth := database.Health(r.Context(), db)
			body["database"] = dbHealth
			if dbHealth["status"] != "up" {
				body["status"] = "degraded"
				status = http.StatusServiceUnavailable
			}
		}
		if redisClient != nil {
			ctx, cancel := context.WithTimeout(r.Context(), time.Second)
			defer cancel()
			if err := redisClient.Ping(ctx).Err(); err != nil {
				body["redis"] = map[string]string{"status": "down", "error": err.Error()}
				body["status"] = "degraded"
				status = http.StatusServiceUnavailable
			} else {
				body["redis"] = map[string]string{"status": "up"}
			}
		}

		custommiddleware.RespondWithJSON(w, status, body)
	}
}

// RunJanitor purges expired view states until ctx is done. It returns
// immediately for stores that expire entries on their own.
func (s *Server) RunJanitor(ctx context.Context) {
	if s.purger == nil {
		return
	}
	runPurgeLoop(ctx, s.purger, s.config.ViewState.PurgeInterval, s.logger)
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
