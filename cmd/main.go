package main

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/tapolio/tapolio-server/config"
	"github.com/tapolio/tapolio-server/database"
	_ "github.com/tapolio/tapolio-server/docs"
	"github.com/tapolio/tapolio-server/internal/controller"
	assistantctrl "github.com/tapolio/tapolio-server/internal/controller/assistant"
	interviewctrl "github.com/tapolio/tapolio-server/internal/controller/interview"
	paymentctrl "github.com/tapolio/tapolio-server/internal/controller/payment"
	"github.com/tapolio/tapolio-server/internal/event"
	"github.com/tapolio/tapolio-server/internal/logger"
	"github.com/tapolio/tapolio-server/internal/metrics"
	"github.com/tapolio/tapolio-server/internal/middleware"
	"github.com/tapolio/tapolio-server/internal/ratelimit"
	"github.com/tapolio/tapolio-server/internal/repository"
	"github.com/tapolio/tapolio-server/internal/service"
	"github.com/tapolio/tapolio-server/internal/store"
	"go.uber.org/fx"
)

// @title Tapolio API
// @version 1.0
// @description Live interview assistant, mock interviews and credit payments.
// @host localhost:4000
// @BasePath /
// @schemes http https
func main() {
	logger.Init()

	app := fx.New(
		// Core
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			metrics.NewMetrics,
			NewEventPublisher,
			NewGinEngine,
		),

		// In-memory state and admission control
		fx.Provide(
			NewSessionStore,
			store.NewConversationStore,
			NewMemoryLimiter,
			NewLimiter,
		),

		// Repositories
		fx.Provide(
			repository.NewInterviewResultRepository,
			repository.NewPaymentEventRepository,
		),

		// Services
		fx.Provide(
			NewLLMService,
			service.NewAssistantService,
			service.NewInterviewService,
			func(cfg *config.Config) service.CheckoutGateway {
				return service.NewStripeGateway(cfg.StripeSecretKey())
			},
			func(
				gw service.CheckoutGateway,
				events repository.PaymentEventRepository,
				pub event.Publisher,
				m *metrics.Metrics,
				cfg *config.Config,
			) service.PaymentService {
				return service.NewPaymentService(gw, events, pub, m, service.PaymentConfig{
					BaseURL:       cfg.Server.PublicBaseURL,
					WebhookSecret: cfg.Stripe.WebhookSecret,
				})
			},
		),

		// Controllers
		fx.Provide(
			assistantctrl.NewAssistantController,
			interviewctrl.NewInterviewController,
			paymentctrl.NewPaymentController,
		),

		fx.Invoke(
			ConfigureLogger,
			database.AutoMigrate,
			RegisterGauges,
			StartJanitor,
			RegisterRoutes,
			StartServer,
			StartMetricsServer,
		),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Failed to stop application cleanly")
	}
}

func ConfigureLogger(cfg *config.Config) {
	logger.Configure(cfg)
}

func NewSessionStore(cfg *config.Config) *store.SessionStore {
	return store.NewSessionStore(store.SessionStoreConfig{
		TTL:          cfg.Session.TTL,
		Grace:        cfg.Session.Grace,
		MaxPerClient: cfg.Session.MaxPerClient,
	}, time.Now)
}

func NewMemoryLimiter(cfg *config.Config) *ratelimit.MemoryLimiter {
	return ratelimit.NewMemoryLimiter(ratelimit.Config{
		Window:      cfg.RateLimit.Window,
		MaxRequests: cfg.RateLimit.MaxRequests,
	}, time.Now)
}

// NewLimiter shares the window through Redis when REDIS_ADDR is set and keeps it in memory otherwise.
func NewLimiter(lc fx.Lifecycle, cfg *config.Config, mem *ratelimit.MemoryLimiter) ratelimit.Limiter {
	if cfg.Redis.Addr == "" {
		log.Info().Msg("Rate limiting with in-memory windows")
		return mem
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := rdb.Ping(ctx).Err(); err != nil {
				// the limiter fails open, so an unreachable Redis is not fatal
				log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis is not reachable")
				return nil
			}
			log.Info().Str("addr", cfg.Redis.Addr).Msg("Rate limiting with Redis")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return rdb.Close()
		},
	})
	return ratelimit.NewRedisLimiter(rdb, ratelimit.Config{
		Window:      cfg.RateLimit.Window,
		MaxRequests: cfg.RateLimit.MaxRequests,
	}, time.Now)
}

// NewLLMService releases the provider client on shutdown.
func NewLLMService(lc fx.Lifecycle, cfg *config.Config, m *metrics.Metrics) (service.LLMService, error) {
	llm, err := service.NewLLMService(cfg, m)
	if err != nil {
		return nil, err
	}
	if c, ok := llm.(io.Closer); ok {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return c.Close()
			},
		})
	}
	return llm, nil
}

func NewEventPublisher(lc fx.Lifecycle, cfg *config.Config) (event.Publisher, error) {
	pub, err := event.NewEventPublisher(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return pub.Close()
		},
	})
	return pub, nil
}

func NewGinEngine(cfg *config.Config, m *metrics.Metrics, limiter ratelimit.Limiter) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		log.Error().Err(err).Msg("Invalid TRUSTED_PROXIES, trusting none")
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.Metrics(m))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Next()
	})
	r.Use(middleware.BodyLimit(middleware.DefaultBodyLimit, paymentctrl.WebhookPath))
	r.Use(middleware.RateLimit(limiter, m, "/health", "/metrics", paymentctrl.WebhookPath))

	r.NoRoute(controller.NotFound)
	if cfg.Server.MetricsPort == "" && !cfg.IsProduction() {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	if !cfg.IsProduction() {
		// URL: http://localhost:PORT/swagger/index.html
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	return r
}

func RegisterRoutes(
	router *gin.Engine,
	cfg *config.Config,
	assistantCtrl *assistantctrl.AssistantController,
	interviewCtrl *interviewctrl.InterviewController,
	paymentCtrl *paymentctrl.PaymentController,
) {
	assistantCtrl.RegisterRoutes(router, !cfg.IsProduction())
	interviewCtrl.RegisterRoutes(router)
	paymentCtrl.RegisterRoutes(router)
}

func StartServer(lc fx.Lifecycle, router *gin.Engine, cfg *config.Config) {
	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Tapolio server starting on port %s (%s)", cfg.Server.Port, cfg.Env)
			if !cfg.IsProduction() {
				log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			}
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

// NewMetricsServer serves /metrics on METRICS_PORT, away from the public router.
// It returns nil when no port is configured.
func NewMetricsServer(cfg *config.Config, m *metrics.Metrics) *http.Server {
	if cfg.Server.MetricsPort == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return &http.Server{
		Addr:              ":" + cfg.Server.MetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func StartMetricsServer(lc fx.Lifecycle, cfg *config.Config, m *metrics.Metrics) {
	server := NewMetricsServer(cfg, m)
	if server == nil {
		if cfg.IsProduction() {
			log.Warn().Msg("METRICS_PORT is not set, metrics are not exposed")
		}
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Metrics available on port %s", cfg.Server.MetricsPort)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error().Err(err).Msg("Metrics server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func StartJanitor(lc fx.Lifecycle, cfg *config.Config, sessions *store.SessionStore, mem *ratelimit.MemoryLimiter) {
	janitor := store.NewJanitor(cfg.Session.SweepInterval, sessions, mem)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			janitor.Start()
			log.Info().Dur("interval", cfg.Session.SweepInterval).Msg("Janitor started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			janitor.Stop()
			return nil
		},
	})
}

func RegisterGauges(m *metrics.Metrics, sessions *store.SessionStore, mem *ratelimit.MemoryLimiter) {
	m.RegisterGauge("interview_sessions_active", "Interview sessions held in memory.", func() float64 {
		return float64(sessions.Len())
	})
	m.RegisterGauge("rate_limit_clients", "Clients tracked by the in-memory rate limiter.", func() float64 {
		return float64(mem.Clients())
	})
}
