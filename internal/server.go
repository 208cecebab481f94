package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/miifit/backend/internal/advice"
	"github.com/miifit/backend/internal/auth"
	"github.com/miifit/backend/internal/config"
	"github.com/miifit/backend/internal/customers"
	"github.com/miifit/backend/internal/db"
	"github.com/miifit/backend/internal/drafts"
	"github.com/miifit/backend/internal/meals"
	"github.com/miifit/backend/internal/middleware"
	"github.com/miifit/backend/internal/misc"
	"github.com/miifit/backend/internal/research"
	"github.com/miifit/backend/internal/stats"
	"github.com/miifit/backend/internal/telemetry/metrics"
	"github.com/miifit/backend/internal/telemetry/tracing"
	"github.com/miifit/backend/internal/training"
	"github.com/miifit/backend/internal/weights"

	pgxpoolprometheus "github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

const (
	serviceName = "miifit-backend"

	sessionCleanupInterval = 30 * time.Minute
	lifeSignalInterval     = time.Minute
)

type Server struct {
	config      *config.Config
	admin       auth.Admin
	versionInfo string

	httpServer    *http.Server
	metricsServer *http.Server

	dbPool         *pgxpool.Pool
	redisClient    *redis.Client
	authService    *auth.Service
	promRegistry   *prometheus.Registry
	metricsManager *metrics.Manager

	adviceClient   *advice.Client
	researchClient *research.Client

	tracingShutdown func()
}

type NewServerParams struct {
	Config      *config.Config
	Admin       auth.Admin
	VersionInfo string

	RedisPassword string
	AdviceAPIKey  string
}

func NewServer(ctx context.Context, params NewServerParams) (*Server, error) {
	cfg := params.Config

	tracingEnabled := cfg.Environment == "production"
	tracingShutdown, err := tracing.Setup(tracingEnabled, serviceName)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         cfg.PostgresHost,
		DBPort:         cfg.PostgresPort,
		DBName:         cfg.PostgresDBName,
		TracingEnabled: tracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("create db pool: %w", err)
	}
	if err := dbPool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: params.RedisPassword,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	poolCollector := pgxpoolprometheus.NewCollector(dbPool, map[string]string{"db_name": cfg.PostgresDBName})
	promRegistry := metrics.SetupPrometheus(poolCollector)
	metricsManager := metrics.NewManager("miifit", "backend", promRegistry)

	return &Server{
		config:          cfg,
		admin:           params.Admin,
		versionInfo:     params.VersionInfo,
		dbPool:          dbPool,
		redisClient:     redisClient,
		authService:     auth.NewService(auth.DefaultTTL, redisClient),
		promRegistry:    promRegistry,
		metricsManager:  metricsManager,
		adviceClient:    advice.NewClient(cfg.AdviceAPIURL, params.AdviceAPIKey, cfg.AdviceModel),
		researchClient:  research.NewClient(cfg.ResearchAPIURL),
		tracingShutdown: tracingShutdown,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	cfg := s.config

	customersRepo := customers.NewRepo(s.dbPool)
	weightsRepo := weights.NewRepo(s.dbPool)
	trainingRepo := training.NewRepo(s.dbPool)
	mealsRepo := meals.NewRepo(s.dbPool)

	analyzer := stats.NewAnalyzer(trainingRepo, weightsRepo, mealsRepo)
	adviceCache := advice.NewCache(s.redisClient, time.Duration(cfg.AdviceCacheTTLHours)*time.Hour)
	draftsStore := drafts.NewStore(s.redisClient, time.Duration(cfg.DraftTTLDays)*24*time.Hour)

	customersHandler := customers.NewHandler(customersRepo, s.metricsManager)
	weightsHandler := weights.NewHandler(weightsRepo, s.metricsManager)
	trainingHandler := training.NewHandler(trainingRepo, s.metricsManager)
	mealsHandler := meals.NewHandler(mealsRepo, s.metricsManager)
	statsHandler := stats.NewHandler(analyzer)
	adviceHandler := advice.NewHandler(s.adviceClient, analyzer, adviceCache, s.metricsManager)
	researchHandler := research.NewHandler(s.researchClient)
	draftsHandler := drafts.NewHandler(draftsStore)
	miscHandler := misc.NewHandler(s.admin, s.authService, s.versionInfo)

	r := mux.NewRouter()

	r.HandleFunc("/", miscHandler.HandleRoot).Methods("GET")
	r.HandleFunc("/version", miscHandler.HandleVersion).Methods("GET")

	authRouter := r.PathPrefix("/a").Subrouter()
	authRouter.HandleFunc("/login", miscHandler.HandleLogin).Methods("POST", "OPTIONS")
	authRouter.HandleFunc("/logout", miscHandler.HandleLogout).Methods("POST", "OPTIONS")
	authRouter.Use(middleware.RateLimit(
		redis_rate.NewLimiter(s.redisClient),
		"auth",
		cfg.LoginRateLimitAllowedPerMin,
		s.metricsManager,
	))

	customersRouter := r.PathPrefix("/customers").Subrouter()
	customersRouter.HandleFunc("", customersHandler.HandleRegister).Methods("POST", "OPTIONS")
	customersRouter.HandleFunc("", customersHandler.HandleList).Methods("GET", "OPTIONS")
	customersRouter.HandleFunc("/{id}", customersHandler.HandleGet).Methods("GET", "OPTIONS")
	customersRouter.HandleFunc("/{id}", customersHandler.HandleUpdate).Methods("PUT", "OPTIONS")
	customersRouter.HandleFunc("/{id}", customersHandler.HandleDelete).Methods("DELETE", "OPTIONS")

	customersRouter.HandleFunc("/{customerId}/weights", weightsHandler.HandleAdd).Methods("POST", "OPTIONS")
	customersRouter.HandleFunc("/{customerId}/weights", weightsHandler.HandleList).Methods("GET", "OPTIONS")

	customersRouter.HandleFunc("/{customerId}/sessions", trainingHandler.HandleAdd).Methods("POST", "OPTIONS")
	customersRouter.HandleFunc("/{customerId}/sessions", trainingHandler.HandleList).Methods("GET", "OPTIONS")
	customersRouter.HandleFunc(
		"/{customerId}/exercises/{exerciseId}/history",
		trainingHandler.HandleExerciseHistory,
	).Methods("GET", "OPTIONS")

	customersRouter.HandleFunc("/{customerId}/meals", mealsHandler.HandleAdd).Methods("POST", "OPTIONS")
	customersRouter.HandleFunc("/{customerId}/meals", mealsHandler.HandleList).Methods("GET", "OPTIONS")
	customersRouter.HandleFunc("/{customerId}/meals/summary", mealsHandler.HandleDailySummary).Methods("GET", "OPTIONS")
	customersRouter.HandleFunc("/{customerId}/goal", mealsHandler.HandleGetGoal).Methods("GET", "OPTIONS")
	customersRouter.HandleFunc("/{customerId}/goal", mealsHandler.HandleSetGoal).Methods("PUT", "OPTIONS")

	statsRouter := customersRouter.PathPrefix("/{customerId}/stats").Subrouter()
	statsRouter.HandleFunc("/overview", statsHandler.HandleOverview).Methods("GET", "OPTIONS")
	statsRouter.HandleFunc("/weight", statsHandler.HandleWeightSeries).Methods("GET", "OPTIONS")
	statsRouter.HandleFunc("/nutrition", statsHandler.HandleNutritionSeries).Methods("GET", "OPTIONS")
	statsRouter.HandleFunc("/volume", statsHandler.HandleVolumeSeries).Methods("GET", "OPTIONS")
	statsRouter.HandleFunc("/sessions", statsHandler.HandleSessionGroups).Methods("GET", "OPTIONS")

	customersRouter.HandleFunc("/{customerId}/advice/training", adviceHandler.HandleTrainingAdvice).Methods("GET", "OPTIONS")
	customersRouter.HandleFunc("/{customerId}/advice/meals", adviceHandler.HandleMealAdvice).Methods("GET", "OPTIONS")

	sessionsRouter := r.PathPrefix("/sessions").Subrouter()
	sessionsRouter.HandleFunc("/presets", trainingHandler.HandlePresets).Methods("GET", "OPTIONS")
	sessionsRouter.HandleFunc("/{id}", trainingHandler.HandleGet).Methods("GET", "OPTIONS")
	sessionsRouter.HandleFunc("/{id}", trainingHandler.HandleUpdate).Methods("PUT", "OPTIONS")
	sessionsRouter.HandleFunc("/{id}", trainingHandler.HandleDelete).Methods("DELETE", "OPTIONS")

	weightsRouter := r.PathPrefix("/weights").Subrouter()
	weightsRouter.HandleFunc("/{id}", weightsHandler.HandleDelete).Methods("DELETE", "OPTIONS")

	mealsRouter := r.PathPrefix("/meals").Subrouter()
	mealsRouter.HandleFunc("/presets", mealsHandler.HandleFoodPresets).Methods("GET", "OPTIONS")
	mealsRouter.HandleFunc("/{id}", mealsHandler.HandleGet).Methods("GET", "OPTIONS")
	mealsRouter.HandleFunc("/{id}", mealsHandler.HandleUpdate).Methods("PUT", "OPTIONS")
	mealsRouter.HandleFunc("/{id}", mealsHandler.HandleDelete).Methods("DELETE", "OPTIONS")

	r.HandleFunc("/advice/chat", adviceHandler.HandleChat).Methods("POST", "OPTIONS")

	researchRouter := r.PathPrefix("/research").Subrouter()
	researchRouter.HandleFunc("/latest", researchHandler.HandleLatest).Methods("GET", "OPTIONS")
	researchRouter.HandleFunc("/search", researchHandler.HandleSearch).Methods("GET", "OPTIONS")
	researchRouter.HandleFunc("/{pmid}", researchHandler.HandleSummary).Methods("GET", "OPTIONS")

	draftsRouter := r.PathPrefix("/drafts").Subrouter()
	draftsRouter.HandleFunc("/{key}", draftsHandler.HandleSave).Methods("PUT", "OPTIONS")
	draftsRouter.HandleFunc("/{key}", draftsHandler.HandleLoad).Methods("GET", "OPTIONS")
	draftsRouter.HandleFunc("/{key}", draftsHandler.HandleClear).Methods("DELETE", "OPTIONS")

	authMiddleware := middleware.NewAuthMiddlewareHandler(
		auth.NewLoginChecker(auth.DefaultTTL, s.redisClient),
	)

	r.Use(
		otelmux.Middleware(serviceName),
		middleware.PanicRecovery(s.metricsManager),
		middleware.LogRequest(),
		middleware.RequestMetrics(s.metricsManager),
		middleware.Cors(),
		authMiddleware.AuthCheck(),
		middleware.DrainAndCloseRequest(),
	)

	return r
}

func (s *Server) Serve(ctx context.Context) {
	router := s.routerSetup()

	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
	}

	go s.serveMetrics()
	go s.periodicTasks(ctx)

	go func() {
		log.Infof(" > server listening on: [%s]", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen and serve: %s", err)
		}
	}()
}

func (s *Server) serveMetrics() {
	addr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))

	s.metricsServer = &http.Server{
		Addr:              addr,
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Infof(" > metrics server listening on: [%s]", addr)
	if err := s.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Errorf("metrics server, listen and serve: %s", err)
	}
}

func (s *Server) periodicTasks(ctx context.Context) {
	cleanupTicker := time.NewTicker(sessionCleanupInterval)
	defer cleanupTicker.Stop()
	lifeSignalTicker := time.NewTicker(lifeSignalInterval)
	defer lifeSignalTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-cleanupTicker.C:
			s.authService.ScanAndClean(ctx)
		case <-lifeSignalTicker.C:
			s.metricsManager.GaugeLifeSignal.Set(float64(time.Now().Unix()))
		}
	}
}

func (s *Server) GracefulShutdown() {
	log.Warn("graceful shutdown initiated ...")

	if s.tracingShutdown != nil {
		s.tracingShutdown()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Errorf("metrics server shutdown: %s", err)
		}
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Errorf("http server shutdown: %s", err)
		}
	}

	if err := s.redisClient.Close(); err != nil {
		log.Errorf("close redis client: %s", err)
	}

	s.dbPool.Close()

	// give sentry a moment to deliver what it has buffered
	sentry.Flush(2 * time.Second)

	log.Warn("server shut down")
}
