package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"punchclock/internal/domain/attendance"
	"punchclock/internal/domain/audit"
	"punchclock/internal/domain/auth"
	"punchclock/internal/domain/core"
	"punchclock/internal/domain/reports"
	"punchclock/internal/platform/config"
	"punchclock/internal/platform/db"
	"punchclock/internal/platform/email"
	"punchclock/internal/platform/jobs"
	"punchclock/internal/platform/metrics"
	attendancehandler "punchclock/internal/transport/http/handlers/attendance"
	authhandler "punchclock/internal/transport/http/handlers/auth"
	corehandler "punchclock/internal/transport/http/handlers/core"
	reportshandler "punchclock/internal/transport/http/handlers/reports"
	"punchclock/internal/transport/http/middleware"
)

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Router http.Handler
	Jobs   *jobs.Service
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, err
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, err
		}
	}

	policy := attendance.ShiftPolicy{
		LateAfter:    cfg.LateAfter,
		HalfDayBelow: cfg.HalfDayBelowHours,
	}
	attendanceStore := attendance.NewStore(pool)
	attendanceSvc := attendance.NewService(attendanceStore, policy)
	reportsSvc := reports.NewService(attendanceStore)
	authStore := auth.NewStore(pool)
	coreStore := core.NewStore(pool)
	auditSvc := audit.New(pool)
	mailer := email.New(cfg)
	jobsSvc := jobs.New(pool, cfg, attendanceSvc)

	collector := metrics.New()
	isProd := cfg.Environment == "production"

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.SecureHeaders(isProd))
	router.Use(middleware.Logger)
	if cfg.MetricsEnabled {
		router.Use(middleware.Metrics(collector))
	}
	router.Use(middleware.Recoverer)
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(collector.Snapshot())
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authStore, cfg, mailer, auditSvc).RegisterRoutes(r)
		corehandler.NewHandler(coreStore).RegisterRoutes(r)
		attendancehandler.NewHandler(attendanceSvc, auditSvc, jobsSvc, cfg).RegisterRoutes(r)
		reportshandler.NewHandler(reportsSvc, auditSvc).RegisterRoutes(r)
	})

	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})

	return &App{
		Config: cfg,
		DB:     pool,
		Router: router,
		Jobs:   jobsSvc,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.Jobs.Start(ctx)
	log.Printf("attendance server listening on %s", a.Config.Addr)
	return http.ListenAndServe(a.Config.Addr, a.Router)
}

func (a *App) Close() {
	a.DB.Close()
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, r.URL.Path)
	_, err := os.Stat(path)
	if err == nil {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if os.IsNotExist(err) {
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	http.NotFound(w, r)
}
