package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"

	"solarops/internal/domain/audit"
	"solarops/internal/domain/auth"
	"solarops/internal/domain/checklist"
	"solarops/internal/domain/commission"
	"solarops/internal/domain/core"
	"solarops/internal/domain/customer"
	"solarops/internal/domain/notifications"
	"solarops/internal/domain/payperiod"
	"solarops/internal/domain/payroll"
	"solarops/internal/domain/scheduling"
	"solarops/internal/domain/subcontract"
	"solarops/internal/domain/timeclock"
	"solarops/internal/platform/cache"
	"solarops/internal/platform/config"
	cryptoutil "solarops/internal/platform/crypto"
	"solarops/internal/platform/db"
	"solarops/internal/platform/email"
	"solarops/internal/platform/functions"
	"solarops/internal/platform/jobs"
	"solarops/internal/platform/metrics"
	"solarops/internal/platform/realtime"
	"solarops/internal/platform/storage"
	audithandler "solarops/internal/transport/http/handlers/audit"
	authhandler "solarops/internal/transport/http/handlers/auth"
	commissionhandler "solarops/internal/transport/http/handlers/commission"
	corehandler "solarops/internal/transport/http/handlers/core"
	customerhandler "solarops/internal/transport/http/handlers/customer"
	functionshandler "solarops/internal/transport/http/handlers/functions"
	notificationshandler "solarops/internal/transport/http/handlers/notifications"
	payrollhandler "solarops/internal/transport/http/handlers/payroll"
	realtimehandler "solarops/internal/transport/http/handlers/realtime"
	subcontracthandler "solarops/internal/transport/http/handlers/subcontract"
	systemhandler "solarops/internal/transport/http/handlers/system"
	ticketshandler "solarops/internal/transport/http/handlers/tickets"
	timeclockhandler "solarops/internal/transport/http/handlers/timeclock"
	"solarops/internal/transport/http/middleware"
	"solarops/migrations"
)

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Broker  realtime.Broker
	Jobs    *jobs.Service
	Metrics *metrics.Collector
	Router  http.Handler

	closing    chan struct{}
	cancelJobs context.CancelFunc
}

// New connects every backing service and builds the router. Close releases them.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	reference, err := cfg.ReferenceDate()
	if err != nil {
		return nil, err
	}
	cal := payperiod.NewCalendar(reference)

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	app := &App{Config: cfg, DB: pool, closing: make(chan struct{})}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, migrations.Files); err != nil {
			app.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
			app.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	var payrollCache cache.Cache = cache.Noop{}
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cache.RedisConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		app.Redis = client
		app.Broker = realtime.NewRedisBroker(client)
		payrollCache = cache.NewRedisCache(client)
	} else {
		slog.Info("REDIS_ADDR not set; using in-process realtime broker and no payroll cache")
		app.Broker = realtime.NewMemoryBroker()
	}

	files, err := storage.NewLocal(cfg.StorageDir, cfg.StoragePublicURL)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("storage: %w", err)
	}
	cryptoSvc, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("encryption: %w", err)
	}

	if cfg.MetricsEnabled {
		app.Metrics = metrics.New()
	}
	app.Jobs = jobs.New(pool)

	notifySvc := notifications.New(notifications.NewStore(pool), email.New(cfg), app.Broker)
	notifySvc.From = cfg.EmailFrom
	notifySvc.EmailEnabled = cfg.EmailEnabled

	auditSvc := audit.New(pool)
	authStore := auth.NewStore(pool)
	authSvc := auth.NewService(authStore, cfg.JWTSecret)

	coreSvc := core.NewService(core.NewStore(pool, cryptoSvc), notifySvc, app.Broker)
	timeclockSvc := timeclock.NewService(timeclock.NewStore(pool), app.Broker)
	customerSvc := customer.NewService(customer.NewStore(pool), files, app.Broker)
	customerSvc.SetPricer(subcontract.LedgerPricer{})
	subcontractSvc := subcontract.NewService(subcontract.NewStore(pool), customerSvc, app.Broker, cfg.Location())
	commissionSvc := commission.NewService(commission.NewStore(pool), notifySvc, app.Broker)
	payrollSvc := payroll.NewService(payroll.NewStore(pool), coreSvc, timeclockSvc, commissionSvc, payrollCache, cfg.CacheTTL)
	checklistSvc := checklist.NewService(checklist.NewStore(pool), files, app.Broker)

	ticketStore := scheduling.NewStore(pool)
	surveys := scheduling.NewSurveyReports(ticketStore, checklistSvc, customerSvc, files)
	hooks := scheduling.HookRunner{
		Clock:     timeclockSvc,
		Timeline:  customerSvc,
		SurveyPDF: functions.New(cfg.FunctionsURL, cfg.FunctionsToken, surveys),
		Queue:     app.Jobs,
	}
	schedulingSvc := scheduling.NewService(ticketStore, hooks, notifySvc, app.Broker)

	payCache := payroll.PeriodInvalidator{Service: payrollSvc, Calendar: cal}
	coreSvc.SetPayCache(payCache)
	timeclockSvc.SetPayCache(payCache)
	schedulingSvc.SetPayCache(payCache)
	customerSvc.SetPayCache(payCache)

	if cfg.PayrollWarmSchedule != "" {
		err := app.Jobs.Schedule(cfg.PayrollWarmSchedule, jobs.JobPayrollWarm, func(ctx context.Context) (any, error) {
			period := cal.Containing(time.Now())
			return map[string]string{"periodStart": period.StartDate()}, payrollSvc.Warm(ctx, period)
		})
		if err != nil {
			app.Close()
			return nil, err
		}
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(app.Metrics))
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production", cfg.MapsAPIKey != ""))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes, cfg.MaxUploadBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	systemHandler := systemhandler.NewHandler(pool, app.Metrics, authStore, systemhandler.ClientConfig{
		Environment:        cfg.Environment,
		MapsAPIKey:         cfg.MapsAPIKey,
		MapsEnabled:        cfg.MapsAPIKey != "",
		Timezone:           cfg.Location().String(),
		PayPeriodReference: cfg.PayPeriodReference,
	}, cal)
	systemHandler.RegisterProbes(router)

	realtimeHandler := realtimehandler.NewHandler(app.Broker)
	realtimeHandler.Closing = app.closing

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(authSvc, auditSvc)
		authHandler.RegisterPublicRoutes(r)
		systemHandler.RegisterPublicRoutes(r)
		functionshandler.NewHandler(surveys, cfg.FunctionsToken, authStore).RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			authHandler.RegisterRoutes(r)
			systemHandler.RegisterRoutes(r)
			realtimeHandler.RegisterRoutes(r)

			corehandler.NewHandler(coreSvc, authStore, auditSvc).RegisterRoutes(r)
			timeclockhandler.NewHandler(timeclockSvc, authStore, cal).RegisterRoutes(r)
			payrollhandler.NewHandler(payrollSvc, authStore, app.Jobs, cal).RegisterRoutes(r)
			commissionhandler.NewHandler(commissionSvc, authStore, auditSvc, payrollSvc, cal).RegisterRoutes(r)
			customerhandler.NewHandler(customerSvc, authStore, auditSvc).RegisterRoutes(r)
			subcontracthandler.NewHandler(subcontractSvc, authStore, auditSvc).RegisterRoutes(r)
			ticketshandler.NewHandler(schedulingSvc, checklistSvc, authStore, auditSvc, app.Metrics).RegisterRoutes(r)
			audithandler.NewHandler(auditSvc, authStore).RegisterRoutes(r)
			notificationshandler.NewHandler(notifySvc).RegisterRoutes(r)
		})
	})

	if prefix := strings.TrimRight(cfg.StoragePublicURL, "/"); strings.HasPrefix(prefix, "/") {
		router.Handle(prefix+"/*", http.StripPrefix(prefix, files.Handler()))
	}
	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})

	app.Router = router
	return app, nil
}

// Start runs the job worker and cron schedule until Close.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancelJobs = context.WithCancel(ctx)
	a.Jobs.Start(ctx)
}

// Close is safe on a partially built App.
func (a *App) Close() {
	if a.cancelJobs != nil {
		a.cancelJobs()
		a.Jobs.Stop()
	}
	if a.Broker != nil {
		if err := a.Broker.Close(); err != nil {
			slog.Warn("realtime broker close failed", "err", err)
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			slog.Warn("redis close failed", "err", err)
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

func Run() {
	cfg := config.Load()
	configureLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()
	app.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv.RegisterOnShutdown(func() { close(app.closing) })

	errCh := make(chan error, 1)
	go func() {
		slog.Info("solarops server listening", "addr", cfg.Addr, "env", cfg.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	case <-ctx.Done():
		slog.Info("shutting down", "grace", cfg.ShutdownGracePeriod)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "err", err)
		}
	}
}

func configureLogging(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.Environment == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
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
	if h.staticPath == "" {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, filepath.Clean("/"+r.URL.Path))
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
