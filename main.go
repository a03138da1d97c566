package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"cloud.google.com/go/firestore"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sladeshAPI/handlers"
	"sladeshAPI/internal/config"
	"sladeshAPI/internal/jobs"
	"sladeshAPI/internal/runlog"
	"sladeshAPI/internal/store"
	"sladeshAPI/internal/triggers"
	"sladeshAPI/middleware"
)

var (
	cfg         *config.Config
	loc         *time.Location
	fsClient    *firestore.Client
	dbPool      *pgxpool.Pool
	recorder    runlog.Recorder
	userRepo    *store.UserStore
	requestRepo *store.RequestStore
	statsRepo   *store.StatsStore
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	loc, err = cfg.Location()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fsClient, err = store.NewClient(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile)
	if err != nil {
		log.Fatal("Failed to initialize Firestore client:", err)
	}
	log.Println("Successfully connected to Firestore")

	recorder = runlog.NopRecorder{}
	if cfg.DatabaseURL != "" {
		poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to parse database URL:", err)
		}

		poolConfig.MaxConns = 10
		poolConfig.MinConns = 2
		poolConfig.MaxConnLifetime = time.Hour
		poolConfig.MaxConnIdleTime = 30 * time.Minute
		poolConfig.HealthCheckPeriod = time.Minute

		dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			log.Fatal("Failed to create connection pool:", err)
		}
		if err := dbPool.Ping(ctx); err != nil {
			log.Fatal("Failed to ping database:", err)
		}

		pgRecorder, err := runlog.NewPostgresRecorder(ctx, dbPool)
		if err != nil {
			log.Fatal("Failed to initialize job run ledger:", err)
		}
		recorder = pgRecorder
		log.Println("Job run ledger enabled")
	} else {
		log.Println("DATABASE_URL not set, job run ledger disabled")
	}

	userRepo = store.NewUserStore(fsClient)
	requestRepo = store.NewRequestStore(fsClient)
	statsRepo = store.NewStatsStore(fsClient)

	middleware.InitPrometheus()
	jobs.InitMetrics()
}

func main() {
	defer func() {
		if dbPool != nil {
			log.Println("Closing database connection pool...")
			dbPool.Close()
		}
		fsClient.Close()
	}()

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	runner := jobs.NewRunner(recorder, cfg.JobTimeout)

	resetSladesh := jobs.NewSladeshCountReset(userRepo)
	resetCheckIn := jobs.NewCheckInReset(userRepo)
	purge := jobs.NewRequestPurge(requestRepo, cfg.RetentionWindow)
	window := jobs.NewRollingWindow(userRepo, cfg.RollingWindow)
	rollover := jobs.NewDrinkRollover(userRepo, statsRepo, loc)
	mostSladeshed := jobs.NewMostSladeshed(userRepo, statsRepo, cfg.MonthMode(), loc)
	mostCheckedIn := jobs.NewMostCheckedIn(userRepo, statsRepo, cfg.MonthMode(), loc)
	topDrinkers := jobs.NewTopDrinkers(userRepo, statsRepo, cfg.TopDrinkersCount, loc)

	scheduler := jobs.NewScheduler(runner, loc)
	scheduler.Add(resetSladesh, mustParseTimes("RESET_SLADESH_AT", cfg.ResetSladeshAt))
	scheduler.Add(resetCheckIn, mustParseTimes("RESET_CHECKIN_AT", cfg.ResetCheckInAt))
	scheduler.Add(purge, mustParseTimes("PURGE_REQUESTS_AT", cfg.PurgeRequestsAt))
	scheduler.Add(window, mustParseTimes("ROLLING_WINDOW_AT", cfg.RollingWindowAt))
	scheduler.Add(rollover, mustParseTimes("DRINK_ROLLOVER_AT", cfg.DrinkRolloverAt))
	scheduler.Add(mostSladeshed, mustParseTimes("MOST_SLADESHED_AT", cfg.MostSladeshedAt))
	scheduler.Add(mostCheckedIn, mustParseTimes("MOST_CHECKED_IN_AT", cfg.MostCheckedInAt))
	scheduler.Add(topDrinkers, mustParseTimes("TOP_DRINKERS_AT", cfg.TopDrinkersAt))
	go scheduler.Start(rootCtx)

	watcher := triggers.NewWatcher(fsClient, triggers.NewHandler(userRepo, requestRepo))
	go watcher.Watch(rootCtx)

	userHandler := handlers.NewUserHandler(userRepo)
	statsHandler := handlers.NewStatsHandler(statsRepo)
	jobHandler := handlers.NewJobHandler(runner, []jobs.Job{
		resetSladesh, resetCheckIn, purge, window, rollover,
		mostSladeshed, mostCheckedIn, topDrinkers,
	})

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if dbPool != nil {
			if err := dbPool.Ping(ctx); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status": "unhealthy", "error": "ledger database connection failed"}`))
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "sladesh-api"}`))
	}).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/users", userHandler.ListUsers).Methods("GET")
	api.HandleFunc("/statistics/{metric}", statsHandler.GetStatistics).Methods("GET")

	api.Handle("/jobs", middleware.BasicAuthMiddleware(http.HandlerFunc(jobHandler.ListJobs))).Methods("GET")
	api.Handle("/jobs/{name}/run", middleware.BasicAuthMiddleware(http.HandlerFunc(jobHandler.RunJob))).Methods("POST")

	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := ":" + cfg.Port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func mustParseTimes(name, value string) []jobs.TimeOfDay {
	times, err := jobs.ParseTimesOfDay(value)
	if err != nil {
		log.Fatalf("Invalid schedule %s=%q: %v", name, value, err)
	}
	return times
}
