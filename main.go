package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"habitTrackerAPI/handlers"
	"habitTrackerAPI/internal/config"
	"habitTrackerAPI/internal/daystatus"
	"habitTrackerAPI/internal/logger"
	"habitTrackerAPI/internal/notification"
	"habitTrackerAPI/internal/store"
	"habitTrackerAPI/internal/store/postgres"
	"habitTrackerAPI/internal/store/sqlite"
	"habitTrackerAPI/middleware"
	"habitTrackerAPI/services"
)

func openStore(ctx context.Context, cfg config.DBConfig) (store.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return sqlite.New(cfg.SQLitePath)
	default:
		return postgres.New(ctx, cfg.URL)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", "err", err)
	}
	if err := logger.Init(logger.Config{Level: cfg.Log.Level, Dir: cfg.Log.Dir}); err != nil {
		logger.Fatal("Failed to initialize logger", "err", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid config", "err", err)
	}

	if cfg.Auth.Disabled {
		logger.Warn("Auth is disabled, trusting the X-User-ID header")
	} else {
		clerk.SetKey(cfg.Auth.ClerkSecretKey)
		logger.Info("Clerk initialized successfully")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := openStore(ctx, cfg.DB)
	if err != nil {
		cancel()
		logger.Fatal("Failed to open store", "driver", cfg.DB.Driver, "err", err)
	}
	if err := db.Migrate(ctx); err != nil {
		cancel()
		logger.Fatal("Failed to migrate store", "err", err)
	}
	cancel()
	logger.Info("Store ready", "driver", cfg.DB.Driver)

	defer func() {
		logger.Info("Closing store...")
		db.Close()
	}()

	middleware.InitPrometheus()
	services.InitMetrics()

	goalDispatcher := services.NewGoalDispatcher(db, cfg.Goals.Workers, cfg.Goals.QueueSize)
	fcmService, err := notification.NewFCMService(context.Background(), cfg.Push.ServiceAccountJSON, cfg.Push.CredentialsFile)
	if err != nil {
		logger.Warn("Could not initialize FCM, milestone pushes disabled", "err", err)
	} else {
		goalDispatcher.SetPushProvider(fcmService)
	}

	userService := services.NewUserService(db, cfg.Defaults.Timezone)
	activityService := services.NewActivityService(db, userService, goalDispatcher)
	eventService := services.NewEventService(db, userService)
	dayStatusService := services.NewDayStatusService(db, userService, daystatus.New(db))
	timerHub := services.NewTimerHub(activityService, time.Second)

	webhookHandler, err := handlers.NewWebhookHandler(userService, cfg.Auth.ClerkWebhookSecret)
	if err != nil {
		logger.Fatal("Failed to configure webhooks", "err", err)
	}
	userHandler := handlers.NewUserHandler(userService)
	notificationHandler := handlers.NewNotificationHandler(userService)
	activityHandler := handlers.NewActivityHandler(activityService, dayStatusService)
	eventHandler := handlers.NewEventHandler(eventService)
	timerHandler := handlers.NewTimerHandler(timerHub)

	authMiddleware, wsAuthMiddleware := middleware.Auth(cfg.Auth.Disabled)
	limiter := middleware.NewRateLimiter(cfg.Limits.RPS, cfg.Limits.Burst)

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	go limiter.CleanupVisitors(bgCtx)

	r := mux.NewRouter()

	// Websocket sessions are long lived and skip the per-request middleware.
	r.Handle("/api/v1/timers/ws", wsAuthMiddleware(http.HandlerFunc(timerHandler.Connect))).Methods("GET")

	standardRouter := r.PathPrefix("/").Subrouter()
	standardRouter.Use(limiter.Middleware)
	standardRouter.Use(middleware.MonitorMiddleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(cfg.Metrics.User, cfg.Metrics.Password)(promhttp.Handler()))

	standardRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(ctx); err != nil {
			logger.Warn("Health check failed", "err", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": "database connection failed"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"status": "healthy", "service": "habit-tracker-api", "live_sessions": timerHub.Sessions()})
	}).Methods("GET")

	standardRouter.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := standardRouter.PathPrefix("/api/v1").Subrouter()
	protected.Use(authMiddleware)

	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user/preferences", userHandler.UpdatePreferences).Methods("PUT")
	protected.HandleFunc("/user", userHandler.DeleteAccount).Methods("DELETE")
	protected.HandleFunc("/user/devices", notificationHandler.ListDevices).Methods("GET")
	protected.HandleFunc("/user/devices", notificationHandler.RegisterDevice).Methods("POST")
	protected.HandleFunc("/user/devices", notificationHandler.UnregisterDevice).Methods("DELETE")

	protected.HandleFunc("/activities", activityHandler.ListActivities).Methods("GET")
	protected.HandleFunc("/activities", activityHandler.CreateActivity).Methods("POST")
	protected.HandleFunc("/activities/{id}", activityHandler.GetActivity).Methods("GET")
	protected.HandleFunc("/activities/{id}", activityHandler.UpdateActivity).Methods("PUT")
	protected.HandleFunc("/activities/{id}", activityHandler.ArchiveActivity).Methods("DELETE")
	protected.HandleFunc("/activities/{id}/restore", activityHandler.RestoreActivity).Methods("POST")
	protected.HandleFunc("/activities/{id}/stats", activityHandler.GetStats).Methods("GET")
	protected.HandleFunc("/activities/{id}/weekly", activityHandler.GetWeeklyLog).Methods("GET")
	protected.HandleFunc("/activities/{id}/calendar", activityHandler.GetCalendar).Methods("GET")
	protected.HandleFunc("/activities/{id}/timer", activityHandler.GetTimer).Methods("GET")
	protected.HandleFunc("/activities/{id}/goals", activityHandler.GetGoalOptions).Methods("GET")
	protected.HandleFunc("/activities/{id}/goal", activityHandler.SetGoal).Methods("PATCH")
	protected.HandleFunc("/activities/{id}/day-status", activityHandler.SetDayStatus).Methods("POST")

	protected.HandleFunc("/events", eventHandler.ListEvents).Methods("GET")
	protected.HandleFunc("/events", eventHandler.CreateEvent).Methods("POST")
	protected.HandleFunc("/events/quick-log", eventHandler.QuickLog).Methods("POST")
	protected.HandleFunc("/events/activity/{activityId}/range", eventHandler.EventsInRange).Methods("GET")
	protected.HandleFunc("/events/{id}", eventHandler.GetEvent).Methods("GET")
	protected.HandleFunc("/events/{id}", eventHandler.UpdateEvent).Methods("PUT")
	protected.HandleFunc("/events/{id}", eventHandler.DeleteEvent).Methods("DELETE")

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins(cfg.Server.CORSOrigins),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", middleware.DevUserHeader}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
	)

	server := http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Starting server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Error starting server", "err", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Got signal", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	timerHub.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "err", err)
	}
	goalDispatcher.Stop()

	logger.Info("Server shutdown complete")
}
