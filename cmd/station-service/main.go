package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"

	alertconsumers "github.com/fuelshift/fuelshift-backend/internal/alert/consumers"
	alertevents "github.com/fuelshift/fuelshift-backend/internal/alert/events"
	alerthandler "github.com/fuelshift/fuelshift-backend/internal/alert/handler"
	"github.com/fuelshift/fuelshift-backend/internal/alert/realtime"
	alertrepo "github.com/fuelshift/fuelshift-backend/internal/alert/repository"
	"github.com/fuelshift/fuelshift-backend/internal/alert/scanner"
	alertservice "github.com/fuelshift/fuelshift-backend/internal/alert/service"
	authhandler "github.com/fuelshift/fuelshift-backend/internal/auth/handler"
	"github.com/fuelshift/fuelshift-backend/internal/auth/jwt"
	authmw "github.com/fuelshift/fuelshift-backend/internal/auth/middleware"
	authrepo "github.com/fuelshift/fuelshift-backend/internal/auth/repository"
	authservice "github.com/fuelshift/fuelshift-backend/internal/auth/service"
	reporthandler "github.com/fuelshift/fuelshift-backend/internal/report/handler"
	reportservice "github.com/fuelshift/fuelshift-backend/internal/report/service"
	"github.com/fuelshift/fuelshift-backend/internal/shift/draft"
	shiftevents "github.com/fuelshift/fuelshift-backend/internal/shift/events"
	shifthandler "github.com/fuelshift/fuelshift-backend/internal/shift/handler"
	shiftrepo "github.com/fuelshift/fuelshift-backend/internal/shift/repository"
	shiftservice "github.com/fuelshift/fuelshift-backend/internal/shift/service"
	stationevents "github.com/fuelshift/fuelshift-backend/internal/station/events"
	stationhandler "github.com/fuelshift/fuelshift-backend/internal/station/handler"
	stationrepo "github.com/fuelshift/fuelshift-backend/internal/station/repository"
	stationservice "github.com/fuelshift/fuelshift-backend/internal/station/service"
	userevents "github.com/fuelshift/fuelshift-backend/internal/user/events"
	userhandler "github.com/fuelshift/fuelshift-backend/internal/user/handler"
	userrepo "github.com/fuelshift/fuelshift-backend/internal/user/repository"
	userservice "github.com/fuelshift/fuelshift-backend/internal/user/service"
	"github.com/fuelshift/fuelshift-backend/pkg/cache"
	"github.com/fuelshift/fuelshift-backend/pkg/config"
	"github.com/fuelshift/fuelshift-backend/pkg/database"
	"github.com/fuelshift/fuelshift-backend/pkg/httputil"
	"github.com/fuelshift/fuelshift-backend/pkg/i18n"
	"github.com/fuelshift/fuelshift-backend/pkg/logger"
	"github.com/fuelshift/fuelshift-backend/pkg/messaging"
	"github.com/fuelshift/fuelshift-backend/pkg/permissions"
)

const serviceName = "station-service"

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().Msg("starting Station Service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	applied, err := db.Migrate(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to apply migrations")
	}
	if len(applied) > 0 {
		log.Info().Strs("versions", applied).Msg("migrations applied")
	}

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()
	rmq.WatchConnection(ctx)

	// Connect to Redis
	redisClient, err := cache.New(ctx, &cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer redisClient.Close()

	// Initialize event publishers, one per exchange
	publisher := func(exchange string) *messaging.Publisher {
		p, err := messaging.NewPublisher(rmq, exchange, serviceName, log)
		if err != nil {
			log.Fatal().Err(err).Str("exchange", exchange).Msg("failed to create event publisher")
		}
		return p
	}
	userPublisher := userevents.NewUserEventPublisher(publisher(messaging.ExchangeUserEvents), log)
	stationPublisher := stationevents.NewStationEventPublisher(publisher(messaging.ExchangeStationEvents), log)
	shiftPublisher := shiftevents.NewShiftEventPublisher(publisher(messaging.ExchangeShiftEvents), log)
	alertPublisher := alertevents.NewAlertEventPublisher(publisher(messaging.ExchangeAlertEvents), log)

	// Initialize repositories
	userRepo := userrepo.NewUserRepository(db)
	sessionRepo := authrepo.NewSessionRepository(db)
	pumpRepo := stationrepo.NewPumpRepository(db)
	priceRepo := stationrepo.NewPriceRepository(db)
	shiftRepo := shiftrepo.NewShiftRepository(db)
	alertRepo := alertrepo.NewAlertRepository(db)

	// Initialize services
	threshold := decimal.NewFromFloat(cfg.Reconciliation.CriticalVariancePercent)
	jwtManager := jwt.NewManager(&cfg.JWT)
	drafts := draft.NewStore(redisClient, cfg.Drafts.TTL, log)

	authService := authservice.NewAuthService(sessionRepo, userRepo, jwtManager,
		cfg.Auth.SessionDuration, cfg.Auth.IdleTimeout, log)
	userService := userservice.NewUserService(userRepo, sessionRepo, userPublisher,
		cfg.Auth.InviteExpiry, cfg.Auth.BcryptCost, log)
	stationService := stationservice.NewStationService(pumpRepo, priceRepo, stationPublisher, log)
	alertService := alertservice.NewAlertService(alertRepo, alertPublisher, log)
	shiftService := shiftservice.NewShiftService(shiftRepo, pumpRepo, priceRepo, drafts,
		shiftPublisher, alertService, threshold, log)
	reportService := reportservice.NewReportService(shiftRepo, threshold, log)

	// Initialize handlers
	hub := realtime.NewHub(cfg.Server.AllowedOrigins, log)
	authHandler := authhandler.NewAuthHandler(authService, log)
	userHandler := userhandler.NewUserHandler(userService, log)
	stationHandler := stationhandler.NewStationHandler(stationService, log)
	shiftHandler := shifthandler.NewShiftHandler(shiftService, drafts, log)
	alertHandler := alerthandler.NewAlertHandler(alertService, hub, log)
	reportHandler := reporthandler.NewReportHandler(reportService, log)

	// Push alerts from every instance to this instance's websocket clients
	streamConsumer, err := alertconsumers.NewAlertStreamConsumer(rmq, hub, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create alert stream consumer")
	}
	go func() {
		if err := streamConsumer.Start(ctx); err != nil {
			log.Error().Err(err).Msg("alert stream consumer error")
		}
	}()

	// Housekeeping: stale shift alerts and session/invite purges
	scan := scanner.NewScanner(shiftRepo, alertService, sessionRepo, userRepo,
		cfg.Reconciliation.StalePendingAfter, log)
	scheduler := scanner.NewScheduler(scan, cfg.Reconciliation.ScanInterval, log)
	scheduler.Start(ctx)

	auth := authmw.New(jwtManager, sessionRepo, log)
	can := authmw.RequirePermission

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "Accept-Language"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(i18n.Middleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":      "healthy",
			"service":     serviceName,
			"database":    db.Health(r.Context()),
			"rabbitmq":    rmq.Health(),
			"redis":       redisClient.Health(r.Context()),
			"connections": hub.Connections(),
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints
		r.Group(func(r chi.Router) {
			r.With(authmw.LoginThrottle(redisClient, cfg.Auth.LoginAttempts, cfg.Auth.LoginWindow, log)).
				Post("/auth/login", authHandler.Login)
			r.Post("/auth/refresh", authHandler.Refresh)
			r.Post("/users/accept-invite", userHandler.AcceptInvite)
		})

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/me", authHandler.Me)

			r.Route("/users", func(r chi.Router) {
				r.Use(can(permissions.UsersManage))
				r.Get("/", userHandler.List)
				r.Post("/invite", userHandler.Invite)
				r.Get("/{id}", userHandler.Get)
				r.Post("/{id}/suspend", userHandler.Suspend)
				r.Post("/{id}/reactivate", userHandler.Reactivate)
				r.Patch("/{id}/role", userHandler.ChangeRole)
				r.Delete("/{id}", userHandler.Delete)
			})

			r.Route("/pumps", func(r chi.Router) {
				r.With(can(permissions.PumpsRead)).Get("/", stationHandler.ListPumps)
				r.With(can(permissions.PumpsManage)).Post("/", stationHandler.CreatePump)
				r.With(can(permissions.PumpsManage)).Put("/{id}", stationHandler.UpdatePump)
			})

			r.Route("/fuel-prices", func(r chi.Router) {
				r.With(can(permissions.PricesRead)).Get("/", stationHandler.ListPrices)
				r.With(can(permissions.PricesManage)).Put("/{fuelType}", stationHandler.SetPrice)
			})

			r.Route("/shifts", func(r chi.Router) {
				r.With(can(permissions.ShiftsSubmit)).Post("/", shiftHandler.Submit)
				r.With(can(permissions.ShiftsReadAll)).Get("/", shiftHandler.List)
				r.With(can(permissions.ShiftsReadOwn)).Get("/mine", shiftHandler.ListMine)
				r.With(can(permissions.ShiftsReview)).Get("/review", shiftHandler.Review)

				r.Route("/draft", func(r chi.Router) {
					r.Use(can(permissions.DraftsManage))
					r.Get("/", shiftHandler.GetDraft)
					r.Put("/", shiftHandler.SaveDraft)
					r.Delete("/", shiftHandler.DeleteDraft)
				})

				r.With(can(permissions.ShiftsReadOwn)).Get("/{id}", shiftHandler.Get)
				r.With(can(permissions.ShiftsSubmit)).Put("/{id}/resubmit", shiftHandler.Resubmit)
				r.With(can(permissions.ShiftsApprove)).Post("/{id}/approve", shiftHandler.Approve)
				r.With(can(permissions.ShiftsApprove)).Post("/{id}/request-fix", shiftHandler.RequestFix)
			})

			r.Route("/alerts", func(r chi.Router) {
				r.Use(can(permissions.AlertsRead))
				r.Get("/", alertHandler.List)
				r.Get("/unread-count", alertHandler.UnreadCount)
				r.Get("/stream", alertHandler.Stream)
				r.Post("/read-all", alertHandler.MarkAllRead)
				r.Post("/{id}/read", alertHandler.MarkRead)
				r.With(can(permissions.AlertsCreate)).Post("/", alertHandler.Create)
			})

			r.Route("/reports", func(r chi.Router) {
				r.With(can(permissions.ReportsRead)).Get("/summary", reportHandler.Summary)
				r.With(can(permissions.ReportsRead)).Get("/attendants", reportHandler.Attendants)
				r.With(can(permissions.ReportsExport)).Get("/export.xlsx", reportHandler.ExportXLSX)
				r.With(can(permissions.ReportsExport)).Get("/export.pdf", reportHandler.ExportPDF)
			})
		})
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	scheduler.Stop()
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
