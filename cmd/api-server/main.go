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
	"github.com/google/uuid"

	authhandler "github.com/crewboard/crewboard-backend/internal/auth/handler"
	"github.com/crewboard/crewboard-backend/internal/auth/jwt"
	authrepo "github.com/crewboard/crewboard-backend/internal/auth/repository"
	authservice "github.com/crewboard/crewboard-backend/internal/auth/service"
	orgevents "github.com/crewboard/crewboard-backend/internal/org/events"
	orghandler "github.com/crewboard/crewboard-backend/internal/org/handler"
	orgrepo "github.com/crewboard/crewboard-backend/internal/org/repository"
	orgservice "github.com/crewboard/crewboard-backend/internal/org/service"
	"github.com/crewboard/crewboard-backend/internal/realtime"
	schedevents "github.com/crewboard/crewboard-backend/internal/schedule/events"
	schedhandler "github.com/crewboard/crewboard-backend/internal/schedule/handler"
	schedrepo "github.com/crewboard/crewboard-backend/internal/schedule/repository"
	schedservice "github.com/crewboard/crewboard-backend/internal/schedule/service"
	"github.com/crewboard/crewboard-backend/pkg/config"
	"github.com/crewboard/crewboard-backend/pkg/database"
	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/httputil"
	"github.com/crewboard/crewboard-backend/pkg/i18n"
	"github.com/crewboard/crewboard-backend/pkg/logger"
	"github.com/crewboard/crewboard-backend/pkg/messaging"
	"github.com/crewboard/crewboard-backend/pkg/ratelimit"
	"github.com/crewboard/crewboard-backend/pkg/tenant"
)

const serviceName = "api-server"

func main() {
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().Msg("starting crewboard API")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		applied, err := db.Migrate(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to apply migrations")
		}
		log.Info().Strs("applied", applied).Msg("migrations up to date")
	}

	// Events are best effort: without a broker the API still serves, but
	// realtime clients receive nothing.
	var (
		rmq       *messaging.RabbitMQ
		publisher messaging.EventPublisher = messaging.NoopPublisher{}
	)
	if rmq, err = messaging.New(&cfg.RabbitMQ, log); err != nil {
		log.Warn().Err(err).Msg("RabbitMQ unavailable, change events disabled")
	} else {
		defer rmq.Close()
		p, err := messaging.NewPublisher(rmq, messaging.ExchangeSchedule, serviceName, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to declare schedule exchange, change events disabled")
		} else {
			publisher = p
		}
	}

	var counter ratelimit.Counter
	if cfg.Redis.URL != "" {
		rc, err := ratelimit.NewRedisCounter(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, login rate limiting disabled")
		} else {
			defer rc.Close()
			counter = rc
		}
	}
	loginLimiter := ratelimit.New(counter, "login", cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow, log)

	// Repositories
	access := orgrepo.NewAccessRepository(db)
	orgs := orgrepo.NewOrganizationRepository(db)
	sites := orgrepo.NewJobSiteRepository(db)
	users := orgrepo.NewUserRepository(db)
	siteAssignments := orgrepo.NewSiteAssignmentRepository(db)

	workers := schedrepo.NewWorkerRepository(db)
	tasks := schedrepo.NewTaskRepository(db)
	assignments := schedrepo.NewAssignmentRepository(db)
	hours := schedrepo.NewHoursRepository(db)
	holidays := schedrepo.NewHolidayRepository(db)

	accounts := authrepo.NewAccountRepository(db)
	invitations := authrepo.NewInvitationRepository(db)

	// Services
	orgPub := orgevents.NewOrgPublisher(publisher, log)
	schedPub := schedevents.NewSchedulePublisher(publisher, log)
	jwtManager := jwt.NewManager(&cfg.JWT)

	authSvc := authservice.NewAuthService(accounts, access, jwtManager, cfg.Auth, log)
	inviteSvc := authservice.NewInvitationService(invitations, accounts, publisher, cfg.Auth, log)

	workerSvc := schedservice.NewWorkerService(db, workers, access, schedPub, log)
	taskSvc := schedservice.NewTaskService(db, tasks, holidays, access, cfg.Schedule, schedPub, log)
	assignmentSvc := schedservice.NewAssignmentService(db, tasks, workers, assignments, holidays, access, cfg.Schedule, schedPub, log)
	calendarSvc := schedservice.NewCalendarService(db, tasks, assignments, holidays, access, cfg.Schedule)
	hoursSvc := schedservice.NewHoursService(db, hours, workers, tasks, assignments, holidays, access, cfg.Schedule, schedPub, log)
	holidaySvc := schedservice.NewHolidayService(holidays, access, schedPub, log)
	exportSvc := schedservice.NewExportService(hoursSvc, calendarSvc)

	// Handlers
	authH := authhandler.NewAuthHandler(authSvc, inviteSvc, log)
	orgH := &orghandler.Handlers{
		Organization:    orghandler.NewOrganizationHandler(orgservice.NewOrganizationService(orgs, log), log),
		JobSites:        orghandler.NewJobSiteHandler(orgservice.NewJobSiteService(sites, orgPub, log), log),
		Users:           orghandler.NewUserHandler(orgservice.NewUserService(users, orgPub, log), log),
		SiteAssignments: orghandler.NewSiteAssignmentHandler(orgservice.NewSiteAssignmentService(siteAssignments, orgPub, log), log),
	}
	schedH := &schedhandler.Handlers{
		Workers:     schedhandler.NewWorkerHandler(workerSvc, log),
		Tasks:       schedhandler.NewTaskHandler(taskSvc, cfg.Schedule.MaxImportBytes, log),
		Assignments: schedhandler.NewAssignmentHandler(assignmentSvc, log),
		Calendar:    schedhandler.NewCalendarHandler(calendarSvc, exportSvc, log),
		Hours:       schedhandler.NewHoursHandler(hoursSvc, exportSvc, log),
		Holidays:    schedhandler.NewHolidayHandler(holidaySvc, log),
	}

	hub := realtime.NewHub(log)
	if rmq != nil {
		startRealtimeConsumer(ctx, rmq, hub, log)
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "Accept-Language", tenant.JobSiteHeader},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(i18n.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{
			"status":           "healthy",
			"service":          serviceName,
			"database":         db.Health(r.Context()),
			"realtime_clients": hub.Len(),
		}
		if rmq != nil {
			status["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, status)
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Long-lived, so outside the request timeout.
		r.Handle("/realtime", realtime.NewHandler(hub, jwtManager, access, cfg.Server.AllowedOrigins, log))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			authH.MountPublic(r, loginLimiter.Middleware)

			r.Group(func(r chi.Router) {
				r.Use(authhandler.Middleware(jwtManager))
				r.Use(tenant.JobSiteMiddleware(func(w http.ResponseWriter, r *http.Request, err error) {
					httputil.Error(w, r, errors.BadRequest(err.Error()))
				}))
				authH.Mount(r)
				orgH.Mount(r)
				schedH.Mount(r)
			})
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: cfg.Server.ReadTimeout,
		// No WriteTimeout: it would cut websocket streams.
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// startRealtimeConsumer binds a per-instance queue so every API replica
// sees every event for its own websocket clients.
func startRealtimeConsumer(ctx context.Context, rmq *messaging.RabbitMQ, hub *realtime.Hub, log *logger.Logger) {
	if err := rmq.DeclareDeadLetterQueue(serviceName); err != nil {
		log.Warn().Err(err).Msg("failed to declare dead letter queue")
	}
	queue := fmt.Sprintf("%s.realtime.%s", serviceName, uuid.NewString()[:8])
	consumer, err := messaging.NewTransientConsumer(rmq, queue, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to create realtime consumer")
		return
	}
	if err := hub.Subscribe(consumer); err != nil {
		log.Error().Err(err).Msg("failed to subscribe realtime consumer")
		return
	}
	if err := consumer.Start(ctx); err != nil {
		log.Error().Err(err).Msg("failed to start realtime consumer")
	}
}
