package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"estacrm_backend/internal/controller"
	"estacrm_backend/internal/middleware"
	"estacrm_backend/internal/model"
	"estacrm_backend/internal/repository"
	"estacrm_backend/internal/service/importer"
	"estacrm_backend/internal/service/notify"
	"estacrm_backend/internal/service/referral"
	"estacrm_backend/internal/service/timeline"
	"estacrm_backend/pkg/cache"
	"estacrm_backend/pkg/config"
	"estacrm_backend/pkg/cron"
	"estacrm_backend/pkg/database"
	"estacrm_backend/pkg/email"
	"estacrm_backend/pkg/logger"
	"estacrm_backend/pkg/metrics"
	"estacrm_backend/pkg/response"
	"estacrm_backend/pkg/security"
	"estacrm_backend/pkg/seed"
	"estacrm_backend/pkg/utils/jwt"
	"estacrm_backend/pkg/utils/sentry"
	"estacrm_backend/pkg/utils/storage"
)

var version = "dev"

const (
	notificationMaxAge = 90 * 24 * time.Hour
	staleReferralAge   = 3 * 24 * time.Hour
)

func main() {
	cfg := config.Load()

	log, err := logger.Init(cfg.Log.Level, cfg.Server.Env, "estacrm-backend")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	if err := sentry.Init(cfg.Sentry.DSN, cfg.Server.Env, version); err != nil {
		log.Warn("sentry disabled", zap.Error(err))
	}
	defer sentry.Flush()

	jwt.Configure(cfg.JWT.Secret, time.Duration(cfg.JWT.TTLHours)*time.Hour)

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	if err := database.MigrateDatabase(db, model.All()...); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
	if err := seed.Run(db, cfg.Admin); err != nil {
		log.Fatal("seeding failed", zap.Error(err))
	}

	ctx := context.Background()

	// Optional integrations stay untyped nil when unconfigured so the
	// consumers' nil checks work.
	var objects controller.ObjectStore
	if cfg.Storage.Enabled() {
		r2, err := storage.NewR2Store(ctx, cfg.Storage)
		if err != nil {
			log.Fatal("object storage init failed", zap.Error(err))
		}
		objects = r2
	} else {
		log.Warn("object storage not configured, uploads disabled")
	}

	var limiterStorage fiber.Storage
	if cfg.Redis.URL != "" {
		rs, err := cache.NewRedisStorage(ctx, cfg.Redis.URL, "estacrm:")
		if err != nil {
			log.Fatal("redis init failed", zap.Error(err))
		}
		defer rs.Close()
		limiterStorage = rs
	}

	var mailer notify.Mailer
	if cfg.Email.ResendAPIKey != "" {
		es, err := email.NewEmailService(cfg.Email.ResendAPIKey, cfg.Email.From)
		if err != nil {
			log.Fatal("email service init failed", zap.Error(err))
		}
		mailer = es
	} else {
		log.Warn("RESEND_API_KEY not set, emails disabled")
	}

	var sink security.Sink = security.NopSink{}
	if cfg.Log.SecurityLogPath != "" {
		fs, err := security.NewFileSink(cfg.Log.SecurityLogPath)
		if err != nil {
			log.Warn("security log disabled", zap.Error(err))
		} else {
			sink = fs
		}
	}
	defer sink.Close()

	// Repositories
	users := repository.NewUserRepository(db)
	leadStatuses := repository.NewLeadStatusRepository(db)
	sources := repository.NewReferenceSourceRepository(db)
	categories := repository.NewPropertyCategoryRepository(db)
	propStatuses := repository.NewPropertyStatusRepository(db)
	leads := repository.NewLeadRepository(db)
	properties := repository.NewPropertyRepository(db)
	viewings := repository.NewViewingRepository(db)
	notifications := repository.NewNotificationRepository(db)
	reports := repository.NewReportRepository(db)

	// Services
	notifier := notify.New(notifications, mailer, log)
	leadReferralSvc := referral.NewService(referral.EntityLead, repository.NewLeadReferralStore(db), users, notifier, log)
	propReferralSvc := referral.NewService(referral.EntityProperty, repository.NewPropertyReferralStore(db), users, notifier, log)
	timelineSvc := timeline.NewService(viewings, notifier, log)
	imp := importer.New(
		repository.NewImportStore(users, leadStatuses, leads, properties, propStatuses, categories, sources),
		notifier,
		importer.Options{MaxBytes: cfg.Import.MaxBytes, MaxRows: cfg.Import.MaxRows},
		log,
	)

	// Controllers
	leadCtrl := controller.NewLeadController(leads, leadStatuses, sources, users)
	propCtrl := controller.NewPropertyController(properties, propStatuses, categories, leads, users, objects)
	h := &controllers{
		health: controller.NewHealthController(func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}),
		auth:          controller.NewAuthController(users),
		users:         controller.NewUserController(users, objects),
		leadStatuses:  controller.NewLeadStatusController(leadStatuses),
		sources:       controller.NewReferenceSourceController(sources),
		categories:    controller.NewPropertyCategoryController(categories),
		propStatuses:  controller.NewPropertyStatusController(propStatuses),
		leads:         leadCtrl,
		leadReferrals: controller.NewReferralController(leadReferralSvc, "lead", leadCtrl.Visible),
		properties:    propCtrl,
		propReferrals: controller.NewReferralController(propReferralSvc, "property", propCtrl.Visible),
		imports:       controller.NewImportController(imp),
		viewings:      controller.NewViewingController(viewings, leads, properties, users, timelineSvc, notifier),
		notifications: controller.NewNotificationController(notifications),
		stats:         controller.NewStatsController(reports, users),
	}

	app := fiber.New(fiber.Config{
		AppName:      "EstaCRM API",
		ErrorHandler: response.ErrorHandler(cfg.IsProduction()),
		BodyLimit:    cfg.Server.BodyLimitMB * 1024 * 1024,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: !cfg.IsProduction()}))
	app.Use(requestid.New())
	app.Use(logger.Middleware())
	app.Use(metrics.Middleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: strings.Join([]string{fiber.MethodGet, fiber.MethodPost, fiber.MethodPut, fiber.MethodDelete, fiber.MethodOptions}, ","),
	}))
	app.Use(middleware.SecurityLogger(sink))
	app.Use(middleware.Sanitizer())

	app.Get("/metrics", metrics.Handler())
	setupRoutes(app, h, middleware.Auth(users), middleware.LoginLimiter(limiterStorage))

	// Background jobs
	scheduler := cron.NewScheduler(log)
	jobs := []struct {
		spec string
		job  cron.Job
	}{
		{"0 8 * * *", cron.NewViewingReminders(viewings, notifier, log)},
		{"0 3 * * 0", cron.NewNotificationRetention(notifications, notificationMaxAge, log)},
		{"0 9 * * *", cron.NewStaleReferrals(staleReferralAge, log, leadReferralSvc, propReferralSvc)},
	}
	if cfg.Cron.Enabled {
		for _, j := range jobs {
			if err := scheduler.Add(j.spec, j.job); err != nil {
				log.Fatal("cron registration failed", zap.String("job", j.job.Name()), zap.Error(err))
			}
		}
		scheduler.Start()
	} else {
		log.Info("background jobs disabled")
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("version", version))
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
	if err := database.Close(db); err != nil {
		log.Error("database close failed", zap.Error(err))
	}
	log.Info("server stopped")
}
