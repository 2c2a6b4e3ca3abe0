package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appanalytics "github.com/hydrospark/backend/internal/application/analytics"
	appbilling "github.com/hydrospark/backend/internal/application/billing"
	appcustomer "github.com/hydrospark/backend/internal/application/customer"
	appusage "github.com/hydrospark/backend/internal/application/usage"
	"github.com/hydrospark/backend/internal/domain/analytics"
	"github.com/hydrospark/backend/internal/domain/shared"
	"github.com/hydrospark/backend/internal/infrastructure/config"
	"github.com/hydrospark/backend/internal/infrastructure/event"
	"github.com/hydrospark/backend/internal/infrastructure/lock"
	"github.com/hydrospark/backend/internal/infrastructure/logger"
	"github.com/hydrospark/backend/internal/infrastructure/persistence"
	"github.com/hydrospark/backend/internal/infrastructure/scheduler"
	"github.com/hydrospark/backend/internal/infrastructure/telemetry"
	"github.com/hydrospark/backend/internal/infrastructure/timeseries"
	"github.com/hydrospark/backend/internal/interfaces/http/handler"
	"github.com/hydrospark/backend/internal/interfaces/http/middleware"
	"github.com/hydrospark/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// Job names registered with the scheduler
const (
	jobAnomalySweep = "anomaly_sweep"
	jobBillRun      = "bill_run"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting HydroSpark engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", cfg.App.Version),
	)

	rootCtx := context.Background()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(rootCtx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		_ = tracerProvider.Shutdown(context.Background())
	}()

	meterProvider, err := telemetry.NewMeterProvider(rootCtx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		_ = meterProvider.Shutdown(context.Background())
	}()

	logsProvider, err := telemetry.NewLoggerProvider(rootCtx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
		Level:             logger.ParseLevel(cfg.Log.Level),
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer func() {
		_ = logsProvider.Shutdown(context.Background())
	}()
	log = logsProvider.Bridge(log)

	// Database
	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
		LogLevel: cfg.Log.Level,
		Tracing: telemetry.DBTracingConfig{
			Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        "postgresql",
		},
		SlowQuery: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	readingRepo := persistence.NewGormUsageRecordRepository(db.DB)
	anomalyRepo := persistence.NewGormAnomalyRepository(db.DB)
	billRepo := persistence.NewGormBillRepository(db.DB)

	healthChecks := map[string]handler.Pinger{
		"database": handler.PingerFunc(func(context.Context) error { return db.Ping() }),
	}

	// Per-customer locking
	var locker shared.KeyedLocker
	switch cfg.Lock.Driver {
	case config.LockDriverRedis:
		client, err := lock.NewRedisClient(lock.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			_ = client.Close()
		}()
		lockCfg := lock.DefaultRedisLockConfig()
		lockCfg.TTL = cfg.Lock.TTL
		locker = lock.NewRedisKeyedLocker(client, lockCfg, log)
		healthChecks["redis"] = handler.PingerFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		log.Info("Using Redis customer lock", zap.Duration("ttl", cfg.Lock.TTL))
	default:
		locker = lock.NewInMemoryKeyedLocker()
	}

	// Domain events
	eventBus := event.NewInMemoryEventBus(log)

	if cfg.Kafka.Enabled {
		producer, err := event.NewSyncProducer(event.ProducerConfig{
			Brokers:  cfg.Kafka.Brokers,
			ClientID: cfg.Kafka.ClientID,
		})
		if err != nil {
			log.Fatal("Failed to create Kafka producer", zap.Error(err))
		}
		forwarder := event.NewKafkaForwarder(producer, cfg.Kafka.Topic, log)
		defer func() {
			if err := forwarder.Close(); err != nil {
				log.Error("Error closing Kafka producer", zap.Error(err))
			}
		}()
		eventBus.Subscribe(forwarder)
		log.Info("Forwarding domain events to Kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}

	if cfg.Influx.Enabled {
		writer, err := timeseries.NewInfluxWriter(rootCtx, timeseries.InfluxConfig{
			URL:    cfg.Influx.URL,
			Token:  cfg.Influx.Token,
			Org:    cfg.Influx.Org,
			Bucket: cfg.Influx.Bucket,
		}, log)
		if err != nil {
			log.Fatal("Failed to connect to InfluxDB", zap.Error(err))
		}
		defer writer.Close()
		eventBus.Subscribe(event.NewTimeSeriesHandler(writer, log))
		log.Info("Writing anomaly and bill points to InfluxDB", zap.String("bucket", cfg.Influx.Bucket))
	}

	if err := eventBus.Start(rootCtx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Application services
	rates, err := cfg.Billing.Rates.Schedule()
	if err != nil {
		log.Fatal("Invalid rate schedule", zap.Error(err))
	}
	storageTimeout := cfg.Analytics.StorageTimeout

	forecastCfg := analytics.DefaultForecastConfig()
	forecastCfg.WindowDays = cfg.Forecast.WindowDays
	forecastCfg.MinWeekdaySamples = cfg.Forecast.MinWeekdaySamples
	forecastCfg.ApplyTrend = cfg.Forecast.ApplyTrend
	forecastCfg.MaxHorizonDays = cfg.Forecast.MaxDays

	customerService := appcustomer.NewService(customerRepo, billRepo, locker, shared.SystemClock, storageTimeout, log)
	usageService := appusage.NewService(customerRepo, readingRepo, billRepo, locker, log, storageTimeout)
	analyticsService := appanalytics.NewAnalyticsService(
		customerRepo, readingRepo, anomalyRepo, nil, shared.SystemClock, storageTimeout, log,
	)
	anomalyService := appanalytics.NewAnomalyService(
		customerRepo, readingRepo, anomalyRepo,
		analytics.NewDetector(analytics.DetectorConfig{
			SigmaThreshold: cfg.Analytics.SigmaThreshold,
			MinHistory:     cfg.Analytics.MinHistory,
		}),
		locker, eventBus, shared.SystemClock,
		appanalytics.AnomalyServiceConfig{Workers: cfg.Analytics.Workers, StorageTimeout: storageTimeout},
		log,
	)
	forecastService := appanalytics.NewForecastService(
		customerRepo, readingRepo, analytics.NewForecastEngine(forecastCfg),
		rates, shared.SystemClock, storageTimeout, log,
	)
	billingService := appbilling.NewService(
		customerRepo, readingRepo, billRepo, rates, locker, eventBus, shared.SystemClock,
		appbilling.Config{Workers: cfg.Billing.Workers, StorageTimeout: storageTimeout},
		log,
	)

	if meterProvider.IsEnabled() {
		engineMetrics, err := telemetry.NewEngineMetrics(meterProvider.Meter("hydrospark.engine"), log)
		if err != nil {
			log.Warn("Engine metrics disabled", zap.Error(err))
		} else {
			usageService.SetEngineMetrics(engineMetrics)
			anomalyService.SetEngineMetrics(engineMetrics)
			forecastService.SetEngineMetrics(engineMetrics)
			billingService.SetEngineMetrics(engineMetrics)
		}
	}

	// Background jobs
	if cfg.Scheduler.Enabled {
		cron := scheduler.NewCronScheduler(scheduler.Config{
			Enabled:    true,
			JobTimeout: cfg.Scheduler.JobTimeout,
			Location:   time.UTC,
		}, log)
		jobs := []struct {
			name, spec string
			fn         scheduler.JobFunc
		}{
			{jobAnomalySweep, cfg.Scheduler.AnomalySweepCron, func(ctx context.Context) error {
				res, err := anomalyService.DetectAll(ctx)
				if err != nil {
					return err
				}
				logger.FromContext(ctx).Info("Anomaly sweep finished",
					zap.Int("created", res.CreatedCount),
					zap.Int("customers_scanned", res.CustomersScanned),
					zap.Int("failures", len(res.Failures)),
				)
				return nil
			}},
			{jobBillRun, cfg.Scheduler.BillRunCron, func(ctx context.Context) error {
				res, err := billingService.GenerateAll(ctx)
				if err != nil {
					return err
				}
				logger.FromContext(ctx).Info(res.Message)
				return nil
			}},
		}
		for _, j := range jobs {
			if err := cron.Register(j.name, j.spec, j.fn); err != nil {
				log.Fatal("Failed to register job", zap.String("job", j.name), zap.Error(err))
			}
		}
		if err := cron.Start(rootCtx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer func() {
			if err := cron.Stop(context.Background()); err != nil {
				log.Error("Error stopping scheduler", zap.Error(err))
			}
		}()
		log.Info("Scheduler started",
			zap.String(jobAnomalySweep, cfg.Scheduler.AnomalySweepCron),
			zap.String(jobBillRun, cfg.Scheduler.BillRunCron),
		)
	}

	// HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanAttributes())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		Enabled:       cfg.Telemetry.MetricsEnabled,
		Logger:        log,
	}))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.Timeout(cfg.HTTP.WriteTimeout))

	engine.GET("/health", handler.NewSystemHandler(cfg.App.Version, healthChecks).Health)

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		RegisterAll(router.Handlers{
			Customer:  handler.NewCustomerHandler(customerService),
			Usage:     handler.NewUsageHandler(usageService),
			Analytics: handler.NewAnalyticsHandler(analyticsService),
			Anomaly:   handler.NewAnomalyHandler(anomalyService),
			Forecast:  handler.NewForecastHandler(forecastService),
			Billing:   handler.NewBillingHandler(billingService),
		}).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	log.Info("Server exited gracefully")
}
