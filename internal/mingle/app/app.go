package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/mingle/internal/mingle/domain"
	"github.com/aussiebroadwan/mingle/internal/mingle/geocode"
	httpapi "github.com/aussiebroadwan/mingle/internal/mingle/http"
	"github.com/aussiebroadwan/mingle/internal/mingle/mailer"
	"github.com/aussiebroadwan/mingle/internal/mingle/service"
	"github.com/aussiebroadwan/mingle/internal/mingle/store"
	"github.com/aussiebroadwan/mingle/internal/mingle/store/drivers/memory"
	"github.com/aussiebroadwan/mingle/internal/mingle/store/drivers/postgres"
	redisstore "github.com/aussiebroadwan/mingle/internal/mingle/store/drivers/redis"
	"github.com/aussiebroadwan/mingle/internal/mingle/store/drivers/sqlite"
	"github.com/aussiebroadwan/mingle/internal/mingle/weather"
	"github.com/aussiebroadwan/mingle/pkg/cryptox"
	"github.com/aussiebroadwan/mingle/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application wires storage, services and the HTTP server together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	blobs store.Store
	codes store.OTPCodes
	// closers run on shutdown after blobs, e.g. a separate redis code store.
	closers []func() error

	domainStore         *service.DomainStore
	otpService          *service.OTPService
	geolocator          *service.Geolocator
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "mingle",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(app.cfg.PepperFile)
	if err := cryptox.LoadPepper(); err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}

	ctx := context.Background()
	if err := app.initStorage(ctx); err != nil {
		return nil, err
	}
	if err := app.initCodeStore(ctx); err != nil {
		app.closeStorage()
		return nil, err
	}
	if err := app.initServices(ctx); err != nil {
		app.closeStorage()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("mingle starting", "port", app.cfg.Port, "version", BuildVersion, "storage", app.cfg.StorageDriver)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains HTTP, stops background work and closes storage.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down mingle...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()
	// Pending geocodes would write to storage we are about to close.
	app.geolocator.Close()

	if err := app.closeStorage(); err != nil {
		return err
	}

	app.logger.Info("mingle stopped")
	return nil
}

// initStorage opens the configured driver and applies its migrations.
func (app *Application) initStorage(ctx context.Context) error {
	var (
		blobs store.Store
		err   error
	)

	switch app.cfg.StorageDriver {
	case "memory":
		m := memory.NewStore()
		blobs = m
		if app.cfg.OTPCodeStore != "redis" {
			app.codes = m
		}
	case "sqlite":
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
		blobs, err = sqlite.NewStore(dsn)
	case "postgres":
		if app.cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
		blobs, err = postgres.Open(app.cfg.DatabaseURL)
	case "redis":
		client, cerr := redisstore.Connect(ctx, app.cfg.RedisURL)
		if cerr != nil {
			return fmt.Errorf("failed to connect to redis: %w", cerr)
		}
		r := redisstore.New(client)
		blobs = r
		if app.cfg.OTPCodeStore == "redis" {
			app.codes = r
		}
	default:
		return fmt.Errorf("unknown storage driver %q", app.cfg.StorageDriver)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize %s storage: %w", app.cfg.StorageDriver, err)
	}
	app.blobs = blobs

	if err := blobs.ApplyMigrations(); err != nil {
		_ = blobs.Close()
		return fmt.Errorf("failed to apply storage migrations: %w", err)
	}
	if err := blobs.Ping(ctx); err != nil {
		_ = blobs.Close()
		return fmt.Errorf("storage not reachable: %w", err)
	}

	app.logger.Info("storage ready", "driver", app.cfg.StorageDriver)
	return nil
}

// initCodeStore picks where OTP codes live, unless initStorage already did.
func (app *Application) initCodeStore(ctx context.Context) error {
	if app.codes != nil {
		return nil
	}

	switch app.cfg.OTPCodeStore {
	case "redis":
		client, err := redisstore.Connect(ctx, app.cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis for otp codes: %w", err)
		}
		r := redisstore.New(client)
		if err := r.Ping(ctx); err != nil {
			_ = r.Close()
			return fmt.Errorf("redis not reachable for otp codes: %w", err)
		}
		app.codes = r
		app.closers = append(app.closers, r.Close)
	case "memory", "":
		app.codes = memory.NewStore()
	default:
		return fmt.Errorf("unknown otp code store %q", app.cfg.OTPCodeStore)
	}
	return nil
}

func (app *Application) initServices(ctx context.Context) error {
	app.domainStore = service.NewDomainStore(ctx, app.blobs, app.logger, app.cfg.SnapshotKey)

	m, err := mailer.New(mailer.Config{
		Provider:    app.cfg.MailProvider,
		FromAddress: app.cfg.MailFromAddress,
		FromName:    app.cfg.MailFromName,
		SES: mailer.SESConfig{
			Region:          app.cfg.AWSRegion,
			AccessKeyID:     app.cfg.AWSAccessKeyID,
			SecretAccessKey: app.cfg.AWSSecretAccessKey,
		},
		EmailJS: mailer.EmailJSConfig{
			ServiceID:  app.cfg.EmailJSServiceID,
			TemplateID: app.cfg.EmailJSTemplateID,
			PublicKey:  app.cfg.EmailJSPublicKey,
		},
		Logger: app.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize mailer: %w", err)
	}

	app.otpService = service.NewOTPService(
		app.codes,
		m,
		app.logger,
		app.cfg.OTPIssuer,
		app.cfg.OTPTTL,
		app.cfg.OTPResendCooldown,
	)

	app.geolocator = service.NewGeolocator(
		app.domainStore,
		geocode.New(app.cfg.GeocoderURL, app.cfg.GeocoderUserAgent),
		app.logger,
		app.cfg.CollaboratorTimeout,
	)

	app.housekeepingService = service.NewHousekeepingService(
		app.codes,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.blobs, app.domainStore, app.logger)

	router.OTP = app.otpService
	router.Geolocator = app.geolocator
	router.Forecaster = weather.New(app.cfg.WeatherURL, app.logger)
	router.FallbackCoordinate = domain.Coordinate{
		Latitude:  app.cfg.WeatherFallbackLat,
		Longitude: app.cfg.WeatherFallbackLon,
	}
	router.ForecastTimeout = app.cfg.CollaboratorTimeout
	router.AdminToken = app.cfg.AdminToken
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

func (app *Application) closeStorage() error {
	var errs []error
	for _, closeFn := range app.closers {
		errs = append(errs, closeFn())
	}
	if app.blobs != nil {
		if err := app.blobs.Close(); err != nil {
			app.logger.Error("error closing storage", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
