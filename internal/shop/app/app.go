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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aussiebroadwan/shopfront/internal/shop/domain"
	"github.com/aussiebroadwan/shopfront/internal/shop/filestore"
	httpapi "github.com/aussiebroadwan/shopfront/internal/shop/http"
	"github.com/aussiebroadwan/shopfront/internal/shop/mail"
	"github.com/aussiebroadwan/shopfront/internal/shop/observability"
	"github.com/aussiebroadwan/shopfront/internal/shop/service"
	"github.com/aussiebroadwan/shopfront/internal/shop/store"
	"github.com/aussiebroadwan/shopfront/internal/shop/store/drivers/sqlite"
	"github.com/aussiebroadwan/shopfront/pkg/cryptox"
	"github.com/aussiebroadwan/shopfront/pkg/jwtx"
	"github.com/aussiebroadwan/shopfront/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application wires the shopfront service together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	files    filestore.FileStore
	mailer   mail.Mailer
	hasher   *cryptox.Hasher
	registry *prometheus.Registry
	metrics  *observability.Metrics

	tokenService        *service.TokenService
	authService         *service.AuthService
	userService         *service.UserService
	productService      *service.ProductService
	cartService         *service.CartService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with every dependency initialised. Nothing is
// listening until Run.
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "shopfront",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	pepper, err := cryptox.LoadOrGeneratePepper(cfg.PepperFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}
	app.hasher = cryptox.NewHasher(cfg.PasswordAlgorithm, cfg.BcryptCost, pepper)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initFiles(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initMailer()
	app.initMetrics()

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler is the root HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	if err := app.housekeepingService.Start(); err != nil {
		return fmt.Errorf("housekeeping: %w", err)
	}

	app.logger.Info("shopfront starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			_ = app.db.Close()
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

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down shopfront...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("shopfront stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := app.cfg.DatabaseFile
	if dsn != ":memory:" {
		dsn = sqlite.DSN(dsn)
	}
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initFiles opens the configured avatar store and seeds the default avatar.
func (app *Application) initFiles(ctx context.Context) error {
	fc := app.cfg.Files

	var (
		files filestore.FileStore
		err   error
	)
	switch fc.Driver {
	case "minio":
		files, err = filestore.NewMinio(ctx, filestore.MinioConfig{
			Endpoint:  fc.Endpoint,
			AccessKey: fc.AccessKey,
			SecretKey: fc.SecretKey,
			Bucket:    fc.Bucket,
			UseSSL:    fc.UseSSL,
			PublicURL: fc.PublicURL,
		})
	case "s3":
		files, err = filestore.NewS3(ctx, filestore.S3Config{
			Endpoint:     fc.Endpoint,
			Region:       fc.Region,
			AccessKey:    fc.AccessKey,
			SecretKey:    fc.SecretKey,
			Bucket:       fc.Bucket,
			UsePathStyle: fc.UsePathStyle,
			PublicURL:    fc.PublicURL,
		})
	default:
		files, err = filestore.NewLocal(fc.Dir, fc.BaseURL)
	}
	if err != nil {
		return fmt.Errorf("failed to open %s file store: %w", fc.Driver, err)
	}

	if err := filestore.EnsureDefaultAvatar(ctx, files, domain.DefaultAvatar); err != nil {
		return fmt.Errorf("failed to seed default avatar: %w", err)
	}

	app.files = files
	app.logger.Info("file store ready", "driver", fc.Driver)
	return nil
}

func (app *Application) initMailer() {
	sc := app.cfg.SMTP
	if sc.Host == "" {
		app.logger.Warn("SMTP_HOST not set, emails will be logged instead of sent")
		app.mailer = &mail.LogMailer{Logger: app.logger}
		return
	}
	app.mailer = mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     sc.Host,
		Port:     sc.Port,
		Username: sc.Username,
		Password: sc.Password,
		From:     sc.From,
	})
}

func (app *Application) initMetrics() {
	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = observability.NewMetrics(app.registry)
}

func (app *Application) initServices() error {
	secret := []byte(app.cfg.TokenSecret)
	signer, err := jwtx.NewSignerHS256(secret)
	if err != nil {
		return fmt.Errorf("failed to create token signer: %w", err)
	}
	verifier, err := jwtx.NewVerifierHS256(secret, app.cfg.TokenIssuer, 30*time.Second)
	if err != nil {
		return fmt.Errorf("failed to create token verifier: %w", err)
	}

	app.tokenService = &service.TokenService{
		Signer:   signer,
		Verifier: verifier,
		Issuer:   app.cfg.TokenIssuer,
		TTL:      app.cfg.TokenTTL,
	}
	app.authService = &service.AuthService{
		Store:   app.db,
		Hasher:  app.hasher,
		Tokens:  app.tokenService,
		Mailer:  app.mailer,
		Files:   app.files,
		Metrics: app.metrics,
	}
	app.userService = &service.UserService{
		Store:  app.db,
		Hasher: app.hasher,
		Mailer: app.mailer,
		Files:  app.files,
	}
	app.productService = &service.ProductService{Store: app.db}
	app.cartService = &service.CartService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingSchedule,
	)
	app.housekeepingService.Metrics = app.metrics
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.tokenService.Verifier,
		BuildVersion,
		app.db,
		app.files,
		app.logger,
	)

	router.AuthService = app.authService
	router.UserService = app.userService
	router.ProductService = app.productService
	router.CartService = app.cartService
	router.Metrics = app.metrics
	router.Gatherer = app.registry
	router.PublicBaseURL = app.cfg.PublicBaseURL
	router.AllowedOrigins = app.cfg.AllowedOrigins
	if local, ok := app.files.(*filestore.Local); ok {
		router.AvatarDir = local.Dir()
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
