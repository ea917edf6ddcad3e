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

	"money-manager/internal/config"
	"money-manager/internal/database"
	"money-manager/internal/event"
	"money-manager/internal/handler"
	"money-manager/internal/logger"
	"money-manager/internal/mail"
	"money-manager/internal/metrics"
	"money-manager/internal/middleware"
	"money-manager/internal/repository"
	"money-manager/internal/router"
	"money-manager/internal/service"
)

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	slog.SetDefault(logger.New(os.Stdout, cfg.AppEnv, cfg.LogLevel))

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	transactionRepo := repository.NewTransactionRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	slog.Info("database ready")

	sender, closeSender, err := newSender(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize mail transport: %w", err)
	}
	mailer := mail.Instrument(sender)

	if cfg.MetricsEnabled {
		metrics.MustRegister()
	}

	bus := event.NewBus()
	ledger := service.NewVerificationLedger(tokenRepo, cfg.EmailVerificationTTL, cfg.PasswordResetTTL)
	codec := service.NewTokenCodec(cfg.SecretKey, cfg.AccessTokenTTL)

	authService := service.NewAuthService(userRepo, categoryRepo, ledger, codec, mailer, bus, cfg.FrontendURL)
	categoryService := service.NewCategoryService(categoryRepo)
	transactionService := service.NewTransactionService(transactionRepo, categoryRepo)
	insightsService := service.NewInsightsService(transactionRepo)
	profileService := service.NewProfileService(userRepo, mailer, bus)
	adminService := service.NewAdminService(userRepo, transactionRepo, bus)
	reportService := service.NewReportService(userRepo, transactionRepo)
	auditService := service.NewAuditService(auditRepo)

	authMiddleware := middleware.NewAuthMiddleware(authService)
	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Category:    handler.NewCategoryHandler(categoryService),
		Transaction: handler.NewTransactionHandler(transactionService, reportService),
		User:        handler.NewUserHandler(profileService, insightsService, reportService),
		Admin:       handler.NewAdminHandler(adminService, reportService),
		Audit:       handler.NewAuditHandler(auditService),
	}, db.Health)

	backgroundCtx, backgroundCancel := context.WithCancel(context.Background())
	go auditService.Consume(backgroundCtx, bus)
	go service.RunTokenHousekeeping(backgroundCtx, ledger, cfg.TokenCleanupInterval, cfg.TokenRetention)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		cleanupFuncs: []func(){
			backgroundCancel,
			closeSender,
			db.Close,
		},
	}, nil
}

// newSender picks the delivery path named by MAIL_TRANSPORT. The returned
// close func is always safe to call. With amqp only enqueue failures reach the
// caller; SMTP errors surface in cmd/mailer.
func newSender(cfg *config.Config) (mail.Sender, func(), error) {
	switch cfg.MailTransport {
	case config.MailTransportAMQP:
		queue, err := mail.NewQueueSender(cfg.AMQPURL, cfg.MailQueue)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("mail transport: amqp", "queue", cfg.MailQueue)
		return queue, queue.Close, nil
	case config.MailTransportLog:
		slog.Warn("mail transport: log, messages will not be delivered")
		return mail.LogSender{}, func() {}, nil
	default:
		slog.Info("mail transport: smtp", "server", cfg.MailServer, "port", cfg.MailPort)
		return newSMTPSender(cfg), func() {}, nil
	}
}

func newSMTPSender(cfg *config.Config) *mail.SMTPSender {
	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.MailServer,
		Port:     cfg.MailPort,
		Username: cfg.MailUsername,
		Password: cfg.MailPassword,
		From:     cfg.MailDefaultSender,
		UseTLS:   cfg.MailUseTLS,
	})
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownErr := a.server.Shutdown(ctx)

	// Cleanup runs after in-flight requests drain so they can still reach the pool.
	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}
