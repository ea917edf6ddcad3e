package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"money-manager/internal/config"
	"money-manager/internal/logger"
	"money-manager/internal/mail"
	"money-manager/internal/metrics"
)

// The mailer drains MAIL_QUEUE and delivers each message over SMTP. The API
// server publishes to the queue when MAIL_TRANSPORT=amqp.
func main() {
	cfg, err := config.LoadMailer()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger.New(os.Stdout, cfg.AppEnv, cfg.LogLevel))

	smtp := mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.MailServer,
		Port:     cfg.MailPort,
		Username: cfg.MailUsername,
		Password: cfg.MailPassword,
		From:     cfg.MailDefaultSender,
		UseTLS:   cfg.MailUseTLS,
	})

	consumer, err := mail.NewConsumer(cfg.AMQPURL, cfg.MailQueue, mail.Instrument(smtp))
	if err != nil {
		slog.Error("failed to connect to mail queue", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.MetricsEnabled {
		metrics.MustRegister()
		metricsServer = &http.Server{
			Addr:              ":" + cfg.MailerMetricsPort,
			Handler:           metrics.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			slog.Info("mailer metrics listening", "port", cfg.MailerMetricsPort)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", "error", err)
			}
		}()
	}

	runErr := consumer.Run(ctx)

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = metricsServer.Shutdown(shutdownCtx)
		cancel()
	}

	if runErr != nil {
		slog.Error("mail consumer stopped", "error", runErr)
		os.Exit(1)
	}
	slog.Info("mail consumer stopped")
}
