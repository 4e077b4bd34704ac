package main

import (
	"area-picker/internal/areas"
	"area-picker/internal/config"
	"area-picker/internal/handler"
	"area-picker/internal/host"
	"area-picker/internal/metrics"
	"area-picker/internal/repository"
	"area-picker/internal/service"
	"context"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

func newLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(lvl)
	}
	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

func main() {
	config.Load()
	logger := newLogger(config.GetLogConfig())

	redisCfg := config.GetRedisConfig()
	if redisCfg.Addr == "" {
		logger.Fatal("REDIS_ADDR is empty")
	}

	table := areas.Table()
	if err := areas.Validate(table); err != nil {
		logger.WithError(err).Fatal("invalid service area table")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := repository.NewStorage(ctx, redisCfg)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize storage")
	}

	var sender host.Sender
	var opts []service.Option
	if tg := config.GetTelegramConfig(); tg.APIToken != "" {
		ts := host.NewTelegramSender(tg)
		defer ts.Close()
		sender = ts
		opts = append(opts, service.WithRequiredChatID())
		logger.Info("host delivery: telegram")
	} else {
		url := config.GetWebhookURL()
		if url == "" {
			logger.Fatal("neither TELEGRAM_BOT_TOKEN nor HOST_WEBHOOK_URL is set")
		}
		sender = host.NewWebhookSender(url, nil)
		logger.WithField("url", url).Info("host delivery: webhook")
	}

	if err := metrics.RegisterQueueDepth(func() float64 {
		lenCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		n, err := storage.QueueLen(lenCtx)
		if err != nil {
			return -1
		}
		return float64(n)
	}); err != nil {
		logger.WithError(err).Warn("queue depth gauge not registered")
	}

	areaService := service.NewAreaService(table, storage, logger, opts...)
	h := handler.NewHandler(logger, areaService)

	addr := config.GetHTTPAddr()
	server := &http.Server{
		Addr:              addr,
		Handler:           handler.AccessMiddleware(logger)(h.Routes()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server ListenAndServe error")
		}
	}()

	logger.WithFields(logrus.Fields{"addr": addr, "areas": len(table)}).Info("Server started")

	worker := service.NewWebhookWorker(storage, sender, logger,
		config.GetWebhookMaxAttempts(), config.GetWebhookRetryBackoff())
	workerDone := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(workerDone)
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("server forced to shutdown")
	} else {
		logger.Info("Server stopped gracefully")
	}

	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		logger.Warn("webhook worker did not stop in time")
	}

	if err := storage.Close(); err != nil {
		logger.WithError(err).Warn("storage close error")
	} else {
		logger.Info("Storage closed")
	}
}
