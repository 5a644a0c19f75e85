package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"cvhub/internal/config"
	"cvhub/internal/metrics"
	"cvhub/internal/tasks"
	"cvhub/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if cfg.SMTP.Host == "" {
		log.Fatal("smtp host is required for the worker")
	}

	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr()}
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
	})

	mailer := worker.NewSMTPMailer(cfg.SMTP)
	resetHandler := worker.NewResetEmailHandler(mailer, cfg.Frontend.BaseURL, logger)

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypePasswordResetEmail, resetHandler)

	logger.Info("worker service started", slog.String("redis_addr", cfg.Redis.Addr()))
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}
