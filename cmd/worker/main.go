package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shibata-1273352/surgical-recap/internal/domain/port"
	"github.com/Shibata-1273352/surgical-recap/internal/filter"
	"github.com/Shibata-1273352/surgical-recap/internal/infra/config"
	"github.com/Shibata-1273352/surgical-recap/internal/infra/email"
	"github.com/Shibata-1273352/surgical-recap/internal/infra/ffmpeg"
	"github.com/Shibata-1273352/surgical-recap/internal/infra/metrics"
	miniostorage "github.com/Shibata-1273352/surgical-recap/internal/infra/minio"
	"github.com/Shibata-1273352/surgical-recap/internal/infra/opencv"
	"github.com/Shibata-1273352/surgical-recap/internal/infra/postgres"
	"github.com/Shibata-1273352/surgical-recap/internal/infra/rabbitmq"
	"github.com/Shibata-1273352/surgical-recap/internal/infra/tracing"
	"github.com/Shibata-1273352/surgical-recap/internal/infra/vlm"
	"github.com/Shibata-1273352/surgical-recap/internal/usecase"
	"github.com/Shibata-1273352/surgical-recap/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting surgical-recap worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if Jaeger unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	// Database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	// Migrations
	err = postgres.RunMigrations(cfg.DatabaseURL, "migrations")
	if err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	// MinIO
	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:       cfg.MinIOEndpoint,
		AccessKey:      cfg.MinIOAccessKey,
		SecretKey:      cfg.MinIOSecretKey,
		UseSSL:         cfg.MinIOUseSSL,
		VideoBucket:    cfg.MinIOVideoBucket,
		KeyframeBucket: cfg.MinIOKeyframeBucket,
	})
	fatalOnErr(err, "create minio storage")
	fatalOnErr(storage.EnsureBuckets(ctx), "ensure minio buckets")

	// RabbitMQ publisher connection
	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq for publisher")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")

	statusPub := rabbitmq.NewStatusPublisher(pub)
	dlqPub := rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ)

	// Infra adapters
	repo := postgres.NewJobRepository(pool)
	extractor := ffmpeg.NewExtractor(cfg.FFmpegFPS, cfg.FFmpegFormat, log)
	zipper := ffmpeg.NewZipCreator()
	notifier := email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log)

	// Two-stage filter
	stage1Cfg := filter.Stage1Config{
		SampleIntervalSec:   cfg.Stage1SampleIntervalSec,
		SimilarityThreshold: cfg.Stage1SimilarityThreshold,
		MaxGap:              cfg.Stage1MaxGap,
	}
	var stage1 filter.Stage1Filter
	if cfg.Stage1UseComparator {
		stage1 = filter.NewSimilarityFilter(opencv.NewHistogramComparator(), stage1Cfg, log)
	} else {
		stage1 = filter.NewIntervalSampler(stage1Cfg, log)
	}

	var vision port.VisionSelector = vlm.NewClient(vlm.ClientConfig{
		BaseURL:     cfg.VLMBaseURL,
		APIKey:      cfg.VLMAPIKey,
		Model:       cfg.VLMModel,
		MaxTokens:   cfg.VLMMaxTokens,
		Temperature: cfg.VLMTemp,
	}, log)

	selector := filter.NewStage2Selector(vision, time.Duration(cfg.SelectorTimeoutSec)*time.Second, log)
	pipeline := filter.NewPipeline(stage1, selector, cfg.SelectorConcurrency, log)

	// Use case
	uc := usecase.NewProcessKeyframesUseCase(
		repo, storage, extractor, zipper, pipeline,
		statusPub, dlqPub, notifier,
		log,
		usecase.ProcessKeyframesConfig{
			TempDir:           cfg.TempDir,
			MaxRetries:        cfg.MaxRetries,
			DefaultWindowSize: cfg.WindowSize,
			DefaultOverlap:    cfg.Overlap,
		},
	)

	// Metrics server
	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)

	// Consumer (worker pool)
	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         cfg.RabbitMQURL,
		Queue:       cfg.RabbitMQJobQueue,
		Exchange:    cfg.RabbitMQExchange,
		DLQ:         cfg.RabbitMQDLQ,
		StatusQueue: cfg.RabbitMQStatusQ,
		Prefetch:    cfg.RabbitMQPrefetch,
		WorkerCount: cfg.WorkerCount,
		BaseDelayMs: cfg.RetryBaseDelayMs,
	}, uc.Execute, log)
	fatalOnErr(err, "create consumer")

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("surgical-recap worker started, consuming messages")

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	// Shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	consumer.Close()
	log.Info("surgical-recap worker stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
