package di

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/liverty-music/usage-matching/internal/adapter/event"
	"github.com/liverty-music/usage-matching/internal/infrastructure/database/rdb"
	"github.com/liverty-music/usage-matching/internal/infrastructure/embedding"
	"github.com/liverty-music/usage-matching/internal/infrastructure/messaging"
	"github.com/liverty-music/usage-matching/internal/infrastructure/server"
	"github.com/liverty-music/usage-matching/internal/normalize"
	"github.com/liverty-music/usage-matching/internal/usecase"
	"github.com/liverty-music/usage-matching/pkg/config"
	"github.com/liverty-music/usage-matching/pkg/shutdown"
	"github.com/liverty-music/usage-matching/pkg/telemetry"
)

// InitializeUsageProcessorApp wires the Usage Processor worker: it consumes
// every usage.raw.* topic, normalizes and embeds each event, and publishes
// usage.normalized (or routes to dlq.usage.processing).
func InitializeUsageProcessorApp(ctx context.Context) (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if _, set := os.LookupEnv("SERVICE_NAME"); !set {
		cfg.ServiceName = "usage-processor"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := provideLogger(cfg)
	if err != nil {
		return nil, err
	}

	if err := rdb.RunMigrations(ctx, cfg.DatabaseURL, logger); err != nil {
		return nil, fmt.Errorf("run database migrations: %w", err)
	}

	db, err := rdb.New(ctx, cfg.DatabaseURL, cfg.MaxOpenConns, cfg.MaxIdleConns, logger)
	if err != nil {
		return nil, err
	}

	telemetryCloser, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		return nil, err
	}

	eventRepo := rdb.NewUsageEventRepository(db)

	embedder := embedding.NewClient(cfg.OpenAIAPIKey, cfg.EmbeddingModel, cfg.EmbeddingBatchSize, cfg.EmbeddingCacheTTL, cfg.EmbeddingPacing, provideSlogLogger(cfg))

	wmLogger := watermill.NewStdLogger(false, false)
	var goChannel *gochannel.GoChannel
	if len(cfg.KafkaBrokers) == 0 {
		goChannel = gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, wmLogger)
	}

	publisher, err := messaging.NewPublisher(cfg.KafkaBrokers, wmLogger, goChannel)
	if err != nil {
		return nil, fmt.Errorf("create messaging publisher: %w", err)
	}
	subscriber, err := messaging.NewSubscriber(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, wmLogger, goChannel)
	if err != nil {
		return nil, fmt.Errorf("create messaging subscriber: %w", err)
	}

	uc := usecase.NewUsageProcessorUseCase(normalize.NewRegistry(), embedder, eventRepo, publisher, logger)

	router, err := messaging.NewRouter(wmLogger, publisher, messaging.TopicDLQProcessing)
	if err != nil {
		return nil, fmt.Errorf("create messaging router: %w", err)
	}

	for _, topic := range messaging.RawTopics {
		handler := event.NewUsageProcessorHandler(uc, topic, logger)
		router.AddNoPublisherHandler(
			"process-"+topic,
			topic,
			subscriber,
			handler.Handle,
		)
	}

	healthSrv := server.NewHealthServer(fmt.Sprintf(":%d", cfg.HealthPort))

	shutdown.Init(logger)
	shutdown.AddDrainPhase(healthSrv)
	shutdown.AddFlushPhase(publisher)
	shutdown.AddExternalPhase(embedder)
	shutdown.AddObservePhase(telemetryCloser)
	shutdown.AddDatastorePhase(db)

	return &WorkerApp{
		Router:          router,
		HealthServer:    healthSrv,
		Logger:          logger,
		ShutdownTimeout: cfg.ShutdownTimeout,
		closers:         []io.Closer{},
	}, nil
}
