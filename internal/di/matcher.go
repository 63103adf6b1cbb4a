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
	"github.com/liverty-music/usage-matching/internal/infrastructure/messaging"
	"github.com/liverty-music/usage-matching/internal/infrastructure/server"
	"github.com/liverty-music/usage-matching/internal/usecase"
	"github.com/liverty-music/usage-matching/pkg/config"
	"github.com/liverty-music/usage-matching/pkg/shutdown"
	"github.com/liverty-music/usage-matching/pkg/telemetry"
)

// InitializeMatcherApp wires the Matching Engine worker: it consumes
// usage.normalized, runs the ISRC/ISWC/fuzzy/embedding cascade, and
// publishes usage.matched or usage.unmatched (or routes to dlq.matching).
func InitializeMatcherApp(ctx context.Context) (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if _, set := os.LookupEnv("SERVICE_NAME"); !set {
		cfg.ServiceName = "matching-engine"
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
	matchRepo := rdb.NewMatchRepository(db)
	workRepo := rdb.NewWorkRepository(db)
	recordingRepo := rdb.NewRecordingRepository(db)

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

	thresholds := usecase.MatchingThresholds{
		FuzzyMatchThreshold:     cfg.FuzzyMatchThreshold,
		EmbeddingMatchThreshold: cfg.EmbeddingMatchThreshold,
		ManualReviewThreshold:   cfg.ManualReviewThreshold,
		MaxAlternativeMatches:   cfg.MaxAlternativeMatches,
		MaxRetries:              cfg.MaxRetries,
	}
	uc := usecase.NewMatchingUseCase(recordingRepo, workRepo, matchRepo, eventRepo, publisher, thresholds, logger)

	router, err := messaging.NewRouter(wmLogger, publisher, messaging.TopicDLQMatching)
	if err != nil {
		return nil, fmt.Errorf("create messaging router: %w", err)
	}

	handler := event.NewMatchingHandler(uc, logger)
	router.AddNoPublisherHandler(
		"match-usage-events",
		messaging.TopicNormalized,
		subscriber,
		handler.Handle,
	)

	healthSrv := server.NewHealthServer(fmt.Sprintf(":%d", cfg.HealthPort))

	shutdown.Init(logger)
	shutdown.AddDrainPhase(healthSrv)
	shutdown.AddFlushPhase(publisher)
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
