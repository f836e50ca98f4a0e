// Command riskd serves stroke risk assessments over gRPC from a trained pipeline artifact.
package main

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

	"go.opentelemetry.io/otel"

	"github.com/strokeguard/strokeguard/internal/application/usecase"
	"github.com/strokeguard/strokeguard/internal/domain/service"
	"github.com/strokeguard/strokeguard/internal/infrastructure/config"
	"github.com/strokeguard/strokeguard/internal/infrastructure/messaging"
	inframl "github.com/strokeguard/strokeguard/internal/infrastructure/ml"
	"github.com/strokeguard/strokeguard/internal/infrastructure/postgres"
	grpcpresentation "github.com/strokeguard/strokeguard/internal/presentation/grpc"
	"github.com/strokeguard/strokeguard/internal/presentation/rest"
	"github.com/strokeguard/strokeguard/pkg/auth"
	"github.com/strokeguard/strokeguard/pkg/kafka"
	"github.com/strokeguard/strokeguard/pkg/observability"
	pgutil "github.com/strokeguard/strokeguard/pkg/postgres"
)

const serviceName = "riskd"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.InitLogger(observability.LogConfig{
		Level:       cfg.LogLevel,
		Format:      "json",
		ServiceName: serviceName,
	})

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("riskd exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting riskd",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"environment", cfg.Environment,
	)

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName: serviceName,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    !cfg.IsProduction(),
	})
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() { _ = shutdownTracer(context.Background()) }()
	}

	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: serviceName})
	if err != nil {
		return err
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }()
	meter := otel.Meter("github.com/strokeguard/strokeguard")

	// The model is loaded before anything accepts traffic; a bad artifact fails startup.
	riskModel, err := inframl.LoadPipelineModel(cfg.ModelPath, meter, logger)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}

	if cfg.RunMigrations {
		if err := pgutil.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("database migrations applied", "source", cfg.MigrationsDir)
	}

	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()
	pool, err := pgutil.NewPool(dbCtx, pgutil.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to database")

	jwtService, err := newJWTService(cfg)
	if err != nil {
		return err
	}

	producer, err := kafka.NewProducer(kafka.Config{
		Brokers:  cfg.KafkaBrokers,
		ClientID: serviceName,
	})
	if err != nil {
		return fmt.Errorf("failed to create kafka producer: %w", err)
	}
	defer producer.Close()

	// Wire infrastructure adapters.
	assessmentRepo := postgres.NewAssessmentRepository(pool)
	relay, err := messaging.NewOutboxRelay(
		postgres.NewOutboxRepository(pool),
		messaging.NewKafkaPublisher(producer, cfg.KafkaTopic, logger),
		cfg.OutboxPollInterval,
		meter,
		logger,
	)
	if err != nil {
		return err
	}

	// Wire domain services and use cases.
	scorer := service.NewStrokeScorer(riskModel, service.NewRiskFactorDetector())
	getModelInfoUC := usecase.NewGetModelInfo(riskModel)
	grpcHandler := grpcpresentation.NewRiskServiceHandler(
		usecase.NewAssessPatient(assessmentRepo, scorer),
		usecase.NewGetAssessment(assessmentRepo),
		usecase.NewListPatientAssessments(assessmentRepo),
		getModelInfoUC,
		logger,
	)

	grpcServer, err := grpcpresentation.NewServer(grpcHandler, grpcpresentation.ServerConfig{
		Address:     cfg.GRPCAddress(),
		TLSCertFile: cfg.TLSCertFile,
		TLSKeyFile:  cfg.TLSKeyFile,
	}, jwtService, logger)
	if err != nil {
		return err
	}

	healthHandler := rest.NewHealthHandler(logger,
		rest.ReadinessCheck{Name: "database", Check: func(ctx context.Context) error {
			return pgutil.HealthCheck(ctx, pool)
		}},
		rest.ReadinessCheck{Name: "model", Check: func(context.Context) error {
			if riskModel.Info().ID == "" {
				return errors.New("no model loaded")
			}
			return nil
		}},
	)
	httpServer := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      rest.NewRouter(healthHandler, rest.NewModelHandler(getModelInfoUC), metricsHandler),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	relayCtx, stopRelay := context.WithCancel(ctx)
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		_ = relay.Run(relayCtx)
	}()

	errCh := make(chan error, 2)
	go func() {
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()
	go func() {
		logger.Info("HTTP server starting", "address", cfg.HTTPAddress())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info("riskd started",
		"grpc_address", cfg.GRPCAddress(),
		"http_address", cfg.HTTPAddress(),
		"model_id", riskModel.Info().ID,
	)

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case serveErr = <-errCh:
	}

	logger.Info("shutting down riskd")
	grpcServer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	// Stop the relay last so events from in-flight requests still get a chance to go out.
	stopRelay()
	<-relayDone

	logger.Info("riskd stopped")
	return serveErr
}

func newJWTService(cfg *config.Config) (*auth.JWTService, error) {
	jwtCfg := auth.JWTConfig{
		Secret: cfg.JWTSecret,
		Issuer: cfg.JWTIssuer,
		Leeway: 30 * time.Second,
	}
	if cfg.JWTPublicKeyFile != "" {
		key, err := auth.LoadKeyFromFile(cfg.JWTPublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load JWT public key: %w", err)
		}
		jwtCfg.PublicKeyPEM = string(key)
		jwtCfg.Secret = ""
	}
	svc, err := auth.NewJWTService(jwtCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}
	return svc, nil
}
