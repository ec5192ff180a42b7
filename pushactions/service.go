// --- File: pushactions/service.go ---
package pushactions

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-microservice-base/pkg/microservice"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"github.com/tinywideclouds/go-push-actions/internal/api"
	"github.com/tinywideclouds/go-push-actions/internal/pipeline"
	"github.com/tinywideclouds/go-push-actions/internal/sender"
	"github.com/tinywideclouds/go-push-actions/pushactions/config"
)

type Wrapper struct {
	*microservice.BaseServer
	pipelineService *messagepipeline.StreamingService[pipeline.SendRequest]
	logger          *slog.Logger
}

// New assembles the service: the Pub/Sub ingestion pipeline and the
// authenticated HTTP send API share one Sender.
func New(
	cfg *config.Config,
	consumer messagepipeline.MessageConsumer,
	snd *sender.Sender,
	authMiddleware func(http.Handler) http.Handler,
	logger *slog.Logger,
) (*Wrapper, error) {

	// 1. Base Server
	baseServer := microservice.NewBaseServer(logger, cfg.ListenAddr)

	// 2. Pipeline
	streamingService, err := messagepipeline.NewStreamingService[pipeline.SendRequest](
		messagepipeline.StreamingServiceConfig{NumWorkers: cfg.NumPipelineWorkers},
		consumer,
		pipeline.SendRequestTransformer,
		pipeline.NewProcessor(snd, cfg.DryRun, logger),
		slog.New(slog.DiscardHandler),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create streaming service: %w", err)
	}

	// 3. API
	sendAPI := api.NewSendAPI(snd, logger)

	// Register Routes
	mux := baseServer.Mux()

	corsMiddleware := middleware.NewCorsMiddleware(cfg.CorsConfig, logger)

	// OPTIONS
	mux.Handle("OPTIONS /api/v1/", corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	// Send endpoints (Protected)
	mux.Handle("POST /api/v1/send", corsMiddleware(authMiddleware(http.HandlerFunc(sendAPI.Send))))
	mux.Handle("POST /api/v1/send/batch", corsMiddleware(authMiddleware(http.HandlerFunc(sendAPI.SendBatch))))
	mux.Handle("POST /api/v1/send/multicast", corsMiddleware(authMiddleware(http.HandlerFunc(sendAPI.SendMulticast))))
	mux.Handle("POST /api/v1/topics/subscribe", corsMiddleware(authMiddleware(http.HandlerFunc(sendAPI.SubscribeToTopic))))
	mux.Handle("POST /api/v1/topics/unsubscribe", corsMiddleware(authMiddleware(http.HandlerFunc(sendAPI.UnsubscribeFromTopic))))

	return &Wrapper{
		BaseServer:      baseServer,
		pipelineService: streamingService,
		logger:          logger,
	}, nil
}

func (w *Wrapper) Start(ctx context.Context) error {
	w.logger.Info("Core processing pipeline starting...")
	if err := w.pipelineService.Start(ctx); err != nil {
		return fmt.Errorf("failed to start processing service: %w", err)
	}
	w.SetReady(true)
	w.logger.Info("Service is now ready.")
	return w.BaseServer.Start()
}

func (w *Wrapper) Shutdown(ctx context.Context) error {
	w.logger.Info("Shutting down service components...")
	var finalErr error
	if err := w.pipelineService.Stop(ctx); err != nil {
		w.logger.Error("Processing pipeline shutdown failed.", "err", err)
		finalErr = err
	}
	if err := w.BaseServer.Shutdown(ctx); err != nil {
		w.logger.Error("HTTP server shutdown failed.", "err", err)
		finalErr = err
	}
	w.logger.Info("Service shutdown complete.")
	return finalErr
}
