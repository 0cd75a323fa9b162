package nats

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clippermedia/clipper/internal/domain/pipeline"
	"github.com/clippermedia/clipper/internal/domain/video"
)

// Processor runs the pipeline for one asset.
type Processor interface {
	Process(ctx context.Context, assetID uuid.UUID) pipeline.Result
}

// IntakeConsumer receives processing requests from the upload flow and
// hands them to the pipeline. The enqueue call is fire-and-forget: results
// are recorded on the asset itself, so messages are always acked; a job is
// never redelivered because its pipeline run failed.
type IntakeConsumer struct {
	bus       *EventBus
	processor Processor
	logger    *zap.Logger
}

// NewIntakeConsumer creates a new intake consumer.
func NewIntakeConsumer(bus *EventBus, processor Processor, logger *zap.Logger) *IntakeConsumer {
	return &IntakeConsumer{
		bus:       bus,
		processor: processor,
		logger:    logger,
	}
}

// Start subscribes to the processing request subject until ctx is done.
func (c *IntakeConsumer) Start(ctx context.Context) error {
	return c.bus.Subscribe(ctx, video.SubjectProcessRequest, func(data []byte) error {
		return c.handle(ctx, data)
	})
}

func (c *IntakeConsumer) handle(ctx context.Context, data []byte) error {
	var req video.ProcessRequested
	if err := json.Unmarshal(data, &req); err != nil {
		// Redelivery cannot fix a malformed payload; drop it.
		c.logger.Error("dropping malformed processing request",
			zap.Error(err),
			zap.ByteString("payload", data))
		return nil
	}
	if req.AssetID == uuid.Nil {
		c.logger.Error("dropping processing request without asset id",
			zap.ByteString("payload", data))
		return nil
	}

	result := c.processor.Process(ctx, req.AssetID)

	log := c.logger.With(
		zap.String("asset_id", req.AssetID.String()),
		zap.String("outcome", string(result.Outcome)))
	switch result.Outcome {
	case pipeline.OutcomeCompleted:
		log.Info(result.Summary)
	default:
		log.Warn(result.Summary)
	}

	return nil
}
