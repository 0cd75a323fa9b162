package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/clippermedia/clipper/internal/config"
)

// EventBus implements event publishing and subscription over NATS
// JetStream. The upload flow enqueues processing requests on it and the
// pipeline publishes terminal outcomes for the notification fan-out.
type EventBus struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *zap.Logger
}

// NewEventBus creates a new NATS event bus
func NewEventBus(cfg config.NATSConfig, logger *zap.Logger) (*EventBus, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.MaxReconnects(cfg.MaxReconnect),
		nats.ReconnectWait(cfg.ReconnectWait),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	// Create streams for our event types
	for _, stream := range streamConfigs() {
		_, err = js.AddStream(&stream)
		if err != nil && err != nats.ErrStreamNameAlreadyInUse {
			nc.Close()
			return nil, fmt.Errorf("failed to create stream %s: %w", stream.Name, err)
		}
	}

	return &EventBus{
		nc:     nc,
		js:     js,
		logger: logger,
	}, nil
}

// streamConfigs returns the JetStream streams the bus provisions. The intake
// stream is a work queue: exactly one worker consumes each job. Outcome
// events fan out to several consumers (artifact mirror, notification
// fan-out), so that stream retains messages under limits instead; work-queue
// retention would delete each message at the first ack and reject overlapping
// consumers.
func streamConfigs() []nats.StreamConfig {
	return []nats.StreamConfig{
		{
			Name:      "VIDEO_PROCESS",
			Subjects:  []string{"video.process.>"},
			Storage:   nats.FileStorage,
			Retention: nats.WorkQueuePolicy,
		},
		{
			Name:      "VIDEO_PROCESSING",
			Subjects:  []string{"video.processing.>"},
			Storage:   nats.FileStorage,
			Retention: nats.LimitsPolicy,
			MaxAge:    24 * time.Hour,
		},
	}
}

// Publish publishes an event to the specified subject
func (b *EventBus) Publish(ctx context.Context, subject string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = b.js.Publish(subject, data)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("published event",
		zap.String("subject", subject),
		zap.Any("event", event))
	return nil
}

// Subscribe subscribes to events on the specified subject
func (b *EventBus) Subscribe(ctx context.Context, subject string, handler func([]byte) error) error {
	sub, err := b.js.Subscribe(subject, func(msg *nats.Msg) {
		err := handler(msg.Data)
		if err != nil {
			b.logger.Error("failed to handle event",
				zap.String("subject", subject),
				zap.Error(err))
			// Don't ack the message so it can be retried
			return
		}
		msg.Ack()
	}, nats.AckWait(5*time.Second), nats.ManualAck())
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	// Start a goroutine to handle context cancellation
	go func() {
		<-ctx.Done()
		sub.Unsubscribe()
	}()

	return nil
}

// Close closes the NATS connection
func (b *EventBus) Close() error {
	b.nc.Close()
	return nil
}
