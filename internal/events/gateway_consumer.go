package events

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/rahhal-travel/service-booking/internal/kafka"
)

// CallbackApplier applies an asynchronous gateway settlement notification to
// the payment it references.
type CallbackApplier interface {
	ApplyGatewayCallback(ctx context.Context, evt GatewayCallbackEvent) error
}

// GatewayCallbackConsumer listens to asynchronous gateway notifications and
// settles the referenced payments.
type GatewayCallbackConsumer struct {
	consumer *kafka.Consumer
	applier  CallbackApplier
	logger   *zap.Logger
}

// NewGatewayCallbackConsumer creates a new GatewayCallbackConsumer.
func NewGatewayCallbackConsumer(
	brokers []string,
	groupID string,
	applier CallbackApplier,
	logger *zap.Logger,
) *GatewayCallbackConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, GatewayCallbacksTopic, logger)
	return &GatewayCallbackConsumer{
		consumer: consumer,
		applier:  applier,
		logger:   logger,
	}
}

// Start begins consuming gateway callbacks. This blocks until the context is cancelled.
func (c *GatewayCallbackConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *GatewayCallbackConsumer) Close() error {
	return c.consumer.Close()
}

func (c *GatewayCallbackConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var cloudEvent kafka.CloudEvent
	if err := json.Unmarshal(msg.Value, &cloudEvent); err != nil {
		c.logger.Error("failed to parse cloud event from gateway topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case TypeGatewayCallback:
		return c.handleCallback(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled gateway event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *GatewayCallbackConsumer) handleCallback(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt GatewayCallbackEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse GatewayCallbackEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing gateway callback",
		zap.String("payment_number", evt.PaymentNumber),
		zap.String("status", evt.Status),
	)

	if err := c.applier.ApplyGatewayCallback(ctx, evt); err != nil {
		c.logger.Error("failed to apply gateway callback",
			zap.String("payment_number", evt.PaymentNumber),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("gateway callback applied",
		zap.String("payment_number", evt.PaymentNumber),
	)
	return nil
}
