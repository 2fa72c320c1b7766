// Package events consumes job-completion notifications from the message bus
// and hands them to the reconciler.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/Disfractal/cloud-reel-vault/internal/pipeline"
)

// CompletionHandler is what the consumer calls for each notification.
type CompletionHandler interface {
	HandleCompletion(ctx context.Context, n pipeline.CompletionNotification) error
}

// Consumer reads completion notifications from a Kafka topic. Bad messages
// and handler failures are logged and skipped; the loop itself only stops on
// context cancellation.
type Consumer struct {
	reader  *kafka.Reader
	handler CompletionHandler
	log     *logrus.Logger
}

func NewConsumer(brokers []string, topic, groupID string, handler CompletionHandler, log *logrus.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	return &Consumer{reader: reader, handler: handler, log: log}
}

// Run blocks until ctx is cancelled or the reader is closed.
func (c *Consumer) Run(ctx context.Context) {
	c.log.WithField("topic", c.reader.Config().Topic).Info("Completion consumer started")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				c.log.Info("Completion consumer stopped")
				return
			}
			c.log.WithError(err).Error("Failed to read completion notification")
			continue
		}

		var n pipeline.CompletionNotification
		if err := json.Unmarshal(msg.Value, &n); err != nil {
			c.log.WithError(err).WithField("offset", msg.Offset).Warn("Unparseable completion notification, skipping")
			continue
		}

		if err := c.handler.HandleCompletion(ctx, n); err != nil {
			// Logged, not re-raised: erroring here would only trigger
			// redelivery of a notification we already could not apply.
			c.log.WithError(err).WithField("job_id", n.JobID).Error("Failed to reconcile completion notification")
		}
	}
}

// Close shuts the underlying reader down.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
