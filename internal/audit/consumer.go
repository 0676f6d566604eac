package audit

import (
	"context"

	"github.com/segmentio/kafka-go"

	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/models"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/pkg/logger"
)

// StreamConsumer is responsible for consuming published audit entries from
// Kafka, feeding the live audit feed.
type StreamConsumer struct {
	reader *kafka.Reader
	logger *logger.Logger
}

// NewStreamConsumer creates a new StreamConsumer.
func NewStreamConsumer(brokers []string, topic, groupID string, log *logger.Logger) *StreamConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &StreamConsumer{
		reader: reader,
		logger: log,
	}
}

// Start begins consuming messages from the audit topic. Each message is
// handed to the handler; handler errors are logged and the message is still
// committed, since the feed is advisory.
func (c *StreamConsumer) Start(ctx context.Context, handler func(kafka.Message) error) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Stopping audit stream consumer...")
				return
			default:
				msg, err := c.reader.FetchMessage(ctx)
				if err != nil {
					if ctx.Err() == nil {
						c.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error fetching audit message from Kafka")
					}
					continue
				}

				if err := handler(msg); err != nil {
					c.logger.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{
						"topic":     msg.Topic,
						"partition": msg.Partition,
						"offset":    msg.Offset,
					}).Error("Error handling audit message")
				}

				if err := c.reader.CommitMessages(ctx, msg); err != nil {
					c.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to commit audit message")
				}
			}
		}
	}()
}

// Close closes the underlying Kafka reader.
func (c *StreamConsumer) Close() error {
	return c.reader.Close()
}
