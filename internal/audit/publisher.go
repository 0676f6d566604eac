package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/models"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/pkg/logger"
)

// Publisher 封装了向 Kafka 发送审计条目的逻辑。
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher 创建一个新的 Publisher 实例。
func NewPublisher(brokers []string, topic string) *Publisher {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      brokers,
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	})
	return &Publisher{writer: writer}
}

// Publish 将审计条目序列化为 JSON 并发送到 Kafka，以任务ID为分区键。
func (p *Publisher) Publish(ctx context.Context, entry *models.AuditEntry) error {
	jsonData, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(entry.TaskID),
		Value: jsonData,
	})
	if err != nil {
		return fmt.Errorf("failed to write audit entry to kafka: %w", err)
	}
	return nil
}

// Close 关闭底层的 writer 连接。
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// PublishingLedger decorates a Ledger so every appended entry is also pushed
// onto the audit stream. The ledger write is the source of truth; a failed
// publish is logged and dropped, it never fails the append.
type PublishingLedger struct {
	Ledger
	publisher *Publisher
	logger    *logger.Logger
}

// NewPublishingLedger wraps the inner ledger with stream publication.
func NewPublishingLedger(inner Ledger, publisher *Publisher, log *logger.Logger) *PublishingLedger {
	return &PublishingLedger{Ledger: inner, publisher: publisher, logger: log}
}

// Append records the entry, then publishes it to the stream.
func (l *PublishingLedger) Append(ctx context.Context, entry *models.AuditEntry) (int64, error) {
	seq, err := l.Ledger.Append(ctx, entry)
	if err != nil {
		return 0, err
	}
	if err := l.publisher.Publish(ctx, entry); err != nil {
		l.logger.WithError(models.ErrorInfo{Message: err.Error()}).
			WithPayload(map[string]interface{}{"taskID": entry.TaskID, "seq": seq}).
			Error("Failed to publish audit entry to Kafka")
	}
	return seq, nil
}
