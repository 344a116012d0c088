package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
)

// Publisher は1つのトピックにイベントを送る。
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
	Close() error
}

// KafkaPublisher は Writer を使い回す。
type KafkaPublisher struct {
	writer *kafkaGo.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafkaGo.Writer{
			Addr:         kafkaGo.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkaGo.LeastBytes{},
			RequiredAcks: kafkaGo.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, key string, event any) error {
	msg, err := NewMessage(key, event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NewMessage はイベントをJSONにしてメッセージを作る。
func NewMessage(key string, event any) (kafkaGo.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return kafkaGo.Message{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	return kafkaGo.Message{
		Key:   []byte(key),
		Value: payload,
	}, nil
}

// LogPublisher は KAFKA_BROKERS が無いときの代わり。ログに出すだけ。
type LogPublisher struct {
	logger *slog.Logger
	topic  string
}

func NewLogPublisher(logger *slog.Logger, topic string) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger, topic: topic}
}

func (p *LogPublisher) Publish(ctx context.Context, key string, event any) error {
	msg, err := NewMessage(key, event)
	if err != nil {
		return err
	}
	p.logger.InfoContext(ctx, "event published",
		"topic", p.topic,
		"key", key,
		"payload", string(msg.Value),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = (*LogPublisher)(nil)
)
