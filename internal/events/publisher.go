package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopvd/backoffice/internal/config"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const producerName = "shopvd-backoffice"

// Envelope 订单事件信封
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // 订单号
	Payload       json.RawMessage `json:"payload"`
}

// OrderCreatedPayload 下单事件
type OrderCreatedPayload struct {
	OrderID      string `json:"order_id"`
	TotalAmount  int64  `json:"total_amount"`
	ReferralCode string `json:"referral_code,omitempty"`
	Commission   int64  `json:"commission"`
	DiscountCode string `json:"discount_code,omitempty"`
}

// OrderStatusChangedPayload 订单状态变更事件
type OrderStatusChangedPayload struct {
	OrderID   string `json:"order_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// NewEnvelope 封装事件载荷
func NewEnvelope(eventType, correlationID string, payload interface{}, at time.Time) (Envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    at.UTC(),
		Producer:      producerName,
		CorrelationID: correlationID,
		Payload:       body,
	}, nil
}

// Publisher 订单事件发布者
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
	Close() error
}

// Kafka 基于 kafka-go 的发布者，按订单号分区
type Kafka struct {
	w *kafka.Writer
}

// NewKafka 创建 Kafka 发布者；未启用时返回 nil
func NewKafka(cfg config.KafkaConfig) (*Kafka, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	brokers := make([]string, 0, len(cfg.Brokers))
	for _, b := range cfg.Brokers {
		if trimmed := strings.TrimSpace(b); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are empty")
	}
	topic := strings.TrimSpace(cfg.Topic)
	if topic == "" {
		return nil, errors.New("kafka topic is empty")
	}
	return &Kafka{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 50 * time.Millisecond,
		},
	}, nil
}

// Publish 同步写入一条事件
func (k *Kafka) Publish(ctx context.Context, env Envelope) error {
	value, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return k.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(env.CorrelationID),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(env.EventType)},
		},
	})
}

// Close 关闭写入器
func (k *Kafka) Close() error {
	if k == nil || k.w == nil {
		return nil
	}
	return k.w.Close()
}

// Nop 未启用时的空发布者
type Nop struct{}

// Publish 丢弃事件
func (Nop) Publish(context.Context, Envelope) error { return nil }

// Close 无操作
func (Nop) Close() error { return nil }
