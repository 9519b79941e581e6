package messaging

import (
	"context"

	"github.com/wyfcoding/loanloey/internal/payment/domain"
	"github.com/wyfcoding/loanloey/pkg/mq"
)

// PaymentEventsTopic 还款事件主题
const PaymentEventsTopic = "loanloey.payment.events"

type envelope struct {
	EventType string `json:"event_type"`
	Payload   any    `json:"payload"`
}

// kafkaPublisher Kafka 事件发布者实现
type kafkaPublisher struct {
	producer *mq.KafkaProducer
}

func NewKafkaPublisher(producer *mq.KafkaProducer) domain.EventPublisher {
	return &kafkaPublisher{producer: producer}
}

func (p *kafkaPublisher) Publish(ctx context.Context, eventType string, key string, event any) error {
	return p.producer.SendMessage(ctx, PaymentEventsTopic, key, envelope{
		EventType: eventType,
		Payload:   event,
	})
}

// noopPublisher 在未启用 Kafka 时使用
type noopPublisher struct{}

func NewNoopPublisher() domain.EventPublisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(ctx context.Context, eventType string, key string, event any) error {
	return nil
}
