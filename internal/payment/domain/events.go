package domain

import (
	"context"
	"time"
)

const (
	PaymentSubmittedEventType = "payment.submitted"
	PaymentAcceptedEventType  = "payment.accepted"
	PaymentRejectedEventType  = "payment.rejected"
)

// PaymentSubmittedEvent 回执提交事件
type PaymentSubmittedEvent struct {
	PaymentID  uint64     `json:"payment_id"`
	LoanID     uint64     `json:"loan_id"`
	Timeliness Timeliness `json:"timeliness"`
	Timestamp  time.Time  `json:"timestamp"`
}

// PaymentDecidedEvent 回执审核事件
type PaymentDecidedEvent struct {
	PaymentID uint64         `json:"payment_id"`
	LoanID    uint64         `json:"loan_id"`
	UserID    uint64         `json:"user_id"`
	Action    DecisionAction `json:"action"`
	Timestamp time.Time      `json:"timestamp"`
}

// EventPublisher 事件发布者接口
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, key string, event any) error
}
