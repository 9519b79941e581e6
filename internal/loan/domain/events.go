package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	LoanAppliedEventType   = "loan.applied"
	LoanOverdueEventType   = "loan.overdue"
	LoanCompletedEventType = "loan.completed"
)

// LoanAppliedEvent 贷款申请事件
type LoanAppliedEvent struct {
	LoanID    uint64          `json:"loan_id"`
	UserID    uint64          `json:"user_id"`
	Principal decimal.Decimal `json:"principal"`
	Total     decimal.Decimal `json:"total"`
	DueAt     time.Time       `json:"due_at"`
	Timestamp time.Time       `json:"timestamp"`
}

// LoanOverdueEvent 贷款逾期事件
type LoanOverdueEvent struct {
	LoanID    uint64    `json:"loan_id"`
	UserID    uint64    `json:"user_id"`
	DueAt     time.Time `json:"due_at"`
	Timestamp time.Time `json:"timestamp"`
}

// LoanCompletedEvent 贷款结清事件，由被接受的回执触发
type LoanCompletedEvent struct {
	LoanID    uint64    `json:"loan_id"`
	UserID    uint64    `json:"user_id"`
	PaymentID uint64    `json:"payment_id"`
	Timestamp time.Time `json:"timestamp"`
}

// EventPublisher 事件发布者接口
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, key string, event any) error
}
