package mysql

import (
	"time"

	"github.com/wyfcoding/loanloey/internal/payment/domain"
)

// PaymentModel 还款记录数据库模型
type PaymentModel struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	LoanID      uint64    `gorm:"not null;index"`
	Status      string    `gorm:"type:varchar(16);not null;default:'waiting';index"`
	Timeliness  string    `gorm:"type:varchar(16);not null"`
	Receipt     []byte    `gorm:"type:mediumblob;not null"`
	WrappedKey  []byte    `gorm:"type:varbinary(512);not null"`
	SubmittedAt time.Time `gorm:"not null"`
	DecidedAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName 指定表名
func (PaymentModel) TableName() string {
	return "payments"
}

func toPaymentModel(p *domain.Payment) *PaymentModel {
	return &PaymentModel{
		ID:          p.ID,
		LoanID:      p.LoanID,
		Status:      string(p.Status),
		Timeliness:  string(p.Timeliness),
		Receipt:     p.Receipt.Ciphertext,
		WrappedKey:  p.Receipt.WrappedKey,
		SubmittedAt: p.SubmittedAt,
		DecidedAt:   p.DecidedAt,
	}
}

func toPayment(m *PaymentModel) *domain.Payment {
	return &domain.Payment{
		ID:          m.ID,
		LoanID:      m.LoanID,
		Status:      domain.PaymentStatus(m.Status),
		Timeliness:  domain.Timeliness(m.Timeliness),
		SubmittedAt: m.SubmittedAt,
		DecidedAt:   m.DecidedAt,
	}
}
