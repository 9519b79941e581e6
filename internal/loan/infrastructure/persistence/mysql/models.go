package mysql

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/loanloey/internal/loan/domain"
)

// LoanModel MySQL 贷款表映射
type LoanModel struct {
	ID           uint64          `gorm:"primaryKey;autoIncrement"`
	CreatedAt    time.Time       `gorm:"column:created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at"`
	UserID       uint64          `gorm:"column:user_id;index;not null"`
	Principal    decimal.Decimal `gorm:"column:principal;type:decimal(18,2);not null"`
	InterestRate decimal.Decimal `gorm:"column:interest_rate;type:decimal(8,4);not null"`
	Interest     decimal.Decimal `gorm:"column:interest;type:decimal(18,2);not null"`
	Total        decimal.Decimal `gorm:"column:total;type:decimal(18,2);not null"`
	DueAt        time.Time       `gorm:"column:due_at;not null"`
	Status       string          `gorm:"column:status;type:varchar(20);index;not null"`
	AppliedAt    time.Time       `gorm:"column:applied_at;not null"`
}

func (LoanModel) TableName() string {
	return "loans"
}

func toLoanModel(loan *domain.Loan) *LoanModel {
	if loan == nil {
		return nil
	}
	return &LoanModel{
		ID:           loan.ID,
		CreatedAt:    loan.CreatedAt,
		UpdatedAt:    loan.UpdatedAt,
		UserID:       loan.UserID,
		Principal:    loan.Principal,
		InterestRate: loan.InterestRate,
		Interest:     loan.Interest,
		Total:        loan.Total,
		DueAt:        loan.DueAt,
		Status:       string(loan.Status),
		AppliedAt:    loan.AppliedAt,
	}
}

func toLoan(model *LoanModel) *domain.Loan {
	if model == nil {
		return nil
	}
	return &domain.Loan{
		ID:           model.ID,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
		UserID:       model.UserID,
		Principal:    model.Principal,
		InterestRate: model.InterestRate,
		Interest:     model.Interest,
		Total:        model.Total,
		DueAt:        model.DueAt,
		Status:       domain.LoanStatus(model.Status),
		AppliedAt:    model.AppliedAt,
	}
}
