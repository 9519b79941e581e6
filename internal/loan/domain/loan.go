package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrLoanNotFound        = errors.New("loan not found")
	ErrInvalidAmount       = errors.New("principal below minimum amount")
	ErrInvalidDueDate      = errors.New("due date must be in the future")
	ErrLoanAlreadyComplete = errors.New("loan already complete")
)

type LoanStatus string

const (
	LoanStatusPending  LoanStatus = "pending"
	LoanStatusOverdue  LoanStatus = "overdue"
	LoanStatusComplete LoanStatus = "complete"
)

type Loan struct {
	ID           uint64          `json:"id"`
	UserID       uint64          `json:"user_id"`
	Principal    decimal.Decimal `json:"initial_amount"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	Interest     decimal.Decimal `json:"interest"`
	Total        decimal.Decimal `json:"total"`
	DueAt        time.Time       `json:"due_date_time"`
	Status       LoanStatus      `json:"status"`
	AppliedAt    time.Time       `json:"applied_at"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func NewLoan(userID uint64, terms Terms, dueAt, now time.Time) *Loan {
	return &Loan{
		UserID:       userID,
		Principal:    terms.Principal,
		InterestRate: terms.Rate,
		Interest:     terms.Interest,
		Total:        terms.Total,
		DueAt:        dueAt,
		Status:       LoanStatusPending,
		AppliedAt:    now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsOverdue reports whether a pending loan has passed its due date.
func (l *Loan) IsOverdue(now time.Time) bool {
	return l.Status == LoanStatusPending && now.After(l.DueAt)
}

// IsOutstanding reports whether the loan still counts toward the user's debt.
func (l *Loan) IsOutstanding() bool {
	return l.Status != LoanStatusComplete
}

func (l *Loan) MarkOverdue() {
	l.Status = LoanStatusOverdue
	l.UpdatedAt = time.Now()
}

type LoanRepository interface {
	Create(ctx context.Context, loan *Loan) error
	FindByID(ctx context.Context, id uint64) (*Loan, error)
	FindByUser(ctx context.Context, userID uint64) ([]*Loan, error)
	// TransitionStatus performs a compare-and-set on the loan status. It
	// reports whether the row actually moved from one of the expected
	// statuses to the target status.
	TransitionStatus(ctx context.Context, id uint64, from []LoanStatus, to LoanStatus) (bool, error)
	SumOutstandingByUser(ctx context.Context, userID uint64) (decimal.Decimal, error)
	SumOutstandingAll(ctx context.Context) (decimal.Decimal, error)
	SumLifetimeByUser(ctx context.Context, userID uint64) (decimal.Decimal, error)
	DeleteByUser(ctx context.Context, userID uint64) error
}
