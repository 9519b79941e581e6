package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrAlreadyDecided  = errors.New("payment already decided")
	ErrEmptyReceipt    = errors.New("receipt is empty")
	ErrInvalidAction   = errors.New("invalid action, must be either accept or reject")
)

type PaymentStatus string

const (
	PaymentStatusWaiting  PaymentStatus = "waiting"
	PaymentStatusAccepted PaymentStatus = "accepted"
	PaymentStatusRejected PaymentStatus = "rejected"
)

// Timeliness records whether the receipt arrived before the loan due date.
type Timeliness string

const (
	TimelinessInTime Timeliness = "intime"
	TimelinessLate   Timeliness = "late"
)

type DecisionAction string

const (
	ActionAccept DecisionAction = "accept"
	ActionReject DecisionAction = "reject"
)

// ParseAction validates the admin decision action.
func ParseAction(raw string) (DecisionAction, error) {
	switch DecisionAction(raw) {
	case ActionAccept:
		return ActionAccept, nil
	case ActionReject:
		return ActionReject, nil
	default:
		return "", ErrInvalidAction
	}
}

// Receipt is an encrypted payment receipt: the AES-sealed image plus the
// RSA-wrapped data key.
type Receipt struct {
	Ciphertext []byte
	WrappedKey []byte
}

type Payment struct {
	ID          uint64        `json:"id"`
	LoanID      uint64        `json:"loan_id"`
	Status      PaymentStatus `json:"status"`
	Timeliness  Timeliness    `json:"timeliness"`
	SubmittedAt time.Time     `json:"submitted_at"`
	DecidedAt   *time.Time    `json:"decided_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	Receipt Receipt `json:"-"`
}

func NewPayment(loanID uint64, receipt Receipt, timeliness Timeliness, now time.Time) *Payment {
	return &Payment{
		LoanID:      loanID,
		Status:      PaymentStatusWaiting,
		Timeliness:  timeliness,
		SubmittedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
		Receipt:     receipt,
	}
}

// IsDecided reports whether an admin has already accepted or rejected it.
func (p *Payment) IsDecided() bool {
	return p.Status != PaymentStatusWaiting
}

// ReceiptVault seals receipts for storage and opens them for review.
type ReceiptVault interface {
	Seal(plaintext []byte) (Receipt, error)
	Open(receipt Receipt) ([]byte, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	// FindByID loads a payment without its receipt blobs.
	FindByID(ctx context.Context, id uint64) (*Payment, error)
	// FindByLoan returns payments most recent first, without receipt blobs.
	FindByLoan(ctx context.Context, loanID uint64) ([]*Payment, error)
	// TransitionStatus performs a compare-and-set on the payment status.
	TransitionStatus(ctx context.Context, id uint64, from, to PaymentStatus, decidedAt time.Time) (bool, error)
	GetReceipt(ctx context.Context, id uint64) (Receipt, error)
	DeleteByUser(ctx context.Context, userID uint64) error
}
