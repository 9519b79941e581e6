package application

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	loandomain "github.com/wyfcoding/loanloey/internal/loan/domain"
	"github.com/wyfcoding/loanloey/internal/payment/domain"
	"github.com/wyfcoding/loanloey/pkg/metrics"
)

// TxRunner 在单个数据库事务中执行回调
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// RiskRecomputer 在审核结论落库后触发风险评级重算
type RiskRecomputer interface {
	Recompute(ctx context.Context, userID uint64) error
}

// PaymentService 还款工作流应用服务
type PaymentService struct {
	payments   domain.PaymentRepository
	loans      loandomain.LoanRepository
	vault      domain.ReceiptVault
	publisher  domain.EventPublisher
	loanEvents loandomain.EventPublisher
	risk       RiskRecomputer
	tx         TxRunner
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

func NewPaymentService(
	payments domain.PaymentRepository,
	loans loandomain.LoanRepository,
	vault domain.ReceiptVault,
	publisher domain.EventPublisher,
	loanEvents loandomain.EventPublisher,
	risk RiskRecomputer,
	tx TxRunner,
	m *metrics.Metrics,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		payments:   payments,
		loans:      loans,
		vault:      vault,
		publisher:  publisher,
		loanEvents: loanEvents,
		risk:       risk,
		tx:         tx,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock 替换时间源，仅用于测试
func (s *PaymentService) WithClock(now func() time.Time) *PaymentService {
	s.now = now
	return s
}

// SubmitReceipt 为贷款提交一张还款回执，加密后落库，状态为 waiting。
// 已结清的贷款不再接受回执。
func (s *PaymentService) SubmitReceipt(ctx context.Context, loanID uint64, receipt []byte) (*domain.Payment, error) {
	if len(receipt) == 0 {
		return nil, domain.ErrEmptyReceipt
	}

	loan, err := s.loans.FindByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status == loandomain.LoanStatusComplete {
		return nil, loandomain.ErrLoanAlreadyComplete
	}

	sealed, err := s.vault.Seal(receipt)
	if err != nil {
		return nil, err
	}

	now := s.now()
	timeliness := domain.TimelinessInTime
	if now.After(loan.DueAt) {
		timeliness = domain.TimelinessLate
	}

	payment := domain.NewPayment(loanID, sealed, timeliness, now)
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	s.logger.Info("payment submitted", "payment_id", payment.ID, "loan_id", loanID, "timeliness", timeliness)
	if s.metrics != nil {
		s.metrics.PaymentsSubmitted.Inc()
	}

	s.publish(ctx, domain.PaymentSubmittedEventType, payment.ID, domain.PaymentSubmittedEvent{
		PaymentID:  payment.ID,
		LoanID:     loanID,
		Timeliness: timeliness,
		Timestamp:  now,
	})

	return payment, nil
}

// Decide 审核一张回执。接受时在同一事务内将贷款置为 complete，
// 贷款状态的比较交换保证每笔贷款至多有一张被接受的回执。
func (s *PaymentService) Decide(ctx context.Context, paymentID uint64, action domain.DecisionAction) (*domain.Payment, error) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	loan, err := s.loans.FindByID(ctx, payment.LoanID)
	if err != nil {
		return nil, err
	}

	target := domain.PaymentStatusRejected
	if action == domain.ActionAccept {
		target = domain.PaymentStatusAccepted
	}

	now := s.now()
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		ok, err := s.payments.TransitionStatus(ctx, paymentID, domain.PaymentStatusWaiting, target, now)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrAlreadyDecided
		}

		if action != domain.ActionAccept {
			return nil
		}

		ok, err = s.loans.TransitionStatus(ctx, payment.LoanID,
			[]loandomain.LoanStatus{loandomain.LoanStatusPending, loandomain.LoanStatusOverdue},
			loandomain.LoanStatusComplete)
		if err != nil {
			return err
		}
		if !ok {
			return loandomain.ErrLoanAlreadyComplete
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	payment.Status = target
	payment.DecidedAt = &now

	s.logger.Info("payment decided", "payment_id", paymentID, "loan_id", payment.LoanID, "action", action)
	if s.metrics != nil {
		s.metrics.PaymentsDecided.WithLabelValues(string(action)).Inc()
		if action == domain.ActionAccept {
			s.metrics.LoansCompleted.Inc()
		}
	}

	eventType := domain.PaymentRejectedEventType
	if action == domain.ActionAccept {
		eventType = domain.PaymentAcceptedEventType
	}
	s.publish(ctx, eventType, paymentID, domain.PaymentDecidedEvent{
		PaymentID: paymentID,
		LoanID:    payment.LoanID,
		UserID:    loan.UserID,
		Action:    action,
		Timestamp: now,
	})
	if action == domain.ActionAccept {
		s.publishLoanCompleted(ctx, loandomain.LoanCompletedEvent{
			LoanID:    payment.LoanID,
			UserID:    loan.UserID,
			PaymentID: paymentID,
			Timestamp: now,
		})
	}
	s.recomputeRisk(ctx, loan.UserID)

	return payment, nil
}

// ListByLoan 返回贷款的全部回执记录，最近提交的在前
func (s *PaymentService) ListByLoan(ctx context.Context, loanID uint64) ([]*domain.Payment, error) {
	if _, err := s.loans.FindByID(ctx, loanID); err != nil {
		return nil, err
	}
	return s.payments.FindByLoan(ctx, loanID)
}

// OpenReceipt 解密指定回执，仅供审核侧调用
func (s *PaymentService) OpenReceipt(ctx context.Context, paymentID uint64) ([]byte, error) {
	receipt, err := s.payments.GetReceipt(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	return s.vault.Open(receipt)
}

func (s *PaymentService) publish(ctx context.Context, eventType string, paymentID uint64, event any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, strconv.FormatUint(paymentID, 10), event); err != nil {
		s.logger.Error("failed to publish payment event", "event_type", eventType, "payment_id", paymentID, "error", err)
	}
}

func (s *PaymentService) publishLoanCompleted(ctx context.Context, event loandomain.LoanCompletedEvent) {
	if s.loanEvents == nil {
		return
	}
	if err := s.loanEvents.Publish(ctx, loandomain.LoanCompletedEventType, strconv.FormatUint(event.LoanID, 10), event); err != nil {
		s.logger.Error("failed to publish loan event", "event_type", loandomain.LoanCompletedEventType, "loan_id", event.LoanID, "error", err)
	}
}

func (s *PaymentService) recomputeRisk(ctx context.Context, userID uint64) {
	if s.risk == nil {
		return
	}
	if err := s.risk.Recompute(ctx, userID); err != nil {
		s.logger.Error("risk recompute failed", "user_id", userID, "error", err)
	}
}
