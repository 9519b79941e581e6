package application

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/loanloey/internal/loan/domain"
	"github.com/wyfcoding/loanloey/pkg/metrics"
)

// ApplyLoanCommand 贷款申请命令
type ApplyLoanCommand struct {
	UserID    uint64
	Principal decimal.Decimal
	DueAt     time.Time
}

// RiskRecomputer 在贷款事件后触发风险评级重算
type RiskRecomputer interface {
	Recompute(ctx context.Context, userID uint64) error
}

// LoanService 贷款账本应用服务
type LoanService struct {
	repo      domain.LoanRepository
	pricer    *domain.Pricer
	publisher domain.EventPublisher
	risk      RiskRecomputer
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

func NewLoanService(
	repo domain.LoanRepository,
	pricer *domain.Pricer,
	publisher domain.EventPublisher,
	risk RiskRecomputer,
	m *metrics.Metrics,
	logger *slog.Logger,
) *LoanService {
	return &LoanService{
		repo:      repo,
		pricer:    pricer,
		publisher: publisher,
		risk:      risk,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock 替换时间源，仅用于测试
func (s *LoanService) WithClock(now func() time.Time) *LoanService {
	s.now = now
	return s
}

// Quote 报价，不落库
func (s *LoanService) Quote(principal decimal.Decimal, dueAt time.Time) (domain.Terms, error) {
	return s.pricer.Quote(principal, dueAt, s.now())
}

// Apply 按报价条款创建 pending 贷款
func (s *LoanService) Apply(ctx context.Context, cmd ApplyLoanCommand) (*domain.Loan, error) {
	now := s.now()
	terms, err := s.pricer.Quote(cmd.Principal, cmd.DueAt, now)
	if err != nil {
		return nil, err
	}

	loan := domain.NewLoan(cmd.UserID, terms, cmd.DueAt, now)
	if err := s.repo.Create(ctx, loan); err != nil {
		return nil, err
	}

	s.logger.Info("loan applied", "loan_id", loan.ID, "user_id", loan.UserID, "total", loan.Total)
	if s.metrics != nil {
		s.metrics.LoansApplied.Inc()
	}

	s.publish(ctx, domain.LoanAppliedEventType, loan.ID, domain.LoanAppliedEvent{
		LoanID:    loan.ID,
		UserID:    loan.UserID,
		Principal: loan.Principal,
		Total:     loan.Total,
		DueAt:     loan.DueAt,
		Timestamp: now,
	})
	s.recomputeRisk(ctx, loan.UserID)

	return loan, nil
}

// ListByUser 返回用户全部贷款，返回前重新判定逾期状态。
// 检测到的 pending -> overdue 迁移会持久化一次，避免各视图间重复计算漂移。
func (s *LoanService) ListByUser(ctx context.Context, userID uint64) ([]*domain.Loan, error) {
	loans, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	transitioned := false
	for _, loan := range loans {
		if !loan.IsOverdue(now) {
			continue
		}
		ok, err := s.repo.TransitionStatus(ctx, loan.ID,
			[]domain.LoanStatus{domain.LoanStatusPending}, domain.LoanStatusOverdue)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Lost the race to another view or an accepting decision;
			// re-read the authoritative status.
			fresh, err := s.repo.FindByID(ctx, loan.ID)
			if err != nil {
				return nil, err
			}
			loan.Status = fresh.Status
			continue
		}

		loan.MarkOverdue()
		transitioned = true
		s.logger.Info("loan overdue", "loan_id", loan.ID, "user_id", userID, "due_at", loan.DueAt)
		if s.metrics != nil {
			s.metrics.LoansOverdue.Inc()
		}
		s.publish(ctx, domain.LoanOverdueEventType, loan.ID, domain.LoanOverdueEvent{
			LoanID:    loan.ID,
			UserID:    userID,
			DueAt:     loan.DueAt,
			Timestamp: now,
		})
	}

	if transitioned {
		s.recomputeRisk(ctx, userID)
	}

	return loans, nil
}

// TotalOutstanding 用户未结清贷款总额（含利息）
func (s *LoanService) TotalOutstanding(ctx context.Context, userID uint64) (decimal.Decimal, error) {
	return s.repo.SumOutstandingByUser(ctx, userID)
}

// TotalOutstandingAll 平台未结清贷款总额
func (s *LoanService) TotalOutstandingAll(ctx context.Context) (decimal.Decimal, error) {
	return s.repo.SumOutstandingAll(ctx)
}

// TotalLifetime 用户历史借款总额（含已结清）
func (s *LoanService) TotalLifetime(ctx context.Context, userID uint64) (decimal.Decimal, error) {
	return s.repo.SumLifetimeByUser(ctx, userID)
}

func (s *LoanService) publish(ctx context.Context, eventType string, loanID uint64, event any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, strconv.FormatUint(loanID, 10), event); err != nil {
		s.logger.Error("failed to publish loan event", "event_type", eventType, "loan_id", loanID, "error", err)
	}
}

func (s *LoanService) recomputeRisk(ctx context.Context, userID uint64) {
	if s.risk == nil {
		return
	}
	if err := s.risk.Recompute(ctx, userID); err != nil {
		s.logger.Error("risk recompute failed", "user_id", userID, "error", err)
	}
}
