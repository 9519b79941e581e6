package application

import (
	"context"
	"log/slog"

	"github.com/wyfcoding/loanloey/internal/risk/domain"
)

// RiskService 风险评级应用服务。评级是账本状态的纯函数，
// 随贷款与还款事件重算，结果回写用户行并缓存。
type RiskService struct {
	reader domain.SnapshotReader
	writer domain.LevelWriter
	cache  domain.LevelCache
	rule   domain.Rule
	logger *slog.Logger
}

func NewRiskService(
	reader domain.SnapshotReader,
	writer domain.LevelWriter,
	cache domain.LevelCache,
	rule domain.Rule,
	logger *slog.Logger,
) *RiskService {
	if rule == nil {
		rule = domain.DefaultRule
	}
	return &RiskService{
		reader: reader,
		writer: writer,
		cache:  cache,
		rule:   rule,
		logger: logger,
	}
}

// Recompute 重算用户评级并持久化，同时刷新缓存
func (s *RiskService) Recompute(ctx context.Context, userID uint64) error {
	_, err := s.recompute(ctx, userID)
	return err
}

// LevelFor 读取用户评级，缓存未命中时重算
func (s *RiskService) LevelFor(ctx context.Context, userID uint64) (domain.Level, error) {
	level, ok, err := s.cache.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("risk level cache read failed", "user_id", userID, "error", err)
	}
	if ok {
		return level, nil
	}
	return s.recompute(ctx, userID)
}

func (s *RiskService) recompute(ctx context.Context, userID uint64) (domain.Level, error) {
	snapshot, err := s.reader.Snapshot(ctx, userID)
	if err != nil {
		return "", err
	}

	level := s.rule(snapshot)
	if err := s.writer.SaveLevel(ctx, userID, level); err != nil {
		return "", err
	}
	if err := s.cache.Set(ctx, userID, level); err != nil {
		s.logger.Warn("risk level cache write failed", "user_id", userID, "error", err)
	}

	s.logger.Info("risk level recomputed", "user_id", userID, "level", level,
		"overdue", snapshot.OverdueLoans, "near_due", snapshot.NearDueLoans, "rejected", snapshot.RejectedPayments)
	return level, nil
}
