package mysql

import (
	"context"
	"time"

	"github.com/wyfcoding/loanloey/internal/risk/domain"

	"gorm.io/gorm"
)

// SnapshotReader 直接读取账本表聚合出风险快照
type SnapshotReader struct {
	db          *gorm.DB
	nearDueDays int
	now         func() time.Time
}

func NewSnapshotReader(db *gorm.DB, nearDueDays int) *SnapshotReader {
	return &SnapshotReader{db: db, nearDueDays: nearDueDays, now: time.Now}
}

// WithClock 替换时间源，仅用于测试
func (r *SnapshotReader) WithClock(now func() time.Time) *SnapshotReader {
	r.now = now
	return r
}

func (r *SnapshotReader) Snapshot(ctx context.Context, userID uint64) (domain.Snapshot, error) {
	now := r.now()
	nearDueCutoff := now.Add(time.Duration(r.nearDueDays) * 24 * time.Hour)
	db := r.db.WithContext(ctx)

	var snapshot domain.Snapshot
	var count int64

	// Overdue is judged against the clock, not only the persisted status, so
	// a recompute right after the due date sees the loan as overdue even if
	// no view has persisted the transition yet.
	err := db.Table("loans").
		Where("user_id = ? AND (status = ? OR (status = ? AND due_at < ?))",
			userID, "overdue", "pending", now).
		Count(&count).Error
	if err != nil {
		return domain.Snapshot{}, err
	}
	snapshot.OverdueLoans = int(count)

	err = db.Table("loans").
		Where("user_id = ? AND status = ? AND due_at >= ? AND due_at <= ?",
			userID, "pending", now, nearDueCutoff).
		Count(&count).Error
	if err != nil {
		return domain.Snapshot{}, err
	}
	snapshot.NearDueLoans = int(count)

	err = db.Table("payments").
		Joins("JOIN loans ON loans.id = payments.loan_id").
		Where("loans.user_id = ? AND payments.status = ?", userID, "rejected").
		Count(&count).Error
	if err != nil {
		return domain.Snapshot{}, err
	}
	snapshot.RejectedPayments = int(count)

	return snapshot, nil
}

// levelWriter 将评级结果回写到用户行
type levelWriter struct {
	db *gorm.DB
}

func NewLevelWriter(db *gorm.DB) domain.LevelWriter {
	return &levelWriter{db: db}
}

func (w *levelWriter) SaveLevel(ctx context.Context, userID uint64, level domain.Level) error {
	return w.db.WithContext(ctx).Table("users").
		Where("id = ?", userID).
		Update("risk_level", string(level)).Error
}
