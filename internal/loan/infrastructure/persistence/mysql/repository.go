package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wyfcoding/loanloey/internal/loan/domain"
	pkgdb "github.com/wyfcoding/loanloey/pkg/db"
)

type loanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) domain.LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := pkgdb.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	model := toLoanModel(loan)
	if err := r.getDB(ctx).WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	loan.ID = model.ID
	loan.CreatedAt = model.CreatedAt
	loan.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *loanRepository) FindByID(ctx context.Context, id uint64) (*domain.Loan, error) {
	var model LoanModel
	err := r.getDB(ctx).WithContext(ctx).First(&model, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrLoanNotFound
	}
	if err != nil {
		return nil, err
	}
	return toLoan(&model), nil
}

func (r *loanRepository) FindByUser(ctx context.Context, userID uint64) ([]*domain.Loan, error) {
	var models []LoanModel
	err := r.getDB(ctx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	loans := make([]*domain.Loan, 0, len(models))
	for i := range models {
		loans = append(loans, toLoan(&models[i]))
	}
	return loans, nil
}

func (r *loanRepository) TransitionStatus(ctx context.Context, id uint64, from []domain.LoanStatus, to domain.LoanStatus) (bool, error) {
	statuses := make([]string, 0, len(from))
	for _, s := range from {
		statuses = append(statuses, string(s))
	}
	res := r.getDB(ctx).WithContext(ctx).
		Model(&LoanModel{}).
		Where("id = ? AND status IN ?", id, statuses).
		Updates(map[string]any{
			"status":     string(to),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *loanRepository) SumOutstandingByUser(ctx context.Context, userID uint64) (decimal.Decimal, error) {
	return r.sum(ctx, r.getDB(ctx).WithContext(ctx).
		Model(&LoanModel{}).
		Where("user_id = ? AND status <> ?", userID, string(domain.LoanStatusComplete)))
}

func (r *loanRepository) SumOutstandingAll(ctx context.Context) (decimal.Decimal, error) {
	return r.sum(ctx, r.getDB(ctx).WithContext(ctx).
		Model(&LoanModel{}).
		Where("status <> ?", string(domain.LoanStatusComplete)))
}

func (r *loanRepository) SumLifetimeByUser(ctx context.Context, userID uint64) (decimal.Decimal, error) {
	return r.sum(ctx, r.getDB(ctx).WithContext(ctx).
		Model(&LoanModel{}).
		Where("user_id = ?", userID))
}

func (r *loanRepository) sum(ctx context.Context, query *gorm.DB) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := query.Select("COALESCE(SUM(total), 0)").Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r *loanRepository) DeleteByUser(ctx context.Context, userID uint64) error {
	return r.getDB(ctx).WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&LoanModel{}).Error
}
