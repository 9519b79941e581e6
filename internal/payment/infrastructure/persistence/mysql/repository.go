package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/wyfcoding/loanloey/internal/payment/domain"
	pkgdb "github.com/wyfcoding/loanloey/pkg/db"

	"gorm.io/gorm"
)

// summaryColumns excludes the encrypted blobs; receipts are only ever read
// through GetReceipt.
var summaryColumns = []string{"id", "loan_id", "status", "timeliness", "submitted_at", "decided_at", "created_at", "updated_at"}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建还款仓储实例
func NewPaymentRepository(db *gorm.DB) domain.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := pkgdb.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	model := toPaymentModel(payment)
	if err := r.getDB(ctx).Create(model).Error; err != nil {
		return err
	}
	payment.ID = model.ID
	payment.SubmittedAt = model.SubmittedAt
	return nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id uint64) (*domain.Payment, error) {
	var model PaymentModel
	err := r.getDB(ctx).Select(summaryColumns).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return toPayment(&model), nil
}

func (r *paymentRepository) FindByLoan(ctx context.Context, loanID uint64) ([]*domain.Payment, error) {
	var models []PaymentModel
	err := r.getDB(ctx).Select(summaryColumns).
		Where("loan_id = ?", loanID).
		Order("id DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	payments := make([]*domain.Payment, 0, len(models))
	for i := range models {
		payments = append(payments, toPayment(&models[i]))
	}
	return payments, nil
}

func (r *paymentRepository) TransitionStatus(ctx context.Context, id uint64, from, to domain.PaymentStatus, decidedAt time.Time) (bool, error) {
	result := r.getDB(ctx).Model(&PaymentModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]any{
			"status":     string(to),
			"decided_at": decidedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *paymentRepository) GetReceipt(ctx context.Context, id uint64) (domain.Receipt, error) {
	var model PaymentModel
	err := r.getDB(ctx).Select("receipt", "wrapped_key").First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Receipt{}, domain.ErrPaymentNotFound
		}
		return domain.Receipt{}, err
	}
	return domain.Receipt{Ciphertext: model.Receipt, WrappedKey: model.WrappedKey}, nil
}

func (r *paymentRepository) DeleteByUser(ctx context.Context, userID uint64) error {
	return r.getDB(ctx).
		Where("loan_id IN (?)", r.getDB(ctx).Table("loans").Select("id").Where("user_id = ?", userID)).
		Delete(&PaymentModel{}).Error
}
