package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/loanloey/internal/account/domain"
	pkgdb "github.com/wyfcoding/loanloey/pkg/db"

	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储实例
func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := pkgdb.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	model := toUserModel(user)
	if err := r.getDB(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrUsernameTaken
		}
		return err
	}
	user.ID = model.ID
	user.CreatedAt = model.CreatedAt
	user.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	result := r.getDB(ctx).Model(&UserModel{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"first_name":      user.FirstName,
			"last_name":       user.LastName,
			"national_id":     user.NationalID,
			"dob":             user.DOB,
			"phone":           user.Phone,
			"address":         user.Address,
			"bank_name":       user.BankName,
			"bank_account_no": user.BankAccountNo,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uint64) (*domain.User, error) {
	var model UserModel
	err := r.getDB(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return toUser(&model), nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var model UserModel
	err := r.getDB(ctx).First(&model, "username = ?", username).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return toUser(&model), nil
}

func (r *userRepository) Delete(ctx context.Context, id uint64) error {
	result := r.getDB(ctx).Delete(&UserModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Overview 单条聚合查询产出后台看板行，避免前端逐用户扇出
func (r *userRepository) Overview(ctx context.Context) ([]domain.AccountOverview, error) {
	var rows []domain.AccountOverview
	err := r.getDB(ctx).Raw(`
		SELECT u.id AS user_id,
		       u.username,
		       u.risk_level,
		       COALESCE(SUM(l.total), 0) AS lifetime_borrowed,
		       COALESCE(SUM(CASE WHEN l.status <> 'complete' THEN l.total ELSE 0 END), 0) AS outstanding
		FROM users u
		LEFT JOIN loans l ON l.user_id = u.id
		WHERE u.role = 'user'
		GROUP BY u.id, u.username, u.risk_level
		ORDER BY u.id`).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
