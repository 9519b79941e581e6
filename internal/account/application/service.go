package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/wyfcoding/loanloey/internal/account/domain"
	"github.com/wyfcoding/loanloey/pkg/metrics"
)

// TxRunner 在单个数据库事务中执行回调
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// DebtChecker 查询用户未结清债务总额
type DebtChecker interface {
	TotalOutstanding(ctx context.Context, userID uint64) (decimal.Decimal, error)
}

// LedgerPurger 删除用户在某张账本表下的全部记录，用于注销级联
type LedgerPurger interface {
	DeleteByUser(ctx context.Context, userID uint64) error
}

// SignupCommand 注册命令
type SignupCommand struct {
	Username      string
	Password      string
	FirstName     string
	LastName      string
	NationalID    string
	DOB           string
	Phone         string
	Address       string
	BankName      string
	BankAccountNo string
}

// UpdateProfileCommand 资料更新命令
type UpdateProfileCommand struct {
	FirstName     string
	LastName      string
	NationalID    string
	DOB           string
	Phone         string
	Address       string
	BankName      string
	BankAccountNo string
}

// AccountService 账户生命周期应用服务
type AccountService struct {
	users           domain.UserRepository
	sessions        domain.SessionRepository
	debt            DebtChecker
	loans           LedgerPurger
	payments        LedgerPurger
	tx              TxRunner
	metrics         *metrics.Metrics
	logger          *slog.Logger
	adminSecretHash string
	sessionTTL      time.Duration
	now             func() time.Time
}

func NewAccountService(
	users domain.UserRepository,
	sessions domain.SessionRepository,
	debt DebtChecker,
	loans LedgerPurger,
	payments LedgerPurger,
	tx TxRunner,
	m *metrics.Metrics,
	logger *slog.Logger,
	adminSecretHash string,
	sessionTTL time.Duration,
) *AccountService {
	return &AccountService{
		users:           users,
		sessions:        sessions,
		debt:            debt,
		loans:           loans,
		payments:        payments,
		tx:              tx,
		metrics:         m,
		logger:          logger,
		adminSecretHash: adminSecretHash,
		sessionTTL:      sessionTTL,
		now:             time.Now,
	}
}

// WithClock 替换时间源，仅用于测试
func (s *AccountService) WithClock(now func() time.Time) *AccountService {
	s.now = now
	return s
}

// Signup 注册普通用户
func (s *AccountService) Signup(ctx context.Context, cmd SignupCommand) (*domain.User, error) {
	return s.register(ctx, cmd, domain.RoleUser)
}

// CreateAdmin 注册管理员，需通过共享密钥校验
func (s *AccountService) CreateAdmin(ctx context.Context, cmd SignupCommand, secret string) (*domain.User, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(s.adminSecretHash), []byte(secret)); err != nil {
		return nil, domain.ErrInvalidAdminSecret
	}
	return s.register(ctx, cmd, domain.RoleAdmin)
}

func (s *AccountService) register(ctx context.Context, cmd SignupCommand, role domain.Role) (*domain.User, error) {
	user := &domain.User{
		Username:      cmd.Username,
		Role:          role,
		FirstName:     cmd.FirstName,
		LastName:      cmd.LastName,
		NationalID:    cmd.NationalID,
		DOB:           cmd.DOB,
		Phone:         cmd.Phone,
		Address:       cmd.Address,
		BankName:      cmd.BankName,
		BankAccountNo: cmd.BankAccountNo,
		RiskLevel:     "green",
	}
	if err := user.ValidateProfile(); err != nil {
		return nil, err
	}
	if len(cmd.Password) < 8 {
		return nil, &domain.ValidationError{Field: "password", Message: "must be at least 8 characters"}
	}

	if _, err := s.users.FindByUsername(ctx, cmd.Username); err == nil {
		return nil, domain.ErrUsernameTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = string(hash)

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("account registered", "user_id", user.ID, "username", user.Username, "role", role)
	if s.metrics != nil {
		s.metrics.AccountsRegistered.Inc()
	}
	return user, nil
}

// Login 校验口令并签发会话令牌。用户名不存在与口令不匹配
// 返回同一个错误，避免探测已注册用户名。
func (s *AccountService) Login(ctx context.Context, username, password string) (*domain.Session, *domain.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, domain.ErrInvalidCredentials
	}

	session := &domain.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Role:      user.Role,
		ExpiresAt: s.now().Add(s.sessionTTL),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID, "role", user.Role)
	return session, user, nil
}

// Logout 吊销会话令牌
func (s *AccountService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// Authenticate 校验会话令牌，过期会话按未找到处理并顺带清理
func (s *AccountService) Authenticate(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, domain.ErrSessionNotFound
	}
	session, err := s.sessions.Find(ctx, token)
	if err != nil {
		return nil, err
	}
	if session.Expired(s.now()) {
		_ = s.sessions.Delete(ctx, token)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// GetProfile 查询用户资料
func (s *AccountService) GetProfile(ctx context.Context, userID uint64) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

// UpdateProfile 更新用户资料
func (s *AccountService) UpdateProfile(ctx context.Context, userID uint64, cmd UpdateProfileCommand) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.FirstName = cmd.FirstName
	user.LastName = cmd.LastName
	user.NationalID = cmd.NationalID
	user.DOB = cmd.DOB
	user.Phone = cmd.Phone
	user.Address = cmd.Address
	user.BankName = cmd.BankName
	user.BankAccountNo = cmd.BankAccountNo

	if err := user.ValidateProfile(); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteAccount 注销账户。未结清债务会拒绝注销；通过后在单个事务内
// 级联删除还款记录、贷款记录与用户行。
func (s *AccountService) DeleteAccount(ctx context.Context, userID uint64) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}

	outstanding, err := s.debt.TotalOutstanding(ctx, userID)
	if err != nil {
		return err
	}
	if outstanding.IsPositive() {
		return domain.ErrOutstandingDebt
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.payments.DeleteByUser(ctx, userID); err != nil {
			return err
		}
		if err := s.loans.DeleteByUser(ctx, userID); err != nil {
			return err
		}
		return s.users.Delete(ctx, userID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("account deleted", "user_id", userID)
	if s.metrics != nil {
		s.metrics.AccountsDeleted.Inc()
	}
	return nil
}

// Overview 后台看板：每个用户的借款聚合与风险评级
func (s *AccountService) Overview(ctx context.Context) ([]domain.AccountOverview, error) {
	return s.users.Overview(ctx)
}
