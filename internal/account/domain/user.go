package domain

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidAdminSecret = errors.New("invalid admin secret")
	ErrOutstandingDebt    = errors.New("account has outstanding debt")
)

// ValidationError points at the profile field that failed format validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

var (
	nationalIDPattern  = regexp.MustCompile(`^\d{13}$`)
	phonePattern       = regexp.MustCompile(`^\d{10}$`)
	bankAccountPattern = regexp.MustCompile(`^\d{10}$`)
)

type User struct {
	ID           uint64 `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`

	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	NationalID    string `json:"id_card"`
	DOB           string `json:"dob"`
	Phone         string `json:"phone_no"`
	Address       string `json:"address"`
	BankName      string `json:"bank_name"`
	BankAccountNo string `json:"bank_acc_no"`

	RiskLevel string    `json:"risk_level"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidateProfile checks the format of the owner-mutable profile fields.
func (u *User) ValidateProfile() error {
	if u.Username == "" {
		return &ValidationError{Field: "username", Message: "must not be empty"}
	}
	if u.FirstName == "" {
		return &ValidationError{Field: "first_name", Message: "must not be empty"}
	}
	if u.LastName == "" {
		return &ValidationError{Field: "last_name", Message: "must not be empty"}
	}
	if !nationalIDPattern.MatchString(u.NationalID) {
		return &ValidationError{Field: "id_card", Message: "must be exactly 13 digits"}
	}
	if !phonePattern.MatchString(u.Phone) {
		return &ValidationError{Field: "phone_no", Message: "must be exactly 10 digits"}
	}
	if u.BankAccountNo != "" && !bankAccountPattern.MatchString(u.BankAccountNo) {
		return &ValidationError{Field: "bank_acc_no", Message: "must be exactly 10 digits"}
	}
	return nil
}

// AccountOverview is the admin dashboard row: one user with their borrowing
// aggregates and current risk level, produced by a single query.
type AccountOverview struct {
	UserID           uint64          `json:"user_id"`
	Username         string          `json:"username"`
	RiskLevel        string          `json:"risk_level"`
	LifetimeBorrowed decimal.Decimal `json:"total_loan"`
	Outstanding      decimal.Decimal `json:"outstanding"`
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id uint64) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	Delete(ctx context.Context, id uint64) error
	// Overview aggregates per-user borrowing totals and risk level.
	Overview(ctx context.Context) ([]AccountOverview, error)
}
