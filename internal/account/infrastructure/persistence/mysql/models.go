package mysql

import (
	"time"

	"github.com/wyfcoding/loanloey/internal/account/domain"
)

// UserModel 用户数据库模型
type UserModel struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	Username      string `gorm:"type:varchar(64);uniqueIndex;not null"`
	PasswordHash  string `gorm:"type:varchar(128);not null"`
	Role          string `gorm:"type:varchar(16);not null;default:'user'"`
	FirstName     string `gorm:"type:varchar(100);not null"`
	LastName      string `gorm:"type:varchar(100);not null"`
	NationalID    string `gorm:"type:varchar(13);not null"`
	DOB           string `gorm:"type:varchar(10)"`
	Phone         string `gorm:"type:varchar(10);not null"`
	Address       string `gorm:"type:varchar(255)"`
	BankName      string `gorm:"type:varchar(100)"`
	BankAccountNo string `gorm:"type:varchar(10)"`
	RiskLevel     string `gorm:"type:varchar(8);not null;default:'green'"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

func toUserModel(u *domain.User) *UserModel {
	return &UserModel{
		ID:            u.ID,
		Username:      u.Username,
		PasswordHash:  u.PasswordHash,
		Role:          string(u.Role),
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		NationalID:    u.NationalID,
		DOB:           u.DOB,
		Phone:         u.Phone,
		Address:       u.Address,
		BankName:      u.BankName,
		BankAccountNo: u.BankAccountNo,
		RiskLevel:     u.RiskLevel,
	}
}

func toUser(m *UserModel) *domain.User {
	return &domain.User{
		ID:            m.ID,
		Username:      m.Username,
		PasswordHash:  m.PasswordHash,
		Role:          domain.Role(m.Role),
		FirstName:     m.FirstName,
		LastName:      m.LastName,
		NationalID:    m.NationalID,
		DOB:           m.DOB,
		Phone:         m.Phone,
		Address:       m.Address,
		BankName:      m.BankName,
		BankAccountNo: m.BankAccountNo,
		RiskLevel:     m.RiskLevel,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
