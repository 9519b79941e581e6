package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validUser() *User {
	return &User{
		Username:      "somchai",
		FirstName:     "Somchai",
		LastName:      "Jaidee",
		NationalID:    "1234567890123",
		Phone:         "0812345678",
		BankAccountNo: "1112223334",
	}
}

func TestValidateProfileAcceptsValidUser(t *testing.T) {
	assert.NoError(t, validUser().ValidateProfile())
}

func TestValidateProfileBankAccountOptional(t *testing.T) {
	user := validUser()
	user.BankAccountNo = ""
	assert.NoError(t, user.ValidateProfile())
}

func TestValidateProfileFieldErrors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*User)
		wantField string
	}{
		{"empty username", func(u *User) { u.Username = "" }, "username"},
		{"empty first name", func(u *User) { u.FirstName = "" }, "first_name"},
		{"empty last name", func(u *User) { u.LastName = "" }, "last_name"},
		{"national id too short", func(u *User) { u.NationalID = "123456789012" }, "id_card"},
		{"national id too long", func(u *User) { u.NationalID = "12345678901234" }, "id_card"},
		{"national id not digits", func(u *User) { u.NationalID = "12345678901ab" }, "id_card"},
		{"phone too short", func(u *User) { u.Phone = "081234567" }, "phone_no"},
		{"phone not digits", func(u *User) { u.Phone = "08x2345678" }, "phone_no"},
		{"bank account wrong length", func(u *User) { u.BankAccountNo = "12345" }, "bank_acc_no"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := validUser()
			tt.mutate(user)

			err := user.ValidateProfile()
			require.Error(t, err)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.wantField, validationErr.Field)
		})
	}
}
