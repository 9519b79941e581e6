package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/loanloey/internal/payment/domain"
)

func TestSealOpenRoundTrip(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	vault := NewReceiptVaultFromKey(key)

	plaintext := []byte("a receipt image payload")
	receipt, err := vault.Seal(plaintext)
	require.NoError(t, err)

	assert.NotEmpty(t, receipt.Ciphertext)
	assert.NotEmpty(t, receipt.WrappedKey)
	assert.NotEqual(t, plaintext, receipt.Ciphertext)

	opened, err := vault.Open(receipt)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestSealRejectsEmptyPlaintext(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	vault := NewReceiptVaultFromKey(key)

	_, err = vault.Seal(nil)
	assert.ErrorIs(t, err, domain.ErrEmptyReceipt)
}

func TestOpenFailsWithWrongKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	receipt, err := NewReceiptVaultFromKey(key).Seal([]byte("secret"))
	require.NoError(t, err)

	_, err = NewReceiptVaultFromKey(otherKey).Open(receipt)
	assert.Error(t, err)
}

func TestSealProducesFreshKeyPerReceipt(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	vault := NewReceiptVaultFromKey(key)

	first, err := vault.Seal([]byte("same payload"))
	require.NoError(t, err)
	second, err := vault.Seal([]byte("same payload"))
	require.NoError(t, err)

	assert.NotEqual(t, first.Ciphertext, second.Ciphertext)
	assert.NotEqual(t, first.WrappedKey, second.WrappedKey)
}

func TestNewReceiptVaultGeneratesAndReloadsKeys(t *testing.T) {
	dir := t.TempDir()
	privatePath := filepath.Join(dir, "private.pem")
	publicPath := filepath.Join(dir, "public.pem")

	vault, err := NewReceiptVault(privatePath, publicPath)
	require.NoError(t, err)

	receipt, err := vault.Seal([]byte("persisted"))
	require.NoError(t, err)

	// A second vault loading the same files can open receipts from the first.
	reloaded, err := NewReceiptVault(privatePath, publicPath)
	require.NoError(t, err)

	opened, err := reloaded.Open(receipt)
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), opened)
}
