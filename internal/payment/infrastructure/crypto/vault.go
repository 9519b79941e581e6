// Package crypto implements the receipt vault: receipts are sealed with a
// fresh AES-256-GCM key per receipt, and the key is wrapped with RSA so only
// the reviewing side can open them.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wyfcoding/loanloey/internal/payment/domain"
)

const rsaKeyBits = 2048

type receiptVault struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
}

// NewReceiptVault loads the RSA keypair from the given PEM files, generating
// and persisting a fresh pair when the private key file does not exist.
func NewReceiptVault(privateKeyPath, publicKeyPath string) (domain.ReceiptVault, error) {
	if _, err := os.Stat(privateKeyPath); errors.Is(err, os.ErrNotExist) {
		if err := generateKeyPair(privateKeyPath, publicKeyPath); err != nil {
			return nil, fmt.Errorf("generating receipt keypair: %w", err)
		}
	}

	privateKey, err := loadPrivateKey(privateKeyPath)
	if err != nil {
		return nil, err
	}
	publicKey, err := loadPublicKey(publicKeyPath)
	if err != nil {
		return nil, err
	}

	return &receiptVault{privateKey: privateKey, publicKey: publicKey}, nil
}

// NewReceiptVaultFromKey builds a vault around an in-memory keypair.
func NewReceiptVaultFromKey(key *rsa.PrivateKey) domain.ReceiptVault {
	return &receiptVault{privateKey: key, publicKey: &key.PublicKey}
}

func (v *receiptVault) Seal(plaintext []byte) (domain.Receipt, error) {
	if len(plaintext) == 0 {
		return domain.Receipt{}, domain.ErrEmptyReceipt
	}

	aesKey := make([]byte, 32)
	if _, err := rand.Read(aesKey); err != nil {
		return domain.Receipt{}, fmt.Errorf("generating data key: %w", err)
	}

	ciphertext, err := encryptAESGCM(plaintext, aesKey)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("sealing receipt: %w", err)
	}

	wrappedKey, err := rsa.EncryptPKCS1v15(rand.Reader, v.publicKey, aesKey)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("wrapping data key: %w", err)
	}

	return domain.Receipt{Ciphertext: ciphertext, WrappedKey: wrappedKey}, nil
}

func (v *receiptVault) Open(receipt domain.Receipt) ([]byte, error) {
	aesKey, err := rsa.DecryptPKCS1v15(rand.Reader, v.privateKey, receipt.WrappedKey)
	if err != nil {
		return nil, fmt.Errorf("unwrapping data key: %w", err)
	}

	plaintext, err := decryptAESGCM(receipt.Ciphertext, aesKey)
	if err != nil {
		return nil, fmt.Errorf("opening receipt: %w", err)
	}
	return plaintext, nil
}

func encryptAESGCM(data, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, data, nil), nil
}

func decryptAESGCM(ciphertext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	return gcm.Open(nil, nonce, sealed, nil)
}

func generateKeyPair(privateKeyPath, publicKeyPath string) error {
	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(privateKeyPath), 0700); err != nil {
		return err
	}

	privatePEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	if err := os.WriteFile(privateKeyPath, privatePEM, 0600); err != nil {
		return err
	}

	publicKeyBytes, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return err
	}
	publicPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: publicKeyBytes,
	})
	return os.WriteFile(publicKeyPath, publicPEM, 0644)
}

func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading private key file: %w", err)
	}
	block, _ := pem.Decode(raw)
	if block == nil || block.Type != "RSA PRIVATE KEY" {
		return nil, errors.New("failed to decode PEM block containing private key")
	}
	return x509.ParsePKCS1PrivateKey(block.Bytes)
}

func loadPublicKey(path string) (*rsa.PublicKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading public key file: %w", err)
	}
	block, _ := pem.Decode(raw)
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, errors.New("failed to decode PEM block containing public key")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing public key: %w", err)
	}
	rsaKey, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not an RSA public key")
	}
	return rsaKey, nil
}
