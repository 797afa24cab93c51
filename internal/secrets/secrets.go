// Package secrets wraps fernet token encryption for values that must not be
// stored in the clear, such as the market-data provider API token.
package secrets

import (
	"errors"
	"fmt"

	"github.com/fernet/fernet-go"
)

// ErrDecryptFailed indicates a token that could not be verified against the
// configured key, typically after a key rotation without re-encryption.
var ErrDecryptFailed = errors.New("failed to decrypt secret")

// Box encrypts and decrypts short string secrets with a single fernet key.
type Box struct {
	key *fernet.Key
}

// NewBox creates a Box from a base64-encoded fernet key.
func NewBox(encodedKey string) (*Box, error) {
	key, err := fernet.DecodeKey(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode fernet key: %w", err)
	}
	return &Box{key: key}, nil
}

// GenerateKey returns a new random key in the encoding NewBox accepts.
func GenerateKey() (string, error) {
	var key fernet.Key
	if err := key.Generate(); err != nil {
		return "", fmt.Errorf("failed to generate fernet key: %w", err)
	}
	return key.Encode(), nil
}

// Encrypt returns the fernet token for plaintext.
func (b *Box) Encrypt(plaintext string) (string, error) {
	token, err := fernet.EncryptAndSign([]byte(plaintext), b.key)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt secret: %w", err)
	}
	return string(token), nil
}

// Decrypt verifies and decrypts a fernet token. Tokens do not expire; the
// stored value stays valid until overwritten.
func (b *Box) Decrypt(token string) (string, error) {
	plaintext := fernet.VerifyAndDecrypt([]byte(token), 0, []*fernet.Key{b.key})
	if plaintext == nil {
		return "", ErrDecryptFailed
	}
	return string(plaintext), nil
}
