package encryption

import (
	"errors"
	"fmt"

	"github.com/fernet/fernet-go"
)

// ErrInvalidToken is returned when a stored value cannot be decrypted with the configured key.
var ErrInvalidToken = errors.New("invalid or tampered token")

// Cipher encrypts short secrets (PF account numbers) at rest with a fernet key.
// A Cipher without a key passes values through unchanged.
type Cipher struct {
	key *fernet.Key
}

// New creates a Cipher from a base64 encoded 32 byte fernet key. An empty key disables encryption.
func New(encodedKey string) (*Cipher, error) {
	if encodedKey == "" {
		return &Cipher{}, nil
	}
	key, err := fernet.DecodeKey(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	return &Cipher{key: key}, nil
}

// GenerateKey returns a new random key in the encoding New expects.
func GenerateKey() (string, error) {
	var key fernet.Key
	if err := key.Generate(); err != nil {
		return "", err
	}
	return key.Encode(), nil
}

// Enabled reports whether a key is configured.
func (c *Cipher) Enabled() bool {
	return c.key != nil
}

// Encrypt returns the fernet token for plain. Empty input stays empty.
func (c *Cipher) Encrypt(plain string) (string, error) {
	if c.key == nil || plain == "" {
		return plain, nil
	}
	tok, err := fernet.EncryptAndSign([]byte(plain), c.key)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt: %w", err)
	}
	return string(tok), nil
}

// Decrypt reverses Encrypt. Tokens never expire.
func (c *Cipher) Decrypt(token string) (string, error) {
	if c.key == nil || token == "" {
		return token, nil
	}
	msg := fernet.VerifyAndDecrypt([]byte(token), 0, []*fernet.Key{c.key})
	if msg == nil {
		return "", ErrInvalidToken
	}
	return string(msg), nil
}
