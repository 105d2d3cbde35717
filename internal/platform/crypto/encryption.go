// Package crypto seals small secrets (bank routing and account numbers) at rest.
package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// sealed values are version || nonce || ciphertext.
const versionXChaCha = 1

var (
	ErrMalformed     = errors.New("sealed value is malformed")
	ErrNotConfigured = errors.New("encryption key is not configured")
)

type Service struct {
	aead cipher.AEAD
}

// New accepts a 32-byte key as hex or base64. An empty key yields a service
// that refuses to seal, so bank details are never written in the clear.
func New(key string) (*Service, error) {
	if key == "" {
		return &Service{}, nil
	}
	decoded, err := decodeKey(key)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(decoded)
	if err != nil {
		return nil, fmt.Errorf("DATA_ENCRYPTION_KEY: %w", err)
	}
	return &Service{aead: aead}, nil
}

func (s *Service) Configured() bool {
	return s != nil && s.aead != nil
}

func (s *Service) Encrypt(plain []byte) ([]byte, error) {
	if len(plain) == 0 {
		return nil, nil
	}
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	out := make([]byte, 1+s.aead.NonceSize(), 1+s.aead.NonceSize()+len(plain)+s.aead.Overhead())
	out[0] = versionXChaCha
	if _, err := rand.Read(out[1:]); err != nil {
		return nil, err
	}
	return s.aead.Seal(out, out[1:], plain, nil), nil
}

func (s *Service) Decrypt(sealed []byte) ([]byte, error) {
	if len(sealed) == 0 {
		return nil, nil
	}
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	if sealed[0] != versionXChaCha || len(sealed) < 1+s.aead.NonceSize()+s.aead.Overhead() {
		return nil, ErrMalformed
	}
	nonce := sealed[1 : 1+s.aead.NonceSize()]
	return s.aead.Open(nil, nonce, sealed[1+s.aead.NonceSize():], nil)
}

func (s *Service) EncryptString(value string) ([]byte, error) {
	if value == "" {
		return nil, nil
	}
	return s.Encrypt([]byte(value))
}

func (s *Service) DecryptString(value []byte) (string, error) {
	plain, err := s.Decrypt(value)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func decodeKey(raw string) ([]byte, error) {
	if len(raw) == 2*chacha20poly1305.KeySize {
		if decoded, err := hex.DecodeString(raw); err == nil {
			return decoded, nil
		}
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if decoded, err := enc.DecodeString(raw); err == nil && len(decoded) == chacha20poly1305.KeySize {
			return decoded, nil
		}
	}
	return nil, fmt.Errorf("DATA_ENCRYPTION_KEY must decode to %d bytes", chacha20poly1305.KeySize)
}
