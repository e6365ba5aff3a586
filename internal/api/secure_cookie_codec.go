package api

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const (
	secureCookieVersion = "v1"
	secureCookieLabel   = "cyclecast.secure-cookie.v1"
)

var errInvalidSecureCookieValue = errors.New("invalid secure cookie value")

// secureCookieCodec encrypts cookie values with AES-GCM. The cookie name is bound as
// additional data so a value cannot be replayed under another cookie.
type secureCookieCodec struct {
	aead cipher.AEAD
}

func newSecureCookieCodec(secretKey []byte) (*secureCookieCodec, error) {
	if len(secretKey) == 0 {
		return nil, errors.New("secure cookie secret key is required")
	}

	key := sha256.Sum256(append([]byte(secureCookieLabel), secretKey...))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("init secure cookie cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init secure cookie aead: %w", err)
	}
	return &secureCookieCodec{aead: aead}, nil
}

func (codec *secureCookieCodec) seal(name string, plaintext []byte) (string, error) {
	nonce := make([]byte, codec.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate secure cookie nonce: %w", err)
	}
	payload := codec.aead.Seal(nonce, nonce, plaintext, []byte(name))
	return secureCookieVersion + "." + base64.RawURLEncoding.EncodeToString(payload), nil
}

func (codec *secureCookieCodec) open(name string, rawValue string) ([]byte, error) {
	version, encoded, found := strings.Cut(strings.TrimSpace(rawValue), ".")
	if !found || version != secureCookieVersion || encoded == "" {
		return nil, errInvalidSecureCookieValue
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil || len(payload) <= codec.aead.NonceSize() {
		return nil, errInvalidSecureCookieValue
	}

	nonce, ciphertext := payload[:codec.aead.NonceSize()], payload[codec.aead.NonceSize():]
	plaintext, err := codec.aead.Open(nil, nonce, ciphertext, []byte(name))
	if err != nil {
		return nil, errInvalidSecureCookieValue
	}
	return plaintext, nil
}
