package services

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	sessionTokenIssuer = "cyclecast"
	defaultSessionTTL  = 7 * 24 * time.Hour
)

var (
	ErrSessionTokenMissing       = errors.New("missing session token")
	ErrSessionTokenInvalid       = errors.New("invalid session token")
	ErrSessionTokenExpired       = errors.New("expired session token")
	ErrSessionTokenPasswordState = errors.New("session token password state mismatch")
)

// SessionClaims carry the account and a fingerprint of its password hash, so a
// password change ends every older session.
type SessionClaims struct {
	UserID        uint   `json:"uid"`
	Role          string `json:"role"`
	PasswordState string `json:"pwd"`
	jwt.RegisteredClaims
}

func BuildSessionToken(secretKey []byte, userID uint, role string, passwordHash string, ttl time.Duration, now time.Time) (string, SessionClaims, error) {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if now.IsZero() {
		now = time.Now()
	}

	claims := SessionClaims{
		UserID:        userID,
		Role:          role,
		PasswordState: PasswordStateFingerprint(passwordHash),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    sessionTokenIssuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secretKey)
	if err != nil {
		return "", SessionClaims{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, claims, nil
}

func ParseSessionToken(secretKey []byte, rawToken string, now time.Time) (*SessionClaims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, ErrSessionTokenMissing
	}
	if now.IsZero() {
		now = time.Now()
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return secretKey, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }), jwt.WithIssuer(sessionTokenIssuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionTokenExpired
		}
		return nil, ErrSessionTokenInvalid
	}
	if !token.Valid || claims.UserID == 0 || claims.ID == "" {
		return nil, ErrSessionTokenInvalid
	}
	return claims, nil
}

// PasswordStateFingerprint hashes a password hash into a value safe to embed in tokens.
func PasswordStateFingerprint(passwordHash string) string {
	normalizedHash := strings.TrimSpace(passwordHash)
	if normalizedHash == "" {
		return ""
	}
	sum := sha256.Sum256([]byte("cyclecast.session.password-state.v1:" + normalizedHash))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func IsPasswordStateFingerprintMatch(expected string, passwordHash string) bool {
	actual := PasswordStateFingerprint(passwordHash)
	if strings.TrimSpace(expected) == "" || actual == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(actual)) == 1
}
