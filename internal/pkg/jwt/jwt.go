package jwt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const (
	defaultSecret = "daily-reflections-secret-change-me"
	issuer        = "daily-reflections"
)

var (
	mu     sync.RWMutex
	secret = []byte(defaultSecret)
)

// SetSecret configures the JWT signing secret (call on startup).
func SetSecret(s string) {
	if s == "" {
		return
	}
	mu.Lock()
	secret = []byte(s)
	mu.Unlock()
}

func currentSecret() []byte {
	mu.RLock()
	defer mu.RUnlock()
	return secret
}

// Claims is the JWT payload.
type Claims struct {
	UserID    string `json:"uid"`
	SessionID string `json:"sid,omitempty"`
	jwtlib.RegisteredClaims
}

// Sign creates a signed token for userID bound to sessionID.
func Sign(userID, sessionID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("jwt: empty user id")
	}
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		SessionID: sessionID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(currentSecret())
}

// Parse validates a token string and returns the claims.
func Parse(tokenStr string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return currentSecret(), nil
	}, jwtlib.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
