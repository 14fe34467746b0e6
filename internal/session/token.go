package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrExpiredToken = errors.New("session token expired")
)

// Claims binds a token to one test session.
type Claims struct {
	SessionID uuid.UUID `json:"session_id"`
	Module    string    `json:"module"`
	jwt.RegisteredClaims
}

// TokenConfig holds signing configuration for session tokens.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration // default: 2 hours
	Issuer string
}

// TokenManager issues and validates the bearer token handed out when a
// session starts. Every subsequent call on the session presents it, so a
// caller can only drive sessions it created.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewTokenManager creates a session token manager.
func NewTokenManager(cfg TokenConfig) *TokenManager {
	if cfg.TTL == 0 {
		cfg.TTL = 2 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "neuravia-cat"
	}
	return &TokenManager{
		secret: cfg.Secret,
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
	}
}

// Generate signs a token for one session.
func (m *TokenManager) Generate(sessionID uuid.UUID, module string) (string, error) {
	now := time.Now()
	claims := Claims{
		SessionID: sessionID,
		Module:    module,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   sessionID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate parses a token and returns its claims.
func (m *TokenManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
