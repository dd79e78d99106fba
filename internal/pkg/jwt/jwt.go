package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims represents an admin session token.
type Claims struct {
	Mobile string `json:"mobile"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Privileged reports whether the actor may reverse any transaction.
func (c *Claims) Privileged() bool {
	return c.Role == "manager"
}

// Service handles JWT operations
type Service struct {
	secret     []byte
	sessionTTL time.Duration
}

// NewService creates JWT service
func NewService(secret string, sessionTTL time.Duration) *Service {
	return &Service{secret: []byte(secret), sessionTTL: sessionTTL}
}

// GenerateToken generates a session token for an admin actor.
func (s *Service) GenerateToken(mobile, role string) (string, error) {
	claims := Claims{
		Mobile: mobile,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   mobile,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken validates and parses a session token.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
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

func (s *Service) GetSessionTTL() time.Duration { return s.sessionTTL }
