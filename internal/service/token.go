package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pageza/mealplan-bot/backend/internal/types"
)

const tokenIssuer = "mealbot"

// TokenService signs and checks the bearer tokens the dialogue framework sends with webhook calls
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService using an HS256 shared secret
func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret)}
}

// GenerateToken issues a token for senderID. A zero ttl issues a token that never expires.
func (s *TokenService) GenerateToken(senderID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := types.ActionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   tokenIssuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
		SenderID: senderID,
	}
	if ttl != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *TokenService) ValidateToken(tokenString string) (*types.ActionClaims, error) {
	claims := &types.ActionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
