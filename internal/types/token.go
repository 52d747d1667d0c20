package types

import (
	"github.com/golang-jwt/jwt/v5"
)

// ActionClaims are the claims of a token signed by the dialogue framework
type ActionClaims struct {
	jwt.RegisteredClaims
	SenderID string `json:"sender_id,omitempty"`
}
