package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	AccountID uuid.UUID
	Email     string
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued to signed-in shoppers.
type AccessTokenClaims struct {
	AccountID uuid.UUID `json:"account_id"`
	Email     string    `json:"email,omitempty"`
	jwt.RegisteredClaims
}
