package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Email  string
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Identity is an authenticated user plus the credential that proved it.
type Identity struct {
	UserID     uuid.UUID
	Email      string
	Credential string
	ExpiresAt  time.Time
}

// IsZero reports whether the identity is unset.
func (i Identity) IsZero() bool {
	return i.UserID == uuid.Nil
}
