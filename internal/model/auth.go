package model

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenClaims is the JWT claim set issued at login and verified per request.
type TokenClaims struct {
	UserID     string `json:"user_id"`
	Role       string `json:"role"`
	OfficeID   string `json:"office_id"`
	Department string `json:"department,omitempty"`
	jwt.RegisteredClaims
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	UserID      uuid.UUID `json:"user_id"`
	Role        Role      `json:"role"`
}
